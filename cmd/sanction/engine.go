package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heibot/sanction/client"
	"github.com/heibot/sanction/config"
	"github.com/heibot/sanction/discord"
	"github.com/heibot/sanction/hooks"
	"github.com/heibot/sanction/lock"
	sqlstore "github.com/heibot/sanction/store/sql"
)

// engine bundles a client with the resources it owns.
type engine struct {
	client  *client.Client
	closers []func() error
}

func (e *engine) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			slog.Warn("failed to close resource", "err", err)
		}
	}
}

func openStore(ctx context.Context, cfg *config.Config) (*sqlstore.Store, error) {
	st, err := sqlstore.New(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return st, nil
}

// buildEngine wires the store, the optional redis lock and the optional
// Discord adapter into a client. dryRun forces dry-run regardless of config.
func buildEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger, dryRun bool) (*engine, error) {
	policy, err := cfg.Engine()
	if err != nil {
		return nil, err
	}
	if dryRun {
		policy.DryRun = true
	}

	e := &engine{}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, st.Close)

	opts := client.Options{
		Store:  st,
		Config: &policy,
		Logger: logger,
	}

	if cfg.Redis.URL != "" {
		locker, err := lock.NewRedisLocker(ctx, cfg.Redis.URL, cfg.Redis.LockTTL)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.closers = append(e.closers, locker.Close)
		opts.Locker = locker
	}

	chain := hooks.ChainHooks{}
	if cfg.Discord.Token != "" {
		session, err := discord.NewSession(cfg.Discord.Token)
		if err != nil {
			e.Close()
			return nil, err
		}
		platform := discord.New(session, cfg.Discord, logger)
		opts.Deleter = platform
		chain = append(chain, discord.NewNotifier(platform))
	}
	opts.Hooks = chain

	e.client, err = client.New(opts)
	if err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}
