package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	cli "github.com/urfave/cli/v2"

	"github.com/heibot/sanction"
	"github.com/heibot/sanction/client"
	"github.com/heibot/sanction/server"
	"github.com/heibot/sanction/standing"
	"github.com/heibot/sanction/violation"
)

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "run the HTTP API",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on (overrides http.addr)",
			EnvVars: []string{"SANCTION_BIND"},
		},
	},
	Action: func(cctx *cli.Context) error {
		cfg, logger, err := loadConfig(cctx)
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		e, err := buildEngine(ctx, cfg, logger, false)
		if err != nil {
			return err
		}
		defer e.Close()

		addr := cfg.HTTP.Addr
		if b := cctx.String("bind"); b != "" {
			addr = b
		}
		policy := e.client.Config()
		logger.Info("engine configured",
			"enabled", policy.Enabled,
			"dry_run", policy.DryRun,
			"lookback_days", policy.LookbackDays,
			"store", cfg.Store.Dialect,
			"redis_lock", cfg.Redis.URL != "",
			"discord", cfg.Discord.Token != "")

		srv := server.New(e.client, server.Options{
			Addr:            addr,
			Metrics:         cfg.HTTP.Metrics,
			ReadTimeout:     cfg.HTTP.ReadTimeout,
			WriteTimeout:    cfg.HTTP.WriteTimeout,
			ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
			Logger:          logger,
		})
		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("failed to run http server: %w", err)
		}
		return nil
	},
}

var evaluateCmd = &cli.Command{
	Name:      "evaluate",
	Usage:     "evaluate one flagged message (dry run unless --live)",
	ArgsUsage: "<rule-id>...",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "guild", Required: true},
		&cli.StringFlag{Name: "user", Required: true},
		&cli.StringFlag{Name: "channel"},
		&cli.StringFlag{Name: "message"},
		&cli.StringFlag{Name: "content"},
		&cli.StringFlag{Name: "reason"},
		&cli.StringFlag{Name: "moderator", Usage: "moderator id for manual reports"},
		&cli.BoolFlag{Name: "live", Usage: "record the violation and delete the message"},
		&cli.BoolFlag{Name: "json", Usage: "print the full result as JSON"},
	},
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() == 0 {
			return cli.Exit("at least one rule id is required", 1)
		}
		cfg, logger, err := loadConfig(cctx)
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		e, err := buildEngine(ctx, cfg, logger, !cctx.Bool("live"))
		if err != nil {
			return err
		}
		defer e.Close()

		in := client.EvaluateInput{
			GuildID:   cctx.String("guild"),
			ChannelID: cctx.String("channel"),
			MessageID: cctx.String("message"),
			UserID:    cctx.String("user"),
			Content:   cctx.String("content"),
			IssuedBy:  cctx.String("moderator"),
			Moderation: sanction.ModerationResult{
				Categories: splitIDs(cctx.Args().Slice()),
				Reason:     cctx.String("reason"),
			},
		}
		res, err := e.client.Evaluate(ctx, in)
		if err != nil {
			return err
		}
		if cctx.Bool("json") {
			return printJSON(cctx.App.Writer, res)
		}
		fmt.Fprintln(cctx.App.Writer, client.FormatAlert(res, in))
		return nil
	},
}

var standingCmd = &cli.Command{
	Name:  "standing",
	Usage: "show the account standing of one or more members",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "guild", Required: true},
		&cli.StringSliceFlag{Name: "user", Required: true, Usage: "member id; repeat or comma-separate for several"},
		&cli.BoolFlag{Name: "json"},
	},
	Action: func(cctx *cli.Context) error {
		userIDs := splitIDs(cctx.StringSlice("user"))
		if len(userIDs) == 0 {
			return cli.Exit("at least one user is required", 1)
		}
		cfg, logger, err := loadConfig(cctx)
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		e, err := buildEngine(ctx, cfg, logger, true)
		if err != nil {
			return err
		}
		defer e.Close()

		guildID := cctx.String("guild")
		if len(userIDs) == 1 {
			if cctx.Bool("json") {
				data, err := e.client.AccountStanding(ctx, guildID, userIDs[0])
				if err != nil {
					return err
				}
				return printJSON(cctx.App.Writer, data)
			}
			text, err := e.client.DescribeStanding(ctx, guildID, userIDs[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cctx.App.Writer, text)
			return nil
		}

		all, err := e.client.AccountStandings(ctx, guildID, userIDs)
		if err != nil {
			return err
		}
		if cctx.Bool("json") {
			return printJSON(cctx.App.Writer, all)
		}
		for _, uid := range userIDs {
			fmt.Fprintf(cctx.App.Writer, "%s: %s\n", uid, standing.Describe(all[uid]))
		}
		return nil
	},
}

var migrateCmd = &cli.Command{
	Name:  "migrate",
	Usage: "create or update the violations schema",
	Action: func(cctx *cli.Context) error {
		cfg, logger, err := loadConfig(cctx)
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		logger.Info("schema up to date", "driver", cfg.Store.Dialect)
		return nil
	},
}

var rulesCmd = &cli.Command{
	Name:  "rules",
	Usage: "list the rule catalog",
	Action: func(cctx *cli.Context) error {
		tw := tabwriter.NewWriter(cctx.App.Writer, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSECTION\tTYPE\tSEVERE\tTITLE")
		for _, r := range violation.Rules() {
			severe := ""
			if r.Severe {
				severe = "yes"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Section, r.Type, severe, r.Title)
		}
		return tw.Flush()
	},
}

// splitIDs accepts "101,104" as well as separate arguments. Empty and
// duplicate entries are dropped.
func splitIDs(args []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, a := range args {
		for _, id := range strings.Split(a, ",") {
			if id = strings.TrimSpace(id); id != "" && !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}
