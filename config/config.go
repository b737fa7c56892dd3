// Package config loads process configuration from a file, a .env file and
// SANCTION_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/heibot/sanction"
	"github.com/heibot/sanction/discord"
	sqlstore "github.com/heibot/sanction/store/sql"
)

// EnvPrefix prefixes every environment override, e.g. SANCTION_STORE_DSN.
const EnvPrefix = "SANCTION"

// Config is the full process configuration.
type Config struct {
	Policy  PolicyConfig    `mapstructure:"policy"`
	Store   sqlstore.Config `mapstructure:"store"`
	Redis   RedisConfig     `mapstructure:"redis"`
	Discord discord.Config  `mapstructure:"discord"`
	HTTP    HTTPConfig      `mapstructure:"http"`
	Log     LogConfig       `mapstructure:"log"`
}

// PolicyConfig mirrors sanction.Config with file-friendly types.
type PolicyConfig struct {
	Enabled                     bool                     `mapstructure:"enabled"`
	DryRun                      bool                     `mapstructure:"dry_run"`
	LookbackDays                int                      `mapstructure:"lookback_days"`
	MaxAutoOffensesBeforeReview int                      `mapstructure:"max_auto_offenses_before_review"`
	FirstOffenseSeverityCap     string                   `mapstructure:"first_offense_severity_cap"`
	DeleteOnHighSeverity        bool                     `mapstructure:"delete_on_high_severity"`
	ExcludedChannelIDs          []string                 `mapstructure:"excluded_channel_ids"`
	ViolationExpiry             map[string]time.Duration `mapstructure:"violation_expiry"`
}

// RedisConfig enables the distributed per-user lock when URL is set.
type RedisConfig struct {
	URL     string        `mapstructure:"url"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	Metrics         bool          `mapstructure:"metrics"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

func setDefaults(v *viper.Viper) {
	policy := sanction.DefaultConfig()
	v.SetDefault("policy.enabled", policy.Enabled)
	v.SetDefault("policy.dry_run", policy.DryRun)
	v.SetDefault("policy.lookback_days", policy.LookbackDays)
	v.SetDefault("policy.max_auto_offenses_before_review", policy.MaxAutoOffensesBeforeReview)
	v.SetDefault("policy.first_offense_severity_cap", policy.FirstOffenseSeverityCap.String())
	v.SetDefault("policy.delete_on_high_severity", policy.DeleteOnHighSeverity)
	v.SetDefault("policy.excluded_channel_ids", []string{})
	expiry := make(map[string]any)
	for sev, d := range policy.ViolationExpiry {
		expiry[strings.ToLower(sev.String())] = d.String()
	}
	v.SetDefault("policy.violation_expiry", expiry)

	store := sqlstore.DefaultConfig()
	v.SetDefault("store.driver", string(store.Dialect))
	v.SetDefault("store.dsn", store.DSN)
	v.SetDefault("store.max_open_conns", store.MaxOpenConns)
	v.SetDefault("store.max_idle_conns", store.MaxIdleConns)
	v.SetDefault("store.conn_max_lifetime", store.ConnMaxLifetime)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.lock_ttl", 10*time.Second)

	dc := discord.DefaultConfig()
	v.SetDefault("discord.token", "")
	v.SetDefault("discord.alert_channel_id", "")
	v.SetDefault("discord.review_channel_id", "")
	v.SetDefault("discord.timeout", dc.Timeout)
	v.SetDefault("discord.max_retries", dc.MaxRetries)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.metrics", true)
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.shutdown_timeout", 15*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads path (optional; YAML, JSON or TOML by extension) and applies
// environment overrides. A .env file in the working directory is loaded
// first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env file not found, relying on environment variables")
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", sanction.ErrInvalidConfig, err)
	}
	if _, err := cfg.Engine(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Engine converts the policy section into a validated sanction.Config.
func (c *Config) Engine() (sanction.Config, error) {
	p := c.Policy
	out := sanction.Config{
		Enabled:                     p.Enabled,
		DryRun:                      p.DryRun,
		LookbackDays:                p.LookbackDays,
		MaxAutoOffensesBeforeReview: p.MaxAutoOffensesBeforeReview,
		DeleteOnHighSeverity:        p.DeleteOnHighSeverity,
		ExcludedChannelIDs:          splitIDs(p.ExcludedChannelIDs),
		ViolationExpiry:             make(map[sanction.Severity]time.Duration, len(p.ViolationExpiry)),
	}

	var err error
	out.FirstOffenseSeverityCap, err = sanction.ParseSeverity(p.FirstOffenseSeverityCap)
	if err != nil {
		return sanction.Config{}, fmt.Errorf("%w: first_offense_severity_cap: %v", sanction.ErrInvalidConfig, err)
	}
	for name, d := range p.ViolationExpiry {
		sev, err := sanction.ParseSeverity(name)
		if err != nil {
			return sanction.Config{}, fmt.Errorf("%w: violation_expiry: %v", sanction.ErrInvalidConfig, err)
		}
		out.ViolationExpiry[sev] = d
	}

	if err := out.Validate(); err != nil {
		return sanction.Config{}, err
	}
	return out, nil
}

// SlogLevel parses Log.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return lvl, errors.Join(sanction.ErrInvalidConfig, err)
	}
	return lvl, nil
}

// splitIDs accepts both list values and a single comma-separated env value.
func splitIDs(in []string) []string {
	var out []string
	for _, s := range in {
		for _, id := range strings.Split(s, ",") {
			if id = strings.TrimSpace(id); id != "" {
				out = append(out, id)
			}
		}
	}
	return out
}
