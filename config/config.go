package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Budget   BudgetConfig   `mapstructure:"budget"`
	Receipt  ReceiptConfig  `mapstructure:"receipt"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// BudgetConfig controls the spend ledger core: how often the settlement
// worker sweeps, when a provisional charge counts as abandoned, and the
// cache-outage policy during authorization.
type BudgetConfig struct {
	// Period is the spend accounting window: "monthly" or "daily".
	Period string `mapstructure:"period"`
	// SettleInterval is how often the settlement worker replays the WAL.
	SettleInterval time.Duration `mapstructure:"settle_interval"`
	// AbandonAfter is the age past which a PENDING charge is reversed.
	AbandonAfter time.Duration `mapstructure:"abandon_after"`
	// MaxSettleAttempts is the number of settlement failures tolerated
	// before an entry is flagged for manual review.
	MaxSettleAttempts int `mapstructure:"max_settle_attempts"`
	// FailOpenLimit is the largest amount (micro-units) allowed through
	// while the hot spend cache is unreachable. 0 means strictly fail-closed.
	FailOpenLimit int64 `mapstructure:"fail_open_limit"`
	// VelocityRPM caps authorize calls per user per minute. 0 disables.
	VelocityRPM int64 `mapstructure:"velocity_rpm"`
}

type ReceiptConfig struct {
	HMACSecret string `mapstructure:"hmac_secret"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: ASL_ (AgentShield Ledger).
// Nested keys use underscore: ASL_DATABASE_HOST, ASL_BUDGET_SETTLE_INTERVAL, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "spend_ledger")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("budget.period", "monthly")
	v.SetDefault("budget.settle_interval", "30s")
	v.SetDefault("budget.abandon_after", "15m")
	v.SetDefault("budget.max_settle_attempts", 5)
	v.SetDefault("budget.fail_open_limit", 0)
	v.SetDefault("budget.velocity_rpm", 0)
	v.SetDefault("receipt.hmac_secret", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: ASL_DATABASE_HOST -> database.host
	v.SetEnvPrefix("ASL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required — env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Budget.Period != "monthly" && cfg.Budget.Period != "daily" {
		return nil, fmt.Errorf("invalid budget.period %q (want monthly or daily)", cfg.Budget.Period)
	}

	return &cfg, nil
}
