package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Supported persistence backends.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverBadger   = "badger"
)

type Config struct {
	Env  string
	Port int

	Store    StoreConfig
	Database DatabaseConfig
	Badger   BadgerConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Log      LogConfig
	CORS     CORSConfig
	Discord  DiscordConfig
	Vanity   VanityConfig
	Sweep    SweepConfig
	Intake   IntakeConfig
}

// StoreConfig selects where community configuration and the ledger live.
type StoreConfig struct {
	Driver string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// BadgerConfig configures the embedded store.
type BadgerConfig struct {
	Path       string
	SyncWrites bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	CacheTTL time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

// CORSConfig lists browser origins allowed to call the admin API.
type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DiscordConfig configures the gateway session.
type DiscordConfig struct {
	Token            string
	RegisterCommands bool
}

// VanityConfig holds the detection and announcement policy.
type VanityConfig struct {
	Tag           string
	Footer        string
	IgnoreOffline bool
	// LedgerRefresh bounds how long a loaded ledger is trusted before it is
	// read again from the store.
	LedgerRefresh time.Duration
}

// SweepConfig tunes the periodic full re-evaluation.
type SweepConfig struct {
	Enabled       bool
	Interval      time.Duration
	Concurrency   int
	RatePerSecond float64
}

// IntakeConfig tunes the event intake worker pool.
type IntakeConfig struct {
	Workers    int
	BufferSize int
	Retries    int
	RetryDelay time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.Store = StoreConfig{Driver: strings.ToLower(v.GetString("STORE_DRIVER"))}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Badger = BadgerConfig{
		Path:       v.GetString("BADGER_PATH"),
		SyncWrites: v.GetBool("BADGER_SYNC_WRITES"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		CacheTTL: parseDuration(v.GetString("CONFIG_CACHE_TTL"), 5*time.Minute),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Discord = DiscordConfig{
		Token:            v.GetString("DISCORD_TOKEN"),
		RegisterCommands: v.GetBool("DISCORD_REGISTER_COMMANDS"),
	}

	cfg.Vanity = VanityConfig{
		Tag:           v.GetString("VANITY_TAG"),
		Footer:        v.GetString("ANNOUNCE_FOOTER"),
		IgnoreOffline: v.GetBool("IGNORE_OFFLINE"),
		LedgerRefresh: parseDuration(v.GetString("LEDGER_REFRESH"), time.Minute),
	}

	cfg.Sweep = SweepConfig{
		Enabled:       v.GetBool("SWEEP_ENABLED"),
		Interval:      parseDuration(v.GetString("SWEEP_INTERVAL"), 10*time.Minute),
		Concurrency:   v.GetInt("SWEEP_CONCURRENCY"),
		RatePerSecond: v.GetFloat64("SWEEP_RATE_PER_SECOND"),
	}

	cfg.Intake = IntakeConfig{
		Workers:    v.GetInt("INTAKE_WORKERS"),
		BufferSize: v.GetInt("INTAKE_BUFFER"),
		Retries:    v.GetInt("INTAKE_RETRIES"),
		RetryDelay: parseDuration(v.GetString("INTAKE_RETRY_DELAY"), 5*time.Second),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverBadger:
	default:
		return errors.New("STORE_DRIVER must be one of postgres, badger")
	}
	if strings.TrimSpace(c.Vanity.Tag) == "" {
		return errors.New("VANITY_TAG must not be empty")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 3000)

	v.SetDefault("STORE_DRIVER", StoreDriverBadger)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "vanity_bot")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("BADGER_PATH", "./data")
	v.SetDefault("BADGER_SYNC_WRITES", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CONFIG_CACHE_TTL", "5m")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ALLOWED_ORIGINS", "")

	v.SetDefault("DISCORD_TOKEN", "")
	v.SetDefault("DISCORD_REGISTER_COMMANDS", true)

	v.SetDefault("VANITY_TAG", "/vanir")
	v.SetDefault("ANNOUNCE_FOOTER", "")
	v.SetDefault("IGNORE_OFFLINE", true)
	v.SetDefault("LEDGER_REFRESH", "1m")

	v.SetDefault("SWEEP_ENABLED", true)
	v.SetDefault("SWEEP_INTERVAL", "10m")
	v.SetDefault("SWEEP_CONCURRENCY", 4)
	v.SetDefault("SWEEP_RATE_PER_SECOND", 5)

	v.SetDefault("INTAKE_WORKERS", 4)
	v.SetDefault("INTAKE_BUFFER", 256)
	v.SetDefault("INTAKE_RETRIES", 0)
	v.SetDefault("INTAKE_RETRY_DELAY", "5s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
