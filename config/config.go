package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

// Config holds application configuration loaded from files and environment
// variables.
type Config struct {
	Env           string `mapstructure:"env"`            // current application environment (local, dev, production)
	HTTPPort      string `mapstructure:"http_port"`      // port the REST API listens on
	QuestionsDir  string `mapstructure:"questions_dir"`  // directory with authored question JSON files
	LogsDir       string `mapstructure:"logs_dir"`       // directory for the JSONL audit trail
	PromptVersion string `mapstructure:"prompt_version"` // recorded in every dialogue log entry

	// EscalationThreshold is the retry count at which incorrect answers start
	// triggering AI-enriched feedback.
	EscalationThreshold int `mapstructure:"escalation_threshold"`

	DB    DB    `mapstructure:"database"`
	Redis Redis `mapstructure:"redis"`
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// Redis contains Redis-related configuration parameters.
type Redis struct {
	Addr string `mapstructure:"-"` // address loaded from environment
}

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	v.SetDefault("env", "local")
	v.SetDefault("http_port", "8080")
	v.SetDefault("questions_dir", "data/questions")
	v.SetDefault("logs_dir", "data/logs")
	v.SetDefault("prompt_version", "v1.0")
	v.SetDefault("escalation_threshold", 2)
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("redis_addr", "REDIS_ADDR")
	_ = v.BindEnv("env", "APP_ENV")
	_ = v.BindEnv("http_port", "PORT")
	_ = v.BindEnv("prompt_version", "PROMPT_VERSION")

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	cfg.DB.URL = v.GetString("database_url")
	if cfg.DB.URL == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	cfg.Redis.Addr = v.GetString("redis_addr")
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}

	return &cfg, nil
}
