package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type App struct {
	Port            string        `mapstructure:"port"`
	LogLevel        string        `mapstructure:"log_level"`
	MigrationDir    string        `mapstructure:"migration_dir"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type Retry struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Backoff     string        `mapstructure:"backoff"`
	Base        time.Duration `mapstructure:"base"`
	Factor      float64       `mapstructure:"factor"`
	Max         time.Duration `mapstructure:"max"`
	Jitter      bool          `mapstructure:"jitter"`
}

// AI configures the generation collaborator. With UseMock set the
// service runs against the deterministic mock client and never leaves
// the process.
type AI struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
	UseMock bool          `mapstructure:"use_mock"`
}

type Config struct {
	App   App   `mapstructure:"app"`
	Retry Retry `mapstructure:"retry"`
	AI    AI    `mapstructure:"ai"`

	DatabaseURL string `mapstructure:"database_url"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("app.port", "8080")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.migration_dir", "migrations")
	v.SetDefault("app.shutdown_timeout", 10*time.Second)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.backoff", "exponential")
	v.SetDefault("retry.base", 50*time.Millisecond)
	v.SetDefault("retry.factor", 2.0)
	v.SetDefault("retry.max", time.Second)
	v.SetDefault("retry.jitter", true)
	v.SetDefault("ai.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("ai.model", "openai/gpt-4o-mini")
	v.SetDefault("ai.timeout", 60*time.Second)

	v.AutomaticEnv()
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("ai.api_key", "OPENROUTER_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database_url is required (set DATABASE_URL)")
	}

	return cfg, nil
}
