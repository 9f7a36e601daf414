package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables use the
// SORTLAB_ prefix with underscores for nesting (SORTLAB_SERVER_PORT,
// SORTLAB_DATABASE_URL) and take precedence over file values.
//
// The returned Config has passed struct validation; callers can rely on
// required fields being present and in range.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SORTLAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing config file is fine; env vars alone can configure the app.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Viper only binds env vars it has seen keys for; BindEnv each known key
	// so AutomaticEnv works without a config file present.
	for _, key := range configKeys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)
	v.SetDefault("server.shutdown_timeout", 10)

	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.refresh_token_lifetime_minutes", 10080)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_size", 100)
	v.SetDefault("task.stuck_task_age_minutes", 30)

	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.request_timeout_seconds", 60)
	v.SetDefault("llm.retry_backoff_seconds", 2)
}

func configKeys() []string {
	return []string{
		"server.port",
		"server.log_level",
		"server.read_timeout",
		"server.write_timeout",
		"server.shutdown_timeout",
		"database.url",
		"auth.jwt_secret",
		"auth.token_lifetime_minutes",
		"auth.refresh_token_lifetime_minutes",
		"auth.bcrypt_cost",
		"task.worker_count",
		"task.queue_size",
		"task.stuck_task_age_minutes",
		"llm.gemini_api_key",
		"llm.model_name",
		"llm.max_retries",
		"llm.prompt_template_path",
		"llm.temperature",
		"llm.request_timeout_seconds",
		"llm.retry_backoff_seconds",
	}
}
