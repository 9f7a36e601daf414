package config

// Config holds all application configuration, organized into logical groups.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Task     TaskConfig     `mapstructure:"task"`
	LLM      LLMConfig      `mapstructure:"llm"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// Timeouts are in seconds.
	ReadTimeout     int `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout    int `mapstructure:"write_timeout" validate:"gte=0"`
	ShutdownTimeout int `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains authentication and token settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`

	// Token lifetimes are in minutes.
	TokenLifetimeMinutes        int `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`

	BcryptCost int `mapstructure:"bcrypt_cost" validate:"omitempty,gte=4,lte=31"`
}

// TaskConfig contains settings for the background task runner.
type TaskConfig struct {
	WorkerCount         int `mapstructure:"worker_count" validate:"gte=0"`
	QueueSize           int `mapstructure:"queue_size" validate:"gte=0"`
	StuckTaskAgeMinutes int `mapstructure:"stuck_task_age_minutes" validate:"gte=0"`
}

// LLMConfig contains settings for the insight summarizer. An empty API key
// disables insight generation.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	ModelName    string `mapstructure:"model_name"`

	MaxRetries          int     `mapstructure:"max_retries" validate:"gte=0"`
	PromptTemplatePath  string  `mapstructure:"prompt_template_path"`
	Temperature         float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	RequestTimeoutSecs  int     `mapstructure:"request_timeout_seconds" validate:"gte=0"`
	RetryBackoffSeconds int     `mapstructure:"retry_backoff_seconds" validate:"gte=0"`
}
