package config

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	DefaultTimezone   string `mapstructure:"DEFAULT_TIMEZONE"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisLockDB   int    `mapstructure:"REDIS_LOCK_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Model provider.
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string `mapstructure:"GEMINI_MODEL"`

	// Speech-to-text for voice notes. Empty disables transcription.
	GoogleServiceAccountFile string `mapstructure:"GOOGLE_SERVICE_ACCOUNT_FILE"`

	// Conversation agent tuning.
	AgentMaxToolIterations int           `mapstructure:"AGENT_MAX_TOOL_ITERATIONS"`
	AgentHistoryWindow     int           `mapstructure:"AGENT_HISTORY_WINDOW"`
	AgentModelTimeout      time.Duration `mapstructure:"AGENT_MODEL_TIMEOUT"`
	AgentToolTimeout       time.Duration `mapstructure:"AGENT_TOOL_TIMEOUT"`
	AgentMaxRetries        int           `mapstructure:"AGENT_MAX_RETRIES"`
	AgentRetryBaseDelay    time.Duration `mapstructure:"AGENT_RETRY_BASE_DELAY"`
	AgentLockTTL           time.Duration `mapstructure:"AGENT_LOCK_TTL"`
	AgentFallbackMessage   string        `mapstructure:"AGENT_FALLBACK_MESSAGE"`
	TenantCacheTTL         time.Duration `mapstructure:"TENANT_CACHE_TTL"`

	// Availability: require the whole service to fit before closing time.
	RequireFitBeforeClose bool `mapstructure:"REQUIRE_FIT_BEFORE_CLOSE"`
}

var AppConfig Config

// LoadConfig reads config.yaml (current dir or ./config) and the environment.
func LoadConfig() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 30)
	viper.SetDefault("DEFAULT_TIMEZONE", "America/Sao_Paulo")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017/?replicaSet=rs0")
	viper.SetDefault("DATABASE_NAME", "agendabot")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_LOCK_DB", 1)
	viper.SetDefault("REDIS_QUEUE_DB", 2)
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	viper.SetDefault("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	viper.SetDefault("AGENT_MAX_TOOL_ITERATIONS", 10)
	viper.SetDefault("AGENT_HISTORY_WINDOW", 50)
	viper.SetDefault("AGENT_MODEL_TIMEOUT", 30*time.Second)
	viper.SetDefault("AGENT_TOOL_TIMEOUT", 15*time.Second)
	viper.SetDefault("AGENT_MAX_RETRIES", 3)
	viper.SetDefault("AGENT_RETRY_BASE_DELAY", time.Second)
	viper.SetDefault("AGENT_LOCK_TTL", 2*time.Minute)
	viper.SetDefault("AGENT_FALLBACK_MESSAGE", "")
	viper.SetDefault("TENANT_CACHE_TTL", time.Minute)
	viper.SetDefault("REQUIRE_FIT_BEFORE_CLOSE", false)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return &AppConfig
}

// Validate reports settings the service cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.GeminiAPIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required"))
	}
	return errors.Join(errs...)
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
