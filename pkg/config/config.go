package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	LLM       LLMConfig
	Tracker   TrackerConfig
	Projects  ProjectsConfig
	SQLite    SQLiteConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Drafts    DraftsConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    int
	WriteTimeout   int
	BodyLimit      int
	Environment    string
	AllowedOrigins []string
}

type LLMConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	ExtractionModel string
	Temperature     float32
	MaxTokens       int
	TimeoutSec      int
}

type TrackerConfig struct {
	Backend string
	CSVPath string
}

type ProjectsConfig struct {
	Backend string
}

type SQLiteConfig struct {
	Path string
}

type PostgresConfig struct {
	DSN string
}

type RedisConfig struct {
	Enabled      bool
	Host         string
	Port         int
	Password     string
	DB           int
	AnswerTTLSec int
}

type DraftsConfig struct {
	TTLSec int
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

const (
	BackendCSV      = "csv"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/ai-portfolio")

	v.SetEnvPrefix("PORTFOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindWellKnownEnv(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive, got %d", c.Server.Port)
	}

	switch c.Tracker.Backend {
	case BackendCSV, BackendSQLite, BackendPostgres:
	default:
		return fmt.Errorf("unknown tracker.backend %q", c.Tracker.Backend)
	}

	switch c.Projects.Backend {
	case BackendSQLite, BackendPostgres:
	default:
		return fmt.Errorf("unknown projects.backend %q", c.Projects.Backend)
	}

	if c.Tracker.Backend == BackendCSV && c.Tracker.CSVPath == "" {
		return fmt.Errorf("tracker.csvPath is required for the csv backend")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 60)
	v.SetDefault("server.bodyLimit", 10485760)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowedOrigins", []string{"*"})

	v.SetDefault("llm.apiKey", "")
	v.SetDefault("llm.baseURL", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.extractionModel", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.maxTokens", 1024)
	v.SetDefault("llm.timeoutSec", 60)

	v.SetDefault("tracker.backend", BackendCSV)
	v.SetDefault("tracker.csvPath", "visitor_logs.csv")

	v.SetDefault("projects.backend", BackendSQLite)

	v.SetDefault("sqlite.path", "./data/portfolio.db")

	v.SetDefault("postgres.dsn", "")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.answerTTLSec", 3600)

	v.SetDefault("drafts.ttlSec", 1800)

	v.SetDefault("rateLimit.requestsPerMinute", 20)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
}

// bindWellKnownEnv lets the service pick up the provider and database
// variables most deployments already export.
func bindWellKnownEnv(v *viper.Viper) {
	_ = v.BindEnv("llm.apiKey", "PORTFOLIO_LLM_APIKEY", "OPENAI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("postgres.dsn", "PORTFOLIO_POSTGRES_DSN", "DATABASE_URL")
}
