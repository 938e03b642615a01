package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Env  string `toml:"env"`
	Port string `toml:"port"`

	// Database
	DBDriver   string `toml:"db_driver"`
	DBHost     string `toml:"db_host"`
	DBPort     string `toml:"db_port"`
	DBUser     string `toml:"db_user"`
	DBPassword string `toml:"db_password"`
	DBName     string `toml:"db_name"`
	DBSSLMode  string `toml:"db_sslmode"`
	SQLitePath string `toml:"sqlite_path"`

	// StorageTimeout bounds every ledger operation's storage round trips.
	StorageTimeout time.Duration `toml:"-"`

	// JWT secret shared with the identity provider
	JWTSecret string `toml:"jwt_secret"`

	// MetricsAPIKey guards /metrics; empty leaves the endpoint unmounted
	MetricsAPIKey string `toml:"metrics_api_key"`

	// Generative text service
	GeminiAPIKey string `toml:"gemini_api_key"`
	GeminiModel  string `toml:"gemini_model"`

	// Invalidation events; empty AMQPURL disables publishing
	AMQPURL      string `toml:"amqp_url"`
	AMQPExchange string `toml:"amqp_exchange"`
	AMQPQueue    string `toml:"amqp_queue"`

	// Currency used when rendering amounts for people
	Currency string `toml:"currency"`
}

// fileOverrides mirrors Config for the optional TOML file. Durations are
// strings there so "5s" can be written naturally.
type fileOverrides struct {
	Config
	StorageTimeout string `toml:"storage_timeout"`
}

var appConfig *Config

// Load loads configuration from the environment, a .env file if present,
// and finally the TOML file named by FINJOURNAL_CONFIG.
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "finjournal"),
		DBPassword: getEnv("DB_PASSWORD", "finjournal"),
		DBName:     getEnv("DB_NAME", "finjournal"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "finjournal.db"),

		JWTSecret:     getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		MetricsAPIKey: getEnv("METRICS_API_KEY", ""),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finjournal"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger.stale"),

		Currency: getEnv("CURRENCY", "NGN"),
	}

	timeoutStr := getEnv("STORAGE_TIMEOUT", "5s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil || timeout <= 0 {
		log.Printf("Warning: invalid STORAGE_TIMEOUT value '%s', falling back to 5s\n", timeoutStr)
		timeout = 5 * time.Second
	}
	config.StorageTimeout = timeout

	if path := os.Getenv("FINJOURNAL_CONFIG"); path != "" {
		if err := applyFile(config, path); err != nil {
			return nil, err
		}
	}

	if config.DBDriver != "postgres" && config.DBDriver != "sqlite" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (use postgres or sqlite)", config.DBDriver)
	}
	// Migrations open SQLITE_PATH on their own connection, which would see a
	// separate in-memory database.
	if config.DBDriver == "sqlite" && isInMemory(config.SQLitePath) {
		return nil, fmt.Errorf("SQLITE_PATH %q is in-memory; use a file path", config.SQLitePath)
	}

	appConfig = config
	return config, nil
}

// applyFile overlays the non-empty keys of a TOML file onto config.
func applyFile(config *Config, path string) error {
	var file fileOverrides
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	overlay := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	overlay(&config.Env, file.Env)
	overlay(&config.Port, file.Port)
	overlay(&config.DBDriver, file.DBDriver)
	overlay(&config.DBHost, file.DBHost)
	overlay(&config.DBPort, file.DBPort)
	overlay(&config.DBUser, file.DBUser)
	overlay(&config.DBPassword, file.DBPassword)
	overlay(&config.DBName, file.DBName)
	overlay(&config.DBSSLMode, file.DBSSLMode)
	overlay(&config.SQLitePath, file.SQLitePath)
	overlay(&config.JWTSecret, file.JWTSecret)
	overlay(&config.MetricsAPIKey, file.MetricsAPIKey)
	overlay(&config.GeminiAPIKey, file.GeminiAPIKey)
	overlay(&config.GeminiModel, file.GeminiModel)
	overlay(&config.AMQPURL, file.AMQPURL)
	overlay(&config.AMQPExchange, file.AMQPExchange)
	overlay(&config.AMQPQueue, file.AMQPQueue)
	overlay(&config.Currency, file.Currency)

	if file.StorageTimeout != "" {
		d, err := time.ParseDuration(file.StorageTimeout)
		if err != nil {
			return fmt.Errorf("invalid storage_timeout %q in %s: %w", file.StorageTimeout, path, err)
		}
		config.StorageTimeout = d
	}
	return nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

func isInMemory(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, "file::memory:") || strings.Contains(path, "mode=memory")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
