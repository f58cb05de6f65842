package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Bridge   BridgeConfig   `json:"bridge"`
	Registry RegistryConfig `json:"registry"`
	Polling  PollingConfig  `json:"polling"`
	Database DatabaseConfig `json:"database"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	EnableCORS   bool          `json:"enable_cors"`
}

// BridgeConfig holds the WhatsApp-bridge webhook API configuration
type BridgeConfig struct {
	BaseURL    string        `json:"base_url"`
	LocationID string        `json:"location_id"`
	Timeout    time.Duration `json:"timeout"`
}

// RegistryConfig holds instance registry configuration
type RegistryConfig struct {
	NamePrefix   string `json:"name_prefix"`
	MaxInstances int    `json:"max_instances"`
}

// PollingConfig holds QR pairing flow configuration
type PollingConfig struct {
	Interval   time.Duration `json:"interval"`
	QRTerminal bool          `json:"qr_terminal"`
}

// DatabaseConfig holds audit database configuration
type DatabaseConfig struct {
	Driver          string        `json:"driver"` // "sqlite" or "postgres"
	Path            string        `json:"path"`
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	User            string        `json:"user"`
	Password        string        `json:"password,omitempty"`
	Name            string        `json:"name"`
	SSLMode         string        `json:"ssl_mode"`
	Debug           bool          `json:"debug"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string `json:"level"`
	Format      string `json:"format"` // "json" or "console"
	ColorOutput bool   `json:"color_output"`
	TimeFormat  string `json:"time_format"`
	File        string `json:"file,omitempty"`
	MaxSizeMB   int    `json:"max_size_mb"`
	MaxBackups  int    `json:"max_backups"`
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (optional)
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("Could not load .env file (it may not exist)")
	}

	config := &Config{
		Server:   loadServerConfig(),
		Bridge:   loadBridgeConfig(),
		Registry: loadRegistryConfig(),
		Polling:  loadPollingConfig(),
		Database: loadDatabaseConfig(),
		Logging:  loadLoggingConfig(),
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:         getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
		Port:         getEnvAsIntOrDefault("SERVER_PORT", 8080),
		ReadTimeout:  getEnvAsDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getEnvAsDurationOrDefault("SERVER_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:  getEnvAsDurationOrDefault("SERVER_IDLE_TIMEOUT", 120*time.Second),
		EnableCORS:   getEnvAsBoolOrDefault("SERVER_ENABLE_CORS", true),
	}
}

func loadBridgeConfig() BridgeConfig {
	return BridgeConfig{
		BaseURL:    getEnvOrDefault("BRIDGE_BASE_URL", "https://api.infragrowthai.com/webhook/whatsapp"),
		LocationID: os.Getenv("BRIDGE_LOCATION_ID"),
		Timeout:    getEnvAsDurationOrDefault("BRIDGE_TIMEOUT", 35*time.Second),
	}
}

func loadRegistryConfig() RegistryConfig {
	return RegistryConfig{
		NamePrefix:   getEnvOrDefault("REGISTRY_NAME_PREFIX", "infragrowth-whatsapp"),
		MaxInstances: getEnvAsIntOrDefault("REGISTRY_MAX_INSTANCES", 5),
	}
}

func loadPollingConfig() PollingConfig {
	return PollingConfig{
		Interval:   getEnvAsDurationOrDefault("POLLING_INTERVAL", 30*time.Second),
		QRTerminal: getEnvAsBoolOrDefault("POLLING_QR_TERMINAL", false),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          getEnvOrDefault("DB_DRIVER", "sqlite"),
		Path:            getEnvOrDefault("DB_PATH", "waconsole.db"),
		Host:            getEnvOrDefault("DB_HOST", "localhost"),
		Port:            getEnvAsIntOrDefault("DB_PORT", 5432),
		User:            getEnvOrDefault("DB_USER", "waconsole"),
		Password:        os.Getenv("DB_PASSWORD"),
		Name:            getEnvOrDefault("DB_NAME", "waconsole"),
		SSLMode:         getEnvOrDefault("DB_SSL_MODE", "disable"),
		Debug:           getEnvAsBoolOrDefault("DB_DEBUG", false),
		MaxOpenConns:    getEnvAsIntOrDefault("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsIntOrDefault("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDurationOrDefault("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		ConnMaxIdleTime: getEnvAsDurationOrDefault("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
	}
}

func loadLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:       getEnvOrDefault("LOG_LEVEL", "info"),
		Format:      getEnvOrDefault("LOG_FORMAT", "console"),
		ColorOutput: getEnvAsBoolOrDefault("LOG_COLOR_OUTPUT", true),
		TimeFormat:  getEnvOrDefault("LOG_TIME_FORMAT", "2006-01-02 15:04:05"),
		File:        os.Getenv("LOG_FILE"),
		MaxSizeMB:   getEnvAsIntOrDefault("LOG_MAX_SIZE_MB", 50),
		MaxBackups:  getEnvAsIntOrDefault("LOG_MAX_BACKUPS", 3),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Validate bridge config
	if c.Bridge.BaseURL == "" {
		return fmt.Errorf("bridge base URL is required")
	}
	if _, err := url.Parse(c.Bridge.BaseURL); err != nil {
		return fmt.Errorf("invalid bridge base URL: %w", err)
	}
	if c.Bridge.LocationID == "" {
		return fmt.Errorf("bridge location ID is required")
	}

	// Validate registry config
	if c.Registry.MaxInstances <= 0 {
		return fmt.Errorf("invalid registry max instances: %d", c.Registry.MaxInstances)
	}
	if c.Registry.NamePrefix == "" {
		return fmt.Errorf("registry name prefix is required")
	}

	// Validate polling config
	if c.Polling.Interval <= 0 {
		return fmt.Errorf("invalid polling interval: %s", c.Polling.Interval)
	}

	// Validate database config
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database name is required")
		}
	default:
		return fmt.Errorf("invalid database driver: %s", c.Database.Driver)
	}

	// Validate logging config
	if !isValidLogLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

// SetupLogger configures the global logger based on configuration
func (c *Config) SetupLogger() {
	// Set log level
	level, err := zerolog.ParseLevel(c.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = os.Stdout
	if c.Logging.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   c.Logging.File,
			MaxSize:    c.Logging.MaxSizeMB,
			MaxBackups: c.Logging.MaxBackups,
			Compress:   true,
		})
	}

	// Configure output format
	if c.Logging.Format == "json" {
		log.Logger = zerolog.New(out).
			With().
			Timestamp().
			Str("service", "waconsole").
			Logger()
	} else {
		output := zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: c.Logging.TimeFormat,
			NoColor:    !c.Logging.ColorOutput,
		}

		log.Logger = zerolog.New(output).
			With().
			Timestamp().
			Str("service", "waconsole").
			Logger()
	}
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Helper functions
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func isValidLogLevel(level string) bool {
	validLevels := []string{"trace", "debug", "info", "warn", "error", "fatal", "panic"}
	for _, validLevel := range validLevels {
		if strings.ToLower(level) == validLevel {
			return true
		}
	}
	return false
}
