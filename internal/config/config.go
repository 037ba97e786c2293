package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for our application
type Config struct {
	Port                      string
	Origin                    string
	Environment               string
	JWTSecret                 string
	JWTRefreshSecret          string
	Database                  DatabaseConfig
	Mailer                    MailerConfig
	Log                       LogConfig
	Notifier                  NotifierConfig
	JWTExpirationMinutes      int
	JWTRefreshExpirationHours int
	AppURL                    string
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// MailerConfig holds SMTP settings for the email notification channel.
// Delivery is skipped when Host is empty.
type MailerConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	DefaultFrom string
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level      string
	Format     string // json or console
	OutputPath string
}

// NotifierConfig holds settings for the notification dispatcher.
type NotifierConfig struct {
	IntervalSeconds int
	BatchSize       int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load database configuration
	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "ayursutra"),
	}

	// Build DSN (Data Source Name) for MySQL connection
	dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	mailerConfig := MailerConfig{
		Host:        getEnv("SMTP_HOST", ""),
		Port:        smtpPort,
		Username:    getEnv("SMTP_USERNAME", ""),
		Password:    getEnv("SMTP_PASSWORD", ""),
		DefaultFrom: getEnv("MAILER_DEFAULT_FROM", "no-reply@ayursutra.local"),
	}

	logConfig := LogConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Format:     getEnv("LOG_FORMAT", "console"),
		OutputPath: getEnv("LOG_OUTPUT", "stdout"),
	}

	notifierInterval, err := strconv.Atoi(getEnv("NOTIFIER_INTERVAL_SECONDS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFIER_INTERVAL_SECONDS: %w", err)
	}
	notifierBatch, err := strconv.Atoi(getEnv("NOTIFIER_BATCH_SIZE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFIER_BATCH_SIZE: %w", err)
	}

	jwtExpMinutes, err := strconv.Atoi(getEnv("JWT_EXPIRATION_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_MINUTES: %w", err)
	}

	jwtRefreshExpHours, err := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168")) // 7 days
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_EXPIRATION_HOURS: %w", err)
	}

	// Return complete configuration
	return &Config{
		Port:                      getEnv("PORT", "3001"),
		Origin:                    getEnv("ORIGIN", "http://localhost:5173"),
		Environment:               getEnv("APP_ENV", "development"),
		JWTSecret:                 getEnv("JWT_SECRET", "default_jwt_secret"),
		JWTRefreshSecret:          getEnv("JWT_REFRESH_SECRET", "default_refresh_secret"),
		Database:                  dbConfig,
		Mailer:                    mailerConfig,
		Log:                       logConfig,
		Notifier:                  NotifierConfig{IntervalSeconds: notifierInterval, BatchSize: notifierBatch},
		JWTExpirationMinutes:      jwtExpMinutes,
		JWTRefreshExpirationHours: jwtRefreshExpHours,
		AppURL:                    getEnv("APP_URL", "http://localhost:3001"),
	}, nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
