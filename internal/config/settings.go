package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	devSecret    = "dev-secret-change-me"
	minSecretLen = 16
)

// Settings is the process configuration, read once at startup.
type Settings struct {
	AppEnv string `validate:"oneof=development production test"`
	Port   string `validate:"required,numeric"`

	DatabaseURL string
	DBHost      string `validate:"required_without=DatabaseURL"`
	DBPort      string `validate:"required_without=DatabaseURL"`
	DBUser      string `validate:"required_without=DatabaseURL"`
	DBPassword  string
	DBName      string `validate:"required_without=DatabaseURL"`
	DBSSLMode   string
	DBTimezone  string

	AuthSecret string        `validate:"required"`
	TokenTTL   time.Duration `validate:"gt=0"`

	CORSOrigins              []string `validate:"dive,required"`
	HistoryLogsEnabled       bool
	RequestLogsEnabled       bool
	LegacyPlaintextPasswords bool
	AuthRatePerMinute        int `validate:"gte=0"`

	LogFile  string `validate:"required"`
	LogLevel string `validate:"oneof=trace debug info warn warning error fatal panic"`

	SeedFile string
}

// Load reads .env (if present) and the environment into Settings and
// validates the result.
func Load() (*Settings, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, relying on env vars")
	}
	return FromEnv()
}

// FromEnv builds Settings from the current environment only.
func FromEnv() (*Settings, error) {
	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "72h"))
	if err != nil {
		return nil, fmt.Errorf("TOKEN_TTL: %w", err)
	}
	rate, err := strconv.Atoi(getEnv("AUTH_RATE_PER_MINUTE", "20"))
	if err != nil {
		return nil, fmt.Errorf("AUTH_RATE_PER_MINUTE: %w", err)
	}

	s := &Settings{
		AppEnv:                   strings.ToLower(getEnv("APP_ENV", EnvDevelopment)),
		Port:                     getEnv("PORT", "8080"),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		DBHost:                   getEnv("DB_HOST", "localhost"),
		DBPort:                   getEnv("DB_PORT", "5432"),
		DBUser:                   getEnv("DB_USER", "postgres"),
		DBPassword:               getEnv("DB_PASSWORD", "password"),
		DBName:                   getEnv("DB_NAME", "mutual_aid"),
		DBSSLMode:                getEnv("DB_SSLMODE", "disable"),
		DBTimezone:               getEnv("DB_TIMEZONE", "UTC"),
		AuthSecret:               getEnv("AUTH_SECRET", devSecret),
		TokenTTL:                 ttl,
		CORSOrigins:              splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")),
		HistoryLogsEnabled:       getBool("HISTORY_LOGS_ENABLED", false),
		RequestLogsEnabled:       getBool("REQUEST_LOGS_ENABLED", true),
		LegacyPlaintextPasswords: getBool("LEGACY_PLAINTEXT_PASSWORDS", true),
		AuthRatePerMinute:        rate,
		LogFile:                  getEnv("LOG_FILE", "./logs/app.log"),
		LogLevel:                 strings.ToLower(getEnv("LOG_LEVEL", "info")),
		SeedFile:                 getEnv("SEED_FILE", "./seed/emergency_contacts.yaml"),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		s := sl.Current().Interface().(Settings)
		if s.AppEnv != EnvDevelopment && (len(s.AuthSecret) < minSecretLen || s.AuthSecret == devSecret) {
			sl.ReportError(s.AuthSecret, "AuthSecret", "AuthSecret", "strong_secret", "")
		}
	}, Settings{})
	return v
}

// Validate checks required keys and value ranges.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// DSN returns DATABASE_URL when set, otherwise a key/value DSN built from
// the DB_* settings.
func (s *Settings) DSN() string {
	if s.DatabaseURL != "" {
		return s.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		s.DBHost, s.DBUser, s.DBPassword, s.DBName, s.DBPort, s.DBSSLMode, s.DBTimezone,
	)
}

func (s *Settings) Addr() string { return "0.0.0.0:" + s.Port }

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(getEnv(key, strconv.FormatBool(defaultValue))))
	if err != nil {
		return defaultValue
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
