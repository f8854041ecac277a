package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	App struct {
		Name        string   `envconfig:"APP_NAME" default:"PayAdvice"`
		Port        int      `envconfig:"PORT" default:"8080"`
		CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
	}

	DB struct {
		Driver   string `envconfig:"STORE_DRIVER" default:"postgres"`
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"payadvice"`
		SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	}

	Server struct {
		ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
		WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"2m"`
		ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`
	}

	Auth struct {
		JWTSecret string        `envconfig:"JWT_SECRET"`
		TokenTTL  time.Duration `envconfig:"JWT_TTL" default:"24h"`
	}

	SMTP struct {
		Host     string        `envconfig:"SMTP_HOST" default:"localhost"`
		Port     int           `envconfig:"SMTP_PORT" default:"587"`
		Username string        `envconfig:"SMTP_USER"`
		Password string        `envconfig:"SMTP_PASS"`
		From     string        `envconfig:"SMTP_FROM" default:"accounts@example.com"`
		Timeout  time.Duration `envconfig:"SMTP_TIMEOUT" default:"30s"`
	}

	SMS struct {
		Enabled   bool          `envconfig:"SMS_ENABLED" default:"false"`
		URL       string        `envconfig:"SMS_URL" default:"https://api.textlocal.in/send/"`
		APIKey    string        `envconfig:"SMS_API_KEY"`
		SenderID  string        `envconfig:"SMS_SENDER_ID"`
		Timeout   time.Duration `envconfig:"SMS_TIMEOUT" default:"10s"`
		RateLimit float64       `envconfig:"SMS_RATE_LIMIT" default:"5"`
	}

	PDF struct {
		Engine     string        `envconfig:"PDF_ENGINE" default:"chromium"`
		Timeout    time.Duration `envconfig:"PDF_TIMEOUT" default:"30s"`
		ChromePath string        `envconfig:"CHROME_PATH"`
		Workers    int           `envconfig:"PDF_WORKERS" default:"4"`
	}

	Assets struct {
		Dir         string `envconfig:"ASSETS_DIR"`
		TenantsFile string `envconfig:"TENANTS_FILE"`
	}

	Log struct {
		Level  string `envconfig:"LOG_LEVEL" default:"info"`
		Format string `envconfig:"LOG_FORMAT" default:"text"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name, c.DB.SSLMode)
}

// Logger builds the slog logger selected by LOG_LEVEL and LOG_FORMAT.
func (c *Config) Logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	switch cfg.DB.Driver {
	case StorePostgres, StoreMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.DB.Driver)
	}

	return &cfg, nil
}
