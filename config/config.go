package config

import (
	"fmt"
	"strings"

	"taskboard/notifier"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything read from the environment or a .env file.
type Config struct {
	Port    string `mapstructure:"PORT"`
	GinMode string `mapstructure:"GIN_MODE"`

	StoreDriver   string `mapstructure:"STORE_DRIVER"`
	DBDSN         string `mapstructure:"DB_DSN"`
	DBHost        string `mapstructure:"DB_HOST"`
	DBPort        string `mapstructure:"DB_PORT"`
	DBUser        string `mapstructure:"DB_USER"`
	DBPassword    string `mapstructure:"DB_PASSWORD"`
	DBName        string `mapstructure:"DB_NAME"`
	DBAutoMigrate bool   `mapstructure:"DB_AUTO_MIGRATE"`

	JWTSecret string `mapstructure:"JWT_SECRET_KEY"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     string `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`
	AppBaseURL   string `mapstructure:"APP_BASE_URL"`

	FirebaseCredentials string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseBucket      string `mapstructure:"FIREBASE_STORAGE_BUCKET"`

	ReminderCron      string `mapstructure:"REMINDER_CRON"`
	StrictTransitions bool   `mapstructure:"WORKFLOW_STRICT_TRANSITIONS"`

	LogDir   string `mapstructure:"LOG_DIR"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
}

var defaults = map[string]any{
	"PORT":                           "3001",
	"GIN_MODE":                       "release",
	"STORE_DRIVER":                   "mysql",
	"DB_DSN":                         "",
	"DB_HOST":                        "127.0.0.1",
	"DB_PORT":                        "3306",
	"DB_USER":                        "root",
	"DB_PASSWORD":                    "",
	"DB_NAME":                        "taskboard",
	"DB_AUTO_MIGRATE":                true,
	"JWT_SECRET_KEY":                 "",
	"SMTP_HOST":                      "",
	"SMTP_PORT":                      "587",
	"SMTP_USERNAME":                  "",
	"SMTP_PASSWORD":                  "",
	"MAIL_FROM":                      "",
	"APP_BASE_URL":                   "http://localhost:5173",
	"GOOGLE_APPLICATION_CREDENTIALS": "",
	"FIREBASE_STORAGE_BUCKET":        "",
	"REMINDER_CRON":                  "0 0 8 * * *",
	"WORKFLOW_STRICT_TRANSITIONS":    false,
	"LOG_DIR":                        "logs",
	"LOG_LEVEL":                      "info",
}

// LoadConfig reads .env (if present) into the process environment and then
// the environment into Config. Real environment variables win over .env.
func LoadConfig(envFiles ...string) (Config, error) {
	// A missing .env is fine; everything can come from the environment.
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := config.validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case "mysql", "memory":
	default:
		return fmt.Errorf("STORE_DRIVER must be mysql or memory, got %q", c.StoreDriver)
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("GIN_MODE must be debug, release or test, got %q", c.GinMode)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	return nil
}

// DSN returns DB_DSN when set, otherwise a MySQL DSN built from the DB_* parts.
func (c *Config) DSN() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func (c *Config) SMTP() notifier.SMTPConfig {
	return notifier.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUsername,
		Password: c.SMTPPassword,
		From:     c.MailFrom,
	}
}

func (c *Config) FirebaseEnabled() bool {
	return strings.TrimSpace(c.FirebaseCredentials) != ""
}
