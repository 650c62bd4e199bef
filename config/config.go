package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Payment      PaymentConfig
	Notification NotificationConfig
}

type AppConfig struct {
	Port     string
	Env      string
	LogLevel string
	Timezone string
	// CORSOrigins lists the allowed browser origins; empty allows any.
	CORSOrigins []string
	// PartialPaymentRatio is the share of the total charged up front for partial payments.
	PartialPaymentRatio float64
}

type DBConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	Name          string
	RunMigrations bool
}

type RedisConfig struct {
	Host        string
	Port        string
	Password    string
	DB          int
	CalendarTTL time.Duration
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// PaymentConfig holds the payment gateway credentials and endpoints.
type PaymentConfig struct {
	APIBaseURL    string
	TokenURL      string
	Username      string
	Password      string
	ClientID      string
	ClientSecret  string
	ProjectCode   string
	Currency      string
	Language      string
	SandboxHost   string
	RefundPath    string
	TokenTimeout  time.Duration
	LinkTimeout   time.Duration
	StatusTimeout time.Duration
}

type NotificationConfig struct {
	RelayURL    string
	RelayToken  string
	AdminPhone  string
	Workers     int
	QueueSize   int
	MaxAttempts int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Environment variables alone are enough in containers.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	setDefaults()

	config := &Config{
		App: AppConfig{
			Port:                viper.GetString("APP_PORT"),
			Env:                 viper.GetString("APP_ENV"),
			LogLevel:            viper.GetString("LOG_LEVEL"),
			Timezone:            viper.GetString("APP_TIMEZONE"),
			CORSOrigins:         splitList(viper.GetString("CORS_ORIGINS")),
			PartialPaymentRatio: viper.GetFloat64("PARTIAL_PAYMENT_RATIO"),
		},
		DB: DBConfig{
			Host:          viper.GetString("DB_HOST"),
			Port:          viper.GetString("DB_PORT"),
			User:          viper.GetString("DB_USER"),
			Password:      viper.GetString("DB_PASSWORD"),
			Name:          viper.GetString("DB_NAME"),
			RunMigrations: viper.GetBool("DB_RUN_MIGRATIONS"),
		},
		Redis: RedisConfig{
			Host:        viper.GetString("REDIS_HOST"),
			Port:        viper.GetString("REDIS_PORT"),
			Password:    viper.GetString("REDIS_PASSWORD"),
			DB:          viper.GetInt("REDIS_DB"),
			CalendarTTL: durationOr("REDIS_CALENDAR_TTL", 10*time.Minute),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  durationOr("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: durationOr("JWT_REFRESH_EXPIRY", 7*24*time.Hour),
		},
		Payment: PaymentConfig{
			APIBaseURL:    viper.GetString("PAYMENT_API_BASE_URL"),
			TokenURL:      viper.GetString("PAYMENT_TOKEN_URL"),
			Username:      viper.GetString("PAYMENT_USERNAME"),
			Password:      viper.GetString("PAYMENT_PASSWORD"),
			ClientID:      viper.GetString("PAYMENT_CLIENT_ID"),
			ClientSecret:  viper.GetString("PAYMENT_CLIENT_SECRET"),
			ProjectCode:   viper.GetString("PAYMENT_PROJECT_CODE"),
			Currency:      viper.GetString("PAYMENT_CURRENCY"),
			Language:      viper.GetString("PAYMENT_LANGUAGE"),
			SandboxHost:   viper.GetString("PAYMENT_SANDBOX_HOST"),
			RefundPath:    viper.GetString("PAYMENT_REFUND_PATH"),
			TokenTimeout:  durationOr("PAYMENT_TOKEN_TIMEOUT", 15*time.Second),
			LinkTimeout:   durationOr("PAYMENT_LINK_TIMEOUT", 30*time.Second),
			StatusTimeout: durationOr("PAYMENT_STATUS_TIMEOUT", 15*time.Second),
		},
		Notification: NotificationConfig{
			RelayURL:    viper.GetString("NOTIFY_RELAY_URL"),
			RelayToken:  viper.GetString("NOTIFY_RELAY_TOKEN"),
			AdminPhone:  viper.GetString("NOTIFY_ADMIN_PHONE"),
			Workers:     viper.GetInt("NOTIFY_WORKERS"),
			QueueSize:   viper.GetInt("NOTIFY_QUEUE_SIZE"),
			MaxAttempts: viper.GetInt("NOTIFY_MAX_ATTEMPTS"),
		},
	}

	return config, nil
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("APP_TIMEZONE", "Asia/Riyadh")
	viper.SetDefault("PARTIAL_PAYMENT_RATIO", 0.5)
	viper.SetDefault("DB_RUN_MIGRATIONS", true)
	viper.SetDefault("PAYMENT_CURRENCY", "SAR")
	viper.SetDefault("PAYMENT_LANGUAGE", "ar")
	viper.SetDefault("PAYMENT_REFUND_PATH", "RefundTransaction")
	viper.SetDefault("NOTIFY_WORKERS", 4)
	viper.SetDefault("NOTIFY_QUEUE_SIZE", 256)
	viper.SetDefault("NOTIFY_MAX_ATTEMPTS", 3)
}

func durationOr(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil {
		return fallback
	}
	return d
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
