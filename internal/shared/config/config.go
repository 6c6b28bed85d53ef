package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port              string
	Environment       string
	APIBaseURL        string
	APITimeout        time.Duration
	APIServiceToken   string
	JWTSecret         string
	RedisAddr         string
	DBHost            string
	DBUser            string
	DBPassword        string
	DBName            string
	DBPort            string
	DBSSLMode         string
	KafkaBroker       string
	RBACPolicyFile    string
	PeriodOrderPolicy string
	LockTTL           time.Duration
	ConfirmTTL        time.Duration
	SendAllPerMinute  int
	ConnectRetries    int
}

// Load membaca konfigurasi dari environment. Panggil godotenv.Load() lebih dulu di main.
func Load() Config {
	return Config{
		Port:              getEnv("PORT", "3000"),
		Environment:       getEnv("APP_ENV", "development"),
		APIBaseURL:        getEnv("API_BASE_URL", ""),
		APITimeout:        getEnvDuration("API_TIMEOUT", 15*time.Second),
		APIServiceToken:   getEnv("API_SERVICE_TOKEN", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		DBHost:            getEnv("DB_HOST", ""),
		DBUser:            getEnv("DB_USER", ""),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBName:            getEnv("DB_NAME", ""),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBSSLMode:         getEnv("DB_SSLMODE", "disable"),
		KafkaBroker:       getEnv("KAFKA_BROKER", ""),
		RBACPolicyFile:    getEnv("RBAC_POLICY_FILE", "config/rbac_policy.yaml"),
		PeriodOrderPolicy: strings.ToLower(getEnv("PAYSLIP_PERIOD_ORDER_POLICY", "ignore")),
		LockTTL:           getEnvDuration("PAYSLIP_LOCK_TTL", 30*time.Second),
		ConfirmTTL:        getEnvDuration("PAYSLIP_CONFIRM_TTL", 2*time.Minute),
		SendAllPerMinute:  getEnvInt("SEND_ALL_RATE_PER_MINUTE", 6),
		ConnectRetries:    getEnvInt("CONNECT_RETRIES", 5),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// DatabaseEnabled reports whether the outbox database is configured.
func (c Config) DatabaseEnabled() bool {
	return c.DBHost != "" && c.DBName != ""
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.Environment == "production" && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	switch c.PeriodOrderPolicy {
	case "ignore", "warn", "reject":
	default:
		return fmt.Errorf("PAYSLIP_PERIOD_ORDER_POLICY must be one of ignore, warn, reject")
	}
	if c.LockTTL <= 0 {
		return fmt.Errorf("PAYSLIP_LOCK_TTL must be positive")
	}
	// lock harus hidup lebih lama dari satu round trip ke API hulu
	if c.LockTTL <= c.APITimeout {
		return fmt.Errorf("PAYSLIP_LOCK_TTL must be greater than API_TIMEOUT")
	}
	if c.ConfirmTTL <= 0 {
		return fmt.Errorf("PAYSLIP_CONFIRM_TTL must be positive")
	}
	if c.SendAllPerMinute <= 0 {
		return fmt.Errorf("SEND_ALL_RATE_PER_MINUTE must be positive")
	}
	return nil
}

// ValidateMessaging checks what the outbox worker and the audit consumer need.
func (c Config) ValidateMessaging() error {
	if !c.DatabaseEnabled() {
		return fmt.Errorf("DB_HOST and DB_NAME are required")
	}
	if strings.TrimSpace(c.KafkaBroker) == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}
	return nil
}
