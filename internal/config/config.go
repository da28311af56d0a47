package config

import (
	"log"
	"os"
	"time"
)

// Store drivers.
const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config holds the server configuration read from the environment.
type Config struct {
	Env  string // dev, test, prod
	Port string

	StoreDriver string // mysql or memory
	DBUser      string
	DBPass      string
	DBHost      string
	DBPort      string
	DBName      string

	JWTSecret    string
	AccessTTLMin int // lifetime of dev tokens issued by /v1/auth/dev-token

	CatalogTTL      time.Duration
	CatalogSeedPath string // optional YAML seed applied at startup

	NotifyEnabled bool // publish events to RabbitMQ; when false they are only logged
	NotifyBuffer  int

	ShutdownTimeout time.Duration
}

// Load reads the configuration.  Missing required variables abort the
// process.  Database variables are only required for the mysql driver.
func Load() Config {
	cfg := Config{
		Env:             must("APP_ENV"),
		Port:            must("APP_PORT"),
		StoreDriver:     envStr("STORE_DRIVER", DriverMySQL),
		JWTSecret:       must("JWT_SECRET"),
		AccessTTLMin:    envInt("ACCESS_TOKEN_TTL_MIN", 60*24),
		CatalogTTL:      envDur("CATALOG_TTL", 2*time.Hour),
		CatalogSeedPath: os.Getenv("CATALOG_SEED_PATH"),
		NotifyEnabled:   envBool("NOTIFY_ENABLED", true),
		NotifyBuffer:    envInt("NOTIFY_BUFFER", 256),
		ShutdownTimeout: envDur("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	switch cfg.StoreDriver {
	case DriverMySQL:
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	case DriverMemory:
	default:
		log.Fatalf("invalid STORE_DRIVER: %q", cfg.StoreDriver)
	}
	return cfg
}

// NotifierConfig configures the notification forwarder binary.
type NotifierConfig struct {
	StaffWebhookURL    string
	ActivityWebhookURL string
	LogDir             string // used when a webhook URL is empty
	Timeout            time.Duration
}

// LoadNotifierConfig reads the forwarder configuration.  Every key is
// optional.
func LoadNotifierConfig() NotifierConfig {
	return NotifierConfig{
		StaffWebhookURL:    os.Getenv("STAFF_WEBHOOK_URL"),
		ActivityWebhookURL: os.Getenv("ACTIVITY_WEBHOOK_URL"),
		LogDir:             envStr("NOTIFY_LOG_DIR", "logs"),
		Timeout:            envDur("NOTIFY_TIMEOUT", 5*time.Second),
	}
}

// must returns a required variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
