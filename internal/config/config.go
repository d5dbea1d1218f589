package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	SecretKey    string
	Debug        bool
	AllowedHosts []string
	HTTPAddr     string

	RDSHostname      string
	RDSPort          int
	RDSDBName        string
	RDSUsername      string
	RDSPassword      string
	DBConnectTimeout time.Duration
	SQLitePath       string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	NATSURL         string
	NATSConnTimeout time.Duration

	PaystackSecretKey string
	PaystackBaseURL   string
	PaystackTimeout   time.Duration

	GoogleOAuthClientID    string
	GoogleOAuthSecret      string
	GoogleOAuthRedirectURL string
	GoogleMapsAPIKey       string

	OTELCollectorURL string

	ReconcileInterval time.Duration
	ReconcileGrace    time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
}

func LoadConfig() (*Config, error) {
	config := &Config{
		SecretKey:    getEnvString("SECRET_KEY", "dev-insecure-secret"),
		Debug:        getEnvBool("DEBUG", false),
		AllowedHosts: getEnvList("ALLOWED_HOSTS", []string{"localhost", "127.0.0.1"}),
		HTTPAddr:     getEnvString("HTTP_ADDR", ":8000"),

		RDSHostname:      getEnvString("RDS_HOSTNAME", ""),
		RDSPort:          getEnvInt("RDS_PORT", 5432),
		RDSDBName:        getEnvString("RDS_DB_NAME", "paeshift"),
		RDSUsername:      getEnvString("RDS_USERNAME", "paeshift"),
		RDSPassword:      getEnvString("RDS_PASSWORD", ""),
		DBConnectTimeout: getEnvDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		SQLitePath:       getEnvString("SQLITE_PATH", "paeshift.db"),

		RedisAddr:     getEnvString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnvString("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", time.Hour),

		NATSURL:         getEnvString("NATS_URL", "nats://localhost:4222"),
		NATSConnTimeout: getEnvDuration("NATS_CONN_TIMEOUT", 10*time.Second),

		PaystackSecretKey: getEnvString("PAYSTACK_SECRET_KEY", ""),
		PaystackBaseURL:   getEnvString("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		PaystackTimeout:   getEnvDuration("PAYSTACK_TIMEOUT", 15*time.Second),

		GoogleOAuthClientID:    getEnvString("GOOGLE_OAUTH_CLIENT_ID", ""),
		GoogleOAuthSecret:      getEnvString("GOOGLE_OAUTH_SECRET", ""),
		GoogleOAuthRedirectURL: getEnvString("GOOGLE_OAUTH_REDIRECT_URL", "http://localhost:8000/accounts/google/login/callback/"),
		GoogleMapsAPIKey:       getEnvString("GOOGLE_MAPS_API_KEY", ""),

		OTELCollectorURL: getEnvString("OTEL_COLLECTOR_URL", "localhost:4317"),

		ReconcileInterval: getEnvDuration("RECONCILE_INTERVAL", 5*time.Minute),
		ReconcileGrace:    getEnvDuration("RECONCILE_GRACE", time.Minute),
		MaxRetries:        getEnvInt("MAX_RETRIES", 3),
		RetryDelay:        getEnvDuration("RETRY_DELAY", 2*time.Second),
	}

	return config, nil
}

// PostgresConfigured reports whether an RDS hostname was provided. Without
// one the database layer goes straight to the SQLite fallback.
func (c *Config) PostgresConfigured() bool {
	return c.RDSHostname != ""
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
