package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	JWTSecret string
	// AuthProviderURL is the base URL of the external identity provider that
	// issues the tokens we verify. Informational; the verifying path only
	// needs the shared secret.
	AuthProviderURL string
	DBHost          string
	DBPort          int
	DBName          string
	DBUser          string
	DBPassword      string
	DBPoolMinSize   int
	DBPoolMaxSize   int
	DBQueryTimeout  time.Duration
	HTTPListenAddr  string
	MCPListenAddr   string
	MCPConfigPath   string
	// MetricsListenAddr is where binaries without a built-in /metrics route
	// serve Prometheus metrics.
	MetricsListenAddr string
	LogLevel          string
}

func Load() (*Config, error) {
	port, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	poolMin, err := getEnvInt("DB_POOL_MIN_SIZE", 1)
	if err != nil {
		return nil, err
	}
	poolMax, err := getEnvInt("DB_POOL_MAX_SIZE", 10)
	if err != nil {
		return nil, err
	}
	queryTimeout, err := getEnvInt("DB_QUERY_TIMEOUT", 60)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		JWTSecret:         getEnv("JWT_SECRET", ""),
		AuthProviderURL:   getEnv("AUTH_PROVIDER_URL", ""),
		DBHost:            getEnv("DB_HOST", ""),
		DBPort:            port,
		DBName:            getEnv("DB_NAME", "postgres"),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBPoolMinSize:     poolMin,
		DBPoolMaxSize:     poolMax,
		DBQueryTimeout:    time.Duration(queryTimeout) * time.Second,
		HTTPListenAddr:    getEnv("HTTP_LISTEN_ADDR", ":8080"),
		MCPListenAddr:     getEnv("MCP_LISTEN_ADDR", ":8077"),
		MCPConfigPath:     getEnv("MCP_CONFIG_PATH", ""),
		MetricsListenAddr: getEnv("METRICS_LISTEN_ADDR", ":9090"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// Validate checks the settings a server cannot run without. A missing
// JWT_SECRET is deliberately not an error here: the process must come up
// and serve unauthenticated endpoints, with token validation failing
// closed until the secret is configured.
func (c *Config) Validate() error {
	var missing []string
	if c.DBHost == "" {
		missing = append(missing, "DB_HOST")
	}
	if c.DBPassword == "" {
		missing = append(missing, "DB_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes")
	}
	if c.DBPoolMaxSize < 1 {
		return fmt.Errorf("DB_POOL_MAX_SIZE must be at least 1")
	}
	if c.DBPoolMinSize < 0 || c.DBPoolMinSize > c.DBPoolMaxSize {
		return fmt.Errorf("DB_POOL_MIN_SIZE must be between 0 and DB_POOL_MAX_SIZE")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}
