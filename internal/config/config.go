package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by TENANTGATE_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("TENANTGATE_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Missing files are fine; the process environment still applies.
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

// Validate reports configuration that would make the service unsafe to run.
func Validate() error {
	var errs []error
	if JWTSecret() == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if JWTRefreshSecret() == "" {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET is required"))
	}
	if JWTSecret() != "" && JWTSecret() == JWTRefreshSecret() {
		errs = append(errs, errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ"))
	}
	if APIKeyPepper() == "" {
		errs = append(errs, errors.New("APIKEY_PEPPER is required"))
	}
	if StoreDriver() == "postgres" && DatabaseURL() == "" {
		errs = append(errs, errors.New("DATABASE_URL is required when STORE_DRIVER=postgres"))
	}
	if d := StoreDriver(); d != "postgres" && d != "memory" {
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", d))
	}
	return errors.Join(errs...)
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// StoreDriver selects the persistence backend: postgres (default) or memory.
func StoreDriver() string {
	d := os.Getenv("STORE_DRIVER")
	if d == "" {
		return "postgres"
	}
	return d
}

func JWTSecret() string {
	return os.Getenv("JWT_SECRET")
}

func JWTRefreshSecret() string {
	return os.Getenv("JWT_REFRESH_SECRET")
}

// JWTExpiration is the access token lifetime. Defaults to 24h.
func JWTExpiration() time.Duration {
	return duration("JWT_EXPIRATION", 24*time.Hour)
}

// JWTRefreshExpiration is the refresh token lifetime. Defaults to 7d.
func JWTRefreshExpiration() time.Duration {
	return duration("JWT_REFRESH_EXPIRATION", 7*24*time.Hour)
}

func JWTIssuer() string {
	return os.Getenv("JWT_ISSUER")
}

// APIKeyPepper keys the HMAC applied to API key secrets. It must be unique
// per deployment; changing it invalidates every issued secret.
func APIKeyPepper() string {
	return os.Getenv("APIKEY_PEPPER")
}

// APIKeyMaxActive caps ACTIVE keys per tenant. Defaults to 10.
func APIKeyMaxActive() int {
	n, err := strconv.Atoi(os.Getenv("APIKEY_MAX_ACTIVE"))
	if err != nil || n <= 0 {
		return 10
	}
	return n
}

// RedisURL enables the tenant cache when set.
func RedisURL() string {
	return os.Getenv("REDIS_URL")
}

func TenantCacheTTL() time.Duration {
	return duration("TENANT_CACHE_TTL", 5*time.Minute)
}

// AMQPURL enables event publishing when set.
func AMQPURL() string {
	return os.Getenv("AMQP_URL")
}

func AMQPExchange() string {
	e := os.Getenv("AMQP_EXCHANGE")
	if e == "" {
		return "tenantgate.events"
	}
	return e
}

// AdminToken guards tenant bootstrap. Empty leaves POST /tenants open.
func AdminToken() string {
	return os.Getenv("ADMIN_TOKEN")
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// duration accepts Go durations ("90m") and a day suffix ("7d").
func duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n := len(v); n > 1 && v[n-1] == 'd' {
		days, err := strconv.Atoi(v[:n-1])
		if err == nil && days > 0 {
			return time.Duration(days) * 24 * time.Hour
		}
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
