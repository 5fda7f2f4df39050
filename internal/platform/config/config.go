package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration. Values come from the
// environment so main stays lean.
type Server struct {
	Addr          string
	JWTSigningKey string
	PostgresDSN   string
	NotifyBuffer  int
	Redis         RedisConfig
}

// RedisConfig holds connection settings for the occupancy counter backend.
// An empty URL means Redis is not configured and the in-memory counter is used.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("DOMUS_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		PostgresDSN:   os.Getenv("DOMUS_POSTGRES_DSN"),
		NotifyBuffer:  envInt("DOMUS_NOTIFY_BUFFER", 256),
		Redis: RedisConfig{
			URL:          os.Getenv("DOMUS_REDIS_URL"),
			PoolSize:     envInt("DOMUS_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("DOMUS_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("DOMUS_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("DOMUS_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("DOMUS_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if v, err := time.ParseDuration(raw); err == nil {
			return v
		}
	}
	return fallback
}
