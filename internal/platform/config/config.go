package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr        string
	DatabaseURL string
	RedisURL    string

	// Seed inserts the default activity catalog on startup when the store
	// is empty.
	Seed bool

	// SubscriberQueueSize bounds the per-subscriber event queue. A subscriber
	// that falls this far behind is disconnected rather than slowing others.
	SubscriberQueueSize int

	// SendTimeout bounds a single WebSocket write; a subscriber that cannot
	// accept a frame within it is treated as dead.
	SendTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("ROSTERHUB_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	queueSize := intFromEnv("ROSTERHUB_SUBSCRIBER_QUEUE", 64)
	sendTimeout := durationFromEnv("ROSTERHUB_SEND_TIMEOUT", 5*time.Second)

	return Server{
		Addr:                addr,
		DatabaseURL:         os.Getenv("ROSTERHUB_DATABASE_URL"),
		RedisURL:            os.Getenv("ROSTERHUB_REDIS_URL"),
		Seed:                os.Getenv("ROSTERHUB_SEED") != "false",
		SubscriberQueueSize: queueSize,
		SendTimeout:         sendTimeout,
	}
}

func intFromEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
