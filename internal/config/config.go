// Package config reads server configuration from the environment. CLI
// flags override these values where a command exposes them.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr          string
	DBPath        string
	LogLevel      string
	StationsURL   string
	PromotionsURL string
	RoutingURL    string
	RadiusKm      float64
	RateLimit     int
	RatePeriod    time.Duration
}

func FromEnv() Config {
	return Config{
		Addr:          getenv("ADDR", "127.0.0.1:8080"),
		DBPath:        getenv("DB_PATH", "stations.db"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		StationsURL:   getenv("STATIONS_URL", ""),
		PromotionsURL: getenv("PROMOTIONS_URL", ""),
		RoutingURL:    getenv("ROUTING_URL", ""),
		RadiusKm:      getfloat("RADIUS_KM", 10),
		RateLimit:     getint("RATE_LIMIT", 20),
		RatePeriod:    getduration("RATE_PERIOD", time.Minute),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
