package config

import (
	"os"
	"time"
)

const (
	defaultAPIBaseURL      = "http://localhost:3000"
	defaultHTTPAddr        = ":8080"
	defaultShutdownTimeout = 10 * time.Second

	defaultReadHeaderTimeout = 5 * time.Second
)

type Dashboard struct {
	// APIBaseURL is the product-tracking backend. Defaults to the local
	// development address when API_BASE_URL is unset.
	APIBaseURL string
	// RabbitMQURL enables price-alert events when set; the dashboard runs
	// without it.
	RabbitMQURL       string
	HTTPAddr          string
	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration
}

func LoadDashboard() (Dashboard, error) {
	cfg := Dashboard{
		APIBaseURL:        getEnv("API_BASE_URL", defaultAPIBaseURL),
		RabbitMQURL:       getEnv("RABBITMQ_URL", ""),
		HTTPAddr:          getEnv("HTTP_ADDR", defaultHTTPAddr),
		ShutdownTimeout:   defaultShutdownTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
