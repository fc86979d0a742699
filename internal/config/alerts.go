package config

import (
	"fmt"
	"time"
)

type Alerts struct {
	RabbitMQURL     string
	ShutdownTimeout time.Duration
}

func LoadAlerts() (Alerts, error) {
	cfg := Alerts{
		RabbitMQURL:     getEnv("RABBITMQ_URL", ""),
		ShutdownTimeout: defaultShutdownTimeout,
	}

	if cfg.RabbitMQURL == "" {
		return Alerts{}, fmt.Errorf("RABBITMQ_URL is required")
	}

	return cfg, nil
}
