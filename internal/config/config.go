package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DayDataPath  string
	HourDataPath string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// View publishing (optional).
	PublishEnabled bool
	KafkaBrokers   []string
	KafkaViewTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	publishEnabled, err := parseBool("VIEW_PUBLISH_ENABLED", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DayDataPath:     sharedcfg.EnvOrDefault("DAY_DATA_PATH", "data/bike_data_day.csv"),
		HourDataPath:    sharedcfg.EnvOrDefault("HOUR_DATA_PATH", "data/bike_data_hour.csv"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		PublishEnabled: publishEnabled,
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaViewTopic: sharedcfg.EnvOrDefault("KAFKA_VIEW_TOPIC", "bikeshare-views"),
	}

	if cfg.DayDataPath == "" {
		return nil, errors.New("DAY_DATA_PATH is required")
	}
	if cfg.HourDataPath == "" {
		return nil, errors.New("HOUR_DATA_PATH is required")
	}
	if cfg.PublishEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("VIEW_PUBLISH_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.PublishEnabled && cfg.KafkaViewTopic == "" {
		return nil, errors.New("VIEW_PUBLISH_ENABLED is true but KAFKA_VIEW_TOPIC is empty")
	}

	return cfg, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", key, s)
	}
	return v, nil
}
