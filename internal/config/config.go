package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Model artifact configuration.
	ModelPath  string
	ModelWatch bool

	// Prediction audit events, published to Kafka when enabled.
	KafkaBrokers            []string
	KafkaPredictionTopic    string
	PredictionEventsEnabled bool
	PredictionEventsTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	modelWatch, err := parseBool("MODEL_WATCH", false)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if s := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); s != "" {
		brokers = sharedcfg.ParseBrokers(s)
	}

	eventsEnabled, err := parseBool("PREDICTION_EVENTS_ENABLED", len(brokers) > 0)
	if err != nil {
		return nil, err
	}

	eventsTimeout, err := parseDuration("PREDICTION_EVENTS_TIMEOUT", 2*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":5000"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ModelPath:  sharedcfg.EnvOrDefault("MODEL_PATH", "model.json"),
		ModelWatch: modelWatch,

		KafkaBrokers:            brokers,
		KafkaPredictionTopic:    sharedcfg.EnvOrDefault("KAFKA_PREDICTION_TOPIC", "accident-risk-predictions"),
		PredictionEventsEnabled: eventsEnabled,
		PredictionEventsTimeout: eventsTimeout,
	}

	if strings.TrimSpace(cfg.ModelPath) == "" {
		return nil, errors.New("MODEL_PATH is required")
	}
	if cfg.PredictionEventsEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("PREDICTION_EVENTS_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.PredictionEventsEnabled && cfg.KafkaPredictionTopic == "" {
		return nil, errors.New("KAFKA_PREDICTION_TOPIC is required when prediction events are enabled")
	}

	return cfg, nil
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, errors.New("invalid " + key)
	}
	return v, nil
}
