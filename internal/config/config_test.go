package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "model.json", cfg.ModelPath)
	assert.False(t, cfg.ModelWatch)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "accident-risk-predictions", cfg.KafkaPredictionTopic)
	assert.False(t, cfg.PredictionEventsEnabled)
	assert.Equal(t, 2*time.Second, cfg.PredictionEventsTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("MODEL_PATH", "/models/accident_risk.json")
	t.Setenv("MODEL_WATCH", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_PREDICTION_TOPIC", "custom-predictions")
	t.Setenv("PREDICTION_EVENTS_TIMEOUT", "500ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "/models/accident_risk.json", cfg.ModelPath)
	assert.True(t, cfg.ModelWatch)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-predictions", cfg.KafkaPredictionTopic)
	assert.True(t, cfg.PredictionEventsEnabled)
	assert.Equal(t, 500*time.Millisecond, cfg.PredictionEventsTimeout)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidModelWatch(t *testing.T) {
	t.Setenv("MODEL_WATCH", "sometimes")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MODEL_WATCH")
}

func TestLoad_EventsEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("PREDICTION_EVENTS_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_BrokersImplyEventsEnabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", testBroker)
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.PredictionEventsEnabled)
	assert.Equal(t, []string{testBroker}, cfg.KafkaBrokers)
}

func TestLoad_EventsExplicitlyDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", testBroker)
	t.Setenv("PREDICTION_EVENTS_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.PredictionEventsEnabled)
}

func TestLoad_InvalidEventsFlag(t *testing.T) {
	t.Setenv("PREDICTION_EVENTS_ENABLED", "yes please")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PREDICTION_EVENTS_ENABLED")
}

func TestLoad_InvalidEventsTimeout(t *testing.T) {
	for _, v := range []string{"soon", "0s", "-1s"} {
		t.Setenv("PREDICTION_EVENTS_TIMEOUT", v)
		_, err := Load()
		require.Error(t, err, v)
		assert.Contains(t, err.Error(), "PREDICTION_EVENTS_TIMEOUT")
	}
}
