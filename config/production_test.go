package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("PRICING_HISTORY_MODE", "on_change")
	t.Setenv("PRICING_CASCADE_CONCURRENCY", "8")
	t.Setenv("PRICING_LOCK_TTL", "45s")
	t.Setenv("EVENTS_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")

	cfg := loadFromEnv()
	assert.Equal(t, "on_change", cfg.Pricing.HistoryMode)
	assert.Equal(t, 8, cfg.Pricing.CascadeConcurrency)
	assert.Equal(t, 45*time.Second, cfg.Pricing.LockTTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Events.KafkaBrokers)
	require.NoError(t, ValidateProductionConfig(cfg))
}

func TestLoadFromEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("PRICING_CASCADE_CONCURRENCY", "many")
	t.Setenv("PRICING_LOCK_TTL", "soon")

	cfg := loadFromEnv()
	assert.Equal(t, 4, cfg.Pricing.CascadeConcurrency)
	assert.Equal(t, 30*time.Second, cfg.Pricing.LockTTL)
}

func TestValidateProductionConfig(t *testing.T) {
	valid := func() *ProductionConfig {
		cfg := loadFromEnv()
		cfg.Database.Host = "localhost"
		cfg.Database.Name = "kusanagi"
		cfg.Database.User = "postgres"
		cfg.Database.Password = "secret"
		cfg.Pricing.HistoryMode = "always"
		cfg.Events.Provider = "memory"
		cfg.Logging.Level = "info"
		cfg.Logging.Output = "stdout"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(cfg *ProductionConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(cfg *ProductionConfig) {}},
		{
			name:    "missing password",
			mutate:  func(cfg *ProductionConfig) { cfg.Database.Password = "" },
			wantErr: "DB_PASSWORD is required",
		},
		{
			name:    "unknown history mode",
			mutate:  func(cfg *ProductionConfig) { cfg.Pricing.HistoryMode = "sometimes" },
			wantErr: "PRICING_HISTORY_MODE",
		},
		{
			name:    "zero concurrency",
			mutate:  func(cfg *ProductionConfig) { cfg.Pricing.CascadeConcurrency = 0 },
			wantErr: "PRICING_CASCADE_CONCURRENCY",
		},
		{
			name: "kafka without brokers",
			mutate: func(cfg *ProductionConfig) {
				cfg.Events.Provider = "kafka"
				cfg.Events.KafkaBrokers = nil
			},
			wantErr: "EVENTS_KAFKA_BROKERS",
		},
		{
			name:    "unknown event provider",
			mutate:  func(cfg *ProductionConfig) { cfg.Events.Provider = "nats" },
			wantErr: "EVENTS_PROVIDER",
		},
		{
			name:    "unknown log output",
			mutate:  func(cfg *ProductionConfig) { cfg.Logging.Output = "syslog" },
			wantErr: "LOG_OUTPUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := ValidateProductionConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
