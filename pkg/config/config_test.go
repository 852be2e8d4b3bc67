package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "eventsphere", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, int32(50), cfg.Database.MaxConns)
	assert.Contains(t, cfg.Database.DSN(), "dbname=eventsphere")

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "registration-events", cfg.Kafka.Topic)

	assert.Equal(t, time.Minute, cfg.Worker.ReconcileInterval)
	assert.Equal(t, 200, cfg.Worker.ReconcileBatchSize)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("DATABASE_HOST", "db.internal")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("WORKER_RECONCILE_INTERVAL", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.App.LogLevel)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Second, cfg.Worker.ReconcileInterval)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "missing app name",
			mutate:  func(cfg *Config) { cfg.App.Name = "" },
			wantErr: "app name is required",
		},
		{
			name:    "invalid port",
			mutate:  func(cfg *Config) { cfg.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "missing jwt secret",
			mutate:  func(cfg *Config) { cfg.JWT.Secret = "" },
			wantErr: "JWT secret is required",
		},
		{
			name: "default jwt secret in production",
			mutate: func(cfg *Config) {
				cfg.App.Environment = "production"
			},
			wantErr: "JWT secret must be changed in production",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
