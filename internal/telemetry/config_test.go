package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/taskflow/internal/config"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "taskflow", cfg.ServiceName)
	assert.Equal(t, ProtocolHTTP, cfg.Protocol)
	assert.Equal(t, 1.0, cfg.SampleRate)
	require.NoError(t, cfg.Validate())
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.TelemetryConfig{
		Enabled:    true,
		Endpoint:   "otel.example.com:4317",
		Protocol:   ProtocolGRPC,
		SampleRate: 0.25,
	}, "1.2.3")

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "otel.example.com:4317", cfg.Endpoint)
	assert.Equal(t, ProtocolGRPC, cfg.Protocol)
	assert.False(t, cfg.Insecure)
	assert.Equal(t, 0.25, cfg.SampleRate)
	assert.Equal(t, "1.2.3", cfg.ServiceVersion)
	require.NoError(t, cfg.Validate())

	blank := FromConfig(config.TelemetryConfig{}, "")
	assert.Equal(t, config.DefaultTelemetryEndpoint, blank.Endpoint)
	assert.Equal(t, "dev", blank.ServiceVersion)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"disabled ignores everything", func(c *Config) { c.Enabled = false; c.Endpoint = "" }, ""},
		{"valid local", func(c *Config) {}, ""},
		{"missing endpoint", func(c *Config) { c.Endpoint = "" }, "endpoint is required"},
		{"missing service", func(c *Config) { c.ServiceName = "" }, "service name"},
		{"bad protocol", func(c *Config) { c.Protocol = "udp" }, "unsupported protocol"},
		{"insecure remote", func(c *Config) { c.Endpoint = "otel.example.com:4318" }, "insecure connections"},
		{"secure remote", func(c *Config) { c.Endpoint = "otel.example.com:4318"; c.Insecure = false }, ""},
		{"rate above one", func(c *Config) { c.SampleRate = 1.5 }, "sample rate"},
		{"rate below zero", func(c *Config) { c.SampleRate = -0.1 }, "sample rate"},
		{"zero interval", func(c *Config) { c.ExportInterval = 0 }, "export interval"},
		{"zero shutdown", func(c *Config) { c.ShutdownTimeout = 0 }, "shutdown timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			cfg.Enabled = true
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_IsLocalEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		want     bool
	}{
		{"localhost:4318", true},
		{"http://localhost:4318", true},
		{"127.0.0.1:4317", true},
		{"127.0.1.5:4317", true},
		{"[::1]:4317", true},
		{"::1", true},
		{"localhost", true},
		{"otel.example.com:4317", false},
		{"10.0.0.4:4317", false},
		{"localhost.example.com:4317", false},
	}
	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			cfg := &Config{Endpoint: tt.endpoint}
			assert.Equal(t, tt.want, cfg.isLocalEndpoint())
		})
	}
}

func TestStripScheme(t *testing.T) {
	assert.Equal(t, "otel:4318", stripScheme("https://otel:4318"))
	assert.Equal(t, "otel:4318", stripScheme("http://otel:4318"))
	assert.Equal(t, "otel:4318", stripScheme("otel:4318"))
}
