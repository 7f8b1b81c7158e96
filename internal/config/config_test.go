package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings(t *testing.T) {
	t.Setenv("GATEWAY_UPSTREAM_URL", "http://razr.example:5001")
	t.Setenv("GATEWAY_PREFIX", "/api")
	t.Setenv("GATEWAY_RESPONSE_HEADER_TIMEOUT", "5s")
	t.Setenv("MQTT_QOS", "2")

	cfg, err := LoadSettings()
	require.NoError(t, err)

	assert.Equal(t, "http://razr.example:5001", cfg.Gateway.UpstreamURL)
	assert.Equal(t, "/api", cfg.Gateway.Prefix)
	assert.Equal(t, 5*time.Second, cfg.Gateway.ResponseHeaderTimeout)
	assert.Equal(t, 2, cfg.MQTT.QoS)
}

func TestLoadSettings_Defaults(t *testing.T) {
	cfg, err := LoadSettings()
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, ":8787", cfg.Gateway.ListenAddr)
	assert.Equal(t, "/newapi", cfg.Gateway.Prefix)
	assert.Equal(t, "http://localhost:5001", cfg.Gateway.UpstreamURL)
	assert.False(t, cfg.Gateway.ForwardHopHeaders)
	assert.Equal(t, "emulated", cfg.Device.Actuator)
	assert.Equal(t, "http://localhost:8787/newapi", cfg.LEDAPI.BaseURL)
}

func TestLoadSettings_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DEVICE_LISTEN_ADDR=:6001\n"), 0644))
	t.Chdir(dir)
	t.Cleanup(func() { os.Unsetenv("DEVICE_LISTEN_ADDR") })

	cfg, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, ":6001", cfg.Device.ListenAddr)
}

func TestLoadSettings_Invalid(t *testing.T) {
	t.Setenv("DEVICE_ACTUATOR", "serial")
	_, err := LoadSettings()
	assert.Error(t, err)

	t.Setenv("DEVICE_ACTUATOR", "mqtt")
	t.Setenv("MQTT_QOS", "3")
	_, err = LoadSettings()
	assert.Error(t, err)

	t.Setenv("MQTT_QOS", "1")
	t.Setenv("GATEWAY_DIAL_TIMEOUT", "soon")
	_, err = LoadSettings()
	assert.Error(t, err)
}
