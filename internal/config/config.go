package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Settings struct {
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"INFO"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	Gateway GatewaySettings `envPrefix:"GATEWAY_"`
	Device  DeviceSettings  `envPrefix:"DEVICE_"`
	MQTT    MQTTSettings    `envPrefix:"MQTT_"`
	LEDAPI  LEDAPISettings  `envPrefix:"LEDAPI_"`
}

type GatewaySettings struct {
	ListenAddr            string        `env:"LISTEN_ADDR"             envDefault:":8787"`
	AdminAddr             string        `env:"ADMIN_ADDR"              envDefault:":9787"`
	UpstreamURL           string        `env:"UPSTREAM_URL"            envDefault:"http://localhost:5001"`
	Prefix                string        `env:"PREFIX"                  envDefault:"/newapi"`
	DialTimeout           time.Duration `env:"DIAL_TIMEOUT"            envDefault:"10s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"30s"`
	ForwardHopHeaders     bool          `env:"FORWARD_HOP_HEADERS"     envDefault:"false"`
}

type DeviceSettings struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":5001"`
	LayoutFile string `env:"LAYOUT_FILE"`
	Actuator   string `env:"ACTUATOR"    envDefault:"emulated"`
}

type MQTTSettings struct {
	Broker         string        `env:"BROKER"          envDefault:"tcp://localhost:1883"`
	ClientID       string        `env:"CLIENT_ID"       envDefault:"ledgw"`
	TopicPrefix    string        `env:"TOPIC_PREFIX"    envDefault:"leds"`
	QoS            int           `env:"QOS"             envDefault:"1"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
	PublishTimeout time.Duration `env:"PUBLISH_TIMEOUT" envDefault:"5s"`
}

type LEDAPISettings struct {
	BaseURL string        `env:"BASE_URL" envDefault:"http://localhost:8787/newapi"`
	Timeout time.Duration `env:"TIMEOUT"  envDefault:"10s"`
}

func LoadSettings() (*Settings, error) {
	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			slog.Warn("Error loading .env file", "error", err)
		}
	}

	cfg := Settings{}
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (s *Settings) Validate() error {
	switch s.Device.Actuator {
	case "emulated", "mqtt":
	default:
		return fmt.Errorf("DEVICE_ACTUATOR must be emulated or mqtt, got %q", s.Device.Actuator)
	}
	if s.MQTT.QoS < 0 || s.MQTT.QoS > 2 {
		return fmt.Errorf("MQTT_QOS must be 0, 1 or 2, got %d", s.MQTT.QoS)
	}
	if s.Gateway.ResponseHeaderTimeout <= 0 {
		return fmt.Errorf("GATEWAY_RESPONSE_HEADER_TIMEOUT must be positive")
	}
	return nil
}
