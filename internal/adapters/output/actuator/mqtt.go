package actuator

import (
	"context"
	"errors"
	"fmt"
	"led-gateway/internal/domain/model"
	"led-gateway/internal/ports"
	"log/slog"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

var (
	ErrNotConnected     = errors.New("mqtt: client not connected")
	ErrConnectionFailed = errors.New("mqtt: connection failed")
	ErrPublishFailed    = errors.New("mqtt: publish failed")
)

// publisher is the subset of pahomqtt.Client the actuator needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	IsConnectionOpen() bool
}

type MQTTConfig struct {
	Broker         string
	ClientID       string
	TopicPrefix    string
	QoS            byte
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
}

// MQTT publishes ON/OFF to {prefix}/{pin}/set for a broker-attached board.
type MQTT struct {
	client  publisher
	prefix  string
	qos     byte
	timeout time.Duration
	logger  *slog.Logger
}

func DialMQTT(cfg MQTTConfig, logger *slog.Logger) (*MQTT, pahomqtt.Client, error) {
	if cfg.QoS > 2 {
		return nil, nil, fmt.Errorf("mqtt: invalid qos %d", cfg.QoS)
	}
	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			logger.Warn("MQTT connection lost", "broker", cfg.Broker, "error", err)
		}).
		SetOnConnectHandler(func(_ pahomqtt.Client) {
			logger.Info("MQTT connected", "broker", cfg.Broker)
		})

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, cfg.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return NewMQTT(client, cfg.TopicPrefix, cfg.QoS, cfg.PublishTimeout, logger), client, nil
}

func NewMQTT(client publisher, prefix string, qos byte, timeout time.Duration, logger *slog.Logger) *MQTT {
	return &MQTT{
		client:  client,
		prefix:  strings.Trim(prefix, "/"),
		qos:     qos,
		timeout: timeout,
		logger:  logger,
	}
}

func (m *MQTT) Topic(pin int) string {
	if m.prefix == "" {
		return fmt.Sprintf("%d/set", pin)
	}
	return fmt.Sprintf("%s/%d/set", m.prefix, pin)
}

func (m *MQTT) Apply(ctx context.Context, pin int, state model.State) error {
	if !m.client.IsConnectionOpen() {
		return ErrNotConnected
	}

	topic := m.Topic(pin)
	token := m.client.Publish(topic, m.qos, false, state.Command())

	timer := time.NewTimer(m.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
	case <-timer.C:
		return fmt.Errorf("%w: %s: timeout after %v", ErrPublishFailed, topic, m.timeout)
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, err)
	}

	m.logger.Debug("Command published", "topic", topic, "command", Command(pin, state))
	return nil
}

func (m *MQTT) Status() ports.ActuatorStatus {
	return ports.ActuatorStatus{Name: "mqtt", Connected: m.client.IsConnectionOpen()}
}
