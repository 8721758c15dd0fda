package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/fieldops/dispatch/infra/logger"
)

// Config holds the MQTT broker settings for the notifier.
type Config struct {
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Topic    string `json:"topic"`
	QoS      byte   `json:"qos"`
}

// SetDefaults fills zero values with usable defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "dispatch-notifier"
	}
	if c.Topic == "" {
		c.Topic = "dispatch/notifications"
	}
}

type message struct {
	UserID   string    `json:"user_id"`
	Message  string    `json:"message"`
	Priority int       `json:"priority"`
	SentAt   time.Time `json:"sent_at"`
}

// MQTTNotifier publishes user notifications to an MQTT topic. It satisfies
// the dispatch.Notifier interface.
type MQTTNotifier struct {
	client mqtt.Client
	topic  string
	qos    byte
	log    logger.Logger
}

// NewMQTTNotifier connects to the broker and returns a ready notifier.
func NewMQTTNotifier(cfg Config) (*MQTTNotifier, error) {
	cfg.SetDefaults()
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &MQTTNotifier{
		client: client,
		topic:  cfg.Topic,
		qos:    cfg.QoS,
		log:    logger.New("mqtt-notifier"),
	}, nil
}

// Notify publishes the notification on topic/<userID>.
func (n *MQTTNotifier) Notify(ctx context.Context, userID, msg string, priority int) error {
	payload, err := json.Marshal(message{
		UserID:   userID,
		Message:  msg,
		Priority: priority,
		SentAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	topic := fmt.Sprintf("%s/%s", n.topic, userID)
	token := n.client.Publish(topic, n.qos, false, payload)
	select {
	case <-token.Done():
		if token.Error() != nil {
			return fmt.Errorf("publish notification: %w", token.Error())
		}
	case <-ctx.Done():
		return ctx.Err()
	}
	n.log.Debugf("notification published to %s", topic)
	return nil
}

// Close disconnects from the broker.
func (n *MQTTNotifier) Close() {
	n.client.Disconnect(250)
}
