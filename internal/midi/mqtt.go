package midi

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const publishTimeout = 250 * time.Millisecond

// MQTTConfig describes the broker that receives control values.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
}

// ControlMessage is the JSON payload published for each control change.
type ControlMessage struct {
	Channel    uint8 `json:"channel"`
	Controller uint8 `json:"controller"`
	Value      uint8 `json:"value"`
	Timestamp  int64 `json:"ts"`
}

type publisher interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTOutput publishes control changes as JSON to <topic>/<controller>.
type MQTTOutput struct {
	client publisher
	topic  string
	now    func() time.Time
	close  func()
}

// DialMQTT connects to the broker. The client reconnects on its own after
// the initial connection.
func DialMQTT(cfg MQTTConfig) (*MQTTOutput, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "mudra"
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.WaitTimeout(5*time.Second) && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, token.Error())
	}

	out := newMQTTOutput(client, cfg.Topic)
	out.close = func() { client.Disconnect(250) }
	return out, nil
}

func newMQTTOutput(client publisher, topic string) *MQTTOutput {
	if topic == "" {
		topic = "mudra/cc"
	}
	return &MQTTOutput{client: client, topic: topic, now: time.Now}
}

// SendControlChange publishes one message with QoS 0.
func (o *MQTTOutput) SendControlChange(channel, controller, value uint8) error {
	if !o.client.IsConnected() {
		return ErrNoDevice
	}

	msg := ControlChange(channel, controller, value)
	payload, err := json.Marshal(ControlMessage{
		Channel:    msg[0] & 0x0F,
		Controller: msg[1],
		Value:      msg[2],
		Timestamp:  o.now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("encode control message: %w", err)
	}

	topic := fmt.Sprintf("%s/%d", o.topic, msg[1])
	token := o.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timed out", topic)
	}
	return token.Error()
}

// Close disconnects from the broker.
func (o *MQTTOutput) Close() error {
	if o.close != nil {
		o.close()
	}
	return nil
}
