package mqttc

import (
	"log"
	"os"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	DefaultBroker = "tcp://localhost:1883"

	decisionsPrefix = "sim/decisions/"
	commandsPrefix  = "sim/commands/"
	statusPrefix    = "sim/status/"
)

// DecisionTopic is where an actor's per-tick decisions are published.
func DecisionTopic(actorID string) string { return decisionsPrefix + actorID }

// CommandTopics are the topics a host listens on for commands.
func CommandTopics(hostID string) []string {
	return []string{commandsPrefix + hostID, commandsPrefix + "all"}
}

// StatusTopic carries a host's retained status.
func StatusTopic(hostID string) string { return statusPrefix + hostID }

// ActorFromTopic extracts the actor id from a decision topic.
func ActorFromTopic(topic string) (string, bool) {
	id, ok := strings.CutPrefix(topic, decisionsPrefix)
	return id, ok && id != ""
}

type Client struct {
	Client mqtt.Client
}

// NewClient creates a client using environment/default broker.
func NewClient(clientID string) *Client {
	return NewClientWithHandler(clientID, "", nil)
}

// NewClientWithHandler lets callers provide an OnConnect handler, which runs
// on every (re)connect and is where subscriptions belong.
func NewClientWithHandler(clientID, broker string, onConnect mqtt.OnConnectHandler) *Client {
	if broker == "" {
		broker = os.Getenv("MQTT_BROKER")
		if broker == "" {
			broker = DefaultBroker
		}
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)

	if onConnect != nil {
		opts.SetOnConnectHandler(onConnect)
	}

	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		log.Printf("MQTT connect error: %v", token.Error())
	}
	return &Client{Client: c}
}

func (c *Client) Connected() bool {
	return c != nil && c.Client != nil && c.Client.IsConnected()
}

func (c *Client) Publish(topic string, payload []byte) {
	c.publish(topic, payload, false)
}

// PublishRetained publishes a message the broker keeps for late subscribers.
func (c *Client) PublishRetained(topic string, payload []byte) {
	c.publish(topic, payload, true)
}

func (c *Client) publish(topic string, payload []byte, retained bool) {
	if !c.Connected() {
		return
	}
	token := c.Client.Publish(topic, 0, retained, payload)
	token.Wait()
	if token.Error() != nil {
		log.Printf("MQTT publish %s error: %v", topic, token.Error())
	}
}

func (c *Client) Subscribe(topic string, handler mqtt.MessageHandler) {
	if c == nil || c.Client == nil {
		return
	}
	token := c.Client.Subscribe(topic, 0, handler)
	token.Wait()
	if token.Error() != nil {
		log.Printf("MQTT subscribe error: %v", token.Error())
	}
}

func (c *Client) Close() {
	if c == nil || c.Client == nil {
		return
	}
	c.Client.Disconnect(250)
}
