package mqtt

import (
	"fmt"
	"time"

	"github.com/berfenger/solardash/internal/config"
	"github.com/berfenger/solardash/internal/util/actorutil"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	SUBSCRIBE_QOS     = 0
	SUBSCRIBE_TIMEOUT = 5 * time.Second
)

func OptsFromConfig(cfg *config.MQTTConfig) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL())
	opts.SetClientID(ClientId(cfg.ClientIdPrefix))
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetKeepAlive(time.Duration(cfg.KeepAliveSeconds) * time.Second)
	opts.SetCleanSession(true)
	// reconnection is driven by the user through retry
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(time.Duration(cfg.ConnectTimeoutMillis) * time.Millisecond)
	opts.SetProtocolVersion(cfg.ProtocolVersion)
	return opts
}

// ClientId returns a random client id, optionally prefixed.
func ClientId(prefix string) string {
	id := uuid.NewString()[:8]
	if prefix == "" {
		return id
	}
	return fmt.Sprintf("%s_%s", prefix, id)
}

func CreateMQTTClient(opts *mqtt.ClientOptions, onConnectHandler func(client mqtt.Client),
	onConnectionLostHandler func(mqtt.Client, error), defaultHandler mqtt.MessageHandler) *MQTTClient {
	if onConnectHandler != nil {
		opts.OnConnect = onConnectHandler
	}
	if onConnectionLostHandler != nil {
		opts.OnConnectionLost = onConnectionLostHandler
	}
	if defaultHandler != nil {
		opts.SetDefaultPublishHandler(defaultHandler)
	}
	return &MQTTClient{
		client: mqtt.NewClient(opts),
	}
}

type MQTTClient struct {
	client mqtt.Client
}

func (c *MQTTClient) Subscribe(topic string, qos byte, handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	token := c.client.Subscribe(topic, qos, handler)
	awaitToken(token, "subscribe", timeout, continuation)
}

func (c *MQTTClient) Connect(continuation func(error), timeout time.Duration) {
	token := c.client.Connect()
	awaitToken(token, "connect", timeout, continuation)
}

func (c *MQTTClient) Disconnect(timeout time.Duration) {
	c.client.Disconnect(uint(timeout.Milliseconds()))
}

func awaitToken(token mqtt.Token, operation string, timeout time.Duration, continuation func(error)) {
	actorutil.NewBackgroundTaskErr(func() error {
		token.Wait()
		return token.Error()
	}).WithTimeout(timeout).OnSuccess(func(struct{}) {
		continuation(nil)
	}).OnError(func(err error) {
		continuation(fmt.Errorf("MQTT %s: %w", operation, err))
	}).RunAsync()
}
