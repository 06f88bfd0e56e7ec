package mqtt

import (
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/berfenger/solardash/internal/config"
	"github.com/berfenger/solardash/internal/core/domain"
	"github.com/berfenger/solardash/internal/core/port"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	GRACEFUL_DISCONNECT = 250 * time.Millisecond
	// connect token wait on top of the client's own connect timeout
	connectWaitMargin = 2 * time.Second
)

var ErrTransportNotOpen = errors.New("transport is not open")

// Transport adapts a paho client to port.Transport. Every paho callback is turned into a
// domain.TransportEvent. Once End is called no further events are emitted.
type Transport struct {
	cfg    config.MQTTConfig
	logger *zap.Logger

	mu     sync.Mutex
	client *MQTTClient
	emit   port.TransportEmitter
	ended  atomic.Bool
}

func NewTransport(cfg config.MQTTConfig, logger *zap.Logger) *Transport {
	return &Transport{
		cfg:    cfg,
		logger: logger.With(zap.String("component", "mqtt_transport")),
	}
}

func NewTransportFactory(cfg config.MQTTConfig, logger *zap.Logger) port.TransportFactory {
	return func() port.Transport {
		return NewTransport(cfg, logger)
	}
}

func (t *Transport) Open(emit port.TransportEmitter) error {
	brokerURL := t.cfg.BrokerURL()
	if _, err := url.ParseRequestURI(brokerURL); err != nil {
		return err
	}

	t.mu.Lock()
	t.emit = emit
	t.client = CreateMQTTClient(OptsFromConfig(&t.cfg), func(_ mqtt.Client) {
		t.post(domain.Connected{})
	}, func(_ mqtt.Client, err error) {
		reason := "connection lost"
		if err != nil {
			reason = err.Error()
		}
		t.post(domain.Offline{Reason: reason})
		t.post(domain.Closed{})
	}, func(_ mqtt.Client, m mqtt.Message) {
		t.post(domain.MessageReceived{Topic: m.Topic(), Payload: string(m.Payload())})
	})
	client := t.client
	t.mu.Unlock()

	t.logger.Debug("mqtt: connect", zap.String("broker", brokerURL))
	connectWait := time.Duration(t.cfg.ConnectTimeoutMillis)*time.Millisecond + connectWaitMargin
	client.Connect(func(err error) {
		if err != nil {
			t.post(domain.TransportError{Message: err.Error()})
		}
	}, connectWait)
	return nil
}

func (t *Transport) Subscribe(topic string, done func(error)) {
	t.mu.Lock()
	client := t.client
	t.mu.Unlock()
	if client == nil {
		done(ErrTransportNotOpen)
		return
	}
	// messages are delivered to the default publish handler
	client.Subscribe(topic, SUBSCRIBE_QOS, nil, done, SUBSCRIBE_TIMEOUT)
}

// End closes the connection. A forced end drops the connection immediately, otherwise
// in-flight work gets a short grace period.
func (t *Transport) End(force bool) {
	if t.ended.Swap(true) {
		return
	}
	t.mu.Lock()
	client := t.client
	t.mu.Unlock()
	if client == nil {
		return
	}
	t.logger.Debug("mqtt: disconnect", zap.Bool("force", force))
	if force {
		client.Disconnect(0)
	} else {
		client.Disconnect(GRACEFUL_DISCONNECT)
	}
}

func (t *Transport) post(event domain.TransportEvent) {
	if t.ended.Load() {
		return
	}
	t.mu.Lock()
	emit := t.emit
	t.mu.Unlock()
	if emit != nil {
		emit(event)
	}
}

// ensure interface compliance
var _ port.Transport = (*Transport)(nil)
