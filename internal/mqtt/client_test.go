package mqtt

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/berfenger/solardash/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestOptsFromConfig(t *testing.T) {

	assert := assert.New(t)

	cfg := config.MQTTConfig{
		Host:                 "broker.local",
		Port:                 9001,
		Username:             "rig",
		Password:             "secret",
		ClientIdPrefix:       "solardash",
		KeepAliveSeconds:     30,
		ConnectTimeoutMillis: 10000,
		ProtocolVersion:      4,
	}
	opts := OptsFromConfig(&cfg)

	assert.Len(opts.Servers, 1)
	assert.Equal("ws://broker.local:9001", opts.Servers[0].String())
	assert.True(strings.HasPrefix(opts.ClientID, "solardash_"), "client id prefix")
	assert.Equal("rig", opts.Username)
	assert.Equal("secret", opts.Password)
	assert.Equal(int64(30), opts.KeepAlive)
	assert.Equal(10*time.Second, opts.ConnectTimeout)
	assert.True(opts.CleanSession)
	assert.False(opts.AutoReconnect)
	assert.Equal(uint(4), opts.ProtocolVersion)
}

func TestOptsWithoutCredentials(t *testing.T) {
	cfg := config.MQTTConfig{Host: "broker.local", Port: 9001, ProtocolVersion: 4}
	opts := OptsFromConfig(&cfg)
	assert.Empty(t, opts.Username)
	assert.Len(t, opts.ClientID, 8)
}

func TestClientIdIsRandom(t *testing.T) {
	assert.NotEqual(t, ClientId("a"), ClientId("a"))
}

type stubToken struct {
	done chan struct{}
	err  error
}

func (t *stubToken) Wait() bool {
	<-t.done
	return true
}

func (t *stubToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *stubToken) Done() <-chan struct{} {
	return t.done
}

func (t *stubToken) Error() error {
	return t.err
}

func awaitResult(token *stubToken, timeout time.Duration) chan error {
	result := make(chan error, 1)
	awaitToken(token, "subscribe", timeout, func(err error) {
		result <- err
	})
	return result
}

func TestAwaitToken(t *testing.T) {

	assert := assert.New(t)

	completed := &stubToken{done: make(chan struct{})}
	close(completed.done)
	select {
	case err := <-awaitResult(completed, time.Second):
		assert.NoError(err)
	case <-time.After(2 * time.Second):
		t.Fatal("no continuation")
	}

	errBroken := errors.New("broken pipe")
	failed := &stubToken{done: make(chan struct{}), err: errBroken}
	close(failed.done)
	select {
	case err := <-awaitResult(failed, time.Second):
		assert.ErrorIs(err, errBroken)
		assert.True(strings.HasPrefix(err.Error(), "MQTT subscribe"))
	case <-time.After(2 * time.Second):
		t.Fatal("no continuation")
	}

	// a token that never completes is abandoned after the timeout
	hung := &stubToken{done: make(chan struct{})}
	defer close(hung.done)
	select {
	case err := <-awaitResult(hung, 50*time.Millisecond):
		assert.Error(err)
		assert.True(strings.HasPrefix(err.Error(), "MQTT subscribe"))
	case <-time.After(2 * time.Second):
		t.Fatal("timeout not applied")
	}
}
