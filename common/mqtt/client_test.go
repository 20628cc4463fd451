package mqtt

import (
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type doneToken struct {
	err error
}

func (t doneToken) Wait() bool                       { return true }
func (t doneToken) WaitTimeout(_ time.Duration) bool { return true }
func (t doneToken) Error() error                     { return t.err }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type message struct {
	topic   string
	payload []byte
}

func (m message) Duplicate() bool   { return false }
func (m message) Qos() byte         { return 1 }
func (m message) Retained() bool    { return false }
func (m message) Topic() string     { return m.topic }
func (m message) MessageID() uint16 { return 1 }
func (m message) Payload() []byte   { return m.payload }
func (m message) Ack()              {}

// fakePaho 只实现 Client 用到的方法
type fakePaho struct {
	mqtt.Client

	mu           sync.Mutex
	subscribed   []string
	callbacks    map[string]mqtt.MessageHandler
	unsubscribed []string
	subErr       error
}

func (f *fakePaho) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return doneToken{err: f.subErr}
	}
	f.subscribed = append(f.subscribed, topic)
	if f.callbacks == nil {
		f.callbacks = make(map[string]mqtt.MessageHandler)
	}
	f.callbacks[topic] = callback
	return doneToken{}
}

func (f *fakePaho) Unsubscribe(topics ...string) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribed = append(f.unsubscribed, topics...)
	return doneToken{}
}

func (f *fakePaho) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	return doneToken{}
}

func (f *fakePaho) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribed = nil
	f.callbacks = nil
}

func (f *fakePaho) topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.subscribed...)
	sort.Strings(out)
	return out
}

func newTestClient() (*Client, *fakePaho) {
	paho := &fakePaho{}
	c := newClient(zap.NewNop())
	c.client = paho
	return c, paho
}

func TestClient_ResubscribeAfterReconnect(t *testing.T) {
	c, paho := newTestClient()

	var got []string
	handler := func(topic string, payload []byte) error {
		got = append(got, topic+"="+string(payload))
		return nil
	}
	require.NoError(t, c.Subscribe("satpam/scan/+", 1, handler))
	require.NoError(t, c.Subscribe("satpam/ping", 0, handler))
	require.NoError(t, c.Unsubscribe("satpam/ping"))
	assert.Equal(t, []string{"satpam/ping"}, paho.unsubscribed)

	// CleanSession 重连后 broker 侧订阅为空
	paho.reset()
	c.resubscribe(paho)

	assert.Equal(t, []string{"satpam/scan/+"}, paho.topics())

	paho.callbacks["satpam/scan/+"](paho, message{topic: "satpam/scan/G1", payload: []byte("{}")})
	assert.Equal(t, []string{"satpam/scan/G1={}"}, got)
}

func TestClient_FailedSubscribeNotRecorded(t *testing.T) {
	c, paho := newTestClient()
	paho.subErr = errors.New("not authorized")

	err := c.Subscribe("satpam/scan/+", 1, func(string, []byte) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "satpam/scan/+")

	paho.subErr = nil
	c.resubscribe(paho)
	assert.Empty(t, paho.topics())
}

func TestClient_HandlerErrorDoesNotPanic(t *testing.T) {
	c, paho := newTestClient()
	require.NoError(t, c.Subscribe("satpam/scan/+", 1, func(string, []byte) error {
		return errors.New("bad payload")
	}))

	assert.NotPanics(t, func() {
		paho.callbacks["satpam/scan/+"](paho, message{topic: "satpam/scan/G1", payload: []byte("x")})
	})
}

func TestClient_Publish(t *testing.T) {
	c, _ := newTestClient()
	assert.NoError(t, c.Publish("satpam/board/G1", 1, false, []byte("{}")))
}
