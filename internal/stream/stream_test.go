package stream

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bombtrucks/extension/internal/config"
	"github.com/bombtrucks/extension/internal/events"
	"github.com/bombtrucks/extension/pkg/core"
	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type messageLog struct {
	mu        sync.Mutex
	messages  []Envelope
	secrets   []string
	closeCode int
}

func (m *messageLog) closedWith() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCode
}

func (m *messageLog) add(env Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, env)
}

func (m *messageLog) all() []Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]Envelope, len(m.messages))
	copy(cp, m.messages)
	return cp
}

func (m *messageLog) count(msgType string) int {
	n := 0
	for _, env := range m.all() {
		if env.Type == msgType {
			n++
		}
	}
	return n
}

// testServer acks hello messages. When dropFirst is set the first
// connection is closed right after its hello is acknowledged.
func testServer(t *testing.T, dropFirst bool) (*httptest.Server, *messageLog) {
	t.Helper()
	ml := &messageLog{}
	var conns atomic.Int32

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ml.mu.Lock()
		ml.secrets = append(ml.secrets, r.URL.Query().Get("secret"))
		ml.mu.Unlock()

		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()
		n := conns.Add(1)

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				var ce *ws.CloseError
				if errors.As(err, &ce) {
					ml.mu.Lock()
					ml.closeCode = ce.Code
					ml.mu.Unlock()
				}
				return
			}
			var env Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			ml.add(env)

			if env.Type == TypeHello {
				data, _ := json.Marshal(AckMessage{Type: "ack", For: TypeHello})
				if err := c.WriteMessage(ws.TextMessage, data); err != nil {
					return
				}
				if dropFirst && n == 1 {
					return
				}
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, ml
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

var hello = HelloPayload{Extension: "bombtrucks", Version: "1.0.0"}

func TestOpen_Disabled(t *testing.T) {
	_, err := Open(config.StreamConfig{URL: "ws://127.0.0.1:1"}, hello, nil)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestOpen_DialFailure(t *testing.T) {
	_, err := Open(config.StreamConfig{Enabled: true, URL: "ws://127.0.0.1:1"}, hello, nil)
	assert.Error(t, err)
}

func TestSink_StreamsEveryNotification(t *testing.T) {
	srv, ml := testServer(t, false)

	s, err := Open(config.StreamConfig{Enabled: true, URL: wsURL(srv), Secret: "s3cret"}, hello, nil)
	require.NoError(t, err)
	defer s.Close()

	ts := time.Unix(1_700_000_000, 0)
	bus := events.NewBus()
	bus.Subscribe(s)
	bus.EntityDestroyed(events.EntityDestroyed{
		OwnerID:   "76561198000000001",
		Record:    core.TrackedEntityRecord{EntityID: 42, ProfileName: "Nuke", Tracked: true},
		Path:      core.PathDetonated,
		Position:  core.Vec3{X: 1, Y: 2, Z: 3},
		Timestamp: ts,
	})
	bus.ListenerAdded(events.ListenerAdded{Channel: 808, Handle: 7})
	bus.ListenerRemoved(events.ListenerRemoved{Channel: 808, Handle: 7})
	bus.TriggerFired(events.TriggerFired{Channel: 808, Listeners: 1, Resolved: 1})

	require.Eventually(t, func() bool { return len(ml.all()) == 5 }, 2*time.Second, 10*time.Millisecond)

	msgs := ml.all()
	assert.Equal(t, TypeHello, msgs[0].Type)
	assert.Equal(t, TypeEntityDestroyed, msgs[1].Type)
	assert.Equal(t, TypeListenerAdded, msgs[2].Type)
	assert.Equal(t, TypeListenerRemoved, msgs[3].Type)
	assert.Equal(t, TypeTriggerFired, msgs[4].Type)

	var p EntityDestroyedPayload
	require.NoError(t, json.Unmarshal(msgs[1].Payload, &p))
	assert.Equal(t, uint64(42), p.EntityID)
	assert.Equal(t, "detonated", p.Path)
	assert.Equal(t, [3]float64{1, 2, 3}, p.Position)
	assert.True(t, p.Timestamp.Equal(ts))

	ml.mu.Lock()
	assert.Equal(t, []string{"s3cret"}, ml.secrets)
	ml.mu.Unlock()
	assert.Zero(t, s.Dropped())
}

func TestSink_ReconnectReplaysHello(t *testing.T) {
	srv, ml := testServer(t, true)

	s, err := Open(config.StreamConfig{Enabled: true, URL: wsURL(srv)}, hello, nil,
		WithReconnectBackoff(10*time.Millisecond))
	require.NoError(t, err)
	defer s.Close()

	require.Eventually(t, func() bool { return ml.count(TypeHello) == 2 }, 2*time.Second, 10*time.Millisecond)

	s.OnTriggerFired(events.TriggerFired{Channel: 1})
	require.Eventually(t, func() bool { return ml.count(TypeTriggerFired) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestClose_Idempotent(t *testing.T) {
	srv, _ := testServer(t, false)

	s, err := Open(config.StreamConfig{Enabled: true, URL: wsURL(srv)}, hello, nil)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestClose_WhileSending(t *testing.T) {
	srv, ml := testServer(t, false)

	s, err := Open(config.StreamConfig{Enabled: true, URL: wsURL(srv)}, hello, nil)
	require.NoError(t, err)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				s.OnTriggerFired(events.TriggerFired{Channel: 9, Listeners: 1})
				time.Sleep(time.Millisecond)
			}
		}()
	}

	require.Eventually(t, func() bool { return ml.count(TypeTriggerFired) > 0 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Close())
	close(stop)
	wg.Wait()

	require.Eventually(t, func() bool { return ml.closedWith() == ws.CloseNormalClosure }, 2*time.Second, 10*time.Millisecond)
}
