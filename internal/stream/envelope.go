package stream

import (
	"encoding/json"
	"time"
)

// Message types carried in Envelope.Type.
const (
	TypeHello           = "hello"
	TypeEntityDestroyed = "entity_destroyed"
	TypeListenerAdded   = "listener_added"
	TypeListenerRemoved = "listener_removed"
	TypeTriggerFired    = "trigger_fired"
)

// Envelope wraps every message sent to the server.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// AckMessage is the server's acknowledgement of a blocking message.
type AckMessage struct {
	Type string `json:"type"`
	For  string `json:"for"`
}

// HelloPayload opens a session. It is replayed after every reconnect.
type HelloPayload struct {
	Extension string    `json:"extension"`
	Version   string    `json:"version"`
	StartedAt time.Time `json:"startedAt"`
}

// EntityDestroyedPayload describes a tracked vehicle leaving the ledger.
type EntityDestroyedPayload struct {
	OwnerID   string     `json:"ownerId"`
	EntityID  uint64     `json:"entityId"`
	Profile   string     `json:"profile"`
	Tracked   bool       `json:"tracked"`
	Path      string     `json:"path"`
	Position  [3]float64 `json:"position"`
	Timestamp time.Time  `json:"timestamp"`
}

// ListenerPayload describes a receiver joining or leaving a channel.
type ListenerPayload struct {
	Channel   int       `json:"channel"`
	Handle    uint64    `json:"handle"`
	Timestamp time.Time `json:"timestamp"`
}

// TriggerPayload describes a channel broadcast.
type TriggerPayload struct {
	Channel   int       `json:"channel"`
	Listeners int       `json:"listeners"`
	Resolved  int       `json:"resolved"`
	Timestamp time.Time `json:"timestamp"`
}
