package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"supcal/internal/core"
)

// EventKind names what happened to a record.
type EventKind string

const (
	RecordUpserted EventKind = "record.upserted"
	RecordDeleted  EventKind = "record.deleted"
)

// RecordEvent is a lightweight change notification. It carries only the
// identity of the record; consumers fetch the current state from storage.
type RecordEvent struct {
	Kind       EventKind       `json:"kind"`
	RecordID   string          `json:"record_id"`
	RecordType core.RecordType `json:"record_type"`
	// UpdatedAt is the user-visible modification time at publish; rollovers keep it.
	UpdatedAt time.Time `json:"updated_at"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUpsertEvent describes a created or updated record.
func NewUpsertEvent(rec core.Record) *RecordEvent {
	return &RecordEvent{
		Kind:       RecordUpserted,
		RecordID:   rec.ID,
		RecordType: rec.Type,
		UpdatedAt:  rec.UpdatedAt,
		Timestamp:  time.Now(),
	}
}

// NewDeleteEvent describes a removed record.
func NewDeleteEvent(id string, typ core.RecordType) *RecordEvent {
	return &RecordEvent{
		Kind:       RecordDeleted,
		RecordID:   id,
		RecordType: typ,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordEventFromJSON parses and checks an event body.
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var ev RecordEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if ev.Kind != RecordUpserted && ev.Kind != RecordDeleted {
		return nil, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	if ev.RecordID == "" {
		return nil, fmt.Errorf("event without record id")
	}
	return &ev, nil
}
