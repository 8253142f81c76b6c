package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope is the standard wrapper for every published analytics event. The
// aggregate ID is the cart token, which is the only stable identifier an
// unauthenticated session has.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Timestamp     time.Time       `json:"timestamp"`
	Source        string          `json:"source"`
	Data          json.RawMessage `json:"data"`
}

// NewEnvelope creates an envelope with a generated ID and current timestamp.
func NewEnvelope(eventType, aggregateID string, data any) (*Envelope, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		AggregateID:   aggregateID,
		AggregateType: "cart",
		Timestamp:     time.Now().UTC(),
		Source:        "storefront-client",
		Data:          dataBytes,
	}, nil
}

// Marshal serializes the envelope to JSON bytes.
func (e *Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalData deserializes the event payload into the given target.
func (e *Envelope) UnmarshalData(target any) error {
	return json.Unmarshal(e.Data, target)
}
