package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeExchangeRecorded is emitted after a question/answer exchange
	// is recorded.
	EventTypeExchangeRecorded = "gazette.exchange.recorded"
)

// ExchangeRecordedEvent is a transport-neutral event payload for a recorded
// question/answer exchange.
type ExchangeRecordedEvent struct {
	SchemaVersion int              `json:"schema_version"`
	EventType     string           `json:"event_type"`
	EventID       string           `json:"event_id"`
	EmittedAt     time.Time        `json:"emitted_at"`
	Question      string           `json:"question"`
	Answer        string           `json:"answer"`
	Source        string           `json:"source"`
	Mode          string           `json:"mode"`
	Context       ExchangeContext  `json:"context"`
	RequestMeta   ExchangeDuration `json:"request_meta"`
}

// ExchangeContext summarizes where the answer's context came from.
type ExchangeContext struct {
	StoredDocs    int `json:"stored_docs"`
	HarvestedDocs int `json:"harvested_docs"`
}

// ExchangeDuration captures request lifecycle metadata for the event.
type ExchangeDuration struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
}
