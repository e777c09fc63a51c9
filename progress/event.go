package progress

// Status is a lifecycle state reported for a step or for the manifest.
type Status string

const (
	StatusLoaded Status = "loaded"
	StatusStart  Status = "start"
	StatusOK     Status = "ok"
	StatusError  Status = "error"
)

// Meta is the opaque metadata attached to an event.
type Meta map[string]any

// MetaCorrelationID is the metadata key whose string value is sent as the
// correlation header.
const MetaCorrelationID = "correlationId"

// CorrelationID returns meta[MetaCorrelationID] when it is a string, else "".
func (m Meta) CorrelationID() string {
	if id, ok := m[MetaCorrelationID].(string); ok {
		return id
	}
	return ""
}

// Event is the request body sent to the progress endpoint.
type Event struct {
	Step   string `json:"step"`
	Status Status `json:"status"`
	Meta   Meta   `json:"meta"`
}
