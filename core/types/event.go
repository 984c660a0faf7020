package types

// Event is a structured record of a state change, rendered with string
// attributes so downstream consumers (RPC subscribers, indexers) do not need
// module-specific decoding.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
