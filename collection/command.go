package collection

import "encoding/json"

// Command is one entry of the append-only persistence log. A collection file
// is just the sequence of commands needed to rebuild its state in memory.
type Command struct {
	Name      string          `json:"name"`
	Uuid      string          `json:"uuid"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}
