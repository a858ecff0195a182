package model

import (
	"encoding/json"
)

// LogRecord is the ABI-encoded form of a committed event, shaped like a chain
// log so downstream tooling can decode it with the published event ABI.
type LogRecord struct {
	Seq       uint64   `json:"seq"`
	Line      uint64   `json:"line"`
	Timestamp uint64   `json:"timestamp"`
	Address   string   `json:"address"`
	EventName string   `json:"event_name"`
	Topics    []string `json:"topics"`
	Data      string   `json:"data"`
}

// MarshalJSON ensures LogRecord is encoded with stable field names.
func (lr LogRecord) MarshalJSON() ([]byte, error) {
	type Alias LogRecord
	return json.Marshal(Alias(lr))
}

// UnmarshalJSON decodes a LogRecord from JSON.
func (lr *LogRecord) UnmarshalJSON(data []byte) error {
	type Alias LogRecord
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*lr = LogRecord(a)
	return nil
}
