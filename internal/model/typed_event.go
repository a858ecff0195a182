package model

// TypedEvent is a decoded event log with its arguments keyed by ABI name.
type TypedEvent struct {
	Seq       uint64                 `json:"seq"`
	Line      uint64                 `json:"line"`
	Timestamp uint64                 `json:"timestamp"`
	Address   string                 `json:"address"`
	EventName string                 `json:"event_name"`
	Args      map[string]interface{} `json:"args"`
	Assets    []TokenMeta            `json:"assets,omitempty"`
	Raw       *RawLogRef             `json:"raw,omitempty"`
}

// RawLogRef keeps a minimal raw reference for traceability.
type RawLogRef struct {
	Topic0 string `json:"topic0"`
	Data   string `json:"data"`
}
