package model

// DecodeError records a log record that could not be decoded.
type DecodeError struct {
	Seq     uint64 `json:"seq,omitempty"`
	Line    uint64 `json:"line,omitempty"`
	Address string `json:"address,omitempty"`
	Topic0  string `json:"topic0,omitempty"`
	Error   string `json:"error"`
}
