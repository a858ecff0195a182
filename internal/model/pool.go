package model

// PairRecord is the storage form of a pair's accounting state. Amounts are
// internal 18-decimal units rendered as base-10 strings.
type PairRecord struct {
	Asset          string `json:"asset"`
	NativeReserve  string `json:"native_reserve"`
	ForeignReserve string `json:"foreign_reserve"`
	SynthBacking   string `json:"synth_backing"`
	TotalUnits     string `json:"total_units"`
	QueuedNative   string `json:"queued_native"`
	QueuedForeign  string `json:"queued_foreign"`
	Supported      bool   `json:"supported"`
	Fungible       bool   `json:"fungible"`
	Synth          string `json:"synth,omitempty"`
	LPToken        string `json:"lp_token,omitempty"`
}

// PositionRecord is the storage form of a liquidity position.
type PositionRecord struct {
	ID              uint64 `json:"id"`
	Owner           string `json:"owner"`
	Asset           string `json:"asset"`
	Units           string `json:"units"`
	OriginalNative  string `json:"original_native"`
	OriginalForeign string `json:"original_foreign"`
	CreatedAt       uint64 `json:"created_at"`
	Pending         bool   `json:"pending"`
	Destroyed       bool   `json:"destroyed"`
}
