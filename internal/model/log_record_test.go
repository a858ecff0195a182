package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestLogRecordJSONRoundTrip(t *testing.T) {
	original := LogRecord{
		Seq:       12,
		Line:      7,
		Timestamp: 1700000000,
		Address:   "0x1111111111111111111111111111111111111111",
		EventName: EventSwap,
		Topics:    []string{"0xaaa", "0xbbb"},
		Data:      "0xdeadbeef",
	}

	b, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded LogRecord
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("round-trip mismatch: %+v != %+v", original, decoded)
	}
}
