package model

import (
	"encoding/json"
	"testing"
)

func TestSwapEventDataJSONStringFields(t *testing.T) {
	payload := SwapEventData{
		Sender:    "0x1111111111111111111111111111111111111111",
		Recipient: "0x2222222222222222222222222222222222222222",
		AssetIn:   "0x3333333333333333333333333333333333333333",
		AssetOut:  "0x4444444444444444444444444444444444444444",
		AmountIn:  "12345678901234567890",
		AmountOut: "42",
	}

	data, err := json.Marshal(Event{Seq: 1, Name: payload.EventName(), Data: payload})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if decoded["name"] != EventSwap {
		t.Fatalf("name should be %s, got %v", EventSwap, decoded["name"])
	}
	body, ok := decoded["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("data should be an object")
	}
	if _, ok := body["amount_in"].(string); !ok {
		t.Fatalf("amount_in should be string")
	}
	if _, ok := body["amount_out"].(string); !ok {
		t.Fatalf("amount_out should be string")
	}
}
