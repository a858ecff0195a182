package dex

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"hubswap/internal/model"
)

// Encoder turns committed events into ABI-encoded log records.
type Encoder struct {
	hubABI abi.ABI
}

// NewEncoder builds an encoder over the hubswap event ABI.
func NewEncoder() (*Encoder, error) {
	parsed, err := HubABI()
	if err != nil {
		return nil, fmt.Errorf("parse hub abi: %w", err)
	}
	return &Encoder{hubABI: parsed}, nil
}

// Encode packs one event. Indexed arguments become topics after topic0, the
// rest is the log data.
func (e *Encoder) Encode(event model.Event, line uint64) (model.LogRecord, error) {
	if event.Data == nil {
		return model.LogRecord{}, fmt.Errorf("event %d has no payload", event.Seq)
	}
	name := event.Data.EventName()
	abiEvent, ok := e.hubABI.Events[name]
	if !ok {
		return model.LogRecord{}, fmt.Errorf("unsupported event name: %s", name)
	}

	fields, err := payloadFields(event.Data)
	if err != nil {
		return model.LogRecord{}, fmt.Errorf("flatten %s: %w", name, err)
	}

	topics := []string{abiEvent.ID.Hex()}
	var query [][]interface{}
	var plain []interface{}
	for _, arg := range abiEvent.Inputs {
		value, err := abiValue(arg, fields[snakeCase(arg.Name)])
		if err != nil {
			return model.LogRecord{}, fmt.Errorf("%s: %w", name, err)
		}
		if arg.Indexed {
			query = append(query, []interface{}{value})
			continue
		}
		plain = append(plain, value)
	}

	if len(query) > 0 {
		hashes, err := abi.MakeTopics(query...)
		if err != nil {
			return model.LogRecord{}, fmt.Errorf("%s topics: %w", name, err)
		}
		for _, h := range hashes {
			topics = append(topics, h[0].Hex())
		}
	}

	data, err := abiEvent.Inputs.NonIndexed().Pack(plain...)
	if err != nil {
		return model.LogRecord{}, fmt.Errorf("pack %s: %w", name, err)
	}

	return model.LogRecord{
		Seq:       event.Seq,
		Line:      line,
		Timestamp: event.Timestamp,
		Address:   event.Emitter,
		EventName: name,
		Topics:    topics,
		Data:      hexutil.Encode(data),
	}, nil
}

// EncodeAll packs every event produced by one operation.
func (e *Encoder) EncodeAll(events []model.Event, line uint64) ([]model.LogRecord, error) {
	out := make([]model.LogRecord, 0, len(events))
	for _, event := range events {
		record, err := e.Encode(event, line)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}
