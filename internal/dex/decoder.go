package dex

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"hubswap/internal/model"
)

// Decoder defines a log decoder.
type Decoder interface {
	CanDecode(topic0 string) bool
	Decode(log model.LogRecord, ctx DecodeContext) (*model.TypedEvent, error)
}

// DecodeContext provides shared dependencies for decoders.
type DecodeContext struct {
	Context        context.Context
	Chain          ContractCaller
	TokenMetaCache *TokenMetaCache
	Logger         *zap.Logger
}

// DecoderConfig configures decoder behavior.
type DecoderConfig struct {
	// Events restricts decoding to the named events. Empty means all.
	Events []string
}

// EventDecoder decodes hubswap event logs.
type EventDecoder struct {
	hubABI      abi.ABI
	topicToName map[string]string
}

// assetArgs are the event arguments that carry a token address.
var assetArgs = map[string]bool{
	"asset":    true,
	"assetIn":  true,
	"assetOut": true,
	"synth":    true,
	"token":    true,
}

// NewEventDecoder builds a decoder for the configured events.
func NewEventDecoder(cfg DecoderConfig) (*EventDecoder, error) {
	parsed, err := HubABI()
	if err != nil {
		return nil, fmt.Errorf("parse hub abi: %w", err)
	}

	topicToName := make(map[string]string)
	if len(cfg.Events) == 0 {
		for name, event := range parsed.Events {
			topicToName[strings.ToLower(event.ID.Hex())] = name
		}
	}
	for _, name := range cfg.Events {
		event, ok := parsed.Events[normalizeEventName(name)]
		if !ok {
			return nil, fmt.Errorf("unsupported event name: %s", name)
		}
		topicToName[strings.ToLower(event.ID.Hex())] = event.Name
	}

	return &EventDecoder{hubABI: parsed, topicToName: topicToName}, nil
}

// CanDecode checks if the topic0 is supported.
func (d *EventDecoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts a LogRecord into a TypedEvent.
func (d *EventDecoder) Decode(log model.LogRecord, ctx DecodeContext) (*model.TypedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}
	if !common.IsHexAddress(log.Address) {
		return nil, fmt.Errorf("invalid emitter address: %s", log.Address)
	}

	event := d.hubABI.Events[name]
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return nil, err
	}

	values := make(map[string]interface{}, len(event.Inputs))
	if err := abi.ParseTopicsIntoMap(values, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return nil, fmt.Errorf("parse topics: %w", err)
	}
	if err := unpackNonIndexed(event, log.Data, values); err != nil {
		return nil, err
	}

	args := make(map[string]interface{}, len(values))
	for key, value := range values {
		args[key] = plainValue(value)
	}

	return &model.TypedEvent{
		Seq:       log.Seq,
		Line:      log.Line,
		Timestamp: log.Timestamp,
		Address:   log.Address,
		EventName: name,
		Args:      args,
		Assets:    assetMetas(ctx, event, args),
		Raw:       &model.RawLogRef{Topic0: log.Topics[0], Data: log.Data},
	}, nil
}

// Payload rebuilds the typed payload of a decoded event.
func Payload(event *model.TypedEvent) (model.EventData, error) {
	build, ok := payloads[event.EventName]
	if !ok {
		return nil, fmt.Errorf("unsupported event name: %s", event.EventName)
	}
	fields := make(map[string]interface{}, len(event.Args))
	for key, value := range event.Args {
		fields[snakeCase(key)] = value
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return build(raw)
}

func normalizeEventName(name string) string {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	for known := range payloads {
		if strings.ToLower(known) == trimmed {
			return known
		}
	}
	return ""
}

func unpackNonIndexed(event abi.Event, dataHex string, out map[string]interface{}) error {
	data, err := decodeHex(dataHex)
	if err != nil {
		return fmt.Errorf("invalid data: %w", err)
	}
	if err := event.Inputs.NonIndexed().UnpackIntoMap(out, data); err != nil {
		return fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return nil
}

func assetMetas(ctx DecodeContext, event abi.Event, args map[string]interface{}) []model.TokenMeta {
	if ctx.TokenMetaCache == nil && ctx.Chain == nil {
		return nil
	}
	var out []model.TokenMeta
	seen := make(map[common.Address]bool)
	for _, arg := range event.Inputs {
		if !assetArgs[arg.Name] {
			continue
		}
		hex, _ := args[arg.Name].(string)
		if !common.IsHexAddress(hex) {
			continue
		}
		addr := common.HexToAddress(hex)
		if seen[addr] {
			continue
		}
		seen[addr] = true
		if meta, ok := getTokenMeta(ctx, addr); ok {
			out = append(out, meta)
		}
	}
	return out
}

func getTokenMeta(ctx DecodeContext, token common.Address) (model.TokenMeta, bool) {
	if ctx.TokenMetaCache != nil {
		if meta, ok := ctx.TokenMetaCache.Get(token); ok {
			return meta, true
		}
	}
	if ctx.Chain == nil {
		return model.TokenMeta{}, false
	}

	callCtx := ctx.Context
	if callCtx == nil {
		callCtx = context.Background()
	}
	log := ctx.Logger
	if log == nil {
		log = zap.NewNop()
	}

	meta, err := FetchTokenMeta(callCtx, ctx.Chain, token, log)
	if err != nil {
		log.Warn("token metadata fetch failed", zap.String("token", token.Hex()), zap.Error(err))
		return model.TokenMeta{}, false
	}
	if ctx.TokenMetaCache != nil {
		ctx.TokenMetaCache.Set(token, meta)
	}
	return meta, true
}
