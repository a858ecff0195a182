package dex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"hubswap/internal/model"
)

// payloads rebuilds a typed event payload from its JSON form.
var payloads = map[string]func([]byte) (model.EventData, error){
	model.EventMint:               decodeInto[model.MintEventData],
	model.EventBurn:               decodeInto[model.BurnEventData],
	model.EventSwap:               decodeInto[model.SwapEventData],
	model.EventSynthMint:          decodeInto[model.SynthMintEventData],
	model.EventSynthBurn:          decodeInto[model.SynthBurnEventData],
	model.EventFungibleMint:       decodeInto[model.FungibleMintEventData],
	model.EventFungibleBurn:       decodeInto[model.FungibleBurnEventData],
	model.EventPositionTransfer:   decodeInto[model.PositionTransferEventData],
	model.EventAssetSupport:       decodeInto[model.AssetSupportEventData],
	model.EventQueueToggle:        decodeInto[model.QueueToggleEventData],
	model.EventLossCovered:        decodeInto[model.LossCoveredEventData],
	model.EventGrant:              decodeInto[model.GrantEventData],
	model.EventFunded:             decodeInto[model.FundedEventData],
	model.EventControllerTransfer: decodeInto[model.ControllerTransferEventData],
	model.EventSynthCreated:       decodeInto[model.SynthCreatedEventData],
	model.EventWrapperCreated:     decodeInto[model.WrapperCreatedEventData],
}

func decodeInto[T model.EventData](raw []byte) (model.EventData, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// payloadFields flattens an event payload into its JSON fields.
func payloadFields(data model.EventData) (map[string]interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	fields := make(map[string]interface{})
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// abiValue converts a JSON payload field into the Go type the ABI packer
// expects for arg.
func abiValue(arg abi.Argument, value interface{}) (interface{}, error) {
	switch arg.Type.T {
	case abi.AddressTy:
		s, _ := value.(string)
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("%s: invalid address %q", arg.Name, s)
		}
		return common.HexToAddress(s), nil
	case abi.UintTy:
		if arg.Type.Size == 64 {
			n, ok := value.(json.Number)
			if !ok {
				return nil, fmt.Errorf("%s: expected number, got %T", arg.Name, value)
			}
			return strconv.ParseUint(n.String(), 10, 64)
		}
		var text string
		switch v := value.(type) {
		case string:
			text = v
		case json.Number:
			text = v.String()
		case nil:
		default:
			return nil, fmt.Errorf("%s: unsupported amount type %T", arg.Name, value)
		}
		if text == "" {
			return new(big.Int), nil
		}
		amount, ok := new(big.Int).SetString(text, 10)
		if !ok || amount.Sign() < 0 {
			return nil, fmt.Errorf("%s: invalid amount %q", arg.Name, text)
		}
		return amount, nil
	case abi.BoolTy:
		b, _ := value.(bool)
		return b, nil
	case abi.StringTy:
		s, _ := value.(string)
		return s, nil
	default:
		return nil, fmt.Errorf("%s: unsupported abi type %s", arg.Name, arg.Type.String())
	}
}

// plainValue renders decoded ABI values in the form TypedEvent args carry.
func plainValue(value interface{}) interface{} {
	switch v := value.(type) {
	case common.Address:
		return v.Hex()
	case *big.Int:
		return v.String()
	case common.Hash:
		return v.Hex()
	default:
		return v
	}
}

func snakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func parseIndexedTopics(event abi.Event, topics []string) ([]common.Hash, error) {
	indexedCount := len(indexedArguments(event.Inputs))
	if len(topics) != indexedCount+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", indexedCount+1, len(topics))
	}
	return parseTopicHashes(topics[1:])
}

func parseTopicHashes(topics []string) ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(topics))
	for _, topic := range topics {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}
