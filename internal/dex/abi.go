package dex

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// HubABIJSON declares every event the pool, factories, reserve and access
// controllers emit. Argument names are the camelCase forms of the JSON tags on
// the model event payloads.
const HubABIJSON = `[
  {"anonymous": false, "name": "Mint", "type": "event", "inputs": [
    {"indexed": true, "name": "positionId", "type": "uint64"},
    {"indexed": true, "name": "owner", "type": "address"},
    {"indexed": true, "name": "asset", "type": "address"},
    {"indexed": false, "name": "native", "type": "uint256"},
    {"indexed": false, "name": "foreign", "type": "uint256"},
    {"indexed": false, "name": "units", "type": "uint256"},
    {"indexed": false, "name": "pending", "type": "bool"}
  ]},
  {"anonymous": false, "name": "Burn", "type": "event", "inputs": [
    {"indexed": true, "name": "positionId", "type": "uint64"},
    {"indexed": true, "name": "owner", "type": "address"},
    {"indexed": true, "name": "asset", "type": "address"},
    {"indexed": false, "name": "recipient", "type": "address"},
    {"indexed": false, "name": "native", "type": "uint256"},
    {"indexed": false, "name": "foreign", "type": "uint256"},
    {"indexed": false, "name": "units", "type": "uint256"},
    {"indexed": false, "name": "destroyed", "type": "bool"}
  ]},
  {"anonymous": false, "name": "Swap", "type": "event", "inputs": [
    {"indexed": true, "name": "sender", "type": "address"},
    {"indexed": true, "name": "recipient", "type": "address"},
    {"indexed": true, "name": "assetIn", "type": "address"},
    {"indexed": false, "name": "assetOut", "type": "address"},
    {"indexed": false, "name": "amountIn", "type": "uint256"},
    {"indexed": false, "name": "amountOut", "type": "uint256"}
  ]},
  {"anonymous": false, "name": "SynthMint", "type": "event", "inputs": [
    {"indexed": true, "name": "asset", "type": "address"},
    {"indexed": true, "name": "depositor", "type": "address"},
    {"indexed": true, "name": "recipient", "type": "address"},
    {"indexed": false, "name": "synth", "type": "address"},
    {"indexed": false, "name": "amount", "type": "uint256"},
    {"indexed": false, "name": "units", "type": "uint256"}
  ]},
  {"anonymous": false, "name": "SynthBurn", "type": "event", "inputs": [
    {"indexed": true, "name": "asset", "type": "address"},
    {"indexed": true, "name": "owner", "type": "address"},
    {"indexed": true, "name": "recipient", "type": "address"},
    {"indexed": false, "name": "synth", "type": "address"},
    {"indexed": false, "name": "units", "type": "uint256"},
    {"indexed": false, "name": "amount", "type": "uint256"},
    {"indexed": false, "name": "fee", "type": "uint256"}
  ]},
  {"anonymous": false, "name": "FungibleMint", "type": "event", "inputs": [
    {"indexed": true, "name": "asset", "type": "address"},
    {"indexed": true, "name": "positionId", "type": "uint64"},
    {"indexed": true, "name": "owner", "type": "address"},
    {"indexed": false, "name": "token", "type": "address"},
    {"indexed": false, "name": "recipient", "type": "address"},
    {"indexed": false, "name": "units", "type": "uint256"}
  ]},
  {"anonymous": false, "name": "FungibleBurn", "type": "event", "inputs": [
    {"indexed": true, "name": "asset", "type": "address"},
    {"indexed": true, "name": "positionId", "type": "uint64"},
    {"indexed": true, "name": "owner", "type": "address"},
    {"indexed": false, "name": "token", "type": "address"},
    {"indexed": false, "name": "recipient", "type": "address"},
    {"indexed": false, "name": "units", "type": "uint256"}
  ]},
  {"anonymous": false, "name": "PositionTransfer", "type": "event", "inputs": [
    {"indexed": true, "name": "positionId", "type": "uint64"},
    {"indexed": true, "name": "from", "type": "address"},
    {"indexed": true, "name": "to", "type": "address"}
  ]},
  {"anonymous": false, "name": "AssetSupport", "type": "event", "inputs": [
    {"indexed": true, "name": "asset", "type": "address"},
    {"indexed": false, "name": "supported", "type": "bool"},
    {"indexed": false, "name": "activated", "type": "uint64"}
  ]},
  {"anonymous": false, "name": "QueueToggle", "type": "event", "inputs": [
    {"indexed": false, "name": "active", "type": "bool"}
  ]},
  {"anonymous": false, "name": "LossCovered", "type": "event", "inputs": [
    {"indexed": true, "name": "recipient", "type": "address"},
    {"indexed": false, "name": "requested", "type": "uint256"},
    {"indexed": false, "name": "paid", "type": "uint256"}
  ]},
  {"anonymous": false, "name": "Grant", "type": "event", "inputs": [
    {"indexed": true, "name": "recipient", "type": "address"},
    {"indexed": false, "name": "requested", "type": "uint256"},
    {"indexed": false, "name": "paid", "type": "uint256"}
  ]},
  {"anonymous": false, "name": "Funded", "type": "event", "inputs": [
    {"indexed": true, "name": "from", "type": "address"},
    {"indexed": false, "name": "amount", "type": "uint256"}
  ]},
  {"anonymous": false, "name": "ControllerTransfer", "type": "event", "inputs": [
    {"indexed": true, "name": "previous", "type": "address"},
    {"indexed": true, "name": "next", "type": "address"},
    {"indexed": false, "name": "pending", "type": "bool"}
  ]},
  {"anonymous": false, "name": "SynthCreated", "type": "event", "inputs": [
    {"indexed": true, "name": "asset", "type": "address"},
    {"indexed": true, "name": "synth", "type": "address"},
    {"indexed": false, "name": "name", "type": "string"},
    {"indexed": false, "name": "symbol", "type": "string"}
  ]},
  {"anonymous": false, "name": "WrapperCreated", "type": "event", "inputs": [
    {"indexed": true, "name": "asset", "type": "address"},
    {"indexed": true, "name": "token", "type": "address"},
    {"indexed": false, "name": "name", "type": "string"},
    {"indexed": false, "name": "symbol", "type": "string"}
  ]}
]`

var (
	hubABI     abi.ABI
	hubABIOnce sync.Once
	hubABIErr  error
)

// HubABI returns the parsed hubswap event ABI.
func HubABI() (abi.ABI, error) {
	hubABIOnce.Do(func() {
		hubABI, hubABIErr = abi.JSON(strings.NewReader(HubABIJSON))
	})
	return hubABI, hubABIErr
}
