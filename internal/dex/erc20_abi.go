package dex

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Some older tokens return bytes32 for symbol and name, so metadata lookups
// fall back to a second ABI.
const erc20ABIStringJSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`

const erc20ABIBytes32JSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`

type lazyABI struct {
	once   sync.Once
	source string
	parsed abi.ABI
	err    error
}

func (l *lazyABI) get() (abi.ABI, error) {
	l.once.Do(func() {
		l.parsed, l.err = abi.JSON(strings.NewReader(l.source))
	})
	return l.parsed, l.err
}

var (
	erc20ABIString  = &lazyABI{source: erc20ABIStringJSON}
	erc20ABIBytes32 = &lazyABI{source: erc20ABIBytes32JSON}
)

func erc20ABIStringInstance() (abi.ABI, error)  { return erc20ABIString.get() }
func erc20ABIBytes32Instance() (abi.ABI, error) { return erc20ABIBytes32.get() }
