package pool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Pair is the reserve state of one foreign asset against the native asset.
// All amounts are internal units. ForeignReserve includes SynthBacking;
// liquidity and swap pricing use the LP share only.
//
// Pair values are treated as immutable once stored: writers clone, modify
// and store the clone.
type Pair struct {
	Asset          common.Address
	NativeReserve  *big.Int
	ForeignReserve *big.Int
	SynthBacking   *big.Int
	TotalUnits     *big.Int

	// Deposits parked by queue mode until the asset is supported.
	QueuedNative  *big.Int
	QueuedForeign *big.Int

	Supported bool
	Fungible  bool
	Synth     common.Address
	LPToken   common.Address

	// Aggregate position holding every unit wrapped into LPToken.
	WrapperPosition uint64
}

// LPForeign is the foreign reserve backing liquidity units.
func (p *Pair) LPForeign() *big.Int {
	return new(big.Int).Sub(p.ForeignReserve, p.SynthBacking)
}

func (p *Pair) clone() *Pair {
	c := *p
	return &c
}

func newPair(asset common.Address) *Pair {
	return &Pair{
		Asset:          asset,
		NativeReserve:  new(big.Int),
		ForeignReserve: new(big.Int),
		SynthBacking:   new(big.Int),
		TotalUnits:     new(big.Int),
		QueuedNative:   new(big.Int),
		QueuedForeign:  new(big.Int),
	}
}

// Position is a numbered claim on a pair's liquidity. OriginalNative and
// OriginalForeign snapshot the contribution (internal units) still backing
// the remaining units and are used for impermanent-loss accounting.
type Position struct {
	ID              uint64
	Owner           common.Address
	Asset           common.Address
	Units           *big.Int
	OriginalNative  *big.Int
	OriginalForeign *big.Int
	CreatedAt       uint64
	Pending         bool
	Burned          bool
}

func (p *Position) clone() *Position {
	c := *p
	return &c
}

// Removal describes liquidity taken out of a position.
type Removal struct {
	PositionID uint64
	Owner      common.Address
	Asset      common.Address
	Units      *big.Int
	// Paid amounts in each asset's own precision.
	Native  *big.Int
	Foreign *big.Int
	// Internal-unit value of the payout and the share of the original
	// contribution it retires.
	NativeInternal  *big.Int
	ForeignInternal *big.Int
	OriginalNative  *big.Int
	OriginalForeign *big.Int
	CreatedAt       uint64
	Pending         bool
	Destroyed       bool
}
