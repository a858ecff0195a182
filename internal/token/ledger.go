// Package token is the fungible-token ledger the exchange settles against:
// the native asset, foreign assets, synths and LP tokens all live here.
// Amounts are in each token's own precision.
package token

import (
	"math/big"
	"sort"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"

	"hubswap/internal/model"
	"hubswap/internal/state"
	"hubswap/internal/units"
)

const codespace = "token"

var (
	ErrUnknownAsset        = errorsmod.Register(codespace, 2, "unknown asset")
	ErrAssetExists         = errorsmod.Register(codespace, 3, "asset already registered")
	ErrInsufficientBalance = errorsmod.Register(codespace, 4, "transfer amount exceeds balance")
	ErrTransferToZero      = errorsmod.Register(codespace, 5, "transfer to the zero address")
	ErrInvalidAmount       = errorsmod.Register(codespace, 6, "invalid amount")
	ErrNotMinter           = errorsmod.Register(codespace, 7, "caller is not the minter")
)

type asset struct {
	meta     model.TokenMeta
	minter   common.Address
	supply   *big.Int
	balances map[common.Address]*big.Int
}

// Ledger holds balances for every registered asset. Balance values are
// never mutated in place so undo closures can restore the previous pointer.
type Ledger struct {
	machine *state.Machine
	table   *units.Table
	assets  map[common.Address]*asset
}

func NewLedger(machine *state.Machine, table *units.Table) *Ledger {
	return &Ledger{machine: machine, table: table, assets: make(map[common.Address]*asset)}
}

// Table exposes the decimals table populated by Register.
func (l *Ledger) Table() *units.Table { return l.table }

// Register creates an asset. minter is the only principal allowed to mint
// and burn it.
func (l *Ledger) Register(addr common.Address, name, symbol string, decimals uint8, minter common.Address) error {
	if addr == (common.Address{}) {
		return ErrUnknownAsset.Wrap("zero address")
	}
	if _, ok := l.assets[addr]; ok {
		return ErrAssetExists.Wrap(addr.Hex())
	}
	added, err := l.table.Register(addr, decimals)
	if err != nil {
		return err
	}
	if added {
		l.machine.Record(func() { l.table.Unregister(addr) })
	}
	l.assets[addr] = &asset{
		meta: model.TokenMeta{
			Address:  addr.Hex(),
			Decimals: decimals,
			Symbol:   symbol,
			Name:     name,
		},
		minter:   minter,
		supply:   new(big.Int),
		balances: make(map[common.Address]*big.Int),
	}
	l.machine.Record(func() { delete(l.assets, addr) })
	return nil
}

func (l *Ledger) Meta(addr common.Address) (model.TokenMeta, bool) {
	a, ok := l.assets[addr]
	if !ok {
		return model.TokenMeta{}, false
	}
	return a.meta, true
}

// Assets lists registered assets in address order.
func (l *Ledger) Assets() []common.Address {
	out := make([]common.Address, 0, len(l.assets))
	for addr := range l.assets {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

func (l *Ledger) BalanceOf(addr, holder common.Address) *big.Int {
	a, ok := l.assets[addr]
	if !ok {
		return new(big.Int)
	}
	if bal, ok := a.balances[holder]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

func (l *Ledger) TotalSupply(addr common.Address) *big.Int {
	a, ok := l.assets[addr]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(a.supply)
}

// Transfer moves amount of addr from one holder to another.
func (l *Ledger) Transfer(addr, from, to common.Address, amount *big.Int) error {
	a, err := l.lookup(addr)
	if err != nil {
		return err
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return ErrTransferToZero
	}
	balance := l.balance(a, from)
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance.Wrapf("%s holds %s of %s, needs %s", from.Hex(), balance, a.meta.Symbol, amount)
	}
	if from == to || amount.Sign() == 0 {
		return nil
	}
	l.setBalance(a, from, new(big.Int).Sub(balance, amount))
	l.setBalance(a, to, new(big.Int).Add(l.balance(a, to), amount))
	return nil
}

// Mint credits to with freshly issued supply.
func (l *Ledger) Mint(caller, addr, to common.Address, amount *big.Int) error {
	a, err := l.lookup(addr)
	if err != nil {
		return err
	}
	if caller != a.minter {
		return ErrNotMinter.Wrapf("%s for %s", caller.Hex(), a.meta.Symbol)
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return ErrTransferToZero
	}
	supply := new(big.Int).Add(a.supply, amount)
	if err := units.CheckBounds(supply); err != nil {
		return err
	}
	l.setSupply(a, supply)
	l.setBalance(a, to, new(big.Int).Add(l.balance(a, to), amount))
	return nil
}

// Burn destroys amount held by from.
func (l *Ledger) Burn(caller, addr, from common.Address, amount *big.Int) error {
	a, err := l.lookup(addr)
	if err != nil {
		return err
	}
	if caller != a.minter {
		return ErrNotMinter.Wrapf("%s for %s", caller.Hex(), a.meta.Symbol)
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	balance := l.balance(a, from)
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance.Wrapf("%s holds %s of %s, burning %s", from.Hex(), balance, a.meta.Symbol, amount)
	}
	l.setSupply(a, new(big.Int).Sub(a.supply, amount))
	l.setBalance(a, from, new(big.Int).Sub(balance, amount))
	return nil
}

func (l *Ledger) lookup(addr common.Address) (*asset, error) {
	a, ok := l.assets[addr]
	if !ok {
		return nil, ErrUnknownAsset.Wrap(addr.Hex())
	}
	return a, nil
}

func (l *Ledger) balance(a *asset, holder common.Address) *big.Int {
	if bal, ok := a.balances[holder]; ok {
		return bal
	}
	return new(big.Int)
}

func (l *Ledger) setBalance(a *asset, holder common.Address, value *big.Int) {
	prev, existed := a.balances[holder]
	if value.Sign() == 0 {
		delete(a.balances, holder)
	} else {
		a.balances[holder] = value
	}
	l.machine.Record(func() {
		if existed {
			a.balances[holder] = prev
		} else {
			delete(a.balances, holder)
		}
	})
}

func (l *Ledger) setSupply(a *asset, value *big.Int) {
	prev := a.supply
	a.supply = value
	l.machine.Record(func() { a.supply = prev })
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	return nil
}
