// Package units converts asset amounts between their native precision and the
// 18-fractional-digit accounting unit every pricing and liquidity computation
// operates in.
package units

import (
	"math/big"
	"sync"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// InternalDecimals is the precision of the internal accounting unit.
const InternalDecimals = 18

const codespace = "units"

var (
	ErrUnsupportedDecimals = errorsmod.Register(codespace, 2, "unsupported decimals")
	ErrUnknownAsset        = errorsmod.Register(codespace, 3, "asset not registered")
	ErrDecimalsImmutable   = errorsmod.Register(codespace, 4, "asset already registered with different decimals")
	ErrNegativeAmount      = errorsmod.Register(codespace, 5, "amount must not be negative")
	ErrOverflow            = errorsmod.Register(codespace, 6, "amount exceeds 256 bits")
)

var scales [InternalDecimals + 1]*big.Int

func init() {
	ten := big.NewInt(10)
	for d := 0; d <= InternalDecimals; d++ {
		scales[d] = new(big.Int).Exp(ten, big.NewInt(int64(InternalDecimals-d)), nil)
	}
}

// Scale returns 10^(18-decimals), the factor from native to internal units.
func Scale(decimals uint8) (*big.Int, error) {
	if decimals > InternalDecimals {
		return nil, ErrUnsupportedDecimals.Wrapf("%d > %d", decimals, InternalDecimals)
	}
	return scales[decimals], nil
}

// CheckBounds rejects negative amounts and amounts the host ledger's 256-bit
// words cannot hold.
func CheckBounds(amount *big.Int) error {
	if amount == nil {
		return nil
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount.Wrapf("%s", amount)
	}
	if _, overflow := uint256.FromBig(amount); overflow {
		return ErrOverflow.Wrapf("%s", amount)
	}
	return nil
}

// Normalize converts a native-precision amount to internal units.
func Normalize(amount *big.Int, decimals uint8) (*big.Int, error) {
	scale, err := Scale(decimals)
	if err != nil {
		return nil, err
	}
	if err := CheckBounds(amount); err != nil {
		return nil, err
	}
	if amount == nil {
		return big.NewInt(0), nil
	}
	out := new(big.Int).Mul(amount, scale)
	if err := CheckBounds(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Denormalize converts internal units to native precision, rounding down.
func Denormalize(amount *big.Int, decimals uint8) (*big.Int, error) {
	scale, err := Scale(decimals)
	if err != nil {
		return nil, err
	}
	if err := CheckBounds(amount); err != nil {
		return nil, err
	}
	if amount == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Quo(amount, scale), nil
}

// DenormalizeUp converts internal units to native precision, rounding up.
// Quotes for required inputs use it so the caller never under-pays.
func DenormalizeUp(amount *big.Int, decimals uint8) (*big.Int, error) {
	scale, err := Scale(decimals)
	if err != nil {
		return nil, err
	}
	if err := CheckBounds(amount); err != nil {
		return nil, err
	}
	if amount == nil {
		return big.NewInt(0), nil
	}
	q, r := new(big.Int).QuoRem(amount, scale, new(big.Int))
	if r.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q, nil
}

// Table is the asset -> decimals lookup all conversions go through.
// Entries are immutable once registered.
type Table struct {
	mu   sync.RWMutex
	data map[common.Address]uint8
}

func NewTable() *Table {
	return &Table{data: make(map[common.Address]uint8)}
}

// Register records the precision of an asset and reports whether a new entry
// was added. Registering the same precision twice is a no-op.
func (t *Table) Register(asset common.Address, decimals uint8) (bool, error) {
	if decimals > InternalDecimals {
		return false, ErrUnsupportedDecimals.Wrapf("asset %s has %d decimals", asset.Hex(), decimals)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.data[asset]; ok {
		if existing != decimals {
			return false, ErrDecimalsImmutable.Wrapf("asset %s: %d != %d", asset.Hex(), existing, decimals)
		}
		return false, nil
	}
	t.data[asset] = decimals
	return true, nil
}

// Unregister drops an entry. It only exists to undo a Register whose
// enclosing transaction rolled back.
func (t *Table) Unregister(asset common.Address) {
	t.mu.Lock()
	delete(t.data, asset)
	t.mu.Unlock()
}

func (t *Table) Decimals(asset common.Address) (uint8, bool) {
	t.mu.RLock()
	decimals, ok := t.data[asset]
	t.mu.RUnlock()
	return decimals, ok
}

func (t *Table) lookup(asset common.Address) (uint8, error) {
	decimals, ok := t.Decimals(asset)
	if !ok {
		return 0, ErrUnknownAsset.Wrap(asset.Hex())
	}
	return decimals, nil
}

// ToInternal normalizes amount of asset.
func (t *Table) ToInternal(asset common.Address, amount *big.Int) (*big.Int, error) {
	decimals, err := t.lookup(asset)
	if err != nil {
		return nil, err
	}
	return Normalize(amount, decimals)
}

// FromInternal converts internal units of asset back to native precision,
// rounding down.
func (t *Table) FromInternal(asset common.Address, amount *big.Int) (*big.Int, error) {
	decimals, err := t.lookup(asset)
	if err != nil {
		return nil, err
	}
	return Denormalize(amount, decimals)
}

// FromInternalUp is FromInternal rounding up.
func (t *Table) FromInternalUp(asset common.Address, amount *big.Int) (*big.Int, error) {
	decimals, err := t.lookup(asset)
	if err != nil {
		return nil, err
	}
	return DenormalizeUp(amount, decimals)
}

// Settle converts an internal amount to the native amount that can actually
// be paid (rounded down) and the internal amount that payment represents.
func (t *Table) Settle(asset common.Address, amount *big.Int) (native, exact *big.Int, err error) {
	decimals, err := t.lookup(asset)
	if err != nil {
		return nil, nil, err
	}
	native, err = Denormalize(amount, decimals)
	if err != nil {
		return nil, nil, err
	}
	exact, err = Normalize(native, decimals)
	if err != nil {
		return nil, nil, err
	}
	return native, exact, nil
}
