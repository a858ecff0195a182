package pool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// CheckInvariants audits the engine against its custody balances:
// per-asset unit conservation, LP supply against the wrapper position,
// synth backing within the foreign reserve, and reserves covered by the
// tokens the pool actually holds.
func (e *Engine) CheckInvariants() error {
	units := make(map[common.Address]*big.Int, len(e.pairs))
	for _, pos := range e.positions {
		if pos.Burned {
			continue
		}
		if pos.Pending && pos.Units.Sign() != 0 {
			return ErrInvariant.Wrapf("pending position %d holds units", pos.ID)
		}
		sum, ok := units[pos.Asset]
		if !ok {
			sum = new(big.Int)
			units[pos.Asset] = sum
		}
		sum.Add(sum, pos.Units)
	}

	nativeHeld := new(big.Int)
	for _, asset := range e.assets {
		pair := e.pairs[asset]
		sum := units[asset]
		if sum == nil {
			sum = new(big.Int)
		}
		if sum.Cmp(pair.TotalUnits) != 0 {
			return ErrInvariant.Wrapf("%s: positions hold %s units, pair records %s", asset.Hex(), sum, pair.TotalUnits)
		}
		if pair.SynthBacking.Cmp(pair.ForeignReserve) > 0 {
			return ErrInvariant.Wrapf("%s: synth backing %s exceeds foreign reserve %s", asset.Hex(), pair.SynthBacking, pair.ForeignReserve)
		}
		if pair.Fungible {
			wrapped := new(big.Int)
			if agg, ok := e.position(pair.WrapperPosition); ok && !agg.Burned {
				wrapped = agg.Units
			}
			if supply := e.ledger.TotalSupply(pair.LPToken); supply.Cmp(wrapped) != 0 {
				return ErrInvariant.Wrapf("%s: LP supply %s, wrapped units %s", asset.Hex(), supply, wrapped)
			}
		}
		held, err := e.table.ToInternal(asset, e.ledger.BalanceOf(asset, e.cfg.Address))
		if err != nil {
			return err
		}
		owed := add(pair.ForeignReserve, pair.QueuedForeign)
		if owed.Cmp(held) > 0 {
			return ErrInvariant.Wrapf("%s: owes %s, holds %s", asset.Hex(), owed, held)
		}
		nativeHeld.Add(nativeHeld, pair.NativeReserve)
		nativeHeld.Add(nativeHeld, pair.QueuedNative)
	}
	held, err := e.table.ToInternal(e.cfg.NativeAsset, e.ledger.BalanceOf(e.cfg.NativeAsset, e.cfg.Address))
	if err != nil {
		return err
	}
	if nativeHeld.Cmp(held) > 0 {
		return ErrInvariant.Wrapf("native: owes %s, holds %s", nativeHeld, held)
	}
	return nil
}
