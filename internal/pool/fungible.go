package pool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"hubswap/internal/model"
)

func (e *Engine) requireWrapper(caller common.Address) error {
	if caller != e.cfg.Wrapper || caller == (common.Address{}) {
		return ErrOnlyWrapper.Wrapf("%s", caller.Hex())
	}
	return nil
}

// EnableFungible binds an LP token to asset.
func (e *Engine) EnableFungible(caller, asset, lpToken common.Address) error {
	if err := e.requireWrapper(caller); err != nil {
		return err
	}
	pair, err := e.ensurePair(asset)
	if err != nil {
		return err
	}
	if pair.Fungible {
		return ErrFungibleExists.Wrap(asset.Hex())
	}
	next := pair.clone()
	next.Fungible = true
	next.LPToken = lpToken
	e.putPair(next)
	return nil
}

// MintFungible moves units out of position id into the wrapper's aggregate
// position for the asset and mints the same number of LP tokens to
// recipient.
func (e *Engine) MintFungible(caller, spender common.Address, id uint64, units *big.Int, recipient common.Address) (*big.Int, error) {
	if err := e.requireWrapper(caller); err != nil {
		return nil, err
	}
	pos, err := e.livePosition(id)
	if err != nil {
		return nil, err
	}
	if !e.isApprovedOrOwner(spender, pos) {
		return nil, ErrNotOwnerNorApproved.Wrapf("%s for position %d", spender.Hex(), id)
	}
	if pos.Owner == e.cfg.Wrapper {
		return nil, ErrInvalidAsset.Wrap("wrapper position cannot be wrapped")
	}
	if pos.Pending {
		return nil, ErrPositionPending.Wrapf("position %d", id)
	}
	pair := e.pairs[pos.Asset]
	if !pair.Fungible {
		return nil, ErrFungibleDisabled.Wrap(pos.Asset.Hex())
	}
	if recipient == (common.Address{}) {
		return nil, ErrInvalidReceiver.Wrap("zero address")
	}
	if units == nil || units.Sign() == 0 {
		units = pos.Units
	}
	if !positive(units) || units.Cmp(pos.Units) > 0 {
		return nil, ErrInsufficientLiquidity.Wrapf("wrapping %v of %s units", units, pos.Units)
	}
	units = new(big.Int).Set(units)

	origNative, origForeign, _ := e.shrink(pos, units)
	if pair.WrapperPosition == 0 {
		agg := &Position{
			Owner:           e.cfg.Wrapper,
			Asset:           pos.Asset,
			Units:           units,
			OriginalNative:  origNative,
			OriginalForeign: origForeign,
			CreatedAt:       e.machine.Now(),
		}
		next := pair.clone()
		next.WrapperPosition = e.appendPosition(agg)
		e.putPair(next)
	} else {
		agg, _ := e.position(pair.WrapperPosition)
		next := agg.clone()
		next.Units = add(agg.Units, units)
		next.OriginalNative = add(agg.OriginalNative, origNative)
		next.OriginalForeign = add(agg.OriginalForeign, origForeign)
		e.putPosition(next)
	}
	if err := e.ledger.Mint(e.cfg.Address, pair.LPToken, recipient, units); err != nil {
		return nil, err
	}

	e.machine.Emit(e.cfg.Address, model.FungibleMintEventData{
		Asset:      pos.Asset.Hex(),
		Token:      pair.LPToken.Hex(),
		PositionID: id,
		Owner:      pos.Owner.Hex(),
		Recipient:  recipient.Hex(),
		Units:      units.String(),
	})
	e.logger.Debug("liquidity wrapped", zap.Uint64("position", id), zap.String("units", units.String()))
	return units, nil
}

// BurnFungible burns units LP tokens held by holder and issues a fresh
// position of the same size to recipient. Its original contribution is the
// current pro-rata value of the units.
func (e *Engine) BurnFungible(caller, holder, asset common.Address, units *big.Int, recipient common.Address) (Position, error) {
	if err := e.requireWrapper(caller); err != nil {
		return Position{}, err
	}
	pair, ok := e.pairs[asset]
	if !ok || !pair.Fungible {
		return Position{}, ErrFungibleDisabled.Wrap(asset.Hex())
	}
	if recipient == (common.Address{}) {
		return Position{}, ErrInvalidPositionAddress
	}
	balance := e.ledger.BalanceOf(pair.LPToken, holder)
	if !positive(units) || units.Cmp(balance) > 0 {
		return Position{}, ErrInsufficientLiquidity.Wrapf("unwrapping %v of %s", units, balance)
	}
	agg, ok := e.position(pair.WrapperPosition)
	if !ok || agg.Burned || agg.Units.Cmp(units) < 0 {
		return Position{}, ErrInvariant.Wrapf("wrapper position short for %s", asset.Hex())
	}
	units = new(big.Int).Set(units)

	if err := e.ledger.Burn(e.cfg.Address, pair.LPToken, holder, units); err != nil {
		return Position{}, err
	}
	e.shrink(agg, units)
	if units.Cmp(agg.Units) == 0 {
		next := e.pairs[asset].clone()
		next.WrapperPosition = 0
		e.putPair(next)
	}

	pos := &Position{
		Owner:           recipient,
		Asset:           asset,
		Units:           units,
		OriginalNative:  mulDiv(pair.NativeReserve, units, pair.TotalUnits),
		OriginalForeign: mulDiv(pair.LPForeign(), units, pair.TotalUnits),
		CreatedAt:       e.machine.Now(),
	}
	id := e.appendPosition(pos)

	e.machine.Emit(e.cfg.Address, model.FungibleBurnEventData{
		Asset:      asset.Hex(),
		Token:      pair.LPToken.Hex(),
		PositionID: id,
		Owner:      holder.Hex(),
		Recipient:  recipient.Hex(),
		Units:      units.String(),
	})
	e.logger.Debug("liquidity unwrapped", zap.Uint64("position", id), zap.String("units", units.String()))
	return *pos, nil
}
