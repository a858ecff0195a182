package pool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"hubswap/internal/model"
)

// AddLiquidity deposits nativeAmount and foreignAmount (each in its asset's
// own precision) pulled from `from` and mints a position for to. Deposits
// into an unsupported asset are queued as a pending position when queue mode
// is on.
func (e *Engine) AddLiquidity(caller, from, asset common.Address, nativeAmount, foreignAmount *big.Int, to common.Address) (Position, error) {
	if err := e.requireRouter(caller); err != nil {
		return Position{}, err
	}
	if asset == (common.Address{}) || asset == e.cfg.NativeAsset {
		return Position{}, ErrInvalidAsset.Wrap(asset.Hex())
	}
	if to == (common.Address{}) {
		return Position{}, ErrInvalidPositionAddress
	}
	if !positive(nativeAmount) || !positive(foreignAmount) {
		return Position{}, ErrInsufficientInput.Wrapf("native %v foreign %v", nativeAmount, foreignAmount)
	}

	pair, supported := e.pairs[asset]
	supported = supported && pair.Supported
	if !supported && !e.queue {
		return Position{}, ErrUnsupportedToken.Wrap(asset.Hex())
	}
	pair, err := e.ensurePair(asset)
	if err != nil {
		return Position{}, err
	}

	n, err := e.pull(e.cfg.NativeAsset, from, nativeAmount)
	if err != nil {
		return Position{}, err
	}
	f, err := e.pull(asset, from, foreignAmount)
	if err != nil {
		return Position{}, err
	}

	pos := &Position{
		Owner:           to,
		Asset:           asset,
		Units:           new(big.Int),
		OriginalNative:  n,
		OriginalForeign: f,
		CreatedAt:       e.machine.Now(),
	}
	next := pair.clone()
	if supported {
		units, err := mintUnits(pair, n, f)
		if err != nil {
			return Position{}, err
		}
		pos.Units = units
		next.NativeReserve = add(pair.NativeReserve, n)
		next.ForeignReserve = add(pair.ForeignReserve, f)
		next.TotalUnits = add(pair.TotalUnits, units)
	} else {
		pos.Pending = true
		next.QueuedNative = add(pair.QueuedNative, n)
		next.QueuedForeign = add(pair.QueuedForeign, f)
	}
	e.putPair(next)
	id := e.appendPosition(pos)

	e.machine.Emit(e.cfg.Address, model.MintEventData{
		PositionID: id,
		Owner:      to.Hex(),
		Asset:      asset.Hex(),
		Native:     n.String(),
		Foreign:    f.String(),
		Units:      pos.Units.String(),
		Pending:    pos.Pending,
	})
	e.logger.Debug("liquidity added",
		zap.Uint64("position", id),
		zap.String("asset", asset.Hex()),
		zap.String("units", pos.Units.String()),
		zap.Bool("pending", pos.Pending),
	)
	return *pos, nil
}

// mintUnits prices a deposit: the first deposit mints units equal to its
// native value, later ones the smaller of the two contribution ratios.
func mintUnits(pair *Pair, n, f *big.Int) (*big.Int, error) {
	if pair.TotalUnits.Sign() == 0 {
		return new(big.Int).Set(n), nil
	}
	lpForeign := pair.LPForeign()
	if !positive(pair.NativeReserve) || !positive(lpForeign) {
		return nil, ErrInsufficientLiquidity.Wrap("empty reserves with outstanding units")
	}
	byNative := mulDiv(n, pair.TotalUnits, pair.NativeReserve)
	byForeign := mulDiv(f, pair.TotalUnits, lpForeign)
	units := byNative
	if byForeign.Cmp(units) < 0 {
		units = byForeign
	}
	if units.Sign() == 0 {
		return nil, ErrInsufficientLiquidity.Wrap("deposit mints zero units")
	}
	return units, nil
}

// RemoveLiquidity burns units of a position on behalf of spender, who must
// own it or be approved for it, and pays the pro-rata share of both
// reserves to to. A pending position is cancelled and refunded in full
// regardless of units.
func (e *Engine) RemoveLiquidity(caller, spender common.Address, id uint64, units *big.Int, to common.Address) (*Removal, error) {
	if err := e.requireRouter(caller); err != nil {
		return nil, err
	}
	pos, err := e.livePosition(id)
	if err != nil {
		return nil, err
	}
	if !e.isApprovedOrOwner(spender, pos) {
		return nil, ErrNotOwnerNorApproved.Wrapf("%s for position %d", spender.Hex(), id)
	}
	if to == (common.Address{}) {
		return nil, ErrInvalidPositionAddress
	}
	pair := e.pairs[pos.Asset]

	if pos.Pending {
		return e.cancelPending(pair, pos, to)
	}

	if !positive(units) || units.Cmp(pos.Units) > 0 {
		return nil, ErrInsufficientLiquidity.Wrapf("removing %v of %s units", units, pos.Units)
	}

	nativeShare := mulDiv(pair.NativeReserve, units, pair.TotalUnits)
	foreignShare := mulDiv(pair.LPForeign(), units, pair.TotalUnits)
	nativeOut, nativeExact, err := e.table.Settle(e.cfg.NativeAsset, nativeShare)
	if err != nil {
		return nil, err
	}
	foreignOut, foreignExact, err := e.table.Settle(pos.Asset, foreignShare)
	if err != nil {
		return nil, err
	}

	next := pair.clone()
	next.NativeReserve = sub(pair.NativeReserve, nativeExact)
	next.ForeignReserve = sub(pair.ForeignReserve, foreignExact)
	next.TotalUnits = sub(pair.TotalUnits, units)
	e.putPair(next)

	origNative, origForeign, destroyed := e.shrink(pos, units)

	if err := e.ledger.Transfer(e.cfg.NativeAsset, e.cfg.Address, to, nativeOut); err != nil {
		return nil, err
	}
	if err := e.ledger.Transfer(pos.Asset, e.cfg.Address, to, foreignOut); err != nil {
		return nil, err
	}

	removal := &Removal{
		PositionID:      id,
		Owner:           pos.Owner,
		Asset:           pos.Asset,
		Units:           new(big.Int).Set(units),
		Native:          nativeOut,
		Foreign:         foreignOut,
		NativeInternal:  nativeExact,
		ForeignInternal: foreignExact,
		OriginalNative:  origNative,
		OriginalForeign: origForeign,
		CreatedAt:       pos.CreatedAt,
		Destroyed:       destroyed,
	}
	e.emitBurn(removal, to)
	return removal, nil
}

func (e *Engine) cancelPending(pair *Pair, pos *Position, to common.Address) (*Removal, error) {
	nativeOut, nativeExact, err := e.table.Settle(e.cfg.NativeAsset, pos.OriginalNative)
	if err != nil {
		return nil, err
	}
	foreignOut, foreignExact, err := e.table.Settle(pos.Asset, pos.OriginalForeign)
	if err != nil {
		return nil, err
	}
	next := pair.clone()
	next.QueuedNative = sub(pair.QueuedNative, nativeExact)
	next.QueuedForeign = sub(pair.QueuedForeign, foreignExact)
	e.putPair(next)
	e.destroy(pos)

	if err := e.ledger.Transfer(e.cfg.NativeAsset, e.cfg.Address, to, nativeOut); err != nil {
		return nil, err
	}
	if err := e.ledger.Transfer(pos.Asset, e.cfg.Address, to, foreignOut); err != nil {
		return nil, err
	}
	removal := &Removal{
		PositionID:      pos.ID,
		Owner:           pos.Owner,
		Asset:           pos.Asset,
		Units:           new(big.Int),
		Native:          nativeOut,
		Foreign:         foreignOut,
		NativeInternal:  nativeExact,
		ForeignInternal: foreignExact,
		OriginalNative:  new(big.Int).Set(pos.OriginalNative),
		OriginalForeign: new(big.Int).Set(pos.OriginalForeign),
		CreatedAt:       pos.CreatedAt,
		Pending:         true,
		Destroyed:       true,
	}
	e.emitBurn(removal, to)
	return removal, nil
}

// shrink removes units from a position, retiring the matching share of its
// original contribution, and destroys it when nothing is left. It returns
// the retired originals.
func (e *Engine) shrink(pos *Position, units *big.Int) (origNative, origForeign *big.Int, destroyed bool) {
	if units.Cmp(pos.Units) == 0 {
		origNative = new(big.Int).Set(pos.OriginalNative)
		origForeign = new(big.Int).Set(pos.OriginalForeign)
		e.destroy(pos)
		return origNative, origForeign, true
	}
	origNative = mulDiv(pos.OriginalNative, units, pos.Units)
	origForeign = mulDiv(pos.OriginalForeign, units, pos.Units)
	next := pos.clone()
	next.Units = sub(pos.Units, units)
	next.OriginalNative = sub(pos.OriginalNative, origNative)
	next.OriginalForeign = sub(pos.OriginalForeign, origForeign)
	e.putPosition(next)
	return origNative, origForeign, false
}

func (e *Engine) emitBurn(r *Removal, to common.Address) {
	e.machine.Emit(e.cfg.Address, model.BurnEventData{
		PositionID: r.PositionID,
		Owner:      r.Owner.Hex(),
		Recipient:  to.Hex(),
		Asset:      r.Asset.Hex(),
		Native:     r.NativeInternal.String(),
		Foreign:    r.ForeignInternal.String(),
		Units:      r.Units.String(),
		Destroyed:  r.Destroyed,
	})
	e.logger.Debug("liquidity removed",
		zap.Uint64("position", r.PositionID),
		zap.String("asset", r.Asset.Hex()),
		zap.String("units", r.Units.String()),
		zap.Bool("destroyed", r.Destroyed),
	)
}
