package pool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"hubswap/internal/model"
)

func (e *Engine) requireSynthFactory(caller common.Address) error {
	if caller != e.cfg.SynthFactory || caller == (common.Address{}) {
		return ErrOnlySynthFactory.Wrapf("%s", caller.Hex())
	}
	return nil
}

// RegisterSynth binds a freshly created synth token to asset.
func (e *Engine) RegisterSynth(caller, asset, synth common.Address) error {
	if err := e.requireSynthFactory(caller); err != nil {
		return err
	}
	pair, err := e.ensurePair(asset)
	if err != nil {
		return err
	}
	if pair.Synth != (common.Address{}) {
		return ErrSynthExists.Wrap(asset.Hex())
	}
	next := pair.clone()
	next.Synth = synth
	e.putPair(next)
	return nil
}

// SynthOf returns the synth token registered for asset.
func (e *Engine) SynthOf(asset common.Address) (common.Address, bool) {
	p, ok := e.pairs[asset]
	if !ok || p.Synth == (common.Address{}) {
		return common.Address{}, false
	}
	return p.Synth, true
}

// MintSynth deposits amount of asset from depositor into the foreign reserve
// and issues synth units to recipient. Units are shares of the asset's synth
// backing; the first mint is one unit per internal unit deposited.
func (e *Engine) MintSynth(caller, depositor, asset common.Address, amount *big.Int, recipient common.Address) (*big.Int, error) {
	if err := e.requireSynthFactory(caller); err != nil {
		return nil, err
	}
	pair, ok := e.pairs[asset]
	if !ok || pair.Synth == (common.Address{}) {
		return nil, ErrInexistentSynth.Wrap(asset.Hex())
	}
	if !pair.Supported {
		return nil, ErrUnsupportedToken.Wrap(asset.Hex())
	}
	if !positive(amount) {
		return nil, ErrInsufficientInput
	}
	if recipient == (common.Address{}) {
		return nil, ErrInvalidReceiver.Wrap("zero address")
	}

	deposit, err := e.table.ToInternal(asset, amount)
	if err != nil {
		return nil, err
	}
	supply := e.ledger.TotalSupply(pair.Synth)
	units := new(big.Int).Set(deposit)
	if supply.Sign() > 0 && pair.SynthBacking.Sign() > 0 {
		units = mulDiv(deposit, supply, pair.SynthBacking)
	}
	if units.Sign() == 0 {
		return nil, ErrInsufficientSynth.Wrap("deposit mints zero units")
	}

	if err := e.ledger.Transfer(asset, depositor, e.cfg.Address, amount); err != nil {
		return nil, err
	}
	next := pair.clone()
	next.ForeignReserve = add(pair.ForeignReserve, deposit)
	next.SynthBacking = add(pair.SynthBacking, deposit)
	e.putPair(next)
	if err := e.ledger.Mint(e.cfg.Address, pair.Synth, recipient, units); err != nil {
		return nil, err
	}

	e.machine.Emit(e.cfg.Address, model.SynthMintEventData{
		Asset:     asset.Hex(),
		Synth:     pair.Synth.Hex(),
		Depositor: depositor.Hex(),
		Recipient: recipient.Hex(),
		Amount:    amount.String(),
		Units:     units.String(),
	})
	e.logger.Debug("synth minted", zap.String("asset", asset.Hex()), zap.String("units", units.String()))
	return units, nil
}

// BurnSynth redeems units held by owner for the underlying asset, less the
// burn fee which stays in the backing. A transfer failure on payout is
// returned as is.
func (e *Engine) BurnSynth(caller, owner, asset common.Address, units *big.Int, recipient common.Address) (*big.Int, error) {
	if err := e.requireSynthFactory(caller); err != nil {
		return nil, err
	}
	pair, ok := e.pairs[asset]
	if !ok || pair.Synth == (common.Address{}) {
		return nil, ErrInexistentSynth.Wrap(asset.Hex())
	}
	balance := e.ledger.BalanceOf(pair.Synth, owner)
	if !positive(units) || units.Cmp(balance) > 0 {
		return nil, ErrInsufficientSynth.Wrapf("burning %v of %s", units, balance)
	}

	supply := e.ledger.TotalSupply(pair.Synth)
	gross := mulDiv(units, pair.SynthBacking, supply)
	fee := mulDiv(gross, big.NewInt(int64(e.cfg.SynthBurnFeeBps)), bigBps)
	paid, exact, err := e.table.Settle(asset, sub(gross, fee))
	if err != nil {
		return nil, err
	}

	if err := e.ledger.Burn(e.cfg.Address, pair.Synth, owner, units); err != nil {
		return nil, err
	}
	next := pair.clone()
	next.ForeignReserve = sub(pair.ForeignReserve, exact)
	next.SynthBacking = sub(pair.SynthBacking, exact)
	e.putPair(next)
	if err := e.ledger.Transfer(asset, e.cfg.Address, recipient, paid); err != nil {
		return nil, err
	}

	e.machine.Emit(e.cfg.Address, model.SynthBurnEventData{
		Asset:     asset.Hex(),
		Synth:     pair.Synth.Hex(),
		Owner:     owner.Hex(),
		Recipient: recipient.Hex(),
		Units:     units.String(),
		Amount:    paid.String(),
		Fee:       fee.String(),
	})
	e.logger.Debug("synth burned", zap.String("asset", asset.Hex()), zap.String("amount", paid.String()))
	return paid, nil
}
