// Package synth creates per-asset synth tokens and is the entry point for
// minting and burning them against the pool.
package synth

import (
	"fmt"
	"math/big"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"hubswap/internal/model"
	"hubswap/internal/pool"
)

const codespace = "synth"

var (
	ErrMisconfiguration = errorsmod.Register(codespace, 2, "misconfiguration")
	ErrAlreadyCreated   = errorsmod.Register(codespace, 3, "already created")
)

// Decimals of every synth token; synth units are internal units.
const Decimals = 18

type Factory struct {
	address common.Address
	engine  *pool.Engine
	logger  *zap.Logger

	nonce  uint64
	synths map[common.Address]common.Address
}

// NewFactory builds the factory. address must match the engine's configured
// synth factory principal.
func NewFactory(address common.Address, engine *pool.Engine, logger *zap.Logger) (*Factory, error) {
	if address == (common.Address{}) || address != engine.Config().SynthFactory {
		return nil, ErrMisconfiguration.Wrapf("factory address %s", address.Hex())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{
		address: address,
		engine:  engine,
		logger:  logger,
		synths:  make(map[common.Address]common.Address),
	}, nil
}

func (f *Factory) Address() common.Address { return f.address }

// Synth returns the token created for asset. It takes the machine lock and
// must not be called from inside a transaction.
func (f *Factory) Synth(asset common.Address) (common.Address, bool) {
	var (
		s  common.Address
		ok bool
	)
	_ = f.engine.Machine().View(func() error {
		s, ok = f.synths[asset]
		return nil
	})
	return s, ok
}

// TokenName derives the synth token name and symbol from the asset's.
func TokenName(meta model.TokenMeta) (name, symbol string) {
	return fmt.Sprintf("%s - vSynth", meta.Symbol), fmt.Sprintf("%s.s", meta.Symbol)
}

// CreateSynth deploys the synth token for asset. Controller only.
func (f *Factory) CreateSynth(caller, asset common.Address) (common.Address, error) {
	var token common.Address
	err := f.engine.Machine().Exec(func() error {
		if err := f.engine.Controller().Authorize(caller); err != nil {
			return err
		}
		if asset == (common.Address{}) {
			return ErrMisconfiguration.Wrap("zero asset")
		}
		if _, ok := f.synths[asset]; ok {
			return ErrAlreadyCreated.Wrap(asset.Hex())
		}
		ledger := f.engine.Ledger()
		meta, ok := ledger.Meta(asset)
		if !ok {
			return ErrMisconfiguration.Wrapf("asset %s has no metadata", asset.Hex())
		}
		name, symbol := TokenName(meta)
		token = crypto.CreateAddress(f.address, f.nonce)
		if err := ledger.Register(token, name, symbol, Decimals, f.engine.Address()); err != nil {
			return err
		}
		if err := f.engine.RegisterSynth(f.address, asset, token); err != nil {
			return err
		}
		f.record(asset, token)
		f.engine.Machine().Emit(f.address, model.SynthCreatedEventData{
			Asset:  asset.Hex(),
			Synth:  token.Hex(),
			Name:   name,
			Symbol: symbol,
		})
		f.logger.Info("synth created", zap.String("asset", asset.Hex()), zap.String("synth", token.Hex()))
		return nil
	})
	if err != nil {
		return common.Address{}, err
	}
	return token, nil
}

// Mint deposits amount of asset from caller and issues synth units to to.
func (f *Factory) Mint(caller, asset common.Address, amount *big.Int, to common.Address) (*big.Int, error) {
	var units *big.Int
	err := f.engine.Machine().Exec(func() error {
		var err error
		units, err = f.engine.MintSynth(f.address, caller, asset, amount, to)
		return err
	})
	return units, err
}

// Burn redeems units of caller's synth for the underlying asset.
func (f *Factory) Burn(caller, asset common.Address, units *big.Int, to common.Address) (*big.Int, error) {
	var amount *big.Int
	err := f.engine.Machine().Exec(func() error {
		var err error
		amount, err = f.engine.BurnSynth(f.address, caller, asset, units, to)
		return err
	})
	return amount, err
}

func (f *Factory) record(asset, token common.Address) {
	nonce := f.nonce
	f.synths[asset] = token
	f.nonce++
	f.engine.Machine().Record(func() {
		delete(f.synths, asset)
		f.nonce = nonce
	})
}
