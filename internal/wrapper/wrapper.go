// Package wrapper converts pool positions into per-asset fungible LP tokens
// and back.
package wrapper

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

const codespace = "wrapper"

var (
	ErrMisconfiguration = errorsmod.Register(codespace, 2, "misconfiguration")
	ErrAlreadyCreated   = errorsmod.Register(codespace, 3, "already created")
)

// Decimals of every LP token; one token per liquidity unit.
const Decimals = 18

type Wrapper struct {
	address common.Address
	engine  *pool.Engine
	logger  *zap.Logger

	nonce  uint64
	tokens map[common.Address]common.Address
}

func New(address common.Address, engine *pool.Engine, logger *zap.Logger) (*Wrapper, error) {
	if address == (common.Address{}) || address != engine.Config().Wrapper {
		return nil, ErrMisconfiguration.Wrapf("wrapper address %s", address.Hex())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Wrapper{
		address: address,
		engine:  engine,
		logger:  logger,
		tokens:  make(map[common.Address]common.Address),
	}, nil
}

func (w *Wrapper) Address() common.Address { return w.address }

// Token returns the LP token created for asset. It takes the machine lock and
// must not be called from inside a transaction.
func (w *Wrapper) Token(asset common.Address) (common.Address, bool) {
	var (
		t  common.Address
		ok bool
	)
	_ = w.engine.Machine().View(func() error {
		t, ok = w.tokens[asset]
		return nil
	})
	return t, ok
}

// TokenName derives the LP token name and symbol from the asset's.
func TokenName(meta model.TokenMeta) (name, symbol string) {
	return fmt.Sprintf("%s - vLP", meta.Symbol), fmt.Sprintf("%s.lp", meta.Symbol)
}

// CreateWrapper deploys the LP token for asset. Controller only.
func (w *Wrapper) CreateWrapper(caller, asset common.Address) (common.Address, error) {
	var token common.Address
	err := w.engine.Machine().Exec(func() error {
		if err := w.engine.Controller().Authorize(caller); err != nil {
			return err
		}
		if asset == (common.Address{}) {
			return ErrMisconfiguration.Wrap("zero asset")
		}
		if _, ok := w.tokens[asset]; ok {
			return ErrAlreadyCreated.Wrap(asset.Hex())
		}
		ledger := w.engine.Ledger()
		meta, ok := ledger.Meta(asset)
		if !ok {
			return ErrMisconfiguration.Wrapf("asset %s has no metadata", asset.Hex())
		}
		name, symbol := TokenName(meta)
		token = crypto.CreateAddress(w.address, w.nonce)
		if err := ledger.Register(token, name, symbol, Decimals, w.engine.Address()); err != nil {
			return err
		}
		if err := w.engine.EnableFungible(w.address, asset, token); err != nil {
			return err
		}
		w.record(asset, token)
		w.engine.Machine().Emit(w.address, model.WrapperCreatedEventData{
			Asset:  asset.Hex(),
			Token:  token.Hex(),
			Name:   name,
			Symbol: symbol,
		})
		w.logger.Info("wrapper created", zap.String("asset", asset.Hex()), zap.String("token", token.Hex()))
		return nil
	})
	if err != nil {
		return common.Address{}, err
	}
	return token, nil
}

// Wrap moves units of position id, which caller must own or be approved
// for, into LP tokens paid to to. Zero units wraps the whole position.
func (w *Wrapper) Wrap(caller common.Address, id uint64, units *big.Int, to common.Address) (*big.Int, error) {
	var minted *big.Int
	err := w.engine.Machine().Exec(func() error {
		var err error
		minted, err = w.engine.MintFungible(w.address, caller, id, units, to)
		return err
	})
	return minted, err
}

// Unwrap burns units of caller's LP tokens for asset and returns the new
// position issued to to.
func (w *Wrapper) Unwrap(caller, asset common.Address, units *big.Int, to common.Address) (pool.Position, error) {
	var pos pool.Position
	err := w.engine.Machine().Exec(func() error {
		var err error
		pos, err = w.engine.BurnFungible(w.address, caller, asset, units, to)
		return err
	})
	return pos, err
}

func (w *Wrapper) record(asset, token common.Address) {
	nonce := w.nonce
	w.tokens[asset] = token
	w.nonce++
	w.engine.Machine().Record(func() {
		delete(w.tokens, asset)
		w.nonce = nonce
	})
}
