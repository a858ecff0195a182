// Package amm assembles the exchange components from a genesis description.
package amm

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"hubswap/internal/access"
	"hubswap/internal/model"
	"hubswap/internal/pool"
	"hubswap/internal/reserve"
	"hubswap/internal/router"
	"hubswap/internal/state"
	"hubswap/internal/synth"
	"hubswap/internal/token"
	"hubswap/internal/units"
	"hubswap/internal/wrapper"
)

// System is a fully wired exchange.
type System struct {
	Machine *state.Machine
	Ledger  *token.Ledger
	Access  *access.Controller
	Engine  *pool.Engine
	Synths  *synth.Factory
	Wrapper *wrapper.Wrapper
	Reserve *reserve.Reserve
	Router  *router.Router

	Native     common.Address
	Controller common.Address
	Issuer     common.Address

	genesis Genesis
}

// New builds a system and applies genesis balances, support flags and
// reserve funding. A nil clock uses wall time.
func New(g Genesis, clock func() time.Time, logger *zap.Logger) (*System, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r, err := g.resolve()
	if err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}
	p := r.principal

	machine := state.New(clock, logger.Named("state"))
	ledger := token.NewLedger(machine, units.NewTable())
	if err := ledger.Register(r.native, g.Native.Name, g.Native.Symbol, g.Native.Decimals, p.issuer); err != nil {
		return nil, fmt.Errorf("register native: %w", err)
	}
	for i, addr := range r.assets {
		spec := g.Assets[i]
		if err := ledger.Register(addr, spec.Name, spec.Symbol, spec.Decimals, p.issuer); err != nil {
			return nil, fmt.Errorf("register %s: %w", spec.Symbol, err)
		}
	}

	ctrl := access.NewController(machine, p.pool, p.controller)
	engine, err := pool.New(pool.Config{
		Address:         p.pool,
		NativeAsset:     r.native,
		Router:          p.router,
		SynthFactory:    p.synth,
		Wrapper:         p.wrapper,
		FeeModel:        r.feeModel,
		FeeBps:          g.FeeBps,
		SynthBurnFeeBps: g.SynthBurnFeeBps,
	}, machine, ledger, ctrl, logger.Named("pool"))
	if err != nil {
		return nil, err
	}
	for _, addr := range r.assets {
		if err := engine.RegisterAsset(addr); err != nil {
			return nil, err
		}
	}

	factory, err := synth.NewFactory(p.synth, engine, logger.Named("synth"))
	if err != nil {
		return nil, err
	}
	wrap, err := wrapper.New(p.wrapper, engine, logger.Named("wrapper"))
	if err != nil {
		return nil, err
	}
	res, err := reserve.New(reserve.Config{
		Address:     p.reserve,
		NativeAsset: r.native,
		Deployer:    p.deployer,
		GrantDelay:  r.delay,
		Policy:      r.policy,
	}, machine, ledger, logger.Named("reserve"))
	if err != nil {
		return nil, err
	}
	rt, err := router.New(router.Config{Address: p.router, ILVesting: r.vesting}, engine, res, logger.Named("router"))
	if err != nil {
		return nil, err
	}

	s := &System{
		Machine:    machine,
		Ledger:     ledger,
		Access:     ctrl,
		Engine:     engine,
		Synths:     factory,
		Wrapper:    wrap,
		Reserve:    res,
		Router:     rt,
		Native:     r.native,
		Controller: p.controller,
		Issuer:     p.issuer,
		genesis:    g,
	}
	if err := s.bootstrap(g, r); err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}
	return s, nil
}

func (s *System) bootstrap(g Genesis, r *resolved) error {
	if err := s.Reserve.Initialize(r.principal.deployer, r.principal.router, r.principal.controller); err != nil {
		return fmt.Errorf("initialize reserve: %w", err)
	}
	for _, asset := range r.supported {
		if err := s.Engine.SupportAsset(r.principal.controller, asset, true); err != nil {
			return fmt.Errorf("support %s: %w", asset.Hex(), err)
		}
	}
	s.Engine.SetQueueMode(g.QueueMode)

	for _, b := range g.Balances {
		holder, err := ParseAddress(b.Holder)
		if err != nil {
			return fmt.Errorf("balance holder: %w", err)
		}
		asset, err := ParseAddress(b.Asset)
		if err != nil {
			return fmt.Errorf("balance asset: %w", err)
		}
		if err := s.Issue(asset, holder, b.Amount); err != nil {
			return err
		}
	}
	if g.ReserveFunding != "" {
		if err := s.Issue(s.Native, s.Reserve.Address(), g.ReserveFunding); err != nil {
			return err
		}
	}
	return nil
}

// Issue mints a human-readable amount of asset to holder as the issuer.
func (s *System) Issue(asset, holder common.Address, amount string) error {
	value, err := s.ParseAmount(asset, amount)
	if err != nil {
		return err
	}
	return s.Machine.Exec(func() error { return s.Ledger.Mint(s.Issuer, asset, holder, value) })
}

// ParseAmount scales a human decimal amount by asset's decimals.
func (s *System) ParseAmount(asset common.Address, amount string) (*big.Int, error) {
	decimals, ok := s.Ledger.Table().Decimals(asset)
	if !ok {
		return nil, token.ErrUnknownAsset.Wrap(asset.Hex())
	}
	return ParseAmount(amount, decimals)
}

// FormatAmount renders a native-precision amount of asset.
func (s *System) FormatAmount(asset common.Address, amount *big.Int) string {
	decimals, _ := s.Ledger.Table().Decimals(asset)
	return units.Format(amount, decimals)
}

func (s *System) Genesis() Genesis { return s.genesis }

// Snapshot returns the storage form of every pair and position.
func (s *System) Snapshot() (pairs []model.PairRecord, positions []model.PositionRecord) {
	_ = s.Machine.View(func() error {
		for _, asset := range s.Engine.Assets() {
			p, _ := s.Engine.Pair(asset)
			pairs = append(pairs, PairRecord(p))
		}
		for id := uint64(1); id <= s.Engine.PositionCount(); id++ {
			pos, _ := s.Engine.Position(id)
			positions = append(positions, PositionRecord(pos))
		}
		return nil
	})
	return pairs, positions
}

func PairRecord(p pool.Pair) model.PairRecord {
	rec := model.PairRecord{
		Asset:          p.Asset.Hex(),
		NativeReserve:  p.NativeReserve.String(),
		ForeignReserve: p.ForeignReserve.String(),
		SynthBacking:   p.SynthBacking.String(),
		TotalUnits:     p.TotalUnits.String(),
		QueuedNative:   p.QueuedNative.String(),
		QueuedForeign:  p.QueuedForeign.String(),
		Supported:      p.Supported,
		Fungible:       p.Fungible,
	}
	if p.Synth != (common.Address{}) {
		rec.Synth = p.Synth.Hex()
	}
	if p.LPToken != (common.Address{}) {
		rec.LPToken = p.LPToken.Hex()
	}
	return rec
}

func PositionRecord(p pool.Position) model.PositionRecord {
	return model.PositionRecord{
		ID:              p.ID,
		Owner:           p.Owner.Hex(),
		Asset:           p.Asset.Hex(),
		Units:           p.Units.String(),
		OriginalNative:  p.OriginalNative.String(),
		OriginalForeign: p.OriginalForeign.String(),
		CreatedAt:       p.CreatedAt,
		Pending:         p.Pending,
		Destroyed:       p.Burned,
	}
}
