package amm

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"hubswap/internal/pool"
	"hubswap/internal/reserve"
	"hubswap/internal/router"
	"hubswap/internal/units"
)

// AssetSpec describes a token created at genesis.
type AssetSpec struct {
	Address  string `mapstructure:"address" json:"address"`
	Name     string `mapstructure:"name" json:"name"`
	Symbol   string `mapstructure:"symbol" json:"symbol"`
	Decimals uint8  `mapstructure:"decimals" json:"decimals"`
}

// BalanceSpec credits Holder with a human-readable Amount of Asset.
type BalanceSpec struct {
	Holder string `mapstructure:"holder" json:"holder"`
	Asset  string `mapstructure:"asset" json:"asset"`
	Amount string `mapstructure:"amount" json:"amount"`
}

// Principals are the component accounts. Empty entries get deterministic
// defaults derived from the component name.
type Principals struct {
	Controller   string `mapstructure:"controller" json:"controller"`
	Deployer     string `mapstructure:"deployer" json:"deployer"`
	Issuer       string `mapstructure:"issuer" json:"issuer"`
	Pool         string `mapstructure:"pool" json:"pool"`
	Router       string `mapstructure:"router" json:"router"`
	Reserve      string `mapstructure:"reserve" json:"reserve"`
	SynthFactory string `mapstructure:"synth_factory" json:"synth_factory"`
	Wrapper      string `mapstructure:"wrapper" json:"wrapper"`
}

// Genesis is the bootstrap description of a system, usually read from the
// `genesis` key of the config file.
type Genesis struct {
	Native     AssetSpec   `mapstructure:"native" json:"native"`
	Assets     []AssetSpec `mapstructure:"assets" json:"assets"`
	Principals Principals  `mapstructure:"principals" json:"principals"`

	FeeModel         string `mapstructure:"fee_model" json:"fee_model"`
	FeeBps           uint32 `mapstructure:"fee_bps" json:"fee_bps"`
	SynthBurnFeeBps  uint32 `mapstructure:"synth_burn_fee_bps" json:"synth_burn_fee_bps"`
	ILVestingSeconds uint64 `mapstructure:"il_vesting_seconds" json:"il_vesting_seconds"`
	GrantDelay       uint64 `mapstructure:"grant_delay_seconds" json:"grant_delay_seconds"`
	ILPolicy         string `mapstructure:"il_policy" json:"il_policy"`

	Balances       []BalanceSpec `mapstructure:"balances" json:"balances"`
	ReserveFunding string        `mapstructure:"reserve_funding" json:"reserve_funding"`
	Supported      []string      `mapstructure:"supported" json:"supported"`
	QueueMode      bool          `mapstructure:"queue_mode" json:"queue_mode"`
}

// DefaultPrincipal derives a stable account for a named component.
func DefaultPrincipal(name string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte("hubswap/" + name))[12:])
}

// resolved is a validated Genesis with parsed addresses and amounts.
type resolved struct {
	native    common.Address
	assets    []common.Address
	decimals  map[common.Address]uint8
	principal struct {
		controller, deployer, issuer, pool, router, reserve, synth, wrapper common.Address
	}
	feeModel  pool.FeeModel
	policy    reserve.Policy
	vesting   uint64
	delay     uint64
	supported []common.Address
}

func (g Genesis) resolve() (*resolved, error) {
	r := &resolved{decimals: make(map[common.Address]uint8)}
	var err error

	if r.native, err = ParseAddress(g.Native.Address); err != nil {
		return nil, fmt.Errorf("native asset: %w", err)
	}
	r.decimals[r.native] = g.Native.Decimals
	for _, a := range g.Assets {
		addr, err := ParseAddress(a.Address)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", a.Symbol, err)
		}
		if _, dup := r.decimals[addr]; dup {
			return nil, fmt.Errorf("asset %s listed twice", addr.Hex())
		}
		r.assets = append(r.assets, addr)
		r.decimals[addr] = a.Decimals
	}

	p := g.Principals
	if p.Controller == "" {
		return nil, fmt.Errorf("principals.controller is required")
	}
	if r.principal.controller, err = ParseAddress(p.Controller); err != nil {
		return nil, fmt.Errorf("controller: %w", err)
	}
	for _, item := range []struct {
		name  string
		value string
		dst   *common.Address
	}{
		{"issuer", p.Issuer, &r.principal.issuer},
		{"pool", p.Pool, &r.principal.pool},
		{"router", p.Router, &r.principal.router},
		{"reserve", p.Reserve, &r.principal.reserve},
		{"synth_factory", p.SynthFactory, &r.principal.synth},
		{"wrapper", p.Wrapper, &r.principal.wrapper},
	} {
		if item.value == "" {
			*item.dst = DefaultPrincipal(item.name)
			continue
		}
		if *item.dst, err = ParseAddress(item.value); err != nil {
			return nil, fmt.Errorf("%s: %w", item.name, err)
		}
	}
	r.principal.deployer = r.principal.controller
	if p.Deployer != "" {
		if r.principal.deployer, err = ParseAddress(p.Deployer); err != nil {
			return nil, fmt.Errorf("deployer: %w", err)
		}
	}

	r.feeModel = pool.FeeModel(strings.ToLower(g.FeeModel))
	if r.feeModel == "" {
		r.feeModel = pool.FeeSlip
	}
	if err := r.feeModel.Validate(g.FeeBps); err != nil {
		return nil, err
	}
	r.policy = reserve.Policy(strings.ToLower(g.ILPolicy))
	if r.policy == "" {
		r.policy = reserve.PolicyCap
	}
	if err := r.policy.Validate(); err != nil {
		return nil, err
	}
	r.vesting = g.ILVestingSeconds
	if r.vesting == 0 {
		r.vesting = router.DefaultILVesting
	}
	r.delay = g.GrantDelay
	if r.delay == 0 {
		r.delay = reserve.DefaultGrantDelay
	}

	for _, s := range g.Supported {
		addr, err := ParseAddress(s)
		if err != nil {
			return nil, fmt.Errorf("supported: %w", err)
		}
		r.supported = append(r.supported, addr)
	}
	return r, nil
}

// ParseAddress accepts a 0x-prefixed 20-byte hex address.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	addr := common.HexToAddress(s)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("zero address")
	}
	return addr, nil
}

// ParseAmount reads a human decimal amount of an asset with the given
// decimals.
func ParseAmount(text string, decimals uint8) (*big.Int, error) {
	return units.Parse(text, decimals)
}
