// Package reserve holds the native-asset surplus used to reimburse liquidity
// providers for impermanent loss and to pay throttled grants.
package reserve

import (
	"math/big"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"hubswap/internal/access"
	"hubswap/internal/model"
	"hubswap/internal/state"
	"hubswap/internal/token"
)

const codespace = "reserve"

var (
	ErrIncorrectArguments     = errorsmod.Register(codespace, 2, "incorrect arguments")
	ErrAlreadyInitialized     = errorsmod.Register(codespace, 3, "already initialized")
	ErrGrantTooFast           = errorsmod.Register(codespace, 4, "grant too fast")
	ErrInsufficientPrivileges = errorsmod.Register(codespace, 5, "insufficient privileges")
	ErrInsufficientReserve    = errorsmod.Register(codespace, 6, "insufficient reserve")
	ErrUnknownPolicy          = errorsmod.Register(codespace, 7, "unknown reimbursement policy")
)

// Policy decides what happens when a reimbursement exceeds the balance.
type Policy string

const (
	// PolicyCap pays what the reserve holds and lets the removal succeed.
	PolicyCap Policy = "cap"
	// PolicyStrict fails the reimbursement, and with it the removal.
	PolicyStrict Policy = "strict"
)

func (p Policy) Validate() error {
	switch p {
	case PolicyCap, PolicyStrict:
		return nil
	default:
		return ErrUnknownPolicy.Wrap(string(p))
	}
}

// DefaultGrantDelay is the per-beneficiary grant throttle.
const DefaultGrantDelay uint64 = 30 * 24 * 60 * 60

type Config struct {
	Address     common.Address
	NativeAsset common.Address
	// Principal allowed to initialize; control passes to the initialized
	// controller afterwards.
	Deployer   common.Address
	GrantDelay uint64
	Policy     Policy
}

type Reserve struct {
	cfg     Config
	machine *state.Machine
	ledger  *token.Ledger
	access  *access.Controller
	logger  *zap.Logger

	router      common.Address
	initialized bool
	lastGrant   map[common.Address]uint64
}

func New(cfg Config, machine *state.Machine, ledger *token.Ledger, logger *zap.Logger) (*Reserve, error) {
	if cfg.Policy == "" {
		cfg.Policy = PolicyCap
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	if cfg.Address == (common.Address{}) || cfg.Deployer == (common.Address{}) {
		return nil, ErrIncorrectArguments.Wrap("reserve and deployer addresses are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reserve{
		cfg:       cfg,
		machine:   machine,
		ledger:    ledger,
		access:    access.NewController(machine, cfg.Address, cfg.Deployer),
		logger:    logger,
		lastGrant: make(map[common.Address]uint64),
	}, nil
}

func (r *Reserve) Address() common.Address        { return r.cfg.Address }
func (r *Reserve) Router() common.Address         { return r.router }
func (r *Reserve) Policy() Policy                 { return r.cfg.Policy }
func (r *Reserve) Controller() *access.Controller { return r.access }

// Reserve is the native balance available for payouts.
func (r *Reserve) Reserve() *big.Int {
	return r.ledger.BalanceOf(r.cfg.NativeAsset, r.cfg.Address)
}

// LastGrant returns when recipient last received a grant.
func (r *Reserve) LastGrant(recipient common.Address) (uint64, bool) {
	ts, ok := r.lastGrant[recipient]
	return ts, ok
}

// Initialize binds the router and hands control to controller. It can run
// once.
func (r *Reserve) Initialize(caller, router, controller common.Address) error {
	return r.machine.Exec(func() error {
		if err := r.access.Authorize(caller); err != nil {
			return err
		}
		if r.initialized {
			return ErrAlreadyInitialized
		}
		if router == (common.Address{}) || controller == (common.Address{}) {
			return ErrIncorrectArguments.Wrapf("router %s controller %s", router.Hex(), controller.Hex())
		}
		prevRouter, prevInit := r.router, r.initialized
		r.router, r.initialized = router, true
		r.machine.Record(func() { r.router, r.initialized = prevRouter, prevInit })
		if controller != caller {
			if err := r.access.Transfer(caller, controller); err != nil {
				return err
			}
		}
		r.logger.Info("reserve initialized", zap.String("router", router.Hex()), zap.String("controller", controller.Hex()))
		return nil
	})
}

// Fund moves amount of the native asset from caller into the reserve.
func (r *Reserve) Fund(caller common.Address, amount *big.Int) error {
	return r.machine.Exec(func() error {
		if amount == nil || amount.Sign() <= 0 {
			return ErrIncorrectArguments.Wrap("amount must be positive")
		}
		if err := r.ledger.Transfer(r.cfg.NativeAsset, caller, r.cfg.Address, amount); err != nil {
			return err
		}
		r.machine.Emit(r.cfg.Address, model.FundedEventData{From: caller.Hex(), Amount: amount.String()})
		return nil
	})
}

// Grant pays up to amount to recipient. Controller only, and at most once
// per recipient every GrantDelay seconds.
func (r *Reserve) Grant(caller, recipient common.Address, amount *big.Int) (*big.Int, error) {
	var paid *big.Int
	err := r.machine.Exec(func() error {
		if err := r.access.Authorize(caller); err != nil {
			return err
		}
		now := r.machine.Now()
		if last, ok := r.lastGrant[recipient]; ok && now < last+r.cfg.GrantDelay {
			return ErrGrantTooFast.Wrapf("%s next eligible at %d", recipient.Hex(), last+r.cfg.GrantDelay)
		}
		if recipient == (common.Address{}) || amount == nil || amount.Sign() <= 0 {
			return ErrIncorrectArguments.Wrap("grant recipient and amount are required")
		}
		paid = r.capped(amount)
		if err := r.ledger.Transfer(r.cfg.NativeAsset, r.cfg.Address, recipient, paid); err != nil {
			return err
		}
		r.setLastGrant(recipient, now)
		r.machine.Emit(r.cfg.Address, model.GrantEventData{
			Recipient: recipient.Hex(),
			Requested: amount.String(),
			Paid:      paid.String(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// ReimburseImpermanentLoss pays amount of the native asset to recipient. It
// runs inside the router's transaction. Under PolicyCap an underfunded
// reserve pays what it has; under PolicyStrict it fails.
func (r *Reserve) ReimburseImpermanentLoss(caller, recipient common.Address, amount *big.Int) (*big.Int, error) {
	if !r.initialized || caller != r.router {
		return nil, ErrInsufficientPrivileges.Wrapf("%s", caller.Hex())
	}
	if amount == nil || amount.Sign() <= 0 {
		return new(big.Int), nil
	}
	if r.cfg.Policy == PolicyStrict && r.Reserve().Cmp(amount) < 0 {
		return nil, ErrInsufficientReserve.Wrapf("owed %s, holding %s", amount, r.Reserve())
	}
	paid := r.capped(amount)
	if err := r.ledger.Transfer(r.cfg.NativeAsset, r.cfg.Address, recipient, paid); err != nil {
		return nil, err
	}
	r.machine.Emit(r.cfg.Address, model.LossCoveredEventData{
		Recipient: recipient.Hex(),
		Requested: amount.String(),
		Paid:      paid.String(),
	})
	if paid.Cmp(amount) < 0 {
		r.logger.Warn("impermanent loss under-covered", zap.String("owed", amount.String()), zap.String("paid", paid.String()))
	}
	return paid, nil
}

func (r *Reserve) capped(amount *big.Int) *big.Int {
	balance := r.Reserve()
	if balance.Cmp(amount) < 0 {
		return balance
	}
	return new(big.Int).Set(amount)
}

func (r *Reserve) setLastGrant(recipient common.Address, ts uint64) {
	prev, had := r.lastGrant[recipient]
	r.lastGrant[recipient] = ts
	r.machine.Record(func() {
		if had {
			r.lastGrant[recipient] = prev
		} else {
			delete(r.lastGrant, recipient)
		}
	})
}
