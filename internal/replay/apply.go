package replay

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"hubswap/internal/access"
	"hubswap/internal/amm"
	"hubswap/internal/model"
	"hubswap/internal/units"
)

// Applier executes operations against a system. Each call is one or more
// state transactions; a failed operation leaves no trace.
type Applier struct {
	sys *amm.System
}

func NewApplier(sys *amm.System) *Applier {
	return &Applier{sys: sys}
}

// Apply runs op with now as the default deadline and returns its outputs
// rendered in each asset's own decimals.
func (a *Applier) Apply(op model.Operation, now uint64) (map[string]string, error) {
	caller, err := parseAccount("caller", op.Caller)
	if err != nil {
		return nil, err
	}
	to := caller
	if op.To != "" {
		if to, err = parseAccount("to", op.To); err != nil {
			return nil, err
		}
	}
	deadline := op.Deadline
	if deadline == 0 {
		deadline = now
	}

	s := a.sys
	switch op.Kind {
	case model.OpAddLiquidity:
		tokenA, tokenB, err := parsePair(op)
		if err != nil {
			return nil, err
		}
		amountA, err := a.amount(tokenA, op.AmountA, true)
		if err != nil {
			return nil, err
		}
		amountB, err := a.amount(tokenB, op.AmountB, true)
		if err != nil {
			return nil, err
		}
		pos, err := s.Router.AddLiquidity(caller, tokenA, tokenB, amountA, amountB, to, deadline)
		if err != nil {
			return nil, err
		}
		return map[string]string{
			"position_id": strconv.FormatUint(pos.ID, 10),
			"units":       units.Format(pos.Units, units.InternalDecimals),
			"pending":     strconv.FormatBool(pos.Pending),
		}, nil

	case model.OpRemoveLiquidity:
		tokenA, tokenB, err := parsePair(op)
		if err != nil {
			return nil, err
		}
		liquidity, err := internalAmount(op.Units)
		if err != nil {
			return nil, err
		}
		minA, err := a.amount(tokenA, op.AmountAMin, false)
		if err != nil {
			return nil, err
		}
		minB, err := a.amount(tokenB, op.AmountBMin, false)
		if err != nil {
			return nil, err
		}
		removal, err := s.Router.RemoveLiquidity(caller, tokenA, tokenB, op.PositionID, liquidity, minA, minB, to, deadline)
		if err != nil {
			return nil, err
		}
		return map[string]string{
			"amount_a":   s.FormatAmount(tokenA, removal.AmountA),
			"amount_b":   s.FormatAmount(tokenB, removal.AmountB),
			"units":      units.Format(removal.Units, units.InternalDecimals),
			"reimbursed": s.FormatAmount(s.Native, removal.Reimbursed),
			"destroyed":  strconv.FormatBool(removal.Destroyed),
		}, nil

	case model.OpSwapExactIn, model.OpSwapExactOut:
		path, err := parsePath(op.Path)
		if err != nil {
			return nil, err
		}
		first, last := path[0], path[len(path)-1]
		if op.Kind == model.OpSwapExactIn {
			amountIn, err := a.amount(first, op.Amount, true)
			if err != nil {
				return nil, err
			}
			minOut, err := a.amount(last, op.Limit, false)
			if err != nil {
				return nil, err
			}
			out, err := s.Router.SwapExactTokensForTokens(caller, amountIn, minOut, path, to, deadline)
			if err != nil {
				return nil, err
			}
			return map[string]string{"amount_out": s.FormatAmount(last, out)}, nil
		}
		amountOut, err := a.amount(last, op.Amount, true)
		if err != nil {
			return nil, err
		}
		maxIn, err := a.amount(first, op.Limit, true)
		if err != nil {
			return nil, err
		}
		in, err := s.Router.SwapTokensForExactTokens(caller, amountOut, maxIn, path, to, deadline)
		if err != nil {
			return nil, err
		}
		return map[string]string{"amount_in": s.FormatAmount(first, in)}, nil

	case model.OpMintSynth:
		asset, err := parseAsset(op.Asset)
		if err != nil {
			return nil, err
		}
		amount, err := a.amount(asset, op.Amount, true)
		if err != nil {
			return nil, err
		}
		minted, err := s.Synths.Mint(caller, asset, amount, to)
		if err != nil {
			return nil, err
		}
		return map[string]string{"units": units.Format(minted, units.InternalDecimals)}, nil

	case model.OpBurnSynth:
		asset, err := parseAsset(op.Asset)
		if err != nil {
			return nil, err
		}
		burned, err := internalAmount(op.Units)
		if err != nil {
			return nil, err
		}
		paid, err := s.Synths.Burn(caller, asset, burned, to)
		if err != nil {
			return nil, err
		}
		return map[string]string{"amount": s.FormatAmount(asset, paid)}, nil

	case model.OpWrap:
		liquidity, err := internalAmount(op.Units)
		if err != nil {
			return nil, err
		}
		minted, err := s.Wrapper.Wrap(caller, op.PositionID, liquidity, to)
		if err != nil {
			return nil, err
		}
		return map[string]string{"lp": units.Format(minted, units.InternalDecimals)}, nil

	case model.OpUnwrap:
		asset, err := parseAsset(op.Asset)
		if err != nil {
			return nil, err
		}
		liquidity, err := internalAmount(op.Units)
		if err != nil {
			return nil, err
		}
		pos, err := s.Wrapper.Unwrap(caller, asset, liquidity, to)
		if err != nil {
			return nil, err
		}
		return map[string]string{
			"position_id": strconv.FormatUint(pos.ID, 10),
			"units":       units.Format(pos.Units, units.InternalDecimals),
		}, nil

	case model.OpCreateSynth:
		asset, err := parseAsset(op.Asset)
		if err != nil {
			return nil, err
		}
		handle, err := s.Synths.CreateSynth(caller, asset)
		if err != nil {
			return nil, err
		}
		return map[string]string{"synth": handle.Hex()}, nil

	case model.OpCreateWrapper:
		asset, err := parseAsset(op.Asset)
		if err != nil {
			return nil, err
		}
		handle, err := s.Wrapper.CreateWrapper(caller, asset)
		if err != nil {
			return nil, err
		}
		return map[string]string{"token": handle.Hex()}, nil

	case model.OpSupportAsset:
		asset, err := parseAsset(op.Asset)
		if err != nil {
			return nil, err
		}
		enabled := op.Enabled == nil || *op.Enabled
		return nil, s.Engine.SupportAsset(caller, asset, enabled)

	case model.OpToggleQueue:
		if err := s.Engine.ToggleQueueMode(caller); err != nil {
			return nil, err
		}
		return map[string]string{"queue_mode": strconv.FormatBool(s.Engine.QueueMode())}, nil

	case model.OpTransferPosition:
		return nil, s.Engine.TransferPosition(caller, op.PositionID, to)

	case model.OpApprove:
		if op.Enabled != nil {
			return nil, s.Engine.SetApprovalForAll(caller, to, *op.Enabled)
		}
		return nil, s.Engine.Approve(caller, to, op.PositionID)

	case model.OpFundReserve:
		amount, err := a.amount(s.Native, op.Amount, true)
		if err != nil {
			return nil, err
		}
		return nil, s.Reserve.Fund(caller, amount)

	case model.OpGrant:
		amount, err := a.amount(s.Native, op.Amount, true)
		if err != nil {
			return nil, err
		}
		paid, err := s.Reserve.Grant(caller, to, amount)
		if err != nil {
			return nil, err
		}
		return map[string]string{"paid": s.FormatAmount(s.Native, paid)}, nil

	case model.OpIssue, model.OpTransfer:
		asset, err := parseAsset(op.Asset)
		if err != nil {
			return nil, err
		}
		amount, err := a.amount(asset, op.Amount, true)
		if err != nil {
			return nil, err
		}
		if op.Kind == model.OpIssue {
			return nil, s.Machine.Exec(func() error { return s.Ledger.Mint(caller, asset, to, amount) })
		}
		return nil, s.Machine.Exec(func() error { return s.Ledger.Transfer(asset, caller, to, amount) })

	case model.OpProposeControl:
		ctrl, err := a.controller(op.Target)
		if err != nil {
			return nil, err
		}
		return nil, ctrl.ProposeControl(caller, to)

	case model.OpAcceptControl:
		ctrl, err := a.controller(op.Target)
		if err != nil {
			return nil, err
		}
		return nil, ctrl.AcceptControl(caller)

	default:
		return nil, fmt.Errorf("unsupported operation %q", op.Kind)
	}
}

func (a *Applier) controller(target string) (*access.Controller, error) {
	switch strings.ToLower(strings.TrimSpace(target)) {
	case "", "pool":
		return a.sys.Access, nil
	case "reserve":
		return a.sys.Reserve.Controller(), nil
	default:
		return nil, fmt.Errorf("unknown controller target %q", target)
	}
}

// amount parses a human amount of asset. An empty optional amount is zero.
func (a *Applier) amount(asset common.Address, text string, required bool) (*big.Int, error) {
	if strings.TrimSpace(text) == "" {
		if required {
			return nil, fmt.Errorf("amount for %s is required", asset.Hex())
		}
		return new(big.Int), nil
	}
	return a.sys.ParseAmount(asset, text)
}

// internalAmount parses an 18-decimal unit count. Empty means nil, which the
// engine treats as "all".
func internalAmount(text string) (*big.Int, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return units.Parse(text, units.InternalDecimals)
}

func parsePair(op model.Operation) (common.Address, common.Address, error) {
	tokenA, err := parseAsset(op.TokenA)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	tokenB, err := parseAsset(op.TokenB)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	return tokenA, tokenB, nil
}

func parsePath(items []string) ([]common.Address, error) {
	path := make([]common.Address, 0, len(items))
	for _, item := range items {
		addr, err := parseAccount("path", item)
		if err != nil {
			return nil, err
		}
		path = append(path, addr)
	}
	if len(path) == 0 {
		return nil, fmt.Errorf("path is required")
	}
	return path, nil
}

func parseAsset(s string) (common.Address, error) {
	return parseAccount("asset", s)
}

// parseAccount accepts the zero address so the components can reject it with
// their own errors.
func parseAccount(field, s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", field, s)
	}
	return common.HexToAddress(s), nil
}
