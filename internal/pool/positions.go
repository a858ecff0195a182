package pool

import (
	"github.com/ethereum/go-ethereum/common"

	"hubswap/internal/model"
)

func (e *Engine) isApprovedOrOwner(spender common.Address, pos *Position) bool {
	if spender == (common.Address{}) {
		return false
	}
	if spender == pos.Owner {
		return true
	}
	if e.approvals[pos.ID] == spender {
		return true
	}
	return e.operators[pos.Owner][spender]
}

// GetApproved returns the single-position approval for id.
func (e *Engine) GetApproved(id uint64) common.Address {
	return e.approvals[id]
}

func (e *Engine) IsApprovedForAll(owner, operator common.Address) bool {
	return e.operators[owner][operator]
}

// TransferPosition moves a position to a new owner. Unit values and the
// original contribution snapshot are unchanged; any single-position approval
// is cleared.
func (e *Engine) TransferPosition(caller common.Address, id uint64, to common.Address) error {
	return e.machine.Exec(func() error {
		pos, err := e.livePosition(id)
		if err != nil {
			return err
		}
		if !e.isApprovedOrOwner(caller, pos) {
			return ErrNotOwnerNorApproved.Wrapf("%s for position %d", caller.Hex(), id)
		}
		if to == (common.Address{}) {
			return ErrInvalidPositionAddress
		}
		if pos.Owner == e.cfg.Wrapper {
			return ErrInvalidAsset.Wrap("wrapper position is not transferable")
		}
		from := pos.Owner
		e.setApproval(id, common.Address{})
		e.setOwned(from, id, false)
		e.setOwned(to, id, true)
		next := pos.clone()
		next.Owner = to
		e.putPosition(next)
		e.machine.Emit(e.cfg.Address, model.PositionTransferEventData{
			PositionID: id,
			From:       from.Hex(),
			To:         to.Hex(),
		})
		return nil
	})
}

// Approve lets spender act on position id. The zero address clears it.
func (e *Engine) Approve(caller, spender common.Address, id uint64) error {
	return e.machine.Exec(func() error {
		pos, err := e.livePosition(id)
		if err != nil {
			return err
		}
		if caller != pos.Owner && !e.operators[pos.Owner][caller] {
			return ErrNotOwnerNorApproved.Wrapf("%s for position %d", caller.Hex(), id)
		}
		e.setApproval(id, spender)
		return nil
	})
}

// SetApprovalForAll lets operator act on every position of caller.
func (e *Engine) SetApprovalForAll(caller, operator common.Address, approved bool) error {
	return e.machine.Exec(func() error {
		if operator == (common.Address{}) || operator == caller {
			return ErrInvalidReceiver.Wrap("operator")
		}
		set, ok := e.operators[caller]
		if !ok {
			set = make(map[common.Address]bool)
			e.operators[caller] = set
		}
		prev, had := set[operator]
		if approved {
			set[operator] = true
		} else {
			delete(set, operator)
		}
		e.machine.Record(func() {
			if had {
				set[operator] = prev
			} else {
				delete(set, operator)
			}
		})
		return nil
	})
}
