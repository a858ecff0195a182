// Package access implements the single-principal controller capability that
// guards administrative entry points.
package access

import (
	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"

	"hubswap/internal/model"
	"hubswap/internal/state"
)

const codespace = "access"

var (
	ErrNotController = errorsmod.Register(codespace, 2, "caller is not the controller")
	ErrNotPending    = errorsmod.Register(codespace, 3, "caller is not the pending controller")
	ErrZeroAddress   = errorsmod.Register(codespace, 4, "controller cannot be the zero address")
)

// Controller stores the principal allowed to call administrative entry
// points. Control moves either in one step (Transfer) or two (Propose then
// Accept).
//
// Methods without a Control suffix run inside the caller's transaction; the
// *Control variants open their own.
type Controller struct {
	machine *state.Machine
	emitter common.Address

	controller common.Address
	pending    common.Address
}

func NewController(machine *state.Machine, emitter, controller common.Address) *Controller {
	return &Controller{machine: machine, emitter: emitter, controller: controller}
}

func (c *Controller) Controller() common.Address { return c.controller }

func (c *Controller) Pending() common.Address { return c.pending }

// Authorize fails unless caller holds the capability.
func (c *Controller) Authorize(caller common.Address) error {
	if caller == (common.Address{}) || caller != c.controller {
		return ErrNotController.Wrapf("%s", caller.Hex())
	}
	return nil
}

// Transfer hands control to next immediately.
func (c *Controller) Transfer(caller, next common.Address) error {
	if err := c.Authorize(caller); err != nil {
		return err
	}
	if next == (common.Address{}) {
		return ErrZeroAddress
	}
	c.set(next, common.Address{})
	c.machine.Emit(c.emitter, model.ControllerTransferEventData{
		Previous: caller.Hex(),
		Next:     next.Hex(),
	})
	return nil
}

// Propose nominates next; control moves only once next accepts.
func (c *Controller) Propose(caller, next common.Address) error {
	if err := c.Authorize(caller); err != nil {
		return err
	}
	if next == (common.Address{}) {
		return ErrZeroAddress
	}
	c.set(c.controller, next)
	c.machine.Emit(c.emitter, model.ControllerTransferEventData{
		Previous: caller.Hex(),
		Next:     next.Hex(),
		Pending:  true,
	})
	return nil
}

// Accept completes a two-step transfer.
func (c *Controller) Accept(caller common.Address) error {
	if c.pending == (common.Address{}) || caller != c.pending {
		return ErrNotPending.Wrapf("%s", caller.Hex())
	}
	previous := c.controller
	c.set(caller, common.Address{})
	c.machine.Emit(c.emitter, model.ControllerTransferEventData{
		Previous: previous.Hex(),
		Next:     caller.Hex(),
	})
	return nil
}

func (c *Controller) TransferControl(caller, next common.Address) error {
	return c.machine.Exec(func() error { return c.Transfer(caller, next) })
}

func (c *Controller) ProposeControl(caller, next common.Address) error {
	return c.machine.Exec(func() error { return c.Propose(caller, next) })
}

func (c *Controller) AcceptControl(caller common.Address) error {
	return c.machine.Exec(func() error { return c.Accept(caller) })
}

func (c *Controller) set(controller, pending common.Address) {
	prevController, prevPending := c.controller, c.pending
	c.controller, c.pending = controller, pending
	c.machine.Record(func() {
		c.controller, c.pending = prevController, prevPending
	})
}
