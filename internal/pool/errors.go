package pool

import errorsmod "cosmossdk.io/errors"

const codespace = "pool"

var (
	ErrOnlyRouter             = errorsmod.Register(codespace, 2, "only router")
	ErrOnlySynthFactory       = errorsmod.Register(codespace, 3, "only synth factory")
	ErrOnlyWrapper            = errorsmod.Register(codespace, 4, "only liquidity wrapper")
	ErrAlreadyAtDesiredState  = errorsmod.Register(codespace, 5, "already at desired state")
	ErrInsufficientLiquidity  = errorsmod.Register(codespace, 6, "insufficient liquidity")
	ErrUnfavourableTrade      = errorsmod.Register(codespace, 7, "unfavourable trade")
	ErrOneSidedOnly           = errorsmod.Register(codespace, 8, "only one-sided swaps supported")
	ErrInvalidReceiver        = errorsmod.Register(codespace, 9, "invalid receiver")
	ErrInexistentSynth        = errorsmod.Register(codespace, 10, "inexistent synth")
	ErrUnsupportedToken       = errorsmod.Register(codespace, 11, "unsupported token")
	ErrInsufficientSynth      = errorsmod.Register(codespace, 12, "insufficient synth amount")
	ErrPositionNotFound       = errorsmod.Register(codespace, 13, "position does not exist")
	ErrNotOwnerNorApproved    = errorsmod.Register(codespace, 14, "caller is not owner nor approved")
	ErrInsufficientInput      = errorsmod.Register(codespace, 15, "insufficient input amount")
	ErrSynthExists            = errorsmod.Register(codespace, 16, "synth already registered")
	ErrFungibleExists         = errorsmod.Register(codespace, 17, "fungible wrapper already enabled")
	ErrFungibleDisabled       = errorsmod.Register(codespace, 18, "fungible wrapper not enabled")
	ErrInvalidAsset           = errorsmod.Register(codespace, 19, "invalid asset")
	ErrPositionPending        = errorsmod.Register(codespace, 20, "position is pending activation")
	ErrInvariant              = errorsmod.Register(codespace, 21, "invariant violated")
	ErrUnknownFeeModel        = errorsmod.Register(codespace, 22, "unknown fee model")
	ErrInvalidPositionAddress = errorsmod.Register(codespace, 23, "invalid position recipient")
)
