package model

// EventData is implemented by every payload emitted by the engine.
type EventData interface {
	EventName() string
}

// Event is a committed state-transition event.
type Event struct {
	Seq       uint64    `json:"seq"`
	Timestamp uint64    `json:"timestamp"`
	Emitter   string    `json:"emitter"`
	Name      string    `json:"name"`
	Data      EventData `json:"data"`
}

const (
	EventMint               = "Mint"
	EventBurn               = "Burn"
	EventSwap               = "Swap"
	EventSynthMint          = "SynthMint"
	EventSynthBurn          = "SynthBurn"
	EventFungibleMint       = "FungibleMint"
	EventFungibleBurn       = "FungibleBurn"
	EventPositionTransfer   = "PositionTransfer"
	EventAssetSupport       = "AssetSupport"
	EventQueueToggle        = "QueueToggle"
	EventLossCovered        = "LossCovered"
	EventGrant              = "Grant"
	EventFunded             = "Funded"
	EventControllerTransfer = "ControllerTransfer"
	EventSynthCreated       = "SynthCreated"
	EventWrapperCreated     = "WrapperCreated"
)

// MintEventData records a new liquidity position.
type MintEventData struct {
	PositionID uint64 `json:"position_id"`
	Owner      string `json:"owner"`
	Asset      string `json:"asset"`
	Native     string `json:"native"`
	Foreign    string `json:"foreign"`
	Units      string `json:"units"`
	Pending    bool   `json:"pending"`
}

func (MintEventData) EventName() string { return EventMint }

// BurnEventData records liquidity removed from a position.
type BurnEventData struct {
	PositionID uint64 `json:"position_id"`
	Owner      string `json:"owner"`
	Recipient  string `json:"recipient"`
	Asset      string `json:"asset"`
	Native     string `json:"native"`
	Foreign    string `json:"foreign"`
	Units      string `json:"units"`
	Destroyed  bool   `json:"destroyed"`
}

func (BurnEventData) EventName() string { return EventBurn }

// SwapEventData is a single-leg swap against one pair.
type SwapEventData struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	AssetIn   string `json:"asset_in"`
	AssetOut  string `json:"asset_out"`
	AmountIn  string `json:"amount_in"`
	AmountOut string `json:"amount_out"`
}

func (SwapEventData) EventName() string { return EventSwap }

type SynthMintEventData struct {
	Asset     string `json:"asset"`
	Synth     string `json:"synth"`
	Depositor string `json:"depositor"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
	Units     string `json:"units"`
}

func (SynthMintEventData) EventName() string { return EventSynthMint }

type SynthBurnEventData struct {
	Asset     string `json:"asset"`
	Synth     string `json:"synth"`
	Owner     string `json:"owner"`
	Recipient string `json:"recipient"`
	Units     string `json:"units"`
	Amount    string `json:"amount"`
	Fee       string `json:"fee"`
}

func (SynthBurnEventData) EventName() string { return EventSynthBurn }

type FungibleMintEventData struct {
	Asset      string `json:"asset"`
	Token      string `json:"token"`
	PositionID uint64 `json:"position_id"`
	Owner      string `json:"owner"`
	Recipient  string `json:"recipient"`
	Units      string `json:"units"`
}

func (FungibleMintEventData) EventName() string { return EventFungibleMint }

type FungibleBurnEventData struct {
	Asset      string `json:"asset"`
	Token      string `json:"token"`
	PositionID uint64 `json:"position_id"`
	Owner      string `json:"owner"`
	Recipient  string `json:"recipient"`
	Units      string `json:"units"`
}

func (FungibleBurnEventData) EventName() string { return EventFungibleBurn }

type PositionTransferEventData struct {
	PositionID uint64 `json:"position_id"`
	From       string `json:"from"`
	To         string `json:"to"`
}

func (PositionTransferEventData) EventName() string { return EventPositionTransfer }

type AssetSupportEventData struct {
	Asset     string `json:"asset"`
	Supported bool   `json:"supported"`
	Activated int    `json:"activated"`
}

func (AssetSupportEventData) EventName() string { return EventAssetSupport }

type QueueToggleEventData struct {
	Active bool `json:"active"`
}

func (QueueToggleEventData) EventName() string { return EventQueueToggle }

// LossCoveredEventData records an impermanent-loss reimbursement; Paid may be
// below Requested when the reserve is short.
type LossCoveredEventData struct {
	Recipient string `json:"recipient"`
	Requested string `json:"requested"`
	Paid      string `json:"paid"`
}

func (LossCoveredEventData) EventName() string { return EventLossCovered }

type GrantEventData struct {
	Recipient string `json:"recipient"`
	Requested string `json:"requested"`
	Paid      string `json:"paid"`
}

func (GrantEventData) EventName() string { return EventGrant }

type FundedEventData struct {
	From   string `json:"from"`
	Amount string `json:"amount"`
}

func (FundedEventData) EventName() string { return EventFunded }

type ControllerTransferEventData struct {
	Previous string `json:"previous"`
	Next     string `json:"next"`
	Pending  bool   `json:"pending"`
}

func (ControllerTransferEventData) EventName() string { return EventControllerTransfer }

type SynthCreatedEventData struct {
	Asset  string `json:"asset"`
	Synth  string `json:"synth"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

func (SynthCreatedEventData) EventName() string { return EventSynthCreated }

type WrapperCreatedEventData struct {
	Asset  string `json:"asset"`
	Token  string `json:"token"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

func (WrapperCreatedEventData) EventName() string { return EventWrapperCreated }
