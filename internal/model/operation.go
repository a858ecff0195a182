package model

// Operation kinds accepted by the replay runner.
const (
	OpAddLiquidity     = "add_liquidity"
	OpRemoveLiquidity  = "remove_liquidity"
	OpSwapExactIn      = "swap_exact_in"
	OpSwapExactOut     = "swap_exact_out"
	OpMintSynth        = "mint_synth"
	OpBurnSynth        = "burn_synth"
	OpWrap             = "wrap"
	OpUnwrap           = "unwrap"
	OpCreateSynth      = "create_synth"
	OpCreateWrapper    = "create_wrapper"
	OpSupportAsset     = "support_asset"
	OpToggleQueue      = "toggle_queue"
	OpTransferPosition = "transfer_position"
	OpApprove          = "approve"
	OpFundReserve      = "fund_reserve"
	OpGrant            = "grant"
	OpIssue            = "issue"
	OpTransfer         = "transfer"
	OpProposeControl   = "propose_control"
	OpAcceptControl    = "accept_control"
)

// Operation is one line of a replay input. Amount fields are human decimal
// strings scaled by the decimals of the asset they refer to; Units is in
// 18-decimal liquidity or synth units.
type Operation struct {
	Timestamp  uint64   `json:"timestamp"`
	Kind       string   `json:"op"`
	Caller     string   `json:"caller"`
	Asset      string   `json:"asset,omitempty"`
	TokenA     string   `json:"token_a,omitempty"`
	TokenB     string   `json:"token_b,omitempty"`
	Path       []string `json:"path,omitempty"`
	Amount     string   `json:"amount,omitempty"`
	AmountA    string   `json:"amount_a,omitempty"`
	AmountB    string   `json:"amount_b,omitempty"`
	AmountAMin string   `json:"amount_a_min,omitempty"`
	AmountBMin string   `json:"amount_b_min,omitempty"`
	Limit      string   `json:"limit,omitempty"`
	Units      string   `json:"units,omitempty"`
	PositionID uint64   `json:"position_id,omitempty"`
	To         string   `json:"to,omitempty"`
	Deadline   uint64   `json:"deadline,omitempty"`
	Enabled    *bool    `json:"enabled,omitempty"`
	// Target selects the controller for propose/accept: "pool" (default) or
	// "reserve".
	Target string `json:"target,omitempty"`
}

// OpResult is the journal entry written for each applied operation.
type OpResult struct {
	Line      uint64            `json:"line"`
	Timestamp uint64            `json:"timestamp"`
	Kind      string            `json:"op"`
	Status    string            `json:"status"`
	Codespace string            `json:"codespace,omitempty"`
	Code      uint32            `json:"code,omitempty"`
	Error     string            `json:"error,omitempty"`
	Outputs   map[string]string `json:"outputs,omitempty"`
	Events    []Event           `json:"events,omitempty"`
}

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)
