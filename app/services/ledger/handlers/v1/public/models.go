package public

// accountBalance represents one account's balance for a token.
type accountBalance struct {
	Account string `json:"account"`
	Name    string `json:"name,omitempty"`
	Balance uint64 `json:"balance"`
}

// tokenBalances represents the balance listing for one token.
type tokenBalances struct {
	Symbol   string           `json:"symbol"`
	Balances []accountBalance `json:"balances"`
}

// submitTransfer is a signed transfer authorization. Any party may
// relay it; the signature binds the move to the holder.
type submitTransfer struct {
	Symbol      string `json:"symbol" validate:"required"`
	From        string `json:"from" validate:"required"`
	To          string `json:"to" validate:"required"`
	Value       uint64 `json:"value" validate:"required"`
	ValidAfter  uint64 `json:"valid_after"`
	ValidBefore uint64 `json:"valid_before" validate:"required"`
	Nonce       string `json:"nonce" validate:"required"`
	Sig         string `json:"sig" validate:"required"`
}

// submitPermit is a signed allowance.
type submitPermit struct {
	Symbol  string `json:"symbol" validate:"required"`
	Owner   string `json:"owner" validate:"required"`
	Spender string `json:"spender" validate:"required"`
	Value   uint64 `json:"value"`
	Nonce   uint64 `json:"nonce"`
	Sig     string `json:"sig" validate:"required"`
}

// submitCancel burns an unused transfer nonce.
type submitCancel struct {
	Symbol     string `json:"symbol" validate:"required"`
	Authorizer string `json:"authorizer" validate:"required"`
	Nonce      string `json:"nonce" validate:"required"`
	Sig        string `json:"sig" validate:"required"`
}

// submitPayStub is an employer-signed pay stub claim.
type submitPayStub struct {
	Employee string `json:"employee" validate:"required"`
	Period   uint64 `json:"period" validate:"required"`
	Amount   uint64 `json:"amount" validate:"required"`
	Sig      string `json:"sig" validate:"required"`
}

// submitSwap trades one pool asset for the other.
type submitSwap struct {
	Trader   string `json:"trader" validate:"required"`
	Symbol   string `json:"symbol" validate:"required"`
	AmountIn uint64 `json:"amount_in" validate:"required"`
}

// submitAddLiquidity deposits both pool assets for shares.
type submitAddLiquidity struct {
	Provider string `json:"provider" validate:"required"`
	Amount0  uint64 `json:"amount0" validate:"required"`
	Amount1  uint64 `json:"amount1" validate:"required"`
}

// submitRemoveLiquidity burns shares for both pool assets.
type submitRemoveLiquidity struct {
	Provider string `json:"provider" validate:"required"`
	Shares   uint64 `json:"shares" validate:"required"`
}

// submitAirdropClaim redeems a committed award against its proof.
type submitAirdropClaim struct {
	Account string   `json:"account" validate:"required"`
	Amount  uint64   `json:"amount" validate:"required"`
	Proof   []string `json:"proof" validate:"required"`
}

// submitVaultMove deposits into or withdraws from the vault.
type submitVaultMove struct {
	Account string `json:"account" validate:"required"`
	Amount  uint64 `json:"amount" validate:"required"`
}

// airdropProof carries the award and proof a claimant submits back.
type airdropProof struct {
	Account string   `json:"account"`
	Amount  uint64   `json:"amount"`
	Root    string   `json:"root"`
	Proof   []string `json:"proof"`
}

// poolReserves reports the pool's current holdings.
type poolReserves struct {
	Asset0   string `json:"asset0"`
	Asset1   string `json:"asset1"`
	Reserve0 uint64 `json:"reserve0"`
	Reserve1 uint64 `json:"reserve1"`
}
