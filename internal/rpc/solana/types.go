package solana

type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

type RPCContext struct {
	Slot uint64 `json:"slot"`
}

type GetBalanceResult struct {
	Context RPCContext `json:"context"`
	Value   uint64     `json:"value"`
}

type TokenAccountsFilter struct {
	Mint      string `json:"mint,omitempty"`
	ProgramID string `json:"programId,omitempty"`
}

type RequestConfig struct {
	Encoding   string     `json:"encoding,omitempty"`
	Commitment Commitment `json:"commitment,omitempty"`
}

type GetTokenAccountsResult struct {
	Context RPCContext          `json:"context"`
	Value   []KeyedTokenAccount `json:"value"`
}

type KeyedTokenAccount struct {
	Pubkey  string             `json:"pubkey"`
	Account ParsedTokenAccount `json:"account"`
}

type ParsedTokenAccount struct {
	Owner string `json:"owner"`
	Data  struct {
		Program string `json:"program"`
		Parsed  struct {
			Type string           `json:"type"`
			Info TokenAccountInfo `json:"info"`
		} `json:"parsed"`
	} `json:"data"`
}

type TokenAccountInfo struct {
	Mint        string      `json:"mint"`
	Owner       string      `json:"owner"`
	State       string      `json:"state"`
	TokenAmount TokenAmount `json:"tokenAmount"`
}

// TokenAmount.Amount is the raw integer amount as a decimal string.
type TokenAmount struct {
	Amount         string `json:"amount"`
	Decimals       uint8  `json:"decimals"`
	UIAmountString string `json:"uiAmountString"`
}
