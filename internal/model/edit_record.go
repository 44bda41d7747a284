package model

// EditRecord is the journal entry written after a submitted edit
// request, successful or rejected by the chain.
type EditRecord struct {
	Owner       string   `json:"owner"`
	Pair        string   `json:"pair"`
	Deposits    int      `json:"deposits"`
	Withdrawals int      `json:"withdrawals"`
	TxHash      string   `json:"tx_hash"`
	Code        uint32   `json:"code"`
	GasUsed     int64    `json:"gas_used"`
	RawLog      string   `json:"raw_log,omitempty"`
	Received0   string   `json:"received0"`
	Received1   string   `json:"received1"`
	Touched     []string `json:"touched"`
	SubmittedAt string   `json:"submitted_at"`
}
