package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tickdesk/internal/txbuilder"
)

// SignerBroadcaster hands a message batch to the external signing
// service, which signs and broadcasts it as one transaction and
// returns the chain's response. No retries here: a non-zero code means
// the chain already saw the batch, and retry policy belongs to the
// caller.
type SignerBroadcaster struct {
	signerURL string
	http      *http.Client
}

// NewSignerBroadcaster builds a broadcaster for the signer endpoint.
func NewSignerBroadcaster(cfg Config) (*SignerBroadcaster, error) {
	if cfg.SignerURL == "" {
		return nil, fmt.Errorf("signer url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SignerBroadcaster{
		signerURL: cfg.SignerURL,
		http:      &http.Client{Timeout: timeout},
	}, nil
}

// broadcastOperation is one tagged entry of the signed batch. The
// signer executes operations in array order, which must match the
// order the messages were planned in.
type broadcastOperation struct {
	Type       string                   `json:"type"`
	Deposit    *txbuilder.MsgDeposit    `json:"deposit,omitempty"`
	Withdrawal *txbuilder.MsgWithdrawal `json:"withdrawal,omitempty"`
}

const (
	opDeposit    = "deposit"
	opWithdrawal = "withdrawal"
)

type broadcastRequest struct {
	Operations []broadcastOperation `json:"operations"`
}

type broadcastResponse struct {
	Code    uint32 `json:"code"`
	RawLog  string `json:"raw_log"`
	GasUsed int64  `json:"gas_used"`
	TxHash  string `json:"txhash"`
}

// SignAndBroadcast implements txbuilder.Broadcaster.
func (b *SignerBroadcaster) SignAndBroadcast(ctx context.Context, msgs []txbuilder.Msg) (txbuilder.Receipt, error) {
	req := broadcastRequest{Operations: make([]broadcastOperation, 0, len(msgs))}
	for _, msg := range msgs {
		switch m := msg.(type) {
		case txbuilder.MsgDeposit:
			req.Operations = append(req.Operations, broadcastOperation{Type: opDeposit, Deposit: &m})
		case txbuilder.MsgWithdrawal:
			req.Operations = append(req.Operations, broadcastOperation{Type: opWithdrawal, Withdrawal: &m})
		default:
			return txbuilder.Receipt{}, fmt.Errorf("unknown message type %T", msg)
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return txbuilder.Receipt{}, fmt.Errorf("encode broadcast request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.signerURL+"/broadcast", bytes.NewReader(body))
	if err != nil {
		return txbuilder.Receipt{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := b.http.Do(httpReq)
	if err != nil {
		return txbuilder.Receipt{}, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return txbuilder.Receipt{}, err
	}
	if httpResp.StatusCode != http.StatusOK {
		return txbuilder.Receipt{}, fmt.Errorf("signer status %d: %s", httpResp.StatusCode, truncate(respBody, 256))
	}

	var resp broadcastResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return txbuilder.Receipt{}, fmt.Errorf("decode broadcast response: %w", err)
	}

	return txbuilder.Receipt{
		Code:    resp.Code,
		RawLog:  resp.RawLog,
		GasUsed: resp.GasUsed,
		TxHash:  resp.TxHash,
	}, nil
}
