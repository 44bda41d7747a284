package txbuilder

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tickdesk/internal/model"
	"tickdesk/internal/planner"
)

// Receipt is the broadcaster's response to a signed transaction.
type Receipt struct {
	Code    uint32
	RawLog  string
	GasUsed int64
	TxHash  string
}

// Broadcaster signs and broadcasts a batch of messages as one
// transaction. The chain executes the batch atomically; partial
// application is not possible.
type Broadcaster interface {
	SignAndBroadcast(ctx context.Context, msgs []Msg) (Receipt, error)
}

// EditResult is the outcome of a successful edit submission. Touched
// lists the tick keys whose snapshot is now stale and must be
// invalidated by the store layer.
type EditResult struct {
	TxHash    string
	GasUsed   int64
	Received0 decimal.Decimal
	Received1 decimal.Decimal
	Touched   []model.TickKey
}

// State names the phases of one edit request.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSucceeded
	StateFailed
)

// RequestState is the caller-facing snapshot of the current request:
// result data if any, whether a submission is in flight, and the last
// error.
type RequestState struct {
	Data     *EditResult
	InFlight bool
	Err      error
}

// Submitter owns the single point of network interaction. At most one
// submission may be outstanding per session: a new Submit while one is
// in flight is rejected outright, never queued or merged, so two edits
// can never race against the same share balances.
type Submitter struct {
	creator     string
	broadcaster Broadcaster
	logger      *zap.Logger

	mu    sync.Mutex
	state State
	data  *EditResult
	err   error
}

// NewSubmitter builds a Submitter for one signing identity. An empty
// creator means no wallet is connected; Submit will refuse to run.
func NewSubmitter(creator string, broadcaster Broadcaster, logger *zap.Logger) *Submitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Submitter{
		creator:     creator,
		broadcaster: broadcaster,
		logger:      logger,
		state:       StateIdle,
	}
}

// State returns the current request state.
func (s *Submitter) State() RequestState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return RequestState{
		Data:     s.data,
		InFlight: s.state == StateSubmitting,
		Err:      s.err,
	}
}

// Submit validates the descriptors, builds the messages, and
// broadcasts them as one atomic batch. Every failure mode is surfaced
// as a distinct error kind: PreconditionError before any network call,
// TransportError when signing or the network fails, ChainRejectionError
// when the chain returns a non-zero code. No retries happen here.
func (s *Submitter) Submit(ctx context.Context, descriptors []planner.Descriptor) (*EditResult, error) {
	if err := s.enter(); err != nil {
		return nil, err
	}

	result, err := s.run(ctx, descriptors)

	s.mu.Lock()
	s.data = result
	s.err = err
	if err != nil {
		s.state = StateFailed
	} else {
		s.state = StateSucceeded
	}
	s.mu.Unlock()

	return result, err
}

// enter moves Idle or a terminal state into Submitting; re-entry from
// Submitting itself is refused.
func (s *Submitter) enter() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitting {
		return model.Preconditionf("an edit submission is already in flight")
	}
	s.state = StateSubmitting
	s.data = nil
	s.err = nil
	return nil
}

func (s *Submitter) run(ctx context.Context, descriptors []planner.Descriptor) (*EditResult, error) {
	if s.creator == "" {
		return nil, model.Preconditionf("wallet is not connected")
	}
	if s.broadcaster == nil {
		return nil, model.Preconditionf("no broadcaster configured")
	}
	if len(descriptors) == 0 {
		return nil, model.Preconditionf("edit request is empty")
	}

	msgs, err := BuildMessages(s.creator, descriptors)
	if err != nil {
		return nil, err
	}

	s.logger.Info("broadcasting edit batch",
		zap.Int("messages", len(msgs)),
		zap.String("creator", s.creator),
	)

	receipt, err := s.broadcaster.SignAndBroadcast(ctx, msgs)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if receipt.Code != 0 {
		return nil, &ChainRejectionError{
			Code:   receipt.Code,
			RawLog: receipt.RawLog,
			TxHash: receipt.TxHash,
		}
	}

	result := &EditResult{
		TxHash:    receipt.TxHash,
		GasUsed:   receipt.GasUsed,
		Received0: decimal.Zero,
		Received1: decimal.Zero,
		Touched:   touchedKeys(descriptors),
	}
	for _, desc := range descriptors {
		if w, ok := desc.(planner.WithdrawDescriptor); ok {
			result.Received0 = result.Received0.Add(w.Expected0)
			result.Received1 = result.Received1.Add(w.Expected1)
		}
	}

	s.logger.Info("edit batch accepted",
		zap.String("tx_hash", receipt.TxHash),
		zap.Int64("gas_used", receipt.GasUsed),
	)
	return result, nil
}

// touchedKeys collects the distinct tick keys of the batch in first
// occurrence order.
func touchedKeys(descriptors []planner.Descriptor) []model.TickKey {
	seen := make(map[model.TickKey]struct{}, len(descriptors))
	keys := make([]model.TickKey, 0, len(descriptors))
	for _, desc := range descriptors {
		key := desc.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}
