package txbuilder

import "fmt"

// ChainRejectionError reports a broadcast that reached the chain and
// was rejected there: the response carries a non-zero code. The
// transaction may have mutated state, so blind retries are unsafe;
// the caller decides.
type ChainRejectionError struct {
	Code   uint32
	RawLog string
	TxHash string
}

func (e *ChainRejectionError) Error() string {
	return fmt.Sprintf("chain rejected tx %s: code %d: %s", e.TxHash, e.Code, e.RawLog)
}

// TransportError reports a failure before any chain response: signing
// or network. Nothing reached the chain, so retrying is safe.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "broadcast transport failed: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
