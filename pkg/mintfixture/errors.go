package mintfixture

import "fmt"

// ErrorSource identifies which layer produced a fixture error.
type ErrorSource int

const (
	ErrorSourceUnknown ErrorSource = iota
	// ErrorSourceRPC covers transport failures and ledger rejections reported
	// by a JSON-RPC node.
	ErrorSourceRPC
	// ErrorSourceBank covers rejections by the in-process memory.Bank.
	ErrorSourceBank
	// ErrorSourceProgram covers failures to encode an instruction before
	// anything was submitted.
	ErrorSourceProgram
)

func (s ErrorSource) String() string {
	switch s {
	case ErrorSourceRPC:
		return "rpc"
	case ErrorSourceBank:
		return "bank"
	case ErrorSourceProgram:
		return "program"
	default:
		return "unknown"
	}
}

// Error is returned by every fixture operation. The underlying error is
// available through errors.Is and errors.As, so callers can inspect a
// *solana.TransactionError regardless of the backend that produced it.
type Error struct {
	Source ErrorSource
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s error", e.Source)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(source ErrorSource, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Source: source, Err: err}
}
