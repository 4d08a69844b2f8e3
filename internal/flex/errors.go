package flex

import (
	"errors"
	"fmt"
)

var (
	// ErrStatementFailed is matched (via errors.Is) by every *StatementError.
	ErrStatementFailed = errors.New("flex statement failed")
	// ErrNoReferenceCode means SendRequest succeeded but carried no reference code.
	ErrNoReferenceCode = errors.New("flex response has no reference code")
	// ErrNoTradesNode means the statement has no trades node for the requested schema.
	ErrNoTradesNode = errors.New("flex statement has no trades node")
)

// StatementError is an explicit failure status reported by the upstream service.
type StatementError struct {
	Code    string
	Message string
}

func (e *StatementError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%s: %s", ErrStatementFailed, e.Message)
	}
	return fmt.Sprintf("%s: [%s] %s", ErrStatementFailed, e.Code, e.Message)
}

// Is makes errors.Is(err, ErrStatementFailed) true for any StatementError.
func (e *StatementError) Is(target error) bool { return target == ErrStatementFailed }
