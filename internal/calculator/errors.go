package calculator

import "errors"

var (
	// ErrUnknownOperation is returned by Registry.Create for names nobody registered.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrInvalidOperation is returned by Registry.Register when the factory
	// cannot produce an Operation.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrNoStore is returned by SaveHistory and LoadHistory when the calculator
	// was built without a Store.
	ErrNoStore = errors.New("no history store configured")
)

// ValidationError reports bad input: a non-numeric operand or an operand the
// selected operation cannot accept. The session can always continue.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// OperationError reports structural misuse of the calculator, such as
// performing a calculation before an operation was selected.
type OperationError struct {
	Message string
}

func (e *OperationError) Error() string {
	return e.Message
}

func newValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

func newOperationError(msg string) error {
	return &OperationError{Message: msg}
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsOperationError reports whether err is or wraps an *OperationError.
func IsOperationError(err error) bool {
	var target *OperationError
	return errors.As(err, &target)
}
