package services

import "fmt"

// ValidationError covers requests rejected before any write: the caller must
// fix the request and retry.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// InvalidTransitionError reports an approval action attempted from a status
// outside the action's allowed source states. No side effects occurred.
type InvalidTransitionError struct {
	Action        string
	CurrentStatus string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("score is not awaiting %s approval (current status: %s)", e.Action, e.CurrentStatus)
}
