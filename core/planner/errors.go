package planner

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrPreconditionFailed = errors.New("Not subscribed")
	ErrNotFound           = errors.New("Planner not exists for the current week")
	ErrDayNotFound        = errors.New("Planner has no entry for the next day")
	ErrPlannerExists      = errors.New("Planner already exists for this week")
	ErrNothingNew         = errors.New("Topics are already added for the next day.")
)

// RetrievalError reports a storage or question bank failure while gathering planner inputs.
type RetrievalError struct {
	Op  string
	Err error
}

func newQuestionRetrievalError(topic, level string, err error) *RetrievalError {
	return &RetrievalError{Op: fmt.Sprintf("sampling %s questions for %q", level, topic), Err: err}
}

func (e *RetrievalError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *RetrievalError) Cause() error { return e.Err }

// IsRetrievalError reports whether err (or its cause chain) started as a *RetrievalError.
func IsRetrievalError(err error) bool {
	for err != nil {
		if _, ok := err.(*RetrievalError); ok {
			return true
		}
		cause, ok := err.(interface{ Cause() error })
		if !ok {
			return false
		}
		err = cause.Cause()
	}
	return false
}
