package services

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/yigit/bojio/internal/pkg/apperrors"
	"github.com/yigit/bojio/internal/pkg/metrics"
)

// fanOut tracks the named steps of a multi-document operation running inside
// one store transaction, so a failure can report where it happened.
type fanOut struct {
	op        string
	completed []string
	finished  bool
}

func newFanOut(op string) *fanOut {
	return &fanOut{op: op}
}

// step runs fn and records it. Store failures come back as a FanOutError;
// the surrounding transaction rolls them back. Domain errors such as
// conflicts pass through unchanged.
func (f *fanOut) step(name string, fn func() error) error {
	if err := fn(); err != nil {
		if isDomainError(err) {
			return err
		}
		return &apperrors.FanOutError{
			Op:         f.op,
			Step:       name,
			Completed:  append([]string(nil), f.completed...),
			RolledBack: true,
			Err:        err,
		}
	}
	f.completed = append(f.completed, name)
	return nil
}

func isDomainError(err error) bool {
	return apperrors.Is(err, apperrors.ErrResourceNotFound,
		apperrors.ErrConflict,
		apperrors.ErrValidationFailed,
		apperrors.ErrPermissionDenied,
		apperrors.ErrAlreadyVoted,
	)
}

// done marks the transaction body as complete. Call it as the last statement
// of the Atomic callback.
func (f *fanOut) done() error {
	f.finished = true
	return nil
}

// result classifies the error returned by Atomic. A failure after done means
// the commit itself failed and the outcome is unknown.
func (f *fanOut) result(err error, logger zerolog.Logger) error {
	if err == nil {
		return nil
	}

	if f.finished {
		err = &apperrors.FanOutError{
			Op:        f.op,
			Step:      "commit",
			Completed: append([]string(nil), f.completed...),
			Err:       err,
		}
	}

	var fo *apperrors.FanOutError
	if errors.As(err, &fo) {
		metrics.FanOutFailures.WithLabelValues(fo.Op, fo.Step).Inc()
		logger.Error().Err(fo.Err).
			Str("op", fo.Op).
			Str("step", fo.Step).
			Strs("completed", fo.Completed).
			Bool("rolledBack", fo.RolledBack).
			Msg("Fan-out operation failed")
	}
	return err
}
