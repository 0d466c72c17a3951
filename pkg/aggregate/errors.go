package aggregate

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/scmlog/pkg/metrics"
)

// ErrSourceRead marks failures of the commit source. The collaborator's own error is
// wrapped alongside it and stays reachable through errors.Is and errors.As.
var ErrSourceRead = errors.New("source read failure")

// ObserveError reports which commit and file were being processed when routing a
// modification failed.
type ObserveError struct {
	Commit string
	FileID string
	Kind   metrics.Kind
	Err    error
}

// Error implements the error interface.
func (e *ObserveError) Error() string {
	return fmt.Sprintf("commit %s, file %q, metric %s: %v", e.Commit, e.FileID, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ObserveError) Unwrap() error {
	return e.Err
}

func sourceReadError(lastCommit string, err error) error {
	if lastCommit == "" {
		return fmt.Errorf("%w before first commit: %w", ErrSourceRead, err)
	}

	return fmt.Errorf("%w after commit %s: %w", ErrSourceRead, lastCommit, err)
}
