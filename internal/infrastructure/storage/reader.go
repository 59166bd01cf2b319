// Package storage provides retrying file access for the trace
// pipeline and permission-safe report output.
package storage

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
)

// Reader reads artifact files with bounded retry. Watch mode observes
// editors that truncate and rewrite files, so a read can race a save;
// retrying rides out the window.
type Reader struct {
	retryConfig retry.Config
}

func NewReader() *Reader {
	return &Reader{
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// ReadFile returns the file contents, retrying transient failures.
func (r *Reader) ReadFile(ctx context.Context, path string) ([]byte, error) {
	retryer := retry.New[[]byte](r.retryConfig)

	return retryer.Do(ctx, func(ctx context.Context) ([]byte, error) {
		// #nosec G304 -- Paths come from configured directory walks
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return data, nil
	})
}
