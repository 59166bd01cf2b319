// Package report renders trace results as JSON and HTML documents.
package report

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/reqtrace/pkg/domain/trace"
)

// JSON serializes a trace result. Output is deterministic for
// identical results.
func JSON(result *trace.Result) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return append(data, '\n'), nil
}
