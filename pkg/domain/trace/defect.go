// Package trace implements the coverage-analysis core: it links a flat
// collection of specification items into a directed coverage graph,
// classifies each item's coverage status, and enumerates defects.
package trace

import (
	"strings"

	"github.com/felixgeelhaar/reqtrace/pkg/domain/item"
)

// DefectKind classifies a detected inconsistency. The set is closed.
type DefectKind string

const (
	// DefectOrphanedCoverage marks an item covering an ID that does not exist.
	DefectOrphanedCoverage DefectKind = "orphaned-coverage"
	// DefectMissingCoverage marks an item needing an artifact type that
	// no other item covers it with.
	DefectMissingCoverage DefectKind = "missing-coverage"
	// DefectDuplicateID marks two or more items sharing an ID.
	DefectDuplicateID DefectKind = "duplicate-id"
	// DefectCircularCoverage marks a cycle in the covers graph.
	DefectCircularCoverage DefectKind = "circular-coverage"
	// DefectParseFailure marks a location that looked like an item
	// declaration but could not be parsed.
	DefectParseFailure DefectKind = "parse-failure"
)

// IsValid checks if the kind is a known value.
func (k DefectKind) IsValid() bool {
	switch k {
	case DefectOrphanedCoverage, DefectMissingCoverage, DefectDuplicateID,
		DefectCircularCoverage, DefectParseFailure:
		return true
	default:
		return false
	}
}

// Defect records a single detected inconsistency in the traced project.
// Defects are expected, recoverable data-level anomalies; they never
// abort an analysis run.
type Defect struct {
	Kind    DefectKind  `json:"kind" yaml:"kind"`
	Message string      `json:"message" yaml:"message"`
	Related []item.ID   `json:"related,omitempty" yaml:"related,omitempty"`
	Origin  item.Origin `json:"origin,omitempty" yaml:"origin,omitempty"`
}

// NewDefect creates a defect relating the given IDs.
func NewDefect(kind DefectKind, message string, related ...item.ID) Defect {
	return Defect{Kind: kind, Message: message, Related: related}
}

// NewParseFailure creates a parse-failure defect attributed to a file
// location.
func NewParseFailure(message, path string, line int) Defect {
	return Defect{
		Kind:    DefectParseFailure,
		Message: message,
		Origin:  item.Origin{Path: path, Line: line},
	}
}

// Names reports whether the defect relates to the given ID.
func (d Defect) Names(id item.ID) bool {
	for _, r := range d.Related {
		if r == id {
			return true
		}
	}
	return false
}

// Compare orders defects deterministically by kind, related IDs,
// origin, and finally message.
func (d Defect) Compare(other Defect) int {
	if c := strings.Compare(string(d.Kind), string(other.Kind)); c != 0 {
		return c
	}
	for i := 0; i < len(d.Related) && i < len(other.Related); i++ {
		if c := d.Related[i].Compare(other.Related[i]); c != 0 {
			return c
		}
	}
	if c := len(d.Related) - len(other.Related); c != 0 {
		return c
	}
	if c := d.Origin.Compare(other.Origin); c != 0 {
		return c
	}
	return strings.Compare(d.Message, other.Message)
}
