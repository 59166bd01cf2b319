// Package item defines the identity model for specification items:
// the artifact-typed, revisioned identifiers that every importer emits
// and the linker reasons about.
package item

import (
	"fmt"
	"strconv"
	"strings"
)

// ID uniquely identifies a specification item by artifact type, name,
// and revision. Two IDs are equal iff all three fields are equal.
type ID struct {
	Type     string `json:"type" yaml:"type"`
	Name     string `json:"name" yaml:"name"`
	Revision int    `json:"revision" yaml:"revision"`
}

// NewID creates an ID from its three components.
func NewID(artifactType, name string, revision int) ID {
	return ID{Type: artifactType, Name: name, Revision: revision}
}

// ParseID parses the canonical "type~name~revision" form and the short
// "type~name" form, where the revision defaults to 1. Names are
// project-defined and accepted verbatim; parsing fails only on
// structural malformation.
func ParseID(text string) (ID, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ID{}, fmt.Errorf("empty specification item ID")
	}

	parts := strings.Split(trimmed, "~")
	switch len(parts) {
	case 2:
		return buildID(parts[0], parts[1], "1", trimmed)
	case 3:
		return buildID(parts[0], parts[1], parts[2], trimmed)
	default:
		return ID{}, fmt.Errorf("invalid ID %q: expected 'type~name~revision' or 'type~name'", trimmed)
	}
}

func buildID(artifactType, name, revision, original string) (ID, error) {
	if artifactType == "" {
		return ID{}, fmt.Errorf("invalid ID %q: empty artifact type", original)
	}
	if name == "" {
		return ID{}, fmt.Errorf("invalid ID %q: empty name", original)
	}
	rev, err := strconv.Atoi(revision)
	if err != nil {
		return ID{}, fmt.Errorf("invalid ID %q: revision %q is not a number", original, revision)
	}
	if rev < 1 {
		return ID{}, fmt.Errorf("invalid ID %q: revision must be positive", original)
	}
	return ID{Type: artifactType, Name: name, Revision: rev}, nil
}

// String renders the ID in its canonical "type~name~revision" form.
func (id ID) String() string {
	return fmt.Sprintf("%s~%s~%d", id.Type, id.Name, id.Revision)
}

// IsZero reports whether the ID is the zero value.
func (id ID) IsZero() bool {
	return id.Type == "" && id.Name == "" && id.Revision == 0
}

// Compare orders IDs by (type, name, revision). It returns -1, 0, or 1,
// giving reports a deterministic item order.
func (id ID) Compare(other ID) int {
	if c := strings.Compare(id.Type, other.Type); c != 0 {
		return c
	}
	if c := strings.Compare(id.Name, other.Name); c != 0 {
		return c
	}
	switch {
	case id.Revision < other.Revision:
		return -1
	case id.Revision > other.Revision:
		return 1
	default:
		return 0
	}
}

// Less reports whether id sorts before other.
func (id ID) Less(other ID) bool {
	return id.Compare(other) < 0
}
