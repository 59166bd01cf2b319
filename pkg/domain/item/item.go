package item

import (
	"fmt"
	"sort"
	"strings"
)

// Status represents the review state of a specification item.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusProposed Status = "proposed"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsValid checks if the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusProposed, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// ParseStatus parses a string into a Status.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	return st, st.IsValid()
}

// Origin records where an item was extracted from.
type Origin struct {
	Path string `json:"path" yaml:"path"`
	Line int    `json:"line" yaml:"line"`
}

// String renders the origin as "path:line".
func (o Origin) String() string {
	return fmt.Sprintf("%s:%d", o.Path, o.Line)
}

// IsZero reports whether the origin is unset.
func (o Origin) IsZero() bool {
	return o.Path == "" && o.Line == 0
}

// Compare orders origins by path, then line.
func (o Origin) Compare(other Origin) int {
	if c := strings.Compare(o.Path, other.Path); c != 0 {
		return c
	}
	switch {
	case o.Line < other.Line:
		return -1
	case o.Line > other.Line:
		return 1
	default:
		return 0
	}
}

// SpecificationItem is one discovered requirement-like unit: a
// requirement, design decision, implementation marker, or test marker.
// Items are value objects; a new analysis run builds a fresh set.
type SpecificationItem struct {
	ID          ID       `json:"id" yaml:"id"`
	Title       string   `json:"title,omitempty" yaml:"title,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Rationale   string   `json:"rationale,omitempty" yaml:"rationale,omitempty"`
	Comment     string   `json:"comment,omitempty" yaml:"comment,omitempty"`
	Status      Status   `json:"status" yaml:"status"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	// Needs lists the artifact types that must cover this item.
	Needs []string `json:"needs,omitempty" yaml:"needs,omitempty"`
	// Covers lists the IDs this item claims to cover. Entries may refer
	// to items that do not exist; the linker reports those as defects.
	Covers  []ID   `json:"covers,omitempty" yaml:"covers,omitempty"`
	Depends []ID   `json:"depends,omitempty" yaml:"depends,omitempty"`
	Origin  Origin `json:"origin" yaml:"origin"`
}

// New creates a specification item with the given ID and default status.
func New(id ID) SpecificationItem {
	return SpecificationItem{ID: id, Status: StatusApproved}
}

// WithOrigin returns a copy of the item with its origin set.
func (s SpecificationItem) WithOrigin(path string, line int) SpecificationItem {
	s.Origin = Origin{Path: path, Line: line}
	return s
}

// WithCovers returns a copy of the item with covered IDs appended.
func (s SpecificationItem) WithCovers(ids ...ID) SpecificationItem {
	s.Covers = append(s.Covers, ids...)
	return s
}

// WithNeeds returns a copy of the item with needed artifact types appended.
func (s SpecificationItem) WithNeeds(artifactTypes ...string) SpecificationItem {
	s.Needs = append(s.Needs, artifactTypes...)
	return s
}

// TitleOrName returns the title, or a readable fallback derived from
// the item name when no title was declared.
func (s SpecificationItem) TitleOrName() string {
	if s.Title != "" {
		return s.Title
	}
	name := strings.ReplaceAll(s.ID.Name, "-", " ")
	return strings.ReplaceAll(name, "_", " ")
}

// IsTerminating reports whether the item declares no further coverage
// needs. Terminating items are fully covered by definition.
func (s SpecificationItem) IsTerminating() bool {
	return len(s.Needs) == 0
}

// NeedsSorted returns the declared needs as a sorted, deduplicated copy.
func (s SpecificationItem) NeedsSorted() []string {
	if len(s.Needs) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(s.Needs))
	out := make([]string, 0, len(s.Needs))
	for _, n := range s.Needs {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Compare orders items by ID, breaking same-ID ties by origin so that
// duplicate IDs still sort deterministically.
func (s SpecificationItem) Compare(other SpecificationItem) int {
	if c := s.ID.Compare(other.ID); c != 0 {
		return c
	}
	return s.Origin.Compare(other.Origin)
}
