package trace

import "github.com/felixgeelhaar/reqtrace/pkg/domain/item"

// CoverageStatus is the per-item classification computed by the linker.
// It is a pure classification assigned once per run, never mutated.
type CoverageStatus string

const (
	// StatusUncovered means needs were declared and none is satisfied.
	StatusUncovered CoverageStatus = "uncovered"
	// StatusPartiallyCovered means some but not all needed types are satisfied.
	StatusPartiallyCovered CoverageStatus = "partial"
	// StatusFullyCovered means all needed types are satisfied, or the
	// item declares no needs.
	StatusFullyCovered CoverageStatus = "covered"
	// StatusOrphan means the item exists purely to cover something but
	// is itself never referenced. Informational, not a defect.
	StatusOrphan CoverageStatus = "orphan"
)

// LinkedItem wraps a specification item with the analysis results
// derived for it. Instances are owned by the linker's output and are
// read-only after construction.
type LinkedItem struct {
	Item item.SpecificationItem `json:"item" yaml:"item"`
	// CoveredBy lists the IDs of items whose covers lists reference
	// this item, sorted and deduplicated.
	CoveredBy []item.ID      `json:"covered_by,omitempty" yaml:"covered_by,omitempty"`
	Status    CoverageStatus `json:"coverage_status" yaml:"coverage_status"`
	// Defects are the defects attributable to this specific item.
	Defects []Defect `json:"defects,omitempty" yaml:"defects,omitempty"`
}

// ID returns the wrapped item's ID.
func (l LinkedItem) ID() item.ID {
	return l.Item.ID
}

// IsCovered reports whether the item's coverage obligations are met.
// Orphans declare no needs, so they count as covered.
func (l LinkedItem) IsCovered() bool {
	return l.Status == StatusFullyCovered || l.Status == StatusOrphan
}

// HasDefects reports whether any defect names this item.
func (l LinkedItem) HasDefects() bool {
	return len(l.Defects) > 0
}
