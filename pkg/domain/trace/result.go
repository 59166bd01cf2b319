package trace

import (
	"fmt"
	"sort"
)

// CoverageSummary aggregates coverage for one artifact type.
type CoverageSummary struct {
	Total      int            `json:"total" yaml:"total"`
	Covered    int            `json:"covered" yaml:"covered"`
	Percentage float64        `json:"percentage" yaml:"percentage"`
	Status     CoverageStatus `json:"status" yaml:"status"`
}

// Result is the aggregate outcome of one analysis run. It is
// constructed once by the linker and never mutated afterwards.
type Result struct {
	// Items holds every linked item, including duplicates and orphans,
	// sorted by ID and then origin.
	Items []LinkedItem `json:"items" yaml:"items"`
	// Defects holds every defect found, in deterministic order.
	Defects []Defect `json:"defects" yaml:"defects"`
	// Summary aggregates coverage per artifact type.
	Summary map[string]CoverageSummary `json:"summary" yaml:"summary"`
	// IsSuccess is true iff no defects were found.
	IsSuccess bool `json:"is_success" yaml:"is_success"`
	// DefectCount is len(Defects), serialized for report consumers.
	DefectCount int `json:"defect_count" yaml:"defect_count"`
}

func newResult(items []LinkedItem, defects []Defect) *Result {
	r := &Result{
		Items:       items,
		Defects:     defects,
		Summary:     summarize(items),
		IsSuccess:   len(defects) == 0,
		DefectCount: len(defects),
	}
	if r.Defects == nil {
		r.Defects = []Defect{}
	}
	return r
}

func summarize(items []LinkedItem) map[string]CoverageSummary {
	summary := make(map[string]CoverageSummary)
	for _, li := range items {
		s := summary[li.Item.ID.Type]
		s.Total++
		if li.IsCovered() {
			s.Covered++
		}
		summary[li.Item.ID.Type] = s
	}
	for t, s := range summary {
		s.Percentage = 100.0
		if s.Total > 0 {
			s.Percentage = float64(s.Covered) / float64(s.Total) * 100.0
		}
		switch {
		case s.Covered == s.Total:
			s.Status = StatusFullyCovered
		case s.Covered > 0:
			s.Status = StatusPartiallyCovered
		default:
			s.Status = StatusUncovered
		}
		summary[t] = s
	}
	return summary
}

// ArtifactTypes returns the artifact types present in the result, sorted.
func (r *Result) ArtifactTypes() []string {
	types := make([]string, 0, len(r.Summary))
	for t := range r.Summary {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// DefectStatistics counts defects by kind.
func (r *Result) DefectStatistics() map[DefectKind]int {
	stats := make(map[DefectKind]int)
	for _, d := range r.Defects {
		stats[d.Kind]++
	}
	return stats
}

// SummaryLines renders human-readable one-line statistics for CLI
// output, in a fixed kind order.
func (r *Result) SummaryLines() []string {
	stats := r.DefectStatistics()
	var lines []string
	for _, entry := range []struct {
		kind   DefectKind
		format string
	}{
		{DefectMissingCoverage, "%d item(s) lack required coverage"},
		{DefectOrphanedCoverage, "%d reference(s) cover non-existing items"},
		{DefectDuplicateID, "%d duplicate ID(s) found"},
		{DefectCircularCoverage, "%d circular coverage chain(s) detected"},
		{DefectParseFailure, "%d location(s) could not be parsed"},
	} {
		if n := stats[entry.kind]; n > 0 {
			lines = append(lines, fmt.Sprintf(entry.format, n))
		}
	}
	return lines
}

// ItemsByType groups linked items by artifact type, preserving the
// result's deterministic item order within each group.
func (r *Result) ItemsByType() map[string][]LinkedItem {
	grouped := make(map[string][]LinkedItem)
	for _, li := range r.Items {
		grouped[li.Item.ID.Type] = append(grouped[li.Item.ID.Type], li)
	}
	return grouped
}
