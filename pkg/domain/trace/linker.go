package trace

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/felixgeelhaar/reqtrace/pkg/domain/item"
)

// ErrInvariant signals a bug in an importer: an item that should never
// have reached the linker (e.g. an empty ID). Unlike defects, invariant
// violations are hard failures.
var ErrInvariant = errors.New("linker invariant violation")

// Link builds the coverage graph over the given items, classifies each
// item's coverage status, and enumerates defects. Any importDefects
// (parse failures collected during import) are merged into the result.
//
// Link never fails on bad data; every anomaly in the item set becomes a
// defect in the result. The only error it returns wraps ErrInvariant.
// Input order is irrelevant: the result is sorted by ID and origin, so
// repeated runs over the same item set produce identical results.
func Link(items []item.SpecificationItem, importDefects ...Defect) (*Result, error) {
	for _, it := range items {
		if it.ID.Type == "" || it.ID.Name == "" || it.ID.Revision < 1 {
			return nil, fmt.Errorf("%w: malformed ID %q from %s", ErrInvariant, it.ID, it.Origin)
		}
	}

	l := newLinker(items)
	l.findDuplicates()
	l.buildEdges()
	l.classifyCoverage()
	l.detectCycles()

	return l.assemble(importDefects), nil
}

// linker holds the per-run graph state. Nodes are addressed by their
// position in the sorted item slice, not by ID, so duplicate IDs keep
// their own nodes.
type linker struct {
	items []item.SpecificationItem
	index map[item.ID][]int

	out [][]int // covering node -> covered nodes
	in  [][]int // covered node -> covering nodes

	status     []CoverageStatus
	perItem    [][]Defect
	global     []Defect
	cycleSeen  map[string]struct{}
	cycleStack []int
	cycleState []int
}

func newLinker(items []item.SpecificationItem) *linker {
	sorted := make([]item.SpecificationItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Compare(sorted[j]) < 0
	})

	index := make(map[item.ID][]int, len(sorted))
	for i, it := range sorted {
		index[it.ID] = append(index[it.ID], i)
	}

	return &linker{
		items:     sorted,
		index:     index,
		out:       make([][]int, len(sorted)),
		in:        make([][]int, len(sorted)),
		status:    make([]CoverageStatus, len(sorted)),
		perItem:   make([][]Defect, len(sorted)),
		cycleSeen: make(map[string]struct{}),
	}
}

// addDefect records a defect globally and attributes it to the given nodes.
func (l *linker) addDefect(d Defect, nodes ...int) {
	l.global = append(l.global, d)
	for _, n := range nodes {
		l.perItem[n] = append(l.perItem[n], d)
	}
}

// findDuplicates flags every ID declared by more than one item. All
// items under a duplicated ID still participate in the graph passes, so
// coverage reasoning is not blind to them.
func (l *linker) findDuplicates() {
	reported := make(map[item.ID]struct{})
	for _, it := range l.items {
		nodes := l.index[it.ID]
		if len(nodes) < 2 {
			continue
		}
		if _, done := reported[it.ID]; done {
			continue
		}
		reported[it.ID] = struct{}{}

		origins := make([]string, len(nodes))
		for k, n := range nodes {
			origins[k] = l.items[n].Origin.String()
		}
		d := NewDefect(DefectDuplicateID,
			fmt.Sprintf("item %s is declared %d times (%s)", it.ID, len(nodes), strings.Join(origins, ", ")),
			it.ID)
		l.addDefect(d, nodes...)
	}
}

// buildEdges adds one edge per resolvable covers entry. A covers entry
// whose target ID has no item yields an orphaned-coverage defect and no
// edge, exactly one defect per dangling reference.
func (l *linker) buildEdges() {
	for i, it := range l.items {
		for _, covered := range it.Covers {
			targets := l.index[covered]
			if len(targets) == 0 {
				d := NewDefect(DefectOrphanedCoverage,
					fmt.Sprintf("item %s covers non-existing item %s", it.ID, covered),
					it.ID, covered)
				l.addDefect(d, i)
				continue
			}
			for _, t := range targets {
				l.out[i] = append(l.out[i], t)
				l.in[t] = append(l.in[t], i)
			}
		}
	}
	// Neighbor order must not depend on input order.
	for i := range l.out {
		sort.Ints(l.out[i])
		sort.Ints(l.in[i])
	}
}

// classifyCoverage computes each item's coverage status from the types
// of its incoming edges and records missing-coverage defects for every
// declared need no incoming edge satisfies.
func (l *linker) classifyCoverage() {
	for i, it := range l.items {
		incomingTypes := make(map[string]struct{})
		for _, src := range l.in[i] {
			incomingTypes[l.items[src].ID.Type] = struct{}{}
		}

		needs := it.NeedsSorted()
		if len(needs) == 0 {
			// Terminating items are covered by definition. An item that
			// only exists to cover others and is itself unreferenced is
			// an orphan, which still counts as covered.
			if len(l.in[i]) == 0 && len(it.Covers) > 0 {
				l.status[i] = StatusOrphan
			} else {
				l.status[i] = StatusFullyCovered
			}
			continue
		}

		satisfied := 0
		for _, needed := range needs {
			if _, ok := incomingTypes[needed]; ok {
				satisfied++
				continue
			}
			d := NewDefect(DefectMissingCoverage,
				fmt.Sprintf("item %s needs coverage by %s but none exists", it.ID, needed),
				it.ID)
			l.addDefect(d, i)
		}

		switch {
		case satisfied == len(needs):
			l.status[i] = StatusFullyCovered
		case satisfied > 0:
			l.status[i] = StatusPartiallyCovered
		default:
			l.status[i] = StatusUncovered
		}
	}
}

// detectCycles runs a single depth-first sweep over the covers graph
// with the usual visited/in-progress discipline. Every distinct cycle
// yields one circular-coverage defect; cycles reachable from multiple
// start nodes are deduplicated by their canonical rotation.
func (l *linker) detectCycles() {
	l.cycleState = make([]int, len(l.items))
	for i := range l.items {
		if l.cycleState[i] == nodeWhite {
			l.visit(i)
		}
	}
}

const (
	nodeWhite = iota // unvisited
	nodeGray         // on the recursion stack
	nodeBlack        // fully explored
)

func (l *linker) visit(i int) {
	l.cycleState[i] = nodeGray
	l.cycleStack = append(l.cycleStack, i)

	for _, j := range l.out[i] {
		switch l.cycleState[j] {
		case nodeWhite:
			l.visit(j)
		case nodeGray:
			l.recordCycle(j)
		}
	}

	l.cycleStack = l.cycleStack[:len(l.cycleStack)-1]
	l.cycleState[i] = nodeBlack
}

// recordCycle extracts the cycle closing at node start from the
// recursion stack and reports it once, rotated so the smallest member
// leads.
func (l *linker) recordCycle(start int) {
	var members []int
	for k := len(l.cycleStack) - 1; k >= 0; k-- {
		members = append([]int{l.cycleStack[k]}, members...)
		if l.cycleStack[k] == start {
			break
		}
	}

	// Canonical rotation: begin at the member with the smallest node
	// index (items are pre-sorted, so that is also the smallest ID).
	min := 0
	for k, m := range members {
		if m < members[min] {
			min = k
		}
	}
	rotated := append(append([]int{}, members[min:]...), members[:min]...)

	key := make([]string, len(rotated))
	ids := make([]item.ID, len(rotated))
	names := make([]string, 0, len(rotated)+1)
	for k, m := range rotated {
		key[k] = fmt.Sprintf("%d", m)
		ids[k] = l.items[m].ID
		names = append(names, l.items[m].ID.String())
	}
	cycleKey := strings.Join(key, ">")
	if _, seen := l.cycleSeen[cycleKey]; seen {
		return
	}
	l.cycleSeen[cycleKey] = struct{}{}

	names = append(names, ids[0].String())
	d := NewDefect(DefectCircularCoverage,
		fmt.Sprintf("circular coverage: %s", strings.Join(names, " -> ")),
		ids...)
	l.addDefect(d, rotated...)
}

// assemble builds the immutable result: linked items in ID order and
// the merged, sorted defect list.
func (l *linker) assemble(importDefects []Defect) *Result {
	linked := make([]LinkedItem, len(l.items))
	for i, it := range l.items {
		linked[i] = LinkedItem{
			Item:      it,
			CoveredBy: l.coveredBy(i),
			Status:    l.status[i],
			Defects:   sortedDefects(l.perItem[i]),
		}
	}

	all := make([]Defect, 0, len(importDefects)+len(l.global))
	all = append(all, importDefects...)
	all = append(all, l.global...)
	all = sortedDefects(all)

	return newResult(linked, all)
}

// coveredBy returns the sorted, deduplicated IDs of the items covering
// node i.
func (l *linker) coveredBy(i int) []item.ID {
	if len(l.in[i]) == 0 {
		return nil
	}
	seen := make(map[item.ID]struct{}, len(l.in[i]))
	ids := make([]item.ID, 0, len(l.in[i]))
	for _, src := range l.in[i] {
		id := l.items[src].ID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a].Less(ids[b]) })
	return ids
}

func sortedDefects(defects []Defect) []Defect {
	if len(defects) == 0 {
		return nil
	}
	out := make([]Defect, len(defects))
	copy(out, defects)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Compare(out[j]) < 0
	})
	return out
}
