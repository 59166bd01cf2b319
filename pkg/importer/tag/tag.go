// Package tag scans source-code text for embedded traceability tags
// and emits specification items. Matching is line-oriented and
// comment-syntax-agnostic: a tag is recognized wherever its bracket
// pattern occurs.
package tag

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/felixgeelhaar/reqtrace/pkg/domain/item"
	"github.com/felixgeelhaar/reqtrace/pkg/domain/trace"
)

var (
	// Full tag: [impl->dsn~validate-request~1] with an optional needs
	// suffix [dsn->feat~login~1>>impl,utest]. The referenced id must
	// carry a tilde so arrow expressions in ordinary source text, such
	// as arr[p->next], are never mistaken for tags.
	fullTagRe = regexp.MustCompile(`\[([A-Za-z][A-Za-z0-9]*)\s*->\s*([A-Za-z][A-Za-z0-9]*~[^\[\]]+?)\]`)
	// Short tag: [[dsn~validate-request~1:impl]]. The tilde requirement
	// keeps attribute and wiki-style double brackets out.
	shortTagRe = regexp.MustCompile(`\[\[([A-Za-z][A-Za-z0-9]*~[^\[\]:]+?)\s*:\s*([A-Za-z][A-Za-z0-9]*)\]\]`)
	// Covers-only tag: [covers:dsn~validate-request~1]; the covering
	// artifact type is implied by file context.
	coversTagRe = regexp.MustCompile(`\[covers:([^\[\]]*)\]`)

	// Patterns that look like tag attempts; anything they match outside
	// a recognized tag is reported as a parse failure. Each requires a
	// tilde-bearing id, or an explicitly empty one, so that bracket
	// constructs from other languages pass through silently.
	attemptRes = []*regexp.Regexp{
		regexp.MustCompile(`\[\s*[A-Za-z][A-Za-z0-9]*\s*->\s*[^\[\]]*~`),
		regexp.MustCompile(`\[\s*[A-Za-z][A-Za-z0-9]*\s*->\s*\]`),
		regexp.MustCompile(`\[\[[^\[\]]*~`),
	}

	nameSanitizer = regexp.MustCompile(`[^A-Za-z0-9]+`)
)

// ImpliedType maps a file-path fragment to the artifact type implied
// for covers-only tags in matching files.
type ImpliedType struct {
	PathContains string
	Type         string
}

// DefaultImplied returns the built-in file-context rules: Go-style unit
// test files imply utest, integration test trees imply itest.
func DefaultImplied() []ImpliedType {
	return []ImpliedType{
		{PathContains: "_test.", Type: "utest"},
		{PathContains: "itest", Type: "itest"},
		{PathContains: "integration", Type: "itest"},
	}
}

// Importer extracts specification items from source text. It is
// stateless apart from its configuration and safe for concurrent use.
type Importer struct {
	implied []ImpliedType
}

// New creates a tag importer with the given file-context rules. With no
// rules, covers-only tags always produce parse failures.
func New(implied ...ImpliedType) *Importer {
	return &Importer{implied: implied}
}

// Import scans the contents of one source file. A malformed tag yields
// a parse-failure defect for its location and scanning continues; one
// bad tag never aborts the file.
func (im *Importer) Import(path, contents string) ([]item.SpecificationItem, []trace.Defect) {
	var items []item.SpecificationItem
	var defects []trace.Defect

	for lineNo, line := range strings.Split(contents, "\n") {
		lineItems, lineDefects := im.scanLine(path, line, lineNo+1)
		items = append(items, lineItems...)
		defects = append(defects, lineDefects...)
	}

	return items, defects
}

// match is one recognized bracket occurrence, ordered by position so
// that the per-line sequence number is stable.
type match struct {
	start, end int
	build      func(seq int) (item.SpecificationItem, *trace.Defect)
}

func (im *Importer) scanLine(path, line string, lineNo int) ([]item.SpecificationItem, []trace.Defect) {
	var matches []match

	for _, loc := range fullTagRe.FindAllStringSubmatchIndex(line, -1) {
		leftType := line[loc[2]:loc[3]]
		rhs := line[loc[4]:loc[5]]
		matches = append(matches, match{start: loc[0], end: loc[1], build: func(seq int) (item.SpecificationItem, *trace.Defect) {
			return im.buildFullTag(path, lineNo, seq, leftType, rhs)
		}})
	}
	for _, loc := range shortTagRe.FindAllStringSubmatchIndex(line, -1) {
		idText := line[loc[2]:loc[3]]
		rightType := line[loc[4]:loc[5]]
		matches = append(matches, match{start: loc[0], end: loc[1], build: func(seq int) (item.SpecificationItem, *trace.Defect) {
			return im.buildCoveringItem(path, lineNo, seq, rightType, idText, nil)
		}})
	}
	for _, loc := range coversTagRe.FindAllStringSubmatchIndex(line, -1) {
		idText := line[loc[2]:loc[3]]
		matches = append(matches, match{start: loc[0], end: loc[1], build: func(seq int) (item.SpecificationItem, *trace.Defect) {
			return im.buildCoversOnly(path, lineNo, seq, idText)
		}})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].start < matches[j].start })

	var items []item.SpecificationItem
	var defects []trace.Defect
	seq := 0
	for _, m := range matches {
		it, defect := m.build(seq)
		if defect != nil {
			defects = append(defects, *defect)
			continue
		}
		items = append(items, it)
		seq++
	}

	defects = append(defects, im.findMalformed(path, line, lineNo, matches)...)
	return items, defects
}

// buildFullTag handles [type->id] and [type->id>>needs].
func (im *Importer) buildFullTag(path string, lineNo, seq int, leftType, rhs string) (item.SpecificationItem, *trace.Defect) {
	idText := rhs
	var needs []string
	if at := strings.Index(rhs, ">>"); at >= 0 {
		idText = rhs[:at]
		needs = splitList(rhs[at+2:])
	}
	return im.buildCoveringItem(path, lineNo, seq, leftType, idText, needs)
}

// buildCoveringItem creates the synthetic item a tag stands for: its
// own auto-generated ID and a single covers entry.
func (im *Importer) buildCoveringItem(path string, lineNo, seq int, artifactType, idText string, needs []string) (item.SpecificationItem, *trace.Defect) {
	covered, err := item.ParseID(idText)
	if err != nil {
		d := trace.NewParseFailure(fmt.Sprintf("malformed tag: %v", err), path, lineNo)
		return item.SpecificationItem{}, &d
	}

	id := item.NewID(artifactType, syntheticName(artifactType, path, lineNo, seq), 1)
	it := item.New(id).
		WithCovers(covered).
		WithNeeds(needs...).
		WithOrigin(path, lineNo)
	return it, nil
}

// buildCoversOnly handles [covers:id], inferring the covering artifact
// type from the file context rules.
func (im *Importer) buildCoversOnly(path string, lineNo, seq int, idText string) (item.SpecificationItem, *trace.Defect) {
	implied := ""
	for _, rule := range im.implied {
		if strings.Contains(path, rule.PathContains) {
			implied = rule.Type
			break
		}
	}
	if implied == "" {
		d := trace.NewParseFailure(
			fmt.Sprintf("covers tag %q: cannot infer covering artifact type from file context", idText),
			path, lineNo)
		return item.SpecificationItem{}, &d
	}
	return im.buildCoveringItem(path, lineNo, seq, implied, idText, nil)
}

// findMalformed reports bracket sequences that look like tag attempts
// but were not recognized, e.g. an unclosed [impl-> bracket.
func (im *Importer) findMalformed(path, line string, lineNo int, recognized []match) []trace.Defect {
	var defects []trace.Defect
	for _, re := range attemptRes {
		for _, loc := range re.FindAllStringIndex(line, -1) {
			inside := false
			for _, m := range recognized {
				if loc[0] >= m.start && loc[0] < m.end {
					inside = true
					break
				}
			}
			if !inside {
				defects = append(defects, trace.NewParseFailure(
					fmt.Sprintf("malformed tag near %q: unbalanced or incomplete bracket", strings.TrimSpace(line[loc[0]:])),
					path, lineNo))
			}
		}
	}
	return defects
}

// syntheticName builds the auto-generated item name
// "{type}_{sanitizedPath}_{line}_{n}". The name is internal: it
// participates in identity and ordering but is not a user-facing
// requirement name.
func syntheticName(artifactType, path string, lineNo, seq int) string {
	sanitized := strings.Trim(nameSanitizer.ReplaceAllString(path, "_"), "_")
	return fmt.Sprintf("%s_%s_%d_%d", artifactType, sanitized, lineNo, seq)
}

func splitList(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
