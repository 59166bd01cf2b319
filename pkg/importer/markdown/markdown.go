// Package markdown parses markdown specification documents into
// specification items, following OpenFastTrace conventions: id
// headings open items, keyword lines declare coverage relations, and
// everything else is description prose.
package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/reqtrace/pkg/domain/item"
	"github.com/felixgeelhaar/reqtrace/pkg/domain/trace"
)

var (
	headingRe = regexp.MustCompile(`^(#{1,6})\s+(.*?)\s*$`)
	// An item boundary is a heading (or a standalone backtick line)
	// whose text is exactly an id: a short alphanumeric artifact type,
	// a name without whitespace, and an optional numeric revision.
	idTextRe   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*~[^~\s]+(~[0-9]+)?$`)
	backtickRe = regexp.MustCompile("^`([^`]+)`$")
	keywordRe  = regexp.MustCompile(`(?i)^\s*\*{0,2}(needs|covers|tags|depends|status|title|rationale|comment)\*{0,2}\s*:\s*\*{0,2}\s*(.*?)\s*\*{0,2}\s*$`)
	bulletRe   = regexp.MustCompile(`^\s*[-*+]\s+(.*?)\s*$`)
)

// Importer parses markdown text. Stateless and safe for concurrent use.
type Importer struct{}

// New creates a markdown importer.
func New() *Importer {
	return &Importer{}
}

// Import parses one markdown document. Documents may declare any
// number of items; duplicate ids within or across documents are left
// for the linker to report.
func (im *Importer) Import(path, contents string) ([]item.SpecificationItem, []trace.Defect) {
	p := &parser{path: path}
	for lineNo, line := range strings.Split(contents, "\n") {
		p.consume(line, lineNo+1)
	}
	p.close()
	return p.items, p.defects
}

// section identifies where free text of the open item accumulates.
type section int

const (
	sectionDescription section = iota
	sectionRationale
	sectionComment
)

type parser struct {
	path    string
	items   []item.SpecificationItem
	defects []trace.Defect

	open        bool
	current     item.SpecificationItem
	level       int // heading level that opened the item; 0 for backtick form
	section     section
	listTarget  string // "covers" or "depends" while a bullet list is active
	sawProse    bool
	description []string
	rationale   []string
	comment     []string

	lastHeading string // most recent heading text, title for backtick items
}

func (p *parser) consume(line string, lineNo int) {
	if m := headingRe.FindStringSubmatch(line); m != nil {
		p.heading(len(m[1]), m[2], lineNo)
		return
	}

	trimmed := strings.TrimSpace(line)
	if m := backtickRe.FindStringSubmatch(trimmed); m != nil && idTextRe.MatchString(m[1]) {
		p.openItem(m[1], 0, lineNo)
		if p.open && p.lastHeading != "" {
			p.current.Title = p.lastHeading
		}
		return
	}

	if !p.open {
		return
	}

	if m := keywordRe.FindStringSubmatch(line); m != nil {
		p.keyword(strings.ToLower(m[1]), m[2], lineNo)
		return
	}

	if p.listTarget != "" {
		if m := bulletRe.FindStringSubmatch(line); m != nil {
			p.listEntry(m[1], lineNo)
			return
		}
		if trimmed != "" {
			p.listTarget = ""
		}
	}

	p.prose(line)
}

// heading handles the three roles a heading can play: item boundary,
// title for the just-opened item, or plain description text.
func (p *parser) heading(level int, text string, lineNo int) {
	if idTextRe.MatchString(text) {
		p.openItem(text, level, lineNo)
		return
	}

	p.lastHeading = text

	if p.open && p.current.Title == "" && !p.sawProse && level == p.level+1 {
		p.current.Title = text
		return
	}
	if p.open {
		// A non-id heading is not a boundary: it joins the open item's
		// description.
		p.prose(text)
	}
}

func (p *parser) openItem(idText string, level, lineNo int) {
	id, err := item.ParseID(idText)
	if err != nil {
		// The boundary grammar guarantees parseability; treat failure
		// as an attempt worth surfacing rather than silent prose.
		p.defects = append(p.defects, trace.NewParseFailure(
			fmt.Sprintf("heading %q looks like an item id but does not parse: %v", idText, err),
			p.path, lineNo))
		return
	}

	p.close()
	p.open = true
	p.current = item.New(id).WithOrigin(p.path, lineNo)
	p.level = level
	p.section = sectionDescription
	p.listTarget = ""
	p.sawProse = false
	p.description = nil
	p.rationale = nil
	p.comment = nil
}

func (p *parser) keyword(name, rest string, lineNo int) {
	p.listTarget = ""
	switch name {
	case "needs":
		p.current.Needs = append(p.current.Needs, splitList(rest)...)
	case "tags":
		p.current.Tags = append(p.current.Tags, splitList(rest)...)
	case "title":
		p.current.Title = rest
	case "covers":
		if rest == "" {
			p.listTarget = "covers"
			return
		}
		p.idList(rest, "covers", lineNo)
	case "depends":
		if rest == "" {
			p.listTarget = "depends"
			return
		}
		p.idList(rest, "depends", lineNo)
	case "status":
		status, ok := item.ParseStatus(rest)
		if !ok {
			p.defects = append(p.defects, trace.NewParseFailure(
				fmt.Sprintf("invalid status %q for item %s", rest, p.current.ID),
				p.path, lineNo))
			return
		}
		p.current.Status = status
	case "rationale":
		p.section = sectionRationale
		if rest != "" {
			p.rationale = append(p.rationale, rest)
		}
	case "comment":
		p.section = sectionComment
		if rest != "" {
			p.comment = append(p.comment, rest)
		}
	}
}

// idList parses a comma-separated list of ids for a Covers or Depends
// line. An unparseable entry is a parse failure, not a silent skip.
func (p *parser) idList(csv, target string, lineNo int) {
	for _, entry := range splitList(csv) {
		p.addID(entry, target, lineNo)
	}
}

func (p *parser) listEntry(text string, lineNo int) {
	p.addID(text, p.listTarget, lineNo)
}

func (p *parser) addID(text, target string, lineNo int) {
	id, err := item.ParseID(text)
	if err != nil {
		p.defects = append(p.defects, trace.NewParseFailure(
			fmt.Sprintf("invalid id %q in %s list of item %s: %v", text, target, p.current.ID, err),
			p.path, lineNo))
		return
	}
	switch target {
	case "covers":
		p.current.Covers = append(p.current.Covers, id)
	case "depends":
		p.current.Depends = append(p.current.Depends, id)
	}
}

func (p *parser) prose(line string) {
	if strings.TrimSpace(line) != "" {
		p.sawProse = true
	}
	switch p.section {
	case sectionRationale:
		p.rationale = append(p.rationale, line)
	case sectionComment:
		p.comment = append(p.comment, line)
	default:
		p.description = append(p.description, line)
	}
}

// close finalizes the open item, if any, and appends it to the output.
func (p *parser) close() {
	if !p.open {
		return
	}
	p.current.Description = joinProse(p.description)
	p.current.Rationale = joinProse(p.rationale)
	p.current.Comment = joinProse(p.comment)
	p.items = append(p.items, p.current)
	p.open = false
}

func joinProse(lines []string) string {
	return strings.TrimSpace(strings.Join(lines, "\n"))
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
