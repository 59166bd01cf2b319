package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/felixgeelhaar/reqtrace/pkg/domain/item"
	"github.com/felixgeelhaar/reqtrace/pkg/domain/trace"
)

//go:embed templates/*
var templatesFS embed.FS

// Anchor converts an id into a fragment identifier usable in URLs.
func Anchor(id item.ID) string {
	return strings.ReplaceAll(id.String(), "~", "_")
}

// PageData holds data for template rendering.
type PageData struct {
	Title   string
	Result  *trace.Result
	Types   []string
	Defects []trace.Defect
}

func htmlFuncs() template.FuncMap {
	return template.FuncMap{
		"anchor":     Anchor,
		"linkify":    linkify,
		"percentage": func(p float64) string { return fmt.Sprintf("%.1f%%", p) },
		"statusClass": func(s trace.CoverageStatus) string {
			switch s {
			case trace.StatusFullyCovered:
				return "covered"
			case trace.StatusPartiallyCovered:
				return "partial"
			case trace.StatusOrphan:
				return "orphan"
			default:
				return "uncovered"
			}
		},
	}
}

// linkify escapes a defect message and turns every mentioned id into
// a link to that item's anchor. Ids are swapped for placeholders
// first, longest id first, so an id that prefixes another is never
// split by a second pass.
func linkify(d trace.Defect) template.HTML {
	escaped := template.HTMLEscapeString(d.Message)

	seen := make(map[item.ID]bool)
	var ids []item.ID
	for _, id := range d.Related {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return len(ids[i].String()) > len(ids[j].String())
	})

	for i, id := range ids {
		escaped = strings.ReplaceAll(escaped, template.HTMLEscapeString(id.String()),
			fmt.Sprintf("\x00%d\x00", i))
	}
	for i, id := range ids {
		link := fmt.Sprintf("<a href=\"#%s\">%s</a>",
			Anchor(id), template.HTMLEscapeString(id.String()))
		escaped = strings.ReplaceAll(escaped, fmt.Sprintf("\x00%d\x00", i), link)
	}
	return template.HTML(escaped) // #nosec G203 -- message escaped above
}

// HTML renders the full report document.
func HTML(result *trace.Result) ([]byte, error) {
	tmpl, err := template.New("").Funcs(htmlFuncs()).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	data := PageData{
		Title:   "Traceability Report",
		Result:  result,
		Types:   result.ArtifactTypes(),
		Defects: result.Defects,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "report.html", data); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}
