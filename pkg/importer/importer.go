// Package importer dispatches artifact files to the format-specific
// importers and merges their results.
package importer

import (
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/reqtrace/pkg/domain/item"
	"github.com/felixgeelhaar/reqtrace/pkg/domain/trace"
	"github.com/felixgeelhaar/reqtrace/pkg/importer/markdown"
	"github.com/felixgeelhaar/reqtrace/pkg/importer/tag"
)

// FileKind selects the parsing grammar applied to a file.
type FileKind string

const (
	// KindMarkdown parses id headings and keyword lines.
	KindMarkdown FileKind = "markdown"
	// KindSource scans for coverage tags in arbitrary text.
	KindSource FileKind = "source"
)

// KindForPath maps a file extension to its grammar. Markdown
// documents carry specification items; everything else is scanned as
// source text.
func KindForPath(path string) FileKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return KindMarkdown
	default:
		return KindSource
	}
}

// Importer routes files to the markdown and tag importers.
type Importer struct {
	markdown *markdown.Importer
	tags     *tag.Importer
}

// New creates an importer with the given implied-type rules for
// covers-only tags. With no rules, the built-in defaults apply.
func New(implied ...tag.ImpliedType) *Importer {
	if len(implied) == 0 {
		implied = tag.DefaultImplied()
	}
	return &Importer{
		markdown: markdown.New(),
		tags:     tag.New(implied...),
	}
}

// ImportFile parses one file according to its kind. Parse problems
// surface as defects alongside the items that did parse.
func (im *Importer) ImportFile(path, contents string, kind FileKind) ([]item.SpecificationItem, []trace.Defect) {
	switch kind {
	case KindMarkdown:
		return im.markdown.Import(path, contents)
	default:
		return im.tags.Import(path, contents)
	}
}
