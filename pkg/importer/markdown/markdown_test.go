package markdown

import (
	"strings"
	"testing"

	"github.com/felixgeelhaar/reqtrace/pkg/domain/item"
	"github.com/felixgeelhaar/reqtrace/pkg/domain/trace"
)

func importDoc(t *testing.T, doc string) ([]item.SpecificationItem, []trace.Defect) {
	t.Helper()
	return New().Import("docs/spec.md", doc)
}

func TestImport_SingleItem(t *testing.T) {
	doc := strings.Join([]string{
		"# req~login~2",
		"",
		"## User Login",
		"",
		"Users authenticate with name and password.",
		"",
		"Needs: impl, utest",
		"Tags: auth, security",
	}, "\n")

	items, defects := importDoc(t, doc)
	if len(defects) != 0 {
		t.Fatalf("unexpected defects: %v", defects)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	got := items[0]
	if got.ID.String() != "req~login~2" {
		t.Errorf("id = %s, want req~login~2", got.ID)
	}
	if got.Title != "User Login" {
		t.Errorf("title = %q, want %q", got.Title, "User Login")
	}
	if got.Description != "Users authenticate with name and password." {
		t.Errorf("description = %q", got.Description)
	}
	if len(got.Needs) != 2 || got.Needs[0] != "impl" || got.Needs[1] != "utest" {
		t.Errorf("needs = %v, want [impl utest]", got.Needs)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "auth" {
		t.Errorf("tags = %v, want [auth security]", got.Tags)
	}
	if got.Origin.Path != "docs/spec.md" || got.Origin.Line != 1 {
		t.Errorf("origin = %s, want docs/spec.md:1", got.Origin)
	}
}

func TestImport_RevisionDefaultsToOne(t *testing.T) {
	items, defects := importDoc(t, "## req~session\n\nKeeps sessions alive.\n")
	if len(defects) != 0 {
		t.Fatalf("unexpected defects: %v", defects)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].ID.Revision != 1 {
		t.Errorf("revision = %d, want 1", items[0].ID.Revision)
	}
}

func TestImport_MultipleItemsAndBoundaries(t *testing.T) {
	doc := strings.Join([]string{
		"# req~first~1",
		"First body.",
		"",
		"# req~second~1",
		"Second body.",
	}, "\n")

	items, defects := importDoc(t, doc)
	if len(defects) != 0 {
		t.Fatalf("unexpected defects: %v", defects)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Description != "First body." {
		t.Errorf("first description = %q", items[0].Description)
	}
	if items[1].ID.Name != "second" || items[1].Origin.Line != 4 {
		t.Errorf("second item = %s at %s", items[1].ID, items[1].Origin)
	}
}

func TestImport_CoversInline(t *testing.T) {
	doc := strings.Join([]string{
		"# impl~login~1",
		"",
		"Covers: req~login~2, req~session~1",
	}, "\n")

	items, defects := importDoc(t, doc)
	if len(defects) != 0 {
		t.Fatalf("unexpected defects: %v", defects)
	}
	covers := items[0].Covers
	if len(covers) != 2 {
		t.Fatalf("covers = %v, want 2 entries", covers)
	}
	if covers[0].String() != "req~login~2" || covers[1].String() != "req~session~1" {
		t.Errorf("covers = %v", covers)
	}
}

func TestImport_CoversBulletList(t *testing.T) {
	doc := strings.Join([]string{
		"# impl~login~1",
		"",
		"Covers:",
		"",
		"- req~login~2",
		"* req~session~1",
		"",
		"More description after the list.",
	}, "\n")

	items, defects := importDoc(t, doc)
	if len(defects) != 0 {
		t.Fatalf("unexpected defects: %v", defects)
	}
	covers := items[0].Covers
	if len(covers) != 2 {
		t.Fatalf("covers = %v, want 2 entries", covers)
	}
	if !strings.Contains(items[0].Description, "More description after the list.") {
		t.Errorf("description lost trailing prose: %q", items[0].Description)
	}
}

func TestImport_BoldKeywordLines(t *testing.T) {
	doc := strings.Join([]string{
		"# req~export~1",
		"",
		"**Needs:** impl",
		"**Status**: draft",
	}, "\n")

	items, defects := importDoc(t, doc)
	if len(defects) != 0 {
		t.Fatalf("unexpected defects: %v", defects)
	}
	got := items[0]
	if len(got.Needs) != 1 || got.Needs[0] != "impl" {
		t.Errorf("needs = %v, want [impl]", got.Needs)
	}
	if got.Status != item.StatusDraft {
		t.Errorf("status = %s, want draft", got.Status)
	}
}

func TestImport_BacktickIDForm(t *testing.T) {
	doc := strings.Join([]string{
		"## Session Handling",
		"",
		"`req~session~1`",
		"",
		"Sessions expire after one hour.",
		"Needs: impl",
	}, "\n")

	items, defects := importDoc(t, doc)
	if len(defects) != 0 {
		t.Fatalf("unexpected defects: %v", defects)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	got := items[0]
	if got.ID.String() != "req~session~1" {
		t.Errorf("id = %s", got.ID)
	}
	if got.Title != "Session Handling" {
		t.Errorf("title = %q, want preceding heading text", got.Title)
	}
	if got.Origin.Line != 3 {
		t.Errorf("origin line = %d, want 3", got.Origin.Line)
	}
}

func TestImport_RationaleAndComment(t *testing.T) {
	doc := strings.Join([]string{
		"# req~audit~1",
		"Main description.",
		"",
		"Rationale:",
		"Regulators require an audit trail.",
		"",
		"Comment: see ticket 42",
	}, "\n")

	items, defects := importDoc(t, doc)
	if len(defects) != 0 {
		t.Fatalf("unexpected defects: %v", defects)
	}
	got := items[0]
	if got.Description != "Main description." {
		t.Errorf("description = %q", got.Description)
	}
	if got.Rationale != "Regulators require an audit trail." {
		t.Errorf("rationale = %q", got.Rationale)
	}
	if got.Comment != "see ticket 42" {
		t.Errorf("comment = %q", got.Comment)
	}
}

func TestImport_DependsList(t *testing.T) {
	doc := strings.Join([]string{
		"# req~report~1",
		"Depends: req~export~1",
	}, "\n")

	items, defects := importDoc(t, doc)
	if len(defects) != 0 {
		t.Fatalf("unexpected defects: %v", defects)
	}
	if len(items[0].Depends) != 1 || items[0].Depends[0].String() != "req~export~1" {
		t.Errorf("depends = %v", items[0].Depends)
	}
}

func TestImport_ParseFailures(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantLine int
	}{
		{
			name:     "bad covers entry",
			doc:      "# impl~a~1\nCovers: not-an-id\n",
			wantLine: 2,
		},
		{
			name:     "bad covers revision",
			doc:      "# impl~a~1\nCovers: req~x~zero\n",
			wantLine: 2,
		},
		{
			name:     "invalid status",
			doc:      "# req~a~1\nStatus: finished\n",
			wantLine: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, defects := importDoc(t, tt.doc)
			if len(items) != 1 {
				t.Fatalf("expected the item to survive, got %d items", len(items))
			}
			if len(defects) != 1 {
				t.Fatalf("expected 1 defect, got %v", defects)
			}
			d := defects[0]
			if d.Kind != trace.DefectParseFailure {
				t.Errorf("kind = %s, want %s", d.Kind, trace.DefectParseFailure)
			}
			if d.Origin.Path != "docs/spec.md" || d.Origin.Line != tt.wantLine {
				t.Errorf("origin = %s, want docs/spec.md:%d", d.Origin, tt.wantLine)
			}
		})
	}
}

func TestImport_ProseHeadingsAreNotBoundaries(t *testing.T) {
	doc := strings.Join([]string{
		"# req~tilde~1",
		"",
		"## Notes on a~b formatting",
		"",
		"Tilde characters in prose headings stay description text.",
	}, "\n")

	items, defects := importDoc(t, doc)
	if len(defects) != 0 {
		t.Fatalf("unexpected defects: %v", defects)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if !strings.Contains(items[0].Description, "Tilde characters") {
		t.Errorf("description = %q", items[0].Description)
	}
}

func TestImport_TextBeforeFirstItemIgnored(t *testing.T) {
	doc := strings.Join([]string{
		"# Introduction",
		"",
		"This document lists requirements.",
		"",
		"# req~only~1",
		"Body.",
	}, "\n")

	items, defects := importDoc(t, doc)
	if len(defects) != 0 {
		t.Fatalf("unexpected defects: %v", defects)
	}
	if len(items) != 1 || items[0].ID.Name != "only" {
		t.Fatalf("items = %v", items)
	}
}
