package tag

import (
	"strings"
	"testing"

	"github.com/felixgeelhaar/reqtrace/pkg/domain/item"
	"github.com/felixgeelhaar/reqtrace/pkg/domain/trace"
)

func TestImport_FullTag(t *testing.T) {
	im := New()
	items, defects := im.Import("src/auth.go", "// [impl->dsn~validate-request~1]")

	if len(defects) != 0 {
		t.Fatalf("unexpected defects: %v", defects)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}

	it := items[0]
	if it.ID.Type != "impl" {
		t.Errorf("type = %s, want impl", it.ID.Type)
	}
	if len(it.Covers) != 1 || it.Covers[0] != item.NewID("dsn", "validate-request", 1) {
		t.Errorf("covers = %v", it.Covers)
	}
	if it.Origin != (item.Origin{Path: "src/auth.go", Line: 1}) {
		t.Errorf("origin = %v", it.Origin)
	}
}

func TestImport_SyntheticName(t *testing.T) {
	im := New()
	items, _ := im.Import("src/auth.go", "\n\n// [impl->req~login~1] [utest->req~login~1]")

	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if got := items[0].ID.Name; got != "impl_src_auth_go_3_0" {
		t.Errorf("first name = %q", got)
	}
	if got := items[1].ID.Name; got != "utest_src_auth_go_3_1" {
		t.Errorf("second name = %q", got)
	}
	if items[0].ID.Revision != 1 {
		t.Errorf("synthetic revision = %d, want 1", items[0].ID.Revision)
	}
}

func TestImport_ShortTag(t *testing.T) {
	im := New()
	items, defects := im.Import("src/auth.go", "# [[req~login~1:impl]]")

	if len(defects) != 0 {
		t.Fatalf("unexpected defects: %v", defects)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if items[0].ID.Type != "impl" {
		t.Errorf("type = %s", items[0].ID.Type)
	}
	if items[0].Covers[0] != item.NewID("req", "login", 1) {
		t.Errorf("covers = %v", items[0].Covers)
	}
}

func TestImport_ShortTagRevisionDefaults(t *testing.T) {
	im := New()
	items, defects := im.Import("a.c", "/* [[req~login:impl]] */")

	if len(defects) != 0 {
		t.Fatalf("unexpected defects: %v", defects)
	}
	if items[0].Covers[0].Revision != 1 {
		t.Errorf("revision = %d, want 1", items[0].Covers[0].Revision)
	}
}

func TestImport_CoversTag(t *testing.T) {
	im := New(DefaultImplied()...)

	t.Run("unit test file implies utest", func(t *testing.T) {
		items, defects := im.Import("pkg/auth/auth_test.go", "// [covers:dsn~validate~1]")
		if len(defects) != 0 {
			t.Fatalf("unexpected defects: %v", defects)
		}
		if items[0].ID.Type != "utest" {
			t.Errorf("type = %s, want utest", items[0].ID.Type)
		}
	})

	t.Run("integration tree implies itest", func(t *testing.T) {
		items, defects := im.Import("itest/login.py", "# [covers:req~login~1]")
		if len(defects) != 0 {
			t.Fatalf("unexpected defects: %v", defects)
		}
		if items[0].ID.Type != "itest" {
			t.Errorf("type = %s, want itest", items[0].ID.Type)
		}
	})

	t.Run("unimplied context is a parse failure", func(t *testing.T) {
		items, defects := im.Import("src/main.go", "// [covers:req~login~1]")
		if len(items) != 0 {
			t.Errorf("unexpected items: %v", items)
		}
		if len(defects) != 1 || defects[0].Kind != trace.DefectParseFailure {
			t.Fatalf("defects = %v, want one parse failure", defects)
		}
		if defects[0].Origin.Line != 1 {
			t.Errorf("defect origin = %v", defects[0].Origin)
		}
	})
}

func TestImport_NeedsSuffix(t *testing.T) {
	im := New()
	items, defects := im.Import("arch.adl", "[dsn->feat~login~1>>impl, utest]")

	if len(defects) != 0 {
		t.Fatalf("unexpected defects: %v", defects)
	}
	it := items[0]
	if len(it.Needs) != 2 || it.Needs[0] != "impl" || it.Needs[1] != "utest" {
		t.Errorf("needs = %v", it.Needs)
	}
	if it.Covers[0] != item.NewID("feat", "login", 1) {
		t.Errorf("covers = %v", it.Covers)
	}
}

func TestImport_MultipleTagsPerLine(t *testing.T) {
	im := New()
	line := "// [impl->req~a~1] plus [[req~b~1:impl]] plus [impl->req~c~2]"
	items, defects := im.Import("x.go", line)

	if len(defects) != 0 {
		t.Fatalf("unexpected defects: %v", defects)
	}
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}
	// Sequence numbers follow left-to-right position.
	names := make(map[string]bool)
	for _, it := range items {
		names[it.ID.Name] = true
	}
	if len(names) != 3 {
		t.Errorf("synthetic names not unique: %v", names)
	}
}

func TestImport_MalformedTags(t *testing.T) {
	im := New()
	tests := []struct {
		name string
		line string
	}{
		{"unclosed full tag", "// [impl->dsn~x~1"},
		{"empty id", "// [impl->]"},
		{"bad revision", "// [impl->dsn~x~banana]"},
		{"unclosed short tag", "// [[req~x~1:impl]"},
		{"bad revision in short tag", "// [[req~x~banana:impl]]"},
		{"empty covers", "// [covers:]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, defects := im.Import("src/a.go", tt.line)
			if len(items) != 0 {
				t.Errorf("unexpected items: %v", items)
			}
			if len(defects) == 0 {
				t.Fatal("expected a parse-failure defect")
			}
			for _, d := range defects {
				if d.Kind != trace.DefectParseFailure {
					t.Errorf("kind = %v, want parse-failure", d.Kind)
				}
				if d.Origin.Path != "src/a.go" || d.Origin.Line != 1 {
					t.Errorf("origin = %v", d.Origin)
				}
			}
		})
	}
}

func TestImport_BadTagDoesNotAbortScan(t *testing.T) {
	im := New()
	contents := strings.Join([]string{
		"// [impl->req~a~1]",
		"// [impl->req~broken",
		"// [impl->req~b~1]",
	}, "\n")

	items, defects := im.Import("x.go", contents)

	if len(items) != 2 {
		t.Errorf("items = %d, want 2 despite the malformed line", len(items))
	}
	if len(defects) != 1 {
		t.Errorf("defects = %d, want 1", len(defects))
	}
}

func TestImport_PlainTextYieldsNothing(t *testing.T) {
	im := New()
	items, defects := im.Import("x.go", "func main() {\n\t// plain comment [not a tag]\n}")

	if len(items) != 0 || len(defects) != 0 {
		t.Errorf("items = %v, defects = %v, want none", items, defects)
	}
}

func TestImport_ForeignBracketsYieldNothing(t *testing.T) {
	im := New()
	tests := []struct {
		name string
		line string
	}{
		{"c arrow subscript", "x = arr[p->next];"},
		{"go array-key map type", "var m map[[2]int]bool"},
		{"wiki link", "see the [[wiki]] page"},
		{"cpp attribute", "[[nodiscard]] int parse();"},
		{"arrow without id", "// [impl->notanid]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, defects := im.Import("src/a.cc", tt.line)
			if len(items) != 0 {
				t.Errorf("unexpected items: %v", items)
			}
			if len(defects) != 0 {
				t.Errorf("unexpected defects: %v", defects)
			}
		})
	}
}
