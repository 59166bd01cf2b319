package item

import "testing"

func TestParseID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ID
		wantErr bool
	}{
		{"full form", "req~user-login~1", ID{"req", "user-login", 1}, false},
		{"short form defaults revision", "req~user-login", ID{"req", "user-login", 1}, false},
		{"higher revision", "dsn~auth~12", ID{"dsn", "auth", 12}, false},
		{"dots and underscores in name", "impl~pkg.module_a~2", ID{"impl", "pkg.module_a", 2}, false},
		{"custom artifact type", "uman~handbook~1", ID{"uman", "handbook", 1}, false},
		{"surrounding whitespace", "  req~login~1  ", ID{"req", "login", 1}, false},
		{"empty", "", ID{}, true},
		{"no separators", "req", ID{}, true},
		{"too many separators", "req~a~1~extra", ID{}, true},
		{"empty type", "~name~1", ID{}, true},
		{"empty name", "req~~1", ID{}, true},
		{"non-numeric revision", "req~login~one", ID{}, true},
		{"zero revision", "req~login~0", ID{}, true},
		{"negative revision", "req~login~-1", ID{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseID(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestID_RoundTrip(t *testing.T) {
	// render(parse(text)) must reproduce the canonical text exactly.
	for _, text := range []string{
		"req~user-login~1",
		"dsn~validate-request~3",
		"utest~a.b_c-d~10",
	} {
		id, err := ParseID(text)
		if err != nil {
			t.Fatalf("ParseID(%q): %v", text, err)
		}
		if id.String() != text {
			t.Errorf("round trip of %q produced %q", text, id.String())
		}
	}
}

func TestID_ShortFormRenders(t *testing.T) {
	id, err := ParseID("req~login")
	if err != nil {
		t.Fatal(err)
	}
	if id.String() != "req~login~1" {
		t.Errorf("short form rendered %q, want req~login~1", id.String())
	}
}

func TestID_Compare(t *testing.T) {
	tests := []struct {
		name string
		a, b ID
		want int
	}{
		{"equal", ID{"req", "a", 1}, ID{"req", "a", 1}, 0},
		{"type orders first", ID{"dsn", "z", 9}, ID{"req", "a", 1}, -1},
		{"name orders second", ID{"req", "a", 9}, ID{"req", "b", 1}, -1},
		{"revision orders last", ID{"req", "a", 1}, ID{"req", "a", 2}, -1},
		{"reversed", ID{"req", "b", 1}, ID{"req", "a", 1}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("Compare() = %d, want %d", got, tt.want)
			}
		})
	}
}
