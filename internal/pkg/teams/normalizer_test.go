package teams

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalize(t *testing.T) {
	n := NewNormalizer(DefaultAliasTable())
	tests := []struct {
		in   string
		want string
	}{
		{"Duke", "Duke"},
		{"  Duke  ", "Duke"},
		{"Mississippi", "Ole Miss"},
		{"Saint Mary's", "Saint Marys"},
		{"Michigan St.", "Michigan State"},
		{"Sam Houston St.", "Sam Houston"},
		{"East Tennessee St.", "ETSU"},
		{"Grambling  St.", "Grambling"},
		{"UNC", "UNC"},
		{"St. John's", "State John's"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := n.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_InjectedTable(t *testing.T) {
	n := NewNormalizer(AliasTable{Aliases: map[string]string{"North Carolina": "UNC"}})
	if got := n.Normalize("North Carolina"); got != "UNC" {
		t.Errorf("Normalize = %q, want UNC", got)
	}
	// no default aliases leak into an injected table
	if got := n.Normalize("Mississippi"); got != "Mississippi" {
		t.Errorf("Normalize = %q, want Mississippi", got)
	}
	// no abbreviations configured
	if got := n.Normalize("Ohio St."); got != "Ohio St." {
		t.Errorf("Normalize = %q, want %q", got, "Ohio St.")
	}
}

func TestLoadAliasTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	data := `aliases:
  North Carolina: UNC
  Penn: Penn Quakers
abbreviations:
  - from: Univ.
    to: University
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := LoadAliasTable(path)
	if err != nil {
		t.Fatalf("LoadAliasTable: %v", err)
	}
	n := NewNormalizer(table)
	tests := []struct {
		in   string
		want string
	}{
		{"North Carolina", "UNC"},
		{"Penn", "Penn Quakers"},
		{"Mississippi", "Ole Miss"},
		{"Boston Univ.", "Boston University"},
		{"Iowa St.", "Iowa State"},
	}
	for _, tt := range tests {
		if got := n.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadAliasTable_Missing(t *testing.T) {
	if _, err := LoadAliasTable(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
