package teams

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Expansion rewrites an abbreviation token to its full word, e.g. "St." -> "State".
type Expansion struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// AliasTable maps source-specific names to canonical names.
type AliasTable struct {
	Aliases       map[string]string `yaml:"aliases"`
	Abbreviations []Expansion       `yaml:"abbreviations"`
}

// DefaultAliasTable returns the built-in table for NCAA basketball names
// as they appear on DraftKings and KenPom.
func DefaultAliasTable() AliasTable {
	return AliasTable{
		Aliases: map[string]string{
			"East Tennessee State": "ETSU",
			"Army":                 "Army West Point",
			"Penn":                 "Pennsylvania",
			"Mississippi":          "Ole Miss",
			"Bethune Cookman":      "Bethune-Cookman",
			"Louisiana Monroe":     "ULM",
			"UMKC":                 "Kansas City",
			"Grambling State":      "Grambling",
			"SIU Edwardsville":     "SIUE",
			"Incarnate Word":       "UIW",
			"Sam Houston State":    "Sam Houston",
			"UT Rio Grande Valley": "UTRGV",
			"Saint Mary's":         "Saint Marys",
			"Arkansas Pine Bluff":  "Arkansas-Pine Bluff",
			"Loyola MD":            "Loyola Maryland",
			"Southern Miss":        "Southern Mississippi",
			"Louisiana":            "Louisiana-Lafayette",
		},
		Abbreviations: []Expansion{
			{From: "St.", To: "State"},
		},
	}
}

// LoadAliasTable reads an alias table from a YAML file. Entries extend the defaults;
// a file entry with the same key wins.
func LoadAliasTable(path string) (AliasTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AliasTable{}, fmt.Errorf("failed to read alias file: %w", err)
	}
	var fromFile AliasTable
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return AliasTable{}, fmt.Errorf("failed to parse alias file: %w", err)
	}

	table := DefaultAliasTable()
	for k, v := range fromFile.Aliases {
		table.Aliases[k] = v
	}
	for _, e := range fromFile.Abbreviations {
		if e.From != "" && !hasExpansion(table.Abbreviations, e.From) {
			table.Abbreviations = append(table.Abbreviations, e)
		}
	}
	return table, nil
}

func hasExpansion(list []Expansion, from string) bool {
	for _, e := range list {
		if e.From == from {
			return true
		}
	}
	return false
}

// Normalizer maps raw names to canonical names. Safe for concurrent use after construction.
type Normalizer struct {
	aliases map[string]string
	expand  map[string]string
}

func NewNormalizer(table AliasTable) *Normalizer {
	n := &Normalizer{
		aliases: make(map[string]string, len(table.Aliases)),
		expand:  make(map[string]string, len(table.Abbreviations)),
	}
	for k, v := range table.Aliases {
		n.aliases[clean(k)] = v
	}
	for _, e := range table.Abbreviations {
		n.expand[e.From] = e.To
	}
	return n
}

// Normalize returns the canonical name for raw. Names not in the table come back cleaned
// but otherwise unchanged.
func (n *Normalizer) Normalize(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	for i, f := range fields {
		if to, ok := n.expand[f]; ok {
			fields[i] = to
		}
	}
	name := strings.Join(fields, " ")
	if canonical, ok := n.aliases[name]; ok {
		return canonical
	}
	return name
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
