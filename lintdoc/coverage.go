package lintdoc

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// docNameRE matches documentation resources named <ruleID>_<language>.<ext>.
var docNameRE = regexp.MustCompile(`^([A-Z]+\d+)_.+`)

// MismatchKind tells which side of the rule/doc mapping is missing.
type MismatchKind int

const (
	// Undocumented is a rule without documentation resource.
	Undocumented MismatchKind = iota
	// StaleDoc is a documentation resource without rule.
	StaleDoc
)

func (k MismatchKind) String() string {
	switch k {
	case Undocumented:
		return "undocumented rule"
	case StaleDoc:
		return "documentation without rule"
	default:
		return fmt.Sprintf("MismatchKind(%d)", int(k))
	}
}

// Mismatch is a rule ID present on one side only.
type Mismatch struct {
	ID   string
	Kind MismatchKind
}

func (m Mismatch) String() string {
	return m.ID + ": " + m.Kind.String()
}

// CheckCoverage compares rule IDs with the documentation files in dir.
func CheckCoverage(ids []string, dir string) ([]Mismatch, error) {
	return CheckCoverageFs(afero.NewOsFs(), ids, dir, "")
}

// CheckCoverageFs is like CheckCoverage for an arbitrary filesystem.
// Only files with the given extension are considered; an empty ext
// accepts any. Mismatches are ordered by ID.
func CheckCoverageFs(fs afero.Fs, ids []string, dir, ext string) ([]Mismatch, error) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("list documentation: %w", err)
	}
	var docIDs []string
	seen := make(map[string]bool)
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || (ext != "" && filepath.Ext(name) != ext) {
			continue
		}
		m := docNameRE.FindStringSubmatch(strings.TrimSuffix(name, filepath.Ext(name)))
		if m == nil || seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		docIDs = append(docIDs, m[1])
	}
	return diffIDs(ids, docIDs), nil
}

// diffIDs merges two sorted ID lists.
func diffIDs(ruleIDs, docIDs []string) []Mismatch {
	rules := uniqueSorted(ruleIDs)
	docs := uniqueSorted(docIDs)

	var mismatches []Mismatch
	i, j := 0, 0
	for i < len(rules) || j < len(docs) {
		switch {
		case j == len(docs) || (i < len(rules) && rules[i] < docs[j]):
			mismatches = append(mismatches, Mismatch{ID: rules[i], Kind: Undocumented})
			i++
		case i == len(rules) || docs[j] < rules[i]:
			mismatches = append(mismatches, Mismatch{ID: docs[j], Kind: StaleDoc})
			j++
		default:
			i++
			j++
		}
	}
	return mismatches
}

func uniqueSorted(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	n := 0
	for i, id := range out {
		if i == 0 || id != out[n-1] {
			out[n] = id
			n++
		}
	}
	return out[:n]
}
