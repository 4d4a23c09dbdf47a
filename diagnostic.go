package rulepack

import (
	"fmt"
	"go/ast"
)

// Location is a source range inside one file.
//
// Start and End are byte offsets; Line and Column describe Start and
// exist for presentation only.
type Location struct {
	File   string
	Start  int
	End    int
	Line   int
	Column int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// SameRange reports whether l and other denote the same range.
func (l Location) SameRange(other Location) bool {
	return l.File == other.File && l.Start == other.Start && l.End == other.End
}

// Less orders locations by file, then start and end offsets.
func (l Location) Less(other Location) bool {
	if l.File != other.File {
		return l.File < other.File
	}
	if l.Start != other.Start {
		return l.Start < other.Start
	}
	return l.End < other.End
}

// Secondary is an additional location attached to a diagnostic.
type Secondary struct {
	Location Location
	Message  string
}

// Diagnostic is a single rule finding.
//
// Two diagnostics are the same finding when they share rule ID and
// primary location; see SameAs.
type Diagnostic struct {
	RuleID    string
	Severity  Severity
	Location  Location
	Message   string
	Secondary []Secondary

	// origin is the node that triggered the diagnostic.
	// Used to detect stale fixes; not part of the identity.
	origin ast.Node
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Location, d.RuleID, d.Message)
}

// SameAs reports whether d and other are the same finding.
func (d Diagnostic) SameAs(other Diagnostic) bool {
	return d.RuleID == other.RuleID && d.Location.SameRange(other.Location)
}

// Origin returns the syntax node the diagnostic was reported for.
// It is nil for diagnostics that were not produced by a traversal.
func (d Diagnostic) Origin() ast.Node {
	return d.origin
}

// WithOrigin returns a copy of d bound to node n.
func (d Diagnostic) WithOrigin(n ast.Node) Diagnostic {
	d.origin = n
	return d
}

func lessDiagnostic(a, b Diagnostic) bool {
	if !a.Location.SameRange(b.Location) {
		return a.Location.Less(b.Location)
	}
	if a.RuleID != b.RuleID {
		return a.RuleID < b.RuleID
	}
	return a.Message < b.Message
}
