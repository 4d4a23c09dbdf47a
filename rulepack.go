// Package rulepack runs independently written detection rules over Go
// source files in a single traversal and collects their diagnostics.
//
// Rules are plain values registered explicitly into a Catalog. A Session
// binds their configuration, builds a Dispatcher keyed by node kind and
// walks each file once, handing every interested rule a fresh Context.
package rulepack

import (
	"fmt"
	"strings"
)

// Severity ranks how important a rule finding is.
type Severity uint8

const (
	SeverityInfo Severity = iota
	SeverityMinor
	SeverityMajor
	SeverityCritical
	SeverityBlocker
)

var severityNames = [...]string{
	SeverityInfo:     "info",
	SeverityMinor:    "minor",
	SeverityMajor:    "major",
	SeverityCritical: "critical",
	SeverityBlocker:  "blocker",
}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return fmt.Sprintf("Severity(%d)", uint8(s))
}

// ParseSeverity maps a case-insensitive severity name to its value.
func ParseSeverity(name string) (Severity, error) {
	for i, n := range severityNames {
		if strings.EqualFold(n, name) {
			return Severity(i), nil
		}
	}
	return SeverityInfo, fmt.Errorf("unknown severity %q", name)
}

// Descriptor holds immutable rule metadata.
//
// Exactly one descriptor exists per rule; it is shared by pointer
// between the catalog, the dispatcher and every diagnostic the rule
// produces.
type Descriptor struct {
	// ID is the stable catalog-wide rule key, like "S1186".
	ID string

	// Name is a short camelCase rule name, like "emptyFunc".
	Name string

	// Title is a one line summary. Should not end with a period.
	Title string

	// MessageFormat is an fmt format for diagnostic messages.
	// Use explicit argument indexes (%[1]s) when a value is
	// repeated or reordered.
	MessageFormat string

	Severity Severity

	EnabledByDefault bool

	Tags []string
}

// Format renders the diagnostic message for args.
func (d *Descriptor) Format(args ...interface{}) string {
	if len(args) == 0 {
		return d.MessageFormat
	}
	return fmt.Sprintf(d.MessageFormat, args...)
}

// HasTag reports whether the rule is tagged with tag.
func (d *Descriptor) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
