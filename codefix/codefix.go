// Package codefix applies source rewrites offered for diagnostics.
//
// A fix is a titled Action computing byte-offset text edits from the
// node a diagnostic was reported for. Applying an action never mutates
// a tree: the edited text is re-parsed into a new one.
package codefix

import (
	"errors"
	"fmt"
	"go/ast"

	"github.com/go-lintpack/rulepack"
	"github.com/go-lintpack/rulepack/frontend"
)

// Errors returned by the fix engine.
var (
	// ErrBrokenSyntax is returned when an applied fix produces
	// source with syntax errors.
	ErrBrokenSyntax = errors.New("fix produced invalid syntax")

	// ErrBrokenTypes is returned when an applied fix introduces
	// type errors the source did not have.
	ErrBrokenTypes = errors.New("fix produced type errors")

	// ErrInvalidEdit is returned for edits outside the source or
	// overlapping each other.
	ErrInvalidEdit = errors.New("invalid edit")

	// ErrNoFix is returned when no diagnostic offers the requested fix.
	ErrNoFix = errors.New("no applicable fix")

	// ErrNoProgress is returned when a fix leaves the source unchanged.
	ErrNoProgress = errors.New("fix did not change the source")

	// ErrFixLoop is returned when iterative fixing does not converge.
	ErrFixLoop = errors.New("fix did not converge")
)

// Edit replaces the [Start, End) byte range with NewText.
type Edit struct {
	Start   int
	End     int
	NewText string
}

// Action is a single titled fix.
//
// Match and Edits receive the path from the diagnostic node up to the
// file root, innermost first. Both must be pure.
type Action struct {
	Title string

	// Match re-validates the fix preconditions. A nil Match always matches.
	Match func(tree *frontend.Tree, path []ast.Node) bool

	Edits func(tree *frontend.Tree, path []ast.Node) []Edit
}

// Mode is the fix cardinality of a provider.
type Mode uint8

const (
	// Single fixes every diagnostic of one analysis, then stops.
	Single Mode = iota

	// Iterative re-analyzes after each fix until no diagnostic
	// offers it anymore.
	Iterative
)

func (m Mode) String() string {
	switch m {
	case Single:
		return "single"
	case Iterative:
		return "iterative"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Provider offers fixes for the diagnostics of some rules.
type Provider interface {
	RuleIDs() []string
	Actions(d rulepack.Diagnostic) []Action
	Mode() Mode
}

// StaleFixError is returned when the node a diagnostic was reported
// for no longer satisfies the fix preconditions.
type StaleFixError struct {
	Title    string
	RuleID   string
	Location rulepack.Location
	Reason   string
}

func (e *StaleFixError) Error() string {
	return fmt.Sprintf("%s: %s fix %q is stale: %s", e.Location, e.RuleID, e.Title, e.Reason)
}

// Engine indexes providers by rule ID.
type Engine struct {
	byRule map[string][]Provider
}

// NewEngine returns an engine for the given providers.
func NewEngine(providers ...Provider) *Engine {
	e := &Engine{byRule: make(map[string][]Provider)}
	for _, p := range providers {
		for _, id := range p.RuleIDs() {
			e.byRule[id] = append(e.byRule[id], p)
		}
	}
	return e
}

// FixesFor returns every action offered for d.
func (e *Engine) FixesFor(d rulepack.Diagnostic) []Action {
	var actions []Action
	for _, p := range e.byRule[d.RuleID] {
		actions = append(actions, p.Actions(d)...)
	}
	return actions
}

// Lookup finds the action titled title among the fixes for d.
func (e *Engine) Lookup(d rulepack.Diagnostic, title string) (Action, bool) {
	for _, a := range e.FixesFor(d) {
		if a.Title == title {
			return a, true
		}
	}
	return Action{}, false
}

// ModeOf returns the mode of the provider offering title for d.
func (e *Engine) ModeOf(d rulepack.Diagnostic, title string) (Mode, bool) {
	for _, p := range e.byRule[d.RuleID] {
		for _, a := range p.Actions(d) {
			if a.Title == title {
				return p.Mode(), true
			}
		}
	}
	return Single, false
}

// Titles returns the distinct fix titles offered for d, in order.
func (e *Engine) Titles(d rulepack.Diagnostic) []string {
	var titles []string
	seen := make(map[string]bool)
	for _, a := range e.FixesFor(d) {
		if !seen[a.Title] {
			seen[a.Title] = true
			titles = append(titles, a.Title)
		}
	}
	return titles
}
