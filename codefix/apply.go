package codefix

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/types"
	"os"
	"sort"

	"github.com/go-toolsmith/astequal"

	"github.com/go-lintpack/rulepack"
	"github.com/go-lintpack/rulepack/frontend"
)

// maxIterations bounds iterative fixing of a single file.
const maxIterations = 100

// Analyzer produces the diagnostics of a tree.
type Analyzer func(tree *frontend.Tree) []rulepack.Diagnostic

// Apply runs action a for diagnostic d and returns the re-parsed tree.
//
// The diagnostic node is located again in tree and compared with the
// node it was reported for; a mismatch, as well as a failed Match,
// yields a *StaleFixError. A fix introducing type errors is rejected
// with ErrBrokenTypes.
func Apply(a Action, tree *frontend.Tree, d rulepack.Diagnostic) (*frontend.Tree, error) {
	fixed, err := apply(a, tree, d)
	if err != nil {
		return nil, err
	}
	if err := introducedTypeError(tree, fixed); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", a.Title, ErrBrokenTypes, err)
	}
	return fixed, nil
}

// apply is Apply without the type check.
func apply(a Action, tree *frontend.Tree, d rulepack.Diagnostic) (*frontend.Tree, error) {
	stale := func(reason string) error {
		return &StaleFixError{
			Title:    a.Title,
			RuleID:   d.RuleID,
			Location: d.Location,
			Reason:   reason,
		}
	}

	if d.Location.File != tree.Filename {
		return nil, stale("diagnostic belongs to " + d.Location.File)
	}
	path, ok := tree.PathAt(d.Location.Start, d.Location.End)
	if !ok {
		return nil, stale("no node at the diagnostic location")
	}
	path, ok = matchOrigin(path, d.Origin())
	if !ok {
		return nil, stale("node has changed")
	}
	if a.Match != nil && !a.Match(tree, path) {
		return nil, stale("fix no longer applies")
	}

	src, err := applyEdits(tree.Src, a.Edits(tree, path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.Title, err)
	}
	return reparse(tree, src)
}

// matchOrigin picks, among the nodes sharing the innermost node range,
// the one structurally equal to origin.
func matchOrigin(path []ast.Node, origin ast.Node) ([]ast.Node, bool) {
	if origin == nil {
		return path, true
	}
	pos, end := path[0].Pos(), path[0].End()
	for i, n := range path {
		if n.Pos() != pos || n.End() != end {
			break
		}
		if rulepack.KindOf(n) == rulepack.KindOf(origin) && astequal.Node(n, origin) {
			return path[i:], true
		}
	}
	return nil, false
}

func reparse(tree *frontend.Tree, src []byte) (*frontend.Tree, error) {
	fixed, err := tree.Reparse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrokenSyntax, err)
	}
	if fixed.HasErrors() {
		return nil, fmt.Errorf("%w: %v", ErrBrokenSyntax, fixed.SyntaxErrors[0])
	}
	return fixed, nil
}

// introducedTypeError returns a type error of fixed that the source of
// tree, checked the same way, does not have.
//
// Errors are compared by message only, since positions move with the
// edits. The baseline is a fresh parse of the old source: trees loaded
// with their package carry package-wide type information, while a
// re-parsed tree is checked as a standalone file.
func introducedTypeError(tree, fixed *frontend.Tree) error {
	if len(fixed.TypeErrors) == 0 {
		return nil
	}
	base, err := tree.Reparse(tree.Src)
	if err != nil {
		return nil
	}
	known := make(map[string]int, len(base.TypeErrors))
	for _, e := range base.TypeErrors {
		known[typeErrorMessage(e)]++
	}
	for _, e := range fixed.TypeErrors {
		msg := typeErrorMessage(e)
		if known[msg] == 0 {
			return e
		}
		known[msg]--
	}
	return nil
}

func typeErrorMessage(err error) string {
	var terr types.Error
	if errors.As(err, &terr) {
		return terr.Msg
	}
	return err.Error()
}

// applyEdits returns src with edits applied. Edits at the same offset
// keep their relative order.
func applyEdits(src []byte, edits []Edit) ([]byte, error) {
	sorted := append([]Edit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})
	for i, e := range sorted {
		if e.Start < 0 || e.End < e.Start || e.End > len(src) {
			return nil, fmt.Errorf("%w: [%d, %d) out of range", ErrInvalidEdit, e.Start, e.End)
		}
		if i > 0 && editsConflict(sorted[i-1], e) {
			return nil, fmt.Errorf("%w: [%d, %d) overlaps [%d, %d)",
				ErrInvalidEdit, e.Start, e.End, sorted[i-1].Start, sorted[i-1].End)
		}
	}

	var buf bytes.Buffer
	buf.Grow(len(src))
	last := 0
	for _, e := range sorted {
		buf.Write(src[last:e.Start])
		buf.WriteString(e.NewText)
		last = e.End
	}
	buf.Write(src[last:])
	return buf.Bytes(), nil
}

// editsConflict reports whether two edits overlap.
// Ranges are half-open; two insertions never conflict.
func editsConflict(a, b Edit) bool {
	if a.Start == a.End && b.Start == b.End {
		return false
	}
	if a.Start == a.End {
		return b.Start < a.Start && a.Start < b.End
	}
	if b.Start == b.End {
		return a.Start < b.Start && b.Start < a.End
	}
	return a.Start < b.End && b.Start < a.End
}

// ApplyAll applies the fix titled title to tree according to mode and
// returns the final tree with the number of applied fixes.
//
// ErrNoFix is returned if no diagnostic of the first analysis offers
// the fix.
func (e *Engine) ApplyAll(tree *frontend.Tree, analyze Analyzer, title string, mode Mode) (*frontend.Tree, int, error) {
	switch mode {
	case Single:
		return e.applySingle(tree, analyze, title)
	case Iterative:
		return e.applyIterative(tree, analyze, title)
	default:
		return nil, 0, fmt.Errorf("unexpected fix mode %s", mode)
	}
}

type candidate struct {
	diag   rulepack.Diagnostic
	action Action
}

func (e *Engine) candidates(diags []rulepack.Diagnostic, title string) []candidate {
	var cands []candidate
	for _, d := range diags {
		if a, ok := e.Lookup(d, title); ok {
			cands = append(cands, candidate{diag: d, action: a})
		}
	}
	return cands
}

func (e *Engine) applySingle(tree *frontend.Tree, analyze Analyzer, title string) (*frontend.Tree, int, error) {
	cands := e.candidates(analyze(tree), title)
	if len(cands) == 0 {
		return nil, 0, fmt.Errorf("%w: %q", ErrNoFix, title)
	}
	// Back to front, so earlier locations stay valid.
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[j].diag.Location.Less(cands[i].diag.Location)
	})
	// Intermediate states may be inconsistent, so only the final
	// source is type checked.
	orig := tree
	applied := 0
	for _, c := range cands {
		fixed, err := apply(c.action, tree, c.diag)
		if err != nil {
			return nil, applied, err
		}
		tree = fixed
		applied++
	}
	if err := introducedTypeError(orig, tree); err != nil {
		return nil, applied, fmt.Errorf("%q: %w: %v", title, ErrBrokenTypes, err)
	}
	return tree, applied, nil
}

func (e *Engine) applyIterative(tree *frontend.Tree, analyze Analyzer, title string) (*frontend.Tree, int, error) {
	applied := 0
	for i := 0; i < maxIterations; i++ {
		cands := e.candidates(analyze(tree), title)
		if len(cands) == 0 {
			if applied == 0 {
				return nil, 0, fmt.Errorf("%w: %q", ErrNoFix, title)
			}
			return tree, applied, nil
		}
		c := cands[0]
		fixed, err := Apply(c.action, tree, c.diag)
		if err != nil {
			return nil, applied, err
		}
		if bytes.Equal(fixed.Src, tree.Src) {
			return nil, applied, fmt.Errorf("%s: %w", c.diag.Location, ErrNoProgress)
		}
		tree = fixed
		applied++
	}
	return nil, applied, fmt.Errorf("%w after %d iterations", ErrFixLoop, maxIterations)
}

// WriteFile stores the tree source under its file name,
// keeping the permissions of an existing file.
func WriteFile(tree *frontend.Tree) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(tree.Filename); err == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(tree.Filename, tree.Src, mode); err != nil {
		return fmt.Errorf("write %s: %w", tree.Filename, err)
	}
	return nil
}
