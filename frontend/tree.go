// Package frontend adapts go/parser and go/types to the tree and
// semantic-query contract the rule engine consumes.
//
// A Tree is a single parsed source file plus whatever type information
// could be computed for it. Trees built from broken sources are still
// usable: syntax errors are recorded, malformed regions are remembered
// so the dispatcher can avoid them, and semantic queries answer
// "unknown" instead of failing.
package frontend

import (
	"go/ast"
	"go/scanner"
	"go/token"
	"go/types"
	"sort"
	"sync"

	"golang.org/x/tools/go/ast/astutil"
)

// Tree is a parsed (and, when possible, type-checked) Go source file.
type Tree struct {
	// Filename is the name the file was parsed under.
	Filename string

	// Src is the exact source text the tree was built from.
	Src []byte

	Fset *token.FileSet
	File *ast.File

	// Pkg and Info hold type-checker results. Info is never nil,
	// but its maps may be sparse for sources with errors.
	Pkg  *types.Package
	Info *types.Info

	// SyntaxErrors lists recoverable parse errors.
	SyntaxErrors scanner.ErrorList

	// TypeErrors lists type-checking errors. They never make
	// the tree unusable.
	TypeErrors []error

	malformed []span
	opts      options
	semOnce   sync.Once
	sem       *Semantics
}

// span is a half-open [start, end) token.Pos interval.
type span struct {
	start token.Pos
	end   token.Pos
}

// HasErrors reports whether the tree was built from a source
// with syntax errors.
func (t *Tree) HasErrors() bool {
	return len(t.SyntaxErrors) != 0
}

// Semantics returns the semantic-query facade for the tree.
// It is safe for concurrent use.
func (t *Tree) Semantics() *Semantics {
	t.semOnce.Do(func() {
		t.sem = &Semantics{info: t.Info, pkg: t.Pkg}
	})
	return t.sem
}

// Malformed reports whether n overlaps a region that failed to parse.
func (t *Tree) Malformed(n ast.Node) bool {
	if len(t.malformed) == 0 || n == nil {
		return false
	}
	pos, end := n.Pos(), n.End()
	for _, s := range t.malformed {
		if s.start < end && pos < s.end {
			return true
		}
	}
	return false
}

// Offset converts pos into a byte offset inside the tree source.
// Returns -1 for positions that do not belong to the tree file.
func (t *Tree) Offset(pos token.Pos) int {
	tf := t.tokenFile()
	if tf == nil || !pos.IsValid() || int(pos) < tf.Base() || int(pos) > tf.Base()+tf.Size() {
		return -1
	}
	return tf.Offset(pos)
}

// Position resolves pos into a file:line:column position.
func (t *Tree) Position(pos token.Pos) token.Position {
	return t.Fset.Position(pos)
}

// Pos converts a byte offset back into a token.Pos.
// Returns token.NoPos for offsets outside the source.
func (t *Tree) Pos(offset int) token.Pos {
	tf := t.tokenFile()
	if tf == nil || offset < 0 || offset > tf.Size() {
		return token.NoPos
	}
	return tf.Pos(offset)
}

// PathAt returns the path from the node that exactly spans the
// [start, end) byte range up to the file root.
// The innermost node comes first.
func (t *Tree) PathAt(start, end int) ([]ast.Node, bool) {
	pos, endPos := t.Pos(start), t.Pos(end)
	if !pos.IsValid() || !endPos.IsValid() {
		return nil, false
	}
	path, _ := astutil.PathEnclosingInterval(t.File, pos, endPos)
	if len(path) == 0 {
		return nil, false
	}
	if path[0].Pos() != pos || path[0].End() != endPos {
		return nil, false
	}
	return path, true
}

// Reparse builds a new tree from src using the options this tree was
// built with.
func (t *Tree) Reparse(src []byte) (*Tree, error) {
	return parse(t.Filename, src, t.opts)
}

func (t *Tree) tokenFile() *token.File {
	if t.File == nil {
		return nil
	}
	return t.Fset.File(t.File.FileStart)
}

// collectMalformed records syntax error lines and bad nodes.
func (t *Tree) collectMalformed() {
	tf := t.tokenFile()
	if tf == nil {
		return
	}
	for _, err := range t.SyntaxErrors {
		line := err.Pos.Line
		if line < 1 || line > tf.LineCount() {
			continue
		}
		start := tf.LineStart(line)
		end := token.Pos(tf.Base() + tf.Size())
		if line < tf.LineCount() {
			end = tf.LineStart(line + 1)
		}
		t.malformed = append(t.malformed, span{start: start, end: end})
	}
	ast.Inspect(t.File, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.BadExpr, *ast.BadStmt, *ast.BadDecl:
			end := n.End()
			if end <= n.Pos() {
				end = n.Pos() + 1
			}
			t.malformed = append(t.malformed, span{start: n.Pos(), end: end})
		}
		return true
	})
	sort.Slice(t.malformed, func(i, j int) bool {
		return t.malformed[i].start < t.malformed[j].start
	})
}
