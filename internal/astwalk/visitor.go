package astwalk

import (
	"go/ast"

	"golang.org/x/tools/go/ast/inspector"
)

// Visitor receives nodes in source pre-order.
type Visitor interface {
	// VisitNode is called before the children of n are visited.
	// stack holds the enclosing nodes, outermost first; its last
	// element is n itself. The slice is reused between calls.
	VisitNode(n ast.Node, stack []ast.Node)
}

// VisitorFunc adapts a function to the Visitor interface.
type VisitorFunc func(n ast.Node, stack []ast.Node)

// VisitNode calls fn(n, stack).
func (fn VisitorFunc) VisitNode(n ast.Node, stack []ast.Node) { fn(n, stack) }

// Walk performs a single depth-first traversal of f.
//
// Only nodes whose dynamic type matches one of the types prototypes
// are passed to v; subtrees that contain no such node are skipped.
// An empty types list visits nothing.
func Walk(f *ast.File, types []ast.Node, v Visitor) {
	if f == nil || len(types) == 0 {
		return
	}
	in := inspector.New([]*ast.File{f})
	in.WithStack(types, func(n ast.Node, push bool, stack []ast.Node) bool {
		if push {
			v.VisitNode(n, stack)
		}
		return true
	})
}
