package checkers

import (
	"go/ast"
	"strings"

	"github.com/go-lintpack/rulepack"
	"github.com/go-lintpack/rulepack/codefix"
	"github.com/go-lintpack/rulepack/frontend"
)

// Fix titles offered for empty functions.
const (
	emptyFuncPanicFix   = "Insert panic"
	emptyFuncCommentFix = "Insert comment"
	emptyFuncRemoveFix  = "Remove empty init"
)

type emptyFuncChecker struct {
	rulepack.RuleBase
}

func newEmptyFuncChecker() *emptyFuncChecker {
	c := &emptyFuncChecker{}
	c.Info = rulepack.Descriptor{
		ID:               "S1186",
		Name:             "emptyFunc",
		Title:            "Detects functions with an empty body and no explanation",
		MessageFormat:    "Add a nested comment explaining why this function is empty%s or complete the implementation.",
		Severity:         rulepack.SeverityCritical,
		EnabledByDefault: true,
		Tags:             []string{"diagnostic"},
	}
	c.Kinds = []rulepack.NodeKind{rulepack.KindFuncDecl}
	return c
}

func (c *emptyFuncChecker) Visit(ctx *rulepack.Context) {
	fn := ctx.Node().(*ast.FuncDecl)
	if !isUnexplainedEmptyFunc(ctx.File(), fn) {
		return
	}
	if fn.Recv != nil {
		// Test doubles routinely stub methods out.
		if strings.HasSuffix(ctx.Filename(), "_test.go") {
			return
		}
		sem := ctx.Semantics()
		if obj, ok := sem.DeclaredFunc(fn); ok {
			if _, ok := sem.ImplementedInterfaceMethod(obj); ok {
				return
			}
		}
	}

	hint := `, panic with "not implemented"`
	if isInit(fn) {
		hint = ""
	}
	ctx.Warn(fn.Name, hint)
}

func isUnexplainedEmptyFunc(f *ast.File, fn *ast.FuncDecl) bool {
	if fn.Body == nil || len(fn.Body.List) != 0 {
		return false
	}
	for _, cg := range f.Comments {
		if cg.Pos() > fn.Body.Lbrace && cg.End() <= fn.Body.Rbrace {
			return false
		}
	}
	return true
}

func isInit(fn *ast.FuncDecl) bool {
	return fn.Recv == nil && fn.Name.Name == "init"
}

// emptyFuncFixer completes empty functions.
type emptyFuncFixer struct{}

func (emptyFuncFixer) RuleIDs() []string { return []string{"S1186"} }

func (emptyFuncFixer) Mode() codefix.Mode { return codefix.Iterative }

func (emptyFuncFixer) Actions(d rulepack.Diagnostic) []codefix.Action {
	name, ok := d.Origin().(*ast.Ident)
	if !ok {
		return nil
	}
	fill := func(title, stmt string) codefix.Action {
		return codefix.Action{
			Title: title,
			Match: matchEmptyFunc,
			Edits: func(tree *frontend.Tree, path []ast.Node) []codefix.Edit {
				fn := path[1].(*ast.FuncDecl)
				indent := lineIndent(tree, fn)
				return []codefix.Edit{{
					Start:   tree.Offset(fn.Body.Lbrace),
					End:     tree.Offset(fn.Body.Rbrace) + 1,
					NewText: "{\n" + indent + "\t" + stmt + "\n" + indent + "}",
				}}
			},
		}
	}

	if name.Name == "init" {
		return []codefix.Action{
			fill(emptyFuncCommentFix, "// Intentionally empty."),
			{
				Title: emptyFuncRemoveFix,
				Match: func(tree *frontend.Tree, path []ast.Node) bool {
					return matchEmptyFunc(tree, path) && isInit(path[1].(*ast.FuncDecl))
				},
				Edits: removeFuncDecl,
			},
		}
	}
	return []codefix.Action{
		fill(emptyFuncPanicFix, `panic("not implemented")`),
		fill(emptyFuncCommentFix, "// Intentionally empty."),
	}
}

func matchEmptyFunc(tree *frontend.Tree, path []ast.Node) bool {
	if len(path) < 2 {
		return false
	}
	fn, ok := path[1].(*ast.FuncDecl)
	return ok && fn.Name == path[0] && isUnexplainedEmptyFunc(tree.File, fn)
}

func removeFuncDecl(tree *frontend.Tree, path []ast.Node) []codefix.Edit {
	fn := path[1].(*ast.FuncDecl)
	pos := fn.Pos()
	if fn.Doc != nil {
		pos = fn.Doc.Pos()
	}
	start, end := tree.Offset(pos), tree.Offset(fn.End())
	if end < len(tree.Src) && tree.Src[end] == '\n' {
		end++
	}
	return []codefix.Edit{{Start: start, End: end}}
}

// lineIndent returns the leading whitespace of the line n starts on.
func lineIndent(tree *frontend.Tree, n ast.Node) string {
	off := tree.Offset(n.Pos())
	lineStart := strings.LastIndexByte(string(tree.Src[:off]), '\n') + 1
	line := tree.Src[lineStart:off]
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return string(line[:i])
}
