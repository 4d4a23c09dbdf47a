package checkers

import (
	"go/ast"
	"go/token"
	"go/types"
	"strconv"

	"github.com/go-toolsmith/astcast"
	"github.com/go-toolsmith/astfmt"

	"github.com/go-lintpack/rulepack"
	"github.com/go-lintpack/rulepack/codefix"
	"github.com/go-lintpack/rulepack/frontend"
)

const stringEmptyCompareFix = `Compare with ""`

type stringEmptyCompareChecker struct {
	rulepack.RuleBase
}

func newStringEmptyCompareChecker() *stringEmptyCompareChecker {
	c := &stringEmptyCompareChecker{}
	c.Info = rulepack.Descriptor{
		ID:               "S3256",
		Name:             "stringEmptyCompare",
		Title:            "Detects strings package calls used to compare a string with an empty string",
		MessageFormat:    `Use a direct comparison with "" instead of calling %s.`,
		Severity:         rulepack.SeverityMinor,
		EnabledByDefault: true,
		Tags:             []string{"style"},
	}
	c.Kinds = []rulepack.NodeKind{rulepack.KindCallExpr}
	return c
}

func (c *stringEmptyCompareChecker) Visit(ctx *rulepack.Context) {
	call := ctx.Node().(*ast.CallExpr)
	_, empty, ok := matchEmptyCompare(ctx.Semantics(), call)
	if !ok {
		return
	}
	ctx.Issue(call, astfmt.Sprint(call.Fun)).
		Secondary(empty, "empty string").
		Emit()
}

// matchEmptyCompare matches strings.EqualFold and strings.Compare calls
// comparing a string identifier with a constant empty string.
func matchEmptyCompare(sem *frontend.Semantics, call *ast.CallExpr) (subject *ast.Ident, empty ast.Expr, ok bool) {
	fn, ok := sem.Callee(call)
	if !ok || !sem.InPackage(fn, "strings") {
		return nil, nil, false
	}
	if fn.Name() != "EqualFold" && fn.Name() != "Compare" {
		return nil, nil, false
	}
	if len(call.Args) != 2 {
		return nil, nil, false
	}
	for i, arg := range call.Args {
		other := call.Args[1-i]
		if isEmptyString(sem, arg) && sem.IsIdentOfKnownType(other, frontend.KnownString) {
			return astcast.ToIdent(other), arg, true
		}
	}
	return nil, nil, false
}

func isEmptyString(sem *frontend.Semantics, e ast.Expr) bool {
	if s, ok := sem.ConstantString(e); ok {
		return s == ""
	}
	lit := astcast.ToBasicLit(ast.Unparen(e))
	return lit.Kind == token.STRING && (lit.Value == `""` || lit.Value == "``")
}

// stringEmptyCompareFixer rewrites strings.EqualFold(s, "") into s == "".
type stringEmptyCompareFixer struct{}

func (stringEmptyCompareFixer) RuleIDs() []string { return []string{"S3256"} }

func (stringEmptyCompareFixer) Mode() codefix.Mode { return codefix.Single }

func (stringEmptyCompareFixer) Actions(d rulepack.Diagnostic) []codefix.Action {
	call, ok := d.Origin().(*ast.CallExpr)
	if !ok || !isEqualFoldCall(call) {
		return nil
	}
	return []codefix.Action{{
		Title: stringEmptyCompareFix,
		Match: func(tree *frontend.Tree, path []ast.Node) bool {
			call, ok := path[0].(*ast.CallExpr)
			if !ok || !isEqualFoldCall(call) {
				return false
			}
			_, _, ok = matchEmptyCompare(tree.Semantics(), call)
			return ok
		},
		Edits: func(tree *frontend.Tree, path []ast.Node) []codefix.Edit {
			call := path[0].(*ast.CallExpr)
			subject, empty, _ := matchEmptyCompare(tree.Semantics(), call)
			text := nodeText(tree, subject) + " == " + nodeText(tree, empty)
			if len(path) > 1 && needsParens(path[1]) {
				text = "(" + text + ")"
			}
			edits := []codefix.Edit{{
				Start:   tree.Offset(call.Pos()),
				End:     tree.Offset(call.End()),
				NewText: text,
			}}
			return append(edits, removeLastImportUse(tree, call)...)
		},
	}}
}

func isEqualFoldCall(call *ast.CallExpr) bool {
	sel := astcast.ToSelectorExpr(call.Fun)
	return sel.Sel != nil && sel.Sel.Name == "EqualFold"
}

// needsParens reports whether a comparison placed under parent
// must be parenthesized to keep its meaning.
func needsParens(parent ast.Node) bool {
	switch p := parent.(type) {
	case *ast.UnaryExpr, *ast.StarExpr, *ast.SelectorExpr, *ast.IndexExpr, *ast.TypeAssertExpr:
		return true
	case *ast.BinaryExpr:
		return p.Op.Precedence() >= token.EQL.Precedence()
	default:
		return false
	}
}

func nodeText(tree *frontend.Tree, n ast.Node) string {
	return string(tree.Src[tree.Offset(n.Pos()):tree.Offset(n.End())])
}

// removeLastImportUse returns the edit deleting the import call.Fun
// selects from, when call holds the only reference to it in the file.
func removeLastImportUse(tree *frontend.Tree, call *ast.CallExpr) []codefix.Edit {
	sem := tree.Semantics()
	obj, ok := sem.ObjectOf(astcast.ToIdent(astcast.ToSelectorExpr(call.Fun).X))
	if !ok {
		return nil
	}
	pkgName, ok := obj.(*types.PkgName)
	if !ok {
		return nil
	}

	uses := 0
	ast.Inspect(tree.File, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if obj, ok := sem.ObjectOf(astcast.ToIdent(sel.X)); ok && obj == pkgName {
			uses++
		}
		return true
	})
	if uses != 1 {
		return nil
	}

	for _, decl := range tree.File.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.IMPORT {
			continue
		}
		for _, spec := range gen.Specs {
			if !importsPackage(spec.(*ast.ImportSpec), pkgName) {
				continue
			}
			if len(gen.Specs) == 1 {
				return []codefix.Edit{removeLines(tree, gen.Pos(), gen.End(), true)}
			}
			end := spec.End()
			if c := spec.(*ast.ImportSpec).Comment; c != nil {
				end = c.End()
			}
			return []codefix.Edit{removeLines(tree, spec.Pos(), end, false)}
		}
	}
	return nil
}

func importsPackage(spec *ast.ImportSpec, pkgName *types.PkgName) bool {
	path, err := strconv.Unquote(spec.Path.Value)
	if err != nil || path != pkgName.Imported().Path() {
		return false
	}
	if spec.Name != nil {
		return spec.Name.Name == pkgName.Name()
	}
	return pkgName.Imported().Name() == pkgName.Name()
}

// removeLines deletes the whole lines spanned by [pos, end).
// With collapse set, a blank line left between two blank-separated
// blocks is deleted too.
func removeLines(tree *frontend.Tree, pos, end token.Pos, collapse bool) codefix.Edit {
	src := tree.Src
	start, stop := tree.Offset(pos), tree.Offset(end)
	for start > 0 && (src[start-1] == ' ' || src[start-1] == '\t') {
		start--
	}
	for stop < len(src) && src[stop] != '\n' {
		stop++
	}
	if stop < len(src) {
		stop++
	}
	if collapse && stop < len(src) && src[stop] == '\n' && start >= 2 && src[start-1] == '\n' && src[start-2] == '\n' {
		stop++
	}
	return codefix.Edit{Start: start, End: stop}
}
