package frontend

import (
	"errors"
	"go/ast"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-toolsmith/astcast"
	"github.com/google/go-cmp/cmp"
)

func mustParse(t *testing.T, src string, opts ...Option) *Tree {
	t.Helper()
	tree, err := Parse("test.go", []byte(src), opts...)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return tree
}

func findIdent(f *ast.File, name string) *ast.Ident {
	var found *ast.Ident
	ast.Inspect(f, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok && id.Name == name && found == nil {
			found = id
		}
		return found == nil
	})
	return found
}

func TestParseFailure(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"no package clause", "func f() {}\n"},
		{"garbage", "}}}{{{"},
	}
	for _, test := range tests {
		_, err := Parse("bad.go", []byte(test.src))
		var failure *ParseFailure
		if !errors.As(err, &failure) {
			t.Errorf("%s: expected *ParseFailure, got %v", test.name, err)
			continue
		}
		if failure.Filename != "bad.go" {
			t.Errorf("%s: failure filename is %q", test.name, failure.Filename)
		}
	}

	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.go"))
	var failure *ParseFailure
	if !errors.As(err, &failure) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v", err)
	}
}

func TestParsePartialTree(t *testing.T) {
	tree := mustParse(t, `package p

func ok() int { return 1 }

func broken() {
	if {
}
`)
	if !tree.HasErrors() {
		t.Fatalf("expected syntax errors")
	}
	okFn := findIdent(tree.File, "ok")
	if okFn == nil {
		t.Fatalf("partial tree lost the valid function")
	}
	if tree.Malformed(okFn) {
		t.Errorf("valid function is reported as malformed")
	}
	if !tree.Malformed(tree.File) {
		t.Errorf("file root must overlap the malformed region")
	}
}

func TestCommentFilter(t *testing.T) {
	src := `package p

// keep me
var x = 1 // drop me
`
	tree := mustParse(t, src, WithCommentFilter(func(c *ast.Comment) bool {
		return !strings.Contains(c.Text, "drop")
	}))
	var texts []string
	for _, cg := range tree.File.Comments {
		for _, c := range cg.List {
			texts = append(texts, c.Text)
		}
	}
	if diff := cmp.Diff([]string{"// keep me"}, texts); diff != "" {
		t.Errorf("comments mismatch (-want +got):\n%s", diff)
	}
	if string(tree.Src) != src {
		t.Errorf("source text must not change")
	}

	again, err := tree.Reparse([]byte(src + "// drop me too\n"))
	if err != nil {
		t.Fatalf("Reparse: %v", err)
	}
	if len(again.File.Comments) != 1 {
		t.Errorf("Reparse must keep the comment filter")
	}
}

func TestOffsets(t *testing.T) {
	tree := mustParse(t, "package p\n\nvar value = 1\n", WithoutTypes())
	id := findIdent(tree.File, "value")

	start, end := tree.Offset(id.Pos()), tree.Offset(id.End())
	if got := string(tree.Src[start:end]); got != "value" {
		t.Fatalf("offsets select %q", got)
	}
	if tree.Pos(start) != id.Pos() {
		t.Errorf("Pos(Offset(pos)) != pos")
	}
	if tree.Offset(0) != -1 || tree.Pos(-1).IsValid() || tree.Pos(len(tree.Src)+1).IsValid() {
		t.Errorf("out of range positions must be rejected")
	}

	path, ok := tree.PathAt(start, end)
	if !ok || path[0] != id {
		t.Fatalf("PathAt did not find the identifier")
	}
	if _, ok := path[len(path)-1].(*ast.File); !ok {
		t.Errorf("path must end with the file")
	}
	if _, ok := tree.PathAt(start, end-1); ok {
		t.Errorf("PathAt must require an exact range")
	}
}

func TestSemantics(t *testing.T) {
	tree := mustParse(t, `package p

import "strings"

type Shape interface {
	Area() int
}

type square struct{}

func (square) Area() int { return 0 }

func (square) Name() string { return "" }

const empty = ""

func f(s string, n int) bool {
	var b strings.Builder
	b.WriteString(s)
	return strings.EqualFold(s, empty) && n > 0
}
`)
	sem := tree.Semantics()
	if _, ok := sem.Package(); !ok {
		t.Fatalf("no type-checked package")
	}
	if len(tree.TypeErrors) != 0 {
		t.Fatalf("unexpected type errors: %v", tree.TypeErrors)
	}

	var call *ast.CallExpr
	var write *ast.CallExpr
	ast.Inspect(tree.File, func(n ast.Node) bool {
		c, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		switch astcast.ToSelectorExpr(c.Fun).Sel.Name {
		case "EqualFold":
			call = c
		case "WriteString":
			write = c
		}
		return true
	})

	fn, ok := sem.Callee(call)
	if !ok || fn.Name() != "EqualFold" || !sem.InPackage(fn, "strings") {
		t.Errorf("Callee(EqualFold) = %v, %v", fn, ok)
	}
	if !sem.IsIdentOfKnownType(call.Args[0], KnownString) {
		t.Errorf("s is not recognized as string")
	}
	if s, ok := sem.ConstantString(call.Args[1]); !ok || s != "" {
		t.Errorf("ConstantString(empty) = %q, %v", s, ok)
	}
	if _, ok := sem.ConstantString(call.Args[0]); ok {
		t.Errorf("variable reported as constant")
	}

	method, ok := sem.Callee(write)
	if !ok || !sem.InType(method, KnownBuilder) {
		t.Errorf("WriteString must be a strings.Builder method")
	}

	for _, decl := range tree.File.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv == nil {
			continue
		}
		obj, ok := sem.DeclaredFunc(fd)
		if !ok {
			t.Fatalf("no object for %s", fd.Name.Name)
		}
		_, implements := sem.ImplementedInterfaceMethod(obj)
		if want := fd.Name.Name == "Area"; implements != want {
			t.Errorf("%s: implements = %v, want %v", fd.Name.Name, implements, want)
		}
	}
}

func TestSemanticsConcurrentUse(t *testing.T) {
	tree := mustParse(t, "package p\n\nvar s = \"\"\n")
	const n = 8
	got := make([]*Semantics, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = tree.Semantics()
		}(i)
	}
	wg.Wait()
	for i := range got {
		if got[i] != got[0] {
			t.Fatalf("Semantics returned different facades")
		}
	}
}

func TestSemanticsWithoutTypes(t *testing.T) {
	tree := mustParse(t, `package p

func f(s string) { _ = s }
`, WithoutTypes())
	sem := tree.Semantics()
	id := findIdent(tree.File, "s")
	if _, ok := sem.ObjectOf(id); ok {
		t.Errorf("ObjectOf answered without type information")
	}
	if _, ok := sem.TypeOf(id); ok {
		t.Errorf("TypeOf answered without type information")
	}
	if sem.IsIdentOfKnownType(id, KnownString) {
		t.Errorf("IsIdentOfKnownType answered without type information")
	}
	if _, ok := sem.Callee(nil); ok {
		t.Errorf("Callee(nil) answered")
	}
}

func TestTypeErrorsAreNotFatal(t *testing.T) {
	tree := mustParse(t, `package p

func f() int { return undefined }
`)
	if len(tree.TypeErrors) == 0 {
		t.Errorf("expected type errors")
	}
	if tree.HasErrors() {
		t.Errorf("type errors must not be syntax errors")
	}
}

func TestParsePos(t *testing.T) {
	tests := []struct {
		pos  string
		file string
		line int
		col  int
	}{
		{"a.go:3:7", "a.go", 3, 7},
		{"C:/src/a.go:10:2", "C:/src/a.go", 10, 2},
		{"a.go:4", "a.go", 4, 0},
		{"a.go", "a.go", 0, 0},
	}
	for _, test := range tests {
		p := parsePos(test.pos)
		if p.Filename != test.file || p.Line != test.line || p.Column != test.col {
			t.Errorf("parsePos(%q) = %+v", test.pos, p)
		}
	}
}
