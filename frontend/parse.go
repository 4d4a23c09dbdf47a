package frontend

import (
	"errors"
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"os"
)

// ParseFailure is returned when no syntax tree at all can be built
// for a file. Analysis of that file is skipped.
type ParseFailure struct {
	Filename string
	Err      error
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Filename, e.Err)
}

func (e *ParseFailure) Unwrap() error { return e.Err }

// Option customizes how a tree is built.
type Option func(*options)

type options struct {
	keepComment func(*ast.Comment) bool
	importer    func(fset *token.FileSet) types.Importer
	skipTypes   bool
}

// WithCommentFilter drops every comment for which keep returns false
// from the file comment list before type checking.
//
// The source text is left untouched.
func WithCommentFilter(keep func(*ast.Comment) bool) Option {
	return func(o *options) { o.keepComment = keep }
}

// WithImporter overrides the importer used for type checking.
// The default importer type-checks imported packages from source.
func WithImporter(newImporter func(fset *token.FileSet) types.Importer) Option {
	return func(o *options) { o.importer = newImporter }
}

// WithoutTypes disables type checking. Semantic queries on such trees
// always answer "unknown".
func WithoutTypes() Option {
	return func(o *options) { o.skipTypes = true }
}

// ParseFile reads and parses the named file.
func ParseFile(filename string, opts ...Option) (*Tree, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, &ParseFailure{Filename: filename, Err: err}
	}
	return Parse(filename, src, opts...)
}

// Parse builds a tree from src.
//
// Recoverable syntax errors do not make Parse fail: they are recorded in
// Tree.SyntaxErrors. A *ParseFailure is returned only when the source
// does not even have a package clause.
func Parse(filename string, src []byte, opts ...Option) (*Tree, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return parse(filename, src, o)
}

func parse(filename string, src []byte, o options) (*Tree, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments|parser.AllErrors)
	// Without a package clause the parser returns a placeholder file.
	if f == nil || f.Name == nil || f.Name.Name == "" || (err != nil && f.Name.Name == "_" && len(f.Decls) == 0) {
		if err == nil {
			err = errors.New("no syntax tree produced")
		}
		return nil, &ParseFailure{Filename: filename, Err: err}
	}

	t := &Tree{
		Filename: filename,
		Src:      src,
		Fset:     fset,
		File:     f,
		opts:     o,
	}
	if err != nil {
		var list scanner.ErrorList
		if !errors.As(err, &list) {
			return nil, &ParseFailure{Filename: filename, Err: err}
		}
		t.SyntaxErrors = list
	}
	if o.keepComment != nil {
		filterComments(f, o.keepComment)
	}
	t.collectMalformed()
	t.typeCheck()
	return t, nil
}

func (t *Tree) typeCheck() {
	t.Info = newInfo()
	if t.opts.skipTypes {
		return
	}
	newImporter := t.opts.importer
	if newImporter == nil {
		newImporter = sourceImporter
	}
	conf := types.Config{
		Importer: newImporter(t.Fset),
		Error: func(err error) {
			t.TypeErrors = append(t.TypeErrors, err)
		},
	}
	defer func() {
		// The type checker is not hardened against every
		// malformed tree the parser can produce.
		if r := recover(); r != nil {
			t.TypeErrors = append(t.TypeErrors, fmt.Errorf("type checker panic: %v", r))
		}
	}()
	pkg, _ := conf.Check(t.File.Name.Name, t.Fset, []*ast.File{t.File}, t.Info)
	t.Pkg = pkg
}

func sourceImporter(fset *token.FileSet) types.Importer {
	return importer.ForCompiler(fset, "source", nil)
}

func newInfo() *types.Info {
	return &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Implicits:  make(map[ast.Node]types.Object),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
		Scopes:     make(map[ast.Node]*types.Scope),
	}
}

// filterComments removes rejected comments from f.Comments.
// Groups left without comments are dropped from the list; nodes that
// reference them via Doc or Comment keep their original group.
func filterComments(f *ast.File, keep func(*ast.Comment) bool) {
	groups := f.Comments[:0]
	for _, cg := range f.Comments {
		kept := make([]*ast.Comment, 0, len(cg.List))
		for _, c := range cg.List {
			if keep(c) {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 {
			continue
		}
		cg.List = kept
		groups = append(groups, cg)
	}
	f.Comments = groups
}
