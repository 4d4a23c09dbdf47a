package frontend

import (
	"go/scanner"
	"go/token"
	"os"
	"strconv"
	"strings"

	"github.com/go-toolsmith/pkgload"
	"golang.org/x/tools/go/packages"
)

// LoadMode is the packages.Load mode FromPackage expects.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedImports |
	packages.NeedDeps |
	packages.NeedTypes |
	packages.NeedSyntax |
	packages.NeedTypesInfo |
	packages.NeedTypesSizes

// LoadPackages loads the packages matching patterns, deduplicating
// test variants the way pkgload does.
func LoadPackages(dir string, tests bool, patterns ...string) ([]*packages.Package, error) {
	cfg := &packages.Config{
		Mode:  LoadMode,
		Dir:   dir,
		Tests: tests,
	}
	return pkgload.LoadPackages(cfg, patterns)
}

// FromPackage wraps every syntax file of a loaded package into a Tree.
//
// Trees share the package-wide type information. Reparse on such a
// tree type-checks the new source as a standalone file.
func FromPackage(pkg *packages.Package, opts ...Option) ([]*Tree, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var syntaxErrors scanner.ErrorList
	for _, err := range pkg.Errors {
		if err.Kind != packages.ParseError {
			continue
		}
		syntaxErrors.Add(parsePos(err.Pos), err.Msg)
	}

	trees := make([]*Tree, 0, len(pkg.Syntax))
	for _, f := range pkg.Syntax {
		filename := pkg.Fset.File(f.FileStart).Name()
		src, err := os.ReadFile(filename)
		if err != nil {
			return nil, &ParseFailure{Filename: filename, Err: err}
		}
		t := &Tree{
			Filename: filename,
			Src:      src,
			Fset:     pkg.Fset,
			File:     f,
			Pkg:      pkg.Types,
			Info:     pkg.TypesInfo,
			opts:     o,
		}
		if t.Info == nil {
			t.Info = newInfo()
		}
		for _, e := range syntaxErrors {
			if e.Pos.Filename == filename {
				t.SyntaxErrors = append(t.SyntaxErrors, e)
			}
		}
		if o.keepComment != nil {
			filterComments(f, o.keepComment)
		}
		t.collectMalformed()
		trees = append(trees, t)
	}
	return trees, nil
}

// parsePos decodes the "file:line:col" form packages.Error uses.
func parsePos(pos string) token.Position {
	var p token.Position
	parts := strings.Split(pos, ":")
	if len(parts) < 2 {
		p.Filename = pos
		return p
	}
	// Filenames may contain colons (Windows drive letters).
	nums := parts[len(parts)-2:]
	if line, err := strconv.Atoi(nums[0]); err == nil {
		p.Line = line
		if col, err := strconv.Atoi(nums[1]); err == nil {
			p.Column = col
		}
		p.Filename = strings.Join(parts[:len(parts)-2], ":")
		return p
	}
	if line, err := strconv.Atoi(nums[1]); err == nil {
		p.Line = line
		p.Filename = strings.Join(parts[:len(parts)-1], ":")
	}
	return p
}
