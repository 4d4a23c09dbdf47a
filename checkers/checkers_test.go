package checkers

import (
	"context"
	"go/ast"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/go-lintpack/rulepack"
	"github.com/go-lintpack/rulepack/codefix"
	"github.com/go-lintpack/rulepack/frontend"
	"github.com/go-lintpack/rulepack/lintdoc"
	"github.com/go-lintpack/rulepack/linter/lintmain"
	"github.com/go-lintpack/rulepack/linttest"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newCatalog(t *testing.T) *rulepack.Catalog {
	t.Helper()
	c := rulepack.NewCatalog()
	if err := Register(c); err != nil {
		t.Fatalf("register: %v", err)
	}
	return c
}

func TestCheckers(t *testing.T) {
	linttest.TestCatalog(t, newCatalog(t), "testdata")
}

func TestEnumNameDefaultFormat(t *testing.T) {
	linttest.VerifyAnalyzer(t, "testdata/enumName_default/enumName.go", newEnumNameChecker(), nil)
}

func providerFor(t *testing.T, id string) codefix.Provider {
	t.Helper()
	for _, p := range Providers() {
		for _, pid := range p.RuleIDs() {
			if pid == id {
				return p
			}
		}
	}
	t.Fatalf("no fix provider for %s", id)
	return nil
}

var fixTests = []struct {
	fixture string
	fixed   string
	rule    func() rulepack.Rule
	title   string
}{
	{
		fixture: "testdata/fix/stringEmptyCompare.go",
		fixed:   "testdata/fix/stringEmptyCompare.go.fixed",
		rule:    func() rulepack.Rule { return newStringEmptyCompareChecker() },
		title:   stringEmptyCompareFix,
	},
	{
		fixture: "testdata/fix/stringEmptyCompareImport.go",
		fixed:   "testdata/fix/stringEmptyCompareImport.go.fixed",
		rule:    func() rulepack.Rule { return newStringEmptyCompareChecker() },
		title:   stringEmptyCompareFix,
	},
	{
		fixture: "testdata/fix/stringEmptyCompareGroup.go",
		fixed:   "testdata/fix/stringEmptyCompareGroup.go.fixed",
		rule:    func() rulepack.Rule { return newStringEmptyCompareChecker() },
		title:   stringEmptyCompareFix,
	},
	{
		fixture: "testdata/fix/emptyFunc.go",
		fixed:   "testdata/fix/emptyFunc.go.fixed",
		rule:    func() rulepack.Rule { return newEmptyFuncChecker() },
		title:   emptyFuncPanicFix,
	},
	{
		fixture: "testdata/fix/emptyFunc.go",
		fixed:   "testdata/fix/emptyFunc.comment.go.fixed",
		rule:    func() rulepack.Rule { return newEmptyFuncChecker() },
		title:   emptyFuncCommentFix,
	},
	{
		fixture: "testdata/fix/emptyInit.go",
		fixed:   "testdata/fix/emptyInit.go.fixed",
		rule:    func() rulepack.Rule { return newEmptyFuncChecker() },
		title:   emptyFuncRemoveFix,
	},
}

func TestFixes(t *testing.T) {
	for _, test := range fixTests {
		t.Run(filepath.Base(test.fixed), func(t *testing.T) {
			rule := test.rule()
			provider := providerFor(t, rule.Descriptor().ID)
			linttest.VerifyCodeFix(t, test.fixture, test.fixed, rule, provider, test.title)
		})
	}
}

// TestFixesResolveIssues re-analyzes fixed sources: no diagnostic may
// still offer the applied fix.
func TestFixesResolveIssues(t *testing.T) {
	for _, test := range fixTests {
		t.Run(filepath.Base(test.fixed), func(t *testing.T) {
			rule := test.rule()
			provider := providerFor(t, rule.Descriptor().ID)
			c := rulepack.NewCatalog()
			c.MustAdd(rule)
			s, err := rulepack.NewSession(c, rulepack.SessionOptions{AllRules: true, Logger: quietLogger})
			if err != nil {
				t.Fatalf("NewSession: %v", err)
			}
			analyze := func(tree *frontend.Tree) []rulepack.Diagnostic {
				return s.AnalyzeTree(tree).Diagnostics
			}

			tree, err := frontend.ParseFile(test.fixture)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			engine := codefix.NewEngine(provider)
			fixed, n, err := engine.ApplyAll(tree, analyze, test.title, provider.Mode())
			if err != nil {
				t.Fatalf("ApplyAll: %v", err)
			}
			if n == 0 {
				t.Fatalf("no fix applied")
			}
			if len(fixed.TypeErrors) != 0 {
				t.Errorf("fixed source has type errors: %v", fixed.TypeErrors)
			}
			for _, d := range analyze(fixed) {
				if _, ok := engine.Lookup(d, test.title); ok {
					t.Errorf("%s: %q still applies after fixing", d, test.title)
				}
			}
		})
	}
}

func TestEmptyFuncPanicFixClearsTargets(t *testing.T) {
	c := rulepack.NewCatalog()
	c.MustAdd(newEmptyFuncChecker())
	s, err := rulepack.NewSession(c, rulepack.SessionOptions{Logger: quietLogger})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	tree, err := frontend.ParseFile("testdata/fix/emptyFunc.go")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	analyze := func(tree *frontend.Tree) []rulepack.Diagnostic {
		return s.AnalyzeTree(tree).Diagnostics
	}
	fixed, _, err := codefix.NewEngine(emptyFuncFixer{}).ApplyAll(tree, analyze, emptyFuncPanicFix, codefix.Iterative)
	if err != nil {
		t.Fatalf("ApplyAll: %v", err)
	}

	// Only init remains: it is never offered the panic fix.
	var names []string
	for _, d := range analyze(fixed) {
		names = append(names, d.Origin().(*ast.Ident).Name)
	}
	if len(names) != 1 || names[0] != "init" {
		t.Errorf("remaining issues on %v, want only init", names)
	}
}

func TestMalformedInput(t *testing.T) {
	for _, fixture := range []string{
		"testdata/malformed/broken.go",
		"testdata/malformed/nopackage.go",
	} {
		linttest.VerifyNoFault(t, fixture,
			newEmptyFuncChecker(),
			newEnumNameChecker(),
			newStringEmptyCompareChecker())
	}
}

func TestDocumentation(t *testing.T) {
	mismatches, err := lintdoc.CheckCoverage(newCatalog(t).IDs(), "testdata/docs")
	if err != nil {
		t.Fatalf("check coverage: %v", err)
	}
	for _, m := range mismatches {
		t.Errorf("%s", m)
	}
}

func TestMetrics(t *testing.T) {
	src := `package m

// A comment
// spanning two lines.
func a() {
	x := 1
	if x > 0 {
		x++
	}
	f := func() { _ = x }
	f()
}

/* block
   comment */
func b() int { return 0 }
`
	tree, err := frontend.Parse("m.go", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	s, err := rulepack.NewSession(newCatalog(t), rulepack.SessionOptions{
		AllRules: true,
		Logger:   quietLogger,
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	res := s.AnalyzeTree(tree)
	if len(res.Faults) != 0 {
		t.Fatalf("unexpected faults: %v", res.Faults)
	}

	facts := res.Facts["metrics"]
	want := map[string]int{
		FactFunctions:    3,
		FactStatements:   7,
		FactCommentLines: 4,
	}
	for key, n := range want {
		if got := facts[key]; got != n {
			t.Errorf("%s = %v, want %d", key, got, n)
		}
	}
}

func TestIntegration(t *testing.T) {
	cfg := lintmain.Config{
		Name:      "rulepack",
		Version:   "test",
		Register:  Register,
		Providers: Providers(),
	}
	test := linttest.IntegrationTest{
		Run: func(dir string, args []string, out io.Writer) error {
			return lintmain.Execute(context.Background(), cfg, dir, args, out, out)
		},
	}
	test.RunTests(t)
}
