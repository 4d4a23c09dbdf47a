package linttest

import (
	"errors"
	"os"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/go-lintpack/rulepack"
	"github.com/go-lintpack/rulepack/codefix"
	"github.com/go-lintpack/rulepack/frontend"
)

// VerifyFix applies the fix titled title to every issue rule reports
// in fixture, following the provider mode, and compares the result
// with the fixed fixture byte for byte.
//
// It returns a line diff, empty when the texts are identical.
// A stale fix is returned as *codefix.StaleFixError, other problems
// as *SetupError.
func VerifyFix(fixture, fixed string, rule rulepack.Rule, provider codefix.Provider, title string) (string, error) {
	src, err := os.ReadFile(fixture)
	if err != nil {
		return "", &SetupError{Op: "read fixture", Path: fixture, Err: err}
	}
	want, err := os.ReadFile(fixed)
	if err != nil {
		return "", &SetupError{Op: "read fixed fixture", Path: fixed, Err: err}
	}
	tree, err := parseFixture(fixture, src)
	if err != nil {
		return "", err
	}
	session, err := newSession(fixture, nil, rule)
	if err != nil {
		return "", err
	}

	analyze := func(tree *frontend.Tree) []rulepack.Diagnostic {
		return session.AnalyzeTree(tree).Diagnostics
	}
	engine := codefix.NewEngine(provider)
	result, _, err := engine.ApplyAll(tree, analyze, title, provider.Mode())
	if err != nil {
		var stale *codefix.StaleFixError
		if errors.As(err, &stale) {
			return "", stale
		}
		return "", &SetupError{Op: "apply fix", Path: fixture, Err: err}
	}

	if string(result.Src) == string(want) {
		return "", nil
	}
	return cmp.Diff(strings.Split(string(want), "\n"), strings.Split(string(result.Src), "\n")), nil
}

// VerifyCodeFix is VerifyFix for tests.
func VerifyCodeFix(t TestT, fixture, fixed string, rule rulepack.Rule, provider codefix.Provider, title string) {
	t.Helper()
	diff, err := VerifyFix(fixture, fixed, rule, provider, title)
	if err != nil {
		t.Fatalf("%v", err)
		return
	}
	if diff != "" {
		t.Errorf("%s: fixed source mismatch (-want +got):\n%s", fixture, diff)
	}
}
