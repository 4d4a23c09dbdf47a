// Package linttest verifies rules against annotated source fixtures.
//
// A fixture is a Go file whose expected issues are declared by
// end-of-line marker comments:
//
//	strings.EqualFold(s, "") // Noncompliant {{message}} [[secondary=+0]]
//
// The full marker grammar is
//
//	Noncompliant[@±N] [count] [{{message}}] [[secondary=±a,±b]] [[secondaries=N]]
//
// where @±N moves the expected issue to another line, count is the
// number of issues expected on the line, the message must match
// exactly, and secondary lines are relative to the issue line.
// Lines without markers expect no issues. Markers are removed from
// the tree rules see, never from the source text.
package linttest

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/go-lintpack/rulepack"
	"github.com/go-lintpack/rulepack/frontend"
)

// TestT is the subset of testing.TB the harness reports through.
type TestT interface {
	Helper()
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

// SetupError reports a problem with the test setup rather than with
// the rule under test: missing or broken fixtures, invalid markers,
// invalid configuration or a faulty rule.
type SetupError struct {
	Op   string
	Path string
	Err  error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// MismatchKind classifies an assertion failure.
type MismatchKind int

const (
	UnexpectedIssue MismatchKind = iota
	MissingIssue
	CountMismatch
	MessageMismatch
	SecondaryCountMismatch
	SecondaryOrderMismatch
	SecondaryLocationMismatch
)

var mismatchKindNames = [...]string{
	UnexpectedIssue:           "unexpected issue",
	MissingIssue:              "missing issue",
	CountMismatch:             "issue count mismatch",
	MessageMismatch:           "message mismatch",
	SecondaryCountMismatch:    "secondary count mismatch",
	SecondaryOrderMismatch:    "secondary order mismatch",
	SecondaryLocationMismatch: "secondary location mismatch",
}

func (k MismatchKind) String() string {
	if int(k) < len(mismatchKindNames) {
		return mismatchKindNames[k]
	}
	return fmt.Sprintf("MismatchKind(%d)", int(k))
}

// AssertionMismatch is a difference between expected and actual issues.
type AssertionMismatch struct {
	Kind MismatchKind
	File string
	Line int
	Want string
	Got  string
}

func (m AssertionMismatch) String() string {
	switch {
	case m.Want == "":
		return fmt.Sprintf("%s:%d: %s: %s", m.File, m.Line, m.Kind, m.Got)
	case m.Got == "":
		return fmt.Sprintf("%s:%d: %s: %s", m.File, m.Line, m.Kind, m.Want)
	default:
		return fmt.Sprintf("%s:%d: %s:\n\twant: %s\n\tgot:  %s", m.File, m.Line, m.Kind, m.Want, m.Got)
	}
}

// Report is the outcome of verifying one fixture.
type Report struct {
	Fixture     string
	Diagnostics []rulepack.Diagnostic
	Mismatches  []AssertionMismatch
}

// OK reports whether the fixture matched its markers.
func (r *Report) OK() bool { return len(r.Mismatches) == 0 }

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Verify runs rule over fixture with the given raw parameter values
// and compares the diagnostics with the fixture markers.
//
// Problems with the setup are returned as *SetupError; mismatches are
// part of the report.
func Verify(fixture string, rule rulepack.Rule, params map[string]string) (*Report, error) {
	src, err := os.ReadFile(fixture)
	if err != nil {
		return nil, &SetupError{Op: "read fixture", Path: fixture, Err: err}
	}
	golden, err := newGoldenFile(fixture, src)
	if err != nil {
		return nil, &SetupError{Op: "parse markers", Path: fixture, Err: err}
	}
	tree, err := parseFixture(fixture, src)
	if err != nil {
		return nil, err
	}
	session, err := newSession(fixture, params, rule)
	if err != nil {
		return nil, err
	}

	res := session.AnalyzeTree(tree)
	if len(res.Faults) != 0 {
		return nil, &SetupError{Op: "run rule", Path: fixture, Err: res.Faults[0]}
	}
	return &Report{
		Fixture:     fixture,
		Diagnostics: res.Diagnostics,
		Mismatches:  compare(golden, res.Diagnostics),
	}, nil
}

// VerifyAnalyzer is Verify for tests: setup problems are fatal,
// every mismatch is reported as an error.
func VerifyAnalyzer(t TestT, fixture string, rule rulepack.Rule, params map[string]string) {
	t.Helper()
	report, err := Verify(fixture, rule, params)
	if err != nil {
		t.Fatalf("%v", err)
		return
	}
	for _, m := range report.Mismatches {
		t.Errorf("%s", m)
	}
}

// VerifyNoFault runs rules over a possibly malformed fixture and
// fails if any of them faults. A fixture without any syntax tree is
// accepted as long as it is skipped cleanly.
func VerifyNoFault(t TestT, fixture string, rules ...rulepack.Rule) {
	t.Helper()
	session, err := newSession(fixture, nil, rules...)
	if err != nil {
		t.Fatalf("%v", err)
		return
	}
	res := session.AnalyzeFile(fixture)
	var failure *frontend.ParseFailure
	if res.Err != nil && !errors.As(res.Err, &failure) {
		t.Fatalf("analyze %s: %v", fixture, res.Err)
		return
	}
	for _, f := range res.Faults {
		t.Errorf("%s", f)
	}
}

// TestCatalog runs every catalog rule against the fixtures under
// dir/<ruleID>/*.go using default parameters.
//
// Parameters can be overridden with a dir/<ruleID>/params.yaml file
// holding a flat name to value mapping.
func TestCatalog(t *testing.T, c *rulepack.Catalog, dir string) {
	for _, r := range c.Rules() {
		rule := r
		id := rule.Descriptor().ID
		t.Run(id, func(t *testing.T) {
			if testing.CoverMode() == "" {
				t.Parallel()
			}
			ruleDir := filepath.Join(dir, id)
			fixtures, err := filepath.Glob(filepath.Join(ruleDir, "*.go"))
			if err != nil {
				t.Fatalf("list fixtures: %v", err)
			}
			if len(fixtures) == 0 {
				t.Fatalf("no fixtures in %s", ruleDir)
			}
			params, err := readParams(filepath.Join(ruleDir, "params.yaml"))
			if err != nil {
				t.Fatalf("%v", err)
			}
			sort.Strings(fixtures)
			for _, fixture := range fixtures {
				VerifyAnalyzer(t, fixture, rule, params)
			}
		})
	}
}

func readParams(filename string) (map[string]string, error) {
	data, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &SetupError{Op: "read params", Path: filename, Err: err}
	}
	var params map[string]string
	if err := yaml.Unmarshal(data, &params); err != nil {
		return nil, &SetupError{Op: "decode params", Path: filename, Err: err}
	}
	return params, nil
}

func parseFixture(fixture string, src []byte) (*frontend.Tree, error) {
	tree, err := frontend.Parse(fixture, src, frontend.WithCommentFilter(isNotMarker))
	if err != nil {
		return nil, &SetupError{Op: "parse fixture", Path: fixture, Err: err}
	}
	if tree.HasErrors() {
		return nil, &SetupError{Op: "parse fixture", Path: fixture, Err: tree.SyntaxErrors.Err()}
	}
	return tree, nil
}

// newSession builds a session running exactly the given rules.
func newSession(fixture string, params map[string]string, rules ...rulepack.Rule) (*rulepack.Session, error) {
	catalog := rulepack.NewCatalog()
	for _, r := range rules {
		if err := catalog.Add(r); err != nil {
			return nil, &SetupError{Op: "register rule", Path: fixture, Err: err}
		}
	}
	opts := rulepack.SessionOptions{
		AllRules:     true,
		Params:       make(map[string]map[string]string),
		ParseOptions: []frontend.Option{frontend.WithCommentFilter(isNotMarker)},
		Logger:       quietLogger,
	}
	for _, r := range rules {
		opts.Params[r.Descriptor().ID] = params
	}
	session, err := rulepack.NewSession(catalog, opts)
	if err != nil {
		return nil, &SetupError{Op: "configure", Path: fixture, Err: err}
	}
	if errs := session.ConfigErrors(); len(errs) != 0 {
		return nil, &SetupError{Op: "configure", Path: fixture, Err: errs[0]}
	}
	return session, nil
}

// compare matches diagnostics against the expected issues line by line.
func compare(golden *goldenFile, diags []rulepack.Diagnostic) []AssertionMismatch {
	byLine := make(map[int][]rulepack.Diagnostic)
	lines := make(map[int]bool)
	for _, d := range diags {
		byLine[d.Location.Line] = append(byLine[d.Location.Line], d)
		lines[d.Location.Line] = true
	}
	for line := range golden.issues {
		lines[line] = true
	}
	sorted := make([]int, 0, len(lines))
	for line := range lines {
		sorted = append(sorted, line)
	}
	sort.Ints(sorted)

	var mismatches []AssertionMismatch
	add := func(kind MismatchKind, line int, want, got string) {
		mismatches = append(mismatches, AssertionMismatch{
			Kind: kind,
			File: golden.filename,
			Line: line,
			Want: want,
			Got:  got,
		})
	}

	for _, line := range sorted {
		actual := byLine[line]
		expected := golden.expand(line)
		switch {
		case len(expected) == 0:
			for _, d := range actual {
				add(UnexpectedIssue, line, "", d.Message)
			}
			continue
		case len(actual) == 0:
			for _, e := range expected {
				add(MissingIssue, line, e.describe(), "")
			}
			continue
		case len(actual) != len(expected):
			add(CountMismatch, line,
				fmt.Sprintf("%d issue(s)", golden.total(line)),
				fmt.Sprintf("%d issue(s)", len(actual)))
			continue
		}

		for i, e := range expected {
			d := actual[i]
			if e.hasMessage && e.message != d.Message {
				add(MessageMismatch, line, e.message, d.Message)
			}
			got := secondaryLines(d)
			switch {
			case e.secondaryLines != nil:
				compareSecondary(add, line, e.secondaryLines, got)
			case e.secondaryCount >= 0 && e.secondaryCount != len(got):
				add(SecondaryCountMismatch, line,
					strconv.Itoa(e.secondaryCount), strconv.Itoa(len(got)))
			}
		}
	}
	return mismatches
}

func compareSecondary(add func(MismatchKind, int, string, string), line int, want, got []int) {
	if len(want) != len(got) {
		add(SecondaryCountMismatch, line, strconv.Itoa(len(want)), strconv.Itoa(len(got)))
		return
	}
	same := true
	for i := range want {
		if want[i] != got[i] {
			same = false
			break
		}
	}
	if same {
		return
	}
	kind := SecondaryLocationMismatch
	if sameSet(want, got) {
		kind = SecondaryOrderMismatch
	}
	add(kind, line, fmt.Sprint(want), fmt.Sprint(got))
}

func sameSet(a, b []int) bool {
	x := append([]int(nil), a...)
	y := append([]int(nil), b...)
	sort.Ints(x)
	sort.Ints(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

func secondaryLines(d rulepack.Diagnostic) []int {
	lines := make([]int, len(d.Secondary))
	for i, s := range d.Secondary {
		lines[i] = s.Location.Line
	}
	return lines
}

func (issue *expectedIssue) describe() string {
	if issue.hasMessage {
		return issue.message
	}
	return "an issue"
}
