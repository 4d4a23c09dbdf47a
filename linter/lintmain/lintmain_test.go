package lintmain

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-lintpack/rulepack"
	"github.com/go-lintpack/rulepack/checkers"
	"github.com/go-lintpack/rulepack/linter/lintmain/internal/check"
)

const emptyCompareSrc = `package x

import "strings"

func isEmpty(s string) bool {
	return strings.EqualFold(s, "")
}
`

func testConfig() Config {
	return Config{
		Name:      "rulepack",
		Version:   "test",
		Register:  checkers.Register,
		Providers: checkers.Providers(),
	}
}

func TestFixWritesFile(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "x.go")
	require.NoError(t, os.WriteFile(filename, []byte(emptyCompareSrc), 0o644))

	var out bytes.Buffer
	args := []string{"fix", "--coloredOutput=false", "--title", `Compare with ""`, "x.go"}
	require.NoError(t, Execute(context.Background(), testConfig(), dir, args, &out, &out))
	require.Equal(t, "x.go: applied \"Compare with \\\"\\\"\" 1 time(s)\n", out.String())

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	require.Contains(t, string(data), `return s == ""`)

	out.Reset()
	args = []string{"check", "--coloredOutput=false", "x.go"}
	require.NoError(t, Execute(context.Background(), testConfig(), dir, args, &out, &out))
	require.Empty(t, out.String())
}

func TestExitCode(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.go"), []byte(emptyCompareSrc), 0o644))

	var out bytes.Buffer
	args := []string{"check", "--coloredOutput=false", "--exitCode", "5", "x.go"}
	err := Execute(context.Background(), testConfig(), dir, args, &out, &out)
	var exitErr *check.ExitError
	require.True(t, errors.As(err, &exitErr), "got %v", err)
	require.Equal(t, 5, exitErr.Code)
	require.Contains(t, out.String(), "x.go:6:9: S3256: ")
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"check", "--disable", "(", "x.go"}, "init rules: -disable: "},
		{[]string{"check", "--config", "missing.yml", "x.go"}, "load config: "},
		{[]string{"doc", "S0000"}, `rule with ID "S0000" not found`},
		{[]string{"check"}, "requires at least 1 arg(s)"},
	}
	for _, test := range tests {
		var out bytes.Buffer
		err := Execute(context.Background(), testConfig(), t.TempDir(), test.args, &out, &out)
		require.Error(t, err, "%v", test.args)
		require.Contains(t, err.Error(), test.want, "%v", test.args)
	}
}

func TestSkippedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.go"), []byte("func f() {}\n"), 0o644))

	var out bytes.Buffer
	args := []string{"check", "--coloredOutput=false", "bad.go"}
	require.NoError(t, Execute(context.Background(), testConfig(), dir, args, &out, &out))
	require.Contains(t, out.String(), "bad.go: ")
}

func TestInvalidRuleParameter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.go"), []byte("package x\n\ntype level_t int\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yml"), []byte("enable: [S2342]\nrules:\n  S2342:\n    format: [a, b]\n"), 0o644))

	var out bytes.Buffer
	args := []string{"check", "--coloredOutput=false", "--config", "bad.yml", "x.go"}
	err := Execute(context.Background(), testConfig(), dir, args, &out, &out)
	var exitErr *check.ExitError
	require.True(t, errors.As(err, &exitErr), "got %v", err)
	require.Contains(t, out.String(), "invalid rule parameter")
	require.Contains(t, out.String(), `x.go:3:6: S2342: Rename this enum type to match the regular expression: "^[A-Za-z][A-Za-z0-9]*$".`)
}

// panicRule fails on the first identifier of every file.
type panicRule struct {
	rulepack.RuleBase
}

func (r *panicRule) Visit(*rulepack.Context) {
	panic("boom")
}

func TestRuleFaultsReported(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.go"), []byte("package x\n"), 0o644))

	cfg := testConfig()
	cfg.Register = func(c *rulepack.Catalog) error {
		r := &panicRule{}
		r.Info = rulepack.Descriptor{
			ID:               "S9999",
			Name:             "panicking",
			MessageFormat:    "never reported",
			EnabledByDefault: true,
		}
		r.Kinds = []rulepack.NodeKind{rulepack.KindIdent}
		return c.Add(r)
	}

	var out bytes.Buffer
	args := []string{"check", "--coloredOutput=false", "x.go"}
	require.NoError(t, Execute(context.Background(), cfg, dir, args, &out, &out))
	require.Contains(t, out.String(), "x.go:1:9: rule S9999 failed: boom\n")
}
