package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-lintpack/rulepack"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{".rulepack.yml", `
jobs: 4
enable: [S2342]
disable:
  - S1186
rules:
  S2342:
    format: "^[A-Z][a-zA-Z0-9]*$"
  S9000:
    max: 10
    strict: true
`},
		{".rulepack.json", `{
  "jobs": 4,
  "enable": ["S2342"],
  "disable": ["S1186"],
  "rules": {
    "S2342": {"format": "^[A-Z][a-zA-Z0-9]*$"},
    "S9000": {"max": 10, "strict": true}
  }
}`},
		{".rulepack.toml", `
jobs = 4
enable = ["S2342"]
disable = ["S1186"]

[rules.S2342]
format = "^[A-Z][a-zA-Z0-9]*$"

[rules.S9000]
max = 10
strict = true
`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), test.name)
			writeFile(t, path, test.content)

			cfg, err := Load(path)
			require.NoError(t, err)
			require.Equal(t, path, cfg.Path)
			require.Equal(t, 4, cfg.Jobs)
			require.Equal(t, []string{"S2342"}, cfg.Enable)
			require.Equal(t, []string{"S1186"}, cfg.Disable)
			require.Equal(t, map[string]map[string]string{
				"s2342": {"format": "^[A-Z][a-zA-Z0-9]*$"},
				"s9000": {"max": "10", "strict": "true"},
			}, cfg.Rules)

			require.Equal(t, map[string]map[string]string{
				"S2342": {"format": "^[A-Z][a-zA-Z0-9]*$"},
			}, cfg.Params([]string{"S2342", "S1186"}))
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yml"))
	require.Error(t, err)

	negative := filepath.Join(dir, "negative.yml")
	writeFile(t, negative, "jobs: -1\n")
	_, err = Load(negative)
	require.ErrorContains(t, err, "jobs must be >= 0")

	broken := filepath.Join(dir, "broken.yml")
	writeFile(t, broken, "rules: [\n")
	_, err = Load(broken)
	require.Error(t, err)
}

func TestLoadMalformedParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".rulepack.yml")
	writeFile(t, path, `
rules:
  S2342:
    format: [a, b]
    other: x
    nested:
      key: value
  S1186: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, map[string]map[string]string{
		"s2342": {"other": "x"},
		"s1186": {},
	}, cfg.Rules)
	require.Equal(t, []rulepack.ConfigWarning{
		{RuleID: "s1186", Value: "5", Reason: "parameters must be a mapping, using defaults"},
		{RuleID: "s2342", Param: "format", Value: "[a b]", Reason: "want a scalar value, using default"},
		{RuleID: "s2342", Param: "nested", Value: "map[key:value]", Reason: "want a scalar value, using default"},
	}, cfg.Warnings)
}

func TestLoadEmptyRule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rulepack.yaml")
	writeFile(t, path, "rules:\n  S1186:\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Empty(t, cfg.Enable)
	require.Equal(t, 0, cfg.Jobs)
	require.Contains(t, cfg.Rules, "s1186")
	require.Empty(t, cfg.Rules["s1186"])
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := Discover(nested)
	require.NoError(t, err)
	if found != "" {
		// A configuration above the temporary directory is out of
		// the test's control.
		t.Skipf("found unrelated configuration %s", found)
	}

	want := filepath.Join(root, "a", ".rulepack.yml")
	writeFile(t, want, "jobs: 2\n")
	writeFile(t, filepath.Join(root, ".rulepack.json"), `{"jobs": 3}`)

	found, err = Discover(nested)
	require.NoError(t, err)
	require.Equal(t, want, found)

	file := filepath.Join(nested, "main.go")
	writeFile(t, file, "package main\n")
	found, err = Discover(file)
	require.NoError(t, err)
	require.Equal(t, want, found)

	cfg, err := LoadOrDiscover("", nested)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Jobs)

	cfg, err = LoadOrDiscover(filepath.Join(root, ".rulepack.json"), nested)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Jobs)
}

func TestLoadOrDiscoverDefault(t *testing.T) {
	dir := t.TempDir()
	if found, _ := Discover(dir); found != "" {
		t.Skipf("found unrelated configuration %s", found)
	}
	cfg, err := LoadOrDiscover("", dir)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}
