package linttest

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

// Runner executes the linter in-process inside dir and writes its
// output to out.
type Runner func(dir string, args []string, out io.Writer) error

// IntegrationTest runs the linter over the case directories found in Dir.
//
// Every case directory holds a linttest.yaml file listing runs:
//
//	- args: [check, a.go]
//	  golden: check.golden
//
// The combined output of each run is compared with its golden file.
type IntegrationTest struct {
	Dir string
	Run Runner
}

type integrationCase struct {
	Args   []string `yaml:"args"`
	Golden string   `yaml:"golden"`
}

// RunTests executes integration tests.
func (cfg *IntegrationTest) RunTests(t *testing.T) {
	dir := cfg.Dir
	if dir == "" {
		dir = "./testdata/_integration"
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		t.Fatalf("can't get dir abs path: %v", err)
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		t.Fatalf("list test dirs: %v", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		wd := filepath.Join(absDir, e.Name())
		t.Run(e.Name(), func(t *testing.T) {
			cfg.runTest(t, wd)
		})
	}
}

func (cfg *IntegrationTest) runTest(t *testing.T, wd string) {
	data, err := os.ReadFile(filepath.Join(wd, "linttest.yaml"))
	if err != nil {
		t.Fatalf("reading linter run params: %v", err)
	}
	var cases []integrationCase
	if err := yaml.Unmarshal(data, &cases); err != nil {
		t.Fatalf("decoding linter run params: %v", err)
	}

	// If several runs re-use a single golden file,
	// don't read it repeatedly, just re-use its contents.
	goldenDataCache := make(map[string]string)

	for i, c := range cases {
		want, ok := goldenDataCache[c.Golden]
		if !ok {
			data, err := os.ReadFile(filepath.Join(wd, c.Golden))
			if err != nil {
				t.Errorf("read golden file: %v", err)
				continue
			}
			want = strings.TrimSpace(string(data))
			goldenDataCache[c.Golden] = want
		}

		var out bytes.Buffer
		err := cfg.Run(wd, c.Args, &out)
		have := strings.TrimSpace(out.String())
		if err != nil {
			// Error is prepended to the beginning.
			have = strings.TrimSpace(err.Error() + "\n" + have)
		}

		// To get line-by-line diff, split is required.
		wantLines := strings.Split(want, "\n")
		haveLines := strings.Split(have, "\n")
		if diff := cmp.Diff(wantLines, haveLines); diff != "" {
			t.Errorf("linttest.yaml:%d: output mismatch:\n%s", i+1, diff)
			t.Logf("linter output was: %s\n", have)
		}
	}
}
