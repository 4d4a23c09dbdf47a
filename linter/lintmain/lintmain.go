package lintmain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/go-lintpack/rulepack"
	"github.com/go-lintpack/rulepack/codefix"
	"github.com/go-lintpack/rulepack/linter/lintmain/internal/check"
)

// Config is used to parametrize the linter.
type Config struct {
	Name    string
	Version string

	// Register fills the rule catalog.
	Register func(*rulepack.Catalog) error

	Providers []codefix.Provider
}

// Run executes the command line and exits with the resulting status.
// Does not return.
func Run(cfg Config) {
	log.SetFlags(0)
	err := Execute(context.Background(), cfg, "", os.Args[1:], os.Stdout, os.Stderr)
	var exitErr *check.ExitError
	switch {
	case err == nil:
		os.Exit(0)
	case errors.As(err, &exitErr):
		os.Exit(exitErr.Code)
	default:
		log.Printf("error: %v", err)
		os.Exit(1)
	}
}

// Execute runs the command line args inside dir, which defaults to the
// current directory. Found issues are reported as an error carrying
// the exit code.
func Execute(ctx context.Context, cfg Config, dir string, args []string, stdout, stderr io.Writer) error {
	catalog := rulepack.NewCatalog()
	if cfg.Register != nil {
		if err := cfg.Register(catalog); err != nil {
			return fmt.Errorf("register rules: %w", err)
		}
	}
	env := &environment{
		cfg:     cfg,
		catalog: catalog,
		dir:     dir,
		logger:  newLogger(stderr),
	}
	root := newRootCommand(env)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// environment is shared by all sub-commands of a single execution.
type environment struct {
	cfg     Config
	catalog *rulepack.Catalog
	dir     string
	logger  *slog.Logger
}

func (env *environment) fs() afero.Fs {
	return afero.NewOsFs()
}

// path resolves p against the working directory of the run.
func (env *environment) path(p string) string {
	if env.dir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(env.dir, p)
}

// newLogger returns a text logger without timestamps, so that the
// output of a run is reproducible.
func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelWarn,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}
