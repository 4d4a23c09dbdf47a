package check

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/build"
	"io"
	"log"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/logrusorgru/aurora"

	"github.com/go-lintpack/rulepack"
	"github.com/go-lintpack/rulepack/codefix"
	"github.com/go-lintpack/rulepack/config"
	"github.com/go-lintpack/rulepack/frontend"
)

// ExitError carries the process exit status of a finished run.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Options parametrize a linter run.
type Options struct {
	Catalog   *rulepack.Catalog
	Providers []codefix.Provider

	// Dir is the working directory targets are resolved against.
	Dir string

	Out    io.Writer
	Logger *slog.Logger

	// Targets are package patterns, or .go files.
	Targets []string

	ConfigPath string

	Enable      string
	Disable     string
	DisableTags string

	ExitCode           int
	CheckTests         bool
	CheckGenerated     bool
	ShorterErrLocation bool
	ColoredOutput      bool
	Jobs               int

	// FixTitle switches the run to fixing mode.
	FixTitle string
}

// Main runs the linter and reports found issues through an *ExitError.
func Main(ctx context.Context, opts Options) error {
	l := linter{opts: opts}

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"load config", l.loadConfig},
		{"init rules", l.initRules},
		{"load program", l.loadProgram},
		{"run rules", l.runRules},
		{"exit if found issues", l.exit},
	}

	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			var exitErr *ExitError
			if errors.As(err, &exitErr) {
				return err
			}
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	return nil
}

type linter struct {
	opts Options

	cfg     *config.Config
	session *rulepack.Session
	trees   []*frontend.Tree
	skipped []*rulepack.FileResult

	foundIssues bool
}

func (l *linter) exit(context.Context) error {
	if l.foundIssues {
		return &ExitError{Code: l.opts.ExitCode}
	}
	return nil
}

func (l *linter) loadConfig(context.Context) error {
	dir := l.opts.Dir
	if dir == "" {
		dir = "."
	}
	cfg, err := config.LoadOrDiscover(l.resolve(l.opts.ConfigPath), dir)
	if err != nil {
		return err
	}
	l.cfg = cfg
	if l.opts.Logger != nil {
		for _, w := range cfg.Warnings {
			l.opts.Logger.Warn("invalid rule parameter",
				slog.String("config", l.location(cfg.Path)),
				slog.String("warning", w.String()))
		}
	}
	if l.opts.Jobs == 0 {
		l.opts.Jobs = cfg.Jobs
	}
	return nil
}

func (l *linter) initRules(context.Context) error {
	disableTagsRE, err := regexp.Compile(l.opts.DisableTags)
	if err != nil {
		return fmt.Errorf("-disableTags: %v", err)
	}
	disableRE, err := regexp.Compile(l.opts.Disable)
	if err != nil {
		return fmt.Errorf("-disable: %v", err)
	}
	var enableRE *regexp.Regexp
	if l.opts.Enable != "" {
		enableRE, err = regexp.Compile(l.opts.Enable)
		if err != nil {
			return fmt.Errorf("-enable: %v", err)
		}
	}

	inList := func(list []string, id string) bool {
		for _, x := range list {
			if strings.EqualFold(x, id) {
				return true
			}
		}
		return false
	}
	disabledByTags := func(d *rulepack.Descriptor) bool {
		for _, tag := range d.Tags {
			if l.opts.DisableTags != "" && disableTagsRE.MatchString(tag) {
				return true
			}
		}
		return false
	}
	matches := func(re *regexp.Regexp, d *rulepack.Descriptor) bool {
		return re.MatchString(d.ID) || re.MatchString(d.Name)
	}

	var enable, disable []string
	for _, r := range l.opts.Catalog.Rules() {
		d := r.Descriptor()
		on := d.EnabledByDefault || inList(l.cfg.Enable, d.ID)
		if inList(l.cfg.Disable, d.ID) {
			on = false
		}
		// The enable filter is applied after all other filters.
		if enableRE != nil {
			on = matches(enableRE, d)
		}
		if disabledByTags(d) || (l.opts.Disable != "" && matches(disableRE, d)) {
			on = false
		}
		if on {
			enable = append(enable, d.ID)
		} else {
			disable = append(disable, d.ID)
		}
	}

	session, err := rulepack.NewSession(l.opts.Catalog, rulepack.SessionOptions{
		Params:  l.cfg.Params(l.opts.Catalog.IDs()),
		Enable:  enable,
		Disable: disable,
		Logger:  l.opts.Logger,
	})
	if err != nil {
		return err
	}
	l.session = session
	return nil
}

func (l *linter) loadProgram(context.Context) error {
	if len(l.opts.Targets) == 0 {
		return fmt.Errorf("no targets specified")
	}
	if allFiles(l.opts.Targets) {
		for _, target := range l.opts.Targets {
			tree, err := frontend.ParseFile(l.resolve(target))
			if err != nil {
				l.skipped = append(l.skipped, &rulepack.FileResult{Filename: l.resolve(target), Err: err})
				continue
			}
			l.trees = append(l.trees, tree)
		}
		return nil
	}

	dir := l.opts.Dir
	pkgs, err := frontend.LoadPackages(dir, l.opts.CheckTests, l.opts.Targets...)
	if err != nil {
		return err
	}
	for _, pkg := range pkgs {
		trees, err := frontend.FromPackage(pkg)
		if err != nil {
			return err
		}
		for _, tree := range trees {
			if !l.opts.CheckTests && strings.HasSuffix(tree.Filename, "_test.go") {
				continue
			}
			if !l.opts.CheckGenerated && isGenerated(tree.File) {
				continue
			}
			l.trees = append(l.trees, tree)
		}
	}
	return nil
}

func (l *linter) runRules(ctx context.Context) error {
	results, err := l.session.AnalyzeTrees(ctx, l.trees, l.opts.Jobs)
	if err != nil {
		return err
	}
	printer := log.New(l.opts.Out, "", 0)
	for _, res := range l.skipped {
		printer.Printf("%s: %v\n", l.location(res.Filename), res.Err)
	}
	for _, res := range results {
		for _, f := range res.Faults {
			printer.Printf("%s: rule %s failed: %v\n", l.faultLocation(res, f), f.RuleID, f.Value)
		}
	}
	if l.opts.FixTitle != "" {
		return l.fix(results, printer)
	}
	for _, res := range results {
		for _, d := range res.Diagnostics {
			l.foundIssues = true
			loc := fmt.Sprintf("%s:%d:%d", l.location(d.Location.File), d.Location.Line, d.Location.Column)
			printWarning(printer, l.opts.ColoredOutput, d.RuleID, loc, d.Message)
		}
	}
	return nil
}

func (l *linter) fix(results []*rulepack.FileResult, printer *log.Logger) error {
	engine := codefix.NewEngine(l.opts.Providers...)
	analyze := func(tree *frontend.Tree) []rulepack.Diagnostic {
		return l.session.AnalyzeTree(tree).Diagnostics
	}
	for _, res := range results {
		mode, ok := fixMode(engine, res.Diagnostics, l.opts.FixTitle)
		if !ok {
			continue
		}
		fixed, n, err := engine.ApplyAll(res.Tree, analyze, l.opts.FixTitle, mode)
		if err != nil {
			printer.Printf("%s: %v\n", l.location(res.Filename), err)
			l.foundIssues = true
			continue
		}
		if err := codefix.WriteFile(fixed); err != nil {
			return err
		}
		printer.Printf("%s: applied %q %d time(s)\n", l.location(res.Filename), l.opts.FixTitle, n)
	}
	return nil
}

func (l *linter) faultLocation(res *rulepack.FileResult, f rulepack.RuleFault) string {
	if !f.Pos.IsValid() {
		return l.location(res.Filename)
	}
	return fmt.Sprintf("%s:%d:%d", l.location(f.Pos.Filename), f.Pos.Line, f.Pos.Column)
}

func fixMode(engine *codefix.Engine, diags []rulepack.Diagnostic, title string) (codefix.Mode, bool) {
	for _, d := range diags {
		if mode, ok := engine.ModeOf(d, title); ok {
			return mode, true
		}
	}
	return codefix.Single, false
}

func allFiles(targets []string) bool {
	for _, t := range targets {
		if !strings.HasSuffix(t, ".go") {
			return false
		}
	}
	return true
}

func (l *linter) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || l.opts.Dir == "" {
		return path
	}
	return filepath.Join(l.opts.Dir, path)
}

// location makes filename relative to the working directory
// and optionally shortens it.
func (l *linter) location(filename string) string {
	if l.opts.Dir != "" {
		if abs, err := filepath.Abs(l.opts.Dir); err == nil {
			if rel, err := filepath.Rel(abs, absPath(filename)); err == nil && !strings.HasPrefix(rel, "..") {
				return rel
			}
		}
	}
	if l.opts.ShorterErrLocation {
		return shortenLocation(filename)
	}
	return filename
}

func absPath(filename string) string {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return filename
	}
	return abs
}

var generatedFileCommentRE = regexp.MustCompile("Code generated .* DO NOT EDIT.")

func isGenerated(f *ast.File) bool {
	return len(f.Comments) != 0 &&
		generatedFileCommentRE.MatchString(f.Comments[0].Text())
}

func shortenLocation(loc string) string {
	switch {
	case strings.HasPrefix(loc, build.Default.GOPATH):
		return strings.Replace(loc, build.Default.GOPATH, "$GOPATH", 1)
	case strings.HasPrefix(loc, build.Default.GOROOT):
		return strings.Replace(loc, build.Default.GOROOT, "$GOROOT", 1)
	default:
		return loc
	}
}

func printWarning(printer *log.Logger, colored bool, rule, loc, warn string) {
	au := aurora.NewAurora(colored)
	printer.Printf("%v: %v: %v\n",
		au.Magenta(au.Bold(loc)),
		au.Red(rule),
		warn)
}
