package rulepack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/go-lintpack/rulepack/frontend"
)

// SessionOptions selects and configures the rules of a session.
type SessionOptions struct {
	// Params holds raw parameter values keyed by rule ID,
	// then by parameter name.
	Params map[string]map[string]string

	// Enable lists rule IDs to run even if they are disabled by default.
	Enable []string

	// Disable lists rule IDs that must not run. Disable wins over Enable.
	Disable []string

	// AllRules enables every catalog rule not listed in Disable.
	AllRules bool

	// ParseOptions are passed to the front end for AnalyzeFiles.
	ParseOptions []frontend.Option

	Logger *slog.Logger
}

// Session is a configured set of rules ready to analyze files.
type Session struct {
	dispatcher *Dispatcher
	rules      []Rule
	warnings   []ConfigWarning
	errs       []error
	parseOpts  []frontend.Option
	logger     *slog.Logger
}

// NewSession selects the active rules of c, binds their parameters
// and builds the dispatcher.
//
// Rules whose configuration fails are dropped; the failure is kept in
// ConfigErrors and the session is still usable. Unknown IDs in Enable
// or Disable are reported as an error.
func NewSession(c *Catalog, opts SessionOptions) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	enabled, err := idSet(c, opts.Enable)
	if err != nil {
		return nil, fmt.Errorf("enable: %w", err)
	}
	disabled, err := idSet(c, opts.Disable)
	if err != nil {
		return nil, fmt.Errorf("disable: %w", err)
	}

	s := &Session{
		dispatcher: NewDispatcher(logger),
		parseOpts:  opts.ParseOptions,
		logger:     logger,
	}
	for _, r := range c.Rules() {
		d := r.Descriptor()
		if disabled[d.ID] {
			continue
		}
		if !d.EnabledByDefault && !opts.AllRules && !enabled[d.ID] {
			continue
		}
		active, err := s.configure(r, opts.Params[d.ID])
		if err != nil {
			s.errs = append(s.errs, err)
			logger.Error("rule dropped",
				slog.String("rule", d.ID),
				slog.Any("error", err))
			continue
		}
		if err := s.dispatcher.RegisterRule(active); err != nil {
			return nil, err
		}
		s.rules = append(s.rules, active)
	}
	for _, u := range c.Utilities() {
		if err := s.dispatcher.RegisterUtility(u); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// configure returns the rule value bound to raw for this session.
func (s *Session) configure(r Rule, raw map[string]string) (Rule, error) {
	conf, ok := r.(Configurable)
	if !ok {
		return r, nil
	}
	id := r.Descriptor().ID
	params, warnings, err := Bind(id, conf.Params(), raw)
	for _, w := range warnings {
		s.logger.Warn("invalid rule parameter", slog.String("warning", w.String()))
	}
	s.warnings = append(s.warnings, warnings...)
	if err != nil {
		return nil, err
	}
	configured, err := conf.Configure(params)
	if err != nil {
		var cerr *ConfigError
		if errors.As(err, &cerr) {
			return nil, err
		}
		return nil, &ConfigError{RuleID: id, Err: err}
	}
	if configured == nil {
		return nil, &ConfigError{RuleID: id, Err: errors.New("configure returned no rule")}
	}
	return configured, nil
}

func idSet(c *Catalog, ids []string) (map[string]bool, error) {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := c.Lookup(id); !ok {
			return nil, fmt.Errorf("unknown rule %q", id)
		}
		set[id] = true
	}
	return set, nil
}

// Rules returns the active rules.
func (s *Session) Rules() []Rule { return append([]Rule(nil), s.rules...) }

// Warnings returns the parameter values replaced by defaults.
func (s *Session) Warnings() []ConfigWarning { return s.warnings }

// ConfigErrors returns the errors of dropped rules.
func (s *Session) ConfigErrors() []error { return s.errs }

// AnalyzeTree runs the active rules over tree with a fresh sink.
func (s *Session) AnalyzeTree(tree *frontend.Tree) *FileResult {
	return s.dispatcher.Traverse(tree, NewSink())
}

// AnalyzeFile parses and analyzes a single file.
// A file that cannot be parsed yields a result with Err set.
func (s *Session) AnalyzeFile(path string) *FileResult {
	tree, err := frontend.ParseFile(path, s.parseOpts...)
	if err != nil {
		s.logger.Error("file skipped",
			slog.String("file", path),
			slog.Any("error", err))
		return &FileResult{Filename: path, Err: err}
	}
	return s.AnalyzeTree(tree)
}

// AnalyzeFiles analyzes paths in parallel, at most jobs at a time.
// Non-positive jobs means runtime.NumCPU().
//
// Results are returned in input order. The only error is the
// cancellation of ctx; per-file failures are kept in FileResult.Err.
func (s *Session) AnalyzeFiles(ctx context.Context, paths []string, jobs int) ([]*FileResult, error) {
	return s.parallel(ctx, len(paths), jobs, func(i int) *FileResult {
		return s.AnalyzeFile(paths[i])
	})
}

// AnalyzeTrees is like AnalyzeFiles for trees that are already built.
func (s *Session) AnalyzeTrees(ctx context.Context, trees []*frontend.Tree, jobs int) ([]*FileResult, error) {
	return s.parallel(ctx, len(trees), jobs, func(i int) *FileResult {
		return s.AnalyzeTree(trees[i])
	})
}

func (s *Session) parallel(ctx context.Context, n, jobs int, analyze func(i int) *FileResult) ([]*FileResult, error) {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	results := make([]*FileResult, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = analyze(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
