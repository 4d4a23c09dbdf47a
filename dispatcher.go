package rulepack

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"log/slog"
	"sort"
	"sync"

	"github.com/go-lintpack/rulepack/frontend"
	"github.com/go-lintpack/rulepack/internal/astwalk"
)

// ErrDispatcherClosed is returned by registration calls made after
// the first traversal.
var ErrDispatcherClosed = errors.New("dispatcher is closed for registration")

// RuleFault records a rule that panicked or misused its Context.
// The faulty rule is skipped for the rest of the file.
type RuleFault struct {
	RuleID string
	Pos    token.Position

	// Value is the recovered panic value or the misuse error.
	Value interface{}
}

func (f RuleFault) Error() string {
	return fmt.Sprintf("%s: rule %s failed: %v", f.Pos, f.RuleID, f.Value)
}

// Unwrap returns Value when it is an error.
func (f RuleFault) Unwrap() error {
	err, _ := f.Value.(error)
	return err
}

// FileResult is the outcome of analyzing one file.
type FileResult struct {
	Filename string

	// Tree is nil when the file could not be parsed.
	Tree *frontend.Tree

	// Diagnostics are sorted by location, then rule ID.
	Diagnostics []Diagnostic

	Faults []RuleFault

	// Facts maps utility names to the facts they recorded.
	Facts map[string]map[string]interface{}

	// Err is a *frontend.ParseFailure for files that were skipped.
	Err error
}

type entry struct {
	rule    *Descriptor
	utility string
	visit   func(*Context)
}

func (e entry) name() string {
	if e.rule != nil {
		return e.rule.ID
	}
	return e.utility
}

// Dispatcher routes nodes to the rules registered for their kind.
//
// Registration is only allowed before the first Traverse; after that
// the table is read-only and Traverse may be called concurrently.
type Dispatcher struct {
	mu     sync.Mutex
	closed bool
	table  map[NodeKind][]entry
	filter []ast.Node
	logger *slog.Logger
}

// NewDispatcher returns an empty dispatcher.
// A nil logger means slog.Default().
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		table:  make(map[NodeKind][]entry),
		logger: logger,
	}
}

// Register subscribes r to nodes of the given kind.
// Rules registered for the same kind run in registration order.
func (d *Dispatcher) Register(kind NodeKind, r Rule) error {
	return d.add(kind, entry{rule: r.Descriptor(), visit: r.Visit})
}

// RegisterRule subscribes r to every kind it declares.
func (d *Dispatcher) RegisterRule(r Rule) error {
	for _, kind := range r.NodeKinds() {
		if err := d.Register(kind, r); err != nil {
			return err
		}
	}
	return nil
}

// RegisterUtility subscribes u to every kind it declares.
func (d *Dispatcher) RegisterUtility(u UtilityRule) error {
	for _, kind := range u.NodeKinds() {
		if err := d.add(kind, entry{utility: u.Name(), visit: u.Visit}); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) add(kind NodeKind, e entry) error {
	if !kind.Valid() {
		return fmt.Errorf("%s: unknown node kind %q", e.name(), kind)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return fmt.Errorf("%s: %w", e.name(), ErrDispatcherClosed)
	}
	d.table[kind] = append(d.table[kind], e)
	return nil
}

// Kinds returns the registered node kinds in lexical order.
func (d *Dispatcher) Kinds() []NodeKind {
	d.mu.Lock()
	defer d.mu.Unlock()
	kinds := make([]NodeKind, 0, len(d.table))
	for k := range d.table {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func (d *Dispatcher) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	for kind := range d.table {
		d.filter = append(d.filter, kindPrototypes[kind])
	}
}

// Traverse walks tree once and dispatches every node to the rules
// registered for its kind. Diagnostics go to sink.
//
// Nodes overlapping a region that failed to parse are not dispatched.
// A panicking rule is recorded as a fault and skipped for the rest
// of this file.
func (d *Dispatcher) Traverse(tree *frontend.Tree, sink *Sink) *FileResult {
	d.close()

	run := &fileRun{
		tree:     tree,
		sink:     sink,
		logger:   d.logger,
		disabled: make(map[string]bool),
	}
	astwalk.Walk(tree.File, d.filter, astwalk.VisitorFunc(func(n ast.Node, stack []ast.Node) {
		if tree.Malformed(n) {
			return
		}
		for _, e := range d.table[KindOf(n)] {
			if run.disabled[e.name()] {
				continue
			}
			ctx := &Context{
				node:    n,
				stack:   stack,
				run:     run,
				rule:    e.rule,
				utility: e.utility,
			}
			run.visit(e, ctx)
		}
	}))

	return &FileResult{
		Filename:    tree.Filename,
		Tree:        tree,
		Diagnostics: sink.Snapshot(),
		Faults:      run.faults,
		Facts:       run.facts,
	}
}

// fileRun is the mutable state of a single traversal.
type fileRun struct {
	tree     *frontend.Tree
	sink     *Sink
	logger   *slog.Logger
	faults   []RuleFault
	facts    map[string]map[string]interface{}
	disabled map[string]bool
}

func (r *fileRun) visit(e entry, ctx *Context) {
	defer func() {
		if v := recover(); v != nil {
			r.disabled[e.name()] = true
			r.fault(e.name(), ctx.node, v)
		}
	}()
	e.visit(ctx)
}

func (r *fileRun) fault(owner string, n ast.Node, value interface{}) {
	var pos token.Position
	if n != nil {
		pos = r.tree.Position(n.Pos())
	}
	r.faults = append(r.faults, RuleFault{RuleID: owner, Pos: pos, Value: value})
	r.logger.Warn("rule fault",
		slog.String("rule", owner),
		slog.String("pos", pos.String()),
		slog.Any("value", value))
}

func (r *fileRun) record(owner, key string, value interface{}) {
	if r.facts == nil {
		r.facts = make(map[string]map[string]interface{})
	}
	m := r.facts[owner]
	if m == nil {
		m = make(map[string]interface{})
		r.facts[owner] = m
	}
	m[key] = value
}
