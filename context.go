package rulepack

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"

	"github.com/go-lintpack/rulepack/frontend"
)

// Errors a rule can trigger through its Context.
// They are recorded as rule faults, never returned to the rule.
var (
	ErrLocationOutsideFile = errors.New("location outside of the analyzed file")
	ErrUtilityReport       = errors.New("utility rules cannot report diagnostics")
)

// Context is what a rule sees while visiting a single node.
//
// A fresh Context is created for every (node, rule) pair. It must not
// be retained after Visit returns.
type Context struct {
	node  ast.Node
	stack []ast.Node
	run   *fileRun

	// Exactly one of rule and utility is set.
	rule    *Descriptor
	utility string
}

// Node returns the node being visited.
func (ctx *Context) Node() ast.Node { return ctx.node }

// Parent returns the node enclosing the visited one,
// or nil for the file root.
func (ctx *Context) Parent() ast.Node {
	if len(ctx.stack) < 2 {
		return nil
	}
	return ctx.stack[len(ctx.stack)-2]
}

// Stack returns the enclosing nodes, outermost first,
// ending with the visited node.
func (ctx *Context) Stack() []ast.Node { return ctx.stack }

// Tree returns the tree being traversed.
func (ctx *Context) Tree() *frontend.Tree { return ctx.run.tree }

// File returns the syntax root of the traversed tree.
func (ctx *Context) File() *ast.File { return ctx.run.tree.File }

// Filename returns the traversed file name.
func (ctx *Context) Filename() string { return ctx.run.tree.Filename }

// Semantics returns the semantic-query facade of the traversed tree.
func (ctx *Context) Semantics() *frontend.Semantics { return ctx.run.tree.Semantics() }

// Rule returns the visiting rule metadata, or nil for utility rules.
func (ctx *Context) Rule() *Descriptor { return ctx.rule }

// Warn reports a diagnostic at node n; args are formatted with the
// rule MessageFormat.
func (ctx *Context) Warn(n ast.Node, args ...interface{}) {
	ctx.Issue(n, args...).Emit()
}

// Issue starts a diagnostic at node n that can be extended with
// secondary locations before it is emitted.
func (ctx *Context) Issue(n ast.Node, args ...interface{}) *IssueBuilder {
	b := &IssueBuilder{ctx: ctx, node: n}
	if ctx.rule != nil {
		b.message = ctx.rule.Format(args...)
	}
	return b
}

// Record stores a per-file fact. Only meaningful for utility rules;
// facts recorded by regular rules are kept under the rule ID.
func (ctx *Context) Record(key string, value interface{}) {
	owner := ctx.utility
	if owner == "" {
		owner = ctx.rule.ID
	}
	ctx.run.record(owner, key, value)
}

// Fact returns a fact recorded earlier in this file by the same rule.
func (ctx *Context) Fact(key string) (interface{}, bool) {
	owner := ctx.utility
	if owner == "" {
		owner = ctx.rule.ID
	}
	v, ok := ctx.run.facts[owner][key]
	return v, ok
}

func (ctx *Context) ownerName() string {
	if ctx.rule != nil {
		return ctx.rule.ID
	}
	return ctx.utility
}

func (ctx *Context) location(n ast.Node) (Location, error) {
	if n == nil {
		return Location{}, ErrLocationOutsideFile
	}
	return ctx.locationOf(n.Pos(), n.End())
}

func (ctx *Context) locationOf(pos, end token.Pos) (Location, error) {
	tree := ctx.run.tree
	start, stop := tree.Offset(pos), tree.Offset(end)
	if start < 0 || stop < start {
		return Location{}, fmt.Errorf("%w: [%d, %d)", ErrLocationOutsideFile, start, stop)
	}
	p := tree.Position(pos)
	return Location{
		File:   tree.Filename,
		Start:  start,
		End:    stop,
		Line:   p.Line,
		Column: p.Column,
	}, nil
}

// IssueBuilder collects a diagnostic with secondary locations.
type IssueBuilder struct {
	ctx       *Context
	node      ast.Node
	message   string
	secondary []secondaryNode
}

type secondaryNode struct {
	node    ast.Node
	message string
}

// Message overrides the formatted message.
func (b *IssueBuilder) Message(format string, args ...interface{}) *IssueBuilder {
	b.message = fmt.Sprintf(format, args...)
	return b
}

// Secondary adds a secondary location at node n.
// Secondary locations keep the order they were added in.
func (b *IssueBuilder) Secondary(n ast.Node, message string) *IssueBuilder {
	b.secondary = append(b.secondary, secondaryNode{node: n, message: message})
	return b
}

// Emit hands the diagnostic to the sink.
func (b *IssueBuilder) Emit() {
	ctx := b.ctx
	if ctx.rule == nil {
		ctx.run.fault(ctx.ownerName(), b.node, ErrUtilityReport)
		return
	}
	loc, err := ctx.location(b.node)
	if err != nil {
		ctx.run.fault(ctx.ownerName(), ctx.node, err)
		return
	}
	d := Diagnostic{
		RuleID:   ctx.rule.ID,
		Severity: ctx.rule.Severity,
		Location: loc,
		Message:  b.message,
	}
	for _, s := range b.secondary {
		sloc, err := ctx.location(s.node)
		if err != nil {
			ctx.run.fault(ctx.ownerName(), ctx.node, err)
			return
		}
		d.Secondary = append(d.Secondary, Secondary{Location: sloc, Message: s.message})
	}
	ctx.run.sink.Report(d.WithOrigin(b.node))
}
