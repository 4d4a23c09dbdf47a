package rulepack

// Rule is a detection rule.
//
// Visit is called once for every node whose kind is listed by
// NodeKinds, in source pre-order. A rule must not keep the Context
// beyond the Visit call.
type Rule interface {
	Descriptor() *Descriptor
	NodeKinds() []NodeKind
	Visit(ctx *Context)
}

// Configurable is implemented by rules that accept parameters.
//
// Configure is called once per session, before any traversal, with the
// bound parameter values. It returns the rule value the session runs;
// the catalog instance must stay untouched, since several sessions may
// be built from one catalog. Returning an error drops the rule from the
// session.
type Configurable interface {
	Params() []ParamSpec
	Configure(p *Params) (Rule, error)
}

// UtilityRule computes per-file facts instead of diagnostics.
//
// Utilities share the traversal with regular rules but cannot report:
// the Context they receive rejects Warn and Issue calls.
type UtilityRule interface {
	Name() string
	NodeKinds() []NodeKind
	Visit(ctx *Context)
}

// RuleBase is a type to be embedded into simple rules.
// It implements the Descriptor and NodeKinds methods.
type RuleBase struct {
	Info  Descriptor
	Kinds []NodeKind
}

// Descriptor returns the embedded rule metadata.
func (b *RuleBase) Descriptor() *Descriptor { return &b.Info }

// NodeKinds returns the kinds the rule subscribes to.
func (b *RuleBase) NodeKinds() []NodeKind { return b.Kinds }
