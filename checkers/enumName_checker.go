package checkers

import (
	"go/ast"
	"regexp"

	"github.com/go-toolsmith/typep"

	"github.com/go-lintpack/rulepack"
)

type enumNameChecker struct {
	rulepack.RuleBase

	format    *regexp.Regexp
	rawFormat string
}

func newEnumNameChecker() *enumNameChecker {
	c := &enumNameChecker{}
	c.Info = rulepack.Descriptor{
		ID:            "S2342",
		Name:          "enumName",
		Title:         "Detects integer-based named types that break the naming convention",
		MessageFormat: `Rename this enum type to match the regular expression: "%s".`,
		Severity:      rulepack.SeverityMinor,
		Tags:          []string{"style", "naming"},
	}
	c.Kinds = []rulepack.NodeKind{rulepack.KindTypeSpec}
	return c
}

func (c *enumNameChecker) Params() []rulepack.ParamSpec {
	return []rulepack.ParamSpec{
		{
			Name:        "format",
			Type:        rulepack.ParamRegex,
			Default:     "^[A-Za-z][A-Za-z0-9]*$",
			Description: "regular expression enum type names must match",
		},
	}
}

func (c *enumNameChecker) Configure(p *rulepack.Params) (rulepack.Rule, error) {
	configured := &enumNameChecker{
		RuleBase:  c.RuleBase,
		format:    p.Regexp("format"),
		rawFormat: p.Raw("format"),
	}
	return configured, nil
}

func (c *enumNameChecker) Visit(ctx *rulepack.Context) {
	spec := ctx.Node().(*ast.TypeSpec)
	if spec.Assign.IsValid() || c.format == nil {
		return
	}
	tn, ok := ctx.Semantics().DeclaredType(spec)
	if !ok || !typep.HasIntegerProp(tn.Type().Underlying()) {
		return
	}
	if !c.format.MatchString(spec.Name.Name) {
		ctx.Warn(spec.Name, c.rawFormat)
	}
}
