// Package checkers is a small rule catalog exercising the engine.
package checkers

import (
	"github.com/go-lintpack/rulepack"
	"github.com/go-lintpack/rulepack/codefix"
)

// Register adds every rule of the package to c.
func Register(c *rulepack.Catalog) error {
	rules := []rulepack.Rule{
		newEmptyFuncChecker(),
		newEnumNameChecker(),
		newStringEmptyCompareChecker(),
	}
	for _, r := range rules {
		if err := c.Add(r); err != nil {
			return err
		}
	}
	return c.AddUtility(metricsUtility{})
}

// Providers returns the fix providers for the package rules.
func Providers() []codefix.Provider {
	return []codefix.Provider{
		emptyFuncFixer{},
		stringEmptyCompareFixer{},
	}
}
