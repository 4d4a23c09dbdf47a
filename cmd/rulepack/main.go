package main

import (
	"github.com/go-lintpack/rulepack/checkers"
	"github.com/go-lintpack/rulepack/linter/lintmain"
)

var version = "v0.1.0"

func main() {
	lintmain.Run(lintmain.Config{
		Name:      "rulepack",
		Version:   version,
		Register:  checkers.Register,
		Providers: checkers.Providers(),
	})
}
