package checkers

import (
	"go/ast"

	"github.com/go-lintpack/rulepack"
)

// Fact keys recorded by the metrics utility.
const (
	FactFunctions    = "functions"
	FactStatements   = "statements"
	FactCommentLines = "commentLines"
)

// metricsUtility counts functions, statements and comment lines.
type metricsUtility struct{}

func (metricsUtility) Name() string { return "metrics" }

func (metricsUtility) NodeKinds() []rulepack.NodeKind {
	return []rulepack.NodeKind{
		rulepack.KindFile,
		rulepack.KindFuncDecl,
		rulepack.KindFuncLit,
		rulepack.KindExprStmt,
		rulepack.KindAssignStmt,
		rulepack.KindDeclStmt,
		rulepack.KindReturnStmt,
		rulepack.KindIfStmt,
		rulepack.KindForStmt,
		rulepack.KindRangeStmt,
		rulepack.KindSwitchStmt,
		rulepack.KindTypeSwitchStmt,
		rulepack.KindSelectStmt,
		rulepack.KindGoStmt,
		rulepack.KindDeferStmt,
		rulepack.KindIncDecStmt,
		rulepack.KindSendStmt,
		rulepack.KindBranchStmt,
		rulepack.KindLabeledStmt,
	}
}

func (metricsUtility) Visit(ctx *rulepack.Context) {
	switch n := ctx.Node().(type) {
	case *ast.File:
		lines := 0
		for _, cg := range n.Comments {
			lines += ctx.Tree().Position(cg.End()).Line - ctx.Tree().Position(cg.Pos()).Line + 1
		}
		ctx.Record(FactCommentLines, lines)
	case *ast.FuncDecl, *ast.FuncLit:
		increment(ctx, FactFunctions)
	default:
		increment(ctx, FactStatements)
	}
}

func increment(ctx *rulepack.Context, key string) {
	v, _ := ctx.Fact(key)
	n, _ := v.(int)
	ctx.Record(key, n+1)
}
