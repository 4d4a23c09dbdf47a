package rulepack

import (
	"go/ast"
	"reflect"
	"testing"

	"github.com/go-toolsmith/astp"
	"github.com/go-toolsmith/strparse"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		expr string
		want NodeKind
		is   func(ast.Node) bool
	}{
		{`f(x)`, KindCallExpr, astp.IsCallExpr},
		{`a.b`, KindSelectorExpr, astp.IsSelectorExpr},
		{`x + y`, KindBinaryExpr, astp.IsBinaryExpr},
		{`-x`, KindUnaryExpr, astp.IsUnaryExpr},
		{`(x)`, KindParenExpr, astp.IsParenExpr},
		{`"s"`, KindBasicLit, astp.IsBasicLit},
		{`x`, KindIdent, astp.IsIdent},
		{`func() {}`, KindFuncLit, astp.IsFuncLit},
		{`[]int{1}`, KindCompositeLit, astp.IsCompositeLit},
		{`m[k]`, KindIndexExpr, astp.IsIndexExpr},
		{`s[1:2]`, KindSliceExpr, astp.IsSliceExpr},
		{`x.(T)`, KindTypeAssertExpr, astp.IsTypeAssertExpr},
		{`*p`, KindStarExpr, astp.IsStarExpr},
	}

	for _, test := range tests {
		n := strparse.Expr(test.expr)
		if !test.is(n) {
			t.Errorf("%s: parsed into unexpected %T", test.expr, n)
			continue
		}
		if got := KindOf(n); got != test.want {
			t.Errorf("KindOf(%s) = %q, want %q", test.expr, got, test.want)
		}
	}
}

func TestKindOfStatements(t *testing.T) {
	tests := []struct {
		stmt string
		want NodeKind
	}{
		{`x := 1`, KindAssignStmt},
		{`return`, KindReturnStmt},
		{`if x {}`, KindIfStmt},
		{`for {}`, KindForStmt},
		{`for range xs {}`, KindRangeStmt},
		{`go f()`, KindGoStmt},
		{`defer f()`, KindDeferStmt},
		{`x++`, KindIncDecStmt},
		{`f()`, KindExprStmt},
		{`switch {}`, KindSwitchStmt},
		{`select {}`, KindSelectStmt},
	}

	for _, test := range tests {
		n := strparse.Stmt(test.stmt)
		if n == strparse.BadStmt {
			t.Errorf("%s: can't parse", test.stmt)
			continue
		}
		if got := KindOf(n); got != test.want {
			t.Errorf("KindOf(%s) = %q, want %q", test.stmt, got, test.want)
		}
	}
}

func TestKindSetIsClosed(t *testing.T) {
	if KindOf(nil) != "" {
		t.Errorf("nil node must have no kind")
	}
	if KindOf(&ast.BadExpr{}) != "" {
		t.Errorf("bad nodes must have no kind")
	}
	if NodeKind("call").Valid() {
		t.Errorf("unknown kind reported as valid")
	}

	kinds := Kinds()
	if len(kinds) != len(kindPrototypes) {
		t.Fatalf("Kinds returned %d kinds, want %d", len(kinds), len(kindPrototypes))
	}
	types := make(map[reflect.Type]bool)
	for i, k := range kinds {
		if !k.Valid() {
			t.Errorf("%q is not valid", k)
		}
		if i > 0 && kinds[i-1] >= k {
			t.Errorf("kinds are not sorted: %q before %q", kinds[i-1], k)
		}
		typ := reflect.TypeOf(kindPrototypes[k])
		if types[typ] {
			t.Errorf("%s is mapped by more than one kind", typ)
		}
		types[typ] = true
	}
}
