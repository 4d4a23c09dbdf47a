package rulepack

import (
	"go/ast"
	"reflect"
	"sort"
)

// NodeKind identifies a category of syntax nodes.
// It is the dispatcher registration key.
type NodeKind string

// Node kinds. The set is closed: it mirrors the go/ast node types.
const (
	KindFile           NodeKind = "file"
	KindComment        NodeKind = "comment"
	KindCommentGroup   NodeKind = "comment-group"
	KindField          NodeKind = "field"
	KindFieldList      NodeKind = "field-list"
	KindIdent          NodeKind = "ident"
	KindBasicLit       NodeKind = "basic-lit"
	KindEllipsis       NodeKind = "ellipsis"
	KindFuncLit        NodeKind = "func-lit"
	KindCompositeLit   NodeKind = "composite-lit"
	KindParenExpr      NodeKind = "paren-expr"
	KindSelectorExpr   NodeKind = "selector-expr"
	KindIndexExpr      NodeKind = "index-expr"
	KindIndexListExpr  NodeKind = "index-list-expr"
	KindSliceExpr      NodeKind = "slice-expr"
	KindTypeAssertExpr NodeKind = "type-assert-expr"
	KindCallExpr       NodeKind = "call-expr"
	KindStarExpr       NodeKind = "star-expr"
	KindUnaryExpr      NodeKind = "unary-expr"
	KindBinaryExpr     NodeKind = "binary-expr"
	KindKeyValueExpr   NodeKind = "key-value-expr"
	KindArrayType      NodeKind = "array-type"
	KindStructType     NodeKind = "struct-type"
	KindFuncType       NodeKind = "func-type"
	KindInterfaceType  NodeKind = "interface-type"
	KindMapType        NodeKind = "map-type"
	KindChanType       NodeKind = "chan-type"
	KindDeclStmt       NodeKind = "decl-stmt"
	KindEmptyStmt      NodeKind = "empty-stmt"
	KindLabeledStmt    NodeKind = "labeled-stmt"
	KindExprStmt       NodeKind = "expr-stmt"
	KindSendStmt       NodeKind = "send-stmt"
	KindIncDecStmt     NodeKind = "inc-dec-stmt"
	KindAssignStmt     NodeKind = "assign-stmt"
	KindGoStmt         NodeKind = "go-stmt"
	KindDeferStmt      NodeKind = "defer-stmt"
	KindReturnStmt     NodeKind = "return-stmt"
	KindBranchStmt     NodeKind = "branch-stmt"
	KindBlockStmt      NodeKind = "block-stmt"
	KindIfStmt         NodeKind = "if-stmt"
	KindCaseClause     NodeKind = "case-clause"
	KindSwitchStmt     NodeKind = "switch-stmt"
	KindTypeSwitchStmt NodeKind = "type-switch-stmt"
	KindCommClause     NodeKind = "comm-clause"
	KindSelectStmt     NodeKind = "select-stmt"
	KindForStmt        NodeKind = "for-stmt"
	KindRangeStmt      NodeKind = "range-stmt"
	KindImportSpec     NodeKind = "import-spec"
	KindValueSpec      NodeKind = "value-spec"
	KindTypeSpec       NodeKind = "type-spec"
	KindGenDecl        NodeKind = "gen-decl"
	KindFuncDecl       NodeKind = "func-decl"
)

// kindPrototypes maps every kind to a typed nil node of its go/ast type.
// Bad* nodes have no kind: rules never see them.
var kindPrototypes = map[NodeKind]ast.Node{
	KindFile:           (*ast.File)(nil),
	KindComment:        (*ast.Comment)(nil),
	KindCommentGroup:   (*ast.CommentGroup)(nil),
	KindField:          (*ast.Field)(nil),
	KindFieldList:      (*ast.FieldList)(nil),
	KindIdent:          (*ast.Ident)(nil),
	KindBasicLit:       (*ast.BasicLit)(nil),
	KindEllipsis:       (*ast.Ellipsis)(nil),
	KindFuncLit:        (*ast.FuncLit)(nil),
	KindCompositeLit:   (*ast.CompositeLit)(nil),
	KindParenExpr:      (*ast.ParenExpr)(nil),
	KindSelectorExpr:   (*ast.SelectorExpr)(nil),
	KindIndexExpr:      (*ast.IndexExpr)(nil),
	KindIndexListExpr:  (*ast.IndexListExpr)(nil),
	KindSliceExpr:      (*ast.SliceExpr)(nil),
	KindTypeAssertExpr: (*ast.TypeAssertExpr)(nil),
	KindCallExpr:       (*ast.CallExpr)(nil),
	KindStarExpr:       (*ast.StarExpr)(nil),
	KindUnaryExpr:      (*ast.UnaryExpr)(nil),
	KindBinaryExpr:     (*ast.BinaryExpr)(nil),
	KindKeyValueExpr:   (*ast.KeyValueExpr)(nil),
	KindArrayType:      (*ast.ArrayType)(nil),
	KindStructType:     (*ast.StructType)(nil),
	KindFuncType:       (*ast.FuncType)(nil),
	KindInterfaceType:  (*ast.InterfaceType)(nil),
	KindMapType:        (*ast.MapType)(nil),
	KindChanType:       (*ast.ChanType)(nil),
	KindDeclStmt:       (*ast.DeclStmt)(nil),
	KindEmptyStmt:      (*ast.EmptyStmt)(nil),
	KindLabeledStmt:    (*ast.LabeledStmt)(nil),
	KindExprStmt:       (*ast.ExprStmt)(nil),
	KindSendStmt:       (*ast.SendStmt)(nil),
	KindIncDecStmt:     (*ast.IncDecStmt)(nil),
	KindAssignStmt:     (*ast.AssignStmt)(nil),
	KindGoStmt:         (*ast.GoStmt)(nil),
	KindDeferStmt:      (*ast.DeferStmt)(nil),
	KindReturnStmt:     (*ast.ReturnStmt)(nil),
	KindBranchStmt:     (*ast.BranchStmt)(nil),
	KindBlockStmt:      (*ast.BlockStmt)(nil),
	KindIfStmt:         (*ast.IfStmt)(nil),
	KindCaseClause:     (*ast.CaseClause)(nil),
	KindSwitchStmt:     (*ast.SwitchStmt)(nil),
	KindTypeSwitchStmt: (*ast.TypeSwitchStmt)(nil),
	KindCommClause:     (*ast.CommClause)(nil),
	KindSelectStmt:     (*ast.SelectStmt)(nil),
	KindForStmt:        (*ast.ForStmt)(nil),
	KindRangeStmt:      (*ast.RangeStmt)(nil),
	KindImportSpec:     (*ast.ImportSpec)(nil),
	KindValueSpec:      (*ast.ValueSpec)(nil),
	KindTypeSpec:       (*ast.TypeSpec)(nil),
	KindGenDecl:        (*ast.GenDecl)(nil),
	KindFuncDecl:       (*ast.FuncDecl)(nil),
}

var kindByType = func() map[reflect.Type]NodeKind {
	m := make(map[reflect.Type]NodeKind, len(kindPrototypes))
	for kind, proto := range kindPrototypes {
		m[reflect.TypeOf(proto)] = kind
	}
	return m
}()

// KindOf returns the kind of n, or "" for nodes without a kind.
func KindOf(n ast.Node) NodeKind {
	if n == nil {
		return ""
	}
	return kindByType[reflect.TypeOf(n)]
}

// Valid reports whether k belongs to the closed kind set.
func (k NodeKind) Valid() bool {
	_, ok := kindPrototypes[k]
	return ok
}

// Kinds returns all node kinds in lexical order.
func Kinds() []NodeKind {
	kinds := make([]NodeKind, 0, len(kindPrototypes))
	for k := range kindPrototypes {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
