package frontend

import (
	"go/ast"
	"go/constant"
	"go/types"

	"github.com/go-toolsmith/astcast"
	"github.com/go-toolsmith/typep"
)

// KnownType names a well-known type by package path and type name.
// Predeclared types use an empty PkgPath.
type KnownType struct {
	PkgPath string
	Name    string
}

func (k KnownType) String() string {
	if k.PkgPath == "" {
		return k.Name
	}
	return k.PkgPath + "." + k.Name
}

// Frequently queried types.
var (
	KnownString  = KnownType{Name: "string"}
	KnownError   = KnownType{Name: "error"}
	KnownBuilder = KnownType{PkgPath: "strings", Name: "Builder"}
	KnownContext = KnownType{PkgPath: "context", Name: "Context"}
	KnownTesting = KnownType{PkgPath: "testing", Name: "T"}
)

// Semantics answers symbol and type queries for a single tree.
//
// Every query reports whether it could be answered. Missing type
// information, which is normal for files with errors, yields the
// zero result and false rather than a panic.
type Semantics struct {
	info *types.Info
	pkg  *types.Package
}

// Package returns the type-checked package, if any.
func (s *Semantics) Package() (*types.Package, bool) {
	return s.pkg, s.pkg != nil
}

// ObjectOf resolves the symbol id denotes or defines.
func (s *Semantics) ObjectOf(id *ast.Ident) (types.Object, bool) {
	if s.info == nil || id == nil {
		return nil, false
	}
	obj := s.info.ObjectOf(id)
	return obj, obj != nil
}

// TypeOf returns the type of an expression.
func (s *Semantics) TypeOf(e ast.Expr) (types.Type, bool) {
	if s.info == nil || e == nil {
		return nil, false
	}
	typ := s.info.TypeOf(e)
	if typ == nil || typ == types.Typ[types.Invalid] {
		return nil, false
	}
	return typ, true
}

// ConstantValue returns the compile-time value of e.
func (s *Semantics) ConstantValue(e ast.Expr) (constant.Value, bool) {
	if s.info == nil || e == nil {
		return nil, false
	}
	tv, ok := s.info.Types[e]
	if !ok || tv.Value == nil {
		return nil, false
	}
	return tv.Value, true
}

// ConstantString returns the value of a constant string expression.
func (s *Semantics) ConstantString(e ast.Expr) (string, bool) {
	v, ok := s.ConstantValue(e)
	if !ok || v.Kind() != constant.String {
		return "", false
	}
	return constant.StringVal(v), true
}

// IsKnownType reports whether typ is exactly the well-known type k.
func (s *Semantics) IsKnownType(typ types.Type, k KnownType) bool {
	if typ == nil {
		return false
	}
	if k.PkgPath == "" {
		if typep.HasStringKind(typ) || typep.HasUntypedStringKind(typ) {
			return k.Name == "string"
		}
		if basic, ok := types.Unalias(typ).(*types.Basic); ok {
			return basic.Name() == k.Name
		}
		obj := types.Universe.Lookup(k.Name)
		return obj != nil && types.Identical(obj.Type(), typ)
	}
	named, ok := types.Unalias(typ).(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	return obj.Pkg() != nil && obj.Pkg().Path() == k.PkgPath && obj.Name() == k.Name
}

// InType reports whether obj is a method or field declared on k.
func (s *Semantics) InType(obj types.Object, k KnownType) bool {
	fn, ok := obj.(*types.Func)
	if !ok {
		return false
	}
	sig, ok := fn.Type().(*types.Signature)
	if !ok || sig.Recv() == nil {
		return false
	}
	recv := sig.Recv().Type()
	if ptr, ok := recv.(*types.Pointer); ok {
		recv = ptr.Elem()
	}
	return s.IsKnownType(recv, k)
}

// InPackage reports whether obj is a package-level object of the
// package with the given import path.
func (s *Semantics) InPackage(obj types.Object, path string) bool {
	if obj == nil || obj.Pkg() == nil {
		return false
	}
	return obj.Pkg().Path() == path && obj.Parent() == obj.Pkg().Scope()
}

// AssignableTo reports whether a value of type v is assignable to t.
func (s *Semantics) AssignableTo(v, t types.Type) bool {
	if v == nil || t == nil {
		return false
	}
	return types.AssignableTo(v, t)
}

// Callee resolves the function or method a call invokes.
// Calls of function values, conversions and builtins are not resolved.
func (s *Semantics) Callee(call *ast.CallExpr) (*types.Func, bool) {
	if call == nil {
		return nil, false
	}
	var id *ast.Ident
	switch fn := ast.Unparen(call.Fun).(type) {
	case *ast.Ident:
		id = fn
	case *ast.SelectorExpr:
		id = fn.Sel
	default:
		return nil, false
	}
	obj, ok := s.ObjectOf(id)
	if !ok {
		return nil, false
	}
	f, ok := obj.(*types.Func)
	return f, ok
}

// DeclaredFunc returns the function object a declaration defines.
func (s *Semantics) DeclaredFunc(decl *ast.FuncDecl) (*types.Func, bool) {
	obj, ok := s.ObjectOf(decl.Name)
	if !ok {
		return nil, false
	}
	fn, ok := obj.(*types.Func)
	return fn, ok
}

// DeclaredType returns the type name object a type spec defines.
func (s *Semantics) DeclaredType(spec *ast.TypeSpec) (*types.TypeName, bool) {
	obj, ok := s.ObjectOf(spec.Name)
	if !ok {
		return nil, false
	}
	tn, ok := obj.(*types.TypeName)
	return tn, ok
}

// IsIdentOfKnownType reports whether e is a plain identifier whose
// type is k.
func (s *Semantics) IsIdentOfKnownType(e ast.Expr, k KnownType) bool {
	id := astcast.ToIdent(e)
	if id.Name == "" {
		return false
	}
	typ, ok := s.TypeOf(id)
	return ok && s.IsKnownType(typ, k)
}

// ImplementedInterfaceMethod reports the interface method fn provides
// for some interface declared in fn's own package.
func (s *Semantics) ImplementedInterfaceMethod(fn *types.Func) (*types.Func, bool) {
	if fn == nil || fn.Pkg() == nil {
		return nil, false
	}
	sig, ok := fn.Type().(*types.Signature)
	if !ok || sig.Recv() == nil {
		return nil, false
	}
	recv := sig.Recv().Type()
	base := recv
	if ptr, ok := base.(*types.Pointer); ok {
		base = ptr.Elem()
	}
	scope := fn.Pkg().Scope()
	for _, name := range scope.Names() {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok {
			continue
		}
		iface, ok := tn.Type().Underlying().(*types.Interface)
		if !ok || iface.Empty() {
			continue
		}
		for i := 0; i < iface.NumMethods(); i++ {
			m := iface.Method(i)
			if m.Name() != fn.Name() {
				continue
			}
			if types.Implements(recv, iface) || types.Implements(types.NewPointer(base), iface) {
				return m, true
			}
		}
	}
	return nil, false
}
