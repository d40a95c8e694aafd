// Package audit inventories the unexported surface of packages from source
// and compares it with what has been registered for accessor use.
package audit

import (
	"fmt"
	"go/types"
	"reflect"
	"sort"
	"strings"

	"github.com/cretz/testaccessor/accessor"
	"golang.org/x/tools/go/packages"
)

// TypeSurface is the unexported surface of a named type as declared in
// source.
type TypeSurface struct {
	PkgPath string
	Name    string
	// Unexported struct fields, including embedded ones. Empty for non-struct
	// types.
	Fields []string
	// Unexported methods of either receiver kind
	Methods []string
	// Unexported package-level functions whose first result is the type or a
	// pointer to it
	Constructors []string
}

// Key is the qualified name, the package path and type name joined by a dot.
func (t *TypeSurface) Key() string { return t.PkgPath + "." + t.Name }

func (t *TypeSurface) String() string { return t.Key() }

// LoadSurfaces loads the packages matching patterns and returns the surface
// of every named type declared in them, sorted by key. Config will be
// mutated. Types with no unexported surface are omitted.
func LoadSurfaces(config *packages.Config, patterns ...string) ([]*TypeSurface, error) {
	config.Mode |= packages.NeedName | packages.NeedImports | packages.NeedDeps | packages.NeedTypes
	pkgs, err := packages.Load(config, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed loading packages: %w", err)
	}
	// Make sure no packages have errors
	var pkgErrs []string
	for _, pkg := range pkgs {
		for _, pkgErr := range pkg.Errors {
			pkgErrs = append(pkgErrs, fmt.Sprintf("package %v error: %v", pkg.Name, pkgErr.Error()))
		}
	}
	if len(pkgErrs) > 0 {
		return nil, fmt.Errorf("%v error(s) loading packages:\n  %v", len(pkgErrs), strings.Join(pkgErrs, "\n  "))
	}

	// With tests enabled the same package can appear more than once, so
	// surfaces are merged by key
	surfaces := map[string]*surfaceSet{}
	for _, pkg := range pkgs {
		// Generated test mains have nothing of interest
		if pkg.Types == nil || strings.HasSuffix(pkg.PkgPath, ".test") {
			continue
		}
		collect(pkg.Types, surfaces)
	}

	ret := make([]*TypeSurface, 0, len(surfaces))
	for _, set := range surfaces {
		if s := set.surface(); len(s.Fields)+len(s.Methods)+len(s.Constructors) > 0 {
			ret = append(ret, s)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Key() < ret[j].Key() })
	return ret, nil
}

type surfaceSet struct {
	pkgPath, name string
	fields        map[string]bool
	methods       map[string]bool
	constructors  map[string]bool
}

func (s *surfaceSet) surface() *TypeSurface {
	return &TypeSurface{
		PkgPath:      s.pkgPath,
		Name:         s.name,
		Fields:       sortedKeys(s.fields),
		Methods:      sortedKeys(s.methods),
		Constructors: sortedKeys(s.constructors),
	}
}

func collect(pkg *types.Package, surfaces map[string]*surfaceSet) {
	set := func(obj *types.TypeName) *surfaceSet {
		key := pkg.Path() + "." + obj.Name()
		s := surfaces[key]
		if s == nil {
			s = &surfaceSet{
				pkgPath:      pkg.Path(),
				name:         obj.Name(),
				fields:       map[string]bool{},
				methods:      map[string]bool{},
				constructors: map[string]bool{},
			}
			surfaces[key] = s
		}
		return s
	}

	scope := pkg.Scope()
	for _, name := range scope.Names() {
		switch obj := scope.Lookup(name).(type) {
		case *types.TypeName:
			named, ok := obj.Type().(*types.Named)
			if !ok || obj.IsAlias() {
				continue
			}
			s := set(obj)
			if st, ok := named.Underlying().(*types.Struct); ok {
				for i := 0; i < st.NumFields(); i++ {
					if f := st.Field(i); !f.Exported() {
						s.fields[f.Name()] = true
					}
				}
			}
			for i := 0; i < named.NumMethods(); i++ {
				if m := named.Method(i); !m.Exported() {
					s.methods[m.Name()] = true
				}
			}
		case *types.Func:
			if obj.Exported() {
				continue
			}
			sig := obj.Type().(*types.Signature)
			if sig.Results().Len() == 0 {
				continue
			}
			if result := namedOf(sig.Results().At(0).Type()); result != nil && result.Obj().Pkg() == pkg {
				set(result.Obj()).constructors[obj.Name()] = true
			}
		}
	}
}

// Named type of t or of what t points to, uninstantiated
func namedOf(t types.Type) *types.Named {
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	if named, ok := t.(*types.Named); ok {
		return named.Origin()
	}
	return nil
}

func sortedKeys(m map[string]bool) []string {
	ret := make([]string, 0, len(m))
	for k := range m {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

// Finding is an unexported member with nothing registered for it.
type Finding struct {
	// Qualified type name as in TypeSurface.Key
	Type   string
	Kind   accessor.MemberKind
	Member string
}

func (f Finding) String() string {
	return fmt.Sprintf("%v: %v %v is not registered", f.Type, f.Kind, f.Member)
}

// Compare reports, for every surface whose type has registrations in reg,
// the unexported methods and constructor candidates nothing is registered
// for. Fields are not reported since instance fields need no registration.
// A member counts as registered if a member of that name exists or if the
// function backing a registered member is the declared one, so a method
// registered under another name still counts. Instantiations of a generic
// type count toward the generic type.
func Compare(reg *accessor.Registry, surfaces []*TypeSurface) []Finding {
	registered := map[string][]reflect.Type{}
	for _, t := range reg.Types() {
		key := t.PkgPath() + "." + baseName(t.Name())
		registered[key] = append(registered[key], t)
	}

	var findings []Finding
	for _, s := range surfaces {
		regTypes := registered[s.Key()]
		if len(regTypes) == 0 {
			continue
		}
		names, funcs := map[string]bool{}, map[string]bool{}
		for _, t := range regTypes {
			for _, m := range reg.Members(t) {
				names[m.Name()] = true
				for _, fn := range accessor.FuncNames(m) {
					funcs[shortFuncName(fn)] = true
				}
			}
		}
		for _, m := range s.Methods {
			if !names[m] && !funcs[m] {
				findings = append(findings, Finding{Type: s.Key(), Kind: accessor.KindMethod, Member: m})
			}
		}
		for _, c := range s.Constructors {
			if !funcs[c] {
				findings = append(findings, Finding{Type: s.Key(), Kind: accessor.KindConstructor, Member: c})
			}
		}
	}
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Type != findings[j].Type {
			return findings[i].Type < findings[j].Type
		} else if findings[i].Kind != findings[j].Kind {
			return findings[i].Kind < findings[j].Kind
		}
		return findings[i].Member < findings[j].Member
	})
	return findings
}

// Holder[int] -> Holder
func baseName(name string) string {
	if i := strings.IndexByte(name, '['); i >= 0 {
		return name[:i]
	}
	return name
}

// Last element of a runtime function name, so pkg.(*T).name-fm and
// pkg.newT[...] become name and newT
func shortFuncName(fn string) string {
	fn = strings.TrimSuffix(fn, "-fm")
	fn = strings.TrimSuffix(fn, "[...]")
	if i := strings.LastIndex(fn, "."); i >= 0 {
		fn = fn[i+1:]
	}
	return fn
}
