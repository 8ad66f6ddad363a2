package transformer

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"

	"github.com/cockroachdb/errors"
	"golang.org/x/tools/go/ast/astutil"

	"martianoff/enumwrap/enumerr"
	"martianoff/enumwrap/internal/directive"
)

// resolvedInterface is a requested interface with every method it requires,
// embedded registered interfaces included.
type resolvedInterface struct {
	ref     directive.InterfaceRef
	display string // "Adder[int]"
	methods []MethodShape
}

// pointer reports whether any method needs a pointer receiver, in which case
// only *Union implements the interface.
func (r *resolvedInterface) pointer() bool {
	for _, m := range r.methods {
		if m.Receiver == RecvPointer {
			return true
		}
	}
	return false
}

// resolve looks the interface up in the registry and describes its methods.
// The registry lock is only held by the lookups; parsing and walking happen
// on a private copy of the definition.
func (t *Transformer) resolve(ref directive.InterfaceRef) (*resolvedInterface, error) {
	seen := map[string]bool{ref.Name: true}
	methods, err := t.collectMethods(ref.Name, ref.TypeArgs, seen)
	if err != nil {
		return nil, err
	}
	return &resolvedInterface{
		ref:     ref,
		display: ref.String(),
		methods: methods,
	}, nil
}

func (t *Transformer) collectMethods(name string, typeArgs []ast.Expr, seen map[string]bool) ([]MethodShape, error) {
	text, ok := t.registry.Lookup(name)
	if !ok {
		return nil, enumerr.UnknownInterface(name)
	}
	spec, it, err := parseInterface(text)
	if err != nil {
		return nil, enumerr.Newf(enumerr.TypeInternal, "unable to parse interface definition of %s: %v", name, err)
	}
	if err := instantiate(spec, it, typeArgs); err != nil {
		return nil, err
	}

	var methods []MethodShape
	for _, field := range it.Methods.List {
		if len(field.Names) == 0 {
			embName, embArgs, ok := embeddedRef(field.Type)
			if ok && seen[embName] {
				continue
			}
			if ok {
				if _, registered := t.registry.Lookup(embName); registered {
					seen[embName] = true
					sub, err := t.collectMethods(embName, embArgs, seen)
					if err != nil {
						return nil, err
					}
					methods = append(methods, sub...)
					continue
				}
			}
			methods = append(methods, MethodShape{
				Interface: name,
				Method:    types.ExprString(field.Type),
				Receiver:  RecvNone,
				Embedded:  true,
			})
			continue
		}

		ft, ok := field.Type.(*ast.FuncType)
		if !ok {
			return nil, enumerr.Newf(enumerr.TypeInternal, "unexpected element %s in interface %s", types.ExprString(field.Type), name)
		}
		d, found, err := directive.Find(directive.Recv, field.Doc, field.Comment)
		if err != nil {
			return nil, enumerr.Newf(enumerr.TypeMalformed, "%s::%s: %v", name, field.Names[0].Name, err)
		}
		kind, word := RecvValue, ""
		if found {
			kind, word = parseReceiverKind(d.Args), d.Args
		}
		for _, n := range field.Names {
			methods = append(methods, newMethodShape(name, n.Name, kind, word, ft))
		}
	}
	return methods, nil
}

// parseInterface re-parses a captured "type Name interface {...}" declaration.
func parseInterface(text string) (*ast.TypeSpec, *ast.InterfaceType, error) {
	file, err := parser.ParseFile(token.NewFileSet(), "", "package p\n\n"+text, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, nil, err
	}
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, s := range gd.Specs {
			spec := s.(*ast.TypeSpec)
			if it, ok := spec.Type.(*ast.InterfaceType); ok {
				return spec, it, nil
			}
		}
	}
	return nil, nil, errNoInterface
}

var errNoInterface = errors.New("no interface type in captured definition")

// instantiate substitutes the type arguments of a generic interface into its
// method signatures.
func instantiate(spec *ast.TypeSpec, it *ast.InterfaceType, typeArgs []ast.Expr) error {
	var params []string
	if spec.TypeParams != nil {
		for _, field := range spec.TypeParams.List {
			for _, n := range field.Names {
				params = append(params, n.Name)
			}
		}
	}
	if len(params) != len(typeArgs) {
		return enumerr.Newf(enumerr.TypeMalformed,
			"%s has %d type parameter(s) but %d type argument(s) were given",
			spec.Name.Name, len(params), len(typeArgs))
	}
	if len(params) == 0 {
		return nil
	}

	subst := make(map[string]ast.Expr, len(params))
	for i, p := range params {
		subst[p] = typeArgs[i]
	}
	astutil.Apply(it, func(c *astutil.Cursor) bool {
		id, ok := c.Node().(*ast.Ident)
		if !ok {
			return true
		}
		// parameter names and qualified identifiers are never type parameters
		if c.Name() == "Names" || c.Name() == "Sel" {
			return true
		}
		if repl, ok := subst[id.Name]; ok {
			c.Replace(repl)
		}
		return true
	}, nil)
	return nil
}

// embeddedRef names an embedded element such as Base or Base[T].
func embeddedRef(expr ast.Expr) (string, []ast.Expr, bool) {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name, nil, true
	case *ast.IndexExpr:
		if id, ok := e.X.(*ast.Ident); ok {
			return id.Name, []ast.Expr{e.Index}, true
		}
	case *ast.IndexListExpr:
		if id, ok := e.X.(*ast.Ident); ok {
			return id.Name, e.Indices, true
		}
	}
	return "", nil, false
}
