package transformer

import (
	"fmt"
	"go/ast"
	"go/types"
	"strings"

	"martianoff/enumwrap/enumerr"
)

// ReceiverKind describes how a method takes the instance it is called on.
type ReceiverKind int

const (
	// RecvValue is a read-only reference to the instance: the union gets a
	// value receiver.
	RecvValue ReceiverKind = iota
	// RecvPointer is a mutable reference: the union gets a pointer receiver.
	RecvPointer
	// RecvNone marks an element with no instance receiver at all.
	RecvNone
	// RecvTyped marks a receiver of some other, arbitrary type.
	RecvTyped
)

func (k ReceiverKind) String() string {
	switch k {
	case RecvValue:
		return "value"
	case RecvPointer:
		return "pointer"
	case RecvNone:
		return "none"
	default:
		return "typed"
	}
}

// parseReceiverKind maps the argument of //enumwrap:recv.
func parseReceiverKind(word string) ReceiverKind {
	switch word {
	case "", "value":
		return RecvValue
	case "pointer":
		return RecvPointer
	case "none":
		return RecvNone
	}
	return RecvTyped
}

// Param is a parameter or result of a method signature.
type Param struct {
	Name string // empty for unnamed results
	Type ast.Expr
}

// MethodShape describes one element of an interface as far as dispatch is
// concerned.
type MethodShape struct {
	Interface    string
	Method       string
	Receiver     ReceiverKind
	ReceiverType string // the recv word when Receiver is RecvTyped
	Params       []Param
	Results      []Param
	Variadic     bool
	Embedded     bool // an embedded element rather than a method
}

// newMethodShape describes method name of iface with signature ft. Unnamed
// and blank parameters get positional names so they can be forwarded; a
// positional name never repeats a name the signature already declares.
func newMethodShape(iface, name string, kind ReceiverKind, recvWord string, ft *ast.FuncType) MethodShape {
	s := MethodShape{
		Interface: iface,
		Method:    name,
		Receiver:  kind,
	}
	if kind == RecvTyped {
		s.ReceiverType = recvWord
	}
	used := declaredNames(ft)
	positional := func(i int) string {
		pname := fmt.Sprintf("arg%d", i)
		for used[pname] {
			pname += "_"
		}
		used[pname] = true
		return pname
	}
	if ft.Params != nil {
		i := 0
		for _, field := range ft.Params.List {
			if len(field.Names) == 0 {
				s.Params = append(s.Params, Param{Name: positional(i), Type: field.Type})
				i++
				continue
			}
			for _, n := range field.Names {
				pname := n.Name
				if pname == "_" {
					pname = positional(i)
				}
				s.Params = append(s.Params, Param{Name: pname, Type: field.Type})
				i++
			}
		}
		if len(s.Params) > 0 {
			_, s.Variadic = s.Params[len(s.Params)-1].Type.(*ast.Ellipsis)
		}
	}
	if ft.Results != nil {
		for _, field := range ft.Results.List {
			if len(field.Names) == 0 {
				s.Results = append(s.Results, Param{Type: field.Type})
				continue
			}
			for _, n := range field.Names {
				s.Results = append(s.Results, Param{Name: n.Name, Type: field.Type})
			}
		}
	}
	return s
}

// ValidateShape checks that a method can be dispatched: it must take the
// instance by value or by pointer.
func ValidateShape(s MethodShape) error {
	switch s.Receiver {
	case RecvValue, RecvPointer:
		return nil
	case RecvTyped:
		return enumerr.Newf(enumerr.TypeReceiver,
			"%s::%s receiver should not have an arbitrary type (recv %s); use value or pointer",
			s.Interface, s.Method, s.ReceiverType)
	}
	if s.Embedded {
		return enumerr.Newf(enumerr.TypeReceiver,
			"%s::%s does not have a receiver: embedded element is not a registered interface",
			s.Interface, s.Method)
	}
	return enumerr.Newf(enumerr.TypeReceiver, "%s::%s does not have a receiver", s.Interface, s.Method)
}

// signature renders the parameter list and results, e.g.
// "(x int, ys ...int) (int, error)".
func (s MethodShape) signature() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		b.WriteByte(' ')
		b.WriteString(types.ExprString(p.Type))
	}
	b.WriteByte(')')
	switch {
	case len(s.Results) == 0:
	case len(s.Results) == 1 && s.Results[0].Name == "":
		b.WriteByte(' ')
		b.WriteString(types.ExprString(s.Results[0].Type))
	default:
		b.WriteString(" (")
		for i, r := range s.Results {
			if i > 0 {
				b.WriteString(", ")
			}
			if r.Name != "" {
				b.WriteString(r.Name)
				b.WriteByte(' ')
			}
			b.WriteString(types.ExprString(r.Type))
		}
		b.WriteByte(')')
	}
	return b.String()
}

// typeKey identifies a method by its types only, so two interfaces declaring
// the same method can share one implementation.
func (s MethodShape) typeKey() string {
	var b strings.Builder
	b.WriteString(s.Receiver.String())
	b.WriteByte('(')
	for i, p := range s.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(types.ExprString(p.Type))
	}
	b.WriteString(")(")
	for i, r := range s.Results {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(types.ExprString(r.Type))
	}
	b.WriteByte(')')
	return b.String()
}

// arguments renders the forwarded argument list, e.g. "x, ys...".
func (s MethodShape) arguments() string {
	names := make([]string, len(s.Params))
	for i, p := range s.Params {
		names[i] = p.Name
	}
	out := strings.Join(names, ", ")
	if s.Variadic {
		out += "..."
	}
	return out
}

// receiverName picks a receiver identifier for union that does not clash
// with the method's own parameter or result names.
func (s MethodShape) receiverName(union string) string {
	used := make(map[string]bool, len(s.Params)+len(s.Results))
	for _, p := range s.Params {
		used[p.Name] = true
	}
	for _, r := range s.Results {
		used[r.Name] = true
	}
	name := receiverBase(union)
	for used[name] {
		name += "_"
	}
	return name
}

// declaredNames collects the non-blank parameter and result names of ft.
func declaredNames(ft *ast.FuncType) map[string]bool {
	used := make(map[string]bool)
	for _, list := range []*ast.FieldList{ft.Params, ft.Results} {
		if list == nil {
			continue
		}
		for _, field := range list.List {
			for _, n := range field.Names {
				if n.Name != "_" {
					used[n.Name] = true
				}
			}
		}
	}
	return used
}

func receiverBase(union string) string {
	for _, r := range union {
		if r >= 'A' && r <= 'Z' {
			return string(r + ('a' - 'A'))
		}
		if r >= 'a' && r <= 'z' {
			return string(r)
		}
		break
	}
	return "u"
}
