// Package directive parses //enumwrap:<name> comment directives.
//
// Directives follow the Go convention for tool comments: no space after the
// slashes, a tool prefix, then the directive name and its arguments.
//
//	//enumwrap:impl
//	//enumwrap:union
//	//enumwrap:auto_impl(Speaker, Adder[int])
//	//enumwrap:recv pointer
package directive

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strings"

	"github.com/cockroachdb/errors"
)

// Prefix starts every enumwrap directive.
const Prefix = "//enumwrap:"

// Kind identifies a directive.
type Kind string

const (
	Impl     Kind = "impl"
	Union    Kind = "union"
	AutoImpl Kind = "auto_impl"
	Recv     Kind = "recv"
)

// Directive is a single parsed directive comment.
type Directive struct {
	Kind Kind
	Args string
	Pos  token.Pos
}

// InterfaceRef is an interface named by auto_impl, with optional type arguments.
type InterfaceRef struct {
	Name     string     // "Adder" or "pkg.Adder"
	TypeArgs []ast.Expr // [int] for Adder[int]
	Expr     ast.Expr   // the parsed reference
}

func (r InterfaceRef) String() string {
	return types.ExprString(r.Expr)
}

// IsDirective reports whether a comment line is an enumwrap directive.
func IsDirective(c *ast.Comment) bool {
	return strings.HasPrefix(c.Text, Prefix)
}

// Parse parses a single comment line. ok is false for ordinary comments.
func Parse(c *ast.Comment) (d Directive, ok bool, err error) {
	if !IsDirective(c) {
		return Directive{}, false, nil
	}
	body := strings.TrimSpace(strings.TrimPrefix(c.Text, Prefix))
	name, args := body, ""
	if i := strings.IndexAny(body, " \t("); i >= 0 {
		name, args = body[:i], strings.TrimSpace(body[i:])
	}
	d = Directive{Kind: Kind(name), Args: args, Pos: c.Pos()}
	switch d.Kind {
	case Impl, Union:
		if args != "" {
			return d, true, errors.Newf("//enumwrap:%s takes no arguments, got %q", name, args)
		}
	case AutoImpl:
		if !strings.HasPrefix(args, "(") || !strings.HasSuffix(args, ")") {
			return d, true, errors.Newf("//enumwrap:auto_impl expects a parenthesized list of interfaces, got %q", args)
		}
		d.Args = strings.TrimSpace(args[1 : len(args)-1])
	case Recv:
		if args == "" || strings.ContainsAny(args, " \t") {
			return d, true, errors.Newf("//enumwrap:recv expects exactly one receiver kind, got %q", args)
		}
	default:
		return d, true, errors.Newf("unknown directive //enumwrap:%s", name)
	}
	return d, true, nil
}

// Split separates the directives in a comment group from the remaining
// comment lines, which are returned unchanged in order.
func Split(cg *ast.CommentGroup) (dirs []Directive, rest []*ast.Comment, err error) {
	if cg == nil {
		return nil, nil, nil
	}
	for _, c := range cg.List {
		d, ok, perr := Parse(c)
		if perr != nil {
			return nil, nil, perr
		}
		if ok {
			dirs = append(dirs, d)
			continue
		}
		rest = append(rest, c)
	}
	return dirs, rest, nil
}

// Has reports whether the comment group carries a directive of kind k.
// Malformed directives are ignored here and reported by Split.
func Has(cg *ast.CommentGroup, k Kind) bool {
	if cg == nil {
		return false
	}
	for _, c := range cg.List {
		if d, ok, err := Parse(c); ok && err == nil && d.Kind == k {
			return true
		}
	}
	return false
}

// Find returns the first directive of kind k in the comment groups.
func Find(k Kind, groups ...*ast.CommentGroup) (Directive, bool, error) {
	for _, cg := range groups {
		dirs, _, err := Split(cg)
		if err != nil {
			return Directive{}, false, err
		}
		for _, d := range dirs {
			if d.Kind == k {
				return d, true, nil
			}
		}
	}
	return Directive{}, false, nil
}

// ParseInterfaceList parses the argument of auto_impl: a comma separated list
// of interface references. Commas inside brackets belong to type arguments.
func ParseInterfaceList(args string) ([]InterfaceRef, error) {
	var refs []InterfaceRef
	for _, part := range splitTopLevel(args) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ref, err := ParseInterfaceRef(part)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// ParseInterfaceRef parses "Name", "pkg.Name" or "Name[T1, T2]".
func ParseInterfaceRef(text string) (InterfaceRef, error) {
	expr, err := parser.ParseExpr(text)
	if err != nil {
		return InterfaceRef{}, errors.Wrapf(err, "invalid interface reference %q", text)
	}
	ref := InterfaceRef{Expr: expr}
	base := expr
	switch e := expr.(type) {
	case *ast.IndexExpr:
		base = e.X
		ref.TypeArgs = []ast.Expr{e.Index}
	case *ast.IndexListExpr:
		base = e.X
		ref.TypeArgs = e.Indices
	}
	switch b := base.(type) {
	case *ast.Ident:
		ref.Name = b.Name
	case *ast.SelectorExpr:
		pkg, ok := b.X.(*ast.Ident)
		if !ok {
			return InterfaceRef{}, errors.Newf("invalid interface reference %q", text)
		}
		ref.Name = pkg.Name + "." + b.Sel.Name
	default:
		return InterfaceRef{}, errors.Newf("invalid interface reference %q", text)
	}
	return ref, nil
}

func splitTopLevel(s string) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
