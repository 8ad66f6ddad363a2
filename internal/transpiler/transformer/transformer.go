// Package transformer expands //enumwrap:union declarations into tagged
// unions that implement the interfaces registered with //enumwrap:impl.
package transformer

import (
	"go/ast"
	"go/build/constraint"
	"go/token"
	"strings"

	"martianoff/enumwrap/enumerr"
	"martianoff/enumwrap/internal/directive"
	"martianoff/enumwrap/internal/logger"
	"martianoff/enumwrap/internal/transpiler"
	"martianoff/enumwrap/internal/transpiler/registry"
)

// GeneratedHeader marks every expanded file.
const GeneratedHeader = "// Code generated by enumwrap. DO NOT EDIT."

// GeneratedCode is the output of one union expansion, in emission order.
type GeneratedCode struct {
	Union       string   // type, tag constants and accessors
	Impls       []string // one block per requested interface, request order
	Conversions []string // one constructor per variant, variant order
}

// Source concatenates the generated blocks. The result is not formatted;
// the generator formats the whole file.
func (g *GeneratedCode) Source() string {
	parts := make([]string, 0, 1+len(g.Impls)+len(g.Conversions))
	parts = append(parts, g.Union)
	parts = append(parts, g.Impls...)
	parts = append(parts, g.Conversions...)
	return strings.Join(parts, "\n")
}

// Transformer registers interfaces and expands union declarations against
// one registry.
type Transformer struct {
	registry *registry.InterfaceRegistry
}

// NewEnumwrapTransformer creates a Transformer backed by reg, or by the
// process-wide registry when reg is nil.
func NewEnumwrapTransformer(reg *registry.InterfaceRegistry) *Transformer {
	if reg == nil {
		reg = registry.Global
	}
	return &Transformer{registry: reg}
}

// Register implements transpiler.ASTTransformer.
func (t *Transformer) Register(file *transpiler.SourceFile) ([]string, error) {
	var names []string
	for _, decl := range file.File.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, s := range gd.Specs {
			spec := s.(*ast.TypeSpec)
			doc := spec.Doc
			if doc == nil && !gd.Lparen.IsValid() {
				doc = gd.Doc
			}
			dirs, _, err := directive.Split(doc)
			if err != nil {
				return nil, enumerr.New(enumerr.TypeMalformed, err.Error()).At(file.Position(spec.Pos()))
			}
			if !hasKind(dirs, directive.Impl) {
				continue
			}
			if _, ok := spec.Type.(*ast.InterfaceType); !ok {
				return nil, enumerr.Newf(enumerr.TypeMalformed,
					"//enumwrap:impl must annotate an interface type, %s is %T", spec.Name.Name, spec.Type).At(file.Position(spec.Pos()))
			}
			t.registry.Register(spec, "type "+file.Slice(spec.Pos(), spec.End()))
			names = append(names, spec.Name.Name)
		}
	}
	return names, nil
}

// Expand implements transpiler.ASTTransformer. Each union declaration is
// replaced in place by its generated code; everything else in the file is
// copied verbatim. Comments above the package clause are kept except the
// package doc and build constraints.
func (t *Transformer) Expand(file *transpiler.SourceFile) ([]byte, int, error) {
	var b strings.Builder
	b.WriteString(GeneratedHeader)
	b.WriteString("\n\n")
	for _, cg := range file.File.Comments {
		if cg.End() >= file.File.Package {
			break
		}
		if cg == file.File.Doc {
			continue
		}
		kept := 0
		for _, c := range cg.List {
			if constraint.IsGoBuild(c.Text) || constraint.IsPlusBuild(c.Text) {
				continue
			}
			b.WriteString(c.Text)
			b.WriteByte('\n')
			kept++
		}
		if kept > 0 {
			b.WriteByte('\n')
		}
	}
	b.WriteString("package ")
	b.WriteString(file.File.Name.Name)

	cursor := file.File.Name.End()
	count := 0
	for _, decl := range file.File.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || !IsUnionDecl(gd) {
			continue
		}
		req, err := ParseUnion(file, gd)
		if err != nil {
			return nil, 0, err
		}
		code, err := t.Generate(req)
		if err != nil {
			return nil, 0, err
		}
		start := gd.Pos()
		if gd.Doc != nil {
			start = gd.Doc.Pos()
		}
		b.WriteString(file.Slice(cursor, start))
		b.WriteString(code.Source())
		cursor = gd.End()
		count++
	}
	if count == 0 {
		return nil, 0, nil
	}
	b.Write(file.Src[file.Offset(cursor):])
	return []byte(b.String()), count, nil
}

// Generate synthesizes the union described by req. It resolves and
// validates every requested interface before emitting anything; any failure
// aborts the whole union.
func (t *Transformer) Generate(req UnionRequest) (*GeneratedCode, error) {
	if req.Name == "" {
		return nil, enumerr.New(enumerr.TypeMalformed, "union declaration has no name").At(req.Pos)
	}
	variants, err := extractVariants(req)
	if err != nil {
		return nil, enumerr.Position(err, req.Pos)
	}

	var ifaces []*resolvedInterface
	for _, ref := range req.AutoImpls {
		iface, err := t.resolve(ref)
		if err != nil {
			return nil, enumerr.Position(err, req.Pos)
		}
		ifaces = append(ifaces, iface)
	}

	plans, err := planImpls(req.Name, variants, ifaces)
	if err != nil {
		return nil, enumerr.Position(err, req.Pos)
	}

	code := &GeneratedCode{}
	var b strings.Builder
	writeUnion(&b, req, variants)
	code.Union = b.String()
	for _, plan := range plans {
		b.Reset()
		writeImpl(&b, req.Name, variants, plan)
		code.Impls = append(code.Impls, b.String())
	}
	for _, v := range variants {
		b.Reset()
		writeConversion(&b, req.Name, v)
		code.Conversions = append(code.Conversions, b.String())
	}

	logger.Debugw("generated union",
		"name", req.Name,
		"variants", len(variants),
		"interfaces", len(plans))
	return code, nil
}

// planImpls validates every method shape and decides which methods each
// interface block emits. A method already emitted for an earlier interface
// with the same types is shared; with different types it is an error.
func planImpls(union string, variants []variant, ifaces []*resolvedInterface) ([]implPlan, error) {
	for _, iface := range ifaces {
		for _, m := range iface.methods {
			if err := ValidateShape(m); err != nil {
				return nil, err
			}
		}
	}

	reserved := accessorNames(variants)
	type origin struct {
		iface string
		key   string
	}
	emitted := make(map[string]origin)
	plans := make([]implPlan, 0, len(ifaces))
	for _, iface := range ifaces {
		plan := implPlan{iface: iface}
		for _, m := range iface.methods {
			if reserved[m.Method] {
				return nil, enumerr.Newf(enumerr.TypeMalformed,
					"%s::%s collides with the generated accessor %s.%s", m.Interface, m.Method, union, m.Method)
			}
			if prev, ok := emitted[m.Method]; ok {
				if prev.key != m.typeKey() {
					return nil, enumerr.Newf(enumerr.TypeMalformed,
						"method %s is required by both %s and %s with different signatures", m.Method, prev.iface, m.Interface)
				}
				continue
			}
			emitted[m.Method] = origin{iface: m.Interface, key: m.typeKey()}
			plan.methods = append(plan.methods, m)
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func hasKind(dirs []directive.Directive, k directive.Kind) bool {
	for _, d := range dirs {
		if d.Kind == k {
			return true
		}
	}
	return false
}

// ExcludedByConstraint reports whether file is left out of a normal build
// and included when tag is set, which every union declaration file needs so
// that the declaration and its expansion never compile together.
func ExcludedByConstraint(file *ast.File, tag string) bool {
	for _, cg := range file.Comments {
		if cg.End() >= file.Package {
			break
		}
		for _, c := range cg.List {
			if !constraint.IsGoBuild(c.Text) {
				continue
			}
			expr, err := constraint.Parse(c.Text)
			if err != nil {
				return false
			}
			normal := expr.Eval(func(string) bool { return false })
			tagged := expr.Eval(func(t string) bool { return t == tag })
			return !normal && tagged
		}
	}
	return false
}
