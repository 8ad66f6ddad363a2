package transformer

import (
	"go/ast"
	"go/token"
	"go/types"
	"strings"

	"martianoff/enumwrap/enumerr"
	"martianoff/enumwrap/internal/directive"
	"martianoff/enumwrap/internal/transpiler"
)

// UnionRequest describes a single union declaration. It is consumed by one
// Generate call.
type UnionRequest struct {
	// Doc holds the leading annotations, comment lines verbatim with the
	// enumwrap directives removed.
	Doc []string
	// AutoImpls lists the interfaces to implement, in request order.
	AutoImpls []directive.InterfaceRef
	// Name is the union's name; its case carries the visibility.
	Name     string
	Variants []VariantEntry
	Pos      token.Position
}

// VariantEntry is one alternative of a union.
type VariantEntry struct {
	Doc     []string // comment lines above the entry
	Comment string   // trailing comment, verbatim
	Tag     string   // struct tag literal, backquotes included
	Type    ast.Expr // the variant's type reference
	Pos     token.Position
}

// variant is a VariantEntry with its resolved arm name.
type variant struct {
	VariantEntry
	name     string // "Dog" for zoo.Dog
	typeText string // "zoo.Dog"
}

// IsUnionDecl reports whether a type declaration is annotated with
// //enumwrap:union.
func IsUnionDecl(decl *ast.GenDecl) bool {
	if decl.Tok != token.TYPE {
		return false
	}
	if directive.Has(decl.Doc, directive.Union) {
		return true
	}
	for _, spec := range decl.Specs {
		if directive.Has(spec.(*ast.TypeSpec).Doc, directive.Union) {
			return true
		}
	}
	return false
}

// ParseUnion builds a UnionRequest from a declaration such as
//
//	//enumwrap:union
//	//enumwrap:auto_impl(Speaker)
//	type Pet struct {
//		Dog
//		zoo.Cat
//	}
func ParseUnion(file *transpiler.SourceFile, decl *ast.GenDecl) (UnionRequest, error) {
	pos := file.Position(decl.Pos())
	if decl.Lparen.IsValid() || len(decl.Specs) != 1 {
		return UnionRequest{}, enumerr.New(enumerr.TypeMalformed,
			"//enumwrap:union declarations must not be grouped").At(pos)
	}
	spec := decl.Specs[0].(*ast.TypeSpec)
	pos = file.Position(spec.Pos())

	st, ok := spec.Type.(*ast.StructType)
	if !ok {
		return UnionRequest{}, enumerr.Newf(enumerr.TypeMalformed,
			"//enumwrap:union must annotate a struct listing the variants, %s is %T", spec.Name.Name, spec.Type).At(pos)
	}
	if spec.TypeParams != nil {
		return UnionRequest{}, enumerr.Newf(enumerr.TypeMalformed,
			"union %s must not declare type parameters", spec.Name.Name).At(pos)
	}

	dirs, rest, err := directive.Split(decl.Doc)
	if err != nil {
		return UnionRequest{}, enumerr.New(enumerr.TypeMalformed, err.Error()).At(pos)
	}
	req := UnionRequest{
		Doc:  trimDoc(commentTexts(rest)),
		Name: spec.Name.Name,
		Pos:  pos,
	}
	for _, d := range dirs {
		if d.Kind != directive.AutoImpl {
			if d.Kind == directive.Union {
				continue
			}
			return UnionRequest{}, enumerr.Newf(enumerr.TypeMalformed,
				"//enumwrap:%s is not valid on union %s", d.Kind, req.Name).At(file.Position(d.Pos))
		}
		refs, err := directive.ParseInterfaceList(d.Args)
		if err != nil {
			return UnionRequest{}, enumerr.New(enumerr.TypeMalformed, err.Error()).At(file.Position(d.Pos))
		}
		req.AutoImpls = append(req.AutoImpls, refs...)
	}

	for _, field := range st.Fields.List {
		fpos := file.Position(field.Pos())
		if len(field.Names) > 0 {
			return UnionRequest{}, enumerr.Newf(enumerr.TypeMalformed,
				"variant entries of %s must be embedded type references, got named field %s",
				req.Name, field.Names[0].Name).At(fpos)
		}
		fdirs, fdoc, err := directive.Split(field.Doc)
		if err != nil {
			return UnionRequest{}, enumerr.New(enumerr.TypeMalformed, err.Error()).At(fpos)
		}
		if len(fdirs) > 0 {
			return UnionRequest{}, enumerr.Newf(enumerr.TypeMalformed,
				"//enumwrap:%s is not valid on a variant", fdirs[0].Kind).At(fpos)
		}
		entry := VariantEntry{
			Doc:  commentTexts(fdoc),
			Type: field.Type,
			Pos:  fpos,
		}
		if field.Tag != nil {
			entry.Tag = field.Tag.Value
		}
		if field.Comment != nil {
			var parts []string
			for _, c := range field.Comment.List {
				parts = append(parts, c.Text)
			}
			entry.Comment = strings.Join(parts, " ")
		}
		req.Variants = append(req.Variants, entry)
	}
	return req, nil
}

// VariantName returns the arm name of a variant type reference: the last
// segment of T, pkg.T, *T or T[A].
func VariantName(expr ast.Expr) (string, bool) {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name, true
	case *ast.SelectorExpr:
		return e.Sel.Name, true
	case *ast.StarExpr:
		return VariantName(e.X)
	case *ast.ParenExpr:
		return VariantName(e.X)
	case *ast.IndexExpr:
		return VariantName(e.X)
	case *ast.IndexListExpr:
		return VariantName(e.X)
	}
	return "", false
}

// extractVariants resolves arm names in declaration order.
func extractVariants(req UnionRequest) ([]variant, error) {
	seen := make(map[string]bool, len(req.Variants))
	variants := make([]variant, 0, len(req.Variants))
	for _, entry := range req.Variants {
		if entry.Type == nil {
			return nil, enumerr.New(enumerr.TypeVariant, "failed to obtain variant ident from an empty type reference").At(entry.Pos)
		}
		typeText := types.ExprString(entry.Type)
		name, ok := VariantName(entry.Type)
		if !ok || name == "_" {
			return nil, enumerr.Newf(enumerr.TypeVariant, "failed to obtain variant ident from %s", typeText).At(entry.Pos)
		}
		if name == "variant" {
			return nil, enumerr.Newf(enumerr.TypeMalformed,
				"variant %s of %s uses the reserved arm name %q", typeText, req.Name, name).At(entry.Pos)
		}
		if seen[name] {
			return nil, enumerr.Newf(enumerr.TypeMalformed,
				"union %s has more than one variant named %s", req.Name, name).At(entry.Pos)
		}
		seen[name] = true
		variants = append(variants, variant{VariantEntry: entry, name: name, typeText: typeText})
	}
	return variants, nil
}

func commentTexts(list []*ast.Comment) []string {
	texts := make([]string, 0, len(list))
	for _, c := range list {
		texts = append(texts, c.Text)
	}
	return texts
}

// trimDoc drops empty "//" lines left at the end once directives are removed.
func trimDoc(lines []string) []string {
	for len(lines) > 0 && lines[len(lines)-1] == "//" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
