package transformer_test

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"github.com/stretchr/testify/require"

	"martianoff/enumwrap/internal/transpiler"
	"martianoff/enumwrap/internal/transpiler/registry"
	"martianoff/enumwrap/internal/transpiler/transformer"
)

// variantsSrc declares two variant types that each implement the
// interfaces used across these tests in their own way.
const variantsSrc = `
type A struct{ n int }

func (a A) Say() string          { return "a" }
func (a A) Add(x, y int) int     { return x + y + a.n }
func (a *A) Reset()              { a.n = 0 }
func (a A) Sum(xs ...int) int    { return len(xs) }
func (a A) Pick(int, string) int { return 1 }

type B struct{ s string }

func (b B) Say() string          { return "b" }
func (b B) Add(x, y int) int     { return x * y }
func (b *B) Reset()              { b.s = "" }
func (b B) Sum(xs ...int) int    { return 0 }
func (b B) Pick(int, string) int { return 2 }
`

func newTransformer() (*transformer.Transformer, *registry.InterfaceRegistry) {
	reg := registry.New()
	return transformer.NewEnumwrapTransformer(reg), reg
}

func parseSource(t *testing.T, path, src string) *transpiler.SourceFile {
	t.Helper()
	file, err := transpiler.NewGoSourceParser().Parse(path, []byte(src))
	require.NoError(t, err)
	return file
}

// register parses decls as a file of package pets and registers its
// interfaces.
func register(t *testing.T, tr *transformer.Transformer, decls string) []string {
	t.Helper()
	names, err := tr.Register(parseSource(t, "ifaces.go", "package pets\n"+decls))
	require.NoError(t, err)
	return names
}

// unionRequest parses a union declaration and returns its request.
func unionRequest(t *testing.T, decl string) transformer.UnionRequest {
	t.Helper()
	file := parseSource(t, "pets_decl.go", "package pets\n\n"+decl)
	for _, d := range file.File.Decls {
		if gd, ok := d.(*ast.GenDecl); ok && transformer.IsUnionDecl(gd) {
			req, err := transformer.ParseUnion(file, gd)
			require.NoError(t, err)
			return req
		}
	}
	t.Fatalf("no union declaration in:\n%s", decl)
	return transformer.UnionRequest{}
}

// typeCheck parses and type-checks a complete file of package pets.
func typeCheck(t *testing.T, src string) {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "gen.go", src, parser.ParseComments)
	require.NoError(t, err, src)
	conf := types.Config{Importer: importer.Default()}
	_, err = conf.Check("pets", fset, []*ast.File{f}, nil)
	require.NoError(t, err, src)
}

func mustParseExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	expr, err := parser.ParseExpr(src)
	require.NoError(t, err)
	return expr
}
