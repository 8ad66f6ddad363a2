package build

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martianoff/enumwrap/enumerr"
	"martianoff/enumwrap/internal/transpiler/transformer"
)

const petsSrc = `package pets

//enumwrap:impl
type Speaker interface {
	Say() string
}

type Dog struct{}

func (Dog) Say() string { return "woof" }

type Cat struct{}

func (Cat) Say() string { return "meow" }
`

const petsDecl = `//go:build enumwrap

package pets

// Pet is any animal we keep.
//
//enumwrap:union
//enumwrap:auto_impl(Speaker)
type Pet struct {
	Dog
	Cat
}
`

func testBuilder() *Builder {
	cfg := DefaultConfig()
	cfg.FixImports = false
	cfg.Jobs = 2
	return NewBuilder(cfg)
}

func petsDir(t *testing.T, decl string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "pets.go", petsSrc)
	writeFile(t, dir, "pets_decl.go", decl)
	return dir
}

func TestGenerate(t *testing.T) {
	dir := petsDir(t, petsDecl)
	b := testBuilder()

	outputs, err := b.Generate(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, outputs, 1)

	out := outputs[0]
	assert.Equal(t, filepath.Join(dir, "pets_decl.go"), out.Source)
	assert.Equal(t, filepath.Join(dir, "pets_decl_enumwrap.go"), out.Path)

	src := string(out.Code)
	assert.Contains(t, src, transformer.GeneratedHeader+"\n\npackage pets\n")
	assert.Contains(t, src, "// Pet is any animal we keep.\ntype Pet struct {")
	assert.Contains(t, src, "var _ Speaker = Pet{}")
	assert.Contains(t, src, "func (p Pet) Say() string {")
	assert.Contains(t, src, "func PetFromCat(v Cat) Pet {")
	assert.NotContains(t, src, "//go:build")

	f, err := parser.ParseFile(token.NewFileSet(), out.Path, out.Code, parser.ParseComments)
	require.NoError(t, err)
	assert.True(t, ast.IsGenerated(f))

	_, err = os.Stat(out.Path)
	assert.True(t, os.IsNotExist(err), "Generate must not write")
}

func TestWriteAndRegenerate(t *testing.T) {
	dir := petsDir(t, petsDecl)
	b := testBuilder()

	first, err := b.Generate(context.Background(), dir)
	require.NoError(t, err)
	require.NoError(t, b.Write(first))

	written, err := os.ReadFile(first[0].Path)
	require.NoError(t, err)
	assert.Equal(t, first[0].Code, written)

	// the companion file is not an input on the next run
	second, err := b.Generate(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Code, second[0].Code)
}

func TestGenerateSkipsGeneratedFiles(t *testing.T) {
	dir := petsDir(t, petsDecl)
	writeFile(t, dir, "zz_other.go", "// Code generated by stringer. DO NOT EDIT.\n\npackage pets\n\n//enumwrap:union\n//enumwrap:auto_impl(Ghost)\ntype Stale struct {\n\tDog\n}\n")

	outputs, err := testBuilder().Generate(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, outputs, 1)
}

func TestGenerateRequiresBuildConstraint(t *testing.T) {
	dir := petsDir(t, "package pets\n\n//enumwrap:union\ntype Pet struct {\n\tDog\n}\n")

	outputs, err := testBuilder().Generate(context.Background(), dir)
	require.Error(t, err)
	assert.Nil(t, outputs)
	assert.True(t, enumerr.Is(err, enumerr.TypeMalformed))
	assert.Contains(t, err.Error(), "pets_decl.go:1:1")
	assert.Contains(t, err.Error(), "add //go:build enumwrap")
}

func TestGenerateCustomBuildTag(t *testing.T) {
	dir := petsDir(t, "//go:build gen\n\npackage pets\n\n//enumwrap:union\ntype Pet struct {\n\tDog\n}\n")
	b := testBuilder()
	b.Config().BuildTag = "gen"
	b.Config().OutputSuffix = ".gen.go"

	outputs, err := b.Generate(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.Equal(t, filepath.Join(dir, "pets_decl.gen.go"), outputs[0].Path)
}

func TestGenerateUnknownInterface(t *testing.T) {
	dir := petsDir(t, "//go:build enumwrap\n\npackage pets\n\n//enumwrap:union\n//enumwrap:auto_impl(Ghost)\ntype Pet struct {\n\tDog\n}\n")

	outputs, err := testBuilder().Generate(context.Background(), dir)
	require.Error(t, err)
	assert.Nil(t, outputs)
	assert.True(t, enumerr.Is(err, enumerr.TypeUnknownInterface))
	assert.Contains(t, err.Error(), "pets_decl.go:7:6")
}

func TestGenerateRegistryIsPerDirectory(t *testing.T) {
	pets := petsDir(t, petsDecl)
	zoo := t.TempDir()
	writeFile(t, zoo, "zoo.go", "package zoo\n\ntype Lion struct{}\n\nfunc (Lion) Say() string { return \"roar\" }\n")
	writeFile(t, zoo, "zoo_decl.go", "//go:build enumwrap\n\npackage zoo\n\n//enumwrap:union\n//enumwrap:auto_impl(Speaker)\ntype Animal struct {\n\tLion\n}\n")

	_, err := testBuilder().Generate(context.Background(), pets, zoo)
	require.Error(t, err)
	assert.True(t, enumerr.Is(err, enumerr.TypeUnknownInterface))
	assert.Contains(t, err.Error(), "zoo_decl.go")
}

func TestGenerateSeveralDirectories(t *testing.T) {
	first := petsDir(t, petsDecl)
	second := petsDir(t, petsDecl)

	outputs, err := testBuilder().Generate(context.Background(), first, second)
	require.NoError(t, err)
	require.Len(t, outputs, 2)
	assert.Equal(t, filepath.Join(first, "pets_decl_enumwrap.go"), outputs[0].Path)
	assert.Equal(t, filepath.Join(second, "pets_decl_enumwrap.go"), outputs[1].Path)
	assert.Equal(t, outputs[0].Code, outputs[1].Code)
}

func TestGenerateWithoutUnions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pets.go", petsSrc)

	outputs, err := testBuilder().Generate(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, outputs)
}

func TestGenerateErrors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := testBuilder().Generate(context.Background(), filepath.Join(t.TempDir(), "nope"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading directory")
	})

	t.Run("syntax error", func(t *testing.T) {
		dir := petsDir(t, petsDecl)
		writeFile(t, dir, "broken.go", "package pets\n\nfunc {\n")
		_, err := testBuilder().Generate(context.Background(), dir)
		require.Error(t, err)
		assert.True(t, enumerr.Is(err, enumerr.TypeMalformed))
		assert.Contains(t, err.Error(), "broken.go")
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := testBuilder().Generate(ctx, petsDir(t, petsDecl))
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestScan(t *testing.T) {
	dir := petsDir(t, petsDecl)
	writeFile(t, dir, "loose.go", "package pets\n\n//enumwrap:union\n//enumwrap:auto_impl(Speaker, Ghost)\ntype Loose struct {\n\tDog\n\t*Cat\n}\n")

	results, err := testBuilder().Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, dir, res.Dir)
	require.Len(t, res.Interfaces, 1)
	assert.Equal(t, "Speaker", res.Interfaces[0].Name)

	assert.Equal(t, []Union{
		{
			File:       filepath.Join(dir, "loose.go"),
			Name:       "Loose",
			Variants:   []string{"Dog", "Cat"},
			Interfaces: []string{"Speaker", "Ghost"},
			Excluded:   false,
		},
		{
			File:       filepath.Join(dir, "pets_decl.go"),
			Name:       "Pet",
			Variants:   []string{"Dog", "Cat"},
			Interfaces: []string{"Speaker"},
			Excluded:   true,
		},
	}, res.Unions)

	_, err = os.Stat(filepath.Join(dir, "pets_decl_enumwrap.go"))
	assert.True(t, os.IsNotExist(err))
}

func TestScanImportPath(t *testing.T) {
	results, err := testBuilder().Scan(context.Background(), filepath.Join("..", "..", "examples", "shapes"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "martianoff/enumwrap/examples/shapes", results[0].ImportPath)

	var names []string
	for _, rec := range results[0].Interfaces {
		names = append(names, rec.Name)
	}
	assert.Equal(t, []string{"Describer", "Scaler", "Shape"}, names)
	require.Len(t, results[0].Unions, 1)
	assert.Equal(t, []string{"Shape", "Scaler", "Describer[string]"}, results[0].Unions[0].Interfaces)
}

func TestStale(t *testing.T) {
	dir := petsDir(t, petsDecl)
	b := testBuilder()

	outputs, err := b.Generate(context.Background(), dir)
	require.NoError(t, err)

	stale, err := b.Stale(outputs)
	require.NoError(t, err)
	assert.Equal(t, []string{outputs[0].Path}, stale, "missing file is stale")

	require.NoError(t, b.Write(outputs))
	stale, err = b.Stale(outputs)
	require.NoError(t, err)
	assert.Empty(t, stale)

	writeFile(t, dir, "pets_decl_enumwrap.go", "// Code generated by enumwrap. DO NOT EDIT.\n\npackage pets\n")
	stale, err = b.Stale(outputs)
	require.NoError(t, err)
	assert.Equal(t, []string{outputs[0].Path}, stale)
}
