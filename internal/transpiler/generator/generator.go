package generator

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/tools/imports"

	"martianoff/enumwrap/internal/transpiler"
)

type goCodeGenerator struct {
	fixImports bool
}

// NewGoCodeGenerator creates a CodeGenerator that formats Go code. With
// fixImports it also removes unused imports and adds missing ones, the way
// goimports does; otherwise it only formats and sorts.
func NewGoCodeGenerator(fixImports bool) transpiler.CodeGenerator {
	return &goCodeGenerator{fixImports: fixImports}
}

// Generate implements the CodeGenerator interface.
func (g *goCodeGenerator) Generate(filename string, src []byte) ([]byte, error) {
	out, err := imports.Process(filename, src, &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: !g.fixImports,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "formatting generated code for %s", filename)
	}
	return out, nil
}

var _ transpiler.CodeGenerator = (*goCodeGenerator)(nil)
