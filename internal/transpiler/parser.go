package transpiler

import (
	"go/parser"
	"go/token"

	"github.com/cockroachdb/errors"

	"martianoff/enumwrap/enumerr"
)

type goSourceParser struct {
}

// NewGoSourceParser creates a SourceParser backed by go/parser. Comments are
// kept because directives live in them.
func NewGoSourceParser() SourceParser {
	return &goSourceParser{}
}

// Parse implements the SourceParser interface.
func (p *goSourceParser) Parse(path string, src []byte) (*SourceFile, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, errors.Wrapf(enumerr.New(enumerr.TypeMalformed, err.Error()), "parsing %s", path)
	}
	return &SourceFile{Path: path, Src: src, Fset: fset, File: file}, nil
}

var _ SourceParser = (*goSourceParser)(nil)
