package transpiler

import (
	"go/ast"
	"go/token"
)

// SourceFile is a parsed Go source file together with the bytes it was
// parsed from. Declarations are copied out of Src by offset, so Src must be
// exactly what Fset/File were built from.
type SourceFile struct {
	Path string
	Src  []byte
	Fset *token.FileSet
	File *ast.File
}

// Offset converts a position in the file to a byte offset into Src.
func (f *SourceFile) Offset(pos token.Pos) int {
	return f.Fset.Position(pos).Offset
}

// Slice returns the source text between two positions.
func (f *SourceFile) Slice(from, to token.Pos) string {
	return string(f.Src[f.Offset(from):f.Offset(to)])
}

// Position resolves pos for error reporting.
func (f *SourceFile) Position(pos token.Pos) token.Position {
	return f.Fset.Position(pos)
}
