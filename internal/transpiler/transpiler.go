package transpiler

// SourceParser parses Go source into a SourceFile.
type SourceParser interface {
	Parse(path string, src []byte) (*SourceFile, error)
}

// ASTTransformer registers the interfaces a file annotates and expands the
// union declarations it contains.
type ASTTransformer interface {
	// Register captures every //enumwrap:impl interface of the file and
	// returns their names in declaration order.
	Register(file *SourceFile) ([]string, error)
	// Expand replaces every //enumwrap:union declaration of the file with
	// generated code. It reports how many unions were expanded; with zero the
	// output is nil.
	Expand(file *SourceFile) ([]byte, int, error)
}

// CodeGenerator turns expanded source into final, formatted Go code.
type CodeGenerator interface {
	Generate(filename string, src []byte) ([]byte, error)
}

// EnumwrapTranspiler orchestrates the two phases for single files. Callers
// must Register every file of a package before expanding any of them.
type EnumwrapTranspiler struct {
	parser      SourceParser
	transformer ASTTransformer
	generator   CodeGenerator
}

// NewEnumwrapTranspiler creates a new instance of EnumwrapTranspiler with its dependencies.
func NewEnumwrapTranspiler(
	parser SourceParser,
	transformer ASTTransformer,
	generator CodeGenerator,
) *EnumwrapTranspiler {
	return &EnumwrapTranspiler{
		parser:      parser,
		transformer: transformer,
		generator:   generator,
	}
}

// Parse parses a single file.
func (t *EnumwrapTranspiler) Parse(path string, src []byte) (*SourceFile, error) {
	return t.parser.Parse(path, src)
}

// Register runs the registration phase for a parsed file.
func (t *EnumwrapTranspiler) Register(file *SourceFile) ([]string, error) {
	return t.transformer.Register(file)
}

// Transpile runs the expansion phase for a parsed file and formats the
// result. It returns nil output when the file declares no unions.
func (t *EnumwrapTranspiler) Transpile(file *SourceFile, outputName string) ([]byte, error) {
	expanded, n, err := t.transformer.Expand(file)
	if err != nil || n == 0 {
		return nil, err
	}
	return t.generator.Generate(outputName, expanded)
}
