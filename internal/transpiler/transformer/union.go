package transformer

import (
	"fmt"
	"go/ast"
	"strings"
)

// writeUnion emits the union type: a struct holding one field per variant
// and a discriminant, the tag constants, and the matching accessors.
//
//	type Pet struct {
//		_variant uint8
//		_Dog     Dog
//		_Cat     zoo.Cat
//	}
//
// Tags start at one so the zero value holds no variant.
func writeUnion(b *strings.Builder, req UnionRequest, variants []variant) {
	for _, line := range req.Doc {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	fmt.Fprintf(b, "type %s struct {\n", req.Name)
	b.WriteString("\t_variant uint8\n")
	for _, v := range variants {
		for _, line := range v.Doc {
			fmt.Fprintf(b, "\t%s\n", line)
		}
		fmt.Fprintf(b, "\t%s %s", fieldName(v), v.typeText)
		if v.Tag != "" {
			b.WriteString(" " + v.Tag)
		}
		if v.Comment != "" {
			b.WriteString(" " + v.Comment)
		}
		b.WriteByte('\n')
	}
	b.WriteString("}\n")

	if len(variants) > 0 {
		b.WriteString("\nconst (\n")
		for i, v := range variants {
			if i == 0 {
				fmt.Fprintf(b, "\t%s uint8 = iota + 1\n", tagConst(req.Name, v))
				continue
			}
			fmt.Fprintf(b, "\t%s\n", tagConst(req.Name, v))
		}
		b.WriteString(")\n")
	}

	recv := accessorReceiver(req.Name, variants)
	for _, v := range variants {
		fmt.Fprintf(b, "\n// Is%s reports whether %s holds a %s.\n", v.name, recv, v.name)
		fmt.Fprintf(b, "func (%s %s) Is%s() bool {\n", recv, req.Name, v.name)
		fmt.Fprintf(b, "\treturn %s._variant == %s\n}\n", recv, tagConst(req.Name, v))

		fmt.Fprintf(b, "\n// As%s returns the %s held by %s, if any.\n", v.name, v.name, recv)
		fmt.Fprintf(b, "func (%s %s) As%s() (%s, bool) {\n", recv, req.Name, v.name, v.typeText)
		fmt.Fprintf(b, "\tif %s._variant != %s {\n", recv, tagConst(req.Name, v))
		fmt.Fprintf(b, "\t\tvar zero %s\n\t\treturn zero, false\n\t}\n", v.typeText)
		fmt.Fprintf(b, "\treturn %s.%s, true\n}\n", recv, fieldName(v))
	}
}

// accessorReceiver picks the receiver of the accessors. As<Tag> names the
// variant type in its body, so the receiver must not shadow a package
// qualifier used by any variant.
func accessorReceiver(union string, variants []variant) string {
	qualifiers := make(map[string]bool)
	for _, v := range variants {
		ast.Inspect(v.Type, func(n ast.Node) bool {
			if sel, ok := n.(*ast.SelectorExpr); ok {
				if id, ok := sel.X.(*ast.Ident); ok {
					qualifiers[id.Name] = true
				}
			}
			return true
		})
	}
	name := receiverBase(union)
	for qualifiers[name] {
		name += "_"
	}
	return name
}

// accessorNames lists the methods writeUnion adds to the union.
func accessorNames(variants []variant) map[string]bool {
	names := make(map[string]bool, 2*len(variants))
	for _, v := range variants {
		names["Is"+v.name] = true
		names["As"+v.name] = true
	}
	return names
}

func fieldName(v variant) string {
	return "_" + v.name
}

func tagConst(union string, v variant) string {
	return "_" + union + "_" + v.name
}
