package transformer

import (
	"fmt"
	"strings"
)

// conversionName names the constructor wrapping variant v into union.
func conversionName(union string, v variant) string {
	return union + "From" + v.name
}

// writeConversion emits the value-to-union conversion for one variant.
func writeConversion(b *strings.Builder, union string, v variant) {
	fmt.Fprintf(b, "// %s wraps a %s in a %s.\n", conversionName(union, v), v.name, union)
	fmt.Fprintf(b, "func %s(v %s) %s {\n", conversionName(union, v), v.typeText, union)
	fmt.Fprintf(b, "\treturn %s{_variant: %s, %s: v}\n}\n", union, tagConst(union, v), fieldName(v))
}
