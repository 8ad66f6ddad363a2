package transformer

import (
	"fmt"
	"strconv"
	"strings"
)

// implPlan is the validated set of methods one interface block will emit.
type implPlan struct {
	iface   *resolvedInterface
	methods []MethodShape
}

// writeImpl emits the implementation of one interface for the union: a
// compile-time assertion followed by one dispatch method per interface
// method.
func writeImpl(b *strings.Builder, union string, variants []variant, plan implPlan) {
	value := union + "{}"
	if plan.iface.pointer() {
		value = "(*" + union + ")(nil)"
	}
	fmt.Fprintf(b, "var _ %s = %s\n", plan.iface.display, value)
	for _, m := range plan.methods {
		b.WriteByte('\n')
		writeDispatch(b, union, variants, m)
	}
}

// writeDispatch emits a method that switches on the active variant and
// forwards the call, arguments unchanged, to that variant's own method.
func writeDispatch(b *strings.Builder, union string, variants []variant, m MethodShape) {
	recv := m.receiverName(union)
	recvType := union
	if m.Receiver == RecvPointer {
		recvType = "*" + union
	}
	call := "%s.%s." + m.Method + "(" + m.arguments() + ")"
	if len(m.Results) > 0 {
		call = "return " + call
	}

	fmt.Fprintf(b, "func (%s %s) %s%s {\n", recv, recvType, m.Method, m.signature())
	fmt.Fprintf(b, "\tswitch %s._variant {\n", recv)
	for _, v := range variants {
		fmt.Fprintf(b, "\tcase %s:\n", tagConst(union, v))
		fmt.Fprintf(b, "\t\t"+call+"\n", recv, fieldName(v))
	}
	b.WriteString("\tdefault:\n")
	fmt.Fprintf(b, "\t\tpanic(%s)\n", strconv.Quote("enumwrap: "+union+" holds no variant"))
	b.WriteString("\t}\n}\n")
}
