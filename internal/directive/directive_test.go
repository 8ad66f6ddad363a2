package directive_test

import (
	"go/ast"
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martianoff/enumwrap/internal/directive"
)

func comment(text string) *ast.Comment {
	return &ast.Comment{Text: text}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantOK   bool
		wantKind directive.Kind
		wantArgs string
		wantErr  string
	}{
		{name: "ordinary comment", text: "// Pet is an animal."},
		{name: "spaced prefix is not a directive", text: "// enumwrap:impl"},
		{name: "impl", text: "//enumwrap:impl", wantOK: true, wantKind: directive.Impl},
		{name: "union", text: "//enumwrap:union", wantOK: true, wantKind: directive.Union},
		{name: "auto_impl", text: "//enumwrap:auto_impl(Speaker, Adder[int])", wantOK: true, wantKind: directive.AutoImpl, wantArgs: "Speaker, Adder[int]"},
		{name: "auto_impl with space", text: "//enumwrap:auto_impl (Speaker)", wantOK: true, wantKind: directive.AutoImpl, wantArgs: "Speaker"},
		{name: "recv", text: "//enumwrap:recv pointer", wantOK: true, wantKind: directive.Recv, wantArgs: "pointer"},
		{name: "impl with args", text: "//enumwrap:impl Speaker", wantOK: true, wantErr: "takes no arguments"},
		{name: "auto_impl without parens", text: "//enumwrap:auto_impl Speaker", wantOK: true, wantErr: "parenthesized list"},
		{name: "recv without kind", text: "//enumwrap:recv", wantOK: true, wantErr: "exactly one receiver kind"},
		{name: "unknown", text: "//enumwrap:derive(Debug)", wantOK: true, wantErr: "unknown directive //enumwrap:derive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok, err := directive.Parse(comment(tt.text))
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.wantOK {
				assert.Equal(t, tt.wantKind, d.Kind)
				assert.Equal(t, tt.wantArgs, d.Args)
			}
		})
	}
}

func TestSplitKeepsAnnotations(t *testing.T) {
	cg := &ast.CommentGroup{List: []*ast.Comment{
		comment("// Pet is any animal we keep."),
		comment("//"),
		comment("//enumwrap:union"),
		comment("//enumwrap:auto_impl(Speaker)"),
		comment("//enumwrap:auto_impl(Walker)"),
		comment("// Deprecated: use Animal."),
	}}

	dirs, rest, err := directive.Split(cg)
	require.NoError(t, err)
	require.Len(t, dirs, 3)
	assert.Equal(t, directive.Union, dirs[0].Kind)
	assert.Equal(t, "Speaker", dirs[1].Args)
	assert.Equal(t, "Walker", dirs[2].Args)

	var texts []string
	for _, c := range rest {
		texts = append(texts, c.Text)
	}
	assert.Equal(t, []string{"// Pet is any animal we keep.", "//", "// Deprecated: use Animal."}, texts)

	assert.True(t, directive.Has(cg, directive.Union))
	assert.False(t, directive.Has(cg, directive.Impl))
	assert.False(t, directive.Has(nil, directive.Impl))
}

func TestFind(t *testing.T) {
	doc := &ast.CommentGroup{List: []*ast.Comment{comment("// Rename changes the name.")}}
	line := &ast.CommentGroup{List: []*ast.Comment{comment("//enumwrap:recv pointer")}}

	d, ok, err := directive.Find(directive.Recv, doc, nil, line)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "pointer", d.Args)

	_, ok, err = directive.Find(directive.Recv, doc)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseInterfaceList(t *testing.T) {
	refs, err := directive.ParseInterfaceList("Speaker, Adder[int], Pair[string, map[string]int], fmt.Stringer")
	require.NoError(t, err)
	require.Len(t, refs, 4)

	assert.Equal(t, "Speaker", refs[0].Name)
	assert.Empty(t, refs[0].TypeArgs)

	assert.Equal(t, "Adder", refs[1].Name)
	require.Len(t, refs[1].TypeArgs, 1)
	assert.Equal(t, "int", types.ExprString(refs[1].TypeArgs[0]))

	assert.Equal(t, "Pair", refs[2].Name)
	require.Len(t, refs[2].TypeArgs, 2)
	assert.Equal(t, "map[string]int", types.ExprString(refs[2].TypeArgs[1]))
	assert.Equal(t, "Pair[string, map[string]int]", refs[2].String())

	assert.Equal(t, "fmt.Stringer", refs[3].Name)
}

func TestParseInterfaceListErrors(t *testing.T) {
	_, err := directive.ParseInterfaceList("Speaker, 42")
	assert.Error(t, err)

	_, err = directive.ParseInterfaceList("Speaker(")
	assert.Error(t, err)

	refs, err := directive.ParseInterfaceList("")
	assert.NoError(t, err)
	assert.Empty(t, refs)
}
