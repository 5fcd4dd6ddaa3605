package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kryon-ui/kryon-runtime/internal/krbfixture"
	"github.com/kryon-ui/kryon-runtime/krb"
	"github.com/kryon-ui/kryon-runtime/runtime"
)

// S5 — a Text element with no explicit fg_color inherits its ancestor
// Container's resolved fg_color, rather than falling back straight to
// the window default (spec.md §4.4 step 5 / §8 S5).
func TestInheritance_TextInheritsAncestorFgColor(t *testing.T) {
	doc := &krbfixture.Document{HasApp: true}
	textIdx := doc.AddString("hello")

	doc.Roots = []krbfixture.Element{{
		Type: krb.ElemTypeApp,
		Children: []krbfixture.Element{{
			Type: krb.ElemTypeContainer,
			Properties: []krbfixture.Prop{
				{ID: krb.PropIDFgColor, ValueType: krb.ValTypeColor, Value: krbfixture.ColorValue(10, 20, 30, 255)},
			},
			Children: []krbfixture.Element{{
				Type: krb.ElemTypeText,
				Properties: []krbfixture.Prop{
					{ID: krb.PropIDTextContent, ValueType: krb.ValTypeString, Value: krbfixture.StringValue(textIdx)},
				},
			}},
		}},
	}}

	parsed, err := krb.ParseDocument(doc.Build())
	require.NoError(t, err)

	ctx, err := runtime.Build(parsed, nil, nil, nil)
	require.NoError(t, err)

	require.Len(t, ctx.Roots, 1)
	app := &ctx.Elements[ctx.Roots[0]]
	require.Len(t, app.Children, 1)
	container := &ctx.Elements[app.Children[0]]
	require.Len(t, container.Children, 1)
	text := &ctx.Elements[container.Children[0]]

	require.True(t, text.FgColor.Set)
	require.Equal(t, runtime.Color{R: 10, G: 20, B: 30, A: 255}, text.FgColor.Color)
}

// A Text element whose ancestry never set an alignment defaults to
// center, per spec.md §4.4 step 5's final paragraph.
func TestInheritance_TextDefaultsToCenterAlignment(t *testing.T) {
	doc := &krbfixture.Document{HasApp: true}
	textIdx := doc.AddString("hello")

	doc.Roots = []krbfixture.Element{{
		Type: krb.ElemTypeApp,
		Children: []krbfixture.Element{{
			Type: krb.ElemTypeText,
			Properties: []krbfixture.Prop{
				{ID: krb.PropIDTextContent, ValueType: krb.ValTypeString, Value: krbfixture.StringValue(textIdx)},
			},
		}},
	}}

	parsed, err := krb.ParseDocument(doc.Build())
	require.NoError(t, err)

	ctx, err := runtime.Build(parsed, nil, nil, nil)
	require.NoError(t, err)

	app := &ctx.Elements[ctx.Roots[0]]
	text := &ctx.Elements[app.Children[0]]
	require.Equal(t, uint8(1), text.TextAlignment)
}
