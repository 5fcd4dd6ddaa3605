package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kryon-ui/kryon-runtime/internal/krbfixture"
	"github.com/kryon-ui/kryon-runtime/krb"
	"github.com/kryon-ui/kryon-runtime/runtime"
)

func buildAndLayout(t *testing.T, d *krbfixture.Document) *runtime.Context {
	t.Helper()
	parsed, err := krb.ParseDocument(d.Build())
	require.NoError(t, err)
	ctx, err := runtime.Build(parsed, nil, nil, nil)
	require.NoError(t, err)
	for _, root := range ctx.Roots {
		runtime.Layout(ctx, root, 0, 0, float32(ctx.Window.Width), float32(ctx.Window.Height), ctx.Window.ScaleFactor)
	}
	return ctx
}

// An explicitly sized child keeps its declared width/height rather than
// being stretched or shrunk by its parent's flow pass (§4.7 step 1).
func TestLayout_ExplicitSizeIsPreserved(t *testing.T) {
	d := &krbfixture.Document{HasApp: true}
	d.Roots = []krbfixture.Element{{
		Type:   krb.ElemTypeApp,
		Width:  800,
		Height: 600,
		Children: []krbfixture.Element{{
			Type:   krb.ElemTypeContainer,
			Width:  200,
			Height: 100,
		}},
	}}

	ctx := buildAndLayout(t, d)
	app := &ctx.Elements[ctx.Roots[0]]
	child := &ctx.Elements[app.Children[0]]

	require.Equal(t, float32(200), child.RenderW)
	require.Equal(t, float32(100), child.RenderH)
}

// Two row children with grow set split the remaining main-axis space
// evenly after any fixed-size siblings are subtracted (§4.7 step 2's
// grow-distribution pass; SPEC_FULL.md's enrichment of the teacher's
// single-grow-child case to N-way even split).
func TestLayout_GrowChildrenSplitRemainingSpace(t *testing.T) {
	d := &krbfixture.Document{HasApp: true}
	d.Roots = []krbfixture.Element{{
		Type:   krb.ElemTypeApp,
		Width:  800,
		Height: 600,
		Children: []krbfixture.Element{
			{
				Type:   krb.ElemTypeContainer,
				Layout: krb.LayoutDirRow,
				Width:  800,
				Height: 100,
				Children: []krbfixture.Element{
					{Type: krb.ElemTypeContainer, Width: 200, Height: 50},
					{Type: krb.ElemTypeContainer, Layout: krb.LayoutGrowBit, Height: 50},
					{Type: krb.ElemTypeContainer, Layout: krb.LayoutGrowBit, Height: 50},
				},
			},
		},
	}}

	ctx := buildAndLayout(t, d)
	app := &ctx.Elements[ctx.Roots[0]]
	row := &ctx.Elements[app.Children[0]]
	require.Len(t, row.Children, 3)

	fixed := &ctx.Elements[row.Children[0]]
	growA := &ctx.Elements[row.Children[1]]
	growB := &ctx.Elements[row.Children[2]]

	require.Equal(t, float32(200), fixed.RenderW)
	require.InDelta(t, float32(300), growA.RenderW, 0.01)
	require.InDelta(t, float32(300), growB.RenderW, 0.01)
	require.InDelta(t, float32(200), growA.RenderX, 0.01)
	require.InDelta(t, float32(500), growB.RenderX, 0.01)
}

// The gap property (SPEC_FULL.md §3 supplemented feature) inserts fixed
// spacing between flow children in addition to any grow distribution.
func TestLayout_GapInsertsSpacingBetweenChildren(t *testing.T) {
	d := &krbfixture.Document{HasApp: true}
	d.Roots = []krbfixture.Element{{
		Type:   krb.ElemTypeApp,
		Width:  800,
		Height: 600,
		Children: []krbfixture.Element{
			{
				Type:   krb.ElemTypeContainer,
				Layout: krb.LayoutDirRow,
				Width:  800,
				Height: 100,
				Properties: []krbfixture.Prop{
					{ID: krb.PropIDGap, ValueType: krb.ValTypeShort, Value: krbfixture.ShortValue(10)},
				},
				Children: []krbfixture.Element{
					{Type: krb.ElemTypeContainer, Width: 50, Height: 50},
					{Type: krb.ElemTypeContainer, Width: 50, Height: 50},
				},
			},
		},
	}}

	ctx := buildAndLayout(t, d)
	app := &ctx.Elements[ctx.Roots[0]]
	row := &ctx.Elements[app.Children[0]]
	first := &ctx.Elements[row.Children[0]]
	second := &ctx.Elements[row.Children[1]]

	require.Equal(t, float32(0), first.RenderX)
	require.InDelta(t, float32(60), second.RenderX, 0.01)
}

// Center main-axis alignment centers the flow children's combined extent
// within the parent's content area when no child grows.
func TestLayout_CenterAlignmentCentersChildren(t *testing.T) {
	d := &krbfixture.Document{HasApp: true}
	centerLayout := krb.LayoutDirRow | (krb.LayoutAlignCenter << 2)
	d.Roots = []krbfixture.Element{{
		Type:   krb.ElemTypeApp,
		Width:  800,
		Height: 600,
		Children: []krbfixture.Element{
			{
				Type:   krb.ElemTypeContainer,
				Layout: centerLayout,
				Width:  800,
				Height: 100,
				Children: []krbfixture.Element{
					{Type: krb.ElemTypeContainer, Width: 100, Height: 50},
				},
			},
		},
	}}

	ctx := buildAndLayout(t, d)
	app := &ctx.Elements[ctx.Roots[0]]
	row := &ctx.Elements[app.Children[0]]
	child := &ctx.Elements[row.Children[0]]

	require.InDelta(t, float32(350), child.RenderX, 0.01)
}
