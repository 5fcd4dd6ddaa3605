package runtime

import "github.com/kryon-ui/kryon-runtime/krb"

// inheritanceState threads the resolved-so-far values of the three
// inheritable properties down a subtree (§4.4 step 5). Colors are
// materialized as concrete Color values here (never OptionalColor) since
// this is the last step of resolution before layout/draw ever reads them
// (§9 design note: "materialize concrete values only after inheritance").
type inheritanceState struct {
	FgColor       Color
	FontSize      uint16
	TextAlignment uint8
}

// inheritedDefaults seeds the root-level inheritance state from the
// window's contextual defaults (§4.4 "if no ancestor has a color, the
// global default is used").
func inheritedDefaults(ctx *Context) inheritanceState {
	return inheritanceState{
		FgColor:       ctx.Window.DefaultFg,
		FontSize:      ctx.Window.DefaultFontSize,
		TextAlignment: 0,
	}
}

// inheritProperties implements §4.4 step 5, depth-first from each root: an
// element with an unset fg_color/font_size/text_alignment takes its
// parent's resolved value; a text element that would otherwise resolve to
// alignment 0 (nobody in the ancestry chain ever set it) defaults to
// center (1) instead. Text elements additionally clamp low-alpha colors
// and too-small font sizes (§4.4 step 5 final paragraph).
func inheritProperties(ctx *Context, id ElementID, inherited inheritanceState) {
	el := &ctx.Elements[id]
	if el.IsPlaceholder {
		return
	}

	fg := inherited.FgColor
	if el.FgColor.Set {
		fg = el.FgColor.Color
	}

	fontSize := inherited.FontSize
	if el.FontSize > 0 {
		fontSize = el.FontSize
	}

	alignment := el.TextAlignment
	if alignment == 0 {
		alignment = inherited.TextAlignment
	}

	isText := el.Header.Type == krb.ElemTypeText
	if isText && alignment == 0 {
		alignment = 1 // center
	}

	if isText {
		if fg.A < 50 {
			fg.A = 255
		}
		if fontSize < 8 {
			fontSize = ctx.Window.DefaultFontSize
		}
	}

	el.FgColor = someColor(fg)
	el.FontSize = fontSize
	el.TextAlignment = alignment

	childState := inheritanceState{FgColor: fg, FontSize: fontSize, TextAlignment: alignment}
	for _, child := range el.Children {
		inheritProperties(ctx, child, childState)
	}
}
