package runtime

import "github.com/kryon-ui/kryon-runtime/krb"

// Intrinsic sizing constants (§4.7 step 1).
const (
	textPadding        = 8
	buttonPadding      = 16
	defaultContentSize = 100
	minFontSizeClamp   = 8
)

// rect is an assigned position+size a parent flow/absolute pass hands to
// one of its children, bypassing that child's own intrinsic-size/position
// computation (§4.7 step 2's "Pass 3: place each flow child").
type rect struct{ x, y, w, h float32 }

// Layout implements §4.7: a two-pass flow layout invoked once per frame
// per root, recursing into the whole visible subtree. parentContent* is
// the content rect of the element's layout parent (for a root, the
// window); scale is the document's global scale_factor.
func Layout(ctx *Context, id ElementID, parentContentX, parentContentY, parentContentW, parentContentH, scale float32) {
	layoutOne(ctx, id, parentContentX, parentContentY, parentContentW, parentContentH, scale, nil)
}

func layoutOne(ctx *Context, id ElementID, parentContentX, parentContentY, parentContentW, parentContentH, scale float32, assigned *rect) {
	el := &ctx.Elements[id]
	if el.IsPlaceholder || !el.IsVisible {
		return
	}

	switch {
	case el.PreLaidOut:
		// A custom-component hook already set RenderX/Y/W/H (§4.7 step 2).
	case assigned != nil:
		el.RenderX, el.RenderY, el.RenderW, el.RenderH = assigned.x, assigned.y, assigned.w, assigned.h
	default:
		w, h := intrinsicSize(ctx, id, parentContentW, parentContentH, scale)
		el.RenderW, el.RenderH = w, h
		applySizeConstraints(ctx, id, parentContentW, parentContentH, scale)

		if el.Header.LayoutAbsolute() || el.Header.PosX != 0 || el.Header.PosY != 0 {
			el.RenderX = parentContentX + float32(el.Header.PosX)*scale
			el.RenderY = parentContentY + float32(el.Header.PosY)*scale
		} else {
			el.RenderX, el.RenderY = parentContentX, parentContentY
		}
	}

	cx, cy, cw, ch := contentArea(el, scale)
	if len(el.Children) > 0 && cw > 0 && ch > 0 {
		layoutChildren(ctx, id, cx, cy, cw, ch, scale)
	}
}

// intrinsicSize implements §4.7 step 1.
func intrinsicSize(ctx *Context, id ElementID, parentContentW, parentContentH, scale float32) (float32, float32) {
	el := &ctx.Elements[id]

	explicitW := el.Header.Width > 0
	explicitH := el.Header.Height > 0
	w := float32(el.Header.Width) * scale
	h := float32(el.Header.Height) * scale

	switch el.Header.Type {
	case krb.ElemTypeText, krb.ElemTypeButton:
		if el.Text != "" {
			pad := float32(textPadding)
			if el.Header.Type == krb.ElemTypeButton {
				pad = buttonPadding
			}
			fontSize := el.FontSize
			if fontSize < minFontSizeClamp {
				fontSize = ctx.Window.DefaultFontSize
			}
			var textW, textH float32
			if ctx.Backend != nil {
				textW, textH = ctx.Backend.MeasureText(el.Text, fontSize)
			} else {
				textW, textH = float32(len(el.Text))*float32(fontSize)*0.6, float32(fontSize)
			}
			if !explicitW {
				w = textW + pad
			}
			if !explicitH {
				h = textH + pad
			}
		}
	case krb.ElemTypeImage:
		if el.TextureLoaded {
			if !explicitW {
				w = float32(el.TextureW) * scale
			}
			if !explicitH {
				h = float32(el.TextureH) * scale
			}
		}
	case krb.ElemTypeContainer, krb.ElemTypeApp:
		if !explicitW {
			if el.Header.LayoutGrow() || el.Parent.Valid() {
				w = parentContentW
			} else {
				w = defaultContentSize * scale
			}
		}
		if !explicitH {
			if el.Header.LayoutGrow() || el.Parent.Valid() {
				h = parentContentH
			} else {
				h = defaultContentSize * scale
			}
		}
	}

	if explicitW && w < 1 {
		w = 1
	}
	if explicitH && h < 1 {
		h = 1
	}
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return w, h
}

// applySizeConstraints implements the min/max width/height supplemented
// feature (SPEC_FULL.md §3).
func applySizeConstraints(ctx *Context, id ElementID, parentContentW, parentContentH, scale float32) {
	doc := ctx.Document
	el := &ctx.Elements[id]
	if el.OriginalIndex < 0 || el.OriginalIndex >= len(doc.Properties) {
		return
	}
	props := doc.Properties[el.OriginalIndex]
	clampMin := func(propID krb.PropertyID, dim *float32, relativeTo float32) {
		for _, p := range props {
			if p.ID != propID {
				continue
			}
			if v, ok := numericValue(p, relativeTo); ok && v > *dim {
				*dim = v
			}
			return
		}
	}
	clampMax := func(propID krb.PropertyID, dim *float32, relativeTo float32) {
		for _, p := range props {
			if p.ID != propID {
				continue
			}
			if v, ok := numericValue(p, relativeTo); ok && v > 0 && v < *dim {
				*dim = v
			}
			return
		}
	}
	clampMin(krb.PropIDMinWidth, &el.RenderW, parentContentW)
	clampMin(krb.PropIDMinHeight, &el.RenderH, parentContentH)
	clampMax(krb.PropIDMaxWidth, &el.RenderW, parentContentW)
	clampMax(krb.PropIDMaxHeight, &el.RenderH, parentContentH)
}

// contentArea computes §4.7 step 3: the render rect inset by scaled border
// widths, clamping so opposing pairs never exceed the dimension.
func contentArea(el *RenderElement, scale float32) (x, y, w, h float32) {
	top := float32(el.BorderWidths[0]) * scale
	right := float32(el.BorderWidths[1]) * scale
	bottom := float32(el.BorderWidths[2]) * scale
	left := float32(el.BorderWidths[3]) * scale

	if left+right > el.RenderW {
		left = el.RenderW / 2
		right = el.RenderW / 2
	}
	if top+bottom > el.RenderH {
		top = el.RenderH / 2
		bottom = el.RenderH / 2
	}

	x = el.RenderX + left
	y = el.RenderY + top
	w = maxF(0, el.RenderW-left-right)
	h = maxF(0, el.RenderH-top-bottom)
	return
}

// layoutChildren implements §4.7 step 4's three passes plus the
// grow-distribution and gap supplements (SPEC_FULL.md §3).
func layoutChildren(ctx *Context, parentID ElementID, contentX, contentY, contentW, contentH, scale float32) {
	parent := &ctx.Elements[parentID]
	direction := parent.Header.LayoutDirection()
	alignment := parent.Header.LayoutAlignment()
	crossAlignment := parent.Header.LayoutCrossAlignment()
	horizontal := direction == krb.LayoutDirRow || direction == krb.LayoutDirRowReverse
	reversed := direction == krb.LayoutDirRowReverse || direction == krb.LayoutDirColumnReverse
	gap := float32(parent.Gap) * scale

	type flowChild struct {
		id          ElementID
		w, h        float32
		grow        bool
		crossStretch bool
	}
	var flow []flowChild
	var absolute []ElementID

	for _, childID := range parent.Children {
		child := &ctx.Elements[childID]
		if child.IsPlaceholder || !child.IsVisible {
			continue
		}
		if child.Header.LayoutAbsolute() || child.Header.PosX != 0 || child.Header.PosY != 0 {
			absolute = append(absolute, childID)
			continue
		}
		w, h := intrinsicSize(ctx, childID, contentW, contentH, scale)
		flow = append(flow, flowChild{id: childID, w: w, h: h, grow: child.Header.LayoutGrow()})
	}

	mainContent := contentW
	if !horizontal {
		mainContent = contentH
	}
	crossContent := contentH
	if !horizontal {
		crossContent = contentW
	}

	mainOf := func(fc flowChild) float32 {
		if horizontal {
			return fc.w
		}
		return fc.h
	}

	// Pass 1: sum intrinsic main-axis extents (already computed above).
	var growCount int
	var nonGrowMain float32
	for _, fc := range flow {
		if fc.grow {
			growCount++
		} else {
			nonGrowMain += mainOf(fc)
		}
	}
	n := len(flow)
	additiveGap := gap
	if alignment == krb.LayoutAlignSpaceBetween {
		additiveGap = 0 // space-between computes its own inter-child distance
	}
	if n > 1 {
		nonGrowMain += additiveGap * float32(n-1)
	}

	// Grow distribution (SPEC_FULL.md §3): remaining main-axis space split
	// evenly across grow-flagged children.
	if growCount > 0 {
		remaining := maxF(0, mainContent-nonGrowMain)
		share := remaining / float32(growCount)
		for i := range flow {
			if flow[i].grow {
				if horizontal {
					flow[i].w = share
				} else {
					flow[i].h = share
				}
			}
		}
	}

	var totalExtent float32
	for _, fc := range flow {
		totalExtent += mainOf(fc)
	}
	if n > 1 {
		totalExtent += additiveGap * float32(n-1)
	}

	var mainStart, interGap float32
	switch alignment {
	case krb.LayoutAlignCenter:
		mainStart = (mainContent - totalExtent) / 2
	case krb.LayoutAlignEnd:
		mainStart = mainContent - totalExtent
	case krb.LayoutAlignSpaceBetween:
		if n > 1 {
			sizesOnly := totalExtent
			interGap = maxF(0, (mainContent-sizesOnly)/float32(n-1))
		}
	default: // start
		mainStart = 0
	}
	if additiveGap > interGap {
		interGap = additiveGap
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if reversed {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}

	cursor := mainStart
	for idx, i := range order {
		fc := flow[i]
		mainSize := mainOf(fc)
		crossSize := fc.h
		if horizontal {
			crossSize = fc.h
		} else {
			crossSize = fc.w
		}

		var crossOffset float32
		switch crossAlignment {
		case krb.LayoutAlignCenter:
			crossOffset = (crossContent - crossSize) / 2
		case krb.LayoutAlignEnd:
			crossOffset = crossContent - crossSize
		case krb.LayoutAlignStretch:
			crossSize = crossContent
			crossOffset = 0
		default:
			crossOffset = 0
		}
		crossOffset = maxF(0, crossOffset)

		var r rect
		if horizontal {
			r = rect{x: contentX + cursor, y: contentY + crossOffset, w: mainSize, h: crossSize}
		} else {
			r = rect{x: contentX + crossOffset, y: contentY + cursor, w: crossSize, h: mainSize}
		}
		layoutOne(ctx, fc.id, contentX, contentY, contentW, contentH, scale, &r)

		cursor += mainSize
		if idx < n-1 {
			cursor += interGap
		}
	}

	for _, childID := range absolute {
		layoutOne(ctx, childID, contentX, contentY, contentW, contentH, scale, nil)
	}
}

func maxF(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
