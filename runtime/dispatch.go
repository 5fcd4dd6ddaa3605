package runtime

import "github.com/kryon-ui/kryon-runtime/krb"

const hoverBrightenDelta = 55 // §9 correction: the teacher's "+255" is a typo for +55

// RunFrame implements §4.8's per-frame sequence: resize poll, cursor-
// arbitration reset, layout+draw of every root, and at-most-one click
// dispatch. It is meant to be called once per iteration of the host's
// frame loop, between the backend's BeginFrame/EndFrame.
func RunFrame(ctx *Context) error {
	ctx.frameID = newFrameID()
	pollResize(ctx)

	ctx.cursorThisFrame = CursorDefault
	ctx.cursorArbitrated = false

	mx, my := ctx.Backend.MousePosition()

	bg := ctx.Window.DefaultBg
	if len(ctx.Roots) > 0 {
		root := &ctx.Elements[ctx.Roots[0]]
		if root.BgColor.Set {
			bg = root.BgColor.Color
		}
	}
	ctx.Backend.ClearBackground(bg)

	for _, root := range ctx.Roots {
		layoutOne(ctx, root, 0, 0, float32(ctx.Window.Width), float32(ctx.Window.Height), ctx.Window.ScaleFactor, nil)
	}
	winner := findTopmostHovered(ctx, mx, my)
	for _, root := range ctx.Roots {
		drawTree(ctx, root, mx, my, winner, ctx.Window.ScaleFactor)
	}

	if winner.Valid() {
		ctx.Backend.SetCursor(CursorPointingHand)
	} else {
		ctx.Backend.SetCursor(CursorDefault)
	}

	if winner.Valid() && ctx.Backend.MouseLeftPressed() {
		dispatchClick(ctx, winner)
	}

	return nil
}

// pollResize implements §4.8 step 1: a resizable window whose live size
// has changed updates the window config and the first root's render
// extents so the next layout pass picks it up.
func pollResize(ctx *Context) {
	w, h := ctx.Backend.WindowSize()
	if w == ctx.lastWindowW && h == ctx.lastWindowH {
		return
	}
	ctx.lastWindowW, ctx.lastWindowH = w, h
	if !ctx.Window.Resizable {
		return
	}
	ctx.Window.Width, ctx.Window.Height = w, h
	if len(ctx.Roots) > 0 {
		root := &ctx.Elements[ctx.Roots[0]]
		root.RenderW, root.RenderH = float32(w), float32(h)
	}
}

// findTopmostHovered implements cursor arbitration (§4.8 "Cursor
// arbitration"): the first interactive element in reverse draw order
// (topmost-first) whose render rect contains the mouse wins.
func findTopmostHovered(ctx *Context, mx, my float32) ElementID {
	for _, root := range ctx.Roots {
		if id, ok := hitTestReverse(ctx, root, mx, my); ok {
			return id
		}
	}
	return NoElement
}

func hitTestReverse(ctx *Context, id ElementID, mx, my float32) (ElementID, bool) {
	el := &ctx.Elements[id]
	if el.IsPlaceholder || !el.IsVisible {
		return NoElement, false
	}
	for i := len(el.Children) - 1; i >= 0; i-- {
		if found, ok := hitTestReverse(ctx, el.Children[i], mx, my); ok {
			return found, true
		}
	}
	if el.IsInteractive && containsPoint(el, mx, my) {
		return id, true
	}
	return NoElement, false
}

func containsPoint(el *RenderElement, mx, my float32) bool {
	return mx >= el.RenderX && mx < el.RenderX+el.RenderW &&
		my >= el.RenderY && my < el.RenderY+el.RenderH
}

// drawTree recurses preorder over the already-laid-out subtree (§4.8 step
// 3): it updates hover/active flags, re-applies state property overrides
// when they change, brightens hovered buttons, draws background/border/
// content, and recurses into children.
func drawTree(ctx *Context, id ElementID, mx, my float32, cursorWinner ElementID, scale float32) {
	el := &ctx.Elements[id]
	if el.IsPlaceholder || !el.IsVisible {
		return
	}

	if el.IsInteractive {
		hovered := containsPoint(el, mx, my)
		if hovered != el.IsHovered {
			el.IsHovered = hovered
			applyStateOverrides(ctx, id)
		}
	}

	bg, fg := el.BgColor, el.FgColor
	if el.Header.Type == krb.ElemTypeButton && (el.ActiveStyleNameIndex != 0 || el.InactiveStyleNameIndex != 0) {
		targetNameIndex := el.InactiveStyleNameIndex
		if el.IsActive {
			targetNameIndex = el.ActiveStyleNameIndex
		}
		if targetNameIndex != 0 {
			if styleID, ok := findStyleIDByNameIndex(ctx.Document, targetNameIndex); ok {
				if styleBg, styleFg, ok := styleColors(ctx.Document, styleID); ok {
					bg, fg = styleBg, styleFg
				}
			}
		}
	}
	if el.IsHovered && el.Header.Type == krb.ElemTypeButton {
		if bg.Set {
			bg.Color = bg.Color.brighten(hoverBrightenDelta)
		}
	}

	if drawer, ok := customDrawerFor(ctx, id); ok {
		skip, err := drawer.Draw(ctx, id, scale)
		if err != nil {
			warnf(ctx.frameID, "custom drawer failed", map[string]any{"element": int(id), "error": err.Error()})
		}
		if skip {
			for _, child := range el.Children {
				drawTree(ctx, child, mx, my, cursorWinner, scale)
			}
			return
		}
	}

	if el.Header.Type != krb.ElemTypeText && bg.Set {
		ctx.Backend.DrawRect(el.RenderX, el.RenderY, el.RenderW, el.RenderH, bg.Color)
	}

	borderColor := el.BorderColor
	if el.IsHovered && el.Header.Type == krb.ElemTypeButton && borderColor.Set {
		borderColor.Color = borderColor.Color.brighten(hoverBrightenDelta)
	}
	if borderColor.Set && borderColor.Color.A > 0 {
		ctx.Backend.DrawBorder(el.RenderX, el.RenderY, el.RenderW, el.RenderH, el.BorderWidths, borderColor.Color)
	}

	cx, cy, cw, ch := contentArea(el, scale)
	if cw > 0 && ch > 0 {
		ctx.Backend.BeginScissor(cx, cy, cw, ch)
		drawContent(ctx, el, fg, cx, cy, cw, ch)
		ctx.Backend.EndScissor()
	}

	for _, child := range el.Children {
		drawTree(ctx, child, mx, my, cursorWinner, scale)
	}
}

// drawContent implements the §4.8 step 3 content-draw rule: text is
// horizontally positioned by alignment and vertically centered, clamped
// to the content origin, forced to white when fully transparent or pure
// black; images are stretched to the content rect.
func drawContent(ctx *Context, el *RenderElement, fgColor OptionalColor, cx, cy, cw, ch float32) {
	isTextBearing := (el.Header.Type == krb.ElemTypeText || el.Header.Type == krb.ElemTypeButton) && el.Text != ""
	if isTextBearing {
		fg := fgColor.Color
		if fg.A == 0 || (fg.R == 0 && fg.G == 0 && fg.B == 0) {
			fg = Color{255, 255, 255, 255}
		}
		textW, textH := float32(0), float32(0)
		if ctx.Backend != nil {
			textW, textH = ctx.Backend.MeasureText(el.Text, el.FontSize)
		}
		x := cx
		switch el.TextAlignment {
		case 1: // center
			x = cx + maxF(0, (cw-textW)/2)
		case 2: // end
			x = cx + maxF(0, cw-textW)
		}
		if x < cx {
			x = cx
		}
		y := cy + maxF(0, (ch-textH)/2)
		if ctx.Backend != nil {
			ctx.Backend.DrawText(el.Text, x, y, el.FontSize, fg)
		}
		return
	}

	if el.Header.Type == krb.ElemTypeImage && el.TextureLoaded && ctx.Backend != nil {
		ctx.Backend.DrawTexture(el.Texture, cx, cy, cw, ch)
	}
}

func customDrawerFor(ctx *Context, id ElementID) (CustomDrawer, bool) {
	inst := ctx.Instance(id)
	if inst == nil {
		return nil, false
	}
	name, ok := resolveString(ctx.Document, ctx.Document.ComponentDefinitions[inst.DefinitionIndex].NameIndex)
	if !ok {
		return nil, false
	}
	handler, ok := ctx.Components.Lookup(name)
	if !ok {
		return nil, false
	}
	drawer, ok := handler.(CustomDrawer)
	return drawer, ok
}

// dispatchClick implements §4.8 step 4: the first click event in the
// hovered element's file-order event list is resolved through the
// Handler Registry and invoked exactly once.
func dispatchClick(ctx *Context, id ElementID) {
	el := &ctx.Elements[id]

	if custom, ok := customEventHandlerFor(ctx, id); ok {
		if handled, err := custom.HandleEvent(ctx, id, krb.EventTypeClick); err != nil {
			warnf(ctx.frameID, "custom event handler failed", map[string]any{"element": int(id), "error": err.Error()})
			return
		} else if handled {
			return
		}
	}

	for _, ev := range el.EventHandlers {
		if ev.Type != krb.EventTypeClick {
			continue
		}
		fn, ok := ctx.Handlers.Lookup(ev.CallbackName)
		if !ok {
			warnf(ctx.frameID, "click handler name has no registered callback", map[string]any{"callback": ev.CallbackName})
			return
		}
		fn()
		return
	}
}

func customEventHandlerFor(ctx *Context, id ElementID) (CustomEventHandler, bool) {
	inst := ctx.Instance(id)
	if inst == nil {
		return nil, false
	}
	name, ok := resolveString(ctx.Document, ctx.Document.ComponentDefinitions[inst.DefinitionIndex].NameIndex)
	if !ok {
		return nil, false
	}
	handler, ok := ctx.Components.Lookup(name)
	if !ok {
		return nil, false
	}
	eh, ok := handler.(CustomEventHandler)
	return eh, ok
}
