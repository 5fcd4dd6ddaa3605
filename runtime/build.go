package runtime

import (
	"fmt"

	"github.com/kryon-ui/kryon-runtime/krb"
)

// Context is the "RenderContext": it exclusively owns every RenderElement
// and ComponentInstance produced from a Document, and drives the
// per-frame loop against a GraphicsBackend (§3 "Ownership", §5). The
// backing arrays grow by index (ElementID), never by pointer, so nothing
// here needs lifetime gymnastics (§9).
type Context struct {
	Document *krb.Document

	Elements  []RenderElement
	Instances []ComponentInstance
	Roots     []ElementID

	Backend    GraphicsBackend
	Handlers   HandlerRegistry
	Components CustomComponentRegistry

	Window WindowConfig

	lastWindowW, lastWindowH int
	cursorThisFrame          CursorKind
	cursorArbitrated         bool

	// frameID correlates this frame's warnf lines (§5 concurrency model,
	// runtime/log.go), regenerated once per RunFrame call.
	frameID string

	// templateSource records, for an element instantiated from a
	// component template (OriginalIndex == -1), the template-relative
	// property/custom-property slices applyStyleAndDirect and the
	// expander need. Populated by expandComponents, consulted here.
	templateSource map[ElementID]*templateOrigin
}

// templateOrigin is the per-instantiated-element slice of a component
// definition's decoded template arrays (§4.5).
type templateOrigin struct {
	props      []krb.Property
	customProp []krb.CustomProperty
	events     []krb.EventFileEntry
}

// Build runs §4.3 (render element init), §4.4 (style/direct/contextual
// resolution), §4.5 (component expansion), §4.6 (tree linking), and the
// post-expansion inheritance pass in §4.4 step 5, then runs any
// registered custom-component hooks (§4.9) once before the first layout.
func Build(doc *krb.Document, backend GraphicsBackend, handlers HandlerRegistry, components CustomComponentRegistry) (*Context, error) {
	if handlers == nil {
		handlers = NewHandlerRegistry()
	}
	if components == nil {
		components = NewCustomComponentRegistry()
	}
	ctx := &Context{
		Document:   doc,
		Backend:    backend,
		Handlers:   handlers,
		Components: components,
		Window:     DefaultWindowConfig(),
	}

	for i := range doc.Elements {
		ctx.appendElement(doc.Elements[i], doc.Properties[i], doc.CustomProperties[i], doc.StateProperties[i], doc.Events[i], i)
	}

	if (doc.Header.Flags&krb.FlagHasApp) != 0 && len(ctx.Elements) > 0 {
		ctx.resolveWindowConfig(0)
	}

	for i := range ctx.Elements {
		ctx.applyStyleAndDirect(ElementID(i))
	}

	if err := expandComponents(ctx); err != nil {
		return nil, fmt.Errorf("runtime: expanding components: %w", err)
	}

	linkTree(ctx, (doc.Header.Flags&krb.FlagHasApp) != 0)

	for _, root := range ctx.Roots {
		inheritProperties(ctx, root, inheritedDefaults(ctx))
	}

	runCustomComponentHooks(ctx)

	return ctx, nil
}

// appendElement creates a RenderElement with the §4.3 defaults and
// appends it, returning its stable ElementID. originalIndex is -1 for an
// element instantiated from a component template.
func (ctx *Context) appendElement(hdr krb.ElementHeader, props []krb.Property, cprops []krb.CustomProperty, sprops []krb.StatePropertySet, events []krb.EventFileEntry, originalIndex int) ElementID {
	el := RenderElement{
		Header:        hdr,
		OriginalIndex: originalIndex,
		Parent:        NoElement,
		IsVisible:     true,
		IsInteractive: hdr.Type.IsInteractive(),
		TextAlignment: 0,
		FontSize:      0,
		InstanceIndex: NoInstance,
	}
	el.CustomProperties = decodeCustomProperties(ctx.Document, cprops)
	el.EventHandlers = decodeEvents(ctx.Document, events)
	el.StateProps = sprops
	if hdr.Type == krb.ElemTypeButton {
		el.ActiveStyleNameIndex = styleNameIndexFromCustomProp(ctx.Document, el.CustomProperties, activeStyleKey)
		el.InactiveStyleNameIndex = styleNameIndexFromCustomProp(ctx.Document, el.CustomProperties, inactiveStyleKey)
	}

	ctx.Elements = append(ctx.Elements, el)
	return ElementID(len(ctx.Elements) - 1)
}

// activeStyleKey/inactiveStyleKey are reserved custom-property keys
// (SPEC_FULL.md §3 "active/inactive named style swap"), the same
// convention `_componentName` uses: a button names two styles by name
// rather than id, resolved through findStyleIDByNameIndex and swapped
// on IsActive at draw time (runtime/dispatch.go).
const (
	activeStyleKey   = "_activeStyle"
	inactiveStyleKey = "_inactiveStyle"
)

// styleNameIndexFromCustomProp resolves a string-valued custom property
// back to the raw string-table index findStyleIDByNameIndex expects,
// since RenderElement.ActiveStyleNameIndex/InactiveStyleNameIndex store
// the name index, not the resolved string.
func styleNameIndexFromCustomProp(doc *krb.Document, cprops map[string]CustomPropertyValue, key string) uint8 {
	v, ok := cprops[key]
	if !ok || v.ValueType != krb.ValTypeString || len(v.Raw) < 1 {
		return 0
	}
	return v.Raw[0]
}

func decodeCustomProperties(doc *krb.Document, cprops []krb.CustomProperty) map[string]CustomPropertyValue {
	if len(cprops) == 0 {
		return nil
	}
	out := make(map[string]CustomPropertyValue, len(cprops))
	for _, cp := range cprops {
		name, ok := resolveString(doc, cp.KeyIndex)
		if !ok {
			warnf("", "custom property key index out of range", map[string]any{"key_index": cp.KeyIndex})
			continue
		}
		out[name] = CustomPropertyValue{ValueType: cp.ValueType, Raw: cp.Value}
	}
	return out
}

func decodeEvents(doc *krb.Document, events []krb.EventFileEntry) []EventBinding {
	if len(events) == 0 {
		return nil
	}
	out := make([]EventBinding, 0, len(events))
	for _, ev := range events {
		name, ok := resolveString(doc, ev.CallbackID)
		if !ok {
			warnf("", "event callback string index out of range", map[string]any{"callback_id": ev.CallbackID})
			continue
		}
		out = append(out, EventBinding{Type: ev.EventType, CallbackName: name})
	}
	return out
}

// Instance returns the ComponentInstance an element's InstanceIndex
// refers to, or nil if it isn't a component-instance root.
func (ctx *Context) Instance(id ElementID) *ComponentInstance {
	idx := ctx.Elements[id].InstanceIndex
	if idx == NoInstance {
		return nil
	}
	return &ctx.Instances[idx]
}

// CustomProperty looks up a decoded custom property by name, the
// interface custom-component hooks use (§4.9 "read custom-property
// values (by key name)").
func (ctx *Context) CustomProperty(id ElementID, key string) (CustomPropertyValue, bool) {
	el := &ctx.Elements[id]
	if el.CustomProperties == nil {
		return CustomPropertyValue{}, false
	}
	v, ok := el.CustomProperties[key]
	return v, ok
}

// ResolveCustomPropertyString decodes a string-typed custom property
// value against the document's string table, exported for
// out-of-package custom-component hooks (e.g. components/tabbar).
func (ctx *Context) ResolveCustomPropertyString(v CustomPropertyValue) (string, bool) {
	return decodeCustomPropertyString(ctx.Document, v)
}

func findStyleByID(doc *krb.Document, id uint8) (*krb.Style, bool) {
	if id == 0 {
		return nil, false
	}
	for i := range doc.Styles {
		if doc.Styles[i].ID == id {
			return &doc.Styles[i], true
		}
	}
	return nil, false
}

// styleColors reads a style's bg_color/fg_color properties directly,
// for the active/inactive named-style swap (SPEC_FULL.md §3), which
// substitutes a whole style's colors at draw time rather than running it
// through the full style->direct->contextual pipeline.
func styleColors(doc *krb.Document, styleID uint8) (bg, fg OptionalColor, ok bool) {
	style, found := findStyleByID(doc, styleID)
	if !found {
		return OptionalColor{}, OptionalColor{}, false
	}
	for _, p := range style.Properties {
		switch p.ID {
		case krb.PropIDBgColor:
			if c, ok := propAsColor(p); ok {
				bg = someColor(c)
			}
		case krb.PropIDFgColor:
			if c, ok := propAsColor(p); ok {
				fg = someColor(c)
			}
		}
	}
	return bg, fg, true
}

// findStyleIDByNameIndex resolves a style by its name string index
// rather than its numeric id, used by the active/inactive named-style
// swap (SPEC_FULL.md §3).
func findStyleIDByNameIndex(doc *krb.Document, nameIdx uint8) (uint8, bool) {
	for i := range doc.Styles {
		if doc.Styles[i].NameIndex == nameIdx {
			return doc.Styles[i].ID, true
		}
	}
	return 0, false
}

// applyStyleAndDirect runs §4.4 steps 2-4 for one already-appended
// element, using its header's StyleID and its direct property slice,
// which it looks up itself: from Document for an original element, from
// ctx.templateSource for an element instantiated from a template.
func (ctx *Context) applyStyleAndDirect(id ElementID) {
	el := &ctx.Elements[id]
	var styleProps, directProps []krb.Property
	if el.OriginalIndex >= 0 {
		styleProps = stylePropertiesFor(ctx.Document, el.Header.StyleID)
		directProps = ctx.Document.Properties[el.OriginalIndex]
	} else if tmpl := ctx.templateSource[id]; tmpl != nil {
		styleProps = stylePropertiesFor(ctx.Document, el.Header.StyleID)
		directProps = tmpl.props
	}
	applyPropertyList(ctx, id, styleProps)
	applyPropertyList(ctx, id, directProps)
	applyContextualDefaults(ctx, id)
}

func stylePropertiesFor(doc *krb.Document, styleID uint8) []krb.Property {
	style, ok := findStyleByID(doc, styleID)
	if !ok {
		return nil
	}
	return style.Properties
}

// resolveWindowConfig reads the App element's style then direct
// properties into ctx.Window, in the same style-then-direct order as
// §4.4 steps 2-3 (window properties have meaning only on the App
// element; SPEC_FULL.md §4.4).
func (ctx *Context) resolveWindowConfig(appIndex int) {
	apply := func(props []krb.Property) {
		for _, p := range props {
			switch p.ID {
			case krb.PropIDWindowWidth:
				if v, ok := numericValue(p, float32(ctx.Window.Width)); ok {
					ctx.Window.Width = int(v)
				}
			case krb.PropIDWindowHeight:
				if v, ok := numericValue(p, float32(ctx.Window.Height)); ok {
					ctx.Window.Height = int(v)
				}
			case krb.PropIDWindowTitle:
				if idx, ok := propAsStringIndex(p); ok {
					if s, ok := resolveString(ctx.Document, idx); ok {
						ctx.Window.Title = s
					}
				}
			case krb.PropIDResizable:
				if b, ok := propAsByte(p); ok {
					ctx.Window.Resizable = b != 0
				}
			case krb.PropIDScaleFactor:
				if v, ok := propAsPercentage(p); ok {
					ctx.Window.ScaleFactor = v
				}
			case krb.PropIDBgColor:
				if c, ok := propAsColor(p); ok {
					ctx.Window.DefaultBg = c
				}
			case krb.PropIDFgColor:
				if c, ok := propAsColor(p); ok {
					ctx.Window.DefaultFg = c
				}
			case krb.PropIDBorderColor:
				if c, ok := propAsColor(p); ok {
					ctx.Window.DefaultBorderColor = c
				}
			case krb.PropIDFontSize:
				if v, ok := propAsShort(p); ok {
					ctx.Window.DefaultFontSize = v
				}
			}
		}
	}
	apply(stylePropertiesFor(ctx.Document, ctx.Elements[appIndex].Header.StyleID))
	apply(ctx.Document.Properties[appIndex])
}

// applyPropertyList applies one ordered property slice (a style's, or a
// direct list) onto an element, per the §4.4 property table.
func applyPropertyList(ctx *Context, id ElementID, props []krb.Property) {
	el := &ctx.Elements[id]
	for _, p := range props {
		switch p.ID {
		case krb.PropIDBgColor:
			if c, ok := propAsColor(p); ok {
				el.BgColor = someColor(c)
			}
		case krb.PropIDFgColor:
			if c, ok := propAsColor(p); ok {
				el.FgColor = someColor(c)
			}
		case krb.PropIDBorderColor:
			if c, ok := propAsColor(p); ok {
				el.BorderColor = someColor(c)
			}
		case krb.PropIDBorderWidth:
			if insets, ok := propAsEdgeInsets(p); ok {
				el.BorderWidths = insets
			} else if b, ok := propAsByte(p); ok {
				el.BorderWidths = [4]uint8{b, b, b, b}
			}
		case krb.PropIDTextContent:
			if idx, ok := propAsStringIndex(p); ok {
				if s, ok := resolveString(ctx.Document, idx); ok {
					el.Text = s
				}
			}
		case krb.PropIDTextAlignment:
			if b, ok := propAsByte(p); ok {
				el.TextAlignment = b
			}
		case krb.PropIDFontSize:
			if v, ok := propAsShort(p); ok {
				el.FontSize = v
			}
		case krb.PropIDVisibility:
			if b, ok := propAsByte(p); ok {
				el.IsVisible = b != 0
			}
		case krb.PropIDImageSource:
			if idx, ok := propAsResourceIndex(p); ok {
				el.ResourceIndex = idx
				el.HasImageSource = true
				el.TextureLoaded = false
			}
		case krb.PropIDGap:
			if v, ok := propAsShort(p); ok {
				el.Gap = v
			} else if b, ok := propAsByte(p); ok {
				el.Gap = uint16(b)
			}
		}
	}
}

// applyStateOverrides implements the live half of §4.2 step 4: the base
// style+direct result is re-applied, then every StatePropertySet whose
// flags are all present in the element's current hover/active bits is
// applied in file order, and contextual defaults are recomputed. Sets
// gated on focus or disabled never match, since currentStateBits sets
// neither bit. Called by the dispatcher (§4.8) when an interactive
// element's hover state flips.
func applyStateOverrides(ctx *Context, id ElementID) {
	el := &ctx.Elements[id]
	if len(el.StateProps) == 0 {
		return
	}
	ctx.applyStyleAndDirect(id)
	bits := el.currentStateBits()
	for _, set := range el.StateProps {
		if set.StateFlags&bits == set.StateFlags && set.StateFlags != 0 {
			applyPropertyList(ctx, id, set.Properties)
		}
	}
	applyContextualDefaults(ctx, id)
}

// currentStateBits reports the live interaction-state bitmask (§3 "State
// property set", krb.StateFlagHover/StateFlagActive).
func (el *RenderElement) currentStateBits() uint8 {
	var bits uint8
	if el.IsHovered {
		bits |= krb.StateFlagHover
	}
	if el.IsActive {
		bits |= krb.StateFlagActive
	}
	return bits
}

// applyContextualDefaults is §4.4 step 4: an element with a border color
// but no declared widths gets a uniform 1px border, and an element with a
// nonzero width but no resolved border color falls back to the window's
// default border color. Unset fg_color and font_size are left for the
// inheritance pass (runtime/inherit.go).
func applyContextualDefaults(ctx *Context, id ElementID) {
	el := &ctx.Elements[id]
	if el.BorderColor.Set && el.BorderWidths == [4]uint8{} {
		el.BorderWidths = [4]uint8{1, 1, 1, 1}
	}
	hasBorder := el.BorderWidths != [4]uint8{}
	if hasBorder && !el.BorderColor.Set {
		el.BorderColor = someColor(ctx.Window.DefaultBorderColor)
	}
}
