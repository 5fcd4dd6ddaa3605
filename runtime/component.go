package runtime

import "github.com/kryon-ui/kryon-runtime/krb"

// componentNameKey is the one reserved custom-property key that marks a
// component placeholder and names its definition (§4.2 "Custom
// property", §4.5).
const componentNameKey = "_componentName"

// expandComponents implements §4.5: every element whose custom-property
// table carries `_componentName` is matched against the document's
// component definitions by name and expanded into a fresh subtree rooted
// at a new render element built from the definition's template.
func expandComponents(ctx *Context) error {
	doc := ctx.Document

	// len(ctx.Elements) is re-evaluated every iteration, so a template
	// element that is itself a placeholder (nested component expansion,
	// SPEC_FULL.md §3) gets visited once appendElement grows the slice.
	for i := 0; i < len(ctx.Elements); i++ {
		id := ElementID(i)
		el := &ctx.Elements[id]
		nameProp, ok := el.CustomProperties[componentNameKey]
		if !ok {
			continue
		}
		name, ok := decodeCustomPropertyString(doc, nameProp)
		if !ok {
			warnf("", "component placeholder _componentName is not a valid string", map[string]any{"element": i})
			continue
		}
		defIdx, ok := findComponentDefinitionByName(doc, name)
		if !ok {
			warnf("", "component placeholder names an unknown component definition", map[string]any{"name": name})
			continue
		}
		root, err := instantiateComponent(ctx, defIdx, id)
		if err != nil {
			return err
		}
		ctx.Elements[id].IsPlaceholder = true
		ctx.Elements[root].IsComponentInstance = true

		ctx.Instances = append(ctx.Instances, ComponentInstance{DefinitionIndex: defIdx, Placeholder: id, Root: root})
		ctx.Elements[root].InstanceIndex = len(ctx.Instances) - 1
	}
	return nil
}

// instantiateComponent performs §4.5 steps 1-3 for one placeholder,
// recursively expanding the whole template subtree (root + declared
// descendants) so nested components get a home too, grounded on the
// same stack-based child accounting used by krb.ParseDocument's
// component-template decode and by linkTree below.
func instantiateComponent(ctx *Context, defIdx int, placeholder ElementID) (ElementID, error) {
	def := &ctx.Document.ComponentDefinitions[defIdx]
	placeholderEl := &ctx.Elements[placeholder]

	type frame struct {
		id                 ElementID
		declared, received int
	}
	var stack []frame
	var rootID ElementID = NoElement

	for i := range def.TemplateElements {
		hdr := def.TemplateElements[i]
		var stateProps []krb.StatePropertySet
		if i < len(def.TemplateStateProperties) {
			stateProps = def.TemplateStateProperties[i]
		}
		id := ctx.appendElement(hdr, nil, nil, stateProps, nil, -1)
		if ctx.templateSource == nil {
			ctx.templateSource = make(map[ElementID]*templateOrigin)
		}
		ctx.templateSource[id] = &templateOrigin{
			props:      def.TemplateProperties[i],
			customProp: def.TemplateCustomProperties[i],
			events:     def.TemplateEvents[i],
		}
		ctx.Elements[id].CustomProperties = decodeCustomProperties(ctx.Document, def.TemplateCustomProperties[i])
		ctx.Elements[id].EventHandlers = decodeEvents(ctx.Document, def.TemplateEvents[i])

		if len(stack) > 0 {
			parent := &stack[len(stack)-1]
			ctx.Elements[id].Parent = parent.id
			ctx.Elements[parent.id].Children = append(ctx.Elements[parent.id].Children, id)
			parent.received++
		} else {
			rootID = id
		}
		if int(hdr.ChildCount) > 0 {
			stack = append(stack, frame{id: id, declared: int(hdr.ChildCount)})
		}
		for len(stack) > 0 && stack[len(stack)-1].received >= stack[len(stack)-1].declared {
			stack = stack[:len(stack)-1]
		}
	}

	if !rootID.Valid() {
		return NoElement, nil
	}

	// Step 2: per-instance overrides, non-zero wins.
	root := &ctx.Elements[rootID]
	if placeholderEl.Header.ID != 0 {
		root.Header.ID = placeholderEl.Header.ID
	}
	if placeholderEl.Header.PosX != 0 {
		root.Header.PosX = placeholderEl.Header.PosX
	}
	if placeholderEl.Header.PosY != 0 {
		root.Header.PosY = placeholderEl.Header.PosY
	}
	if placeholderEl.Header.Width != 0 {
		root.Header.Width = placeholderEl.Header.Width
	}
	if placeholderEl.Header.Height != 0 {
		root.Header.Height = placeholderEl.Header.Height
	}
	if placeholderEl.Header.Layout != 0 {
		root.Header.Layout = placeholderEl.Header.Layout
	}
	if placeholderEl.Header.StyleID != 0 {
		root.Header.StyleID = placeholderEl.Header.StyleID
	}

	// Step 3: apply template style->direct->contextual to every element
	// just instantiated. appendElement assigns ids sequentially, so the
	// whole template subtree occupies the contiguous range starting at
	// rootID.
	for offset := 0; offset < len(def.TemplateElements); offset++ {
		ctx.applyStyleAndDirect(ElementID(int(rootID) + offset))
	}

	return rootID, nil
}

func decodeCustomPropertyString(doc *krb.Document, v CustomPropertyValue) (string, bool) {
	if v.ValueType != krb.ValTypeString || len(v.Raw) < 1 {
		return "", false
	}
	return resolveString(doc, v.Raw[0])
}

func findComponentDefinitionByName(doc *krb.Document, name string) (int, bool) {
	for i := range doc.ComponentDefinitions {
		defName, ok := resolveString(doc, doc.ComponentDefinitions[i].NameIndex)
		if ok && defName == name {
			return i, true
		}
	}
	return 0, false
}

// runCustomComponentHooks implements §4.9: after expansion, before the
// first layout, every instance whose definition name has a registered
// handler gets a chance to pre-set its root's render rect and reshuffle
// siblings.
func runCustomComponentHooks(ctx *Context) {
	for i := range ctx.Instances {
		inst := &ctx.Instances[i]
		name, ok := resolveString(ctx.Document, ctx.Document.ComponentDefinitions[inst.DefinitionIndex].NameIndex)
		if !ok {
			continue
		}
		handler, ok := ctx.Components.Lookup(name)
		if !ok {
			continue
		}
		if err := handler.HandleLayoutAdjustment(ctx, inst); err != nil {
			warnf("", "custom component hook failed", map[string]any{"component": name, "error": err.Error()})
		}
	}
}
