package runtime

// linkTree implements §4.6: it walks the original document element
// array in file order, rebuilding parent/child links purely from each
// element's declared child count — the ChildRef offset table is parsed
// for introspection (krb.Document.ChildRefs) but deliberately never
// consulted here. Elements instantiated from a component template
// already have their parent/child links set by instantiateComponent and
// are skipped.
func linkTree(ctx *Context, hasApp bool) {
	type frame struct {
		id                 ElementID
		declared, received int
	}
	var stack []frame

	for i := range ctx.Elements {
		el := &ctx.Elements[i]
		if el.OriginalIndex < 0 {
			continue
		}
		id := ElementID(i)

		for len(stack) > 0 && stack[len(stack)-1].received >= stack[len(stack)-1].declared {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			parent := &stack[len(stack)-1]
			el.Parent = parent.id
			ctx.Elements[parent.id].Children = append(ctx.Elements[parent.id].Children, id)
			parent.received++
		}
		if int(el.Header.ChildCount) > 0 {
			stack = append(stack, frame{id: id, declared: int(el.Header.ChildCount)})
		}
	}

	// Component-instance substitution: replace the placeholder in its
	// parent's child list with the instance root, and reparent the root.
	for i := range ctx.Instances {
		inst := &ctx.Instances[i]
		placeholder := &ctx.Elements[inst.Placeholder]
		root := &ctx.Elements[inst.Root]
		root.Parent = placeholder.Parent
		if placeholder.Parent.Valid() {
			siblings := ctx.Elements[placeholder.Parent].Children
			for j, sib := range siblings {
				if sib == inst.Placeholder {
					siblings[j] = inst.Root
					break
				}
			}
		}
	}

	// Roots (§4.6 "Roots"): any non-placeholder element with no parent.
	// An instantiated template element is only rootless here if it's a
	// component-instance root whose placeholder itself had no parent
	// (the substitution above reparents it to the placeholder's former
	// parent, or leaves it NoElement) — not checked by OriginalIndex,
	// since that would also wrongly exclude that case.
	ctx.Roots = ctx.Roots[:0]
	for i := range ctx.Elements {
		el := &ctx.Elements[i]
		if el.IsPlaceholder {
			continue
		}
		if el.Parent.Valid() {
			continue
		}
		ctx.Roots = append(ctx.Roots, ElementID(i))
	}

	if hasApp && len(ctx.Elements) > 0 && ctx.Elements[0].OriginalIndex == 0 && !ctx.Elements[0].IsPlaceholder {
		ctx.Roots = ctx.Roots[:0]
		ctx.Roots = append(ctx.Roots, 0)
	}
}
