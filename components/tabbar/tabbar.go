// Package tabbar is the example custom-component hook named by §4.9: a
// TabBar component instance repositions itself to an edge of its parent
// and shrinks the first non-self sibling to make room, grounded on
// teacher render/raylib/custom_tabbar.go's TabBarHandler.
package tabbar

import (
	"fmt"
	"strings"

	"github.com/kryon-ui/kryon-runtime/krb"
	"github.com/kryon-ui/kryon-runtime/runtime"
)

// stripSize is the fixed strip thickness the TabBar occupies along the
// edge it's docked to (§4.9: "a 50-scaled-unit strip").
const stripSize = 50

// Handler implements runtime.CustomComponentHandler for the TabBar
// component definition.
type Handler struct{}

func (Handler) HandleLayoutAdjustment(ctx *runtime.Context, instance *runtime.ComponentInstance) error {
	root := instance.Root
	el := &ctx.Elements[root]
	if !el.Parent.Valid() {
		return fmt.Errorf("tabbar: component root %d has no parent", root)
	}
	parent := &ctx.Elements[el.Parent]
	scale := ctx.Window.ScaleFactor

	position := customPropString(ctx, instance.Placeholder, "position", "bottom")
	orientation := customPropString(ctx, instance.Placeholder, "orientation", "row")

	parentX, parentY, parentW, parentH := parent.RenderX, parent.RenderY, parent.RenderW, parent.RenderH
	stretchWidth := orientation == "row"
	stretchHeight := orientation == "column"
	strip := float32(stripSize) * scale

	newX, newY, newW, newH := parentX, parentY, strip, strip
	switch strings.ToLower(position) {
	case "top":
		newX, newY = parentX, parentY
		if stretchWidth {
			newW = parentW
		}
	case "bottom":
		newX, newY = parentX, parentY+parentH-strip
		if stretchWidth {
			newW = parentW
		}
	case "left":
		newX, newY = parentX, parentY
		if stretchHeight {
			newH = parentH
		}
	case "right":
		newX, newY = parentX+parentW-strip, parentY
		if stretchHeight {
			newH = parentH
		}
	default:
		position = "bottom"
		newX, newY = parentX, parentY+parentH-strip
		if stretchWidth {
			newW = parentW
		}
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	el.RenderX, el.RenderY, el.RenderW, el.RenderH = newX, newY, newW, newH
	el.PreLaidOut = true

	adjustMainContentSibling(ctx, el.Parent, root, position, newX, newY, newW, newH)

	layoutOwnChildren(ctx, root, scale)
	return nil
}

// adjustMainContentSibling shrinks the first non-self sibling to make
// room for the docked TabBar, per §4.9's "shrink the first non-self
// sibling to fill the remaining space".
func adjustMainContentSibling(ctx *runtime.Context, parentID, selfID runtime.ElementID, position string, barX, barY, barW, barH float32) {
	parent := &ctx.Elements[parentID]
	var siblingID runtime.ElementID = runtime.NoElement
	for _, child := range parent.Children {
		if child != selfID {
			siblingID = child
			break
		}
	}
	if !siblingID.Valid() {
		return
	}
	sibling := &ctx.Elements[siblingID]

	switch position {
	case "bottom":
		newH := barY - sibling.RenderY
		if newH < 1 {
			newH = 1
		}
		sibling.RenderH = newH
	case "top":
		originalBottom := sibling.RenderY + sibling.RenderH
		sibling.RenderY = barY + barH
		newH := originalBottom - sibling.RenderY
		if newH < 1 {
			newH = 1
		}
		sibling.RenderH = newH
	case "right":
		newW := barX - sibling.RenderX
		if newW < 1 {
			newW = 1
		}
		sibling.RenderW = newW
	case "left":
		originalRight := sibling.RenderX + sibling.RenderW
		sibling.RenderX = barX + barW
		newW := originalRight - sibling.RenderX
		if newW < 1 {
			newW = 1
		}
		sibling.RenderW = newW
	}
	sibling.PreLaidOut = true
}

// layoutOwnChildren lays out the TabBar's own children inside the pre-set
// root rect with runtime's ordinary child-layout pass. Placement follows
// the root's layout byte (alignment, grow, gap); the children are not
// spread evenly unless that layout makes them so.
func layoutOwnChildren(ctx *runtime.Context, root runtime.ElementID, scale float32) {
	runtime.Layout(ctx, root, 0, 0, 0, 0, scale)
}

func customPropString(ctx *runtime.Context, id runtime.ElementID, key, fallback string) string {
	v, ok := ctx.CustomProperty(id, key)
	if !ok || v.ValueType != krb.ValTypeString || len(v.Raw) < 1 {
		return fallback
	}
	s, ok := ctx.ResolveCustomPropertyString(v)
	if !ok {
		return fallback
	}
	return s
}
