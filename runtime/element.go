package runtime

import "github.com/kryon-ui/kryon-runtime/krb"

// ElementID is a stable index into Context.Elements. The tree is an
// arena of indices rather than raw pointers (§9: "Implement as arena +
// index ... This eliminates all raw pointers and lifetime gymnastics"),
// so parent/child links survive the backing slice growing.
type ElementID int32

// NoElement is the sentinel for "no parent" (not the zero value: 0 is a
// valid ElementID).
const NoElement ElementID = -1

// NoInstance is the sentinel for RenderElement.InstanceIndex when the
// element is not a component-instance root.
const NoInstance = -1

func (id ElementID) Valid() bool { return id >= 0 }

// EventBinding is one resolved {event type, callback name} pair read off
// an element's file-order event list.
type EventBinding struct {
	Type         krb.EventType
	CallbackName string
}

// CustomPropertyValue is a decoded custom property, keyed by its
// resolved string-table name rather than the raw key index, since
// custom-component hooks read properties "by key name" (§4.9).
type CustomPropertyValue struct {
	ValueType krb.ValueType
	Raw       []byte
}

// RenderElement is the mutable runtime state for one tree node (§3
// "Render element (mutable runtime state per visible node)"). The
// Context that builds a tree exclusively owns every RenderElement;
// Parent/Children are non-owning references by ElementID.
type RenderElement struct {
	Header        krb.ElementHeader
	OriginalIndex int // -1 for an element instantiated from a component template

	Parent   ElementID
	Children []ElementID

	BgColor     OptionalColor
	FgColor     OptionalColor
	BorderColor OptionalColor

	BorderWidths  [4]uint8 // top, right, bottom, left
	TextAlignment uint8    // 0 start, 1 center, 2 end, 3 space-between
	FontSize      uint16   // 0 means "inherit"
	Text          string
	Gap           uint16 // SPEC_FULL.md §3 supplemented feature: spacing between flow children

	// StateProps are the raw, as-parsed state property sets gating on
	// hover/active/focus/disabled (§3 "State property set", §4.2 step 4).
	// Re-applied over the base style+direct result whenever the dispatcher
	// sees IsHovered change (SPEC_FULL.md §4.2); a change of IsActive alone
	// does not trigger re-application.
	StateProps []krb.StatePropertySet

	// PreLaidOut is set by a custom-component hook (§4.9) that has already
	// computed RenderX/Y/W/H for this element; the layout engine leaves
	// those values untouched instead of recomputing them (§4.7 step 2).
	PreLaidOut bool

	ResourceIndex  uint8
	HasImageSource bool
	Texture        BackendTexture
	TextureLoaded  bool
	TextureW       int
	TextureH       int

	IsVisible           bool
	IsInteractive       bool
	IsPlaceholder       bool
	IsComponentInstance bool
	IsHovered           bool
	IsActive            bool // teacher enrichment: pressed/unpressed named-style swap, see SPEC_FULL.md §3

	ActiveStyleNameIndex   uint8
	InactiveStyleNameIndex uint8

	CustomProperties map[string]CustomPropertyValue
	EventHandlers    []EventBinding

	// InstanceIndex is the index into Context.Instances for a component-
	// instance root, or NoInstance otherwise. Stored as an index rather
	// than a pointer into the slice, since Context.Instances can grow
	// (nested component expansion) after earlier instances are recorded,
	// and a pointer into a slice does not survive reallocation.
	InstanceIndex int

	// Layout output (§4.7), recomputed every frame.
	RenderX, RenderY, RenderW, RenderH float32
	IntrinsicW, IntrinsicH             float32
}

// ComponentInstance links a placeholder element to the subtree produced
// by expanding it (§3 "ComponentInstance"). Lifetime equals the owning
// Context; Context.Instances is the arena (the spec's "linked-list link"
// is just list membership here, which a slice already gives for free).
type ComponentInstance struct {
	DefinitionIndex int
	Placeholder     ElementID
	Root            ElementID
}
