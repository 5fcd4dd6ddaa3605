// Package krbfixture assembles KRB documents byte-for-byte in memory.
// Document *authoring* is explicitly out of scope for the runtime core
// (spec.md §1); this package exists only to produce fixtures for the
// krb and runtime tests, mirroring krb.ParseDocument's byte layout in
// reverse rather than implementing anything resembling a compiler.
package krbfixture

import (
	"encoding/binary"

	"github.com/kryon-ui/kryon-runtime/krb"
)

// Prop is a property entry to attach to an element, style, or template.
type Prop struct {
	ID        krb.PropertyID
	ValueType krb.ValueType
	Value     []byte
}

// CustomProp is a custom (string-keyed) property entry.
type CustomProp struct {
	KeyIndex  uint8
	ValueType krb.ValueType
	Value     []byte
}

// StateProps gates a list of Props behind an interaction-state bitmask.
type StateProps struct {
	StateFlags uint8
	Props      []Prop
}

// Event is a {event type, callback name index} entry.
type Event struct {
	Type       krb.EventType
	CallbackID uint8
}

// Element describes one node of a tree to flatten into file order.
type Element struct {
	Type             krb.ElementType
	ID               uint8
	PosX, PosY       uint16
	Width, Height    uint16
	Layout           uint8
	StyleID          uint8
	Properties       []Prop
	CustomProperties []CustomProp
	StateProperties  []StateProps
	Events           []Event
	Children         []Element
}

// StyleDef is a named, id-addressed style.
type StyleDef struct {
	ID         uint8
	NameIndex  uint8
	Properties []Prop
}

// ComponentDef is a named reusable subtree template.
type ComponentDef struct {
	NameIndex uint8
	Template  Element
}

// ResourceDef is an external resource table entry (inline is unsupported
// by the core, so only external entries are modeled here).
type ResourceDef struct {
	Type            krb.ResourceType
	NameIndex       uint8
	DataStringIndex uint8
}

// Document is the in-memory description Build serializes.
type Document struct {
	HasApp         bool
	UseScripts     bool // selects the 54-byte header / 18-byte element header revision
	Strings        []string
	Roots          []Element
	Styles         []StyleDef
	ComponentDefs  []ComponentDef
	Resources      []ResourceDef
}

// AddString appends s and returns its string-table index.
func (d *Document) AddString(s string) uint8 {
	d.Strings = append(d.Strings, s)
	return uint8(len(d.Strings) - 1)
}

type flatElement struct {
	hdr   Element
	depth int
}

func flatten(roots []Element) []flatElement {
	var out []flatElement
	var walk func(e Element)
	walk = func(e Element) {
		out = append(out, flatElement{hdr: e})
		for _, c := range e.Children {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return out
}

func encodeElement(buf []byte, e Element, useScripts bool) []byte {
	hdr := make([]byte, 0, 18)
	hdr = append(hdr, byte(e.Type), e.ID)
	hdr = appendU16(hdr, e.PosX)
	hdr = appendU16(hdr, e.PosY)
	hdr = appendU16(hdr, e.Width)
	hdr = appendU16(hdr, e.Height)
	hdr = append(hdr, e.Layout, e.StyleID, uint8(len(e.Properties)), uint8(len(e.CustomProperties)))
	if useScripts {
		hdr = append(hdr, uint8(len(e.StateProperties)))
	}
	hdr = append(hdr, uint8(len(e.Events)), 0 /* animation_count */, uint8(len(e.Children)))
	buf = append(buf, hdr...)

	for _, p := range e.Properties {
		buf = append(buf, byte(p.ID), byte(p.ValueType), uint8(len(p.Value)))
		buf = append(buf, p.Value...)
	}
	for _, p := range e.CustomProperties {
		buf = append(buf, p.KeyIndex, byte(p.ValueType), uint8(len(p.Value)))
		buf = append(buf, p.Value...)
	}
	if useScripts {
		for _, sp := range e.StateProperties {
			buf = append(buf, sp.StateFlags, uint8(len(sp.Props)))
			for _, p := range sp.Props {
				buf = append(buf, byte(p.ID), byte(p.ValueType), uint8(len(p.Value)))
				buf = append(buf, p.Value...)
			}
		}
	}
	for _, ev := range e.Events {
		buf = append(buf, byte(ev.Type), ev.CallbackID)
	}
	// animation refs: none emitted
	for range e.Children {
		buf = appendU16(buf, 0) // child refs are unused by the tree linker
	}
	return buf
}

func encodeTree(roots []Element, useScripts bool) []byte {
	var buf []byte
	for _, fe := range flatten(roots) {
		buf = encodeElement(buf, fe.hdr, useScripts)
	}
	return buf
}

func appendU16(b []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendU32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

// Build serializes d into a complete KRB byte stream.
func (d *Document) Build() []byte {
	stringsSec := encodeStrings(d.Strings)
	elementsSec := encodeTree(d.Roots, d.UseScripts)
	stylesSec := encodeStyles(d.Styles)
	compDefsSec := encodeComponentDefs(d.ComponentDefs, d.UseScripts)
	resourcesSec := encodeResources(d.Resources)

	headerSize := krb.HeaderSizeNoScripts
	if d.UseScripts {
		headerSize = krb.HeaderSizeScripts
	}

	stringsOff := uint32(headerSize)
	elementsOff := stringsOff + uint32(len(stringsSec))
	stylesOff := elementsOff + uint32(len(elementsSec))
	compDefsOff := stylesOff + uint32(len(stylesSec))
	resourcesOff := compDefsOff + uint32(len(compDefsSec))
	totalSize := resourcesOff + uint32(len(resourcesSec))

	flatRoots := flatten(d.Roots)
	flags := uint16(0)
	if d.HasApp {
		flags |= krb.FlagHasApp
	}
	if len(d.Styles) > 0 {
		flags |= krb.FlagHasStyles
	}
	if len(d.ComponentDefs) > 0 {
		flags |= krb.FlagHasComponentDefs
	}
	if len(d.Resources) > 0 {
		flags |= krb.FlagHasResources
	}

	var h []byte
	h = append(h, 'K', 'R', 'B', '1')
	minor := uint8(krb.SpecVersionMinor)
	if d.UseScripts {
		minor = 5
	}
	h = append(h, byte(krb.SpecVersionMajor), minor)
	h = appendU16(h, flags)
	h = appendU16(h, uint16(len(flatRoots)))
	h = appendU16(h, uint16(len(d.Styles)))
	h = appendU16(h, uint16(len(d.ComponentDefs)))
	h = appendU16(h, 0) // animation_count

	if d.UseScripts {
		h = appendU16(h, 0) // script_count
	}
	h = appendU16(h, uint16(len(d.Strings)))
	h = appendU16(h, uint16(len(d.Resources)))

	h = appendU32(h, elementsOff)
	h = appendU32(h, stylesOff)
	h = appendU32(h, compDefsOff)
	h = appendU32(h, 0) // animation_offset
	if d.UseScripts {
		h = appendU32(h, 0) // script_offset
	}
	h = appendU32(h, stringsOff)
	h = appendU32(h, resourcesOff)
	h = appendU32(h, totalSize)

	out := make([]byte, 0, totalSize)
	out = append(out, h...)
	out = append(out, stringsSec...)
	out = append(out, elementsSec...)
	out = append(out, stylesSec...)
	out = append(out, compDefsSec...)
	out = append(out, resourcesSec...)
	return out
}

func encodeStrings(strs []string) []byte {
	buf := appendU16(nil, uint16(len(strs)))
	for _, s := range strs {
		buf = append(buf, uint8(len(s)))
		buf = append(buf, s...)
	}
	return buf
}

func encodeStyles(styles []StyleDef) []byte {
	var buf []byte
	for _, s := range styles {
		buf = append(buf, s.ID, s.NameIndex, uint8(len(s.Properties)))
		for _, p := range s.Properties {
			buf = append(buf, byte(p.ID), byte(p.ValueType), uint8(len(p.Value)))
			buf = append(buf, p.Value...)
		}
	}
	return buf
}

func encodeComponentDefs(defs []ComponentDef, useScripts bool) []byte {
	var buf []byte
	for _, d := range defs {
		buf = append(buf, d.NameIndex, 0 /* property_def_count */)
		buf = append(buf, encodeTree([]Element{d.Template}, useScripts)...)
	}
	return buf
}

func encodeResources(resources []ResourceDef) []byte {
	buf := appendU16(nil, uint16(len(resources)))
	for _, r := range resources {
		buf = append(buf, byte(r.Type), r.NameIndex, byte(krb.ResFormatExternal), r.DataStringIndex)
	}
	return buf
}

// ColorValue encodes an RGBA8 color property value.
func ColorValue(r, g, b, a uint8) []byte { return []byte{r, g, b, a} }

// ByteValue encodes a single-byte property value.
func ByteValue(v uint8) []byte { return []byte{v} }

// ShortValue encodes a little-endian 16-bit property value.
func ShortValue(v uint16) []byte { return appendU16(nil, v) }

// StringValue encodes a string-table-index property value.
func StringValue(idx uint8) []byte { return []byte{idx} }
