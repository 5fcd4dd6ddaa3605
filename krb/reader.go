package krb

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
)

// ReadDocument parses a complete KRB document from r. Per §4.2, the
// parser works over an immutable in-memory byte slice; for callers
// holding a stream, the full contents are read up front, then parsed by
// ParseDocument.
func ReadDocument(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("krb: reading document: %w", err)
	}
	return ParseDocument(data)
}

// ParseDocument parses a complete KRB document out of an in-memory byte
// slice (§4.2). On any failure it returns only the error: no partial
// Document is ever returned.
func ParseDocument(data []byte) (*Document, error) {
	if len(data) < 6 {
		return nil, newParseError(ErrTruncated, "header", 0, "document shorter than magic+version", nil)
	}

	minor := peekVersionMinor(data)
	headerSize, hasScripts := headerSizeForMinor(minor)
	if len(data) < headerSize {
		return nil, newParseError(ErrTruncated, "header", 0, "document shorter than header", nil)
	}

	doc := &Document{}
	doc.Header = decodeHeader(data[:headerSize], hasScripts)
	if doc.Header.Magic != MagicNumber {
		return nil, newParseError(ErrBadMagic, "header", 0, fmt.Sprintf("magic %q", doc.Header.Magic[:]), nil)
	}
	doc.VersionMajor = uint8(doc.Header.Version & 0x00FF)
	doc.VersionMinor = uint8(doc.Header.Version >> 8)
	if doc.VersionMajor != SpecVersionMajor {
		log.Warn().
			Uint8("file_major", doc.VersionMajor).Uint8("file_minor", doc.VersionMinor).
			Msg("krb: version mismatch, parsing continues")
	}

	if err := checkOffset(doc.Header.ElementCount, doc.Header.ElementOffset, headerSize, "elements"); err != nil {
		return nil, err
	}
	if err := checkOffset(doc.Header.StyleCount, doc.Header.StyleOffset, headerSize, "styles"); err != nil {
		return nil, err
	}
	if (doc.Header.Flags&FlagHasComponentDefs) != 0 {
		if err := checkOffset(doc.Header.ComponentDefCount, doc.Header.ComponentDefOffset, headerSize, "component_defs"); err != nil {
			return nil, err
		}
	}
	if err := checkOffset(doc.Header.AnimationCount, doc.Header.AnimationOffset, headerSize, "animations"); err != nil {
		return nil, err
	}
	if hasScripts {
		if err := checkOffset(doc.Header.ScriptCount, doc.Header.ScriptOffset, headerSize, "scripts"); err != nil {
			return nil, err
		}
	}
	if err := checkOffset(doc.Header.StringCount, doc.Header.StringOffset, headerSize, "strings"); err != nil {
		return nil, err
	}
	if err := checkOffset(doc.Header.ResourceCount, doc.Header.ResourceOffset, headerSize, "resources"); err != nil {
		return nil, err
	}

	elemHdrSize := elementHeaderSize(hasScripts)

	// Strings are read eagerly: component-definition names and other
	// sections are friendlier to validate/log with strings resolved.
	if doc.Header.StringCount > 0 {
		strs, err := parseStrings(data, doc.Header.StringOffset, doc.Header.StringCount)
		if err != nil {
			return nil, err
		}
		doc.Strings = strs
	}

	if doc.Header.ElementCount > 0 {
		cur := newCursor(data)
		if err := cur.seek(int64(doc.Header.ElementOffset)); err != nil {
			return nil, newParseError(ErrBadOffset, "elements", int64(doc.Header.ElementOffset), "seek failed", err)
		}
		n := int(doc.Header.ElementCount)
		doc.Elements = make([]ElementHeader, n)
		doc.ElementStartOffsets = make([]uint32, n)
		doc.Properties = make([][]Property, n)
		doc.CustomProperties = make([][]CustomProperty, n)
		doc.StateProperties = make([][]StatePropertySet, n)
		doc.Events = make([][]EventFileEntry, n)
		doc.AnimationRefs = make([][]AnimationRef, n)
		doc.ChildRefs = make([][]ChildRef, n)

		for i := 0; i < n; i++ {
			doc.ElementStartOffsets[i] = uint32(cur.pos)
			eh, props, cprops, sprops, events, animRefs, childRefs, err := decodeElementBlock(cur, hasScripts, elemHdrSize)
			if err != nil {
				return nil, fmt.Errorf("krb: element %d: %w", i, err)
			}
			doc.Elements[i] = eh
			doc.Properties[i] = props
			doc.CustomProperties[i] = cprops
			doc.StateProperties[i] = sprops
			doc.Events[i] = events
			doc.AnimationRefs[i] = animRefs
			doc.ChildRefs[i] = childRefs
		}

		if (doc.Header.Flags&FlagHasApp) != 0 && doc.Elements[0].Type != ElemTypeApp {
			return nil, newParseError(ErrMissingApp, "elements", int64(doc.Header.ElementOffset), "has_app set but element 0 is not App", nil)
		}
	}

	if doc.Header.StyleCount > 0 {
		styles, err := parseStyles(data, doc.Header.StyleOffset, doc.Header.StyleCount)
		if err != nil {
			return nil, err
		}
		doc.Styles = styles
	}

	if (doc.Header.Flags&FlagHasComponentDefs) != 0 && doc.Header.ComponentDefCount > 0 {
		defs, err := parseComponentDefinitions(data, doc.Header.ComponentDefOffset, doc.Header.ComponentDefCount, hasScripts, elemHdrSize)
		if err != nil {
			return nil, err
		}
		doc.ComponentDefinitions = defs
	}

	if hasScripts && doc.Header.ScriptCount > 0 {
		scripts, err := parseScripts(data, doc.Header.ScriptOffset, doc.Header.ScriptCount)
		if err != nil {
			return nil, err
		}
		doc.Scripts = scripts
	}

	if doc.Header.AnimationCount > 0 {
		// Animation records are acknowledged but never evaluated
		// (spec.md §1 non-goal); retained as a raw blob purely for
		// introspection tools, bounded by the next known section.
		end := doc.Header.TotalSize
		for _, off := range []uint32{doc.Header.StringOffset, doc.Header.ResourceOffset, doc.Header.ComponentDefOffset, doc.Header.ScriptOffset} {
			if off > doc.Header.AnimationOffset && off < end {
				end = off
			}
		}
		if end > doc.Header.AnimationOffset && int(end) <= len(data) {
			doc.Animations = append([]byte(nil), data[doc.Header.AnimationOffset:end]...)
		}
	}

	if doc.Header.ResourceCount > 0 {
		resources, err := parseResources(data, doc.Header.ResourceOffset, doc.Header.ResourceCount)
		if err != nil {
			return nil, err
		}
		doc.Resources = resources
	}

	return doc, nil
}

func checkOffset(count uint16, offset uint32, headerSize int, section string) error {
	if count > 0 && offset < uint32(headerSize) {
		return newParseError(ErrBadOffset, section, int64(offset), "offset overlaps header", nil)
	}
	return nil
}

func parseStrings(data []byte, offset uint32, count uint16) ([]string, error) {
	cur := newCursor(data)
	if err := cur.seek(int64(offset)); err != nil {
		return nil, newParseError(ErrBadOffset, "strings", int64(offset), "seek failed", err)
	}
	tableCount, err := cur.u16("strings")
	if err != nil {
		return nil, err
	}
	if tableCount != count {
		log.Warn().Uint16("header_count", count).Uint16("table_count", tableCount).Msg("krb: string table count mismatch, using header count")
	}
	out := make([]string, count)
	for i := uint16(0); i < count; i++ {
		length, err := cur.u8("strings")
		if err != nil {
			return nil, err
		}
		if length == 0 {
			continue
		}
		b, err := cur.take(int(length), "strings")
		if err != nil {
			return nil, err
		}
		out[i] = string(b)
	}
	return out, nil
}

func decodeElementBlock(cur *cursor, hasScripts bool, headerSize int) (ElementHeader, []Property, []CustomProperty, []StatePropertySet, []EventFileEntry, []AnimationRef, []ChildRef, error) {
	hb, err := cur.take(headerSize, "element_header")
	if err != nil {
		return ElementHeader{}, nil, nil, nil, nil, nil, nil, err
	}
	eh := ElementHeader{
		Type:          ElementType(hb[0]),
		ID:            hb[1],
		PosX:          ReadU16LE(hb[2:4]),
		PosY:          ReadU16LE(hb[4:6]),
		Width:         ReadU16LE(hb[6:8]),
		Height:        ReadU16LE(hb[8:10]),
		Layout:        hb[10],
		StyleID:       hb[11],
		PropertyCount: hb[12],
		CustomPropCount: hb[13],
	}
	if hasScripts {
		eh.StatePropCount = hb[14]
		eh.EventCount = hb[15]
		eh.AnimationCount = hb[16]
		eh.ChildCount = hb[17]
	} else {
		eh.EventCount = hb[14]
		eh.AnimationCount = hb[15]
		eh.ChildCount = hb[16]
	}

	props, err := decodeProperties(cur, eh.PropertyCount, "element_property")
	if err != nil {
		return eh, nil, nil, nil, nil, nil, nil, err
	}
	cprops, err := decodeCustomProperties(cur, eh.CustomPropCount)
	if err != nil {
		return eh, props, nil, nil, nil, nil, nil, err
	}
	var sprops []StatePropertySet
	for i := uint8(0); i < eh.StatePropCount; i++ {
		flags, err := cur.u8("state_property_set")
		if err != nil {
			return eh, props, cprops, sprops, nil, nil, nil, err
		}
		cnt, err := cur.u8("state_property_set")
		if err != nil {
			return eh, props, cprops, sprops, nil, nil, nil, err
		}
		setProps, err := decodeProperties(cur, cnt, "state_property")
		if err != nil {
			return eh, props, cprops, sprops, nil, nil, nil, err
		}
		sprops = append(sprops, StatePropertySet{StateFlags: flags, Properties: setProps})
	}

	var events []EventFileEntry
	if eh.EventCount > 0 {
		b, err := cur.take(int(eh.EventCount)*EventFileEntrySize, "events")
		if err != nil {
			return eh, props, cprops, sprops, nil, nil, nil, err
		}
		events = make([]EventFileEntry, eh.EventCount)
		for i := range events {
			events[i] = EventFileEntry{EventType: EventType(b[i*2]), CallbackID: b[i*2+1]}
		}
	}

	var animRefs []AnimationRef
	if eh.AnimationCount > 0 {
		b, err := cur.take(int(eh.AnimationCount)*AnimationRefSize, "animation_refs")
		if err != nil {
			return eh, props, cprops, sprops, events, nil, nil, err
		}
		animRefs = make([]AnimationRef, eh.AnimationCount)
		for i := range animRefs {
			animRefs[i] = AnimationRef{AnimationIndex: b[i*2], Trigger: b[i*2+1]}
		}
	}

	var childRefs []ChildRef
	if eh.ChildCount > 0 {
		b, err := cur.take(int(eh.ChildCount)*ChildRefSize, "child_refs")
		if err != nil {
			return eh, props, cprops, sprops, events, animRefs, nil, err
		}
		childRefs = make([]ChildRef, eh.ChildCount)
		for i := range childRefs {
			childRefs[i] = ChildRef{ChildOffset: ReadU16LE(b[i*2 : i*2+2])}
		}
	}

	return eh, props, cprops, sprops, events, animRefs, childRefs, nil
}

func decodeProperties(cur *cursor, count uint8, section string) ([]Property, error) {
	if count == 0 {
		return nil, nil
	}
	out := make([]Property, count)
	for i := uint8(0); i < count; i++ {
		hb, err := cur.take(3, section)
		if err != nil {
			return nil, err
		}
		p := &out[i]
		p.ID = PropertyID(hb[0])
		p.ValueType = ValueType(hb[1])
		p.Size = hb[2]
		if p.Size > 0 {
			v, err := cur.take(int(p.Size), section)
			if err != nil {
				return nil, err
			}
			p.Value = append([]byte(nil), v...)
		}
	}
	return out, nil
}

func decodeCustomProperties(cur *cursor, count uint8) ([]CustomProperty, error) {
	if count == 0 {
		return nil, nil
	}
	out := make([]CustomProperty, count)
	for i := uint8(0); i < count; i++ {
		hb, err := cur.take(3, "custom_property")
		if err != nil {
			return nil, err
		}
		p := &out[i]
		p.KeyIndex = hb[0]
		p.ValueType = ValueType(hb[1])
		p.Size = hb[2]
		if p.Size > 0 {
			v, err := cur.take(int(p.Size), "custom_property")
			if err != nil {
				return nil, err
			}
			p.Value = append([]byte(nil), v...)
		}
	}
	return out, nil
}

func parseStyles(data []byte, offset uint32, count uint16) ([]Style, error) {
	cur := newCursor(data)
	if err := cur.seek(int64(offset)); err != nil {
		return nil, newParseError(ErrBadOffset, "styles", int64(offset), "seek failed", err)
	}
	out := make([]Style, count)
	for i := uint16(0); i < count; i++ {
		hb, err := cur.take(3, "style")
		if err != nil {
			return nil, err
		}
		s := &out[i]
		s.ID = hb[0]
		s.NameIndex = hb[1]
		s.PropertyCount = hb[2]
		props, err := decodeProperties(cur, s.PropertyCount, "style_property")
		if err != nil {
			return nil, err
		}
		s.Properties = props
	}
	return out, nil
}

// parseComponentDefinitions reads each component definition's header and
// parameter defs, then recursively parses its root-template element
// subtree exactly as a normal element block (§4.2 step 6, §9 open
// question: the current source's skip-the-template-body behavior is not
// reproduced here).
func parseComponentDefinitions(data []byte, offset uint32, count uint16, hasScripts bool, elemHdrSize int) ([]KrbComponentDefinition, error) {
	cur := newCursor(data)
	if err := cur.seek(int64(offset)); err != nil {
		return nil, newParseError(ErrBadOffset, "component_defs", int64(offset), "seek failed", err)
	}
	out := make([]KrbComponentDefinition, count)
	for i := uint16(0); i < count; i++ {
		hb, err := cur.take(2, "component_def")
		if err != nil {
			return nil, err
		}
		def := &out[i]
		def.NameIndex = hb[0]
		def.PropertyDefCount = hb[1]
		if def.PropertyDefCount > 0 {
			def.PropertyDefinitions = make([]KrbPropertyDefinition, def.PropertyDefCount)
			for j := uint8(0); j < def.PropertyDefCount; j++ {
				pb, err := cur.take(3, "component_def_param")
				if err != nil {
					return nil, err
				}
				pd := &def.PropertyDefinitions[j]
				pd.NameIndex = pb[0]
				pd.ValueTypeHint = ValueType(pb[1])
				pd.DefaultValueSize = pb[2]
				if pd.DefaultValueSize > 0 {
					v, err := cur.take(int(pd.DefaultValueSize), "component_def_param")
					if err != nil {
						return nil, err
					}
					pd.DefaultValueData = append([]byte(nil), v...)
				}
			}
		}

		elements, props, cprops, sprops, events, childRefs, err := decodeElementSubtree(cur, hasScripts, elemHdrSize)
		if err != nil {
			return nil, fmt.Errorf("krb: component_def %d template: %w", i, err)
		}
		def.TemplateElements = elements
		def.TemplateProperties = props
		def.TemplateCustomProperties = cprops
		def.TemplateStateProperties = sprops
		def.TemplateEvents = events
		def.TemplateChildRefs = childRefs
	}
	return out, nil
}

// decodeElementSubtree decodes a whole nested element block (a root plus
// every descendant declared via ChildCount) by replaying the same
// stack-based accounting the tree linker uses (§4.6), stopping the
// instant the root's full declared subtree has been consumed. This lets a
// component template be parsed with exactly the main tree's decode path,
// rather than estimating/skipping its byte length.
func decodeElementSubtree(cur *cursor, hasScripts bool, elemHdrSize int) ([]ElementHeader, [][]Property, [][]CustomProperty, [][]StatePropertySet, [][]EventFileEntry, [][]ChildRef, error) {
	type frame struct{ declared, received int }
	var stack []frame

	var elements []ElementHeader
	var props [][]Property
	var cprops [][]CustomProperty
	var sprops [][]StatePropertySet
	var events [][]EventFileEntry
	var childRefs [][]ChildRef

	for {
		eh, p, cp, sp, ev, _, cr, err := decodeElementBlock(cur, hasScripts, elemHdrSize)
		if err != nil {
			return nil, nil, nil, nil, nil, nil, err
		}
		elements = append(elements, eh)
		props = append(props, p)
		cprops = append(cprops, cp)
		sprops = append(sprops, sp)
		events = append(events, ev)
		childRefs = append(childRefs, cr)

		if len(stack) > 0 {
			stack[len(stack)-1].received++
		}
		if eh.ChildCount > 0 {
			stack = append(stack, frame{declared: int(eh.ChildCount)})
		}
		for len(stack) > 0 && stack[len(stack)-1].received >= stack[len(stack)-1].declared {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			break
		}
	}
	return elements, props, cprops, sprops, events, childRefs, nil
}

func parseScripts(data []byte, offset uint32, count uint16) ([]Script, error) {
	cur := newCursor(data)
	if err := cur.seek(int64(offset)); err != nil {
		return nil, newParseError(ErrBadOffset, "scripts", int64(offset), "seek failed", err)
	}
	tableCount, err := cur.u16("scripts")
	if err != nil {
		return nil, err
	}
	if tableCount != count {
		log.Warn().Uint16("header_count", count).Uint16("table_count", tableCount).Msg("krb: script table count mismatch, using header count")
	}
	out := make([]Script, count)
	for i := uint16(0); i < count; i++ {
		hb, err := cur.take(4, "script")
		if err != nil {
			return nil, err
		}
		s := &out[i]
		s.Language = ScriptLanguage(hb[0])
		s.NameIndex = hb[1]
		s.Storage = ScriptStorage(hb[2])
		entryPointCount := hb[3]
		dataSizeB, err := cur.take(2, "script")
		if err != nil {
			return nil, err
		}
		dataSize := ReadU16LE(dataSizeB)

		if entryPointCount > 0 {
			eb, err := cur.take(int(entryPointCount), "script_entry_points")
			if err != nil {
				return nil, err
			}
			s.EntryPoints = append([]uint8(nil), eb...)
		}

		switch s.Storage {
		case ScriptStorageInline:
			if dataSize > 0 {
				b, err := cur.take(int(dataSize), "script_inline_data")
				if err != nil {
					return nil, err
				}
				s.InlineData = append([]byte(nil), b...)
			}
		case ScriptStorageExternal:
			if dataSize > 255 {
				log.Warn().Uint16("data_size", dataSize).Msg("krb: script external resource index truncated to byte")
			}
			s.ResourceIdx = uint8(dataSize)
		default:
			return nil, newParseError(ErrUnsupportedFormat, "scripts", int64(cur.pos), fmt.Sprintf("unknown storage format 0x%02X", s.Storage), nil)
		}
	}
	return out, nil
}

func parseResources(data []byte, offset uint32, count uint16) ([]Resource, error) {
	cur := newCursor(data)
	if err := cur.seek(int64(offset)); err != nil {
		return nil, newParseError(ErrBadOffset, "resources", int64(offset), "seek failed", err)
	}
	tableCount, err := cur.u16("resources")
	if err != nil {
		return nil, err
	}
	if tableCount != count {
		log.Warn().Uint16("header_count", count).Uint16("table_count", tableCount).Msg("krb: resource table count mismatch, using header count")
	}
	out := make([]Resource, count)
	for i := uint16(0); i < count; i++ {
		hb, err := cur.take(3, "resource")
		if err != nil {
			return nil, err
		}
		res := &out[i]
		res.Type = ResourceType(hb[0])
		res.NameIndex = hb[1]
		res.Format = ResourceFormat(hb[2])
		switch res.Format {
		case ResFormatExternal:
			b, err := cur.u8("resource")
			if err != nil {
				return nil, err
			}
			res.DataStringIndex = b
		case ResFormatInline:
			return nil, newParseError(ErrUnsupportedFormat, "resources", int64(cur.pos), "inline resource format is unsupported by the core", nil)
		default:
			return nil, newParseError(ErrUnsupportedFormat, "resources", int64(cur.pos), fmt.Sprintf("unknown resource format 0x%02X", res.Format), nil)
		}
	}
	return out, nil
}
