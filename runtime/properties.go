package runtime

import "github.com/kryon-ui/kryon-runtime/krb"

// resolveString returns doc.Strings[idx], or ("", false) for an
// out-of-range index — a §7 Warning case, never fatal.
func resolveString(doc *krb.Document, idx uint8) (string, bool) {
	if int(idx) >= len(doc.Strings) {
		return "", false
	}
	return doc.Strings[idx], true
}

func propAsColor(p krb.Property) (Color, bool) {
	if p.ValueType != krb.ValTypeColor || len(p.Value) < 4 {
		return Color{}, false
	}
	return decodeColor(p.Value), true
}

func propAsByte(p krb.Property) (uint8, bool) {
	if len(p.Value) < 1 {
		return 0, false
	}
	return p.Value[0], true
}

func propAsShort(p krb.Property) (uint16, bool) {
	if len(p.Value) < 2 {
		return 0, false
	}
	return krb.ReadU16LE(p.Value), true
}

func propAsStringIndex(p krb.Property) (uint8, bool) {
	if p.ValueType != krb.ValTypeString || len(p.Value) < 1 {
		return 0, false
	}
	return p.Value[0], true
}

func propAsResourceIndex(p krb.Property) (uint8, bool) {
	if p.ValueType != krb.ValTypeResource || len(p.Value) < 1 {
		return 0, false
	}
	return p.Value[0], true
}

// propAsPercentage decodes a §6.1 fixed-point /256 percentage value.
func propAsPercentage(p krb.Property) (float32, bool) {
	if len(p.Value) < 2 {
		return 0, false
	}
	return float32(krb.ReadU16LE(p.Value)) / 256.0, true
}

// propAsEdgeInsets decodes the 4-byte {top, right, bottom, left} layout.
func propAsEdgeInsets(p krb.Property) ([4]uint8, bool) {
	if len(p.Value) < 4 {
		return [4]uint8{}, false
	}
	return [4]uint8{p.Value[0], p.Value[1], p.Value[2], p.Value[3]}, true
}

// numericValue reads a property generically as a pixel dimension: a
// percentage is resolved against relativeTo, anything else falls back to
// a byte/short absolute value. The result is not multiplied by
// scale_factor. Used by min/max-width/height (SPEC_FULL §3 supplemented
// feature) and by App window-dimension properties.
func numericValue(p krb.Property, relativeTo float32) (float32, bool) {
	switch p.ValueType {
	case krb.ValTypePercentage:
		pct, ok := propAsPercentage(p)
		if !ok {
			return 0, false
		}
		return pct * relativeTo, true
	case krb.ValTypeShort:
		v, ok := propAsShort(p)
		if !ok {
			return 0, false
		}
		return float32(v), true
	case krb.ValTypeByte:
		v, ok := propAsByte(p)
		if !ok {
			return 0, false
		}
		return float32(v), true
	default:
		return 0, false
	}
}
