package runtime

// Color is an RGBA8 color value, backend-agnostic (the concrete Graphics
// Backend converts to/from its own native color type).
type Color struct {
	R, G, B, A uint8
}

// OptionalColor carries a Color through the resolution pipeline without
// the teacher's alpha==0-means-unset sentinel (§9 design note: "prefer
// an explicit Option<Color> ... This avoids the current source's subtle
// bug where a legitimately transparent color is indistinguishable from
// 'unset'"). Set is false until something assigns the field; Get is only
// meaningful when Set is true.
type OptionalColor struct {
	Color Color
	Set   bool
}

func someColor(c Color) OptionalColor { return OptionalColor{Color: c, Set: true} }

// brighten adds delta to each RGB channel, saturating at 255. Used by the
// hover-brighten pass (§4.8, §9: "plainly a typo for +55 ... implement as
// uniform +55 per channel with saturation").
func (c Color) brighten(delta int) Color {
	add := func(v uint8) uint8 {
		n := int(v) + delta
		if n > 255 {
			return 255
		}
		if n < 0 {
			return 0
		}
		return uint8(n)
	}
	return Color{R: add(c.R), G: add(c.G), B: add(c.B), A: c.A}
}

func decodeColor(b []byte) Color {
	if len(b) < 4 {
		return Color{}
	}
	return Color{R: b[0], G: b[1], B: b[2], A: b[3]}
}
