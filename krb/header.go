package krb

// Two document header layouts exist (§6.1, §9): a 48-byte layout (no
// scripts section) and a 54-byte layout that inserts ScriptCount/
// ScriptOffset. Layout is keyed off the minor version: 0.4 is the
// 48-byte revision this reader was originally written against; 0.5+
// is the 54-byte revision that adds scripts. Both share every other
// field and decode through decodeHeader.
const scriptsMinorVersion = 5

// peekVersionMinor extracts the minor version byte from the first 6
// header bytes without committing to a header size, so the caller can
// pick the right buffer length before reading the rest.
func peekVersionMinor(b []byte) uint8 {
	return b[5]
}

func headerSizeForMinor(minor uint8) (size int, hasScripts bool) {
	if minor >= scriptsMinorVersion {
		return HeaderSizeScripts, true
	}
	return HeaderSizeNoScripts, false
}

// decodeHeader decodes a header buffer of exactly the length
// headerSizeForMinor reported. Field offsets before ScriptCount/
// ScriptOffset are identical between layouts; only the insertion point
// differs.
func decodeHeader(b []byte, hasScripts bool) Header {
	var h Header
	copy(h.Magic[:], b[0:4])
	h.Version = ReadU16LE(b[4:6])
	h.Flags = ReadU16LE(b[6:8])
	h.ElementCount = ReadU16LE(b[8:10])
	h.StyleCount = ReadU16LE(b[10:12])
	h.ComponentDefCount = ReadU16LE(b[12:14])
	h.AnimationCount = ReadU16LE(b[14:16])
	h.HasScripts = hasScripts

	counts := b[16:]
	if hasScripts {
		h.ScriptCount = ReadU16LE(counts[0:2])
		h.StringCount = ReadU16LE(counts[2:4])
		h.ResourceCount = ReadU16LE(counts[4:6])
		offsets := b[22:]
		h.ElementOffset = ReadU32LE(offsets[0:4])
		h.StyleOffset = ReadU32LE(offsets[4:8])
		h.ComponentDefOffset = ReadU32LE(offsets[8:12])
		h.AnimationOffset = ReadU32LE(offsets[12:16])
		h.ScriptOffset = ReadU32LE(offsets[16:20])
		h.StringOffset = ReadU32LE(offsets[20:24])
		h.ResourceOffset = ReadU32LE(offsets[24:28])
		h.TotalSize = ReadU32LE(offsets[28:32])
	} else {
		h.StringCount = ReadU16LE(counts[0:2])
		h.ResourceCount = ReadU16LE(counts[2:4])
		offsets := b[20:]
		h.ElementOffset = ReadU32LE(offsets[0:4])
		h.StyleOffset = ReadU32LE(offsets[4:8])
		h.ComponentDefOffset = ReadU32LE(offsets[8:12])
		h.AnimationOffset = ReadU32LE(offsets[12:16])
		h.StringOffset = ReadU32LE(offsets[16:20])
		h.ResourceOffset = ReadU32LE(offsets[20:24])
		h.TotalSize = ReadU32LE(offsets[24:28])
	}
	return h
}

// elementHeaderSize reports the per-element header size for a document,
// coupled to the document header revision: the 18-byte element header
// (with StatePropCount) travels with the 54-byte document header, the
// 17-byte element header with the 48-byte document header (§9).
func elementHeaderSize(hasScripts bool) int {
	if hasScripts {
		return ElementHeaderSizeState
	}
	return ElementHeaderSizeNoState
}
