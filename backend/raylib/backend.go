// Package raylib is the concrete Graphics Backend (§1, component I):
// the only package in this module that imports raylib-go. Everything
// upstream of it talks only to runtime.GraphicsBackend.
package raylib

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/h2non/filetype"
	"github.com/kryon-ui/kryon-runtime/krb"
	"github.com/kryon-ui/kryon-runtime/runtime"
)

// maxNativeTextureDim caps the side length handed to raylib's texture
// upload; external resources larger than this are downsampled first via
// imaging, grounded on the teacher's plain rl.LoadImage call which never
// resizes at all.
const maxNativeTextureDim = 2048

// Backend implements runtime.GraphicsBackend on top of raylib-go.
// Grounded on teacher render/raylib/raylib_renderer.go's RaylibRenderer.
type Backend struct {
	krbFileDir     string
	loadedTextures map[string]rl.Texture2D
	resources      []krb.Resource
	strings        []string
}

// New returns a Backend that resolves external resource paths relative
// to krbFileDir (the directory containing the .krb document being run)
// and looks up resource names in the document's string table.
func New(krbFileDir string, doc *krb.Document) *Backend {
	return &Backend{
		krbFileDir:     krbFileDir,
		loadedTextures: make(map[string]rl.Texture2D),
		resources:      doc.Resources,
		strings:        doc.Strings,
	}
}

func (b *Backend) Init(config runtime.WindowConfig) error {
	flags := uint32(0)
	if config.Resizable {
		flags |= rl.FlagWindowResizable
	}
	rl.SetConfigFlags(flags)
	rl.InitWindow(int32(config.Width), int32(config.Height), config.Title)
	if !rl.IsWindowReady() {
		return fmt.Errorf("raylib backend: InitWindow failed")
	}
	rl.SetTargetFPS(60)
	return nil
}

func (b *Backend) Cleanup() {
	for _, tex := range b.loadedTextures {
		rl.UnloadTexture(tex)
	}
	if rl.IsWindowReady() {
		rl.CloseWindow()
	}
}

func (b *Backend) ShouldClose() bool {
	return rl.IsWindowReady() && rl.WindowShouldClose()
}

func (b *Backend) BeginFrame() { rl.BeginDrawing() }
func (b *Backend) EndFrame()   { rl.EndDrawing() }

func (b *Backend) WindowSize() (int, int) {
	return int(rl.GetScreenWidth()), int(rl.GetScreenHeight())
}

func (b *Backend) ClearBackground(c runtime.Color) {
	rl.ClearBackground(toRlColor(c))
}

func (b *Backend) MeasureText(text string, fontSize uint16) (float32, float32) {
	w := rl.MeasureText(text, int32(fontSize))
	return float32(w), float32(fontSize)
}

func (b *Backend) DrawText(text string, x, y float32, fontSize uint16, c runtime.Color) {
	rl.DrawText(text, int32(x), int32(y), int32(fontSize), toRlColor(c))
}

func (b *Backend) DrawRect(x, y, w, h float32, c runtime.Color) {
	rl.DrawRectangle(int32(x), int32(y), int32(w), int32(h), toRlColor(c))
}

// DrawBorder draws top/bottom full-width strips, left/right inset
// between them, clamping opposing pairs that would overlap. Grounded on
// teacher raylib_renderer.go's drawBorders/clampOpposingBorders.
func (b *Backend) DrawBorder(x, y, w, h float32, widths [4]uint8, c runtime.Color) {
	top, right, bottom, left := float32(widths[0]), float32(widths[1]), float32(widths[2]), float32(widths[3])
	if top+bottom > h {
		top, bottom = h/2, h/2
	}
	if left+right > w {
		left, right = w/2, w/2
	}
	col := toRlColor(c)
	if top > 0 {
		rl.DrawRectangle(int32(x), int32(y), int32(w), int32(top), col)
	}
	if bottom > 0 {
		rl.DrawRectangle(int32(x), int32(y+h-bottom), int32(w), int32(bottom), col)
	}
	sideY := y + top
	sideH := h - top - bottom
	if sideH > 0 {
		if left > 0 {
			rl.DrawRectangle(int32(x), int32(sideY), int32(left), int32(sideH), col)
		}
		if right > 0 {
			rl.DrawRectangle(int32(x+w-right), int32(sideY), int32(right), int32(sideH), col)
		}
	}
}

func (b *Backend) BeginScissor(x, y, w, h float32) {
	rl.BeginScissorMode(int32(x), int32(y), int32(w), int32(h))
}

func (b *Backend) EndScissor() { rl.EndScissorMode() }

// LoadTexture implements the resource loader from SPEC_FULL.md's domain
// stack table: external resource bytes are sniffed with h2non/filetype
// to confirm they are actually image data before decode, then routed
// through disintegration/imaging to downsample anything whose native
// size exceeds maxNativeTextureDim before handing pixels to raylib.
// resourcePath is the document string-table name of the resource, not a
// filesystem path — the backend owns path resolution so callers never
// need krbFileDir.
func (b *Backend) LoadTexture(resourcePath string) (runtime.BackendTexture, int, int, error) {
	if tex, ok := b.loadedTextures[resourcePath]; ok {
		return tex, int(tex.Width), int(tex.Height), nil
	}

	data, err := b.readResourceBytes(resourcePath)
	if err != nil {
		return nil, 0, 0, err
	}

	kind, err := filetype.Image(data)
	if err != nil || kind == filetype.Unknown {
		return nil, 0, 0, fmt.Errorf("raylib backend: resource %q is not a recognizable image", resourcePath)
	}

	png, err := decodeAndClamp(data)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("raylib backend: decoding resource %q: %w", resourcePath, err)
	}

	rlImg := rl.LoadImageFromMemory(".png", png, int32(len(png)))
	defer rl.UnloadImage(rlImg)
	tex := rl.LoadTextureFromImage(rlImg)
	if tex.ID == 0 {
		return nil, 0, 0, fmt.Errorf("raylib backend: LoadTextureFromImage failed for %q", resourcePath)
	}

	b.loadedTextures[resourcePath] = tex
	return tex, int(tex.Width), int(tex.Height), nil
}

// readResourceBytes resolves an external resource from krbFileDir, or
// returns a resource's inline bytes directly (§6.1 resource formats).
func (b *Backend) readResourceBytes(name string) ([]byte, error) {
	for _, res := range b.resources {
		resName, ok := stringAt(b.strings, res.NameIndex)
		if !ok || resName != name {
			continue
		}
		switch res.Format {
		case krb.ResFormatInline:
			return res.InlineData, nil
		case krb.ResFormatExternal:
			return os.ReadFile(filepath.Join(b.krbFileDir, resName))
		}
	}
	return nil, fmt.Errorf("raylib backend: unknown resource %q", name)
}

// decodeAndClamp decodes raw image bytes via imaging, downsamples
// anything whose native size exceeds maxNativeTextureDim, and
// re-encodes to PNG for raylib's own in-memory loader (keeps the
// format-sniffing/resize concern in imaging without needing to hand
// raw pixel buffers across the cgo boundary ourselves).
func decodeAndClamp(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	if bounds.Dx() > maxNativeTextureDim || bounds.Dy() > maxNativeTextureDim {
		img = imaging.Fit(img, maxNativeTextureDim, maxNativeTextureDim, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (b *Backend) DrawTexture(tex runtime.BackendTexture, x, y, w, h float32) {
	rlTex, ok := tex.(rl.Texture2D)
	if !ok {
		return
	}
	src := rl.NewRectangle(0, 0, float32(rlTex.Width), float32(rlTex.Height))
	dst := rl.NewRectangle(x, y, w, h)
	rl.DrawTexturePro(rlTex, src, dst, rl.NewVector2(0, 0), 0, rl.White)
}

func (b *Backend) SetCursor(kind runtime.CursorKind) {
	switch kind {
	case runtime.CursorPointingHand:
		rl.SetMouseCursor(rl.MouseCursorPointingHand)
	default:
		rl.SetMouseCursor(rl.MouseCursorDefault)
	}
}

func (b *Backend) MousePosition() (float32, float32) {
	pos := rl.GetMousePosition()
	return pos.X, pos.Y
}

func (b *Backend) MouseLeftPressed() bool {
	return rl.IsMouseButtonPressed(rl.MouseButtonLeft)
}

func toRlColor(c runtime.Color) rl.Color {
	return rl.NewColor(c.R, c.G, c.B, c.A)
}

func stringAt(strings []string, idx uint8) (string, bool) {
	if int(idx) >= len(strings) {
		return "", false
	}
	return strings[idx], true
}
