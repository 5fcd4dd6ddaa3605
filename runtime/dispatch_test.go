package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kryon-ui/kryon-runtime/internal/krbfixture"
	"github.com/kryon-ui/kryon-runtime/krb"
	"github.com/kryon-ui/kryon-runtime/runtime"
)

// fakeBackend is a minimal in-memory GraphicsBackend stub driving the
// dispatcher through a single frame without any real window or GPU.
type fakeBackend struct {
	w, h         int
	mouseX       float32
	mouseY       float32
	leftPressed  bool
	cursor       runtime.CursorKind
	textures     map[string][2]int
}

func (b *fakeBackend) Init(runtime.WindowConfig) error { return nil }
func (b *fakeBackend) Cleanup()                        {}
func (b *fakeBackend) ShouldClose() bool               { return false }
func (b *fakeBackend) BeginFrame()                     {}
func (b *fakeBackend) EndFrame()                       {}
func (b *fakeBackend) WindowSize() (int, int)          { return b.w, b.h }
func (b *fakeBackend) ClearBackground(runtime.Color)   {}

func (b *fakeBackend) MeasureText(text string, fontSize uint16) (float32, float32) {
	return float32(len(text)) * float32(fontSize) * 0.6, float32(fontSize)
}
func (b *fakeBackend) DrawText(string, float32, float32, uint16, runtime.Color) {}
func (b *fakeBackend) DrawRect(float32, float32, float32, float32, runtime.Color) {}
func (b *fakeBackend) DrawBorder(float32, float32, float32, float32, [4]uint8, runtime.Color) {}
func (b *fakeBackend) BeginScissor(float32, float32, float32, float32) {}
func (b *fakeBackend) EndScissor()                                    {}

func (b *fakeBackend) LoadTexture(path string) (runtime.BackendTexture, int, int, error) {
	dims := b.textures[path]
	return nil, dims[0], dims[1], nil
}
func (b *fakeBackend) DrawTexture(runtime.BackendTexture, float32, float32, float32, float32) {}

func (b *fakeBackend) SetCursor(kind runtime.CursorKind) { b.cursor = kind }
func (b *fakeBackend) MousePosition() (float32, float32) { return b.mouseX, b.mouseY }
func (b *fakeBackend) MouseLeftPressed() bool            { return b.leftPressed }

// A single click on a button dispatches its registered handler exactly
// once per frame and arbitrates the cursor to pointing-hand (§4.8).
func TestDispatch_ClickFiresHandlerAndSetsCursor(t *testing.T) {
	d := &krbfixture.Document{HasApp: true}
	textIdx := d.AddString("Hi")
	handlerIdx := d.AddString("h")
	d.Roots = []krbfixture.Element{{
		Type:   krb.ElemTypeApp,
		Width:  800,
		Height: 600,
		Properties: []krbfixture.Prop{
			{ID: krb.PropIDWindowWidth, ValueType: krb.ValTypeShort, Value: krbfixture.ShortValue(800)},
			{ID: krb.PropIDWindowHeight, ValueType: krb.ValTypeShort, Value: krbfixture.ShortValue(600)},
		},
		Children: []krbfixture.Element{{
			Type:   krb.ElemTypeButton,
			PosX:   100,
			PosY:   100,
			Width:  100,
			Height: 40,
			Properties: []krbfixture.Prop{
				{ID: krb.PropIDTextContent, ValueType: krb.ValTypeString, Value: krbfixture.StringValue(textIdx)},
			},
			Events: []krbfixture.Event{{Type: krb.EventTypeClick, CallbackID: handlerIdx}},
		}},
	}}

	parsed, err := krb.ParseDocument(d.Build())
	require.NoError(t, err)

	clicked := 0
	handlers := runtime.NewHandlerRegistry()
	handlers.Register("h", func() { clicked++ })

	ctx, err := runtime.Build(parsed, nil, handlers, nil)
	require.NoError(t, err)

	backend := &fakeBackend{w: 800, h: 600, mouseX: 150, mouseY: 120, leftPressed: true}
	ctx.Backend = backend

	require.NoError(t, runtime.RunFrame(ctx))

	require.Equal(t, 1, clicked)
	require.Equal(t, runtime.CursorPointingHand, backend.cursor)
}

// Clicking outside every interactive element's bounds dispatches no
// handler and leaves the cursor at its default.
func TestDispatch_ClickOutsideElementDoesNothing(t *testing.T) {
	d := &krbfixture.Document{HasApp: true}
	textIdx := d.AddString("Hi")
	handlerIdx := d.AddString("h")
	d.Roots = []krbfixture.Element{{
		Type:   krb.ElemTypeApp,
		Width:  800,
		Height: 600,
		Properties: []krbfixture.Prop{
			{ID: krb.PropIDWindowWidth, ValueType: krb.ValTypeShort, Value: krbfixture.ShortValue(800)},
			{ID: krb.PropIDWindowHeight, ValueType: krb.ValTypeShort, Value: krbfixture.ShortValue(600)},
		},
		Children: []krbfixture.Element{{
			Type:   krb.ElemTypeButton,
			PosX:   100,
			PosY:   100,
			Width:  100,
			Height: 40,
			Properties: []krbfixture.Prop{
				{ID: krb.PropIDTextContent, ValueType: krb.ValTypeString, Value: krbfixture.StringValue(textIdx)},
			},
			Events: []krbfixture.Event{{Type: krb.EventTypeClick, CallbackID: handlerIdx}},
		}},
	}}

	parsed, err := krb.ParseDocument(d.Build())
	require.NoError(t, err)

	clicked := 0
	handlers := runtime.NewHandlerRegistry()
	handlers.Register("h", func() { clicked++ })

	ctx, err := runtime.Build(parsed, nil, handlers, nil)
	require.NoError(t, err)

	backend := &fakeBackend{w: 800, h: 600, mouseX: 5, mouseY: 5, leftPressed: true}
	ctx.Backend = backend

	require.NoError(t, runtime.RunFrame(ctx))

	require.Equal(t, 0, clicked)
	require.Equal(t, runtime.CursorDefault, backend.cursor)
}
