package runtime

import "github.com/kryon-ui/kryon-runtime/krb"

// BackendTexture is an opaque handle owned by a GraphicsBackend
// implementation (e.g. an rl.Texture2D boxed by backend/raylib).
type BackendTexture any

// CursorKind is the small, backend-agnostic cursor vocabulary the
// dispatcher needs for arbitration (§4.8 "Cursor arbitration").
type CursorKind int

const (
	CursorDefault CursorKind = iota
	CursorPointingHand
)

// WindowConfig carries the App element's window-level properties (§4.4
// property table: window_width/height/title/resizable/scale_factor) plus
// the contextual default colors used by the build pipeline's step 4.
type WindowConfig struct {
	Width, Height int
	Title         string
	Resizable     bool
	ScaleFactor   float32

	DefaultBg          Color
	DefaultFg          Color
	DefaultBorderColor Color
	DefaultFontSize    uint16
}

func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Width: 800, Height: 600, Title: "Kryon",
		ScaleFactor:        1.0,
		DefaultBg:          Color{0, 0, 0, 255},
		DefaultFg:          Color{255, 255, 255, 255},
		DefaultBorderColor: Color{128, 128, 128, 255},
		DefaultFontSize:    20,
	}
}

// GraphicsBackend is the Graphics Backend trait (§1, component I):
// pixel-level drawing, text measurement, texture load/draw, scissor
// clipping, window lifecycle, and mouse state, kept entirely outside the
// core's parsing/layout/dispatch logic.
type GraphicsBackend interface {
	Init(config WindowConfig) error
	Cleanup()

	ShouldClose() bool
	BeginFrame()
	EndFrame()

	// WindowSize reports the live window size, letting the dispatcher
	// detect a resize between frames (§4.8 step 1).
	WindowSize() (width, height int)

	ClearBackground(c Color)

	MeasureText(text string, fontSize uint16) (width, height float32)
	DrawText(text string, x, y float32, fontSize uint16, c Color)

	DrawRect(x, y, w, h float32, c Color)
	DrawBorder(x, y, w, h float32, widths [4]uint8, c Color)

	BeginScissor(x, y, w, h float32)
	EndScissor()

	LoadTexture(resourcePath string) (BackendTexture, int, int, error)
	DrawTexture(tex BackendTexture, x, y, w, h float32)

	SetCursor(kind CursorKind)

	MousePosition() (x, y float32)
	MouseLeftPressed() bool
}

// HandlerFunc is a zero-argument host callback (§1 "Handler Registry
// mapping names to callables", §6.2 register_handler).
type HandlerFunc func()

// HandlerRegistry maps event-callback names (from the document's string
// table) to host-provided functions. The core never invents process-wide
// state of its own (§9 "Global state in examples"): any state a handler
// needs to close over belongs to the host program.
type HandlerRegistry interface {
	Register(name string, fn HandlerFunc)
	Lookup(name string) (HandlerFunc, bool)
}

type mapHandlerRegistry struct {
	handlers map[string]HandlerFunc
}

// NewHandlerRegistry returns the default map-backed HandlerRegistry.
func NewHandlerRegistry() HandlerRegistry {
	return &mapHandlerRegistry{handlers: make(map[string]HandlerFunc)}
}

func (r *mapHandlerRegistry) Register(name string, fn HandlerFunc) { r.handlers[name] = fn }

func (r *mapHandlerRegistry) Lookup(name string) (HandlerFunc, bool) {
	fn, ok := r.handlers[name]
	return fn, ok
}

// CustomComponentHandler is the post-instantiation hook for a custom
// component (§4.9): it may read the placeholder's custom properties, set
// the instance root's render rect, and reposition siblings.
type CustomComponentHandler interface {
	HandleLayoutAdjustment(ctx *Context, instance *ComponentInstance) error
}

// CustomDrawer lets a custom component hook override how its instance
// root is drawn; returning skipStandardDraw true suppresses the
// dispatcher's usual background/border/content draw for that element.
type CustomDrawer interface {
	Draw(ctx *Context, el ElementID, scale float32) (skipStandardDraw bool, err error)
}

// CustomEventHandler lets a custom component hook intercept dispatch for
// its instance root before the element's own event list is consulted.
type CustomEventHandler interface {
	HandleEvent(ctx *Context, el ElementID, eventType krb.EventType) (handled bool, err error)
}

// CustomComponentRegistry maps a component definition name to its hook
// (§1 "Custom Component Registry mapping a component name to a
// post-instantiation hook").
type CustomComponentRegistry interface {
	Register(name string, handler CustomComponentHandler)
	Lookup(name string) (CustomComponentHandler, bool)
}

type mapComponentRegistry struct {
	handlers map[string]CustomComponentHandler
}

func NewCustomComponentRegistry() CustomComponentRegistry {
	return &mapComponentRegistry{handlers: make(map[string]CustomComponentHandler)}
}

func (r *mapComponentRegistry) Register(name string, handler CustomComponentHandler) {
	r.handlers[name] = handler
}

func (r *mapComponentRegistry) Lookup(name string) (CustomComponentHandler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}
