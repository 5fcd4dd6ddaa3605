package runtime

import "github.com/kryon-ui/kryon-runtime/krb"

// LoadResources implements the texture-acquisition half of §5's "Textures
// are acquired lazily on first need via the Graphics Backend": called
// once after Build and before the first frame, it resolves every image-
// bearing element's resource name and asks the backend to load it,
// caching width/height on the element so layout's intrinsic sizing (§4.7
// step 1) never needs to re-enter the backend. Grounded on teacher
// render/raylib/raylib_renderer.go's performTextureLoading/LoadAllTextures,
// adapted to the backend-agnostic GraphicsBackend trait.
func LoadResources(ctx *Context) {
	if ctx.Backend == nil {
		return
	}
	for i := range ctx.Elements {
		el := &ctx.Elements[i]
		needsTexture := (el.Header.Type == krb.ElemTypeImage || el.Header.Type == krb.ElemTypeButton) && el.HasImageSource
		if !needsTexture {
			continue
		}
		name, ok := resourceName(ctx.Document, el.ResourceIndex)
		if !ok {
			warnf("", "image resource index out of range", map[string]any{"element": i, "resource_index": el.ResourceIndex})
			continue
		}
		tex, w, h, err := ctx.Backend.LoadTexture(name)
		if err != nil {
			warnf("", "failed to load image resource", map[string]any{"element": i, "resource": name, "error": err.Error()})
			el.TextureLoaded = false
			continue
		}
		el.Texture = tex
		el.TextureW, el.TextureH = w, h
		el.TextureLoaded = true
	}
}

func resourceName(doc *krb.Document, resIndex uint8) (string, bool) {
	if int(resIndex) >= len(doc.Resources) {
		return "", false
	}
	return resolveString(doc, doc.Resources[resIndex].NameIndex)
}
