package renderer

import (
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/eyewear-configurator/internal/asset"
	"github.com/Faultbox/eyewear-configurator/internal/material"
	"github.com/Faultbox/eyewear-configurator/internal/texture"
)

type gpuMesh struct {
	vao, vbo, ebo uint32
	count         int32
}

func (g *gpuMesh) delete() {
	if g.vao != 0 {
		gl.DeleteVertexArrays(1, &g.vao)
	}
	if g.vbo != 0 {
		gl.DeleteBuffers(1, &g.vbo)
	}
	if g.ebo != 0 {
		gl.DeleteBuffers(1, &g.ebo)
	}
	*g = gpuMesh{}
}

// uploadMesh creates VAO/VBO/EBO for an interleaved asset mesh.
func uploadMesh(m *asset.Mesh) *gpuMesh {
	g := &gpuMesh{}
	if len(m.Vertices) == 0 || len(m.Indices) == 0 {
		return g
	}

	stride := int32(unsafe.Sizeof(asset.Vertex{}))

	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)

	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Vertices)*int(stride), gl.Ptr(m.Vertices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &g.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, gl.Ptr(m.Indices), gl.STATIC_DRAW)

	// Position (location 0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	// Normal (location 1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(1)
	// UV (location 2)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, stride, 6*4)
	gl.EnableVertexAttribArray(2)

	gl.BindVertexArray(0)
	g.count = int32(len(m.Indices))
	return g
}

// Color maps are stored sRGB so sampling returns linear values; masks are not.
type textureKey struct {
	tex  *texture.Texture
	srgb bool
}

func (r *Renderer) bindMaterial(mat *material.Material) {
	p := r.sceneProgram
	p.SetVec3("uBaseColor", mat.Color)
	p.SetFloat("uOpacity", mat.Opacity)
	p.SetFloat("uRoughness", mat.Roughness)
	p.SetFloat("uMetalness", mat.Metalness)
	p.SetFloat("uEnvIntensity", mat.EnvIntensity)
	p.SetFloat("uClearcoat", mat.Clearcoat)
	p.SetFloat("uClearcoatRoughness", mat.ClearcoatRoughness)
	p.SetFloat("uReflectivity", mat.Reflectivity)
	p.SetFloat("uTransmission", mat.Transmission)
	ior := mat.IOR
	if ior <= 1 {
		ior = 1.5
	}
	p.SetFloat("uIOR", ior)
	p.SetBool("uDiffuseOnly", mat.Kind == material.Diffuse)
	p.SetVec3("uEmissive", mat.Emissive)
	p.SetFloat("uEmissiveIntensity", mat.EmissiveIntensity)

	r.bindTexture(unitMap, "uHasMap", mat.Map, true)
	r.bindTexture(unitAlphaMap, "uHasAlphaMap", mat.AlphaMap, false)
	r.bindTexture(unitEmissiveMap, "uHasEmissiveMap", mat.EmissiveMap, true)

	var overlay *texture.Texture
	if mat.Overlay != nil {
		overlay = mat.Overlay.Map
		p.SetVec3("uOverlayColor", mat.Overlay.Color)
	}
	r.bindTexture(unitOverlay, "uHasOverlay", overlay, true)
}

// bindTexture binds t to unit when it has finished decoding. Pending and
// failed textures leave the slot disabled so the material renders untextured.
func (r *Renderer) bindTexture(unit int32, flag string, t *texture.Texture, srgb bool) {
	if !t.IsReady() {
		r.sceneProgram.SetBool(flag, false)
		return
	}
	key := textureKey{tex: t, srgb: srgb}
	id, ok := r.textures[key]
	if !ok {
		id = uploadTexture(t.Image, srgb)
		r.textures[key] = id
		r.log.Debug("texture uploaded", zap.String("path", t.Path), zap.Bool("srgb", srgb))
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, id)
	r.sceneProgram.SetBool(flag, true)
}

func uploadTexture(img *image.NRGBA, srgb bool) uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)

	internal := int32(gl.RGBA8)
	if srgb {
		internal = gl.SRGB8_ALPHA8
	}
	b := img.Bounds()
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(img.Stride/4))
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(b.Dx()), int32(b.Dy()), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.GenerateMipmap(gl.TEXTURE_2D)

	gl.BindTexture(gl.TEXTURE_2D, 0)
	return id
}

// Release frees the buffers of a's meshes and the GPU copies of the
// textures its own materials reference. Skin textures stay resident since
// the next model will most likely use them again.
func (r *Renderer) Release(a *asset.Asset) {
	var meshes, textures int
	for _, m := range a.Meshes {
		if gm, ok := r.meshes[m]; ok {
			gm.delete()
			delete(r.meshes, m)
			meshes++
		}
		if m.Imported == nil {
			continue
		}
		for _, t := range m.Imported.Textures() {
			for _, srgb := range []bool{true, false} {
				key := textureKey{tex: t, srgb: srgb}
				if id, ok := r.textures[key]; ok {
					gl.DeleteTextures(1, &id)
					delete(r.textures, key)
					textures++
				}
			}
		}
	}
	r.log.Debug("model GPU resources released",
		zap.String("path", a.Path),
		zap.Int("meshes", meshes),
		zap.Int("textures", textures))
}
