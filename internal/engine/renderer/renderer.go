// Package renderer draws the configured product with OpenGL.
package renderer

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/eyewear-configurator/internal/asset"
	"github.com/Faultbox/eyewear-configurator/internal/engine/camera"
	"github.com/Faultbox/eyewear-configurator/internal/engine/debug"
	"github.com/Faultbox/eyewear-configurator/internal/engine/framebuffer"
	"github.com/Faultbox/eyewear-configurator/internal/engine/lighting"
	"github.com/Faultbox/eyewear-configurator/internal/engine/scene"
	"github.com/Faultbox/eyewear-configurator/internal/engine/shader"
	"github.com/Faultbox/eyewear-configurator/internal/logger"
)

// Config holds renderer configuration.
type Config struct {
	// Width and Height are the drawable size in pixels.
	Width  int
	Height int
	// Background is the sRGB clear color.
	Background [3]float32
	// Contrast is applied after sRGB encoding; 1 is neutral.
	Contrast float32
	Lights   lighting.Rig
}

// Texture units used by the scene program.
const (
	unitMap int32 = iota
	unitAlphaMap
	unitEmissiveMap
	unitOverlay
)

// Renderer owns every GPU resource. It must only be used from the thread
// that created the GL context.
type Renderer struct {
	config     Config
	log        *zap.Logger
	background [3]float32

	sceneProgram *shader.Program
	postProgram  *shader.Program
	lineProgram  *shader.Program

	target   *framebuffer.Framebuffer
	emptyVAO uint32
	lineVAO  uint32
	lineVBO  uint32

	meshes   map[*asset.Mesh]*gpuMesh
	textures map[textureKey]uint32

	// ShowBounds outlines the model bounds.
	ShowBounds bool
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	if cfg.Contrast <= 0 {
		cfg.Contrast = 1
	}
	r := &Renderer{
		config:     cfg,
		log:        logger.Named("renderer"),
		background: scene.LinearFromSRGB(cfg.Background),
		meshes:     make(map[*asset.Mesh]*gpuMesh),
		textures:   make(map[textureKey]uint32),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)

	var err error
	if r.sceneProgram, err = shader.New(sceneVertexShader, sceneFragmentShader); err != nil {
		return nil, fmt.Errorf("scene program: %w", err)
	}
	if r.postProgram, err = shader.New(postVertexShader, postFragmentShader); err != nil {
		r.Close()
		return nil, fmt.Errorf("post program: %w", err)
	}
	if r.lineProgram, err = shader.New(lineVertexShader, lineFragmentShader); err != nil {
		r.Close()
		return nil, fmt.Errorf("line program: %w", err)
	}

	r.sceneProgram.Use()
	r.sceneProgram.SetInt("uMap", unitMap)
	r.sceneProgram.SetInt("uAlphaMap", unitAlphaMap)
	r.sceneProgram.SetInt("uEmissiveMap", unitEmissiveMap)
	r.sceneProgram.SetInt("uOverlayMap", unitOverlay)
	r.postProgram.Use()
	r.postProgram.SetInt("uScene", 0)
	gl.UseProgram(0)

	if r.target, err = framebuffer.New(int32(cfg.Width), int32(cfg.Height)); err != nil {
		r.Close()
		return nil, fmt.Errorf("scene target: %w", err)
	}

	// Core profile needs a bound VAO even for attribute-less draws.
	gl.GenVertexArrays(1, &r.emptyVAO)

	gl.GenVertexArrays(1, &r.lineVAO)
	gl.GenBuffers(1, &r.lineVBO)
	gl.BindVertexArray(r.lineVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.lineVBO)
	gl.BufferData(gl.ARRAY_BUFFER, debug.BoxLineVertexCount*3*4, nil, gl.DYNAMIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
	gl.BindVertexArray(0)

	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	r.log.Info("closing renderer", zap.Int("meshes", len(r.meshes)), zap.Int("textures", len(r.textures)))
	for m, gm := range r.meshes {
		gm.delete()
		delete(r.meshes, m)
	}
	for k, id := range r.textures {
		gl.DeleteTextures(1, &id)
		delete(r.textures, k)
	}
	for _, p := range []*shader.Program{r.sceneProgram, r.postProgram, r.lineProgram} {
		if p != nil {
			p.Delete()
		}
	}
	if r.target != nil {
		r.target.Destroy()
	}
	if r.emptyVAO != 0 {
		gl.DeleteVertexArrays(1, &r.emptyVAO)
	}
	if r.lineVAO != 0 {
		gl.DeleteVertexArrays(1, &r.lineVAO)
		gl.DeleteBuffers(1, &r.lineVBO)
	}
}

// Resize handles drawable size changes.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = max(width, 1)
	r.config.Height = max(height, 1)
	r.target.Resize(int32(r.config.Width), int32(r.config.Height))
	r.log.Debug("renderer resized",
		zap.Int("width", r.config.Width),
		zap.Int("height", r.config.Height),
	)
}

// Aspect returns the drawable aspect ratio.
func (r *Renderer) Aspect() float32 {
	return float32(r.config.Width) / float32(r.config.Height)
}

// SetContrast changes the post-process contrast.
func (r *Renderer) SetContrast(c float32) {
	if c > 0 {
		r.config.Contrast = c
	}
}

// Render draws a frame of a seen through rig to the default framebuffer.
// A nil asset draws only the background.
func (r *Renderer) Render(a *asset.Asset, rig *camera.Rig) {
	r.target.Bind()
	r.target.Clear(r.background[0], r.background[1], r.background[2], 1)

	view := rig.ViewMatrix()
	proj := rig.Projection(r.Aspect())
	queue := scene.Build(a, view)

	r.sceneProgram.Use()
	r.sceneProgram.SetMat4("uView", view)
	r.sceneProgram.SetMat4("uProjection", proj)
	r.sceneProgram.SetVec3("uCameraPos", rig.Pose().Position)
	r.setLights()

	gl.Enable(gl.DEPTH_TEST)
	gl.Disable(gl.BLEND)
	gl.DepthMask(true)
	for _, it := range queue.Opaque {
		r.drawMesh(it.Mesh)
	}

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	for _, it := range queue.Transparent {
		gl.DepthMask(it.Mesh.Material.DepthWrite)
		r.drawMesh(it.Mesh)
	}
	gl.DepthMask(true)
	gl.Disable(gl.BLEND)

	if r.ShowBounds && a != nil {
		r.drawBounds(a.Bounds, proj.Mul4(view))
	}

	r.target.Unbind()
	r.postPass()
}

func (r *Renderer) setLights() {
	rig := r.config.Lights
	p := r.sceneProgram
	p.SetVec3("uAmbient", rig.Ambient.Mul(rig.AmbientIntensity))
	active := rig.Active()
	p.SetInt("uLightCount", int32(len(active)))
	for i, l := range active {
		p.SetVec3(fmt.Sprintf("uLightDir[%d]", i), l.Direction)
		p.SetVec3(fmt.Sprintf("uLightColor[%d]", i), l.Color.Mul(l.Intensity))
	}
	p.SetFloat("uEnvStrength", rig.EnvIntensity)
	p.SetFloat("uEnvRotation", rig.EnvRotation)
}

func (r *Renderer) drawMesh(m *asset.Mesh) {
	gm := r.meshes[m]
	if gm == nil {
		gm = uploadMesh(m)
		r.meshes[m] = gm
	}
	if gm.count == 0 {
		return
	}

	r.sceneProgram.SetMat4("uModel", m.World)
	r.bindMaterial(m.Material)

	if m.Material.DoubleSided {
		gl.Disable(gl.CULL_FACE)
	} else {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}

	gl.BindVertexArray(gm.vao)
	gl.DrawElementsWithOffset(gl.TRIANGLES, gm.count, gl.UNSIGNED_INT, 0)
	gl.BindVertexArray(0)
}

func (r *Renderer) drawBounds(b asset.Bounds, viewProj mgl32.Mat4) {
	lines := debug.BoxLines(b, 0.002)
	if lines == nil {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, r.lineVBO)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(lines)*4, gl.Ptr(lines))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	r.lineProgram.Use()
	r.lineProgram.SetMat4("uViewProjection", viewProj)
	r.lineProgram.SetVec3("uColor", [3]float32{0.9, 0.2, 0.2})
	gl.BindVertexArray(r.lineVAO)
	gl.DrawArrays(gl.LINES, 0, debug.BoxLineVertexCount)
	gl.BindVertexArray(0)
}

func (r *Renderer) postPass() {
	gl.Viewport(0, 0, int32(r.config.Width), int32(r.config.Height))
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)

	r.postProgram.Use()
	r.postProgram.SetFloat("uContrast", r.config.Contrast)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, r.target.ColorTexture())
	gl.BindVertexArray(r.emptyVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)

	gl.Enable(gl.DEPTH_TEST)
}

// ReadFrame reads back the last presented frame, before the buffer swap.
func (r *Renderer) ReadFrame() *image.NRGBA {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	gl.ReadBuffer(gl.BACK)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return framebuffer.FlipRows(pixels, w, h)
}
