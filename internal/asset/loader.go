package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"path"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/eyewear-configurator/internal/material"
	"github.com/Faultbox/eyewear-configurator/internal/skin"
	"github.com/Faultbox/eyewear-configurator/internal/texture"
)

// ErrNoMeshes is returned for models without any triangle geometry.
var ErrNoMeshes = errors.New("model has no meshes")

// DefaultFOV is used for cameras without perspective projection.
const DefaultFOV = 50

// Loader reads models from a file system.
type Loader struct {
	fsys fs.FS
	tex  material.TextureSource
	log  *zap.Logger
}

// NewLoader creates a loader. tex resolves external image references and
// may be nil, in which case they are skipped.
func NewLoader(fsys fs.FS, tex material.TextureSource, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{fsys: fsys, tex: tex, log: log}
}

// Load parses the model at p. It does no GPU work and is safe to call off
// the render thread.
func (l *Loader) Load(ctx context.Context, p string) (*Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := l.fsys.Open(p)
	if err != nil {
		return nil, fmt.Errorf("opening model %s: %w", p, err)
	}
	defer f.Close()

	dir := path.Dir(p)
	sub, err := fs.Sub(l.fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("model dir %s: %w", dir, err)
	}

	var doc gltf.Document
	if err := gltf.NewDecoderFS(f, sub).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding model %s: %w", p, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a, err := l.build(p, &doc)
	if err != nil {
		return nil, err
	}
	l.log.Info("model loaded",
		zap.String("path", p),
		zap.Int("meshes", len(a.Meshes)),
		zap.Int("cameras", len(a.Cameras)))
	return a, nil
}

// FromDocument builds an asset from an already decoded document.
func FromDocument(p string, doc *gltf.Document) (*Asset, error) {
	return NewLoader(nil, nil, nil).build(p, doc)
}

func (l *Loader) build(p string, doc *gltf.Document) (*Asset, error) {
	b := &builder{
		loader:    l,
		doc:       doc,
		dir:       path.Dir(p),
		materials: make(map[int]*material.Material),
		images:    make(map[int]*texture.Texture),
		asset:     &Asset{Path: p, Cameras: make(map[string]Camera)},
	}

	roots, err := sceneRoots(doc)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", p, err)
	}

	var cams []Camera
	for _, idx := range roots {
		if err := b.walk(idx, mgl32.Ident4(), &cams, 0); err != nil {
			return nil, fmt.Errorf("model %s: %w", p, err)
		}
	}
	if len(b.asset.Meshes) == 0 {
		return nil, fmt.Errorf("model %s: %w", p, ErrNoMeshes)
	}

	// Cameras look at the model center.
	center := b.asset.Bounds.Center()
	for _, cam := range cams {
		cam.Target = center
		b.asset.Cameras[cam.Name] = cam
	}
	return b.asset, nil
}

func sceneRoots(doc *gltf.Document) ([]int, error) {
	if len(doc.Scenes) == 0 {
		// No scene: every parentless node is a root.
		child := make(map[int]bool)
		for _, n := range doc.Nodes {
			for _, c := range n.Children {
				child[c] = true
			}
		}
		var roots []int
		for i := range doc.Nodes {
			if !child[i] {
				roots = append(roots, i)
			}
		}
		return roots, nil
	}
	idx := 0
	if doc.Scene != nil {
		idx = *doc.Scene
	}
	if idx < 0 || idx >= len(doc.Scenes) {
		return nil, fmt.Errorf("scene %d out of range", idx)
	}
	return doc.Scenes[idx].Nodes, nil
}

type builder struct {
	loader    *Loader
	doc       *gltf.Document
	dir       string
	materials map[int]*material.Material
	images    map[int]*texture.Texture
	fallback  *material.Material
	asset     *Asset
}

const maxDepth = 64

var identity = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

func (b *builder) walk(idx int, parent mgl32.Mat4, cams *[]Camera, depth int) error {
	if depth > maxDepth {
		return fmt.Errorf("node hierarchy deeper than %d", maxDepth)
	}
	if idx < 0 || idx >= len(b.doc.Nodes) {
		return fmt.Errorf("node %d out of range", idx)
	}
	node := b.doc.Nodes[idx]
	world := parent.Mul4(localMatrix(node))

	if node.Mesh != nil {
		if err := b.addMesh(node, world); err != nil {
			return err
		}
	}
	if node.Camera != nil {
		if cam, ok := b.camera(node, world); ok {
			*cams = append(*cams, cam)
		}
	}
	for _, c := range node.Children {
		if err := b.walk(c, world, cams, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func localMatrix(n *gltf.Node) mgl32.Mat4 {
	if n.Matrix != ([16]float64{}) && n.Matrix != identity {
		var m mgl32.Mat4
		for i, v := range n.Matrix {
			m[i] = float32(v)
		}
		return m
	}

	t := mgl32.Translate3D(float32(n.Translation[0]), float32(n.Translation[1]), float32(n.Translation[2]))

	r := mgl32.QuatIdent()
	if n.Rotation != [4]float64{} {
		r = mgl32.Quat{
			W: float32(n.Rotation[3]),
			V: mgl32.Vec3{float32(n.Rotation[0]), float32(n.Rotation[1]), float32(n.Rotation[2])},
		}.Normalize()
	}

	s := mgl32.Ident4()
	if n.Scale != [3]float64{} {
		s = mgl32.Scale3D(float32(n.Scale[0]), float32(n.Scale[1]), float32(n.Scale[2]))
	}
	return t.Mul4(r.Mat4()).Mul4(s)
}

func (b *builder) camera(node *gltf.Node, world mgl32.Mat4) (Camera, bool) {
	idx := *node.Camera
	if idx < 0 || idx >= len(b.doc.Cameras) {
		b.loader.log.Warn("camera index out of range", zap.String("node", node.Name), zap.Int("camera", idx))
		return Camera{}, false
	}
	c := b.doc.Cameras[idx]

	name := node.Name
	if name == "" {
		name = c.Name
	}
	if name == "" {
		b.loader.log.Warn("skipping unnamed camera", zap.Int("camera", idx))
		return Camera{}, false
	}

	fov := float32(DefaultFOV)
	if c.Perspective != nil && c.Perspective.Yfov > 0 {
		fov = mgl32.RadToDeg(float32(c.Perspective.Yfov))
	}
	return Camera{
		Name:     name,
		Position: world.Col(3).Vec3(),
		Rotation: rotationOf(world),
		FOV:      fov,
	}, true
}

// rotationOf extracts the orientation of a world matrix, ignoring scale.
func rotationOf(m mgl32.Mat4) mgl32.Quat {
	var r mgl32.Mat3
	for c := 0; c < 3; c++ {
		axis := m.Col(c).Vec3()
		if l := axis.Len(); l > 0 {
			axis = axis.Mul(1 / l)
		}
		r.SetCol(c, axis)
	}
	return mgl32.Mat4ToQuat(r.Mat4()).Normalize()
}

func (b *builder) addMesh(node *gltf.Node, world mgl32.Mat4) error {
	idx := *node.Mesh
	if idx < 0 || idx >= len(b.doc.Meshes) {
		return fmt.Errorf("node %q: mesh %d out of range", node.Name, idx)
	}
	gm := b.doc.Meshes[idx]

	name := node.Name
	if name == "" {
		name = gm.Name
	}

	for pi, prim := range gm.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			b.loader.log.Debug("skipping non-triangle primitive", zap.String("mesh", name), zap.Int("primitive", pi))
			continue
		}
		verts, indices, err := b.readPrimitive(prim)
		if err != nil {
			return fmt.Errorf("mesh %q primitive %d: %w", name, pi, err)
		}

		m := &Mesh{
			ID:       len(b.asset.Meshes),
			Name:     name,
			World:    world,
			Vertices: verts,
			Indices:  indices,
		}
		m.Imported, m.MaterialName = b.material(prim.Material)
		m.Material = m.Imported

		for i := range verts {
			p := verts[i].Position
			m.Bounds.Extend(mgl32.TransformCoordinate(mgl32.Vec3{p[0], p[1], p[2]}, world))
		}
		b.asset.Bounds.Union(m.Bounds)
		b.asset.Meshes = append(b.asset.Meshes, m)
	}
	return nil
}

func (b *builder) readPrimitive(prim *gltf.Primitive) ([]Vertex, []uint32, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, nil, errors.New("no POSITION attribute")
	}
	if posIdx < 0 || posIdx >= len(b.doc.Accessors) {
		return nil, nil, fmt.Errorf("POSITION accessor %d out of range", posIdx)
	}
	positions, err := modeler.ReadPosition(b.doc, b.doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, nil, fmt.Errorf("reading positions: %w", err)
	}

	var normals [][3]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok && idx < len(b.doc.Accessors) {
		normals, err = modeler.ReadNormal(b.doc, b.doc.Accessors[idx], nil)
		if err != nil {
			return nil, nil, fmt.Errorf("reading normals: %w", err)
		}
	}

	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok && idx < len(b.doc.Accessors) {
		uvs, err = modeler.ReadTextureCoord(b.doc, b.doc.Accessors[idx], nil)
		if err != nil {
			return nil, nil, fmt.Errorf("reading texture coords: %w", err)
		}
	}

	var indices []uint32
	if prim.Indices != nil && *prim.Indices < len(b.doc.Accessors) {
		indices, err = modeler.ReadIndices(b.doc, b.doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, nil, fmt.Errorf("reading indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	for _, i := range indices {
		if int(i) >= len(positions) {
			return nil, nil, fmt.Errorf("index %d out of range for %d vertices", i, len(positions))
		}
	}

	verts := make([]Vertex, len(positions))
	for i, p := range positions {
		verts[i].Position = p
		if i < len(normals) {
			verts[i].Normal = normals[i]
		}
		if i < len(uvs) {
			verts[i].UV = uvs[i]
		}
	}
	if len(normals) < len(positions) {
		computeNormals(verts, indices)
	}
	return verts, indices, nil
}

// computeNormals fills area-weighted smooth normals.
func computeNormals(verts []Vertex, indices []uint32) {
	acc := make([]mgl32.Vec3, len(verts))
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		pa := mgl32.Vec3(verts[a].Position)
		pb := mgl32.Vec3(verts[b].Position)
		pc := mgl32.Vec3(verts[c].Position)
		n := pb.Sub(pa).Cross(pc.Sub(pa))
		acc[a] = acc[a].Add(n)
		acc[b] = acc[b].Add(n)
		acc[c] = acc[c].Add(n)
	}
	for i, n := range acc {
		if n.Len() == 0 {
			verts[i].Normal = [3]float32{0, 1, 0}
			continue
		}
		verts[i].Normal = n.Normalize()
	}
}

// material converts a glTF material once per index.
func (b *builder) material(idx *int) (*material.Material, string) {
	if idx == nil || *idx < 0 || *idx >= len(b.doc.Materials) {
		if b.fallback == nil {
			// glTF default material.
			b.fallback = &material.Material{
				Name:       "default",
				Kind:       material.Imported,
				Color:      skin.White,
				Roughness:  1,
				Metalness:  1,
				Opacity:    1,
				DepthWrite: true,
			}
		}
		return b.fallback, ""
	}
	gm := b.doc.Materials[*idx]
	if m, ok := b.materials[*idx]; ok {
		return m, gm.Name
	}

	m := &material.Material{
		Name:         gm.Name,
		Kind:         material.Imported,
		Color:        skin.White,
		Roughness:    1,
		Metalness:    1,
		Opacity:      1,
		DepthWrite:   true,
		DoubleSided:  gm.DoubleSided,
		EnvIntensity: 1,
		Emissive: skin.RGB{
			float32(gm.EmissiveFactor[0]),
			float32(gm.EmissiveFactor[1]),
			float32(gm.EmissiveFactor[2]),
		},
		EmissiveIntensity: 1,
	}
	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			f := *pbr.BaseColorFactor
			m.Color = skin.RGB{float32(f[0]), float32(f[1]), float32(f[2])}
			m.Opacity = float32(f[3])
		}
		if pbr.MetallicFactor != nil {
			m.Metalness = float32(*pbr.MetallicFactor)
		}
		if pbr.RoughnessFactor != nil {
			m.Roughness = float32(*pbr.RoughnessFactor)
		}
		if pbr.BaseColorTexture != nil {
			m.Map = b.texture(pbr.BaseColorTexture.Index)
		}
	}
	if gm.EmissiveTexture != nil {
		m.EmissiveMap = b.texture(gm.EmissiveTexture.Index)
	}
	if gm.AlphaMode == gltf.AlphaBlend {
		m.Transparent = true
	}

	b.materials[*idx] = m
	return m, gm.Name
}

var mimeExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// texture resolves a glTF texture to an image. Embedded images are decoded
// in place; external ones go through the shared texture source.
func (b *builder) texture(texIdx int) *texture.Texture {
	if texIdx < 0 || texIdx >= len(b.doc.Textures) {
		return nil
	}
	src := b.doc.Textures[texIdx].Source
	if src == nil || *src < 0 || *src >= len(b.doc.Images) {
		return nil
	}
	if t, ok := b.images[*src]; ok {
		return t
	}

	img := b.doc.Images[*src]
	var tex *texture.Texture
	switch {
	case img.BufferView != nil:
		tex = b.embeddedImage(*src, img)
	case img.URI != "" && b.loader.tex != nil:
		tex = b.loader.tex.Request(path.Join(b.dir, img.URI))
	}
	b.images[*src] = tex
	return tex
}

func (b *builder) embeddedImage(idx int, img *gltf.Image) *texture.Texture {
	name := fmt.Sprintf("%s#image%d", b.asset.Path, idx)
	data, err := bufferViewData(b.doc, *img.BufferView)
	if err != nil {
		b.loader.log.Warn("embedded image unreadable", zap.String("image", name), zap.Error(err))
		return &texture.Texture{Path: name, State: texture.Failed, Err: err}
	}
	var decoded image.Image
	ext, ok := mimeExt[img.MimeType]
	if !ok {
		err = fmt.Errorf("mime type %q: %w", img.MimeType, texture.ErrUnknownFormat)
	} else {
		decoded, err = texture.Decode(name+ext, data, 0)
	}
	if err != nil {
		b.loader.log.Warn("embedded image undecodable", zap.String("image", name), zap.Error(err))
		return &texture.Texture{Path: name, State: texture.Failed, Err: err}
	}
	return texture.FromImage(name, decoded)
}

func bufferViewData(doc *gltf.Document, idx int) ([]byte, error) {
	if idx < 0 || idx >= len(doc.BufferViews) {
		return nil, fmt.Errorf("buffer view %d out of range", idx)
	}
	bv := doc.BufferViews[idx]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("buffer %d out of range", bv.Buffer)
	}
	data := doc.Buffers[bv.Buffer].Data
	end := bv.ByteOffset + bv.ByteLength
	if end > len(data) {
		return nil, fmt.Errorf("buffer view %d exceeds buffer", idx)
	}
	return bytes.Clone(data[bv.ByteOffset:end]), nil
}
