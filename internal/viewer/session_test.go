package viewer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/eyewear-configurator/internal/anim"
	"github.com/Faultbox/eyewear-configurator/internal/asset"
	"github.com/Faultbox/eyewear-configurator/internal/material"
	"github.com/Faultbox/eyewear-configurator/internal/skin"
	"github.com/Faultbox/eyewear-configurator/internal/texture"
)

type stubTextures struct{}

func (stubTextures) Request(path string) *texture.Texture {
	if path == "" {
		return nil
	}
	return &texture.Texture{Path: path}
}

type fakeLoader struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
	gate  chan struct{}
}

func (l *fakeLoader) Load(ctx context.Context, path string) (*asset.Asset, error) {
	l.mu.Lock()
	l.calls = append(l.calls, path)
	gate := l.gate
	err := l.fail[path]
	l.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return testAsset(path), nil
}

type fakeReleaser struct {
	released []*asset.Asset
}

func (r *fakeReleaser) Release(a *asset.Asset) {
	r.released = append(r.released, a)
}

func testAsset(path string) *asset.Asset {
	mk := func(id int, name, mat string) *asset.Mesh {
		imp := &material.Material{Name: mat, Kind: material.Imported, Opacity: 1}
		return &asset.Mesh{ID: id, Name: name, MaterialName: mat, Imported: imp, Material: imp}
	}
	cam := func(name string, z float32) asset.Camera {
		return asset.Camera{Name: name, Position: mgl32.Vec3{0, 0, z}, Rotation: mgl32.QuatIdent(), FOV: 35}
	}
	if path == "models/round.glb" {
		return &asset.Asset{
			Path: path,
			Meshes: []*asset.Mesh{
				mk(0, "Frame_Round", "frame_mat"),
				mk(1, "Arm_Text_Left", "arm_mat"),
				mk(2, "Lens_L", "Glass_L"),
				mk(3, "Lens_R", "Glass_R"),
			},
			Cameras: map[string]asset.Camera{
				"Cam_Front": cam("Cam_Front", 1.2),
				"Cam_Top":   cam("Cam_Top", 0.9),
				"Cam_Free":  cam("Cam_Free", 1.1),
			},
		}
	}
	return &asset.Asset{
		Path: path,
		Meshes: []*asset.Mesh{
			mk(0, "Frame_Front", "frame_mat"),
			mk(1, "Arm_Left", "arm_mat"),
			mk(2, "Arm_Text_Right", "arm_mat"),
			mk(3, "Lens_L", "Glass_L"),
			mk(4, "Lens_R", "Glass_R"),
			mk(5, "Interior", "fake"),
			mk(6, "Hinge", "metal"),
		},
		Cameras: map[string]asset.Camera{
			"Cam_Front":  cam("Cam_Front", 1),
			"Cam_Lenses": cam("Cam_Lenses", 0.8),
			"Cam_Free":   cam("Cam_Free", 1),
		},
	}
}

func testSkin(name string) *skin.Config {
	return &skin.Config{
		Name:      name,
		ModelPath: "models/wayfarer.glb",
		Frame:     skin.Frame{BaseColor: skin.RGB{0.01, 0.01, 0.01}, Roughness: 0.5, Metalness: 0.1},
		ArmsText:  skin.ArmsText{OverlayPath: "textures/arms.png", Color: skin.RGB{0.04, 0.04, 0.04}},
		Glass: skin.Glass{
			Color:         skin.RGB{0, 0, 0},
			Roughness:     0.1,
			Metalness:     0.2,
			Opacity:       0.9,
			Animate:       true,
			AnimateCamera: "Cam_Lenses",
		},
		Logo:        skin.Logo{TexturePath: "textures/logo.jpg", EmissiveIntensity: 0.6},
		StartCamera: "Cam_Front",
		FreeCamera:  "Cam_Free",
	}
}

func newSession(t *testing.T) (*Session, *fakeLoader, *fakeReleaser) {
	t.Helper()
	l := &fakeLoader{fail: map[string]error{}}
	r := &fakeReleaser{}
	s := New(Options{
		Loader:   l,
		Builder:  material.NewBuilder(stubTextures{}, "textures/gradient.jpg"),
		Releaser: r,
	})
	return s, l, r
}

func load(t *testing.T, s *Session, cfg *skin.Config) {
	t.Helper()
	require.NoError(t, s.LoadModel(context.Background(), cfg))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.AwaitLoad(ctx))
}

func TestLoadModelInstalls(t *testing.T) {
	s, _, r := newSession(t)
	cfg := testSkin("a")
	load(t, s, cfg)

	a := s.Asset()
	require.NotNil(t, a)
	assert.Same(t, cfg, s.Config())
	assert.Empty(t, r.released)
	assert.False(t, s.Loading())
	assert.NoError(t, s.LastError())

	assert.Len(t, s.GlassMaterials(), 2)
	assert.Equal(t, "Cam_Front", s.Camera().Active())
	assert.True(t, s.Camera().Transitioning())

	assert.Equal(t, asset.RoleGlass, a.Meshes[3].Role)
	assert.Same(t, s.GlassMaterials()[0], a.Meshes[3].Material)
	assert.Equal(t, anim.WaitDark, s.GlassPhase())
}

func TestLoadModelRejectsConcurrent(t *testing.T) {
	s, l, _ := newSession(t)
	l.gate = make(chan struct{})

	require.NoError(t, s.LoadModel(context.Background(), testSkin("a")))
	assert.ErrorIs(t, s.LoadModel(context.Background(), testSkin("b")), ErrLoadInProgress)
	assert.ErrorIs(t, s.SelectSkin(context.Background(), testSkin("b")), ErrLoadInProgress)
	assert.True(t, s.Loading())

	close(l.gate)
	require.NoError(t, s.AwaitLoad(context.Background()))
	assert.Equal(t, "a", s.Config().Name)

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.calls, 1)
}

func TestUpdateJoinsLoad(t *testing.T) {
	s, _, _ := newSession(t)
	require.NoError(t, s.LoadModel(context.Background(), testSkin("a")))

	deadline := time.Now().Add(5 * time.Second)
	for s.Loading() && time.Now().Before(deadline) {
		s.Update(1.0 / 60)
		time.Sleep(time.Millisecond)
	}
	require.False(t, s.Loading())
	assert.NotNil(t, s.Asset())
}

func TestReloadReleasesPrevious(t *testing.T) {
	s, _, r := newSession(t)
	load(t, s, testSkin("a"))
	first := s.Asset()

	other := testSkin("b")
	other.ModelPath = "models/round.glb"
	load(t, s, other)

	require.Len(t, r.released, 1)
	assert.Same(t, first, r.released[0])
	assert.Equal(t, "models/round.glb", s.Asset().Path)
	assert.Len(t, s.GlassMaterials(), 2, "glass entries are rebuilt, not accumulated")
}

// docLoader builds models through the glTF path so the real loader and
// classifier run. The round model has a different part and camera layout.
type docLoader struct{}

func (docLoader) Load(_ context.Context, path string) (*asset.Asset, error) {
	doc := gltf.NewDocument()
	tri := modeler.WritePosition(doc, [][3]float32{{-1, 0, 0}, {1, 0, 0}, {0, 1, 0}})

	parts := [][2]string{
		{"Frame_Front", "frame_mat"},
		{"Arm_Left", "arm_mat"},
		{"Arm_Text_Right", "arm_mat"},
		{"Lens_L", "Glass_L"},
		{"Lens_R", "Glass_R"},
		{"Interior", "fake"},
	}
	cams := []string{"Cam_Front", "Cam_Lenses", "Cam_Free"}
	if path == "models/round.glb" {
		parts = [][2]string{
			{"Frame_Round", "frame_mat"},
			{"Lens_L", "Glass_L"},
			{"Lens_R", "Glass_R"},
		}
		cams = []string{"Cam_Front", "Cam_Top", "Cam_Free"}
	}

	for _, p := range parts {
		doc.Materials = append(doc.Materials, &gltf.Material{Name: p[1]})
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name: p[0],
			Primitives: []*gltf.Primitive{{
				Attributes: map[string]int{gltf.POSITION: tri},
				Material:   gltf.Index(len(doc.Materials) - 1),
			}},
		})
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: p[0], Mesh: gltf.Index(len(doc.Meshes) - 1)})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	}
	for i, name := range cams {
		doc.Cameras = append(doc.Cameras, &gltf.Camera{Perspective: &gltf.Perspective{Yfov: 0.6, Znear: 0.01}})
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:        name,
			Camera:      gltf.Index(len(doc.Cameras) - 1),
			Translation: [3]float64{0, 0, float64(i + 1)},
		})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	}
	return asset.FromDocument(path, doc)
}

func TestReloadRoundTrip(t *testing.T) {
	loaders := map[string]Loader{
		"assets":   &fakeLoader{fail: map[string]error{}},
		"document": docLoader{},
	}
	for name, l := range loaders {
		t.Run(name, func(t *testing.T) {
			r := &fakeReleaser{}
			s := New(Options{
				Loader:   l,
				Builder:  material.NewBuilder(stubTextures{}, "textures/gradient.jpg"),
				Releaser: r,
			})

			x := testSkin("x")
			y := testSkin("y")
			y.ModelPath = "models/round.glb"

			load(t, s, x)
			presets := s.Camera().Presets()
			counts := s.Asset().RoleCounts()
			glass := len(s.GlassMaterials())

			load(t, s, y)
			assert.NotEqual(t, presets, s.Camera().Presets(), "round model has its own cameras")
			assert.NotEqual(t, counts, s.Asset().RoleCounts())

			load(t, s, x)
			assert.Equal(t, presets, s.Camera().Presets())
			assert.Equal(t, counts, s.Asset().RoleCounts())
			assert.Len(t, s.GlassMaterials(), glass)
			assert.Equal(t, "Cam_Front", s.Camera().Active())
			assert.Len(t, r.released, 2)
		})
	}
}

func TestFakeSurfaceFollowsMeshName(t *testing.T) {
	s, _, _ := newSession(t)
	cfg := testSkin("a")
	load(t, s, cfg)

	a := s.Asset()
	inner := &asset.Mesh{
		ID:           len(a.Meshes),
		Name:         "Frame_Inner",
		MaterialName: "fake",
		Imported:     &material.Material{Name: "fake", Kind: material.Imported},
	}
	inner.Material = inner.Imported
	inner.Role = asset.DefaultClassifier{}.Classify(inner.Name, inner.MaterialName)
	a.Meshes = append(a.Meshes, inner)
	frame := a.Meshes[0]
	interior := a.Meshes[5]

	require.NoError(t, s.ApplyConfig(cfg))
	assert.Same(t, frame.Material, inner.Material, "named frame surface takes the frame material")
	assert.Same(t, interior.Imported, interior.Material, "unnamed fake surface keeps its import")

	withFake := testSkin("jeans")
	withFake.FakeInterior = &skin.FakeInterior{TexturePath: "textures/fake.jpg"}
	require.NoError(t, s.ApplyConfig(withFake))
	assert.Equal(t, material.Diffuse, inner.Material.Kind)
	assert.Same(t, interior.Material, inner.Material)

	require.NoError(t, s.ApplyConfig(cfg))
	assert.Same(t, frame.Material, inner.Material)
}

func TestLoadFailureKeepsScene(t *testing.T) {
	s, l, r := newSession(t)
	cfg := testSkin("a")
	load(t, s, cfg)
	before := s.Asset()
	glass := s.GlassMaterials()

	bad := testSkin("broken")
	bad.ModelPath = "models/broken.glb"
	l.fail["models/broken.glb"] = errors.New("truncated file")

	require.NoError(t, s.LoadModel(context.Background(), bad))
	err := s.AwaitLoad(context.Background())

	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "models/broken.glb", lerr.Path)
	assert.Same(t, lerr, s.LastError())

	assert.Same(t, before, s.Asset())
	assert.Same(t, cfg, s.Config())
	assert.Equal(t, glass, s.GlassMaterials())
	assert.Empty(t, r.released)
	assert.Equal(t, "Cam_Front", s.Camera().Active())

	// The next good load clears the error.
	other := testSkin("c")
	other.ModelPath = "models/round.glb"
	load(t, s, other)
	assert.NoError(t, s.LastError())
}

func TestApplyConfigWithoutAsset(t *testing.T) {
	s, _, _ := newSession(t)
	assert.ErrorIs(t, s.ApplyConfig(testSkin("a")), ErrNoAsset)
	assert.ErrorIs(t, s.AwaitLoad(context.Background()), ErrNoPendingLoad)
}

func TestApplyConfigAssignsMaterials(t *testing.T) {
	s, _, _ := newSession(t)
	cfg := testSkin("a")
	load(t, s, cfg)
	m := s.Asset().Meshes

	assert.Same(t, m[0].Material, m[1].Material, "frame and plain arms share the frame material")
	assert.Equal(t, material.Standard, m[0].Material.Kind)
	require.NotNil(t, m[2].Material.Overlay)
	assert.Equal(t, "textures/arms.png", m[2].Material.Overlay.Map.Path)
	assert.Same(t, m[5].Imported, m[5].Material, "no fake interior keeps the imported material")
	assert.Same(t, m[6].Imported, m[6].Material)

	translucent := testSkin("sapphire")
	translucent.Frame.Translucent = true
	translucent.FakeInterior = &skin.FakeInterior{TexturePath: "textures/fake.jpg"}
	require.NoError(t, s.ApplyConfig(translucent))

	assert.Equal(t, material.Physical, m[0].Material.Kind)
	assert.Equal(t, material.Diffuse, m[5].Material.Kind)
	assert.Equal(t, "textures/fake.jpg", m[5].Material.Map.Path)

	require.NoError(t, s.ApplyConfig(cfg))
	assert.Same(t, m[5].Imported, m[5].Material, "dropping the fake interior restores the import")
}

func TestApplyConfigIsIdempotent(t *testing.T) {
	s, _, _ := newSession(t)
	cfg := testSkin("a")
	load(t, s, cfg)
	glass := s.GlassMaterials()
	snapshot := *glass[0]

	require.NoError(t, s.ApplyConfig(cfg))
	require.NoError(t, s.ApplyConfig(cfg))

	after := s.GlassMaterials()
	require.Len(t, after, len(glass))
	for i := range glass {
		assert.Same(t, glass[i], after[i], "glass materials are updated in place")
	}
	assert.Equal(t, snapshot.Color, after[0].Color)
	assert.Equal(t, snapshot.Opacity, after[0].Opacity)
}

func TestApplyConfigUpdatesGlass(t *testing.T) {
	s, _, _ := newSession(t)
	load(t, s, testSkin("a"))

	clearSkin := testSkin("clear")
	clearSkin.Glass.Opacity = 0.15
	clearSkin.Glass.Gradient = true
	clearSkin.Logo.TexturePath = "textures/logo_clear.jpg"
	require.NoError(t, s.ApplyConfig(clearSkin))

	for _, m := range s.GlassMaterials() {
		assert.Equal(t, float32(0.15), m.Opacity)
		assert.Equal(t, "textures/gradient.jpg", m.AlphaMap.Path)
		assert.Equal(t, "textures/logo_clear.jpg", m.EmissiveMap.Path)
	}
}

func TestGlassAnimationScenario(t *testing.T) {
	s, _, _ := newSession(t)
	load(t, s, testSkin("a"))

	require.True(t, s.SwitchCamera("Cam_Lenses"))
	s.Update(1.0)
	assert.Equal(t, anim.ToClear, s.GlassPhase())
	s.Update(0.75)

	for _, m := range s.GlassMaterials() {
		assert.InDelta(t, 0.45, m.Opacity, 1e-6)
		for i := 0; i < 3; i++ {
			assert.InDelta(t, 0.5, m.Color[i], 1e-6)
		}
	}
	assert.True(t, s.GlassAnimating())
}

func TestGlassNotAnimatedOffCamera(t *testing.T) {
	s, _, _ := newSession(t)
	load(t, s, testSkin("a"))

	s.Update(3)
	assert.Equal(t, anim.WaitDark, s.GlassPhase())
	assert.False(t, s.GlassAnimating())
	assert.Equal(t, float32(0.9), s.GlassMaterials()[0].Opacity)
}

func TestGlassResetsWhenCameraLeaves(t *testing.T) {
	s, _, _ := newSession(t)
	load(t, s, testSkin("a"))

	s.SwitchCamera("Cam_Lenses")
	s.Update(1.0)
	s.Update(0.5)
	require.Less(t, s.GlassMaterials()[0].Opacity, float32(0.9))

	s.SwitchCamera("Cam_Front")
	s.Update(0.01)
	assert.Equal(t, anim.WaitDark, s.GlassPhase())
	assert.Equal(t, 0.0, s.cycle.Elapsed())
	for _, m := range s.GlassMaterials() {
		assert.Equal(t, float32(0.9), m.Opacity)
		assert.Equal(t, skin.RGB{0, 0, 0}, m.Color)
	}
}

func TestApplyConfigResetsAnimation(t *testing.T) {
	s, _, _ := newSession(t)
	cfg := testSkin("a")
	load(t, s, cfg)

	s.SwitchCamera("Cam_Lenses")
	s.Update(2.6)
	require.Equal(t, anim.WaitClear, s.GlassPhase())

	require.NoError(t, s.ApplyConfig(cfg))
	assert.Equal(t, anim.WaitDark, s.GlassPhase())
	assert.Equal(t, float32(0.9), s.GlassMaterials()[0].Opacity)

	// Still on the gating camera, so the cycle restarts from the beginning.
	s.Update(0.5)
	assert.Equal(t, anim.WaitDark, s.GlassPhase())
	assert.True(t, s.GlassAnimating())
}

func TestSelectSkin(t *testing.T) {
	s, l, _ := newSession(t)
	ctx := context.Background()

	require.NoError(t, s.SelectSkin(ctx, testSkin("a")))
	require.NoError(t, s.AwaitLoad(ctx))

	// Same model: applied synchronously without a reload.
	require.NoError(t, s.SelectSkin(ctx, testSkin("b")))
	assert.False(t, s.Loading())
	assert.Equal(t, "b", s.Config().Name)

	other := testSkin("c")
	other.ModelPath = "models/round.glb"
	require.NoError(t, s.SelectSkin(ctx, other))
	assert.True(t, s.Loading())
	require.NoError(t, s.AwaitLoad(ctx))

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Equal(t, []string{"models/wayfarer.glb", "models/round.glb"}, l.calls)
}

func TestUnload(t *testing.T) {
	s, _, r := newSession(t)
	load(t, s, testSkin("a"))

	s.Unload()
	s.Unload()
	assert.Len(t, r.released, 1)
	assert.Nil(t, s.Asset())
	assert.Nil(t, s.Config())
	assert.Empty(t, s.GlassMaterials())
	assert.Empty(t, s.Camera().Presets())
	assert.ErrorIs(t, s.ApplyConfig(testSkin("a")), ErrNoAsset)
}

func TestUnloadAbandonsPendingLoad(t *testing.T) {
	s, l, _ := newSession(t)
	l.gate = make(chan struct{})
	defer close(l.gate)

	require.NoError(t, s.LoadModel(context.Background(), testSkin("a")))
	s.Unload()
	assert.False(t, s.Loading())
	assert.NoError(t, s.LoadModel(context.Background(), testSkin("a")), "a new load is accepted")
}

func TestUnknownCameraIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s := New(Options{
		Loader:  &fakeLoader{},
		Builder: material.NewBuilder(stubTextures{}, ""),
		Logger:  zap.New(core),
	})
	cfg := testSkin("a")
	cfg.StartCamera = "Cam_Missing"
	load(t, s, cfg)

	assert.Equal(t, "", s.Camera().Active())
	assert.False(t, s.SwitchCamera("Cam_Other"))
	assert.Equal(t, 2, logs.FilterMessage("unknown camera").Len())
}
