// Package viewer owns the state of one configurator view: the loaded model,
// the applied skin, the camera rig and the lens animation.
package viewer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/eyewear-configurator/internal/anim"
	"github.com/Faultbox/eyewear-configurator/internal/asset"
	"github.com/Faultbox/eyewear-configurator/internal/engine/camera"
	"github.com/Faultbox/eyewear-configurator/internal/material"
	"github.com/Faultbox/eyewear-configurator/internal/skin"
	"github.com/Faultbox/eyewear-configurator/internal/texture"
)

var (
	// ErrLoadInProgress rejects a model load while another is pending.
	ErrLoadInProgress = errors.New("model load already in progress")
	// ErrNoAsset is returned by operations that need a loaded model.
	ErrNoAsset = errors.New("no model loaded")
	// ErrNoPendingLoad is returned by AwaitLoad when nothing is loading.
	ErrNoPendingLoad = errors.New("no model load pending")
)

// LoadError reports a failed model load. The previous model stays in place.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading model %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Loader fetches and parses a model. Load runs on its own goroutine and
// must not touch GPU state.
type Loader interface {
	Load(ctx context.Context, path string) (*asset.Asset, error)
}

// Releaser frees the GPU resources of a model. It is called on the render
// thread before a replacement is installed.
type Releaser interface {
	Release(a *asset.Asset)
}

// TexturePoller publishes finished texture decodes. *texture.Cache
// implements it.
type TexturePoller interface {
	Poll() []*texture.Texture
}

// Options configures a Session.
type Options struct {
	Loader     Loader
	Builder    *material.Builder
	Releaser   Releaser
	Textures   TexturePoller
	Classifier asset.Classifier
	Logger     *zap.Logger
}

type glassEntry struct {
	mesh        *asset.Mesh
	mat         *material.Material
	restColor   skin.RGB
	restOpacity float32
}

type loadResult struct {
	asset *asset.Asset
	err   error
}

type pendingLoad struct {
	cfg    *skin.Config
	done   chan loadResult
	cancel context.CancelFunc
}

// Session is the single owner of the view state. All methods must be called
// from the render thread; model loads run in the background and are
// installed by Update or AwaitLoad.
type Session struct {
	log        *zap.Logger
	loader     Loader
	builder    *material.Builder
	releaser   Releaser
	textures   TexturePoller
	classifier asset.Classifier

	asset  *asset.Asset
	config *skin.Config
	rig    *camera.Rig

	glass        []*glassEntry
	cycle        anim.GlassCycle
	animEnabled  bool
	gatingCamera string
	wasGated     bool

	pending *pendingLoad
	lastErr error
}

// New creates an empty session.
func New(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Classifier == nil {
		opts.Classifier = asset.DefaultClassifier{}
	}
	return &Session{
		log:        opts.Logger,
		loader:     opts.Loader,
		builder:    opts.Builder,
		releaser:   opts.Releaser,
		textures:   opts.Textures,
		classifier: opts.Classifier,
		rig:        camera.NewRig(opts.Logger.Named("camera")),
	}
}

// SelectSkin shows cfg, loading its model first when it differs from the
// one on screen.
func (s *Session) SelectSkin(ctx context.Context, cfg *skin.Config) error {
	if s.pending != nil {
		return ErrLoadInProgress
	}
	if s.asset == nil || s.asset.Path != cfg.ModelPath {
		return s.LoadModel(ctx, cfg)
	}
	return s.ApplyConfig(cfg)
}

// LoadModel starts loading cfg's model in the background. It returns
// ErrLoadInProgress if a load is already pending. The result is installed
// by the next Update or by AwaitLoad.
func (s *Session) LoadModel(ctx context.Context, cfg *skin.Config) error {
	if s.pending != nil {
		s.log.Warn("rejecting model load, another is pending",
			zap.String("requested", cfg.ModelPath),
			zap.String("pending", s.pending.cfg.ModelPath))
		return ErrLoadInProgress
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &pendingLoad{cfg: cfg, done: make(chan loadResult, 1), cancel: cancel}
	s.pending = p
	s.log.Info("loading model", zap.String("skin", cfg.Name), zap.String("path", cfg.ModelPath))

	go func() {
		a, err := s.loader.Load(ctx, cfg.ModelPath)
		p.done <- loadResult{asset: a, err: err}
	}()
	return nil
}

// Loading reports whether a model load is pending.
func (s *Session) Loading() bool {
	return s.pending != nil
}

// AwaitLoad blocks until the pending load finishes and installs it.
func (s *Session) AwaitLoad(ctx context.Context) error {
	p := s.pending
	if p == nil {
		return ErrNoPendingLoad
	}
	select {
	case res := <-p.done:
		return s.finishLoad(p, res)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) pollLoad() {
	p := s.pending
	if p == nil {
		return
	}
	select {
	case res := <-p.done:
		_ = s.finishLoad(p, res)
	default:
	}
}

func (s *Session) finishLoad(p *pendingLoad, res loadResult) error {
	s.pending = nil
	p.cancel()

	if res.err == nil && res.asset == nil {
		res.err = errors.New("loader returned no model")
	}
	if res.err != nil {
		err := &LoadError{Path: p.cfg.ModelPath, Err: res.err}
		s.lastErr = err
		s.log.Error("model load failed, keeping current scene", zap.Error(err))
		return err
	}

	s.install(res.asset, p.cfg)
	s.lastErr = nil
	return nil
}

// install swaps in a parsed model. Nothing is touched before this point, so
// a failed load leaves the previous scene intact.
func (s *Session) install(a *asset.Asset, cfg *skin.Config) {
	s.release()

	a.Classify(s.classifier)
	s.asset = a

	presets := make(map[string]camera.Preset, len(a.Cameras))
	for name, c := range a.Cameras {
		presets[name] = camera.Preset{
			Name:   name,
			Pose:   camera.Pose{Position: c.Position, Rotation: c.Rotation},
			FOV:    c.FOV,
			Target: c.Target,
		}
	}
	s.rig.SetPresets(presets, cfg.FreeCamera)

	for _, m := range a.ByRole(asset.RoleGlass) {
		mat := s.builder.Glass(nil, cfg.Glass, cfg.Logo)
		m.Material = mat
		s.glass = append(s.glass, &glassEntry{
			mesh:        m,
			mat:         mat,
			restColor:   cfg.Glass.Color,
			restOpacity: cfg.Glass.Opacity,
		})
	}
	s.cycle.Reset()
	s.wasGated = false

	counts := a.RoleCounts()
	s.log.Info("model installed",
		zap.String("path", a.Path),
		zap.Int("meshes", len(a.Meshes)),
		zap.Int("glass", counts[asset.RoleGlass]),
		zap.Int("frame", counts[asset.RoleFrame]),
		zap.Int("arm_text", counts[asset.RoleArmText]),
		zap.Strings("cameras", a.CameraNames()))

	s.rig.Switch(cfg.StartCamera)
	// Cannot fail: the asset is installed.
	_ = s.ApplyConfig(cfg)
}

// ApplyConfig re-materials the loaded model for cfg without reloading it.
func (s *Session) ApplyConfig(cfg *skin.Config) error {
	if s.asset == nil {
		return ErrNoAsset
	}

	frame := s.builder.Frame(cfg.Frame)
	armText := s.builder.ArmText(cfg)
	var fake *material.Material
	if cfg.FakeInterior != nil {
		fake = s.builder.FakeInterior(*cfg.FakeInterior)
	}

	for _, m := range s.asset.Meshes {
		role := m.Role
		if asset.IsFake(m.MaterialName) {
			if fake != nil {
				m.Material = fake
				continue
			}
			// Without a fake texture the surface is drawn as the part its
			// name says it is.
			role = asset.RoleByName(m.Name)
			m.Material = m.Imported
		}
		switch role {
		case asset.RoleFrame, asset.RoleArmNoText:
			m.Material = frame
		case asset.RoleArmText:
			m.Material = armText
		}
	}

	for _, e := range s.glass {
		s.builder.Glass(e.mat, cfg.Glass, cfg.Logo)
		e.mesh.Material = e.mat
		e.restColor = cfg.Glass.Color
		e.restOpacity = cfg.Glass.Opacity
	}

	s.config = cfg
	s.animEnabled = cfg.Glass.Animate
	s.gatingCamera = cfg.Glass.AnimateCamera
	s.rig.SetFree(cfg.FreeCamera)
	s.cycle.Reset()
	s.wasGated = false
	s.snapGlassToRest()

	s.log.Debug("config applied", zap.String("skin", cfg.Name), zap.Bool("animate", cfg.Glass.Animate))
	return nil
}

// SwitchCamera moves to a named camera of the loaded model.
func (s *Session) SwitchCamera(name string) bool {
	return s.rig.Switch(name)
}

// Update runs one frame of view logic: it installs a finished model load,
// publishes decoded textures, moves the camera and steps the lens cycle.
func (s *Session) Update(dt float64) {
	s.pollLoad()
	if s.textures != nil {
		s.textures.Poll()
	}
	s.rig.Update(dt)
	s.updateGlass(dt)
}

func (s *Session) updateGlass(dt float64) {
	gated := s.animEnabled && len(s.glass) > 0 && s.rig.Active() == s.gatingCamera
	switch {
	case gated:
		s.cycle.Advance(dt)
		k := s.cycle.Clearness()
		kf := float32(k)
		for _, e := range s.glass {
			e.mat.Color = e.restColor.Lerp(skin.White, kf)
			e.mat.Opacity = (1 - kf) * e.restOpacity
		}
	case s.wasGated:
		s.cycle.Reset()
		s.snapGlassToRest()
	}
	s.wasGated = gated
}

func (s *Session) snapGlassToRest() {
	for _, e := range s.glass {
		e.mat.Color = e.restColor
		e.mat.Opacity = e.restOpacity
	}
}

// Unload releases the current model and clears all derived state. A pending
// load is abandoned. Calling it with nothing loaded is a no-op.
func (s *Session) Unload() {
	if s.pending != nil {
		s.pending.cancel()
		s.pending = nil
	}
	s.release()
	s.config = nil
}

func (s *Session) release() {
	if s.asset != nil {
		if s.releaser != nil {
			s.releaser.Release(s.asset)
		}
		s.log.Debug("model released", zap.String("path", s.asset.Path))
	}
	s.asset = nil
	s.glass = nil
	s.cycle.Reset()
	s.wasGated = false
	s.animEnabled = false
	s.gatingCamera = ""
	s.rig.Clear()
}

// Asset returns the installed model, or nil.
func (s *Session) Asset() *asset.Asset {
	return s.asset
}

// Config returns the applied skin, or nil.
func (s *Session) Config() *skin.Config {
	return s.config
}

// Camera returns the camera rig.
func (s *Session) Camera() *camera.Rig {
	return s.rig
}

// LastError returns the error of the most recent failed load, cleared by
// the next successful one.
func (s *Session) LastError() error {
	return s.lastErr
}

// GlassPhase returns the lens cycle phase.
func (s *Session) GlassPhase() anim.Phase {
	return s.cycle.Phase()
}

// GlassAnimating reports whether the lens cycle ran on the last update.
func (s *Session) GlassAnimating() bool {
	return s.wasGated
}

// GlassMaterials returns the live lens materials.
func (s *Session) GlassMaterials() []*material.Material {
	out := make([]*material.Material, len(s.glass))
	for i, e := range s.glass {
		out[i] = e.mat
	}
	return out
}
