// Package app runs the configurator window: input, view updates and drawing.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/eyewear-configurator/internal/asset"
	"github.com/Faultbox/eyewear-configurator/internal/config"
	"github.com/Faultbox/eyewear-configurator/internal/engine/debug"
	"github.com/Faultbox/eyewear-configurator/internal/engine/input"
	"github.com/Faultbox/eyewear-configurator/internal/engine/lighting"
	"github.com/Faultbox/eyewear-configurator/internal/engine/picking"
	"github.com/Faultbox/eyewear-configurator/internal/engine/renderer"
	"github.com/Faultbox/eyewear-configurator/internal/engine/window"
	"github.com/Faultbox/eyewear-configurator/internal/logger"
	"github.com/Faultbox/eyewear-configurator/internal/material"
	"github.com/Faultbox/eyewear-configurator/internal/skin"
	"github.com/Faultbox/eyewear-configurator/internal/texture"
	"github.com/Faultbox/eyewear-configurator/internal/ui"
	"github.com/Faultbox/eyewear-configurator/internal/viewer"
)

// Title is the application name shown in the window title.
const Title = "Eyewear Configurator"

const contrastStep = 0.05

// App is the configurator instance.
type App struct {
	config  *config.Config
	log     *zap.Logger
	running bool

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	keymap   *ui.Keymap

	textures *texture.Cache
	session  *viewer.Session
	store    *skin.Store
	watcher  *skin.Watcher
	shots    *debug.ScreenshotCapture

	// current is the index of the last selected skin, -1 before the first.
	current  int
	contrast float32
	title    string
	fps      int
}

// New creates the window, GPU renderer and view session for store.
func New(cfg *config.Config, store *skin.Store) (*App, error) {
	a := &App{
		config:   cfg,
		log:      logger.Named("app"),
		store:    store,
		current:  -1,
		contrast: cfg.Graphics.Contrast,
	}
	a.log.Info("initializing configurator",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.String("assets", cfg.Assets.Root),
		zap.Int("skins", store.Len()),
	)

	var err error
	a.window, err = window.New(window.Config{
		Title:      Title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The renderer works in drawable pixels, which differ from window
	// coordinates on high-DPI displays.
	dw, dh := a.window.DrawableSize()
	a.renderer, err = renderer.New(renderer.Config{
		Width:      dw,
		Height:     dh,
		Background: cfg.Graphics.Background,
		Contrast:   cfg.Graphics.Contrast,
		Lights:     lighting.Studio(),
	})
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	a.input = input.New()
	a.keymap = ui.NewKeymap(cfg.UI.CameraButtons)
	a.shots = debug.NewScreenshotCapture(cfg.Screenshot.Dir, "configurator", cfg.Screenshot.Format)

	assets := os.DirFS(cfg.Assets.Root)
	a.textures = texture.NewCache(assets, texture.Options{
		Workers: int64(cfg.Assets.DecodeWorkers),
		MaxSize: cfg.Assets.MaxTextureSize,
		Logger:  logger.Named("texture"),
	})
	a.session = viewer.New(viewer.Options{
		Loader:   asset.NewLoader(assets, a.textures, logger.Named("asset")),
		Builder:  material.NewBuilder(a.textures, cfg.Assets.GradientTexture),
		Releaser: a.renderer,
		Textures: a.textures,
		Logger:   logger.Named("viewer"),
	})

	if cfg.Assets.WatchSkins && cfg.Assets.SkinsDir != "" {
		a.watcher, err = skin.Watch(cfg.Assets.SkinsDir, skin.DefaultDebounce, logger.Named("skins"))
		if err != nil {
			// Hot reload is a convenience; run without it.
			a.log.Warn("skin watcher disabled", zap.Error(err))
		}
	}

	a.logHelp()
	a.log.Info("configurator initialized")
	return a, nil
}

func (a *App) logHelp() {
	labels := make([]string, 0, a.store.Len())
	for _, cfg := range a.store.List() {
		labels = append(labels, cfg.Label)
	}
	a.log.Info("controls",
		zap.Strings("skins", ui.SkinHelp(labels)),
		zap.Strings("cameras", a.keymap.CameraHelp()),
		zap.String("other", "Tab next skin, right click identifies a part, F11 bounds, F12 screenshot, -/= contrast, Esc quit"),
	)
}

// Run shows the default skin and runs the frame loop until the window is
// closed or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.running = true
	a.selectSkin(ctx, a.initialSkin())

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	a.log.Info("starting frame loop")

	for a.running {
		if ctx.Err() != nil {
			a.log.Info("shutdown requested")
			break
		}

		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		if a.input.Update() {
			break
		}
		screenshot := a.handleEvents(ctx)
		a.drainSkinUpdates(ctx)

		a.session.Update(dt)
		a.renderer.Render(a.session.Asset(), a.session.Camera())

		if screenshot {
			a.captureScreenshot()
		}
		a.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			a.fps = frameCount
			a.log.Debug("fps", zap.Int("count", frameCount), zap.String("dt", fmt.Sprintf("%.2fms", dt*1000)))
			frameCount = 0
			fpsTimer = time.Now()
		}
		a.updateTitle()
	}

	return nil
}

func (a *App) initialSkin() int {
	for i, name := range a.store.Names() {
		if name == a.config.Assets.DefaultSkin {
			return i
		}
	}
	if a.config.Assets.DefaultSkin != "" {
		a.log.Warn("default skin not found, using the first one", zap.String("skin", a.config.Assets.DefaultSkin))
	}
	return 0
}

// handleEvents dispatches this frame's input. It reports whether a
// screenshot was requested, which has to be taken after drawing.
func (a *App) handleEvents(ctx context.Context) bool {
	screenshot := false
	rig := a.session.Camera()

	for _, event := range a.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			dw, dh := a.window.DrawableSize()
			a.renderer.Resize(dw, dh)

		case input.EventMouseMove:
			if a.input.IsButtonDown(sdl.BUTTON_LEFT) {
				rig.HandleDrag(float32(event.RelX), float32(event.RelY))
			}

		case input.EventMouseDown:
			if event.Button == sdl.BUTTON_RIGHT {
				a.identifyPart(event.MouseX, event.MouseY)
			}

		case input.EventMouseWheel:
			rig.HandleZoom(event.WheelY)

		case input.EventKeyDown:
			if event.Repeat {
				continue
			}
			action := a.keymap.Lookup(uint32(event.Key))
			switch action.Kind {
			case ui.ActionSelectSkin:
				a.selectSkin(ctx, action.Index)
			case ui.ActionNextSkin:
				if a.store.Len() > 0 {
					a.selectSkin(ctx, (a.current+1)%a.store.Len())
				}
			case ui.ActionSelectCamera:
				a.session.SwitchCamera(action.Camera)
			case ui.ActionToggleBounds:
				a.renderer.ShowBounds = !a.renderer.ShowBounds
			case ui.ActionScreenshot:
				screenshot = true
			case ui.ActionContrastDown:
				a.setContrast(a.contrast - contrastStep)
			case ui.ActionContrastUp:
				a.setContrast(a.contrast + contrastStep)
			case ui.ActionQuit:
				a.running = false
			}
		}
	}
	return screenshot
}

func (a *App) selectSkin(ctx context.Context, i int) {
	cfg, ok := a.store.At(i)
	if !ok {
		a.log.Debug("no skin at index", zap.Int("index", i))
		return
	}
	err := a.session.SelectSkin(ctx, cfg)
	switch {
	case errors.Is(err, viewer.ErrLoadInProgress):
		a.log.Info("model still loading, selection ignored", zap.String("skin", cfg.Name))
		return
	case err != nil:
		a.log.Error("failed to select skin", zap.String("skin", cfg.Name), zap.Error(err))
		return
	}
	a.current = i
	a.log.Info("skin selected", zap.String("skin", cfg.Name), zap.String("label", cfg.Label))
}

// drainSkinUpdates swaps in a reloaded skin store and re-applies the skin
// on screen so edits show up immediately.
func (a *App) drainSkinUpdates(ctx context.Context) {
	if a.watcher == nil {
		return
	}
	select {
	case store := <-a.watcher.Updates():
		shown := a.session.Config()
		a.store = store
		a.current = -1
		if shown == nil {
			return
		}
		for i, name := range store.Names() {
			if name == shown.Name {
				a.selectSkin(ctx, i)
				return
			}
		}
		a.log.Warn("skin on screen was removed from the catalog", zap.String("skin", shown.Name))
	default:
	}
}

// identifyPart logs the model part under the cursor, which helps when
// checking how a new asset's meshes were classified.
func (a *App) identifyPart(x, y int) {
	w, h := a.window.GetSize()
	rig := a.session.Camera()
	ray := picking.ScreenToRay(float32(x), float32(y), float32(w), float32(h),
		rig.ViewMatrix(), rig.Projection(a.renderer.Aspect()))

	hit, ok := picking.Pick(a.session.Asset(), ray)
	if !ok {
		a.log.Info("no part under cursor")
		return
	}
	a.log.Info("part under cursor",
		zap.String("mesh", hit.Mesh.Name),
		zap.String("material", hit.Mesh.MaterialName),
		zap.Stringer("role", hit.Mesh.Role),
		zap.Float32("distance", hit.Distance))
}

func (a *App) setContrast(c float32) {
	c = min(max(c, 0.5), 2.0)
	a.contrast = c
	a.renderer.SetContrast(c)
	a.log.Debug("contrast", zap.Float32("value", c))
}

func (a *App) captureScreenshot() {
	img := a.renderer.ReadFrame()
	// Encoding takes long enough to drop frames.
	go func() {
		path, err := a.shots.Capture(img)
		if err != nil {
			a.log.Error("screenshot failed", zap.Error(err))
			return
		}
		a.log.Info("screenshot saved", zap.String("path", path))
	}()
}

func (a *App) updateTitle() {
	rig := a.session.Camera()
	status := ui.Status{
		Camera:    rig.Active(),
		Loading:   a.session.Loading(),
		Orbiting:  rig.Orbiting(),
		Animating: a.session.GlassAnimating(),
		Err:       a.session.LastError(),
		FPS:       a.fps,
	}
	if cfg := a.session.Config(); cfg != nil {
		status.Skin = cfg.Label
	}
	if title := ui.Title(Title, status); title != a.title {
		a.title = title
		a.window.SetTitle(title)
	}
}

// Close releases the model, GPU resources and the window.
func (a *App) Close() {
	a.log.Info("closing configurator")

	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.session != nil {
		a.session.Unload()
	}
	if a.textures != nil {
		a.textures.Close()
		hits, misses := a.textures.Stats()
		a.log.Debug("texture cache", zap.Int("hits", hits), zap.Int("misses", misses))
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}
