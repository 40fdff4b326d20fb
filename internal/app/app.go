// Package app runs the viewer: window, frame loop and the active scene.
package app

import (
	"fmt"
	"time"

	"github.com/chewxy/math32"
	"github.com/sqweek/dialog"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/scenery/internal/config"
	"github.com/Faultbox/scenery/internal/engine/camera"
	"github.com/Faultbox/scenery/internal/engine/debug"
	"github.com/Faultbox/scenery/internal/engine/input"
	"github.com/Faultbox/scenery/internal/engine/renderer"
	"github.com/Faultbox/scenery/internal/engine/scene"
	"github.com/Faultbox/scenery/internal/engine/window"
	"github.com/Faultbox/scenery/internal/logger"
	"github.com/Faultbox/scenery/internal/scenes"
	"github.com/Faultbox/scenery/pkg/math"
)

const title = "Scenery"

// App is the viewer instance.
type App struct {
	cfg      *config.Config
	running  bool
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.OrbitCamera
	scene    *scene.Scene

	screenshots *debug.Screenshots
	capture     bool

	// pending receives descriptions chosen off the main thread. Scenes are
	// only built on the GL thread.
	pending    chan *scenes.Description
	chooseFile func() (string, error)
}

// New opens the window and builds the configured scene.
func New(cfg *config.Config) (*App, error) {
	logger.Info("initializing viewer",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
	)

	desc, err := LoadDescription(cfg.Scene)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:    cfg,
		input:  input.New(),
		camera: NewCamera(cfg.Camera),

		screenshots: debug.NewScreenshots(cfg.Debug.ScreenshotDir, "scenery"),
		pending:     make(chan *scenes.Description, 1),
		chooseFile:  chooseSceneFile,
	}

	// The window creates the OpenGL context everything below needs.
	a.window, err = window.New(window.Config{
		Title:      fmt.Sprintf("%s - %s", title, desc.Name),
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	width, height := a.window.DrawableSize()
	a.renderer, err = renderer.New(renderer.Config{
		Width:      width,
		Height:     height,
		ClearColor: cfg.Graphics.ClearColor,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	a.scene, err = scenes.Build(desc, scenes.NewGLAssets(cfg.Scene.AssetDir))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to build scene %q: %w", desc.Name, err)
	}

	logger.Info("viewer initialized", zap.String("scene", desc.Name))
	return a, nil
}

func chooseSceneFile() (string, error) {
	return dialog.File().
		Filter("Scene descriptions", "yaml", "yml", "toml").
		Filter("All Files", "*").
		Title("Open Scene").
		Load()
}

// openSceneDialog asks for a scene file without blocking the frame loop.
func (a *App) openSceneDialog() {
	go func() {
		path, err := a.chooseFile()
		if err != nil {
			if err != dialog.ErrCancelled {
				logger.Warn("file dialog failed", zap.Error(err))
			}
			return
		}
		desc, err := scenes.LoadFile(path)
		if err != nil {
			logger.Warn("cannot load scene", zap.String("file", path), zap.Error(err))
			return
		}
		a.queue(desc)
	}()
}

// queue hands desc to the frame loop, replacing any earlier request not yet
// picked up.
func (a *App) queue(desc *scenes.Description) {
	for {
		select {
		case a.pending <- desc:
			return
		default:
		}
		select {
		case <-a.pending:
		default:
		}
	}
}

// switchScene replaces the running scene. On failure the current scene
// keeps running.
func (a *App) switchScene(desc *scenes.Description) {
	next, err := scenes.Build(desc, scenes.NewGLAssets(a.cfg.Scene.AssetDir))
	if err != nil {
		logger.Warn("cannot build scene", zap.String("scene", desc.Name), zap.Error(err))
		return
	}
	if a.scene != nil {
		a.scene.Destroy()
	}
	a.scene = next
	a.scene.Start()
	a.window.SetTitle(fmt.Sprintf("%s - %s", title, desc.Name))
}

// LoadDescription reads the scene file if one is configured, otherwise the
// named built-in demo.
func LoadDescription(cfg config.SceneConfig) (*scenes.Description, error) {
	if cfg.File != "" {
		return scenes.LoadFile(cfg.File)
	}
	return scenes.Demo(cfg.Demo)
}

// NewCamera creates the orbit camera described by cfg.
func NewCamera(cfg config.CameraConfig) *camera.OrbitCamera {
	c := camera.NewOrbitCamera()
	c.FOVY = cfg.FOVDegrees * math32.Pi / 180
	c.Near = cfg.Near
	c.Far = cfg.Far
	if cfg.DragSensitivity > 0 {
		c.DragSensitivity = cfg.DragSensitivity
	}
	if cfg.ZoomSensitivity > 0 {
		c.ZoomSensitivity = cfg.ZoomSensitivity
	}
	c.LookAt(math.V3(cfg.Position), math.V3(cfg.Target))
	if c.MaxDistance < c.Distance {
		c.MaxDistance = c.Distance
	}
	return c
}

// Run drives the frame loop until the window closes.
func (a *App) Run() error {
	a.running = true
	a.scene.Start()

	lastTime := time.Now()
	fps := fpsMeter{start: lastTime}

	logger.Info("starting frame loop")

	for a.running {
		// 1. Process input
		if a.input.Update() {
			a.running = false
			break
		}
		for _, event := range a.input.Events() {
			a.handle(event)
		}

		select {
		case desc := <-a.pending:
			a.switchScene(desc)
		default:
		}

		// 2. Frame time
		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		// 3. Camera, animation, render, present
		a.scene.SetCamera(
			a.camera.ViewMatrix(),
			a.camera.ProjectionMatrix(a.renderer.Aspect()),
			a.camera.Position(),
		)
		a.scene.Tick(dt)
		a.renderer.Begin()
		a.scene.Render()
		if a.capture {
			a.capture = false
			a.saveScreenshot()
		}
		a.window.SwapBuffers()

		if a.cfg.Debug.LogFPS {
			fps.frame(time.Now(), dt)
		}
	}

	return nil
}

// fpsMeter logs the frame count once per second at debug level.
type fpsMeter struct {
	frames int
	start  time.Time
}

func (m *fpsMeter) frame(now time.Time, dt float32) {
	m.frames++
	if now.Sub(m.start) < time.Second {
		return
	}
	logger.Debug("fps", zap.Int("count", m.frames), zap.String("dt", fmt.Sprintf("%.2fms", dt*1000)))
	m.frames = 0
	m.start = now
}

func (a *App) handle(event input.Event) {
	switch event.Type {
	case input.EventWindowResize:
		width, height := a.window.DrawableSize()
		a.renderer.Resize(width, height)
	case input.EventDrag:
		if a.cfg.Camera.Orbit {
			a.camera.HandleDrag(event.DX, event.DY)
		}
	case input.EventWheel:
		if a.cfg.Camera.Orbit {
			a.camera.HandleZoom(event.DY)
		}
	case input.EventKeyDown:
		a.handleKey(event.Key)
	}
}

// handleKey maps F12 to a screenshot, O to the open dialog and the digit
// keys to the built-in demos in name order.
func (a *App) handleKey(key sdl.Scancode) {
	switch {
	case key == sdl.SCANCODE_F12:
		a.capture = true
	case key == sdl.SCANCODE_O:
		a.openSceneDialog()
	case key >= sdl.SCANCODE_1 && key <= sdl.SCANCODE_9:
		demos := scenes.Demos()
		i := int(key - sdl.SCANCODE_1)
		if i >= len(demos) {
			return
		}
		desc, err := scenes.Demo(demos[i])
		if err != nil {
			logger.Warn("cannot load demo", zap.String("demo", demos[i]), zap.Error(err))
			return
		}
		a.queue(desc)
	}
}

// saveScreenshot reads the back buffer before it is presented.
func (a *App) saveScreenshot() {
	pixels, width, height := a.renderer.ReadPixels()
	name, err := a.screenshots.Save(pixels, width, height)
	if err != nil {
		logger.Warn("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("file", name))
}

// Close releases the scene, renderer and window.
func (a *App) Close() {
	logger.Info("closing viewer")

	if a.scene != nil {
		a.scene.Destroy()
		a.scene = nil
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}
