package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/scenery/internal/config"
	"github.com/Faultbox/scenery/internal/engine/input"
	"github.com/Faultbox/scenery/internal/logger"
	"github.com/Faultbox/scenery/internal/scenes"
)

func TestLoadDescription(t *testing.T) {
	cfg := config.Default()

	d, err := LoadDescription(cfg.Scene)
	require.NoError(t, err)
	assert.Equal(t, "bunny", d.Name)

	cfg.Scene.Demo = "marble"
	d, err = LoadDescription(cfg.Scene)
	require.NoError(t, err)
	assert.Equal(t, "marble", d.Name)

	path := filepath.Join(t.TempDir(), "mine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: mine\n"), 0644))
	cfg.Scene.File = path
	d, err = LoadDescription(cfg.Scene)
	require.NoError(t, err)
	assert.Equal(t, "mine", d.Name)

	cfg.Scene.File = ""
	cfg.Scene.Demo = "missing"
	_, err = LoadDescription(cfg.Scene)
	assert.ErrorIs(t, err, scenes.ErrInvalidScene)
}

func TestNewCamera(t *testing.T) {
	cfg := config.Default().Camera
	c := NewCamera(cfg)

	p := c.Position()
	assert.InDelta(t, cfg.Position[0], p.X, 1e-5)
	assert.InDelta(t, cfg.Position[1], p.Y, 1e-5)
	assert.InDelta(t, cfg.Position[2], p.Z, 1e-5)
	assert.InDelta(t, 0.785398, c.FOVY, 1e-5)
	assert.Equal(t, cfg.Near, c.Near)
	assert.Equal(t, cfg.Far, c.Far)

	cfg.Position = [3]float32{0, 0, 80}
	c = NewCamera(cfg)
	assert.InDelta(t, 80, c.Distance, 1e-4, "a distant start widens the zoom range")
}

func TestHandle(t *testing.T) {
	cfg := config.Default()
	a := &App{cfg: cfg, camera: NewCamera(cfg.Camera), pending: make(chan *scenes.Description, 1)}

	a.handle(input.Event{Type: input.EventKeyDown, Key: sdl.SCANCODE_SPACE})
	assert.False(t, a.capture)
	a.handle(input.Event{Type: input.EventKeyDown, Key: sdl.SCANCODE_F12})
	assert.True(t, a.capture, "F12 captures the next frame")

	before := a.camera.RotationY
	a.handle(input.Event{Type: input.EventDrag, DX: 100})
	assert.NotEqual(t, before, a.camera.RotationY)

	cfg.Camera.Orbit = false
	before = a.camera.Distance
	a.handle(input.Event{Type: input.EventWheel, DY: 1})
	assert.Equal(t, before, a.camera.Distance, "orbit disabled ignores the wheel")
}

func TestDigitKeysQueueDemos(t *testing.T) {
	a := &App{cfg: config.Default(), pending: make(chan *scenes.Description, 1)}

	a.handle(input.Event{Type: input.EventKeyDown, Key: sdl.SCANCODE_2})
	a.handle(input.Event{Type: input.EventKeyDown, Key: sdl.SCANCODE_4})
	a.handle(input.Event{Type: input.EventKeyDown, Key: sdl.SCANCODE_9})

	require.Len(t, a.pending, 1, "only the latest request is kept")
	d := <-a.pending
	assert.Equal(t, scenes.Demos()[3], d.Name)
}

func TestOpenSceneDialog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picked.toml")
	require.NoError(t, os.WriteFile(path, []byte("name = \"picked\"\n"), 0644))

	a := &App{
		cfg:        config.Default(),
		pending:    make(chan *scenes.Description, 1),
		chooseFile: func() (string, error) { return path, nil },
	}
	a.handle(input.Event{Type: input.EventKeyDown, Key: sdl.SCANCODE_O})

	select {
	case d := <-a.pending:
		assert.Equal(t, "picked", d.Name)
	case <-time.After(time.Second):
		t.Fatal("no scene queued")
	}
}

func TestFPSMeterLogsAtDebug(t *testing.T) {
	saved := logger.Log
	defer func() { logger.Log = saved }()
	core, logs := observer.New(zapcore.DebugLevel)
	logger.Log = zap.New(core)

	start := time.Unix(0, 0)
	m := fpsMeter{start: start}
	for i := 1; i <= 59; i++ {
		m.frame(start.Add(time.Duration(i)*16*time.Millisecond), 0.016)
	}
	assert.Zero(t, logs.Len(), "nothing before a second has passed")

	m.frame(start.Add(time.Second), 0.016)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "fps", entry.Message)
	assert.Equal(t, zapcore.DebugLevel, entry.Level)
	assert.Equal(t, int64(60), entry.ContextMap()["count"])
	assert.Zero(t, m.frames)
}
