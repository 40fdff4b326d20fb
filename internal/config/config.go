// Package config handles viewer configuration loading and management.
package config

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Camera   CameraConfig   `yaml:"camera"`
	Scene    SceneConfig    `yaml:"scene"`
	Debug    DebugConfig    `yaml:"debug"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	Fullscreen bool       `yaml:"fullscreen"`
	VSync      bool       `yaml:"vsync"`
	ClearColor [4]float32 `yaml:"clear_color"`
}

// CameraConfig holds the initial camera placement and projection.
type CameraConfig struct {
	Position        [3]float32 `yaml:"position"`
	Target          [3]float32 `yaml:"target"`
	FOVDegrees      float32    `yaml:"fov_degrees"`
	Near            float32    `yaml:"near"`
	Far             float32    `yaml:"far"`
	Orbit           bool       `yaml:"orbit"`            // mouse drag orbits, wheel zooms
	DragSensitivity float32    `yaml:"drag_sensitivity"` // radians per pixel
	ZoomSensitivity float32    `yaml:"zoom_sensitivity"` // fraction of distance per wheel step
}

// SceneConfig selects what gets rendered.
type SceneConfig struct {
	Demo     string `yaml:"demo"`      // built-in scene name, used when File is empty
	File     string `yaml:"file"`      // scene description (.yaml, .yml or .toml)
	AssetDir string `yaml:"asset_dir"` // base directory for model and texture paths
}

// DebugConfig holds developer switches.
type DebugConfig struct {
	LogFPS        bool   `yaml:"log_fps"`
	ScreenshotDir string `yaml:"screenshot_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			ClearColor: [4]float32{0, 0, 0, 1},
		},
		Camera: CameraConfig{
			Position:        [3]float32{0, 0, 5},
			Target:          [3]float32{0, 0, 0},
			FOVDegrees:      45,
			Near:            0.1,
			Far:             100,
			Orbit:           true,
			DragSensitivity: 0.005,
			ZoomSensitivity: 0.1,
		},
		Scene: SceneConfig{
			Demo:     "bunny",
			AssetDir: ".",
		},
		Debug: DebugConfig{
			ScreenshotDir: "screenshots",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
