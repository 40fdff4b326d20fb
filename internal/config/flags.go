package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging and FPS output")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagScene      = flag.String("scene", "", "Scene description file (.yaml or .toml)")
	flagDemo       = flag.String("demo", "", "Built-in demo scene name")
	flagAssets     = flag.String("assets", "", "Base directory for models and textures")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ParseArgs parses args instead of os.Args.
func ParseArgs(args []string) error {
	return flag.CommandLine.Parse(args)
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Debug.LogFPS = true
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	if *flagDemo != "" {
		cfg.Scene.Demo = *flagDemo
		cfg.Scene.File = ""
	}
	if *flagScene != "" {
		cfg.Scene.File = *flagScene
	}
	if *flagAssets != "" {
		cfg.Scene.AssetDir = *flagAssets
	}
}
