package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagSensor     = flag.String("sensor", "", "Sensor provider: sim, iio or icm20948")
	flagRenderMode = flag.String("render-mode", "", "Render mode: on_demand or continuous")
	flagSmooth     = flag.Bool("smooth", false, "Enable attitude smoothing")
	flagMetrics    = flag.String("metrics", "", "Prometheus listen address, e.g. :9102")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
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
	if *flagSensor != "" {
		cfg.Sensor.Provider = *flagSensor
	}
	if *flagRenderMode != "" {
		cfg.Graphics.RenderMode = *flagRenderMode
	}
	if *flagSmooth {
		cfg.Attitude.Smoothing = true
	}
	if *flagMetrics != "" {
		cfg.Metrics.Listen = *flagMetrics
	}
}
