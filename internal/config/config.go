// Package config handles application configuration loading and management.
package config

import "time"

// Render modes for GraphicsConfig.RenderMode.
const (
	RenderOnDemand   = "on_demand"
	RenderContinuous = "continuous"
)

// Sensor providers for SensorConfig.Provider.
const (
	ProviderSim      = "sim"
	ProviderIIO      = "iio"
	ProviderICM20948 = "icm20948" // ICM-20948 over Linux i2c-dev
)

// Config holds all settings.
type Config struct {
	Graphics    GraphicsConfig    `yaml:"graphics"`
	Scene       SceneConfig       `yaml:"scene"`
	Lighting    LightingConfig    `yaml:"lighting"`
	Attitude    AttitudeConfig    `yaml:"attitude"`
	Sensor      SensorConfig      `yaml:"sensor"`
	Textures    TexturesConfig    `yaml:"textures"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// GraphicsConfig holds display and render loop settings.
type GraphicsConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
	RenderMode string `yaml:"render_mode"` // on_demand or continuous
	FPSLimit   int    `yaml:"fps_limit"`   // continuous mode only, 0 = vsync paced
}

// SceneConfig describes the sphere and the fixed camera.
type SceneConfig struct {
	LatBands   int        `yaml:"lat_bands"`
	LonBands   int        `yaml:"lon_bands"`
	Radius     float32    `yaml:"radius"`
	ClearColor [4]float32 `yaml:"clear_color"`
	Eye        [3]float32 `yaml:"eye"`
	FovYDeg    float32    `yaml:"fov_y_deg"`
	Near       float32    `yaml:"near"`
	Far        float32    `yaml:"far"`
}

// LightingConfig holds the single light and the sphere material.
type LightingConfig struct {
	Light    LightConfig    `yaml:"light"`
	Material MaterialConfig `yaml:"material"`
}

// LightConfig mirrors a fixed-function light source.
type LightConfig struct {
	Position      [4]float32 `yaml:"position"` // w=0 directional, w=1 positional
	Ambient       [4]float32 `yaml:"ambient"`
	Diffuse       [4]float32 `yaml:"diffuse"`
	Specular      [4]float32 `yaml:"specular"`
	SpotDirection [3]float32 `yaml:"spot_direction"`
	SpotCutoff    float32    `yaml:"spot_cutoff"` // degrees, 180 disables the cone
	SpotExponent  float32    `yaml:"spot_exponent"`
	Attenuation   [3]float32 `yaml:"attenuation"` // constant, linear, quadratic
}

// MaterialConfig mirrors a fixed-function material.
type MaterialConfig struct {
	Ambient   [4]float32 `yaml:"ambient"`
	Diffuse   [4]float32 `yaml:"diffuse"`
	Specular  [4]float32 `yaml:"specular"`
	Shininess float32    `yaml:"shininess"`
}

// AttitudeConfig holds attitude smoothing and calibration settings.
type AttitudeConfig struct {
	Smoothing             bool    `yaml:"smoothing"`
	Damping               float32 `yaml:"damping"`   // fraction of the remaining arc per frame
	Threshold             float32 `yaml:"threshold"` // radians
	InitialCalibrationDeg float32 `yaml:"initial_calibration_deg"`
}

// SensorConfig selects and tunes the sensor provider.
type SensorConfig struct {
	Provider     string        `yaml:"provider"`
	InvertAxes   bool          `yaml:"invert_axes"`
	IIOPath      string        `yaml:"iio_path"`
	I2CBus       string        `yaml:"i2c_bus"`
	I2CAddress   uint16        `yaml:"i2c_address"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Sim          SimConfig     `yaml:"sim"`
}

// SimConfig tunes the synthetic sensor provider.
type SimConfig struct {
	GravityInterval  time.Duration `yaml:"gravity_interval"`
	MagneticInterval time.Duration `yaml:"magnetic_interval"`
	SpinDegPerSec    float32       `yaml:"spin_deg_per_sec"`
	TiltDeg          float32       `yaml:"tilt_deg"`
}

// TexturesConfig lists texture files by slot and where to find them.
type TexturesConfig struct {
	Files     []string `yaml:"files"`
	AssetDirs []string `yaml:"asset_dirs"`
}

// CalibrationConfig holds the calibration prompt settings.
type CalibrationConfig struct {
	PromptOnStart bool   `yaml:"prompt_on_start"`
	Message       string `yaml:"message"`
}

// MetricsConfig holds Prometheus endpoint settings.
type MetricsConfig struct {
	Listen string `yaml:"listen"` // empty disables the endpoint
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
			Width:      800,
			Height:     800,
			Fullscreen: false,
			VSync:      true,
			RenderMode: RenderOnDemand,
			FPSLimit:   0,
		},
		Scene: SceneConfig{
			LatBands:   60,
			LonBands:   60,
			Radius:     10,
			ClearColor: [4]float32{1, 1, 1, 1},
			Eye:        [3]float32{0, 0, 30},
			FovYDeg:    60,
			Near:       0.1,
			Far:        100,
		},
		Lighting: LightingConfig{
			Light: LightConfig{
				Position:      [4]float32{10, 10, 30, 1},
				Ambient:       [4]float32{0.2, 0.2, 0.2, 1},
				Diffuse:       [4]float32{0.7, 0.7, 0.7, 1},
				Specular:      [4]float32{1, 1, 1, 1},
				SpotDirection: [3]float32{0, 0, -1},
				SpotCutoff:    45,
				SpotExponent:  5,
				Attenuation:   [3]float32{0.5, 0.1, 0},
			},
			Material: MaterialConfig{
				Ambient:   [4]float32{0.8, 0.8, 0.8, 1},
				Diffuse:   [4]float32{0.8, 0.8, 0.8, 1},
				Specular:  [4]float32{1, 1, 1, 1},
				Shininess: 6,
			},
		},
		Attitude: AttitudeConfig{
			Smoothing:             false,
			Damping:               0.7,
			Threshold:             0.001,
			InitialCalibrationDeg: 90,
		},
		Sensor: SensorConfig{
			Provider:     ProviderSim,
			InvertAxes:   true,
			IIOPath:      "/sys/bus/iio/devices",
			I2CBus:       "/dev/i2c-1",
			I2CAddress:   0x68,
			PollInterval: 60 * time.Millisecond,
			Sim: SimConfig{
				GravityInterval:  60 * time.Millisecond,
				MagneticInterval: 80 * time.Millisecond,
				SpinDegPerSec:    20,
				TiltDeg:          25,
			},
		},
		Textures: TexturesConfig{
			Files:     []string{"tex_gyro_diffuse.png"},
			AssetDirs: []string{"assets"},
		},
		Calibration: CalibrationConfig{
			PromptOnStart: false,
			Message:       "Hold the device in its neutral pose, then press OK to calibrate.",
		},
		Metrics: MetricsConfig{
			Listen: "",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
