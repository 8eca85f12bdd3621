// Package app wires the sensors, attitude state and renderer together and
// runs the render loop on the graphics thread.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	gomath "math"
	"net/http"
	"time"

	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"github.com/Faultbox/gyrosphere/internal/assets"
	"github.com/Faultbox/gyrosphere/internal/attitude"
	"github.com/Faultbox/gyrosphere/internal/config"
	"github.com/Faultbox/gyrosphere/internal/engine/camera"
	"github.com/Faultbox/gyrosphere/internal/engine/debug"
	"github.com/Faultbox/gyrosphere/internal/engine/gpu/gldevice"
	"github.com/Faultbox/gyrosphere/internal/engine/input"
	"github.com/Faultbox/gyrosphere/internal/engine/lighting"
	"github.com/Faultbox/gyrosphere/internal/engine/renderer"
	"github.com/Faultbox/gyrosphere/internal/engine/texture"
	"github.com/Faultbox/gyrosphere/internal/engine/window"
	"github.com/Faultbox/gyrosphere/internal/logger"
	"github.com/Faultbox/gyrosphere/internal/metrics"
	"github.com/Faultbox/gyrosphere/internal/sensor"
	"github.com/Faultbox/gyrosphere/pkg/math"
)

const (
	title         = "gyrosphere"
	screenshotDir = "screenshots"
)

// App is the running viewer.
type App struct {
	cfg        *config.Config
	window     *window.Window
	device     *gldevice.Device
	input      *input.Input
	assets     *assets.Manager
	state      *attitude.State
	provider   sensor.Provider
	source     *sensor.Source
	renderer   *renderer.Renderer
	controller *Controller
	shots      *debug.ScreenshotCapture
	metricsSrv *http.Server

	running        bool
	visible        bool
	wantScreenshot bool
}

// New creates the window and GPU device and wires every component.
// configPath is where settings are saved; empty means the user config dir.
func New(cfg *config.Config, configPath string) (*App, error) {
	a := &App{
		cfg:     cfg,
		visible: true,
		shots:   debug.NewScreenshotCapture(screenshotDir, title),
	}

	var err error
	a.provider, err = sensor.NewProvider(cfg.Sensor)
	if err != nil {
		return nil, fmt.Errorf("creating sensor provider: %w", err)
	}

	a.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		a.closeProvider()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The device needs the GL context the window just made current.
	a.device, err = gldevice.New()
	if err != nil {
		a.window.Close()
		a.closeProvider()
		return nil, fmt.Errorf("failed to create GPU device: %w", err)
	}

	a.input = input.New(a.window.WakeEventType())

	a.assets = assets.NewManager()
	for _, dir := range cfg.Textures.AssetDirs {
		if err := a.assets.AddDir(dir); err != nil {
			logger.Warn("skipping asset dir", zap.String("dir", dir), zap.Error(err))
		}
	}

	a.state = attitude.NewState(a.window, attitude.Options{
		Damping:            cfg.Attitude.Damping,
		Threshold:          cfg.Attitude.Threshold,
		InitialCalibration: math.RotateAxis(math.Vec3{X: 1}, cfg.Attitude.InitialCalibrationDeg*gomath.Pi/180),
	})

	a.source = sensor.NewSource(a.provider)
	a.source.SetAxisInversion(cfg.Sensor.InvertAxes)
	a.source.SetListener(sensor.ListenerFunc(func(m math.Mat4, _ attitude.Orientation) {
		a.state.Publish(m)
	}))

	loader := texture.NewLoader(a.assets, a.window)
	a.renderer, err = renderer.New(renderer.Config{
		LatBands:   cfg.Scene.LatBands,
		LonBands:   cfg.Scene.LonBands,
		Radius:     cfg.Scene.Radius,
		ClearColor: cfg.Scene.ClearColor,
		Camera:     camera.FromConfig(cfg.Scene),
		Light:      lighting.LightFromConfig(cfg.Lighting.Light),
		Material:   lighting.MaterialFromConfig(cfg.Lighting.Material),
		Textures:   cfg.Textures.Files,
		Smoothing:  cfg.Attitude.Smoothing,
	}, a.device, a.window, a.state, loader)
	if err != nil {
		a.device.Close()
		a.window.Close()
		a.closeProvider()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	save := func() error {
		if configPath != "" {
			return cfg.SaveTo(configPath)
		}
		return cfg.Save()
	}
	a.controller = NewController(cfg, a.state, a.source, a.renderer, promptCalibration, save)

	if cfg.Metrics.Listen != "" {
		a.startMetrics(cfg.Metrics.Listen)
	}

	logger.Info("viewer initialized",
		zap.String("sensor", cfg.Sensor.Provider),
		zap.String("render_mode", cfg.Graphics.RenderMode),
		zap.Bool("smoothing", cfg.Attitude.Smoothing),
		zap.Bool("invert_axes", cfg.Sensor.InvertAxes))
	return a, nil
}

// promptCalibration shows a blocking native dialog.
func promptCalibration(message string) bool {
	return dialog.Message("%s", message).Title("Calibrate " + title).YesNo()
}

func (a *App) startMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	a.metricsSrv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics endpoint listening", zap.String("addr", addr))
		if err := a.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics endpoint failed", zap.Error(err))
		}
	}()
}

// Run starts the sensors and serves events and frames until the user quits.
func (a *App) Run() error {
	a.renderer.OnSurfaceCreated()
	a.renderer.OnSurfaceChanged(a.window.DrawableSize())

	// A window that starts minimized resumes on its first restore
	a.visible = !a.window.Minimized()
	if a.visible {
		if err := a.controller.Resume(); err != nil {
			return fmt.Errorf("starting sensors: %w", err)
		}
	}
	a.window.RequestRedraw()

	continuous := a.cfg.Graphics.RenderMode == config.RenderContinuous
	var frameBudget time.Duration
	if a.cfg.Graphics.FPSLimit > 0 {
		frameBudget = time.Second / time.Duration(a.cfg.Graphics.FPSLimit)
	}

	logger.Info("starting render loop", zap.Bool("continuous", continuous))

	a.running = true
	for a.running {
		frameStart := time.Now()

		var quit bool
		switch {
		case continuous && a.visible:
			quit = a.input.Update()
		case continuous:
			quit = a.input.Wait(100)
		default:
			quit = a.input.Wait(-1)
		}
		if quit {
			break
		}
		a.handleEvents()

		a.window.RunQueued()

		due := a.window.TakeRedraw()
		if a.running && a.visible && (due || continuous) {
			a.drawFrame()
		}

		if continuous && frameBudget > 0 {
			if left := frameBudget - time.Since(frameStart); left > 0 {
				time.Sleep(left)
			}
		}
	}

	logger.Info("render loop stopped")
	return nil
}

func (a *App) handleEvents() {
	for _, event := range a.input.Events() {
		switch event.Type {
		case input.EventQuit:
			a.running = false

		case input.EventWindowResize:
			a.renderer.OnSurfaceChanged(a.window.DrawableSize())
			a.window.RequestRedraw()

		case input.EventExposed:
			a.window.RequestRedraw()

		case input.EventMinimized:
			a.visible = false
			a.controller.Pause()

		case input.EventRestored:
			a.visible = true
			if err := a.controller.Resume(); err != nil {
				logger.Error("failed to resume sensors", zap.Error(err))
			}
			a.window.RequestRedraw()

		case input.EventAction:
			a.handleAction(event.Action)
		}
	}
}

func (a *App) handleAction(action input.Action) {
	logger.Debug("action", zap.Stringer("action", action))

	switch action {
	case input.ActionQuit:
		a.running = false
	case input.ActionCalibrate:
		a.controller.Calibrate()
	case input.ActionToggleInversion:
		a.controller.ToggleInversion()
	case input.ActionToggleSmoothing:
		a.controller.ToggleSmoothing()
	case input.ActionSaveSettings:
		a.controller.SaveSettings()
	case input.ActionScreenshot:
		a.wantScreenshot = true
		a.window.RequestRedraw()
	}
}

// drawFrame renders and presents one frame. Screenshots read the back
// buffer before it is swapped.
func (a *App) drawFrame() {
	a.renderer.OnDrawFrame()

	if a.wantScreenshot {
		a.wantScreenshot = false
		width, height := a.renderer.Size()
		file, err := a.shots.Capture(a.device, width, height)
		if err != nil {
			logger.Error("screenshot failed", zap.Error(err))
		} else {
			azimuth, pitch, roll := a.source.LastOrientation().Degrees()
			logger.Info("screenshot pose",
				zap.String("file", file),
				zap.Float32("azimuth_deg", azimuth),
				zap.Float32("pitch_deg", pitch),
				zap.Float32("roll_deg", roll))
		}
	}

	a.window.SwapBuffers()
}

// Close stops the sensors and releases every resource.
func (a *App) Close() {
	logger.Info("closing viewer")

	if a.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := a.metricsSrv.Shutdown(ctx); err != nil {
			logger.Warn("metrics endpoint shutdown", zap.Error(err))
		}
		cancel()
	}
	if a.controller != nil {
		a.controller.Pause()
	}
	a.closeProvider()
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.device != nil {
		a.device.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
	if a.assets != nil {
		a.assets.Close()
	}
}

// closeProvider releases hardware held by the sensor provider, if any.
func (a *App) closeProvider() {
	if c, ok := a.provider.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Warn("closing sensor provider", zap.Error(err))
		}
	}
}
