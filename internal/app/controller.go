package app

import (
	"go.uber.org/zap"

	"github.com/Faultbox/gyrosphere/internal/attitude"
	"github.com/Faultbox/gyrosphere/internal/config"
	"github.com/Faultbox/gyrosphere/internal/logger"
)

// Sensors is the part of the fusion source the controller drives.
type Sensors interface {
	Start() error
	Stop()
	SetAxisInversion(enabled bool)
	AxisInversion() bool
}

// Smoother toggles attitude smoothing in the renderer.
type Smoother interface {
	SetSmoothing(enabled bool)
	Smoothing() bool
}

// PromptFunc shows the calibration prompt and reports whether the user
// confirmed it.
type PromptFunc func(message string) bool

// Controller applies user commands and window lifecycle changes to the
// attitude pipeline. It runs on the graphics thread.
type Controller struct {
	cfg      *config.Config
	state    *attitude.State
	sensors  Sensors
	smoother Smoother
	prompt   PromptFunc
	save     func() error

	running bool
}

// NewController creates a stopped controller. prompt and save may be nil.
func NewController(cfg *config.Config, state *attitude.State, sensors Sensors, smoother Smoother, prompt PromptFunc, save func() error) *Controller {
	return &Controller{
		cfg:      cfg,
		state:    state,
		sensors:  sensors,
		smoother: smoother,
		prompt:   prompt,
		save:     save,
	}
}

// Resume starts the sensors and, when configured, asks the user to hold
// the device in its neutral pose and calibrates on confirmation.
func (c *Controller) Resume() error {
	if c.running {
		return nil
	}
	if err := c.sensors.Start(); err != nil {
		return err
	}
	c.running = true
	logger.Info("sensors resumed")

	if c.cfg.Calibration.PromptOnStart && c.prompt != nil {
		if c.prompt(c.cfg.Calibration.Message) {
			c.Calibrate()
		} else {
			logger.Info("calibration prompt dismissed")
		}
	}
	return nil
}

// Pause stops the sensors. The last attitude stays on screen.
func (c *Controller) Pause() {
	if !c.running {
		return
	}
	c.sensors.Stop()
	c.running = false
	logger.Info("sensors paused")
}

// Calibrate makes the current device pose the neutral one.
func (c *Controller) Calibrate() {
	c.state.SetCalibrationFromCurrentLive()
	logger.Info("calibrated to current pose")
}

// ToggleInversion flips the axis remapping and records it in the config.
func (c *Controller) ToggleInversion() {
	enabled := !c.sensors.AxisInversion()
	c.sensors.SetAxisInversion(enabled)
	c.cfg.Sensor.InvertAxes = enabled
	logger.Info("axis inversion toggled", zap.Bool("enabled", enabled))
}

// ToggleSmoothing flips attitude smoothing and records it in the config.
func (c *Controller) ToggleSmoothing() {
	enabled := !c.smoother.Smoothing()
	c.smoother.SetSmoothing(enabled)
	c.cfg.Attitude.Smoothing = enabled
	logger.Info("smoothing toggled", zap.Bool("enabled", enabled))
}

// SaveSettings persists the current config.
func (c *Controller) SaveSettings() {
	if c.save == nil {
		return
	}
	if err := c.save(); err != nil {
		logger.Error("failed to save settings", zap.Error(err))
		return
	}
	logger.Info("settings saved")
}
