// Package input translates SDL2 events into viewer events.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType identifies a translated event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventExposed
	EventMinimized
	EventRestored
	EventWake
	EventAction
)

// Action is a user command bound to a key.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionCalibrate
	ActionToggleInversion
	ActionToggleSmoothing
	ActionScreenshot
	ActionSaveSettings
)

func (a Action) String() string {
	switch a {
	case ActionQuit:
		return "quit"
	case ActionCalibrate:
		return "calibrate"
	case ActionToggleInversion:
		return "toggle-inversion"
	case ActionToggleSmoothing:
		return "toggle-smoothing"
	case ActionScreenshot:
		return "screenshot"
	case ActionSaveSettings:
		return "save-settings"
	default:
		return "none"
	}
}

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Action Action
	Width  int
	Height int
}

// ActionForKey returns the action bound to a key.
func ActionForKey(key sdl.Keycode) Action {
	switch key {
	case sdl.K_ESCAPE, sdl.K_q:
		return ActionQuit
	case sdl.K_c, sdl.K_SPACE:
		return ActionCalibrate
	case sdl.K_i:
		return ActionToggleInversion
	case sdl.K_s:
		return ActionToggleSmoothing
	case sdl.K_p, sdl.K_F12:
		return ActionScreenshot
	case sdl.K_w:
		return ActionSaveSettings
	default:
		return ActionNone
	}
}

// Translate converts one SDL event. Events the viewer does not care about
// yield false.
func Translate(event sdl.Event, wakeType uint32) (Event, bool) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return Event{Type: EventQuit}, true

	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_SIZE_CHANGED:
			return Event{Type: EventWindowResize, Width: int(e.Data1), Height: int(e.Data2)}, true
		case sdl.WINDOWEVENT_EXPOSED:
			return Event{Type: EventExposed}, true
		case sdl.WINDOWEVENT_MINIMIZED, sdl.WINDOWEVENT_HIDDEN:
			return Event{Type: EventMinimized}, true
		case sdl.WINDOWEVENT_RESTORED, sdl.WINDOWEVENT_SHOWN:
			return Event{Type: EventRestored}, true
		}

	case *sdl.KeyboardEvent:
		if e.Type != sdl.KEYDOWN || e.Repeat != 0 {
			return Event{}, false
		}
		if action := ActionForKey(e.Keysym.Sym); action != ActionNone {
			return Event{Type: EventAction, Action: action}, true
		}

	case *sdl.UserEvent:
		if e.Type == wakeType {
			return Event{Type: EventWake}, true
		}
	}

	return Event{}, false
}

// Input collects translated events.
type Input struct {
	events   []Event
	wakeType uint32
}

// New creates a new input handler that recognizes wakeType as the
// event loop's wake event.
func New(wakeType uint32) *Input {
	return &Input{
		events:   make([]Event, 0, 16),
		wakeType: wakeType,
	}
}

// Update polls pending SDL events without blocking.
// Returns true if the viewer should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]
	return i.drain()
}

// Wait blocks until at least one event arrives or timeoutMs elapses, then
// collects everything pending. A negative timeout waits indefinitely.
// Returns true if the viewer should quit.
func (i *Input) Wait(timeoutMs int) bool {
	i.events = i.events[:0]

	var first sdl.Event
	if timeoutMs < 0 {
		first = sdl.WaitEvent()
	} else {
		first = sdl.WaitEventTimeout(timeoutMs)
	}
	if first != nil && i.push(first) {
		return true
	}
	return i.drain()
}

func (i *Input) drain() bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if i.push(event) {
			return true
		}
	}
	return false
}

func (i *Input) push(event sdl.Event) bool {
	e, ok := Translate(event, i.wakeType)
	if !ok {
		return false
	}
	i.events = append(i.events, e)
	return e.Type == EventQuit
}

// Events returns the events from the last Update or Wait.
func (i *Input) Events() []Event {
	return i.events
}
