package scroller

import (
	"fmt"
	"sync"

	"github.com/gethiox/chiralscroll/internal/pkg/input"
	"github.com/holoplot/go-evdev"
)

// NewVirtualWheel creates uinput device capable of wheel scrolling in both axes.
// Pointer capabilities are included, otherwise it would not be recognized as a mouse.
func NewVirtualWheel(name string) (*evdev.InputDevice, error) {
	dev, err := evdev.CreateDevice(
		name,
		evdev.InputID{
			BusType: input.BUS_VIRTUAL,
			Vendor:  0x1209, // pid.codes
			Product: 0x5c50,
			Version: 1,
		},
		map[evdev.EvType][]evdev.EvCode{
			evdev.EV_KEY: {evdev.BTN_LEFT, evdev.BTN_RIGHT},
			evdev.EV_REL: {
				evdev.REL_X, evdev.REL_Y,
				evdev.REL_WHEEL, evdev.REL_HWHEEL,
				evdev.REL_WHEEL_HI_RES, evdev.REL_HWHEEL_HI_RES,
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("creating virtual wheel failed: %w", err)
	}
	return dev, nil
}

// Grabber is satisfied by opened evdev handler
type Grabber interface {
	Grab() error
	Ungrab() error
}

// GrabSuppressor grabs registered handlers while scrolling, so nobody else sees pointer motion
type GrabSuppressor struct {
	mu         sync.Mutex
	handlers   map[string]Grabber
	suppressed bool
}

func NewGrabSuppressor() *GrabSuppressor {
	return &GrabSuppressor{handlers: make(map[string]Grabber)}
}

// Add registers handler, it gets grabbed immediately if suppression is in progress
func (g *GrabSuppressor) Add(id string, h Grabber) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handlers[id] = h
	if g.suppressed {
		return h.Grab()
	}
	return nil
}

// Remove unregisters handler without touching it, it may be closed already
func (g *GrabSuppressor) Remove(id string) {
	g.mu.Lock()
	delete(g.handlers, id)
	g.mu.Unlock()
}

func (g *GrabSuppressor) Suppress() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.suppressed {
		return nil
	}
	g.suppressed = true
	return g.each(Grabber.Grab)
}

func (g *GrabSuppressor) Release() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.suppressed {
		return nil
	}
	g.suppressed = false
	return g.each(Grabber.Ungrab)
}

func (g *GrabSuppressor) each(f func(Grabber) error) error {
	var first error
	for id, h := range g.handlers {
		err := f(h)
		if err != nil && first == nil {
			first = fmt.Errorf("%s: %w", id, err)
		}
	}
	return first
}
