package scroller

import (
	"fmt"

	"github.com/gethiox/chiralscroll/internal/pkg/logger"
	"github.com/holoplot/go-evdev"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// NotchUnits is the hi-res wheel value of a single wheel notch
const NotchUnits = 120

type Axis int

const (
	Vertical Axis = iota
	Horizontal
)

func (a Axis) String() string {
	if a == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

func (a Axis) codes() (hiRes, notch evdev.EvCode) {
	if a == Horizontal {
		return evdev.REL_HWHEEL_HI_RES, evdev.REL_HWHEEL
	}
	return evdev.REL_WHEEL_HI_RES, evdev.REL_WHEEL
}

// EventWriter is satisfied by uinput device
type EventWriter interface {
	WriteOne(event *evdev.InputEvent) error
}

// Suppressor stops pointer motion for the duration of a scroll sequence
type Suppressor interface {
	Suppress() error
	Release() error
}

// Scroller emits wheel events of one axis. Positive amount scrolls up or right,
// NotchUnits of amount equal one notch of a regular mouse wheel.
type Scroller struct {
	w          EventWriter
	axis       Axis
	suppressor Suppressor

	remainder int
	started   bool
}

// New creates Scroller, suppressor may be nil
func New(w EventWriter, axis Axis, suppressor Suppressor) *Scroller {
	return &Scroller{w: w, axis: axis, suppressor: suppressor}
}

func (s *Scroller) StartScrolling() error {
	if s.started {
		return nil
	}
	s.started = true
	s.remainder = 0
	log.Info("start scrolling", zap.String("axis", s.axis.String()), logger.Debug)

	if s.suppressor != nil {
		err := s.suppressor.Suppress()
		if err != nil {
			return fmt.Errorf("suppressing pointer failed: %w", err)
		}
	}
	return nil
}

func (s *Scroller) Scroll(amount int) error {
	if amount == 0 {
		return nil
	}
	hiRes, notch := s.axis.codes()

	s.remainder += amount
	notches := s.remainder / NotchUnits
	s.remainder -= notches * NotchUnits

	events := []*evdev.InputEvent{
		{Type: evdev.EV_REL, Code: hiRes, Value: int32(amount)},
	}
	if notches != 0 {
		events = append(events, &evdev.InputEvent{Type: evdev.EV_REL, Code: notch, Value: int32(notches)})
	}
	events = append(events, &evdev.InputEvent{Type: evdev.EV_SYN, Code: evdev.SYN_REPORT, Value: 0})

	for _, ev := range events {
		err := s.w.WriteOne(ev)
		if err != nil {
			return fmt.Errorf("writing %s scroll event failed: %w", s.axis, err)
		}
	}
	log.Info(fmt.Sprintf("scroll by %d (%d notches)", amount, notches), zap.String("axis", s.axis.String()), logger.Debug)
	return nil
}

func (s *Scroller) StopScrolling() error {
	if !s.started {
		return nil
	}
	s.started = false
	s.remainder = 0
	log.Info("stop scrolling", zap.String("axis", s.axis.String()), logger.Debug)

	if s.suppressor != nil {
		err := s.suppressor.Release()
		if err != nil {
			return fmt.Errorf("releasing pointer failed: %w", err)
		}
	}
	return nil
}
