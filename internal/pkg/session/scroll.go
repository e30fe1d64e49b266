package session

import (
	"errors"
	"fmt"
	"math"

	"github.com/gethiox/chiralscroll/internal/pkg/logger"
	"github.com/gethiox/chiralscroll/internal/pkg/settings"
	"github.com/gethiox/chiralscroll/internal/pkg/touch"
	"github.com/gethiox/chiralscroll/internal/pkg/vector"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrUnknownSlot        = errors.New("unknown contact slot")
	ErrDegenerateGeometry = errors.New("slot area has no height")
)

// Scroll turns motion of one contact into scroll pulses along one axis.
//
// Position and direction are expressed in units of slot logical height. Polarity stays 0
// until the contact leaves the start deadzone, then it's +1 or -1 and flips on reversal.
type Scroll struct {
	id        uuid.UUID
	deviceID  string
	contactID uint32
	slot      touch.SlotGeometry
	height    float64

	direction vector.Vector
	position  vector.Vector
	polarity  float64
	sens      float64
	global    settings.Global
	sink      Sink

	pulses int
	closed bool
}

// NewScroll creates a scroll session anchored at initial contact position.
// Sign of sens determines output direction relative to the finger motion.
func NewScroll(
	deviceID string, geometry touch.Geometry, initial touch.Contact,
	direction vector.Vector, sens float64, global settings.Global, sink Sink,
) (*Scroll, error) {
	slot, ok := geometry.Lookup(initial.Link)
	if !ok {
		return nil, fmt.Errorf("%w: link %d", ErrUnknownSlot, initial.Link)
	}
	height := slot.Logical.Height()
	if height <= 0 {
		return nil, fmt.Errorf("%w: link %d, height %d", ErrDegenerateGeometry, initial.Link, height)
	}

	s := &Scroll{
		id:        uuid.New(),
		deviceID:  deviceID,
		contactID: initial.ID,
		slot:      slot,
		height:    float64(height),
		direction: direction,
		sens:      sens,
		global:    global,
		sink:      sink,
	}
	s.position = s.scale(initial)

	log.Info("scroll session started",
		zap.String("session", s.id.String()),
		zap.String("handler_event", deviceID),
		zap.String("direction", fmt.Sprintf("%.0f,%.0f", direction.X, direction.Y)),
		logger.Session,
	)
	return s, nil
}

func (s *Scroll) DeviceID() string {
	return s.deviceID
}

// Polarity returns 0 while the direction is not established yet, otherwise +1 or -1
func (s *Scroll) Polarity() int {
	return int(s.polarity)
}

// Pulses returns number of scroll pulses emitted so far
func (s *Scroll) Pulses() int {
	return s.pulses
}

func (s *Scroll) Update(frame touch.Frame) bool {
	c, ok := frame.Find(s.contactID)
	if !ok || !c.Touching {
		return false
	}

	if s.polarity == 0 {
		s.startScrolling(c)
	} else {
		s.continueScrolling(c)
	}
	return true
}

// Close stops the sink, subsequent calls do nothing
func (s *Scroll) Close() {
	if s.closed {
		return
	}
	s.closed = true

	err := s.sink.StopScrolling()
	if err != nil {
		log.Info(fmt.Sprintf("failed to stop scrolling: %v", err), zap.String("session", s.id.String()), logger.Error)
	}
	log.Info("scroll session finished",
		zap.String("session", s.id.String()),
		zap.Int("pulses", s.pulses),
		logger.Session,
	)
}

func (s *Scroll) scale(c touch.Contact) vector.Vector {
	return vector.New(float64(c.LogicalX), float64(c.LogicalY)).Scale(1 / s.height)
}

func (s *Scroll) startScrolling(c touch.Contact) {
	newPos := s.scale(c)
	newDir := newPos.Sub(s.position)
	dot := newDir.Dot(s.direction)
	halfAngle := s.global.StartDeadzoneAngle / 2

	switch {
	case vector.AngleBetween(s.direction, newDir) < halfAngle && dot > s.global.StartDeadzone:
		s.polarity = 1
	case vector.AngleBetween(s.direction, newDir.Neg()) < halfAngle && dot < -s.global.StartDeadzone:
		s.polarity = -1
	default:
		// winding up, anchor stays where the gesture began
		return
	}

	err := s.sink.StartScrolling()
	if err != nil {
		log.Info(fmt.Sprintf("failed to start scrolling: %v", err), zap.String("session", s.id.String()), logger.Error)
	}
	s.scroll(newDir, newPos)
}

func (s *Scroll) continueScrolling(c touch.Contact) {
	newPos := s.scale(c)
	newDir := newPos.Sub(s.position)
	dist := newDir.Norm()

	switch {
	case vector.AngleBetween(s.direction, newDir.Neg()) < s.global.ReverseDeadzoneAngle/2 &&
		dist > s.global.ReverseDeadzone:
		s.polarity = -s.polarity
		s.scroll(newDir, newPos)
	case dist > s.global.ReverseDeadzone || newDir.Dot(s.direction) > s.global.MoveDeadzone:
		s.scroll(newDir, newPos)
	}
	// anything smaller is dropped, not accumulated
}

func (s *Scroll) scroll(newDir, newPos vector.Vector) {
	dist := newDir.Norm()
	amount := int(math.Round(s.polarity * dist * s.sens * s.global.SensScalingFactor * s.height))

	err := s.sink.Scroll(amount)
	if err != nil {
		log.Info(fmt.Sprintf("failed to scroll: %v", err), zap.String("session", s.id.String()), logger.Error)
	}
	s.pulses++
	log.Info(fmt.Sprintf("scroll %d", amount), zap.String("session", s.id.String()), logger.Scroll)

	s.position = newPos
	if dist > 0 {
		s.direction = newDir.Scale(1 / dist)
	}
}
