package session

import (
	"github.com/gethiox/chiralscroll/internal/pkg/logger"
	"github.com/gethiox/chiralscroll/internal/pkg/touch"
)

var log = logger.GetLogger()

// Sink receives scroll output of a gesture, one instance per axis.
type Sink interface {
	// StartScrolling begins a scroll sequence, repeated calls have no effect
	StartScrolling() error
	// Scroll emits signed scroll amount
	Scroll(amount int) error
	// StopScrolling ends a scroll sequence, safe to call without StartScrolling
	StopScrolling() error
}

// Session is a single gesture tracked by the arbiter
type Session interface {
	// Update consumes next frame, false means the session is over and has to be closed
	Update(frame touch.Frame) bool
	// Close releases session resources, it has to be called exactly once
	Close()
	// DeviceID returns identifier of the device session belongs to
	DeviceID() string
}

// Kind describes session variant, mostly for status reporting
type Kind int

const (
	KindNone Kind = iota
	KindNonScrolling
	KindScroll
)

func (k Kind) String() string {
	switch k {
	case KindNonScrolling:
		return "non-scrolling"
	case KindScroll:
		return "scroll"
	default:
		return "none"
	}
}

// NonScrolling occupies the arbiter while additional fingers rest on the touchpad
type NonScrolling struct {
	deviceID string
}

func NewNonScrolling(deviceID string) *NonScrolling {
	return &NonScrolling{deviceID: deviceID}
}

func (s *NonScrolling) Update(frame touch.Frame) bool {
	return frame.AnyTouching()
}

func (s *NonScrolling) Close() {}

func (s *NonScrolling) DeviceID() string {
	return s.deviceID
}

// InZone tells if coord lies in the trailing fraction of an axis of given extent
func InZone(coord, extent, fraction float64) bool {
	return coord > (1-fraction)*extent
}
