package arbiter

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gethiox/chiralscroll/internal/pkg/logger"
	"github.com/gethiox/chiralscroll/internal/pkg/session"
	"github.com/gethiox/chiralscroll/internal/pkg/settings"
	"github.com/gethiox/chiralscroll/internal/pkg/touch"
	"github.com/gethiox/chiralscroll/internal/pkg/vector"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Device is a touch device as seen by the arbiter
type Device interface {
	// ID returns stable identifier of the device, like its event handler path
	ID() string
	// Name is used as a settings key
	Name() string
	Geometry() touch.Geometry
	// PrimaryContactID returns identifier of the first finger put on the surface
	PrimaryContactID() uint32
}

// Status is a snapshot of arbiter state
type Status struct {
	Kind     session.Kind
	DeviceID string
	Polarity int
	Pulses   int
	Enabled  bool
}

var (
	vertical   = vector.New(0, 1)
	horizontal = vector.New(1, 0)
)

// Arbiter owns at most one gesture session and decides when a new one starts.
// It is not safe for concurrent use, except Status.
type Arbiter struct {
	store      *settings.Store
	vertical   session.Sink
	horizontal session.Sink

	active       session.Session
	lastKeyboard time.Time

	now func() time.Time

	statusMu sync.Mutex
	status   Status
}

func NewArbiter(store *settings.Store, vertical, horizontal session.Sink) *Arbiter {
	return &Arbiter{
		store:      store,
		vertical:   vertical,
		horizontal: horizontal,
		now:        time.Now,
	}
}

// ProcessFrame routes a frame from given device to the active session or starts a new one
func (a *Arbiter) ProcessFrame(d Device, frame touch.Frame) {
	defer a.updateStatus()

	ds := a.store.Device(d.Name())
	if !a.store.Global().Enabled || !ds.Enabled {
		a.terminate()
		return
	}

	if a.active != nil {
		if a.active.DeviceID() == d.ID() && !a.active.Update(frame) {
			a.terminate()
		}
	} else if a.shouldStart(d, ds, frame) {
		a.start(d, ds, frame[0])
	}

	if a.active == nil && frame.AnyTouching() {
		a.active = session.NewNonScrolling(d.ID())
	}
}

// ProcessKeyboardEvent records keyboard activity and cancels ongoing gesture
func (a *Arbiter) ProcessKeyboardEvent() {
	a.lastKeyboard = a.now()
	if a.active != nil {
		log.Info("gesture cancelled by keyboard", logger.Debug)
	}
	a.terminate()
	a.updateStatus()
}

// Close terminates active session
func (a *Arbiter) Close() {
	a.terminate()
	a.updateStatus()
}

// Status returns last known state, it's safe to call from any goroutine
func (a *Arbiter) Status() Status {
	a.statusMu.Lock()
	defer a.statusMu.Unlock()
	return a.status
}

func (a *Arbiter) terminate() {
	if a.active == nil {
		return
	}
	a.active.Close()
	a.active = nil
}

func (a *Arbiter) shouldStart(d Device, ds settings.Device, frame touch.Frame) bool {
	if len(frame) != 1 {
		return false
	}
	c := frame[0]
	if c.ID != d.PrimaryContactID() || !c.Touching {
		return false
	}
	// zero lastKeyboard saturates to the max duration
	return a.now().Sub(a.lastKeyboard).Milliseconds() > int64(ds.TypingLockoutMs)
}

func (a *Arbiter) start(d Device, ds settings.Device, c touch.Contact) {
	geometry := d.Geometry()
	slot, ok := geometry.Lookup(c.Link)
	if !ok {
		log.Info(fmt.Sprintf("contact reported by unknown slot %d", c.Link), zap.String("device_name", d.Name()), logger.Warning)
		return
	}
	area := slot.Logical

	var (
		dir  vector.Vector
		sens float64
		sink session.Sink
	)
	switch {
	case session.InZone(float64(c.LogicalX-area.Left), float64(area.Width()), ds.VScrollZone):
		dir, sens, sink = vertical, -ds.VSens, a.vertical
	case session.InZone(float64(c.LogicalY-area.Top), float64(area.Height()), ds.HScrollZone):
		dir, sens, sink = horizontal, ds.HSens, a.horizontal
	default:
		return
	}

	s, err := session.NewScroll(d.ID(), geometry, c, dir, sens, a.store.Global(), sink)
	if err != nil {
		level := logger.Error
		if errors.Is(err, session.ErrDegenerateGeometry) {
			level = logger.Warning
		}
		log.Info(fmt.Sprintf("cannot start scroll session: %v", err), zap.String("device_name", d.Name()), level)
		return
	}
	a.active = s
}

func (a *Arbiter) updateStatus() {
	st := Status{Enabled: a.store.Global().Enabled}
	switch s := a.active.(type) {
	case *session.Scroll:
		st.Kind = session.KindScroll
		st.DeviceID = s.DeviceID()
		st.Polarity = s.Polarity()
		st.Pulses = s.Pulses()
	case *session.NonScrolling:
		st.Kind = session.KindNonScrolling
		st.DeviceID = s.DeviceID()
	}

	a.statusMu.Lock()
	a.status = st
	a.statusMu.Unlock()
}
