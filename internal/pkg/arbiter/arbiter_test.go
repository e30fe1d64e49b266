package arbiter

import (
	"testing"
	"time"

	"github.com/gethiox/chiralscroll/internal/pkg/session"
	"github.com/gethiox/chiralscroll/internal/pkg/settings"
	"github.com/gethiox/chiralscroll/internal/pkg/touch"
	"github.com/stretchr/testify/assert"
)

type fakeSink struct {
	starts, stops int
	scrolls       []int
}

func (f *fakeSink) StartScrolling() error {
	f.starts++
	return nil
}

func (f *fakeSink) Scroll(amount int) error {
	f.scrolls = append(f.scrolls, amount)
	return nil
}

func (f *fakeSink) StopScrolling() error {
	f.stops++
	return nil
}

type fakeDevice struct {
	id, name string
	geometry touch.Geometry
}

func (d fakeDevice) ID() string               { return d.id }
func (d fakeDevice) Name() string             { return d.name }
func (d fakeDevice) Geometry() touch.Geometry { return d.geometry }
func (d fakeDevice) PrimaryContactID() uint32 { return 0 }

var touchpad = fakeDevice{
	id:   "/dev/input/event5",
	name: "touchpad",
	geometry: touch.Geometry{{
		Logical:  touch.Area{Top: 0, Bottom: 1000, Left: 0, Right: 2000},
		Physical: touch.Area{Top: 0, Bottom: 60000, Left: 0, Right: 120000},
	}},
}

var otherTouchpad = fakeDevice{
	id:       "/dev/input/event9",
	name:     "other touchpad",
	geometry: touchpad.geometry,
}

type fixture struct {
	arbiter    *Arbiter
	store      *settings.Store
	vertical   *fakeSink
	horizontal *fakeSink
	clock      time.Time
}

func newFixture() *fixture {
	f := &fixture{
		store:      settings.NewStore(settings.Default()),
		vertical:   &fakeSink{},
		horizontal: &fakeSink{},
		clock:      time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	f.arbiter = NewArbiter(f.store, f.vertical, f.horizontal)
	f.arbiter.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) setDevice(name string, d settings.Device) {
	s := f.store.Snapshot()
	s.Devices[name] = d
	f.store.Replace(s)
}

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func touching(id uint32, x, y int32) touch.Contact {
	return touch.Contact{ID: id, Touching: true, Confident: true, LogicalX: x, LogicalY: y}
}

func lifted(id uint32, x, y int32) touch.Contact {
	return touch.Contact{ID: id, Touching: false, Confident: true, LogicalX: x, LogicalY: y}
}

// right edge: x > 0.9 * 2000
const zoneX = 1950

func TestLockoutElapsed(t *testing.T) {
	f := newFixture()
	f.arbiter.ProcessKeyboardEvent()
	f.advance(time.Millisecond * 600)

	f.arbiter.ProcessFrame(touchpad, touch.Frame{touching(0, zoneX, 500)})
	assert.Equal(t, session.KindScroll, f.arbiter.Status().Kind)

	f.arbiter.ProcessFrame(touchpad, touch.Frame{touching(0, zoneX, 600)})
	assert.Equal(t, 1, f.vertical.starts)
	assert.Equal(t, []int{-100}, f.vertical.scrolls) // 0.1 * -10 * 0.1 * 1000
	assert.Equal(t, 0, f.horizontal.starts)
}

func TestLockoutActive(t *testing.T) {
	f := newFixture()
	f.arbiter.ProcessKeyboardEvent()
	f.advance(time.Millisecond * 100)

	f.arbiter.ProcessFrame(touchpad, touch.Frame{touching(0, zoneX, 500)})
	assert.Equal(t, session.KindNonScrolling, f.arbiter.Status().Kind)

	f.arbiter.ProcessFrame(touchpad, touch.Frame{touching(0, zoneX, 600)})
	assert.Equal(t, 0, f.vertical.starts)
	assert.Empty(t, f.vertical.scrolls)
}

func TestNoKeyboardEverSeen(t *testing.T) {
	f := newFixture()

	f.arbiter.ProcessFrame(touchpad, touch.Frame{touching(0, zoneX, 500)})
	assert.Equal(t, session.KindScroll, f.arbiter.Status().Kind)
}

func TestKeyboardTerminatesSession(t *testing.T) {
	f := newFixture()

	f.arbiter.ProcessFrame(touchpad, touch.Frame{touching(0, zoneX, 500)})
	f.arbiter.ProcessFrame(touchpad, touch.Frame{touching(0, zoneX, 600)})
	assert.Equal(t, 1, f.vertical.starts)

	f.store.Device("touchpad")
	d := settings.DefaultDevice()
	d.TypingLockoutMs = 0
	f.setDevice("touchpad", d)
	f.advance(time.Hour)

	f.arbiter.ProcessKeyboardEvent()
	assert.Equal(t, 1, f.vertical.stops)
	assert.Equal(t, session.KindNone, f.arbiter.Status().Kind)
}

func TestScrollSessionLostWithOtherFingerDown(t *testing.T) {
	f := newFixture()

	f.arbiter.ProcessFrame(touchpad, touch.Frame{touching(0, zoneX, 500)})
	f.arbiter.ProcessFrame(touchpad, touch.Frame{touching(1, 100, 100)})

	assert.Equal(t, 1, f.vertical.stops)
	assert.Equal(t, session.KindNonScrolling, f.arbiter.Status().Kind)
}

func TestKeyboardTerminatesNonScrolling(t *testing.T) {
	f := newFixture()

	f.arbiter.ProcessFrame(touchpad, touch.Frame{touching(0, 10, 10), touching(1, 20, 20)})
	assert.Equal(t, session.KindNonScrolling, f.arbiter.Status().Kind)

	f.arbiter.ProcessKeyboardEvent()
	assert.Equal(t, session.KindNone, f.arbiter.Status().Kind)
}

func TestHorizontalZone(t *testing.T) {
	f := newFixture()

	// bottom edge: y > 0.9 * 1000
	f.arbiter.ProcessFrame(touchpad, touch.Frame{touching(0, 1000, 950)})
	f.arbiter.ProcessFrame(touchpad, touch.Frame{touching(0, 1100, 950)})

	assert.Equal(t, 0, f.vertical.starts)
	assert.Equal(t, 1, f.horizontal.starts)
	assert.Equal(t, []int{100}, f.horizontal.scrolls) // 0.1 * 10 * 0.1 * 1000
}

func TestVerticalZoneWinsInCorner(t *testing.T) {
	f := newFixture()

	f.arbiter.ProcessFrame(touchpad, touch.Frame{touching(0, zoneX, 950)})
	f.arbiter.ProcessFrame(touchpad, touch.Frame{touching(0, zoneX, 850)})

	assert.Equal(t, 1, f.vertical.starts)
	assert.Equal(t, 0, f.horizontal.starts)
}

func TestOutsideZones(t *testing.T) {
	f := newFixture()

	f.arbiter.ProcessFrame(touchpad, touch.Frame{touching(0, 1000, 500)})
	assert.Equal(t, session.KindNonScrolling, f.arbiter.Status().Kind)

	f.arbiter.ProcessFrame(touchpad, touch.Frame{lifted(0, 1000, 500)})
	assert.Equal(t, session.KindNone, f.arbiter.Status().Kind)
}

func TestStartConditions(t *testing.T) {
	for name, frame := range map[string]touch.Frame{
		"two contacts":     {touching(0, zoneX, 500), touching(1, 100, 100)},
		"not primary":      {touching(1, zoneX, 500)},
		"lift":             {lifted(0, zoneX, 500)},
		"empty":            {},
		"primary and lift": {touching(0, zoneX, 500), lifted(1, 100, 100)},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			f.arbiter.ProcessFrame(touchpad, frame)
			assert.NotEqual(t, session.KindScroll, f.arbiter.Status().Kind)
		})
	}
}

func TestNonScrollingUntilAllLifted(t *testing.T) {
	f := newFixture()

	f.arbiter.ProcessFrame(touchpad, touch.Frame{touching(0, 100, 100), touching(1, zoneX, 500)})
	assert.Equal(t, session.KindNonScrolling, f.arbiter.Status().Kind)

	// remaining finger in the zone does not start scrolling while placeholder is alive
	f.arbiter.ProcessFrame(touchpad, touch.Frame{lifted(1, zoneX, 500)})
	assert.Equal(t, session.KindNone, f.arbiter.Status().Kind)

	f.arbiter.ProcessFrame(touchpad, touch.Frame{touching(0, zoneX, 500)})
	assert.Equal(t, session.KindScroll, f.arbiter.Status().Kind)
}

func TestSessionEndsOnLift(t *testing.T) {
	f := newFixture()

	f.arbiter.ProcessFrame(touchpad, touch.Frame{touching(0, zoneX, 500)})
	f.arbiter.ProcessFrame(touchpad, touch.Frame{touching(0, zoneX, 600)})
	f.arbiter.ProcessFrame(touchpad, touch.Frame{lifted(0, zoneX, 600)})

	assert.Equal(t, 1, f.vertical.stops)
	assert.Equal(t, session.KindNone, f.arbiter.Status().Kind)
}

func TestDisabled(t *testing.T) {
	f := newFixture()

	f.arbiter.ProcessFrame(touchpad, touch.Frame{touching(0, zoneX, 500)})
	assert.Equal(t, session.KindScroll, f.arbiter.Status().Kind)

	f.store.ToggleEnabled()
	f.arbiter.ProcessFrame(touchpad, touch.Frame{touching(0, zoneX, 600)})
	assert.Equal(t, session.KindNone, f.arbiter.Status().Kind)
	assert.Equal(t, 1, f.vertical.stops)
	assert.Empty(t, f.vertical.scrolls)
	assert.False(t, f.arbiter.Status().Enabled)
}

func TestDeviceDisabled(t *testing.T) {
	f := newFixture()
	d := settings.DefaultDevice()
	d.Enabled = false
	f.setDevice("touchpad", d)

	f.arbiter.ProcessFrame(touchpad, touch.Frame{touching(0, zoneX, 500)})
	assert.Equal(t, session.KindNone, f.arbiter.Status().Kind)
}

func TestUnseenDeviceGetsDefaults(t *testing.T) {
	f := newFixture()
	assert.Empty(t, f.store.DeviceNames())

	f.arbiter.ProcessFrame(touchpad, touch.Frame{})
	assert.Equal(t, []string{"touchpad"}, f.store.DeviceNames())
}

func TestOtherDeviceIgnoredWhileActive(t *testing.T) {
	f := newFixture()

	f.arbiter.ProcessFrame(touchpad, touch.Frame{touching(0, zoneX, 500)})
	f.arbiter.ProcessFrame(otherTouchpad, touch.Frame{touching(0, zoneX, 500)})
	f.arbiter.ProcessFrame(otherTouchpad, touch.Frame{lifted(0, zoneX, 500)})

	st := f.arbiter.Status()
	assert.Equal(t, session.KindScroll, st.Kind)
	assert.Equal(t, touchpad.id, st.DeviceID)
	assert.Equal(t, 0, f.vertical.stops)
}

func TestDegenerateGeometry(t *testing.T) {
	f := newFixture()
	flat := touchpad
	flat.geometry = touch.Geometry{{Logical: touch.Area{Top: 0, Bottom: 0, Left: 0, Right: 2000}}}

	f.arbiter.ProcessFrame(flat, touch.Frame{touching(0, zoneX, 0)})
	assert.Equal(t, session.KindNonScrolling, f.arbiter.Status().Kind)
}

func TestClose(t *testing.T) {
	f := newFixture()

	f.arbiter.ProcessFrame(touchpad, touch.Frame{touching(0, zoneX, 500)})
	f.arbiter.Close()
	assert.Equal(t, 1, f.vertical.stops)
	assert.Equal(t, session.KindNone, f.arbiter.Status().Kind)

	f.arbiter.Close()
	assert.Equal(t, 1, f.vertical.stops)
}
