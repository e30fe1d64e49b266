package scroller

import (
	"errors"
	"testing"

	"github.com/holoplot/go-evdev"
	"github.com/stretchr/testify/assert"
)

type fakeWriter struct {
	events []evdev.InputEvent
	err    error
}

func (w *fakeWriter) WriteOne(ev *evdev.InputEvent) error {
	if w.err != nil {
		return w.err
	}
	w.events = append(w.events, *ev)
	return nil
}

func (w *fakeWriter) values(code evdev.EvCode) []int32 {
	var out []int32
	for _, ev := range w.events {
		if ev.Type == evdev.EV_REL && ev.Code == code {
			out = append(out, ev.Value)
		}
	}
	return out
}

func (w *fakeWriter) syncs() int {
	var n int
	for _, ev := range w.events {
		if ev.Type == evdev.EV_SYN && ev.Code == evdev.SYN_REPORT {
			n++
		}
	}
	return n
}

type fakeGrabber struct {
	grabs, ungrabs int
}

func (g *fakeGrabber) Grab() error {
	g.grabs++
	return nil
}

func (g *fakeGrabber) Ungrab() error {
	g.ungrabs++
	return nil
}

func TestVerticalNotches(t *testing.T) {
	w := &fakeWriter{}
	s := New(w, Vertical, nil)

	assert.Nil(t, s.StartScrolling())
	for _, amount := range []int{100, 100, 100, -250} {
		assert.Nil(t, s.Scroll(amount))
	}
	assert.Nil(t, s.StopScrolling())

	assert.Equal(t, []int32{100, 100, 100, -250}, w.values(evdev.REL_WHEEL_HI_RES))
	// 100, 200 -> 1 notch (80 left), 180 -> 1 notch (60 left), -190 -> -1 notch (-70 left)
	assert.Equal(t, []int32{1, 1, -1}, w.values(evdev.REL_WHEEL))
	assert.Empty(t, w.values(evdev.REL_HWHEEL_HI_RES))
	assert.Equal(t, 4, w.syncs())
}

func TestHorizontalAxis(t *testing.T) {
	w := &fakeWriter{}
	s := New(w, Horizontal, nil)

	assert.Nil(t, s.Scroll(-360))
	assert.Equal(t, []int32{-360}, w.values(evdev.REL_HWHEEL_HI_RES))
	assert.Equal(t, []int32{-3}, w.values(evdev.REL_HWHEEL))
	assert.Empty(t, w.values(evdev.REL_WHEEL))
}

func TestZeroAmountWritesNothing(t *testing.T) {
	w := &fakeWriter{}
	s := New(w, Vertical, nil)

	assert.Nil(t, s.Scroll(0))
	assert.Empty(t, w.events)
}

func TestRemainderResetBetweenSequences(t *testing.T) {
	w := &fakeWriter{}
	s := New(w, Vertical, nil)

	s.StartScrolling()
	s.Scroll(100)
	s.StopScrolling()

	s.StartScrolling()
	s.Scroll(100)
	s.StopScrolling()

	assert.Empty(t, w.values(evdev.REL_WHEEL))
}

func TestWriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("no uinput")}
	s := New(w, Vertical, nil)

	err := s.Scroll(120)
	assert.True(t, errors.Is(err, w.err))
}

func TestSuppression(t *testing.T) {
	g1, g2 := &fakeGrabber{}, &fakeGrabber{}
	sup := NewGrabSuppressor()
	assert.Nil(t, sup.Add("event5", g1))

	s := New(&fakeWriter{}, Vertical, sup)

	// stop without start does nothing
	assert.Nil(t, s.StopScrolling())
	assert.Equal(t, 0, g1.ungrabs)

	assert.Nil(t, s.StartScrolling())
	assert.Nil(t, s.StartScrolling())
	assert.Equal(t, 1, g1.grabs)

	// handler appearing during scroll is grabbed right away
	assert.Nil(t, sup.Add("event9", g2))
	assert.Equal(t, 1, g2.grabs)

	sup.Remove("event9")
	assert.Nil(t, s.StopScrolling())
	assert.Nil(t, s.StopScrolling())
	assert.Equal(t, 1, g1.ungrabs)
	assert.Equal(t, 0, g2.ungrabs)
}

func TestSuppressorSharedByAxes(t *testing.T) {
	g := &fakeGrabber{}
	sup := NewGrabSuppressor()
	sup.Add("event5", g)

	v := New(&fakeWriter{}, Vertical, sup)
	h := New(&fakeWriter{}, Horizontal, sup)

	v.StartScrolling()
	v.StopScrolling()
	h.StartScrolling()
	h.StopScrolling()

	assert.Equal(t, 2, g.grabs)
	assert.Equal(t, 2, g.ungrabs)
}
