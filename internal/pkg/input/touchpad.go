package input

import (
	"errors"
	"fmt"

	"github.com/gethiox/chiralscroll/internal/pkg/touch"
	"github.com/holoplot/go-evdev"
)

var ErrNoGeometry = errors.New("touchpad reports no usable geometry")

// AbsInfoSource is satisfied by opened evdev handler
type AbsInfoSource interface {
	AbsInfos() (map[evdev.EvCode]evdev.AbsInfo, error)
}

// physical converts device units into micrometres, resolution is given in units per millimetre
func physical(v, resolution int32) int32 {
	if resolution <= 0 {
		return v
	}
	return int32(int64(v) * 1000 / int64(resolution))
}

// Geometry builds slot geometry from multitouch axes of touchpad handler.
// Evdev exposes one coordinate space for all slots, so there is a single slot-link 0.
func Geometry(src AbsInfoSource) (touch.Geometry, error) {
	infos, err := src.AbsInfos()
	if err != nil {
		return nil, fmt.Errorf("reading axes failed: %w", err)
	}
	return geometryFromAbs(infos)
}

func geometryFromAbs(infos map[evdev.EvCode]evdev.AbsInfo) (touch.Geometry, error) {
	x, okX := infos[evdev.ABS_MT_POSITION_X]
	y, okY := infos[evdev.ABS_MT_POSITION_Y]
	if !okX || !okY {
		return nil, fmt.Errorf("%w: missing multitouch axes", ErrNoGeometry)
	}
	if y.Maximum <= y.Minimum || x.Maximum <= x.Minimum {
		return nil, fmt.Errorf("%w: degenerate axes x=[%d, %d], y=[%d, %d]",
			ErrNoGeometry, x.Minimum, x.Maximum, y.Minimum, y.Maximum)
	}

	return touch.Geometry{{
		Link: 0,
		Logical: touch.Area{
			Top: y.Minimum, Bottom: y.Maximum,
			Left: x.Minimum, Right: x.Maximum,
		},
		Physical: touch.Area{
			Top: physical(y.Minimum, y.Resolution), Bottom: physical(y.Maximum, y.Resolution),
			Left: physical(x.Minimum, x.Resolution), Right: physical(x.Maximum, x.Resolution),
		},
	}}, nil
}

type slot struct {
	active     bool
	lifted     bool
	trackingID int32
	tool       int32
	x, y       int32

	// previous finger replaced without lift, reported as lifted at liftX, liftY
	replaced     bool
	liftTool     int32
	liftX, liftY int32
}

// MTDecoder turns multitouch protocol B event stream into touch reports.
// Slot index serves as contact identifier, so the first finger on the surface has id 0.
// When slot gets a new tracking id without -1 in between, the old finger is reported as lifted
// and the new one shows up from the following synchronization.
type MTDecoder struct {
	slots   []slot
	current int
	dropped bool

	resX, resY int32
}

// NewMTDecoder creates decoder for touchpad with given axes
func NewMTDecoder(infos map[evdev.EvCode]evdev.AbsInfo) *MTDecoder {
	d := &MTDecoder{}
	n := 1
	if s, ok := infos[evdev.ABS_MT_SLOT]; ok {
		n = int(s.Maximum) + 1
		d.current = int(s.Value)
	}
	d.slots = make([]slot, n)
	d.resX = infos[evdev.ABS_MT_POSITION_X].Resolution
	d.resY = infos[evdev.ABS_MT_POSITION_Y].Resolution
	return d
}

// Feed consumes single event, a report is returned on every synchronization with at least one contact
func (d *MTDecoder) Feed(ev evdev.InputEvent) (touch.Report, bool) {
	if ev.Type == evdev.EV_SYN {
		switch ev.Code {
		case evdev.SYN_DROPPED:
			d.dropped = true
			return touch.Report{}, false
		case evdev.SYN_REPORT:
			if d.dropped {
				d.dropped = false
				d.liftAll()
			}
			return d.report()
		}
		return touch.Report{}, false
	}

	if d.dropped || ev.Type != evdev.EV_ABS {
		return touch.Report{}, false
	}

	if ev.Code == evdev.ABS_MT_SLOT {
		d.current = int(ev.Value)
		return touch.Report{}, false
	}
	if d.current < 0 || d.current >= len(d.slots) {
		return touch.Report{}, false
	}
	s := &d.slots[d.current]

	switch ev.Code {
	case evdev.ABS_MT_TRACKING_ID:
		if ev.Value < 0 {
			if s.replaced {
				// new finger was never reported
				s.x, s.y = s.liftX, s.liftY
				s.tool = s.liftTool
				s.replaced = false
			}
			if s.active {
				s.active = false
				s.lifted = true
			}
			break
		}
		if s.active && s.trackingID != ev.Value && !s.replaced {
			s.replaced = true
			s.liftTool = s.tool
			s.liftX, s.liftY = s.x, s.y
		}
		s.active = true
		s.trackingID = ev.Value
		s.tool = MT_TOOL_FINGER
	case evdev.ABS_MT_POSITION_X:
		s.x = ev.Value
	case evdev.ABS_MT_POSITION_Y:
		s.y = ev.Value
	case evdev.ABS_MT_TOOL_TYPE:
		s.tool = ev.Value
	}
	return touch.Report{}, false
}

func (d *MTDecoder) liftAll() {
	for i := range d.slots {
		if d.slots[i].active {
			d.slots[i].active = false
			d.slots[i].lifted = true
		}
	}
}

func (d *MTDecoder) report() (touch.Report, bool) {
	var r touch.Report
	for i := range d.slots {
		s := &d.slots[i]
		if !s.active && !s.lifted {
			continue
		}
		if s.replaced {
			r.Slots = append(r.Slots, touch.SlotSample{
				HasID: true,
				Contact: touch.Contact{
					ID:        uint32(i),
					Touching:  false,
					Confident: s.liftTool != MT_TOOL_PALM,
					LogicalX:  s.liftX,
					LogicalY:  s.liftY,
					PhysicalX: physical(s.liftX, d.resX),
					PhysicalY: physical(s.liftY, d.resY),
				},
			})
			s.replaced = false
			s.lifted = false
			continue
		}
		r.Slots = append(r.Slots, touch.SlotSample{
			HasID: true,
			Contact: touch.Contact{
				ID:        uint32(i),
				Link:      0,
				Touching:  s.active,
				Confident: s.tool != MT_TOOL_PALM,
				LogicalX:  s.x,
				LogicalY:  s.y,
				PhysicalX: physical(s.x, d.resX),
				PhysicalY: physical(s.y, d.resY),
			},
		})
		s.lifted = false
	}
	if len(r.Slots) == 0 {
		return touch.Report{}, false
	}
	r.ContactCount = uint32(len(r.Slots))
	return r, true
}
