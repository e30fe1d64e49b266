package main

import (
	"testing"

	"github.com/gethiox/chiralscroll/internal/pkg/arbiter"
	"github.com/gethiox/chiralscroll/internal/pkg/session"
	"github.com/gethiox/chiralscroll/internal/pkg/settings"
	"github.com/gethiox/chiralscroll/internal/pkg/touch"
	"github.com/logrusorgru/aurora"
	"github.com/stretchr/testify/assert"
)

func TestStatusLine(t *testing.T) {
	au := aurora.NewAurora(false)

	assert.Equal(t, "enabled, idle", statusLine(au, arbiter.Status{Enabled: true}))
	assert.Equal(t, "disabled, idle", statusLine(au, arbiter.Status{}))
	assert.Equal(t, "enabled, pointing on /dev/input/event5", statusLine(au, arbiter.Status{
		Enabled: true, Kind: session.KindNonScrolling, DeviceID: "/dev/input/event5",
	}))
	assert.Equal(t, "enabled, scrolling on /dev/input/event5, winding up, pulses: 0", statusLine(au, arbiter.Status{
		Enabled: true, Kind: session.KindScroll, DeviceID: "/dev/input/event5",
	}))
	assert.Equal(t, "enabled, scrolling on /dev/input/event5, backward, pulses: 12", statusLine(au, arbiter.Status{
		Enabled: true, Kind: session.KindScroll, DeviceID: "/dev/input/event5", Polarity: -1, Pulses: 12,
	}))
}

func TestTouchpadLines(t *testing.T) {
	au := aurora.NewAurora(false)
	tp := &touchpad{
		id:   "/dev/input/event5",
		name: "SynPS/2 Synaptics TouchPad",
		geometry: touch.Geometry{{
			Logical: touch.Area{Top: 0, Bottom: 2000, Left: 0, Right: 3200},
		}},
	}

	lines := touchpadLines(au, tp, settings.DefaultDevice())
	assert.Equal(t, []string{
		"/dev/input/event5: SynPS/2 Synaptics TouchPad",
		"└ on, area: 3200x2000, zones: v 10% h 10%, sens: v 10.0 h 10.0, lockout: 500ms",
	}, lines)
}

func TestOfflineLine(t *testing.T) {
	au := aurora.NewAurora(false)
	store := settings.NewStore(settings.Default())
	store.Device("SynPS/2 Synaptics TouchPad")
	store.Device("ELAN0501:01 04F3:3060 Touchpad")
	connected := []*touchpad{{id: "/dev/input/event5", name: "SynPS/2 Synaptics TouchPad"}}

	assert.Equal(t,
		[]string{"not connected: ELAN0501:01 04F3:3060 Touchpad"},
		offlineLine(au, store.DeviceNames(), connected),
	)

	connected = append(connected, &touchpad{id: "/dev/input/event9", name: "ELAN0501:01 04F3:3060 Touchpad"})
	assert.Empty(t, offlineLine(au, store.DeviceNames(), connected))
	assert.Empty(t, offlineLine(au, nil, nil))
}

func TestPad(t *testing.T) {
	assert.Equal(t, "ab  ", pad("ab", 4))
	assert.Equal(t, "abcdef", pad("abcdef", 4))
	assert.Equal(t, "\033[31mab\033[0m  ", pad("\033[31mab\033[0m", 4))
}
