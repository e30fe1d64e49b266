package main

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gethiox/chiralscroll/internal/pkg/logger"
	"github.com/logrusorgru/aurora"
	"github.com/stretchr/testify/assert"
)

func TestRawStringLen(t *testing.T) {
	for i, tc := range []struct {
		input    string
		expected int
	}{
		{input: "", expected: 0},
		{input: "a", expected: 1},
		{input: "a\033", expected: 2},
		{input: "a\033[", expected: 3},
		{input: "a\033[2", expected: 4},
		{input: "a\033[2A", expected: 1},
		{input: "a\033[2Aa", expected: 2},
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			l := rawStringLen(tc.input)
			assert.Equal(t, tc.expected, l)
		})
	}
}

func TestUnpack(t *testing.T) {
	data := []byte(`{"ts":1650000000123000000,"caller":"session/scroll.go:77","msg":"Scroll session started",` +
		`"level":3,"device_name":"SynPS/2 Synaptics TouchPad","session":"abc","axis":"vertical","pulses":-4}`)

	e, err := unpack(data)
	assert.NoError(t, err)
	assert.Equal(t, "Scroll session started", e.Msg)
	assert.Equal(t, logger.SessionLvl, e.Level)
	assert.Equal(t, "SynPS/2 Synaptics TouchPad", e.Device)
	assert.Equal(t, "abc", e.Session)
	assert.Equal(t, "vertical", e.Axis)
	if assert.NotNil(t, e.Pulses) {
		assert.Equal(t, -4, *e.Pulses)
	}
	assert.Equal(t, int64(1650000000123000000), time.Time(e.Ts).UnixNano())

	_, err = unpack([]byte("not json"))
	assert.Error(t, err)
}

func TestPrepareString(t *testing.T) {
	au := aurora.NewAurora(false)
	pulses := 3
	e := Entry{
		Ts:     TimeNanosecond(time.Date(2022, 4, 15, 12, 30, 45, 500_000_000, time.Local)),
		Caller: "scroller/scroller.go:90",
		Msg:    "Scroll",
		Level:  logger.ScrollLvl,
		Axis:   "horizontal",
		Pulses: &pulses,
	}

	for i, tc := range []struct {
		logLevel int
		width    int
		expected string
	}{
		{logLevel: logger.InfoLvl, width: -1, expected: ""},
		{logLevel: logger.ScrollLvl, width: -1, expected: "[12:30:45.500] Scroll [axis=horizontal] [pulses=3]"},
		{logLevel: logger.DebugLvl, width: -1, expected: "[12:30:45.500] Scroll [axis=horizontal] [pulses=3] (scroller/scroller.go:90)"},
		{logLevel: logger.ScrollLvl, width: 60, expected: "[12:30:45.500] Scroll" + strings.Repeat(" ", 10) + " [axis=horizontal] [pulses=3]"},
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			s := prepareString(e, au, tc.width, tc.logLevel)
			assert.Equal(t, tc.expected, s)
			if tc.width > 0 {
				assert.Equal(t, tc.width, rawStringLen(s))
			}
		})
	}
}

func TestPrepareStringNarrow(t *testing.T) {
	au := aurora.NewAurora(false)
	e := Entry{
		Msg:    "Device connected",
		Level:  logger.InfoLvl,
		Device: "a device with rather long name",
	}

	s := prepareString(e, au, 40, logger.InfoLvl)
	assert.Contains(t, s, "Device connected")
	assert.Contains(t, s, "(fields hidden)")
}
