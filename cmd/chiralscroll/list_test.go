package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gethiox/chiralscroll/internal/pkg/input"
	"github.com/gethiox/chiralscroll/internal/pkg/touch"
	"github.com/stretchr/testify/assert"
)

const expectedListing = `- name: SynPS/2 Synaptics TouchPad
  type: Touchpad
  id: i8042 0x0002 0x0007 0x01b1
  phys: isa0060
  handlers:
    - event: event5
      type: TOUCHPAD
      name: SynPS/2 Synaptics TouchPad
      geometry:
        - link: 0
          logical:
            top: 0
            bottom: 2000
            left: 0
            right: 3200
          physical:
            top: 0
            bottom: 62500
            left: 0
            right: 100000
`

func TestListing(t *testing.T) {
	info := touchpadInfo
	info.ID = input.InputID{Bus: input.BUS_I8042, Vendor: 0x0002, Product: 0x0007, Version: 0x01b1}

	devices := input.Normalize([]input.DeviceInfo{info})
	if !assert.Len(t, devices, 1) {
		return
	}

	listing := buildListing(devices, func(input.DeviceInfo) (touch.Geometry, error) {
		return touch.Geometry{{
			Logical:  touch.Area{Bottom: 2000, Right: 3200},
			Physical: touch.Area{Bottom: 62500, Right: 100000},
		}}, nil
	})

	var buf bytes.Buffer
	assert.NoError(t, writeListing(&buf, listing))
	assert.Equal(t, expectedListing, buf.String())
}

func TestListingGeometryError(t *testing.T) {
	devices := input.Normalize([]input.DeviceInfo{touchpadInfo, keyboardInfo})
	listing := buildListing(devices, func(input.DeviceInfo) (touch.Geometry, error) {
		return nil, errors.New("permission denied")
	})

	var handlers []listedHandler
	for _, d := range listing {
		handlers = append(handlers, d.Handlers...)
	}
	assert.Contains(t, handlers, listedHandler{
		Event: "event5", Type: "TOUCHPAD", Name: "SynPS/2 Synaptics TouchPad", Error: "permission denied",
	})
	assert.Contains(t, handlers, listedHandler{
		Event: "event4", Type: "STD_KBD", Name: "AT Translated Set 2 keyboard",
	})
}
