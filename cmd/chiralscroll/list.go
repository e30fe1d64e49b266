package main

import (
	"fmt"
	"io"

	"github.com/gethiox/chiralscroll/internal/pkg/input"
	"github.com/gethiox/chiralscroll/internal/pkg/touch"
	"github.com/holoplot/go-evdev"
	"gopkg.in/yaml.v3"
)

type listedHandler struct {
	Event    string         `yaml:"event"`
	Type     string         `yaml:"type"`
	Name     string         `yaml:"name"`
	Geometry touch.Geometry `yaml:"geometry,omitempty"`
	Error    string         `yaml:"error,omitempty"`
}

type listedDevice struct {
	Name     string          `yaml:"name"`
	Type     string          `yaml:"type"`
	ID       string          `yaml:"id"`
	Phys     string          `yaml:"phys,omitempty"`
	Handlers []listedHandler `yaml:"handlers"`
}

type geometryReader func(info input.DeviceInfo) (touch.Geometry, error)

func readGeometry(info input.DeviceInfo) (touch.Geometry, error) {
	dev, err := evdev.Open(info.EventPath())
	if err != nil {
		return nil, err
	}
	defer dev.Close()
	return input.Geometry(dev)
}

func buildListing(devices []input.Device, geometry geometryReader) []listedDevice {
	var out []listedDevice
	for _, d := range devices {
		ld := listedDevice{
			Name: d.Name,
			Type: d.DeviceType.String(),
			ID:   d.ID.String(),
			Phys: d.Phys,
		}
		for _, h := range d.HandlersOf(allHandlerTypes...) {
			lh := listedHandler{
				Event: h.Event(),
				Type:  h.HandlerType().String(),
				Name:  h.Name,
			}
			if h.HandlerType() == input.DI_TYPE_TOUCHPAD {
				g, err := geometry(h)
				if err != nil {
					lh.Error = err.Error()
				} else {
					lh.Geometry = g
				}
			}
			ld.Handlers = append(ld.Handlers, lh)
		}
		out = append(out, ld)
	}
	return out
}

var allHandlerTypes = []input.HandlerType{
	input.DI_TYPE_UNKNOWN, input.DI_TYPE_STD_KBD, input.DI_TYPE_NKRO_KBD,
	input.DI_TYPE_MULTIMEDIA, input.DI_TYPE_SYSTEM, input.DI_TYPE_MOUSE,
	input.DI_TYPE_JOYSTICK, input.DI_TYPE_TOUCHPAD,
}

func writeListing(w io.Writer, listing []listedDevice) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	err := enc.Encode(listing)
	if err != nil {
		return fmt.Errorf("encoding device list failed: %w", err)
	}
	return enc.Close()
}

// listDevices prints all input devices, touchpads together with their geometry
func listDevices(w io.Writer) error {
	infos, err := input.GetHandlers()
	if err != nil {
		return fmt.Errorf("reading input devices failed: %w", err)
	}
	return writeListing(w, buildListing(input.Normalize(infos), readGeometry))
}
