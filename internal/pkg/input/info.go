package input

// Related things to separate handlers that comes from /proc/bus/input/devices

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/holoplot/go-evdev"
)

type PhysicalID string
type HandlerType int

const (
	DI_TYPE_UNKNOWN    = HandlerType(iota)
	DI_TYPE_STD_KBD    // standard keyboard 6KRO mode
	DI_TYPE_NKRO_KBD   // N-Key Rollover mode
	DI_TYPE_MULTIMEDIA // Multimedia events, e.g. next track, volume up
	DI_TYPE_SYSTEM     // System events, e.g. sleep, power
	DI_TYPE_MOUSE
	DI_TYPE_JOYSTICK
	DI_TYPE_TOUCHPAD // multitouch (protocol B) indirect pointing device
)

func (ht HandlerType) String() string {
	switch ht {
	case DI_TYPE_STD_KBD:
		return "STD_KBD"
	case DI_TYPE_NKRO_KBD:
		return "NKRO_KBD"
	case DI_TYPE_MULTIMEDIA:
		return "MULTIMEDIA"
	case DI_TYPE_SYSTEM:
		return "SYSTEM"
	case DI_TYPE_MOUSE:
		return "MOUSE"
	case DI_TYPE_JOYSTICK:
		return "JOYSTICK"
	case DI_TYPE_TOUCHPAD:
		return "TOUCHPAD"
	default:
		return "UNKNOWN"
	}
}

// IsKeyboard tells if handler emits regular typing keys
func (ht HandlerType) IsKeyboard() bool {
	return ht == DI_TYPE_STD_KBD || ht == DI_TYPE_NKRO_KBD
}

// DeviceInfo contains information of every reported event device
// it is supposed to be created by unmarshal function only
type DeviceInfo struct {
	ID       InputID  // ID of the device
	Name     string   // name of the device
	Phys     string   // physical path to the device in the system hierarchy
	Sysfs    string   // sysfs path
	Uniq     string   // unique identification code for the device (if device has it)
	Handlers []string // list of input handles associated with the device
	Bitmaps  Bitmaps
}

type InputID struct {
	Bus     uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

func (i InputID) String() string {
	return fmt.Sprintf("%s 0x%04x 0x%04x 0x%04x", busName(i.Bus), i.Vendor, i.Product, i.Version)
}

// Bitmap is a capability bitmap, word 0 holds the lowest bits
type Bitmap []uint

// Has tells if bit of given number is set
func (b Bitmap) Has(bit uint) bool {
	word := bit / bits.UintSize
	if word >= uint(len(b)) {
		return false
	}
	return b[word]&(1<<(bit%bits.UintSize)) != 0
}

// HasAll tells if every listed bit is set
func (b Bitmap) HasAll(bitNumbers ...uint) bool {
	for _, bit := range bitNumbers {
		if !b.Has(bit) {
			return false
		}
	}
	return true
}

// Set returns numbers of all set bits
func (b Bitmap) Set() []uint {
	var out []uint
	for i, w := range b {
		for w != 0 {
			n := uint(bits.TrailingZeros(w))
			out = append(out, uint(i)*bits.UintSize+n)
			w &^= 1 << n
		}
	}
	return out
}

// Exactly tells if set bits are exactly the listed ones
func (b Bitmap) Exactly(bitNumbers ...uint) bool {
	set := b.Set()
	if len(set) != len(bitNumbers) {
		return false
	}
	return b.HasAll(bitNumbers...)
}

type Bitmaps struct {
	PROP Bitmap // device properties and quirks
	EV   Bitmap // types of events supported by the device
	KEY  Bitmap // keys/buttons this device has
	REL  Bitmap
	ABS  Bitmap
	MSC  Bitmap // miscellaneous events supported by the device
	LED  Bitmap // leds present on the device
	SND  Bitmap
	FF   Bitmap
	SW   Bitmap
}

// Event returns event name, like "event0" for /dev/input/event0
func (d *DeviceInfo) Event() string {
	for _, handler := range d.Handlers {
		if strings.HasPrefix(handler, "event") {
			return handler
		}
	}
	return ""
}

// EventPath returns a /dev/input/event filepath for button presses
func (d *DeviceInfo) EventPath() string {
	event := d.Event()
	if event == "" {
		return ""
	}
	return fmt.Sprintf("/dev/input/%s", event)
}

// IsTouchpad tells if handler is a multitouch touchpad, touchscreens are excluded
func (d *DeviceInfo) IsTouchpad() bool {
	return d.Bitmaps.EV.HasAll(uint(evdev.EV_KEY), uint(evdev.EV_ABS)) &&
		d.Bitmaps.ABS.HasAll(uint(evdev.ABS_MT_SLOT), uint(evdev.ABS_MT_POSITION_X), uint(evdev.ABS_MT_POSITION_Y)) &&
		d.Bitmaps.KEY.Has(uint(evdev.BTN_TOOL_FINGER)) &&
		!d.Bitmaps.PROP.Has(uint(evdev.INPUT_PROP_DIRECT))
}

func (d *DeviceInfo) HandlerType() HandlerType {
	if d.IsTouchpad() {
		return DI_TYPE_TOUCHPAD
	}

	ev := d.Bitmaps.EV
	switch {
	case ev.Exactly(uint(evdev.EV_SYN), uint(evdev.EV_KEY), uint(evdev.EV_MSC), uint(evdev.EV_LED), uint(evdev.EV_REP)):
		return DI_TYPE_STD_KBD
	case ev.Exactly(uint(evdev.EV_SYN), uint(evdev.EV_KEY), uint(evdev.EV_MSC), uint(evdev.EV_REP)):
		return DI_TYPE_NKRO_KBD
	case ev.Exactly(uint(evdev.EV_SYN), uint(evdev.EV_KEY), uint(evdev.EV_REL), uint(evdev.EV_MSC)),
		ev.Exactly(uint(evdev.EV_SYN), uint(evdev.EV_KEY), uint(evdev.EV_REL), uint(evdev.EV_ABS), uint(evdev.EV_MSC), uint(evdev.EV_LED), uint(evdev.EV_REP)):
		return DI_TYPE_MOUSE
	case ev.Exactly(uint(evdev.EV_SYN), uint(evdev.EV_KEY), uint(evdev.EV_MSC)):
		return DI_TYPE_SYSTEM
	case ev.Exactly(uint(evdev.EV_SYN), uint(evdev.EV_KEY), uint(evdev.EV_REL), uint(evdev.EV_ABS), uint(evdev.EV_MSC)):
		return DI_TYPE_MULTIMEDIA
	case ev.Has(uint(evdev.EV_FF)):
		return DI_TYPE_JOYSTICK
	}

	for _, h := range d.Handlers {
		switch {
		case strings.HasPrefix(h, "js"):
			return DI_TYPE_JOYSTICK
		case strings.HasPrefix(h, "mouse"):
			return DI_TYPE_MOUSE
		}
	}

	return DI_TYPE_UNKNOWN
}

// PhysicalUUID returns unique UUID based on connection of given USB port
// The main usage is to identify groups of handlers that represent one physical device
func (d *DeviceInfo) PhysicalUUID() PhysicalID {
	phys := strings.Split(d.Phys, "/")
	if phys[0] == "" {
		// virtual devices without phys, like uinput ones
		return PhysicalID("sysfs:" + d.Sysfs)
	}
	return PhysicalID(phys[0])
}
