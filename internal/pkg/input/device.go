package input

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gethiox/chiralscroll/internal/pkg/logger"
	"github.com/holoplot/go-evdev"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

var ErrNoHandlers = errors.New("device has no handlers of requested types")

// Collects all separate device-info handlers together for building one logical handler

type DeviceType int

// Generic device types
const (
	UnknownDevice  DeviceType = iota
	KeyboardDevice            // keyboard, including keyboard with integrated mouse
	MouseDevice               // mouse device only
	JoystickDevice            // joystick device, may contain keyboard, mouse, sensors events
	TouchpadDevice            // touchpad, may share physical connection with a keyboard on laptops
)

type InputEvent struct {
	Source DeviceInfo
	Event  evdev.InputEvent
}

func (e DeviceType) String() string {
	switch e {
	case KeyboardDevice:
		return "Keyboard"
	case MouseDevice:
		return "Mouse"
	case JoystickDevice:
		return "Joystick"
	case TouchpadDevice:
		return "Touchpad"
	default:
		return "Unknown"
	}
}

func containsOnly(in map[HandlerType]DeviceInfo, handlerTypes ...HandlerType) bool {
	if len(in) != len(handlerTypes) {
		return false
	}
	return contains(in, handlerTypes...)
}

func contains(in map[HandlerType]DeviceInfo, handlerTypes ...HandlerType) bool {
	for _, ht := range handlerTypes {
		_, ok := in[ht]
		if !ok {
			return false
		}
	}
	return true
}

func containsAny(in map[HandlerType]DeviceInfo, handlerTypes ...HandlerType) bool {
	for _, ht := range handlerTypes {
		if _, ok := in[ht]; ok {
			return true
		}
	}
	return false
}

func DetermineDeviceType(handlers map[HandlerType]DeviceInfo) DeviceType {
	switch {
	case contains(handlers, DI_TYPE_TOUCHPAD):
		return TouchpadDevice
	case contains(handlers, DI_TYPE_JOYSTICK):
		return JoystickDevice
	case containsAny(handlers, DI_TYPE_STD_KBD, DI_TYPE_NKRO_KBD):
		return KeyboardDevice
	case containsOnly(handlers, DI_TYPE_MOUSE):
		return MouseDevice
	default:
		return UnknownDevice
	}
}

// Normalize processes all DeviceInfo list and returns generic devices with its underlying DeviceInfo handlers
func Normalize(deviceInfos []DeviceInfo) []Device {
	var collection = make(map[PhysicalID][]DeviceInfo, 0)
	var order = make([]PhysicalID, 0)

	for _, di := range deviceInfos {
		key := di.PhysicalUUID()
		if _, ok := collection[key]; !ok {
			order = append(order, key)
		}
		collection[key] = append(collection[key], di)
	}

	var devices = make([]Device, 0, len(order))

	for _, devPhys := range order {
		dis := collection[devPhys]
		var dev = Device{
			ID:       dis[0].ID,
			Handlers: make(map[HandlerType]DeviceInfo),
			evdevs:   &openedHandlers{m: make(map[HandlerType]*evdev.InputDevice)},
		}

		var name = ""
		var uniq = ""

		for _, di := range dis {
			switch {
			case name == "":
				name = di.Name
			case len(di.Name) < len(name):
				name = di.Name
			}

			if di.Uniq != "" && uniq == "" {
				uniq = di.Uniq
			}

			ht := di.HandlerType()
			if v, ok := dev.Handlers[ht]; ok {
				log.Info(
					fmt.Sprintf("handler %s already exists (%s), skipping %s", ht, v.Event(), di.Event()),
					zap.String("device_name", name), logger.Debug,
				)
				continue
			}

			dev.Handlers[ht] = di
		}

		dev.DeviceType = DetermineDeviceType(dev.Handlers)
		dev.Name = name
		dev.Uniq = uniq
		dev.Phys = string(devPhys)
		devices = append(devices, dev)
	}

	return devices
}

// Device is a representation of singular hardware device, it keeps all underlying DeviceInfo handlers
type Device struct {
	ID   InputID
	Name string
	Uniq string
	// Phys is a common part of Handlers Phys
	// for example "usb-20980000.usb-1.4/input0" will be used as "usb-20980000.usb-1.4"
	Phys string

	DeviceType DeviceType
	Handlers   map[HandlerType]DeviceInfo

	evdevs *openedHandlers
}

type openedHandlers struct {
	sync.Mutex
	m map[HandlerType]*evdev.InputDevice
}

func (d *Device) String() string {
	return fmt.Sprintf(
		"[%s], \"%s\", %d handlers (%s, \"%s\")",
		d.DeviceType, d.Name, len(d.Handlers), d.ID, d.Uniq,
	)
}

func (d *Device) PhysicalUUID() PhysicalID {
	return PhysicalID(d.Phys)
}

// HandlersOf returns handlers of given types sorted by event name
func (d *Device) HandlersOf(types ...HandlerType) []DeviceInfo {
	var out []DeviceInfo
	for _, ht := range types {
		if h, ok := d.Handlers[ht]; ok {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Event() < out[j].Event()
	})
	return out
}

// Evdev returns opened handler of given type, available after ProcessEvents
func (d *Device) Evdev(ht HandlerType) (*evdev.InputDevice, bool) {
	if d.evdevs == nil {
		return nil, false
	}
	d.evdevs.Lock()
	defer d.evdevs.Unlock()
	dev, ok := d.evdevs.m[ht]
	return dev, ok
}

// ProcessEvents opens handlers of given types and streams their events until ctx is done
// or handlers disappear. Channel is closed when all handlers are finished.
func (d *Device) ProcessEvents(ctx context.Context, types ...HandlerType) (<-chan InputEvent, error) {
	var events = make(chan InputEvent, 64)

	handlers := d.HandlersOf(types...)
	if len(handlers) == 0 {
		return nil, ErrNoHandlers
	}

	var opened = make(map[HandlerType]*evdev.InputDevice, len(handlers))
	for _, h := range handlers {
		dev, err := evdev.Open(h.EventPath())
		if err != nil {
			for _, o := range opened {
				o.Close()
			}
			return nil, fmt.Errorf("opening handler failed: %w", err)
		}
		opened[h.HandlerType()] = dev
	}

	if d.evdevs == nil {
		d.evdevs = &openedHandlers{m: make(map[HandlerType]*evdev.InputDevice)}
	}
	d.evdevs.Lock()
	for ht, dev := range opened {
		d.evdevs.m[ht] = dev
	}
	d.evdevs.Unlock()

	wg := sync.WaitGroup{}
	for _, h := range handlers {
		dev := opened[h.HandlerType()]

		go func(dev *evdev.InputDevice) {
			<-ctx.Done()
			err := dev.Close()
			if err != nil {
				log.Info(fmt.Sprintf("device close failed: %v", err), zap.String("handler_event", dev.Path()), logger.Debug)
			}
		}(dev)

		wg.Add(1)
		go func(dev *evdev.InputDevice, info DeviceInfo) {
			defer wg.Done()
			event := info.Event()
			name, _ := dev.Name()
			name = strings.Trim(name, "\x00")

			log.Info("Reading input events", zap.String("handler_event", event), zap.String("handler_name", name), logger.Debug)

			err := dev.NonBlock()
			if err != nil {
				log.Info(fmt.Sprintf("enabling non-blocking event reading mode failed: %v", err),
					zap.String("handler_event", event), zap.String("handler_name", name),
					logger.Warning,
				)
			}
			for {
				ev, err := dev.ReadOne()
				if err != nil {
					break
				}
				events <- InputEvent{Source: info, Event: *ev}
			}
			log.Info("Reading input events finished", zap.String("handler_event", event), zap.String("handler_name", name), logger.Debug)
		}(dev, h)
	}

	go func() {
		wg.Wait()
		log.Info("All handlers done, closing events channel", zap.String("device_name", d.Name), logger.Debug)
		close(events)
	}()

	return events, nil
}
