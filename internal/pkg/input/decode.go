package input

import (
	"fmt"
	"math/bits"
	"os"
	"strconv"
	"strings"
)

// GetHandlers returns a list of available input handlers in the system.
// Note: there is non-zero probability that returned list may be incomplete,
// no matter where they come from, either /proc/bus/input/devices or /dev/input listing has the same behavior.
// This is needed to be handled when user wants to have a complete group of handlers for given hardware device.
func GetHandlers() ([]DeviceInfo, error) {
	data, err := os.ReadFile("/proc/bus/input/devices")
	if err != nil {
		return nil, err
	}

	di, err := unmarshal(data)
	if err != nil {
		return nil, err
	}

	return di, nil
}

// parseBitmap decodes kernel bitmap, words are printed from the most significant one
func parseBitmap(s string) (Bitmap, error) {
	words := strings.Fields(s)
	bitmap := make(Bitmap, len(words))
	for i, w := range words {
		v, err := strconv.ParseUint(w, 16, bits.UintSize)
		if err != nil {
			return nil, fmt.Errorf("bitmap word \"%s\": %w", w, err)
		}
		bitmap[len(words)-1-i] = uint(v)
	}
	return bitmap, nil
}

func parseID(device *DeviceInfo, info string) error {
	for _, param := range strings.Fields(info) {
		l, v, ok := strings.Cut(param, "=")
		if !ok {
			return fmt.Errorf("malformed id field \"%s\"", param)
		}
		uv, err := strconv.ParseUint(v, 16, 16)
		if err != nil {
			return fmt.Errorf("id field \"%s\": %w", l, err)
		}
		switch l {
		case "Bus":
			device.ID.Bus = uint16(uv)
		case "Vendor":
			device.ID.Vendor = uint16(uv)
		case "Product":
			device.ID.Product = uint16(uv)
		case "Version":
			device.ID.Version = uint16(uv)
		}
	}
	return nil
}

func parseBitmapLine(device *DeviceInfo, info string) error {
	l, vs, ok := strings.Cut(info, "=")
	if !ok {
		return fmt.Errorf("malformed bitmap line \"%s\"", info)
	}
	bitmap, err := parseBitmap(vs)
	if err != nil {
		return fmt.Errorf("%s bitmap: %w", l, err)
	}

	b := &device.Bitmaps
	switch l {
	case "PROP":
		b.PROP = bitmap
	case "EV":
		b.EV = bitmap
	case "KEY":
		b.KEY = bitmap
	case "REL":
		b.REL = bitmap
	case "ABS":
		b.ABS = bitmap
	case "MSC":
		b.MSC = bitmap
	case "LED":
		b.LED = bitmap
	case "SND":
		b.SND = bitmap
	case "FF":
		b.FF = bitmap
	case "SW":
		b.SW = bitmap
	}
	return nil
}

// unmarshal parses /proc/bus/input/devices file
func unmarshal(data []byte) ([]DeviceInfo, error) {
	var devices = make([]DeviceInfo, 0)

	var device DeviceInfo
	var started bool

	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			if started {
				devices = append(devices, device)
				device = DeviceInfo{}
				started = false
			}
			continue
		}
		if len(line) < 3 || line[1] != ':' {
			return devices, fmt.Errorf("malformed line \"%s\"", line)
		}
		started = true

		label := line[:1]
		info := strings.TrimSpace(line[2:])

		var err error
		switch label {
		case "I":
			err = parseID(&device, info)
		case "N":
			device.Name = strings.Trim(strings.TrimPrefix(info, "Name="), "\"")
		case "P":
			device.Phys = strings.TrimPrefix(info, "Phys=")
		case "S":
			device.Sysfs = strings.TrimPrefix(info, "Sysfs=")
		case "U":
			device.Uniq = strings.TrimPrefix(info, "Uniq=")
		case "H":
			device.Handlers = strings.Fields(strings.TrimPrefix(info, "Handlers="))
		case "B":
			err = parseBitmapLine(&device, info)
		}
		if err != nil {
			return devices, fmt.Errorf("device \"%s\": %w", device.Name, err)
		}
	}
	if started {
		devices = append(devices, device)
	}

	return devices, nil
}
