package input

// Constants from linux/input.h missing in go-evdev

const (
	BUS_PCI       = 0x01
	BUS_ISAPNP    = 0x02
	BUS_USB       = 0x03
	BUS_HIL       = 0x04
	BUS_BLUETOOTH = 0x05
	BUS_VIRTUAL   = 0x06

	BUS_ISA         = 0x10
	BUS_I8042       = 0x11
	BUS_XTKBD       = 0x12
	BUS_RS232       = 0x13
	BUS_GAMEPORT    = 0x14
	BUS_PARPORT     = 0x15
	BUS_AMIGA       = 0x16
	BUS_ADB         = 0x17
	BUS_I2C         = 0x18
	BUS_HOST        = 0x19
	BUS_GSC         = 0x1A
	BUS_ATARI       = 0x1B
	BUS_SPI         = 0x1C
	BUS_RMI         = 0x1D
	BUS_CEC         = 0x1E
	BUS_INTEL_ISHTP = 0x1F

	// MT_TOOL types

	MT_TOOL_FINGER = 0x00
	MT_TOOL_PEN    = 0x01
	MT_TOOL_PALM   = 0x02
	MT_TOOL_DIAL   = 0x0a
	MT_TOOL_MAX    = 0x0f
)

func busName(bus uint16) string {
	switch bus {
	case BUS_USB:
		return "usb"
	case BUS_BLUETOOTH:
		return "bluetooth"
	case BUS_VIRTUAL:
		return "virtual"
	case BUS_I8042:
		return "i8042"
	case BUS_I2C:
		return "i2c"
	case BUS_HOST:
		return "host"
	case BUS_SPI:
		return "spi"
	case BUS_RMI:
		return "rmi"
	case BUS_INTEL_ISHTP:
		return "ishtp"
	default:
		return "other"
	}
}
