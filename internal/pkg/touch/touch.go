package touch

import "fmt"

// Area is a bounding rectangle in device coordinates
type Area struct {
	Top, Bottom, Left, Right int32
}

func (a Area) Width() int32 {
	return a.Right - a.Left
}

func (a Area) Height() int32 {
	return a.Bottom - a.Top
}

// SlotGeometry describes the coordinate space of one contact slot-link
type SlotGeometry struct {
	Link     uint16 `yaml:"link"`
	Logical  Area   `yaml:"logical"`
	Physical Area   `yaml:"physical"`
}

// Geometry is an immutable set of slot geometries reported by a device
type Geometry []SlotGeometry

// Lookup returns geometry for given slot-link
func (g Geometry) Lookup(link uint16) (SlotGeometry, bool) {
	for _, s := range g {
		if s.Link == link {
			return s, true
		}
	}
	return SlotGeometry{}, false
}

// Contact is a single finger sample
type Contact struct {
	ID        uint32
	Link      uint16
	Touching  bool
	Confident bool
	LogicalX  int32
	LogicalY  int32
	PhysicalX int32
	PhysicalY int32
}

func (c Contact) String() string {
	state := "lift"
	if c.Touching {
		state = "touch"
	}
	return fmt.Sprintf("#%d(%s %d,%d)", c.ID, state, c.LogicalX, c.LogicalY)
}

// Frame is the complete set of contacts sampled at one time-step
type Frame []Contact

// Find returns contact with given identifier
func (f Frame) Find(id uint32) (Contact, bool) {
	for _, c := range f {
		if c.ID == id {
			return c, true
		}
	}
	return Contact{}, false
}

// AnyTouching tells if at least one contact in the frame touches the surface
func (f Frame) AnyTouching() bool {
	for _, c := range f {
		if c.Touching {
			return true
		}
	}
	return false
}

// SlotSample is a slot entry of a report, slots without a present identifier are skipped by the assembler
type SlotSample struct {
	HasID bool
	Contact
}

// Report is one raw device report
type Report struct {
	ContactCount uint32
	Slots        []SlotSample
}
