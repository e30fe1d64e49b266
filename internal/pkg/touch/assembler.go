package touch

import (
	"errors"
	"fmt"

	"github.com/gethiox/chiralscroll/internal/pkg/logger"
)

var log = logger.GetLogger()

var ErrContactCountMismatch = errors.New("wrong number of contacts in frame")

// Policy decides what happens when finalized frame size differs from the count declared by the device
type Policy int

const (
	Lenient Policy = iota // log a warning and return the frame anyway
	Strict                // return ErrContactCountMismatch
)

func (p Policy) String() string {
	switch p {
	case Strict:
		return "strict"
	default:
		return "lenient"
	}
}

type assemblerState int

const (
	notStarted assemblerState = iota
	inProgress
)

// FrameAssembler reassembles contacts spread over several reports into frames.
// It is not safe for concurrent use.
type FrameAssembler struct {
	policy   Policy
	state    assemblerState
	expected uint32
	contacts Frame
	last     Frame
}

func NewFrameAssembler(policy Policy) *FrameAssembler {
	return &FrameAssembler{policy: policy}
}

// InProgress tells if assembler waits for more reports to complete a frame
func (a *FrameAssembler) InProgress() bool {
	return a.state == inProgress
}

// ProcessReport consumes one report, returns a frame when it's complete.
// With Strict policy a contact count mismatch is returned as an error together with the frame.
func (a *FrameAssembler) ProcessReport(r Report) (Frame, bool, error) {
	if a.state == notStarted {
		if r.ContactCount == 0 {
			// button-only report
			return nil, false, nil
		}
		a.state = inProgress
		a.expected = r.ContactCount
		a.contacts = make(Frame, 0, r.ContactCount)
	}

	for _, s := range r.Slots {
		if !s.HasID {
			continue
		}
		a.contacts = append(a.contacts, s.Contact)
	}

	if uint32(len(a.contacts)) < a.expected {
		return nil, false, nil
	}

	return a.finish()
}

func (a *FrameAssembler) finish() (Frame, bool, error) {
	frame := make(Frame, 0, len(a.contacts))
	for _, c := range a.contacts {
		if !c.Touching && !a.seenBefore(c) {
			continue // ghost lift
		}
		frame = append(frame, c)
	}

	expected := a.expected
	a.state = notStarted
	a.expected = 0
	a.contacts = nil
	a.last = frame

	var err error
	if uint32(len(frame)) != expected {
		err = fmt.Errorf("%w: expected %d, got %d", ErrContactCountMismatch, expected, len(frame))
		if a.policy == Lenient {
			log.Info(err.Error(), logger.Warning)
			err = nil
		}
	}
	return frame, true, err
}

func (a *FrameAssembler) seenBefore(c Contact) bool {
	for _, p := range a.last {
		if p.ID == c.ID && p.LogicalX == c.LogicalX && p.LogicalY == c.LogicalY {
			return true
		}
	}
	return false
}
