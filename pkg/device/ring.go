package device

import (
	"errors"

	"github.com/maxmix/maxmix.go/pkg/msgs"
)

// Ring slot indices.
const (
	SlotPrevious = 0
	SlotCurrent  = 1
	SlotNext     = 2

	// RingSize is the number of slots kept around the focused session.
	RingSize = 3
)

// ErrSlotOutOfRange indicates a ring slot index outside [0, RingSize).
var ErrSlotOutOfRange = errors.New("slot out of range")

// Ring is the window of sessions around the focused one.
type Ring struct {
	slots [RingSize]msgs.Session
}

// Slot returns the session at index.
func (r *Ring) Slot(index int) (*msgs.Session, error) {
	if index < 0 || index >= RingSize {
		return nil, ErrSlotOutOfRange
	}
	return &r.slots[index], nil
}

// Set replaces the session at index.
func (r *Ring) Set(index int, s msgs.Session) error {
	slot, err := r.Slot(index)
	if err != nil {
		return err
	}
	*slot = s
	return nil
}

// Previous returns the previous slot.
func (r *Ring) Previous() *msgs.Session { return &r.slots[SlotPrevious] }

// Current returns the focused slot.
func (r *Ring) Current() *msgs.Session { return &r.slots[SlotCurrent] }

// Next returns the next slot.
func (r *Ring) Next() *msgs.Session { return &r.slots[SlotNext] }

// ShiftBackward moves the window one session back: next takes current,
// current takes previous and previous is cleared until repopulated.
func (r *Ring) ShiftBackward() {
	r.slots[SlotNext] = r.slots[SlotCurrent]
	r.slots[SlotCurrent] = r.slots[SlotPrevious]
	r.slots[SlotPrevious] = msgs.Session{}
}

// ShiftForward moves the window one session forward: previous takes
// current, current takes next and next is cleared until repopulated.
func (r *Ring) ShiftForward() {
	r.slots[SlotPrevious] = r.slots[SlotCurrent]
	r.slots[SlotCurrent] = r.slots[SlotNext]
	r.slots[SlotNext] = msgs.Session{}
}

// Find returns the slot index holding the session id, or -1.
func (r *Ring) Find(id int32) int {
	for i := range r.slots {
		if !r.slots[i].IsEmpty() && r.slots[i].ID == id {
			return i
		}
	}
	return -1
}
