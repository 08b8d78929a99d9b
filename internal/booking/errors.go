package booking

import (
	"errors"
	"fmt"
)

var (
	// ErrSelectionLimitReached is returned by ToggleSeat when the selection
	// already holds as many seats as there are tickets.
	ErrSelectionLimitReached = errors.New("selection limit reached")
	// ErrEmptySelection is returned by Confirm when no seat is selected.
	ErrEmptySelection = errors.New("no seats selected")
	// ErrSelectionMismatch is matched by every *SelectionMismatchError.
	ErrSelectionMismatch = errors.New("selected seats do not match ticket count")

	ErrSeatNotFound    = errors.New("seat not found")
	ErrSessionClosed   = errors.New("booking session is not open")
	ErrUnknownCategory = errors.New("unknown ticket category")
)

// SelectionMismatchError reports how far the selection is from the ticket
// count.
type SelectionMismatchError struct {
	Needed   int // total tickets
	Selected int // seats currently selected
}

func (e *SelectionMismatchError) Error() string {
	if e.Selected < e.Needed {
		return fmt.Sprintf("select %d more seat(s): %d of %d selected", e.Shortfall(), e.Selected, e.Needed)
	}
	return fmt.Sprintf("deselect %d seat(s): %d of %d selected", e.Excess(), e.Selected, e.Needed)
}

func (e *SelectionMismatchError) Unwrap() error { return ErrSelectionMismatch }

// Shortfall is the number of seats still missing, zero when there are too many.
func (e *SelectionMismatchError) Shortfall() int {
	if e.Selected >= e.Needed {
		return 0
	}
	return e.Needed - e.Selected
}

// Excess is the number of seats over the ticket count, zero when there are too few.
func (e *SelectionMismatchError) Excess() int {
	if e.Selected <= e.Needed {
		return 0
	}
	return e.Selected - e.Needed
}

// LimitError carries the ticket count when ErrSelectionLimitReached is hit so
// callers can tell the user how many seats they may pick.
type LimitError struct {
	Limit int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("you can only select %d seat(s); deselect a seat first or increase your ticket count", e.Limit)
}

func (e *LimitError) Unwrap() error { return ErrSelectionLimitReached }

// IsUserCorrectable reports whether err is an input state the user can fix
// by changing the selection or the ticket counts.
func IsUserCorrectable(err error) bool {
	return errors.Is(err, ErrSelectionLimitReached) ||
		errors.Is(err, ErrEmptySelection) ||
		errors.Is(err, ErrSelectionMismatch)
}
