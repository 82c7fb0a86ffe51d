package service

import (
	"time"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// CanRegister decides whether requested more tickets may be sold for event
// given booked live tickets. It is pure; callers must evaluate it inside the
// transaction that holds the event row lock and performs the write.
func CanRegister(event *model.Event, booked, requested int, now time.Time) error {
	if event.Status != model.EventStatusActive {
		return model.ErrRegistrationClosed
	}
	if !event.StartDate.After(now) {
		return model.ErrRegistrationClosed
	}
	return checkCapacity(event, booked, requested)
}

// checkCapacity is the capacity half of CanRegister, also used when an
// organizer revives a cancelled registration.
func checkCapacity(event *model.Event, booked, requested int) error {
	remaining := RemainingCapacity(event, booked)
	if remaining == nil {
		return nil
	}
	if requested > *remaining {
		return &model.CapacityExceededError{Remaining: *remaining}
	}
	return nil
}

// RemainingCapacity returns the tickets still available, never negative, or
// nil for unlimited events.
func RemainingCapacity(event *model.Event, booked int) *int {
	if event.Capacity == nil {
		return nil
	}
	remaining := max(*event.Capacity-booked, 0)
	return &remaining
}
