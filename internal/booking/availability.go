package booking

import "time"

// Booking is the subset of a reservation the evaluator needs.
type Booking struct {
	ID     string
	RoomID string
	Start  time.Time
	Status Status
}

// SlotAvailability is the evaluated state of one grid slot.
type SlotAvailability struct {
	Slot          Slot
	Reserved      bool
	ReservationID string
}

// EvaluateAvailability marks each slot reserved when an accepted booking for
// roomID starts at the same instant. Bookings for other rooms, and bookings
// in any other status, are ignored. The output order follows slots.
func EvaluateAvailability(roomID string, slots []Slot, bookings []Booking) []SlotAvailability {
	held := make(map[int64]string, len(bookings))
	for _, b := range bookings {
		if b.RoomID != roomID || !b.Status.Blocks() {
			continue
		}
		key := b.Start.UTC().Unix()
		if _, exists := held[key]; !exists {
			held[key] = b.ID
		}
	}

	result := make([]SlotAvailability, len(slots))
	for i, slot := range slots {
		entry := SlotAvailability{Slot: slot}
		if id, ok := held[slot.Start.UTC().Unix()]; ok {
			entry.Reserved = true
			entry.ReservationID = id
		}
		result[i] = entry
	}
	return result
}

// FreeCount returns the number of unreserved slots.
func FreeCount(evaluated []SlotAvailability) int {
	free := 0
	for _, entry := range evaluated {
		if !entry.Reserved {
			free++
		}
	}
	return free
}
