package booking

// Features describes the equipment and size of a room.
type Features struct {
	MaxCapacity    int
	HasProjector   bool
	HasWhiteboard  bool
	HasAudio       bool
	HasVentilation bool
}

// CapacityRange is an inclusive bound on room capacity.
type CapacityRange struct {
	Min int
	Max int
}

// RoomFilter selects rooms by features. Nil fields are not applied.
type RoomFilter struct {
	Capacity       *CapacityRange
	HasProjector   *bool
	HasWhiteboard  *bool
	HasAudio       *bool
	HasVentilation *bool
}

// Empty reports whether the filter has no constraints.
func (f RoomFilter) Empty() bool {
	return f.Capacity == nil && f.HasProjector == nil && f.HasWhiteboard == nil &&
		f.HasAudio == nil && f.HasVentilation == nil
}

// Matches reports whether features satisfy every set constraint.
func (f RoomFilter) Matches(features Features) bool {
	if f.Capacity != nil {
		if features.MaxCapacity < f.Capacity.Min || features.MaxCapacity > f.Capacity.Max {
			return false
		}
	}
	if !matchFlag(f.HasProjector, features.HasProjector) {
		return false
	}
	if !matchFlag(f.HasWhiteboard, features.HasWhiteboard) {
		return false
	}
	if !matchFlag(f.HasAudio, features.HasAudio) {
		return false
	}
	return matchFlag(f.HasVentilation, features.HasVentilation)
}

func matchFlag(want *bool, have bool) bool {
	return want == nil || *want == have
}

// FilterRooms returns the elements of items whose features match filter,
// preserving input order.
func FilterRooms[T any](items []T, features func(T) Features, filter RoomFilter) []T {
	result := make([]T, 0, len(items))
	for _, item := range items {
		if filter.Matches(features(item)) {
			result = append(result, item)
		}
	}
	return result
}
