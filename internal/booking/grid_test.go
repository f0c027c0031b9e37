package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrid_Week(t *testing.T) {
	t.Parallel()

	grid := NewGrid(time.UTC)
	ref := time.Date(2024, time.March, 6, 15, 30, 0, 0, time.UTC)

	t.Run("produces 84 distinct ordered slots", func(t *testing.T) {
		t.Parallel()

		slots := grid.Week(ref)
		require.Len(t, slots, SlotsPerWeek)

		seen := make(map[string]struct{}, len(slots))
		for i, slot := range slots {
			_, dup := seen[slot.ID()]
			require.False(t, dup, "duplicate slot %s", slot.ID())
			seen[slot.ID()] = struct{}{}
			if i > 0 {
				assert.True(t, slot.Start.After(slots[i-1].Start), "slot %d out of order", i)
			}
		}

		assert.Equal(t, "2024-03-04T08:00:00Z", slots[0].ID())
		assert.Equal(t, "2024-03-04T19:00:00Z", slots[SlotsPerDay-1].ID())
		assert.Equal(t, "2024-03-10T19:00:00Z", slots[len(slots)-1].ID())
	})

	t.Run("regenerates identically", func(t *testing.T) {
		t.Parallel()

		first := grid.Week(ref)
		second := grid.Week(ref.Add(36 * time.Hour))
		assert.Equal(t, first, second)
	})

	t.Run("navigates weeks", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, time.Date(2024, time.February, 26, 0, 0, 0, 0, time.UTC), grid.PreviousWeek(ref))
		assert.Equal(t, time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC), grid.NextWeek(ref))
		next := grid.Week(grid.NextWeek(ref))
		assert.Equal(t, "2024-03-11T08:00:00Z", next[0].ID())
	})
}

func TestGrid_WeekStart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ref  time.Time
		want time.Time
	}{
		{
			name: "monday midnight is its own week start",
			ref:  time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC),
			want: time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "sunday night belongs to the preceding monday",
			ref:  time.Date(2024, time.March, 10, 23, 59, 59, 0, time.UTC),
			want: time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "crosses month boundary",
			ref:  time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC),
			want: time.Date(2024, time.February, 26, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, tt.want.Equal(WeekStart(tt.ref, time.UTC)))
		})
	}
}

func TestGrid_LocationAware(t *testing.T) {
	t.Parallel()

	jst := time.FixedZone("JST", 9*60*60)
	grid := NewGrid(jst)

	// Sunday 20:00 UTC is already Monday 05:00 in JST.
	ref := time.Date(2024, time.March, 3, 20, 0, 0, 0, time.UTC)
	start := grid.WeekStart(ref)
	assert.Equal(t, time.Date(2024, time.March, 4, 0, 0, 0, 0, jst), start)

	slots := grid.Week(ref)
	assert.Equal(t, "2024-03-03T23:00:00Z", slots[0].ID())
}

func TestGrid_DaylightSaving(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	grid := NewGrid(loc)

	// Clocks move forward on Sunday 2024-03-31.
	slots := grid.Week(time.Date(2024, time.March, 27, 12, 0, 0, 0, loc))
	require.Len(t, slots, SlotsPerWeek)

	sunday := slots[6*SlotsPerDay]
	assert.Equal(t, 8, sunday.Start.In(loc).Hour())
	assert.Equal(t, "2024-03-31T06:00:00Z", sunday.ID())

	monday := slots[0]
	assert.Equal(t, "2024-03-25T07:00:00Z", monday.ID())
}

func TestGrid_SlotAt(t *testing.T) {
	t.Parallel()

	grid := NewGrid(nil)
	week := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	slot, err := grid.SlotAt(week, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04T10:00:00Z", slot.ID())
	assert.Equal(t, slot.Start.Add(time.Hour), slot.End())

	_, err = grid.SlotAt(week, 7, 10)
	assert.ErrorIs(t, err, ErrSlotOutOfRange)
	_, err = grid.SlotAt(week, 0, 20)
	assert.ErrorIs(t, err, ErrSlotOutOfRange)
	_, err = grid.SlotAt(week, 0, 7)
	assert.ErrorIs(t, err, ErrSlotOutOfRange)
}

func TestIsCanonicalSlot(t *testing.T) {
	t.Parallel()

	assert.True(t, IsCanonicalSlot(time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC), time.UTC))
	assert.True(t, IsCanonicalSlot(time.Date(2024, time.March, 4, 19, 0, 0, 0, time.UTC), time.UTC))
	assert.False(t, IsCanonicalSlot(time.Date(2024, time.March, 4, 10, 30, 0, 0, time.UTC), time.UTC))
	assert.False(t, IsCanonicalSlot(time.Date(2024, time.March, 4, 20, 0, 0, 0, time.UTC), time.UTC))
	assert.False(t, IsCanonicalSlot(time.Date(2024, time.March, 4, 7, 0, 0, 0, time.UTC), time.UTC))
}

func TestGrid_Contains(t *testing.T) {
	t.Parallel()

	grid := NewGrid(time.UTC)
	week := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	assert.True(t, grid.Contains(week, week))
	assert.True(t, grid.Contains(week, time.Date(2024, time.March, 10, 23, 0, 0, 0, time.UTC)))
	assert.False(t, grid.Contains(week, time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)))
}
