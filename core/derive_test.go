package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const testSession = "ws-1"

func punch(worker int32, direction string, at time.Time) Punch {
	return Punch{
		ID:            at.Format(time.RFC3339) + direction,
		WorkSessionID: testSession,
		WorkerID:      worker,
		Direction:     direction,
		PunchedAt:     at,
		Source:        PunchSourceWorker,
	}
}

func at(hour, min int) time.Time {
	return time.Date(2026, 2, 3, hour, min, 0, 0, time.UTC)
}

func TestDeriveShifts(t *testing.T) {
	t.Run("closed pair plus trailing open", func(t *testing.T) {
		shifts := DeriveShifts([]Punch{
			punch(1, DirectionIn, at(10, 0)),
			punch(1, DirectionOut, at(10, 30)),
			punch(1, DirectionIn, at(11, 0)),
		})

		assert.Len(t, shifts, 2)

		assert.Equal(t, at(10, 0), shifts[0].StartAt)
		assert.Equal(t, at(10, 30), *shifts[0].EndAt)
		assert.Equal(t, 30, *shifts[0].DurationMins)
		assert.False(t, shifts[0].ForcedOut)

		assert.Equal(t, at(11, 0), shifts[1].StartAt)
		assert.Nil(t, shifts[1].EndAt)
		assert.Nil(t, shifts[1].DurationMins)
	})

	t.Run("duplicate clock-in abandons the prior interval", func(t *testing.T) {
		shifts := DeriveShifts([]Punch{
			punch(1, DirectionIn, at(9, 0)),
			punch(1, DirectionIn, at(9, 5)),
			punch(1, DirectionOut, at(12, 0)),
		})

		assert.Len(t, shifts, 2)

		// abandoned interval: open, no time awarded
		assert.Equal(t, at(9, 0), shifts[0].StartAt)
		assert.Nil(t, shifts[0].EndAt)

		// the OUT closes the second IN
		assert.Equal(t, at(9, 5), shifts[1].StartAt)
		assert.Equal(t, at(12, 0), *shifts[1].EndAt)
		assert.Equal(t, 175, *shifts[1].DurationMins)
	})

	t.Run("orphan OUT is discarded", func(t *testing.T) {
		shifts := DeriveShifts([]Punch{
			punch(1, DirectionOut, at(8, 0)),
		})
		assert.Empty(t, shifts)
	})

	t.Run("unsorted multi-worker input", func(t *testing.T) {
		shifts := DeriveShifts([]Punch{
			punch(2, DirectionOut, at(15, 0)),
			punch(1, DirectionOut, at(14, 0)),
			punch(2, DirectionIn, at(7, 0)),
			punch(1, DirectionIn, at(6, 30)),
		})

		assert.Len(t, shifts, 2)
		for _, s := range shifts {
			assert.NotNil(t, s.EndAt)
			assert.True(t, s.StartAt.Before(*s.EndAt))
			assert.GreaterOrEqual(t, *s.DurationMins, 0)
		}
		assert.Equal(t, int32(1), shifts[0].WorkerID)
		assert.Equal(t, 450, *shifts[0].DurationMins)
		assert.Equal(t, int32(2), shifts[1].WorkerID)
		assert.Equal(t, 480, *shifts[1].DurationMins)
	})

	t.Run("duration floors partial minutes", func(t *testing.T) {
		in := punch(1, DirectionIn, at(10, 0))
		out := punch(1, DirectionOut, at(10, 0).Add(29*time.Minute+59*time.Second))
		shifts := DeriveShifts([]Punch{in, out})

		assert.Len(t, shifts, 1)
		assert.Equal(t, 29, *shifts[0].DurationMins)
	})
}

func TestCloseOutShifts(t *testing.T) {
	end := at(17, 0)

	t.Run("open interval is force-closed with synthetic punch", func(t *testing.T) {
		shifts, synthetic := CloseOutShifts([]Punch{
			punch(1, DirectionIn, at(10, 0)),
			punch(1, DirectionOut, at(10, 30)),
			punch(1, DirectionIn, at(11, 0)),
		}, end)

		assert.Len(t, shifts, 2)

		assert.Equal(t, at(10, 30), *shifts[0].EndAt)
		assert.False(t, shifts[0].ForcedOut)

		assert.Equal(t, at(11, 0), shifts[1].StartAt)
		assert.Equal(t, end, *shifts[1].EndAt)
		assert.Equal(t, 360, *shifts[1].DurationMins)
		assert.True(t, shifts[1].ForcedOut)

		assert.Len(t, synthetic, 1)
		assert.Equal(t, DirectionOut, synthetic[0].Direction)
		assert.Equal(t, end, synthetic[0].PunchedAt)
		assert.Equal(t, PunchSourceForced, synthetic[0].Source)
		assert.Equal(t, int32(1), synthetic[0].WorkerID)
	})

	t.Run("duplicate clock-ins both force-closed", func(t *testing.T) {
		shifts, synthetic := CloseOutShifts([]Punch{
			punch(1, DirectionIn, at(9, 0)),
			punch(1, DirectionIn, at(9, 5)),
		}, end)

		assert.Len(t, shifts, 2)

		assert.Equal(t, at(9, 0), shifts[0].StartAt)
		assert.Equal(t, end, *shifts[0].EndAt)
		assert.Equal(t, 480, *shifts[0].DurationMins)
		assert.True(t, shifts[0].ForcedOut)

		assert.Equal(t, at(9, 5), shifts[1].StartAt)
		assert.Equal(t, end, *shifts[1].EndAt)
		assert.Equal(t, 475, *shifts[1].DurationMins)
		assert.True(t, shifts[1].ForcedOut)

		assert.Len(t, synthetic, 2)
	})

	t.Run("idempotent over recorded synthetic punches", func(t *testing.T) {
		syn := punch(1, DirectionOut, end)
		syn.Source = PunchSourceForced

		shifts, synthetic := CloseOutShifts([]Punch{
			punch(1, DirectionIn, at(9, 0)),
			syn,
		}, end)

		assert.Empty(t, synthetic)
		assert.Len(t, shifts, 1)
		assert.Equal(t, end, *shifts[0].EndAt)
		// closed by a recorded forced punch, so the flag survives re-derivation
		assert.True(t, shifts[0].ForcedOut)
	})

	t.Run("IN at or after the closure time stays open", func(t *testing.T) {
		shifts, synthetic := CloseOutShifts([]Punch{
			punch(1, DirectionIn, end),
		}, end)

		assert.Empty(t, synthetic)
		assert.Len(t, shifts, 1)
		assert.Nil(t, shifts[0].EndAt)
	})

	t.Run("no negative durations for any sequence", func(t *testing.T) {
		shifts, _ := CloseOutShifts([]Punch{
			punch(1, DirectionIn, at(6, 0)),
			punch(1, DirectionOut, at(6, 0)),
			punch(2, DirectionIn, at(16, 59)),
			punch(3, DirectionOut, at(5, 0)),
		}, end)

		for _, s := range shifts {
			if s.DurationMins != nil {
				assert.GreaterOrEqual(t, *s.DurationMins, 0)
			}
			if s.EndAt != nil {
				assert.False(t, s.EndAt.Before(s.StartAt))
			}
		}
	})
}
