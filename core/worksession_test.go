package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newSessionDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Punch{}, &WorkSession{}, &Shift{}, &Worker{}))
	return db
}

func openSession(t *testing.T, db *gorm.DB) *WorkSession {
	session := &WorkSession{
		ID:         "ws-test-1",
		WorksiteID: 3,
		Date:       "2026-02-03",
		OpenedAt:   at(6, 0),
	}
	require.NoError(t, db.Create(session).Error)
	return session
}

func TestRecordPunch(t *testing.T) {
	db := newSessionDB(t)
	session := openSession(t, db)

	saved, err := RecordPunch(db, Punch{
		WorkSessionID: session.ID,
		WorkerID:      1,
		Direction:     DirectionIn,
		PunchedAt:     at(7, 0),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, PunchSourceWorker, saved.Source)

	t.Run("rejects bad direction", func(t *testing.T) {
		_, err := RecordPunch(db, Punch{
			WorkSessionID: session.ID,
			WorkerID:      1,
			Direction:     "sideways",
			PunchedAt:     at(7, 5),
		})
		assert.ErrorContains(t, err, "direction")
	})

	t.Run("rejects closed session", func(t *testing.T) {
		_, err := CloseWorkSession(db, session.ID, at(18, 0))
		require.NoError(t, err)

		_, err = RecordPunch(db, Punch{
			WorkSessionID: session.ID,
			WorkerID:      1,
			Direction:     DirectionOut,
			PunchedAt:     at(18, 30),
		})
		assert.ErrorIs(t, err, ErrSessionClosed)
	})
}

func TestCloseWorkSession(t *testing.T) {
	db := newSessionDB(t)
	session := openSession(t, db)

	for _, p := range []Punch{
		punch(1, DirectionIn, at(7, 0)),
		punch(1, DirectionOut, at(15, 0)),
		punch(2, DirectionIn, at(7, 30)), // never clocks out
	} {
		p.WorkSessionID = session.ID
		_, err := RecordPunch(db, p)
		require.NoError(t, err)
	}

	shifts, err := CloseWorkSession(db, session.ID, at(17, 0))
	require.NoError(t, err)
	require.Len(t, shifts, 2)

	for _, s := range shifts {
		assert.Equal(t, session.WorksiteID, s.WorksiteID)
		assert.Equal(t, ApprovalPending, s.ApprovalStatus)
		assert.Equal(t, SyncPending, s.SyncStatus)
		assert.NotNil(t, s.EndAt)
	}
	assert.False(t, shifts[0].ForcedOut)
	assert.True(t, shifts[1].ForcedOut)
	assert.Equal(t, 570, *shifts[1].DurationMins)

	// the synthetic OUT joined the punch history
	punches, err := SessionPunches(db, session.ID)
	require.NoError(t, err)
	require.Len(t, punches, 4)
	last := punches[len(punches)-1]
	assert.Equal(t, PunchSourceForced, last.Source)
	assert.Equal(t, DirectionOut, last.Direction)
	assert.Equal(t, at(17, 0), last.PunchedAt.UTC())

	t.Run("second close is a no-op", func(t *testing.T) {
		again, err := CloseWorkSession(db, session.ID, at(23, 0))
		require.NoError(t, err)
		assert.Len(t, again, 2)

		punches, err := SessionPunches(db, session.ID)
		require.NoError(t, err)
		assert.Len(t, punches, 4)
	})
}

func TestCurrentShifts(t *testing.T) {
	db := newSessionDB(t)
	session := openSession(t, db)

	_, err := RecordPunch(db, Punch{
		WorkSessionID: session.ID,
		WorkerID:      1,
		Direction:     DirectionIn,
		PunchedAt:     at(7, 0),
	})
	require.NoError(t, err)

	// open session: live derivation, nothing persisted
	live, err := CurrentShifts(db, session.ID)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Nil(t, live[0].EndAt)
	assert.Zero(t, live[0].ID)

	_, err = CloseWorkSession(db, session.ID, at(16, 0))
	require.NoError(t, err)

	persisted, err := CurrentShifts(db, session.ID)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.NotZero(t, persisted[0].ID)
	assert.True(t, persisted[0].ForcedOut)
}

func TestApproveAndLockShift(t *testing.T) {
	db := newSessionDB(t)
	session := openSession(t, db)

	_, err := RecordPunch(db, punchFor(session.ID, 1, DirectionIn, at(7, 0)))
	require.NoError(t, err)
	_, err = RecordPunch(db, punchFor(session.ID, 1, DirectionOut, at(15, 0)))
	require.NoError(t, err)

	shifts, err := CloseWorkSession(db, session.ID, at(17, 0))
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	id := shifts[0].ID

	t.Run("lock requires approval first", func(t *testing.T) {
		assert.Error(t, LockShift(db, id))
	})

	approved, err := ApproveShift(db, id)
	require.NoError(t, err)
	assert.Equal(t, ApprovalApproved, approved.ApprovalStatus)

	require.NoError(t, LockShift(db, id))

	t.Run("locked shift is immutable", func(t *testing.T) {
		_, err := ApproveShift(db, id)
		assert.ErrorContains(t, err, "locked")
		assert.Error(t, LockShift(db, id))
	})
}

func punchFor(sessionID string, worker int32, direction string, t time.Time) Punch {
	return Punch{
		WorkSessionID: sessionID,
		WorkerID:      worker,
		Direction:     direction,
		PunchedAt:     t,
	}
}
