package payroll

import (
	"testing"
	"time"

	"github.com/sitewise/crewclock/core"
	"github.com/sitewise/crewclock/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTimeActivity(t *testing.T) {
	db := newTestDB(t)
	seedEmployeeMapping(t, db, 7)
	require.NoError(t, db.Create(&WorksiteMapping{WorksiteID: 3, QboCustomerID: "77", QboName: "Harbor Site"}).Error)
	require.NoError(t, db.Create(&ProgramMapping{ProgramID: 12, QboClassID: "88", QboName: "Federal Grant"}).Error)

	start := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)
	end := start.Add(8*time.Hour + 30*time.Minute)
	shift := &core.Shift{
		ID:            41,
		WorkSessionID: "3a4f1c9e-0000-0000-0000-000000000001",
		WorkerID:      7,
		WorksiteID:    3,
		ProgramID:     utils.Ptr(int32(12)),
		StartAt:       start,
		EndAt:         &end,
		DurationMins:  utils.Ptr(510),
	}

	brisbane := time.FixedZone("AEST", 10*3600)
	ta, err := ResolveTimeActivity(db, shift, brisbane)
	require.NoError(t, err)

	assert.Equal(t, "2026-03-10", ta.TxnDate)
	assert.Equal(t, "Employee", ta.NameOf)
	assert.Equal(t, "2026-03-10T17:00:00+10:00", ta.StartTime)
	assert.Equal(t, "2026-03-11T01:30:00+10:00", ta.EndTime)
	assert.Equal(t, 8, ta.Hours)
	assert.Equal(t, 30, ta.Minutes)

	require.NotNil(t, ta.EmployeeRef)
	assert.Equal(t, "55", ta.EmployeeRef.Value)
	assert.Equal(t, "Pat Smith", ta.EmployeeRef.Name)
	require.NotNil(t, ta.CustomerRef)
	assert.Equal(t, "77", ta.CustomerRef.Value)
	require.NotNil(t, ta.ClassRef)
	assert.Equal(t, "88", ta.ClassRef.Value)

	assert.Contains(t, ta.Description, "shift 41")
	assert.Contains(t, ta.Description, "worker 7")
}

func TestResolveTimeActivityMissingEmployeeMapping(t *testing.T) {
	db := newTestDB(t)
	shift := seedSyncShift(t, db, core.SyncPending, 0, nil)

	_, err := ResolveTimeActivity(db, shift, time.UTC)
	require.Error(t, err)

	var mappingErr *MappingError
	require.ErrorAs(t, err, &mappingErr)
	assert.Equal(t, "employee", mappingErr.Entity)
	assert.Equal(t, int32(7), mappingErr.InternalID)
}

func TestResolveTimeActivityOptionalMappingsOmitted(t *testing.T) {
	db := newTestDB(t)
	seedEmployeeMapping(t, db, 7)
	shift := seedSyncShift(t, db, core.SyncPending, 0, nil)

	ta, err := ResolveTimeActivity(db, shift, time.UTC)
	require.NoError(t, err)

	assert.Nil(t, ta.CustomerRef)
	assert.Nil(t, ta.ClassRef)
	require.NotNil(t, ta.EmployeeRef)
}

func TestResolveTimeActivityRejectsOpenShift(t *testing.T) {
	db := newTestDB(t)
	seedEmployeeMapping(t, db, 7)

	shift := &core.Shift{
		ID:       9,
		WorkerID: 7,
		StartAt:  time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC),
	}

	_, err := ResolveTimeActivity(db, shift, time.UTC)
	assert.ErrorContains(t, err, "open")
}
