package payroll

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sitewise/crewclock/core"
	"github.com/sitewise/crewclock/quickbooks"
	"gorm.io/gorm"
)

var validate = validator.New()

const wireTimeLayout = "2006-01-02T15:04:05-07:00"

// ResolveTimeActivity resolves a shift's internal identities to QBO entity
// references and builds the outgoing TimeActivity payload.
//
// The worker→Employee mapping is mandatory; its absence is a MappingError
// (human action required). Worksite→Customer and program→Class are optional
// and simply omitted when unmapped. Timestamps are rendered in the tenant's
// payroll time zone with an explicit UTC offset.
func ResolveTimeActivity(db *gorm.DB, shift *core.Shift, loc *time.Location) (*quickbooks.TimeActivity, error) {
	if shift.EndAt == nil || shift.DurationMins == nil {
		return nil, fmt.Errorf("shift %d is still open and cannot be pushed", shift.ID)
	}

	var em EmployeeMapping
	if err := db.First(&em, "worker_id = ?", shift.WorkerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &MappingError{Entity: "employee", InternalID: shift.WorkerID}
		}
		return nil, fmt.Errorf("failed to load employee mapping: %w", err)
	}

	mins := *shift.DurationMins
	ta := &quickbooks.TimeActivity{
		TxnDate:     shift.StartAt.In(loc).Format("2006-01-02"),
		NameOf:      "Employee",
		EmployeeRef: &quickbooks.Ref{Value: em.QboEmployeeID, Name: em.QboName},
		StartTime:   shift.StartAt.In(loc).Format(wireTimeLayout),
		EndTime:     shift.EndAt.In(loc).Format(wireTimeLayout),
		Hours:       mins / 60,
		Minutes:     mins % 60,
		Description: fmt.Sprintf("CrewClock shift %d, worker %d, session %s", shift.ID, shift.WorkerID, shift.WorkSessionID),
	}

	var wm WorksiteMapping
	err := db.First(&wm, "worksite_id = ?", shift.WorksiteID).Error
	switch {
	case err == nil:
		ta.CustomerRef = &quickbooks.Ref{Value: wm.QboCustomerID, Name: wm.QboName}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to load worksite mapping: %w", err)
	}

	if shift.ProgramID != nil {
		var pm ProgramMapping
		err := db.First(&pm, "program_id = ?", *shift.ProgramID).Error
		switch {
		case err == nil:
			ta.ClassRef = &quickbooks.Ref{Value: pm.QboClassID, Name: pm.QboName}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("failed to load program mapping: %w", err)
		}
	}

	if err := validate.Struct(ta); err != nil {
		return nil, fmt.Errorf("invalid time activity payload: %w", err)
	}
	return ta, nil
}
