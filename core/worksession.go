package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrSessionClosed = errors.New("work session is closed")

// RecordPunch persists a worker punch against an open work-session.
func RecordPunch(db *gorm.DB, p Punch) (*Punch, error) {
	var session WorkSession
	if err := db.First(&session, "id = ?", p.WorkSessionID).Error; err != nil {
		return nil, fmt.Errorf("work session not found: %w", err)
	}
	if session.ClosedAt != nil {
		return nil, ErrSessionClosed
	}

	if p.Direction != DirectionIn && p.Direction != DirectionOut {
		return nil, fmt.Errorf("invalid punch direction %q", p.Direction)
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Source == "" {
		p.Source = PunchSourceWorker
	}
	if p.PunchedAt.IsZero() {
		p.PunchedAt = time.Now().UTC()
	}

	if err := db.Create(&p).Error; err != nil {
		return nil, fmt.Errorf("failed to save punch: %w", err)
	}
	return &p, nil
}

func SessionPunches(db *gorm.DB, sessionID string) ([]Punch, error) {
	var punches []Punch
	err := db.Where("work_session_id = ?", sessionID).
		Order("punched_at, id").
		Find(&punches).Error
	return punches, err
}

func SessionShifts(db *gorm.DB, sessionID string) ([]Shift, error) {
	var shifts []Shift
	err := db.Where("work_session_id = ?", sessionID).
		Order("worker_id, start_at").
		Find(&shifts).Error
	return shifts, err
}

// CurrentShifts returns the persisted shifts for a closed session, or a live
// derivation from the punch stream for one still open. Live shifts have no
// id; they exist only in the response.
func CurrentShifts(db *gorm.DB, sessionID string) ([]Shift, error) {
	var session WorkSession
	if err := db.First(&session, "id = ?", sessionID).Error; err != nil {
		return nil, fmt.Errorf("work session not found: %w", err)
	}

	if session.ClosedAt != nil {
		return SessionShifts(db, sessionID)
	}

	punches, err := SessionPunches(db, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load punches: %w", err)
	}
	return DeriveShifts(punches), nil
}

// CloseWorkSession force-closes every open interval in the session at endAt,
// persists the derived shifts and the synthetic OUT punches, and marks the
// session closed, all in one transaction. Closing an already-closed session
// is a no-op.
func CloseWorkSession(db *gorm.DB, sessionID string, endAt time.Time) ([]Shift, error) {
	var session WorkSession
	if err := db.First(&session, "id = ?", sessionID).Error; err != nil {
		return nil, fmt.Errorf("work session not found: %w", err)
	}
	if session.ClosedAt != nil {
		return SessionShifts(db, sessionID)
	}

	punches, err := SessionPunches(db, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load punches: %w", err)
	}

	shifts, synthetic := CloseOutShifts(punches, endAt)
	for i := range shifts {
		shifts[i].WorksiteID = session.WorksiteID
		shifts[i].ProgramID = session.ProgramID
		shifts[i].ApprovalStatus = ApprovalPending
		shifts[i].SyncStatus = SyncPending
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if len(synthetic) > 0 {
			if err := tx.Create(&synthetic).Error; err != nil {
				return fmt.Errorf("failed to save synthetic punches: %w", err)
			}
		}
		if len(shifts) > 0 {
			if err := tx.Create(&shifts).Error; err != nil {
				return fmt.Errorf("failed to save shifts: %w", err)
			}
		}
		return tx.Model(&session).Update("closed_at", endAt).Error
	})
	if err != nil {
		return nil, err
	}

	return shifts, nil
}

// ApproveShift makes a shift eligible for payroll sync. Locked shifts are
// immutable.
func ApproveShift(db *gorm.DB, shiftID int32) (*Shift, error) {
	var shift Shift
	if err := db.First(&shift, shiftID).Error; err != nil {
		return nil, fmt.Errorf("shift not found: %w", err)
	}
	if shift.ApprovalStatus == ApprovalLocked {
		return nil, fmt.Errorf("shift %d is locked", shiftID)
	}
	if shift.EndAt == nil {
		return nil, fmt.Errorf("shift %d is still open", shiftID)
	}

	if err := db.Model(&shift).Update("approval_status", ApprovalApproved).Error; err != nil {
		return nil, err
	}
	shift.ApprovalStatus = ApprovalApproved
	return &shift, nil
}

// LockShift finalises a shift after payroll export; no transition leaves the
// locked state.
func LockShift(db *gorm.DB, shiftID int32) error {
	result := db.Model(&Shift{}).
		Where("id = ? AND approval_status = ?", shiftID, ApprovalApproved).
		Update("approval_status", ApprovalLocked)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("shift %d is not approved", shiftID)
	}
	return nil
}
