package payroll

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sitewise/crewclock/core"
	"github.com/sitewise/crewclock/quickbooks"
	"github.com/sitewise/crewclock/utils"
	"gorm.io/gorm"
)

const (
	// ScanBatchSize bounds one periodic pass; QBO throttles per realm, so
	// small batches keep the scan polite.
	ScanBatchSize = 20

	// RetryBatchCap bounds an operator-triggered bulk retry.
	RetryBatchCap = 50

	// inFlightTimeout is how long a claimed record stays off-limits before
	// the claim is considered stale (e.g. a crash mid-push).
	inFlightTimeout = 10 * time.Minute
)

// OutcomeRateLimited is the summary bucket for attempts cut short by a 429;
// the other buckets reuse the shift sync statuses.
const OutcomeRateLimited = "rate_limited"

// ErrInFlight means another caller holds the push claim on the shift.
var ErrInFlight = errors.New("shift push already in flight")

// TimeActivityAPI is the slice of the QBO client the engine needs;
// *quickbooks.TimeActivityEndpoint satisfies it.
type TimeActivityAPI interface {
	Create(*quickbooks.TimeActivity) (*quickbooks.TimeActivity, error)
	Update(*quickbooks.TimeActivity) (*quickbooks.TimeActivity, error)
}

// Summary is the per-outcome tally a scan or bulk retry reports back.
type Summary struct {
	Synced      int `json:"synced"`
	Failed      int `json:"failed"`
	NotMapped   int `json:"notMapped"`
	DeadLetter  int `json:"deadLetter"`
	RateLimited int `json:"rateLimited"`
}

func (s *Summary) record(outcome string) {
	switch outcome {
	case core.SyncSynced:
		s.Synced++
	case core.SyncFailed:
		s.Failed++
	case core.SyncNotMapped:
		s.NotMapped++
	case core.SyncDeadLetter:
		s.DeadLetter++
	case OutcomeRateLimited:
		s.RateLimited++
	}
}

// Engine drives shifts through push attempts, backoff and dead-lettering.
// All processing is sequential: the external rate limit is global, so
// parallel pushes only waste the quota.
type Engine struct {
	Connections *ConnectionManager
	Logger      *logrus.Logger

	// Now and API are seams for tests.
	Now func() time.Time
	API func(live *LiveConnection) TimeActivityAPI
}

func NewEngine(connections *ConnectionManager, logger *logrus.Logger) *Engine {
	return &Engine{
		Connections: connections,
		Logger:      logger,
		Now:         time.Now,
		API: func(live *LiveConnection) TimeActivityAPI {
			return quickbooks.NewClient(live.Environment, live.RealmID, live.AccessToken).TimeActivities
		},
	}
}

// ProcessDueShifts is the periodic scan: approved shifts in failed/retry
// whose backoff has elapsed, oldest attempts first, at most ScanBatchSize
// per run. A rate limit aborts the remainder of the batch.
func (e *Engine) ProcessDueShifts(db *gorm.DB) (Summary, error) {
	var summary Summary
	now := e.Now().UTC()

	// attempts exhausted: dead-letter unconditionally, backoff is irrelevant
	res := db.Model(&core.Shift{}).
		Where("sync_status IN ? AND sync_attempts >= ?", []string{core.SyncFailed, core.SyncRetry}, MaxSyncAttempts).
		Update("sync_status", core.SyncDeadLetter)
	if res.Error != nil {
		return summary, res.Error
	}
	summary.DeadLetter += int(res.RowsAffected)

	var candidates []core.Shift
	err := db.Where("sync_status IN ? AND approval_status = ? AND sync_attempts < ?",
		[]string{core.SyncFailed, core.SyncRetry}, core.ApprovalApproved, MaxSyncAttempts).
		Order("last_sync_attempt").
		Limit(ScanBatchSize * 10).
		Find(&candidates).Error
	if err != nil {
		return summary, err
	}

	due := utils.Filter(candidates, func(s core.Shift) bool {
		return retryDue(s.SyncAttempts, s.LastSyncAttempt, now)
	})
	if len(due) > ScanBatchSize {
		due = due[:ScanBatchSize]
	}

	for i := range due {
		shift := due[i]

		outcome, err := e.attempt(db, &shift)
		if errors.Is(err, ErrInFlight) {
			continue
		}
		summary.record(outcome)
		if outcome == OutcomeRateLimited {
			// the limit is global, not per record; stop burning the batch
			e.Logger.WithFields(logrus.Fields{
				"module":   "payroll",
				"shift_id": shift.ID,
			}).Warn("rate limited, aborting scan batch")
			break
		}
	}

	return summary, nil
}

// PushShift is the on-demand single-record path, triggered by an approval or
// an explicit push. The error carries the classification; the refreshed
// shift carries the resulting status and any external id.
func (e *Engine) PushShift(db *gorm.DB, shiftID int32) (*core.Shift, error) {
	var shift core.Shift
	if err := db.First(&shift, shiftID).Error; err != nil {
		return nil, fmt.Errorf("shift not found: %w", err)
	}

	if shift.ApprovalStatus == core.ApprovalPending {
		return &shift, fmt.Errorf("shift %d is not approved", shiftID)
	}
	if shift.SyncStatus == core.SyncDeadLetter {
		return &shift, fmt.Errorf("shift %d is dead-lettered and needs manual reset", shiftID)
	}

	_, attemptErr := e.attempt(db, &shift)

	var refreshed core.Shift
	if err := db.First(&refreshed, shiftID).Error; err != nil {
		return nil, err
	}
	return &refreshed, attemptErr
}

// RetryShifts is the operator bulk path. With no explicit ids it retries
// everything automatic processing would (capped); explicit ids may also
// revive not_mapped records after the mapping has been fixed. Processing is
// sequential and a 429 aborts the remainder.
func (e *Engine) RetryShifts(db *gorm.DB, ids []int32) (Summary, error) {
	var summary Summary

	var shifts []core.Shift
	if len(ids) == 0 {
		err := db.Where("sync_status IN ? AND approval_status = ? AND sync_attempts < ?",
			[]string{core.SyncFailed, core.SyncRetry}, core.ApprovalApproved, MaxSyncAttempts).
			Order("last_sync_attempt").
			Limit(RetryBatchCap).
			Find(&shifts).Error
		if err != nil {
			return summary, err
		}
	} else {
		if len(ids) > RetryBatchCap {
			ids = ids[:RetryBatchCap]
		}
		if err := db.Where("id IN ?", ids).Find(&shifts).Error; err != nil {
			return summary, err
		}
	}

	for i := range shifts {
		shift := shifts[i]

		if shift.SyncStatus == core.SyncDeadLetter || shift.SyncAttempts >= MaxSyncAttempts {
			summary.record(core.SyncDeadLetter)
			continue
		}
		if shift.ApprovalStatus == core.ApprovalPending || shift.SyncStatus == core.SyncSynced {
			continue
		}

		outcome, err := e.attempt(db, &shift)
		if errors.Is(err, ErrInFlight) {
			continue
		}
		summary.record(outcome)
		if outcome == OutcomeRateLimited {
			break
		}
	}

	return summary, nil
}

// attempt drives one shift through a single push. The transition to
// "pending" is a conditional write: it only succeeds when no other caller
// holds a fresh claim, which closes the double-push window between the
// periodic scan and on-demand triggers.
func (e *Engine) attempt(db *gorm.DB, shift *core.Shift) (string, error) {
	now := e.Now().UTC()

	if shift.SyncAttempts >= MaxSyncAttempts {
		db.Model(shift).Update("sync_status", core.SyncDeadLetter)
		return core.SyncDeadLetter, fmt.Errorf("shift %d moved to dead letter after %d attempts", shift.ID, shift.SyncAttempts)
	}

	claim := db.Model(&core.Shift{}).
		Where("id = ? AND (sync_status <> ? OR last_sync_attempt IS NULL OR last_sync_attempt < ?)",
			shift.ID, core.SyncPending, now.Add(-inFlightTimeout)).
		Updates(map[string]interface{}{
			"sync_status":       core.SyncPending,
			"last_sync_attempt": now,
		})
	if claim.Error != nil {
		return core.SyncFailed, claim.Error
	}
	if claim.RowsAffected == 0 {
		return "", ErrInFlight
	}
	shift.LastSyncAttempt = &now

	live, err := e.Connections.GetLiveConnection(db)
	if err != nil {
		return e.fail(db, shift, err), err
	}

	loc, err := time.LoadLocation(live.PayrollTimeZone)
	if err != nil {
		loc = time.UTC
	}

	ta, err := ResolveTimeActivity(db, shift, loc)
	if err != nil {
		var mappingErr *MappingError
		if errors.As(err, &mappingErr) {
			// needs an administrator, not another attempt; the scan filter
			// (failed|retry) keeps these out of automatic processing
			db.Model(shift).Updates(map[string]interface{}{
				"sync_status": core.SyncNotMapped,
				"sync_error":  truncateError(err),
			})
			return core.SyncNotMapped, err
		}
		return e.fail(db, shift, err), err
	}

	api := e.API(live)

	var result *quickbooks.TimeActivity
	if shift.QboID != nil && shift.QboSyncToken != nil {
		ta.ID = *shift.QboID
		ta.SyncToken = *shift.QboSyncToken
		result, err = api.Update(ta)
	} else {
		result, err = api.Create(ta)
	}

	if err != nil {
		var rateLimit *quickbooks.RateLimitError
		if errors.As(err, &rateLimit) {
			// global throttle, not this record's fault: no attempt counted
			db.Model(shift).Updates(map[string]interface{}{
				"sync_status": core.SyncRetry,
				"sync_error":  truncateError(err),
			})
			return OutcomeRateLimited, err
		}
		return e.fail(db, shift, err), err
	}

	if err := db.Model(shift).Updates(map[string]interface{}{
		"sync_status":    core.SyncSynced,
		"sync_error":     nil,
		"synced_at":      now,
		"qbo_id":         result.ID,
		"qbo_sync_token": result.SyncToken,
	}).Error; err != nil {
		return core.SyncFailed, err
	}

	e.Logger.WithFields(logrus.Fields{
		"module":   "payroll",
		"shift_id": shift.ID,
		"qbo_id":   result.ID,
	}).Info("shift synced")

	return core.SyncSynced, nil
}

// fail records an attempt that the provider or plumbing rejected, and
// dead-letters the shift once the ceiling is reached.
func (e *Engine) fail(db *gorm.DB, shift *core.Shift, cause error) string {
	attempts := shift.SyncAttempts + 1
	status := core.SyncFailed
	if attempts >= MaxSyncAttempts {
		status = core.SyncDeadLetter
	}

	db.Model(shift).Updates(map[string]interface{}{
		"sync_status":   status,
		"sync_error":    truncateError(cause),
		"sync_attempts": attempts,
	})
	shift.SyncAttempts = attempts

	e.Logger.WithFields(logrus.Fields{
		"module":      "payroll",
		"shift_id":    shift.ID,
		"sync_status": status,
		"attempts":    attempts,
	}).Error("shift push failed: " + cause.Error())

	return status
}

func truncateError(err error) string {
	msg := err.Error()
	if len(msg) > 1024 {
		msg = msg[:1024]
	}
	return msg
}
