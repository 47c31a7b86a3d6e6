package payroll

import "time"

// MaxSyncAttempts is the dead-letter ceiling: at 10 recorded attempts a
// shift leaves automatic processing for good.
const MaxSyncAttempts = 10

const maxBackoff = 30 * time.Minute

// SyncBackoff returns the wait before the next automatic attempt:
// min(30, 2^attempts) minutes measured from the last attempt.
func SyncBackoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts >= 5 {
		return maxBackoff
	}
	delay := time.Duration(1<<uint(attempts)) * time.Minute
	if delay > maxBackoff {
		return maxBackoff
	}
	return delay
}

// retryDue reports whether the backoff window since the last attempt has
// elapsed. A record that was never attempted is always due.
func retryDue(attempts int, lastAttempt *time.Time, now time.Time) bool {
	if lastAttempt == nil {
		return true
	}
	return now.Sub(*lastAttempt) >= SyncBackoff(attempts)
}
