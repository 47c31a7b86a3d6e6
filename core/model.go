package core

import "time"

const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

const (
	PunchSourceWorker = "worker"
	PunchSourceForced = "forced"
)

const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalLocked   = "locked"
)

const (
	SyncPending    = "pending"
	SyncSynced     = "synced"
	SyncFailed     = "failed"
	SyncRetry      = "retry"
	SyncNotMapped  = "not_mapped"
	SyncDeadLetter = "dead_letter"
)

// Punch is a raw IN/OUT event captured at a worksite. Punches are immutable;
// the forced-closure routine appends synthetic OUT punches (source "forced")
// but never rewrites existing rows.
type Punch struct {
	ID            string    `gorm:"primaryKey;size:36;column:id"`
	WorkSessionID string    `gorm:"size:36;column:work_session_id;index;not null"`
	WorkerID      int32     `gorm:"column:worker_id;not null"`
	Direction     string    `gorm:"size:3;column:direction;not null"`
	PunchedAt     time.Time `gorm:"column:punched_at;not null"`
	Latitude      *float64  `gorm:"column:latitude"`
	Longitude     *float64  `gorm:"column:longitude"`
	Reason        *string   `gorm:"size:255;column:reason"`
	Source        string    `gorm:"size:10;column:source;not null;default:worker"`

	CreatedAt time.Time `gorm:"<-:create"`
}

func (Punch) TableName() string {
	return "punches"
}

// Shift is one continuous work interval derived from a worker's punches,
// plus the payroll sync bookkeeping that drives the push to QuickBooks.
type Shift struct {
	ID            int32      `gorm:"primaryKey;column:id"`
	WorkSessionID string     `gorm:"size:36;column:work_session_id;index;not null"`
	WorkerID      int32      `gorm:"column:worker_id;not null"`
	WorksiteID    int32      `gorm:"column:worksite_id;not null"`
	ProgramID     *int32     `gorm:"column:program_id"`
	StartAt       time.Time  `gorm:"column:start_at;not null"`
	EndAt         *time.Time `gorm:"column:end_at"`
	DurationMins  *int       `gorm:"column:duration_mins"`
	ForcedOut     bool       `gorm:"column:forced_out;not null"`

	ApprovalStatus string `gorm:"size:10;column:approval_status;not null;default:pending"`

	SyncStatus      string     `gorm:"size:12;column:sync_status;not null;default:pending;index"`
	SyncError       *string    `gorm:"size:1024;column:sync_error"`
	SyncAttempts    int        `gorm:"column:sync_attempts;not null;default:0"`
	LastSyncAttempt *time.Time `gorm:"column:last_sync_attempt"`
	SyncedAt        *time.Time `gorm:"column:synced_at"`
	QboID           *string    `gorm:"size:64;column:qbo_id"`
	QboSyncToken    *string    `gorm:"size:16;column:qbo_sync_token"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Shift) TableName() string {
	return "shifts"
}

// WorkSession is one day's open-to-close period of activity at one worksite.
type WorkSession struct {
	ID         string     `gorm:"primaryKey;size:36;column:id"`
	WorksiteID int32      `gorm:"column:worksite_id;not null"`
	ProgramID  *int32     `gorm:"column:program_id"`
	Date       string     `gorm:"size:10;column:date;not null"`
	OpenedAt   time.Time  `gorm:"column:opened_at;not null"`
	ClosedAt   *time.Time `gorm:"column:closed_at"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (WorkSession) TableName() string {
	return "work_sessions"
}

// Worker is the minimal identity the core needs; the full people directory
// lives in the admin CRUD layer.
type Worker struct {
	ID        int32   `gorm:"primaryKey;column:id"`
	Code      string  `gorm:"size:20;column:code;uniqueIndex"`
	FirstName string  `gorm:"size:50;column:first_name"`
	Surname   string  `gorm:"size:50;column:surname"`
	CardID    *string `gorm:"size:40;column:card_id;index"`
}

func (Worker) TableName() string {
	return "workers"
}
