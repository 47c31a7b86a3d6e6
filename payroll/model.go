package payroll

import "time"

const (
	ConnActive       = "active"
	ConnExpired      = "expired"
	ConnRevoked      = "revoked"
	ConnDisconnected = "disconnected"
)

// connectionRowID pins the connection table to a single row per tenant
// schema; the row is the one source of truth for that tenant's QBO link.
const connectionRowID = 1

// Connection is a tenant's QuickBooks OAuth credential record. Both tokens
// are encrypted at rest (iv:tag:ciphertext hex, see security.Vault). The row
// is overwritten on re-authorization and flagged, never deleted, on
// disconnect.
type Connection struct {
	ID                int32     `gorm:"primaryKey;column:id"`
	RealmID           string    `gorm:"size:32;column:realm_id;not null"`
	AccessTokenEnc    string    `gorm:"size:4096;column:access_token_enc;not null"`
	RefreshTokenEnc   string    `gorm:"size:2048;column:refresh_token_enc;not null"`
	AccessTokenExpiry time.Time `gorm:"column:access_token_expiry;not null"`
	Status            string    `gorm:"size:12;column:status;not null"`
	Environment       string    `gorm:"size:10;column:environment;not null"`
	PayrollTimeZone   string    `gorm:"size:64;column:payroll_time_zone;not null;default:UTC"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Connection) TableName() string {
	return "qbo_connections"
}

// EmployeeMapping links a worker to a QBO Employee. This mapping is
// mandatory for a push to succeed.
type EmployeeMapping struct {
	WorkerID      int32  `gorm:"primaryKey;column:worker_id"`
	QboEmployeeID string `gorm:"size:64;column:qbo_employee_id;not null"`
	QboName       string `gorm:"size:255;column:qbo_name"`
}

func (EmployeeMapping) TableName() string {
	return "qbo_employee_mappings"
}

// WorksiteMapping links a worksite to a QBO Customer; optional.
type WorksiteMapping struct {
	WorksiteID    int32  `gorm:"primaryKey;column:worksite_id"`
	QboCustomerID string `gorm:"size:64;column:qbo_customer_id;not null"`
	QboName       string `gorm:"size:255;column:qbo_name"`
}

func (WorksiteMapping) TableName() string {
	return "qbo_worksite_mappings"
}

// ProgramMapping links a funding program to a QBO Class; optional.
type ProgramMapping struct {
	ProgramID  int32  `gorm:"primaryKey;column:program_id"`
	QboClassID string `gorm:"size:64;column:qbo_class_id;not null"`
	QboName    string `gorm:"size:255;column:qbo_name"`
}

func (ProgramMapping) TableName() string {
	return "qbo_program_mappings"
}
