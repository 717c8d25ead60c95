package models

import "time"

// AuditAction constants represent request-level actions to be logged.
const (
	AuditActionLogin        = "LOGIN"
	AuditActionDemoSubmit   = "DEMO_SUBMIT"
	AuditActionDemoWithdraw = "DEMO_WITHDRAW"
	AuditActionDemoReview   = "DEMO_REVIEW"
	AuditActionDemoExport   = "DEMO_EXPORT"
)

// AuditLog represents an operational audit record for an HTTP request. The
// per-demo review history lives on the demo itself (ReviewEvent); this table
// answers "who called what" across the whole API.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Details    []byte    `db:"details" json:"details,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
