package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin                 = "LOGIN"
	AuditActionSessionRequestApprove = "SESSION_REQUEST_APPROVE"
	AuditActionSessionRequestReject  = "SESSION_REQUEST_REJECT"
	AuditActionSessionRequestReview  = "SESSION_REQUEST_REVIEW"
	AuditActionSessionCreate         = "SESSION_CREATE"
	AuditActionSessionUpdate         = "SESSION_UPDATE"
	AuditActionSessionStatus         = "SESSION_STATUS"
	AuditActionAttendanceExport      = "ATTENDANCE_EXPORT"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"userId,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resourceId,omitempty"`
	OldValues  []byte    `db:"old_values" json:"oldValues,omitempty"`
	NewValues  []byte    `db:"new_values" json:"newValues,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ipAddress"`
	UserAgent  string    `db:"user_agent" json:"userAgent"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
