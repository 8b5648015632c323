package constants

// AuditStatus is the canonical status for rows in the audits table.
type AuditStatus string

// Stable values (store these exact strings in DB).
const (
	AuditStatusComplete AuditStatus = "COMPLETE" // report recovered and validated
	AuditStatusFailed   AuditStatus = "FAILED"   // terminal failure, see failure_kind
)
