package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AuditAction identifies which mutation an operator performed.
type AuditAction string

const (
	AuditCreate  AuditAction = "create"
	AuditEdit    AuditAction = "edit"
	AuditDelete  AuditAction = "delete"
	AuditTurnOff AuditAction = "turn_off"
)

// AuditEntry records one operator mutation against the bridge backend.
type AuditEntry struct {
	bun.BaseModel `bun:"table:audit_entries,alias:a"`

	ID           string      `bun:",pk" json:"id"`
	LocationID   string      `bun:"location_id,notnull" json:"location_id"`
	Action       AuditAction `bun:"action,notnull" json:"action"`
	InstanceName string      `bun:"instance_name" json:"instance_name"`
	Detail       string      `bun:"detail" json:"detail,omitempty"`
	CreatedAt    time.Time   `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// NewAuditEntry creates an audit entry for the given mutation.
func NewAuditEntry(locationID string, action AuditAction, instanceName, detail string) *AuditEntry {
	return &AuditEntry{
		ID:           uuid.New().String(),
		LocationID:   locationID,
		Action:       action,
		InstanceName: instanceName,
		Detail:       detail,
		CreatedAt:    time.Now(),
	}
}
