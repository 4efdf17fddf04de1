package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited mutation.
type AuditAction string

const (
	AuditActionCreateWallet      AuditAction = "CREATE_WALLET"
	AuditActionRenameWallet      AuditAction = "RENAME_WALLET"
	AuditActionDeleteWallet      AuditAction = "DELETE_WALLET"
	AuditActionCreateTransaction AuditAction = "CREATE_TRANSACTION"
	AuditActionUpdateTransaction AuditAction = "UPDATE_TRANSACTION"
	AuditActionDeleteTransaction AuditAction = "DELETE_TRANSACTION"
)

// AuditLog records a single committed mutation.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
