package services

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"finjournal/internal/logger"
	"finjournal/internal/models"
)

// AuditEntry describes one mutation for the audit trail.
type AuditEntry struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	IPAddress    string
	Changes      map[string]any
}

// auditService handles audit log recording.
type auditService struct {
	store
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB, opts Options) AuditServicer {
	return &auditService{store: newStore(db, opts)}
}

// Log records an audit entry after the audited mutation has committed.
// Failures are logged and never returned.
func (s *auditService) Log(ctx context.Context, entry AuditEntry) {
	row := &models.AuditLog{
		UserID:       entry.UserID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		IPAddress:    entry.IPAddress,
	}
	if entry.Changes != nil {
		data, err := json.Marshal(entry.Changes)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit log changes", "error", err, "action", entry.Action)
			data = []byte("{}")
		}
		row.Changes = string(data)
	}

	// The request may already be finished; the entry is still worth keeping.
	err := s.read(context.WithoutCancel(ctx), func(db *gorm.DB) error {
		return db.Create(row).Error
	})
	if err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"user_id", entry.UserID,
			"action", entry.Action,
			"resource_type", entry.ResourceType,
			"resource_id", entry.ResourceID,
		)
	}
}
