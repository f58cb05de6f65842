package repository

import (
	"context"
	"fmt"

	"waconsole/internal/domain"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
)

// AuditRepository persists operator mutations
type AuditRepository struct {
	db *bun.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *bun.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create stores a new audit entry
func (r *AuditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	_, err := r.db.NewInsert().Model(entry).Exec(ctx)
	if err != nil {
		log.Error().Err(err).Str("action", string(entry.Action)).Msg("Failed to store audit entry")
		return fmt.Errorf("failed to store audit entry: %w", err)
	}
	return nil
}

// Recent retrieves the most recent audit entries for a tenant
func (r *AuditRepository) Recent(ctx context.Context, locationID string, limit int) ([]*domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	var entries []*domain.AuditEntry
	err := r.db.NewSelect().
		Model(&entries).
		Where("location_id = ?", locationID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)

	if err != nil {
		log.Error().Err(err).Str("location_id", locationID).Msg("Failed to list audit entries")
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	return entries, nil
}
