package store

import (
	"context"

	"shopledger/pkg/models"
)

// AppendAudit inserts audit entries. There is deliberately no update or
// delete counterpart.
func (s *Store) AppendAudit(ctx context.Context, entries []models.AuditLog) error {
	if len(entries) == 0 {
		return nil
	}
	return s.conn(ctx).Create(&entries).Error
}

// AuditFilter narrows ListAudit. Empty fields match everything.
type AuditFilter struct {
	EntityType string
	EntityID   string
}

// ListAudit returns matching entries in the order they were written.
func (s *Store) ListAudit(ctx context.Context, filter AuditFilter) ([]models.AuditLog, error) {
	q := s.conn(ctx).Order("id")
	if filter.EntityType != "" {
		q = q.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		q = q.Where("entity_id = ?", filter.EntityID)
	}
	var entries []models.AuditLog
	err := q.Find(&entries).Error
	return entries, err
}

// CreateExternalReferences records imported third-party identifiers. A
// duplicate (source, kind, external_id) violates the unique index and fails
// the surrounding transaction.
func (s *Store) CreateExternalReferences(ctx context.Context, refs []models.ExternalReference) error {
	if len(refs) == 0 {
		return nil
	}
	return s.conn(ctx).Create(&refs).Error
}

// ListExternalReferences returns every reference recorded for source.
func (s *Store) ListExternalReferences(ctx context.Context, source string) ([]models.ExternalReference, error) {
	var refs []models.ExternalReference
	err := s.conn(ctx).Where("source = ?", source).Order("id").Find(&refs).Error
	return refs, err
}

// DeleteExternalReferencesForEntity removes the references that point at one
// record and returns them, so the external identifiers can be imported again.
func (s *Store) DeleteExternalReferencesForEntity(ctx context.Context, entityType, entityID string) ([]models.ExternalReference, error) {
	db := s.conn(ctx)
	var refs []models.ExternalReference
	if err := db.Where("entity_type = ? AND entity_id = ?", entityType, entityID).Order("id").Find(&refs).Error; err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, nil
	}
	if err := db.Where("entity_type = ? AND entity_id = ?", entityType, entityID).Delete(&models.ExternalReference{}).Error; err != nil {
		return nil, err
	}
	return refs, nil
}

// LoadSettings returns the settings row, creating it from defaults on first use.
func (s *Store) LoadSettings(ctx context.Context, defaults models.Settings) (*models.Settings, error) {
	var settings models.Settings
	err := s.conn(ctx).First(&settings, "id = ?", models.SettingsID).Error
	if err == nil {
		return &settings, nil
	}
	if notFound(err) != ErrNotFound {
		return nil, err
	}

	settings = defaults
	settings.ID = models.SettingsID
	if settings.NextInvoiceNumber < 1 {
		settings.NextInvoiceNumber = 1
	}
	if err := s.conn(ctx).Create(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings *models.Settings) error {
	settings.ID = models.SettingsID
	return s.conn(ctx).Save(settings).Error
}
