package models

import "time"

// AuditLog is one append-only record of a state-changing operation.
type AuditLog struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	EntityType string    `json:"entity_type" gorm:"index:idx_audit_entity,priority:1"`
	EntityID   string    `json:"entity_id" gorm:"index:idx_audit_entity,priority:2;size:36"`
	Action     string    `json:"action"`
	Details    string    `json:"details"`
	Timestamp  time.Time `json:"timestamp" gorm:"index"`
}

// ExternalReference ties a third-party transaction identifier to the entity
// it was imported as. (source, kind, external_id) is unique.
type ExternalReference struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Source     string    `json:"source" gorm:"uniqueIndex:idx_external_ref,priority:1"`
	Kind       string    `json:"kind" gorm:"uniqueIndex:idx_external_ref,priority:2"`
	ExternalID string    `json:"external_id" gorm:"uniqueIndex:idx_external_ref,priority:3"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id" gorm:"size:36"`
	CreatedAt  time.Time `json:"created_at"`
}
