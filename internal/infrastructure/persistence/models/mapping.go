package models

import (
	"time"

	"github.com/circuithospitality/stockroom-sync/internal/domain/mapping"
)

// EntityMappingModel is the persistence model for cross-system ID mappings.
type EntityMappingModel struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	ModelName string `gorm:"size:64;not null;index:idx_entity_mappings_source,priority:1;index:idx_entity_mappings_target,priority:1"`
	SourceID  string `gorm:"size:191;not null;index:idx_entity_mappings_source,priority:2"`
	TargetID  string `gorm:"size:191;not null;index:idx_entity_mappings_target,priority:2"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the GORM table name
func (EntityMappingModel) TableName() string {
	return "entity_mappings"
}

// ToDomain converts the persistence model to a domain record
func (m *EntityMappingModel) ToDomain() mapping.Record {
	return mapping.Record{
		ID:        m.ID,
		Model:     m.ModelName,
		SourceID:  m.SourceID,
		TargetID:  m.TargetID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain record
func (m *EntityMappingModel) FromDomain(r mapping.Record) {
	m.ID = r.ID
	m.ModelName = r.Model
	m.SourceID = r.SourceID
	m.TargetID = r.TargetID
	m.CreatedAt = r.CreatedAt
	m.UpdatedAt = r.UpdatedAt
}
