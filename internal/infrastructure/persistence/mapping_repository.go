package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/circuithospitality/stockroom-sync/internal/domain/mapping"
	"github.com/circuithospitality/stockroom-sync/internal/domain/shared"
	"github.com/circuithospitality/stockroom-sync/internal/infrastructure/persistence/models"
)

// GormMappingRepository implements mapping.Repository using GORM
type GormMappingRepository struct {
	db *gorm.DB
}

// NewGormMappingRepository creates a new GormMappingRepository
func NewGormMappingRepository(db *gorm.DB) *GormMappingRepository {
	return &GormMappingRepository{db: db}
}

// keyColumn returns the column a lookup direction keys by.
func keyColumn(dir mapping.Direction) string {
	if dir == mapping.Reverse {
		return "target_id"
	}
	return "source_id"
}

// Find returns the counterpart ID for the given key in the given direction
func (r *GormMappingRepository) Find(ctx context.Context, model string, dir mapping.Direction, key string) (string, error) {
	var row models.EntityMappingModel
	err := r.db.WithContext(ctx).
		Where(fmt.Sprintf("model_name = ? AND %s = ?", keyColumn(dir)), model, key).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return row.ToDomain().Counterpart(dir), nil
}

// Insert stores a new mapping row
func (r *GormMappingRepository) Insert(ctx context.Context, model, sourceID, targetID string) error {
	row := models.EntityMappingModel{
		ModelName: model,
		SourceID:  sourceID,
		TargetID:  targetID,
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

// Delete removes the mapping row keyed by the given direction.
// Deleting a missing row is not an error.
func (r *GormMappingRepository) Delete(ctx context.Context, model string, dir mapping.Direction, key string) error {
	return r.db.WithContext(ctx).
		Where(fmt.Sprintf("model_name = ? AND %s = ?", keyColumn(dir)), model, key).
		Delete(&models.EntityMappingModel{}).Error
}

// ListByModel returns every record in a namespace
func (r *GormMappingRepository) ListByModel(ctx context.Context, model string) ([]mapping.Record, error) {
	var rows []models.EntityMappingModel
	if err := r.db.WithContext(ctx).
		Where("model_name = ?", model).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]mapping.Record, len(rows))
	for i, row := range rows {
		records[i] = row.ToDomain()
	}
	return records, nil
}
