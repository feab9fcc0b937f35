package persistence

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/circuithospitality/stockroom-sync/internal/domain/catalog"
	"github.com/circuithospitality/stockroom-sync/internal/domain/shared"
	"github.com/circuithospitality/stockroom-sync/internal/infrastructure/persistence/models"
)

// GormCatalogStore implements catalog.ProductStore, catalog.TermStore
// and catalog.PackageDetailStore using GORM. It is the reference local
// catalog for standalone deployments; hosts with their own commerce
// platform supply their own adapters instead.
type GormCatalogStore struct {
	db *gorm.DB
}

// NewGormCatalogStore creates a new GormCatalogStore
func NewGormCatalogStore(db *gorm.DB) *GormCatalogStore {
	return &GormCatalogStore{db: db}
}

// Product returns a product by local ID
func (s *GormCatalogStore) Product(ctx context.Context, id string) (catalog.Product, error) {
	rowID, err := models.ParseModelID(id)
	if err != nil {
		return catalog.Product{}, shared.ErrNotFound
	}

	var row models.ProductModel
	err = s.db.WithContext(ctx).Preload("Categories").First(&row, rowID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return catalog.Product{}, shared.ErrNotFound
		}
		return catalog.Product{}, err
	}
	return row.ToDomain(), nil
}

// SaveProduct creates or updates a product and returns its ID
func (s *GormCatalogStore) SaveProduct(ctx context.Context, p catalog.Product) (string, error) {
	row := models.ProductModel{
		Name:        p.Name,
		Kind:        string(p.Kind),
		Active:      p.Active,
		Price:       p.Price,
		Stock:       p.Stock,
		StockStatus: string(p.StockStatus),
		StartsAt:    p.StartsAt,
	}
	if p.LocationID != "" {
		locID, err := models.ParseModelID(p.LocationID)
		if err != nil {
			return "", err
		}
		row.LocationID = &locID
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.ID != "" {
			rowID, err := models.ParseModelID(p.ID)
			if err != nil {
				return err
			}
			row.ID = rowID
			if err := tx.Omit("Categories", "created_at").Save(&row).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Omit("Categories").Create(&row).Error; err != nil {
				return err
			}
		}

		if p.CategoryIDs == nil {
			return nil
		}
		if err := tx.Where("product_id = ?", row.ID).Delete(&models.ProductCategoryModel{}).Error; err != nil {
			return err
		}
		for _, termID := range p.CategoryIDs {
			tID, err := models.ParseModelID(termID)
			if err != nil {
				return err
			}
			link := models.ProductCategoryModel{ProductID: row.ID, TermID: tID}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return models.FormatModelID(row.ID), nil
}

// DeleteProduct removes a product, its variations, and their details.
// Deleting a missing product is a no-op.
func (s *GormCatalogStore) DeleteProduct(ctx context.Context, id string) error {
	rowID, err := models.ParseModelID(id)
	if err != nil {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var variationIDs []uint
		if err := tx.Model(&models.VariationModel{}).
			Where("product_id = ?", rowID).
			Pluck("id", &variationIDs).Error; err != nil {
			return err
		}
		if len(variationIDs) > 0 {
			if err := tx.Where("variation_id IN ?", variationIDs).Delete(&models.PackageDetailModel{}).Error; err != nil {
				return err
			}
			if err := tx.Where("product_id = ?", rowID).Delete(&models.VariationModel{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("product_id = ?", rowID).Delete(&models.ProductCategoryModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ProductModel{}, rowID).Error
	})
}

// SetPriceBounds persists the price range of a variable product
func (s *GormCatalogStore) SetPriceBounds(ctx context.Context, productID string, min, max decimal.Decimal) error {
	rowID, err := models.ParseModelID(productID)
	if err != nil {
		return shared.ErrNotFound
	}
	return s.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("id = ?", rowID).
		Updates(map[string]any{"price_min": min, "price_max": max}).Error
}

// Variation returns a variation by local ID
func (s *GormCatalogStore) Variation(ctx context.Context, id string) (catalog.Variation, error) {
	rowID, err := models.ParseModelID(id)
	if err != nil {
		return catalog.Variation{}, shared.ErrNotFound
	}

	var row models.VariationModel
	err = s.db.WithContext(ctx).First(&row, rowID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return catalog.Variation{}, shared.ErrNotFound
		}
		return catalog.Variation{}, err
	}
	return row.ToDomain(), nil
}

// Variations returns the variations of a product ordered by ID
func (s *GormCatalogStore) Variations(ctx context.Context, productID string) ([]catalog.Variation, error) {
	rowID, err := models.ParseModelID(productID)
	if err != nil {
		return nil, shared.ErrNotFound
	}

	var rows []models.VariationModel
	if err := s.db.WithContext(ctx).
		Where("product_id = ?", rowID).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]catalog.Variation, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// SaveVariation creates or updates a variation and returns its ID
func (s *GormCatalogStore) SaveVariation(ctx context.Context, v catalog.Variation) (string, error) {
	productID, err := models.ParseModelID(v.ProductID)
	if err != nil {
		return "", err
	}

	row := models.VariationModel{
		ProductID:   productID,
		OptionSlug:  v.OptionSlug,
		Price:       v.Price,
		Stock:       v.Stock,
		StockStatus: string(v.StockStatus),
	}
	if v.ID != "" {
		rowID, err := models.ParseModelID(v.ID)
		if err != nil {
			return "", err
		}
		row.ID = rowID
		err = s.db.WithContext(ctx).Omit("created_at").Save(&row).Error
		if err != nil {
			return "", err
		}
		return v.ID, nil
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}
	return models.FormatModelID(row.ID), nil
}

// DeleteVariation removes a single variation
func (s *GormCatalogStore) DeleteVariation(ctx context.Context, id string) error {
	rowID, err := models.ParseModelID(id)
	if err != nil {
		return nil
	}
	return s.db.WithContext(ctx).Delete(&models.VariationModel{}, rowID).Error
}

// TermBySlug returns the term with the given slug in a taxonomy
func (s *GormCatalogStore) TermBySlug(ctx context.Context, taxonomy catalog.Taxonomy, slug string) (catalog.Term, error) {
	var row models.TermModel
	err := s.db.WithContext(ctx).
		Where("taxonomy = ? AND slug = ?", string(taxonomy), slug).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return catalog.Term{}, shared.ErrNotFound
		}
		return catalog.Term{}, err
	}
	return row.ToDomain(), nil
}

// Term returns a term by local ID
func (s *GormCatalogStore) Term(ctx context.Context, id string) (catalog.Term, error) {
	rowID, err := models.ParseModelID(id)
	if err != nil {
		return catalog.Term{}, shared.ErrNotFound
	}

	var row models.TermModel
	err = s.db.WithContext(ctx).First(&row, rowID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return catalog.Term{}, shared.ErrNotFound
		}
		return catalog.Term{}, err
	}
	return row.ToDomain(), nil
}

// SaveTerm creates or updates a term and returns its ID
func (s *GormCatalogStore) SaveTerm(ctx context.Context, t catalog.Term) (string, error) {
	row := models.TermModel{
		Taxonomy: string(t.Taxonomy),
		Name:     t.Name,
		Slug:     t.Slug,
	}
	if t.ParentID != "" {
		parentID, err := models.ParseModelID(t.ParentID)
		if err != nil {
			return "", err
		}
		row.ParentID = &parentID
	}

	if t.ID != "" {
		rowID, err := models.ParseModelID(t.ID)
		if err != nil {
			return "", err
		}
		row.ID = rowID
		if err := s.db.WithContext(ctx).Omit("created_at").Save(&row).Error; err != nil {
			return "", err
		}
		return t.ID, nil
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}
	return models.FormatModelID(row.ID), nil
}

// SavePackageDetail upserts the detail documents of a variation
func (s *GormCatalogStore) SavePackageDetail(ctx context.Context, d catalog.PackageDetail) error {
	variationID, err := models.ParseModelID(d.VariationID)
	if err != nil {
		return err
	}
	row := models.PackageDetailModel{
		VariationID:  variationID,
		Description:  d.Description,
		DayInfo:      d.DayInfo,
		Inclusions:   d.Inclusions,
		Informations: d.Informations,
	}
	return s.db.WithContext(ctx).Save(&row).Error
}

// DeletePackageDetail removes the detail documents of a variation
func (s *GormCatalogStore) DeletePackageDetail(ctx context.Context, variationID string) error {
	rowID, err := models.ParseModelID(variationID)
	if err != nil {
		return nil
	}
	return s.db.WithContext(ctx).Delete(&models.PackageDetailModel{}, rowID).Error
}

// GormOrderStore implements catalog.OrderStore using GORM.
type GormOrderStore struct {
	db *gorm.DB
}

// NewGormOrderStore creates a new GormOrderStore
func NewGormOrderStore(db *gorm.DB) *GormOrderStore {
	return &GormOrderStore{db: db}
}

// Order returns an order by local ID
func (s *GormOrderStore) Order(ctx context.Context, id string) (catalog.Order, error) {
	rowID, err := models.ParseModelID(id)
	if err != nil {
		return catalog.Order{}, shared.ErrNotFound
	}

	var row models.OrderModel
	err = s.db.WithContext(ctx).Preload("Lines").First(&row, rowID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return catalog.Order{}, shared.ErrNotFound
		}
		return catalog.Order{}, err
	}
	return row.ToDomain(), nil
}

// SetBasketToken attaches the remote identifier to an order
func (s *GormOrderStore) SetBasketToken(ctx context.Context, orderID, token string) error {
	rowID, err := models.ParseModelID(orderID)
	if err != nil {
		return shared.ErrNotFound
	}
	result := s.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("id = ?", rowID).
		Update("basket_token", token)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AddOrderNote appends a diagnostic note to an order
func (s *GormOrderStore) AddOrderNote(ctx context.Context, orderID, note string) error {
	rowID, err := models.ParseModelID(orderID)
	if err != nil {
		return shared.ErrNotFound
	}
	row := models.OrderNoteModel{OrderID: rowID, Note: note}
	return s.db.WithContext(ctx).Create(&row).Error
}

// MarkFailed transitions an order into the failed status
func (s *GormOrderStore) MarkFailed(ctx context.Context, orderID string) error {
	rowID, err := models.ParseModelID(orderID)
	if err != nil {
		return shared.ErrNotFound
	}
	return s.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("id = ?", rowID).
		Update("status", "failed").Error
}
