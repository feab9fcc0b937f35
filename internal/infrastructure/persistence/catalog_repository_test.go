package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/circuithospitality/stockroom-sync/internal/domain/catalog"
	"github.com/circuithospitality/stockroom-sync/internal/domain/shared"
	"github.com/circuithospitality/stockroom-sync/internal/infrastructure/persistence/models"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.ProductModel{},
		&models.ProductCategoryModel{},
		&models.VariationModel{},
		&models.TermModel{},
		&models.PackageDetailModel{},
		&models.OrderModel{},
		&models.OrderLineModel{},
		&models.OrderNoteModel{},
	)
	require.NoError(t, err)

	return db
}

func TestGormCatalogStore_ProductRoundTrip(t *testing.T) {
	store := NewGormCatalogStore(setupCatalogTestDB(t))
	ctx := context.Background()

	startsAt := time.Date(2026, 9, 12, 15, 0, 0, 0, time.UTC)
	id, err := store.SaveProduct(ctx, catalog.Product{
		Name:        "City Derby",
		Kind:        catalog.ProductKindVariable,
		Active:      true,
		StockStatus: catalog.StockStatusInStock,
		StartsAt:    &startsAt,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := store.Product(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "City Derby", got.Name)
	assert.Equal(t, catalog.ProductKindVariable, got.Kind)
	assert.True(t, got.Active)
	require.NotNil(t, got.StartsAt)
	assert.True(t, got.StartsAt.Equal(startsAt))
}

func TestGormCatalogStore_ProductNotFound(t *testing.T) {
	store := NewGormCatalogStore(setupCatalogTestDB(t))

	_, err := store.Product(context.Background(), "9999")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = store.Product(context.Background(), "not-a-number")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormCatalogStore_CategoryAssignmentReplaced(t *testing.T) {
	store := NewGormCatalogStore(setupCatalogTestDB(t))
	ctx := context.Background()

	termA, err := store.SaveTerm(ctx, catalog.Term{Taxonomy: catalog.TaxonomyCategory, Name: "Sport", Slug: "sport"})
	require.NoError(t, err)
	termB, err := store.SaveTerm(ctx, catalog.Term{Taxonomy: catalog.TaxonomyCategory, Name: "Football", Slug: "football"})
	require.NoError(t, err)

	id, err := store.SaveProduct(ctx, catalog.Product{
		Name: "Derby", Kind: catalog.ProductKindVariable, CategoryIDs: []string{termA},
	})
	require.NoError(t, err)

	got, err := store.Product(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{termA}, got.CategoryIDs)

	got.CategoryIDs = []string{termB}
	_, err = store.SaveProduct(ctx, got)
	require.NoError(t, err)

	got, err = store.Product(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{termB}, got.CategoryIDs)
}

func TestGormCatalogStore_VariationsLifecycle(t *testing.T) {
	store := NewGormCatalogStore(setupCatalogTestDB(t))
	ctx := context.Background()

	productID, err := store.SaveProduct(ctx, catalog.Product{Name: "Derby", Kind: catalog.ProductKindVariable})
	require.NoError(t, err)

	v1, err := store.SaveVariation(ctx, catalog.Variation{
		ProductID:   productID,
		OptionSlug:  "gold-lounge",
		Price:       decimal.RequireFromString("120.500"),
		Stock:       8,
		StockStatus: catalog.StockStatusInStock,
	})
	require.NoError(t, err)
	v2, err := store.SaveVariation(ctx, catalog.Variation{
		ProductID:  productID,
		OptionSlug: "silver-seat",
		Price:      decimal.RequireFromString("75.000"),
	})
	require.NoError(t, err)

	variations, err := store.Variations(ctx, productID)
	require.NoError(t, err)
	require.Len(t, variations, 2)
	assert.Equal(t, v1, variations[0].ID)
	assert.Equal(t, "gold-lounge", variations[0].OptionSlug)
	assert.True(t, variations[0].Price.Equal(decimal.RequireFromString("120.5")))

	// In-place update keeps the ID.
	variations[0].Stock = 0
	variations[0].StockStatus = catalog.StockStatusOutOfStock
	updatedID, err := store.SaveVariation(ctx, variations[0])
	require.NoError(t, err)
	assert.Equal(t, v1, updatedID)

	got, err := store.Variation(ctx, v1)
	require.NoError(t, err)
	assert.Equal(t, catalog.StockStatusOutOfStock, got.StockStatus)

	require.NoError(t, store.DeleteVariation(ctx, v2))
	variations, err = store.Variations(ctx, productID)
	require.NoError(t, err)
	require.Len(t, variations, 1)
}

func TestGormCatalogStore_DeleteProductCascades(t *testing.T) {
	store := NewGormCatalogStore(setupCatalogTestDB(t))
	ctx := context.Background()

	productID, err := store.SaveProduct(ctx, catalog.Product{Name: "Derby", Kind: catalog.ProductKindVariable})
	require.NoError(t, err)
	variationID, err := store.SaveVariation(ctx, catalog.Variation{ProductID: productID, OptionSlug: "gold"})
	require.NoError(t, err)
	require.NoError(t, store.SavePackageDetail(ctx, catalog.PackageDetail{
		VariationID: variationID,
		Description: "Lounge access",
	}))

	require.NoError(t, store.DeleteProduct(ctx, productID))

	_, err = store.Product(ctx, productID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = store.Variation(ctx, variationID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	// Already deleted is a no-op.
	assert.NoError(t, store.DeleteProduct(ctx, productID))
}

func TestGormCatalogStore_SetPriceBounds(t *testing.T) {
	db := setupCatalogTestDB(t)
	store := NewGormCatalogStore(db)
	ctx := context.Background()

	productID, err := store.SaveProduct(ctx, catalog.Product{Name: "Derby", Kind: catalog.ProductKindVariable})
	require.NoError(t, err)

	require.NoError(t, store.SetPriceBounds(ctx, productID,
		decimal.RequireFromString("75"), decimal.RequireFromString("120.5")))

	var row models.ProductModel
	rowID, err := models.ParseModelID(productID)
	require.NoError(t, err)
	require.NoError(t, db.First(&row, rowID).Error)
	assert.True(t, row.PriceMin.Equal(decimal.RequireFromString("75")))
	assert.True(t, row.PriceMax.Equal(decimal.RequireFromString("120.5")))
}

func TestGormCatalogStore_TermBySlug(t *testing.T) {
	store := NewGormCatalogStore(setupCatalogTestDB(t))
	ctx := context.Background()

	parentID, err := store.SaveTerm(ctx, catalog.Term{Taxonomy: catalog.TaxonomyCategory, Name: "Sport", Slug: "sport"})
	require.NoError(t, err)
	_, err = store.SaveTerm(ctx, catalog.Term{
		Taxonomy: catalog.TaxonomyCategory, Name: "Football", Slug: "football", ParentID: parentID,
	})
	require.NoError(t, err)

	got, err := store.TermBySlug(ctx, catalog.TaxonomyCategory, "football")
	require.NoError(t, err)
	assert.Equal(t, "Football", got.Name)
	assert.Equal(t, parentID, got.ParentID)

	// Same slug in a different taxonomy is a different term space.
	_, err = store.TermBySlug(ctx, catalog.TaxonomyLocation, "football")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormCatalogStore_PackageDetailUpsert(t *testing.T) {
	store := NewGormCatalogStore(setupCatalogTestDB(t))
	ctx := context.Background()

	productID, err := store.SaveProduct(ctx, catalog.Product{Name: "Derby", Kind: catalog.ProductKindVariable})
	require.NoError(t, err)
	variationID, err := store.SaveVariation(ctx, catalog.Variation{ProductID: productID, OptionSlug: "gold"})
	require.NoError(t, err)

	require.NoError(t, store.SavePackageDetail(ctx, catalog.PackageDetail{
		VariationID: variationID, Description: "first",
	}))
	require.NoError(t, store.SavePackageDetail(ctx, catalog.PackageDetail{
		VariationID: variationID, Description: "second", Inclusions: "dinner",
	}))

	require.NoError(t, store.DeletePackageDetail(ctx, variationID))
	assert.NoError(t, store.DeletePackageDetail(ctx, variationID))
}

func TestGormOrderStore_RoundTrip(t *testing.T) {
	db := setupCatalogTestDB(t)
	store := NewGormOrderStore(db)
	ctx := context.Background()

	variationID := uint(3)
	row := models.OrderModel{
		InvoiceNumber:    "INV-9",
		CustomerNote:     "window seat",
		BillingFirstName: "Ada",
		BillingLastName:  "Byron",
		BillingEmail:     "ada@example.com",
		BillingState:     "Greater London",
		BillingCountry:   "GB",
		Lines: []models.OrderLineModel{
			{
				ProductID:    5,
				VariationID:  &variationID,
				Quantity:     2,
				UnitNet:      decimal.RequireFromString("120.500"),
				UnitGross:    decimal.RequireFromString("144.600"),
				CatalogNet:   decimal.RequireFromString("120.500"),
				CatalogGross: decimal.RequireFromString("144.600"),
			},
		},
	}
	require.NoError(t, db.Create(&row).Error)
	orderID := models.FormatModelID(row.ID)

	order, err := store.Order(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, "INV-9", order.InvoiceNumber)
	assert.Equal(t, "Ada", order.Billing.FirstName)
	assert.Equal(t, "Greater London", order.Billing.State)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "5", order.Lines[0].ProductID)
	assert.Equal(t, "3", order.Lines[0].VariationID)
	assert.Empty(t, order.BasketToken)

	require.NoError(t, store.SetBasketToken(ctx, orderID, "tok-7"))
	order, err = store.Order(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, "tok-7", order.BasketToken)

	require.NoError(t, store.AddOrderNote(ctx, orderID, "Remote order placement failed"))
	var notes []models.OrderNoteModel
	require.NoError(t, db.Where("order_id = ?", row.ID).Find(&notes).Error)
	require.Len(t, notes, 1)

	require.NoError(t, store.MarkFailed(ctx, orderID))
	var reloaded models.OrderModel
	require.NoError(t, db.First(&reloaded, row.ID).Error)
	assert.Equal(t, "failed", reloaded.Status)
}

func TestGormOrderStore_SetBasketTokenMissingOrder(t *testing.T) {
	store := NewGormOrderStore(setupCatalogTestDB(t))

	err := store.SetBasketToken(context.Background(), "404", "tok")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
