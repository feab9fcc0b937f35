package catalog

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StockStatus reflects whether a product can currently be purchased.
type StockStatus string

const (
	StockStatusInStock    StockStatus = "instock"
	StockStatusOutOfStock StockStatus = "outofstock"
)

// StockStatusFor derives the stock status from a quantity.
func StockStatusFor(quantity int) StockStatus {
	if quantity <= 0 {
		return StockStatusOutOfStock
	}
	return StockStatusInStock
}

// ProductKind distinguishes products with a single implicit variation
// from products composed of purchasable variations. The kind is chosen
// at creation time and never changes afterwards.
type ProductKind string

const (
	ProductKindSimple   ProductKind = "simple"
	ProductKindVariable ProductKind = "variable"
)

// Taxonomy names the term groupings the reconciler writes into.
type Taxonomy string

const (
	TaxonomyCategory      Taxonomy = "product_cat"
	TaxonomyPackageOption Taxonomy = "package_option"
	TaxonomyLocation      Taxonomy = "location"
)

// FormatPrice renders a price with exactly 3 fractional digits, the
// precision the catalog stores.
func FormatPrice(p decimal.Decimal) string {
	return p.StringFixed(3)
}

// Product is the minimal projection of a local catalog product the
// reconciler reads and writes. The surrounding commerce platform owns
// the full entity.
type Product struct {
	ID          string
	Name        string
	Kind        ProductKind
	Active      bool
	Price       decimal.Decimal
	Stock       int
	StockStatus StockStatus
	CategoryIDs []string
	LocationID  string
	StartsAt    *time.Time
}

// Variation is one purchasable option of a variable product.
type Variation struct {
	ID          string
	ProductID   string
	OptionSlug  string
	Price       decimal.Decimal
	Stock       int
	StockStatus StockStatus
}

// Term is a taxonomy term (category or package option).
type Term struct {
	ID       string
	Taxonomy Taxonomy
	Name     string
	Slug     string
	ParentID string
}

// PackageDetail carries the descriptive documents of a remote package,
// reduced to text, stored alongside the variation they describe.
type PackageDetail struct {
	VariationID  string
	Description  string
	DayInfo      string
	Inclusions   string
	Informations string
}

// ProductStore is the slice of the local catalog the reconciler needs
// for products and variations.
type ProductStore interface {
	// Product returns a product by local ID, or shared.ErrNotFound.
	Product(ctx context.Context, id string) (Product, error)

	// SaveProduct creates the product when its ID is empty and returns
	// the assigned ID; otherwise it updates the existing product.
	SaveProduct(ctx context.Context, p Product) (string, error)

	// DeleteProduct removes a product and all of its variations.
	// Deleting a missing product is a no-op.
	DeleteProduct(ctx context.Context, id string) error

	// SetPriceBounds persists the min/max price range shown for a
	// variable product.
	SetPriceBounds(ctx context.Context, productID string, min, max decimal.Decimal) error

	// Variation returns a variation by local ID, or shared.ErrNotFound.
	Variation(ctx context.Context, id string) (Variation, error)

	// Variations lists all variations of a product.
	Variations(ctx context.Context, productID string) ([]Variation, error)

	// SaveVariation creates the variation when its ID is empty and
	// returns the assigned ID; otherwise it updates it in place.
	SaveVariation(ctx context.Context, v Variation) (string, error)

	// DeleteVariation removes a single variation.
	DeleteVariation(ctx context.Context, id string) error
}

// TermStore is the slice of the local catalog covering taxonomy terms.
type TermStore interface {
	// TermBySlug returns the term with the given slug in a taxonomy,
	// or shared.ErrNotFound.
	TermBySlug(ctx context.Context, taxonomy Taxonomy, slug string) (Term, error)

	// Term returns a term by local ID, or shared.ErrNotFound.
	Term(ctx context.Context, id string) (Term, error)

	// SaveTerm creates the term when its ID is empty and returns the
	// assigned ID; otherwise it updates the existing term.
	SaveTerm(ctx context.Context, t Term) (string, error)
}

// PackageDetailStore persists the descriptive documents of packages.
type PackageDetailStore interface {
	SavePackageDetail(ctx context.Context, d PackageDetail) error
	DeletePackageDetail(ctx context.Context, variationID string) error
}
