package models

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/circuithospitality/stockroom-sync/internal/domain/catalog"
)

// ProductModel is the persistence model for catalog products.
type ProductModel struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"size:255;not null"`
	Kind        string `gorm:"size:16;not null"`
	Active      bool
	Price       decimal.Decimal `gorm:"type:numeric(12,3)"`
	PriceMin    decimal.Decimal `gorm:"type:numeric(12,3)"`
	PriceMax    decimal.Decimal `gorm:"type:numeric(12,3)"`
	Stock       int
	StockStatus string `gorm:"size:16"`
	LocationID  *uint
	StartsAt    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Categories []ProductCategoryModel `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the GORM table name
func (ProductModel) TableName() string {
	return "products"
}

// ProductCategoryModel links a product to a category term.
type ProductCategoryModel struct {
	ProductID uint `gorm:"primaryKey"`
	TermID    uint `gorm:"primaryKey"`
}

// TableName overrides the GORM table name
func (ProductCategoryModel) TableName() string {
	return "product_categories"
}

// VariationModel is the persistence model for product variations.
type VariationModel struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	ProductID   uint   `gorm:"not null;index"`
	OptionSlug  string `gorm:"size:191;not null"`
	Price       decimal.Decimal `gorm:"type:numeric(12,3)"`
	Stock       int
	StockStatus string `gorm:"size:16"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName overrides the GORM table name
func (VariationModel) TableName() string {
	return "product_variations"
}

// TermModel is the persistence model for taxonomy terms.
type TermModel struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Taxonomy  string `gorm:"size:32;not null;uniqueIndex:idx_terms_taxonomy_slug,priority:1"`
	Name      string `gorm:"size:255;not null"`
	Slug      string `gorm:"size:191;not null;uniqueIndex:idx_terms_taxonomy_slug,priority:2"`
	ParentID  *uint
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the GORM table name
func (TermModel) TableName() string {
	return "terms"
}

// PackageDetailModel stores the descriptive documents of a package,
// keyed by the variation it belongs to.
type PackageDetailModel struct {
	VariationID  uint   `gorm:"primaryKey"`
	Description  string `gorm:"type:text"`
	DayInfo      string `gorm:"type:text"`
	Inclusions   string `gorm:"type:text"`
	Informations string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName overrides the GORM table name
func (PackageDetailModel) TableName() string {
	return "package_details"
}

// OrderModel is the persistence model for local orders.
type OrderModel struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	InvoiceNumber string `gorm:"size:64;index"`
	CustomerNote  string `gorm:"type:text"`
	BasketToken   string `gorm:"size:191;index"`
	Status        string `gorm:"size:32;not null;default:pending"`

	BillingFirstName string `gorm:"size:128"`
	BillingLastName  string `gorm:"size:128"`
	BillingCompany   string `gorm:"size:255"`
	BillingEmail     string `gorm:"size:255"`
	BillingPhone     string `gorm:"size:64"`
	BillingAddress1  string `gorm:"size:255"`
	BillingAddress2  string `gorm:"size:255"`
	BillingCity      string `gorm:"size:128"`
	BillingState     string `gorm:"size:128"`
	BillingPostcode  string `gorm:"size:32"`
	BillingCountry   string `gorm:"size:2"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Lines []OrderLineModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the GORM table name
func (OrderModel) TableName() string {
	return "orders"
}

// OrderLineModel is one purchased line of an order.
type OrderLineModel struct {
	ID           uint `gorm:"primaryKey;autoIncrement"`
	OrderID      uint `gorm:"not null;index"`
	ProductID    uint `gorm:"not null"`
	VariationID  *uint
	Quantity     int
	UnitNet      decimal.Decimal `gorm:"type:numeric(12,3)"`
	UnitGross    decimal.Decimal `gorm:"type:numeric(12,3)"`
	CatalogNet   decimal.Decimal `gorm:"type:numeric(12,3)"`
	CatalogGross decimal.Decimal `gorm:"type:numeric(12,3)"`
}

// TableName overrides the GORM table name
func (OrderLineModel) TableName() string {
	return "order_lines"
}

// OrderNoteModel is a diagnostic annotation on an order.
type OrderNoteModel struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	OrderID   uint   `gorm:"not null;index"`
	Note      string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

// TableName overrides the GORM table name
func (OrderNoteModel) TableName() string {
	return "order_notes"
}

// FormatModelID renders a numeric row ID as the string form the domain
// layer uses.
func FormatModelID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseModelID parses a domain-layer string ID back into a row ID.
func ParseModelID(id string) (uint, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(n), nil
}

// ToDomain converts the persistence model to a domain product
func (m *ProductModel) ToDomain() catalog.Product {
	p := catalog.Product{
		ID:          FormatModelID(m.ID),
		Name:        m.Name,
		Kind:        catalog.ProductKind(m.Kind),
		Active:      m.Active,
		Price:       m.Price,
		Stock:       m.Stock,
		StockStatus: catalog.StockStatus(m.StockStatus),
		StartsAt:    m.StartsAt,
	}
	if m.LocationID != nil {
		p.LocationID = FormatModelID(*m.LocationID)
	}
	for _, c := range m.Categories {
		p.CategoryIDs = append(p.CategoryIDs, FormatModelID(c.TermID))
	}
	return p
}

// ToDomain converts the persistence model to a domain variation
func (m *VariationModel) ToDomain() catalog.Variation {
	return catalog.Variation{
		ID:          FormatModelID(m.ID),
		ProductID:   FormatModelID(m.ProductID),
		OptionSlug:  m.OptionSlug,
		Price:       m.Price,
		Stock:       m.Stock,
		StockStatus: catalog.StockStatus(m.StockStatus),
	}
}

// ToDomain converts the persistence model to a domain term
func (m *TermModel) ToDomain() catalog.Term {
	t := catalog.Term{
		ID:       FormatModelID(m.ID),
		Taxonomy: catalog.Taxonomy(m.Taxonomy),
		Name:     m.Name,
		Slug:     m.Slug,
	}
	if m.ParentID != nil {
		t.ParentID = FormatModelID(*m.ParentID)
	}
	return t
}

// ToDomain converts the persistence model to a domain order
func (m *OrderModel) ToDomain() catalog.Order {
	o := catalog.Order{
		ID:            FormatModelID(m.ID),
		InvoiceNumber: m.InvoiceNumber,
		CustomerNote:  m.CustomerNote,
		BasketToken:   m.BasketToken,
		Billing: catalog.BillingAddress{
			FirstName: m.BillingFirstName,
			LastName:  m.BillingLastName,
			Company:   m.BillingCompany,
			Email:     m.BillingEmail,
			Phone:     m.BillingPhone,
			Address1:  m.BillingAddress1,
			Address2:  m.BillingAddress2,
			City:      m.BillingCity,
			State:     m.BillingState,
			Postcode:  m.BillingPostcode,
			Country:   m.BillingCountry,
		},
	}
	for _, line := range m.Lines {
		l := catalog.OrderLine{
			ProductID:    FormatModelID(line.ProductID),
			Quantity:     line.Quantity,
			UnitNet:      line.UnitNet,
			UnitGross:    line.UnitGross,
			CatalogNet:   line.CatalogNet,
			CatalogGross: line.CatalogGross,
		}
		if line.VariationID != nil {
			l.VariationID = FormatModelID(*line.VariationID)
		}
		o.Lines = append(o.Lines, l)
	}
	return o
}
