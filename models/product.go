// Package models contains domain entities for the channel pricing system
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Line item types of a bill of materials
const (
	LineItemTypeRawMaterial = "raw_material"
	LineItemTypeOutsourced  = "outsourced"
	LineItemTypePackaging   = "packaging"
)

// OversizeThresholdCM is the dimension above which a product ships as oversize
var OversizeThresholdCM = decimal.NewFromInt(100)

// cubicDivisor converts cm³ into kilograms of cubic weight
var cubicDivisor = decimal.NewFromInt(6000)

// Product is a sellable item with physical dimensions and a bill of materials.
// Table: products
type Product struct {
	ID    uint      `gorm:"primaryKey" json:"id"`
	UUID  uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	SKU   string    `gorm:"size:50;uniqueIndex;not null" json:"sku"`
	Title string    `gorm:"size:255;not null" json:"title"`
	EAN   string    `gorm:"size:20" json:"ean"`

	// Dimensions in centimeters, weight in kilograms
	Width          decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"width"`
	Height         decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"height"`
	Depth          decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"depth"`
	PhysicalWeight decimal.Decimal `gorm:"type:numeric(10,3);not null" json:"physical_weight"`

	Active    *bool     `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	LineItems []LineItem `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"line_items,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// BeforeCreate ensures UUID is set
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	return nil
}

// CubicWeight returns (width * height * depth) / 6000
func (p *Product) CubicWeight() decimal.Decimal {
	return p.Width.Mul(p.Height).Mul(p.Depth).Div(cubicDivisor)
}

// ShippingWeight returns the larger of physical and cubic weight
func (p *Product) ShippingWeight() decimal.Decimal {
	return decimal.Max(p.PhysicalWeight, p.CubicWeight())
}

// Dimensions returns width, height and depth in that order
func (p *Product) Dimensions() Dimensions {
	return Dimensions{Width: p.Width, Height: p.Height, Depth: p.Depth}
}

func (p *Product) IsActive() bool {
	return p.Active == nil || *p.Active
}

// Dimensions groups the three package measures in centimeters
type Dimensions struct {
	Width  decimal.Decimal `json:"width"`
	Height decimal.Decimal `json:"height"`
	Depth  decimal.Decimal `json:"depth"`
}

// ExceedsOversize reports whether any measure is strictly above the oversize threshold
func (d Dimensions) ExceedsOversize() bool {
	return d.Width.GreaterThan(OversizeThresholdCM) ||
		d.Height.GreaterThan(OversizeThresholdCM) ||
		d.Depth.GreaterThan(OversizeThresholdCM)
}

// LineItem is one entry of a product bill of materials.
// Table: product_line_items
type LineItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	ProductID   uint            `gorm:"not null;index:idx_line_items_product_id" json:"product_id"`
	Type        string          `gorm:"size:20;not null;default:'raw_material'" json:"type"`
	Code        string          `gorm:"size:50;not null" json:"code"`
	Description string          `gorm:"size:255;not null" json:"description"`
	Unit        string          `gorm:"size:5;not null;default:'UN'" json:"unit"`
	Quantity    decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"quantity"`
	UnitCost    decimal.Decimal `gorm:"type:numeric(10,3);not null" json:"unit_cost"`
	Multiplier  decimal.Decimal `gorm:"type:numeric(5,2);not null;default:1" json:"multiplier"`
	CreatedAt   time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (LineItem) TableName() string {
	return "product_line_items"
}

// TotalCost returns quantity * unit cost * multiplier rounded half-up to 3 decimals
func (li *LineItem) TotalCost() decimal.Decimal {
	return li.Quantity.Mul(li.UnitCost).Mul(li.Multiplier).Round(3)
}

// ProductFilter represents filter criteria for product queries
type ProductFilter struct {
	ID     *uint   `json:"id,omitempty"`
	SKU    *string `json:"sku,omitempty"`
	Active *bool   `json:"active,omitempty"`
}
