package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// PriceRecord holds the computed and manual prices of one product in one channel.
// Table: price_records
type PriceRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UUID      uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	ProductID uint      `gorm:"not null;uniqueIndex:uk_price_records_product_channel;index:idx_price_records_product_id" json:"product_id"`
	ChannelID uint      `gorm:"not null;uniqueIndex:uk_price_records_product_channel;index:idx_price_records_channel_id" json:"channel_id"`
	Active    *bool     `gorm:"not null;default:true" json:"active"`
	Automatic *bool     `gorm:"not null;default:true" json:"automatic"`

	// Manual overrides
	ManualSalePrice  *decimal.Decimal `gorm:"type:numeric(10,2)" json:"manual_sale_price,omitempty"`
	ManualPromoPrice *decimal.Decimal `gorm:"type:numeric(10,2)" json:"manual_promo_price,omitempty"`
	ManualMinPrice   *decimal.Decimal `gorm:"type:numeric(10,2)" json:"manual_min_price,omitempty"`
	SpecificFreight  *decimal.Decimal `gorm:"type:numeric(10,2)" json:"specific_freight,omitempty"`

	// Cached solver output
	Cost              decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"cost"`
	SalePrice         decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"sale_price"`
	PromoPrice        decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"promo_price"`
	MinPrice          decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"min_price"`
	PromoPriceRounded decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"promo_price_rounded"`
	MinPriceRounded   decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"min_price_rounded"`
	Freight           decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"freight"`
	Fee               decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"fee"`
	ComputedAt        *time.Time      `gorm:"index:idx_price_records_computed_at" json:"computed_at,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	Product *Product `gorm:"foreignKey:ProductID;references:ID;constraint:OnDelete:CASCADE" json:"product,omitempty"`
	Channel *Channel `gorm:"foreignKey:ChannelID;references:ID;constraint:OnDelete:CASCADE" json:"channel,omitempty"`
}

func (PriceRecord) TableName() string {
	return "price_records"
}

// BeforeCreate ensures UUID is set
func (r *PriceRecord) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == uuid.Nil {
		r.UUID = uuid.New()
	}
	return nil
}

func (r *PriceRecord) IsActive() bool {
	return r.Active == nil || *r.Active
}

func (r *PriceRecord) IsAutomatic() bool {
	return r.Automatic == nil || *r.Automatic
}

// HasComputedValues reports whether the solver has populated the cached fields
func (r *PriceRecord) HasComputedValues() bool {
	return r.ComputedAt != nil
}

// AppliedFreight returns the specific freight override, else the computed freight
func (r *PriceRecord) AppliedFreight() decimal.Decimal {
	if r.SpecificFreight != nil {
		return *r.SpecificFreight
	}
	return r.Freight
}

func (r *PriceRecord) displayed(manual *decimal.Decimal, computed decimal.Decimal) decimal.Decimal {
	if !r.IsAutomatic() && manual != nil {
		return *manual
	}
	return computed
}

// DisplaySalePrice returns the manual sale price for manual records when set
func (r *PriceRecord) DisplaySalePrice() decimal.Decimal {
	return r.displayed(r.ManualSalePrice, r.SalePrice)
}

// DisplayPromoPrice returns the manual promo price for manual records when set
func (r *PriceRecord) DisplayPromoPrice() decimal.Decimal {
	return r.displayed(r.ManualPromoPrice, r.PromoPrice)
}

// DisplayMinPrice returns the manual minimum price for manual records when set
func (r *PriceRecord) DisplayMinPrice() decimal.Decimal {
	return r.displayed(r.ManualMinPrice, r.MinPrice)
}

// MaxDiscountPercent is ((sale - min) / sale) * 100 over displayed prices
func (r *PriceRecord) MaxDiscountPercent() decimal.Decimal {
	sale := r.DisplaySalePrice()
	if !sale.IsPositive() {
		return decimal.Zero
	}
	return sale.Sub(r.DisplayMinPrice()).Div(sale).Mul(hundred).Round(2)
}

// ComputedEqual reports whether two records carry the same cached solver output
func (r *PriceRecord) ComputedEqual(o *PriceRecord) bool {
	return r.Cost.Equal(o.Cost) &&
		r.SalePrice.Equal(o.SalePrice) &&
		r.PromoPrice.Equal(o.PromoPrice) &&
		r.MinPrice.Equal(o.MinPrice) &&
		r.PromoPriceRounded.Equal(o.PromoPriceRounded) &&
		r.MinPriceRounded.Equal(o.MinPriceRounded) &&
		r.Freight.Equal(o.Freight) &&
		r.Fee.Equal(o.Fee)
}

// PriceRecordFilter represents filter criteria for price record queries
type PriceRecordFilter struct {
	ID         *uint   `json:"id,omitempty"`
	ProductID  *uint   `json:"product_id,omitempty"`
	ChannelID  *uint   `json:"channel_id,omitempty"`
	ChannelIDs []uint  `json:"channel_ids,omitempty"`
	Active     *bool   `json:"active,omitempty"`
	Automatic  *bool   `json:"automatic,omitempty"`
	SKU        *string `json:"sku,omitempty"`
}
