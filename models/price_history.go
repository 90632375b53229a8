package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrPriceHistoryImmutable is returned when a stored history entry is modified or deleted
var ErrPriceHistoryImmutable = errors.New("price history entries are immutable")

// PriceHistory is a write-once snapshot of a price record and the channel
// parameters in effect when it was taken.
// Table: price_history
type PriceHistory struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UUID          uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	PriceRecordID uint      `gorm:"not null;index:idx_price_history_record_id" json:"price_record_id"`
	ProductID     uint      `gorm:"not null;index:idx_price_history_product_id" json:"product_id"`
	ChannelID     uint      `gorm:"not null;index:idx_price_history_channel_id" json:"channel_id"`
	GroupID       uint      `gorm:"not null" json:"group_id"`

	// Name copies survive later renames
	ProductSKU  string `gorm:"size:50;not null" json:"product_sku"`
	ChannelName string `gorm:"size:100;not null" json:"channel_name"`
	GroupName   string `gorm:"size:100;not null" json:"group_name"`

	Percentages    Percentages     `gorm:"embedded" json:"percentages"`
	AppliedFreight decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"applied_freight"`

	MarkupFreight decimal.Decimal `gorm:"type:numeric(12,6);not null" json:"markup_freight"`
	MarkupSale    decimal.Decimal `gorm:"type:numeric(12,6);not null" json:"markup_sale"`
	MarkupPromo   decimal.Decimal `gorm:"type:numeric(12,6);not null" json:"markup_promo"`
	MarkupMin     decimal.Decimal `gorm:"type:numeric(12,6);not null" json:"markup_min"`

	Cost              decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"cost"`
	SalePrice         decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"sale_price"`
	PromoPrice        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"promo_price"`
	MinPrice          decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"min_price"`
	PromoPriceRounded decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"promo_price_rounded"`
	MinPriceRounded   decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"min_price_rounded"`
	Fee               decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"fee"`

	Reason    string    `gorm:"type:text" json:"reason"`
	Actor     *string   `gorm:"size:100" json:"actor,omitempty"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP;index:idx_price_history_created_at" json:"created_at"`
}

func (PriceHistory) TableName() string {
	return "price_history"
}

// BeforeCreate ensures UUID is set
func (h *PriceHistory) BeforeCreate(tx *gorm.DB) error {
	if h.UUID == uuid.Nil {
		h.UUID = uuid.New()
	}
	return nil
}

// BeforeUpdate rejects any update of a stored entry
func (h *PriceHistory) BeforeUpdate(tx *gorm.DB) error {
	return ErrPriceHistoryImmutable
}

// BeforeDelete rejects any deletion of a stored entry
func (h *PriceHistory) BeforeDelete(tx *gorm.DB) error {
	return ErrPriceHistoryImmutable
}

// PriceHistoryFilter represents filter criteria for price history queries
type PriceHistoryFilter struct {
	PriceRecordID *uint      `json:"price_record_id,omitempty"`
	ProductID     *uint      `json:"product_id,omitempty"`
	ChannelID     *uint      `json:"channel_id,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
