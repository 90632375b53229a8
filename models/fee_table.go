package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FeeTable is a price-bracket table of flat marketplace fees.
// Table: fee_tables
type FeeTable struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UUID      uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	Name      string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Active    *bool     `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	Rules []FeeRule `gorm:"foreignKey:FeeTableID;constraint:OnDelete:CASCADE" json:"rules,omitempty"`
}

func (FeeTable) TableName() string {
	return "fee_tables"
}

// BeforeCreate ensures UUID is set
func (t *FeeTable) BeforeCreate(tx *gorm.DB) error {
	if t.UUID == uuid.Nil {
		t.UUID = uuid.New()
	}
	return nil
}

// FeeRule yields a flat fee for prices in [PriceStart, PriceEnd)
type FeeRule struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	FeeTableID uint             `gorm:"not null;index:idx_fee_rules_table_id" json:"fee_table_id"`
	PriceStart *decimal.Decimal `gorm:"type:numeric(10,2)" json:"price_start,omitempty"`
	PriceEnd   *decimal.Decimal `gorm:"type:numeric(10,2)" json:"price_end,omitempty"`
	Amount     decimal.Decimal  `gorm:"type:numeric(10,2);not null" json:"amount"`
	Active     *bool            `gorm:"not null;default:true" json:"active"`
}

func (FeeRule) TableName() string {
	return "fee_rules"
}

// FeeTableFilter represents filter criteria for fee table queries
type FeeTableFilter struct {
	ID     *uint   `json:"id,omitempty"`
	Name   *string `json:"name,omitempty"`
	Active *bool   `json:"active,omitempty"`
}
