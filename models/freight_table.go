package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FreightTableType selects the lookup shape of a freight table
type FreightTableType string

const (
	FreightTableByWeight    FreightTableType = "by_weight"
	FreightTableByPrice     FreightTableType = "by_price"
	FreightTableWeightPrice FreightTableType = "weight_price"
	FreightTableWeightScore FreightTableType = "weight_score"
)

// String returns the string representation of the type
func (t FreightTableType) String() string {
	return string(t)
}

// Valid checks if the type is valid
func (t FreightTableType) Valid() bool {
	switch t {
	case FreightTableByWeight, FreightTableByPrice, FreightTableWeightPrice, FreightTableWeightScore:
		return true
	default:
		return false
	}
}

// IsMatrix reports whether rows are matched on two axes
func (t FreightTableType) IsMatrix() bool {
	return t == FreightTableWeightPrice || t == FreightTableWeightScore
}

// Scan implements the sql.Scanner interface for FreightTableType
func (t *FreightTableType) Scan(value any) error {
	if value == nil {
		*t = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*t = FreightTableType(v)
	case []byte:
		*t = FreightTableType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into FreightTableType", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for FreightTableType
func (t FreightTableType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid FreightTableType: %s", t)
	}
	return string(t), nil
}

// FreightTable is a layered set of freight tariffs shared by channels.
// Table: freight_tables
type FreightTable struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID        `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	Name        string           `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Type        FreightTableType `gorm:"type:freight_table_type;not null;default:'weight_price'" json:"type"`
	Description string           `gorm:"type:text" json:"description"`
	Active      *bool            `gorm:"not null;default:true" json:"active"`

	AddOnEnabled           bool            `gorm:"not null;default:false" json:"add_on_enabled"`
	AddOnAmount            decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"add_on_amount"`
	OversizeEnabled        bool            `gorm:"not null;default:false" json:"oversize_enabled"`
	UsePromoPrice          bool            `gorm:"not null;default:false" json:"use_promo_price"`
	SupportsRatingDiscount bool            `gorm:"not null;default:false" json:"supports_rating_discount"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	MatrixRules     []FreightMatrixRule     `gorm:"foreignKey:FreightTableID;constraint:OnDelete:CASCADE" json:"matrix_rules,omitempty"`
	SimpleRules     []FreightSimpleRule     `gorm:"foreignKey:FreightTableID;constraint:OnDelete:CASCADE" json:"simple_rules,omitempty"`
	SpecialRules    []FreightSpecialRule    `gorm:"foreignKey:FreightTableID;constraint:OnDelete:CASCADE" json:"special_rules,omitempty"`
	RatingDiscounts []FreightRatingDiscount `gorm:"foreignKey:FreightTableID;constraint:OnDelete:CASCADE" json:"rating_discounts,omitempty"`
}

func (FreightTable) TableName() string {
	return "freight_tables"
}

// BeforeCreate ensures UUID is set
func (t *FreightTable) BeforeCreate(tx *gorm.DB) error {
	if t.UUID == uuid.Nil {
		t.UUID = uuid.New()
	}
	if t.Type == "" {
		t.Type = FreightTableWeightPrice
	}
	return nil
}

// FreightMatrixRule matches a weight interval jointly with a price or score interval.
// Weight and price bounds are half-open; score bounds are inclusive integers.
type FreightMatrixRule struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	FreightTableID uint             `gorm:"not null;index:idx_freight_matrix_rules_table_id" json:"freight_table_id"`
	Order          int              `gorm:"column:sort_order;not null;default:0" json:"order"`
	Oversize       bool             `gorm:"not null;default:false" json:"oversize"`
	WeightStart    *decimal.Decimal `gorm:"type:numeric(10,3)" json:"weight_start,omitempty"`
	WeightEnd      *decimal.Decimal `gorm:"type:numeric(10,3)" json:"weight_end,omitempty"`
	PriceStart     *decimal.Decimal `gorm:"type:numeric(10,2)" json:"price_start,omitempty"`
	PriceEnd       *decimal.Decimal `gorm:"type:numeric(10,2)" json:"price_end,omitempty"`
	ScoreStart     *int             `json:"score_start,omitempty"`
	ScoreEnd       *int             `json:"score_end,omitempty"`
	Amount         decimal.Decimal  `gorm:"type:numeric(10,2);not null" json:"amount"`
	Active         *bool            `gorm:"not null;default:true" json:"active"`
}

func (FreightMatrixRule) TableName() string {
	return "freight_matrix_rules"
}

// FreightSimpleRule matches a single half-open interval on weight or price
type FreightSimpleRule struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	FreightTableID uint             `gorm:"not null;index:idx_freight_simple_rules_table_id" json:"freight_table_id"`
	Order          int              `gorm:"column:sort_order;not null;default:0" json:"order"`
	Oversize       bool             `gorm:"not null;default:false" json:"oversize"`
	Start          *decimal.Decimal `gorm:"column:range_start;type:numeric(10,3)" json:"start,omitempty"`
	End            *decimal.Decimal `gorm:"column:range_end;type:numeric(10,3)" json:"end,omitempty"`
	Amount         decimal.Decimal  `gorm:"type:numeric(10,2);not null" json:"amount"`
	Active         *bool            `gorm:"not null;default:true" json:"active"`
}

func (FreightSimpleRule) TableName() string {
	return "freight_simple_rules"
}

// FreightSpecialRule returns a flat amount when every set minimum threshold is met
type FreightSpecialRule struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	FreightTableID uint             `gorm:"not null;index:idx_freight_special_rules_table_id" json:"freight_table_id"`
	Order          int              `gorm:"column:sort_order;not null;default:0" json:"order"`
	Name           string           `gorm:"size:100" json:"name"`
	MinWidth       *decimal.Decimal `gorm:"type:numeric(10,2)" json:"min_width,omitempty"`
	MinHeight      *decimal.Decimal `gorm:"type:numeric(10,2)" json:"min_height,omitempty"`
	MinDepth       *decimal.Decimal `gorm:"type:numeric(10,2)" json:"min_depth,omitempty"`
	MinWeight      *decimal.Decimal `gorm:"type:numeric(10,3)" json:"min_weight,omitempty"`
	Amount         decimal.Decimal  `gorm:"type:numeric(10,2);not null" json:"amount"`
	Active         *bool            `gorm:"not null;default:true" json:"active"`
}

func (FreightSpecialRule) TableName() string {
	return "freight_special_rules"
}

// FreightRatingDiscount reduces freight by a percentage for a seller rating
type FreightRatingDiscount struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	FreightTableID  uint            `gorm:"not null;uniqueIndex:uk_freight_rating_discounts_table_rating" json:"freight_table_id"`
	Rating          int             `gorm:"not null;uniqueIndex:uk_freight_rating_discounts_table_rating" json:"rating"`
	DiscountPercent decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"discount_percent"`
}

func (FreightRatingDiscount) TableName() string {
	return "freight_rating_discounts"
}

// IsRowActive treats a nil flag as active
func IsRowActive(flag *bool) bool {
	return flag == nil || *flag
}

// FreightTableFilter represents filter criteria for freight table queries
type FreightTableFilter struct {
	ID     *uint             `json:"id,omitempty"`
	Name   *string           `json:"name,omitempty"`
	Type   *FreightTableType `json:"type,omitempty"`
	Active *bool             `json:"active,omitempty"`
}
