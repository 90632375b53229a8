package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Freight modes of a channel
const (
	FreightModeFixed = "fixed"
	FreightModeTable = "table"
)

// PercentageOverrides holds the channel's own percentages; nil means "use the group value"
type PercentageOverrides struct {
	Tax           *decimal.Decimal `gorm:"column:tax;type:numeric(5,2)" json:"tax,omitempty"`
	OperatingFee  *decimal.Decimal `gorm:"column:operating_fee;type:numeric(5,2)" json:"operating_fee,omitempty"`
	Profit        *decimal.Decimal `gorm:"column:profit;type:numeric(5,2)" json:"profit,omitempty"`
	PromoDiscount *decimal.Decimal `gorm:"column:promo_discount;type:numeric(5,2)" json:"promo_discount,omitempty"`
	MinDiscount   *decimal.Decimal `gorm:"column:min_discount;type:numeric(5,2)" json:"min_discount,omitempty"`
	Ads           *decimal.Decimal `gorm:"column:ads;type:numeric(5,2)" json:"ads,omitempty"`
	Commission    *decimal.Decimal `gorm:"column:commission;type:numeric(5,2)" json:"commission,omitempty"`
}

// Channel is a sales channel (marketplace, own store, ...) belonging to one group.
// Table: channels
type Channel struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	GroupID     uint      `gorm:"not null;index:idx_channels_group_id;uniqueIndex:uk_channels_group_name" json:"group_id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex:uk_channels_group_name" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Active      *bool     `gorm:"not null;default:true" json:"active"`

	InheritsGroup *bool               `gorm:"not null;default:true" json:"inherits_group"`
	Overrides     PercentageOverrides `gorm:"embedded" json:"overrides"`

	FreightMode    string          `gorm:"size:10;not null;default:'fixed'" json:"freight_mode"`
	FixedFreight   decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"fixed_freight"`
	FreightTableID *uint           `gorm:"index:idx_channels_freight_table_id" json:"freight_table_id,omitempty"`
	FeeTableID     *uint           `gorm:"index:idx_channels_fee_table_id" json:"fee_table_id,omitempty"`

	// Seller reputation inputs of the freight table
	SellerRating *int `json:"seller_rating,omitempty"`
	SellerScore  *int `json:"seller_score,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	Group *ChannelGroup `gorm:"foreignKey:GroupID;references:ID;constraint:OnDelete:RESTRICT" json:"group,omitempty"`
}

func (Channel) TableName() string {
	return "channels"
}

// BeforeCreate ensures UUID is set
func (c *Channel) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	return nil
}

func (c *Channel) Inherits() bool {
	return c.InheritsGroup == nil || *c.InheritsGroup
}

func (c *Channel) IsActive() bool {
	return c.Active == nil || *c.Active
}

// ChannelFilter represents filter criteria for channel queries
type ChannelFilter struct {
	ID             *uint   `json:"id,omitempty"`
	GroupID        *uint   `json:"group_id,omitempty"`
	Name           *string `json:"name,omitempty"`
	FreightTableID *uint   `json:"freight_table_id,omitempty"`
	FeeTableID     *uint   `json:"fee_table_id,omitempty"`
	Active         *bool   `json:"active,omitempty"`
}
