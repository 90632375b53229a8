package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cost strategies of a channel group
const (
	CostStrategyOwnCost          = "own_cost"
	CostStrategyReferenceChannel = "reference_channel"
)

// Percentages holds the seven pricing percentages of a group, each in [0,100)
type Percentages struct {
	Tax           decimal.Decimal `gorm:"column:tax;type:numeric(5,2);not null;default:0" json:"tax"`
	OperatingFee  decimal.Decimal `gorm:"column:operating_fee;type:numeric(5,2);not null;default:0" json:"operating_fee"`
	Profit        decimal.Decimal `gorm:"column:profit;type:numeric(5,2);not null;default:0" json:"profit"`
	PromoDiscount decimal.Decimal `gorm:"column:promo_discount;type:numeric(5,2);not null;default:0" json:"promo_discount"`
	MinDiscount   decimal.Decimal `gorm:"column:min_discount;type:numeric(5,2);not null;default:0" json:"min_discount"`
	Ads           decimal.Decimal `gorm:"column:ads;type:numeric(5,2);not null;default:0" json:"ads"`
	Commission    decimal.Decimal `gorm:"column:commission;type:numeric(5,2);not null;default:0" json:"commission"`
}

// ChannelGroup defines default percentages inherited by its channels.
// Table: channel_groups
type ChannelGroup struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	IsDefault   bool      `gorm:"not null;default:false" json:"is_default"`

	Percentages Percentages `gorm:"embedded" json:"percentages"`

	// Cost basis of every channel in the group
	CostStrategy       string `gorm:"size:30;not null;default:'own_cost'" json:"cost_strategy"`
	ReferenceChannelID *uint  `gorm:"index:idx_channel_groups_reference_channel_id" json:"reference_channel_id,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (ChannelGroup) TableName() string {
	return "channel_groups"
}

// BeforeCreate ensures UUID is set
func (g *ChannelGroup) BeforeCreate(tx *gorm.DB) error {
	if g.UUID == uuid.Nil {
		g.UUID = uuid.New()
	}
	return nil
}

// BorrowsCost reports whether the group prices off a reference channel
func (g *ChannelGroup) BorrowsCost() bool {
	return g.CostStrategy == CostStrategyReferenceChannel && g.ReferenceChannelID != nil
}

// ChannelGroupFilter represents filter criteria for channel group queries
type ChannelGroupFilter struct {
	ID                 *uint   `json:"id,omitempty"`
	Name               *string `json:"name,omitempty"`
	CostStrategy       *string `json:"cost_strategy,omitempty"`
	ReferenceChannelID *uint   `json:"reference_channel_id,omitempty"`
}
