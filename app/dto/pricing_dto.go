package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PercentagesInput carries the seven pricing percentages of a group
type PercentagesInput struct {
	Tax           decimal.Decimal `json:"tax"`
	OperatingFee  decimal.Decimal `json:"operating_fee"`
	Profit        decimal.Decimal `json:"profit"`
	PromoDiscount decimal.Decimal `json:"promo_discount"`
	MinDiscount   decimal.Decimal `json:"min_discount"`
	Ads           decimal.Decimal `json:"ads"`
	Commission    decimal.Decimal `json:"commission"`
}

// PercentageOverridesInput carries optional channel-level percentages
type PercentageOverridesInput struct {
	Tax           *decimal.Decimal `json:"tax,omitempty"`
	OperatingFee  *decimal.Decimal `json:"operating_fee,omitempty"`
	Profit        *decimal.Decimal `json:"profit,omitempty"`
	PromoDiscount *decimal.Decimal `json:"promo_discount,omitempty"`
	MinDiscount   *decimal.Decimal `json:"min_discount,omitempty"`
	Ads           *decimal.Decimal `json:"ads,omitempty"`
	Commission    *decimal.Decimal `json:"commission,omitempty"`
}

// SaveChannelGroupRequest creates a group when ID is zero, otherwise updates it
type SaveChannelGroupRequest struct {
	ID                 uint             `json:"id"`
	Name               string           `json:"name" validate:"required,max=100"`
	Description        string           `json:"description"`
	IsDefault          bool             `json:"is_default"`
	Percentages        PercentagesInput `json:"percentages"`
	CostStrategy       string           `json:"cost_strategy" validate:"omitempty,oneof=own_cost reference_channel"`
	ReferenceChannelID *uint            `json:"reference_channel_id,omitempty"`
	Actor              *string          `json:"actor,omitempty" validate:"omitempty,max=100"`
}

// SaveChannelRequest creates a channel when ID is zero, otherwise updates it
type SaveChannelRequest struct {
	ID             uint                     `json:"id"`
	GroupID        uint                     `json:"group_id" validate:"required"`
	Name           string                   `json:"name" validate:"required,max=100"`
	Description    string                   `json:"description"`
	Active         *bool                    `json:"active,omitempty"`
	InheritsGroup  *bool                    `json:"inherits_group,omitempty"`
	Overrides      PercentageOverridesInput `json:"overrides"`
	FreightMode    string                   `json:"freight_mode" validate:"required,oneof=fixed table"`
	FixedFreight   decimal.Decimal          `json:"fixed_freight"`
	FreightTableID *uint                    `json:"freight_table_id,omitempty"`
	FeeTableID     *uint                    `json:"fee_table_id,omitempty"`
	SellerRating   *int                     `json:"seller_rating,omitempty" validate:"omitempty,min=1,max=5"`
	SellerScore    *int                     `json:"seller_score,omitempty" validate:"omitempty,min=0"`
	Actor          *string                  `json:"actor,omitempty" validate:"omitempty,max=100"`
}

type FreightMatrixRuleInput struct {
	Order       int              `json:"order"`
	Oversize    bool             `json:"oversize"`
	WeightStart *decimal.Decimal `json:"weight_start,omitempty"`
	WeightEnd   *decimal.Decimal `json:"weight_end,omitempty"`
	PriceStart  *decimal.Decimal `json:"price_start,omitempty"`
	PriceEnd    *decimal.Decimal `json:"price_end,omitempty"`
	ScoreStart  *int             `json:"score_start,omitempty"`
	ScoreEnd    *int             `json:"score_end,omitempty"`
	Amount      decimal.Decimal  `json:"amount"`
	Active      *bool            `json:"active,omitempty"`
}

type FreightSimpleRuleInput struct {
	Order    int              `json:"order"`
	Oversize bool             `json:"oversize"`
	Start    *decimal.Decimal `json:"start,omitempty"`
	End      *decimal.Decimal `json:"end,omitempty"`
	Amount   decimal.Decimal  `json:"amount"`
	Active   *bool            `json:"active,omitempty"`
}

type FreightSpecialRuleInput struct {
	Order     int              `json:"order"`
	Name      string           `json:"name" validate:"max=100"`
	MinWidth  *decimal.Decimal `json:"min_width,omitempty"`
	MinHeight *decimal.Decimal `json:"min_height,omitempty"`
	MinDepth  *decimal.Decimal `json:"min_depth,omitempty"`
	MinWeight *decimal.Decimal `json:"min_weight,omitempty"`
	Amount    decimal.Decimal  `json:"amount"`
	Active    *bool            `json:"active,omitempty"`
}

type FreightRatingDiscountInput struct {
	Rating          int             `json:"rating" validate:"required,min=1,max=5"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// SaveFreightTableRequest replaces the table header and all of its rule rows
type SaveFreightTableRequest struct {
	ID                     uint                         `json:"id"`
	Name                   string                       `json:"name" validate:"required,max=100"`
	Type                   string                       `json:"type" validate:"required,oneof=by_weight by_price weight_price weight_score"`
	Description            string                       `json:"description"`
	Active                 *bool                        `json:"active,omitempty"`
	AddOnEnabled           bool                         `json:"add_on_enabled"`
	AddOnAmount            decimal.Decimal              `json:"add_on_amount"`
	OversizeEnabled        bool                         `json:"oversize_enabled"`
	UsePromoPrice          bool                         `json:"use_promo_price"`
	SupportsRatingDiscount bool                         `json:"supports_rating_discount"`
	MatrixRules            []FreightMatrixRuleInput     `json:"matrix_rules" validate:"dive"`
	SimpleRules            []FreightSimpleRuleInput     `json:"simple_rules" validate:"dive"`
	SpecialRules           []FreightSpecialRuleInput    `json:"special_rules" validate:"dive"`
	RatingDiscounts        []FreightRatingDiscountInput `json:"rating_discounts" validate:"dive"`
	Actor                  *string                      `json:"actor,omitempty" validate:"omitempty,max=100"`
}

type FeeRuleInput struct {
	PriceStart *decimal.Decimal `json:"price_start,omitempty"`
	PriceEnd   *decimal.Decimal `json:"price_end,omitempty"`
	Amount     decimal.Decimal  `json:"amount"`
	Active     *bool            `json:"active,omitempty"`
}

// SaveFeeTableRequest replaces the table header and all of its rules
type SaveFeeTableRequest struct {
	ID     uint           `json:"id"`
	Name   string         `json:"name" validate:"required,max=100"`
	Active *bool          `json:"active,omitempty"`
	Rules  []FeeRuleInput `json:"rules" validate:"dive"`
	Actor  *string        `json:"actor,omitempty" validate:"omitempty,max=100"`
}

type LineItemInput struct {
	Type        string           `json:"type" validate:"required,oneof=raw_material outsourced packaging"`
	Code        string           `json:"code" validate:"required,max=50"`
	Description string           `json:"description" validate:"max=255"`
	Unit        string           `json:"unit" validate:"omitempty,max=5"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitCost    decimal.Decimal  `json:"unit_cost"`
	Multiplier  *decimal.Decimal `json:"multiplier,omitempty"`
}

// SaveProductRequest replaces the product and its bill of materials
type SaveProductRequest struct {
	ID             uint            `json:"id"`
	SKU            string          `json:"sku" validate:"required,max=50"`
	Title          string          `json:"title" validate:"required,max=255"`
	EAN            string          `json:"ean" validate:"omitempty,max=20"`
	Width          decimal.Decimal `json:"width"`
	Height         decimal.Decimal `json:"height"`
	Depth          decimal.Decimal `json:"depth"`
	PhysicalWeight decimal.Decimal `json:"physical_weight"`
	Active         *bool           `json:"active,omitempty"`
	LineItems      []LineItemInput `json:"line_items" validate:"dive"`
	Actor          *string         `json:"actor,omitempty" validate:"omitempty,max=100"`
}

// ActivateProductRequest lists a product in a channel and prices it immediately
type ActivateProductRequest struct {
	ProductID uint    `json:"product_id" validate:"required"`
	ChannelID uint    `json:"channel_id" validate:"required"`
	Actor     *string `json:"actor,omitempty" validate:"omitempty,max=100"`
}

// UpdatePriceRecordRequest edits the manual side of a price record
type UpdatePriceRecordRequest struct {
	ID                   uint             `json:"id" validate:"required"`
	Active               *bool            `json:"active,omitempty"`
	Automatic            *bool            `json:"automatic,omitempty"`
	ManualSalePrice      *decimal.Decimal `json:"manual_sale_price,omitempty"`
	ManualPromoPrice     *decimal.Decimal `json:"manual_promo_price,omitempty"`
	ManualMinPrice       *decimal.Decimal `json:"manual_min_price,omitempty"`
	SpecificFreight      *decimal.Decimal `json:"specific_freight,omitempty"`
	ClearSpecificFreight bool             `json:"clear_specific_freight"`
	Actor                *string          `json:"actor,omitempty" validate:"omitempty,max=100"`
}

// RecalculateRecordRequest triggers a recalculation of one record
type RecalculateRecordRequest struct {
	SaveHistory *bool   `json:"save_history,omitempty"`
	Reason      string  `json:"reason" validate:"max=255"`
	Actor       *string `json:"actor,omitempty" validate:"omitempty,max=100"`
}

// TriggerCascadeRequest enqueues a change event for the cascade worker
type TriggerCascadeRequest struct {
	Kind      string  `json:"kind" validate:"required,oneof=freight_table fee_table channel channel_group product sale_price"`
	EntityID  uint    `json:"entity_id" validate:"required"`
	ProductID *uint   `json:"product_id,omitempty" validate:"required_if=Kind sale_price"`
	Reason    string  `json:"reason" validate:"max=255"`
	Actor     *string `json:"actor,omitempty" validate:"omitempty,max=100"`
}

// PriceRecordItem is the read model of a price record
type PriceRecordItem struct {
	ID                 uint             `json:"id"`
	UUID               string           `json:"uuid"`
	ProductID          uint             `json:"product_id"`
	ChannelID          uint             `json:"channel_id"`
	Active             bool             `json:"active"`
	Automatic          bool             `json:"automatic"`
	Cost               decimal.Decimal  `json:"cost"`
	SalePrice          decimal.Decimal  `json:"sale_price"`
	PromoPrice         decimal.Decimal  `json:"promo_price"`
	MinPrice           decimal.Decimal  `json:"min_price"`
	PromoPriceRounded  decimal.Decimal  `json:"promo_price_rounded"`
	MinPriceRounded    decimal.Decimal  `json:"min_price_rounded"`
	DisplaySalePrice   decimal.Decimal  `json:"display_sale_price"`
	DisplayPromoPrice  decimal.Decimal  `json:"display_promo_price"`
	DisplayMinPrice    decimal.Decimal  `json:"display_min_price"`
	Freight            decimal.Decimal  `json:"freight"`
	SpecificFreight    *decimal.Decimal `json:"specific_freight,omitempty"`
	AppliedFreight     decimal.Decimal  `json:"applied_freight"`
	Fee                decimal.Decimal  `json:"fee"`
	MaxDiscountPercent decimal.Decimal  `json:"max_discount_percent"`
	ComputedAt         *time.Time       `json:"computed_at,omitempty"`
}

type RecalculateRecordResponse struct {
	Message        string          `json:"message"`
	Record         PriceRecordItem `json:"record"`
	HistoryWritten bool            `json:"history_written"`
	Rounds         int             `json:"rounds"`
	Converged      bool            `json:"converged"`
}

// PriceHistoryItem is the read model of a history entry
type PriceHistoryItem struct {
	ID                uint            `json:"id"`
	ProductSKU        string          `json:"product_sku"`
	ChannelName       string          `json:"channel_name"`
	GroupName         string          `json:"group_name"`
	Cost              decimal.Decimal `json:"cost"`
	SalePrice         decimal.Decimal `json:"sale_price"`
	PromoPrice        decimal.Decimal `json:"promo_price"`
	MinPrice          decimal.Decimal `json:"min_price"`
	PromoPriceRounded decimal.Decimal `json:"promo_price_rounded"`
	MinPriceRounded   decimal.Decimal `json:"min_price_rounded"`
	AppliedFreight    decimal.Decimal `json:"applied_freight"`
	Fee               decimal.Decimal `json:"fee"`
	MarkupSale        decimal.Decimal `json:"markup_sale"`
	Reason            string          `json:"reason"`
	Actor             *string         `json:"actor,omitempty"`
	CreatedAt         string          `json:"created_at"`
}

type ListPriceHistoryResponse struct {
	Message string             `json:"message"`
	Items   []PriceHistoryItem `json:"items"`
}

type TriggerCascadeResponse struct {
	Message string `json:"message"`
	EventID string `json:"event_id"`
}

// CatalogMutationResponse reports a saved catalog entity
type CatalogMutationResponse struct {
	Message  string `json:"message"`
	ID       uint   `json:"id"`
	UUID     string `json:"uuid"`
	Cascaded bool   `json:"cascaded"`
}
