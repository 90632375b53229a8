package pricing

import (
	"errors"
	"fmt"

	"github.com/amirphl/Kusanagi/models"
	"github.com/shopspring/decimal"
)

// Target selects which markup a solve uses
type Target string

const (
	TargetSale  Target = "sale"
	TargetPromo Target = "promo"
	TargetMin   Target = "min"
)

func (t Target) String() string {
	return string(t)
}

// Constraint names reported by ValidationError
const (
	ConstraintPercentageRange      = "percentage_range"
	ConstraintPercentageSum        = "percentage_sum"
	ConstraintPromoBelowMin        = "promo_below_min"
	ConstraintFreightTableRequired = "freight_table_required"
	ConstraintManualPromoBelowMin  = "manual_promo_below_min"
	ConstraintDimensionNotPositive = "dimension_not_positive"
	ConstraintCostReferenceCycle   = "cost_reference_cycle"
	ConstraintUnknownGroup         = "unknown_group"
	ConstraintSellerRatingRange    = "seller_rating_range"
)

// ValidationError reports a violated invariant
type ValidationError struct {
	Constraint string
	Field      string
	Message    string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s (%s): %s", e.Field, e.Constraint, e.Message)
	}
	return fmt.Sprintf("validation failed (%s): %s", e.Constraint, e.Message)
}

// Is matches ErrCostReferenceCycle for cycle violations
func (e *ValidationError) Is(target error) bool {
	return target == ErrCostReferenceCycle && e.Constraint == ConstraintCostReferenceCycle
}

func newValidationError(constraint, field, format string, args ...any) *ValidationError {
	return &ValidationError{Constraint: constraint, Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err carries a ValidationError, returning it
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Parameters are the effective percentages of a channel and their markups
type Parameters struct {
	Percentages   models.Percentages `json:"percentages"`
	MarkupFreight decimal.Decimal    `json:"markup_freight"`
	MarkupSale    decimal.Decimal    `json:"markup_sale"`
	MarkupPromo   decimal.Decimal    `json:"markup_promo"`
	MarkupMin     decimal.Decimal    `json:"markup_min"`
}

// Markup returns the markup factor of a solve target
func (p Parameters) Markup(target Target) decimal.Decimal {
	switch target {
	case TargetPromo:
		return p.MarkupPromo
	case TargetMin:
		return p.MarkupMin
	default:
		return p.MarkupSale
	}
}

// EffectiveParameters resolves each percentage from the channel when it does
// not inherit and has a value set, else from the group, and derives markups.
func EffectiveParameters(channel *models.Channel, group *models.ChannelGroup) Parameters {
	var base models.Percentages
	if group != nil {
		base = group.Percentages
	}
	eff := base
	if channel != nil && !channel.Inherits() {
		o := channel.Overrides
		eff.Tax = pick(o.Tax, base.Tax)
		eff.OperatingFee = pick(o.OperatingFee, base.OperatingFee)
		eff.Profit = pick(o.Profit, base.Profit)
		eff.PromoDiscount = pick(o.PromoDiscount, base.PromoDiscount)
		eff.MinDiscount = pick(o.MinDiscount, base.MinDiscount)
		eff.Ads = pick(o.Ads, base.Ads)
		eff.Commission = pick(o.Commission, base.Commission)
	}
	return ParametersFor(eff)
}

// ParametersFor derives the four markup factors of a percentage set
func ParametersFor(p models.Percentages) Parameters {
	return Parameters{
		Percentages:   p,
		MarkupFreight: Markup(p.Tax, p.Ads, p.Commission),
		MarkupSale:    Markup(p.Tax, p.OperatingFee, p.Profit, p.Ads, p.Commission),
		MarkupPromo:   Markup(p.Tax, p.OperatingFee, p.PromoDiscount, p.Ads, p.Commission),
		MarkupMin:     Markup(p.Tax, p.OperatingFee, p.MinDiscount, p.Ads, p.Commission),
	}
}

func pick(own *decimal.Decimal, inherited decimal.Decimal) decimal.Decimal {
	if own != nil {
		return *own
	}
	return inherited
}

// ValidatePercentages checks range, sum and promo >= min
func ValidatePercentages(p models.Percentages) error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"tax", p.Tax},
		{"operating_fee", p.OperatingFee},
		{"profit", p.Profit},
		{"promo_discount", p.PromoDiscount},
		{"min_discount", p.MinDiscount},
		{"ads", p.Ads},
		{"commission", p.Commission},
	}
	for _, f := range fields {
		if f.value.IsNegative() || f.value.GreaterThanOrEqual(Hundred) {
			return newValidationError(ConstraintPercentageRange, f.name, "%s must be in [0,100), got %s", f.name, f.value)
		}
	}

	sum := p.Tax.Add(p.OperatingFee).Add(p.Profit).Add(p.PromoDiscount).Add(p.Ads).Add(p.Commission)
	if sum.GreaterThanOrEqual(Hundred) {
		return newValidationError(ConstraintPercentageSum, "", "percentages sum to %s, must stay below 100", sum)
	}
	if p.PromoDiscount.LessThan(p.MinDiscount) {
		return newValidationError(ConstraintPromoBelowMin, "promo_discount",
			"promo discount %s is below minimum discount %s", p.PromoDiscount, p.MinDiscount)
	}
	return nil
}

// ValidateGroup checks a group's own percentages
func ValidateGroup(group *models.ChannelGroup) error {
	return ValidatePercentages(group.Percentages)
}

// ValidateChannel checks the effective percentages and the freight configuration
func ValidateChannel(channel *models.Channel, group *models.ChannelGroup) error {
	if group == nil {
		return newValidationError(ConstraintUnknownGroup, "group_id", "channel %q has no group", channel.Name)
	}
	if err := ValidatePercentages(EffectiveParameters(channel, group).Percentages); err != nil {
		return err
	}
	if channel.FreightMode == models.FreightModeTable && channel.FreightTableID == nil {
		return newValidationError(ConstraintFreightTableRequired, "freight_table_id",
			"channel %q uses table freight without a freight table", channel.Name)
	}
	if channel.SellerRating != nil && (*channel.SellerRating < 1 || *channel.SellerRating > 5) {
		return newValidationError(ConstraintSellerRatingRange, "seller_rating", "seller rating must be within 1..5")
	}
	return nil
}

// ValidateProduct checks that every dimension and the weight are strictly positive
func ValidateProduct(product *models.Product) error {
	dims := []struct {
		name  string
		value decimal.Decimal
	}{
		{"width", product.Width},
		{"height", product.Height},
		{"depth", product.Depth},
		{"physical_weight", product.PhysicalWeight},
	}
	for _, d := range dims {
		if !d.value.IsPositive() {
			return newValidationError(ConstraintDimensionNotPositive, d.name, "%s must be positive", d.name)
		}
	}
	return nil
}

// ValidateRecord checks manual price combinations of a non-automatic record
func ValidateRecord(record *models.PriceRecord) error {
	if record.IsAutomatic() {
		return nil
	}
	promo := decOrZero(record.ManualPromoPrice)
	minPrice := decOrZero(record.ManualMinPrice)
	if promo.LessThan(minPrice) {
		return newValidationError(ConstraintManualPromoBelowMin, "manual_promo_price",
			"manual promo price %s is below manual minimum price %s", promo, minPrice)
	}
	return nil
}
