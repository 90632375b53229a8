package pricing

import (
	"time"

	"github.com/amirphl/Kusanagi/models"
	"github.com/shopspring/decimal"
)

// Engine prices products against a catalog snapshot. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	catalog *Catalog
	costs   *CostResolver
}

func NewEngine(catalog *Catalog) *Engine {
	e := &Engine{catalog: catalog}
	e.costs = &CostResolver{catalog: catalog, engine: e}
	return e
}

func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

func (e *Engine) Costs() *CostResolver {
	return e.costs
}

// Parameters validates and resolves the effective parameters of a channel
func (e *Engine) Parameters(channel *models.Channel) (Parameters, error) {
	group := e.catalog.GroupOf(channel)
	if err := ValidateChannel(channel, group); err != nil {
		return Parameters{}, err
	}
	return EffectiveParameters(channel, group), nil
}

// Quote is the outcome of the three solves of one record
type Quote struct {
	Parameters   Parameters      `json:"parameters"`
	Cost         decimal.Decimal `json:"cost"`
	Sale         SolveResult     `json:"sale"`
	Promo        SolveResult     `json:"promo"`
	Min          SolveResult     `json:"min"`
	PromoRounded decimal.Decimal `json:"promo_rounded"`
	MinRounded   decimal.Decimal `json:"min_rounded"`
}

// Apply copies the quote into the cached fields of a record
func (q *Quote) Apply(record *models.PriceRecord, at time.Time) {
	record.Cost = q.Cost.Round(PricePrecision)
	record.SalePrice = q.Sale.Price
	record.PromoPrice = q.Promo.Price
	record.MinPrice = q.Min.Price
	record.PromoPriceRounded = q.PromoRounded
	record.MinPriceRounded = q.MinRounded
	record.Freight = q.Sale.Freight
	record.Fee = q.Sale.Fee
	record.ComputedAt = &at
}

// Rounds returns the total solver rounds spent on the quote
func (q *Quote) Rounds() int {
	return q.Sale.Rounds + q.Promo.Rounds + q.Min.Rounds
}

// Converged reports whether all three solves converged
func (q *Quote) Converged() bool {
	return q.Sale.Converged && q.Promo.Converged && q.Min.Converged
}

// Quote runs the sale, promo and minimum solves for a record. When the
// freight table keys off the promo price, the promo solve runs first and its
// freight is fixed for the other two.
func (e *Engine) Quote(product *models.Product, channel *models.Channel, record *models.PriceRecord) (*Quote, error) {
	var specific *decimal.Decimal
	if record != nil {
		if err := ValidateRecord(record); err != nil {
			return nil, err
		}
		specific = record.SpecificFreight
	}
	if err := ValidateProduct(product); err != nil {
		return nil, err
	}

	params, err := e.Parameters(channel)
	if err != nil {
		return nil, err
	}
	cost, err := e.costs.Resolve(product, channel)
	if err != nil {
		return nil, err
	}

	freightOf, fixed, usePromo := e.freightSetup(product, channel, specific)
	feeOf := e.feeOf(channel)

	promo := e.solve(params, TargetPromo, cost, freightOf, feeOf, fixed, PricePrecision)
	if usePromo && fixed == nil {
		f := promo.Freight
		fixed = &f
	}
	sale := e.solve(params, TargetSale, cost, freightOf, feeOf, fixed, PricePrecision)
	minimum := e.solve(params, TargetMin, cost, freightOf, feeOf, fixed, PricePrecision)

	return &Quote{
		Parameters:   params,
		Cost:         cost,
		Sale:         sale,
		Promo:        promo,
		Min:          minimum,
		PromoRounded: CommercialRound(promo.Price),
		MinRounded:   CommercialRound(minimum.Price),
	}, nil
}

// SolvePrice solves one target for a product in a channel. fixedFreight, when
// given, replaces the channel's freight configuration.
func (e *Engine) SolvePrice(product *models.Product, channel *models.Channel, target Target, fixedFreight *decimal.Decimal) (SolveResult, error) {
	params, err := e.Parameters(channel)
	if err != nil {
		return SolveResult{}, err
	}
	cost, err := e.costs.Resolve(product, channel)
	if err != nil {
		return SolveResult{}, err
	}

	freightOf, fixed, usePromo := e.freightSetup(product, channel, fixedFreight)
	feeOf := e.feeOf(channel)
	if usePromo && fixed == nil && target != TargetPromo {
		promo := e.solve(params, TargetPromo, cost, freightOf, feeOf, nil, PricePrecision)
		fixed = &promo.Freight
	}
	return e.solve(params, target, cost, freightOf, feeOf, fixed, PricePrecision), nil
}

// solveSale prices the sale target with an explicit cost, used for cost references
func (e *Engine) solveSale(product *models.Product, channel *models.Channel, cost decimal.Decimal, specific *decimal.Decimal, precision int32) (SolveResult, error) {
	params, err := e.Parameters(channel)
	if err != nil {
		return SolveResult{}, err
	}
	freightOf, fixed, usePromo := e.freightSetup(product, channel, specific)
	feeOf := e.feeOf(channel)
	if usePromo && fixed == nil {
		promo := e.solve(params, TargetPromo, cost, freightOf, feeOf, nil, precision)
		fixed = &promo.Freight
	}
	return e.solve(params, TargetSale, cost, freightOf, feeOf, fixed, precision), nil
}

func (e *Engine) solve(params Parameters, target Target, cost decimal.Decimal, freightOf, feeOf QuoteFunc, fixed *decimal.Decimal, precision int32) SolveResult {
	return Solve(SolveInput{
		Cost:          cost,
		MarkupTarget:  params.Markup(target),
		MarkupFreight: params.MarkupFreight,
		Freight:       freightOf,
		Fee:           feeOf,
		FixedFreight:  fixed,
		Precision:     precision,
	})
}

// freightSetup returns the freight lookup of a channel, the fixed amount when
// one applies and whether the table keys off the promo price
func (e *Engine) freightSetup(product *models.Product, channel *models.Channel, specific *decimal.Decimal) (QuoteFunc, *decimal.Decimal, bool) {
	if specific != nil {
		f := *specific
		return nil, &f, false
	}
	if channel.FreightMode != models.FreightModeTable {
		f := channel.FixedFreight
		return nil, &f, false
	}

	table := e.catalog.FreightTableOf(channel)
	weight := product.ShippingWeight()
	dims := product.Dimensions()
	freightOf := func(price decimal.Decimal) decimal.Decimal {
		return QuoteFreight(table, FreightInput{
			Weight: weight,
			Price:  price,
			Score:  channel.SellerScore,
			Dims:   dims,
			Rating: channel.SellerRating,
		})
	}
	return freightOf, nil, table != nil && table.UsePromoPrice
}

func (e *Engine) feeOf(channel *models.Channel) QuoteFunc {
	table := e.catalog.FeeTableOf(channel)
	return func(price decimal.Decimal) decimal.Decimal {
		return QuoteFee(table, price)
	}
}
