package pricing

import (
	"errors"
	"fmt"

	"github.com/amirphl/Kusanagi/models"
	"github.com/shopspring/decimal"
)

// ErrCostReferenceCycle is returned when reference channels loop back on themselves
var ErrCostReferenceCycle = errors.New("cost reference cycle")

// CostResolver supplies the solver's cost input, following group cost references
type CostResolver struct {
	catalog *Catalog
	engine  *Engine
}

// ReferenceChain returns the channels whose sale prices feed the cost of
// channel, nearest first. A reference to the channel itself ends the chain.
// Any loop longer than that is reported as ErrCostReferenceCycle.
func (r *CostResolver) ReferenceChain(channel *models.Channel) ([]*models.Channel, error) {
	var chain []*models.Channel
	visited := map[uint]bool{channel.ID: true}
	current := channel
	for {
		next := r.referenceOf(current)
		if next == nil {
			return chain, nil
		}
		if visited[next.ID] {
			return nil, fmt.Errorf("channel %d: %w", channel.ID,
				&ValidationError{
					Constraint: ConstraintCostReferenceCycle,
					Field:      "reference_channel_id",
					Message:    fmt.Sprintf("channel %q reaches itself through reference channel %q", channel.Name, next.Name),
				})
		}
		visited[next.ID] = true
		chain = append(chain, next)
		current = next
	}
}

// referenceOf returns the channel current borrows cost from, or nil when it
// uses its own cost or points at itself
func (r *CostResolver) referenceOf(current *models.Channel) *models.Channel {
	group := r.catalog.GroupOf(current)
	if group == nil || !group.BorrowsCost() {
		return nil
	}
	refID := *group.ReferenceChannelID
	if refID == current.ID {
		return nil
	}
	return r.catalog.Channel(refID)
}

// Resolve returns the cost of product in channel. Own-cost channels use the
// bill of materials; borrowing channels use the reference channel's converged
// sale price at ReferencePrecision.
func (r *CostResolver) Resolve(product *models.Product, channel *models.Channel) (decimal.Decimal, error) {
	chain, err := r.ReferenceChain(channel)
	if err != nil {
		return decimal.Zero, err
	}
	if len(chain) == 0 {
		return ComputeCost(product), nil
	}

	// Solve from the far end of the chain back toward channel
	cost := ComputeCost(product)
	for i := len(chain) - 1; i >= 0; i-- {
		res, err := r.engine.solveSale(product, chain[i], cost, nil, ReferencePrecision)
		if err != nil {
			return decimal.Zero, fmt.Errorf("reference channel %d: %w", chain[i].ID, err)
		}
		cost = res.Price
	}
	return cost, nil
}
