package testing

import (
	"fmt"
	"math/rand"

	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/utils"
	"github.com/shopspring/decimal"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// Dec parses a decimal literal and panics on malformed input
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DecPtr is Dec returning a pointer
func DecPtr(s string) *decimal.Decimal {
	return utils.ToPtr(Dec(s))
}

// CreateTestGroup creates an own-cost channel group with the given percentages
func (tf *TestFixtures) CreateTestGroup(name string, pct models.Percentages) (*models.ChannelGroup, error) {
	group := &models.ChannelGroup{
		Name:         name,
		Percentages:  pct,
		CostStrategy: models.CostStrategyOwnCost,
	}
	if err := tf.DB.DB.Create(group).Error; err != nil {
		return nil, fmt.Errorf("failed to create test group %s: %w", name, err)
	}
	return group, nil
}

// CreateTestChannel creates an active channel inheriting its group, priced with a fixed freight
func (tf *TestFixtures) CreateTestChannel(groupID uint, name string, fixedFreight string) (*models.Channel, error) {
	channel := &models.Channel{
		GroupID:       groupID,
		Name:          name,
		Active:        utils.ToPtr(true),
		InheritsGroup: utils.ToPtr(true),
		FreightMode:   models.FreightModeFixed,
		FixedFreight:  Dec(fixedFreight),
	}
	if err := tf.DB.DB.Create(channel).Error; err != nil {
		return nil, fmt.Errorf("failed to create test channel %s: %w", name, err)
	}
	return channel, nil
}

// CreateTestFreightTable creates a weight-only table with one rule per [start, end) bracket
func (tf *TestFixtures) CreateTestFreightTable(name string, brackets [][3]string) (*models.FreightTable, error) {
	table := &models.FreightTable{
		Name:   name,
		Type:   models.FreightTableByWeight,
		Active: utils.ToPtr(true),
	}
	for i, b := range brackets {
		table.SimpleRules = append(table.SimpleRules, models.FreightSimpleRule{
			Order:  i,
			Start:  DecPtr(b[0]),
			End:    DecPtr(b[1]),
			Amount: Dec(b[2]),
			Active: utils.ToPtr(true),
		})
	}
	if err := tf.DB.DB.Create(table).Error; err != nil {
		return nil, fmt.Errorf("failed to create test freight table %s: %w", name, err)
	}
	return table, nil
}

// CreateTestFeeTable creates a fee table with one rule per [start, end) price bracket
func (tf *TestFixtures) CreateTestFeeTable(name string, brackets [][3]string) (*models.FeeTable, error) {
	table := &models.FeeTable{
		Name:   name,
		Active: utils.ToPtr(true),
	}
	for _, b := range brackets {
		table.Rules = append(table.Rules, models.FeeRule{
			PriceStart: DecPtr(b[0]),
			PriceEnd:   DecPtr(b[1]),
			Amount:     Dec(b[2]),
			Active:     utils.ToPtr(true),
		})
	}
	if err := tf.DB.DB.Create(table).Error; err != nil {
		return nil, fmt.Errorf("failed to create test fee table %s: %w", name, err)
	}
	return table, nil
}

// CreateTestProduct creates a small active product whose bill of materials costs unitCost
func (tf *TestFixtures) CreateTestProduct(sku string, unitCost string) (*models.Product, error) {
	product := &models.Product{
		SKU:            sku,
		Title:          fmt.Sprintf("Test product %s", sku),
		EAN:            fmt.Sprintf("789%010d", rand.Intn(1000000000)),
		Width:          Dec("10"),
		Height:         Dec("10"),
		Depth:          Dec("10"),
		PhysicalWeight: Dec("0.5"),
		Active:         utils.ToPtr(true),
		LineItems: []models.LineItem{{
			Type:        models.LineItemTypeRawMaterial,
			Code:        "MAT-1",
			Description: "Main material",
			Unit:        "UN",
			Quantity:    Dec("1"),
			UnitCost:    Dec(unitCost),
			Multiplier:  Dec("1"),
		}},
	}
	if err := tf.DB.DB.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create test product %s: %w", sku, err)
	}
	return product, nil
}

// CreateTestPriceRecord creates an active automatic record with no computed values
func (tf *TestFixtures) CreateTestPriceRecord(productID, channelID uint) (*models.PriceRecord, error) {
	record := &models.PriceRecord{
		ProductID: productID,
		ChannelID: channelID,
		Active:    utils.ToPtr(true),
		Automatic: utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to create test price record: %w", err)
	}
	return record, nil
}
