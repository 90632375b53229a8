package tests

import (
	"context"
	"testing"
	"time"

	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/repository"
	testingutil "github.com/amirphl/Kusanagi/testing"
	"github.com/amirphl/Kusanagi/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marketplacePercentages() models.Percentages {
	return models.Percentages{
		Tax:           testingutil.Dec("10"),
		OperatingFee:  testingutil.Dec("5"),
		Profit:        testingutil.Dec("20"),
		PromoDiscount: testingutil.Dec("10"),
		MinDiscount:   testingutil.Dec("5"),
		Ads:           testingutil.Dec("2"),
		Commission:    testingutil.Dec("3"),
	}
}

func TestChannelGroupRepository(t *testing.T) {
	withDB(t, func(testDB *testingutil.TestDB) error {
		repo := repository.NewChannelGroupRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		retail, err := fixtures.CreateTestGroup("retail", marketplacePercentages())
		require.NoError(t, err)
		_, err = fixtures.CreateTestGroup("b2b", models.Percentages{})
		require.NoError(t, err)

		t.Run("ByID", func(t *testing.T) {
			group, err := repo.ByID(ctx, retail.ID)
			require.NoError(t, err)
			require.NotNil(t, group)
			assert.Equal(t, "retail", group.Name)
			assert.True(t, testingutil.Dec("20").Equal(group.Percentages.Profit))
		})

		t.Run("ByIDNotFound", func(t *testing.T) {
			group, err := repo.ByID(ctx, 999)
			assert.NoError(t, err)
			assert.Nil(t, group)
		})

		t.Run("ListAllOrderedByName", func(t *testing.T) {
			groups, err := repo.ListAll(ctx)
			require.NoError(t, err)
			require.Len(t, groups, 2)
			assert.Equal(t, "b2b", groups[0].Name)
			assert.Equal(t, "retail", groups[1].Name)
		})

		t.Run("Update", func(t *testing.T) {
			group, err := repo.ByID(ctx, retail.ID)
			require.NoError(t, err)
			group.Percentages.Profit = testingutil.Dec("25")
			require.NoError(t, repo.Update(ctx, group))

			reloaded, err := repo.ByID(ctx, retail.ID)
			require.NoError(t, err)
			assert.True(t, testingutil.Dec("25").Equal(reloaded.Percentages.Profit))
		})

		t.Run("Delete", func(t *testing.T) {
			name := "b2b"
			groups, err := repo.ByFilter(ctx, models.ChannelGroupFilter{Name: &name}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, groups, 1)

			require.NoError(t, repo.Delete(ctx, groups[0].ID))
			exists, err := repo.Exists(ctx, models.ChannelGroupFilter{Name: &name})
			require.NoError(t, err)
			assert.False(t, exists)
		})

		return nil
	})
}

func TestChannelRepository(t *testing.T) {
	withDB(t, func(testDB *testingutil.TestDB) error {
		repo := repository.NewChannelRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		group, err := fixtures.CreateTestGroup("marketplaces", marketplacePercentages())
		require.NoError(t, err)
		table, err := fixtures.CreateTestFreightTable("standard", [][3]string{{"0", "1", "12"}, {"1", "5", "18"}})
		require.NoError(t, err)

		store, err := fixtures.CreateTestChannel(group.ID, "own store", "0")
		require.NoError(t, err)
		market, err := fixtures.CreateTestChannel(group.ID, "marketplace A", "0")
		require.NoError(t, err)
		market.FreightMode = models.FreightModeTable
		market.FreightTableID = &table.ID
		require.NoError(t, repo.Update(ctx, market))

		t.Run("ListIDsByGroups", func(t *testing.T) {
			ids, err := repo.ListIDsByGroups(ctx, []uint{group.ID})
			require.NoError(t, err)
			assert.Equal(t, []uint{store.ID, market.ID}, ids)
		})

		t.Run("ListIDsByFreightTable", func(t *testing.T) {
			ids, err := repo.ListIDsByFreightTable(ctx, table.ID)
			require.NoError(t, err)
			assert.Equal(t, []uint{market.ID}, ids)
		})

		t.Run("ListIDsByFeeTableEmpty", func(t *testing.T) {
			ids, err := repo.ListIDsByFeeTable(ctx, 42)
			require.NoError(t, err)
			assert.Empty(t, ids)
		})

		t.Run("FilterByActive", func(t *testing.T) {
			store.Active = utils.ToPtr(false)
			require.NoError(t, repo.Update(ctx, store))

			count, err := repo.Count(ctx, models.ChannelFilter{GroupID: &group.ID, Active: utils.ToPtr(true)})
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)
		})

		t.Run("DuplicateNameInGroupRejected", func(t *testing.T) {
			_, err := fixtures.CreateTestChannel(group.ID, "own store", "0")
			assert.Error(t, err)
		})

		return nil
	})
}

func TestRuleTableRepositories(t *testing.T) {
	withDB(t, func(testDB *testingutil.TestDB) error {
		freightRepo := repository.NewFreightTableRepository(testDB.DB)
		feeRepo := repository.NewFeeTableRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		freight, err := fixtures.CreateTestFreightTable("standard", [][3]string{{"0", "1", "12"}, {"1", "5", "18"}})
		require.NoError(t, err)
		fee, err := fixtures.CreateTestFeeTable("marketplace fees", [][3]string{{"0", "79", "5"}})
		require.NoError(t, err)

		t.Run("FreightByIDWithRules", func(t *testing.T) {
			table, err := freightRepo.ByIDWithRules(ctx, freight.ID)
			require.NoError(t, err)
			require.NotNil(t, table)
			assert.Equal(t, models.FreightTableByWeight, table.Type)
			require.Len(t, table.SimpleRules, 2)
			assert.True(t, testingutil.Dec("12").Equal(table.SimpleRules[0].Amount))
			assert.Empty(t, table.MatrixRules)
		})

		t.Run("FreightReplaceRules", func(t *testing.T) {
			table, err := freightRepo.ByIDWithRules(ctx, freight.ID)
			require.NoError(t, err)
			table.SimpleRules = nil
			table.SpecialRules = []models.FreightSpecialRule{{Name: "bulky", MinWeight: testingutil.DecPtr("30"), Amount: testingutil.Dec("90")}}
			table.RatingDiscounts = []models.FreightRatingDiscount{{Rating: 5, DiscountPercent: testingutil.Dec("50")}}
			require.NoError(t, freightRepo.ReplaceRules(ctx, table))

			reloaded, err := freightRepo.ByIDWithRules(ctx, freight.ID)
			require.NoError(t, err)
			assert.Empty(t, reloaded.SimpleRules)
			require.Len(t, reloaded.SpecialRules, 1)
			assert.Equal(t, "bulky", reloaded.SpecialRules[0].Name)
			require.Len(t, reloaded.RatingDiscounts, 1)
			assert.Equal(t, 5, reloaded.RatingDiscounts[0].Rating)
		})

		t.Run("FeeReplaceRules", func(t *testing.T) {
			rules := []models.FeeRule{
				{PriceStart: testingutil.DecPtr("0"), PriceEnd: testingutil.DecPtr("50"), Amount: testingutil.Dec("3")},
				{PriceStart: testingutil.DecPtr("50"), PriceEnd: testingutil.DecPtr("79"), Amount: testingutil.Dec("6")},
			}
			require.NoError(t, feeRepo.ReplaceRules(ctx, fee.ID, rules))

			tables, err := feeRepo.ListAllWithRules(ctx)
			require.NoError(t, err)
			require.Len(t, tables, 1)
			require.Len(t, tables[0].Rules, 2)
		})

		return nil
	})
}

func TestPriceRecordAndHistoryRepositories(t *testing.T) {
	withDB(t, func(testDB *testingutil.TestDB) error {
		recordRepo := repository.NewPriceRecordRepository(testDB.DB)
		historyRepo := repository.NewPriceHistoryRepository(testDB.DB)
		productRepo := repository.NewProductRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		group, err := fixtures.CreateTestGroup("marketplaces", marketplacePercentages())
		require.NoError(t, err)
		channel, err := fixtures.CreateTestChannel(group.ID, "marketplace A", "15")
		require.NoError(t, err)
		chair, err := fixtures.CreateTestProduct("CHAIR-01", "100")
		require.NoError(t, err)
		table, err := fixtures.CreateTestProduct("TABLE-01", "250")
		require.NoError(t, err)
		chairRecord, err := fixtures.CreateTestPriceRecord(chair.ID, channel.ID)
		require.NoError(t, err)
		_, err = fixtures.CreateTestPriceRecord(table.ID, channel.ID)
		require.NoError(t, err)

		t.Run("ProductBySKUWithLineItems", func(t *testing.T) {
			p, err := productRepo.BySKU(ctx, "CHAIR-01")
			require.NoError(t, err)
			require.NotNil(t, p)
			withItems, err := productRepo.ByIDWithLineItems(ctx, p.ID)
			require.NoError(t, err)
			require.Len(t, withItems.LineItems, 1)
			assert.True(t, testingutil.Dec("100").Equal(withItems.LineItems[0].UnitCost))
		})

		t.Run("ByProductAndChannel", func(t *testing.T) {
			rec, err := recordRepo.ByProductAndChannel(ctx, chair.ID, channel.ID)
			require.NoError(t, err)
			require.NotNil(t, rec)
			assert.Equal(t, chairRecord.ID, rec.ID)
			assert.False(t, rec.HasComputedValues())
		})

		t.Run("ListIDsBySKU", func(t *testing.T) {
			sku := "TABLE-01"
			ids, err := recordRepo.ListIDs(ctx, models.PriceRecordFilter{SKU: &sku})
			require.NoError(t, err)
			require.Len(t, ids, 1)
			assert.NotEqual(t, chairRecord.ID, ids[0])
		})

		t.Run("UpdateComputed", func(t *testing.T) {
			rec, err := recordRepo.ByID(ctx, chairRecord.ID)
			require.NoError(t, err)
			rec.SalePrice = testingutil.Dec("184.31")
			rec.ComputedAt = utils.ToPtr(utils.UTCNow())
			require.NoError(t, recordRepo.UpdateComputed(ctx, rec))

			reloaded, err := recordRepo.ByID(ctx, chairRecord.ID)
			require.NoError(t, err)
			assert.True(t, reloaded.HasComputedValues())
			assert.True(t, testingutil.Dec("184.31").Equal(reloaded.SalePrice))
		})

		t.Run("UpdateManualLeavesSolverColumns", func(t *testing.T) {
			rec, err := recordRepo.ByID(ctx, chairRecord.ID)
			require.NoError(t, err)
			rec.Automatic = utils.ToPtr(false)
			rec.ManualSalePrice = testingutil.DecPtr("199.90")
			rec.SalePrice = testingutil.Dec("1.00")
			require.NoError(t, recordRepo.UpdateManual(ctx, rec))

			reloaded, err := recordRepo.ByID(ctx, chairRecord.ID)
			require.NoError(t, err)
			assert.False(t, reloaded.IsAutomatic())
			require.NotNil(t, reloaded.ManualSalePrice)
			assert.True(t, testingutil.Dec("199.90").Equal(*reloaded.ManualSalePrice))
			assert.True(t, testingutil.Dec("184.31").Equal(reloaded.SalePrice))
		})

		t.Run("HistoryNewestFirstAndWriteOnce", func(t *testing.T) {
			base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			for i, price := range []string{"150.00", "160.00", "170.00"} {
				entry := &models.PriceHistory{
					PriceRecordID: chairRecord.ID,
					ProductID:     chair.ID,
					ChannelID:     channel.ID,
					GroupID:       group.ID,
					ProductSKU:    chair.SKU,
					ChannelName:   channel.Name,
					GroupName:     group.Name,
					SalePrice:     testingutil.Dec(price),
					Reason:        "manual recalculation",
					CreatedAt:     base.Add(time.Duration(i) * time.Minute),
				}
				require.NoError(t, historyRepo.Save(ctx, entry))
			}

			rows, err := historyRepo.ListByRecord(ctx, chairRecord.ID, 2, 0)
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.True(t, testingutil.Dec("170").Equal(rows[0].SalePrice))
			assert.True(t, testingutil.Dec("160").Equal(rows[1].SalePrice))

			err = historyRepo.Save(ctx, rows[0])
			assert.ErrorIs(t, err, models.ErrPriceHistoryImmutable)

			err = testDB.DB.WithContext(context.Background()).Exec("UPDATE price_history SET reason = 'edited'").Error
			assert.Error(t, err)
		})

		return nil
	})
}
