package businessflow

import (
	"context"
	"testing"

	"github.com/amirphl/Kusanagi/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCascadeFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("GroupChangeFollowsReferenceChannel", func(t *testing.T) {
		env := newPricingEnv(HistoryAlways)
		env.seed()
		require.NoError(t, env.computeAll(ctx))

		setGroupProfit(env, 1, "60")
		ev := models.NewChangeEvent(models.ChangeChannelGroup, 1, reasonGroupUpdated("own"), nil)
		res, err := env.cascade.CascadeFrom(ctx, ev)
		require.NoError(t, err)

		assert.Equal(t, 3, res.Recalculated)
		assert.Equal(t, 0, res.Failed)
		assert.Equal(t, 2, res.Waves)
		assertDec(t, "125", env.record(110).SalePrice)
		assertDec(t, "250", env.record(120).SalePrice)
		assert.Equal(t, 3, env.historyCount())

		rows, err := env.recalc.History(ctx, 120, 1, 0)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, reasonReferencePriceChanged("reference"), rows[0].Reason)
		assertDec(t, "200", rows[0].SalePrice)

		rows, err = env.recalc.History(ctx, 110, 1, 0)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, `channel group "own" updated`, rows[0].Reason)

		// follow-up waves run in-process and are not republished
		assert.Empty(t, env.publisher.kinds())
	})

	t.Run("RepeatedCascadeIsStable", func(t *testing.T) {
		env := newPricingEnv(HistoryOnChange)
		env.seed()
		require.NoError(t, env.computeAll(ctx))

		ev := models.NewChangeEvent(models.ChangeChannelGroup, 1, "", nil)
		res, err := env.cascade.CascadeFrom(ctx, ev)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Recalculated)
		assert.Equal(t, 1, res.Waves)

		before := env.record(110)
		res, err = env.cascade.CascadeFrom(ctx, ev)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Recalculated)
		after := env.record(110)
		assert.True(t, before.ComputedEqual(after))
		assert.Equal(t, 0, env.historyCount())
	})

	t.Run("FreightTableTouchesOnlyItsChannels", func(t *testing.T) {
		env := newPricingEnv(HistoryAlways)
		env.seed()
		require.NoError(t, env.computeAll(ctx))

		res, err := env.cascade.CascadeFrom(ctx, models.NewChangeEvent(models.ChangeFreightTable, 7, "", nil))
		require.NoError(t, err)
		assert.Equal(t, 1, res.Recalculated)
		assert.Equal(t, 1, env.historyCount())

		rows, err := env.recalc.History(ctx, 130, 0, 0)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("FeeTableWithoutChannelsIsNoop", func(t *testing.T) {
		env := newPricingEnv(HistoryAlways)
		env.seed()

		res, err := env.cascade.CascadeFrom(ctx, models.NewChangeEvent(models.ChangeFeeTable, 77, "", nil))
		require.NoError(t, err)
		assert.Equal(t, 0, res.Recalculated)
		assert.Equal(t, 0, res.Waves)
	})

	t.Run("InactiveRecordsAreSkipped", func(t *testing.T) {
		env := newPricingEnv(HistoryAlways)
		env.seed()
		rec := env.record(130)
		rec.Active = boolPtr(false)
		env.store.records[130] = *rec

		res, err := env.cascade.CascadeFrom(ctx, models.NewChangeEvent(models.ChangeFreightTable, 7, "", nil))
		require.NoError(t, err)
		assert.Equal(t, 0, res.Recalculated)
		assert.False(t, env.record(130).HasComputedValues())
	})

	t.Run("ProductChangeTouchesEveryChannel", func(t *testing.T) {
		env := newPricingEnv(HistoryAlways)
		env.seed()

		res, err := env.cascade.CascadeFrom(ctx, models.NewChangeEvent(models.ChangeProduct, 1, reasonProductUpdated("SKU-1"), nil))
		require.NoError(t, err)
		assert.Equal(t, 3, res.Recalculated)
		for _, id := range []uint{110, 120, 130} {
			assert.True(t, env.record(id).HasComputedValues(), "record %d", id)
		}
	})

	t.Run("SalePriceEventTouchesBorrowers", func(t *testing.T) {
		env := newPricingEnv(HistoryAlways)
		env.seed()

		ev := models.NewSalePriceChangeEvent(10, 1, reasonReferencePriceChanged("reference"), nil)
		res, err := env.cascade.CascadeFrom(ctx, ev)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Recalculated)
		assert.True(t, env.record(120).HasComputedValues())
		assert.False(t, env.record(110).HasComputedValues())
	})

	t.Run("SalePriceEventWithoutProduct", func(t *testing.T) {
		env := newPricingEnv(HistoryAlways)
		env.seed()

		_, err := env.cascade.CascadeFrom(ctx, models.NewChangeEvent(models.ChangeSalePrice, 10, "", nil))
		require.Error(t, err)
	})

	t.Run("FailuresAreCountedNotFatal", func(t *testing.T) {
		env := newPricingEnv(HistoryAlways)
		env.seed()
		env.store.products[2] = models.Product{ID: 2, UUID: uuid.New(), SKU: "FLAT",
			Width: dec("10"), Height: dec("10"), Depth: dec("0"), PhysicalWeight: dec("1")}
		env.store.records[140] = models.PriceRecord{ID: 140, UUID: uuid.New(), ProductID: 2, ChannelID: 10}

		res, err := env.cascade.CascadeFrom(ctx, models.NewChangeEvent(models.ChangeChannel, 10, reasonChannelUpdated("reference"), nil))
		require.NoError(t, err)
		assert.Equal(t, 1, res.Failed)
		assert.Equal(t, []uint{140}, res.FailedRecordIDs)
		assert.GreaterOrEqual(t, res.Recalculated, 1)
		assert.True(t, env.record(110).HasComputedValues())
	})

	t.Run("InvalidKind", func(t *testing.T) {
		env := newPricingEnv(HistoryAlways)
		_, err := env.cascade.CascadeFrom(ctx, models.ChangeEvent{Kind: "warehouse", EntityID: 1})
		assert.ErrorIs(t, err, ErrInvalidChangeKind)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		env := newPricingEnv(HistoryAlways)
		env.seed()

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := env.cascade.CascadeFrom(cctx, models.NewChangeEvent(models.ChangeProduct, 1, "", nil))
		assert.ErrorIs(t, err, context.Canceled)
	})
}
