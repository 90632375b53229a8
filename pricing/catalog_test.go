package pricing

import (
	"errors"
	"testing"

	"github.com/amirphl/Kusanagi/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func borrowingGroup(id uint, referenceID uint) *models.ChannelGroup {
	g := testGroup()
	g.ID = id
	g.Name = "borrowing"
	g.CostStrategy = models.CostStrategyReferenceChannel
	g.ReferenceChannelID = up(referenceID)
	return g
}

func TestCatalog_Overlays(t *testing.T) {
	own := testGroup()
	store := &models.Channel{ID: 1, GroupID: own.ID, Name: "store"}
	market := &models.Channel{ID: 2, GroupID: 2, Name: "market"}
	base := NewCatalog([]*models.ChannelGroup{own, borrowingGroup(2, 1)}, []*models.Channel{store, market}, nil, nil)

	t.Run("WithGroupLeavesBaseUntouched", func(t *testing.T) {
		replaced := testGroup()
		replaced.Name = "renamed"
		overlay := base.WithGroup(replaced)

		assert.Equal(t, "renamed", overlay.Group(own.ID).Name)
		assert.Equal(t, "Marketplaces", base.Group(own.ID).Name)
	})

	t.Run("WithChannelAdds", func(t *testing.T) {
		overlay := base.WithChannel(&models.Channel{ID: 3, GroupID: own.ID, Name: "outlet"})
		assert.NotNil(t, overlay.Channel(3))
		assert.Nil(t, base.Channel(3))
	})

	t.Run("CostReferences", func(t *testing.T) {
		assert.True(t, base.IsCostReference(1))
		assert.False(t, base.IsCostReference(2))

		borrowing := base.BorrowingChannels(1)
		require.Len(t, borrowing, 1)
		assert.Equal(t, uint(2), borrowing[0].ID)
	})

	t.Run("GroupOfFallsBackToChannel", func(t *testing.T) {
		orphan := &models.Channel{ID: 9, GroupID: 77, Group: &models.ChannelGroup{ID: 77, Name: "detached"}}
		assert.Equal(t, "detached", base.GroupOf(orphan).Name)
	})
}

func TestCatalog_CheckReferences(t *testing.T) {
	a := &models.Channel{ID: 1, GroupID: 1, Name: "A"}
	b := &models.Channel{ID: 2, GroupID: 2, Name: "B"}
	catalog := NewCatalog([]*models.ChannelGroup{testGroup(), borrowingGroup(2, 1)}, []*models.Channel{a, b}, nil, nil)

	t.Run("Chain", func(t *testing.T) {
		assert.NoError(t, catalog.CheckReferences())
	})

	t.Run("SelfReferenceIsNotACycle", func(t *testing.T) {
		overlay := catalog.WithGroup(borrowingGroup(2, 2))
		assert.NoError(t, overlay.CheckReferences())
	})

	t.Run("TwoChannelCycle", func(t *testing.T) {
		overlay := catalog.WithGroup(borrowingGroup(1, 2))
		err := overlay.CheckReferences()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCostReferenceCycle))
		assert.NoError(t, catalog.CheckReferences())
	})

	t.Run("ThreeChannelCycle", func(t *testing.T) {
		c := &models.Channel{ID: 3, GroupID: 3, Name: "C"}
		overlay := catalog.
			WithChannel(c).
			WithGroup(borrowingGroup(3, 2)).
			WithGroup(borrowingGroup(1, 3))
		err := overlay.CheckReferences()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCostReferenceCycle))
	})
}
