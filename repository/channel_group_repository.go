package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/Kusanagi/models"
	"gorm.io/gorm"
)

// ChannelGroupRepositoryImpl implements ChannelGroupRepository interface
type ChannelGroupRepositoryImpl struct {
	*BaseRepository[models.ChannelGroup, models.ChannelGroupFilter]
}

// NewChannelGroupRepository creates a new channel group repository
func NewChannelGroupRepository(db *gorm.DB) ChannelGroupRepository {
	return &ChannelGroupRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ChannelGroup, models.ChannelGroupFilter](db),
	}
}

// ListAll retrieves every group ordered by name
func (r *ChannelGroupRepositoryImpl) ListAll(ctx context.Context) ([]*models.ChannelGroup, error) {
	return r.ByFilter(ctx, models.ChannelGroupFilter{}, "name ASC", 0, 0)
}

// ListBorrowingFrom retrieves groups whose cost comes from the given channel
func (r *ChannelGroupRepositoryImpl) ListBorrowingFrom(ctx context.Context, channelID uint) ([]*models.ChannelGroup, error) {
	strategy := models.CostStrategyReferenceChannel
	return r.ByFilter(ctx, models.ChannelGroupFilter{
		CostStrategy:       &strategy,
		ReferenceChannelID: &channelID,
	}, "id ASC", 0, 0)
}

// Delete removes a group by ID
func (r *ChannelGroupRepositoryImpl) Delete(ctx context.Context, id uint) error {
	return r.write(ctx, func(db *gorm.DB) error {
		if err := db.Delete(&models.ChannelGroup{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete channel group %d: %w", id, err)
		}
		return nil
	})
}

func (r *ChannelGroupRepositoryImpl) applyFilter(query *gorm.DB, filter models.ChannelGroupFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.CostStrategy != nil {
		query = query.Where("cost_strategy = ?", *filter.CostStrategy)
	}
	if filter.ReferenceChannelID != nil {
		query = query.Where("reference_channel_id = ?", *filter.ReferenceChannelID)
	}
	return query
}

// ByFilter retrieves channel groups based on filter criteria
func (r *ChannelGroupRepositoryImpl) ByFilter(ctx context.Context, filter models.ChannelGroupFilter, orderBy string, limit, offset int) ([]*models.ChannelGroup, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ChannelGroup{}), filter)
	query = paginate(query, orderBy, limit, offset)

	var rows []*models.ChannelGroup
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of channel groups matching the filter
func (r *ChannelGroupRepositoryImpl) Count(ctx context.Context, filter models.ChannelGroupFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ChannelGroup{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any channel group matching the filter exists
func (r *ChannelGroupRepositoryImpl) Exists(ctx context.Context, filter models.ChannelGroupFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
