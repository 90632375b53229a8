package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/Kusanagi/models"
	"gorm.io/gorm"
)

// ChannelRepositoryImpl implements ChannelRepository interface
type ChannelRepositoryImpl struct {
	*BaseRepository[models.Channel, models.ChannelFilter]
}

// NewChannelRepository creates a new channel repository
func NewChannelRepository(db *gorm.DB) ChannelRepository {
	return &ChannelRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Channel, models.ChannelFilter](db),
	}
}

// ListAll retrieves every channel ordered by ID
func (r *ChannelRepositoryImpl) ListAll(ctx context.Context) ([]*models.Channel, error) {
	return r.ByFilter(ctx, models.ChannelFilter{}, "id ASC", 0, 0)
}

// ListIDsByGroups returns IDs of channels in any of the given groups
func (r *ChannelRepositoryImpl) ListIDsByGroups(ctx context.Context, groupIDs []uint) ([]uint, error) {
	if len(groupIDs) == 0 {
		return []uint{}, nil
	}
	return r.pluckIDs(ctx, "group_id IN ?", groupIDs)
}

// ListIDsByFreightTable returns IDs of channels referencing a freight table
func (r *ChannelRepositoryImpl) ListIDsByFreightTable(ctx context.Context, freightTableID uint) ([]uint, error) {
	return r.pluckIDs(ctx, "freight_table_id = ?", freightTableID)
}

// ListIDsByFeeTable returns IDs of channels referencing a fee table
func (r *ChannelRepositoryImpl) ListIDsByFeeTable(ctx context.Context, feeTableID uint) ([]uint, error) {
	return r.pluckIDs(ctx, "fee_table_id = ?", feeTableID)
}

func (r *ChannelRepositoryImpl) pluckIDs(ctx context.Context, cond string, arg any) ([]uint, error) {
	db := r.getDB(ctx)
	var ids []uint
	if err := db.Model(&models.Channel{}).Where(cond, arg).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list channel ids: %w", err)
	}
	return ids, nil
}

func (r *ChannelRepositoryImpl) applyFilter(query *gorm.DB, filter models.ChannelFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.GroupID != nil {
		query = query.Where("group_id = ?", *filter.GroupID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.FreightTableID != nil {
		query = query.Where("freight_table_id = ?", *filter.FreightTableID)
	}
	if filter.FeeTableID != nil {
		query = query.Where("fee_table_id = ?", *filter.FeeTableID)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	return query
}

// ByFilter retrieves channels based on filter criteria
func (r *ChannelRepositoryImpl) ByFilter(ctx context.Context, filter models.ChannelFilter, orderBy string, limit, offset int) ([]*models.Channel, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Channel{}), filter)
	query = paginate(query, orderBy, limit, offset)

	var rows []*models.Channel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of channels matching the filter
func (r *ChannelRepositoryImpl) Count(ctx context.Context, filter models.ChannelFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Channel{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any channel matching the filter exists
func (r *ChannelRepositoryImpl) Exists(ctx context.Context, filter models.ChannelFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
