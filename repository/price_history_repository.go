package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/Kusanagi/models"
	"gorm.io/gorm"
)

// PriceHistoryRepositoryImpl implements PriceHistoryRepository interface.
// Entries are inserted once and never updated or deleted.
type PriceHistoryRepositoryImpl struct {
	*BaseRepository[models.PriceHistory, models.PriceHistoryFilter]
}

// NewPriceHistoryRepository creates a new price history repository
func NewPriceHistoryRepository(db *gorm.DB) PriceHistoryRepository {
	return &PriceHistoryRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PriceHistory, models.PriceHistoryFilter](db),
	}
}

// Save inserts a new entry; an entry that already has an ID is rejected
func (r *PriceHistoryRepositoryImpl) Save(ctx context.Context, entry *models.PriceHistory) error {
	if entry.ID != 0 {
		return fmt.Errorf("price history %d: %w", entry.ID, models.ErrPriceHistoryImmutable)
	}
	return r.BaseRepository.Save(ctx, entry)
}

// SaveBatch inserts new entries; any entry with an ID is rejected
func (r *PriceHistoryRepositoryImpl) SaveBatch(ctx context.Context, entries []*models.PriceHistory) error {
	for _, e := range entries {
		if e.ID != 0 {
			return fmt.Errorf("price history %d: %w", e.ID, models.ErrPriceHistoryImmutable)
		}
	}
	return r.BaseRepository.SaveBatch(ctx, entries)
}

// ListByRecord retrieves history of a price record, newest first
func (r *PriceHistoryRepositoryImpl) ListByRecord(ctx context.Context, priceRecordID uint, limit, offset int) ([]*models.PriceHistory, error) {
	return r.ByFilter(ctx, models.PriceHistoryFilter{PriceRecordID: &priceRecordID}, "created_at DESC, id DESC", limit, offset)
}

func (r *PriceHistoryRepositoryImpl) applyFilter(query *gorm.DB, filter models.PriceHistoryFilter) *gorm.DB {
	if filter.PriceRecordID != nil {
		query = query.Where("price_record_id = ?", *filter.PriceRecordID)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.ChannelID != nil {
		query = query.Where("channel_id = ?", *filter.ChannelID)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves history entries based on filter criteria
func (r *PriceHistoryRepositoryImpl) ByFilter(ctx context.Context, filter models.PriceHistoryFilter, orderBy string, limit, offset int) ([]*models.PriceHistory, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.PriceHistory{}), filter)
	query = paginate(query, orderBy, limit, offset)

	var rows []*models.PriceHistory
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of history entries matching the filter
func (r *PriceHistoryRepositoryImpl) Count(ctx context.Context, filter models.PriceHistoryFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.PriceHistory{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any history entry matching the filter exists
func (r *PriceHistoryRepositoryImpl) Exists(ctx context.Context, filter models.PriceHistoryFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
