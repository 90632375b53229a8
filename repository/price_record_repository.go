package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/Kusanagi/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PriceRecordRepositoryImpl implements PriceRecordRepository interface
type PriceRecordRepositoryImpl struct {
	*BaseRepository[models.PriceRecord, models.PriceRecordFilter]
}

// NewPriceRecordRepository creates a new price record repository
func NewPriceRecordRepository(db *gorm.DB) PriceRecordRepository {
	return &PriceRecordRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PriceRecord, models.PriceRecordFilter](db),
	}
}

// ByProductAndChannel retrieves the record of a product in a channel
func (r *PriceRecordRepositoryImpl) ByProductAndChannel(ctx context.Context, productID, channelID uint) (*models.PriceRecord, error) {
	db := r.getDB(ctx)
	var row models.PriceRecord
	err := db.Where("product_id = ? AND channel_id = ?", productID, channelID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find price record of product %d in channel %d: %w", productID, channelID, err)
	}
	return &row, nil
}

// ByIDForUpdate retrieves a record with SELECT ... FOR UPDATE. It must run
// inside a transaction carried by ctx for the lock to outlive the query.
func (r *PriceRecordRepositoryImpl) ByIDForUpdate(ctx context.Context, id uint) (*models.PriceRecord, error) {
	db := r.getDB(ctx)
	var row models.PriceRecord
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock price record %d: %w", id, err)
	}
	return &row, nil
}

// ListIDs returns IDs of records matching the filter in ascending order
func (r *PriceRecordRepositoryImpl) ListIDs(ctx context.Context, filter models.PriceRecordFilter) ([]uint, error) {
	if filter.ChannelIDs != nil && len(filter.ChannelIDs) == 0 {
		return []uint{}, nil
	}
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.PriceRecord{}), filter)

	var ids []uint
	if err := query.Order("price_records.id ASC").Pluck("price_records.id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list price record ids: %w", err)
	}
	return ids, nil
}

// UpdateManual writes the activation flags and manual overrides of a record,
// leaving the cached solver output to UpdateComputed
func (r *PriceRecordRepositoryImpl) UpdateManual(ctx context.Context, record *models.PriceRecord) error {
	return r.write(ctx, func(db *gorm.DB) error {
		err := db.Model(&models.PriceRecord{}).
			Where("id = ?", record.ID).
			Updates(map[string]any{
				"active":             record.IsActive(),
				"automatic":          record.IsAutomatic(),
				"manual_sale_price":  record.ManualSalePrice,
				"manual_promo_price": record.ManualPromoPrice,
				"manual_min_price":   record.ManualMinPrice,
				"specific_freight":   record.SpecificFreight,
				"updated_at":         gorm.Expr("CURRENT_TIMESTAMP"),
			}).Error
		if err != nil {
			return fmt.Errorf("failed to update manual values of price record %d: %w", record.ID, err)
		}
		return nil
	})
}

// UpdateComputed writes only the cached solver output of a record
func (r *PriceRecordRepositoryImpl) UpdateComputed(ctx context.Context, record *models.PriceRecord) error {
	return r.write(ctx, func(db *gorm.DB) error {
		err := db.Model(&models.PriceRecord{}).
			Where("id = ?", record.ID).
			Updates(map[string]any{
				"cost":                record.Cost,
				"sale_price":          record.SalePrice,
				"promo_price":         record.PromoPrice,
				"min_price":           record.MinPrice,
				"promo_price_rounded": record.PromoPriceRounded,
				"min_price_rounded":   record.MinPriceRounded,
				"freight":             record.Freight,
				"fee":                 record.Fee,
				"computed_at":         record.ComputedAt,
				"updated_at":          gorm.Expr("CURRENT_TIMESTAMP"),
			}).Error
		if err != nil {
			return fmt.Errorf("failed to update computed values of price record %d: %w", record.ID, err)
		}
		return nil
	})
}

func (r *PriceRecordRepositoryImpl) applyFilter(query *gorm.DB, filter models.PriceRecordFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("price_records.id = ?", *filter.ID)
	}
	if filter.ProductID != nil {
		query = query.Where("price_records.product_id = ?", *filter.ProductID)
	}
	if filter.ChannelID != nil {
		query = query.Where("price_records.channel_id = ?", *filter.ChannelID)
	}
	if len(filter.ChannelIDs) > 0 {
		query = query.Where("price_records.channel_id IN ?", filter.ChannelIDs)
	}
	if filter.Active != nil {
		query = query.Where("price_records.active = ?", *filter.Active)
	}
	if filter.Automatic != nil {
		query = query.Where("price_records.automatic = ?", *filter.Automatic)
	}
	if filter.SKU != nil {
		query = query.Joins("JOIN products ON products.id = price_records.product_id").
			Where("products.sku = ?", *filter.SKU)
	}
	return query
}

// ByFilter retrieves price records based on filter criteria
func (r *PriceRecordRepositoryImpl) ByFilter(ctx context.Context, filter models.PriceRecordFilter, orderBy string, limit, offset int) ([]*models.PriceRecord, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.PriceRecord{}), filter)
	if orderBy == "" {
		orderBy = "price_records.id DESC"
	}
	query = paginate(query, orderBy, limit, offset)

	var rows []*models.PriceRecord
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of price records matching the filter
func (r *PriceRecordRepositoryImpl) Count(ctx context.Context, filter models.PriceRecordFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.PriceRecord{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any price record matching the filter exists
func (r *PriceRecordRepositoryImpl) Exists(ctx context.Context, filter models.PriceRecordFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
