package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/Kusanagi/models"
	"gorm.io/gorm"
)

// FreightTableRepositoryImpl implements FreightTableRepository interface
type FreightTableRepositoryImpl struct {
	*BaseRepository[models.FreightTable, models.FreightTableFilter]
}

// NewFreightTableRepository creates a new freight table repository
func NewFreightTableRepository(db *gorm.DB) FreightTableRepository {
	return &FreightTableRepositoryImpl{
		BaseRepository: NewBaseRepository[models.FreightTable, models.FreightTableFilter](db),
	}
}

func preloadFreightRules(db *gorm.DB) *gorm.DB {
	return db.
		Preload("MatrixRules").
		Preload("SimpleRules").
		Preload("SpecialRules").
		Preload("RatingDiscounts")
}

// ByIDWithRules retrieves a freight table with every rule row
func (r *FreightTableRepositoryImpl) ByIDWithRules(ctx context.Context, id uint) (*models.FreightTable, error) {
	db := r.getDB(ctx)
	var row models.FreightTable
	if err := preloadFreightRules(db).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find freight table %d: %w", id, err)
	}
	return &row, nil
}

// ListAllWithRules retrieves every freight table with rule rows
func (r *FreightTableRepositoryImpl) ListAllWithRules(ctx context.Context) ([]*models.FreightTable, error) {
	db := r.getDB(ctx)
	var rows []*models.FreightTable
	if err := preloadFreightRules(db).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list freight tables: %w", err)
	}
	return rows, nil
}

// ReplaceRules swaps every rule row of a table with the ones carried by table
func (r *FreightTableRepositoryImpl) ReplaceRules(ctx context.Context, table *models.FreightTable) error {
	return r.write(ctx, func(db *gorm.DB) error {
		children := []any{
			&models.FreightMatrixRule{},
			&models.FreightSimpleRule{},
			&models.FreightSpecialRule{},
			&models.FreightRatingDiscount{},
		}
		for _, child := range children {
			if err := db.Where("freight_table_id = ?", table.ID).Delete(child).Error; err != nil {
				return fmt.Errorf("failed to clear rules of freight table %d: %w", table.ID, err)
			}
		}

		for i := range table.MatrixRules {
			table.MatrixRules[i].ID = 0
			table.MatrixRules[i].FreightTableID = table.ID
		}
		for i := range table.SimpleRules {
			table.SimpleRules[i].ID = 0
			table.SimpleRules[i].FreightTableID = table.ID
		}
		for i := range table.SpecialRules {
			table.SpecialRules[i].ID = 0
			table.SpecialRules[i].FreightTableID = table.ID
		}
		for i := range table.RatingDiscounts {
			table.RatingDiscounts[i].ID = 0
			table.RatingDiscounts[i].FreightTableID = table.ID
		}

		if len(table.MatrixRules) > 0 {
			if err := db.Create(&table.MatrixRules).Error; err != nil {
				return fmt.Errorf("failed to insert matrix rules: %w", err)
			}
		}
		if len(table.SimpleRules) > 0 {
			if err := db.Create(&table.SimpleRules).Error; err != nil {
				return fmt.Errorf("failed to insert simple rules: %w", err)
			}
		}
		if len(table.SpecialRules) > 0 {
			if err := db.Create(&table.SpecialRules).Error; err != nil {
				return fmt.Errorf("failed to insert special rules: %w", err)
			}
		}
		if len(table.RatingDiscounts) > 0 {
			if err := db.Create(&table.RatingDiscounts).Error; err != nil {
				return fmt.Errorf("failed to insert rating discounts: %w", err)
			}
		}
		return nil
	})
}

func (r *FreightTableRepositoryImpl) applyFilter(query *gorm.DB, filter models.FreightTableFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	return query
}

// ByFilter retrieves freight tables based on filter criteria
func (r *FreightTableRepositoryImpl) ByFilter(ctx context.Context, filter models.FreightTableFilter, orderBy string, limit, offset int) ([]*models.FreightTable, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.FreightTable{}), filter)
	query = paginate(query, orderBy, limit, offset)

	var rows []*models.FreightTable
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of freight tables matching the filter
func (r *FreightTableRepositoryImpl) Count(ctx context.Context, filter models.FreightTableFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.FreightTable{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any freight table matching the filter exists
func (r *FreightTableRepositoryImpl) Exists(ctx context.Context, filter models.FreightTableFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
