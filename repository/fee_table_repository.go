package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/Kusanagi/models"
	"gorm.io/gorm"
)

// FeeTableRepositoryImpl implements FeeTableRepository interface
type FeeTableRepositoryImpl struct {
	*BaseRepository[models.FeeTable, models.FeeTableFilter]
}

// NewFeeTableRepository creates a new fee table repository
func NewFeeTableRepository(db *gorm.DB) FeeTableRepository {
	return &FeeTableRepositoryImpl{
		BaseRepository: NewBaseRepository[models.FeeTable, models.FeeTableFilter](db),
	}
}

// ByIDWithRules retrieves a fee table with its rules
func (r *FeeTableRepositoryImpl) ByIDWithRules(ctx context.Context, id uint) (*models.FeeTable, error) {
	db := r.getDB(ctx)
	var row models.FeeTable
	if err := db.Preload("Rules").First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find fee table %d: %w", id, err)
	}
	return &row, nil
}

// ListAllWithRules retrieves every fee table with rules
func (r *FeeTableRepositoryImpl) ListAllWithRules(ctx context.Context) ([]*models.FeeTable, error) {
	db := r.getDB(ctx)
	var rows []*models.FeeTable
	if err := db.Preload("Rules").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list fee tables: %w", err)
	}
	return rows, nil
}

// ReplaceRules swaps every rule of a fee table
func (r *FeeTableRepositoryImpl) ReplaceRules(ctx context.Context, tableID uint, rules []models.FeeRule) error {
	return r.write(ctx, func(db *gorm.DB) error {
		if err := db.Where("fee_table_id = ?", tableID).Delete(&models.FeeRule{}).Error; err != nil {
			return fmt.Errorf("failed to clear rules of fee table %d: %w", tableID, err)
		}
		if len(rules) == 0 {
			return nil
		}
		for i := range rules {
			rules[i].ID = 0
			rules[i].FeeTableID = tableID
		}
		if err := db.Create(&rules).Error; err != nil {
			return fmt.Errorf("failed to insert rules of fee table %d: %w", tableID, err)
		}
		return nil
	})
}

func (r *FeeTableRepositoryImpl) applyFilter(query *gorm.DB, filter models.FeeTableFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	return query
}

// ByFilter retrieves fee tables based on filter criteria
func (r *FeeTableRepositoryImpl) ByFilter(ctx context.Context, filter models.FeeTableFilter, orderBy string, limit, offset int) ([]*models.FeeTable, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.FeeTable{}), filter)
	query = paginate(query, orderBy, limit, offset)

	var rows []*models.FeeTable
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of fee tables matching the filter
func (r *FeeTableRepositoryImpl) Count(ctx context.Context, filter models.FeeTableFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.FeeTable{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any fee table matching the filter exists
func (r *FeeTableRepositoryImpl) Exists(ctx context.Context, filter models.FeeTableFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
