package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/Kusanagi/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepositoryImpl implements ProductRepository interface
type ProductRepositoryImpl struct {
	*BaseRepository[models.Product, models.ProductFilter]
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &ProductRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Product, models.ProductFilter](db),
	}
}

// ByIDWithLineItems retrieves a product with its bill of materials
func (r *ProductRepositoryImpl) ByIDWithLineItems(ctx context.Context, id uint) (*models.Product, error) {
	db := r.getDB(ctx)
	var row models.Product
	err := db.Preload("LineItems", func(q *gorm.DB) *gorm.DB { return q.Order("id ASC") }).
		First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find product %d: %w", id, err)
	}
	return &row, nil
}

// BySKU retrieves a product by SKU
func (r *ProductRepositoryImpl) BySKU(ctx context.Context, sku string) (*models.Product, error) {
	rows, err := r.ByFilter(ctx, models.ProductFilter{SKU: &sku}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ListWithLineItems retrieves products with their bill of materials
func (r *ProductRepositoryImpl) ListWithLineItems(ctx context.Context, ids []uint) ([]*models.Product, error) {
	if len(ids) == 0 {
		return []*models.Product{}, nil
	}
	db := r.getDB(ctx)
	var rows []*models.Product
	err := db.Preload("LineItems", func(q *gorm.DB) *gorm.DB { return q.Order("id ASC") }).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return rows, nil
}

// Update writes product columns, leaving line items untouched
func (r *ProductRepositoryImpl) Update(ctx context.Context, product *models.Product) error {
	return r.write(ctx, func(db *gorm.DB) error {
		err := db.Omit("created_at", clause.Associations).Save(product).Error
		if err != nil {
			return fmt.Errorf("failed to update product %d: %w", product.ID, err)
		}
		return nil
	})
}

// ReplaceLineItems swaps the whole bill of materials of a product
func (r *ProductRepositoryImpl) ReplaceLineItems(ctx context.Context, productID uint, items []models.LineItem) error {
	return r.write(ctx, func(db *gorm.DB) error {
		if err := db.Where("product_id = ?", productID).Delete(&models.LineItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear line items of product %d: %w", productID, err)
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].ID = 0
			items[i].ProductID = productID
		}
		if err := db.Create(&items).Error; err != nil {
			return fmt.Errorf("failed to insert line items of product %d: %w", productID, err)
		}
		return nil
	})
}

func (r *ProductRepositoryImpl) applyFilter(query *gorm.DB, filter models.ProductFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.SKU != nil {
		query = query.Where("sku = ?", *filter.SKU)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	return query
}

// ByFilter retrieves products based on filter criteria
func (r *ProductRepositoryImpl) ByFilter(ctx context.Context, filter models.ProductFilter, orderBy string, limit, offset int) ([]*models.Product, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Product{}), filter)
	query = paginate(query, orderBy, limit, offset)

	var rows []*models.Product
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of products matching the filter
func (r *ProductRepositoryImpl) Count(ctx context.Context, filter models.ProductFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Product{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any product matching the filter exists
func (r *ProductRepositoryImpl) Exists(ctx context.Context, filter models.ProductFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
