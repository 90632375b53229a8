// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/amirphl/Kusanagi/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// ProductRepository defines operations for products and their bill of materials
type ProductRepository interface {
	Repository[models.Product, models.ProductFilter]
	ByIDWithLineItems(ctx context.Context, id uint) (*models.Product, error)
	BySKU(ctx context.Context, sku string) (*models.Product, error)
	ListWithLineItems(ctx context.Context, ids []uint) ([]*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	ReplaceLineItems(ctx context.Context, productID uint, items []models.LineItem) error
}

// ChannelGroupRepository defines operations for channel groups
type ChannelGroupRepository interface {
	Repository[models.ChannelGroup, models.ChannelGroupFilter]
	ListAll(ctx context.Context) ([]*models.ChannelGroup, error)
	ListBorrowingFrom(ctx context.Context, channelID uint) ([]*models.ChannelGroup, error)
	Update(ctx context.Context, group *models.ChannelGroup) error
	Delete(ctx context.Context, id uint) error
}

// ChannelRepository defines operations for sales channels
type ChannelRepository interface {
	Repository[models.Channel, models.ChannelFilter]
	ListAll(ctx context.Context) ([]*models.Channel, error)
	ListIDsByGroups(ctx context.Context, groupIDs []uint) ([]uint, error)
	ListIDsByFreightTable(ctx context.Context, freightTableID uint) ([]uint, error)
	ListIDsByFeeTable(ctx context.Context, feeTableID uint) ([]uint, error)
	Update(ctx context.Context, channel *models.Channel) error
}

// FreightTableRepository defines operations for freight tables and their rule rows
type FreightTableRepository interface {
	Repository[models.FreightTable, models.FreightTableFilter]
	ByIDWithRules(ctx context.Context, id uint) (*models.FreightTable, error)
	ListAllWithRules(ctx context.Context) ([]*models.FreightTable, error)
	Update(ctx context.Context, table *models.FreightTable) error
	ReplaceRules(ctx context.Context, table *models.FreightTable) error
}

// FeeTableRepository defines operations for fee tables and their rules
type FeeTableRepository interface {
	Repository[models.FeeTable, models.FeeTableFilter]
	ByIDWithRules(ctx context.Context, id uint) (*models.FeeTable, error)
	ListAllWithRules(ctx context.Context) ([]*models.FeeTable, error)
	Update(ctx context.Context, table *models.FeeTable) error
	ReplaceRules(ctx context.Context, tableID uint, rules []models.FeeRule) error
}

// PriceRecordRepository defines operations for product/channel price records
type PriceRecordRepository interface {
	Repository[models.PriceRecord, models.PriceRecordFilter]
	ByProductAndChannel(ctx context.Context, productID, channelID uint) (*models.PriceRecord, error)
	// ByIDForUpdate locks the row until the surrounding transaction ends
	ByIDForUpdate(ctx context.Context, id uint) (*models.PriceRecord, error)
	ListIDs(ctx context.Context, filter models.PriceRecordFilter) ([]uint, error)
	// UpdateManual writes only the operator-owned columns of a record
	UpdateManual(ctx context.Context, record *models.PriceRecord) error
	UpdateComputed(ctx context.Context, record *models.PriceRecord) error
}

// PriceHistoryRepository is append-only: it exposes no update or delete
type PriceHistoryRepository interface {
	Repository[models.PriceHistory, models.PriceHistoryFilter]
	ListByRecord(ctx context.Context, priceRecordID uint, limit, offset int) ([]*models.PriceHistory, error)
}
