package businessflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amirphl/Kusanagi/app/dto"
	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/repository"
	"gorm.io/gorm"
)

// HistoryMode decides when a recalculation writes a history snapshot
type HistoryMode string

const (
	// HistoryAlways snapshots every recalculation of a previously computed record
	HistoryAlways HistoryMode = "always"
	// HistoryOnChange snapshots only when a computed value moves
	HistoryOnChange HistoryMode = "on_change"
)

func (m HistoryMode) Valid() bool {
	return m == HistoryAlways || m == HistoryOnChange
}

// ParseHistoryMode parses a configured history mode, defaulting to always
func ParseHistoryMode(s string) (HistoryMode, error) {
	switch m := HistoryMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return HistoryAlways, nil
	case HistoryAlways, HistoryOnChange:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidHistoryMode, s)
	}
}

// Transactor runs fn inside a single database transaction carried by the context
type Transactor interface {
	WithinTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

// NewGormTransactor runs transactions through repository.WithTransaction
func NewGormTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) WithinTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return repository.WithTransaction(ctx, t.db, fn)
}

// Reason strings recorded on history entries
func reasonFreightTableUpdated(name string) string {
	return fmt.Sprintf("freight table %q updated", name)
}

func reasonFeeTableUpdated(name string) string {
	return fmt.Sprintf("fee table %q updated", name)
}

func reasonChannelUpdated(name string) string {
	return fmt.Sprintf("channel %q updated", name)
}

func reasonGroupUpdated(name string) string {
	return fmt.Sprintf("channel group %q updated", name)
}

func reasonProductUpdated(sku string) string {
	return fmt.Sprintf("product %s updated", sku)
}

func reasonReferencePriceChanged(channelName string) string {
	return fmt.Sprintf("sale price in reference channel %q changed", channelName)
}

const (
	reasonRecordActivated = "record activated"
	reasonRecordUpdated   = "record updated"
	ReasonManualRequest   = "manual recalculation"
)

// ToPriceRecordItem converts a record into its read model
func ToPriceRecordItem(r *models.PriceRecord) dto.PriceRecordItem {
	return dto.PriceRecordItem{
		ID:                 r.ID,
		UUID:               r.UUID.String(),
		ProductID:          r.ProductID,
		ChannelID:          r.ChannelID,
		Active:             r.IsActive(),
		Automatic:          r.IsAutomatic(),
		Cost:               r.Cost,
		SalePrice:          r.SalePrice,
		PromoPrice:         r.PromoPrice,
		MinPrice:           r.MinPrice,
		PromoPriceRounded:  r.PromoPriceRounded,
		MinPriceRounded:    r.MinPriceRounded,
		DisplaySalePrice:   r.DisplaySalePrice(),
		DisplayPromoPrice:  r.DisplayPromoPrice(),
		DisplayMinPrice:    r.DisplayMinPrice(),
		Freight:            r.Freight,
		SpecificFreight:    r.SpecificFreight,
		AppliedFreight:     r.AppliedFreight(),
		Fee:                r.Fee,
		MaxDiscountPercent: r.MaxDiscountPercent(),
		ComputedAt:         r.ComputedAt,
	}
}

// ToPriceHistoryItem converts a history entry into its read model
func ToPriceHistoryItem(h *models.PriceHistory) dto.PriceHistoryItem {
	return dto.PriceHistoryItem{
		ID:                h.ID,
		ProductSKU:        h.ProductSKU,
		ChannelName:       h.ChannelName,
		GroupName:         h.GroupName,
		Cost:              h.Cost,
		SalePrice:         h.SalePrice,
		PromoPrice:        h.PromoPrice,
		MinPrice:          h.MinPrice,
		PromoPriceRounded: h.PromoPriceRounded,
		MinPriceRounded:   h.MinPriceRounded,
		AppliedFreight:    h.AppliedFreight,
		Fee:               h.Fee,
		MarkupSale:        h.MarkupSale,
		Reason:            h.Reason,
		Actor:             h.Actor,
		CreatedAt:         h.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToRecalculateResponse converts a recalculation result into its response
func ToRecalculateResponse(message string, res *RecalculationResult) *dto.RecalculateRecordResponse {
	return &dto.RecalculateRecordResponse{
		Message:        message,
		Record:         ToPriceRecordItem(res.Record),
		HistoryWritten: res.HistoryWritten,
		Rounds:         res.Quote.Rounds(),
		Converged:      res.Quote.Converged(),
	}
}
