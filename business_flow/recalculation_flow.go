package businessflow

import (
	"context"
	"errors"
	"log"

	"github.com/amirphl/Kusanagi/app/services"
	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/pricing"
	"github.com/amirphl/Kusanagi/repository"
	"github.com/amirphl/Kusanagi/utils"
)

// RecalculationResult describes one recalculated record
type RecalculationResult struct {
	Record           *models.PriceRecord
	Previous         *models.PriceRecord
	Quote            *pricing.Quote
	HistoryWritten   bool
	SalePriceChanged bool
}

// RecalculationFlow recomputes the cached prices of price records
type RecalculationFlow interface {
	// Recalculate loads a fresh catalog snapshot and recomputes one record.
	// When the record's channel is a cost reference and the sale price moved,
	// a sale price change event is published.
	Recalculate(ctx context.Context, recordID uint, saveHistory bool, reason string, actor *string) (*RecalculationResult, error)
	// RecalculateWith recomputes one record against an already loaded engine
	RecalculateWith(ctx context.Context, engine *pricing.Engine, recordID uint, saveHistory bool, reason string, actor *string) (*RecalculationResult, error)
	History(ctx context.Context, recordID uint, limit, offset int) ([]*models.PriceHistory, error)
}

type RecalculationFlowImpl struct {
	priceRecordRepo repository.PriceRecordRepository
	productRepo     repository.ProductRepository
	historyRepo     repository.PriceHistoryRepository
	loader          CatalogLoader
	tx              Transactor
	locker          RecordLocker
	publisher       services.EventPublisher
	historyMode     HistoryMode
}

func NewRecalculationFlow(
	priceRecordRepo repository.PriceRecordRepository,
	productRepo repository.ProductRepository,
	historyRepo repository.PriceHistoryRepository,
	loader CatalogLoader,
	tx Transactor,
	locker RecordLocker,
	publisher services.EventPublisher,
	historyMode HistoryMode,
) RecalculationFlow {
	if locker == nil {
		locker = NewLocalRecordLocker()
	}
	if publisher == nil {
		publisher = services.NoopEventPublisher{}
	}
	if !historyMode.Valid() {
		historyMode = HistoryAlways
	}
	return &RecalculationFlowImpl{
		priceRecordRepo: priceRecordRepo,
		productRepo:     productRepo,
		historyRepo:     historyRepo,
		loader:          loader,
		tx:              tx,
		locker:          locker,
		publisher:       publisher,
		historyMode:     historyMode,
	}
}

func (f *RecalculationFlowImpl) Recalculate(ctx context.Context, recordID uint, saveHistory bool, reason string, actor *string) (*RecalculationResult, error) {
	engine, err := f.loader.Load(ctx)
	if err != nil {
		return nil, NewBusinessError("PRICING_CATALOG_LOAD_FAILED", "Failed to load pricing catalog", err)
	}

	res, err := f.RecalculateWith(ctx, engine, recordID, saveHistory, reason, actor)
	if err != nil {
		return nil, err
	}

	channelID := res.Record.ChannelID
	if res.SalePriceChanged && engine.Catalog().IsCostReference(channelID) {
		channel := engine.Catalog().Channel(channelID)
		ev := models.NewSalePriceChangeEvent(channelID, res.Record.ProductID, reasonReferencePriceChanged(channel.Name), actor)
		if err := f.publisher.Publish(ctx, ev); err != nil {
			log.Printf("recalculation: failed to publish %s for record %d: %v", ev.Key(), recordID, err)
		}
	}
	return res, nil
}

func (f *RecalculationFlowImpl) RecalculateWith(ctx context.Context, engine *pricing.Engine, recordID uint, saveHistory bool, reason string, actor *string) (*RecalculationResult, error) {
	unlock, err := f.locker.Lock(ctx, recordID)
	if err != nil {
		recalculationsTotal.WithLabelValues("lock_failed").Inc()
		return nil, NewBusinessError("PRICE_RECORD_LOCK_FAILED", "Failed to lock price record", err)
	}
	defer unlock()

	var result *RecalculationResult
	err = f.tx.WithinTx(ctx, func(txCtx context.Context) error {
		res, err := f.recalculate(txCtx, engine, recordID, saveHistory, reason, actor)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		recalculationsTotal.WithLabelValues("failed").Inc()
		var be *BusinessError
		if errors.As(err, &be) {
			return nil, err
		}
		return nil, NewBusinessError("PRICE_RECALCULATION_FAILED", "Failed to recalculate price record", err)
	}

	recalculationsTotal.WithLabelValues("success").Inc()
	solverRounds.Observe(float64(result.Quote.Rounds()))
	if !result.Quote.Converged() {
		solverNotConverged.Inc()
		log.Printf("recalculation: record %d hit the solver round cap", recordID)
	}
	if result.HistoryWritten {
		historyEntriesTotal.Inc()
	}
	return result, nil
}

// recalculate runs inside the record's transaction: lock the row, snapshot
// the prior values, solve and persist.
func (f *RecalculationFlowImpl) recalculate(ctx context.Context, engine *pricing.Engine, recordID uint, saveHistory bool, reason string, actor *string) (*RecalculationResult, error) {
	record, err := f.priceRecordRepo.ByIDForUpdate(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, NewBusinessErrorf("PRICE_RECORD_NOT_FOUND", "Price record %d not found", ErrPriceRecordNotFound, recordID)
	}

	product, err := f.productRepo.ByIDWithLineItems(ctx, record.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, NewBusinessErrorf("PRODUCT_NOT_FOUND", "Product %d not found", ErrProductNotFound, record.ProductID)
	}

	catalog := engine.Catalog()
	channel := catalog.Channel(record.ChannelID)
	if channel == nil {
		return nil, NewBusinessErrorf("CHANNEL_NOT_FOUND", "Channel %d not found", ErrChannelNotFound, record.ChannelID)
	}

	quote, err := engine.Quote(product, channel, record)
	if err != nil {
		return nil, wrapValidation(err)
	}

	prior := *record
	next := *record
	quote.Apply(&next, utils.UTCNow())

	res := &RecalculationResult{
		Record:           &next,
		Previous:         &prior,
		Quote:            quote,
		SalePriceChanged: !prior.HasComputedValues() || !prior.SalePrice.Equal(next.SalePrice),
	}

	if saveHistory && f.shouldSnapshot(&prior, &next) {
		entry := newHistoryEntry(&prior, product, channel, catalog.GroupOf(channel), quote.Parameters, reason, actor)
		if err := f.historyRepo.Save(ctx, entry); err != nil {
			return nil, err
		}
		res.HistoryWritten = true
	}

	if err := f.priceRecordRepo.UpdateComputed(ctx, &next); err != nil {
		return nil, err
	}
	return res, nil
}

func (f *RecalculationFlowImpl) shouldSnapshot(prior, next *models.PriceRecord) bool {
	if !prior.HasComputedValues() {
		return false
	}
	if f.historyMode == HistoryOnChange {
		return !prior.ComputedEqual(next)
	}
	return true
}

func (f *RecalculationFlowImpl) History(ctx context.Context, recordID uint, limit, offset int) ([]*models.PriceHistory, error) {
	record, err := f.priceRecordRepo.ByID(ctx, recordID)
	if err != nil {
		return nil, NewBusinessError("PRICE_RECORD_LOOKUP_FAILED", "Failed to lookup price record", err)
	}
	if record == nil {
		return nil, NewBusinessErrorf("PRICE_RECORD_NOT_FOUND", "Price record %d not found", ErrPriceRecordNotFound, recordID)
	}
	rows, err := f.historyRepo.ListByRecord(ctx, recordID, limit, offset)
	if err != nil {
		return nil, NewBusinessError("PRICE_HISTORY_LIST_FAILED", "Failed to list price history", err)
	}
	return rows, nil
}

// newHistoryEntry snapshots the values a record held before recalculation
func newHistoryEntry(prior *models.PriceRecord, product *models.Product, channel *models.Channel, group *models.ChannelGroup, params pricing.Parameters, reason string, actor *string) *models.PriceHistory {
	entry := &models.PriceHistory{
		PriceRecordID:     prior.ID,
		ProductID:         prior.ProductID,
		ChannelID:         prior.ChannelID,
		ProductSKU:        product.SKU,
		ChannelName:       channel.Name,
		Percentages:       params.Percentages,
		AppliedFreight:    prior.AppliedFreight(),
		MarkupFreight:     params.MarkupFreight.Round(pricing.ReferencePrecision),
		MarkupSale:        params.MarkupSale.Round(pricing.ReferencePrecision),
		MarkupPromo:       params.MarkupPromo.Round(pricing.ReferencePrecision),
		MarkupMin:         params.MarkupMin.Round(pricing.ReferencePrecision),
		Cost:              prior.Cost,
		SalePrice:         prior.SalePrice,
		PromoPrice:        prior.PromoPrice,
		MinPrice:          prior.MinPrice,
		PromoPriceRounded: prior.PromoPriceRounded,
		MinPriceRounded:   prior.MinPriceRounded,
		Fee:               prior.Fee,
		Reason:            reason,
		Actor:             actor,
		CreatedAt:         utils.UTCNow(),
	}
	if group != nil {
		entry.GroupID = group.ID
		entry.GroupName = group.Name
	}
	return entry
}
