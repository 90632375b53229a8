package businessflow

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/pricing"
	"github.com/amirphl/Kusanagi/repository"
	"github.com/amirphl/Kusanagi/utils"
	"golang.org/x/sync/errgroup"
)

// CascadeResult summarizes one cascade run
type CascadeResult struct {
	Recalculated    int
	Failed          int
	Waves           int
	FailedRecordIDs []uint
}

// CascadeFlow recalculates every price record affected by an upstream change
type CascadeFlow interface {
	CascadeFrom(ctx context.Context, event models.ChangeEvent) (*CascadeResult, error)
}

type CascadeFlowImpl struct {
	recalc          RecalculationFlow
	loader          CatalogLoader
	priceRecordRepo repository.PriceRecordRepository
	channelRepo     repository.ChannelRepository
	concurrency     int
}

func NewCascadeFlow(
	recalc RecalculationFlow,
	loader CatalogLoader,
	priceRecordRepo repository.PriceRecordRepository,
	channelRepo repository.ChannelRepository,
	concurrency int,
) CascadeFlow {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &CascadeFlowImpl{
		recalc:          recalc,
		loader:          loader,
		priceRecordRepo: priceRecordRepo,
		channelRepo:     channelRepo,
		concurrency:     concurrency,
	}
}

type cascadeItem struct {
	recordID uint
	reason   string
}

// referenceChange is a record whose sale price moved in a cost reference channel
type referenceChange struct {
	channelID uint
	productID uint
}

// CascadeFrom resolves the active records affected by event and recalculates
// each of them. Sale price moves in cost reference channels are followed in
// further waves; a record is recalculated at most once per run. Per-record
// failures are logged and counted and never abort the run.
func (f *CascadeFlowImpl) CascadeFrom(ctx context.Context, event models.ChangeEvent) (*CascadeResult, error) {
	if !event.Kind.Valid() {
		return nil, NewBusinessErrorf("INVALID_CHANGE_KIND", "Invalid change kind %q", ErrInvalidChangeKind, event.Kind)
	}
	start := time.Now()
	defer func() {
		cascadeDuration.WithLabelValues(string(event.Kind)).Observe(time.Since(start).Seconds())
	}()

	engine, err := f.loader.Load(ctx)
	if err != nil {
		return nil, NewBusinessError("PRICING_CATALOG_LOAD_FAILED", "Failed to load pricing catalog", err)
	}

	ids, err := f.affectedRecords(ctx, engine, event)
	if err != nil {
		return nil, NewBusinessError("CASCADE_RESOLVE_FAILED", "Failed to resolve affected price records", err)
	}

	result := &CascadeResult{}
	visited := make(map[uint]struct{})
	pending := make([]cascadeItem, 0, len(ids))
	for _, id := range ids {
		pending = append(pending, cascadeItem{recordID: id, reason: event.Reason})
	}

	for len(pending) > 0 {
		wave := make([]cascadeItem, 0, len(pending))
		for _, item := range pending {
			if _, seen := visited[item.recordID]; seen {
				continue
			}
			visited[item.recordID] = struct{}{}
			wave = append(wave, item)
		}
		if len(wave) == 0 {
			break
		}
		result.Waves++

		changes := f.runWave(ctx, engine, wave, event, result)
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		pending, err = f.followUps(ctx, engine, changes)
		if err != nil {
			log.Printf("cascade %s: failed to resolve reference follow-ups: %v", event.Key(), err)
			break
		}
	}

	sort.Slice(result.FailedRecordIDs, func(i, j int) bool { return result.FailedRecordIDs[i] < result.FailedRecordIDs[j] })
	log.Printf("cascade %s (%s): recalculated=%d failed=%d waves=%d", event.Key(), event.ID, result.Recalculated, result.Failed, result.Waves)
	return result, nil
}

// runWave recalculates the wave with bounded parallelism and returns the
// sale price moves in cost reference channels
func (f *CascadeFlowImpl) runWave(ctx context.Context, engine *pricing.Engine, wave []cascadeItem, event models.ChangeEvent, result *CascadeResult) []referenceChange {
	var (
		mu      sync.Mutex
		changes []referenceChange
	)
	kind := string(event.Kind)
	catalog := engine.Catalog()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for _, item := range wave {
		g.Go(func() error {
			id := item.recordID
			res, err := f.recalc.RecalculateWith(gctx, engine, id, true, item.reason, event.Actor)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				result.FailedRecordIDs = append(result.FailedRecordIDs, id)
				cascadeRecords.WithLabelValues(kind, "failed").Inc()
				log.Printf("cascade %s: record %d failed: %v", event.Key(), id, err)
				return nil
			}
			result.Recalculated++
			cascadeRecords.WithLabelValues(kind, "success").Inc()
			if res.SalePriceChanged && catalog.IsCostReference(res.Record.ChannelID) {
				changes = append(changes, referenceChange{channelID: res.Record.ChannelID, productID: res.Record.ProductID})
			}
			return nil
		})
	}
	_ = g.Wait()
	return changes
}

// followUps resolves the records that borrow cost from moved reference records
func (f *CascadeFlowImpl) followUps(ctx context.Context, engine *pricing.Engine, changes []referenceChange) ([]cascadeItem, error) {
	sort.Slice(changes, func(i, j int) bool {
		if changes[i].channelID != changes[j].channelID {
			return changes[i].channelID < changes[j].channelID
		}
		return changes[i].productID < changes[j].productID
	})

	var items []cascadeItem
	for _, c := range changes {
		ids, err := f.borrowingRecords(ctx, engine, c.channelID, c.productID)
		if err != nil {
			return nil, err
		}
		reason := reasonReferencePriceChanged(engine.Catalog().Channel(c.channelID).Name)
		for _, id := range ids {
			items = append(items, cascadeItem{recordID: id, reason: reason})
		}
	}
	return items, nil
}

// affectedRecords maps a change event to the IDs of active records to recalculate
func (f *CascadeFlowImpl) affectedRecords(ctx context.Context, engine *pricing.Engine, event models.ChangeEvent) ([]uint, error) {
	active := utils.ToPtr(true)
	var channelIDs []uint
	var err error

	switch event.Kind {
	case models.ChangeFreightTable:
		channelIDs, err = f.channelRepo.ListIDsByFreightTable(ctx, event.EntityID)
	case models.ChangeFeeTable:
		channelIDs, err = f.channelRepo.ListIDsByFeeTable(ctx, event.EntityID)
	case models.ChangeChannelGroup:
		channelIDs, err = f.channelRepo.ListIDsByGroups(ctx, []uint{event.EntityID})
	case models.ChangeChannel:
		channelIDs = []uint{event.EntityID}
	case models.ChangeProduct:
		return f.priceRecordRepo.ListIDs(ctx, models.PriceRecordFilter{ProductID: &event.EntityID, Active: active})
	case models.ChangeSalePrice:
		if event.ProductID == nil {
			return nil, fmt.Errorf("sale price change of channel %d carries no product", event.EntityID)
		}
		return f.borrowingRecords(ctx, engine, event.EntityID, *event.ProductID)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidChangeKind, event.Kind)
	}
	if err != nil {
		return nil, err
	}
	if len(channelIDs) == 0 {
		return nil, nil
	}
	return f.priceRecordRepo.ListIDs(ctx, models.PriceRecordFilter{ChannelIDs: channelIDs, Active: active})
}

// borrowingRecords lists the product's active records in every channel whose
// group borrows cost from referenceID
func (f *CascadeFlowImpl) borrowingRecords(ctx context.Context, engine *pricing.Engine, referenceID, productID uint) ([]uint, error) {
	borrowers := engine.Catalog().BorrowingChannels(referenceID)
	if len(borrowers) == 0 {
		return nil, nil
	}
	channelIDs := make([]uint, 0, len(borrowers))
	for _, ch := range borrowers {
		channelIDs = append(channelIDs, ch.ID)
	}
	return f.priceRecordRepo.ListIDs(ctx, models.PriceRecordFilter{
		ProductID:  &productID,
		ChannelIDs: channelIDs,
		Active:     utils.ToPtr(true),
	})
}
