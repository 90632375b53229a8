package businessflow

import (
	"context"
	"fmt"

	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/pricing"
	"github.com/amirphl/Kusanagi/repository"
	"golang.org/x/sync/errgroup"
)

// CatalogLoader builds a pricing engine over the current catalog
type CatalogLoader interface {
	Load(ctx context.Context) (*pricing.Engine, error)
}

type repositoryCatalogLoader struct {
	groupRepo   repository.ChannelGroupRepository
	channelRepo repository.ChannelRepository
	freightRepo repository.FreightTableRepository
	feeRepo     repository.FeeTableRepository
}

// NewCatalogLoader reads groups, channels and rule tables in parallel.
// Load must not be called with a transaction in ctx.
func NewCatalogLoader(
	groupRepo repository.ChannelGroupRepository,
	channelRepo repository.ChannelRepository,
	freightRepo repository.FreightTableRepository,
	feeRepo repository.FeeTableRepository,
) CatalogLoader {
	return &repositoryCatalogLoader{
		groupRepo:   groupRepo,
		channelRepo: channelRepo,
		freightRepo: freightRepo,
		feeRepo:     feeRepo,
	}
}

func (l *repositoryCatalogLoader) Load(ctx context.Context) (*pricing.Engine, error) {
	var (
		groups        []*models.ChannelGroup
		channels      []*models.Channel
		freightTables []*models.FreightTable
		feeTables     []*models.FeeTable
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		groups, err = l.groupRepo.ListAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		channels, err = l.channelRepo.ListAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		freightTables, err = l.freightRepo.ListAllWithRules(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		feeTables, err = l.feeRepo.ListAllWithRules(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load pricing catalog: %w", err)
	}

	return pricing.NewEngine(pricing.NewCatalog(groups, channels, freightTables, feeTables)), nil
}
