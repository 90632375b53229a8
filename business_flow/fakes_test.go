package businessflow

import (
	"context"
	"slices"
	"sync"

	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memStore backs every in-memory repository of a test. Reads return copies
// so flows never alias stored rows.
type memStore struct {
	mu       sync.Mutex
	nextID   uint
	groups   map[uint]models.ChannelGroup
	channels map[uint]models.Channel
	freight  map[uint]models.FreightTable
	fees     map[uint]models.FeeTable
	products map[uint]models.Product
	records  map[uint]models.PriceRecord
	history  []models.PriceHistory
}

func newMemStore() *memStore {
	return &memStore{
		nextID:   1000,
		groups:   map[uint]models.ChannelGroup{},
		channels: map[uint]models.Channel{},
		freight:  map[uint]models.FreightTable{},
		fees:     map[uint]models.FeeTable{},
		products: map[uint]models.Product{},
		records:  map[uint]models.PriceRecord{},
	}
}

func (s *memStore) id(current uint) uint {
	if current != 0 {
		return current
	}
	s.nextID++
	return s.nextID
}

func sortedKeys[V any](m map[uint]V) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Channel groups

type memGroupRepo struct{ s *memStore }

func (r memGroupRepo) ByID(_ context.Context, id uint) (*models.ChannelGroup, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.groups[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (r memGroupRepo) ByFilter(ctx context.Context, f models.ChannelGroupFilter, _ string, _, _ int) ([]*models.ChannelGroup, error) {
	all, _ := r.ListAll(ctx)
	var out []*models.ChannelGroup
	for _, g := range all {
		if f.ID != nil && g.ID != *f.ID {
			continue
		}
		if f.ReferenceChannelID != nil && (g.ReferenceChannelID == nil || *g.ReferenceChannelID != *f.ReferenceChannelID) {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func (r memGroupRepo) Save(_ context.Context, g *models.ChannelGroup) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g.ID = r.s.id(g.ID)
	if g.UUID == uuid.Nil {
		g.UUID = uuid.New()
	}
	r.s.groups[g.ID] = *g
	return nil
}

func (r memGroupRepo) SaveBatch(ctx context.Context, gs []*models.ChannelGroup) error {
	for _, g := range gs {
		_ = r.Save(ctx, g)
	}
	return nil
}

func (r memGroupRepo) Count(ctx context.Context, f models.ChannelGroupFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, f, "", 0, 0)
	return int64(len(rows)), nil
}

func (r memGroupRepo) Exists(ctx context.Context, f models.ChannelGroupFilter) (bool, error) {
	n, _ := r.Count(ctx, f)
	return n > 0, nil
}

func (r memGroupRepo) ListAll(_ context.Context) ([]*models.ChannelGroup, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.ChannelGroup, 0, len(r.s.groups))
	for _, id := range sortedKeys(r.s.groups) {
		g := r.s.groups[id]
		out = append(out, &g)
	}
	return out, nil
}

func (r memGroupRepo) ListBorrowingFrom(ctx context.Context, channelID uint) ([]*models.ChannelGroup, error) {
	return r.ByFilter(ctx, models.ChannelGroupFilter{ReferenceChannelID: &channelID}, "", 0, 0)
}

func (r memGroupRepo) Update(ctx context.Context, g *models.ChannelGroup) error {
	return r.Save(ctx, g)
}

func (r memGroupRepo) Delete(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.groups, id)
	return nil
}

// Channels

type memChannelRepo struct{ s *memStore }

func (r memChannelRepo) ByID(_ context.Context, id uint) (*models.Channel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.channels[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r memChannelRepo) ByFilter(ctx context.Context, f models.ChannelFilter, _ string, _, _ int) ([]*models.Channel, error) {
	all, _ := r.ListAll(ctx)
	var out []*models.Channel
	for _, c := range all {
		if f.ID != nil && c.ID != *f.ID {
			continue
		}
		if f.GroupID != nil && c.GroupID != *f.GroupID {
			continue
		}
		if f.FreightTableID != nil && (c.FreightTableID == nil || *c.FreightTableID != *f.FreightTableID) {
			continue
		}
		if f.FeeTableID != nil && (c.FeeTableID == nil || *c.FeeTableID != *f.FeeTableID) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r memChannelRepo) Save(_ context.Context, c *models.Channel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = r.s.id(c.ID)
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	row := *c
	row.Group = nil
	r.s.channels[c.ID] = row
	return nil
}

func (r memChannelRepo) SaveBatch(ctx context.Context, cs []*models.Channel) error {
	for _, c := range cs {
		_ = r.Save(ctx, c)
	}
	return nil
}

func (r memChannelRepo) Count(ctx context.Context, f models.ChannelFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, f, "", 0, 0)
	return int64(len(rows)), nil
}

func (r memChannelRepo) Exists(ctx context.Context, f models.ChannelFilter) (bool, error) {
	n, _ := r.Count(ctx, f)
	return n > 0, nil
}

func (r memChannelRepo) ListAll(_ context.Context) ([]*models.Channel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Channel, 0, len(r.s.channels))
	for _, id := range sortedKeys(r.s.channels) {
		c := r.s.channels[id]
		out = append(out, &c)
	}
	return out, nil
}

func (r memChannelRepo) ids(rows []*models.Channel) []uint {
	out := make([]uint, 0, len(rows))
	for _, c := range rows {
		out = append(out, c.ID)
	}
	return out
}

func (r memChannelRepo) ListIDsByGroups(ctx context.Context, groupIDs []uint) ([]uint, error) {
	var out []uint
	for _, gid := range groupIDs {
		rows, _ := r.ByFilter(ctx, models.ChannelFilter{GroupID: &gid}, "", 0, 0)
		out = append(out, r.ids(rows)...)
	}
	slices.Sort(out)
	return out, nil
}

func (r memChannelRepo) ListIDsByFreightTable(ctx context.Context, id uint) ([]uint, error) {
	rows, _ := r.ByFilter(ctx, models.ChannelFilter{FreightTableID: &id}, "", 0, 0)
	return r.ids(rows), nil
}

func (r memChannelRepo) ListIDsByFeeTable(ctx context.Context, id uint) ([]uint, error) {
	rows, _ := r.ByFilter(ctx, models.ChannelFilter{FeeTableID: &id}, "", 0, 0)
	return r.ids(rows), nil
}

func (r memChannelRepo) Update(ctx context.Context, c *models.Channel) error {
	return r.Save(ctx, c)
}

// Freight tables

type memFreightRepo struct{ s *memStore }

func (r memFreightRepo) ByID(_ context.Context, id uint) (*models.FreightTable, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.freight[id]
	if !ok {
		return nil, nil
	}
	t.MatrixRules, t.SimpleRules, t.SpecialRules, t.RatingDiscounts = nil, nil, nil, nil
	return &t, nil
}

func (r memFreightRepo) ByIDWithRules(_ context.Context, id uint) (*models.FreightTable, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.freight[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r memFreightRepo) ByFilter(ctx context.Context, f models.FreightTableFilter, _ string, _, _ int) ([]*models.FreightTable, error) {
	all, _ := r.ListAllWithRules(ctx)
	var out []*models.FreightTable
	for _, t := range all {
		if f.ID != nil && t.ID != *f.ID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r memFreightRepo) Save(_ context.Context, t *models.FreightTable) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t.ID = r.s.id(t.ID)
	if t.UUID == uuid.Nil {
		t.UUID = uuid.New()
	}
	r.s.freight[t.ID] = *t
	return nil
}

func (r memFreightRepo) SaveBatch(ctx context.Context, ts []*models.FreightTable) error {
	for _, t := range ts {
		_ = r.Save(ctx, t)
	}
	return nil
}

func (r memFreightRepo) Count(ctx context.Context, f models.FreightTableFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, f, "", 0, 0)
	return int64(len(rows)), nil
}

func (r memFreightRepo) Exists(ctx context.Context, f models.FreightTableFilter) (bool, error) {
	n, _ := r.Count(ctx, f)
	return n > 0, nil
}

func (r memFreightRepo) ListAllWithRules(_ context.Context) ([]*models.FreightTable, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.FreightTable, 0, len(r.s.freight))
	for _, id := range sortedKeys(r.s.freight) {
		t := r.s.freight[id]
		out = append(out, &t)
	}
	return out, nil
}

// Update keeps the stored rules, like the header-only update of the database repository
func (r memFreightRepo) Update(_ context.Context, t *models.FreightTable) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row := *t
	stored := r.s.freight[t.ID]
	row.MatrixRules, row.SimpleRules = stored.MatrixRules, stored.SimpleRules
	row.SpecialRules, row.RatingDiscounts = stored.SpecialRules, stored.RatingDiscounts
	r.s.freight[t.ID] = row
	return nil
}

func (r memFreightRepo) ReplaceRules(_ context.Context, t *models.FreightTable) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row := r.s.freight[t.ID]
	row.MatrixRules, row.SimpleRules = t.MatrixRules, t.SimpleRules
	row.SpecialRules, row.RatingDiscounts = t.SpecialRules, t.RatingDiscounts
	r.s.freight[t.ID] = row
	return nil
}

// Fee tables

type memFeeRepo struct{ s *memStore }

func (r memFeeRepo) ByID(_ context.Context, id uint) (*models.FeeTable, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.fees[id]
	if !ok {
		return nil, nil
	}
	t.Rules = nil
	return &t, nil
}

func (r memFeeRepo) ByIDWithRules(_ context.Context, id uint) (*models.FeeTable, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.fees[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r memFeeRepo) ByFilter(ctx context.Context, f models.FeeTableFilter, _ string, _, _ int) ([]*models.FeeTable, error) {
	all, _ := r.ListAllWithRules(ctx)
	var out []*models.FeeTable
	for _, t := range all {
		if f.ID != nil && t.ID != *f.ID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r memFeeRepo) Save(_ context.Context, t *models.FeeTable) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t.ID = r.s.id(t.ID)
	if t.UUID == uuid.Nil {
		t.UUID = uuid.New()
	}
	r.s.fees[t.ID] = *t
	return nil
}

func (r memFeeRepo) SaveBatch(ctx context.Context, ts []*models.FeeTable) error {
	for _, t := range ts {
		_ = r.Save(ctx, t)
	}
	return nil
}

func (r memFeeRepo) Count(ctx context.Context, f models.FeeTableFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, f, "", 0, 0)
	return int64(len(rows)), nil
}

func (r memFeeRepo) Exists(ctx context.Context, f models.FeeTableFilter) (bool, error) {
	n, _ := r.Count(ctx, f)
	return n > 0, nil
}

func (r memFeeRepo) ListAllWithRules(_ context.Context) ([]*models.FeeTable, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.FeeTable, 0, len(r.s.fees))
	for _, id := range sortedKeys(r.s.fees) {
		t := r.s.fees[id]
		out = append(out, &t)
	}
	return out, nil
}

func (r memFeeRepo) Update(_ context.Context, t *models.FeeTable) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row := *t
	row.Rules = r.s.fees[t.ID].Rules
	r.s.fees[t.ID] = row
	return nil
}

func (r memFeeRepo) ReplaceRules(_ context.Context, tableID uint, rules []models.FeeRule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row := r.s.fees[tableID]
	row.Rules = rules
	r.s.fees[tableID] = row
	return nil
}

// Products

type memProductRepo struct{ s *memStore }

func (r memProductRepo) ByID(_ context.Context, id uint) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	p.LineItems = nil
	return &p, nil
}

func (r memProductRepo) ByIDWithLineItems(_ context.Context, id uint) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r memProductRepo) BySKU(_ context.Context, sku string) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range sortedKeys(r.s.products) {
		if p := r.s.products[id]; p.SKU == sku {
			return &p, nil
		}
	}
	return nil, nil
}

func (r memProductRepo) ListWithLineItems(ctx context.Context, ids []uint) ([]*models.Product, error) {
	var out []*models.Product
	for _, id := range ids {
		if p, _ := r.ByIDWithLineItems(ctx, id); p != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memProductRepo) ByFilter(ctx context.Context, f models.ProductFilter, _ string, _, _ int) ([]*models.Product, error) {
	r.s.mu.Lock()
	ids := sortedKeys(r.s.products)
	r.s.mu.Unlock()
	var out []*models.Product
	for _, id := range ids {
		if f.ID != nil && id != *f.ID {
			continue
		}
		p, _ := r.ByID(ctx, id)
		out = append(out, p)
	}
	return out, nil
}

func (r memProductRepo) Save(_ context.Context, p *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p.ID = r.s.id(p.ID)
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	r.s.products[p.ID] = *p
	return nil
}

func (r memProductRepo) SaveBatch(ctx context.Context, ps []*models.Product) error {
	for _, p := range ps {
		_ = r.Save(ctx, p)
	}
	return nil
}

func (r memProductRepo) Count(ctx context.Context, f models.ProductFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, f, "", 0, 0)
	return int64(len(rows)), nil
}

func (r memProductRepo) Exists(ctx context.Context, f models.ProductFilter) (bool, error) {
	n, _ := r.Count(ctx, f)
	return n > 0, nil
}

func (r memProductRepo) Update(_ context.Context, p *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row := *p
	row.LineItems = r.s.products[p.ID].LineItems
	r.s.products[p.ID] = row
	return nil
}

func (r memProductRepo) ReplaceLineItems(_ context.Context, productID uint, items []models.LineItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row := r.s.products[productID]
	row.LineItems = items
	r.s.products[productID] = row
	return nil
}

// Price records

type memPriceRecordRepo struct{ s *memStore }

func (r memPriceRecordRepo) ByID(_ context.Context, id uint) (*models.PriceRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.records[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r memPriceRecordRepo) ByIDForUpdate(ctx context.Context, id uint) (*models.PriceRecord, error) {
	return r.ByID(ctx, id)
}

func (r memPriceRecordRepo) ByProductAndChannel(ctx context.Context, productID, channelID uint) (*models.PriceRecord, error) {
	rows, _ := r.ByFilter(ctx, models.PriceRecordFilter{ProductID: &productID, ChannelID: &channelID}, "", 0, 0)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r memPriceRecordRepo) ByFilter(_ context.Context, f models.PriceRecordFilter, _ string, _, _ int) ([]*models.PriceRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.PriceRecord
	for _, id := range sortedKeys(r.s.records) {
		rec := r.s.records[id]
		if f.ID != nil && rec.ID != *f.ID {
			continue
		}
		if f.ProductID != nil && rec.ProductID != *f.ProductID {
			continue
		}
		if f.ChannelID != nil && rec.ChannelID != *f.ChannelID {
			continue
		}
		if f.ChannelIDs != nil && !slices.Contains(f.ChannelIDs, rec.ChannelID) {
			continue
		}
		if f.Active != nil && rec.IsActive() != *f.Active {
			continue
		}
		out = append(out, &rec)
	}
	return out, nil
}

func (r memPriceRecordRepo) ListIDs(ctx context.Context, f models.PriceRecordFilter) ([]uint, error) {
	rows, _ := r.ByFilter(ctx, f, "", 0, 0)
	ids := make([]uint, 0, len(rows))
	for _, rec := range rows {
		ids = append(ids, rec.ID)
	}
	return ids, nil
}

func (r memPriceRecordRepo) Save(_ context.Context, rec *models.PriceRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec.ID = r.s.id(rec.ID)
	if rec.UUID == uuid.Nil {
		rec.UUID = uuid.New()
	}
	r.s.records[rec.ID] = *rec
	return nil
}

func (r memPriceRecordRepo) SaveBatch(ctx context.Context, recs []*models.PriceRecord) error {
	for _, rec := range recs {
		_ = r.Save(ctx, rec)
	}
	return nil
}

func (r memPriceRecordRepo) Count(ctx context.Context, f models.PriceRecordFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, f, "", 0, 0)
	return int64(len(rows)), nil
}

func (r memPriceRecordRepo) Exists(ctx context.Context, f models.PriceRecordFilter) (bool, error) {
	n, _ := r.Count(ctx, f)
	return n > 0, nil
}

func (r memPriceRecordRepo) UpdateManual(_ context.Context, rec *models.PriceRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := r.s.records[rec.ID]
	stored.Active = rec.Active
	stored.Automatic = rec.Automatic
	stored.ManualSalePrice = rec.ManualSalePrice
	stored.ManualPromoPrice = rec.ManualPromoPrice
	stored.ManualMinPrice = rec.ManualMinPrice
	stored.SpecificFreight = rec.SpecificFreight
	r.s.records[rec.ID] = stored
	return nil
}

func (r memPriceRecordRepo) UpdateComputed(ctx context.Context, rec *models.PriceRecord) error {
	return r.Save(ctx, rec)
}

// Price history

type memHistoryRepo struct{ s *memStore }

func (r memHistoryRepo) ByID(_ context.Context, id uint) (*models.PriceHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, h := range r.s.history {
		if h.ID == id {
			return &h, nil
		}
	}
	return nil, nil
}

// ByFilter returns newest first
func (r memHistoryRepo) ByFilter(_ context.Context, f models.PriceHistoryFilter, _ string, limit, offset int) ([]*models.PriceHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.PriceHistory
	for i := len(r.s.history) - 1; i >= 0; i-- {
		h := r.s.history[i]
		if f.PriceRecordID != nil && h.PriceRecordID != *f.PriceRecordID {
			continue
		}
		out = append(out, &h)
	}
	if offset > 0 {
		out = out[min(offset, len(out)):]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memHistoryRepo) ListByRecord(ctx context.Context, priceRecordID uint, limit, offset int) ([]*models.PriceHistory, error) {
	return r.ByFilter(ctx, models.PriceHistoryFilter{PriceRecordID: &priceRecordID}, "", limit, offset)
}

func (r memHistoryRepo) Save(_ context.Context, h *models.PriceHistory) error {
	if h.ID != 0 {
		return models.ErrPriceHistoryImmutable
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	h.ID = r.s.id(0)
	r.s.history = append(r.s.history, *h)
	return nil
}

func (r memHistoryRepo) SaveBatch(ctx context.Context, hs []*models.PriceHistory) error {
	for _, h := range hs {
		if err := r.Save(ctx, h); err != nil {
			return err
		}
	}
	return nil
}

func (r memHistoryRepo) Count(ctx context.Context, f models.PriceHistoryFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, f, "", 0, 0)
	return int64(len(rows)), nil
}

func (r memHistoryRepo) Exists(ctx context.Context, f models.PriceHistoryFilter) (bool, error) {
	n, _ := r.Count(ctx, f)
	return n > 0, nil
}

// Collaborators

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ChangeEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev models.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) kinds() []models.ChangeKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.ChangeKind, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Kind)
	}
	return out
}

// pricingEnv wires every flow over one memStore
type pricingEnv struct {
	store     *memStore
	publisher *recordingPublisher
	recalc    RecalculationFlow
	cascade   CascadeFlow
	catalog   CatalogFlow
	reports   PriceReportFlow
}

func newPricingEnv(mode HistoryMode) *pricingEnv {
	return newPricingEnvWithRecords(mode, nil)
}

// newPricingEnvWithRecords lets a test wrap the price record repository
func newPricingEnvWithRecords(mode HistoryMode, wrap func(repository.PriceRecordRepository) repository.PriceRecordRepository) *pricingEnv {
	s := newMemStore()
	pub := &recordingPublisher{}
	groups, channels := memGroupRepo{s}, memChannelRepo{s}
	freight, fees := memFreightRepo{s}, memFeeRepo{s}
	products, history := memProductRepo{s}, memHistoryRepo{s}
	var records repository.PriceRecordRepository = memPriceRecordRepo{s}
	if wrap != nil {
		records = wrap(records)
	}

	locker := NewLocalRecordLocker()
	loader := NewCatalogLoader(groups, channels, freight, fees)
	recalc := NewRecalculationFlow(records, products, history, loader, passthroughTx{}, locker, pub, mode)
	return &pricingEnv{
		store:     s,
		publisher: pub,
		recalc:    recalc,
		cascade:   NewCascadeFlow(recalc, loader, records, channels, 4),
		catalog:   NewCatalogFlow(groups, channels, freight, fees, products, records, loader, recalc, passthroughTx{}, locker, pub),
		reports:   NewPriceReportFlow(records, history, products, channels),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	v := dec(s)
	return &v
}

func boolPtr(v bool) *bool {
	return &v
}

// seed builds the reference catalog of most tests:
//
//	group 1 "own"      profit 50, own cost
//	group 2 "borrow"   profit 50, borrows cost from channel 10
//	channel 10 in group 1, fixed freight 0
//	channel 20 in group 2, fixed freight 0
//	channel 30 in group 1, freight table 7 (flat 10)
//	product 1 costing 50
//
// and one record per channel for product 1: 110, 120 and 130.
func (e *pricingEnv) seed() {
	s := e.store
	ref := uint(10)
	s.groups[1] = models.ChannelGroup{ID: 1, UUID: uuid.New(), Name: "own", IsDefault: true,
		CostStrategy: models.CostStrategyOwnCost, Percentages: models.Percentages{Profit: dec("50")}}
	s.groups[2] = models.ChannelGroup{ID: 2, UUID: uuid.New(), Name: "borrow",
		CostStrategy: models.CostStrategyReferenceChannel, ReferenceChannelID: &ref,
		Percentages: models.Percentages{Profit: dec("50")}}

	tableID := uint(7)
	s.freight[7] = models.FreightTable{ID: 7, UUID: uuid.New(), Name: "flat", Type: models.FreightTableByWeight,
		SimpleRules: []models.FreightSimpleRule{{ID: 1, Amount: dec("10")}}}

	s.channels[10] = models.Channel{ID: 10, UUID: uuid.New(), GroupID: 1, Name: "reference", FreightMode: models.FreightModeFixed}
	s.channels[20] = models.Channel{ID: 20, UUID: uuid.New(), GroupID: 2, Name: "borrower", FreightMode: models.FreightModeFixed}
	s.channels[30] = models.Channel{ID: 30, UUID: uuid.New(), GroupID: 1, Name: "tabled",
		FreightMode: models.FreightModeTable, FreightTableID: &tableID}

	s.products[1] = models.Product{ID: 1, UUID: uuid.New(), SKU: "SKU-1", Title: "Widget",
		Width: dec("10"), Height: dec("10"), Depth: dec("10"), PhysicalWeight: dec("1"),
		LineItems: []models.LineItem{{Type: models.LineItemTypeRawMaterial, Code: "RM-1", Quantity: dec("1"), UnitCost: dec("50"), Multiplier: dec("1")}}}

	s.records[110] = models.PriceRecord{ID: 110, UUID: uuid.New(), ProductID: 1, ChannelID: 10}
	s.records[120] = models.PriceRecord{ID: 120, UUID: uuid.New(), ProductID: 1, ChannelID: 20}
	s.records[130] = models.PriceRecord{ID: 130, UUID: uuid.New(), ProductID: 1, ChannelID: 30}
}

// record returns a copy of the stored record
func (e *pricingEnv) record(id uint) *models.PriceRecord {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	rec := e.store.records[id]
	return &rec
}

func (e *pricingEnv) historyCount() int {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	return len(e.store.history)
}

// computeAll prices every seeded record once without history
func (e *pricingEnv) computeAll(ctx context.Context) error {
	for _, id := range []uint{110, 120, 130} {
		if _, err := e.recalc.Recalculate(ctx, id, false, "seed", nil); err != nil {
			return err
		}
	}
	e.publisher.mu.Lock()
	e.publisher.events = nil
	e.publisher.mu.Unlock()
	return nil
}
