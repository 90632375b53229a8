package businessflow

import (
	"context"
	"log"
	"strings"

	"github.com/amirphl/Kusanagi/app/dto"
	"github.com/amirphl/Kusanagi/app/services"
	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/pricing"
	"github.com/amirphl/Kusanagi/repository"
	"github.com/amirphl/Kusanagi/utils"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// CatalogFlow mutates pricing reference data. Every committed update of an
// entity that feeds prices publishes a change event for the cascade worker.
type CatalogFlow interface {
	SaveChannelGroup(ctx context.Context, req *dto.SaveChannelGroupRequest) (*dto.CatalogMutationResponse, error)
	DeleteChannelGroup(ctx context.Context, id uint) error
	SaveChannel(ctx context.Context, req *dto.SaveChannelRequest) (*dto.CatalogMutationResponse, error)
	SaveFreightTable(ctx context.Context, req *dto.SaveFreightTableRequest) (*dto.CatalogMutationResponse, error)
	SaveFeeTable(ctx context.Context, req *dto.SaveFeeTableRequest) (*dto.CatalogMutationResponse, error)
	SaveProduct(ctx context.Context, req *dto.SaveProductRequest) (*dto.CatalogMutationResponse, error)
	ActivateProduct(ctx context.Context, req *dto.ActivateProductRequest) (*dto.RecalculateRecordResponse, error)
	UpdatePriceRecord(ctx context.Context, req *dto.UpdatePriceRecordRequest) (*dto.RecalculateRecordResponse, error)
}

type CatalogFlowImpl struct {
	groupRepo       repository.ChannelGroupRepository
	channelRepo     repository.ChannelRepository
	freightRepo     repository.FreightTableRepository
	feeRepo         repository.FeeTableRepository
	productRepo     repository.ProductRepository
	priceRecordRepo repository.PriceRecordRepository
	loader          CatalogLoader
	recalc          RecalculationFlow
	tx              Transactor
	locker          RecordLocker
	publisher       services.EventPublisher
	validate        *validator.Validate
}

func NewCatalogFlow(
	groupRepo repository.ChannelGroupRepository,
	channelRepo repository.ChannelRepository,
	freightRepo repository.FreightTableRepository,
	feeRepo repository.FeeTableRepository,
	productRepo repository.ProductRepository,
	priceRecordRepo repository.PriceRecordRepository,
	loader CatalogLoader,
	recalc RecalculationFlow,
	tx Transactor,
	locker RecordLocker,
	publisher services.EventPublisher,
) CatalogFlow {
	if locker == nil {
		locker = NewLocalRecordLocker()
	}
	if publisher == nil {
		publisher = services.NoopEventPublisher{}
	}
	return &CatalogFlowImpl{
		groupRepo:       groupRepo,
		channelRepo:     channelRepo,
		freightRepo:     freightRepo,
		feeRepo:         feeRepo,
		productRepo:     productRepo,
		priceRecordRepo: priceRecordRepo,
		loader:          loader,
		recalc:          recalc,
		tx:              tx,
		locker:          locker,
		publisher:       publisher,
		validate:        validator.New(),
	}
}

// SaveChannelGroup creates or updates a group. Updates are checked against the
// effective percentages of the group's channels and for cost reference cycles
// before they are written.
func (f *CatalogFlowImpl) SaveChannelGroup(ctx context.Context, req *dto.SaveChannelGroupRequest) (*dto.CatalogMutationResponse, error) {
	if err := f.validate.Struct(req); err != nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Channel group validation failed", err)
	}

	group := &models.ChannelGroup{}
	if req.ID != 0 {
		existing, err := f.groupRepo.ByID(ctx, req.ID)
		if err != nil {
			return nil, NewBusinessError("CHANNEL_GROUP_LOOKUP_FAILED", "Failed to lookup channel group", err)
		}
		if existing == nil {
			return nil, NewBusinessErrorf("CHANNEL_GROUP_NOT_FOUND", "Channel group %d not found", ErrChannelGroupNotFound, req.ID)
		}
		group = existing
	}

	group.Name = strings.TrimSpace(req.Name)
	group.Description = req.Description
	group.IsDefault = req.IsDefault
	group.Percentages = toPercentages(req.Percentages)
	group.CostStrategy = req.CostStrategy
	if group.CostStrategy == "" {
		group.CostStrategy = models.CostStrategyOwnCost
	}
	group.ReferenceChannelID = nil
	if group.CostStrategy == models.CostStrategyReferenceChannel {
		if req.ReferenceChannelID == nil {
			return nil, NewBusinessError("REFERENCE_CHANNEL_REQUIRED", "Reference channel is required", ErrReferenceChannelMissing)
		}
		group.ReferenceChannelID = req.ReferenceChannelID
	}

	if err := pricing.ValidateGroup(group); err != nil {
		return nil, wrapValidation(err)
	}
	if group.ID != 0 {
		channels, err := f.channelRepo.ByFilter(ctx, models.ChannelFilter{GroupID: &group.ID}, "", 0, 0)
		if err != nil {
			return nil, NewBusinessError("CHANNEL_LOOKUP_FAILED", "Failed to lookup channels of group", err)
		}
		for _, ch := range channels {
			if err := pricing.ValidateChannel(ch, group); err != nil {
				return nil, wrapValidation(err)
			}
		}
	}

	if group.ReferenceChannelID != nil {
		engine, err := f.loader.Load(ctx)
		if err != nil {
			return nil, NewBusinessError("PRICING_CATALOG_LOAD_FAILED", "Failed to load pricing catalog", err)
		}
		if engine.Catalog().Channel(*group.ReferenceChannelID) == nil {
			return nil, NewBusinessErrorf("CHANNEL_NOT_FOUND", "Reference channel %d not found", ErrChannelNotFound, *group.ReferenceChannelID)
		}
		if group.ID != 0 {
			if err := engine.Catalog().WithGroup(group).CheckReferences(); err != nil {
				return nil, wrapValidation(err)
			}
		}
	}

	isUpdate := group.ID != 0
	err := f.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if isUpdate {
			return f.groupRepo.Update(txCtx, group)
		}
		return f.groupRepo.Save(txCtx, group)
	})
	if err != nil {
		return nil, NewBusinessError("CHANNEL_GROUP_SAVE_FAILED", "Failed to save channel group", err)
	}

	cascaded := false
	if isUpdate {
		cascaded = f.publish(ctx, models.NewChangeEvent(models.ChangeChannelGroup, group.ID, reasonGroupUpdated(group.Name), req.Actor))
	}
	return &dto.CatalogMutationResponse{
		Message:  "Channel group saved successfully",
		ID:       group.ID,
		UUID:     group.UUID.String(),
		Cascaded: cascaded,
	}, nil
}

// DeleteChannelGroup removes an empty, non-default group
func (f *CatalogFlowImpl) DeleteChannelGroup(ctx context.Context, id uint) error {
	group, err := f.groupRepo.ByID(ctx, id)
	if err != nil {
		return NewBusinessError("CHANNEL_GROUP_LOOKUP_FAILED", "Failed to lookup channel group", err)
	}
	if group == nil {
		return NewBusinessErrorf("CHANNEL_GROUP_NOT_FOUND", "Channel group %d not found", ErrChannelGroupNotFound, id)
	}
	if group.IsDefault {
		return NewBusinessError("DEFAULT_GROUP_UNDELETABLE", "Default channel group cannot be deleted", ErrDefaultGroupUndeletable)
	}

	hasChannels, err := f.channelRepo.Exists(ctx, models.ChannelFilter{GroupID: &id})
	if err != nil {
		return NewBusinessError("CHANNEL_LOOKUP_FAILED", "Failed to lookup channels", err)
	}
	if hasChannels {
		return NewBusinessError("CHANNEL_GROUP_NOT_EMPTY", "Channel group still has channels", ErrGroupHasChannels)
	}

	if err := f.groupRepo.Delete(ctx, id); err != nil {
		return NewBusinessError("CHANNEL_GROUP_DELETE_FAILED", "Failed to delete channel group", err)
	}
	return nil
}

func (f *CatalogFlowImpl) SaveChannel(ctx context.Context, req *dto.SaveChannelRequest) (*dto.CatalogMutationResponse, error) {
	if err := f.validate.Struct(req); err != nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Channel validation failed", err)
	}

	group, err := f.groupRepo.ByID(ctx, req.GroupID)
	if err != nil {
		return nil, NewBusinessError("CHANNEL_GROUP_LOOKUP_FAILED", "Failed to lookup channel group", err)
	}
	if group == nil {
		return nil, NewBusinessErrorf("CHANNEL_GROUP_NOT_FOUND", "Channel group %d not found", ErrChannelGroupNotFound, req.GroupID)
	}
	if err := f.ensureTablesExist(ctx, req.FreightTableID, req.FeeTableID); err != nil {
		return nil, err
	}

	channel := &models.Channel{}
	if req.ID != 0 {
		existing, err := f.channelRepo.ByID(ctx, req.ID)
		if err != nil {
			return nil, NewBusinessError("CHANNEL_LOOKUP_FAILED", "Failed to lookup channel", err)
		}
		if existing == nil {
			return nil, NewBusinessErrorf("CHANNEL_NOT_FOUND", "Channel %d not found", ErrChannelNotFound, req.ID)
		}
		channel = existing
	}

	channel.GroupID = group.ID
	channel.Group = group
	channel.Name = strings.TrimSpace(req.Name)
	channel.Description = req.Description
	channel.Active = boolOr(req.Active, true)
	channel.InheritsGroup = boolOr(req.InheritsGroup, true)
	channel.Overrides = toOverrides(req.Overrides)
	channel.FreightMode = req.FreightMode
	channel.FixedFreight = req.FixedFreight
	channel.FreightTableID = req.FreightTableID
	channel.FeeTableID = req.FeeTableID
	channel.SellerRating = req.SellerRating
	channel.SellerScore = req.SellerScore

	if err := pricing.ValidateChannel(channel, group); err != nil {
		return nil, wrapValidation(err)
	}

	isUpdate := channel.ID != 0
	if isUpdate {
		engine, err := f.loader.Load(ctx)
		if err != nil {
			return nil, NewBusinessError("PRICING_CATALOG_LOAD_FAILED", "Failed to load pricing catalog", err)
		}
		if err := engine.Catalog().WithGroup(group).WithChannel(channel).CheckReferences(); err != nil {
			return nil, wrapValidation(err)
		}
	}

	err = f.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if isUpdate {
			return f.channelRepo.Update(txCtx, channel)
		}
		return f.channelRepo.Save(txCtx, channel)
	})
	if err != nil {
		return nil, NewBusinessError("CHANNEL_SAVE_FAILED", "Failed to save channel", err)
	}

	cascaded := false
	if isUpdate {
		cascaded = f.publish(ctx, models.NewChangeEvent(models.ChangeChannel, channel.ID, reasonChannelUpdated(channel.Name), req.Actor))
	}
	return &dto.CatalogMutationResponse{
		Message:  "Channel saved successfully",
		ID:       channel.ID,
		UUID:     channel.UUID.String(),
		Cascaded: cascaded,
	}, nil
}

func (f *CatalogFlowImpl) SaveFreightTable(ctx context.Context, req *dto.SaveFreightTableRequest) (*dto.CatalogMutationResponse, error) {
	if err := f.validate.Struct(req); err != nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Freight table validation failed", err)
	}
	for _, rd := range req.RatingDiscounts {
		if rd.DiscountPercent.IsNegative() || rd.DiscountPercent.GreaterThan(pricing.Hundred) {
			return nil, NewBusinessErrorf("RATING_DISCOUNT_OUT_OF_RANGE", "Discount for rating %d must be within [0, 100]", ErrPercentageOutOfRange, rd.Rating)
		}
	}

	table := &models.FreightTable{}
	if req.ID != 0 {
		existing, err := f.freightRepo.ByID(ctx, req.ID)
		if err != nil {
			return nil, NewBusinessError("FREIGHT_TABLE_LOOKUP_FAILED", "Failed to lookup freight table", err)
		}
		if existing == nil {
			return nil, NewBusinessErrorf("FREIGHT_TABLE_NOT_FOUND", "Freight table %d not found", ErrFreightTableNotFound, req.ID)
		}
		table = existing
	}

	table.Name = strings.TrimSpace(req.Name)
	table.Type = models.FreightTableType(req.Type)
	table.Description = req.Description
	table.Active = boolOr(req.Active, true)
	table.AddOnEnabled = req.AddOnEnabled
	table.AddOnAmount = req.AddOnAmount
	table.OversizeEnabled = req.OversizeEnabled
	table.UsePromoPrice = req.UsePromoPrice
	table.SupportsRatingDiscount = req.SupportsRatingDiscount
	table.MatrixRules = toMatrixRules(req.MatrixRules)
	table.SimpleRules = toSimpleRules(req.SimpleRules)
	table.SpecialRules = toSpecialRules(req.SpecialRules)
	table.RatingDiscounts = toRatingDiscounts(req.RatingDiscounts)

	isUpdate := table.ID != 0
	err := f.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if !isUpdate {
			return f.freightRepo.Save(txCtx, table)
		}
		if err := f.freightRepo.Update(txCtx, table); err != nil {
			return err
		}
		return f.freightRepo.ReplaceRules(txCtx, table)
	})
	if err != nil {
		return nil, NewBusinessError("FREIGHT_TABLE_SAVE_FAILED", "Failed to save freight table", err)
	}

	cascaded := false
	if isUpdate {
		cascaded = f.publish(ctx, models.NewChangeEvent(models.ChangeFreightTable, table.ID, reasonFreightTableUpdated(table.Name), req.Actor))
	}
	return &dto.CatalogMutationResponse{
		Message:  "Freight table saved successfully",
		ID:       table.ID,
		UUID:     table.UUID.String(),
		Cascaded: cascaded,
	}, nil
}

func (f *CatalogFlowImpl) SaveFeeTable(ctx context.Context, req *dto.SaveFeeTableRequest) (*dto.CatalogMutationResponse, error) {
	if err := f.validate.Struct(req); err != nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Fee table validation failed", err)
	}

	table := &models.FeeTable{}
	if req.ID != 0 {
		existing, err := f.feeRepo.ByID(ctx, req.ID)
		if err != nil {
			return nil, NewBusinessError("FEE_TABLE_LOOKUP_FAILED", "Failed to lookup fee table", err)
		}
		if existing == nil {
			return nil, NewBusinessErrorf("FEE_TABLE_NOT_FOUND", "Fee table %d not found", ErrFeeTableNotFound, req.ID)
		}
		table = existing
	}

	table.Name = strings.TrimSpace(req.Name)
	table.Active = boolOr(req.Active, true)
	rules := toFeeRules(req.Rules)

	isUpdate := table.ID != 0
	err := f.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if !isUpdate {
			table.Rules = rules
			return f.feeRepo.Save(txCtx, table)
		}
		if err := f.feeRepo.Update(txCtx, table); err != nil {
			return err
		}
		return f.feeRepo.ReplaceRules(txCtx, table.ID, rules)
	})
	if err != nil {
		return nil, NewBusinessError("FEE_TABLE_SAVE_FAILED", "Failed to save fee table", err)
	}

	cascaded := false
	if isUpdate {
		cascaded = f.publish(ctx, models.NewChangeEvent(models.ChangeFeeTable, table.ID, reasonFeeTableUpdated(table.Name), req.Actor))
	}
	return &dto.CatalogMutationResponse{
		Message:  "Fee table saved successfully",
		ID:       table.ID,
		UUID:     table.UUID.String(),
		Cascaded: cascaded,
	}, nil
}

func (f *CatalogFlowImpl) SaveProduct(ctx context.Context, req *dto.SaveProductRequest) (*dto.CatalogMutationResponse, error) {
	if err := f.validate.Struct(req); err != nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Product validation failed", err)
	}

	sku := strings.TrimSpace(req.SKU)
	other, err := f.productRepo.BySKU(ctx, sku)
	if err != nil {
		return nil, NewBusinessError("PRODUCT_LOOKUP_FAILED", "Failed to lookup product", err)
	}
	if other != nil && other.ID != req.ID {
		return nil, NewBusinessErrorf("SKU_ALREADY_EXISTS", "SKU %s already exists", ErrSKUAlreadyExists, sku)
	}

	product := &models.Product{}
	if req.ID != 0 {
		existing, err := f.productRepo.ByID(ctx, req.ID)
		if err != nil {
			return nil, NewBusinessError("PRODUCT_LOOKUP_FAILED", "Failed to lookup product", err)
		}
		if existing == nil {
			return nil, NewBusinessErrorf("PRODUCT_NOT_FOUND", "Product %d not found", ErrProductNotFound, req.ID)
		}
		product = existing
	}

	product.SKU = sku
	product.Title = strings.TrimSpace(req.Title)
	product.EAN = req.EAN
	product.Width = req.Width
	product.Height = req.Height
	product.Depth = req.Depth
	product.PhysicalWeight = req.PhysicalWeight
	product.Active = boolOr(req.Active, true)
	items := toLineItems(req.LineItems)

	if err := pricing.ValidateProduct(product); err != nil {
		return nil, wrapValidation(err)
	}

	isUpdate := product.ID != 0
	err = f.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if !isUpdate {
			product.LineItems = items
			return f.productRepo.Save(txCtx, product)
		}
		if err := f.productRepo.Update(txCtx, product); err != nil {
			return err
		}
		return f.productRepo.ReplaceLineItems(txCtx, product.ID, items)
	})
	if err != nil {
		return nil, NewBusinessError("PRODUCT_SAVE_FAILED", "Failed to save product", err)
	}

	cascaded := false
	if isUpdate {
		cascaded = f.publish(ctx, models.NewChangeEvent(models.ChangeProduct, product.ID, reasonProductUpdated(product.SKU), req.Actor))
	}
	return &dto.CatalogMutationResponse{
		Message:  "Product saved successfully",
		ID:       product.ID,
		UUID:     product.UUID.String(),
		Cascaded: cascaded,
	}, nil
}

// ActivateProduct creates or reactivates the record of a product in a channel
// and computes it right away without a history snapshot.
func (f *CatalogFlowImpl) ActivateProduct(ctx context.Context, req *dto.ActivateProductRequest) (*dto.RecalculateRecordResponse, error) {
	if err := f.validate.Struct(req); err != nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Activation validation failed", err)
	}

	product, err := f.productRepo.ByID(ctx, req.ProductID)
	if err != nil {
		return nil, NewBusinessError("PRODUCT_LOOKUP_FAILED", "Failed to lookup product", err)
	}
	if product == nil {
		return nil, NewBusinessErrorf("PRODUCT_NOT_FOUND", "Product %d not found", ErrProductNotFound, req.ProductID)
	}
	channel, err := f.channelRepo.ByID(ctx, req.ChannelID)
	if err != nil {
		return nil, NewBusinessError("CHANNEL_LOOKUP_FAILED", "Failed to lookup channel", err)
	}
	if channel == nil {
		return nil, NewBusinessErrorf("CHANNEL_NOT_FOUND", "Channel %d not found", ErrChannelNotFound, req.ChannelID)
	}

	var record *models.PriceRecord
	err = f.tx.WithinTx(ctx, func(txCtx context.Context) error {
		existing, err := f.priceRecordRepo.ByProductAndChannel(txCtx, product.ID, channel.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			record = existing
			return nil
		}
		record = &models.PriceRecord{
			ProductID: product.ID,
			ChannelID: channel.ID,
			Active:    utils.ToPtr(true),
			Automatic: utils.ToPtr(true),
		}
		return f.priceRecordRepo.Save(txCtx, record)
	})
	if err != nil {
		return nil, NewBusinessError("PRICE_RECORD_SAVE_FAILED", "Failed to activate product in channel", err)
	}

	if !record.IsActive() {
		_, err = f.updateManual(ctx, record.ID, func(r *models.PriceRecord) error {
			r.Active = utils.ToPtr(true)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	res, err := f.recalc.Recalculate(ctx, record.ID, false, reasonRecordActivated, req.Actor)
	if err != nil {
		return nil, err
	}
	return ToRecalculateResponse("Product activated successfully", res), nil
}

// UpdatePriceRecord applies manual prices and overrides, then recalculates the
// record when it stays active
func (f *CatalogFlowImpl) UpdatePriceRecord(ctx context.Context, req *dto.UpdatePriceRecordRequest) (*dto.RecalculateRecordResponse, error) {
	if err := f.validate.Struct(req); err != nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Price record validation failed", err)
	}

	record, err := f.updateManual(ctx, req.ID, func(r *models.PriceRecord) error {
		if req.Active != nil {
			r.Active = req.Active
		}
		if req.Automatic != nil {
			r.Automatic = req.Automatic
		}
		if req.ManualSalePrice != nil {
			r.ManualSalePrice = req.ManualSalePrice
		}
		if req.ManualPromoPrice != nil {
			r.ManualPromoPrice = req.ManualPromoPrice
		}
		if req.ManualMinPrice != nil {
			r.ManualMinPrice = req.ManualMinPrice
		}
		if req.ClearSpecificFreight {
			r.SpecificFreight = nil
		} else if req.SpecificFreight != nil {
			r.SpecificFreight = req.SpecificFreight
		}
		return pricing.ValidateRecord(r)
	})
	if err != nil {
		return nil, err
	}

	if !record.IsActive() {
		return &dto.RecalculateRecordResponse{
			Message:   "Price record deactivated",
			Record:    ToPriceRecordItem(record),
			Converged: true,
		}, nil
	}

	res, err := f.recalc.Recalculate(ctx, record.ID, true, reasonRecordUpdated, req.Actor)
	if err != nil {
		return nil, err
	}
	return ToRecalculateResponse("Price record updated successfully", res), nil
}

// updateManual edits the operator-owned fields of a record under the record
// lock and row lock that recalculations take. Cached solver output is never written here.
func (f *CatalogFlowImpl) updateManual(ctx context.Context, recordID uint, mutate func(*models.PriceRecord) error) (*models.PriceRecord, error) {
	unlock, err := f.locker.Lock(ctx, recordID)
	if err != nil {
		return nil, NewBusinessError("PRICE_RECORD_LOCK_FAILED", "Failed to lock price record", err)
	}
	defer unlock()

	var record *models.PriceRecord
	err = f.tx.WithinTx(ctx, func(txCtx context.Context) error {
		row, err := f.priceRecordRepo.ByIDForUpdate(txCtx, recordID)
		if err != nil {
			return NewBusinessError("PRICE_RECORD_LOOKUP_FAILED", "Failed to lookup price record", err)
		}
		if row == nil {
			return NewBusinessErrorf("PRICE_RECORD_NOT_FOUND", "Price record %d not found", ErrPriceRecordNotFound, recordID)
		}
		if err := mutate(row); err != nil {
			return wrapValidation(err)
		}
		if err := f.priceRecordRepo.UpdateManual(txCtx, row); err != nil {
			return NewBusinessError("PRICE_RECORD_SAVE_FAILED", "Failed to save price record", err)
		}
		record = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (f *CatalogFlowImpl) ensureTablesExist(ctx context.Context, freightTableID, feeTableID *uint) error {
	if freightTableID != nil {
		ok, err := f.freightRepo.Exists(ctx, models.FreightTableFilter{ID: freightTableID})
		if err != nil {
			return NewBusinessError("FREIGHT_TABLE_LOOKUP_FAILED", "Failed to lookup freight table", err)
		}
		if !ok {
			return NewBusinessErrorf("FREIGHT_TABLE_NOT_FOUND", "Freight table %d not found", ErrFreightTableNotFound, *freightTableID)
		}
	}
	if feeTableID != nil {
		ok, err := f.feeRepo.Exists(ctx, models.FeeTableFilter{ID: feeTableID})
		if err != nil {
			return NewBusinessError("FEE_TABLE_LOOKUP_FAILED", "Failed to lookup fee table", err)
		}
		if !ok {
			return NewBusinessErrorf("FEE_TABLE_NOT_FOUND", "Fee table %d not found", ErrFeeTableNotFound, *feeTableID)
		}
	}
	return nil
}

// publish sends a committed change; a failed publish is logged, the mutation stands
func (f *CatalogFlowImpl) publish(ctx context.Context, ev models.ChangeEvent) bool {
	if err := f.publisher.Publish(ctx, ev); err != nil {
		log.Printf("catalog: failed to publish %s (%s): %v", ev.Key(), ev.Reason, err)
		return false
	}
	return true
}

func boolOr(v *bool, def bool) *bool {
	if v == nil {
		return utils.ToPtr(def)
	}
	return utils.ToPtr(*v)
}

func toPercentages(in dto.PercentagesInput) models.Percentages {
	return models.Percentages{
		Tax:           in.Tax,
		OperatingFee:  in.OperatingFee,
		Profit:        in.Profit,
		PromoDiscount: in.PromoDiscount,
		MinDiscount:   in.MinDiscount,
		Ads:           in.Ads,
		Commission:    in.Commission,
	}
}

func toOverrides(in dto.PercentageOverridesInput) models.PercentageOverrides {
	return models.PercentageOverrides{
		Tax:           in.Tax,
		OperatingFee:  in.OperatingFee,
		Profit:        in.Profit,
		PromoDiscount: in.PromoDiscount,
		MinDiscount:   in.MinDiscount,
		Ads:           in.Ads,
		Commission:    in.Commission,
	}
}

func toMatrixRules(in []dto.FreightMatrixRuleInput) []models.FreightMatrixRule {
	out := make([]models.FreightMatrixRule, 0, len(in))
	for _, r := range in {
		out = append(out, models.FreightMatrixRule{
			Order:       r.Order,
			Oversize:    r.Oversize,
			WeightStart: r.WeightStart,
			WeightEnd:   r.WeightEnd,
			PriceStart:  r.PriceStart,
			PriceEnd:    r.PriceEnd,
			ScoreStart:  r.ScoreStart,
			ScoreEnd:    r.ScoreEnd,
			Amount:      r.Amount,
			Active:      boolOr(r.Active, true),
		})
	}
	return out
}

func toSimpleRules(in []dto.FreightSimpleRuleInput) []models.FreightSimpleRule {
	out := make([]models.FreightSimpleRule, 0, len(in))
	for _, r := range in {
		out = append(out, models.FreightSimpleRule{
			Order:    r.Order,
			Oversize: r.Oversize,
			Start:    r.Start,
			End:      r.End,
			Amount:   r.Amount,
			Active:   boolOr(r.Active, true),
		})
	}
	return out
}

func toSpecialRules(in []dto.FreightSpecialRuleInput) []models.FreightSpecialRule {
	out := make([]models.FreightSpecialRule, 0, len(in))
	for _, r := range in {
		out = append(out, models.FreightSpecialRule{
			Order:     r.Order,
			Name:      r.Name,
			MinWidth:  r.MinWidth,
			MinHeight: r.MinHeight,
			MinDepth:  r.MinDepth,
			MinWeight: r.MinWeight,
			Amount:    r.Amount,
			Active:    boolOr(r.Active, true),
		})
	}
	return out
}

func toRatingDiscounts(in []dto.FreightRatingDiscountInput) []models.FreightRatingDiscount {
	out := make([]models.FreightRatingDiscount, 0, len(in))
	for _, r := range in {
		out = append(out, models.FreightRatingDiscount{Rating: r.Rating, DiscountPercent: r.DiscountPercent})
	}
	return out
}

func toFeeRules(in []dto.FeeRuleInput) []models.FeeRule {
	out := make([]models.FeeRule, 0, len(in))
	for _, r := range in {
		out = append(out, models.FeeRule{
			PriceStart: r.PriceStart,
			PriceEnd:   r.PriceEnd,
			Amount:     r.Amount,
			Active:     boolOr(r.Active, true),
		})
	}
	return out
}

func toLineItems(in []dto.LineItemInput) []models.LineItem {
	out := make([]models.LineItem, 0, len(in))
	for _, li := range in {
		multiplier := decimal.NewFromInt(1)
		if li.Multiplier != nil {
			multiplier = *li.Multiplier
		}
		unit := li.Unit
		if unit == "" {
			unit = "UN"
		}
		out = append(out, models.LineItem{
			Type:        li.Type,
			Code:        li.Code,
			Description: li.Description,
			Unit:        unit,
			Quantity:    li.Quantity,
			UnitCost:    li.UnitCost,
			Multiplier:  multiplier,
		})
	}
	return out
}
