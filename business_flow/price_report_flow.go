package businessflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/repository"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// PriceReportFlow exports price records and their history as XLSX workbooks
type PriceReportFlow interface {
	// ExportHistory returns the full history of one record, newest first
	ExportHistory(ctx context.Context, recordID uint) (string, []byte, error)
	// ExportRecords writes one sheet per channel with the current prices
	ExportRecords(ctx context.Context, filter models.PriceRecordFilter) (string, []byte, error)
}

type PriceReportFlowImpl struct {
	priceRecordRepo repository.PriceRecordRepository
	historyRepo     repository.PriceHistoryRepository
	productRepo     repository.ProductRepository
	channelRepo     repository.ChannelRepository
}

func NewPriceReportFlow(
	priceRecordRepo repository.PriceRecordRepository,
	historyRepo repository.PriceHistoryRepository,
	productRepo repository.ProductRepository,
	channelRepo repository.ChannelRepository,
) PriceReportFlow {
	return &PriceReportFlowImpl{
		priceRecordRepo: priceRecordRepo,
		historyRepo:     historyRepo,
		productRepo:     productRepo,
		channelRepo:     channelRepo,
	}
}

var historyHeader = []string{
	"id", "created_at", "product_sku", "channel_name", "group_name", "reason", "actor",
	"tax", "operating_fee", "profit", "promo_discount", "min_discount", "ads", "commission",
	"markup_freight", "markup_sale", "markup_promo", "markup_min",
	"cost", "applied_freight", "fee", "sale_price", "promo_price", "min_price",
	"promo_price_rounded", "min_price_rounded",
}

var recordHeader = []string{
	"id", "sku", "title", "active", "automatic",
	"cost", "freight", "applied_freight", "fee",
	"sale_price", "promo_price", "min_price", "promo_price_rounded", "min_price_rounded",
	"display_sale_price", "display_promo_price", "display_min_price", "max_discount_percent",
	"computed_at",
}

func (f *PriceReportFlowImpl) ExportHistory(ctx context.Context, recordID uint) (string, []byte, error) {
	record, err := f.priceRecordRepo.ByID(ctx, recordID)
	if err != nil {
		return "", nil, NewBusinessError("PRICE_RECORD_LOOKUP_FAILED", "Failed to lookup price record", err)
	}
	if record == nil {
		return "", nil, NewBusinessErrorf("PRICE_RECORD_NOT_FOUND", "Price record %d not found", ErrPriceRecordNotFound, recordID)
	}

	rows, err := f.historyRepo.ListByRecord(ctx, recordID, 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("PRICE_HISTORY_LIST_FAILED", "Failed to list price history", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "history"
	xl.SetSheetName(xl.GetSheetName(0), sheet)
	_ = xl.SetSheetRow(sheet, "A1", &historyHeader)

	for i, h := range rows {
		actor := ""
		if h.Actor != nil {
			actor = *h.Actor
		}
		row := []any{
			h.ID,
			h.CreatedAt.UTC().Format(time.RFC3339),
			h.ProductSKU,
			h.ChannelName,
			h.GroupName,
			h.Reason,
			actor,
			cell(h.Percentages.Tax),
			cell(h.Percentages.OperatingFee),
			cell(h.Percentages.Profit),
			cell(h.Percentages.PromoDiscount),
			cell(h.Percentages.MinDiscount),
			cell(h.Percentages.Ads),
			cell(h.Percentages.Commission),
			cell(h.MarkupFreight),
			cell(h.MarkupSale),
			cell(h.MarkupPromo),
			cell(h.MarkupMin),
			cell(h.Cost),
			cell(h.AppliedFreight),
			cell(h.Fee),
			cell(h.SalePrice),
			cell(h.PromoPrice),
			cell(h.MinPrice),
			cell(h.PromoPriceRounded),
			cell(h.MinPriceRounded),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = xl.SetSheetRow(sheet, cellRef, &row)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	return fmt.Sprintf("price_history_%d.xlsx", recordID), buf.Bytes(), nil
}

func (f *PriceReportFlowImpl) ExportRecords(ctx context.Context, filter models.PriceRecordFilter) (string, []byte, error) {
	records, err := f.priceRecordRepo.ByFilter(ctx, filter, "price_records.channel_id ASC, price_records.id ASC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("PRICE_RECORD_LIST_FAILED", "Failed to list price records", err)
	}

	channels, err := f.channelRepo.ListAll(ctx)
	if err != nil {
		return "", nil, NewBusinessError("CHANNEL_LIST_FAILED", "Failed to list channels", err)
	}
	channelNames := make(map[uint]string, len(channels))
	for _, ch := range channels {
		channelNames[ch.ID] = ch.Name
	}

	productIDs := make([]uint, 0, len(records))
	seen := make(map[uint]struct{})
	for _, r := range records {
		if _, ok := seen[r.ProductID]; ok {
			continue
		}
		seen[r.ProductID] = struct{}{}
		productIDs = append(productIDs, r.ProductID)
	}
	products, err := f.productRepo.ListWithLineItems(ctx, productIDs)
	if err != nil {
		return "", nil, NewBusinessError("PRODUCT_LIST_FAILED", "Failed to list products", err)
	}
	productsByID := make(map[uint]*models.Product, len(products))
	for _, p := range products {
		productsByID[p.ID] = p
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	// Records arrive ordered by channel, so each channel is one contiguous run
	usedNames := map[string]bool{}
	sheetByChannel := map[uint]string{}
	nextRow := map[string]int{}
	for _, r := range records {
		name, ok := sheetByChannel[r.ChannelID]
		if !ok {
			base := channelNames[r.ChannelID]
			if base == "" {
				base = fmt.Sprintf("channel_%d", r.ChannelID)
			}
			base = sanitizeSheetName(base)
			name = base
			for idx := 2; usedNames[name]; idx++ {
				name = truncateSheetName(fmt.Sprintf("%s_%d", base, idx))
			}
			if len(usedNames) == 0 {
				xl.SetSheetName(xl.GetSheetName(0), name)
			} else {
				_, _ = xl.NewSheet(name)
			}
			usedNames[name] = true
			sheetByChannel[r.ChannelID] = name
			_ = xl.SetSheetRow(name, "A1", &recordHeader)
			nextRow[name] = 2
		}

		sku, title := "", ""
		if p := productsByID[r.ProductID]; p != nil {
			sku, title = p.SKU, p.Title
		}
		computedAt := ""
		if r.ComputedAt != nil {
			computedAt = r.ComputedAt.UTC().Format(time.RFC3339)
		}
		row := []any{
			r.ID,
			sku,
			title,
			strconv.FormatBool(r.IsActive()),
			strconv.FormatBool(r.IsAutomatic()),
			cell(r.Cost),
			cell(r.Freight),
			cell(r.AppliedFreight()),
			cell(r.Fee),
			cell(r.SalePrice),
			cell(r.PromoPrice),
			cell(r.MinPrice),
			cell(r.PromoPriceRounded),
			cell(r.MinPriceRounded),
			cell(r.DisplaySalePrice()),
			cell(r.DisplayPromoPrice()),
			cell(r.DisplayMinPrice()),
			cell(r.MaxDiscountPercent()),
			computedAt,
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, nextRow[name])
		_ = xl.SetSheetRow(name, cellRef, &row)
		nextRow[name]++
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	return "price_records.xlsx", buf.Bytes(), nil
}

// cell writes decimals as numbers so spreadsheets can sum them
func cell(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func sanitizeSheetName(name string) string {
	// Excel sheet names cannot contain : \ / ? * [ ] and must be <= 31 chars
	replacer := strings.NewReplacer(":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_")
	return truncateSheetName(strings.TrimSpace(replacer.Replace(name)))
}

func truncateSheetName(name string) string {
	if len(name) > 31 {
		return name[:31]
	}
	if name == "" {
		return "Sheet"
	}
	return name
}
