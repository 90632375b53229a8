package handlers

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/Kusanagi/app/dto"
	"github.com/amirphl/Kusanagi/app/services"
	businessflow "github.com/amirphl/Kusanagi/business_flow"
	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PricingHandlerInterface defines the pricing endpoints
type PricingHandlerInterface interface {
	RecalculateRecord(c fiber.Ctx) error
	ListHistory(c fiber.Ctx) error
	DownloadHistory(c fiber.Ctx) error
	DownloadRecords(c fiber.Ctx) error
	TriggerCascade(c fiber.Ctx) error

	SaveChannelGroup(c fiber.Ctx) error
	DeleteChannelGroup(c fiber.Ctx) error
	SaveChannel(c fiber.Ctx) error
	SaveFreightTable(c fiber.Ctx) error
	SaveFeeTable(c fiber.Ctx) error
	SaveProduct(c fiber.Ctx) error
	ActivateProduct(c fiber.Ctx) error
	UpdatePriceRecord(c fiber.Ctx) error
}

// PricingHandler implements the pricing endpoints
type PricingHandler struct {
	catalogFlow businessflow.CatalogFlow
	recalcFlow  businessflow.RecalculationFlow
	reportFlow  businessflow.PriceReportFlow
	publisher   services.EventPublisher
	validator   *validator.Validate

	// enqueueTimeout bounds how long a cascade request waits for queue room
	enqueueTimeout time.Duration
}

func NewPricingHandler(
	catalogFlow businessflow.CatalogFlow,
	recalcFlow businessflow.RecalculationFlow,
	reportFlow businessflow.PriceReportFlow,
	publisher services.EventPublisher,
) PricingHandlerInterface {
	return &PricingHandler{
		catalogFlow: catalogFlow,
		recalcFlow:  recalcFlow,
		reportFlow:  reportFlow,
		publisher:   publisher,
		validator:   validator.New(),

		enqueueTimeout: 5 * time.Second,
	}
}

func (h *PricingHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, code string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{Success: false, Message: message, Error: dto.ErrorDetail{Code: code, Details: details}})
}

// RecalculateRecord recomputes one price record
// @Summary Recalculate Price Record
// @Tags Pricing
// @Accept json
// @Produce json
// @Param id path int true "Price record ID"
// @Param request body dto.RecalculateRecordRequest false "History and audit options"
// @Success 200 {object} dto.APIResponse{data=dto.RecalculateRecordResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 422 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/pricing/records/{id}/recalculate [post]
func (h *PricingHandler) RecalculateRecord(c fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid price record ID", "INVALID_REQUEST", err.Error())
	}

	var req dto.RecalculateRecordRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationResponse(c, err)
	}

	saveHistory := true
	if req.SaveHistory != nil {
		saveHistory = *req.SaveHistory
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = businessflow.ReasonManualRequest
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/pricing/records/:id/recalculate")
	defer cancel()
	res, err := h.recalcFlow.Recalculate(ctx, id, saveHistory, reason, req.Actor)
	if err != nil {
		log.Println("Recalculate price record failed:", err)
		return h.flowErrorResponse(c, err, "Failed to recalculate price record", "PRICE_RECALCULATION_FAILED")
	}

	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{
		Success: true,
		Message: "Price record recalculated",
		Data:    businessflow.ToRecalculateResponse("Price record recalculated", res),
	})
}

// ListHistory returns the history of one price record, newest first
// @Summary List Price History
// @Tags Pricing
// @Produce json
// @Param id path int true "Price record ID"
// @Param limit query int false "Max entries (default 50)"
// @Param offset query int false "Offset"
// @Success 200 {object} dto.APIResponse{data=dto.ListPriceHistoryResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/pricing/records/{id}/history [get]
func (h *PricingHandler) ListHistory(c fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid price record ID", "INVALID_REQUEST", err.Error())
	}
	limit, err := queryInt(c, "limit", 50)
	if err != nil || limit < 0 || limit > 500 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "limit must be between 0 and 500", "VALIDATION_ERROR", nil)
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "offset must not be negative", "VALIDATION_ERROR", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/pricing/records/:id/history")
	defer cancel()
	rows, err := h.recalcFlow.History(ctx, id, limit, offset)
	if err != nil {
		log.Println("List price history failed:", err)
		return h.flowErrorResponse(c, err, "Failed to list price history", "PRICE_HISTORY_LIST_FAILED")
	}

	items := make([]dto.PriceHistoryItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, businessflow.ToPriceHistoryItem(row))
	}
	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{
		Success: true,
		Message: "Price history retrieved",
		Data:    dto.ListPriceHistoryResponse{Message: "Price history retrieved", Items: items},
	})
}

// DownloadHistory returns the history of one price record as an Excel workbook
// @Summary Download Price History
// @Tags Pricing
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path int true "Price record ID"
// @Success 200 {string} string "Excel file"
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/pricing/records/{id}/history/download [get]
func (h *PricingHandler) DownloadHistory(c fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid price record ID", "INVALID_REQUEST", err.Error())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/pricing/records/:id/history/download")
	defer cancel()
	filename, data, err := h.reportFlow.ExportHistory(ctx, id)
	if err != nil {
		log.Println("Download price history failed:", err)
		return h.flowErrorResponse(c, err, "Failed to generate Excel", "DOWNLOAD_FAILED")
	}
	c.Set("Content-Type", xlsxContentType)
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

// DownloadRecords returns the current prices as an Excel workbook with one sheet per channel
// @Summary Download Price Records
// @Tags Pricing
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param product_id query int false "Product ID"
// @Param channel_id query int false "Channel ID"
// @Param active query bool false "Only active or inactive records"
// @Param sku query string false "Product SKU"
// @Success 200 {string} string "Excel file"
// @Failure 400 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/pricing/records/download [get]
func (h *PricingHandler) DownloadRecords(c fiber.Ctx) error {
	var filter models.PriceRecordFilter
	if v := c.Query("product_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid product_id", "VALIDATION_ERROR", nil)
		}
		filter.ProductID = utils.ToPtr(uint(id))
	}
	if v := c.Query("channel_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid channel_id", "VALIDATION_ERROR", nil)
		}
		filter.ChannelID = utils.ToPtr(uint(id))
	}
	if v := c.Query("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid active flag", "VALIDATION_ERROR", nil)
		}
		filter.Active = &active
	}
	if v := strings.TrimSpace(c.Query("sku")); v != "" {
		filter.SKU = &v
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/pricing/records/download")
	defer cancel()
	filename, data, err := h.reportFlow.ExportRecords(ctx, filter)
	if err != nil {
		log.Println("Download price records failed:", err)
		return h.flowErrorResponse(c, err, "Failed to generate Excel", "DOWNLOAD_FAILED")
	}
	c.Set("Content-Type", xlsxContentType)
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

// TriggerCascade enqueues a change event for the cascade worker
// @Summary Trigger Recalculation Cascade
// @Tags Pricing
// @Accept json
// @Produce json
// @Param request body dto.TriggerCascadeRequest true "Changed entity"
// @Success 202 {object} dto.APIResponse{data=dto.TriggerCascadeResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 503 {object} dto.APIResponse
// @Router /api/v1/pricing/cascades [post]
func (h *PricingHandler) TriggerCascade(c fiber.Ctx) error {
	var req dto.TriggerCascadeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationResponse(c, err)
	}

	kind := models.ChangeKind(req.Kind)
	var ev models.ChangeEvent
	if kind == models.ChangeSalePrice {
		ev = models.NewSalePriceChangeEvent(req.EntityID, *req.ProductID, req.Reason, req.Actor)
	} else {
		ev = models.NewChangeEvent(kind, req.EntityID, req.Reason, req.Actor)
	}

	ctx, cancel := h.createRequestContextWithTimeout(c, "/api/v1/pricing/cascades", h.enqueueTimeout)
	defer cancel()
	if err := h.publisher.Publish(ctx, ev); err != nil {
		log.Println("Publish change event failed:", err)
		if errors.Is(err, services.ErrEventBusFull) || errors.Is(err, services.ErrEventBusClosed) {
			return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Cascade queue is unavailable", "CASCADE_QUEUE_UNAVAILABLE", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to enqueue cascade", "CASCADE_ENQUEUE_FAILED", nil)
	}

	return c.Status(fiber.StatusAccepted).JSON(dto.APIResponse{
		Success: true,
		Message: "Cascade enqueued",
		Data:    dto.TriggerCascadeResponse{Message: "Cascade enqueued", EventID: ev.ID.String()},
	})
}

// SaveChannelGroup creates or updates a channel group
// @Summary Save Channel Group
// @Tags Pricing Catalog
// @Accept json
// @Produce json
// @Param request body dto.SaveChannelGroupRequest true "Channel group"
// @Success 200 {object} dto.APIResponse{data=dto.CatalogMutationResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 422 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/pricing/channel-groups [post]
func (h *PricingHandler) SaveChannelGroup(c fiber.Ctx) error {
	var req dto.SaveChannelGroupRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/pricing/channel-groups")
	defer cancel()
	res, err := h.catalogFlow.SaveChannelGroup(ctx, &req)
	if err != nil {
		log.Println("Save channel group failed:", err)
		return h.flowErrorResponse(c, err, "Failed to save channel group", "CHANNEL_GROUP_SAVE_FAILED")
	}
	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: res.Message, Data: res})
}

// DeleteChannelGroup deletes an empty, non-default channel group
// @Summary Delete Channel Group
// @Tags Pricing Catalog
// @Produce json
// @Param id path int true "Channel group ID"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/pricing/channel-groups/{id} [delete]
func (h *PricingHandler) DeleteChannelGroup(c fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid channel group ID", "INVALID_REQUEST", err.Error())
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/pricing/channel-groups/:id")
	defer cancel()
	if err := h.catalogFlow.DeleteChannelGroup(ctx, id); err != nil {
		log.Println("Delete channel group failed:", err)
		return h.flowErrorResponse(c, err, "Failed to delete channel group", "CHANNEL_GROUP_DELETE_FAILED")
	}
	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: "Channel group deleted"})
}

// SaveChannel creates or updates a channel
// @Summary Save Channel
// @Tags Pricing Catalog
// @Accept json
// @Produce json
// @Param request body dto.SaveChannelRequest true "Channel"
// @Success 200 {object} dto.APIResponse{data=dto.CatalogMutationResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 422 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/pricing/channels [post]
func (h *PricingHandler) SaveChannel(c fiber.Ctx) error {
	var req dto.SaveChannelRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/pricing/channels")
	defer cancel()
	res, err := h.catalogFlow.SaveChannel(ctx, &req)
	if err != nil {
		log.Println("Save channel failed:", err)
		return h.flowErrorResponse(c, err, "Failed to save channel", "CHANNEL_SAVE_FAILED")
	}
	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: res.Message, Data: res})
}

// SaveFreightTable creates or replaces a freight table with its rules
// @Summary Save Freight Table
// @Tags Pricing Catalog
// @Accept json
// @Produce json
// @Param request body dto.SaveFreightTableRequest true "Freight table"
// @Success 200 {object} dto.APIResponse{data=dto.CatalogMutationResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/pricing/freight-tables [post]
func (h *PricingHandler) SaveFreightTable(c fiber.Ctx) error {
	var req dto.SaveFreightTableRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/pricing/freight-tables")
	defer cancel()
	res, err := h.catalogFlow.SaveFreightTable(ctx, &req)
	if err != nil {
		log.Println("Save freight table failed:", err)
		return h.flowErrorResponse(c, err, "Failed to save freight table", "FREIGHT_TABLE_SAVE_FAILED")
	}
	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: res.Message, Data: res})
}

// SaveFeeTable creates or replaces a fee table with its rules
// @Summary Save Fee Table
// @Tags Pricing Catalog
// @Accept json
// @Produce json
// @Param request body dto.SaveFeeTableRequest true "Fee table"
// @Success 200 {object} dto.APIResponse{data=dto.CatalogMutationResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/pricing/fee-tables [post]
func (h *PricingHandler) SaveFeeTable(c fiber.Ctx) error {
	var req dto.SaveFeeTableRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/pricing/fee-tables")
	defer cancel()
	res, err := h.catalogFlow.SaveFeeTable(ctx, &req)
	if err != nil {
		log.Println("Save fee table failed:", err)
		return h.flowErrorResponse(c, err, "Failed to save fee table", "FEE_TABLE_SAVE_FAILED")
	}
	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: res.Message, Data: res})
}

// SaveProduct creates or replaces a product with its bill of materials
// @Summary Save Product
// @Tags Pricing Catalog
// @Accept json
// @Produce json
// @Param request body dto.SaveProductRequest true "Product"
// @Success 200 {object} dto.APIResponse{data=dto.CatalogMutationResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Failure 422 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/pricing/products [post]
func (h *PricingHandler) SaveProduct(c fiber.Ctx) error {
	var req dto.SaveProductRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/pricing/products")
	defer cancel()
	res, err := h.catalogFlow.SaveProduct(ctx, &req)
	if err != nil {
		log.Println("Save product failed:", err)
		return h.flowErrorResponse(c, err, "Failed to save product", "PRODUCT_SAVE_FAILED")
	}
	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: res.Message, Data: res})
}

// ActivateProduct lists a product in a channel and prices it
// @Summary Activate Product In Channel
// @Tags Pricing Catalog
// @Accept json
// @Produce json
// @Param request body dto.ActivateProductRequest true "Product and channel"
// @Success 200 {object} dto.APIResponse{data=dto.RecalculateRecordResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 422 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/pricing/products/activate [post]
func (h *PricingHandler) ActivateProduct(c fiber.Ctx) error {
	var req dto.ActivateProductRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/pricing/products/activate")
	defer cancel()
	res, err := h.catalogFlow.ActivateProduct(ctx, &req)
	if err != nil {
		log.Println("Activate product failed:", err)
		return h.flowErrorResponse(c, err, "Failed to activate product", "PRODUCT_ACTIVATION_FAILED")
	}
	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: res.Message, Data: res})
}

// UpdatePriceRecord edits the manual prices and flags of a price record
// @Summary Update Price Record
// @Tags Pricing
// @Accept json
// @Produce json
// @Param id path int true "Price record ID"
// @Param request body dto.UpdatePriceRecordRequest true "Manual fields"
// @Success 200 {object} dto.APIResponse{data=dto.RecalculateRecordResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 422 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/pricing/records/{id} [put]
func (h *PricingHandler) UpdatePriceRecord(c fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid price record ID", "INVALID_REQUEST", err.Error())
	}
	var req dto.UpdatePriceRecordRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.ID = id

	ctx, cancel := h.createRequestContext(c, "/api/v1/pricing/records/:id")
	defer cancel()
	res, err := h.catalogFlow.UpdatePriceRecord(ctx, &req)
	if err != nil {
		log.Println("Update price record failed:", err)
		return h.flowErrorResponse(c, err, "Failed to update price record", "PRICE_RECORD_UPDATE_FAILED")
	}
	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: res.Message, Data: res})
}

func (h *PricingHandler) validationResponse(c fiber.Ctx, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, getValidationErrorMessage(fe))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", details)
	}
	return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
}

// flowErrorResponse maps a business flow error to an HTTP status
func (h *PricingHandler) flowErrorResponse(c fiber.Ctx, err error, fallbackMessage, fallbackCode string) error {
	var be *businessflow.BusinessError
	if !errors.As(err, &be) {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, fallbackMessage, fallbackCode, nil)
	}

	switch {
	case be.Code == "VALIDATION_ERROR":
		return h.ErrorResponse(c, fiber.StatusBadRequest, be.Message, be.Code, unwrapMessage(be))
	case businessflow.IsNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, be.Message, be.Code, nil)
	case businessflow.IsRecordLocked(err),
		businessflow.IsDefaultGroupUndeletable(err),
		errors.Is(err, businessflow.ErrGroupHasChannels),
		errors.Is(err, businessflow.ErrSKUAlreadyExists):
		return h.ErrorResponse(c, fiber.StatusConflict, be.Message, be.Code, nil)
	case businessflow.IsValidationFailure(err),
		errors.Is(err, businessflow.ErrReferenceChannelMissing),
		errors.Is(err, businessflow.ErrPercentageOutOfRange):
		return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, be.Message, be.Code, unwrapMessage(be))
	default:
		return h.ErrorResponse(c, fiber.StatusInternalServerError, fallbackMessage, be.Code, nil)
	}
}

func unwrapMessage(be *businessflow.BusinessError) any {
	if be.Err == nil {
		return nil
	}
	return be.Err.Error()
}

func parseID(c fiber.Ctx, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 0, errors.New(name + " must be positive")
	}
	return uint(v), nil
}

func queryInt(c fiber.Ctx, name string, def int) (int, error) {
	v := c.Query(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func (h *PricingHandler) createRequestContext(c fiber.Ctx, endpoint string) (context.Context, context.CancelFunc) {
	return h.createRequestContextWithTimeout(c, endpoint, 60*time.Second)
}

func (h *PricingHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	return ctx, cancel
}
