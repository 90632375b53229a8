// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"slices"
	"time"

	"github.com/amirphl/Kusanagi/app/dto"
	"github.com/amirphl/Kusanagi/app/handlers"
	"github.com/amirphl/Kusanagi/app/middleware"
	"github.com/amirphl/Kusanagi/config"
	"github.com/amirphl/Kusanagi/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const healthPath = "/api/v1/health"

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app            *fiber.App
	cfg            *config.ProductionConfig
	pricingHandler handlers.PricingHandlerInterface
	apiKey         *middleware.APIKeyMiddleware
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(cfg *config.ProductionConfig, pricingHandler handlers.PricingHandlerInterface) Router {
	app := fiber.New(fiber.Config{
		AppName:      "Kusanagi Pricing API",
		ServerHeader: "Kusanagi",
		ErrorHandler: errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	keys := []string{}
	if cfg.Security.RequireAPIKey {
		keys = cfg.Security.AllowedAPIKeys
	}

	return &FiberRouter{
		app:            app,
		cfg:            cfg,
		pricingHandler: pricingHandler,
		apiKey:         middleware.NewAPIKeyMiddleware(cfg.Security.APIKeyHeader, keys, healthPath),
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	// Global middleware
	r.setupMiddleware()

	if r.cfg.Metrics.Enabled {
		r.app.Get(r.cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	// API routes
	api := r.app.Group("/api/v1")

	// Health check route (no rate limiting)
	api.Get("/health", r.healthCheck)

	if r.cfg.Deployment.Environment == "development" || r.cfg.Deployment.Environment == "local" {
		api.Get("/docs", r.getAPIDocumentation)
		log.Println("API documentation enabled for development")
	}

	// Apply general rate limiting to all API routes
	api.Use(limiter.New(limiter.Config{
		Max:        r.cfg.Security.GlobalRateLimit,
		Expiration: r.cfg.Security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP() // Rate limit by IP
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
		Next: func(c fiber.Ctx) bool {
			return c.Path() == healthPath
		},
	}))

	pricing := api.Group("/pricing", r.apiKey.Authenticate())

	// Price records
	pricing.Get("/records/download", r.pricingHandler.DownloadRecords)
	pricing.Put("/records/:id", r.pricingHandler.UpdatePriceRecord)
	pricing.Post("/records/:id/recalculate", r.pricingHandler.RecalculateRecord)
	pricing.Get("/records/:id/history", r.pricingHandler.ListHistory)
	pricing.Get("/records/:id/history/download", r.pricingHandler.DownloadHistory)
	pricing.Post("/cascades", r.pricingHandler.TriggerCascade)

	// Catalog
	pricing.Post("/channel-groups", r.pricingHandler.SaveChannelGroup)
	pricing.Delete("/channel-groups/:id", r.pricingHandler.DeleteChannelGroup)
	pricing.Post("/channels", r.pricingHandler.SaveChannel)
	pricing.Post("/freight-tables", r.pricingHandler.SaveFreightTable)
	pricing.Post("/fee-tables", r.pricingHandler.SaveFeeTable)
	pricing.Post("/products", r.pricingHandler.SaveProduct)
	pricing.Post("/products/activate", r.pricingHandler.ActivateProduct)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	r.app.Use(cors.New(cors.Config{
		AllowOrigins:     r.cfg.Security.AllowedOrigins,
		AllowMethods:     r.cfg.Security.AllowedMethods,
		AllowHeaders:     r.cfg.Security.AllowedHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: r.cfg.Security.AllowCredentials,
		MaxAge:           r.cfg.Security.CORSMaxAge,
	}))

	if r.cfg.Server.EnableCompression {
		r.app.Use(compress.New(compress.Config{
			Level: compress.LevelBestSpeed,
		}))
	}

	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","ip":"${ip}","status":${status},"latency":"${latency}","bytes_out":${bytesSent}}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			return c.Path() == healthPath || c.Path() == r.cfg.Metrics.Path
		},
	}))

	r.app.Use(middleware.Metrics())

	r.app.Use(r.securityMiddleware)

	// Recovery middleware with custom error handling
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// securityMiddleware blocks configured IPs
func (r *FiberRouter) securityMiddleware(c fiber.Ctx) error {
	if slices.Contains(r.cfg.Security.IPBlacklist, c.IP()) {
		return c.Status(fiber.StatusForbidden).JSON(dto.APIResponse{
			Success: false,
			Message: "Access denied from this IP address",
			Error: dto.ErrorDetail{
				Code: "ACCESS_DENIED",
			},
		})
	}
	return c.Next()
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Unix(),
			"version":   r.cfg.Deployment.Version,
			"service":   "kusanagi-pricing",
		},
	})
}

func (r *FiberRouter) getAPIDocumentation(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "API documentation retrieved successfully",
		Data: fiber.Map{
			"title":       "Kusanagi Pricing API Documentation",
			"version":     r.cfg.Deployment.Version,
			"description": "Channel pricing, recalculation and price history API",
			"endpoints":   GetRouteDocumentation(),
		},
	})
}

func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	requestID := c.Locals("requestid")

	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestID,
			},
		},
	})
}

// Global error handler
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "An internal server error occurred"
	errCode := "INTERNAL_ERROR"

	// Retrieve the custom status code if it's a fiber.*Error
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		if code < fiber.StatusInternalServerError {
			message = fe.Message
			errCode = "REQUEST_ERROR"
		}
	}

	log.Printf("Error %d: %v", code, err)

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code: errCode,
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": c.Locals("requestid"),
			},
		},
	})
}

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// GetRouteDocumentation returns API documentation
func GetRouteDocumentation() []map[string]any {
	return []map[string]any{
		{
			"method":      "POST",
			"path":        "/api/v1/pricing/records/:id/recalculate",
			"description": "Recalculate one price record",
			"parameters": map[string]any{
				"save_history": "bool (optional) - snapshot prior values, default true",
				"reason":       "string (optional) - history reason",
				"actor":        "string (optional) - who triggered the recalculation",
			},
		},
		{
			"method":      "PUT",
			"path":        "/api/v1/pricing/records/:id",
			"description": "Edit manual prices, flags and specific freight of a record",
			"parameters": map[string]any{
				"active":                 "bool (optional)",
				"automatic":              "bool (optional)",
				"manual_sale_price":      "decimal (optional)",
				"manual_promo_price":     "decimal (optional)",
				"manual_min_price":       "decimal (optional)",
				"specific_freight":       "decimal (optional)",
				"clear_specific_freight": "bool (optional)",
			},
		},
		{
			"method":      "GET",
			"path":        "/api/v1/pricing/records/:id/history",
			"description": "List history entries newest first",
			"parameters": map[string]any{
				"limit":  "int (optional) - default 50, max 500",
				"offset": "int (optional)",
			},
		},
		{
			"method":      "GET",
			"path":        "/api/v1/pricing/records/:id/history/download",
			"description": "Download record history as XLSX",
			"parameters":  map[string]any{},
		},
		{
			"method":      "GET",
			"path":        "/api/v1/pricing/records/download",
			"description": "Download current prices as XLSX, one sheet per channel",
			"parameters": map[string]any{
				"product_id": "int (optional)",
				"channel_id": "int (optional)",
				"active":     "bool (optional)",
				"sku":        "string (optional)",
			},
		},
		{
			"method":      "POST",
			"path":        "/api/v1/pricing/cascades",
			"description": "Enqueue a change event for the cascade worker",
			"parameters": map[string]any{
				"kind":       "string (required) - freight_table|fee_table|channel|channel_group|product|sale_price",
				"entity_id":  "int (required)",
				"product_id": "int (required for sale_price)",
			},
		},
		{
			"method":      "POST",
			"path":        "/api/v1/pricing/channel-groups",
			"description": "Create or update a channel group",
			"parameters":  map[string]any{"id": "int (optional) - update when set"},
		},
		{
			"method":      "DELETE",
			"path":        "/api/v1/pricing/channel-groups/:id",
			"description": "Delete an empty non-default channel group",
			"parameters":  map[string]any{},
		},
		{
			"method":      "POST",
			"path":        "/api/v1/pricing/channels",
			"description": "Create or update a channel",
			"parameters":  map[string]any{"id": "int (optional) - update when set"},
		},
		{
			"method":      "POST",
			"path":        "/api/v1/pricing/freight-tables",
			"description": "Create or replace a freight table and its rules",
			"parameters":  map[string]any{"id": "int (optional) - update when set"},
		},
		{
			"method":      "POST",
			"path":        "/api/v1/pricing/fee-tables",
			"description": "Create or replace a fee table and its rules",
			"parameters":  map[string]any{"id": "int (optional) - update when set"},
		},
		{
			"method":      "POST",
			"path":        "/api/v1/pricing/products",
			"description": "Create or replace a product and its line items",
			"parameters":  map[string]any{"id": "int (optional) - update when set"},
		},
		{
			"method":      "POST",
			"path":        "/api/v1/pricing/products/activate",
			"description": "List a product in a channel and price it",
			"parameters": map[string]any{
				"product_id": "int (required)",
				"channel_id": "int (required)",
			},
		},
		{
			"method":      "GET",
			"path":        healthPath,
			"description": "Health check endpoint",
			"parameters":  map[string]any{},
		},
	}
}
