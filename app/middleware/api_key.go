// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"crypto/subtle"
	"slices"

	"github.com/amirphl/Kusanagi/app/dto"
	"github.com/gofiber/fiber/v3"
)

// APIKeyMiddleware guards the pricing endpoints with static API keys
type APIKeyMiddleware struct {
	header    string
	keys      []string
	skipPaths []string
}

// NewAPIKeyMiddleware creates the middleware. An empty key list disables the check.
func NewAPIKeyMiddleware(header string, keys []string, skipPaths ...string) *APIKeyMiddleware {
	if header == "" {
		header = "X-API-Key"
	}
	return &APIKeyMiddleware{header: header, keys: keys, skipPaths: skipPaths}
}

// Authenticate rejects requests without a known API key
func (m *APIKeyMiddleware) Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		if len(m.keys) == 0 || slices.Contains(m.skipPaths, c.Path()) {
			return c.Next()
		}

		apiKey := c.Get(m.header)
		if apiKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "API key is required",
				Error: dto.ErrorDetail{
					Code: "MISSING_API_KEY",
				},
			})
		}

		if !m.valid(apiKey) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Invalid API key",
				Error: dto.ErrorDetail{
					Code: "INVALID_API_KEY",
				},
			})
		}

		// Store RequestID for audit logging
		if requestID := c.Get("X-Request-ID"); requestID != "" {
			c.Locals("request_id", requestID)
		}
		return c.Next()
	}
}

func (m *APIKeyMiddleware) valid(apiKey string) bool {
	for _, k := range m.keys {
		if subtle.ConstantTimeCompare([]byte(k), []byte(apiKey)) == 1 {
			return true
		}
	}
	return false
}
