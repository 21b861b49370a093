package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

const (
	defaultAccessControlAllowMethods = "POST, GET, OPTIONS, PUT, DELETE, PATCH"
	defaultAccessControlAllowHeaders = "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, x-auth-token"
)

// WithCORS allows credentialed cross-origin requests from origins.
// It returns nil when origins is empty, leaving the app same-origin only.
func WithCORS(origins []string) fiber.Handler {
	if len(origins) == 0 {
		return nil
	}

	return cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     defaultAccessControlAllowMethods,
		AllowHeaders:     defaultAccessControlAllowHeaders,
		ExposeHeaders:    "X-Request-Id",
		AllowCredentials: true,
	})
}
