package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/azadjordan/megadie-warehouse/api-gateway/config"
	"github.com/azadjordan/megadie-warehouse/api-gateway/health"
	"github.com/azadjordan/megadie-warehouse/api-gateway/middleware"
	"github.com/azadjordan/megadie-warehouse/api-gateway/proxy"
)

// RouteDefinition defines a route mapping
type RouteDefinition struct {
	Prefix      string
	ServiceName string
	Description string
	RequireAuth bool // Requires authentication
	AdminWrites bool // Mutating methods require admin role
}

// Routes holds all route definitions. Reads need any authenticated
// user; slot layout, stock mutations and allocation edits are staff
// operations gated on the admin role.
var Routes = []RouteDefinition{
	{
		Prefix:      "/api/slots",
		ServiceName: "warehouse",
		Description: "Slot registry and occupancy reports",
		RequireAuth: true,
		AdminWrites: true,
	},
	{
		Prefix:      "/api/slot-items",
		ServiceName: "warehouse",
		Description: "Physical stock per slot (adjust, move, clear)",
		RequireAuth: true,
		AdminWrites: true,
	},
	{
		Prefix:      "/api/orders",
		ServiceName: "warehouse",
		Description: "Order allocations and stock finalization",
		RequireAuth: true,
		AdminWrites: true,
	},
	{
		Prefix:      "/api/movements",
		ServiceName: "warehouse",
		Description: "Append-only inventory movement ledger",
		RequireAuth: true,
		AdminWrites: false,
	},
}

// SetupRoutes configures all routes in the gateway
func SetupRoutes(app *fiber.App, cfg *config.GatewayConfig) {
	// Create reverse proxy
	reverseProxy := proxy.NewReverseProxy(cfg)

	// Create health checker
	healthChecker := health.NewHealthChecker(cfg)

	// Gateway quick health check (no downstream checks)
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(healthChecker.QuickCheck())
	})

	// Liveness probe (for Kubernetes)
	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "alive",
		})
	})

	// Readiness probe (checks downstream services)
	app.Get("/health/ready", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		healthStatus := healthChecker.CheckAllServices(ctx)

		statusCode := fiber.StatusOK
		if healthStatus.Status == "unhealthy" {
			statusCode = fiber.StatusServiceUnavailable
		}

		return c.Status(statusCode).JSON(healthStatus)
	})

	// Detailed service health checks
	app.Get("/health/services", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()

		healthStatus := healthChecker.CheckAllServices(ctx)
		return c.JSON(healthStatus)
	})

	// API routes overview
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Warehouse API Gateway",
			"version": "1.0.0",
			"routes":  Routes,
		})
	})

	// Register all service routes
	for _, route := range Routes {
		registerServiceRoutes(app, route, reverseProxy)
	}
}

// registerServiceRoutes registers all HTTP methods for a service prefix
func registerServiceRoutes(app *fiber.App, route RouteDefinition, proxyHandler *proxy.ReverseProxy) {
	handler := func(c *fiber.Ctx) error {
		return proxyHandler.ProxyRequest(c, route.ServiceName)
	}

	// Apply middleware based on route requirements
	var middlewares []fiber.Handler

	if route.RequireAuth {
		middlewares = append(middlewares, middleware.AuthMiddleware())
	}
	if route.AdminWrites {
		middlewares = append(middlewares, middleware.AdminWriteMiddleware())
	}
	// Public routes have no middleware

	// Create a route group for this service
	group := app.Group(route.Prefix, middlewares...)

	// Handle all HTTP methods with wildcard path
	group.All("/*", handler)

	// Also handle the exact prefix path (without /*)
	if len(middlewares) > 0 {
		app.All(route.Prefix, append(middlewares, handler)...)
	} else {
		app.All(route.Prefix, handler)
	}
}
