package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderdeck/api/internal/config"
	"github.com/orderdeck/api/internal/database"
	"github.com/orderdeck/api/internal/enum"
	"github.com/orderdeck/api/internal/handler"
	mw "github.com/orderdeck/api/internal/middleware"
	"github.com/orderdeck/api/internal/service"
	"github.com/orderdeck/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication, tenant scoping, and role-based middleware as needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/tenants/{tid}/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Platform console (not tenant-scoped)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRolePlatformAdmin))
			tenantHandler := handler.NewTenantHandler(queries)
			r.Route("/tenants", tenantHandler.RegisterRoutes)
		})

		// Tenant-scoped routes
		r.Route("/tenants/{tid}", func(r chi.Router) {
			r.Use(mw.RequireTenant)

			// Users
			userHandler := handler.NewUserHandler(queries)
			r.Route("/users", userHandler.RegisterRoutes)

			// Menu
			menuHandler := handler.NewMenuHandler(queries)
			r.Route("/menu", func(r chi.Router) {
				menuHandler.RegisterRoutes(r)

				// Addon groups and options (nested under menu items)
				addonHandler := handler.NewAddonHandler(queries)
				r.Route("/{mid}/addon-groups", addonHandler.RegisterRoutes)
			})

			// Orders
			newOrderStore := func(db database.DBTX) service.OrderStore {
				return database.New(db)
			}
			orderService := service.NewOrderService(pool, newOrderStore)
			orderHandler := handler.NewOrderHandler(orderService, queries, hub)
			r.Route("/orders", orderHandler.RegisterRoutes)

			// Customers and loyalty
			customerHandler := handler.NewCustomerHandler(queries)
			r.Route("/customers", customerHandler.RegisterRoutes)

			// Vouchers
			voucherHandler := handler.NewVoucherHandler(queries)
			r.Route("/vouchers", voucherHandler.RegisterRoutes)

			// Delivery zones
			zoneHandler := handler.NewZoneHandler(queries)
			r.Route("/zones", zoneHandler.RegisterRoutes)

			// Settings
			settingsHandler := handler.NewSettingsHandler(queries)
			r.Route("/settings", settingsHandler.RegisterRoutes)

			// Throttle schedule
			throttleHandler := handler.NewThrottleHandler(queries)
			r.Route("/throttle", throttleHandler.RegisterRoutes)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
