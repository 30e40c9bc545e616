package routes

import (
	"food-marketplace-api/handlers"
	"food-marketplace-api/middleware"
	"food-marketplace-api/models"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the engine with the common middleware chain and every route.
func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(h.Logger),
		middleware.Recovery(),
		middleware.ErrorHandler(),
		middleware.CORS(h.Config.Server.CORSAllowedOrigins),
	)
	r.NoRoute(middleware.NoRoute)
	SetupRoutes(r, h)
	return r
}

func SetupRoutes(r *gin.Engine, h *handlers.Handler) {
	r.GET("/", h.Welcome)
	r.GET("/health", h.Health)

	authRequired := middleware.AuthRequired(h.Tokens, h.DB)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth/register", h.Register)
		public.POST("/auth/login", h.Login)

		public.GET("/restaurants", h.ListRestaurants)
		public.GET("/restaurants/:id", h.GetRestaurant)
		public.GET("/restaurants/:id/menu", h.GetMenu)
		public.GET("/restaurants/:id/reviews", h.ListRestaurantReviews)

		public.GET("/zones/coverage", h.ZoneCoverage)
		public.GET("/zones/:id/quote", h.QuoteDelivery)

		public.GET("/state-machine", h.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	account := r.Group("/api")
	account.Use(authRequired)
	{
		account.GET("/profile", h.GetProfile)
		account.PUT("/profile", h.UpdateProfile)
		account.PUT("/profile/password", h.ChangePassword)
	}

	// ── Customer routes ────────────────────────────────────────────
	customer := r.Group("/api/customer")
	customer.Use(authRequired, middleware.RoleRequired(models.RoleCustomer))
	{
		customer.POST("/orders", h.PlaceOrder)
		customer.GET("/orders", h.GetMyOrders)
		customer.GET("/orders/:id", h.GetOrderDetail)
		customer.PUT("/orders/:id/cancel", h.CancelOrder)
		customer.POST("/orders/:id/review", h.CreateReview)
	}

	// ── Restaurant owner routes ────────────────────────────────────
	restaurant := r.Group("/api/restaurant")
	restaurant.Use(authRequired, middleware.RoleRequired(models.RoleRestaurant))
	{
		restaurant.POST("", h.CreateRestaurant)
		restaurant.GET("", h.GetMyRestaurant)
		restaurant.PUT("", h.UpdateRestaurant)
		restaurant.GET("/dashboard", h.GetRestaurantDashboard)

		restaurant.POST("/menu", h.AddMenuItem)
		restaurant.PUT("/menu/:itemId", h.UpdateMenuItem)
		restaurant.DELETE("/menu/:itemId", h.DeleteMenuItem)

		restaurant.GET("/orders", h.GetRestaurantOrders)
		restaurant.PUT("/orders/:id/status", h.UpdateOrderStatus)
	}

	// ── Delivery personnel routes ──────────────────────────────────
	delivery := r.Group("/api/delivery")
	delivery.Use(authRequired, middleware.RoleRequired(models.RoleDelivery))
	{
		delivery.GET("/profile", h.GetMyPersonnelProfile)
		delivery.PUT("/availability", h.UpdateAvailability)
		delivery.PUT("/location", h.UpdateLocation)
		delivery.GET("/earnings", h.MyEarnings)
		delivery.GET("/dashboard", h.GetPersonnelDashboard)

		delivery.GET("/orders/available", h.AvailableOrders)
		delivery.GET("/deliveries", h.MyDeliveries)
		delivery.PUT("/orders/:id/pickup", h.PickupOrder)
		delivery.PUT("/orders/:id/in-transit", h.MarkInTransit)
		delivery.PUT("/orders/:id/deliver", h.DeliverOrder)
		delivery.PUT("/orders/:id/fail", h.FailDelivery)
	}

	// ── Shared reports ─────────────────────────────────────────────
	reports := r.Group("/api/reports")
	reports.Use(authRequired, middleware.RoleRequired(models.RoleRestaurant, models.RoleAdmin, models.RoleSuperAdmin))
	{
		reports.GET("/sales", h.GetSalesReport)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(authRequired, middleware.RoleRequired(models.RoleAdmin, models.RoleSuperAdmin))
	{
		admin.GET("/dashboard", h.GetAdminDashboard)
		admin.GET("/users", h.AdminListUsers)

		admin.GET("/orders", h.AdminGetAllOrders)
		admin.GET("/orders/:id", h.AdminGetOrder)
		admin.PUT("/orders/:id/status", h.AdminForceOrderStatus)
		admin.POST("/orders/:id/assign", h.AssignPersonnel)

		admin.GET("/restaurants", h.AdminListRestaurants)
		admin.PUT("/restaurants/:id/verify", h.VerifyRestaurant)
		admin.PUT("/restaurants/:id/active", h.SetRestaurantActive)

		admin.GET("/customers", h.ListCustomers)
		admin.GET("/customers/:id", h.GetCustomer)
		admin.PUT("/customers/:id/active", h.SetCustomerActive)

		admin.POST("/zones", h.CreateZone)
		admin.GET("/zones", h.ListZones)
		admin.GET("/zones/:id", h.GetZone)
		admin.PUT("/zones/:id", h.UpdateZone)
		admin.PUT("/zones/:id/toggle", h.ToggleZone)
		admin.DELETE("/zones/:id", h.DeleteZone)

		admin.GET("/personnel", h.ListPersonnel)
		admin.POST("/personnel", h.CreatePersonnel)
		admin.GET("/personnel/:id", h.GetPersonnel)
		admin.PUT("/personnel/:id", h.UpdatePersonnel)
		admin.DELETE("/personnel/:id", h.DeletePersonnel)
		admin.PUT("/personnel/:id/status", h.SetPersonnelStatus)
		admin.PUT("/personnel/:id/verify", h.VerifyPersonnel)
		admin.PUT("/personnel/:id/zone", h.AssignPersonnelZone)

		admin.GET("/analytics/deliveries", h.GetDeliveryAnalytics)
		admin.POST("/reports/rollup", h.RunRollup)
	}

	// ── Superadmin routes ──────────────────────────────────────────
	super := r.Group("/api/superadmin")
	super.Use(authRequired, middleware.RoleRequired(models.RoleSuperAdmin))
	{
		super.GET("/admins", h.ListAdmins)
		super.POST("/admins", h.CreateAdmin)
		super.PUT("/admins/:id/active", h.SetAdminActive)
	}
}
