package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-pos/apiclient"
	"github.com/yeremiapane/restaurant-pos/cart"
	"github.com/yeremiapane/restaurant-pos/controllers"
	"github.com/yeremiapane/restaurant-pos/events"
	"github.com/yeremiapane/restaurant-pos/hub"
	"github.com/yeremiapane/restaurant-pos/middlewares"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/services"
)

// Dependencies is everything the handlers need, built once in main.
type Dependencies struct {
	API        *apiclient.Client
	Cart       *cart.Store
	Hub        *hub.Hub
	Reconciler *services.StatusReconciler
	History    *events.History

	Location      *time.Location
	ServiceRate   float64
	PublicBaseURL string
	DeviceSecret  []byte
	RateLimit     float64
	AllowOrigin   func(origin string) bool
}

func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	if deps.RateLimit > 0 {
		r.Use(middlewares.NewRateLimiter(deps.RateLimit).RateLimit())
	}

	catalogCtrl := controllers.NewCatalogController(deps.API)
	unitCtrl := controllers.NewUnitController(deps.API, deps.Hub, deps.Location, deps.PublicBaseURL)
	reservationCtrl := controllers.NewReservationController(deps.API)
	basketCtrl := controllers.NewBasketController(deps.API, deps.Hub, deps.ServiceRate, deps.Location)
	adminCtrl := controllers.NewAdminController(deps.API, deps.Reconciler, deps.History)
	customerCtrl := controllers.NewCustomerController(deps.API, deps.Cart, deps.Hub, deps.ServiceRate, deps.Location)
	wsCtrl := controllers.NewWSController(deps.Hub, deps.AllowOrigin)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// ----------------------------------------------------------------
	//                      CUSTOMER ROUTES (device cookie)
	// ----------------------------------------------------------------
	customer := r.Group("/")
	customer.Use(middlewares.DeviceSession(deps.DeviceSecret))
	{
		customer.GET("/home", customerCtrl.Home)
		customer.GET("/categories/:id/products", customerCtrl.CategoryProducts)
		customer.GET("/products/:id", customerCtrl.Product)
		customer.GET("/time-windows", customerCtrl.TimeWindows)

		customer.GET("/scan/:kind/:number", customerCtrl.Scan)

		customer.GET("/cart", customerCtrl.GetCart)
		customer.POST("/cart/items", customerCtrl.AddToCart)
		customer.DELETE("/cart/items/:product_id", customerCtrl.RemoveFromCart)
		customer.DELETE("/cart", customerCtrl.ClearCart)

		customer.POST("/orders", customerCtrl.PlaceOrder)
		customer.GET("/orders/current", customerCtrl.CurrentOrder)
		customer.GET("/orders/:id/receipt.pdf", customerCtrl.OrderReceipt)

		customer.GET("/ws", wsCtrl.CustomerStream)
	}

	// ----------------------------------------------------------------
	//                      ADMIN ROUTES
	// ----------------------------------------------------------------
	admin := r.Group("/admin")

	admin.GET("/categories", catalogCtrl.GetAllCategories)
	admin.POST("/categories", catalogCtrl.CreateCategory)
	admin.GET("/categories/:id", catalogCtrl.GetCategoryByID)
	admin.PATCH("/categories/:id", catalogCtrl.UpdateCategory)
	admin.DELETE("/categories/:id", catalogCtrl.DeleteCategory)

	admin.GET("/products", catalogCtrl.GetAllProducts)
	admin.POST("/products", catalogCtrl.CreateProduct)
	admin.GET("/products/:id", catalogCtrl.GetProductByID)
	admin.PATCH("/products/:id", catalogCtrl.UpdateProduct)
	admin.DELETE("/products/:id", catalogCtrl.DeleteProduct)

	admin.GET("/time-windows", catalogCtrl.GetAllTimeWindows)
	admin.POST("/time-windows", catalogCtrl.CreateTimeWindow)
	admin.GET("/time-windows/:id", catalogCtrl.GetTimeWindowByID)
	admin.PATCH("/time-windows/:id", catalogCtrl.UpdateTimeWindow)
	admin.DELETE("/time-windows/:id", catalogCtrl.DeleteTimeWindow)

	for _, kind := range []models.UnitKind{models.KindTable, models.KindRoom, models.KindHotelRoom} {
		units := admin.Group("/"+string(kind), controllers.WithKind(kind))
		units.GET("", unitCtrl.GetAllUnits)
		units.POST("", unitCtrl.CreateUnit)
		units.GET("/:id", unitCtrl.GetUnitByID)
		units.PATCH("/:id", unitCtrl.UpdateUnit)
		units.DELETE("/:id", unitCtrl.DeleteUnit)
		units.PATCH("/:id/status", unitCtrl.UpdateUnitStatus)
		units.GET("/:id/qr", unitCtrl.GetUnitQR)
	}

	reservationGroups := map[string]models.UnitKind{
		"/reservations":      models.KindTable,
		"/room-reservations": models.KindRoom,
	}
	for path, kind := range reservationGroups {
		g := admin.Group(path, controllers.WithKind(kind))
		g.GET("", reservationCtrl.GetAllReservations)
		g.POST("", reservationCtrl.CreateReservation)
		g.GET("/:id", reservationCtrl.GetReservationByID)
		g.PATCH("/:id", reservationCtrl.UpdateReservation)
		g.DELETE("/:id", reservationCtrl.DeleteReservation)
	}

	basketGroups := map[string]models.UnitKind{
		"/baskets":      models.KindTable,
		"/room-baskets": models.KindRoom,
	}
	for path, kind := range basketGroups {
		g := admin.Group(path, controllers.WithKind(kind))
		g.GET("", basketCtrl.GetAllBaskets)
		g.GET("/:id", basketCtrl.GetBasketByID)
		g.PATCH("/:id", basketCtrl.UpdateBasket)
		g.DELETE("/:id", basketCtrl.DeleteBasket)
		g.GET("/:id/receipt.pdf", basketCtrl.GetBasketReceipt)
	}

	admin.GET("/dashboard/stats", adminCtrl.GetDashboardStats)
	admin.GET("/reconciler", adminCtrl.GetReconcilerStatus)
	admin.POST("/reconciler/run", adminCtrl.RunReconciler)
	admin.GET("/ws", wsCtrl.StaffStream)

	return r
}
