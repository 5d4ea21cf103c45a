package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/otaviofreire/comanda-app/controllers"
	"github.com/otaviofreire/comanda-app/middlewares"
)

func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())
	// Global middleware must be attached before any route is registered;
	// gin snapshots each route's handler chain at registration time.
	r.Use(middlewares.NewRateLimiter(50, 1).RateLimit())

	sessionCtrl := controllers.NewSessionController(db)
	attendantCtrl := controllers.NewAttendantController(db)
	productCtrl := controllers.NewProductController(db)
	tabCtrl := controllers.NewTabController(db)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Login picker: list of attendant names, no auth needed.
	r.GET("/attendants", attendantCtrl.GetActiveAttendants)

	// PIN login behind the strict limiter.
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/sessions/login", sessionCtrl.Login)
	}

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware())
	{
		// SESSIONS
		auth.POST("/sessions/validate", sessionCtrl.Validate)
		auth.POST("/sessions/touch", sessionCtrl.Touch)
		auth.POST("/sessions/logout", sessionCtrl.Logout)

		// ATTENDANTS
		auth.POST("/attendants", attendantCtrl.RegisterAttendant)
		auth.DELETE("/attendants/:attendant_id", attendantCtrl.DeactivateAttendant)

		// PRODUCTS
		auth.GET("/products", productCtrl.GetAllProducts)
		auth.POST("/products", productCtrl.CreateProduct)
		auth.GET("/products/:product_id", productCtrl.GetProductByID)
		auth.PATCH("/products/:product_id", productCtrl.UpdateProduct)
		auth.DELETE("/products/:product_id", productCtrl.DeleteProduct)

		// TABS
		auth.GET("/tabs", tabCtrl.GetAllTabs)
		auth.POST("/tabs", tabCtrl.CreateTab)
		auth.GET("/tabs/:tab_id", tabCtrl.GetTabByID)
		auth.DELETE("/tabs/:tab_id", tabCtrl.CancelTab)
		auth.POST("/tabs/:tab_id/close", tabCtrl.CloseTab)
		auth.PATCH("/tabs/:tab_id/attendant", tabCtrl.ChangeAttendant)

		// TAB ITEMS
		auth.GET("/tabs/:tab_id/items", tabCtrl.GetTabItems)
		auth.POST("/tabs/:tab_id/items", tabCtrl.AddItem)
		auth.PATCH("/tabs/:tab_id/items/:product_id", tabCtrl.UpdateItemQty)
		auth.DELETE("/tabs/:tab_id/items/:product_id", tabCtrl.RemoveItem)
	}

	// WebSocket endpoint, token via query param.
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.WebSocketAuthMiddleware())
	{
		wsGroup.GET("/live", controllers.LiveHandler)
	}

	return r
}
