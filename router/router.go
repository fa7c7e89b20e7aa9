package router

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/pizzeria-app/config"
	"github.com/yeremiapane/pizzeria-app/controllers"
	"github.com/yeremiapane/pizzeria-app/middlewares"
	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/services"
	"github.com/yeremiapane/pizzeria-app/utils"
)

// App bundles the services the routes are wired to.
type App struct {
	Config   *config.Config
	Store    services.Store
	Tokens   *utils.TokenManager
	Users    *services.UserService
	Products *services.ProductService
	Orders   *services.OrderService
	Monitor  *services.OrderMonitor
}

// NewApp builds the services for store from cfg.
func NewApp(cfg *config.Config, store services.Store, userOpts ...services.UserServiceOption) *App {
	tokens := utils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	return &App{
		Config:   cfg,
		Store:    store,
		Tokens:   tokens,
		Users:    services.NewUserService(store, tokens, userOpts...),
		Products: services.NewProductService(store),
		Orders:   services.NewOrderService(store, services.WithDeliveryFee(cfg.Orders.DeliveryFee)),
		Monitor:  services.NewOrderMonitor(store, cfg.Orders.MonitorInterval, cfg.Orders.PendingAlertAfter),
	}
}

var imageSuffixes = []string{".jpg", ".jpeg", ".png", ".webp"}

func SetupRouter(app *App) *gin.Engine {
	cfg := app.Config
	r := gin.New()

	// Apply security middlewares
	r.Use(middlewares.LoggerMiddleware())
	r.Use(gin.Recovery())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(cfg.Server.AllowedOrigin))
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		utils.ErrorLogger.Printf("Invalid trusted proxies: %v", err)
	}

	// Hanya izinkan akses ke file gambar
	uploads := r.Group("/uploads", func(c *gin.Context) {
		p := strings.ToLower(c.Request.URL.Path)
		for _, suffix := range imageSuffixes {
			if strings.HasSuffix(p, suffix) {
				c.Next()
				return
			}
		}
		c.AbortWithStatus(http.StatusForbidden)
	})
	uploads.Static("/", filepath.Clean(cfg.Uploads.Dir))

	authCtrl := controllers.NewAuthController(app.Users)
	userCtrl := controllers.NewUserController(app.Users)
	productCtrl := controllers.NewProductController(app.Products,
		controllers.NewImageUploader(cfg.Uploads.Dir, cfg.Uploads.MaxSize))
	orderCtrl := controllers.NewOrderController(app.Orders, app.Monitor)

	authRequired := middlewares.AuthMiddleware(app.Tokens, app.Users)
	adminOnly := middlewares.Authorize(models.RoleAdmin)

	rateLimiter := middlewares.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateInterval)
	api := r.Group("/api", rateLimiter.RateLimit(), middlewares.RequestTimeout(cfg.Server.RequestTimeout))

	api.GET("/health", func(c *gin.Context) {
		if err := app.Store.Ping(c.Request.Context()); err != nil {
			utils.RespondAppError(c, utils.NewInternalError(err))
			return
		}
		utils.RespondJSON(c, http.StatusOK, "ok", nil)
	})

	// Rate limiter untuk login/register
	auth := api.Group("/auth")
	{
		strict := middlewares.NewStrictRateLimiter(cfg.Server.AuthRateLimit).Limit()
		auth.POST("/register", strict, authCtrl.Register)
		auth.POST("/login", strict, authCtrl.Login)
		auth.GET("/me", authRequired, authCtrl.Me)
	}

	products := api.Group("/products")
	{
		products.GET("", productCtrl.GetAllProducts)
		products.GET("/:id", productCtrl.GetProductByID)
		products.POST("", authRequired, adminOnly, productCtrl.CreateProduct)
		products.PUT("/:id", authRequired, adminOnly, productCtrl.UpdateProduct)
		products.DELETE("/:id", authRequired, adminOnly, productCtrl.DeleteProduct)
	}

	orders := api.Group("/orders", authRequired)
	{
		orders.POST("", orderCtrl.CreateOrder)
		orders.GET("/my-orders", orderCtrl.GetMyOrders)
		orders.GET("", adminOnly, orderCtrl.GetAllOrders)
		orders.GET("/stats", adminOnly, orderCtrl.GetOrderStats)
		orders.GET("/:id", orderCtrl.GetOrderByID)
		orders.PATCH("/:id/status", adminOnly, orderCtrl.UpdateOrderStatus)
		orders.PATCH("/:id/cancel", orderCtrl.CancelOrder)
	}

	users := api.Group("/users", authRequired)
	{
		users.PUT("/profile", userCtrl.UpdateProfile)
		users.PUT("/change-password", userCtrl.ChangePassword)
		users.GET("", adminOnly, userCtrl.GetAllUsers)
		users.GET("/:id", adminOnly, userCtrl.GetUserByID)
		users.PATCH("/:id/role", adminOnly, userCtrl.UpdateRole)
	}

	r.NoRoute(func(c *gin.Context) {
		utils.RespondError(c, http.StatusNotFound, errors.New("route not found"))
	})

	return r
}
