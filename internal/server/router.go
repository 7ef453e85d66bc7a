package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dwikikusuma/cartd/internal/handlers"
)

type RouterConfig struct {
	Cart     *handlers.CartHandler
	Migrate  *handlers.MigrateHandler
	Catalog  *handlers.CatalogHandler
	Checkout *handlers.CheckoutHandler
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/readyz", func(c *gin.Context) { c.Status(http.StatusOK) })
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	router.POST("/cart", cfg.Cart.Add)
	router.PUT("/cart", cfg.Cart.Set)
	router.GET("/cart/:ownerId", cfg.Cart.List)
	router.POST("/cart/migrate", cfg.Migrate.Migrate)
	router.POST("/cart/checkout", cfg.Checkout.Checkout)

	router.GET("/products", cfg.Catalog.List)
	router.GET("/products/:productId", cfg.Catalog.Get)

	return router
}
