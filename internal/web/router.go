package web

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	healthStatusOK        = "ok"
	healthStatusUnhealthy = "unhealthy"
)

// HealthChecker reports backend reachability.
type HealthChecker interface {
	Health(ctx context.Context) error
}

func RegisterRoutes(router *gin.Engine, handler *Handler, checker HealthChecker) {
	router.SetHTMLTemplate(pageTemplates())

	router.GET("/", handler.Dashboard)
	router.GET("/products/new", handler.NewProduct)
	router.POST("/products", handler.CreateProduct)
	router.GET("/products/:id", handler.ProductDetail)
	router.POST("/products/:id/toggle", handler.ToggleProduct)
	router.POST("/products/:id/delete", handler.DeleteProduct)
	router.POST("/products/:id/alert", handler.SetAlert)
	router.GET("/history", handler.History)

	api := router.Group("/api")
	api.GET("/products", handler.ListProductsAPI)
	api.GET("/products/:id", handler.GetProductAPI)
	api.POST("/revalidate", handler.RevalidateAPI)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		if err := checker.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": healthStatusUnhealthy})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": healthStatusOK})
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
