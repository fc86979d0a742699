package web

import (
	"errors"
	"net/http"
	"time"

	"price-dashboard/internal/tracker"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error" example:"product not found"`
}

type productsResponse struct {
	Items     []tracker.Product `json:"items"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Stale     bool              `json:"stale"`
}

type revalidateResponse struct {
	Status string `json:"status" example:"revalidating"`
}

// ListProductsAPI godoc
// @Summary      Cached product list
// @Description  Serves the dashboard's cached view of the backend. Stale is true when the most recent refresh failed and the previous value is being served.
// @Tags         products
// @Produce      json
// @Success      200  {object}  productsResponse
// @Failure      502  {object}  errorResponse
// @Router       /api/products [get]
func (h *Handler) ListProductsAPI(c *gin.Context) {
	products, res := h.service.Products(c.Request.Context())
	if res.Value == nil && res.Err != nil {
		c.JSON(http.StatusBadGateway, errorResponse{Error: res.Err.Error()})
		return
	}

	c.JSON(http.StatusOK, productsResponse{
		Items:     products,
		UpdatedAt: res.UpdatedAt,
		Stale:     res.Err != nil,
	})
}

// GetProductAPI godoc
// @Summary      Cached product detail with price history
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  tracker.ProductDetail
// @Failure      404  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /api/products/{id} [get]
func (h *Handler) GetProductAPI(c *gin.Context) {
	detail, res := h.service.Detail(c.Request.Context(), c.Param("id"))
	if res.Value == nil {
		if errors.Is(res.Err, tracker.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorResponse{Error: "product not found"})
			return
		}
		msg := "failed to load product"
		if res.Err != nil {
			msg = res.Err.Error()
		}
		c.JSON(http.StatusBadGateway, errorResponse{Error: msg})
		return
	}

	c.JSON(http.StatusOK, detail)
}

// RevalidateAPI godoc
// @Summary      Refresh every cached resource
// @Description  Posted by the browser when the window regains focus or connectivity returns.
// @Tags         cache
// @Produce      json
// @Success      202  {object}  revalidateResponse
// @Router       /api/revalidate [post]
func (h *Handler) RevalidateAPI(c *gin.Context) {
	h.service.Revalidate()
	c.JSON(http.StatusAccepted, revalidateResponse{Status: "revalidating"})
}
