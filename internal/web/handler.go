package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"price-dashboard/internal/tracker"
	"price-dashboard/internal/tracker/analytics"
	"price-dashboard/internal/tracker/api"
	"price-dashboard/internal/tracker/cache"

	"github.com/gin-gonic/gin"
)

// TrackerService is the surface handlers need from the tracker service.
type TrackerService interface {
	Products(ctx context.Context) ([]tracker.Product, cache.Result)
	Detail(ctx context.Context, id string) (tracker.ProductDetail, cache.Result)
	AddProduct(ctx context.Context, input tracker.CreateProductInput) (tracker.Product, error)
	ToggleActive(ctx context.Context, id string) (tracker.Product, error)
	RemoveProduct(ctx context.Context, id string) error
	SetAlert(id string, target float64) error
	AlertTarget(id string) (float64, bool)
	ScrapingJobs(ctx context.Context, status tracker.JobStatus) ([]tracker.ScrapingJob, tracker.JobSummary, cache.Result)
	Revalidate()
}

type Handler struct {
	service TrackerService
	logger  *slog.Logger
}

func NewHandler(svc TrackerService, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

func (h *Handler) render(c *gin.Context, status int, page, title string, view any) {
	c.HTML(status, page, gin.H{"Title": title, "View": view})
}

// renderPolling is render plus the data attributes the inline script uses
// for the 30s poll and focus/reconnect revalidation.
func (h *Handler) renderPolling(c *gin.Context, status int, page, title string, view any, updatedAt time.Time) {
	c.HTML(status, page, gin.H{
		"Title":   title,
		"View":    view,
		"Poll":    true,
		"Updated": updatedAt.Format(time.RFC3339Nano),
	})
}

// Dashboard renders the product list as a grid or table with search and
// status filtering. A refresh failure never clears previously shown data:
// it becomes a stale banner, and only a never-loaded entry gets the full
// error page with a retry affordance.
func (h *Handler) Dashboard(c *gin.Context) {
	products, res := h.service.Products(c.Request.Context())

	if res.Value == nil && res.Err != nil {
		h.render(c, http.StatusBadGateway, "error", "Error", res.Err.Error())
		return
	}

	view := dashboardView{
		Query:   strings.TrimSpace(c.Query("q")),
		Status:  c.DefaultQuery("status", "all"),
		View:    c.DefaultQuery("view", "grid"),
		Total:   len(products),
		Loading: res.Value == nil && res.Loading,
		Stale:   res.Err != nil,
	}
	if res.Err != nil {
		view.Error = res.Err.Error()
	}
	view.Products = filterProducts(products, view.Query, view.Status)
	view.Showing = len(view.Products)

	h.renderPolling(c, http.StatusOK, "dashboard", "Products Dashboard", view, res.UpdatedAt)
}

func filterProducts(products []tracker.Product, query, status string) []tracker.Product {
	filtered := make([]tracker.Product, 0, len(products))
	query = strings.ToLower(query)
	for _, p := range products {
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		if status == "active" && !p.IsActive {
			continue
		}
		if status == "paused" && p.IsActive {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}

func (h *Handler) NewProduct(c *gin.Context) {
	h.render(c, http.StatusOK, "product_form", "Add New Product", formView{
		Values: tracker.CreateProductInput{IsActive: true},
	})
}

// CreateProduct handles the add-product form. Validation failures and
// backend rejections both re-render the form with the entered values
// preserved; only validation failures skip the network call.
func (h *Handler) CreateProduct(c *gin.Context) {
	input := tracker.CreateProductInput{
		Name:            c.PostForm("name"),
		URL:             c.PostForm("url"),
		MercadoLibreURL: c.PostForm("mercadoLibreUrl"),
		IsActive:        c.PostForm("isActive") != "",
	}

	product, err := h.service.AddProduct(c.Request.Context(), input)
	if err != nil {
		view := formView{Values: input}
		var fieldErrs tracker.FieldErrors
		if errors.As(err, &fieldErrs) {
			view.Errors = fieldErrs
			h.render(c, http.StatusBadRequest, "product_form", "Add New Product", view)
			return
		}
		// Server rejections surface their message verbatim; transport
		// failures get a friendlier line.
		var apiErr *api.APIError
		var netErr *api.NetworkError
		switch {
		case errors.As(err, &apiErr):
			view.General = apiErr.Message
		case errors.As(err, &netErr):
			view.General = "could not reach the server, please try again"
		default:
			view.General = err.Error()
		}
		h.render(c, http.StatusBadGateway, "product_form", "Add New Product", view)
		return
	}

	h.render(c, http.StatusOK, "product_form", "Add New Product", formView{
		Values:  tracker.CreateProductInput{IsActive: true},
		Created: &product,
	})
}

// ProductDetail renders one product with chart, analytics, the profit
// calculator (?sell= query), and the alert form. A NotFound fetch gets the
// dedicated not-found page; any other failure the generic error page.
func (h *Handler) ProductDetail(c *gin.Context) {
	id := c.Param("id")
	detail, res := h.service.Detail(c.Request.Context(), id)

	if res.Value == nil {
		if errors.Is(res.Err, tracker.ErrNotFound) {
			h.render(c, http.StatusNotFound, "not_found", "Product Not Found", id)
			return
		}
		msg := "failed to load product"
		if res.Err != nil {
			msg = res.Err.Error()
		}
		h.render(c, http.StatusBadGateway, "error", "Error", msg)
		return
	}

	sorted := analytics.SortByTime(detail.PriceHistory)
	stats := analytics.PriceStats(sorted, detail.Product.CurrentPrice)

	view := detailView{
		Product:        detail.Product,
		History:        sorted,
		Trend:          analytics.TrendOf(detail.Product, sorted),
		Stats:          stats,
		Volatility:     analytics.Volatility(stats),
		AboveLowestPct: analytics.AboveLowestPct(detail.Product.CurrentPrice, stats.Min),
		Chart:          buildChart(sorted),
		SellRaw:        strings.TrimSpace(c.Query("sell")),
		Stale:          res.Err != nil,
	}
	view.AlertTarget, view.HasAlert = h.service.AlertTarget(id)

	if view.SellRaw != "" {
		sell, err := strconv.ParseFloat(view.SellRaw, 64)
		if err != nil {
			view.ProfitError = "selling price must be a number"
		} else if breakdown, err := analytics.ProfitAnalysis(detail.Product.CurrentPrice, sell, analytics.DefaultFeeRate); err != nil {
			view.ProfitError = err.Error()
		} else {
			view.Profit = &breakdown
		}
	}

	h.render(c, http.StatusOK, "product_detail", detail.Product.Name, view)
}

// ToggleProduct pauses or resumes tracking, then redirects back to the
// dashboard so the refreshed list is what renders.
func (h *Handler) ToggleProduct(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.service.ToggleActive(c.Request.Context(), id); err != nil {
		if errors.Is(err, tracker.ErrNotFound) {
			h.render(c, http.StatusNotFound, "not_found", "Product Not Found", id)
			return
		}
		h.render(c, http.StatusBadGateway, "error", "Error", err.Error())
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// DeleteProduct removes a product. The service already maps an
// already-deleted id to success, so there is no not-found branch here.
func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.service.RemoveProduct(c.Request.Context(), c.Param("id")); err != nil {
		h.render(c, http.StatusBadGateway, "error", "Error", err.Error())
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) SetAlert(c *gin.Context) {
	id := c.Param("id")
	target, err := strconv.ParseFloat(strings.TrimSpace(c.PostForm("target")), 64)
	if err != nil || target <= 0 {
		c.Redirect(http.StatusSeeOther, "/products/"+id)
		return
	}
	if err := h.service.SetAlert(id, target); err != nil {
		h.render(c, http.StatusBadRequest, "error", "Error", err.Error())
		return
	}
	c.Redirect(http.StatusSeeOther, "/products/"+id)
}

func (h *Handler) History(c *gin.Context) {
	status := tracker.JobStatus(c.Query("status"))
	jobs, summary, res := h.service.ScrapingJobs(c.Request.Context(), status)

	view := historyView{
		Jobs:    jobs,
		Summary: summary,
		Status:  string(status),
		Stale:   res.Err != nil && res.Value != nil,
	}
	if res.Value == nil && res.Err != nil {
		view.Error = res.Err.Error()
	}
	h.render(c, http.StatusOK, "history", "Scraping History", view)
}
