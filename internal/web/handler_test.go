package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"price-dashboard/internal/tracker"
	"price-dashboard/internal/tracker/api"
	"price-dashboard/internal/tracker/cache"

	"github.com/gin-gonic/gin"
)

type stubService struct {
	products    []tracker.Product
	productsRes cache.Result

	detail    tracker.ProductDetail
	detailRes cache.Result

	addProduct   tracker.Product
	addErr       error
	addCalled    bool
	toggleErr    error
	removeErr    error
	removedID    string
	alertTarget  float64
	hasAlert     bool
	jobs         []tracker.ScrapingJob
	summary      tracker.JobSummary
	revalidated  int
	alertSetID   string
	alertSetGoal float64
}

func (s *stubService) Products(ctx context.Context) ([]tracker.Product, cache.Result) {
	return s.products, s.productsRes
}

func (s *stubService) Detail(ctx context.Context, id string) (tracker.ProductDetail, cache.Result) {
	return s.detail, s.detailRes
}

func (s *stubService) AddProduct(ctx context.Context, input tracker.CreateProductInput) (tracker.Product, error) {
	s.addCalled = true
	if s.addErr != nil {
		return tracker.Product{}, s.addErr
	}
	return s.addProduct, nil
}

func (s *stubService) ToggleActive(ctx context.Context, id string) (tracker.Product, error) {
	return tracker.Product{}, s.toggleErr
}

func (s *stubService) RemoveProduct(ctx context.Context, id string) error {
	s.removedID = id
	return s.removeErr
}

func (s *stubService) SetAlert(id string, target float64) error {
	s.alertSetID = id
	s.alertSetGoal = target
	return nil
}

func (s *stubService) AlertTarget(id string) (float64, bool) {
	return s.alertTarget, s.hasAlert
}

func (s *stubService) ScrapingJobs(ctx context.Context, status tracker.JobStatus) ([]tracker.ScrapingJob, tracker.JobSummary, cache.Result) {
	return s.jobs, s.summary, s.productsRes
}

func (s *stubService) Revalidate() {
	s.revalidated++
}

type okChecker struct{}

func (okChecker) Health(ctx context.Context) error { return nil }

func newTestRouter(svc TrackerService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	router := gin.New()
	RegisterRoutes(router, NewHandler(svc, logger), okChecker{})
	return router
}

func doRequest(router *gin.Engine, method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func loadedProducts(products ...tracker.Product) *stubService {
	return &stubService{
		products:    products,
		productsRes: cache.Result{Value: products, UpdatedAt: time.Now()},
	}
}

func TestDashboard_RendersProducts(t *testing.T) {
	svc := loadedProducts(
		tracker.Product{ID: "p1", Name: "Echo Dot", CurrentPrice: 29.99, IsActive: true},
		tracker.Product{ID: "p2", Name: "Kindle", CurrentPrice: 89.99, IsActive: false},
	)
	router := newTestRouter(svc)

	rec := doRequest(router, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Echo Dot") || !strings.Contains(body, "Kindle") {
		t.Fatalf("products missing from page:\n%s", body)
	}
}

func TestDashboard_StaleBannerKeepsData(t *testing.T) {
	products := []tracker.Product{{ID: "p1", Name: "Echo Dot", CurrentPrice: 29.99}}
	svc := &stubService{
		products: products,
		productsRes: cache.Result{
			Value:     products,
			Err:       fmt.Errorf("connection refused"),
			UpdatedAt: time.Now(),
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(router, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stale data must still render, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Echo Dot") {
		t.Fatal("stale page must keep the last known products")
	}
	if !strings.Contains(body, "Showing last known data") {
		t.Fatal("stale banner missing")
	}
}

func TestDashboard_NeverLoadedError(t *testing.T) {
	svc := &stubService{productsRes: cache.Result{Err: fmt.Errorf("connection refused")}}
	router := newTestRouter(svc)

	rec := doRequest(router, http.MethodGet, "/", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("want 502 for never-loaded failure, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Retry") {
		t.Fatal("error page must offer a retry")
	}
}

func TestDashboard_SearchFilter(t *testing.T) {
	svc := loadedProducts(
		tracker.Product{ID: "p1", Name: "Echo Dot"},
		tracker.Product{ID: "p2", Name: "Kindle"},
	)
	router := newTestRouter(svc)

	rec := doRequest(router, http.MethodGet, "/?q=kindle", nil)
	body := rec.Body.String()
	if strings.Contains(body, "Echo Dot") || !strings.Contains(body, "Kindle") {
		t.Fatalf("search filter not applied:\n%s", body)
	}
}

func TestCreateProduct_ValidationRerendersForm(t *testing.T) {
	svc := &stubService{addErr: tracker.FieldErrors{"name": "product name must be at least 3 characters"}}
	router := newTestRouter(svc)

	form := url.Values{"name": {"ab"}, "url": {"https://amazon.com/dp/X"}}
	rec := doRequest(router, http.MethodPost, "/products", form)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "product name must be at least 3 characters") {
		t.Fatal("field error missing from re-rendered form")
	}
	if !strings.Contains(body, `value="ab"`) {
		t.Fatal("entered values must be preserved")
	}
}

func TestCreateProduct_BackendMessageShownVerbatim(t *testing.T) {
	svc := &stubService{addErr: fmt.Errorf("create product: %w", &api.APIError{
		Status:  http.StatusBadRequest,
		Message: "url must be an URL address",
	})}
	router := newTestRouter(svc)

	form := url.Values{"name": {"Echo Dot"}, "url": {"https://amazon.com/dp/X"}}
	rec := doRequest(router, http.MethodPost, "/products", form)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("want 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "url must be an URL address") {
		t.Fatal("backend message must be shown as-is")
	}
}

func TestCreateProduct_NetworkErrorFriendlyMessage(t *testing.T) {
	svc := &stubService{addErr: fmt.Errorf("create product: %w", &api.NetworkError{Err: fmt.Errorf("dial tcp: refused")})}
	router := newTestRouter(svc)

	form := url.Values{"name": {"Echo Dot"}, "url": {"https://amazon.com/dp/X"}}
	rec := doRequest(router, http.MethodPost, "/products", form)
	if !strings.Contains(rec.Body.String(), "could not reach the server") {
		t.Fatal("transport failures need the friendly line")
	}
}

func TestCreateProduct_SuccessBanner(t *testing.T) {
	svc := &stubService{addProduct: tracker.Product{ID: "p9", Name: "Echo Dot"}}
	router := newTestRouter(svc)

	form := url.Values{"name": {"Echo Dot"}, "url": {"https://amazon.com/dp/X"}, "isActive": {"1"}}
	rec := doRequest(router, http.MethodPost, "/products", form)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Product added successfully") {
		t.Fatal("success banner missing")
	}
}

func TestProductDetail_NotFound(t *testing.T) {
	svc := &stubService{detailRes: cache.Result{Err: tracker.ErrNotFound}}
	router := newTestRouter(svc)

	rec := doRequest(router, http.MethodGet, "/products/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rec.Code)
	}
}

func TestProductDetail_ProfitCalculator(t *testing.T) {
	detail := tracker.ProductDetail{
		Product: tracker.Product{ID: "p1", Name: "Echo Dot", CurrentPrice: 100},
		PriceHistory: []tracker.PriceHistoryPoint{
			{Date: time.Now().Add(-time.Hour), Price: 110},
		},
	}
	svc := &stubService{detail: detail, detailRes: cache.Result{Value: detail, UpdatedAt: time.Now()}}
	router := newTestRouter(svc)

	rec := doRequest(router, http.MethodGet, "/products/p1?sell=150", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	// 15% of 150 in fees, 27.50 profit.
	if !strings.Contains(body, "$22.50") || !strings.Contains(body, "$27.50") {
		t.Fatalf("profit breakdown missing:\n%s", body)
	}
}

func TestDeleteProduct_Redirects(t *testing.T) {
	svc := loadedProducts()
	router := newTestRouter(svc)

	rec := doRequest(router, http.MethodPost, "/products/p1/delete", url.Values{})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("want 303, got %d", rec.Code)
	}
	if svc.removedID != "p1" {
		t.Fatalf("want p1 removed, got %q", svc.removedID)
	}
}

func TestSetAlert_ParsesTarget(t *testing.T) {
	svc := loadedProducts()
	router := newTestRouter(svc)

	rec := doRequest(router, http.MethodPost, "/products/p1/alert", url.Values{"target": {"19.99"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("want 303, got %d", rec.Code)
	}
	if svc.alertSetID != "p1" || svc.alertSetGoal != 19.99 {
		t.Fatalf("alert not armed: %q %v", svc.alertSetID, svc.alertSetGoal)
	}
}

func TestListProductsAPI(t *testing.T) {
	svc := loadedProducts(tracker.Product{ID: "p1", Name: "Echo Dot", CurrentPrice: 29.99})
	router := newTestRouter(svc)

	rec := doRequest(router, http.MethodGet, "/api/products", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	var resp struct {
		Items []tracker.Product `json:"items"`
		Stale bool              `json:"stale"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].ID != "p1" || resp.Stale {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestGetProductAPI_NotFound(t *testing.T) {
	svc := &stubService{detailRes: cache.Result{Err: tracker.ErrNotFound}}
	router := newTestRouter(svc)

	rec := doRequest(router, http.MethodGet, "/api/products/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rec.Code)
	}
}

func TestRevalidateAPI(t *testing.T) {
	svc := loadedProducts()
	router := newTestRouter(svc)

	rec := doRequest(router, http.MethodPost, "/api/revalidate", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("want 202, got %d", rec.Code)
	}
	if svc.revalidated != 1 {
		t.Fatalf("want one revalidation, got %d", svc.revalidated)
	}
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(loadedProducts())

	rec := doRequest(router, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
}
