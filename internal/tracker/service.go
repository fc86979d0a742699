package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"price-dashboard/internal/tracker/cache"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// KeyProducts is the cache key for the full product list.
	KeyProducts = "products"

	productKeyPrefix = "product:"

	// ProductsRefreshInterval matches the dashboard's 30-second poll.
	ProductsRefreshInterval = 30 * time.Second
)

// ProductKey is the cache key for one product's detail+history.
func ProductKey(id string) string {
	return productKeyPrefix + id
}

// Backend is the typed REST client surface the service depends on.
type Backend interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (ProductDetail, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (Product, error)
	UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// AlertPublisher emits triggered price alerts. A nil publisher disables
// alert events; targets are still tracked and logged.
type AlertPublisher interface {
	Publish(ctx context.Context, event AlertEvent) error
}

// Counters are the service's mutation metrics, registered by main.
type Counters struct {
	Created prometheus.Counter
	Updated prometheus.Counter
	Deleted prometheus.Counter
}

// Service owns the cached view of backend state and every mutation against
// it. Reads come from the cache; mutations go to the backend and then
// invalidate the affected keys, so pages keep showing the previous value
// until the refetch lands.
type Service struct {
	backend   Backend
	store     *cache.Store
	publisher AlertPublisher
	logger    *slog.Logger
	counters  Counters

	mu     sync.Mutex
	alerts map[string]float64 // product id -> target price

	productsSub *cache.Subscription
	watchDone   chan struct{}
}

func NewService(backend Backend, store *cache.Store, publisher AlertPublisher, logger *slog.Logger, counters Counters) *Service {
	s := &Service{
		backend:   backend,
		store:     store,
		publisher: publisher,
		logger:    logger,
		counters:  counters,
		alerts:    make(map[string]float64),
		watchDone: make(chan struct{}),
	}

	store.Register(KeyProducts, func(ctx context.Context) (any, error) {
		return backend.ListProducts(ctx)
	}, cache.Options{RefreshInterval: ProductsRefreshInterval})

	// Process-lifetime subscription: keeps the 30s revalidation ticker
	// running and feeds the alert watcher.
	s.productsSub = store.Subscribe(KeyProducts)
	go s.watchProducts()

	return s
}

// Close stops the alert watcher and releases the products subscription.
func (s *Service) Close() {
	s.productsSub.Close()
	<-s.watchDone
}

// Products returns the cached product list, blocking only for the very
// first fetch. The Result carries loading/error state for banners.
func (s *Service) Products(ctx context.Context) ([]Product, cache.Result) {
	res := s.store.Get(ctx, KeyProducts)
	products, _ := res.Value.([]Product)
	return products, res
}

// Detail returns one product with its price history, sorted or not as the
// backend sent it. Callers sort before deriving analytics.
func (s *Service) Detail(ctx context.Context, id string) (ProductDetail, cache.Result) {
	key := ProductKey(id)
	s.store.Register(key, func(ctx context.Context) (any, error) {
		return s.backend.GetProduct(ctx, id)
	}, cache.Options{})

	// A short-lived subscription so the entry stays warm for the grace
	// period after the page is served, instead of refetching per render.
	sub := s.store.Subscribe(key)
	defer sub.Close()

	res := s.store.Get(ctx, key)
	detail, _ := res.Value.(ProductDetail)
	return detail, res
}

// AddProduct validates, creates, and invalidates the product list. A
// FieldErrors return means no request was made.
func (s *Service) AddProduct(ctx context.Context, input CreateProductInput) (Product, error) {
	if errs := input.Validate(); errs != nil {
		return Product{}, errs
	}

	product, err := s.backend.CreateProduct(ctx, input.Normalized())
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}

	if s.counters.Created != nil {
		s.counters.Created.Inc()
	}
	s.store.Invalidate(KeyProducts)
	return product, nil
}

// UpdateProduct applies a partial update and invalidates the affected
// keys. Nil input fields are left untouched by the backend.
func (s *Service) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (Product, error) {
	product, err := s.backend.UpdateProduct(ctx, id, input)
	if err != nil {
		return Product{}, fmt.Errorf("update product %s: %w", id, err)
	}

	if s.counters.Updated != nil {
		s.counters.Updated.Inc()
	}
	s.store.Invalidate(KeyProducts)
	s.store.Invalidate(ProductKey(id))
	return product, nil
}

// ToggleActive flips a product's tracking state.
func (s *Service) ToggleActive(ctx context.Context, id string) (Product, error) {
	current, err := s.findProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}

	next := !current.IsActive
	return s.UpdateProduct(ctx, id, UpdateProductInput{IsActive: &next})
}

// RemoveProduct deletes a product. A NotFound from the backend means it is
// already gone and is treated as success.
func (s *Service) RemoveProduct(ctx context.Context, id string) error {
	err := s.backend.DeleteProduct(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if errors.Is(err, ErrNotFound) {
		s.logger.Info("delete of missing product treated as success", "product_id", id)
	}

	if s.counters.Deleted != nil {
		s.counters.Deleted.Inc()
	}
	s.mu.Lock()
	delete(s.alerts, id)
	s.mu.Unlock()
	s.store.Invalidate(KeyProducts)
	return nil
}

// SetAlert arms a price alert: the next products refresh at or below the
// target fires an AlertEvent and clears the target.
func (s *Service) SetAlert(id string, target float64) error {
	if target <= 0 {
		return fmt.Errorf("target price must be positive")
	}
	s.mu.Lock()
	s.alerts[id] = target
	s.mu.Unlock()
	return nil
}

// AlertTarget reports the armed target for a product, if any.
func (s *Service) AlertTarget(id string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.alerts[id]
	return target, ok
}

// Revalidate refreshes every cached key. Driven by browser focus and
// reconnect events.
func (s *Service) Revalidate() {
	s.store.RevalidateAll()
}

func (s *Service) findProduct(ctx context.Context, id string) (Product, error) {
	products, _ := s.Products(ctx)
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	detail, res := s.Detail(ctx, id)
	if res.Err != nil && res.Value == nil {
		return Product{}, res.Err
	}
	return detail.Product, nil
}

// watchProducts checks armed alerts against every applied products
// refresh. Publish failures are logged, never surfaced to the UI.
func (s *Service) watchProducts() {
	defer close(s.watchDone)
	for res := range s.productsSub.Updates() {
		products, ok := res.Value.([]Product)
		if !ok || res.Err != nil {
			continue
		}
		s.checkAlerts(products)
	}
}

func (s *Service) checkAlerts(products []Product) {
	s.mu.Lock()
	triggered := make([]AlertEvent, 0)
	for _, p := range products {
		target, ok := s.alerts[p.ID]
		if !ok || p.CurrentPrice <= 0 || p.CurrentPrice > target {
			continue
		}
		triggered = append(triggered, AlertEvent{
			EventType:    EventPriceAlert,
			ProductID:    p.ID,
			Name:         p.Name,
			TargetPrice:  target,
			CurrentPrice: p.CurrentPrice,
			Timestamp:    time.Now().UTC(),
		})
		delete(s.alerts, p.ID)
	}
	s.mu.Unlock()

	for _, event := range triggered {
		s.logger.Info("price alert fired",
			"product_id", event.ProductID,
			"target_price", event.TargetPrice,
			"current_price", event.CurrentPrice,
		)
		if s.publisher == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("publish price_alert event failed",
				"product_id", event.ProductID,
				"error", err,
			)
		}
		cancel()
	}
}
