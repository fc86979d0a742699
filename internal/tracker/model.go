package tracker

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("product not found")

const (
	AlertsQueue     = "alerts.events"
	EventPriceAlert = "price_alert"
)

// Product is the backend's view of a tracked item. The dashboard never
// computes or rewrites these fields, it only relays them. JSON names match
// the backend wire format, including its "lastScrappedAt" spelling.
type Product struct {
	ID                 string    `json:"_id"`
	Name               string    `json:"name"`
	URL                string    `json:"url"`
	ImageURL           string    `json:"imageUrl,omitempty"`
	IsActive           bool      `json:"isActive"`
	LastScrapedAt      time.Time `json:"lastScrappedAt"`
	CurrentPrice       float64   `json:"currentPrice"`
	CurrentQuantity    int       `json:"currentQuantity,omitempty"`
	InStock            bool      `json:"inStock"`
	IsOnOffer          bool      `json:"isOnOffer"`
	DiscountPercentage float64   `json:"discountPercentage,omitempty"`
	OriginalPrice      float64   `json:"originalPrice,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`

	// Undocumented backend fields, passed through as-is when present.
	Profit                *float64 `json:"profit,omitempty"`
	LastPriceAmazon       *float64 `json:"lastPriceAmazon,omitempty"`
	LastPriceMercadoLibre *float64 `json:"lastPriceMercadoLibre,omitempty"`
}

// PriceHistoryPoint is one observed price at a point in time. The backend
// may return history in any order; callers sort before deriving anything.
type PriceHistoryPoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// ProductDetail is the GET /products/{id} response shape.
type ProductDetail struct {
	Product      Product             `json:"product"`
	PriceHistory []PriceHistoryPoint `json:"priceHistory"`
}

type CreateProductInput struct {
	Name            string `json:"name"`
	URL             string `json:"url"`
	MercadoLibreURL string `json:"mercadoLibreUrl,omitempty"`
	IsActive        bool   `json:"isActive"`
}

// UpdateProductInput is a partial update; nil fields are not sent, so the
// backend leaves them untouched.
type UpdateProductInput struct {
	Name     *string `json:"name,omitempty"`
	URL      *string `json:"url,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

// AlertEvent is published when a tracked product's price drops to or below
// a user-set target.
type AlertEvent struct {
	EventType    string    `json:"event_type"`
	ProductID    string    `json:"product_id"`
	Name         string    `json:"name,omitempty"`
	TargetPrice  float64   `json:"target_price"`
	CurrentPrice float64   `json:"current_price"`
	Timestamp    time.Time `json:"timestamp"`
}
