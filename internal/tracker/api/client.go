package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"price-dashboard/internal/tracker"
)

const (
	defaultRequestTimeout = 10 * time.Second
	healthCheckTimeout    = 2 * time.Second
	contentTypeJSON       = "application/json"
)

// Client is a thin typed wrapper over the product-tracking REST backend.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func New(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultRequestTimeout},
		logger:  logger,
	}
}

func (c *Client) ListProducts(ctx context.Context) ([]tracker.Product, error) {
	var products []tracker.Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (tracker.ProductDetail, error) {
	var detail tracker.ProductDetail
	if err := c.do(ctx, http.MethodGet, "/products/"+id, nil, &detail); err != nil {
		return tracker.ProductDetail{}, err
	}
	return detail, nil
}

func (c *Client) CreateProduct(ctx context.Context, input tracker.CreateProductInput) (tracker.Product, error) {
	var product tracker.Product
	if err := c.do(ctx, http.MethodPost, "/products", input, &product); err != nil {
		return tracker.Product{}, err
	}
	return product, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id string, input tracker.UpdateProductInput) (tracker.Product, error) {
	var product tracker.Product
	if err := c.do(ctx, http.MethodPatch, "/products/"+id, input, &product); err != nil {
		return tracker.Product{}, err
	}
	return product, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/products/"+id, nil, nil)
}

// Health reports whether the backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	_, err := c.ListProducts(ctx)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentTypeJSON)

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := normalizeError(resp)
		c.logger.Warn("backend request failed",
			"method", method,
			"path", path,
			"status", apiErr.Status,
			"message", apiErr.Message,
		)
		return apiErr
	}

	// 204 is a successful empty result.
	if resp.StatusCode == http.StatusNoContent || out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// errorBody is the backend's error envelope: {statusCode, message, error}
// where message is a string or a list of strings.
type errorBody struct {
	StatusCode int             `json:"statusCode"`
	Message    json.RawMessage `json:"message"`
	Error      string          `json:"error"`
}

func normalizeError(resp *http.Response) *APIError {
	apiErr := &APIError{
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("HTTP %d", resp.StatusCode),
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiErr
	}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return apiErr
	}

	var list []string
	if err := json.Unmarshal(body.Message, &list); err == nil && len(list) > 0 {
		apiErr.Message = strings.Join(list, ", ")
		return apiErr
	}

	var single string
	if err := json.Unmarshal(body.Message, &single); err == nil && single != "" {
		apiErr.Message = single
	}
	return apiErr
}
