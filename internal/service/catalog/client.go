// Package catalog is the REST client for the Catalog/Cart Service.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	model "github.com/zhouzirui/shopbot/backend/internal/model/catalog"
)

// ErrNotFound is returned for 404 answers.
var ErrNotFound = errors.New("catalog: not found")

// APIError is a non-2xx answer. Message carries the service's own message
// when the body had one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("catalog: unexpected status %d", e.Status)
	}
	return fmt.Sprintf("catalog: status %d: %s", e.Status, e.Message)
}

// UserMessage returns the most useful text to show a shopper for err.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "el servicio tardó demasiado en responder"
	}
	return err.Error()
}

// envelope is the response wrapper every endpoint uses.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type itemsRequest struct {
	Items []model.LineItem `json:"items"`
}

// Client calls the Catalog/Cart Service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client. A nil httpClient gets one with timeout.
func NewClient(baseURL string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// SearchProducts returns the products matching q. An empty q lists the
// whole catalog.
func (c *Client) SearchProducts(ctx context.Context, q string) ([]model.Product, error) {
	path := "/products"
	if q = strings.TrimSpace(q); q != "" {
		path += "?q=" + url.QueryEscape(q)
	}
	var products []model.Product
	if err := c.do(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct fetches one product.
func (c *Client) GetProduct(ctx context.Context, id int) (model.Product, error) {
	var p model.Product
	err := c.do(ctx, http.MethodGet, "/products/"+strconv.Itoa(id), nil, &p)
	return p, err
}

// CreateCart opens a cart with items.
func (c *Client) CreateCart(ctx context.Context, items []model.LineItem) (model.Cart, error) {
	var cart model.Cart
	err := c.do(ctx, http.MethodPost, "/carts", itemsRequest{Items: items}, &cart)
	return cart, err
}

// UpdateCart upserts items by product id; a line with Qty 0 is removed.
func (c *Client) UpdateCart(ctx context.Context, id int, items []model.LineItem) (model.Cart, error) {
	var cart model.Cart
	err := c.do(ctx, http.MethodPatch, "/carts/"+strconv.Itoa(id), itemsRequest{Items: items}, &cart)
	return cart, err
}

// GetCart fetches a cart with nested products and totals.
func (c *Client) GetCart(ctx context.Context, id int) (model.Cart, error) {
	var cart model.Cart
	err := c.do(ctx, http.MethodGet, "/carts/"+strconv.Itoa(id), nil, &cart)
	return cart, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if decodeErr != nil {
		return fmt.Errorf("decode %s response: %w", path, decodeErr)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%s response has no data", path)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", path, err)
	}
	return nil
}
