// Package api implements the typed HTTP client for the storefront backend.
// The backend owns all commerce logic; this client only shapes requests,
// attaches the guest cart token, and maps responses and errors.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/utafrali/storefront-go/errors"
	"github.com/utafrali/storefront-go/httpclient"
	"github.com/utafrali/storefront-go/tracing"
)

// CartTokenHeader carries the guest cart token on every cart request.
const CartTokenHeader = "X-Cart-Token"

// Client is the storefront backend API client.
type Client struct {
	baseURL string
	doer    httpclient.Doer
	logger  *slog.Logger
	tracer  trace.Tracer
	lang    string
}

// Option customizes a Client.
type Option func(*Client)

// WithLanguage sets the lang header sent on every request. Defaults to "en".
func WithLanguage(lang string) Option {
	return func(c *Client) { c.lang = lang }
}

// NewClient creates an API client for the backend at baseURL. The doer is
// typically an httpclient.Client or httpclient.CircuitBreakerClient.
func NewClient(baseURL string, doer httpclient.Doer, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer:    doer,
		logger:  logger,
		tracer:  tracing.Tracer("storefront-go/api"),
		lang:    "en",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetCart fetches the current cart. The token may be empty on a fresh
// session; the server then issues one in the response envelope.
func (c *Client) GetCart(ctx context.Context, cartToken string) (*CartEnvelope, error) {
	var env CartEnvelope
	if err := c.call(ctx, http.MethodGet, "/cart", cartToken, nil, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// AddToCart adds a product line (or increments an existing one) and returns
// the full server-side cart.
func (c *Client) AddToCart(ctx context.Context, cartToken string, req AddToCartRequest) (*CartEnvelope, error) {
	var env CartEnvelope
	if err := c.call(ctx, http.MethodPost, "/cart", cartToken, req, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// UpdateItemQuantity sets the quantity of an existing line item.
func (c *Client) UpdateItemQuantity(ctx context.Context, cartToken string, itemID int64, quantity int) (*CartEnvelope, error) {
	var env CartEnvelope
	path := fmt.Sprintf("/cart/items/%d", itemID)
	if err := c.call(ctx, http.MethodPut, path, cartToken, UpdateQuantityRequest{Quantity: quantity}, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// RemoveItem deletes a line item.
func (c *Client) RemoveItem(ctx context.Context, cartToken string, itemID int64) (*CartEnvelope, error) {
	var env CartEnvelope
	path := fmt.Sprintf("/cart/items/%d", itemID)
	if err := c.call(ctx, http.MethodDelete, path, cartToken, nil, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// ClearCart removes every line item.
func (c *Client) ClearCart(ctx context.Context, cartToken string) (*CartEnvelope, error) {
	var env CartEnvelope
	if err := c.call(ctx, http.MethodPost, "/cart/clear", cartToken, nil, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// MergeCart merges the guest token's cart into the authenticated customer's
// cart. The caller clears the local token on success.
func (c *Client) MergeCart(ctx context.Context, cartToken string) (*CartEnvelope, error) {
	var env CartEnvelope
	if err := c.call(ctx, http.MethodPost, "/cart/merge", cartToken, nil, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// ListProducts fetches the public product catalog.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var out struct {
		Data []Product `json:"data"`
	}
	if err := c.call(ctx, http.MethodGet, "/products", "", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// GetProduct fetches a single product by ID.
func (c *Client) GetProduct(ctx context.Context, productID int64) (*Product, error) {
	var out struct {
		Data Product `json:"data"`
	}
	path := fmt.Sprintf("/products/%d", productID)
	if err := c.call(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// ListPromoCodes fetches the publicly visible promo codes.
func (c *Client) ListPromoCodes(ctx context.Context) ([]PromoCode, error) {
	var out struct {
		Data []PromoCode `json:"data"`
	}
	if err := c.call(ctx, http.MethodGet, "/promo-codes", "", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// RedeemPromoCode validates a promo code against the cart attached to the
// token and returns the code's discount details.
func (c *Client) RedeemPromoCode(ctx context.Context, cartToken, code string) (*PromoCode, error) {
	var out struct {
		Data PromoCode `json:"data"`
	}
	req := RedeemPromoCodeRequest{Code: code}
	if err := c.call(ctx, http.MethodPost, "/promo-codes/redeem-code", cartToken, req, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// CreateOrder places an order from the cart attached to the token.
func (c *Client) CreateOrder(ctx context.Context, cartToken string, req CreateOrderRequest) (*Order, error) {
	var out struct {
		Data Order `json:"data"`
	}
	if err := c.call(ctx, http.MethodPost, "/orders", cartToken, req, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// TrackOrder looks up an order's tracking history by email and order code.
func (c *Client) TrackOrder(ctx context.Context, req TrackOrderRequest) (*Order, error) {
	var out struct {
		Data Order `json:"data"`
	}
	if err := c.call(ctx, http.MethodPost, "/track-order", "", req, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// SubmitContactMessage sends a contact form submission and returns the
// server's acknowledgement message.
func (c *Client) SubmitContactMessage(ctx context.Context, req ContactMessageRequest) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.call(ctx, http.MethodPost, "/contact-messages", "", req, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// GetSettings fetches the store settings document.
func (c *Client) GetSettings(ctx context.Context) (*AppSettings, error) {
	var out struct {
		Data AppSettings `json:"data"`
	}
	if err := c.call(ctx, http.MethodGet, "/settings", "", nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// ListFAQCategories fetches the FAQ categories in display order.
func (c *Client) ListFAQCategories(ctx context.Context) ([]FAQCategory, error) {
	var out struct {
		Data []FAQCategory `json:"data"`
	}
	if err := c.call(ctx, http.MethodGet, "/faq-categories", "", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// ListFAQs fetches all FAQ entries.
func (c *Client) ListFAQs(ctx context.Context) ([]FAQ, error) {
	var out struct {
		Data []FAQ `json:"data"`
	}
	if err := c.call(ctx, http.MethodGet, "/faqs", "", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// ListPolicies fetches all store policy documents.
func (c *Client) ListPolicies(ctx context.Context) ([]Policy, error) {
	var out struct {
		Data []Policy `json:"data"`
	}
	if err := c.call(ctx, http.MethodGet, "/policies", "", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// GetPolicyBySlug fetches a single policy document by its slug.
func (c *Client) GetPolicyBySlug(ctx context.Context, slug string) (*Policy, error) {
	var out struct {
		Data Policy `json:"data"`
	}
	path := "/policies/by-slug/" + url.PathEscape(slug)
	if err := c.call(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// ListTestimonials fetches the published customer testimonials.
func (c *Client) ListTestimonials(ctx context.Context) ([]Testimonial, error) {
	var out struct {
		Data []Testimonial `json:"data"`
	}
	if err := c.call(ctx, http.MethodGet, "/testimonials", "", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// call issues one request and decodes the response into out. Transport
// failures map to the generic no-response error; non-2xx responses are parsed
// into AppErrors preserving the server's message.
func (c *Client) call(ctx context.Context, method, path, cartToken string, body, out any) error {
	ctx, span := c.tracer.Start(ctx, method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", path),
		),
	)
	defer span.End()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("lang", c.lang)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cartToken != "" {
		req.Header.Set(CartTokenHeader, cartToken)
	}

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.logger.WarnContext(ctx, "storefront request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return apperrors.NoResponse(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := apperrors.ParseResponse(resp)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
		return err
	}

	defer func() { _ = resp.Body.Close() }()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
