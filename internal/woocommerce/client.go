package woocommerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"autoparse/internal/adapter"
	"autoparse/internal/model"
	"autoparse/internal/transport"
)

// =============================================================================
// ORDER PAGINATION
// =============================================================================
//
// GET /orders returns at most per_page orders. We request pages starting at 1
// and stop on the first empty page or the first page shorter than PageSize.
//
// There is no upper bound unless MaxPages is set: an upstream bug that always
// returns exactly PageSize orders would loop forever. MaxPages turns that into
// an error instead of a silently truncated worklist.
// =============================================================================

// PageSize is the per_page value used when listing orders.
const PageSize = 100

// Config holds WooCommerce REST API settings.
type Config struct {
	// BaseURL is the REST namespace root, e.g. https://shop.example/wp-json/wc/v3
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string

	// MaxPages bounds order pagination. 0 means unbounded.
	MaxPages int

	// Transport configures the default client. Ignored when HTTPClient is set.
	Transport transport.Options

	// HTTPClient overrides the client built from Transport.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the WooCommerce REST API (wc/v3) using consumer key/secret
// query authentication.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	consumerKey    string
	consumerSecret string
	maxPages       int
	logger         *slog.Logger
}

var _ adapter.Store = (*Client)(nil)

// New creates a WooCommerce client with the given configuration.
// A blank base URL is not rejected here: FetchProcessingOrders reports it as a
// configuration error so the failure surfaces on the request that needs it.
func New(cfg Config) (*Client, error) {
	if cfg.MaxPages < 0 {
		return nil, fmt.Errorf("max pages must not be negative")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = transport.NewClient(cfg.Transport)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/"),
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		maxPages:       cfg.MaxPages,
		logger:         logger,
	}, nil
}

// FetchProcessingOrders returns every order with status "processing", in the
// order the API returns them across pages.
func (c *Client) FetchProcessingOrders(ctx context.Context) ([]model.Order, error) {
	if c.baseURL == "" {
		return nil, model.NewConfigurationError("woocommerce.base-url")
	}

	var all []model.Order
	for page := 1; ; page++ {
		if c.maxPages > 0 && page > c.maxPages {
			return nil, model.NewRemoteAPIError(0, "",
				fmt.Errorf("pagination exceeded %d pages of %d orders", c.maxPages, PageSize))
		}

		orders, err := c.fetchOrderPage(ctx, page)
		if err != nil {
			return nil, err
		}

		// No more data
		if len(orders) == 0 {
			break
		}

		all = append(all, orders...)

		// A short page is the last page
		if len(orders) < PageSize {
			break
		}
	}

	ids := make([]int64, len(all))
	for i, o := range all {
		ids[i] = o.ID
	}
	c.logger.Debug("fetched processing orders",
		slog.Int("count", len(all)),
		slog.Any("ids", ids),
	)

	return all, nil
}

// fetchOrderPage fetches a single page of processing orders.
func (c *Client) fetchOrderPage(ctx context.Context, page int) ([]model.Order, error) {
	query := url.Values{}
	query.Set("status", model.StatusProcessing)
	query.Set("per_page", strconv.Itoa(PageSize))
	query.Set("page", strconv.Itoa(page))

	body, status, err := c.get(ctx, "/orders", query)
	if err != nil {
		return nil, model.NewRemoteAPIError(0, "", err)
	}
	if status < 200 || status >= 300 {
		return nil, model.NewRemoteAPIError(status, string(body), nil)
	}

	var orders []WooOrder
	if err := json.Unmarshal(body, &orders); err != nil {
		return nil, model.NewRemoteAPIError(0, "", fmt.Errorf("parsing orders page %d: %w", page, err))
	}

	return toOrders(orders), nil
}

// FetchProduct looks up a product by id. It never returns an error: failures
// are logged and reported as LookupFailed so one bad product cannot abort a
// document run.
func (c *Client) FetchProduct(ctx context.Context, productID *int64) model.ProductLookup {
	if productID == nil || *productID == 0 {
		return model.ProductLookup{Status: model.LookupAbsent}
	}
	id := *productID

	body, status, err := c.get(ctx, "/products/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		c.logger.Warn("unexpected error fetching product",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
		return model.ProductLookup{Status: model.LookupFailed, Err: err}
	}

	switch {
	case status == http.StatusNotFound:
		c.logger.Warn("product not found", slog.Int64("product_id", id))
		return model.ProductLookup{Status: model.LookupAbsent}
	case status < 200 || status >= 300:
		var wcErr WooErrorResponse
		json.Unmarshal(body, &wcErr) // Best effort parse
		c.logger.Warn("WooCommerce product error",
			slog.Int64("product_id", id),
			slog.Int("status", status),
			slog.String("code", wcErr.Code),
			slog.String("body", string(body)),
		)
		return model.ProductLookup{
			Status: model.LookupFailed,
			Err:    &model.RemoteAPIError{StatusCode: status, Body: string(body)},
		}
	}

	var p WooProduct
	if err := json.Unmarshal(body, &p); err != nil {
		c.logger.Warn("unparseable product response",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
		return model.ProductLookup{Status: model.LookupFailed, Err: fmt.Errorf("parsing product %d: %w", id, err)}
	}

	product := p.toProduct()
	return model.ProductLookup{Status: model.LookupFound, Product: &product}
}

// get issues an authenticated GET and returns the body and status code.
// Errors are transport or read faults only; HTTP status is left to the caller.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, int, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("consumer_key", c.consumerKey)
	query.Set("consumer_secret", c.consumerSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error embeds the full URL, consumer_secret included
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, 0, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading %s response: %w", path, err)
	}

	return body, resp.StatusCode, nil
}
