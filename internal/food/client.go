// Package food searches products in the OpenFoodFacts database.
package food

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/m3rciful/healthbot/core/logger"
	"github.com/m3rciful/healthbot/internal/lookup"
)

const (
	// DefaultBaseURL is the public OpenFoodFacts root.
	DefaultBaseURL = "https://world.openfoodfacts.org"
	// DefaultUserAgent identifies the bot as OpenFoodFacts asks API clients to do.
	DefaultUserAgent = "healthbot/1.0 (+https://github.com/m3rciful/healthbot)"

	service      = "food"
	pageSize     = 5
	maxBodyBytes = 4 << 20
)

// Product is a single search hit. EnergyKcal100g is nil when the product has no energy value.
type Product struct {
	Name           string
	EnergyKcal100g *float64
}

// Options configures Client.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	HTTP      *http.Client
}

// Client calls the OpenFoodFacts search endpoint.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// New builds a Client; empty options fall back to defaults.
func New(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = DefaultUserAgent
	}
	hc := opts.HTTP
	if hc == nil {
		hc = lookup.NewHTTPClient(opts.Timeout)
	}
	return &Client{baseURL: base, userAgent: ua, http: hc}
}

// Search returns products matching query in relevance order.
// An empty result is not an error; failures are reported as *lookup.UpstreamError.
func (c *Client) Search(ctx context.Context, query string) ([]Product, error) {
	start := time.Now()
	q := url.Values{
		"action":       {"process"},
		"search_terms": {query},
		"json":         {"true"},
		"page_size":    {strconv.Itoa(pageSize)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/cgi/search.pl?"+q.Encode(), nil)
	if err != nil {
		return nil, lookup.Upstream(service, 0, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Err != nil {
			err = urlErr.Err
		}
		return nil, lookup.Upstream(service, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, lookup.Upstream(service, resp.StatusCode, err)
	}

	products, err := parseProducts(resp.StatusCode, body)
	logger.Debug(ctx, logger.CompFood, "search",
		slog.String("query", logger.SanitizeLimit(query, 64)),
		slog.Int("http_status", resp.StatusCode),
		slog.Int("results", len(products)),
		slog.Duration("elapsed_ms", logger.Took(start)),
		slog.String("status", logger.Status(err)),
	)
	return products, err
}

func parseProducts(status int, body []byte) ([]Product, error) {
	if status != http.StatusOK {
		return nil, lookup.Upstream(service, status, nil)
	}
	if !gjson.ValidBytes(body) {
		return nil, lookup.Upstream(service, status, errors.New("malformed response body"))
	}
	list := gjson.GetBytes(body, "products")
	if list.Exists() && !list.IsArray() {
		return nil, lookup.Upstream(service, status, errors.New("products is not an array"))
	}

	var out []Product
	list.ForEach(func(_, p gjson.Result) bool {
		out = append(out, Product{
			Name:           strings.TrimSpace(p.Get("product_name").String()),
			EnergyKcal100g: energyKcal(p.Get("nutriments.energy-kcal_100g")),
		})
		return true
	})
	return out, nil
}

// energyKcal accepts numbers and numeric strings; anything else counts as missing.
func energyKcal(v gjson.Result) *float64 {
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Float()
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	return &f
}
