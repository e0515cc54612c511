// Package weather reads the current temperature of a city from OpenWeatherMap.
package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/m3rciful/healthbot/core/logger"
	"github.com/m3rciful/healthbot/internal/lookup"
)

const (
	// DefaultBaseURL is the public OpenWeatherMap API root.
	DefaultBaseURL = "https://api.openweathermap.org"

	service      = "weather"
	maxBodyBytes = 1 << 20
)

// Options configures Client.
type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	HTTP    *http.Client
}

// Client queries the current weather endpoint with metric units.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// New builds a Client; empty options fall back to defaults.
func New(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := opts.HTTP
	if hc == nil {
		hc = lookup.NewHTTPClient(opts.Timeout)
	}
	return &Client{apiKey: opts.APIKey, baseURL: base, http: hc}
}

// TemperatureC returns the current temperature for city in degrees Celsius.
// An unknown city yields lookup.ErrNotFound; every other failure is a *lookup.UpstreamError.
func (c *Client) TemperatureC(ctx context.Context, city string) (float64, error) {
	start := time.Now()
	q := url.Values{
		"q":     {city},
		"appid": {c.apiKey},
		"units": {"metric"},
	}
	endpoint := c.baseURL + "/data/2.5/weather?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, lookup.Upstream(service, 0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, lookup.Upstream(service, 0, stripURL(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, lookup.Upstream(service, resp.StatusCode, err)
	}

	temp, err := parseTemperature(resp.StatusCode, body)
	attrs := []slog.Attr{
		slog.String("city", logger.SanitizeLimit(city, 64)),
		slog.Int("http_status", resp.StatusCode),
		slog.Duration("elapsed_ms", logger.Took(start)),
		slog.String("status", logger.Status(err)),
	}
	if err == nil {
		attrs = append(attrs, slog.Float64("temp_c", temp))
	}
	logger.Debug(ctx, logger.CompWeather, "lookup", attrs...)
	return temp, err
}

func parseTemperature(status int, body []byte) (float64, error) {
	if status == http.StatusNotFound || gjson.GetBytes(body, "cod").String() == "404" {
		return 0, fmt.Errorf("%w: %s", lookup.ErrNotFound, gjson.GetBytes(body, "message").String())
	}
	if status != http.StatusOK {
		return 0, lookup.Upstream(service, status, errors.New(gjson.GetBytes(body, "message").String()))
	}
	if !gjson.ValidBytes(body) {
		return 0, lookup.Upstream(service, status, errors.New("malformed response body"))
	}
	temp := gjson.GetBytes(body, "main.temp")
	if temp.Type != gjson.Number {
		return 0, lookup.Upstream(service, status, errors.New("main.temp missing"))
	}
	return temp.Float(), nil
}

// stripURL drops the request URL (it carries the API key) from transport errors.
func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}
