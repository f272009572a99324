package nominatim

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/GoArmGo/ProtogenMap/internal/config"
	"github.com/GoArmGo/ProtogenMap/internal/geocoding"
	"github.com/goccy/go-json"
)

// maxErrorBody сколько байт тела ответа попадает в текст ошибки.
const maxErrorBody = 512

// Client клиент OpenStreetMap Nominatim, реализует geocoding.Provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	language   string
	logger     *slog.Logger
}

// NewClient создает новый экземпляр Client.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Nominatim.Timeout},
		baseURL:    strings.TrimRight(cfg.Nominatim.BaseURL, "/"),
		userAgent:  cfg.Nominatim.UserAgent,
		language:   cfg.Nominatim.Language,
		logger:     logger,
	}
}

// Reverse обратное геокодирование. (nil, nil), если Nominatim не нашёл объект или не вернул адрес.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (*geocoding.Address, error) {
	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("addressdetails", "1")
	params.Set("accept-language", c.language)

	var resp ReverseResponse
	if err := c.get(ctx, "/reverse", params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" || resp.Address == nil {
		c.logger.Debug("nominatim reverse returned no address", "lat", lat, "lng", lng, "reason", resp.Error)
		return nil, nil
	}
	return mapAddress(resp.Address), nil
}

// Search прямое геокодирование, берётся первый результат. (nil, nil), если ничего не найдено.
func (c *Client) Search(ctx context.Context, query string) (*geocoding.Point, error) {
	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("q", query)
	params.Set("limit", "1")
	params.Set("accept-language", c.language)

	var results []SearchResult
	if err := c.get(ctx, "/search", params, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("nominatim: некорректная широта %q: %w", results[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("nominatim: некорректная долгота %q: %w", results[0].Lon, err)
	}
	return &geocoding.Point{Lat: lat, Lng: lng}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dst any) error {
	endpoint := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("ошибка создания HTTP-запроса: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка выполнения HTTP-запроса к Nominatim %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("nominatim response received",
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("nominatim %s вернул статус %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("ошибка декодирования JSON ответа Nominatim %s: %w", path, err)
	}
	return nil
}

func mapAddress(a *AddressDetails) *geocoding.Address {
	return &geocoding.Address{
		Suburb:        a.Suburb,
		Neighbourhood: a.Neighbourhood,
		CityDistrict:  a.CityDistrict,
		County:        a.County,
		City:          a.City,
		Town:          a.Town,
		Village:       a.Village,
		State:         a.State,
		Country:       a.Country,
	}
}
