package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/city-dashboard/internal/common"
	"github.com/i474232898/city-dashboard/internal/feed"
)

const (
	openAQSearchRadiusMeters = 20000
	openAQMeasurementsLimit  = 10
	openAQMixedPollutant     = "Mixed Sensors"
)

// openAQCoordinates backs the coordinate search for cities whose name
// lookup returns nothing. Keyed by lower-case city name.
var openAQCoordinates = map[string]feed.Coordinate{
	"vancouver":   {Lat: 49.2827, Lon: -123.1207},
	"toronto":     {Lat: 43.6532, Lon: -79.3832},
	"montreal":    {Lat: 45.5017, Lon: -73.5673},
	"calgary":     {Lat: 51.0447, Lon: -114.0719},
	"edmonton":    {Lat: 53.5461, Lon: -113.4938},
	"london":      {Lat: 51.5074, Lon: -0.1278},
	"paris":       {Lat: 48.8566, Lon: 2.3522},
	"tokyo":       {Lat: 35.6895, Lon: 139.6917},
	"new york":    {Lat: 40.7128, Lon: -74.0060},
	"los angeles": {Lat: 34.0522, Lon: -118.2437},
	"delhi":       {Lat: 28.7041, Lon: 77.1025},
	"beijing":     {Lat: 39.9042, Lon: 116.4074},
}

// OpenAQProvider implements feed.Provider[feed.AirQuality] on top of the
// OpenAQ v3 API. Fetch never returns an error: when no strategy produces a
// reading the synthetic table is used instead.
type OpenAQProvider struct {
	name      string
	apiKey    string
	baseURL   string
	client    *http.Client
	circuit   *gobreaker.CircuitBreaker
	mockDelay time.Duration
}

func NewOpenAQProvider(client *http.Client, apiKey string) *OpenAQProvider {
	return &OpenAQProvider{
		name:      "openaq",
		apiKey:    strings.TrimSpace(apiKey),
		baseURL:   "https://api.openaq.org/v3",
		client:    client,
		circuit:   newCircuitBreaker("openaq"),
		mockDelay: 120 * time.Millisecond,
	}
}

func (p *OpenAQProvider) Name() string {
	return p.name
}

type openAQLocations struct {
	Results []struct {
		ID int64 `json:"id"`
	} `json:"results"`
}

type openAQLatest struct {
	Results []struct {
		Value *float64 `json:"value"`
	} `json:"results"`
}

type openAQMeasurements struct {
	Results []openAQMeasurement `json:"results"`
}

type openAQMeasurement struct {
	Parameter string   `json:"parameter"`
	Value     *float64 `json:"value"`
}

func (p *OpenAQProvider) Fetch(ctx context.Context, city string) (feed.AirQuality, error) {
	if p.apiKey == "" {
		simulateDelay(ctx, p.mockDelay)
		return SyntheticAirQuality(city), nil
	}
	if common.IsBlank(city) {
		return SyntheticAirQuality(city), nil
	}

	aq, ok, err := p.resolve(ctx, city)
	if err != nil {
		slog.Warn("air quality lookup failed; using synthetic data", "feed", p.name, "city", city, "err", err)
		return SyntheticAirQuality(city), nil
	}
	if !ok {
		slog.Info("no air quality readings found; using synthetic data", "feed", p.name, "city", city)
		return SyntheticAirQuality(city), nil
	}
	return aq, nil
}

// resolve runs the lookup strategies in order. A non-2xx response moves on
// to the next strategy; any other error aborts the chain.
func (p *OpenAQProvider) resolve(ctx context.Context, city string) (feed.AirQuality, bool, error) {
	byCity := url.Values{}
	byCity.Set("city", city)
	byCity.Set("limit", "1")

	aq, ok, err := p.fromLocations(ctx, city, byCity)
	if err != nil || ok {
		return aq, ok, err
	}

	if coord, found := openAQCoordinates[strings.ToLower(strings.TrimSpace(city))]; found {
		byCoord := url.Values{}
		byCoord.Set("coordinates", formatCoordinate(coord))
		byCoord.Set("radius", strconv.Itoa(openAQSearchRadiusMeters))
		byCoord.Set("limit", "1")

		aq, ok, err = p.fromLocations(ctx, city, byCoord)
		if err != nil || ok {
			return aq, ok, err
		}
	} else {
		slog.Debug("no coordinate mapping for city", "feed", p.name, "city", city)
	}

	return p.fromMeasurements(ctx, city)
}

// fromLocations searches for a single location and reads its latest values.
func (p *OpenAQProvider) fromLocations(ctx context.Context, city string, query url.Values) (feed.AirQuality, bool, error) {
	u := fmt.Sprintf("%s/locations?%s", p.baseURL, query.Encode())
	slog.Debug("searching air quality locations", "feed", p.name, "city", city, "query", query.Encode())

	var payload openAQLocations
	if err := p.get(ctx, u, &payload); err != nil {
		if isStatusError(err) {
			slog.Debug("location search failed", "feed", p.name, "city", city, "err", err)
			return feed.AirQuality{}, false, nil
		}
		return feed.AirQuality{}, false, err
	}
	if len(payload.Results) == 0 {
		return feed.AirQuality{}, false, nil
	}

	return p.latest(ctx, city, payload.Results[0].ID)
}

// latest averages the latest sensor values of a location. Any failure here
// only disqualifies the current strategy.
func (p *OpenAQProvider) latest(ctx context.Context, city string, locationID int64) (feed.AirQuality, bool, error) {
	u := fmt.Sprintf("%s/locations/%d/latest", p.baseURL, locationID)

	var payload openAQLatest
	if err := p.get(ctx, u, &payload); err != nil {
		slog.Debug("latest readings unavailable", "feed", p.name, "city", city, "location_id", locationID, "err", err)
		return feed.AirQuality{}, false, nil
	}

	hourly := make([]int, 0, len(payload.Results))
	for _, r := range payload.Results {
		if r.Value == nil {
			continue
		}
		hourly = append(hourly, int(math.Round(*r.Value)))
	}
	if len(hourly) == 0 {
		return feed.AirQuality{}, false, nil
	}

	aqi := feed.RoundedMean(hourly)
	return feed.AirQuality{
		City:          city,
		AQI:           aqi,
		Category:      feed.MapCategory(aqi),
		MainPollutant: openAQMixedPollutant,
		Hourly:        hourly,
		FetchedAt:     time.Now().UTC(),
		Provenance:    feed.ProvenanceLive,
	}, true, nil
}

// fromMeasurements is the legacy per-city measurements lookup.
func (p *OpenAQProvider) fromMeasurements(ctx context.Context, city string) (feed.AirQuality, bool, error) {
	query := url.Values{}
	query.Set("city", city)
	query.Set("limit", strconv.Itoa(openAQMeasurementsLimit))
	query.Set("sort", "desc")
	u := fmt.Sprintf("%s/measurements?%s", p.baseURL, query.Encode())

	var payload openAQMeasurements
	if err := p.get(ctx, u, &payload); err != nil {
		if isStatusError(err) {
			slog.Debug("measurements lookup failed", "feed", p.name, "city", city, "err", err)
			return feed.AirQuality{}, false, nil
		}
		return feed.AirQuality{}, false, err
	}

	m, ok := pickMeasurement(payload.Results)
	if !ok {
		return feed.AirQuality{}, false, nil
	}

	aqi := int(math.Round(*m.Value))
	return feed.AirQuality{
		City:          city,
		AQI:           aqi,
		Category:      feed.MapCategory(aqi),
		MainPollutant: m.Parameter,
		Hourly:        []int{aqi},
		FetchedAt:     time.Now().UTC(),
		Provenance:    feed.ProvenanceLive,
	}, true, nil
}

// pickMeasurement prefers the first particulate reading, then the first
// reading with a value.
func pickMeasurement(ms []openAQMeasurement) (openAQMeasurement, bool) {
	var (
		first openAQMeasurement
		found bool
	)
	for _, m := range ms {
		if m.Value == nil {
			continue
		}
		if common.EqualFoldAny(m.Parameter, "pm25", "pm10") {
			return m, true
		}
		if !found {
			first, found = m, true
		}
	}
	return first, found
}

func (p *OpenAQProvider) get(ctx context.Context, u string, dst any) error {
	header := http.Header{}
	header.Set("X-API-Key", p.apiKey)
	header.Set("Accept", "application/json")
	return getJSON(ctx, p.client, p.circuit, u, header, dst)
}

func isStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

func formatCoordinate(c feed.Coordinate) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}
