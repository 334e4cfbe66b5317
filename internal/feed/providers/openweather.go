package providers

import (
	"context"
	"errors"
	"fmt"
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
	// openWeatherMaxEntries is the number of 3-hourly steps requested (5 days).
	openWeatherMaxEntries = 40
	openWeatherTimeLayout = "2006-01-02 15:04:05"
)

var errNoOpenWeatherKey = errors.New("openweather api key is not configured")

// OpenWeatherProvider implements feed.Provider[feed.Weather] for the
// OpenWeatherMap 5 day / 3 hour forecast. Unlike the other feeds it does not
// fall back: every failure is returned as *feed.FetchError.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: "https://api.openweathermap.org/data/2.5",
		client:  client,
		circuit: newCircuitBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type openWeatherForecast struct {
	City struct {
		Name string `json:"name"`
	} `json:"city"`
	List []openWeatherEntry `json:"list"`
}

type openWeatherEntry struct {
	DtTxt string `json:"dt_txt"`
	Main  *struct {
		Temp    float64 `json:"temp"`
		TempMin float64 `json:"temp_min"`
		TempMax float64 `json:"temp_max"`
	} `json:"main"`
	Weather []struct {
		Main string `json:"main"`
		Icon string `json:"icon"`
	} `json:"weather"`
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, city string) (feed.Weather, error) {
	if common.IsBlank(city) {
		return feed.Weather{}, &feed.FetchError{Feed: p.name, Kind: feed.KindInvalidInput, Err: errBlankQuery}
	}
	if p.apiKey == "" {
		return feed.Weather{}, &feed.FetchError{Feed: p.name, Kind: feed.KindNoCredential, Err: errNoOpenWeatherKey}
	}

	values := url.Values{}
	values.Set("q", city)
	values.Set("units", "metric")
	values.Set("cnt", strconv.Itoa(openWeatherMaxEntries))
	values.Set("appid", p.apiKey)
	u := fmt.Sprintf("%s/forecast?%s", p.baseURL, values.Encode())

	var payload openWeatherForecast
	if err := getJSON(ctx, p.client, p.circuit, u, nil, &payload); err != nil {
		return feed.Weather{}, fetchError(p.name, err)
	}

	w, err := mapOpenWeatherForecast(payload, city)
	if err != nil {
		return feed.Weather{}, fetchError(p.name, err)
	}
	return w, nil
}

// mapOpenWeatherForecast normalizes a forecast response. Current conditions
// come from the first list entry. Reading stops at the first date past the
// kept forecast days, and only the first entry of each kept date is used, so
// only those entries need a main block.
func mapOpenWeatherForecast(payload openWeatherForecast, requestedCity string) (feed.Weather, error) {
	entries := payload.List
	if len(entries) == 0 {
		return feed.Weather{}, fmt.Errorf("%w: empty forecast list", errMalformed)
	}
	if len(entries) > openWeatherMaxEntries {
		entries = entries[:openWeatherMaxEntries]
	}

	seen := make(map[string]struct{}, feed.MaxForecastDays)
	readings := make([]feed.ForecastReading, 0, feed.MaxForecastDays)
	for i, e := range entries {
		ts, err := time.Parse(openWeatherTimeLayout, e.DtTxt)
		if err != nil {
			return feed.Weather{}, fmt.Errorf("%w: list[%d].dt_txt: %v", errMalformed, i, err)
		}
		date := ts.UTC().Format(time.DateOnly)
		if _, ok := seen[date]; ok {
			continue
		}
		if len(seen) == feed.MaxForecastDays {
			break
		}
		seen[date] = struct{}{}

		if e.Main == nil {
			return feed.Weather{}, fmt.Errorf("%w: list[%d] has no main block", errMalformed, i)
		}
		condition, _ := openWeatherCondition(e)
		readings = append(readings, feed.ForecastReading{
			Timestamp: ts.UTC(),
			Min:       e.Main.TempMin,
			Max:       e.Main.TempMax,
			Condition: condition,
		})
	}

	current := entries[0]
	condition, icon := openWeatherCondition(current)

	return feed.Weather{
		City:         common.DefaultIfBlank(payload.City.Name, requestedCity),
		TemperatureC: current.Main.Temp,
		Condition:    condition,
		Icon:         icon,
		Forecast:     feed.DailyForecast(readings, feed.MaxForecastDays),
		FetchedAt:    time.Now().UTC(),
		Provenance:   feed.ProvenanceLive,
	}, nil
}

func openWeatherCondition(e openWeatherEntry) (condition, icon string) {
	if len(e.Weather) == 0 {
		return "Unknown", ""
	}
	return common.DefaultIfBlank(e.Weather[0].Main, "Unknown"), e.Weather[0].Icon
}
