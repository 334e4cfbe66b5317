package httpapi

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/city-dashboard/internal/city"
	"github.com/i474232898/city-dashboard/internal/feed"
	"github.com/i474232898/city-dashboard/internal/feed/providers"
	"github.com/i474232898/city-dashboard/internal/store"
)

func newTestApp(t *testing.T) (*fiber.App, *feed.Service, *city.Selected) {
	t.Helper()

	client := &http.Client{Timeout: time.Second}
	provs := feed.Providers{
		Weather:    providers.NewOpenWeatherProvider(client, ""),
		AirQuality: providers.NewOpenAQProvider(client, ""),
		News:       providers.NewNewsAPIProvider(client, ""),
		Parking:    providers.NewPlacesProvider(client, "", nil, 0),
	}

	sel := city.New("Vancouver")
	svc := feed.NewService(sel, store.NewMemoryStore(), provs, 5*time.Second)
	svc.Start(t.Context())
	t.Cleanup(svc.Close)

	return NewApp(svc, sel), svc, sel
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string, dst any) int {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	if dst != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	app, _, _ := newTestApp(t)

	var body map[string]string
	assert.Equal(t, http.StatusOK, doJSON(t, app, http.MethodGet, "/health", "", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestCityEndpoints(t *testing.T) {
	app, svc, sel := newTestApp(t)
	svc.Wait()

	var got cityResponse
	assert.Equal(t, http.StatusOK, doJSON(t, app, http.MethodGet, "/api/v1/city", "", &got))
	assert.Equal(t, "Vancouver", got.City)

	assert.Equal(t, http.StatusOK, doJSON(t, app, http.MethodPut, "/api/v1/city?wait=true", `{"city":" Paris "}`, &got))
	assert.Equal(t, cityResponse{City: "Paris", Changed: true}, got)
	assert.Equal(t, "Paris", sel.Get())

	aq, ok := svc.AirQuality.Current()
	require.True(t, ok)
	assert.Equal(t, 72, aq.AQI)

	assert.Equal(t, http.StatusOK, doJSON(t, app, http.MethodPut, "/api/v1/city", `{"city":"Paris"}`, &got))
	assert.False(t, got.Changed)
}

// TestCityValidation verifies that blank or malformed city updates are
// rejected without touching the selected city.
func TestCityValidation(t *testing.T) {
	app, _, sel := newTestApp(t)

	for _, body := range []string{`{"city":"   "}`, `{}`, `not json`, `{"city":"` + strings.Repeat("x", 101) + `"}`} {
		var e map[string]any
		assert.Equal(t, http.StatusBadRequest, doJSON(t, app, http.MethodPut, "/api/v1/city", body, &e), body)
		assert.Equal(t, true, e["error"])
	}
	assert.Equal(t, "Vancouver", sel.Get())
}

func TestCitySuggestions(t *testing.T) {
	app, _, _ := newTestApp(t)

	var body struct {
		Cities []string `json:"cities"`
	}
	assert.Equal(t, http.StatusOK, doJSON(t, app, http.MethodGet, "/api/v1/cities?prefix=to", "", &body))
	assert.Equal(t, []string{"Toronto", "Tokyo"}, body.Cities)

	long := strings.Repeat("a", 101)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, app, http.MethodGet, "/api/v1/cities?prefix="+long, "", nil))
}

func TestFeedEndpoints(t *testing.T) {
	app, svc, _ := newTestApp(t)
	svc.Wait()

	var aq feed.FeedState[feed.AirQuality]
	assert.Equal(t, http.StatusOK, doJSON(t, app, http.MethodGet, "/api/v1/airquality", "", &aq))
	require.NotNil(t, aq.Data)
	assert.Equal(t, 45, aq.Data.AQI)
	assert.Equal(t, feed.ProvenanceSynthetic, aq.Data.Provenance)

	var news feed.FeedState[[]feed.NewsArticle]
	assert.Equal(t, http.StatusOK, doJSON(t, app, http.MethodGet, "/api/v1/news", "", &news))
	require.NotNil(t, news.Data)
	assert.Len(t, *news.Data, 2)

	var parking feed.FeedState[[]feed.ParkingSpot]
	assert.Equal(t, http.StatusOK, doJSON(t, app, http.MethodGet, "/api/v1/parking", "", &parking))
	require.NotNil(t, parking.Data)
	assert.Len(t, *parking.Data, 4)

	// No weather key and no snapshot: nothing to show yet.
	var e map[string]any
	assert.Equal(t, http.StatusNotFound, doJSON(t, app, http.MethodGet, "/api/v1/weather", "", &e))
	assert.Contains(t, e["message"], "no data for feed")
}

func TestDashboardAndRefresh(t *testing.T) {
	app, svc, _ := newTestApp(t)
	svc.Wait()

	var d feed.Dashboard
	assert.Equal(t, http.StatusOK, doJSON(t, app, http.MethodGet, "/api/v1/dashboard", "", &d))
	assert.Equal(t, "Vancouver", d.City)
	assert.Nil(t, d.Weather.Data)
	require.NotNil(t, d.AirQuality.Data)

	var r struct {
		feed.Dashboard
		Errors []string `json:"errors"`
	}
	assert.Equal(t, http.StatusOK, doJSON(t, app, http.MethodPost, "/api/v1/refresh", "", &r))
	require.Len(t, r.Errors, 1)
	assert.Contains(t, r.Errors[0], "no-credential")
	assert.Equal(t, "Vancouver", r.City)
	require.NotNil(t, r.News.Data)
}

func TestOverlappingCityChangesWithWait(t *testing.T) {
	app, svc, _ := newTestApp(t)
	svc.Wait()

	var wg sync.WaitGroup
	for _, name := range []string{"Paris", "Tokyo", "Berlin", "Delhi"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 3; i++ {
				req := httptest.NewRequest(http.MethodPut, "/api/v1/city?wait=true", strings.NewReader(`{"city":"`+name+`"}`))
				req.Header.Set("Content-Type", "application/json")
				resp, err := app.Test(req, 10000)
				if assert.NoError(t, err) {
					assert.Equal(t, http.StatusOK, resp.StatusCode, name)
					_ = resp.Body.Close()
				}
			}
		}()
	}
	wg.Wait()

	svc.Wait()
	assert.False(t, svc.AirQuality.Busy())
}
