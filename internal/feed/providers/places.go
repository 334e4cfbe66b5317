package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/city-dashboard/internal/feed"
)

const (
	placesRadiusMeters = 2000
	placesType         = "parking"
	placesHours        = "7:00 AM - 11:00 PM"
	placesNotes        = "Check availability online"

	// DefaultLocateTimeout bounds a location fix when none is configured.
	DefaultLocateTimeout = 10 * time.Second
)

var (
	errNoLocator        = errors.New("no locator configured")
	errPermissionDenied = errors.New("location permission not granted")
	errNoFix            = errors.New("no location fix")
)

// PlacesProvider implements feed.Provider[[]feed.ParkingSpot] with the
// Google Places nearby search around the device position. Fetch never
// returns an error.
type PlacesProvider struct {
	name          string
	apiKey        string
	baseURL       string
	client        *http.Client
	circuit       *gobreaker.CircuitBreaker
	locator       feed.Locator
	locateTimeout time.Duration
	mockDelay     time.Duration
}

// NewPlacesProvider creates a PlacesProvider. A non-positive locateTimeout
// selects DefaultLocateTimeout.
func NewPlacesProvider(client *http.Client, apiKey string, locator feed.Locator, locateTimeout time.Duration) *PlacesProvider {
	if locateTimeout <= 0 {
		locateTimeout = DefaultLocateTimeout
	}
	return &PlacesProvider{
		name:          "googleplaces",
		apiKey:        strings.TrimSpace(apiKey),
		baseURL:       "https://maps.googleapis.com/maps/api/place",
		client:        client,
		circuit:       newCircuitBreaker("googleplaces"),
		locator:       locator,
		locateTimeout: locateTimeout,
		mockDelay:     150 * time.Millisecond,
	}
}

func (p *PlacesProvider) Name() string {
	return p.name
}

type placesResponse struct {
	Results []struct {
		Name     string `json:"name"`
		Vicinity string `json:"vicinity"`
		Geometry struct {
			Location *struct {
				Lat *float64 `json:"lat"`
				Lng *float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Fetch returns parking near the device. city is only a hint for locators
// that resolve a position from the selected city.
func (p *PlacesProvider) Fetch(ctx context.Context, city string) ([]feed.ParkingSpot, error) {
	if p.apiKey == "" {
		simulateDelay(ctx, p.mockDelay)
		return SyntheticSpots(), nil
	}

	coord, err := p.locate(ctx, city)
	if err != nil {
		slog.Info("no device position; using synthetic parking", "feed", p.name, "city", city, "err", err)
		return SyntheticSpots(), nil
	}

	values := url.Values{}
	values.Set("location", formatCoordinate(*coord))
	values.Set("radius", strconv.Itoa(placesRadiusMeters))
	values.Set("type", placesType)
	values.Set("key", p.apiKey)
	u := fmt.Sprintf("%s/nearbysearch/json?%s", p.baseURL, values.Encode())

	var payload placesResponse
	if err := getJSON(ctx, p.client, p.circuit, u, nil, &payload); err != nil {
		slog.Warn("nearby search failed; using synthetic parking", "feed", p.name, "city", city, "err", err)
		return SyntheticSpots(), nil
	}

	spots := mapPlaces(payload)
	if len(spots) == 0 {
		slog.Info("nearby search returned no parking; using synthetic parking", "feed", p.name, "city", city)
		return SyntheticSpots(), nil
	}
	return spots, nil
}

// locate checks the location permission, requesting it once if needed, and
// acquires a fix bounded by locateTimeout.
func (p *PlacesProvider) locate(ctx context.Context, hint string) (*feed.Coordinate, error) {
	if p.locator == nil {
		return nil, errNoLocator
	}

	perm, err := p.locator.CheckPermission(ctx)
	if err != nil {
		return nil, fmt.Errorf("check permission: %w", err)
	}
	if perm != feed.PermissionGranted {
		perm, err = p.locator.RequestPermission(ctx)
		if err != nil {
			return nil, fmt.Errorf("request permission: %w", err)
		}
	}
	if perm != feed.PermissionGranted {
		return nil, fmt.Errorf("%w: %s", errPermissionDenied, perm)
	}

	locateCtx, cancel := context.WithTimeout(ctx, p.locateTimeout)
	defer cancel()

	coord, err := p.locator.Locate(locateCtx, hint)
	if err != nil {
		return nil, fmt.Errorf("locate: %w", err)
	}
	if coord == nil {
		return nil, errNoFix
	}
	return coord, nil
}

func mapPlaces(payload placesResponse) []feed.ParkingSpot {
	spots := make([]feed.ParkingSpot, 0, len(payload.Results))
	for _, r := range payload.Results {
		// A position is kept only when both components are present.
		var lat, lon float64
		if loc := r.Geometry.Location; loc != nil && loc.Lat != nil && loc.Lng != nil {
			lat, lon = *loc.Lat, *loc.Lng
		}
		spots = append(spots, feed.ParkingSpot{
			Name:           r.Name,
			Address:        r.Vicinity,
			Hours:          placesHours,
			Notes:          placesNotes,
			Lat:            lat,
			Lon:            lon,
			Price:          0,
			AvailableSpots: -1,
			Provenance:     feed.ProvenanceLive,
		})
	}
	return spots
}
