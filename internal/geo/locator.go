// Package geo provides the device location capability used by the parking
// feed. A server has no GPS, so the position either comes from configuration
// (DeviceLocator) or from geocoding the selected city (GeocodeLocator).
package geo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/kelvins/geocoder"

	"github.com/i474232898/city-dashboard/internal/common"
	"github.com/i474232898/city-dashboard/internal/feed"
)

var (
	ErrNotConfigured = errors.New("device position not configured")
	ErrNoAPIKey      = errors.New("geocoding api key not configured")
)

var validate = validator.New()

// DeviceLocator reports a fixed, configured position. Permission is granted
// only when a valid position is configured.
type DeviceLocator struct {
	coord *feed.Coordinate
}

// NewDeviceLocator returns a locator for coord. A nil coord yields a locator
// whose permission is always denied.
func NewDeviceLocator(coord *feed.Coordinate) (*DeviceLocator, error) {
	if coord == nil {
		return &DeviceLocator{}, nil
	}
	if err := validate.Struct(coord); err != nil {
		return nil, fmt.Errorf("invalid device position: %w", err)
	}
	c := *coord
	return &DeviceLocator{coord: &c}, nil
}

func (l *DeviceLocator) CheckPermission(context.Context) (feed.Permission, error) {
	if l.coord == nil {
		return feed.PermissionDenied, nil
	}
	return feed.PermissionGranted, nil
}

func (l *DeviceLocator) RequestPermission(ctx context.Context) (feed.Permission, error) {
	return l.CheckPermission(ctx)
}

func (l *DeviceLocator) Locate(ctx context.Context, _ string) (*feed.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.coord == nil {
		return nil, ErrNotConfigured
	}
	c := *l.coord
	return &c, nil
}

// geocodeFunc resolves a city name to a position.
type geocodeFunc func(city string) (feed.Coordinate, error)

// GeocodeLocator resolves the selected city through the Google geocoding
// API. Results are cached per city for the lifetime of the locator.
type GeocodeLocator struct {
	geocode geocodeFunc

	mu    sync.Mutex
	cache map[string]feed.Coordinate
}

// geocoderMu guards the package-level key of the geocoder library.
var geocoderMu sync.Mutex

func NewGeocodeLocator(apiKey string) *GeocodeLocator {
	apiKey = strings.TrimSpace(apiKey)

	var fn geocodeFunc
	if apiKey != "" {
		fn = func(city string) (feed.Coordinate, error) {
			geocoderMu.Lock()
			defer geocoderMu.Unlock()

			geocoder.ApiKey = apiKey
			loc, err := geocoder.Geocoding(geocoder.Address{City: city})
			if err != nil {
				return feed.Coordinate{}, err
			}
			return feed.Coordinate{Lat: loc.Latitude, Lon: loc.Longitude}, nil
		}
	}

	return &GeocodeLocator{
		geocode: fn,
		cache:   make(map[string]feed.Coordinate),
	}
}

func (l *GeocodeLocator) CheckPermission(context.Context) (feed.Permission, error) {
	if l.geocode == nil {
		return feed.PermissionDenied, nil
	}
	return feed.PermissionGranted, nil
}

func (l *GeocodeLocator) RequestPermission(ctx context.Context) (feed.Permission, error) {
	return l.CheckPermission(ctx)
}

// Locate geocodes hint. The geocoder library has no context support, so the
// lookup runs in its own goroutine and is abandoned when ctx is done.
func (l *GeocodeLocator) Locate(ctx context.Context, hint string) (*feed.Coordinate, error) {
	if l.geocode == nil {
		return nil, ErrNoAPIKey
	}
	if common.IsBlank(hint) {
		return nil, nil
	}

	key := strings.ToLower(strings.TrimSpace(hint))

	l.mu.Lock()
	c, ok := l.cache[key]
	l.mu.Unlock()
	if ok {
		return &c, nil
	}

	type result struct {
		coord feed.Coordinate
		err   error
	}
	done := make(chan result, 1)
	go func() {
		coord, err := l.geocode(hint)
		done <- result{coord: coord, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("geocode %q: %w", hint, r.err)
		}
		if err := validate.Struct(r.coord); err != nil {
			return nil, fmt.Errorf("geocode %q: %w", hint, err)
		}

		l.mu.Lock()
		l.cache[key] = r.coord
		l.mu.Unlock()

		slog.Debug("geocoded city", "city", hint, "lat", r.coord.Lat, "lon", r.coord.Lon)
		return &r.coord, nil
	}
}
