package command

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/i474232898/city-dashboard/internal/city"
	"github.com/i474232898/city-dashboard/internal/config"
	"github.com/i474232898/city-dashboard/internal/feed"
	"github.com/i474232898/city-dashboard/internal/feed/providers"
	"github.com/i474232898/city-dashboard/internal/geo"
	"github.com/i474232898/city-dashboard/internal/store"
)

// newService builds the selected city, snapshot store, providers and feed
// service from cfg. initialCity overrides cfg.DefaultCity when non-blank.
func newService(cfg *config.AppConfig, initialCity string) (*feed.Service, *city.Selected, error) {
	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	locator, err := newLocator(cfg)
	if err != nil {
		return nil, nil, err
	}

	st := store.NewFileStore(cfg.SnapshotDir)
	slog.Debug("snapshot store ready", "dir", st.Dir())

	if initialCity == "" {
		initialCity = cfg.DefaultCity
	}
	selected := city.New(initialCity)

	provs := feed.Providers{
		Weather:    providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey),
		AirQuality: providers.NewOpenAQProvider(httpClient, cfg.OpenAQAPIKey),
		News:       providers.NewNewsAPIProvider(httpClient, cfg.NewsAPIKey),
		Parking:    providers.NewPlacesProvider(httpClient, cfg.GooglePlacesAPIKey, locator, cfg.LocationTimeout),
	}

	logCredentials(cfg)
	return feed.NewService(selected, st, provs, cfg.LoadTimeout), selected, nil
}

func newLocator(cfg *config.AppConfig) (feed.Locator, error) {
	switch cfg.Locator {
	case config.LocatorGeocode:
		// Geocoding shares the Google Cloud key with the Places API.
		return geo.NewGeocodeLocator(cfg.GooglePlacesAPIKey), nil
	case config.LocatorDevice, "":
		l, err := geo.NewDeviceLocator(cfg.DevicePosition)
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unknown locator %q", cfg.Locator)
	}
}

func logCredentials(cfg *config.AppConfig) {
	slog.Info("feed credentials",
		"openweather", cfg.OpenWeatherAPIKey != "",
		"openaq", cfg.OpenAQAPIKey != "",
		"newsapi", cfg.NewsAPIKey != "",
		"googleplaces", cfg.GooglePlacesAPIKey != "",
	)
}
