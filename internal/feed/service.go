package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Snapshot keys for the persisted feeds. News and parking are never persisted.
const (
	SnapshotKeyWeather    = "weather"
	SnapshotKeyAirQuality = "aq"
)

// Providers bundles one provider per feed.
type Providers struct {
	Weather    Provider[Weather]
	AirQuality Provider[AirQuality]
	News       Provider[[]NewsArticle]
	Parking    Provider[[]ParkingSpot]
}

// Service orchestrates the four feed coordinators around the selected city.
type Service struct {
	city CitySource

	Weather    *Coordinator[Weather]
	AirQuality *Coordinator[AirQuality]
	News       *Coordinator[[]NewsArticle]
	Parking    *Coordinator[[]ParkingSpot]
}

// NewService creates a Service. store may be nil to disable snapshots.
func NewService(city CitySource, store SnapshotStore, providers Providers, loadTimeout time.Duration) *Service {
	return &Service{
		city: city,
		Weather: NewCoordinator(providers.Weather, store, CoordinatorConfig{
			SnapshotKey: SnapshotKeyWeather,
			LoadTimeout: loadTimeout,
		}),
		AirQuality: NewCoordinator(providers.AirQuality, store, CoordinatorConfig{
			SnapshotKey: SnapshotKeyAirQuality,
			LoadTimeout: loadTimeout,
		}),
		News:    NewCoordinator(providers.News, store, CoordinatorConfig{LoadTimeout: loadTimeout}),
		Parking: NewCoordinator(providers.Parking, store, CoordinatorConfig{LoadTimeout: loadTimeout}),
	}
}

// City returns the currently selected city.
func (s *Service) City() string {
	return s.city.Get()
}

// Restore installs the persisted weather and air quality snapshots for
// display until the first live load completes.
func (s *Service) Restore() {
	restoredWeather := s.Weather.Restore()
	restoredAQ := s.AirQuality.Restore()
	slog.Info("feed snapshots restored", "weather", restoredWeather, "airquality", restoredAQ)
}

// Start restores persisted snapshots, subscribes every coordinator to city
// changes and kicks off a background load for the current city.
func (s *Service) Start(ctx context.Context) {
	s.Restore()

	s.Weather.Bind(ctx, s.city)
	s.AirQuality.Bind(ctx, s.city)
	s.News.Bind(ctx, s.city)
	s.Parking.Bind(ctx, s.city)

	city := s.city.Get()
	s.Weather.Trigger(city)
	s.AirQuality.Trigger(city)
	s.News.Trigger(city)
	s.Parking.Trigger(city)
}

// Refresh loads every feed for the current city concurrently and waits for
// all of them. Errors from individual feeds are joined; feeds that succeed
// are updated regardless.
func (s *Service) Refresh(ctx context.Context) error {
	city := s.city.Get()
	slog.Info("refreshing feeds", "city", city)

	loads := []func(context.Context, string) error{
		s.Weather.Load,
		s.AirQuality.Load,
		s.News.Load,
		s.Parking.Load,
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, load := range loads {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := load(ctx, city); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return errors.Join(errs...)
}

// Wait blocks until background loads of every feed have finished.
func (s *Service) Wait() {
	s.Weather.Wait()
	s.AirQuality.Wait()
	s.News.Wait()
	s.Parking.Wait()
}

// Close unsubscribes every coordinator and waits for background loads.
func (s *Service) Close() {
	s.Weather.Close()
	s.AirQuality.Close()
	s.News.Close()
	s.Parking.Close()
}

// FeedState is the observable state of one feed.
type FeedState[T any] struct {
	Busy bool `json:"busy"`
	Data *T   `json:"data"`
}

// Dashboard is a point-in-time view of all feeds.
type Dashboard struct {
	City       string                   `json:"city"`
	Weather    FeedState[Weather]       `json:"weather"`
	AirQuality FeedState[AirQuality]    `json:"airQuality"`
	News       FeedState[[]NewsArticle] `json:"news"`
	Parking    FeedState[[]ParkingSpot] `json:"parking"`
}

func stateOf[T any](c *Coordinator[T]) FeedState[T] {
	st := FeedState[T]{Busy: c.Busy()}
	if v, ok := c.Current(); ok {
		st.Data = &v
	}
	return st
}

// Dashboard returns the current state of every feed.
func (s *Service) Dashboard() Dashboard {
	return Dashboard{
		City:       s.city.Get(),
		Weather:    stateOf(s.Weather),
		AirQuality: stateOf(s.AirQuality),
		News:       stateOf(s.News),
		Parking:    stateOf(s.Parking),
	}
}
