package feed

import (
	"context"
	"errors"
)

// ErrSnapshotNotFound is returned by SnapshotStore.Load for a key that was
// never saved.
var ErrSnapshotNotFound = errors.New("no snapshot for key")

// Provider abstracts one feed's upstream (e.g. OpenWeatherMap, OpenAQ,
// NewsAPI, Google Places). Only the weather provider returns errors; the
// others resolve every failure to synthetic data and return a nil error.
type Provider[T any] interface {
	Name() string
	Fetch(ctx context.Context, query string) (T, error)
}

// SnapshotStore persists the last successful model per feed. Load returns
// ErrSnapshotNotFound when the key was never saved, or a decode error.
type SnapshotStore interface {
	Save(key string, v any) error
	Load(key string, dst any) error
}

// Permission is the state of the device location permission.
type Permission int

const (
	PermissionUnknown Permission = iota
	PermissionDenied
	PermissionGranted
)

func (p Permission) String() string {
	switch p {
	case PermissionDenied:
		return "denied"
	case PermissionGranted:
		return "granted"
	default:
		return "unknown"
	}
}

// Locator is the device location capability used by the parking feed.
// Locate may return a nil coordinate when no fix is available; hint is the
// currently selected city.
type Locator interface {
	CheckPermission(ctx context.Context) (Permission, error)
	RequestPermission(ctx context.Context) (Permission, error)
	Locate(ctx context.Context, hint string) (*Coordinate, error)
}

// CitySource is the read and subscribe side of the selected city.
type CitySource interface {
	Get() string
	Subscribe(fn func(city string)) (unsubscribe func())
}
