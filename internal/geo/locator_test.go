package geo

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/city-dashboard/internal/feed"
)

func TestDeviceLocator(t *testing.T) {
	ctx := context.Background()

	l, err := NewDeviceLocator(&feed.Coordinate{Lat: 49.19, Lon: -122.85})
	require.NoError(t, err)

	perm, err := l.CheckPermission(ctx)
	require.NoError(t, err)
	assert.Equal(t, feed.PermissionGranted, perm)

	c, err := l.Locate(ctx, "ignored")
	require.NoError(t, err)
	assert.Equal(t, &feed.Coordinate{Lat: 49.19, Lon: -122.85}, c)
}

func TestDeviceLocatorUnconfigured(t *testing.T) {
	ctx := context.Background()

	l, err := NewDeviceLocator(nil)
	require.NoError(t, err)

	perm, err := l.RequestPermission(ctx)
	require.NoError(t, err)
	assert.Equal(t, feed.PermissionDenied, perm)

	_, err = l.Locate(ctx, "Paris")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestDeviceLocatorRejectsInvalidPosition(t *testing.T) {
	_, err := NewDeviceLocator(&feed.Coordinate{Lat: 91, Lon: 0})
	assert.Error(t, err)
}

func TestGeocodeLocatorCaches(t *testing.T) {
	var calls atomic.Int32
	l := NewGeocodeLocator("")
	l.geocode = func(city string) (feed.Coordinate, error) {
		calls.Add(1)
		return feed.Coordinate{Lat: 48.8566, Lon: 2.3522}, nil
	}

	perm, err := l.CheckPermission(context.Background())
	require.NoError(t, err)
	assert.Equal(t, feed.PermissionGranted, perm)

	for _, city := range []string{"Paris", "paris ", "PARIS"} {
		c, err := l.Locate(context.Background(), city)
		require.NoError(t, err)
		assert.Equal(t, 48.8566, c.Lat)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeocodeLocatorWithoutKey(t *testing.T) {
	l := NewGeocodeLocator("  ")

	perm, err := l.CheckPermission(context.Background())
	require.NoError(t, err)
	assert.Equal(t, feed.PermissionDenied, perm)

	_, err = l.Locate(context.Background(), "Paris")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestGeocodeLocatorErrors(t *testing.T) {
	l := NewGeocodeLocator("")
	l.geocode = func(city string) (feed.Coordinate, error) {
		if city == "Nowhere" {
			return feed.Coordinate{}, errors.New("ZERO_RESULTS")
		}
		return feed.Coordinate{Lat: 200}, nil
	}

	_, err := l.Locate(context.Background(), "Nowhere")
	assert.ErrorContains(t, err, "ZERO_RESULTS")

	_, err = l.Locate(context.Background(), "Broken")
	assert.Error(t, err)

	c, err := l.Locate(context.Background(), " ")
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestGeocodeLocatorHonorsContext(t *testing.T) {
	unblock := make(chan struct{})
	t.Cleanup(func() { close(unblock) })

	l := NewGeocodeLocator("")
	l.geocode = func(string) (feed.Coordinate, error) {
		<-unblock
		return feed.Coordinate{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := l.Locate(ctx, "Paris")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
