package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/city-dashboard/internal/feed"
)

type fakeLocator struct {
	check     feed.Permission
	request   feed.Permission
	coord     *feed.Coordinate
	locateErr error
	block     bool

	requested atomic.Int32
	hint      string
}

func (l *fakeLocator) CheckPermission(context.Context) (feed.Permission, error) {
	return l.check, nil
}

func (l *fakeLocator) RequestPermission(context.Context) (feed.Permission, error) {
	l.requested.Add(1)
	return l.request, nil
}

func (l *fakeLocator) Locate(ctx context.Context, hint string) (*feed.Coordinate, error) {
	l.hint = hint
	if l.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return l.coord, l.locateErr
}

func newTestPlaces(t *testing.T, loc feed.Locator, handler http.HandlerFunc) (*PlacesProvider, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	p := NewPlacesProvider(srv.Client(), "test-key", loc, time.Second)
	p.baseURL = srv.URL
	p.mockDelay = 0
	return p, &calls
}

func assertSyntheticSpots(t *testing.T, got []feed.ParkingSpot) {
	t.Helper()

	require.Len(t, got, 4)
	names := make([]string, 0, len(got))
	for _, s := range got {
		names = append(names, s.Name)
		assert.Equal(t, feed.ProvenanceSynthetic, s.Provenance)
	}
	assert.Equal(t, []string{"Main Street Lot", "City Hall Garage", "Central Market Parking", "Station Plaza"}, names)
}

const placesBody = `{"status":"OK","results":[
	{"name":"Harbour Parkade","vicinity":"1 Harbour Rd","geometry":{"location":{"lat":49.29,"lng":-123.11}}},
	{"name":"Lot B","vicinity":"2 Side St"},
	{"name":"Lot C","vicinity":"3 Half St","geometry":{"location":{"lat":49.3}}},
	{"name":"Lot D","vicinity":"4 Half St","geometry":{"location":{"lng":-123.2}}}
]}`

func TestPlacesFetch(t *testing.T) {
	loc := &fakeLocator{check: feed.PermissionGranted, coord: &feed.Coordinate{Lat: 49.2827, Lon: -123.1207}}
	p, _ := newTestPlaces(t, loc, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nearbysearch/json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "49.2827,-123.1207", q.Get("location"))
		assert.Equal(t, "2000", q.Get("radius"))
		assert.Equal(t, "parking", q.Get("type"))
		assert.Equal(t, "test-key", q.Get("key"))

		_, _ = w.Write([]byte(placesBody))
	})

	got, err := p.Fetch(context.Background(), "Vancouver")
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, feed.ParkingSpot{
		Name:           "Harbour Parkade",
		Address:        "1 Harbour Rd",
		Hours:          "7:00 AM - 11:00 PM",
		Notes:          "Check availability online",
		Lat:            49.29,
		Lon:            -123.11,
		Price:          0,
		AvailableSpots: -1,
		Provenance:     feed.ProvenanceLive,
	}, got[0])
	for _, spot := range got[1:] {
		assert.Zero(t, spot.Lat, spot.Name)
		assert.Zero(t, spot.Lon, spot.Name)
	}
	assert.Equal(t, "Vancouver", loc.hint)
	assert.Zero(t, loc.requested.Load())
}

func TestPlacesRequestsPermission(t *testing.T) {
	loc := &fakeLocator{
		check:   feed.PermissionUnknown,
		request: feed.PermissionGranted,
		coord:   &feed.Coordinate{Lat: 1, Lon: 2},
	}
	p, _ := newTestPlaces(t, loc, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(placesBody))
	})

	got, err := p.Fetch(context.Background(), "Vancouver")
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.Equal(t, int32(1), loc.requested.Load())
}

func TestPlacesFallsBackWithoutPosition(t *testing.T) {
	tests := []struct {
		name string
		loc  feed.Locator
	}{
		{name: "no locator", loc: nil},
		{name: "denied", loc: &fakeLocator{check: feed.PermissionDenied, request: feed.PermissionDenied}},
		{name: "locate error", loc: &fakeLocator{check: feed.PermissionGranted, locateErr: errors.New("gps off")}},
		{name: "no fix", loc: &fakeLocator{check: feed.PermissionGranted}},
		{name: "timeout", loc: &fakeLocator{check: feed.PermissionGranted, block: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, calls := newTestPlaces(t, tt.loc, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(placesBody))
			})
			p.locateTimeout = 20 * time.Millisecond

			got, err := p.Fetch(context.Background(), "Vancouver")
			require.NoError(t, err)
			assertSyntheticSpots(t, got)
			assert.Zero(t, calls.Load())
		})
	}
}

func TestPlacesFallsBackOnBadResponse(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "denied key", status: http.StatusForbidden},
		{name: "server error", status: http.StatusInternalServerError},
		{name: "malformed", status: http.StatusOK, body: `{"results":{}}`},
		{name: "zero results", status: http.StatusOK, body: `{"status":"ZERO_RESULTS","results":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := &fakeLocator{check: feed.PermissionGranted, coord: &feed.Coordinate{Lat: 1, Lon: 2}}
			p, _ := newTestPlaces(t, loc, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := p.Fetch(context.Background(), "Vancouver")
			require.NoError(t, err)
			assertSyntheticSpots(t, got)
		})
	}
}

func TestPlacesNoKeySkipsLocator(t *testing.T) {
	loc := &fakeLocator{check: feed.PermissionGranted}
	p := NewPlacesProvider(nil, "", loc, 0)
	p.mockDelay = 0

	got, err := p.Fetch(context.Background(), "Vancouver")
	require.NoError(t, err)
	assertSyntheticSpots(t, got)
	assert.Empty(t, loc.hint)
	assert.Equal(t, DefaultLocateTimeout, p.locateTimeout)
}
