package command

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/city-dashboard/internal/config"
	"github.com/i474232898/city-dashboard/internal/feed"
	"github.com/i474232898/city-dashboard/internal/geo"
)

func offlineEnv(t *testing.T) {
	t.Helper()

	for _, k := range []string{"OPENWEATHER_API_KEY", "OPENAQ_API_KEY", "NEWSAPI_API_KEY", "GOOGLE_PLACES_API_KEY"} {
		t.Setenv(k, "")
	}
	t.Setenv("SNAPSHOT_DIR", t.TempDir())
	t.Setenv("LOG_LEVEL", "error")
}

func TestShowPrintsDashboard(t *testing.T) {
	offlineEnv(t)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"show", "--city", "Tokyo"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		showCity = ""
	})

	require.NoError(t, rootCmd.Execute())

	var d feed.Dashboard
	require.NoError(t, json.Unmarshal(out.Bytes(), &d))

	assert.Equal(t, "Tokyo", d.City)
	assert.Nil(t, d.Weather.Data)
	require.NotNil(t, d.AirQuality.Data)
	assert.Equal(t, 88, d.AirQuality.Data.AQI)
	require.NotNil(t, d.News.Data)
	assert.Len(t, *d.News.Data, 2)
	require.NotNil(t, d.Parking.Data)
	assert.Len(t, *d.Parking.Data, 4)
}

func TestNewLocator(t *testing.T) {
	l, err := newLocator(&config.AppConfig{Locator: config.LocatorGeocode})
	require.NoError(t, err)
	assert.IsType(t, &geo.GeocodeLocator{}, l)

	l, err = newLocator(&config.AppConfig{Locator: config.LocatorDevice, DevicePosition: &feed.Coordinate{Lat: 1, Lon: 2}})
	require.NoError(t, err)
	assert.IsType(t, &geo.DeviceLocator{}, l)

	_, err = newLocator(&config.AppConfig{Locator: "gps"})
	assert.Error(t, err)
}
