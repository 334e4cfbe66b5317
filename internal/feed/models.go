package feed

import (
	"time"
)

// Provenance records where a normalized model came from.
type Provenance string

const (
	ProvenanceLive      Provenance = "live"
	ProvenanceSynthetic Provenance = "synthetic"
	ProvenanceCached    Provenance = "cached"
)

// Category is the human-readable air quality band derived from an AQI value.
type Category string

const (
	CategoryUnknown                     Category = "Unknown"
	CategoryGood                        Category = "Good"
	CategoryModerate                    Category = "Moderate"
	CategoryUnhealthyForSensitiveGroups Category = "Unhealthy for Sensitive Groups"
	CategoryUnhealthy                   Category = "Unhealthy"
	CategoryVeryUnhealthy               Category = "Very Unhealthy"
	CategoryHazardous                   Category = "Hazardous"
)

// AQIUnknown is the sentinel AQI for "no reading". Any value <= 0 maps to
// CategoryUnknown.
const AQIUnknown = 0

// Weather is the normalized current conditions plus a short daily forecast.
type Weather struct {
	City         string        `json:"city"`
	TemperatureC float64       `json:"temperatureC"`
	Condition    string        `json:"condition"`
	Icon         string        `json:"icon"`
	Forecast     []ForecastDay `json:"forecast"` // at most one entry per date, ascending
	FetchedAt    time.Time     `json:"fetchedAt"` // always UTC
	Provenance   Provenance    `json:"provenance"`
}

// ForecastDay is one calendar day of a Weather forecast. Min <= Max is
// advisory; the provider does not guarantee it.
type ForecastDay struct {
	Date      time.Time `json:"date"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
	Condition string    `json:"condition"`
}

// AirQuality is the normalized air quality view for a city.
type AirQuality struct {
	City          string     `json:"city"`
	AQI           int        `json:"aqi"`
	Category      Category   `json:"category"`
	MainPollutant string     `json:"mainPollutant"`
	Hourly        []int      `json:"hourly"`
	FetchedAt     time.Time  `json:"fetchedAt"`
	Provenance    Provenance `json:"provenance"`
}

// NewsArticle is a single headline. Only Title is guaranteed non-blank.
type NewsArticle struct {
	Title       string     `json:"title"`
	Source      string     `json:"source"`
	URL         string     `json:"url"`
	ImageURL    string     `json:"imageUrl"`
	PublishedAt time.Time  `json:"publishedAt"`
	Provenance  Provenance `json:"provenance"`
}

// ParkingSpot is a nearby parking facility. AvailableSpots is -1 when the
// provider does not report occupancy.
type ParkingSpot struct {
	Name           string     `json:"name"`
	Address        string     `json:"address"`
	Hours          string     `json:"hours"`
	Notes          string     `json:"notes"`
	Lat            float64    `json:"lat"`
	Lon            float64    `json:"lon"`
	Price          float64    `json:"price"`
	AvailableSpots int        `json:"availableSpots"`
	Provenance     Provenance `json:"provenance"`
}

// Coordinate is a device or geocoded position.
type Coordinate struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// WithProvenance returns a copy of w marked with p.
func (w Weather) WithProvenance(p Provenance) Weather {
	w.Provenance = p
	return w
}

// WithProvenance returns a copy of a marked with p.
func (a AirQuality) WithProvenance(p Provenance) AirQuality {
	a.Provenance = p
	return a
}
