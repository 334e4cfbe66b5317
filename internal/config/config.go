package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/i474232898/city-dashboard/internal/feed"
)

const (
	LocatorDevice  = "device"
	LocatorGeocode = "geocode"
)

type AppConfig struct {
	// Credentials. A blank credential puts that feed in permanent fallback mode.
	OpenWeatherAPIKey  string `mapstructure:"openweather_api_key"`
	OpenAQAPIKey       string `mapstructure:"openaq_api_key"`
	NewsAPIKey         string `mapstructure:"newsapi_api_key"`
	GooglePlacesAPIKey string `mapstructure:"google_places_api_key"`

	DefaultCity string `mapstructure:"default_city" validate:"required"`

	HTTPTimeout     time.Duration `mapstructure:"http_timeout" validate:"gt=0"`
	LocationTimeout time.Duration `mapstructure:"location_timeout" validate:"gt=0"`
	LoadTimeout     time.Duration `mapstructure:"load_timeout" validate:"gt=0"`

	// RefreshInterval controls the periodic refresh of all feeds (0 disables it).
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"gte=0"`

	// SnapshotDir is where last-good snapshots are written. Empty selects
	// the user cache directory.
	SnapshotDir string `mapstructure:"snapshot_dir"`

	Locator string `mapstructure:"locator" validate:"oneof=device geocode"`

	// DevicePosition is the fixed position reported by the device locator,
	// nil when DEVICE_LAT/DEVICE_LON are not set.
	DevicePosition *feed.Coordinate `mapstructure:"-"`

	Port      string `mapstructure:"port" validate:"required,numeric"`
	LogLevel  string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"oneof=text json"`
}

var validate = validator.New()

// Load reads configuration from an optional .env file, an optional config
// file at path and the environment, in increasing order of precedence.
func Load(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Locator = strings.ToLower(strings.TrimSpace(cfg.Locator))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	pos, err := devicePosition(v)
	if err != nil {
		return nil, err
	}
	cfg.DevicePosition = pos

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("openweather_api_key", "")
	v.SetDefault("openaq_api_key", "")
	v.SetDefault("newsapi_api_key", "")
	v.SetDefault("google_places_api_key", "")

	v.SetDefault("default_city", "Vancouver")

	v.SetDefault("http_timeout", "15s")
	v.SetDefault("location_timeout", "10s")
	v.SetDefault("load_timeout", "30s")
	v.SetDefault("refresh_interval", "15m")

	v.SetDefault("snapshot_dir", "")
	v.SetDefault("locator", LocatorDevice)
	v.SetDefault("device_lat", "")
	v.SetDefault("device_lon", "")

	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

func devicePosition(v *viper.Viper) (*feed.Coordinate, error) {
	lat, lon := strings.TrimSpace(v.GetString("device_lat")), strings.TrimSpace(v.GetString("device_lon"))
	if lat == "" && lon == "" {
		return nil, nil
	}
	if lat == "" || lon == "" {
		return nil, errors.New("DEVICE_LAT and DEVICE_LON must be set together")
	}

	var (
		c   feed.Coordinate
		err error
	)
	if c.Lat, err = strconv.ParseFloat(lat, 64); err != nil {
		return nil, fmt.Errorf("invalid DEVICE_LAT: %w", err)
	}
	if c.Lon, err = strconv.ParseFloat(lon, 64); err != nil {
		return nil, fmt.Errorf("invalid DEVICE_LON: %w", err)
	}
	return &c, nil
}

// Validate checks field constraints, including the device position range.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
