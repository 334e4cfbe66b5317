package feed

// MapCategory derives the air quality band for an AQI value.
func MapCategory(aqi int) Category {
	switch {
	case aqi <= 0:
		return CategoryUnknown
	case aqi <= 50:
		return CategoryGood
	case aqi <= 100:
		return CategoryModerate
	case aqi <= 150:
		return CategoryUnhealthyForSensitiveGroups
	case aqi <= 200:
		return CategoryUnhealthy
	case aqi <= 300:
		return CategoryVeryUnhealthy
	default:
		return CategoryHazardous
	}
}
