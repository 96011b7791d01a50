package air

// Band is a discrete health-impact category for an AQI value.
type Band string

const (
	BandGood               Band = "Good"
	BandModerate           Band = "Moderate"
	BandUnhealthySensitive Band = "Unhealthy for Sensitive Groups"
	BandUnhealthy          Band = "Unhealthy"
	BandVeryUnhealthy      Band = "Very Unhealthy"
	BandHazardous          Band = "Hazardous"
)

// Classify maps an AQI to its band. Upper bounds are inclusive:
// 50 Good, 100 Moderate, 150 Sensitive Groups, 200 Unhealthy,
// 300 Very Unhealthy, anything above Hazardous.
func Classify(aqi int) Band {
	switch {
	case aqi <= 50:
		return BandGood
	case aqi <= 100:
		return BandModerate
	case aqi <= 150:
		return BandUnhealthySensitive
	case aqi <= 200:
		return BandUnhealthy
	case aqi <= 300:
		return BandVeryUnhealthy
	default:
		return BandHazardous
	}
}
