package service

import "github.com/berfenger/solardash/internal/core/domain"

const (
	RAIN_CLEAR_ABOVE      = 4094
	RAIN_DRIZZLE_FROM     = 3000
	RAIN_HEAVY_FROM       = 2000
	WEATHER_LABEL_CLEAR   = "CERAH"
	WEATHER_LABEL_DRIZZLE = "GERIMIS"
	WEATHER_LABEL_HEAVY   = "HUJAN LEBAT"
	WEATHER_LABEL_STORM   = "HUJAN DERAS"
)

// Classify maps a raw raindrops ADC reading to a weather class. Higher readings are drier.
func Classify(analogValue int) domain.Weather {
	switch {
	case analogValue > RAIN_CLEAR_ABOVE:
		return domain.Weather{Class: domain.WEATHER_CLEAR, Intensity: 0, Label: WEATHER_LABEL_CLEAR}
	case analogValue >= RAIN_DRIZZLE_FROM:
		return domain.Weather{Class: domain.WEATHER_DRIZZLE, Intensity: 1, Label: WEATHER_LABEL_DRIZZLE}
	case analogValue >= RAIN_HEAVY_FROM:
		return domain.Weather{Class: domain.WEATHER_HEAVY, Intensity: 2, Label: WEATHER_LABEL_HEAVY}
	default:
		return domain.Weather{Class: domain.WEATHER_STORM, Intensity: 3, Label: WEATHER_LABEL_STORM}
	}
}

// ReadoutText is the short dashboard text for a weather class.
func ReadoutText(class domain.WeatherClass) string {
	switch class {
	case domain.WEATHER_CLEAR:
		return "Terang"
	case domain.WEATHER_DRIZZLE:
		return "Gerimis"
	case domain.WEATHER_HEAVY:
		return "Hujan Lebat"
	case domain.WEATHER_STORM:
		return "Hujan Deras"
	}
	return ""
}

// WeatherHysteresis only reports a weather change when the class differs from the last
// announced one.
type WeatherHysteresis struct {
	state domain.WeatherState
}

func (h *WeatherHysteresis) Evaluate(analogValue int) (domain.Weather, bool) {
	weather := Classify(analogValue)
	h.state.Current = weather.Class
	if h.state.Current == h.state.LastAnnounced {
		return weather, false
	}
	h.state.LastAnnounced = h.state.Current
	return weather, true
}

func (h *WeatherHysteresis) State() domain.WeatherState {
	return h.state
}
