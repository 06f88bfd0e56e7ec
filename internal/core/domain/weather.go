package domain

type WeatherClass string

const (
	WEATHER_UNANNOUNCED WeatherClass = ""
	WEATHER_CLEAR       WeatherClass = "clear"
	WEATHER_DRIZZLE     WeatherClass = "drizzle"
	WEATHER_HEAVY       WeatherClass = "heavy"
	WEATHER_STORM       WeatherClass = "storm"
)

type Weather struct {
	Class     WeatherClass `json:"class"`
	Intensity int          `json:"intensity"`
	Label     string       `json:"label"`
}

type WeatherState struct {
	Current       WeatherClass `json:"current"`
	LastAnnounced WeatherClass `json:"lastAnnounced"`
}
