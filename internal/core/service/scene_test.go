package service

import (
	"testing"

	"github.com/berfenger/solardash/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestSunPosition(t *testing.T) {
	x, y := SunPosition(0)
	assert.InDelta(t, 200, x, 0.001)
	assert.InDelta(t, 350, y, 0.001)

	x, y = SunPosition(90)
	assert.InDelta(t, 650, x, 0.001)
	assert.InDelta(t, 150, y, 0.001)

	x, y = SunPosition(180)
	assert.InDelta(t, 1100, x, 0.001)
	assert.InDelta(t, 350, y, 0.001)

	x, _ = SunPosition(400)
	assert.InDelta(t, 1100, x, 0.001, "angle is clamped")
}

func TestSunAndMoonOpacity(t *testing.T) {
	night := domain.SensorSnapshot{}
	day := domain.SensorSnapshot{LDRRight: true, LDRLeft: true}
	mixed := domain.SensorSnapshot{LDRRight: true}

	assert.Equal(t, 0.1, SunOpacity(90, night))
	assert.InDelta(t, 1.0, SunOpacity(90, day), 0.001)
	assert.Equal(t, 0.4, SunOpacity(0, day))
	assert.InDelta(t, 0.7, SunOpacity(90, mixed), 0.001)
	assert.Equal(t, 0.2, SunOpacity(0, mixed))

	assert.Equal(t, 1.0, MoonOpacity(night))
	assert.Equal(t, 0.0, MoonOpacity(mixed))
}

func TestSkyColor(t *testing.T) {
	assert.Equal(t, "hsl(240, 40%, 25%)", SkyColor(20))
	assert.Equal(t, "hsl(30, 85%, 55%)", SkyColor(21))
	assert.Equal(t, "hsl(210, 80%, 70%)", SkyColor(90))
	assert.Equal(t, "hsl(10, 80%, 45%)", SkyColor(175))
	assert.Equal(t, "hsl(230, 50%, 20%)", SkyColor(176))
	assert.Equal(t, SKY_NIGHT, SceneSkyColor(domain.SensorSnapshot{Servo: 90}))
	assert.Equal(t, SKY_DAY, SceneSkyColor(domain.SensorSnapshot{Servo: 90, LDRLeft: true}))
}

func TestRainAndOverrides(t *testing.T) {
	assert.Nil(t, RainFor(0))
	storm := RainFor(3)
	if assert.NotNil(t, storm) {
		assert.Equal(t, 250, storm.DropCount)
		assert.Equal(t, 1.5, storm.SpeedSeconds)
	}

	_, ok := WeatherOverrideFor(domain.WEATHER_CLEAR)
	assert.False(t, ok)
	o, ok := WeatherOverrideFor(domain.WEATHER_HEAVY)
	assert.True(t, ok)
	assert.Equal(t, WeatherOverride{SkyColor: "hsl(210, 40%, 25%)", SunOpacity: 0.4}, o)
}

func TestReadouts(t *testing.T) {
	r := Readouts(domain.SensorSnapshot{Servo: 90, MeasuredPV: 3.2, RaindropsAnalog: 4095, Jemuran: true})
	assert.Equal(t, domain.ReadoutsView{
		Servo:       "90°",
		PV:          "3.20V",
		Weather:     "Terang",
		Clothesline: "Sudah Diangkat",
	}, r)
	assert.Equal(t, "Sedang Dijemur", Readouts(domain.SensorSnapshot{}).Clothesline)
}
