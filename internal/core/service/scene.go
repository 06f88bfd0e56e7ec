package service

import (
	"fmt"
	"math"

	"github.com/berfenger/solardash/internal/core/domain"
)

const (
	SUN_EAST_X    = 200.0
	SUN_WEST_X    = 1100.0
	SUN_HORIZON_Y = 350.0
	SUN_ZENITH_Y  = 150.0
	SKY_NIGHT     = "hsl(220, 50%, 20%)"
	SKY_DAY       = "hsl(210, 80%, 70%)"
)

type WeatherOverride struct {
	SkyColor   string
	SunOpacity float64
}

var skyBands = []struct {
	upTo  int
	color string
}{
	{20, "hsl(240, 40%, 25%)"},  // dawn
	{40, "hsl(30, 85%, 55%)"},   // sunrise
	{70, "hsl(200, 70%, 65%)"},  // morning
	{110, "hsl(210, 80%, 70%)"}, // midday
	{140, "hsl(45, 60%, 60%)"},  // early afternoon
	{160, "hsl(20, 90%, 50%)"},  // golden hour
	{175, "hsl(10, 80%, 45%)"},  // dusk
}

var rainConfigs = map[int]domain.RainView{
	1: {Intensity: 1, DropCount: 80, SpeedSeconds: 3, Color: "rgba(135, 206, 235, 0.6)", StrokeWidth: 1, Length: 15},
	2: {Intensity: 2, DropCount: 150, SpeedSeconds: 2, Color: "rgba(70, 130, 180, 0.7)", StrokeWidth: 1.5, Length: 20},
	3: {Intensity: 3, DropCount: 250, SpeedSeconds: 1.5, Color: "rgba(30, 144, 255, 0.8)", StrokeWidth: 2, Length: 25},
}

var weatherOverrides = map[domain.WeatherClass]WeatherOverride{
	domain.WEATHER_DRIZZLE: {SkyColor: "hsl(220, 30%, 35%)", SunOpacity: 0.7},
	domain.WEATHER_HEAVY:   {SkyColor: "hsl(210, 40%, 25%)", SunOpacity: 0.4},
	domain.WEATHER_STORM:   {SkyColor: "hsl(200, 50%, 15%)", SunOpacity: 0.2},
}

func clampAngle(angle int) int {
	return min(max(angle, 0), 180)
}

func angleRad(angle int) float64 {
	return float64(clampAngle(angle)) * math.Pi / 180
}

// SunPosition places the sun on a parabolic east to west arc: 0° east on the horizon,
// 90° at the zenith, 180° west on the horizon.
func SunPosition(angle int) (x, y float64) {
	x = SUN_EAST_X + float64(clampAngle(angle))/180*(SUN_WEST_X-SUN_EAST_X)
	sin := math.Sin(angleRad(angle))
	y = SUN_HORIZON_Y - (SUN_HORIZON_Y-SUN_ZENITH_Y)*sin*sin
	return x, y
}

func SunOpacity(angle int, snapshot domain.SensorSnapshot) float64 {
	sin := math.Sin(angleRad(angle))
	switch {
	case snapshot.BothLDRDark():
		return 0.1
	case snapshot.BothLDRBright():
		return math.Max(0.4, sin)
	default:
		return math.Max(0.2, sin*0.7)
	}
}

// MoonOpacity shows the moon only at night, when both light sensors are dark.
func MoonOpacity(snapshot domain.SensorSnapshot) float64 {
	if snapshot.BothLDRDark() {
		return 1
	}
	return 0
}

func SkyColor(angle int) string {
	for _, band := range skyBands {
		if angle <= band.upTo {
			return band.color
		}
	}
	return "hsl(230, 50%, 20%)"
}

// SceneSkyColor is the sky derived from the light sensors and sun angle, ignoring weather.
func SceneSkyColor(snapshot domain.SensorSnapshot) string {
	if snapshot.BothLDRDark() {
		return SKY_NIGHT
	}
	return SkyColor(snapshot.Servo)
}

// RainFor returns the rain effect for an intensity level, nil for clear skies.
func RainFor(intensity int) *domain.RainView {
	cfg, ok := rainConfigs[intensity]
	if !ok {
		return nil
	}
	return &cfg
}

func WeatherOverrideFor(class domain.WeatherClass) (WeatherOverride, bool) {
	o, ok := weatherOverrides[class]
	return o, ok
}

func Readouts(snapshot domain.SensorSnapshot) domain.ReadoutsView {
	clothesline := "Sedang Dijemur"
	if snapshot.Jemuran {
		clothesline = "Sudah Diangkat"
	}
	return domain.ReadoutsView{
		Servo:       fmt.Sprintf("%d°", snapshot.Servo),
		PV:          fmt.Sprintf("%.2fV", snapshot.MeasuredPV),
		Weather:     ReadoutText(Classify(snapshot.RaindropsAnalog).Class),
		Clothesline: clothesline,
	}
}
