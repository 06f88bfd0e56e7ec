package port

import "github.com/berfenger/solardash/internal/core/domain"

// Renderer consumes dashboard state changes. Calls must return immediately.
type Renderer interface {
	OnSensorChanged(channel domain.Channel, snapshot domain.SensorSnapshot)
	OnWeatherTransition(weather domain.Weather)
	OnChartUpdated(points []float64)
	OnConnectionStatusChanged(status domain.ConnectionStatus, message string)
	OnPopupChanged(popup domain.PopupView)
}
