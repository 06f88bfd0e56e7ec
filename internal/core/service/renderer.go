package service

import (
	"github.com/berfenger/solardash/internal/core/domain"
	"github.com/berfenger/solardash/internal/core/port"
)

// MultiRenderer fans every notification out to all renderers, in order.
type MultiRenderer []port.Renderer

func (m MultiRenderer) OnSensorChanged(channel domain.Channel, snapshot domain.SensorSnapshot) {
	for _, r := range m {
		r.OnSensorChanged(channel, snapshot)
	}
}

func (m MultiRenderer) OnWeatherTransition(weather domain.Weather) {
	for _, r := range m {
		r.OnWeatherTransition(weather)
	}
}

func (m MultiRenderer) OnChartUpdated(points []float64) {
	for _, r := range m {
		r.OnChartUpdated(append([]float64{}, points...))
	}
}

func (m MultiRenderer) OnConnectionStatusChanged(status domain.ConnectionStatus, message string) {
	for _, r := range m {
		r.OnConnectionStatusChanged(status, message)
	}
}

func (m MultiRenderer) OnPopupChanged(popup domain.PopupView) {
	for _, r := range m {
		r.OnPopupChanged(popup)
	}
}

// ensure interface compliance
var _ port.Renderer = MultiRenderer(nil)
