package actor

import (
	"github.com/berfenger/solardash/internal/core/domain"
	"github.com/berfenger/solardash/internal/core/port"

	"github.com/asynkron/protoactor-go/actor"
)

// SceneRenderer forwards renderer notifications to a SceneActor mailbox.
type SceneRenderer struct {
	sender actor.SenderContext
	scene  *actor.PID
}

func NewSceneRenderer(sender actor.SenderContext, scene *actor.PID) *SceneRenderer {
	return &SceneRenderer{
		sender: sender,
		scene:  scene,
	}
}

func (r *SceneRenderer) OnSensorChanged(channel domain.Channel, snapshot domain.SensorSnapshot) {
	r.sender.Send(r.scene, sensorChanged{channel: channel, snapshot: snapshot})
}

func (r *SceneRenderer) OnWeatherTransition(weather domain.Weather) {
	r.sender.Send(r.scene, weatherChanged{weather: weather})
}

func (r *SceneRenderer) OnChartUpdated(points []float64) {
	r.sender.Send(r.scene, chartChanged{points: append([]float64{}, points...)})
}

func (r *SceneRenderer) OnConnectionStatusChanged(status domain.ConnectionStatus, message string) {
	r.sender.Send(r.scene, connectionChanged{status: status, message: message})
}

func (r *SceneRenderer) OnPopupChanged(popup domain.PopupView) {
	r.sender.Send(r.scene, popupChanged{popup: popup})
}

// ensure interface compliance
var _ port.Renderer = (*SceneRenderer)(nil)
