package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/solardash/internal/config"
	"github.com/berfenger/solardash/internal/core/domain"
	"github.com/berfenger/solardash/internal/core/service"
	"github.com/berfenger/solardash/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// SceneActor keeps the visual state of the dashboard page and publishes a
// domain.SceneUpdatedEvent on every change.
type SceneActor struct {
	config      *config.Config
	behavior    actor.Behavior
	scheduler   *scheduler.TimerScheduler
	eventStream *eventstream.EventStream
	logger      *zap.Logger
	now         func() time.Time

	snapshot domain.SensorSnapshot
	weather  domain.Weather
	view     domain.SceneView

	cancelLightning scheduler.CancelFunc
}

type sensorChanged struct {
	channel  domain.Channel
	snapshot domain.SensorSnapshot
}

type weatherChanged struct {
	weather domain.Weather
}

type chartChanged struct {
	points []float64
}

type connectionChanged struct {
	status  domain.ConnectionStatus
	message string
}

type popupChanged struct {
	popup domain.PopupView
}

type lightningFlash struct {
}

func NewSceneActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *SceneActor {
	act := &SceneActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		eventStream: eventStream,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_SCENE, logger),
		now:         time.Now,
		snapshot:    domain.InitialSnapshot(),
	}
	act.view = domain.SceneView{
		Chart: []float64{},
		Connection: domain.ConnectionView{
			Status: domain.STATUS_DISCONNECTED,
		},
		Popup: service.NewOnboarding(nil).View(),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *SceneActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *SceneActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("scene@default started")
		state.scheduler = scheduler.NewTimerScheduler(ctx.ActorSystem().Root)
		state.layout()
	case *actor.Stopping:
		state.stopLightning()
	case *actor.Restarting:
		state.stopLightning()
	case domain.ActorHealthRequest:
		state.logger.Debug("scene@default ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_SCENE,
			Healthy: true,
			State:   "default",
		})
	case domain.GetSceneRequest:
		actorutil.ForRequest(msg).Respond(ctx, domain.GetSceneResponse{Scene: state.copyView()})
	case sensorChanged:
		state.snapshot = msg.snapshot
		state.layout()
		state.publish()
	case weatherChanged:
		state.logger.Debug("scene@default weatherChanged", zap.String("class", string(msg.weather.Class)))
		state.weather = msg.weather
		if msg.weather.Class == domain.WEATHER_STORM {
			state.startLightning(ctx)
		} else {
			state.stopLightning()
		}
		state.layout()
		state.publish()
	case lightningFlash:
		if state.cancelLightning == nil {
			return
		}
		state.flash()
		state.publish()
	case chartChanged:
		state.view.Chart = msg.points
		state.publish()
	case connectionChanged:
		state.view.Connection = domain.ConnectionView{Status: msg.status, Message: msg.message}
		state.publish()
	case popupChanged:
		state.view.Popup = msg.popup
		state.publish()
	default:
		state.logger.Debug("scene@default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// layout derives the sun, moon, sky, rain and readouts from the latest snapshot and weather.
func (state *SceneActor) layout() {
	snapshot := state.snapshot
	x, y := service.SunPosition(snapshot.Servo)
	sunOpacity := service.SunOpacity(snapshot.Servo, snapshot)
	sky := service.SceneSkyColor(snapshot)
	if override, ok := service.WeatherOverrideFor(state.weather.Class); ok {
		sky = override.SkyColor
		sunOpacity = override.SunOpacity
	}
	state.view.Sun = domain.SunView{X: x, Y: y, Opacity: sunOpacity}
	state.view.MoonOpacity = service.MoonOpacity(snapshot)
	state.view.SkyColor = sky
	state.view.Weather = state.weather
	state.view.Rain = service.RainFor(state.weather.Intensity)
	state.view.Readouts = service.Readouts(snapshot)
}

func (state *SceneActor) startLightning(ctx actor.Context) {
	state.stopLightning()
	state.flash()
	interval := state.config.Dashboard.LightningInterval()
	state.cancelLightning = state.scheduler.SendRepeatedly(interval, interval, ctx.Self(), lightningFlash{})
}

func (state *SceneActor) stopLightning() {
	if state.cancelLightning != nil {
		state.cancelLightning()
		state.cancelLightning = nil
	}
	state.view.Lightning.Active = false
}

func (state *SceneActor) flash() {
	state.view.Lightning.Active = true
	state.view.Lightning.Flashes++
	state.view.Lightning.LastFlashAt = state.now()
}

func (state *SceneActor) publish() {
	state.view.UpdatedAt = state.now()
	if state.eventStream != nil {
		state.eventStream.Publish(domain.SceneUpdatedEvent{View: state.copyView()})
	}
}

func (state *SceneActor) copyView() domain.SceneView {
	view := state.view
	view.Chart = append([]float64{}, state.view.Chart...)
	if state.view.Rain != nil {
		rain := *state.view.Rain
		view.Rain = &rain
	}
	return view
}
