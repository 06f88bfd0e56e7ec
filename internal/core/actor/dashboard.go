package actor

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/berfenger/solardash/internal/config"
	"github.com/berfenger/solardash/internal/core/domain"
	"github.com/berfenger/solardash/internal/core/port"
	"github.com/berfenger/solardash/internal/core/service"
	. "github.com/berfenger/solardash/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

const (
	STATUS_MSG_CONNECTING    = "Connecting to MQTT broker..."
	STATUS_MSG_CONNECTED     = "Connected to MQTT broker"
	STATUS_MSG_RETRYING      = "Retrying connection..."
	STATUS_MSG_TIMEOUT       = "Connection timeout - check broker availability"
	STATUS_MSG_CLOSED        = "Connection closed"
	STATUS_MSG_OFFLINE       = "Client offline"
	STATUS_MSG_DISCONNECTED  = "Disconnected from MQTT broker"
	DEMO_PV_MIN              = 0.0
	DEMO_PV_MAX              = 5.0
	DEMO_PV_MAX_JITTER       = 0.25
	STATE_NAME_IDLE          = "idle"
	STATE_NAME_CONNECTING    = "connecting"
	STATE_NAME_CONNECTED     = "connected"
	STATE_NAME_SUBSCRIBING   = "subscribing"
	STATE_NAME_LIVE          = "live"
	STATE_NAME_FAILED        = "failed"
	STATE_NAME_RETRYING      = "retrying"
	STATE_NAME_DISCONNECTED  = "disconnected"
	missingDataErrorTemplate = "Missing data from %d topic(s)"
)

// DashboardActor owns the sensor snapshot and drives the connection lifecycle and the
// onboarding popup. Transport callbacks and timers only post messages to it.
type DashboardActor struct {
	ActorWithStates
	config    *config.Config
	scheduler *scheduler.TimerScheduler
	factory   port.TransportFactory
	renderer  port.Renderer
	logger    *zap.Logger

	store      *service.SensorStore
	tracker    *service.TopicTracker
	mapper     *service.IngestMapper
	weather    *service.WeatherHysteresis
	history    *service.PVHistory
	onboarding *service.Onboarding

	status        domain.ConnectionStatus
	statusMessage string

	transport port.Transport
	// session identifies the current connection attempt. Transport events and timers
	// carry the session that created them; anything older is dropped.
	session uint64
	linked  bool
	demoPV  float64

	cancelGuard       scheduler.CancelFunc
	cancelSubscribing scheduler.CancelFunc
	cancelCheck       scheduler.CancelFunc
	cancelRetry       scheduler.CancelFunc
	cancelDemo        scheduler.CancelFunc
}

type transportEnvelope struct {
	session uint64
	event   domain.TransportEvent
}

type connectTimeout struct {
	session uint64
}

type enterSubscribing struct {
	session uint64
}

type completenessCheck struct {
	session uint64
}

type retryConnect struct {
	session uint64
}

type subscribeResult struct {
	session uint64
	topic   string
	err     error
}

type demoSeed struct {
}

type demoTick struct {
}

func NewDashboardActor(config *config.Config, factory port.TransportFactory, renderer port.Renderer, logger *zap.Logger) *DashboardActor {
	store := service.NewSensorStore()
	tracker := service.NewTopicTracker()
	act := &DashboardActor{
		config:     config,
		factory:    factory,
		renderer:   renderer,
		logger:     ActorLogger(domain.ACTOR_ID_DASHBOARD, logger),
		store:      store,
		tracker:    tracker,
		mapper:     service.NewIngestMapper(config.MQTT.BaseTopic, store, tracker),
		weather:    &service.WeatherHysteresis{},
		history:    service.NewPVHistory(config.Dashboard.PVHistorySize),
		onboarding: service.NewOnboarding(time.Now),
		status:     domain.STATUS_DISCONNECTED,
		ActorWithStates: ActorWithStates{
			Behavior: actor.NewBehavior(),
		},
	}
	act.Become(DIdleState{actor: act})
	return act
}

func (state *DashboardActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

// Idle state

type DIdleState struct {
	ActorState
	actor *DashboardActor
}

func (state DIdleState) Name() string {
	return STATE_NAME_IDLE
}

func (state DIdleState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.actor.logger.Debug("dashboard@idle started")
		state.actor.scheduler = scheduler.NewTimerScheduler(ctx.ActorSystem().Root)
		if state.actor.config.Demo.Enable {
			state.actor.scheduler.SendOnce(state.actor.config.Demo.StartDelay(), ctx.Self(), demoSeed{})
		}
	case domain.StartRequest:
		state.actor.logger.Debug("dashboard@idle StartRequest")
		state.actor.connect(ctx)
		ForRequest(msg).Respond(ctx, domain.StartResponse{Accepted: true})
	case domain.RetryRequest:
		state.actor.logger.Debug("dashboard@idle RetryRequest ignored")
		ForRequest(msg).Respond(ctx, domain.RetryResponse{Accepted: false})
	default:
		state.actor.receiveCommon(ctx, state)
	}
}

// Connecting state: transport opened, waiting for the connection or the guard

type DConnectingState struct {
	ActorState
	actor *DashboardActor
}

func (state DConnectingState) Name() string {
	return STATE_NAME_CONNECTING
}

func (state DConnectingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case transportEnvelope:
		if !state.actor.currentSession(msg.session) {
			state.actor.logger.Debug("dashboard@connecting stale transport event", zap.String("type", fmt.Sprintf("%T", msg.event)))
			return
		}
		switch ev := msg.event.(type) {
		case domain.Connected:
			state.actor.logger.Info("dashboard@connecting connected")
			state.actor.onConnected(ctx)
		case domain.Closed, domain.Offline:
			// the guard is still armed
			state.actor.logger.Debug("dashboard@connecting transport down", zap.String("type", fmt.Sprintf("%T", ev)))
			state.actor.linked = false
			state.actor.setStatus(domain.STATUS_DISCONNECTED, downMessage(ev))
			state.actor.showStep(domain.STEP_CONNECTING)
		default:
			state.actor.receiveCommon(ctx, state)
		}
	case connectTimeout:
		if !state.actor.currentSession(msg.session) {
			return
		}
		state.actor.logger.Warn("dashboard@connecting connection timeout")
		state.actor.cancelGuard = nil
		state.actor.closeTransport(true)
		state.actor.fail(ctx, STATUS_MSG_TIMEOUT)
	default:
		state.actor.receiveCommon(ctx, state)
	}
}

// Connected state: subscriptions requested, waiting to show the subscribing step

type DConnectedState struct {
	ActorState
	actor *DashboardActor
}

func (state DConnectedState) Name() string {
	return STATE_NAME_CONNECTED
}

func (state DConnectedState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case enterSubscribing:
		if !state.actor.currentSession(msg.session) {
			return
		}
		state.actor.logger.Debug("dashboard@connected enterSubscribing")
		state.actor.cancelSubscribing = nil
		state.actor.showStep(domain.STEP_SUBSCRIBING)
		state.actor.tracker.StartMonitoring(domain.TopicCatalog)
		state.actor.cancelCheck = state.actor.scheduler.SendOnce(state.actor.config.Onboarding.CompletenessGrace(), ctx.Self(), completenessCheck{session: state.actor.session})
		state.actor.Become(DSubscribingState{actor: state.actor})
	default:
		state.actor.receiveCommon(ctx, state)
	}
}

// Subscribing state: monitoring topics until the completeness check

type DSubscribingState struct {
	ActorState
	actor *DashboardActor
}

func (state DSubscribingState) Name() string {
	return STATE_NAME_SUBSCRIBING
}

func (state DSubscribingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case completenessCheck:
		if !state.actor.currentSession(msg.session) {
			return
		}
		state.actor.cancelCheck = nil
		if state.actor.tracker.AllReceived() {
			state.actor.logger.Info("dashboard@subscribing all topics received")
			state.actor.showStep(domain.STEP_SUCCESS)
			state.actor.Become(DLiveState{actor: state.actor})
			return
		}
		missing := state.actor.tracker.Missing()
		state.actor.logger.Warn("dashboard@subscribing missing topics", zap.Any("missing", missing))
		// connection status stays as is
		state.actor.popupError(fmt.Sprintf(missingDataErrorTemplate, len(missing)), missing)
		state.actor.Become(DFailedState{actor: state.actor})
	default:
		state.actor.receiveCommon(ctx, state)
	}
}

// Live state: every topic delivered data, the popup shows success until dismissed

type DLiveState struct {
	ActorState
	actor *DashboardActor
}

func (state DLiveState) Name() string {
	return STATE_NAME_LIVE
}

func (state DLiveState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.DismissRequest:
		dismissed := state.actor.onboarding.Hide()
		if dismissed {
			state.actor.logger.Debug("dashboard@live popup dismissed")
			state.actor.renderer.OnPopupChanged(state.actor.onboarding.View())
		}
		ForRequest(msg).Respond(ctx, domain.DismissResponse{Dismissed: dismissed})
	default:
		state.actor.receiveCommon(ctx, state)
	}
}

// Failed state: the popup shows the error until the user retries

type DFailedState struct {
	ActorState
	actor *DashboardActor
}

func (state DFailedState) Name() string {
	return STATE_NAME_FAILED
}

func (state DFailedState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case transportEnvelope:
		if !state.actor.currentSession(msg.session) {
			return
		}
		switch ev := msg.event.(type) {
		case domain.Closed, domain.Offline:
			// the error popup stays visible
			state.actor.linked = false
			state.actor.setStatus(domain.STATUS_DISCONNECTED, downMessage(ev))
		case domain.Connected:
			state.actor.logger.Debug("dashboard@failed late connect ignored")
		default:
			state.actor.receiveCommon(ctx, state)
		}
	default:
		state.actor.receiveCommon(ctx, state)
	}
}

// Retrying state: transport closed, waiting for the retry delay

type DRetryingState struct {
	ActorState
	actor *DashboardActor
}

func (state DRetryingState) Name() string {
	return STATE_NAME_RETRYING
}

func (state DRetryingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case retryConnect:
		if !state.actor.currentSession(msg.session) {
			return
		}
		state.actor.cancelRetry = nil
		state.actor.connect(ctx)
	default:
		state.actor.receiveCommon(ctx, state)
	}
}

// Disconnected state: the connection dropped after being established

type DDisconnectedState struct {
	ActorState
	actor *DashboardActor
}

func (state DDisconnectedState) Name() string {
	return STATE_NAME_DISCONNECTED
}

func (state DDisconnectedState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.StartRequest:
		state.actor.logger.Debug("dashboard@disconnected StartRequest")
		state.actor.connect(ctx)
		ForRequest(msg).Respond(ctx, domain.StartResponse{Accepted: true})
	default:
		state.actor.receiveCommon(ctx, state)
	}
}

// receiveCommon handles messages every state treats the same way.
func (a *DashboardActor) receiveCommon(ctx actor.Context, state ActorState) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		a.logger.Debug(fmt.Sprintf("dashboard@%s ActorHealthRequest", state.Name()))
		ForRequest(msg).Respond(ctx, domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_DASHBOARD,
			Healthy: true,
			State:   state.Name(),
		})
	case domain.GetDashboardStateRequest:
		ForRequest(msg).Respond(ctx, domain.GetDashboardStateResponse{State: a.dashboardState()})
	case domain.StartRequest:
		a.logger.Debug(fmt.Sprintf("dashboard@%s StartRequest ignored", state.Name()))
		ForRequest(msg).Respond(ctx, domain.StartResponse{Accepted: false})
	case domain.RetryRequest:
		a.logger.Info(fmt.Sprintf("dashboard@%s RetryRequest", state.Name()))
		a.retry(ctx)
		ForRequest(msg).Respond(ctx, domain.RetryResponse{Accepted: true})
	case domain.DismissRequest:
		ForRequest(msg).Respond(ctx, domain.DismissResponse{Dismissed: false})
	case domain.DisconnectRequest:
		a.logger.Info(fmt.Sprintf("dashboard@%s DisconnectRequest", state.Name()))
		a.teardown(true)
		a.Become(DIdleState{actor: a})
		ForRequest(msg).Respond(ctx, domain.DisconnectResponse{})
	case transportEnvelope:
		if !a.currentSession(msg.session) {
			a.logger.Debug(fmt.Sprintf("dashboard@%s stale transport event", state.Name()), zap.String("type", fmt.Sprintf("%T", msg.event)))
			return
		}
		a.onTransportEvent(ctx, state, msg.event)
	case subscribeResult:
		if msg.err != nil {
			a.logger.Warn(fmt.Sprintf("dashboard@%s subscribe failed", state.Name()), zap.String("topic", msg.topic), zap.Error(msg.err))
		} else {
			a.logger.Debug(fmt.Sprintf("dashboard@%s subscribed", state.Name()), zap.String("topic", msg.topic))
		}
	case demoSeed:
		a.seedDemo(ctx)
	case demoTick:
		a.tickDemo()
	case *actor.Stopping:
		a.teardown(false)
	case *actor.Restarting:
		a.teardown(false)
	case connectTimeout, enterSubscribing, completenessCheck, retryConnect:
		a.logger.Debug(fmt.Sprintf("dashboard@%s stale timer", state.Name()), zap.String("type", fmt.Sprintf("%T", msg)))
	default:
		a.logger.Debug(fmt.Sprintf("dashboard@%s recv", state.Name()), zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (a *DashboardActor) onTransportEvent(ctx actor.Context, state ActorState, event domain.TransportEvent) {
	switch ev := event.(type) {
	case domain.MessageReceived:
		a.ingest(ev.Topic, ev.Payload)
	case domain.TransportError:
		a.logger.Error(fmt.Sprintf("dashboard@%s transport error", state.Name()), zap.String("error", ev.Message))
		a.fail(ctx, "Connection error: "+ev.Message)
	case domain.Closed, domain.Offline:
		a.logger.Info(fmt.Sprintf("dashboard@%s transport down", state.Name()), zap.String("type", fmt.Sprintf("%T", ev)))
		a.linked = false
		cancel(&a.cancelSubscribing)
		cancel(&a.cancelCheck)
		a.setStatus(domain.STATUS_DISCONNECTED, downMessage(ev))
		a.showStep(domain.STEP_CONNECTING)
		a.Become(DDisconnectedState{actor: a})
	default:
		a.logger.Debug(fmt.Sprintf("dashboard@%s transport event", state.Name()), zap.String("type", fmt.Sprintf("%T", ev)))
	}
}

func (a *DashboardActor) connect(ctx actor.Context) {
	a.cancelTimers()
	a.closeTransport(true)
	a.session++
	session := a.session
	a.linked = false
	// drop receipts of the previous session
	a.tracker.Reset()

	a.setStatus(domain.STATUS_CONNECTING, STATUS_MSG_CONNECTING)
	a.showStep(domain.STEP_CONNECTING)

	self := ctx.Self()
	root := ctx.ActorSystem().Root
	a.transport = a.factory()
	err := a.transport.Open(func(event domain.TransportEvent) {
		root.Send(self, transportEnvelope{session: session, event: event})
	})
	if err != nil {
		a.logger.Error("dashboard: transport init failed", zap.Error(err))
		a.closeTransport(true)
		a.fail(ctx, "Failed to initialize: "+err.Error())
		return
	}
	a.cancelGuard = a.scheduler.SendOnce(a.config.Onboarding.ConnectTimeout(), self, connectTimeout{session: session})
	a.Become(DConnectingState{actor: a})
}

func (a *DashboardActor) onConnected(ctx actor.Context) {
	cancel(&a.cancelGuard)
	a.linked = true
	a.setStatus(domain.STATUS_CONNECTED, STATUS_MSG_CONNECTED)

	self := ctx.Self()
	root := ctx.ActorSystem().Root
	session := a.session
	for _, id := range domain.TopicCatalog {
		topic := id.TopicName(a.config.MQTT.BaseTopic)
		a.transport.Subscribe(topic, func(err error) {
			root.Send(self, subscribeResult{session: session, topic: topic, err: err})
		})
	}

	if a.onboarding.Step() == domain.STEP_CONNECTING {
		a.cancelSubscribing = a.scheduler.SendOnce(a.config.Onboarding.SubscribingDelay(), self, enterSubscribing{session: session})
	}
	a.Become(DConnectedState{actor: a})
}

func (a *DashboardActor) fail(ctx actor.Context, message string) {
	a.cancelTimers()
	a.setStatus(domain.STATUS_ERROR, message)
	a.popupError(message, a.tracker.Missing())
	a.Become(DFailedState{actor: a})
}

func (a *DashboardActor) retry(ctx actor.Context) {
	a.cancelTimers()
	a.closeTransport(true)
	a.linked = false
	a.session++

	a.onboarding.ClearErrors()
	a.tracker.Reset()
	a.onboarding.Show(domain.STEP_CONNECTING)
	a.renderer.OnPopupChanged(a.onboarding.View())
	a.setStatus(domain.STATUS_CONNECTING, STATUS_MSG_RETRYING)

	a.cancelRetry = a.scheduler.SendOnce(a.config.Onboarding.RetryDelay(), ctx.Self(), retryConnect{session: a.session})
	a.Become(DRetryingState{actor: a})
}

// teardown closes the transport and cancels every timer.
func (a *DashboardActor) teardown(notify bool) {
	a.cancelTimers()
	cancel(&a.cancelDemo)
	hadTransport := a.transport != nil
	a.closeTransport(false)
	a.linked = false
	a.session++
	if notify && hadTransport {
		a.setStatus(domain.STATUS_DISCONNECTED, STATUS_MSG_DISCONNECTED)
	}
}

func (a *DashboardActor) ingest(topic, payload string) {
	res, err := a.mapper.Ingest(topic, payload)
	if err != nil {
		a.logger.Warn("dashboard: invalid payload", zap.Error(err))
		return
	}
	if !res.Known {
		a.logger.Debug("dashboard: message on unknown topic", zap.String("topic", topic))
		return
	}
	a.sensorChanged(res.Channel)
}

func (a *DashboardActor) sensorChanged(channel domain.Channel) {
	snapshot := a.store.Snapshot()
	a.renderer.OnSensorChanged(channel, snapshot)
	switch channel {
	case domain.CHANNEL_MEASURED_PV:
		a.history.Append(snapshot.MeasuredPV)
		a.renderer.OnChartUpdated(a.history.Values())
	case domain.CHANNEL_RAINDROPS_ANALOG:
		if weather, changed := a.weather.Evaluate(snapshot.RaindropsAnalog); changed {
			a.logger.Info("dashboard: weather changed", zap.String("weather", string(weather.Class)))
			a.renderer.OnWeatherTransition(weather)
		}
	}
}

func (a *DashboardActor) seedDemo(ctx actor.Context) {
	if a.linked {
		a.logger.Debug("dashboard: transport connected, demo feed skipped")
		return
	}
	a.logger.Info("dashboard: seeding demo data")
	a.store.Update(func(s *domain.SensorSnapshot) {
		s.Servo = 90
		s.MeasuredPV = 3.2
		s.LDRRight = true
		s.LDRLeft = false
		s.RaindropsAnalog = 4000
		s.RaindropsDigital = false
		s.Jemuran = false
		s.ServoJemuran = 45
	})
	a.demoPV = 3.2
	for _, id := range domain.TopicCatalog {
		a.sensorChanged(id.Channel())
	}
	cancel(&a.cancelDemo)
	interval := a.config.Demo.Interval()
	a.cancelDemo = a.scheduler.SendRepeatedly(interval, interval, ctx.Self(), demoTick{})
}

func (a *DashboardActor) tickDemo() {
	if a.linked {
		return
	}
	a.demoPV += (rand.Float64()*2 - 1) * DEMO_PV_MAX_JITTER
	a.demoPV = min(max(a.demoPV, DEMO_PV_MIN), DEMO_PV_MAX)
	a.store.Update(func(s *domain.SensorSnapshot) {
		s.MeasuredPV = a.demoPV
	})
	a.sensorChanged(domain.CHANNEL_MEASURED_PV)
}

func (a *DashboardActor) setStatus(status domain.ConnectionStatus, message string) {
	a.status = status
	a.statusMessage = message
	a.renderer.OnConnectionStatusChanged(status, message)
}

func (a *DashboardActor) showStep(step domain.PopupStep) {
	if a.onboarding.Show(step) {
		a.renderer.OnPopupChanged(a.onboarding.View())
	}
}

func (a *DashboardActor) popupError(message string, missing []domain.TopicId) {
	a.onboarding.Show(domain.STEP_ERROR)
	a.onboarding.RecordError(message, missing)
	a.renderer.OnPopupChanged(a.onboarding.View())
}

func (a *DashboardActor) closeTransport(force bool) {
	if a.transport != nil {
		a.transport.End(force)
		a.transport = nil
	}
}

func (a *DashboardActor) cancelTimers() {
	cancel(&a.cancelGuard)
	cancel(&a.cancelSubscribing)
	cancel(&a.cancelCheck)
	cancel(&a.cancelRetry)
}

func (a *DashboardActor) currentSession(session uint64) bool {
	return session == a.session
}

func (a *DashboardActor) dashboardState() domain.DashboardState {
	return domain.DashboardState{
		Lifecycle:     a.StateName(),
		Status:        a.status,
		StatusMessage: a.statusMessage,
		Popup:         a.onboarding.View(),
		Snapshot:      a.store.Snapshot(),
		Weather:       a.weather.State(),
		PVHistory:     a.history.Values(),
		Received:      a.tracker.ReceivedTopics(),
	}
}

func cancel(fn *scheduler.CancelFunc) {
	if *fn != nil {
		(*fn)()
		*fn = nil
	}
}

func downMessage(event domain.TransportEvent) string {
	if _, ok := event.(domain.Offline); ok {
		return STATUS_MSG_OFFLINE
	}
	return STATUS_MSG_CLOSED
}
