package actor

import (
	"fmt"
	"log"
	"time"

	adactor "github.com/berfenger/solardash/internal/adapter/actor"
	"github.com/berfenger/solardash/internal/config"
	"github.com/berfenger/solardash/internal/core/domain"
	"github.com/berfenger/solardash/internal/core/port"
	"github.com/berfenger/solardash/internal/core/service"
	. "github.com/berfenger/solardash/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

const (
	CHILD_HEALTH_TIMEOUT = 500 * time.Millisecond
	HEALTH_CHECK_TIMEOUT = 1 * time.Second
)

type MasterOfPuppetsActor struct {
	config    config.Config
	behavior  actor.Behavior
	stash     *Stash
	scheduler *scheduler.TimerScheduler

	currentHealthCheck healthCheckResult
	eventStream        *eventstream.EventStream
	sceneActor         *actor.PID
	dashboardActor     *actor.PID
	transportFactory   port.TransportFactory
	renderers          []port.Renderer
	logger             *zap.Logger
}

type healthCheckResult struct {
	sceneActorHealthy     bool
	dashboardActorHealthy bool
	dashboardState        string
	checksReceived        int
	respondTo             *actor.PID
}

type autoStart struct {
}

// NewMasterOfPuppetsActor builds the root actor. Scene updates are published on
// eventStream; renderers receive every dashboard notification besides the scene.
func NewMasterOfPuppetsActor(config config.Config, transportFactory port.TransportFactory, eventStream *eventstream.EventStream,
	renderers []port.Renderer, logger *zap.Logger) *MasterOfPuppetsActor {
	if eventStream == nil {
		eventStream = &eventstream.EventStream{}
	}
	act := &MasterOfPuppetsActor{
		config:           config,
		behavior:         actor.NewBehavior(),
		stash:            &Stash{},
		logger:           ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:      eventStream,
		transportFactory: transportFactory,
		renderers:        renderers,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck = healthCheckResult{}
		state.currentHealthCheck.reset()
		state.scheduler = scheduler.NewTimerScheduler(ctx.ActorSystem().Root)

		// start Scene child
		sceneActorPID, err := state.startSceneActor(ctx)
		if err != nil {
			panic(err)
		}
		state.sceneActor = sceneActorPID

		// start Dashboard child
		dashboardActorPID, err := state.startDashboardActor(ctx)
		if err != nil {
			panic(err)
		}
		state.dashboardActor = dashboardActorPID

		if state.config.Onboarding.AutoStart {
			state.scheduler.SendOnce(state.config.Onboarding.StartDelay(), ctx.Self(), autoStart{})
		}

		state.behavior.Become(state.DefaultReceive)
		state.unstash(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset()
		state.currentHealthCheck.respondTo = ctx.Sender()
		// Scene Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.sceneActor, domain.ActorHealthRequest{}, CHILD_HEALTH_TIMEOUT), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_SCENE,
				Healthy: false,
			}
		})
		// Dashboard Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.dashboardActor, domain.ActorHealthRequest{}, CHILD_HEALTH_TIMEOUT), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_DASHBOARD,
				Healthy: false,
			}
		})

		ctx.SetReceiveTimeout(HEALTH_CHECK_TIMEOUT)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case autoStart:
		state.logger.Info("master@default auto start")
		ctx.Send(state.dashboardActor, domain.StartRequest{})
	case domain.StartRequest, domain.RetryRequest, domain.DismissRequest, domain.DisconnectRequest, domain.GetDashboardStateRequest:
		// lifecycle commands and state queries are served by the dashboard
		state.logger.Debug("master@default forward to dashboard", zap.String("type", fmt.Sprintf("%T", msg)))
		ctx.Forward(state.dashboardActor)
	case domain.GetSceneRequest:
		ctx.Forward(state.sceneActor)
	case *actor.Terminated:
		state.logger.Warn("master@default child terminated", zap.String("child", msg.Who.Id))
	default:
		state.logger.Debug("master@default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		ctx.SetReceiveTimeout(0)
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.unstash(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		if msg.Healthy {
			if msg.Id == domain.ACTOR_ID_SCENE {
				state.currentHealthCheck.sceneActorHealthy = true
			} else if msg.Id == domain.ACTOR_ID_DASHBOARD {
				state.currentHealthCheck.dashboardActorHealthy = true
				state.currentHealthCheck.dashboardState = msg.State
			}
		}
		if state.currentHealthCheck.allReceived() {
			ctx.SetReceiveTimeout(0)

			state.currentHealthCheck.respond(ctx)

			state.behavior.UnbecomeStacked()
			state.unstash(ctx)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) unstash(ctx actor.Context) {
	if n := state.stash.Len(); n > 0 {
		state.logger.Debug("master unstash", zap.Int("messages", n))
	}
	state.stash.UnstashAll(ctx)
}

func (state *MasterOfPuppetsActor) startSceneActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(10, 10*time.Second, decider)

	sceneProps := actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewSceneActor(&state.config, state.eventStream, state.logger)
	}, actor.WithSupervisor(supervisor))
	sceneActorPID, err := ctx.SpawnNamed(sceneProps, domain.ACTOR_ID_SCENE)
	if err != nil {
		return nil, err
	}

	return sceneActorPID, nil
}

func (state *MasterOfPuppetsActor) startDashboardActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	renderer := append(service.MultiRenderer{adactor.NewSceneRenderer(ctx.ActorSystem().Root, state.sceneActor)}, state.renderers...)
	dashboardProps := actor.PropsFromProducer(func() actor.Actor {
		return NewDashboardActor(&state.config, state.transportFactory, renderer, state.logger)
	}, actor.WithSupervisor(supervisor))
	dashboardActorPID, err := ctx.SpawnNamed(dashboardProps, domain.ACTOR_ID_DASHBOARD)
	if err != nil {
		return nil, err
	}

	return dashboardActorPID, nil
}

func (state *healthCheckResult) reset() {
	state.sceneActorHealthy = false
	state.dashboardActorHealthy = false
	state.dashboardState = ""
	state.checksReceived = 0
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived == 2
}

func (state *healthCheckResult) allHealthy() bool {
	return state.sceneActorHealthy && state.dashboardActorHealthy
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
		State:   state.dashboardState,
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
