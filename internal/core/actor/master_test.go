package actor

import (
	"fmt"
	"testing"
	"time"

	"github.com/berfenger/solardash/internal/config"
	"github.com/berfenger/solardash/internal/core/domain"
	"github.com/berfenger/solardash/internal/core/port"
	"github.com/berfenger/solardash/internal/util"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func spawnMaster(t *testing.T, cfg config.Config, factory *fakeFactory, es *eventstream.EventStream, renderers []port.Renderer) (*actor.RootContext, *actor.PID) {
	as := actor.NewActorSystem()
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, factory.New, es, renderers, logger)
	})
	pid, err := as.Root.SpawnNamed(props, "master")
	require.NoError(t, err)
	t.Cleanup(func() {
		as.Root.Stop(pid)
		as.Shutdown()
	})
	return as.Root, pid
}

func TestMasterActor(t *testing.T) {
	cfg := util.LoadTestConfig()
	root, pid := spawnMaster(t, cfg, &fakeFactory{}, nil, nil)

	res, err := root.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	require.NoError(t, err)
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	fmt.Printf("Health response: %+v\n", healthResp)

	assert.True(t, healthResp.Healthy, "healthy is true")
	assert.Equal(t, domain.ACTOR_ID_MASTER, healthResp.Id)
	assert.Equal(t, STATE_NAME_IDLE, healthResp.State)
}

func TestMasterAutoStartAndScene(t *testing.T) {
	cfg := util.LoadTestConfig()
	cfg.Onboarding.AutoStart = true
	factory := &fakeFactory{}
	es := &eventstream.EventStream{}
	updates := make(chan domain.SceneView, 64)
	sub := es.Subscribe(func(evt interface{}) {
		if e, ok := evt.(domain.SceneUpdatedEvent); ok {
			select {
			case updates <- e.View:
			default:
			}
		}
	})
	defer es.Unsubscribe(sub)
	recorder := &recordingRenderer{}

	root, pid := spawnMaster(t, cfg, factory, es, []port.Renderer{recorder})

	require.Eventually(t, func() bool {
		return factory.Count() == 1
	}, waitFor, tick, "auto start opens a transport")

	state := func() domain.DashboardState {
		res, err := root.RequestFuture(pid, domain.GetDashboardStateRequest{}, 2*time.Second).Result()
		require.NoError(t, err)
		return res.(domain.GetDashboardStateResponse).State
	}
	assert.Equal(t, STATE_NAME_CONNECTING, state().Lifecycle)

	factory.Get(0).Emit(domain.Connected{})
	factory.Get(0).Emit(domain.MessageReceived{Topic: "solar/raindrops_analog", Payload: "1500"})

	require.Eventually(t, func() bool {
		res, err := root.RequestFuture(pid, domain.GetSceneRequest{}, 2*time.Second).Result()
		if err != nil {
			return false
		}
		view := res.(domain.GetSceneResponse).Scene
		return view.Weather.Class == domain.WEATHER_STORM && view.Connection.Status == domain.STATUS_CONNECTED
	}, waitFor, tick)

	select {
	case <-updates:
	case <-time.After(waitFor):
		t.Fatal("no scene update published")
	}

	statuses := recorder.Statuses()
	require.NotEmpty(t, statuses)
	assert.Equal(t, domain.STATUS_CONNECTED, statuses[len(statuses)-1].status)

	res, err := root.RequestFuture(pid, domain.DisconnectRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	_, ok := res.(domain.DisconnectResponse)
	assert.True(t, ok)
	assert.Equal(t, STATE_NAME_IDLE, state().Lifecycle)
}
