package actor

import (
	"sync"
	"testing"
	"time"

	"github.com/berfenger/solardash/internal/core/domain"
	"github.com/berfenger/solardash/internal/util"
	"github.com/berfenger/solardash/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func getScene(t *testing.T, root *actor.RootContext, pid *actor.PID) domain.SceneView {
	res, err := root.RequestFuture(pid, domain.GetSceneRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	resp, ok := res.(domain.GetSceneResponse)
	require.True(t, ok)
	return resp.Scene
}

func TestSceneActor(t *testing.T) {

	cfg := util.LoadTestConfig()
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	root := as.Root

	es := &eventstream.EventStream{}
	var mu sync.Mutex
	published := 0
	sub := es.Subscribe(func(evt any) {
		if _, ok := evt.(domain.SceneUpdatedEvent); ok {
			mu.Lock()
			published++
			mu.Unlock()
		}
	})
	defer es.Unsubscribe(sub)

	props := actor.PropsFromProducer(func() actor.Actor { return NewSceneActor(&cfg, es, logger) })
	pid := root.Spawn(props)
	renderer := NewSceneRenderer(root, pid)

	scene := getScene(t, root, pid)
	assert.Equal(t, domain.STEP_CONNECTING, scene.Popup.Step)
	assert.Equal(t, "90°", scene.Readouts.Servo)
	assert.Equal(t, 1.0, scene.MoonOpacity, "both light sensors start dark")

	snapshot := domain.SensorSnapshot{Servo: 0, MeasuredPV: 3.2, LDRRight: true, LDRLeft: true, RaindropsAnalog: 4095}
	renderer.OnSensorChanged(domain.CHANNEL_SERVO, snapshot)
	renderer.OnChartUpdated([]float64{3.1, 3.2})
	renderer.OnConnectionStatusChanged(domain.STATUS_CONNECTED, "Connected to MQTT broker")

	scene = getScene(t, root, pid)
	assert.InDelta(t, 200, scene.Sun.X, 0.001)
	assert.Equal(t, "hsl(240, 40%, 25%)", scene.SkyColor)
	assert.Equal(t, 0.0, scene.MoonOpacity)
	assert.Equal(t, []float64{3.1, 3.2}, scene.Chart)
	assert.Equal(t, domain.STATUS_CONNECTED, scene.Connection.Status)
	assert.Nil(t, scene.Rain)

	renderer.OnWeatherTransition(domain.Weather{Class: domain.WEATHER_HEAVY, Intensity: 2, Label: "HUJAN LEBAT"})
	scene = getScene(t, root, pid)
	require.NotNil(t, scene.Rain)
	assert.Equal(t, 150, scene.Rain.DropCount)
	assert.Equal(t, "hsl(210, 40%, 25%)", scene.SkyColor)
	assert.Equal(t, 0.4, scene.Sun.Opacity)
	assert.False(t, scene.Lightning.Active)

	mu.Lock()
	assert.GreaterOrEqual(t, published, 4)
	mu.Unlock()

	root.Stop(pid)
	as.Shutdown()
}

func TestSceneLightningStopsWhenStormEnds(t *testing.T) {

	cfg := util.LoadTestConfig()
	logger := zap.NewNop()
	as := actorutil.NewActorSystemWithZapLogger(logger)
	root := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewSceneActor(&cfg, nil, logger) })
	pid := root.Spawn(props)
	renderer := NewSceneRenderer(root, pid)

	renderer.OnWeatherTransition(domain.Weather{Class: domain.WEATHER_STORM, Intensity: 3})
	scene := getScene(t, root, pid)
	assert.True(t, scene.Lightning.Active)
	assert.Equal(t, uint(1), scene.Lightning.Flashes, "first flash is immediate")

	// lightning interval is 200ms in the test config
	require.Eventually(t, func() bool {
		return getScene(t, root, pid).Lightning.Flashes >= 3
	}, 2*time.Second, 50*time.Millisecond)

	renderer.OnWeatherTransition(domain.Weather{Class: domain.WEATHER_DRIZZLE, Intensity: 1})
	scene = getScene(t, root, pid)
	assert.False(t, scene.Lightning.Active)
	flashes := scene.Lightning.Flashes

	time.Sleep(600 * time.Millisecond)
	assert.Equal(t, flashes, getScene(t, root, pid).Lightning.Flashes, "no flashes after leaving storm")

	root.Stop(pid)
	as.Shutdown()
}
