package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/berfenger/solardash/internal/core/domain"
	"github.com/berfenger/solardash/internal/util"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubMaster struct {
	healthy  bool
	received chan any
}

func (s *stubMaster) respond(ctx actor.Context, msg any) {
	if ctx.Sender() != nil {
		ctx.Respond(msg)
	}
}

func (s *stubMaster) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		s.respond(ctx, domain.ActorHealthResponse{Id: domain.ACTOR_ID_MASTER, Healthy: s.healthy})
	case domain.GetDashboardStateRequest:
		s.respond(ctx, domain.GetDashboardStateResponse{State: domain.DashboardState{
			Lifecycle: "live",
			Status:    domain.STATUS_CONNECTED,
			Snapshot:  domain.InitialSnapshot(),
		}})
	case domain.GetSceneRequest:
		s.respond(ctx, domain.GetSceneResponse{Scene: domain.SceneView{SkyColor: "hsl(220, 50%, 20%)"}})
	case domain.RetryRequest:
		s.received <- msg
		s.respond(ctx, domain.RetryResponse{Accepted: true})
	case domain.DismissRequest:
		s.received <- msg
		s.respond(ctx, domain.DismissResponse{Dismissed: false})
	}
}

type fixture struct {
	server   *Server
	handler  http.Handler
	es       *eventstream.EventStream
	received chan any
}

func newFixture(t *testing.T, healthy bool) *fixture {
	as := actor.NewActorSystem()
	received := make(chan any, 8)
	pid := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return &stubMaster{healthy: healthy, received: received}
	}))
	es := &eventstream.EventStream{}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("solardash_pv_volts 3.2\n"))
	})
	s := newServer(util.LoadTestConfig(), as.Root, pid, es, metrics, zap.NewNop())
	t.Cleanup(func() {
		s.hub.Close()
		as.Root.Stop(pid)
		as.Shutdown()
	})
	return &fixture{server: s, handler: s.RegisterRoutes(), es: es, received: received}
}

func (f *fixture) do(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheckHandler(t *testing.T) {
	rec := newFixture(t, true).do(http.MethodGet, "/healthcheck")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "health_check: OK", rec.Body.String())

	rec = newFixture(t, false).do(http.MethodGet, "/healthcheck")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "health_check: FAIL", rec.Body.String())
}

func TestStateAndSceneHandlers(t *testing.T) {
	f := newFixture(t, true)

	rec := f.do(http.MethodGet, "/api/state")
	require.Equal(t, http.StatusOK, rec.Code)
	var state domain.DashboardState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "live", state.Lifecycle)
	assert.Equal(t, domain.STATUS_CONNECTED, state.Status)
	assert.Equal(t, 90, state.Snapshot.Servo)

	rec = f.do(http.MethodGet, "/api/scene")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"skyColor":"hsl(220, 50%, 20%)"`)
}

func TestCommandHandlers(t *testing.T) {
	f := newFixture(t, true)

	rec := f.do(http.MethodPost, "/api/retry")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"accepted":true}`, rec.Body.String())

	rec = f.do(http.MethodPost, "/api/dismiss")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"accepted":false}`, rec.Body.String())

	// the stub never answers a start request
	rec = f.do(http.MethodPost, "/api/start")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = f.do(http.MethodGet, "/api/retry")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestVersionAndMetricsHandlers(t *testing.T) {
	f := newFixture(t, true)

	rec := f.do(http.MethodGet, "/api/version")
	require.Equal(t, http.StatusOK, rec.Code)
	var version versionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &version))
	assert.NotEmpty(t, version.Version)

	rec = f.do(http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "solardash_pv_volts")
}

func TestSceneWebsocket(t *testing.T) {
	f := newFixture(t, true)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	// published before the client connects, delivered on connect
	f.es.Publish(domain.SceneUpdatedEvent{View: domain.SceneView{SkyColor: "hsl(200, 80%, 60%)"}})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, WS_MSG_TYPE_SCENE, msg.Type)
	require.NotNil(t, msg.Scene)
	assert.Equal(t, "hsl(200, 80%, 60%)", msg.Scene.SkyColor)

	require.Eventually(t, func() bool {
		return f.server.hub.Clients() == 1
	}, 3*time.Second, 10*time.Millisecond)

	f.es.Publish(domain.SceneUpdatedEvent{View: domain.SceneView{SkyColor: "hsl(30, 80%, 60%)"}})
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "hsl(30, 80%, 60%)", msg.Scene.SkyColor)

	// button presses travel back over the socket
	require.NoError(t, conn.WriteJSON(wsCommand{Action: WS_ACTION_RETRY}))
	select {
	case got := <-f.received:
		assert.IsType(t, domain.RetryRequest{}, got)
	case <-time.After(3 * time.Second):
		t.Fatal("retry command not forwarded")
	}
}
