package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/berfenger/solardash/internal/config"
	"github.com/berfenger/solardash/internal/core/domain"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
)

const (
	WS_ACTION_START      = "start"
	WS_ACTION_RETRY      = "retry"
	WS_ACTION_DISMISS    = "dismiss"
	WS_ACTION_DISCONNECT = "disconnect"
)

type Server struct {
	port           uint
	httpLog        bool
	rootContext    *actor.RootContext
	masterActor    *actor.PID
	metricsHandler http.Handler
	hub            *SceneHub
	logger         *zap.Logger
}

// NewServer builds the HTTP server. metricsHandler may be nil, /metrics is not
// registered then.
func NewServer(cfg config.Config, rootContext *actor.RootContext, masterActor *actor.PID,
	eventStream *eventstream.EventStream, metricsHandler http.Handler, logger *zap.Logger) *http.Server {
	NewServer := newServer(cfg, rootContext, masterActor, eventStream, metricsHandler, logger)

	// Declare Server config
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", NewServer.port),
		Handler:      NewServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	server.RegisterOnShutdown(NewServer.hub.Close)

	return server
}

func newServer(cfg config.Config, rootContext *actor.RootContext, masterActor *actor.PID,
	eventStream *eventstream.EventStream, metricsHandler http.Handler, logger *zap.Logger) *Server {
	s := &Server{
		port:           cfg.Port,
		httpLog:        cfg.HttpLog,
		rootContext:    rootContext,
		masterActor:    masterActor,
		metricsHandler: metricsHandler,
		logger:         logger,
	}
	s.hub = NewSceneHub(eventStream, s.onCommand, logger)
	return s
}

// onCommand turns a websocket button press into a request to the master actor.
func (s *Server) onCommand(action string) {
	switch action {
	case WS_ACTION_START:
		s.rootContext.Send(s.masterActor, domain.StartRequest{})
	case WS_ACTION_RETRY:
		s.rootContext.Send(s.masterActor, domain.RetryRequest{})
	case WS_ACTION_DISMISS:
		s.rootContext.Send(s.masterActor, domain.DismissRequest{})
	case WS_ACTION_DISCONNECT:
		s.rootContext.Send(s.masterActor, domain.DisconnectRequest{})
	default:
		s.logger.Debug("ws: unknown action", zap.String("action", action))
	}
}
