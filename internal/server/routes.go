package server

import (
	"net/http"
	"time"

	"github.com/berfenger/solardash/internal/core/domain"

	"github.com/carlmjohnson/versioninfo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const REQUEST_TIMEOUT = 2 * time.Second

type versionResponse struct {
	Version    string    `json:"version"`
	Revision   string    `json:"revision"`
	Dirty      bool      `json:"dirty"`
	LastCommit time.Time `json:"lastCommit"`
}

type commandResponse struct {
	Accepted bool `json:"accepted"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/ws", s.hub.ServeWS)
	if s.metricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(s.metricsHandler))
	}

	api := e.Group("/api")
	api.GET("/version", s.VersionHandler)
	api.GET("/state", s.StateHandler)
	api.GET("/scene", s.SceneHandler)
	api.POST("/start", s.StartHandler)
	api.POST("/retry", s.RetryHandler)
	api.POST("/dismiss", s.DismissHandler)
	api.POST("/disconnect", s.DisconnectHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

func (s *Server) VersionHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, versionResponse{
		Version:    versioninfo.Short(),
		Revision:   versioninfo.Revision,
		Dirty:      versioninfo.DirtyBuild,
		LastCommit: versioninfo.LastCommit,
	})
}

func (s *Server) StateHandler(c echo.Context) error {
	res, err := s.request(domain.GetDashboardStateRequest{})
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	if response, ok := res.(domain.GetDashboardStateResponse); ok {
		return c.JSON(http.StatusOK, response.State)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "unexpected response")
}

func (s *Server) SceneHandler(c echo.Context) error {
	res, err := s.request(domain.GetSceneRequest{})
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	if response, ok := res.(domain.GetSceneResponse); ok {
		return c.JSON(http.StatusOK, response.Scene)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "unexpected response")
}

func (s *Server) StartHandler(c echo.Context) error {
	return s.command(c, domain.StartRequest{}, func(res any) (bool, bool) {
		r, ok := res.(domain.StartResponse)
		return r.Accepted, ok
	})
}

func (s *Server) RetryHandler(c echo.Context) error {
	return s.command(c, domain.RetryRequest{}, func(res any) (bool, bool) {
		r, ok := res.(domain.RetryResponse)
		return r.Accepted, ok
	})
}

func (s *Server) DismissHandler(c echo.Context) error {
	return s.command(c, domain.DismissRequest{}, func(res any) (bool, bool) {
		r, ok := res.(domain.DismissResponse)
		return r.Dismissed, ok
	})
}

func (s *Server) DisconnectHandler(c echo.Context) error {
	return s.command(c, domain.DisconnectRequest{}, func(res any) (bool, bool) {
		_, ok := res.(domain.DisconnectResponse)
		return ok, ok
	})
}

func (s *Server) request(msg any) (any, error) {
	return s.rootContext.RequestFuture(s.masterActor, msg, REQUEST_TIMEOUT).Result()
}

// command answers 200 when the dashboard accepted the request and 409 otherwise.
func (s *Server) command(c echo.Context, msg any, accepted func(any) (bool, bool)) error {
	res, err := s.request(msg)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	ok, valid := accepted(res)
	if !valid {
		return echo.NewHTTPError(http.StatusInternalServerError, "unexpected response")
	}
	if !ok {
		return c.JSON(http.StatusConflict, commandResponse{Accepted: false})
	}
	return c.JSON(http.StatusOK, commandResponse{Accepted: true})
}
