package domain

import (
	"github.com/asynkron/protoactor-go/actor"
)

const (
	ACTOR_ID_MASTER    = "master"
	ACTOR_ID_DASHBOARD = "dashboard"
	ACTOR_ID_SCENE     = "scene"
)

type ActorRef actor.PID

type ActorRequestMixIn struct {
	ReplyToRef *ActorRef
}

type ActorRequest interface {
	ReplyTo() *ActorRef
}

func (r ActorRequestMixIn) ReplyTo() *ActorRef {
	return r.ReplyToRef
}

type ActorResponseMixIn struct {
	ResponseError error
}

func (r ActorResponseMixIn) GetResponseError() error {
	return r.ResponseError
}

func (r ActorResponseMixIn) HasResponseError() bool {
	return r.ResponseError != nil
}

type ActorResponse interface {
	GetResponseError() error
	HasResponseError() bool
}

// Onboarding lifecycle commands

type StartRequest struct {
	ActorRequestMixIn
}

type StartResponse struct {
	ActorResponseMixIn
	Accepted bool
}

type RetryRequest struct {
	ActorRequestMixIn
}

type RetryResponse struct {
	ActorResponseMixIn
	Accepted bool
}

type DismissRequest struct {
	ActorRequestMixIn
}

type DismissResponse struct {
	ActorResponseMixIn
	Dismissed bool
}

type DisconnectRequest struct {
	ActorRequestMixIn
}

type DisconnectResponse struct {
	ActorResponseMixIn
}

// Queries

type GetDashboardStateRequest struct {
	ActorRequestMixIn
}

type GetDashboardStateResponse struct {
	ActorResponseMixIn
	State DashboardState
}

type GetSceneRequest struct {
	ActorRequestMixIn
}

type GetSceneResponse struct {
	ActorResponseMixIn
	Scene SceneView
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
