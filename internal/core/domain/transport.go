package domain

// TransportEvent is anything the pub/sub transport reports back to the dashboard.
type TransportEvent interface {
	transportEvent()
}

type TransportEventMixIn struct {
}

func (TransportEventMixIn) transportEvent() {}

type Connected struct {
	TransportEventMixIn
}

type MessageReceived struct {
	TransportEventMixIn
	Topic   string
	Payload string
}

type TransportError struct {
	TransportEventMixIn
	Message string
}

type Closed struct {
	TransportEventMixIn
}

type Offline struct {
	TransportEventMixIn
	Reason string
}
