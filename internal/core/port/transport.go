package port

import "github.com/berfenger/solardash/internal/core/domain"

type TransportEmitter func(domain.TransportEvent)

// Transport is a single pub/sub connection attempt. Events are delivered through the
// emitter passed to Open, from any goroutine.
type Transport interface {
	Open(emit TransportEmitter) error
	Subscribe(topic string, done func(error))
	End(force bool)
}

type TransportFactory func() Transport
