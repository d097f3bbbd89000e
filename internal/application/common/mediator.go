package common

import (
	"context"
	"fmt"
	"reflect"
)

// Request is a command or query routed through the mediator.
type Request interface{}

// Response is whatever the handler returns for its request.
type Response interface{}

// RequestHandler handles one request type.
type RequestHandler interface {
	Handle(ctx context.Context, request Request) (Response, error)
}

// Mediator routes each request to the handler registered for its
// concrete type. Handlers are wired with RegisterHandler.
type Mediator interface {
	Send(ctx context.Context, request Request) (Response, error)

	register(requestType reflect.Type, handler RequestHandler) error
}

type mediator struct {
	handlers map[reflect.Type]RequestHandler
}

// NewMediator returns a mediator with no handlers registered.
func NewMediator() Mediator {
	return &mediator{handlers: make(map[reflect.Type]RequestHandler)}
}

func (m *mediator) Send(ctx context.Context, request Request) (Response, error) {
	if request == nil {
		return nil, fmt.Errorf("nil request")
	}
	handler, ok := m.handlers[reflect.TypeOf(request)]
	if !ok {
		return nil, fmt.Errorf("no handler registered for %T", request)
	}
	return handler.Handle(ctx, request)
}

func (m *mediator) register(requestType reflect.Type, handler RequestHandler) error {
	if handler == nil {
		return fmt.Errorf("nil handler for %s", requestType)
	}
	if _, exists := m.handlers[requestType]; exists {
		return fmt.Errorf("handler already registered for %s", requestType)
	}
	m.handlers[requestType] = handler
	return nil
}

// RegisterHandler binds handler to the request type T. Registering a
// second handler for the same type is an error.
func RegisterHandler[T Request](m Mediator, handler RequestHandler) error {
	var zero T
	return m.register(reflect.TypeOf(zero), handler)
}
