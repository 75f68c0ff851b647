package server

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dotside-studios/nfc-reader-bridge/protocol"
)

// HandlerFunc handles one websocket request from a client. ctx is cancelled
// when the client disconnects. Handlers send their own replies through c and
// return an error only for logging.
type HandlerFunc func(ctx context.Context, c *Client, req protocol.Request) error

// HandlerServer lets handlers register the request types they serve.
type HandlerServer interface {
	// Handle registers a handler function for a specific request type
	Handle(requestType string, handler HandlerFunc) error
}

// ServerHandler is the interface that handlers must implement.
// Handlers call Register() to set up their routes in one place.
type ServerHandler interface {
	Register(server HandlerServer)
}

// HandlerRegistry manages websocket request handlers using a router-style approach.
// It provides thread-safe registration and retrieval of handler functions by request type.
type HandlerRegistry struct {
	handlers map[string]HandlerFunc
	mu       sync.RWMutex
}

// NewHandlerRegistry creates a new handler registry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[string]HandlerFunc),
	}
}

// Handle registers a handler function for a specific request type.
// Returns an error if a handler for the same request type is already registered.
func (r *HandlerRegistry) Handle(requestType string, handler HandlerFunc) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	if requestType == "" {
		return fmt.Errorf("request type cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[requestType]; exists {
		return fmt.Errorf("handler for request type '%s' already registered", requestType)
	}

	r.handlers[requestType] = handler
	return nil
}

// Get retrieves a handler function by request type.
// Returns the handler and true if found, nil and false otherwise.
func (r *HandlerRegistry) Get(requestType string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, ok := r.handlers[requestType]
	return handler, ok
}

// RequestTypes returns all registered request types, sorted.
func (r *HandlerRegistry) RequestTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
