package server

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dotside-studios/nfc-reader-bridge/protocol"
)

// mockHandlerFunc is a mock implementation of HandlerFunc for testing
func mockHandlerFunc(ctx context.Context, c *Client, req protocol.Request) error {
	return nil
}

func TestNewHandlerRegistry(t *testing.T) {
	registry := NewHandlerRegistry()
	if registry == nil {
		t.Fatal("NewHandlerRegistry returned nil")
	}
	if registry.handlers == nil {
		t.Fatal("handlers map not initialized")
	}
}

func TestHandlerRegistry_Handle(t *testing.T) {
	registry := NewHandlerRegistry()

	t.Run("register valid handler", func(t *testing.T) {
		if err := registry.Handle("test", mockHandlerFunc); err != nil {
			t.Fatalf("failed to register handler: %v", err)
		}
	})

	t.Run("register nil handler", func(t *testing.T) {
		if err := registry.Handle("nil", nil); err == nil {
			t.Fatal("expected error when registering nil handler")
		}
	})

	t.Run("register handler with empty request type", func(t *testing.T) {
		if err := registry.Handle("", mockHandlerFunc); err == nil {
			t.Fatal("expected error when registering handler with empty request type")
		}
	})

	t.Run("register duplicate handler", func(t *testing.T) {
		if err := registry.Handle("duplicate", mockHandlerFunc); err != nil {
			t.Fatalf("failed to register first handler: %v", err)
		}
		if err := registry.Handle("duplicate", mockHandlerFunc); err == nil {
			t.Fatal("expected error when registering duplicate handler")
		}
	})
}

func TestHandlerRegistry_Get(t *testing.T) {
	registry := NewHandlerRegistry()
	registry.Handle("test", mockHandlerFunc)

	if h, ok := registry.Get("test"); !ok || h == nil {
		t.Fatal("handler not found")
	}
	if _, ok := registry.Get("nonexistent"); ok {
		t.Fatal("expected handler not to be found")
	}
}

func TestHandlerRegistry_RequestTypes(t *testing.T) {
	registry := NewHandlerRegistry()

	if types := registry.RequestTypes(); len(types) != 0 {
		t.Fatalf("expected 0 request types, got %d", len(types))
	}

	registry.Handle(protocol.TypeListen, mockHandlerFunc)
	registry.Handle(protocol.TypeCall, mockHandlerFunc)
	registry.Handle(protocol.TypeCancel, mockHandlerFunc)

	types := registry.RequestTypes()
	want := []string{"call", "cancel", "listen"}
	if len(types) != len(want) {
		t.Fatalf("expected %d request types, got %d", len(want), len(types))
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, types)
		}
	}
}

func TestHandlerRegistry_ConcurrentAccess(t *testing.T) {
	registry := NewHandlerRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			registry.Handle("concurrent"+string(rune('a'+i)), mockHandlerFunc)
		}(i)
		go func(i int) {
			defer wg.Done()
			registry.Get("concurrent" + string(rune('a'+i)))
		}(i)
	}
	wg.Wait()

	if n := len(registry.RequestTypes()); n != 50 {
		t.Fatalf("expected 50 request types, got %d", n)
	}
}

func TestHandlerRegistry_HandleExecution(t *testing.T) {
	registry := NewHandlerRegistry()

	called := false
	registry.Handle("test", func(ctx context.Context, c *Client, req protocol.Request) error {
		called = true
		return nil
	})

	h, _ := registry.Get("test")
	if err := h(context.Background(), nil, protocol.Request{}); err != nil {
		t.Fatalf("handler execution failed: %v", err)
	}
	if !called {
		t.Fatal("handler was not called")
	}

	expectedErr := errors.New("test error")
	registry.Handle("error", func(ctx context.Context, c *Client, req protocol.Request) error {
		return expectedErr
	})

	h, _ = registry.Get("error")
	if err := h(context.Background(), nil, protocol.Request{}); err != expectedErr {
		t.Fatalf("expected error %v, got %v", expectedErr, err)
	}
}
