package server

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/dotside-studios/nfc-reader-bridge/bridge"
	"github.com/dotside-studios/nfc-reader-bridge/protocol"
)

// BridgeHandler serves the method channel and event channel of a bridge.Plugin.
type BridgeHandler struct {
	plugin  *bridge.Plugin
	metrics *serverMetrics
}

// NewBridgeHandler creates a handler for plugin.
func NewBridgeHandler(plugin *bridge.Plugin, metrics *serverMetrics) *BridgeHandler {
	return &BridgeHandler{plugin: plugin, metrics: metrics}
}

// Register implements ServerHandler interface.
func (h *BridgeHandler) Register(server HandlerServer) {
	server.Handle(protocol.TypeCall, h.handleCall)
	server.Handle(protocol.TypeListen, h.handleListen)
	server.Handle(protocol.TypeCancel, h.handleCancel)
}

// handleCall dispatches a method call on its own goroutine so a later call
// (NfcStop) can overtake a pending NfcRead.
func (h *BridgeHandler) handleCall(ctx context.Context, c *Client, req protocol.Request) error {
	h.metrics.call(req.Method)

	c.Go(func(ctx context.Context) {
		reply, err := h.plugin.HandleMethodCall(ctx, bridge.MethodCall{
			Method:    req.Method,
			Arguments: req.Args,
		})

		var sendErr error
		if err != nil {
			code := callErrorCode(err)
			c.log.WithFields(log.Fields{"method": req.Method, "code": code}).WithError(err).Warn("Method call failed")
			sendErr = c.SendError(req.ID, code, err.Error())
		} else {
			sendErr = c.SendResult(req.ID, reply)
		}

		if sendErr != nil {
			c.log.WithError(sendErr).WithField("method", req.Method).Debug("Could not deliver reply")
		}
	})
	return nil
}

// handleListen makes c the receiver of tag events, replacing any previous one.
func (h *BridgeHandler) handleListen(ctx context.Context, c *Client, req protocol.Request) error {
	unlisten := h.plugin.Events().Listen(func(r bridge.Result) {
		if err := c.Push(protocol.TypeEvent, r); err != nil {
			c.log.WithError(err).Warn("Failed to push event")
		}
	})
	c.setUnlisten(unlisten)

	c.log.Info("Client listening for tag events")
	return c.SendResult(req.ID, nil)
}

// handleCancel stops delivering events to c.
func (h *BridgeHandler) handleCancel(ctx context.Context, c *Client, req protocol.Request) error {
	c.stopListening()

	c.log.Info("Client cancelled tag events")
	return c.SendResult(req.ID, nil)
}

func callErrorCode(err error) string {
	switch {
	case errors.Is(err, bridge.ErrBusy):
		return protocol.ErrCodeBusy
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return protocol.ErrCodeCanceled
	default:
		return protocol.ErrCodeCallFailed
	}
}
