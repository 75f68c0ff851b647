package bridge

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventSink receives records pushed on the event channel.
type EventSink func(Result)

// EventChannel is the single subscription point for tag events. At most one
// sink is registered; publishing without a sink drops the record.
type EventChannel struct {
	mu         sync.Mutex
	sink       EventSink
	generation uint64
	metrics    *Metrics
	log        *log.Entry
}

// NewEventChannel creates an event channel with no listener.
func NewEventChannel(metrics *Metrics) *EventChannel {
	return &EventChannel{
		metrics: metrics,
		log:     log.WithField("component", "events"),
	}
}

// Listen registers sink as the only receiver, replacing any previous one.
// The returned cancel function deregisters sink only if it is still the
// registered receiver, so a stale listener cannot cancel its successor.
func (c *EventChannel) Listen(sink EventSink) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sink != nil {
		c.log.Debug("Replacing event listener")
	}
	c.generation++
	c.sink = sink
	gen := c.generation

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.generation == gen {
			c.sink = nil
		}
	}
}

// Cancel deregisters the current listener, if any.
func (c *EventChannel) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = nil
}

// Active reports whether a listener is registered.
func (c *EventChannel) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sink != nil
}

// Publish delivers r to the current listener. It reports false when the record
// was dropped because nobody is listening. The sink runs outside the lock.
func (c *EventChannel) Publish(r Result) bool {
	c.mu.Lock()
	sink := c.sink
	c.mu.Unlock()

	if sink == nil {
		c.metrics.eventDropped()
		return false
	}
	sink(r)
	return true
}
