package status

import (
	"sync"

	"easysave/internal/model"
)

// Channel is a single-slot, last-write-wins store of the most recent
// operation status. It is not a queue; presentation reads the current
// value at any time.
type Channel struct {
	mu        sync.RWMutex
	current   model.OperationStatus
	published bool
	onPublish func(model.OperationStatus)
}

// NewChannel returns an empty channel.
func NewChannel() *Channel {
	return &Channel{}
}

// OnPublish registers an observer invoked synchronously on every
// publish, in publish order.
func (c *Channel) OnPublish(fn func(model.OperationStatus)) {
	c.mu.Lock()
	c.onPublish = fn
	c.mu.Unlock()
}

// Publish overwrites the current status.
func (c *Channel) Publish(s model.OperationStatus) {
	c.mu.Lock()
	c.current = s
	c.published = true
	observer := c.onPublish
	c.mu.Unlock()

	if observer != nil {
		observer(s)
	}
}

// Current returns the latest published status, if any.
func (c *Channel) Current() (model.OperationStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, c.published
}
