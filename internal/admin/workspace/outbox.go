package workspace

import (
	"context"
	"sync"

	"finitefield.org/recruit-admin/internal/admin/optimistic"
)

const maxQueuedNotices = 20

// Outbox queues panel notices per session until the next response drains them
// into a toast.
type Outbox struct {
	mu     sync.Mutex
	queues map[string][]optimistic.Notice
}

// NewOutbox constructs an empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{queues: make(map[string][]optimistic.Notice)}
}

// For returns a Notifier that enqueues into the session's queue.
func (o *Outbox) For(sessionID string) optimistic.Notifier {
	return optimistic.NotifierFunc(func(_ context.Context, notice optimistic.Notice) {
		o.push(sessionID, notice)
	})
}

func (o *Outbox) push(sessionID string, notice optimistic.Notice) {
	o.mu.Lock()
	defer o.mu.Unlock()
	queue := append(o.queues[sessionID], notice)
	if len(queue) > maxQueuedNotices {
		queue = queue[len(queue)-maxQueuedNotices:]
	}
	o.queues[sessionID] = queue
}

// Drain removes and returns the session's queued notices, oldest first.
func (o *Outbox) Drain(sessionID string) []optimistic.Notice {
	o.mu.Lock()
	defer o.mu.Unlock()
	queue := o.queues[sessionID]
	delete(o.queues, sessionID)
	return queue
}

// Discard drops the session's queue.
func (o *Outbox) Discard(sessionID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.queues, sessionID)
}
