package orders

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/olprint/storefront/core"
)

// Center holds the notification feed and the current toast. New entries
// are prepended; the toast slot shows the latest notification and clears
// itself after the auto-dismiss delay.
type Center struct {
	mu            sync.Mutex
	notifications []Notification
	toast         *Notification
	dismissAfter  time.Duration
	dismissTimer  *time.Timer
	logger        core.Logger
}

// NewCenter creates a notification center. dismissAfter bounds how long a
// toast stays up; zero or negative disables auto-dismiss.
func NewCenter(dismissAfter time.Duration, logger core.Logger) *Center {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	return &Center{
		dismissAfter: dismissAfter,
		logger:       logger,
	}
}

// Push adds a notification to the front of the feed and raises it as the
// current toast.
func (c *Center) Push(title, message, notifType string) Notification {
	n := Notification{
		ID:        uuid.NewString(),
		Title:     title,
		Message:   message,
		Type:      notifType,
		Timestamp: time.Now(),
	}

	c.mu.Lock()
	c.notifications = append([]Notification{n}, c.notifications...)
	c.toast = &n
	if c.dismissTimer != nil {
		c.dismissTimer.Stop()
	}
	if c.dismissAfter > 0 {
		id := n.ID
		c.dismissTimer = time.AfterFunc(c.dismissAfter, func() {
			c.dismissToastByID(id)
		})
	}
	c.mu.Unlock()

	c.logger.Info("Notification pushed", map[string]interface{}{
		"operation":       "notification_push",
		"notification_id": n.ID,
		"type":            notifType,
	})
	return n
}

// List returns the feed, newest first
func (c *Center) List() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notification, len(c.notifications))
	copy(out, c.notifications)
	return out
}

// Unread returns the number of unread notifications
func (c *Center) Unread() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for _, n := range c.notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

// MarkAllRead flags every notification as read. Read is monotonic; there
// is no way back to unread.
func (c *Center) MarkAllRead() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.notifications {
		c.notifications[i].Read = true
	}
}

// Toast returns the current toast, or nil when none is showing
func (c *Center) Toast() *Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.toast == nil {
		return nil
	}
	copied := *c.toast
	return &copied
}

// DismissToast clears the toast slot immediately
func (c *Center) DismissToast() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.toast = nil
	if c.dismissTimer != nil {
		c.dismissTimer.Stop()
		c.dismissTimer = nil
	}
}

// dismissToastByID clears the toast only if it is still the same one the
// timer was armed for; a newer toast keeps its own timer.
func (c *Center) dismissToastByID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.toast != nil && c.toast.ID == id {
		c.toast = nil
	}
}

// Close stops the pending dismiss timer
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dismissTimer != nil {
		c.dismissTimer.Stop()
		c.dismissTimer = nil
	}
}
