package services

import "context"

// Notifier is the best-effort email side channel. Implementations must be
// fire-and-forget from the caller's point of view: services log a Notify
// error and continue, never failing the primary mutation because of it.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Notification is one outbound email-shaped event.
type Notification struct {
	To      string         `json:"to"`
	Subject string         `json:"subject"`
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload,omitempty"`
}

// NopNotifier drops notifications. Used where no worker/redis is wired.
type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, n Notification) error { return nil }
