package store

import (
	"log/slog"
)

// Notification is a user-visible, non-fatal report of a failed action.
type Notification struct {
	Op      string
	OwnerID string
	Message string
	Err     error
}

type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

// LogNotifier reports notifications through slog. It is the default when no
// notifier is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notification) {
	slog.Warn("goal action failed",
		"op", n.Op,
		"owner_id", n.OwnerID,
		"message", n.Message,
		"error", n.Err,
	)
}
