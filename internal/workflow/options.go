package workflow

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier surfaces user-visible alerts.
type Notifier interface {
	Alert(title, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(title, message string)

// Alert implements Notifier.
func (f NotifierFunc) Alert(title, message string) {
	f(title, message)
}

// Option configures optional behaviour for the Workflow.
type Option func(*Workflow)

// WithLogger overrides the logger used for diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Workflow) {
		w.logger = logger
	}
}

// WithNotifier sets where validation and create failures are reported to the user.
func WithNotifier(n Notifier) Option {
	return func(w *Workflow) {
		w.notifier = n
	}
}

// WithObserver registers a callback invoked after every state change. The
// callback runs outside the workflow lock and must not call Close.
func WithObserver(fn func(Snapshot)) Option {
	return func(w *Workflow) {
		w.observer = fn
	}
}

// WithTokenSource overrides how correlation tokens for optimistic entries are minted.
func WithTokenSource(fn func() string) Option {
	return func(w *Workflow) {
		w.newToken = fn
	}
}

func defaultToken() string {
	return uuid.NewString()
}
