// Package notify carries user-facing notifications out of the library store.
package notify

import (
	"log/slog"
	"sync"
)

// Kind is the severity of a notification
type Kind string

const (
	Success Kind = "success"
	Info    Kind = "info"
	Warn    Kind = "warn"
	Error   Kind = "error"
)

// Notifier receives fire-and-forget notifications
type Notifier interface {
	Notify(kind Kind, title, detail string)
}

// Func adapts a plain function to Notifier
type Func func(kind Kind, title, detail string)

// Notify calls f
func (f Func) Notify(kind Kind, title, detail string) {
	f(kind, title, detail)
}

// Discard drops every notification
var Discard Notifier = Func(func(Kind, string, string) {})

// Logger renders notifications through slog
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a Logger notifier. A nil logger uses slog.Default().
func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

// Notify logs the notification at a level matching its kind
func (l *Logger) Notify(kind Kind, title, detail string) {
	logger := l.logger
	if logger == nil {
		logger = slog.Default()
	}

	switch kind {
	case Error:
		logger.Error(title, "detail", detail)
	case Warn:
		logger.Warn(title, "detail", detail)
	default:
		logger.Info(title, "detail", detail)
	}
}

// Message is a recorded notification
type Message struct {
	Kind   Kind
	Title  string
	Detail string
}

// Recorder keeps every notification it receives
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// Notify records the notification
func (r *Recorder) Notify(kind Kind, title, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Kind: kind, Title: title, Detail: detail})
}

// Messages returns a copy of the recorded notifications
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Last returns the most recent notification
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}

// Reset forgets every recorded notification
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}
