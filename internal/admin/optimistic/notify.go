package optimistic

import (
	"context"
	"errors"
	"strings"
)

// Level classifies a notice for rendering as a toast.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a transient, user-facing message produced by a panel.
type Notice struct {
	Level     Level
	Attribute string
	Message   string
}

// Notifier receives success and failure notices. Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}

// NotifierFunc adapts ordinary functions to Notifier.
type NotifierFunc func(context.Context, Notice)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, notice Notice) {
	f(ctx, notice)
}

type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, Notice) {}

// Messages used when a panel or error supplies none.
const (
	DefaultSuccessMessage = "保存しました。"
	DefaultFailureMessage = "保存に失敗しました。時間を置いて再度お試しください。"
)

// userMessager is implemented by errors that carry a message safe to show to staff.
type userMessager interface {
	UserMessage() string
}

// FailureMessage picks the server-provided message from err when present, otherwise a generic one.
func FailureMessage(err error) string {
	var um userMessager
	if errors.As(err, &um) {
		if msg := strings.TrimSpace(um.UserMessage()); msg != "" {
			return msg
		}
	}
	return DefaultFailureMessage
}
