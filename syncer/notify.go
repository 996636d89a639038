package syncer

import (
	"github.com/rs/zerolog"
)

// Level is the importance of a Notice.
type Level int

const (
	Info Level = iota
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Info:
		return "info"
	case Warning:
		return "warning"
	default:
		return "error"
	}
}

// Notice is a message meant for the user, the equivalent of a toast.
type Notice struct {
	Level   Level
	Message string
	Err     error
}

// Notifier receives the notices of an Orchestrator.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to a Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// LogNotifier writes notices to a logger.
type LogNotifier struct{ Log zerolog.Logger }

func (l LogNotifier) Notify(n Notice) {
	var ev *zerolog.Event
	switch n.Level {
	case Info:
		ev = l.Log.Info()
	case Warning:
		ev = l.Log.Warn()
	default:
		ev = l.Log.Error()
	}
	ev.Err(n.Err).Msg(n.Message)
}
