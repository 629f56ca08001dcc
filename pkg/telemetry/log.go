package telemetry

import (
	"log/slog"

	"github.com/vango-dev/hookbind/pkg/hook"
)

// LogObserver is a hook.Observer writing an slog trail of engine activity.
// Writes, bindings and destructions are logged at debug level; failed
// emissions at error level.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates a LogObserver. A nil logger uses hook.Logger().
func NewLogObserver(logger *slog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) log() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return hook.Logger()
}

// OnWrite implements hook.Observer.
func (o *LogObserver) OnWrite(ev hook.WriteEvent) func() {
	o.log().Debug("hookbind write",
		"store", ev.Store,
		"key", ev.Key,
		"op", ev.Op.String(),
		"subscribers", ev.Subscribers,
	)
	return nil
}

// OnEmit implements hook.Observer.
func (o *LogObserver) OnEmit(ev hook.EmitEvent) {
	if ev.Err != nil {
		o.log().Error("hookbind emit failed",
			"store", ev.Store,
			"binding", ev.BindingID,
			"kind", ev.Kind.String(),
			"error", ev.Err,
		)
		return
	}
	if ev.Skipped {
		o.log().Debug("hookbind emit skipped",
			"store", ev.Store,
			"binding", ev.BindingID,
			"kind", ev.Kind.String(),
		)
	}
}

// OnBind implements hook.Observer.
func (o *LogObserver) OnBind(ev hook.BindEvent) {
	o.log().Debug("hookbind bind",
		"store", ev.Store,
		"binding", ev.BindingID,
		"kind", ev.Kind.String(),
		"keys", ev.Keys,
	)
}

// OnDestroy implements hook.Observer.
func (o *LogObserver) OnDestroy(ev hook.DestroyEvent) {
	o.log().Debug("hookbind destroy",
		"store", ev.Store,
		"binding", ev.BindingID,
		"kind", ev.Kind.String(),
		"reason", ev.Reason.String(),
	)
}
