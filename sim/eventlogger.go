package sim

import (
	"log"
	"reflect"
)

// A LogHook is a hook that is responsible for recording information from the
// simulation.
type LogHook interface {
	Hook
}

// LogHookBase provides the common logic for all LogHooks.
type LogHookBase struct {
	*log.Logger
}

// ActivityLogger is a hook that prints every activity an engine fires.
type ActivityLogger struct {
	LogHookBase
}

// NewActivityLogger returns a new ActivityLogger that writes to the logger.
func NewActivityLogger(logger *log.Logger) *ActivityLogger {
	h := new(ActivityLogger)
	h.Logger = logger
	return h
}

// Func writes the activity information into the logger.
func (h *ActivityLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeActivity {
		return
	}

	act, ok := ctx.Item.(Activity)
	if !ok {
		return
	}

	if ev, ok := act.(Event); ok && ev.DeliveryLink() != nil {
		h.Logger.Printf("%d, %s -> %s",
			act.DeliveryTime(), reflect.TypeOf(act), ev.DeliveryLink().Name())
		return
	}

	h.Logger.Printf("%d, %s", act.DeliveryTime(), reflect.TypeOf(act))
}
