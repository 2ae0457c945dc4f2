package sigctx

import (
	"context"
	"os/signal"
	"syscall"
)

// NotifyContext is done on the first termination signal or when parent is
// done, whichever comes first.
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
}
