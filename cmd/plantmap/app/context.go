package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentstation/plantmap/pkg/constants"
)

// ContextWithSignals returns a context cancelled on SIGINT or SIGTERM.
func ContextWithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Context is ContextWithSignals over context.Background().
func Context() (context.Context, context.CancelFunc) {
	return ContextWithSignals(context.Background())
}

// bindCommandDeadline bounds a command's context by CommandTimeout. The
// returned cancel must run once the command finishes.
func bindCommandDeadline(cmd *cobra.Command) context.CancelFunc {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, constants.CommandTimeout)
	cmd.SetContext(ctx)
	return cancel
}
