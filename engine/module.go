package engine

import (
	"context"
	"time"

	. "github.com/Luismorlan/localsocial/utils/log"
)

// GracefulRetryDelay is how long a failed module waits before it restarts.
var GracefulRetryDelay = 3 * time.Second

// RunModuleWithGracefulRestart runs the module until it returns without error
// or ctx is done, restarting it after every failure.
func RunModuleWithGracefulRestart(ctx context.Context, module Module) {
	for {
		err := module.RunModule(ctx)
		if err == nil || ctx.Err() != nil {
			return
		}
		Log.WithError(err).Errorf(
			"Module %s exited with error, retry in %s",
			module.Name(),
			GracefulRetryDelay)

		// Wait for a small amount of time and restart.
		select {
		case <-ctx.Done():
			return
		case <-time.After(GracefulRetryDelay):
		}
	}
}

type Module interface {
	// RunModule contains the customized logic of the module. It takes in a
	// context object by which its lifecycle is managed. Return error if
	// encountered any error during execution.
	RunModule(ctx context.Context) error

	// Return name of the Module. Uniquely identifies the module instance.
	Name() string
}

// Shutdowner is implemented by modules holding resources that outlive
// RunModule.
type Shutdowner interface {
	Shutdown()
}
