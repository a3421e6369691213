// Package engine runs the long lived modules of a process and shuts them down
// together.
package engine

import (
	"context"
	"sync"

	"github.com/Luismorlan/localsocial/realtime"
	. "github.com/Luismorlan/localsocial/utils/log"
)

// Engine manages shared resources and execution lifecycle of each module.
type Engine struct {
	// A list of modules that will be run in this Engine. Module's lifetime is
	// bound to Engine's lifetime. Each Module will be ran in a separate routine.
	Modules []Module

	// Root this engine is running on
	ctx context.Context

	// Cancel function for root context, used for graceful shutdown
	cancel context.CancelFunc

	// Hub is the change event bus shared by the modules, it is closed on
	// shutdown. May be nil.
	Hub *realtime.Hub
}

func NewEngine(ms []Module, ctx context.Context, cancel context.CancelFunc, hub *realtime.Hub) *Engine {
	return &Engine{
		Modules: ms,
		ctx:     ctx,
		cancel:  cancel,
		Hub:     hub,
	}
}

// Execute all Engine modules and wait untils all modules to finish execution.
func (e *Engine) Run() {
	var wg sync.WaitGroup

	for idx := range e.Modules {
		wg.Add(1)
		go func(m Module) {
			Log.Infof("start engine module %s", m.Name())
			defer wg.Done()
			RunModuleWithGracefulRestart(e.ctx, m)
			Log.Infof("Module %s finished execution.", m.Name())
		}(e.Modules[idx])
	}

	// Block until all goroutine finished execution.
	wg.Wait()
}

func (e *Engine) Shutdown() {
	Log.Infoln("Starting graceful shutdown process. Goodbye!")
	e.cancel()

	var wg sync.WaitGroup
	for idx := range e.Modules {
		s, ok := e.Modules[idx].(Shutdowner)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(name string, s Shutdowner) {
			defer wg.Done()
			Log.Infof("shutdown engine module %s", name)
			s.Shutdown()
			Log.Infof("Module %s shut down.", name)
		}(e.Modules[idx].Name(), s)
	}

	// Block until all goroutine finished execution.
	wg.Wait()

	if e.Hub != nil {
		if err := e.Hub.Close(); err != nil {
			Log.WithError(err).Error("failed to close realtime hub")
		}
	}
}
