package engine

import (
	"context"
	"net/http"
	"time"

	. "github.com/Luismorlan/localsocial/utils/log"
	"github.com/pkg/errors"
)

const httpShutdownTimeout = 10 * time.Second

// HTTPServerModule serves handler on addr until the engine shuts down.
type HTTPServerModule struct {
	name   string
	server *http.Server
}

func NewHTTPServerModule(name, addr string, handler http.Handler) *HTTPServerModule {
	return &HTTPServerModule{
		name:   name,
		server: &http.Server{Addr: addr, Handler: handler},
	}
}

func (m *HTTPServerModule) Name() string {
	return m.name
}

func (m *HTTPServerModule) RunModule(ctx context.Context) error {
	errs := make(chan error, 1)
	go func() {
		Log.Infof("%s listening on %s", m.name, m.server.Addr)
		errs <- m.server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		m.Shutdown()
		return nil
	}
}

// Shutdown stops accepting connections and waits for in flight requests.
// Hijacked connections such as websockets are not waited for.
func (m *HTTPServerModule) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	if err := m.server.Shutdown(ctx); err != nil {
		Log.WithError(err).Errorf("%s did not shut down cleanly", m.name)
	}
}
