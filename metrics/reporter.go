// Package metrics reports edge outcomes to datadog and exposes server
// collectors to prometheus.
package metrics

import (
	"github.com/DataDog/datadog-go/statsd"
	"github.com/Luismorlan/localsocial/edgesync"
	. "github.com/Luismorlan/localsocial/utils/log"
)

const (
	DDOG_EDGE_TOGGLED_COUNTER            = "localsocial.edge.toggled"
	DDOG_EDGE_CONFIRMED_COUNTER          = "localsocial.edge.confirmed"
	DDOG_EDGE_REVERTED_COUNTER           = "localsocial.edge.reverted"
	DDOG_EDGE_SIDE_EFFECT_FAILED_COUNTER = "localsocial.edge.side_effect_failed"
	DDOG_NOTIFICATION_RECEIVED           = "localsocial.notification.received"

	DefaultStatsdAddr = "127.0.0.1:8125"
)

// Counter is the part of the statsd client the reporter uses.
type Counter interface {
	Incr(name string, tags []string, rate float64) error
}

func NewDogStatsdClient(addr string) (*statsd.Client, error) {
	if addr == "" {
		addr = DefaultStatsdAddr
	}
	return statsd.New(addr)
}

// Reporter counts toggles by outcome. It implements edgesync.Reporter.
type Reporter struct {
	statsd Counter
}

func NewReporter(c Counter) *Reporter {
	return &Reporter{statsd: c}
}

func edgeTags(edge edgesync.Edge, t edgesync.Transition) []string {
	return []string{"kind:" + string(edge.Kind), "transition:" + string(t)}
}

func (r *Reporter) incr(name string, tags []string) {
	if err := r.statsd.Incr(name, tags, 1); err != nil {
		Log.Infoln("cannot report", name)
	}
}

func (r *Reporter) Toggled(edge edgesync.Edge, t edgesync.Transition) {
	r.incr(DDOG_EDGE_TOGGLED_COUNTER, edgeTags(edge, t))
}

func (r *Reporter) Confirmed(edge edgesync.Edge, t edgesync.Transition) {
	r.incr(DDOG_EDGE_CONFIRMED_COUNTER, edgeTags(edge, t))
}

func (r *Reporter) Reverted(edge edgesync.Edge, t edgesync.Transition, err error) {
	r.incr(DDOG_EDGE_REVERTED_COUNTER, edgeTags(edge, t))
}

func (r *Reporter) SideEffectFailed(edge edgesync.Edge, err error) {
	r.incr(DDOG_EDGE_SIDE_EFFECT_FAILED_COUNTER, edgeTags(edge, edgesync.TransitionAssert))
}
