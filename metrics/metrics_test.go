package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Luismorlan/localsocial/edgesync"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	names []string
	tags  [][]string
	err   error
}

func (c *fakeCounter) Incr(name string, tags []string, rate float64) error {
	c.names = append(c.names, name)
	c.tags = append(c.tags, tags)
	return c.err
}

func TestReporter(t *testing.T) {
	c := &fakeCounter{}
	r := NewReporter(c)
	edge := edgesync.Edge{Kind: edgesync.KindFollow, ActorID: "a", TargetID: "b"}

	r.Toggled(edge, edgesync.TransitionRetract)
	r.Confirmed(edge, edgesync.TransitionRetract)
	r.Reverted(edge, edgesync.TransitionAssert, errors.New("x"))
	r.SideEffectFailed(edge, errors.New("y"))

	assert.Equal(t, []string{
		DDOG_EDGE_TOGGLED_COUNTER,
		DDOG_EDGE_CONFIRMED_COUNTER,
		DDOG_EDGE_REVERTED_COUNTER,
		DDOG_EDGE_SIDE_EFFECT_FAILED_COUNTER,
	}, c.names)
	assert.Equal(t, []string{"kind:follow", "transition:retract"}, c.tags[0])

	// Reporting failures are swallowed.
	NewReporter(&fakeCounter{err: errors.New("udp")}).Toggled(edge, edgesync.TransitionAssert)
}

func TestReporterIsEdgeReporter(t *testing.T) {
	var _ edgesync.Reporter = NewReporter(&fakeCounter{})
}

type fakeHub struct {
	active    int
	published uint64
}

func (h fakeHub) ActiveCount() int       { return h.active }
func (h fakeHub) PublishedCount() uint64 { return h.published }

func TestHubCollector(t *testing.T) {
	c := NewHubCollector(fakeHub{active: 3, published: 7})
	expected := `
# HELP localsocial_realtime_active_subscriptions Number of open change feed subscriptions.
# TYPE localsocial_realtime_active_subscriptions gauge
localsocial_realtime_active_subscriptions 3
# HELP localsocial_realtime_published_events_total Number of change events published on this instance.
# TYPE localsocial_realtime_published_events_total counter
localsocial_realtime_published_events_total 7
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected)))
}

func TestHTTPMetrics(t *testing.T) {
	m := NewHTTPMetrics()
	m.Observe("POST", "/posts/:id/like", 200, 15*time.Millisecond)
	m.Observe("POST", "/posts/:id/like", 200, 5*time.Millisecond)
	m.Observe("POST", "/posts/:id/like", 404, time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requests.WithLabelValues("POST", "/posts/:id/like", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.latency))

	registry := NewRegistry(fakeHub{}, m)
	families, err := registry.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["localsocial_http_requests_total"])
	assert.True(t, names["localsocial_realtime_active_subscriptions"])
}
