package edgesync

import (
	"context"
	"sync"

	. "github.com/Luismorlan/localsocial/utils/log"
	"github.com/sirupsen/logrus"
)

type Option func(*Sync)

func WithSideEffect(se SideEffect) Option {
	return func(s *Sync) { s.sideEffect = se }
}

func WithNoticer(n Noticer) Option {
	return func(s *Sync) { s.noticer = n }
}

func WithReporter(r Reporter) Option {
	return func(s *Sync) { s.reporter = r }
}

// Sync owns the displayed state of one edge. It is safe for concurrent use.
type Sync struct {
	edge       Edge
	remote     Remote
	sideEffect SideEffect
	noticer    Noticer
	reporter   Reporter

	mu        sync.Mutex
	state     State
	observers []func(State)

	// emitMu serializes observer calls so that they never see states out of
	// order.
	emitMu sync.Mutex
}

// New creates the sync for edge starting from the state last read from the
// remote.
func New(edge Edge, initial State, remote Remote, opts ...Option) *Sync {
	s := &Sync{
		edge:   edge,
		remote: remote,
		state:  State{Active: initial.Active, Count: initial.Count},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sync) Edge() Edge {
	return s.edge
}

func (s *Sync) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnChange registers an observer called after every local state change.
func (s *Sync) OnChange(f func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, f)
}

// Reconcile replaces the displayed state with a fresh remote read. It is
// ignored while writes are pending, since the read may predate them.
func (s *Sync) Reconcile(active bool, count int) bool {
	s.mu.Lock()
	if s.state.PendingWrites > 0 {
		s.mu.Unlock()
		return false
	}
	s.state.Active = active
	s.state.Count = count
	s.mu.Unlock()

	s.emit()
	return true
}

// Pending is the handle of one toggle whose remote call may still be running.
type Pending struct {
	Transition Transition
	// Optimistic is the state displayed right after the local flip.
	Optimistic State

	done chan struct{}
	err  error
}

func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the remote call resolved, returning its error. A nil error
// means the toggle is confirmed.
func (p *Pending) Wait() error {
	<-p.done
	return p.err
}

func resolved(state State, err error) *Pending {
	p := &Pending{Optimistic: state, done: make(chan struct{}), err: err}
	close(p.done)
	return p
}

// Toggle flips the edge locally and returns immediately. The remote write runs
// in the background; on failure the flip is undone and a notice is raised.
func (s *Sync) Toggle(ctx context.Context) *Pending {
	if s.edge.ActorID == "" {
		return resolved(s.State(), ErrNoActor)
	}

	s.mu.Lock()
	wasActive := s.state.Active
	transition, delta := TransitionAssert, 1
	if wasActive {
		transition, delta = TransitionRetract, -1
	}
	s.state.Active = !wasActive
	s.state.Count = clampCount(s.state.Count + delta)
	s.state.PendingWrites++
	optimistic := s.state
	s.mu.Unlock()

	s.emit()
	if s.reporter != nil {
		s.reporter.Toggled(s.edge, transition)
	}

	p := &Pending{
		Transition: transition,
		Optimistic: optimistic,
		done:       make(chan struct{}),
	}
	go s.settle(ctx, p, wasActive, delta)
	return p
}

func (s *Sync) settle(ctx context.Context, p *Pending, wasActive bool, delta int) {
	defer close(p.done)

	var err error
	if p.Transition == TransitionAssert {
		err = s.remote.Assert(ctx, s.edge)
	} else {
		err = s.remote.Retract(ctx, s.edge)
	}

	s.mu.Lock()
	s.state.PendingWrites--
	if err != nil {
		s.state.Active = wasActive
		s.state.Count = clampCount(s.state.Count - delta)
	}
	s.mu.Unlock()
	s.emit()

	logger := Log.WithFields(logrus.Fields{
		"edge":       s.edge.String(),
		"transition": p.Transition,
	})

	if err != nil {
		p.err = err
		logger.WithError(err).Warn("remote edge write failed, reverted local state")
		if s.reporter != nil {
			s.reporter.Reverted(s.edge, p.Transition, err)
		}
		if s.noticer != nil {
			s.noticer.Notice(Notice{
				Edge:       s.edge,
				Transition: p.Transition,
				Title:      noticeTitle(s.edge, p.Transition),
				Err:        err,
			})
		}
		return
	}

	if s.reporter != nil {
		s.reporter.Confirmed(s.edge, p.Transition)
	}
	if p.Transition != TransitionAssert || s.edge.SelfDirected() || s.sideEffect == nil {
		return
	}
	if err := s.sideEffect.Notify(ctx, s.edge); err != nil {
		logger.WithError(err).Error("side effect write failed, edge stays asserted")
		if s.reporter != nil {
			s.reporter.SideEffectFailed(s.edge, err)
		}
	}
}

// clampCount keeps racing reverts from displaying a negative count.
func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func (s *Sync) emit() {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	state := s.state
	observers := make([]func(State), len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, f := range observers {
		f(state)
	}
}
