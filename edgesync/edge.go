// Package edgesync keeps a boolean social edge (a like, a follow) and its
// counter responsive on the client while the remote write is in flight.
//
// A toggle is applied locally first, then confirmed or reverted by the remote
// call. Toggles are not serialized against each other: two toggles fired
// before either resolves race, and a revert only undoes the delta of its own
// toggle.
package edgesync

import (
	"context"
	"errors"
	"fmt"
)

var ErrNoActor = errors.New("edge has no actor, user is not signed in")

type Kind string

const (
	KindLike   Kind = "like"
	KindFollow Kind = "follow"
)

func (k Kind) IsValid() bool {
	return k == KindLike || k == KindFollow
}

// Edge identifies a directed relation from ActorID to TargetID. TargetOwnerID
// is the party affected by the edge: the post author for a like, the followed
// profile for a follow.
type Edge struct {
	Kind          Kind
	ActorID       string
	TargetID      string
	TargetOwnerID string
}

// SelfDirected is true when the actor acts on something they own.
func (e Edge) SelfDirected() bool {
	return e.ActorID == e.TargetOwnerID
}

func (e Edge) String() string {
	return fmt.Sprintf("%s(%s->%s)", e.Kind, e.ActorID, e.TargetID)
}

type Transition string

const (
	TransitionAssert  Transition = "assert"
	TransitionRetract Transition = "retract"
)

// Remote is the system of record for edges.
type Remote interface {
	Assert(ctx context.Context, edge Edge) error
	Retract(ctx context.Context, edge Edge) error
}

// SideEffect is the secondary write issued after a confirmed assert, addressed
// to the target owner. It is never issued for self-directed edges.
type SideEffect interface {
	Notify(ctx context.Context, edge Edge) error
}

// Notice is a transient, user-facing message about a reverted toggle.
type Notice struct {
	Edge       Edge
	Transition Transition
	Title      string
	Err        error
}

type Noticer interface {
	Notice(n Notice)
}

// Reporter receives the outcome of every toggle, for monitoring.
type Reporter interface {
	Toggled(edge Edge, t Transition)
	Confirmed(edge Edge, t Transition)
	Reverted(edge Edge, t Transition, err error)
	SideEffectFailed(edge Edge, err error)
}

// State is what the interface displays for an edge.
type State struct {
	Active        bool
	Count         int
	PendingWrites int
}

// PendingWrite is true while at least one remote call is unresolved.
func (s State) PendingWrite() bool {
	return s.PendingWrites > 0
}

func noticeTitle(edge Edge, t Transition) string {
	switch {
	case edge.Kind == KindLike && t == TransitionAssert:
		return "Could not like the post"
	case edge.Kind == KindLike:
		return "Could not unlike the post"
	case t == TransitionAssert:
		return "Could not follow the profile"
	}
	return "Could not unfollow the profile"
}
