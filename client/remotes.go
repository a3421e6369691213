package client

import (
	"context"

	"github.com/Luismorlan/localsocial/edgesync"
	"github.com/Luismorlan/localsocial/fanout"
)

// LikeRemote writes like edges through the api.
type LikeRemote struct {
	client *Client
}

func (r LikeRemote) Assert(ctx context.Context, edge edgesync.Edge) error {
	_, err := r.client.Like(ctx, edge.TargetID)
	return err
}

func (r LikeRemote) Retract(ctx context.Context, edge edgesync.Edge) error {
	return r.client.Unlike(ctx, edge.TargetID)
}

// FollowRemote writes follow edges through the api.
type FollowRemote struct {
	client *Client
}

func (r FollowRemote) Assert(ctx context.Context, edge edgesync.Edge) error {
	return r.client.Follow(ctx, edge.TargetID)
}

func (r FollowRemote) Retract(ctx context.Context, edge edgesync.Edge) error {
	return r.client.Unfollow(ctx, edge.TargetID)
}

func (c *Client) LikeRemote() LikeRemote {
	return LikeRemote{client: c}
}

func (c *Client) FollowRemote() FollowRemote {
	return FollowRemote{client: c}
}

// Notifier writes the notification of a confirmed edge through the api.
func (c *Client) Notifier() *fanout.Notifier {
	return fanout.NewNotifier(c)
}
