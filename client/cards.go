package client

import (
	"github.com/Luismorlan/localsocial/edgesync"
	"github.com/Luismorlan/localsocial/server"
)

// CardOptions are handed to every edge sync a card creates.
type CardOptions struct {
	Noticer  edgesync.Noticer
	Reporter edgesync.Reporter
}

func (s *Session) syncOptions(opts CardOptions) []edgesync.Option {
	options := []edgesync.Option{edgesync.WithSideEffect(s.client.Notifier())}
	if opts.Noticer != nil {
		options = append(options, edgesync.WithNoticer(opts.Noticer))
	}
	if opts.Reporter != nil {
		options = append(options, edgesync.WithReporter(opts.Reporter))
	}
	return options
}

// PostCard is a post as the feed shows it, with its like button.
type PostCard struct {
	Post server.PostResponse
	Like *edgesync.Sync
}

// PostCard binds the like button of post to the signed in user.
func (s *Session) PostCard(post server.PostResponse, opts CardOptions) *PostCard {
	edge := edgesync.Edge{
		Kind:          edgesync.KindLike,
		ActorID:       s.UserID(),
		TargetID:      post.Id,
		TargetOwnerID: post.UserID,
	}
	initial := edgesync.State{Active: post.LikedByMe, Count: post.LikeCount}
	return &PostCard{
		Post: post,
		Like: edgesync.New(edge, initial, s.client.LikeRemote(), s.syncOptions(opts)...),
	}
}

// ProfileCard is a profile header with its follow button.
type ProfileCard struct {
	Profile server.ProfileResponse
	Follow  *edgesync.Sync
}

// ProfileCard binds the follow button of profile to the signed in user. The
// counter is the follower count of the profile.
func (s *Session) ProfileCard(profile server.ProfileResponse, opts CardOptions) *ProfileCard {
	edge := edgesync.Edge{
		Kind:          edgesync.KindFollow,
		ActorID:       s.UserID(),
		TargetID:      profile.Id,
		TargetOwnerID: profile.Id,
	}
	initial := edgesync.State{Active: profile.FollowedByMe, Count: int(profile.FollowerCount)}
	return &ProfileCard{
		Profile: profile,
		Follow:  edgesync.New(edge, initial, s.client.FollowRemote(), s.syncOptions(opts)...),
	}
}
