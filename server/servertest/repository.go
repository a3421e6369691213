// Package servertest provides an in-memory repository with the error
// semantics of store.Store, for tests of the api and its clients.
package servertest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Luismorlan/localsocial/fanout"
	"github.com/Luismorlan/localsocial/model"
	"github.com/Luismorlan/localsocial/store"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Repository keeps the social graph in memory.
type Repository struct {
	mu sync.Mutex

	profiles      map[string]*model.Profile
	posts         map[string]*model.Post
	likes         map[string]map[string]bool
	follows       map[string]map[string]bool
	comments      map[string]*model.Comment
	notifications []*model.Notification
	conversations map[string]*model.Conversation
	messages      []*model.Message
	feedback      []*model.Feedback

	// failWith makes every call fail with the error.
	failWith error
}

func NewRepository() *Repository {
	return &Repository{
		profiles:      map[string]*model.Profile{},
		posts:         map[string]*model.Post{},
		likes:         map[string]map[string]bool{},
		follows:       map[string]map[string]bool{},
		comments:      map[string]*model.Comment{},
		conversations: map[string]*model.Conversation{},
	}
}

func (r *Repository) AddProfile(id, username string, private bool) *model.Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := &model.Profile{Id: id, Username: username, IsPrivate: private, CreatedAt: time.Now()}
	r.profiles[id] = p
	return p
}

func (r *Repository) AddPost(id, userID, content string) *model.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := &model.Post{Id: id, UserID: userID, Content: content, CreatedAt: time.Now()}
	r.posts[id] = p
	return p
}

// FailWith makes every following call fail with err until it is called with
// nil.
func (r *Repository) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWith = err
}

// Feedback returns the stored feedback.
func (r *Repository) Feedback() []*model.Feedback {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.Feedback(nil), r.feedback...)
}

func (r *Repository) lock() (func(), error) {
	r.mu.Lock()
	return r.mu.Unlock, r.failWith
}

func (r *Repository) AddLike(ctx context.Context, userID, postID string) (*model.Post, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	post, ok := r.posts[postID]
	if !ok {
		return nil, errors.Wrap(store.ErrNotFound, "post "+postID)
	}
	if r.likes[postID] == nil {
		r.likes[postID] = map[string]bool{}
	}
	r.likes[postID][userID] = true
	cp := *post
	return &cp, nil
}

func (r *Repository) RemoveLike(ctx context.Context, userID, postID string) error {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return err
	}
	delete(r.likes[postID], userID)
	return nil
}

func (r *Repository) LikesForPost(ctx context.Context, postID string) ([]model.Like, error) {
	unlock, err := r.lock()
	defer unlock()
	return r.likesOf(postID), err
}

func (r *Repository) likesOf(postID string) []model.Like {
	likes := []model.Like{}
	for userID := range r.likes[postID] {
		likes = append(likes, model.Like{PostID: postID, UserID: userID})
	}
	return likes
}

func (r *Repository) Follow(ctx context.Context, followerID, followingID string) error {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return err
	}
	if followerID == followingID {
		return errors.Wrap(store.ErrInvalidInput, "cannot follow itself")
	}
	if _, ok := r.profiles[followingID]; !ok {
		return errors.Wrap(store.ErrNotFound, "profile "+followingID)
	}
	if r.follows[followerID] == nil {
		r.follows[followerID] = map[string]bool{}
	}
	r.follows[followerID][followingID] = true
	return nil
}

func (r *Repository) Unfollow(ctx context.Context, followerID, followingID string) error {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return err
	}
	delete(r.follows[followerID], followingID)
	return nil
}

func (r *Repository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	unlock, err := r.lock()
	defer unlock()
	return r.follows[followerID][followingID], err
}

func (r *Repository) Followers(ctx context.Context, profileID string) ([]model.Profile, error) {
	unlock, err := r.lock()
	defer unlock()
	var profiles []model.Profile
	for follower, following := range r.follows {
		if following[profileID] {
			profiles = append(profiles, *r.profiles[follower])
		}
	}
	return profiles, err
}

func (r *Repository) Following(ctx context.Context, profileID string) ([]model.Profile, error) {
	unlock, err := r.lock()
	defer unlock()
	var profiles []model.Profile
	for id := range r.follows[profileID] {
		profiles = append(profiles, *r.profiles[id])
	}
	return profiles, err
}

func (r *Repository) FollowCounts(ctx context.Context, profileID string) (int64, int64, error) {
	unlock, err := r.lock()
	defer unlock()
	var followers int64
	for _, following := range r.follows {
		if following[profileID] {
			followers++
		}
	}
	return followers, int64(len(r.follows[profileID])), err
}

func (r *Repository) UpsertProfile(ctx context.Context, p *model.Profile) error {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return err
	}
	if p.Id == "" || strings.TrimSpace(p.Username) == "" {
		return errors.Wrap(store.ErrInvalidInput, "profile needs an id and a username")
	}
	cp := *p
	r.profiles[p.Id] = &cp
	return nil
}

func (r *Repository) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	p, ok := r.profiles[id]
	if !ok {
		return nil, errors.Wrap(store.ErrNotFound, "profile "+id)
	}
	cp := *p
	return &cp, nil
}

func (r *Repository) GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	for _, p := range r.profiles {
		if p.Username == username {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errors.Wrap(store.ErrNotFound, "profile "+username)
}

func (r *Repository) CanView(ctx context.Context, viewerID string, profile *model.Profile) (bool, error) {
	unlock, err := r.lock()
	defer unlock()
	if !profile.IsPrivate || viewerID == profile.Id {
		return true, err
	}
	return r.follows[viewerID][profile.Id], err
}

func (r *Repository) CreatePost(ctx context.Context, userID, content string, media []model.Media, checkInLocationID *string) (*model.Post, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" && len(media) == 0 {
		return nil, errors.Wrap(store.ErrInvalidInput, "post needs content or media")
	}
	post := &model.Post{Id: uuid.New().String(), UserID: userID, Content: content, CreatedAt: time.Now(), CheckInLocationID: checkInLocationID}
	if err := post.SetMedia(media); err != nil {
		return nil, errors.Wrap(store.ErrInvalidInput, err.Error())
	}
	r.posts[post.Id] = post
	cp := *post
	return &cp, nil
}

func (r *Repository) DeletePost(ctx context.Context, id, userID string) ([]model.Media, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	post, ok := r.posts[id]
	if !ok {
		return nil, errors.Wrap(store.ErrNotFound, "post "+id)
	}
	if post.UserID != userID {
		return nil, errors.Wrap(store.ErrForbidden, "only the author can delete a post")
	}
	delete(r.posts, id)
	media, _ := post.Media()
	var stored []model.Media
	for _, m := range media {
		if m.Type.IsStored() {
			stored = append(stored, m)
		}
	}
	return stored, nil
}

func (r *Repository) GetPost(ctx context.Context, id string) (*model.Post, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	post, ok := r.posts[id]
	if !ok {
		return nil, errors.Wrap(store.ErrNotFound, "post "+id)
	}
	cp := *post
	cp.Likes = r.likesOf(id)
	return &cp, nil
}

func (r *Repository) ListPosts(ctx context.Context, q store.FeedQuery) ([]model.Post, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	var posts []model.Post
	for _, p := range r.posts {
		author := r.profiles[p.UserID]
		visible := p.UserID == q.ViewerID || r.follows[q.ViewerID][p.UserID] ||
			(author != nil && !author.IsPrivate && !q.FollowingOnly)
		if !visible || (q.AuthorID != "" && p.UserID != q.AuthorID) {
			continue
		}
		if q.Before != nil && !p.CreatedAt.Before(*q.Before) {
			continue
		}
		cp := *p
		cp.Likes = r.likesOf(p.Id)
		posts = append(posts, cp)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	if q.Limit > 0 && len(posts) > q.Limit {
		posts = posts[:q.Limit]
	}
	return posts, nil
}

func (r *Repository) AddComment(ctx context.Context, postID, userID, content string, parentID *string) (*model.Comment, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	post, ok := r.posts[postID]
	if !ok {
		return nil, errors.Wrap(store.ErrNotFound, "post "+postID)
	}
	var parent *model.Comment
	if parentID != nil {
		if parent, ok = r.comments[*parentID]; !ok {
			return nil, errors.Wrap(store.ErrNotFound, "comment "+*parentID)
		}
	}
	comment := &model.Comment{Id: uuid.New().String(), PostID: postID, UserID: userID, Content: content, ParentCommentID: parentID, CreatedAt: time.Now()}
	r.comments[comment.Id] = comment
	if n, ok := fanout.ForComment(post, comment, parent); ok {
		r.notifications = append(r.notifications, n)
	}
	cp := *comment
	return &cp, nil
}

func (r *Repository) DeleteComment(ctx context.Context, id, userID string) error {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return err
	}
	comment, ok := r.comments[id]
	if !ok {
		return errors.Wrap(store.ErrNotFound, "comment "+id)
	}
	if comment.UserID != userID {
		return errors.Wrap(store.ErrForbidden, "only the author can delete a comment")
	}
	delete(r.comments, id)
	return nil
}

func (r *Repository) ListComments(ctx context.Context, postID string) ([]model.Comment, error) {
	unlock, err := r.lock()
	defer unlock()
	var comments []model.Comment
	for _, c := range r.comments {
		if c.PostID == postID {
			comments = append(comments, *c)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].CreatedAt.Before(comments[j].CreatedAt) })
	return comments, err
}

func (r *Repository) CreateNotification(ctx context.Context, n *model.Notification) error {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return err
	}
	if n.UserID == "" || n.ActorID == "" || !n.Type.IsValid() {
		return errors.Wrap(store.ErrInvalidInput, "bad notification")
	}
	if n.Id == "" {
		n.Id = uuid.New().String()
	}
	n.CreatedAt = time.Now()
	cp := *n
	r.notifications = append(r.notifications, &cp)
	return nil
}

func (r *Repository) ListNotifications(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	unlock, err := r.lock()
	defer unlock()
	var out []model.Notification
	for i := len(r.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if n := r.notifications[i]; n.UserID == userID {
			cp := *n
			cp.Actor = r.profiles[n.ActorID]
			out = append(out, cp)
		}
	}
	return out, err
}

func (r *Repository) MarkNotificationRead(ctx context.Context, id, userID string) error {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return err
	}
	for _, n := range r.notifications {
		if n.Id != id {
			continue
		}
		if n.UserID != userID {
			return errors.Wrap(store.ErrForbidden, "not the recipient")
		}
		n.Read = true
		return nil
	}
	return errors.Wrap(store.ErrNotFound, "notification "+id)
}

func (r *Repository) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	unlock, err := r.lock()
	defer unlock()
	for _, n := range r.notifications {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return err
}

func (r *Repository) UnreadCount(ctx context.Context, userID string) (int64, error) {
	unlock, err := r.lock()
	defer unlock()
	var count int64
	for _, n := range r.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, err
}

func (r *Repository) FindOrCreateConversation(ctx context.Context, a, b string) (*model.Conversation, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	if a == b {
		return nil, errors.Wrap(store.ErrInvalidInput, "conversation needs two participants")
	}
	if _, ok := r.profiles[b]; !ok {
		return nil, errors.Wrap(store.ErrNotFound, "profile "+b)
	}
	for _, c := range r.conversations {
		if (c.ParticipantOne == a && c.ParticipantTwo == b) || (c.ParticipantOne == b && c.ParticipantTwo == a) {
			cp := *c
			return &cp, nil
		}
	}
	c := &model.Conversation{Id: uuid.New().String(), ParticipantOne: a, ParticipantTwo: b, CreatedAt: time.Now()}
	r.conversations[c.Id] = c
	cp := *c
	return &cp, nil
}

func (r *Repository) GetConversation(ctx context.Context, id, userID string) (*model.Conversation, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	return r.conversation(id, userID)
}

func (r *Repository) conversation(id, userID string) (*model.Conversation, error) {
	c, ok := r.conversations[id]
	if !ok {
		return nil, errors.Wrap(store.ErrNotFound, "conversation "+id)
	}
	if !c.HasParticipant(userID) {
		return nil, errors.Wrap(store.ErrForbidden, "not a participant")
	}
	cp := *c
	cp.ParticipantOneProfile = r.profiles[c.ParticipantOne]
	cp.ParticipantTwoProfile = r.profiles[c.ParticipantTwo]
	return &cp, nil
}

func (r *Repository) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	unlock, err := r.lock()
	defer unlock()
	var convs []model.Conversation
	for id, c := range r.conversations {
		if c.HasParticipant(userID) {
			conv, _ := r.conversation(id, userID)
			convs = append(convs, *conv)
		}
	}
	return convs, err
}

func (r *Repository) SendMessage(ctx context.Context, conversationID, senderID, content string) (*model.Message, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	conv, err := r.conversation(conversationID, senderID)
	if err != nil {
		return nil, err
	}
	msg := &model.Message{Id: uuid.New().String(), ConversationID: conversationID, SenderID: senderID, Content: strings.TrimSpace(content), CreatedAt: time.Now()}
	r.messages = append(r.messages, msg)
	if n, ok := fanout.ForMessage(senderID, conv); ok {
		r.notifications = append(r.notifications, n)
	}
	cp := *msg
	return &cp, nil
}

func (r *Repository) ListMessages(ctx context.Context, conversationID, userID string) ([]model.Message, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	if _, err := r.conversation(conversationID, userID); err != nil {
		return nil, err
	}
	var out []model.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *Repository) CreateFeedback(ctx context.Context, f *model.Feedback) error {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return err
	}
	if !f.Type.IsValid() {
		return errors.Wrap(store.ErrInvalidInput, "unknown feedback type")
	}
	f.Id = uuid.New().String()
	r.feedback = append(r.feedback, f)
	return nil
}
