package client

import (
	"context"
	"net/http"
	"sync"

	"github.com/Luismorlan/localsocial/server"
	"github.com/pkg/errors"
)

var ErrNotSignedIn = errors.New("no user is signed in")

// Session is the state of the signed in user. It is started on login and
// cleared on logout, and is safe for concurrent use.
type Session struct {
	client *Client

	mu      sync.Mutex
	userID  string
	profile *server.ProfileResponse
}

func NewSession(c *Client) *Session {
	return &Session{client: c}
}

func (s *Session) Client() *Client {
	return s.client
}

// Start signs in the user the client's credential authenticates and loads
// their profile. A user without a profile yet is signed in with no profile.
func (s *Session) Start(ctx context.Context) error {
	userID, err := s.client.WhoAmI(ctx)
	if err != nil {
		return err
	}
	if userID == "" {
		return ErrNotSignedIn
	}
	s.mu.Lock()
	s.userID, s.profile = userID, nil
	s.mu.Unlock()

	_, err = s.Profile(ctx, true)
	if IsStatus(err, http.StatusNotFound) {
		return nil
	}
	return err
}

// UserID is empty when nobody is signed in.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Profile returns the cached profile of the signed in user, fetching it when
// there is none or force is set.
func (s *Session) Profile(ctx context.Context, force bool) (*server.ProfileResponse, error) {
	s.mu.Lock()
	userID, cached := s.userID, s.profile
	s.mu.Unlock()
	if userID == "" {
		return nil, ErrNotSignedIn
	}
	if cached != nil && !force {
		return cached, nil
	}

	profile, err := s.client.OwnProfile(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	// Ignore the result when the user signed out meanwhile.
	if s.userID == userID {
		s.profile = profile
	}
	s.mu.Unlock()
	return profile, nil
}

// Clear signs the user out.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID, s.profile = "", nil
}
