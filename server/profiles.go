package server

import (
	"net/http"

	"github.com/Luismorlan/localsocial/model"
	"github.com/Luismorlan/localsocial/server/middlewares"
	"github.com/Luismorlan/localsocial/store"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gorm.io/datatypes"
)

type profileInput struct {
	Username    string         `json:"username" binding:"required"`
	FullName    string         `json:"full_name"`
	AvatarUrl   string         `json:"avatar_url"`
	Bio         string         `json:"bio"`
	IsPrivate   bool           `json:"is_private"`
	SocialLinks datatypes.JSON `json:"social_links"`
}

// profileResponse decorates a profile with its counters and the relation of
// the viewer to it.
func (s *Server) profileResponse(c *gin.Context, p *model.Profile) (*ProfileResponse, error) {
	ctx := c.Request.Context()
	resp := toProfileResponse(p)
	followers, following, err := s.repo.FollowCounts(ctx, p.Id)
	if err != nil {
		return nil, err
	}
	resp.FollowerCount, resp.FollowingCount = followers, following

	viewer := middlewares.UserID(c)
	if viewer != "" && viewer != p.Id {
		if resp.FollowedByMe, err = s.repo.IsFollowing(ctx, viewer, p.Id); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// whoAmI reports the user the request authenticated as, which exists before
// the user has a profile.
func (s *Server) whoAmI(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user_id": middlewares.UserID(c)})
}

func (s *Server) getOwnProfile(c *gin.Context) {
	p, err := s.repo.GetProfile(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	resp, err := s.profileResponse(c, p)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) putOwnProfile(c *gin.Context) {
	var input profileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	p := &model.Profile{
		Id:          middlewares.UserID(c),
		Username:    input.Username,
		FullName:    input.FullName,
		AvatarUrl:   input.AvatarUrl,
		Bio:         input.Bio,
		IsPrivate:   input.IsPrivate,
		SocialLinks: input.SocialLinks,
	}
	if err := s.repo.UpsertProfile(c.Request.Context(), p); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProfileResponse(p))
}

// lookupProfile resolves the :id path parameter, which may be a username or a
// profile id.
func (s *Server) lookupProfile(c *gin.Context) (*model.Profile, error) {
	ref := c.Param("id")
	p, err := s.repo.GetProfileByUsername(c.Request.Context(), ref)
	if errors.Is(err, store.ErrNotFound) {
		return s.repo.GetProfile(c.Request.Context(), ref)
	}
	return p, err
}

func (s *Server) getProfile(c *gin.Context) {
	p, err := s.lookupProfile(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	resp, err := s.profileResponse(c, p)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listFollowers(c *gin.Context) {
	profiles, err := s.repo.Followers(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(profiles, func(p model.Profile, _ int) *ProfileResponse {
		return toProfileResponse(&p)
	}))
}

func (s *Server) listFollowing(c *gin.Context) {
	profiles, err := s.repo.Following(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(profiles, func(p model.Profile, _ int) *ProfileResponse {
		return toProfileResponse(&p)
	}))
}

func (s *Server) listProfilePosts(c *gin.Context) {
	p, err := s.lookupProfile(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	viewer := middlewares.UserID(c)
	ok, err := s.repo.CanView(c.Request.Context(), viewer, p)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if !ok {
		abortWithError(c, errors.Wrap(store.ErrForbidden, "profile is private"))
		return
	}
	posts, err := s.repo.ListPosts(c.Request.Context(), store.FeedQuery{
		ViewerID: viewer,
		AuthorID: p.Id,
		Limit:    s.setting.FEED_PAGE_SIZE,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.postResponses(posts, viewer))
}

func (s *Server) follow(c *gin.Context) {
	target := c.Param("id")
	if err := s.repo.Follow(c.Request.Context(), middlewares.UserID(c), target); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following_id": target, "following": true})
}

func (s *Server) unfollow(c *gin.Context) {
	target := c.Param("id")
	if err := s.repo.Unfollow(c.Request.Context(), middlewares.UserID(c), target); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following_id": target, "following": false})
}
