package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Luismorlan/localsocial/media"
	"github.com/Luismorlan/localsocial/model"
	"github.com/Luismorlan/localsocial/server/middlewares"
	"github.com/Luismorlan/localsocial/store"
	. "github.com/Luismorlan/localsocial/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

type postInput struct {
	Content           string        `json:"content"`
	Media             []model.Media `json:"media"`
	CheckInLocationID *string       `json:"check_in_location_id"`
}

type commentInput struct {
	Content         string  `json:"content" binding:"required"`
	ParentCommentID *string `json:"parent_comment_id"`
}

func (s *Server) postResponses(posts []model.Post, viewer string) []PostResponse {
	return lo.Map(posts, func(p model.Post, _ int) PostResponse {
		return toPostResponse(&p, viewer)
	})
}

func (s *Server) listPosts(c *gin.Context) {
	q := store.FeedQuery{
		ViewerID:      middlewares.UserID(c),
		FollowingOnly: c.Query("following") == "true",
		Limit:         s.setting.FEED_PAGE_SIZE,
	}
	if before := c.Query("before"); before != "" {
		t, err := time.Parse(time.RFC3339Nano, before)
		if err != nil {
			badRequest(c, "before must be an RFC3339 timestamp")
			return
		}
		q.Before = &t
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		q.Limit = n
	}

	posts, err := s.repo.ListPosts(c.Request.Context(), q)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.postResponses(posts, q.ViewerID))
}

func (s *Server) createPost(c *gin.Context) {
	var input postInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	post, err := s.repo.CreatePost(c.Request.Context(), middlewares.UserID(c), input.Content, input.Media, input.CheckInLocationID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPostResponse(post, middlewares.UserID(c)))
}

// visiblePost loads the post behind the id param and checks the viewer may
// see its author. It aborts the request and returns false otherwise.
func (s *Server) visiblePost(c *gin.Context) (*model.Post, bool) {
	ctx := c.Request.Context()
	post, err := s.repo.GetPost(ctx, c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	author := post.Profile
	if author == nil {
		if author, err = s.repo.GetProfile(ctx, post.UserID); err != nil {
			abortWithError(c, err)
			return nil, false
		}
	}
	ok, err := s.repo.CanView(ctx, middlewares.UserID(c), author)
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	if !ok {
		abortWithError(c, errors.Wrap(store.ErrForbidden, "profile is private"))
		return nil, false
	}
	return post, true
}

func (s *Server) getPost(c *gin.Context) {
	post, ok := s.visiblePost(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toPostResponse(post, middlewares.UserID(c)))
}

// deletePost removes the post, then its stored media. Media removal is best
// effort.
func (s *Server) deletePost(c *gin.Context) {
	id := c.Param("id")
	stored, err := s.repo.DeletePost(c.Request.Context(), id, middlewares.UserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	keys := lo.FilterMap(stored, func(m model.Media, _ int) (string, bool) {
		return s.files.KeyFromURL(media.BucketPostImages, m.URL)
	})
	if len(keys) > 0 {
		if err := s.files.Remove(c.Request.Context(), media.BucketPostImages, keys...); err != nil {
			Log.WithError(err).Warnf("cannot remove media of deleted post %s", id)
		}
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "removed_media": len(keys)})
}

func (s *Server) like(c *gin.Context) {
	if _, ok := s.visiblePost(c); !ok {
		return
	}
	post, err := s.repo.AddLike(c.Request.Context(), middlewares.UserID(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post_id": post.Id, "post_owner_id": post.UserID, "liked": true})
}

func (s *Server) unlike(c *gin.Context) {
	postID := c.Param("id")
	if err := s.repo.RemoveLike(c.Request.Context(), middlewares.UserID(c), postID); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post_id": postID, "liked": false})
}

func (s *Server) listComments(c *gin.Context) {
	if _, ok := s.visiblePost(c); !ok {
		return
	}
	comments, err := s.repo.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(comments, func(cm model.Comment, _ int) CommentResponse {
		return toCommentResponse(&cm)
	}))
}

func (s *Server) addComment(c *gin.Context) {
	var input commentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	if _, ok := s.visiblePost(c); !ok {
		return
	}
	comment, err := s.repo.AddComment(c.Request.Context(), c.Param("id"), middlewares.UserID(c), input.Content, input.ParentCommentID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCommentResponse(comment))
}

func (s *Server) deleteComment(c *gin.Context) {
	if err := s.repo.DeleteComment(c.Request.Context(), c.Param("id"), middlewares.UserID(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
}

func (s *Server) uploadMedia(c *gin.Context) {
	bucket := media.Bucket(c.Param("bucket"))
	if !bucket.IsValid() {
		badRequest(c, "unknown bucket "+bucket.String())
		return
	}
	if s.setting.MAX_UPLOAD_BYTES > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.setting.MAX_UPLOAD_BYTES)
	}
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "missing file: "+err.Error())
		return
	}
	f, err := header.Open()
	if err != nil {
		abortWithError(c, err)
		return
	}
	defer f.Close()

	key, err := s.files.Upload(c.Request.Context(), bucket, middlewares.UserID(c), header.Filename, f, header.Header.Get("Content-Type"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"key": key, "url": s.files.PublicURL(bucket, key)})
}
