package server

import (
	"net/http"
	"strconv"

	"github.com/Luismorlan/localsocial/model"
	"github.com/Luismorlan/localsocial/server/middlewares"
	. "github.com/Luismorlan/localsocial/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type notificationInput struct {
	UserID    string                 `json:"user_id" binding:"required"`
	Type      model.NotificationType `json:"type" binding:"required"`
	PostID    *string                `json:"post_id"`
	CommentID *string                `json:"comment_id"`
}

// createNotification stores a notification on behalf of the caller, who is
// always the actor.
func (s *Server) createNotification(c *gin.Context) {
	var input notificationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	actor := middlewares.UserID(c)
	if input.UserID == actor {
		badRequest(c, "cannot notify yourself")
		return
	}
	n := &model.Notification{
		UserID:    input.UserID,
		ActorID:   actor,
		Type:      input.Type,
		PostID:    input.PostID,
		CommentID: input.CommentID,
	}
	if err := s.repo.CreateNotification(c.Request.Context(), n); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toNotificationResponse(n))
}

func (s *Server) listNotifications(c *gin.Context) {
	limit := s.setting.NOTIFICATION_PAGE_SIZE
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}
	notifications, err := s.repo.ListNotifications(c.Request.Context(), middlewares.UserID(c), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(notifications, func(n model.Notification, _ int) NotificationResponse {
		return toNotificationResponse(&n)
	}))
}

// unreadCount serves the count from the cache when there is one, and fills the
// cache on a miss.
func (s *Server) unreadCount(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middlewares.UserID(c)
	var (
		gen  int64
		fill bool
	)
	if s.unread != nil {
		count, ok, err := s.unread.Get(ctx, userID)
		if err != nil {
			Log.WithError(err).Warn("unread cache unavailable")
		} else if ok {
			c.JSON(http.StatusOK, gin.H{"unread": count})
			return
		} else if gen, err = s.unread.BeginFill(ctx, userID); err != nil {
			Log.WithError(err).Warn("cannot start unread recount")
		} else {
			fill = true
		}
	}

	count, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if fill {
		// Not cached when a notification arrived during the recount.
		if _, err := s.unread.Fill(ctx, userID, count, gen); err != nil {
			Log.WithError(err).Warn("cannot fill unread cache")
		}
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (s *Server) invalidateUnread(c *gin.Context, userID string) {
	if s.unread == nil {
		return
	}
	if err := s.unread.Invalidate(c.Request.Context(), userID); err != nil {
		Log.WithError(err).Warnf("cannot invalidate unread count of %s", userID)
	}
}

func (s *Server) markRead(c *gin.Context) {
	userID := middlewares.UserID(c)
	if err := s.repo.MarkNotificationRead(c.Request.Context(), c.Param("id"), userID); err != nil {
		abortWithError(c, err)
		return
	}
	s.invalidateUnread(c, userID)
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "read": true})
}

func (s *Server) markAllRead(c *gin.Context) {
	userID := middlewares.UserID(c)
	if err := s.repo.MarkAllNotificationsRead(c.Request.Context(), userID); err != nil {
		abortWithError(c, err)
		return
	}
	s.invalidateUnread(c, userID)
	c.JSON(http.StatusOK, gin.H{"read": true})
}
