// Package server is the http api of the social graph.
package server

import (
	"context"
	"net/http"

	"github.com/Luismorlan/localsocial/app_setting"
	"github.com/Luismorlan/localsocial/feedback"
	"github.com/Luismorlan/localsocial/media"
	"github.com/Luismorlan/localsocial/metrics"
	"github.com/Luismorlan/localsocial/model"
	"github.com/Luismorlan/localsocial/realtime"
	"github.com/Luismorlan/localsocial/server/middlewares"
	"github.com/Luismorlan/localsocial/store"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
)

// Repository is the system of record the api reads and writes, implemented
// by store.Store.
type Repository interface {
	AddLike(ctx context.Context, userID, postID string) (*model.Post, error)
	RemoveLike(ctx context.Context, userID, postID string) error
	LikesForPost(ctx context.Context, postID string) ([]model.Like, error)

	Follow(ctx context.Context, followerID, followingID string) error
	Unfollow(ctx context.Context, followerID, followingID string) error
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	Followers(ctx context.Context, profileID string) ([]model.Profile, error)
	Following(ctx context.Context, profileID string) ([]model.Profile, error)
	FollowCounts(ctx context.Context, profileID string) (int64, int64, error)

	UpsertProfile(ctx context.Context, p *model.Profile) error
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error)
	CanView(ctx context.Context, viewerID string, profile *model.Profile) (bool, error)

	CreatePost(ctx context.Context, userID, content string, media []model.Media, checkInLocationID *string) (*model.Post, error)
	DeletePost(ctx context.Context, id, userID string) ([]model.Media, error)
	GetPost(ctx context.Context, id string) (*model.Post, error)
	ListPosts(ctx context.Context, q store.FeedQuery) ([]model.Post, error)

	AddComment(ctx context.Context, postID, userID, content string, parentID *string) (*model.Comment, error)
	DeleteComment(ctx context.Context, id, userID string) error
	ListComments(ctx context.Context, postID string) ([]model.Comment, error)

	CreateNotification(ctx context.Context, n *model.Notification) error
	ListNotifications(ctx context.Context, userID string, limit int) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error
	UnreadCount(ctx context.Context, userID string) (int64, error)

	FindOrCreateConversation(ctx context.Context, a, b string) (*model.Conversation, error)
	GetConversation(ctx context.Context, id, userID string) (*model.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]model.Conversation, error)
	SendMessage(ctx context.Context, conversationID, senderID, content string) (*model.Message, error)
	ListMessages(ctx context.Context, conversationID, userID string) ([]model.Message, error)

	CreateFeedback(ctx context.Context, f *model.Feedback) error
}

var _ Repository = (*store.Store)(nil)

type Server struct {
	repo      Repository
	hub       *realtime.Hub
	files     media.FileStore
	forwarder feedback.Forwarder
	// unread is optional, counts are recomputed on every read without it.
	unread  *realtime.UnreadCounter
	setting app_setting.ServerAppSetting

	upgrader websocket.Upgrader
}

type Option func(*Server)

func WithUnreadCounter(c *realtime.UnreadCounter) Option {
	return func(s *Server) { s.unread = c }
}

func WithForwarder(f feedback.Forwarder) Option {
	return func(s *Server) { s.forwarder = f }
}

func New(repo Repository, hub *realtime.Hub, files media.FileStore, setting app_setting.ServerAppSetting, opts ...Option) *Server {
	s := &Server{
		repo:      repo,
		hub:       hub,
		files:     files,
		forwarder: feedback.NoopForwarder{},
		setting:   setting,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers connect from the web app origin, authentication is done
			// with the token.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RouterConfig struct {
	ServiceName string
	// Auth authenticates every route except /ping, /metrics and /media.
	Auth gin.HandlerFunc
	// Trace enables datadog tracing.
	Trace       bool
	HTTPMetrics *metrics.HTTPMetrics
}

// Router wires every route of the api.
func (s *Server) Router(cfg RouterConfig) *gin.Engine {
	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", "token"},
	}))
	if cfg.Trace {
		router.Use(gintrace.Middleware(cfg.ServiceName))
	}
	if cfg.HTTPMetrics != nil {
		router.Use(middlewares.Metrics(cfg.HTTPMetrics))
	}

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
		metrics.NewRegistry(s.hub, cfg.HTTPMetrics), promhttp.HandlerOpts{})))
	if local, ok := s.files.(*media.LocalFileStore); ok {
		router.Static("/media", local.Root())
	}

	api := router.Group("/")
	if cfg.Auth != nil {
		api.Use(cfg.Auth)
	}

	api.GET("/me", s.whoAmI)
	api.GET("/profile", s.getOwnProfile)
	api.PUT("/profile", s.putOwnProfile)
	api.GET("/profiles/:id", s.getProfile)
	api.GET("/profiles/:id/followers", s.listFollowers)
	api.GET("/profiles/:id/following", s.listFollowing)
	api.GET("/profiles/:id/posts", s.listProfilePosts)
	api.POST("/profiles/:id/follow", s.follow)
	api.DELETE("/profiles/:id/follow", s.unfollow)

	api.GET("/posts", s.listPosts)
	api.POST("/posts", s.createPost)
	api.GET("/posts/:id", s.getPost)
	api.DELETE("/posts/:id", s.deletePost)
	api.POST("/posts/:id/like", s.like)
	api.DELETE("/posts/:id/like", s.unlike)
	api.GET("/posts/:id/comments", s.listComments)
	api.POST("/posts/:id/comments", s.addComment)
	api.DELETE("/comments/:id", s.deleteComment)

	api.POST("/notifications", s.createNotification)
	api.GET("/notifications", s.listNotifications)
	api.GET("/notifications/unread", s.unreadCount)
	api.POST("/notifications/read", s.markAllRead)
	api.POST("/notifications/:id/read", s.markRead)

	api.POST("/conversations", s.openConversation)
	api.GET("/conversations", s.listConversations)
	api.GET("/conversations/:id/messages", s.listMessages)
	api.POST("/conversations/:id/messages", s.sendMessage)

	api.POST("/media/:bucket", s.uploadMedia)
	api.POST("/feedback", s.sendFeedback)

	api.GET("/realtime", s.streamChanges)

	return router
}
