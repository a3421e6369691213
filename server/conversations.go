package server

import (
	"net/http"

	"github.com/Luismorlan/localsocial/model"
	"github.com/Luismorlan/localsocial/server/middlewares"
	. "github.com/Luismorlan/localsocial/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type conversationInput struct {
	ParticipantID string `json:"participant_id" binding:"required"`
}

type messageInput struct {
	Content string `json:"content" binding:"required"`
}

func (s *Server) openConversation(c *gin.Context) {
	var input conversationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	userID := middlewares.UserID(c)
	conv, err := s.repo.FindOrCreateConversation(c.Request.Context(), userID, input.ParticipantID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	// Reload with the participant profiles.
	if conv, err = s.repo.GetConversation(c.Request.Context(), conv.Id, userID); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toConversationResponse(conv, userID))
}

func (s *Server) listConversations(c *gin.Context) {
	userID := middlewares.UserID(c)
	convs, err := s.repo.ListConversations(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(convs, func(conv model.Conversation, _ int) ConversationResponse {
		return toConversationResponse(&conv, userID)
	}))
}

func (s *Server) listMessages(c *gin.Context) {
	messages, err := s.repo.ListMessages(c.Request.Context(), c.Param("id"), middlewares.UserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(messages, func(m model.Message, _ int) MessageResponse {
		return toMessageResponse(&m)
	}))
}

func (s *Server) sendMessage(c *gin.Context) {
	var input messageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	msg, err := s.repo.SendMessage(c.Request.Context(), c.Param("id"), middlewares.UserID(c), input.Content)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMessageResponse(msg))
}

type feedbackInput struct {
	Type    model.FeedbackType `json:"type" binding:"required"`
	Subject string             `json:"subject"`
	Message string             `json:"message" binding:"required"`
}

// sendFeedback stores the feedback, then forwards it to the team channel.
// Forwarding failures are only logged.
func (s *Server) sendFeedback(c *gin.Context) {
	var input feedbackInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()
	userID := middlewares.UserID(c)
	f := &model.Feedback{
		UserID:  userID,
		Type:    input.Type,
		Subject: input.Subject,
		Message: input.Message,
	}
	if err := s.repo.CreateFeedback(ctx, f); err != nil {
		abortWithError(c, err)
		return
	}

	from, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		from = nil
	}
	if err := s.forwarder.Forward(ctx, f, from); err != nil {
		Log.WithError(err).Errorf("cannot forward feedback %s", f.Id)
	}
	c.JSON(http.StatusCreated, gin.H{"id": f.Id})
}
