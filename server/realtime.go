package server

import (
	"context"
	"time"

	"github.com/Luismorlan/localsocial/model"
	"github.com/Luismorlan/localsocial/server/middlewares"
	"github.com/Luismorlan/localsocial/store"
	. "github.com/Luismorlan/localsocial/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// authorizeChannel checks that userID may listen to channel. Users listen to
// their own notifications and to conversations they take part in.
func (s *Server) authorizeChannel(ctx context.Context, userID, channel string) error {
	kind, id, err := model.ParseChannel(channel)
	if err != nil {
		return errors.Wrap(store.ErrInvalidInput, err.Error())
	}
	switch kind {
	case model.ChannelKindNotifications:
		if id != userID {
			return errors.Wrap(store.ErrForbidden, "cannot listen to notifications of another user")
		}
	case model.ChannelKindMessages:
		if _, err := s.repo.GetConversation(ctx, id, userID); err != nil {
			return err
		}
	}
	return nil
}

// streamChanges upgrades to a websocket and writes every change event of the
// requested channel as a json text frame until either side goes away.
func (s *Server) streamChanges(c *gin.Context) {
	channel := c.Query("channel")
	userID := middlewares.UserID(c)
	if err := s.authorizeChannel(c.Request.Context(), userID, channel); err != nil {
		abortWithError(c, err)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	// Subscribe before upgrading so nothing published after the handshake is
	// missed.
	sub, err := s.hub.Subscribe(ctx, channel)
	if err != nil {
		abortWithError(c, err)
		return
	}
	defer sub.Close()

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		Log.WithError(err).Warnf("websocket upgrade failed for %s", channel)
		return
	}
	defer conn.Close()
	Log.WithField("channel", channel).Infof("%s is listening, %d active subscriptions", userID, s.hub.ActiveCount())

	// The read loop only handles control frames, it ends the stream when the
	// client closes or stops answering pings.
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	events := make(chan model.ChangeEvent)
	go func() {
		defer close(events)
		for {
			event, err := sub.Next(ctx)
			if err != nil {
				return
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case event, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				Log.WithError(err).Warnf("cannot write change event to %s", userID)
				return
			}
		}
	}
}
