package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Luismorlan/localsocial/model"
	"github.com/Luismorlan/localsocial/realtime"
	"github.com/Luismorlan/localsocial/server/middlewares"
	. "github.com/Luismorlan/localsocial/utils/log"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const feedWriteWait = 5 * time.Second

// Feed is a change feed of one channel read from the api websocket. It ends
// with realtime.ErrSubscriptionClosed when closed or when the connection
// drops.
type Feed struct {
	Channel string

	conn   *websocket.Conn
	events chan model.ChangeEvent
	ctx    context.Context
	cancel context.CancelFunc
}

func (c *Client) realtimeURL(channel string) (string, error) {
	u, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", errors.Wrap(err, "invalid base url")
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/realtime"
	q := url.Values{"channel": {channel}}
	if c.config.Token != "" {
		q.Set("token", c.config.Token)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Subscribe opens the change feed of channel. The feed lives until Close is
// called or ctx is done.
func (c *Client) Subscribe(ctx context.Context, channel string) (*Feed, error) {
	target, err := c.realtimeURL(channel)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	if c.config.Subject != "" {
		header.Set(middlewares.SubKey, c.config.Subject)
	}

	conn, res, err := websocket.DefaultDialer.DialContext(ctx, target, header)
	if err != nil {
		if res != nil {
			apiErr := &APIError{Status: res.StatusCode}
			if decodeErr := json.NewDecoder(res.Body).Decode(apiErr); decodeErr != nil {
				apiErr.Msg = res.Status
			}
			return nil, errors.WithStack(apiErr)
		}
		return nil, errors.Wrapf(err, "cannot subscribe to %s", channel)
	}

	feedCtx, cancel := context.WithCancel(ctx)
	f := &Feed{
		Channel: channel,
		conn:    conn,
		events:  make(chan model.ChangeEvent),
		ctx:     feedCtx,
		cancel:  cancel,
	}
	go f.read()
	go func() {
		<-feedCtx.Done()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(feedWriteWait))
		conn.Close()
	}()
	return f, nil
}

func (f *Feed) read() {
	defer f.cancel()
	for {
		var event model.ChangeEvent
		if err := f.conn.ReadJSON(&event); err != nil {
			if f.ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				Log.WithError(err).Warnf("change feed %s dropped", f.Channel)
			}
			return
		}
		select {
		case f.events <- event:
		case <-f.ctx.Done():
			return
		}
	}
}

// Next blocks until the next event arrives.
func (f *Feed) Next(ctx context.Context) (model.ChangeEvent, error) {
	select {
	case <-ctx.Done():
		return model.ChangeEvent{}, ctx.Err()
	case <-f.ctx.Done():
		return model.ChangeEvent{}, realtime.ErrSubscriptionClosed
	case event := <-f.events:
		return event, nil
	}
}

func (f *Feed) Close() {
	f.cancel()
}

// decodeRow turns the record of an event into a loosely typed row for the
// model parsers.
func decodeRow(event model.ChangeEvent) (model.Row, error) {
	var row model.Row
	if err := event.Decode(&row); err != nil {
		return nil, err
	}
	return row, nil
}
