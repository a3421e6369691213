package model

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/pkg/errors"
)

// Row is a loosely typed record as it comes off a generic json decoder.
type Row map[string]interface{}

func (r Row) str(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (r Row) requireStr(key string) (string, error) {
	s, ok := r.str(key)
	if !ok || s == "" {
		return "", fmt.Errorf("missing required field %q", key)
	}
	return s, nil
}

func (r Row) optStr(key string) *string {
	s, ok := r.str(key)
	if !ok || s == "" {
		return nil
	}
	return &s
}

func (r Row) bool(key string) bool {
	b, _ := r[key].(bool)
	return b
}

// time accepts the formats a hosted backend hands out (RFC3339 with or without
// fractional seconds, postgres timestamp text, unix seconds).
func (r Row) time(key string) (time.Time, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return time.Time{}, fmt.Errorf("missing required field %q", key)
	}
	switch t := v.(type) {
	case string:
		parsed, err := dateparse.ParseAny(t)
		if err != nil {
			return time.Time{}, errors.Wrapf(err, "field %q", key)
		}
		return parsed, nil
	case float64:
		return time.Unix(int64(t), 0), nil
	}
	return time.Time{}, fmt.Errorf("field %q has unsupported type %T", key, v)
}

// ParseNotification validates a loosely typed notification row.
func ParseNotification(row Row) (*Notification, error) {
	id, err := row.requireStr("id")
	if err != nil {
		return nil, err
	}
	userID, err := row.requireStr("user_id")
	if err != nil {
		return nil, err
	}
	actorID, err := row.requireStr("actor_id")
	if err != nil {
		return nil, err
	}
	typ, _ := row.str("type")
	if !NotificationType(typ).IsValid() {
		return nil, fmt.Errorf("%s is not a valid NotificationType", typ)
	}
	createdAt, err := row.time("created_at")
	if err != nil {
		return nil, err
	}

	n := &Notification{
		Id:        id,
		CreatedAt: createdAt,
		UserID:    userID,
		ActorID:   actorID,
		Type:      NotificationType(typ),
		PostID:    row.optStr("post_id"),
		CommentID: row.optStr("comment_id"),
		Read:      row.bool("read"),
	}
	if actor, ok := row["actor"].(map[string]interface{}); ok {
		n.Actor = parseProfileStub(Row(actor))
	}
	return n, nil
}

// ParseMessage validates a loosely typed message row.
func ParseMessage(row Row) (*Message, error) {
	id, err := row.requireStr("id")
	if err != nil {
		return nil, err
	}
	conversationID, err := row.requireStr("conversation_id")
	if err != nil {
		return nil, err
	}
	senderID, err := row.requireStr("sender_id")
	if err != nil {
		return nil, err
	}
	createdAt, err := row.time("created_at")
	if err != nil {
		return nil, err
	}
	content, _ := row.str("content")

	m := &Message{
		Id:             id,
		CreatedAt:      createdAt,
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
	}
	if sender, ok := row["sender"].(map[string]interface{}); ok {
		m.Sender = parseProfileStub(Row(sender))
	}
	return m, nil
}

// ParseMedia validates a loosely typed media list.
func ParseMedia(rows []interface{}) ([]Media, error) {
	media := make([]Media, 0, len(rows))
	for idx, raw := range rows {
		// Media lists written by older clients can contain null holes.
		if raw == nil {
			continue
		}
		obj, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("media %d is %T, not an object", idx, raw)
		}
		row := Row(obj)
		typ, _ := row.str("type")
		url, _ := row.str("url")
		m := Media{Type: MediaType(typ), URL: url}
		if err := m.Validate(); err != nil {
			return nil, errors.Wrapf(err, "media %d", idx)
		}
		media = append(media, m)
	}
	return media, nil
}

func parseProfileStub(row Row) *Profile {
	p := &Profile{}
	p.Id, _ = row.str("id")
	p.Username, _ = row.str("username")
	p.FullName, _ = row.str("full_name")
	p.AvatarUrl, _ = row.str("avatar_url")
	return p
}
