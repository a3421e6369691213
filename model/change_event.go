package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	ChannelKindNotifications = "notifications"
	ChannelKindMessages      = "messages"

	channelDelimiter = ":"
)

// ChangeEvent is a single entry of a change feed. Record holds the changed row
// as json so that consumers decode it into the typed record they expect.
type ChangeEvent struct {
	Channel string          `json:"channel"`
	Table   string          `json:"table"`
	Op      ChangeOp        `json:"op"`
	Record  json.RawMessage `json:"record"`
	At      time.Time       `json:"at"`
}

// Decode unmarshals the record into out.
func (e ChangeEvent) Decode(out interface{}) error {
	if len(e.Record) == 0 {
		return fmt.Errorf("change event on %s carries no record", e.Channel)
	}
	return json.Unmarshal(e.Record, out)
}

type ChangeOp string

const (
	ChangeOpInsert ChangeOp = "INSERT"
	ChangeOpUpdate ChangeOp = "UPDATE"
	ChangeOpDelete ChangeOp = "DELETE"
)

func (e ChangeOp) IsValid() bool {
	switch e {
	case ChangeOpInsert, ChangeOpUpdate, ChangeOpDelete:
		return true
	}
	return false
}

// NotificationsChannel is the change feed of notifications addressed to userID.
func NotificationsChannel(userID string) string {
	return ChannelKindNotifications + channelDelimiter + userID
}

// MessagesChannel is the change feed of messages in a conversation.
func MessagesChannel(conversationID string) string {
	return ChannelKindMessages + channelDelimiter + conversationID
}

// ParseChannel splits a channel name into its kind and the id it is scoped to.
func ParseChannel(channel string) (kind string, id string, err error) {
	splits := strings.SplitN(channel, channelDelimiter, 2)
	if len(splits) != 2 || splits[1] == "" {
		return "", "", fmt.Errorf("invalid channel: %s", channel)
	}
	switch splits[0] {
	case ChannelKindNotifications, ChannelKindMessages:
		return splits[0], splits[1], nil
	}
	return "", "", fmt.Errorf("unknown channel kind: %s", splits[0])
}
