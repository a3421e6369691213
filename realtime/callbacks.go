package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Luismorlan/localsocial/model"
	. "github.com/Luismorlan/localsocial/utils/log"
	"gorm.io/gorm"
)

const callbackName = "realtime:publish_insert"

// RegisterCallbacks publishes an INSERT change event to hub after every
// notification or message row created through db.
func RegisterCallbacks(db *gorm.DB, hub *Hub) error {
	return db.Callback().Create().After("gorm:create").Register(callbackName, func(tx *gorm.DB) {
		if tx.Error != nil || tx.Statement == nil {
			return
		}
		event, ok := insertEvent(tx.Statement.Dest)
		if !ok {
			return
		}
		ctx := tx.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		if err := hub.Publish(ctx, event); err != nil {
			Log.WithError(err).Errorf("failed to publish insert on %s", event.Channel)
		}
	})
}

func insertEvent(dest interface{}) (model.ChangeEvent, bool) {
	var channel, table string
	switch row := dest.(type) {
	case *model.Notification:
		channel, table = model.NotificationsChannel(row.UserID), "notifications"
	case *model.Message:
		channel, table = model.MessagesChannel(row.ConversationID), "messages"
	default:
		return model.ChangeEvent{}, false
	}

	record, err := json.Marshal(dest)
	if err != nil {
		Log.WithError(err).Errorf("cannot encode %s row", table)
		return model.ChangeEvent{}, false
	}
	return model.ChangeEvent{
		Channel: channel,
		Table:   table,
		Op:      model.ChangeOpInsert,
		Record:  record,
		At:      time.Now(),
	}, true
}
