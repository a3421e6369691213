// Package feedback forwards user feedback to the team.
package feedback

import (
	"context"
	"fmt"

	"github.com/Luismorlan/localsocial/model"
	. "github.com/Luismorlan/localsocial/utils/log"
	"github.com/slack-go/slack"
)

type Forwarder interface {
	Forward(ctx context.Context, f *model.Feedback, from *model.Profile) error
}

// SlackForwarder posts feedback to a slack incoming webhook.
type SlackForwarder struct {
	webhookUrl string
}

func NewSlackForwarder(webhookUrl string) *SlackForwarder {
	return &SlackForwarder{webhookUrl: webhookUrl}
}

func (s *SlackForwarder) Forward(ctx context.Context, f *model.Feedback, from *model.Profile) error {
	return slack.PostWebhookContext(ctx, s.webhookUrl, Message(f, from))
}

// Message renders feedback as a slack block message.
func Message(f *model.Feedback, from *model.Profile) *slack.WebhookMessage {
	author := "anonymous"
	if from != nil {
		author = fmt.Sprintf("%s (@%s)", from.DisplayName(), from.Username)
	}
	subject := f.Subject
	if subject == "" {
		subject = "(no subject)"
	}

	header := slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*[%s]* %s", f.Type, subject), false, false)
	body := slack.NewTextBlockObject("plain_text", f.Message, false, false)
	footer := slack.NewContextBlock("", slack.NewTextBlockObject("mrkdwn", "from "+author, false, false))

	return &slack.WebhookMessage{
		Text: fmt.Sprintf("New %s feedback from %s", f.Type, author),
		Blocks: &slack.Blocks{BlockSet: []slack.Block{
			slack.NewSectionBlock(header, nil, nil),
			slack.NewDividerBlock(),
			slack.NewSectionBlock(body, nil, nil),
			footer,
		}},
	}
}

// NoopForwarder only logs feedback, for environments without a webhook.
type NoopForwarder struct{}

func (NoopForwarder) Forward(ctx context.Context, f *model.Feedback, from *model.Profile) error {
	Log.WithField("type", f.Type).Infof("feedback %s received", f.Id)
	return nil
}
