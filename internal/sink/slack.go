package sink

import (
	"context"
	"fmt"

	"github.com/skaldic/muse/internal/agent"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// notifyLineWidth bounds each agent's line in a notification message.
const notifyLineWidth = 120

// Slack posts a short summary of each record to a channel. It is a
// notifier, not an archive; the full record lives in the other sinks.
type Slack struct {
	client  *slack.Client
	channel string
	logger  *zap.Logger
}

// NewSlack creates a Slack notifier. botToken is the Bot User OAuth
// Token (xoxb-...).
func NewSlack(botToken, channel string, logger *zap.Logger) *Slack {
	return &Slack{
		client:  slack.New(botToken),
		channel: channel,
		logger:  logger,
	}
}

// Accept posts the record summary.
func (s *Slack) Accept(ctx context.Context, rec *agent.Record) error {
	_, _, err := s.client.PostMessageContext(ctx, s.channel,
		slack.MsgOptionText(summarize(rec, notifyLineWidth), false))
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	return nil
}

// Close is a no-op; the Slack client holds no connection.
func (s *Slack) Close() error {
	return nil
}
