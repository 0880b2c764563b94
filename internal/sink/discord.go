package sink

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/skaldic/muse/internal/agent"
	"go.uber.org/zap"
)

// Discord posts record summaries to a channel over the REST API. No
// gateway connection is opened; the sink only sends.
type Discord struct {
	session   *discordgo.Session
	channelID string
	logger    *zap.Logger
}

// NewDiscord creates a Discord notifier from a bot token.
func NewDiscord(botToken, channelID string, logger *zap.Logger) (*Discord, error) {
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &Discord{session: session, channelID: channelID, logger: logger}, nil
}

// Accept posts the record summary.
func (s *Discord) Accept(ctx context.Context, rec *agent.Record) error {
	_, err := s.session.ChannelMessageSend(s.channelID,
		summarize(rec, notifyLineWidth), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord send: %w", err)
	}
	return nil
}

// Close is a no-op; no gateway connection was opened.
func (s *Discord) Close() error {
	return nil
}
