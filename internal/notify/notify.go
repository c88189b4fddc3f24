// Package notify publishes raffle lifecycle announcements to a Telegram
// channel. It is optional: when no bot token is configured the rest of
// the system runs without it.
package notify

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/telebot.v3"

	"luckyyield/internal/format"
	"luckyyield/internal/logger"
	"luckyyield/internal/storage"
)

// Service sends channel announcements through a Telegram bot.
type Service struct {
	bot       *telebot.Bot
	mu        sync.Mutex
	channelID string
}

// New creates a notification service. channelID is either a @username
// or a numeric chat id.
func New(botToken, channelID string) (*Service, error) {
	if botToken == "" {
		return nil, fmt.Errorf("bot token not set")
	}
	b, err := telebot.NewBot(telebot.Settings{
		Token: botToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return &Service{bot: b, channelID: channelID}, nil
}

// AnnounceFinalized broadcasts a raffle finalization to the channel.
func (s *Service) AnnounceFinalized(raffle *storage.Raffle, outcome storage.EntryOutcome) {
	if s.channelID == "" {
		logger.Debug("", "broadcast_skipped", "CHANNEL_ID not configured")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	emoji := "🏆"
	if outcome == storage.OutcomeLost {
		emoji = "💤"
	}
	message := fmt.Sprintf("🏁 *Raffle Finalized*\n\n*%s*\n\n%s Outcome: *%s*\n💰 Pool: %s USDC\n🏦 Yield via %s\n\nAll principal returned, winner takes the yield\\.",
		escapeMarkdown(raffle.Title),
		emoji,
		outcome,
		format.Pool(raffle.Pool),
		escapeMarkdown(raffle.YieldProtocol))

	_, err := s.bot.Send(s.channelRecipient(), message, &telebot.SendOptions{
		ParseMode: telebot.ModeMarkdown,
	})
	if err != nil {
		logger.Debug("", "broadcast_error", fmt.Sprintf("channel=%s error=%v", s.channelID, err))
		log.Printf("Failed to publish finalization to channel %s: %v", s.channelID, err)
	} else {
		logger.Debug("", "broadcast_finalized", fmt.Sprintf("raffle_id=%s outcome=%s channel=%s", raffle.ID, outcome, s.channelID))
	}
}

// channelRecipient returns the appropriate recipient for the configured channel
func (s *Service) channelRecipient() telebot.Recipient {
	if strings.HasPrefix(s.channelID, "@") {
		return &telebot.Chat{Username: s.channelID}
	}
	id, _ := strconv.ParseInt(s.channelID, 10, 64)
	return &telebot.Chat{ID: id}
}

// escapeMarkdown escapes special characters for Telegram Markdown mode
func escapeMarkdown(s string) string {
	escaped := s
	for _, ch := range []string{`\`, "*", "_", "`", "[", "]", "(", ")"} {
		escaped = strings.ReplaceAll(escaped, ch, `\`+ch)
	}
	return escaped
}
