package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"SMMAgent/internal/domain"
	"SMMAgent/internal/ports"
)

// Sender is the subset of *tgbotapi.BotAPI used by this package.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

var _ Sender = (*tgbotapi.BotAPI)(nil)

// Notifier sends plain text to the admin chat and posts to the channel.
type Notifier struct {
	api         Sender
	adminChatID int64
	channelID   string
}

var (
	_ ports.AdminNotifier    = (*Notifier)(nil)
	_ ports.ChannelPublisher = (*Notifier)(nil)
)

// NewNotifier registers the admin chat and the publishing channel.
// channelID is either a numeric chat id or an @username.
func NewNotifier(api Sender, adminChatID int64, channelID string) *Notifier {
	return &Notifier{
		api:         api,
		adminChatID: adminChatID,
		channelID:   strings.TrimSpace(channelID),
	}
}

// Notify sends text to the administrator, split into Telegram-sized parts.
func (n *Notifier) Notify(ctx context.Context, text string) error {
	if n.api == nil || n.adminChatID == 0 {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	for _, part := range SplitMessage(text, MessageLimit) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(n.adminChatID, part)
		msg.DisableWebPagePreview = true
		if _, err := n.api.Send(msg); err != nil {
			return fmt.Errorf("send admin message: %w", err)
		}
	}
	return nil
}

// Publish posts the content to the channel and returns the id of the first message.
func (n *Notifier) Publish(ctx context.Context, post domain.Post) (int64, error) {
	if n.api == nil || n.channelID == "" {
		return 0, fmt.Errorf("telegram channel is not configured")
	}

	var first int64
	for i, part := range SplitMessage(post.Content, MessageLimit) {
		if err := ctx.Err(); err != nil {
			return first, err
		}
		sent, err := n.api.Send(n.channelMessage(part))
		if err != nil {
			return first, fmt.Errorf("send post %d to channel: %w", post.ID, err)
		}
		if i == 0 {
			first = int64(sent.MessageID)
		}
	}
	return first, nil
}

func (n *Notifier) channelMessage(text string) tgbotapi.MessageConfig {
	if id, err := strconv.ParseInt(n.channelID, 10, 64); err == nil {
		return tgbotapi.NewMessage(id, text)
	}
	return tgbotapi.NewMessageToChannel(n.channelID, text)
}
