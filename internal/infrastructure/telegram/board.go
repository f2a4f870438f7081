package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"SMMAgent/internal/domain"
	"SMMAgent/internal/ports"
)

// Board shows draft cards in the admin chat and keeps them in sync with post status.
type Board struct {
	api         Sender
	adminChatID int64
	catalog     *domain.Catalog
	logger      *slog.Logger
}

var _ ports.ModerationBoard = (*Board)(nil)

// NewBoard builds the moderation board.
func NewBoard(api Sender, adminChatID int64, catalog *domain.Catalog, logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	return &Board{api: api, adminChatID: adminChatID, catalog: catalog, logger: logger}
}

// ShowDraft sends the optional illustration followed by the card with its
// keyboard and returns the card message id.
func (b *Board) ShowDraft(ctx context.Context, post domain.Post, image []byte) (int64, error) {
	if b.api == nil || b.adminChatID == 0 {
		return 0, fmt.Errorf("moderation board misconfigured")
	}

	if len(image) > 0 {
		photo := tgbotapi.NewPhoto(b.adminChatID, tgbotapi.FileBytes{
			Name:  fmt.Sprintf("post-%d.jpg", post.ID),
			Bytes: image,
		})
		if _, err := b.api.Send(photo); err != nil {
			b.logger.Warn("send illustration", "post", post.ID, "error", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	card := tgbotapi.NewMessage(b.adminChatID, FormatCard(post, b.catalog))
	card.ReplyMarkup = KeyboardFor(post)
	card.DisableWebPagePreview = true

	sent, err := b.api.Send(card)
	if err != nil {
		return 0, fmt.Errorf("send card for post %d: %w", post.ID, err)
	}
	return int64(sent.MessageID), nil
}

// RefreshCard rewrites the card text and keyboard for the post's current status.
func (b *Board) RefreshCard(ctx context.Context, post domain.Post, cardRef int64) error {
	if b.api == nil || b.adminChatID == 0 {
		return fmt.Errorf("moderation board misconfigured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(b.adminChatID, int(cardRef), FormatCard(post, b.catalog), KeyboardFor(post))
	if _, err := b.api.Send(edit); err != nil {
		return fmt.Errorf("refresh card %d for post %d: %w", cardRef, post.ID, err)
	}
	return nil
}
