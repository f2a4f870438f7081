package telegram

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"SMMAgent/internal/domain"
)

// Callback actions carried in inline button data as "<action>:<post id>".
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionEdit    = "edit"
	ActionNoop    = "noop"
)

// DraftKeyboard offers approve and reject on one row, edit on the next.
func DraftKeyboard(postID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", callbackData(ActionApprove, postID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", callbackData(ActionReject, postID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Edit", callbackData(ActionEdit, postID)),
		),
	)
}

// KeyboardFor returns the keyboard matching the post status. Decided posts get
// a single acknowledgement button.
func KeyboardFor(post domain.Post) tgbotapi.InlineKeyboardMarkup {
	var label string
	switch post.Status {
	case domain.StatusDraft:
		return DraftKeyboard(post.ID)
	case domain.StatusApproved:
		label = "✅ Approved"
	case domain.StatusRejected:
		label = "❌ Rejected"
	case domain.StatusPublished:
		label = "📢 Published"
	default:
		label = "⚠️ " + post.Status.String()
	}

	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, callbackData(ActionNoop, post.ID)),
		),
	)
}

// ParseCallback splits callback data into action and post id.
func ParseCallback(data string) (string, int64, error) {
	action, rawID, ok := strings.Cut(data, ":")
	if !ok {
		return "", 0, fmt.Errorf("malformed callback %q", data)
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("malformed callback %q: %w", data, err)
	}
	switch action {
	case ActionApprove, ActionReject, ActionEdit, ActionNoop:
		return action, id, nil
	default:
		return "", 0, fmt.Errorf("unknown callback action %q", action)
	}
}

func callbackData(action string, postID int64) string {
	return fmt.Sprintf("%s:%d", action, postID)
}
