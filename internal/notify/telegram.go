package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender delivers notifications through a Telegram bot.
type TelegramSender struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	// channel is set instead of chatID for "@channel" destinations.
	channel string
}

// NewTelegramSender authorizes the bot token (one getMe round trip) and
// targets chat, which is either a numeric chat id or an "@channel" name.
func NewTelegramSender(token, chat string) (*TelegramSender, error) {
	return newTelegramSender(token, chat, tgbotapi.APIEndpoint, &http.Client{Timeout: 10 * time.Second})
}

func newTelegramSender(token, chat, endpoint string, client tgbotapi.HTTPClient) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram: authorize bot: %w", err)
	}

	s := &TelegramSender{bot: bot}
	chat = strings.TrimSpace(chat)
	if id, err := strconv.ParseInt(chat, 10, 64); err == nil {
		s.chatID = id
	} else if strings.HasPrefix(chat, "@") {
		s.channel = chat
	} else {
		return nil, fmt.Errorf("telegram: invalid chat %q", chat)
	}
	return s, nil
}

// Send posts title in bold followed by message. The bot API client has no
// context support, so ctx is only checked before sending.
func (t *TelegramSender) Send(ctx context.Context, title, message string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	text := fmt.Sprintf("*%s*\n%s", escapeMarkdown(title), escapeMarkdown(message))

	var msg tgbotapi.MessageConfig
	if t.channel != "" {
		msg = tgbotapi.NewMessageToChannel(t.channel, text)
	} else {
		msg = tgbotapi.NewMessage(t.chatID, text)
	}
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	return nil
}

// Name returns the sender identifier.
func (t *TelegramSender) Name() string {
	return "telegram"
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escapeMarkdown escapes the legacy Markdown control characters, which show
// up in team names and URLs.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
