package infrastructure

import (
	"context"
	"fmt"

	"renewal_notifier/internal/entities"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// TelegramAlerter forwards disconnect notifications to an operator chat.
type TelegramAlerter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramAlerter(token string, chatID int64) (*TelegramAlerter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram token: %w", err)
	}
	log.Info().Str("bot", bot.Self.UserName).Int64("chat_id", chatID).Msg("Telegram alerts enabled")
	return &TelegramAlerter{bot: bot, chatID: chatID}, nil
}

func (t *TelegramAlerter) Alert(ctx context.Context, n *entities.WhatsAppNotification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, formatAlert(n))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram alert: %w", err)
	}
	return nil
}

func formatAlert(n *entities.WhatsAppNotification) string {
	return fmt.Sprintf("⚠️ <b>%s</b>\n%s\n\nUsuário: <code>%s</code>",
		tgbotapi.EscapeText(tgbotapi.ModeHTML, n.Title),
		tgbotapi.EscapeText(tgbotapi.ModeHTML, n.Message),
		n.UserID.String())
}
