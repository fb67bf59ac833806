package publishers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/paddock-hq/paddock-news/internal/domain"
	"github.com/paddock-hq/paddock-news/internal/logger"
)

// telegramSender is the part of tgbotapi.BotAPI used for delivery.
type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type telegramPublisher struct {
	id     string
	chatID int64
	bot    telegramSender
	log    logger.Logger
}

func newTelegramPublisher(_ context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.Telegram == nil {
		return nil, fmt.Errorf("publisher %q missing telegram configuration", cfg.ID)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &telegramPublisher{
		id:     cfg.ID,
		chatID: cfg.Telegram.ChatID,
		bot:    bot,
		log:    logger.Ensure(log),
	}, nil
}

func (t *telegramPublisher) ID() string   { return t.id }
func (t *telegramPublisher) Type() string { return TypeTelegram }

// Publish posts the headline to the configured chat.
func (t *telegramPublisher) Publish(ctx context.Context, evt Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, formatHeadlineMessage(evt.Headline))
	msg.ParseMode = "MarkdownV2"

	sent, err := t.bot.Send(msg)
	if err != nil {
		t.log.ErrorObj("telegram publisher send failed", "publisher_telegram_error", map[string]any{
			"publisher_id": t.id,
			"error":        err.Error(),
		})
		return fmt.Errorf("send telegram message: %w", err)
	}
	t.log.DebugObj("telegram publisher delivered event", "publisher_telegram_delivery", map[string]any{
		"publisher_id": t.id,
		"event_id":     evt.ID,
		"message_id":   sent.MessageID,
	})
	return nil
}

func formatHeadlineMessage(item domain.FeedItem) string {
	const msgFormat = "*%s*\n\n%s\n\n%s"
	return fmt.Sprintf(msgFormat,
		escapeMarkdown(item.Title),
		escapeMarkdown(item.Teaser(domain.TeaserLength)),
		escapeMarkdown(item.Link),
	)
}

var markdownReplacer = strings.NewReplacer(
	`\`, `\\`,
	"_", `\_`,
	"*", `\*`,
	"[", `\[`,
	"]", `\]`,
	"(", `\(`,
	")", `\)`,
	"~", `\~`,
	"`", "\\`",
	">", `\>`,
	"#", `\#`,
	"+", `\+`,
	"-", `\-`,
	"=", `\=`,
	"|", `\|`,
	"{", `\{`,
	"}", `\}`,
	".", `\.`,
	"!", `\!`,
)

// escapeMarkdown escapes the characters MarkdownV2 reserves.
func escapeMarkdown(src string) string {
	return markdownReplacer.Replace(src)
}
