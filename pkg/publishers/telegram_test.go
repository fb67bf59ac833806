package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/paddock-hq/paddock-news/internal/logger"
)

type fakeTelegramBot struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeTelegramBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func TestTelegramPublisherSendsEscapedMarkdown(t *testing.T) {
	bot := &fakeTelegramBot{}
	pub := &telegramPublisher{id: "tg", chatID: -1001, bot: bot, log: logger.NopLogger{}}

	if err := pub.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(bot.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(bot.sent))
	}
	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("unexpected chattable %T", bot.sent[0])
	}
	if msg.ChatID != -1001 || msg.ParseMode != "MarkdownV2" {
		t.Fatalf("unexpected message config: chat=%d mode=%s", msg.ChatID, msg.ParseMode)
	}
	if !strings.HasPrefix(msg.Text, "*Race Preview*") {
		t.Fatalf("expected bold title, got %q", msg.Text)
	}
	if !strings.Contains(msg.Text, `formula1\.com/en/latest/article/race\-preview`) {
		t.Fatalf("expected escaped link, got %q", msg.Text)
	}
}

func TestTelegramPublisherError(t *testing.T) {
	pub := &telegramPublisher{id: "tg", chatID: 1, bot: &fakeTelegramBot{err: errors.New("forbidden")}, log: logger.NopLogger{}}
	if err := pub.Publish(context.Background(), sampleEvent()); err == nil {
		t.Fatal("expected error")
	}
}

func TestTelegramPublisherHonoursCancelledContext(t *testing.T) {
	bot := &fakeTelegramBot{}
	pub := &telegramPublisher{id: "tg", chatID: 1, bot: bot, log: logger.NopLogger{}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pub.Publish(ctx, sampleEvent()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(bot.sent) != 0 {
		t.Fatal("nothing should be sent after cancellation")
	}
}

func TestEscapeMarkdown(t *testing.T) {
	got := escapeMarkdown("Hamilton (P1) - 1:12.345!")
	want := `Hamilton \(P1\) \- 1:12\.345\!`
	if got != want {
		t.Fatalf("escapeMarkdown = %q, want %q", got, want)
	}
}
