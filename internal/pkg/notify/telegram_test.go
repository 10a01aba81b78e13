package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vodeneev/keepgaming/internal/pkg/config"
	"github.com/Vodeneev/keepgaming/internal/tracker"
)

type fakeBot struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

func TestNilNotifierIsNoop(t *testing.T) {
	var n *TelegramNotifier
	if err := n.SendCycleSummary(context.Background(), time.Now(), nil); err != nil {
		t.Errorf("SendCycleSummary() = %v", err)
	}
	if err := n.SendMismatches(context.Background(), "NCAAM", []tracker.Mismatch{{Predicted: "a", Event: "b"}}); err != nil {
		t.Errorf("SendMismatches() = %v", err)
	}
}

func TestNewTelegramNotifier_DisabledWithoutToken(t *testing.T) {
	n, err := NewTelegramNotifier(config.TelegramConfig{})
	if err != nil || n != nil {
		t.Errorf("NewTelegramNotifier() = %v, %v; want nil, nil", n, err)
	}
	if _, err := NewTelegramNotifier(config.TelegramConfig{BotToken: "x"}); err == nil {
		t.Error("expected error without chat id")
	}
}

func TestSendCycleSummary(t *testing.T) {
	bot := &fakeBot{}
	n := newNotifier(bot, 42, 0)
	started := time.Date(2026, time.October, 15, 19, 5, 0, 0, time.UTC)

	err := n.SendCycleSummary(context.Background(), started, []SourceReport{
		{Source: "NCAAM", Live: 12, Created: 2, Updated: 10, Appended: 2, Obsolete: 1,
			Mismatches: []tracker.Mismatch{{Predicted: "Saint Marys Gaels", Event: "Saint Marys"}}},
		{Source: "CFB", Err: errors.New("draftkings: status 503")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(bot.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(bot.sent))
	}
	msg := bot.sent[0]
	if msg.ChatID != 42 || msg.ParseMode != tgbotapi.ModeMarkdownV2 {
		t.Errorf("chat = %d, mode = %q", msg.ChatID, msg.ParseMode)
	}
	for _, want := range []string{"2026\\-10\\-15 19:05", "*NCAAM*: 12 live", "sheet \\+2/\\-1", "1 name mismatches", "*CFB*: draftkings: status 503"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("message missing %q:\n%s", want, msg.Text)
		}
	}
}

func TestSendMismatches(t *testing.T) {
	bot := &fakeBot{}
	n := newNotifier(bot, 1, 0)

	if err := n.SendMismatches(context.Background(), "NCAAM", nil); err != nil || len(bot.sent) != 0 {
		t.Fatalf("empty mismatches sent a message")
	}
	err := n.SendMismatches(context.Background(), "NCAAM", []tracker.Mismatch{{Predicted: "Saint Marys Gaels", Event: "Saint Marys"}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(bot.sent[0].Text, "`Saint Marys Gaels` vs `Saint Marys`") {
		t.Errorf("text = %q", bot.sent[0].Text)
	}
}

func TestSend_ReturnsBotError(t *testing.T) {
	n := newNotifier(&fakeBot{err: errors.New("429")}, 1, 0)
	if err := n.SendCycleSummary(context.Background(), time.Now(), nil); err == nil {
		t.Error("expected error")
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"Duke −3.5", 9, "Duke −3.5"},
		{"Duke −3.5 at UNC", 6, "Duke −..."},
		{"Québec", 3, "Qué..."},
	}
	for _, tt := range tests {
		got := truncateString(tt.in, tt.maxLen)
		if got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncateString(%q, %d) = %q is not valid UTF-8", tt.in, tt.maxLen, got)
		}
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Saint Mary's (CA)", "Saint Mary's \\(CA\\)"},
		{"C:\\path", "C:\\\\path"},
		{"a_b.c!", "a\\_b\\.c\\!"},
	}
	for _, tt := range tests {
		if got := escapeMarkdown(tt.in); got != tt.want {
			t.Errorf("escapeMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
