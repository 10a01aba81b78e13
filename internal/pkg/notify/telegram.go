package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vodeneev/keepgaming/internal/pkg/config"
	"github.com/Vodeneev/keepgaming/internal/tracker"
)

// Min interval between two messages to the same chat (~30/min limit).
const telegramSendInterval = 2 * time.Second

// sender is the part of the bot API the notifier uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// SourceReport is what one source did in a cycle.
type SourceReport struct {
	Source     string
	Sheet      string
	Live       int
	Created    int
	Updated    int
	Frozen     int
	Appended   int
	Obsolete   int
	Mismatches []tracker.Mismatch
	Err        error
}

// TelegramNotifier posts cycle summaries and name mismatches to one chat.
// A nil notifier is valid and sends nothing.
type TelegramNotifier struct {
	bot      sender
	chatID   int64
	interval time.Duration

	mu       sync.Mutex
	lastSend time.Time
}

// NewTelegramNotifier returns nil without error when no bot token is configured.
func NewTelegramNotifier(cfg config.TelegramConfig) (*TelegramNotifier, error) {
	if cfg.BotToken == "" {
		slog.Info("Telegram notifier disabled (no bot token)")
		return nil, nil
	}
	if cfg.ChatID == 0 {
		return nil, fmt.Errorf("telegram: chat_id is required with a bot token")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = false

	slog.Info("Telegram notifier initialized", "chat_id", cfg.ChatID, "bot", bot.Self.UserName)
	return newNotifier(bot, cfg.ChatID, telegramSendInterval), nil
}

func newNotifier(bot sender, chatID int64, interval time.Duration) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatID: chatID, interval: interval}
}

// SendCycleSummary reports a whole cycle in one message.
func (n *TelegramNotifier) SendCycleSummary(ctx context.Context, started time.Time, reports []SourceReport) error {
	if n == nil {
		return nil
	}
	return n.send(ctx, formatSummary(started, reports))
}

// SendMismatches lists names that matched a prediction on one side only. Nothing is sent
// when there are none.
func (n *TelegramNotifier) SendMismatches(ctx context.Context, source string, mismatches []tracker.Mismatch) error {
	if n == nil || len(mismatches) == 0 {
		return nil
	}
	return n.send(ctx, formatMismatches(source, mismatches))
}

func (n *TelegramNotifier) send(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	n.mu.Lock()
	defer n.mu.Unlock()

	if elapsed := time.Since(n.lastSend); elapsed < n.interval {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(n.interval - elapsed):
		}
	}
	n.lastSend = time.Now()

	if _, err := n.bot.Send(msg); err != nil {
		slog.Error("Telegram send: failed", "error", err, "message_preview", truncateString(text, 50))
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	slog.Debug("Telegram send: success", "message_preview", truncateString(text, 50))
	return nil
}

func formatSummary(started time.Time, reports []SourceReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Keep Gaming* %s\n", escapeMarkdown(started.Format("2006-01-02 15:04")))
	for _, r := range reports {
		b.WriteString("\n")
		if r.Err != nil {
			fmt.Fprintf(&b, "❌ *%s*: %s\n", escapeMarkdown(r.Source), escapeMarkdown(truncateString(r.Err.Error(), 200)))
			continue
		}
		fmt.Fprintf(&b, "✅ *%s*: %d live\n", escapeMarkdown(r.Source), r.Live)
		line := fmt.Sprintf("new %d, updated %d, in progress %d, sheet +%d/-%d",
			r.Created, r.Updated, r.Frozen, r.Appended, r.Obsolete)
		if len(r.Mismatches) > 0 {
			line += fmt.Sprintf(", %d name mismatches", len(r.Mismatches))
		}
		b.WriteString(escapeMarkdown(line))
		b.WriteString("\n")
	}
	return b.String()
}

func formatMismatches(source string, mismatches []tracker.Mismatch) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Name mismatches* \\(%s\\)\n", escapeMarkdown(source))
	for _, m := range mismatches {
		fmt.Fprintf(&b, "\n`%s` vs `%s`", escapeCode(m.Predicted), escapeCode(m.Event))
	}
	return b.String()
}

// truncateString keeps the first maxLen runes of s.
func truncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"(", "\\(",
		")", "\\)",
		"~", "\\~",
		"`", "\\`",
		">", "\\>",
		"#", "\\#",
		"+", "\\+",
		"-", "\\-",
		"=", "\\=",
		"|", "\\|",
		"{", "\\{",
		"}", "\\}",
		".", "\\.",
		"!", "\\!",
	)
	return replacer.Replace(text)
}

// escapeCode escapes text inside a `code` span.
func escapeCode(text string) string {
	return strings.NewReplacer("\\", "\\\\", "`", "\\`").Replace(text)
}
