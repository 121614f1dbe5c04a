// Package telegram provides a client for sending analysis summaries via Telegram Bot API.
// It formats a report into a MarkdownV2 message, optionally follows it with the
// rendered histograms, and retries failed deliveries with a linear backoff.
package telegram

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/keagraha/Cluster-Research-Stuff/internal/report"
)

// maxMessageLength is Telegram's limit for a single text message.
const maxMessageLength = 4096

// maxCatalogLength caps the catalog path shown in the message header.
const maxCatalogLength = 256

// sender is the part of tgbotapi.BotAPI the client uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client handles Telegram notifications
type Client struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return newClient(bot, chatID, maxRetries, retryDelayBase)
}

func newClient(bot sender, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// SendReport sends the text summary of a report
func (c *Client) SendReport(ctx context.Context, r report.Report) error {
	msg := tgbotapi.NewMessage(c.chatID, formatMessage(r))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	return c.send(ctx, msg)
}

// SendCharts uploads rendered charts. Raster images are sent as photos,
// anything else as documents.
func (c *Client) SendCharts(ctx context.Context, paths []string) error {
	for _, path := range paths {
		var msg tgbotapi.Chattable
		caption := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		switch strings.ToLower(filepath.Ext(path)) {
		case ".png", ".jpg", ".jpeg":
			photo := tgbotapi.NewPhoto(c.chatID, tgbotapi.FilePath(path))
			photo.Caption = caption
			msg = photo
		default:
			doc := tgbotapi.NewDocument(c.chatID, tgbotapi.FilePath(path))
			doc.Caption = caption
			msg = doc
		}
		if err := c.send(ctx, msg); err != nil {
			return fmt.Errorf("failed to send chart %s: %w", path, err)
		}
	}
	return nil
}

// send delivers msg, retrying with a linearly growing delay.
func (c *Client) send(ctx context.Context, msg tgbotapi.Chattable) error {
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err

		if i == c.maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelayBase * time.Duration(i+1)):
		}
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatMessage formats a report into a Telegram MarkdownV2 message
func formatMessage(r report.Report) string {
	var b strings.Builder
	b.WriteString("*Cluster catalog summary*\n")
	fmt.Fprintf(&b, "Catalog: %s\n", escapeMarkdownV2(truncate(r.Catalog, maxCatalogLength)))
	fmt.Fprintf(&b, "Run: `%s`\n\n", r.RunID)

	body := escapePre(report.Text(r, false))
	// Leave room for the fences and the ellipsis.
	if limit := maxMessageLength - b.Len() - 16; len(body) > limit {
		body = strings.TrimRight(truncate(body, limit), "\\") + "\n…"
	}
	b.WriteString("```\n")
	b.WriteString(body)
	b.WriteString("```")
	return b.String()
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	// Characters that need escaping in MarkdownV2:
	// _ * [ ] ( ) ~ ` > # + - = | { } . !
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}

// escapePre escapes text for a MarkdownV2 pre block, where only ` and \ are special.
func escapePre(text string) string {
	return strings.NewReplacer("\\", "\\\\", "`", "\\`").Replace(text)
}
