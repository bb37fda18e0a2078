package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/phrasebot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the part of tgbotapi.BotAPI the bot uses
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot publishes progress messages to Telegram chats
type Bot struct {
	api    sender
	config *BotConfig
}

// New connects to the Telegram Bot API
func New(config *BotConfig) (*Bot, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("telegram bot token is not set")
	}

	api, err := tgbotapi.NewBotAPI(config.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	slog.Info("authorized on telegram", "account", api.Self.UserName)

	return &Bot{api: api, config: config}, nil
}

// Publish sends the message to the chat configured for the topic
func (b *Bot) Publish(ctx context.Context, topic string, msg models.ProgressMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	chatID, err := b.config.ChatFor(topic)
	if err != nil {
		return err
	}

	text, err := FormatProgress(msg)
	if err != nil {
		return err
	}

	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("failed to send progress of %s: %w", msg.OwnerUserAccountID, err)
	}
	return nil
}

var windowTitles = map[string]string{
	models.WindowTotal:   "Total",
	models.WindowMonthly: "This month",
	models.WindowWeekly:  "This week",
	models.WindowDaily:   "Today",
}

// FormatProgress renders a readable summary followed by the JSON payload
func FormatProgress(msg models.ProgressMessage) (string, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to encode progress message: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 Progress of %s\n", msg.OwnerUserAccountID)
	for _, key := range models.Windows {
		p, ok := msg.Progress[key]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "%s: %d learned, %d added\n", windowTitles[key], p.Learned, p.Added)
	}
	sb.WriteString("\n")
	sb.Write(payload)
	return sb.String(), nil
}
