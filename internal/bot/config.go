package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// BotConfig represents the configuration for the Telegram transport
type BotConfig struct {
	// Bot API token
	Token string
	// Chat that receives messages of topics without their own chat
	DefaultChatID int64
	// Per-topic chat overrides
	TopicChats map[string]int64
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		TopicChats: map[string]int64{},
	}
}

// ChatFor returns the chat that receives messages of a topic
func (c *BotConfig) ChatFor(topic string) (int64, error) {
	if id, ok := c.TopicChats[topic]; ok {
		return id, nil
	}
	if c.DefaultChatID != 0 {
		return c.DefaultChatID, nil
	}
	return 0, fmt.Errorf("no chat configured for topic %q", topic)
}

// ParseTopicChats reads "topic=chatID" pairs separated by commas
func ParseTopicChats(value string) (map[string]int64, error) {
	chats := map[string]int64{}
	for _, pair := range strings.Split(value, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		topic, id, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid topic chat %q, expected topic=chatID", pair)
		}
		chatID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat id for topic %q: %w", topic, err)
		}
		chats[strings.TrimSpace(topic)] = chatID
	}
	return chats, nil
}
