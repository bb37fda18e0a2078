package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/example/phrasebot/pkg/models"
)

// LogPublisher writes progress messages to the structured log.
// Used when no chat transport is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a publisher on top of logger, or the default logger if nil
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

// Publish implements Publisher
func (p *LogPublisher) Publish(ctx context.Context, topic string, msg models.ProgressMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode progress message: %w", err)
	}
	p.logger.InfoContext(ctx, "progress message", "topic", topic, "payload", string(payload))
	return nil
}
