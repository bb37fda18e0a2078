package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/example/phrasebot/pkg/models"
	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
)

// Defaults for the daily progress broadcast
const (
	DefaultBroadcastAt = "09:00"
	DefaultTopic       = "user-progress"
	runTimeout         = 5 * time.Minute
)

// ProgressSource supplies progress of every owner
type ProgressSource interface {
	GetAllUsersProgress(ctx context.Context) (map[uuid.UUID]models.Snapshot, error)
}

// Publisher delivers progress messages to a topic
type Publisher interface {
	Publish(ctx context.Context, topic string, msg models.ProgressMessage) error
}

// Config controls when and where progress is broadcast
type Config struct {
	At       string // HH:MM in Location
	Location *time.Location
	Topic    string
}

// Scheduler broadcasts every owner's progress once a day
type Scheduler struct {
	scheduler *gocron.Scheduler
	source    ProgressSource
	publisher Publisher
	config    Config
	now       func() time.Time
}

// New creates a new scheduler instance
func New(source ProgressSource, publisher Publisher, config Config) *Scheduler {
	if config.At == "" {
		config.At = DefaultBroadcastAt
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.Topic == "" {
		config.Topic = DefaultTopic
	}

	s := gocron.NewScheduler(config.Location)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		source:    source,
		publisher: publisher,
		config:    config,
		now:       time.Now,
	}
}

// Start registers the daily job and runs the scheduler in the background
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(1).Day().At(s.config.At).Do(s.broadcastProgress); err != nil {
		return fmt.Errorf("failed to schedule progress broadcast at %s: %w", s.config.At, err)
	}
	s.scheduler.StartAsync()
	slog.Info("progress broadcast scheduled", "at", s.config.At, "location", s.config.Location.String(), "topic", s.config.Topic)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// broadcastProgress is the scheduled job. Nothing escapes it: errors and panics
// are logged and the next day's run goes ahead as usual.
func (s *Scheduler) broadcastProgress() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("progress broadcast panicked", "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if err := s.BroadcastNow(ctx); err != nil {
		slog.Error("progress broadcast failed", "error", err)
	}
}

// BroadcastNow publishes one message per owner. A failed publish does not stop
// the remaining owners; all failures are returned together.
func (s *Scheduler) BroadcastNow(ctx context.Context) error {
	all, err := s.source.GetAllUsersProgress(ctx)
	if err != nil {
		return fmt.Errorf("failed to compute progress: %w", err)
	}

	owners := make([]uuid.UUID, 0, len(all))
	for owner := range all {
		owners = append(owners, owner)
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i].String() < owners[j].String() })

	timestamp := s.now()
	var errs []error
	sent := 0
	for _, owner := range owners {
		msg := models.ProgressMessage{
			OwnerUserAccountID: owner,
			Progress:           all[owner],
			Timestamp:          timestamp,
		}
		if err := s.publisher.Publish(ctx, s.config.Topic, msg); err != nil {
			slog.Warn("failed to publish progress", "owner", owner, "error", err)
			errs = append(errs, fmt.Errorf("owner %s: %w", owner, err))
			continue
		}
		sent++
	}

	slog.Info("progress broadcast finished", "owners", len(owners), "sent", sent)
	return errors.Join(errs...)
}
