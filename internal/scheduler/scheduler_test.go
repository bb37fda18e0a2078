package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/phrasebot/pkg/models"
	"github.com/google/uuid"
)

type fakeSource struct {
	progress map[uuid.UUID]models.Snapshot
	err      error
	panics   bool
}

func (f *fakeSource) GetAllUsersProgress(ctx context.Context) (map[uuid.UUID]models.Snapshot, error) {
	if f.panics {
		panic("boom")
	}
	return f.progress, f.err
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []models.ProgressMessage
	topics   []string
	failFor  uuid.UUID
}

func (f *fakePublisher) Publish(ctx context.Context, topic string, msg models.ProgressMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg.OwnerUserAccountID == f.failFor {
		return errors.New("transport down")
	}
	f.messages = append(f.messages, msg)
	f.topics = append(f.topics, topic)
	return nil
}

func TestBroadcastNowPublishesOneMessagePerOwner(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	source := &fakeSource{progress: map[uuid.UUID]models.Snapshot{
		alice: {models.WindowTotal: {Learned: 3, Added: 7}},
		bob:   {models.WindowTotal: {Learned: 0, Added: 1}, models.WindowDaily: {Learned: 0, Added: 1}},
	}}
	publisher := &fakePublisher{}
	fixed := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	s := New(source, publisher, Config{Topic: "progress", Location: time.UTC})
	s.now = func() time.Time { return fixed }

	if err := s.BroadcastNow(context.Background()); err != nil {
		t.Fatalf("BroadcastNow failed: %v", err)
	}
	if len(publisher.messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(publisher.messages))
	}

	byOwner := map[uuid.UUID]models.ProgressMessage{}
	for i, msg := range publisher.messages {
		if publisher.topics[i] != "progress" {
			t.Errorf("expected topic progress, got %q", publisher.topics[i])
		}
		if !msg.Timestamp.Equal(fixed) {
			t.Errorf("expected timestamp %v, got %v", fixed, msg.Timestamp)
		}
		byOwner[msg.OwnerUserAccountID] = msg
	}
	if byOwner[alice].Progress[models.WindowTotal].Learned != 3 {
		t.Errorf("alice message carries wrong progress: %+v", byOwner[alice])
	}
	if len(byOwner[bob].Progress) != 2 {
		t.Errorf("bob message carries wrong progress: %+v", byOwner[bob])
	}
}

func TestBroadcastNowContinuesAfterPublishFailure(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	source := &fakeSource{progress: map[uuid.UUID]models.Snapshot{
		alice: {models.WindowTotal: {Added: 1}},
		bob:   {models.WindowTotal: {Added: 2}},
	}}
	publisher := &fakePublisher{failFor: alice}

	err := New(source, publisher, Config{}).BroadcastNow(context.Background())
	if err == nil || !strings.Contains(err.Error(), alice.String()) {
		t.Fatalf("expected error naming the failed owner, got %v", err)
	}
	if len(publisher.messages) != 1 || publisher.messages[0].OwnerUserAccountID != bob {
		t.Errorf("expected bob to still be published, got %+v", publisher.messages)
	}
}

func TestBroadcastProgressSwallowsFailures(t *testing.T) {
	publisher := &fakePublisher{}

	for _, source := range []*fakeSource{
		{err: errors.New("database unavailable")},
		{panics: true},
	} {
		s := New(source, publisher, Config{})
		// Must neither panic nor propagate
		s.broadcastProgress()
	}
	if len(publisher.messages) != 0 {
		t.Errorf("expected nothing published, got %d", len(publisher.messages))
	}
}

func TestStartRegistersDailyJob(t *testing.T) {
	s := New(&fakeSource{}, &fakePublisher{}, Config{At: "09:00", Location: time.UTC})
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	if jobs := s.scheduler.Jobs(); len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
}

func TestStartRejectsBadTime(t *testing.T) {
	s := New(&fakeSource{}, &fakePublisher{}, Config{At: "nine o'clock"})
	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatal("expected error for malformed time")
	}
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(slog.New(slog.NewTextHandler(&buf, nil)))
	owner := uuid.New()

	err := p.Publish(context.Background(), "user-progress", models.ProgressMessage{
		OwnerUserAccountID: owner,
		Progress:           models.Snapshot{models.WindowDaily: {Learned: 1, Added: 2}},
	})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "topic=user-progress") || !strings.Contains(out, owner.String()) {
		t.Errorf("unexpected log output: %s", out)
	}
}
