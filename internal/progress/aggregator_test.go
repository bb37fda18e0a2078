package progress

import (
	"context"
	"testing"
	"time"

	"github.com/example/phrasebot/internal/database"
	"github.com/example/phrasebot/pkg/models"
	"github.com/google/uuid"
)

func TestWindowFloors(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}

	tests := []struct {
		name      string
		now       time.Time
		loc       *time.Location
		weekStart time.Weekday
		want      Floors
	}{
		{
			name:      "midweek monday start",
			now:       time.Date(2026, 10, 15, 14, 30, 0, 0, time.UTC), // Thursday
			loc:       time.UTC,
			weekStart: time.Monday,
			want: Floors{
				Month: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
				Week:  time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
				Day:   time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:      "today is the first day of week",
			now:       time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC), // Monday
			loc:       time.UTC,
			weekStart: time.Monday,
			want: Floors{
				Month: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
				Week:  time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
				Day:   time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:      "sunday start crosses month",
			now:       time.Date(2026, 10, 2, 9, 0, 0, 0, time.UTC), // Friday
			loc:       time.UTC,
			weekStart: time.Sunday,
			want: Floors{
				Month: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
				Week:  time.Date(2026, 9, 27, 0, 0, 0, 0, time.UTC),
				Day:   time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:      "local calendar differs from utc",
			now:       time.Date(2026, 10, 31, 23, 30, 0, 0, time.UTC), // already November 1st in Berlin
			loc:       berlin,
			weekStart: time.Monday,
			want: Floors{
				Month: time.Date(2026, 11, 1, 0, 0, 0, 0, berlin),
				Week:  time.Date(2026, 10, 26, 0, 0, 0, 0, berlin),
				Day:   time.Date(2026, 11, 1, 0, 0, 0, 0, berlin),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WindowFloors(tt.now, tt.loc, tt.weekStart)
			if !got.Month.Equal(tt.want.Month) {
				t.Errorf("month: expected %v, got %v", tt.want.Month, got.Month)
			}
			if !got.Week.Equal(tt.want.Week) {
				t.Errorf("week: expected %v, got %v", tt.want.Week, got.Week)
			}
			if !got.Day.Equal(tt.want.Day) {
				t.Errorf("day: expected %v, got %v", tt.want.Day, got.Day)
			}
		})
	}
}

func TestParseWeekday(t *testing.T) {
	for value, want := range map[string]time.Weekday{"monday": time.Monday, "Sun": time.Sunday, " SATURDAY ": time.Saturday} {
		got, err := ParseWeekday(value)
		if err != nil || got != want {
			t.Errorf("ParseWeekday(%q) = %v, %v; want %v", value, got, err, want)
		}
	}
	if _, err := ParseWeekday("someday"); err == nil {
		t.Error("expected error for unknown weekday")
	}
}

type seededPhrase struct {
	owner    uuid.UUID
	text     string
	inserted time.Time
	learned  bool
}

func setupAggregator(t *testing.T, now time.Time, seed []seededPhrase) *Aggregator {
	t.Helper()
	ctx := context.Background()
	db, err := database.Connect(ctx, database.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	phrases := database.NewPhraseRepository(db)
	for _, s := range seed {
		p := &models.Phrase{
			ExternalID:         uuid.New(),
			OriginalPhrase:     s.text,
			OriginalLanguage:   "SPANISH",
			Meaning:            s.text,
			MeaningLanguage:    "ENGLISH",
			Status:             models.StatusInProgress,
			OwnerUserAccountID: s.owner,
			InsertDateTime:     s.inserted,
		}
		if s.learned {
			p.Status = models.StatusLearned
			p.ConsecutiveCorrectAnswerAmount = 11
		}
		if err := phrases.Create(ctx, p, nil); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	return NewAggregator(database.NewProgressRepository(db),
		WithLocation(time.UTC),
		WithWeekStart(time.Monday),
		WithClock(func() time.Time { return now }))
}

func TestGetProgress(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) // Thursday
	owner := uuid.New()

	agg := setupAggregator(t, now, []seededPhrase{
		{owner, "last month learned", time.Date(2026, 9, 20, 10, 0, 0, 0, time.UTC), true},
		{owner, "this month", time.Date(2026, 10, 3, 10, 0, 0, 0, time.UTC), false},
		{owner, "this week learned", time.Date(2026, 10, 13, 10, 0, 0, 0, time.UTC), true},
		{owner, "monday midnight", time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), false},
		{owner, "today", time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC), false},
		{uuid.New(), "someone else", time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC), true},
	})

	got, err := agg.GetProgress(context.Background(), owner)
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}

	want := models.Snapshot{
		models.WindowTotal:   {Learned: 2, Added: 5},
		models.WindowMonthly: {Learned: 1, Added: 4},
		models.WindowWeekly:  {Learned: 1, Added: 3},
		models.WindowDaily:   {Learned: 0, Added: 1},
	}
	for _, key := range models.Windows {
		if got[key] != want[key] {
			t.Errorf("%s: expected %+v, got %+v", key, want[key], got[key])
		}
	}
}

func TestGetProgressWithoutPhrases(t *testing.T) {
	agg := setupAggregator(t, time.Now(), nil)

	got, err := agg.GetProgress(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}
	if len(got) != len(models.Windows) {
		t.Fatalf("expected every window, got %v", got)
	}
	for _, key := range models.Windows {
		if got[key] != (models.Progress{}) {
			t.Errorf("%s: expected zeros, got %+v", key, got[key])
		}
	}
}

func TestGetAllUsersProgress(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	alice := uuid.New()
	bob := uuid.New()

	agg := setupAggregator(t, now, []seededPhrase{
		{alice, "today learned", time.Date(2026, 10, 15, 7, 0, 0, 0, time.UTC), true},
		{alice, "old", time.Date(2026, 8, 1, 7, 0, 0, 0, time.UTC), false},
		{bob, "old learned", time.Date(2026, 9, 1, 7, 0, 0, 0, time.UTC), true},
	})

	all, err := agg.GetAllUsersProgress(context.Background())
	if err != nil {
		t.Fatalf("GetAllUsersProgress failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 owners, got %d", len(all))
	}

	a := all[alice]
	if a[models.WindowTotal] != (models.Progress{Learned: 1, Added: 2}) {
		t.Errorf("alice total: %+v", a[models.WindowTotal])
	}
	if a[models.WindowDaily] != (models.Progress{Learned: 1, Added: 1}) {
		t.Errorf("alice daily: %+v", a[models.WindowDaily])
	}

	b := all[bob]
	if b[models.WindowTotal] != (models.Progress{Learned: 1, Added: 1}) {
		t.Errorf("bob total: %+v", b[models.WindowTotal])
	}
	for _, key := range []string{models.WindowMonthly, models.WindowWeekly, models.WindowDaily} {
		if _, ok := b[key]; ok {
			t.Errorf("bob has no phrases in %s and should have no entry", key)
		}
	}
}
