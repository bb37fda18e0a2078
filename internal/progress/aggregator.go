package progress

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/phrasebot/pkg/models"
	"github.com/google/uuid"
)

// Counter is the counting side of the phrase store
type Counter interface {
	CountLearned(ctx context.Context, owner uuid.UUID) (int, error)
	CountTotal(ctx context.Context, owner uuid.UUID) (int, error)
	CountLearnedSince(ctx context.Context, owner uuid.UUID, since time.Time) (int, error)
	CountAddedSince(ctx context.Context, owner uuid.UUID, since time.Time) (int, error)
	CountGroupedByOwner(ctx context.Context, since *time.Time) ([]models.OwnerProgress, error)
}

// Aggregator computes windowed progress counts
type Aggregator struct {
	counter   Counter
	location  *time.Location
	weekStart time.Weekday
	now       func() time.Time
}

// Option customizes an Aggregator
type Option func(*Aggregator)

// WithLocation sets the calendar used for window boundaries
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) { a.location = loc }
}

// WithWeekStart sets the first day of the week
func WithWeekStart(day time.Weekday) Option {
	return func(a *Aggregator) { a.weekStart = day }
}

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// NewAggregator creates an aggregator using local time and Monday-first weeks
func NewAggregator(counter Counter, opts ...Option) *Aggregator {
	a := &Aggregator{
		counter:   counter,
		location:  time.Local,
		weekStart: time.Monday,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Floors are the start instants of the monthly, weekly and daily windows
type Floors struct {
	Month time.Time
	Week  time.Time
	Day   time.Time
}

// WindowFloors computes window boundaries for the instant now in loc
func WindowFloors(now time.Time, loc *time.Location, weekStart time.Weekday) Floors {
	local := now.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	back := (int(local.Weekday()) - int(weekStart) + 7) % 7
	return Floors{
		Month: time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc),
		Week:  time.Date(local.Year(), local.Month(), local.Day()-back, 0, 0, 0, 0, loc),
		Day:   day,
	}
}

// GetProgress returns the owner's counters for every window
func (a *Aggregator) GetProgress(ctx context.Context, owner uuid.UUID) (models.Snapshot, error) {
	floors := WindowFloors(a.now(), a.location, a.weekStart)

	learned, err := a.counter.CountLearned(ctx, owner)
	if err != nil {
		return nil, err
	}
	total, err := a.counter.CountTotal(ctx, owner)
	if err != nil {
		return nil, err
	}

	snapshot := models.Snapshot{
		models.WindowTotal: {Learned: learned, Added: total},
	}

	windows := []struct {
		key   string
		floor time.Time
	}{
		{models.WindowMonthly, floors.Month},
		{models.WindowWeekly, floors.Week},
		{models.WindowDaily, floors.Day},
	}
	for _, w := range windows {
		learned, err := a.counter.CountLearnedSince(ctx, owner, w.floor)
		if err != nil {
			return nil, err
		}
		added, err := a.counter.CountAddedSince(ctx, owner, w.floor)
		if err != nil {
			return nil, err
		}
		snapshot[w.key] = models.Progress{Learned: learned, Added: added}
	}

	return snapshot, nil
}

// GetAllUsersProgress returns a snapshot for every owner with phrases. An owner
// without phrases in a window has no entry for that window.
func (a *Aggregator) GetAllUsersProgress(ctx context.Context) (map[uuid.UUID]models.Snapshot, error) {
	floors := WindowFloors(a.now(), a.location, a.weekStart)

	windows := []struct {
		key   string
		since *time.Time
	}{
		{models.WindowTotal, nil},
		{models.WindowMonthly, &floors.Month},
		{models.WindowWeekly, &floors.Week},
		{models.WindowDaily, &floors.Day},
	}

	result := make(map[uuid.UUID]models.Snapshot)
	for _, w := range windows {
		rows, err := a.counter.CountGroupedByOwner(ctx, w.since)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			snapshot, ok := result[row.OwnerUserAccountID]
			if !ok {
				snapshot = models.Snapshot{}
				result[row.OwnerUserAccountID] = snapshot
			}
			snapshot[w.key] = models.Progress{Learned: row.Learned, Added: row.Added}
		}
	}
	return result, nil
}

// ParseWeekday accepts English day names like "monday" or "Sun"
func ParseWeekday(value string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	for day := time.Sunday; day <= time.Saturday; day++ {
		name := strings.ToLower(day.String())
		if v == name || (len(v) >= 3 && strings.HasPrefix(name, v)) {
			return day, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", value)
}
