package impactservice

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"

	impactdb "github.com/terrapulse/impact-service/app/modules/impact/infrastructure/repositories"
)

// ------------------------
// Fake Impact Repo
// ------------------------

// FakeImpactRepo records every call. Methods without an override fall through
// to an in-memory store so multi-step flows behave like a real backend.
type FakeImpactRepo struct {
	trace []string
	store *impactdb.MemoryRepository

	InsertActivityFunc func(ctx context.Context, db bun.IDB, activity *impactdb.Activity) error
	ListActivitiesFunc func(ctx context.Context, db bun.IDB, userID string, filter impactdb.ActivityFilter) ([]impactdb.Activity, error)
	GetStatsFunc       func(ctx context.Context, db bun.IDB, userID string) (*impactdb.UserStats, error)
	UpsertStatsFunc    func(ctx context.Context, db bun.IDB, stats *impactdb.UserStats) error
	InsertBadgeFunc    func(ctx context.Context, db bun.IDB, badge *impactdb.UserBadge) error
	ListBadgesFunc     func(ctx context.Context, db bun.IDB, userID string) ([]impactdb.UserBadge, error)
	GetProfileFunc     func(ctx context.Context, db bun.IDB, userID string) (*impactdb.Profile, error)
	UpsertProfileFunc  func(ctx context.Context, db bun.IDB, profile *impactdb.Profile) error
}

func NewFakeImpactRepo() *FakeImpactRepo {
	return &FakeImpactRepo{
		trace: []string{},
		store: impactdb.NewMemoryRepository(),
	}
}

func (f *FakeImpactRepo) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeImpactRepo) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// --- Repository Interface Implementation ---

func (f *FakeImpactRepo) InsertActivity(ctx context.Context, db bun.IDB, activity *impactdb.Activity) error {
	f.record("InsertActivity")
	if f.InsertActivityFunc != nil {
		return f.InsertActivityFunc(ctx, db, activity)
	}
	return f.store.InsertActivity(ctx, db, activity)
}

func (f *FakeImpactRepo) ListActivities(ctx context.Context, db bun.IDB, userID string, filter impactdb.ActivityFilter) ([]impactdb.Activity, error) {
	f.record("ListActivities")
	if f.ListActivitiesFunc != nil {
		return f.ListActivitiesFunc(ctx, db, userID, filter)
	}
	return f.store.ListActivities(ctx, db, userID, filter)
}

func (f *FakeImpactRepo) GetStats(ctx context.Context, db bun.IDB, userID string) (*impactdb.UserStats, error) {
	f.record("GetStats")
	if f.GetStatsFunc != nil {
		return f.GetStatsFunc(ctx, db, userID)
	}
	return f.store.GetStats(ctx, db, userID)
}

func (f *FakeImpactRepo) UpsertStats(ctx context.Context, db bun.IDB, stats *impactdb.UserStats) error {
	f.record("UpsertStats")
	if f.UpsertStatsFunc != nil {
		return f.UpsertStatsFunc(ctx, db, stats)
	}
	return f.store.UpsertStats(ctx, db, stats)
}

func (f *FakeImpactRepo) InsertBadge(ctx context.Context, db bun.IDB, badge *impactdb.UserBadge) error {
	f.record("InsertBadge")
	if f.InsertBadgeFunc != nil {
		return f.InsertBadgeFunc(ctx, db, badge)
	}
	return f.store.InsertBadge(ctx, db, badge)
}

func (f *FakeImpactRepo) ListBadges(ctx context.Context, db bun.IDB, userID string) ([]impactdb.UserBadge, error) {
	f.record("ListBadges")
	if f.ListBadgesFunc != nil {
		return f.ListBadgesFunc(ctx, db, userID)
	}
	return f.store.ListBadges(ctx, db, userID)
}

func (f *FakeImpactRepo) GetProfile(ctx context.Context, db bun.IDB, userID string) (*impactdb.Profile, error) {
	f.record("GetProfile")
	if f.GetProfileFunc != nil {
		return f.GetProfileFunc(ctx, db, userID)
	}
	return f.store.GetProfile(ctx, db, userID)
}

func (f *FakeImpactRepo) UpsertProfile(ctx context.Context, db bun.IDB, profile *impactdb.Profile) error {
	f.record("UpsertProfile")
	if f.UpsertProfileFunc != nil {
		return f.UpsertProfileFunc(ctx, db, profile)
	}
	return f.store.UpsertProfile(ctx, db, profile)
}

var _ impactdb.Repository = (*FakeImpactRepo)(nil)

// ------------------------
// Fake Scheduler
// ------------------------

type FakeScheduler struct {
	mu    sync.Mutex
	calls []string

	ScheduleReconcileFunc func(ctx context.Context, userID string) error
}

func (f *FakeScheduler) ScheduleReconcile(ctx context.Context, userID string) error {
	f.mu.Lock()
	f.calls = append(f.calls, userID)
	f.mu.Unlock()
	if f.ScheduleReconcileFunc != nil {
		return f.ScheduleReconcileFunc(ctx, userID)
	}
	return nil
}

func (f *FakeScheduler) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

var _ ReconcileScheduler = (*FakeScheduler)(nil)

// ------------------------
// Fake Publisher
// ------------------------

type publishedMessage struct {
	Topic   string
	Payload []byte
}

type FakePublisher struct {
	mu        sync.Mutex
	published []publishedMessage

	PublishFunc func(topic string, messages ...*message.Message) error
}

func (f *FakePublisher) Publish(topic string, messages ...*message.Message) error {
	f.mu.Lock()
	for _, m := range messages {
		f.published = append(f.published, publishedMessage{Topic: topic, Payload: m.Payload})
	}
	f.mu.Unlock()
	if f.PublishFunc != nil {
		return f.PublishFunc(topic, messages...)
	}
	return nil
}

func (f *FakePublisher) Close() error { return nil }

func (f *FakePublisher) Topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.published))
	for i, m := range f.published {
		out[i] = m.Topic
	}
	return out
}

var _ message.Publisher = (*FakePublisher)(nil)
