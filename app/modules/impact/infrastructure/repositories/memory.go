package impactdb

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/uptrace/bun"
)

type memoryUser struct {
	activities []Activity
	stats      *UserStats
	badges     []UserBadge
	profile    *Profile
	lastSeen   time.Time
}

// MemoryRepository keeps everything in process memory. It backs guest
// sessions and database-less development runs; nothing survives a restart.
type MemoryRepository struct {
	mu     sync.RWMutex
	users  map[string]*memoryUser
	nextID int64
	now    func() time.Time
}

// NewMemoryRepository creates an empty in-memory store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users: make(map[string]*memoryUser),
		now:   time.Now,
	}
}

var _ Repository = (*MemoryRepository)(nil)

func (m *MemoryRepository) user(userID string) *memoryUser {
	u, ok := m.users[userID]
	if !ok {
		u = &memoryUser{}
		m.users[userID] = u
	}
	u.lastSeen = m.now()
	return u
}

func (m *MemoryRepository) InsertActivity(_ context.Context, _ bun.IDB, activity *Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = m.now().UTC()
	}
	u := m.user(activity.UserID)
	u.activities = append(u.activities, *activity)
	return nil
}

func (m *MemoryRepository) ListActivities(_ context.Context, _ bun.IDB, userID string, filter ActivityFilter) ([]Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, nil
	}

	out := make([]Activity, 0, len(u.activities))
	for _, a := range u.activities {
		if filter.Since != nil && a.CreatedAt.Before(*filter.Since) {
			continue
		}
		out = append(out, a)
	}
	// Insertion order breaks ties, newest insert first.
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b Activity) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MemoryRepository) GetStats(_ context.Context, _ bun.IDB, userID string) (*UserStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok || u.stats == nil {
		return nil, ErrNotFound
	}
	stats := *u.stats
	return &stats, nil
}

func (m *MemoryRepository) UpsertStats(_ context.Context, _ bun.IDB, stats *UserStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.user(stats.UserID)
	stats.UpdatedAt = m.now().UTC()
	stored := *stats
	if u.stats != nil {
		stored.LongestStreak = max(stored.LongestStreak, u.stats.LongestStreak)
	}
	u.stats = &stored
	return nil
}

func (m *MemoryRepository) InsertBadge(_ context.Context, _ bun.IDB, badge *UserBadge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.user(badge.UserID)
	for _, b := range u.badges {
		if b.BadgeID == badge.BadgeID {
			return ErrDuplicateBadge
		}
	}
	m.nextID++
	badge.ID = m.nextID
	if badge.UnlockedAt.IsZero() {
		badge.UnlockedAt = m.now().UTC()
	}
	u.badges = append(u.badges, *badge)
	return nil
}

func (m *MemoryRepository) ListBadges(_ context.Context, _ bun.IDB, userID string) ([]UserBadge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, nil
	}
	out := slices.Clone(u.badges)
	slices.SortStableFunc(out, func(a, b UserBadge) int {
		if c := b.UnlockedAt.Compare(a.UnlockedAt); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})
	return out, nil
}

func (m *MemoryRepository) GetProfile(_ context.Context, _ bun.IDB, userID string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok || u.profile == nil {
		return nil, ErrNotFound
	}
	profile := *u.profile
	return &profile, nil
}

func (m *MemoryRepository) UpsertProfile(_ context.Context, _ bun.IDB, profile *Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.user(profile.UserID)
	now := m.now().UTC()
	if u.profile != nil {
		profile.CreatedAt = u.profile.CreatedAt
	} else if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	stored := *profile
	u.profile = &stored
	return nil
}

// Sweep drops users with no writes for longer than maxIdle and returns how
// many went.
func (m *MemoryRepository) Sweep(maxIdle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-maxIdle)
	removed := 0
	for id, u := range m.users {
		if u.lastSeen.Before(cutoff) {
			delete(m.users, id)
			removed++
		}
	}
	return removed
}

// Len reports how many users are held.
func (m *MemoryRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}
