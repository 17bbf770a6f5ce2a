package renewal

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/slot-engine/internal/service"
)

type fakeRenewer struct {
	calls  atomic.Int32
	report service.RenewalReport
	err    error
	block  chan struct{}
}

func (f *fakeRenewer) CheckAndRenewAll(ctx context.Context) (service.RenewalReport, error) {
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return service.RenewalReport{}, ctx.Err()
		}
	}
	return f.report, f.err
}

type fakeCleaner struct {
	mu     sync.Mutex
	before []time.Time
}

func (f *fakeCleaner) CleanupExpired(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.before = append(f.before, before)
	return 3, nil
}

func newRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client), mr
}

func TestRedisLocker_ExclusiveUntilUnlock(t *testing.T) {
	ctx := context.Background()
	locker, mr := newRedisLocker(t)

	unlock, ok, err := locker.TryLock(ctx, "lease", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("lease"))

	_, ok, err = locker.TryLock(ctx, "lease", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("lease"))

	_, ok, err = locker.TryLock(ctx, "lease", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLocker_ExpiredLeaseIsNotStolenBack(t *testing.T) {
	ctx := context.Background()
	locker, mr := newRedisLocker(t)

	unlockA, ok, err := locker.TryLock(ctx, "lease", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	_, ok, err = locker.TryLock(ctx, "lease", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// Старый держатель не должен снять чужую аренду.
	require.NoError(t, unlockA(ctx))
	assert.True(t, mr.Exists("lease"))
}

func TestRedisLocker_RejectsZeroTTL(t *testing.T) {
	locker, _ := newRedisLocker(t)
	_, _, err := locker.TryLock(context.Background(), "lease", 0)
	assert.Error(t, err)
}

func TestScheduler_RunOnceRecordsLastRun(t *testing.T) {
	now := time.Date(2025, 1, 6, 3, 0, 0, 0, time.UTC)
	renewed := uuid.New()
	renewer := &fakeRenewer{report: service.RenewalReport{Renewed: []uuid.UUID{renewed}}}
	cleaner := &fakeCleaner{}

	s := NewScheduler(renewer, nil, Config{
		Cleaner:          cleaner,
		CleanupAfterDays: 2,
		Now:              func() time.Time { return now },
	})

	last, _ := s.LastRun()
	assert.True(t, last.IsZero())

	report, ran, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 1, report.RenewedCount())

	last, lastReport := s.LastRun()
	assert.Equal(t, now, last)
	assert.Equal(t, []uuid.UUID{renewed}, lastReport.Renewed)

	require.Len(t, cleaner.before, 1)
	assert.Equal(t, time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC), cleaner.before[0])
}

func TestScheduler_CleanupCutoffUsesScheduleTimezone(t *testing.T) {
	// 22:30 UTC 5 января: во Владивостоке (UTC+10) уже 6 января.
	now := time.Date(2025, 1, 5, 22, 30, 0, 0, time.UTC)
	vladivostok := time.FixedZone("UTC+10", 10*60*60)
	cleaner := &fakeCleaner{}

	s := NewScheduler(&fakeRenewer{}, nil, Config{
		Cleaner:          cleaner,
		CleanupAfterDays: 1,
		Location:         vladivostok,
		Now:              func() time.Time { return now },
	})
	_, _, err := s.RunOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, cleaner.before, 1)
	assert.Equal(t, "2025-01-05", cleaner.before[0].Format("2006-01-02"))
	assert.Equal(t, vladivostok, cleaner.before[0].Location())
}

func TestScheduler_RunOnceErrorKeepsLastRun(t *testing.T) {
	renewer := &fakeRenewer{err: errors.New("db down")}
	s := NewScheduler(renewer, nil, Config{})

	_, ran, err := s.RunOnce(context.Background())
	assert.True(t, ran)
	assert.Error(t, err)

	last, _ := s.LastRun()
	assert.True(t, last.IsZero())
}

func TestScheduler_LeaseHeldElsewhereSkipsRun(t *testing.T) {
	ctx := context.Background()
	locker, _ := newRedisLocker(t)

	_, ok, err := locker.TryLock(ctx, DefaultLeaseKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	renewer := &fakeRenewer{}
	s := NewScheduler(renewer, nil, Config{Locker: locker})

	_, ran, err := s.RunOnce(ctx)
	require.NoError(t, err)
	assert.False(t, ran)
	assert.EqualValues(t, 0, renewer.calls.Load())
}

func TestScheduler_LeaseReleasedAfterRun(t *testing.T) {
	ctx := context.Background()
	locker, mr := newRedisLocker(t)

	renewer := &fakeRenewer{}
	s := NewScheduler(renewer, nil, Config{Locker: locker, LeaseKey: "renew"})

	_, ran, err := s.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.False(t, mr.Exists("renew"))

	_, ran, err = s.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.EqualValues(t, 2, renewer.calls.Load())
}

func TestScheduler_ConcurrentReplicasRunOnce(t *testing.T) {
	ctx := context.Background()
	locker, _ := newRedisLocker(t)

	renewer := &fakeRenewer{block: make(chan struct{})}
	a := NewScheduler(renewer, nil, Config{Locker: locker})
	b := NewScheduler(renewer, nil, Config{Locker: locker})

	done := make(chan bool, 1)
	go func() {
		_, ran, _ := a.RunOnce(ctx)
		done <- ran
	}()

	require.Eventually(t, func() bool { return renewer.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	_, ran, err := b.RunOnce(ctx)
	require.NoError(t, err)
	assert.False(t, ran)

	close(renewer.block)
	assert.True(t, <-done)
	assert.EqualValues(t, 1, renewer.calls.Load())
}

func TestScheduler_RunStartsImmediatelyAndStops(t *testing.T) {
	renewer := &fakeRenewer{}
	s := NewScheduler(renewer, nil, Config{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(stopped)
	}()

	require.Eventually(t, func() bool { return renewer.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}
