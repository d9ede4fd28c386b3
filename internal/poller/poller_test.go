package poller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UninstallAll/PhDAuto/internal/domain"
)

// fakeNotifier behaves like the backend deadline check: every call raises
// one more reminder for the single upcoming deadline.
type fakeNotifier struct {
	mu       sync.Mutex
	calls    []string
	checked  []int
	fail     bool
	reminded int
}

func (f *fakeNotifier) CheckDeadlines(_ context.Context, days int) []domain.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "check")
	f.checked = append(f.checked, days)
	if f.fail {
		return nil
	}
	f.reminded++
	return []domain.Record{domain.Record(`{"id":1,"type":"deadline"}`)}
}

func (f *fakeNotifier) FetchNotifications(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "fetch")
}

type memCheckLog struct {
	day   string
	saves int
}

func (m *memCheckLog) LastDeadlineCheck(context.Context) (string, error) { return m.day, nil }

func (m *memCheckLog) SaveDeadlineCheck(_ context.Context, day string) error {
	m.day = day
	m.saves++
	return nil
}

var hourly = Schedules{Refresh: "@every 1h", DeadlineCheck: "@daily"}

func newTestPoller(t *testing.T, n Notifier, days int, at *time.Time, opts ...Option) (*Poller, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	p, err := New(hourly, n, days, logger, opts...)
	require.NoError(t, err)
	p.now = func() time.Time { return *at }
	return p, hook
}

func TestTickChecksThenFetches(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	n := &fakeNotifier{}
	p, hook := newTestPoller(t, n, 7, &now)

	p.Tick()
	assert.Equal(t, []string{"check", "fetch"}, n.calls)
	assert.Equal(t, []int{7}, n.checked)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "poller", hook.LastEntry().Data["component"])
}

func TestDeadlinesCheckedOncePerDay(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	n := &fakeNotifier{}
	p, _ := newTestPoller(t, n, 7, &now)

	for i := 0; i < 3; i++ {
		p.Tick()
		now = now.Add(5 * time.Minute)
	}
	assert.Equal(t, 1, n.reminded)
	assert.Equal(t, []string{"check", "fetch", "fetch", "fetch"}, n.calls)

	now = now.Add(24 * time.Hour)
	p.Tick()
	assert.Equal(t, 2, n.reminded)
}

func TestRefreshNeverChecks(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	n := &fakeNotifier{}
	p, _ := newTestPoller(t, n, 7, &now)

	p.Refresh()
	p.Refresh()
	assert.Equal(t, []string{"fetch", "fetch"}, n.calls)
}

func TestFailedCheckIsRetried(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	n := &fakeNotifier{fail: true}
	log := &memCheckLog{}
	p, _ := newTestPoller(t, n, 7, &now, WithCheckLog(log))

	p.CheckDeadlines()
	assert.Empty(t, log.day)

	n.fail = false
	p.CheckDeadlines()
	assert.Equal(t, "2026-10-19", log.day)
	assert.Equal(t, []int{7, 7}, n.checked)
}

func TestCheckLogSurvivesRestart(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	log := &memCheckLog{}

	first, _ := newTestPoller(t, &fakeNotifier{}, 7, &now, WithCheckLog(log))
	first.Tick()
	require.Equal(t, 1, log.saves)

	n := &fakeNotifier{}
	second, _ := newTestPoller(t, n, 7, &now, WithCheckLog(log))
	second.Tick()
	assert.Equal(t, 0, n.reminded)
	assert.Equal(t, []string{"fetch"}, n.calls)
}

func TestTickWithoutDeadlineCheck(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	n := &fakeNotifier{}
	p, _ := newTestPoller(t, n, 0, &now)

	p.Tick()
	assert.Equal(t, []string{"fetch"}, n.calls)
}

func TestNewRejectsBadSpec(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := New(Schedules{Refresh: "every now and then", DeadlineCheck: "@daily"}, &fakeNotifier{}, 7, logger)
	assert.Error(t, err)

	_, err = New(Schedules{Refresh: "@every 5m", DeadlineCheck: "whenever"}, &fakeNotifier{}, 7, logger)
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	logger, _ := test.NewNullLogger()
	p, err := New(hourly, &fakeNotifier{}, 7, logger)
	require.NoError(t, err)
	p.Start()
	p.Stop()
}
