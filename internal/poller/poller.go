// Package poller refreshes notifications in the background on a cron
// schedule. A second, slower schedule asks the backend to raise deadline
// reminders. The backend adds a fresh reminder for every upcoming deadline
// each time it is asked, so the check runs at most once per calendar day.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/UninstallAll/PhDAuto/internal/domain"
)

const dayLayout = "2006-01-02"

// Notifier is the part of the store the poller drives.
type Notifier interface {
	CheckDeadlines(ctx context.Context, days int) []domain.Record
	FetchNotifications(ctx context.Context)
}

// CheckLog remembers the day of the last successful deadline check across
// restarts.
type CheckLog interface {
	LastDeadlineCheck(ctx context.Context) (string, error)
	SaveDeadlineCheck(ctx context.Context, day string) error
}

// Schedules are robfig/cron specs such as "@every 5m" or "@daily".
type Schedules struct {
	Refresh       string
	DeadlineCheck string
}

type Option func(*Poller)

// WithCheckLog persists the last check day.
func WithCheckLog(cl CheckLog) Option {
	return func(p *Poller) { p.checkLog = cl }
}

type Poller struct {
	cron     *cron.Cron
	notifier Notifier
	days     int
	timeout  time.Duration
	log      logrus.FieldLogger
	checkLog CheckLog
	now      func() time.Time

	mu          sync.Mutex
	lastChecked string
}

func New(sched Schedules, n Notifier, days int, log logrus.FieldLogger, opts ...Option) (*Poller, error) {
	p := &Poller{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		notifier: n,
		days:     days,
		timeout:  30 * time.Second,
		log:      log.WithField("component", "poller"),
		now:      time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	if _, err := p.cron.AddFunc(sched.Refresh, p.Refresh); err != nil {
		return nil, errors.Annotatef(err, "schedule %q", sched.Refresh)
	}
	if _, err := p.cron.AddFunc(sched.DeadlineCheck, p.Tick); err != nil {
		return nil, errors.Annotatef(err, "schedule %q", sched.DeadlineCheck)
	}
	return p, nil
}

// Tick checks deadlines, if that has not happened today, and then reloads
// the notification list.
func (p *Poller) Tick() {
	p.CheckDeadlines()
	p.Refresh()
}

// Refresh reloads the notification list.
func (p *Poller) Refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	p.notifier.FetchNotifications(ctx)
}

// CheckDeadlines asks the backend for reminders once per day. A failed check
// is not recorded, so the next tick tries again.
func (p *Poller) CheckDeadlines() {
	if p.days <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	today := p.now().Format(dayLayout)
	if p.lastChecked == "" && p.checkLog != nil {
		last, err := p.checkLog.LastDeadlineCheck(ctx)
		if err != nil {
			p.log.WithError(err).Warn("could not load last deadline check")
		}
		p.lastChecked = last
	}
	if p.lastChecked == today {
		p.log.Debug("deadlines already checked today")
		return
	}

	created := p.notifier.CheckDeadlines(ctx, p.days)
	if created == nil {
		return
	}
	p.lastChecked = today
	if p.checkLog != nil {
		if err := p.checkLog.SaveDeadlineCheck(ctx, today); err != nil {
			p.log.WithError(err).Warn("could not save deadline check")
		}
	}
	if len(created) > 0 {
		p.log.Infof("%d new deadline reminders", len(created))
	}
}

// Start runs the schedules in their own goroutine.
func (p *Poller) Start() { p.cron.Start() }

// Stop halts the schedules and waits for a running tick to finish.
func (p *Poller) Stop() {
	<-p.cron.Stop().Done()
}
