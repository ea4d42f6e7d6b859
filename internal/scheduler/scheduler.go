package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amishk599/jobboard/internal/model"
	"github.com/amishk599/jobboard/internal/poller"
	"github.com/amishk599/jobboard/internal/toast"
)

// Feed is the API surface the watcher needs.
type Feed interface {
	poller.Source
	toast.Marker
}

// Scheduler owns the headless watch loop: it polls the role's feed on an
// interval and presents toasts through a notifier, one at a time. Polling,
// presentation and timers all run on the goroutine that calls Run.
type Scheduler struct {
	feed          Feed
	role          model.Role
	notifier      model.Notifier
	interval      time.Duration
	toastDuration time.Duration
	acknowledge   bool
	logger        *slog.Logger

	tracker *poller.Tracker
	queue   *toast.Queue
	seq     uint64
}

// NewScheduler creates a watcher for role. When acknowledge is set each
// toast is marked seen once its duration elapses; otherwise it is dismissed
// and stays unseen server-side.
func NewScheduler(feed Feed, role model.Role, notifier model.Notifier, interval, toastDuration time.Duration, acknowledge bool, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		feed:          feed,
		role:          role,
		notifier:      notifier,
		interval:      interval,
		toastDuration: toastDuration,
		acknowledge:   acknowledge,
		logger:        logger,
		tracker:       poller.NewTracker(),
	}
}

// Run starts the watch loop. It runs one immediate poll, then ticks on the
// configured interval. It returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	session := s.tracker.SetRole(s.role)
	if session == nil {
		return fmt.Errorf("no notifications for role %q", s.role)
	}
	s.queue = toast.NewQueue(session)

	s.logger.Info("starting watcher",
		"role", string(s.role),
		"interval", s.interval.String(),
		"toast_duration", s.toastDuration.String(),
	)

	// Run one immediate poll.
	s.poll(ctx, session.Generation())
	toastC := s.present()
	pollC := time.After(s.interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down watcher")
			return nil
		case <-pollC:
			s.poll(ctx, session.Generation())
			pollC = time.After(s.interval)
			if toastC == nil {
				toastC = s.present()
			}
		case <-toastC:
			s.finish(ctx)
			toastC = s.present()
		}
	}
}

// poll fetches the feed and queues new items. Failures are logged and the
// next interval retries.
func (s *Scheduler) poll(ctx context.Context, generation uint64) {
	items, err := poller.Fetch(ctx, s.feed, s.role)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("poll failed", "role", string(s.role), "error", err)
		}
		return
	}
	added := s.tracker.Deliver(generation, items)
	s.logger.Debug("polled feed",
		"role", string(s.role),
		"fetched", len(items),
		"new", added,
		"queued", s.tracker.Session().Len(),
	)
}

// present starts the next toast if idle and returns its timeout channel, or
// nil when nothing is showing.
func (s *Scheduler) present() <-chan time.Time {
	n, seq, ok := s.queue.Pump()
	if !ok {
		return nil
	}
	s.seq = seq
	if err := s.notifier.Notify(n); err != nil {
		s.logger.Error("notify failed", "application_id", n.ApplicationID(), "error", err)
	}
	return time.After(s.toastDuration)
}

// finish ends the current toast when its time is up.
func (s *Scheduler) finish(ctx context.Context) {
	if !s.acknowledge {
		s.queue.Dismiss(s.seq)
		return
	}
	n, ok := s.queue.Acknowledge()
	if !ok {
		return
	}
	if err := toast.MarkSeen(ctx, s.feed, n); err != nil {
		s.logger.Debug("mark seen failed", "application_id", n.ApplicationID(), "error", err)
	}
}
