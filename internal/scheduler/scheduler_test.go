package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/jobboard/internal/model"
)

// --- Fake implementations ---

// FakeFeed serves a fixed applicant feed and records mark-seen calls.
type FakeFeed struct {
	mu     sync.Mutex
	items  []model.StatusChange
	err    error
	polls  atomic.Int32
	marked []string
}

func (f *FakeFeed) ApplicantFeed(_ context.Context) ([]model.StatusChange, error) {
	f.polls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.StatusChange(nil), f.items...), f.err
}

func (f *FakeFeed) EmployerFeed(_ context.Context) ([]model.NewApplicant, error) {
	f.polls.Add(1)
	return nil, f.err
}

func (f *FakeFeed) MarkSeen(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, id)
	return nil
}

func (f *FakeFeed) MarkEmployerSeen(_ context.Context, id string) error {
	return errors.New("not an employer")
}

func (f *FakeFeed) setItems(items ...model.StatusChange) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = items
}

func (f *FakeFeed) markedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.marked...)
}

// RecordingNotifier records presented toasts.
type RecordingNotifier struct {
	mu   sync.Mutex
	seen []string
}

func (n *RecordingNotifier) Notify(note model.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seen = append(n.seen, note.ApplicationID())
	return nil
}

func (n *RecordingNotifier) ids() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.seen...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decision(id string) model.StatusChange {
	return model.StatusChange{ApplicationID: id, Status: model.StatusAccepted}
}

func runFor(t *testing.T, s *Scheduler, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

// --- Tests ---

func TestRun_PresentsOldestFirstOnce(t *testing.T) {
	feed := &FakeFeed{}
	feed.setItems(decision("c"), decision("b"), decision("a"))
	notifier := &RecordingNotifier{}

	s := NewScheduler(feed, model.RoleApplicant, notifier, 20*time.Millisecond, 5*time.Millisecond, false, discardLogger())
	runFor(t, s, 200*time.Millisecond)

	got := notifier.ids()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("presented %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("presented %v, want %v", got, want)
			break
		}
	}
	if feed.polls.Load() < 2 {
		t.Errorf("expected repeated polls, got %d", feed.polls.Load())
	}
	if len(feed.markedIDs()) != 0 {
		t.Errorf("dismissed toasts were marked seen: %v", feed.markedIDs())
	}
}

func TestRun_AcknowledgeMarksSeen(t *testing.T) {
	feed := &FakeFeed{}
	feed.setItems(decision("b"), decision("a"))
	notifier := &RecordingNotifier{}

	s := NewScheduler(feed, model.RoleApplicant, notifier, time.Hour, 5*time.Millisecond, true, discardLogger())
	runFor(t, s, 100*time.Millisecond)

	marked := feed.markedIDs()
	if len(marked) != 2 || marked[0] != "a" || marked[1] != "b" {
		t.Errorf("marked = %v, want [a b]", marked)
	}
}

func TestRun_PollErrorsAreSwallowed(t *testing.T) {
	feed := &FakeFeed{err: errors.New("connection refused")}
	notifier := &RecordingNotifier{}

	s := NewScheduler(feed, model.RoleApplicant, notifier, 10*time.Millisecond, time.Millisecond, false, discardLogger())
	runFor(t, s, 80*time.Millisecond)

	if feed.polls.Load() < 2 {
		t.Errorf("expected polling to continue after errors, got %d polls", feed.polls.Load())
	}
	if len(notifier.ids()) != 0 {
		t.Errorf("presented %v on failing feed", notifier.ids())
	}
}

func TestRun_NewItemsArriveLater(t *testing.T) {
	feed := &FakeFeed{}
	notifier := &RecordingNotifier{}

	s := NewScheduler(feed, model.RoleApplicant, notifier, 10*time.Millisecond, time.Millisecond, false, discardLogger())

	go func() {
		time.Sleep(30 * time.Millisecond)
		feed.setItems(decision("late"))
	}()
	runFor(t, s, 150*time.Millisecond)

	got := notifier.ids()
	if len(got) != 1 || got[0] != "late" {
		t.Errorf("presented %v, want [late]", got)
	}
}

func TestRun_UnrecognizedRole(t *testing.T) {
	s := NewScheduler(&FakeFeed{}, model.Role("admin"), &RecordingNotifier{}, time.Second, time.Second, false, discardLogger())
	if err := s.Run(context.Background()); err == nil {
		t.Error("expected error for unrecognized role")
	}
}
