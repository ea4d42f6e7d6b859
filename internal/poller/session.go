package poller

import (
	"github.com/amishk599/jobboard/internal/model"
)

// Session is the poller state for one signed-in role. A new Session is built
// on every login, logout and role change.
type Session struct {
	role       model.Role
	generation uint64
	delivered  map[string]struct{}
	queue      []model.Notification
}

func newSession(role model.Role, generation uint64) *Session {
	return &Session{
		role:       role,
		generation: generation,
		delivered:  make(map[string]struct{}),
	}
}

// Role is the role this session polls for.
func (s *Session) Role() model.Role { return s.role }

// Generation identifies the session; poll results carry it back.
func (s *Session) Generation() uint64 { return s.generation }

// Len is the number of queued, undelivered-to-screen items.
func (s *Session) Len() int {
	if s == nil {
		return 0
	}
	return len(s.queue)
}

// Delivered reports whether key has already been queued in this session.
func (s *Session) Delivered(key string) bool {
	_, ok := s.delivered[key]
	return ok
}

// Enqueue takes a newest-first feed page, drops keys already delivered this
// session, and appends the rest oldest first. It returns how many were added.
func (s *Session) Enqueue(items []model.Notification) int {
	var fresh []model.Notification
	for _, n := range items {
		key := n.Key()
		if s.Delivered(key) {
			continue
		}
		s.delivered[key] = struct{}{}
		fresh = append(fresh, n)
	}
	for i := len(fresh) - 1; i >= 0; i-- {
		s.queue = append(s.queue, fresh[i])
	}
	return len(fresh)
}

// Next dequeues the oldest queued item.
func (s *Session) Next() (model.Notification, bool) {
	if len(s.queue) == 0 {
		return model.Notification{}, false
	}
	n := s.queue[0]
	s.queue = s.queue[1:]
	return n, true
}

// Tracker owns the current session and tears it down when the role changes.
// It is not safe for concurrent use; callers drive it from one event loop.
type Tracker struct {
	generation uint64
	session    *Session
}

// NewTracker returns a tracker with no active session.
func NewTracker() *Tracker {
	return &Tracker{}
}

// SetRole discards the current session and, for a recognized role, starts a
// fresh one. It returns the new session or nil.
func (t *Tracker) SetRole(role model.Role) *Session {
	t.generation++
	t.session = nil
	if role.Recognized() {
		t.session = newSession(role, t.generation)
	}
	return t.session
}

// Session returns the active session, or nil.
func (t *Tracker) Session() *Session {
	return t.session
}

// Deliver enqueues a poll result fetched under generation. Results from a
// torn-down session are discarded.
func (t *Tracker) Deliver(generation uint64, items []model.Notification) int {
	if t.session == nil || t.session.generation != generation {
		return 0
	}
	return t.session.Enqueue(items)
}
