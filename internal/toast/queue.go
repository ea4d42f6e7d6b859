// Package toast presents queued notifications one at a time.
package toast

import (
	"context"
	"fmt"
	"time"

	"github.com/amishk599/jobboard/internal/model"
)

// DefaultDuration is how long a toast stays up before it is dismissed.
const DefaultDuration = 10 * time.Second

// State of the queue.
type State int

const (
	Idle State = iota
	Presenting
)

func (s State) String() string {
	if s == Presenting {
		return "presenting"
	}
	return "idle"
}

// Source yields queued notifications oldest first.
type Source interface {
	Next() (model.Notification, bool)
}

// Queue is the presentation state machine. It performs no I/O: callers
// present the item Pump returns, arm a timer carrying the returned sequence
// number, and mark seen after Acknowledge.
type Queue struct {
	source Source
	state  State
	active model.Notification
	seq    uint64
}

// NewQueue creates an idle queue over source.
func NewQueue(source Source) *Queue {
	return &Queue{source: source}
}

// State returns the current state.
func (q *Queue) State() State { return q.state }

// Active returns the item being presented.
func (q *Queue) Active() (model.Notification, bool) {
	if q.state != Presenting {
		return model.Notification{}, false
	}
	return q.active, true
}

// Pump starts presenting the next item when idle. It returns the item and
// the presentation's sequence number, or false when nothing started.
func (q *Queue) Pump() (model.Notification, uint64, bool) {
	if q.state == Presenting {
		return model.Notification{}, 0, false
	}
	n, ok := q.source.Next()
	if !ok {
		return model.Notification{}, 0, false
	}
	q.seq++
	q.state = Presenting
	q.active = n
	return n, q.seq, true
}

// Acknowledge ends the current presentation and returns the item so the
// caller can mark it seen and navigate to it. The queue is idle afterwards
// whatever the mark-seen outcome.
func (q *Queue) Acknowledge() (model.Notification, bool) {
	return q.end()
}

// Close ends the current presentation without acknowledging it.
func (q *Queue) Close() bool {
	_, ok := q.end()
	return ok
}

// Dismiss ends presentation seq when its timer fires. Timers from earlier
// presentations are ignored.
func (q *Queue) Dismiss(seq uint64) bool {
	if q.state != Presenting || seq != q.seq {
		return false
	}
	_, ok := q.end()
	return ok
}

func (q *Queue) end() (model.Notification, bool) {
	if q.state != Presenting {
		return model.Notification{}, false
	}
	n := q.active
	q.state = Idle
	q.active = model.Notification{}
	return n, true
}

// Marker records acknowledgments server-side.
type Marker interface {
	MarkSeen(ctx context.Context, applicationID string) error
	MarkEmployerSeen(ctx context.Context, applicationID string) error
}

// MarkSeen acknowledges n with the call matching its kind.
func MarkSeen(ctx context.Context, m Marker, n model.Notification) error {
	switch n.Kind {
	case model.KindApplicantStatus:
		return m.MarkSeen(ctx, n.ApplicationID())
	case model.KindEmployerApply:
		return m.MarkEmployerSeen(ctx, n.ApplicationID())
	}
	return fmt.Errorf("unknown notification kind %q", n.Kind)
}

// View names a client screen a toast can lead to.
type View int

const (
	ViewApplications View = iota // applicant's own applications
	ViewJobApplicants            // applicants for one employer job
)

// Target is where acknowledging a toast navigates.
type Target struct {
	View  View
	JobID string
}

// Destination returns the navigation target for n.
func Destination(n model.Notification) Target {
	if n.Kind == model.KindEmployerApply {
		return Target{View: ViewJobApplicants, JobID: n.JobID()}
	}
	return Target{View: ViewApplications}
}
