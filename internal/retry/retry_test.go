package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amishk599/jobboard/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// counter returns fn's result on each call, tracking call count.
type counter struct {
	calls int
	fn    func(attempt int) error
}

func (c *counter) call(_ context.Context) error {
	c.calls++
	return c.fn(c.calls)
}

func TestDo_SucceedsOnFirstAttempt(t *testing.T) {
	c := &counter{fn: func(int) error { return nil }}

	r := NewRetrier(2, 10*time.Millisecond, discardLogger())
	if err := r.Do(context.Background(), "ping", c.call); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.calls != 1 {
		t.Fatalf("expected 1 call, got %d", c.calls)
	}
}

func TestDo_RetriesOn5xx_SucceedsOnSecondAttempt(t *testing.T) {
	c := &counter{fn: func(attempt int) error {
		if attempt == 1 {
			return &model.HTTPError{StatusCode: 503, Message: "service unavailable"}
		}
		return nil
	}}

	r := NewRetrier(2, 10*time.Millisecond, discardLogger())
	if err := r.Do(context.Background(), "unseen", c.call); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", c.calls)
	}
}

func TestDo_DoesNotRetryOn4xx(t *testing.T) {
	c := &counter{fn: func(int) error {
		return &model.HTTPError{StatusCode: 404, Message: "application not found"}
	}}

	r := NewRetrier(2, 10*time.Millisecond, discardLogger())
	err := r.Do(context.Background(), "unseen", c.call)
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 404 {
		t.Fatalf("expected 404 HTTPError, got %v", err)
	}
	if c.calls != 1 {
		t.Fatalf("expected 1 call (no retry), got %d", c.calls)
	}
}

func TestDo_DoesNotRetryDomainErrors(t *testing.T) {
	c := &counter{fn: func(int) error {
		return model.NewError(model.CodeConflict, "your application is still pending for this job", nil)
	}}

	r := NewRetrier(2, 10*time.Millisecond, discardLogger())
	if err := r.Do(context.Background(), "apply", c.call); !model.IsCode(err, model.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if c.calls != 1 {
		t.Fatalf("expected 1 call, got %d", c.calls)
	}
}

func TestDo_GivesUpAfterMaxRetries(t *testing.T) {
	c := &counter{fn: func(int) error { return errors.New("connection refused") }}

	r := NewRetrier(2, time.Millisecond, discardLogger())
	if err := r.Do(context.Background(), "open store", c.call); err == nil {
		t.Fatal("expected error, got nil")
	}
	if c.calls != 3 {
		t.Fatalf("expected 3 calls (1 + 2 retries), got %d", c.calls)
	}
}

func TestDo_RespectsContextCancellation(t *testing.T) {
	c := &counter{fn: func(int) error { return errors.New("connection refused") }}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRetrier(2, time.Second, discardLogger())
	err := r.Do(ctx, "open store", c.call)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if c.calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", c.calls)
	}
}

func TestBackoffDelay_PrefersRetryAfter(t *testing.T) {
	r := NewRetrier(2, time.Second, discardLogger())
	got := r.backoffDelay(1, &model.HTTPError{StatusCode: 429, RetryAfter: 7 * time.Second})
	if got != 7*time.Second {
		t.Errorf("delay = %v, want 7s", got)
	}
}

func TestValue_ReturnsResult(t *testing.T) {
	calls := 0
	r := NewRetrier(2, time.Millisecond, discardLogger())
	got, err := Value(context.Background(), r, "unseen", func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, &model.HTTPError{StatusCode: 502}
		}
		return 4, nil
	})
	if err != nil || got != 4 {
		t.Fatalf("Value = %d, %v; want 4, nil", got, err)
	}
}
