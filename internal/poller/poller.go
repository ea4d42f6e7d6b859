// Package poller pulls the caller's notification feed and queues items that
// have not been delivered in the current session.
package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/amishk599/jobboard/internal/model"
)

// DefaultInterval is the gap between polls while a role is active.
const DefaultInterval = 15 * time.Second

// Source fetches role feeds. Both feeds are returned newest first.
type Source interface {
	ApplicantFeed(ctx context.Context) ([]model.StatusChange, error)
	EmployerFeed(ctx context.Context) ([]model.NewApplicant, error)
}

// Fetch pulls the feed for role and tags each item with its kind.
func Fetch(ctx context.Context, src Source, role model.Role) ([]model.Notification, error) {
	switch role {
	case model.RoleApplicant:
		items, err := src.ApplicantFeed(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]model.Notification, 0, len(items))
		for _, it := range items {
			out = append(out, model.StatusChangeNotification(it))
		}
		return out, nil
	case model.RoleEmployer:
		items, err := src.EmployerFeed(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]model.Notification, 0, len(items))
		for _, it := range items {
			out = append(out, model.NewApplicantNotification(it))
		}
		return out, nil
	}
	return nil, fmt.Errorf("no feed for role %q", role)
}
