package filter

import (
	"fmt"
	"sort"

	"github.com/amishk599/jobboard/internal/model"
)

// StatusFilter narrows an application list to one status, or none.
type StatusFilter string

const (
	All      StatusFilter = "all"
	Pending  StatusFilter = StatusFilter(model.StatusPending)
	Accepted StatusFilter = StatusFilter(model.StatusAccepted)
	Rejected StatusFilter = StatusFilter(model.StatusRejected)
)

var cycle = []StatusFilter{All, Pending, Accepted, Rejected}

// ParseStatusFilter accepts all, pending, accepted or rejected. Empty means all.
func ParseStatusFilter(s string) (StatusFilter, error) {
	if s == "" {
		return All, nil
	}
	for _, f := range cycle {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown status filter %q (want all, pending, accepted or rejected)", s)
}

// Next returns the filter after f in display order, wrapping around.
func (f StatusFilter) Next() StatusFilter {
	for i, c := range cycle {
		if c == f {
			return cycle[(i+1)%len(cycle)]
		}
	}
	return All
}

// Match reports whether app passes the filter.
func (f StatusFilter) Match(app model.Application) bool {
	return f == All || string(app.Status) == string(f)
}

// Apply returns the applications that pass f, in their original order.
func (f StatusFilter) Apply(apps []model.Application) []model.Application {
	out := make([]model.Application, 0, len(apps))
	for _, a := range apps {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	return out
}

// SortUnreadFirst orders unacknowledged decisions first, then newest first.
func SortUnreadFirst(apps []model.Application) {
	sort.SliceStable(apps, func(i, j int) bool {
		ui, uj := apps[i].UnseenByApplicant(), apps[j].UnseenByApplicant()
		if ui != uj {
			return ui
		}
		return apps[i].CreatedAt.After(apps[j].CreatedAt)
	})
}

// Counts tallies applications per status.
func Counts(apps []model.Application) map[model.Status]int {
	counts := make(map[model.Status]int, 3)
	for _, a := range apps {
		counts[a.Status]++
	}
	return counts
}
