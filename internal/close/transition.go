package close

import (
	"time"

	"github.com/odyssey-erp/closeboard/internal/domain"
)

// applyTransition moves r to status `to` at instant now. The boolean is false
// for self-transitions, which leave the record untouched.
func applyTransition(r domain.ClosingRecord, to domain.Status, now time.Time) (domain.ClosingRecord, bool) {
	if r.Status == to {
		return r, false
	}
	switch to {
	case domain.StatusPending:
		r.StartedAt = nil
		r.CompletedAt = nil
	case domain.StatusInProgress:
		if r.StartedAt == nil {
			r.StartedAt = timePtr(now)
		}
	case domain.StatusCompleted:
		if r.CompletedAt == nil {
			r.CompletedAt = timePtr(now)
		}
	default:
		return r, false
	}
	r.Status = to
	r.UpdatedAt = now
	return r, true
}

func timePtr(t time.Time) *time.Time {
	return &t
}
