package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Resolver turns a doctor's recurring weekly rules plus date-specific
// exceptions into the ordered open windows for a single date.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the open windows for the date, applying exceptions over the
// weekly schedule. Absence of data degrades to the default window rather than
// failing; only store errors are returned.
func (r *Resolver) Resolve(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Window, error) {
	date = DateOnly(date)

	exc, err := r.repo.GetExceptionByDate(ctx, doctorID, date)
	if err != nil && !errors.Is(err, ErrExceptionNotFound) {
		return nil, fmt.Errorf("load availability exception: %w", err)
	}

	if exc != nil {
		switch exc.Kind {
		case ExceptionBlocked:
			return nil, nil
		case ExceptionModifiedHours:
			// Modified hours replace the recurring rules outright. A
			// malformed exception with missing times yields no windows.
			if exc.StartTime != nil && exc.EndTime != nil {
				return []Window{{
					StartTime:   *exc.StartTime,
					EndTime:     *exc.EndTime,
					SlotMinutes: DefaultSlotMinutes,
				}}, nil
			}
			return nil, nil
		}
	}

	rules, err := r.repo.ListAvailability(ctx, doctorID, date.Weekday())
	if err != nil {
		return nil, fmt.Errorf("load availability rules: %w", err)
	}

	// The default window stands in for doctors who never configured a
	// schedule. A doctor whose rules for the day are all disabled has
	// configured one: they opted out, and get no windows.
	if len(rules) == 0 {
		return []Window{{
			StartTime:   DefaultDayStart,
			EndTime:     DefaultDayEnd,
			SlotMinutes: DefaultSlotMinutes,
		}}, nil
	}

	windows := make([]Window, 0, len(rules))
	for _, rule := range rules {
		if !rule.Active {
			continue
		}
		windows = append(windows, Window{
			StartTime:   rule.StartTime,
			EndTime:     rule.EndTime,
			SlotMinutes: rule.SlotMinutes,
		})
	}

	return windows, nil
}
