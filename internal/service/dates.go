package service

import (
	"fmt"
	"time"

	"github.com/bamskydbest/pharm-back/internal/apierror"
)

const dateLayout = "2006-01-02"

// parseDay parses YYYY-MM-DD as midnight UTC.
func parseDay(field, s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", apierror.ErrValidation, field)
	}
	return t, nil
}

// parseRange turns an inclusive [from, to] day range into the half-open
// interval [from 00:00, to+1 00:00) used by the repositories.
func parseRange(from, to string) (time.Time, time.Time, error) {
	start, err := parseDay("from", from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDay("to", to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from must not be after to", apierror.ErrValidation)
	}
	return start, end.AddDate(0, 0, 1), nil
}

// optionalRange is parseRange for filters where both bounds are optional.
func optionalRange(from, to string) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if from != "" {
		t, err := parseDay("from", from)
		if err != nil {
			return nil, nil, err
		}
		start = &t
	}
	if to != "" {
		t, err := parseDay("to", to)
		if err != nil {
			return nil, nil, err
		}
		t = t.AddDate(0, 0, 1)
		end = &t
	}
	if start != nil && end != nil && !start.Before(*end) {
		return nil, nil, fmt.Errorf("%w: from must not be after to", apierror.ErrValidation)
	}
	return start, end, nil
}

func startOfDayUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
