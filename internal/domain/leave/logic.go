package leave

import (
	"errors"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// NormalizeDate drops the clock and zone so values compare as calendar dates.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// InclusiveDays returns inclusive day count between start and end. It works on Unix
// seconds since time.Duration cannot span more than about 292 years.
func InclusiveDays(start, end time.Time) (int, error) {
	start, end = NormalizeDate(start), NormalizeDate(end)
	if end.Before(start) {
		return 0, errors.New("end date before start date")
	}
	return int((end.Unix()-start.Unix())/secondsPerDay) + 1, nil
}

// RangesOverlap reports whether two inclusive date ranges share at least one day.
func RangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	aStart, aEnd = NormalizeDate(aStart), NormalizeDate(aEnd)
	bStart, bEnd = NormalizeDate(bStart), NormalizeDate(bEnd)
	return !(aEnd.Before(bStart) || aStart.After(bEnd))
}

func findOverlap(requests []LeaveRequest, start, end time.Time, match func(LeaveRequest) bool) (LeaveRequest, bool) {
	for _, existing := range requests {
		if !match(existing) {
			continue
		}
		if RangesOverlap(existing.StartDate, existing.EndDate, start, end) {
			return existing, true
		}
	}
	return LeaveRequest{}, false
}
