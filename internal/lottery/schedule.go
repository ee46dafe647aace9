package lottery

import (
	"fmt"
	"time"
)

// Results for the current day are announced between these hours (inclusive)
const (
	AnnounceHourBegin = 22
	AnnounceHourEnd   = 23
)

// eraOffset converts a Gregorian year to the Minguo era year used by the source page
const eraOffset = 1911

// Effective is the draw day a run works on
type Effective struct {
	Day  time.Weekday
	Date time.Time
}

// Resolve returns the effective draw day for the given time.
// Inside the announcement window the page already shows today's draws; at any other
// hour it still shows yesterday's, so the effective day rolls back one day.
func Resolve(now time.Time) Effective {
	date := now
	if h := now.Hour(); h < AnnounceHourBegin || h > AnnounceHourEnd {
		date = now.AddDate(0, 0, -1)
	}
	y, m, d := date.Date()
	date = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return Effective{Day: date.Weekday(), Date: date}
}

// EraDate renders a date the way the source page prints draw dates, e.g. 113年5月6日
func EraDate(t time.Time) string {
	return fmt.Sprintf("%d年%d月%d日", t.Year()-eraOffset, int(t.Month()), t.Day())
}
