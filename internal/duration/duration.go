// Package duration turns streak instants into elapsed durations and
// human-readable unit breakdowns.
package duration

import (
	"fmt"
	"strings"
	"time"
)

const (
	Day   = 24 * time.Hour
	Month = 30 * Day // calendar months are approximated as 30 days
)

// Units holds the labels used by Format.
type Units struct {
	Month  string
	Day    string
	Hour   string
	Minute string
	Sep    string
}

// ArabicUnits are the labels the bot talks in.
var ArabicUnits = Units{
	Month:  "شهر",
	Day:    "يوم",
	Hour:   "ساعة",
	Minute: "دقيقة",
	Sep:    " و ",
}

// Breakdown is a duration split into whole units, largest first.
type Breakdown struct {
	Months  int64
	Days    int64
	Hours   int64
	Minutes int64
}

// Elapsed returns now-ref. ok is false when ref is nil. The result is
// negative when ref lies in the future; use Clamp before showing it.
func Elapsed(ref *time.Time, now time.Time) (d time.Duration, ok bool) {
	if ref == nil {
		return 0, false
	}
	return now.Sub(*ref), true
}

// Clamp maps negative durations to zero.
func Clamp(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

// Split decomposes d by integer floor division: months, then days, hours
// and minutes. Seconds are dropped.
func Split(d time.Duration) Breakdown {
	secs := int64(Clamp(d) / time.Second)

	var b Breakdown
	b.Months = secs / int64(Month/time.Second)
	secs %= int64(Month / time.Second)
	b.Days = secs / int64(Day/time.Second)
	secs %= int64(Day / time.Second)
	b.Hours = secs / 3600
	secs %= 3600
	b.Minutes = secs / 60
	return b
}

// Format renders the non-zero components of d. Minutes are always shown
// when every larger unit is zero, so the result is never empty.
func Format(d time.Duration, u Units) string {
	b := Split(d)

	parts := make([]string, 0, 4)
	if b.Months > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", b.Months, u.Month))
	}
	if b.Days > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", b.Days, u.Day))
	}
	if b.Hours > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", b.Hours, u.Hour))
	}
	if b.Minutes > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%d %s", b.Minutes, u.Minute))
	}
	return strings.Join(parts, u.Sep)
}
