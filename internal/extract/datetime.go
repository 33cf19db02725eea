package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// The datetime recognizers below are tried in order; the first match wins.
// Each recognized form maps deterministically to a concrete point in time
// relative to the supplied "now", so extraction stays testable with an
// injected clock.
var (
	reInMinutes = regexp.MustCompile(`\bin (\d+) (?:minutes?|mins?)\b`)
	reInHours   = regexp.MustCompile(`\bin (\d+) (?:hours?|hrs?)\b`)
	reInDays    = regexp.MustCompile(`\bin (\d+) days?\b`)
	reClock     = regexp.MustCompile(`\bat (\d{1,2}):(\d{2})\s*(am|pm)?\b`)
	reHour      = regexp.MustCompile(`\bat (\d{1,2})\s*(am|pm)\b`)
	reNextDay   = regexp.MustCompile(`\bnext (monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	reWeekday   = regexp.MustCompile(`\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
)

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// Datetime extracts a point in time from a natural-language phrase.
// It recognizes relative offsets ("in 30 minutes"), day words ("tomorrow",
// "next week", "next month"), clock times ("at 2:30 pm", "at 7 am"), and
// weekday names with and without a leading "next". A clock time that has
// already elapsed today resolves to the same time tomorrow.
//
// The second return value is false when no form is recognized; the caller
// decides between a default and a clarification question.
func Datetime(text string, now time.Time) (time.Time, bool) {
	lower := strings.ToLower(text)

	if m := reInMinutes.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		return now.Add(time.Duration(n) * time.Minute), true
	}
	if m := reInHours.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		return now.Add(time.Duration(n) * time.Hour), true
	}
	if m := reInDays.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		return now.AddDate(0, 0, n), true
	}
	if strings.Contains(lower, "tomorrow") {
		return now.AddDate(0, 0, 1), true
	}
	if strings.Contains(lower, "next week") {
		return now.AddDate(0, 0, 7), true
	}
	if strings.Contains(lower, "next month") {
		return now.AddDate(0, 0, 30), true
	}
	if m := reClock.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour <= 23 && minute <= 59 {
			return clockTime(now, hour, minute, m[3]), true
		}
	}
	if m := reHour.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if hour <= 23 {
			return clockTime(now, hour, 0, m[2]), true
		}
	}
	// "next monday" must be tested before the bare weekday form, otherwise
	// the weekday recognizer would swallow the phrase and drop the "next".
	if m := reNextDay.FindStringSubmatch(lower); m != nil {
		target := weekdays[m[1]]
		ahead := int(target-now.Weekday()) + 7
		return now.AddDate(0, 0, ahead), true
	}
	if m := reWeekday.FindStringSubmatch(lower); m != nil {
		target := weekdays[m[1]]
		ahead := int(target - now.Weekday())
		if ahead <= 0 {
			ahead += 7
		}
		return now.AddDate(0, 0, ahead), true
	}

	return time.Time{}, false
}

// clockTime resolves an "at H[:MM] [am|pm]" phrase against now, rolling to
// the next day when the requested time has already passed.
func clockTime(now time.Time, hour, minute int, period string) time.Time {
	switch period {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !target.After(now) {
		target = target.AddDate(0, 0, 1)
	}
	return target
}
