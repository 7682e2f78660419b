package timeparse

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Unit words in English and Indonesian. "jam" doubles as the clock marker, so
// matchers that see it decide by what follows.
const unitPattern = `seconds?|secs?|detik|minutes?|mins?|menit|hours?|hrs?|jam|days?|hari|weeks?|minggu`

const weekdayPattern = `monday|tuesday|wednesday|thursday|friday|saturday|sunday|` +
	`senin|selasa|rabu|kamis|jum'?at|sabtu|minggu`

func unitDuration(word string) time.Duration {
	switch strings.ToLower(word) {
	case "second", "seconds", "sec", "secs", "detik":
		return time.Second
	case "minute", "minutes", "min", "mins", "menit":
		return time.Minute
	case "hour", "hours", "hr", "hrs", "jam":
		return time.Hour
	case "day", "days", "hari":
		return 24 * time.Hour
	case "week", "weeks", "minggu":
		return 7 * 24 * time.Hour
	}
	return 0
}

// scaled returns count units as a duration. It fails for counts below one and
// for counts whose duration does not fit in time.Duration.
func scaled(count string, unit time.Duration) (time.Duration, bool) {
	if unit <= 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(count, 10, 64)
	if err != nil || n < 1 || n > math.MaxInt64/int64(unit) {
		return 0, false
	}
	return time.Duration(n) * unit, true
}

func weekdayOf(word string) (time.Weekday, bool) {
	switch strings.ToLower(strings.ReplaceAll(word, "'", "")) {
	case "monday", "senin":
		return time.Monday, true
	case "tuesday", "selasa":
		return time.Tuesday, true
	case "wednesday", "rabu":
		return time.Wednesday, true
	case "thursday", "kamis":
		return time.Thursday, true
	case "friday", "jumat":
		return time.Friday, true
	case "saturday", "sabtu":
		return time.Saturday, true
	case "sunday", "minggu":
		return time.Sunday, true
	}
	return 0, false
}
