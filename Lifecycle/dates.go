package Lifecycle

import (
	"fmt"
	"time"
)

// DayFormat is the calendar key for a day. Instances and day records
// are keyed by this string, never by a timestamp, so grouping cannot
// drift across timezones.
const DayFormat = "2006-01-02"

// DayKey normalizes t to local midnight and formats it as a day key.
func DayKey(t time.Time) string {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location()).Format(DayFormat)
}

// ParseDay validates a day key.
func ParseDay(date string) (time.Time, error) {
	t, err := time.ParseInLocation(DayFormat, date, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day key %q: expected YYYY-MM-DD", date)
	}
	return t, nil
}

// NextDay returns the day key for the calendar day after date.
func NextDay(date string) (string, error) {
	t, err := ParseDay(date)
	if err != nil {
		return "", err
	}
	return DayKey(t.AddDate(0, 0, 1)), nil
}

func dayPrefix(siteID uint, date string) string {
	return fmt.Sprintf("day:%d:%s:", siteID, date)
}

func progressKey(siteID uint, date string) string {
	return dayPrefix(siteID, date) + "progress"
}

func checklistKey(siteID uint, date string) string {
	return dayPrefix(siteID, date) + "checklist"
}
