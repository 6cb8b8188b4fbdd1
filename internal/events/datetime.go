package events

import (
	"regexp"
	"strings"
	"time"
)

const (
	dateLayout  = "Monday, January 2"
	clockLayout = "3:04 PM"
	rangeSep    = " – "
)

// zonedLayouts carry an offset; the parsed instant is converted to the display zone.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
}

// localLayouts carry no offset and are read as wall-clock time in the display zone.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses a feed timestamp into loc. ok is false for empty or
// unrecognised input.
func ParseTimestamp(value string, loc *time.Location) (t time.Time, ok bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.In(loc), true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// formatSchedule derives the display date and time from raw start/end timestamps.
// The time is "start – end" when both are known and differ, else the start alone.
func formatSchedule(startISO, endISO string, loc *time.Location) (date, clock string) {
	start, ok := ParseTimestamp(startISO, loc)
	if !ok {
		return "", ""
	}
	date = start.Format(dateLayout)
	clock = start.Format(clockLayout)

	if end, ok := ParseTimestamp(endISO, loc); ok {
		if endClock := end.Format(clockLayout); endClock != clock {
			clock = clock + rangeSep + endClock
		}
	}
	return date, clock
}

var (
	commaYearRe     = regexp.MustCompile(`,\s*\d{4}\b`)
	spaceYearRe     = regexp.MustCompile(`\s+\d{4}\b`)
	slashDateRe     = regexp.MustCompile(`(\d{1,2}/\d{1,2})/\d{2,4}\b`)
	gluedMeridiemRe = regexp.MustCompile(`(?i)(\d)(AM|PM)\b`)
	lowerMeridiemRe = regexp.MustCompile(`\b(am|pm)\b`)
)

// NormalizeDate strips a trailing year from a free-text date:
// "Thursday, November 29, 2025" -> "Thursday, November 29", "11/29/2025" -> "11/29".
func NormalizeDate(date string) string {
	date = replaceFirst(commaYearRe, strings.TrimSpace(date), "")
	date = strings.TrimSpace(replaceFirst(spaceYearRe, date, ""))
	return replaceFirst(slashDateRe, date, "$1")
}

// NormalizeTime tidies a free-text time: "3:00PM" -> "3:00 PM", "8:00 am" -> "8:00 AM".
func NormalizeTime(clock string) string {
	clock = strings.TrimSpace(clock)
	if clock == "" {
		return ""
	}
	clock = replaceFirst(gluedMeridiemRe, clock, "$1 $2")
	return lowerMeridiemRe.ReplaceAllStringFunc(clock, strings.ToUpper)
}

// FormatDateTime renders the one-line schedule used by email templates, e.g.
// "Thursday, November 29 at 8:00 AM". Either half may be missing.
func FormatDateTime(date, clock string) string {
	datePart := NormalizeDate(date)
	timePart := NormalizeTime(clock)

	switch {
	case datePart != "" && timePart != "":
		return datePart + " at " + timePart
	case datePart != "":
		return datePart
	default:
		return timePart
	}
}

// replaceFirst replaces only the leftmost match of re
func replaceFirst(re *regexp.Regexp, s, repl string) string {
	loc := re.FindStringSubmatchIndex(s)
	if loc == nil {
		return s
	}
	expanded := re.ExpandString(nil, repl, s, loc)
	return s[:loc[0]] + string(expanded) + s[loc[1]:]
}
