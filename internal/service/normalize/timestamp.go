package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxEpochMillis bounds accepted instants to ±100,000,000 days around the epoch.
const maxEpochMillis = 8.64e15

var (
	dateOnlyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	utcOffsetSuffix = regexp.MustCompile(`\s(?:UTC|GMT)([+-])(\d{1,2})(?::?(\d{2}))?$`)
)

// layouts are tried in order for free-form strings.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	time.UnixDate,
	"January 2, 2006 3:04:05 PM -07:00",
	"January 2, 2006 3:04:05 PM MST",
	"January 2, 2006 3:04:05 PM",
	"January 2, 2006 15:04:05",
	"January 2, 2006",
	"Jan 2, 2006 3:04:05 PM",
	"Jan 2, 2006",
}

type asTimer interface {
	AsTime() time.Time
}

type timer interface {
	Time() time.Time
}

// Timestamp converts a raw field value into a UTC instant with millisecond
// precision. Date-only and zone-less strings are read in time.Local.
func Timestamp(v interface{}) (time.Time, bool) {
	return TimestampIn(v, time.Local)
}

// TimestampIn is Timestamp with an explicit zone for date-only and zone-less strings.
func TimestampIn(v interface{}, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}

	if t, ok := native(v); ok {
		return canonical(t)
	}

	if n, ok := Number(v); ok {
		return fromMillis(n)
	}

	switch x := v.(type) {
	case map[string]interface{}:
		return fromObject(x, loc)
	case string:
		return fromString(x, loc)
	}

	return time.Time{}, false
}

// FromDateAndHour rebuilds an instant from a YYYY-MM-DD date and an hour of
// day, read as that hour in UTC.
func FromDateAndHour(date, hour interface{}) (time.Time, bool) {
	s, ok := date.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if !dateOnlyPattern.MatchString(s) {
		return time.Time{}, false
	}

	h, ok := Number(hour)
	if !ok || h != math.Trunc(h) || h < 0 || h > 23 {
		return time.Time{}, false
	}

	day, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return canonical(day.Add(time.Duration(h) * time.Hour))
}

func native(v interface{}) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case *time.Time:
		if x == nil || x.IsZero() {
			return time.Time{}, false
		}
		return *x, true
	case primitive.DateTime:
		return x.Time(), true
	case primitive.Timestamp:
		return time.Unix(int64(x.T), 0), true
	case asTimer:
		return x.AsTime(), true
	case timer:
		return x.Time(), true
	}
	return time.Time{}, false
}

func canonical(t time.Time) (time.Time, bool) {
	ms := t.UnixMilli()
	if math.Abs(float64(ms)) > maxEpochMillis {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}

func fromMillis(ms float64) (time.Time, bool) {
	if math.Abs(ms) > maxEpochMillis {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)).UTC(), true
}

// fromObject handles {seconds, nanoseconds} objects and extended-JSON dates.
func fromObject(m map[string]interface{}, loc *time.Location) (time.Time, bool) {
	if d, ok := m["$date"]; ok {
		if inner, ok := d.(map[string]interface{}); ok {
			if raw, ok := inner["$numberLong"].(string); ok {
				ms, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					return time.Time{}, false
				}
				return fromMillis(float64(ms))
			}
			return time.Time{}, false
		}
		return TimestampIn(d, loc)
	}

	raw, ok := m["seconds"]
	if !ok {
		raw, ok = m["_seconds"]
	}
	if !ok {
		return time.Time{}, false
	}

	secs, ok := Number(raw)
	if !ok || secs != math.Trunc(secs) {
		return time.Time{}, false
	}
	return fromMillis(secs * 1000)
}

func fromString(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if dateOnlyPattern.MatchString(s) {
		t, err := time.ParseInLocation("2006-01-02", s, loc)
		if err != nil {
			return time.Time{}, false
		}
		return canonical(t)
	}

	s = rewriteUTCOffset(s)
	if t, ok := parseLayouts(s, loc); ok {
		return canonical(t)
	}

	if strings.Contains(s, " at ") {
		if t, ok := parseLayouts(strings.ReplaceAll(s, " at ", " "), loc); ok {
			return canonical(t)
		}
	}

	return time.Time{}, false
}

func parseLayouts(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// rewriteUTCOffset turns a trailing "UTC+1" or "GMT-03:30" into "+01:00" / "-03:30".
func rewriteUTCOffset(s string) string {
	m := utcOffsetSuffix.FindStringSubmatchIndex(s)
	if m == nil {
		return s
	}
	sign := s[m[2]:m[3]]
	hours := s[m[4]:m[5]]
	minutes := "00"
	if m[6] >= 0 {
		minutes = s[m[6]:m[7]]
	}
	if len(hours) == 1 {
		hours = "0" + hours
	}
	return s[:m[0]] + " " + sign + hours + ":" + minutes
}
