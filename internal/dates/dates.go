// Package dates canonicalizes the many date encodings that reach the
// dashboard into one calendar-day key of the form YYYY/MM/DD.
//
// Every value that is compared by day must pass through Normalize: the
// remote sheet returns dates in locale-dependent strings and timestamps
// that differ from what the client writes back.
package dates

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Layout is the canonical day key format.
const Layout = "2006/01/02"

// ClockLayout is the canonical time-of-day label format.
const ClockLayout = "15:04"

// Calendar-day layouts carry no zone; they are read in the normalizer's location.
var localLayouts = []string{
	"2006/1/2",
	"2006-1-2",
	"2006.1.2",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"1/2/2006",
	"1/2/2006, 3:04:05 PM",
	"1/2/2006, 3:04 PM",
	"1/2/2006 15:04:05",
}

// Instant layouts carry an offset; the parsed instant is moved into the
// normalizer's location exactly once.
var instantLayouts = []string{
	time.RFC3339,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	time.RFC1123Z,
	time.RFC1123,
}

var (
	clockRe  = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::\d{2})?\s*([AaPp][Mm])?$`)
	millisRe = regexp.MustCompile(`^\d{11,13}$`)
)

// Normalizer converts date-like values into canonical day keys for one location.
type Normalizer struct {
	loc *time.Location
	now func() time.Time
}

// New returns a Normalizer that resolves calendar days in loc.
// A nil loc means time.Local.
func New(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.Local
	}
	return &Normalizer{loc: loc, now: time.Now}
}

// WithClock returns a copy of n that reads the current time from now.
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	c := *n
	c.now = now
	return &c
}

// Location returns the location calendar days are resolved in.
func (n *Normalizer) Location() *time.Location { return n.loc }

// Normalize returns the canonical YYYY/MM/DD key for v.
//
// Empty input yields "". Input that cannot be parsed is returned unchanged
// (strings verbatim, anything else via fmt.Sprint). Normalize never panics
// and is idempotent on every input it can parse.
func (n *Normalizer) Normalize(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return n.normalizeString(x)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return n.Format(x)
	case *time.Time:
		if x == nil || x.IsZero() {
			return ""
		}
		return n.Format(*x)
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return x.String()
		}
		return n.fromMillis(f)
	case fmt.Stringer:
		return n.normalizeString(x.String())
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return n.fromMillis(f)
}

func (n *Normalizer) normalizeString(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ""
	}
	if millisRe.MatchString(trimmed) {
		ms, err := strconv.ParseInt(trimmed, 10, 64)
		if err == nil {
			return n.fromMillis(float64(ms))
		}
	}
	// Date.toString() appends a zone name in parentheses.
	if i := strings.Index(trimmed, " ("); i > 0 {
		trimmed = trimmed[:i]
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, n.loc); err == nil {
			return t.Format(Layout)
		}
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return n.Format(t)
		}
	}
	return s
}

func (n *Normalizer) fromMillis(ms float64) string {
	if ms == 0 {
		return ""
	}
	return n.Format(time.UnixMilli(int64(ms)))
}

// Format returns the canonical key of the calendar day t falls on in n's location.
func (n *Normalizer) Format(t time.Time) string {
	return t.In(n.loc).Format(Layout)
}

// Parse returns midnight of the day named by key. ok is false when key
// does not normalize to a canonical day.
func (n *Normalizer) Parse(key any) (time.Time, bool) {
	canon := n.Normalize(key)
	t, err := time.ParseInLocation(Layout, canon, n.loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Today returns the canonical key of the current day.
func (n *Normalizer) Today() string {
	return n.Format(n.now())
}

// Now returns the current time-of-day label.
func (n *Normalizer) Now() string {
	return n.now().In(n.loc).Format(ClockLayout)
}

// AddDays shifts a day key by days. Unparseable keys are returned unchanged.
func (n *Normalizer) AddDays(key string, days int) string {
	t, ok := n.Parse(key)
	if !ok {
		return key
	}
	return t.AddDate(0, 0, days).Format(Layout)
}

// WeekStart returns the Monday at or before the day named by key.
func (n *Normalizer) WeekStart(key string) string {
	t, ok := n.Parse(key)
	if !ok {
		return key
	}
	back := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -back).Format(Layout)
}

// Clock zero-pads an H:MM label to HH:MM so that string order matches
// chronological order. 12-hour labels ("9:05 PM") are converted to 24-hour.
// Anything that is not a clock label is returned unchanged.
func Clock(s string) string {
	m := clockRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return s
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	switch strings.ToLower(m[3]) {
	case "am":
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 12 {
			hour += 12
		}
	}
	if hour > 23 || minute > 59 {
		return s
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

var std = New(nil)

// Normalize canonicalizes v in the local time zone.
func Normalize(v any) string { return std.Normalize(v) }

// Default returns the normalizer bound to the local time zone.
func Default() *Normalizer { return std }
