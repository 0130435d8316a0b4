// Package doytime converts between calendar (YYYY-MM-DD) and ordinal-day
// (YYYY-DDD) timestamps and measures the distance between them.
package doytime

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultPrecision is the number of fractional-second digits accepted when the
// caller does not ask for another precision.
const DefaultPrecision = 6

const defaultTime = "00:00:00"

var (
	thousand = decimal.NewFromInt(1000)
	million  = decimal.NewFromInt(1_000_000)

	patterns sync.Map // precision -> *regexp.Regexp
)

// Components is the structured breakdown of a parsed timestamp. Exactly one of
// (Month, Day) or DOY is set, depending on the grammar the input used.
type Components struct {
	Year  int
	Month int
	Day   int
	DOY   int
	Hour  int
	Min   int
	Sec   int
	// Millis holds the fractional second in milliseconds, rounded to the
	// requested precision.
	Millis decimal.Decimal
	// Time is the time-of-day portion exactly as written, or 00:00:00.
	Time string

	fraction decimal.Decimal
}

// Ordinal reports whether the timestamp was written in ordinal-day form.
func (c Components) Ordinal() bool {
	return c.DOY != 0
}

// Instant returns the UTC instant the components describe, at microsecond
// resolution.
func (c Components) Instant() time.Time {
	var base time.Time
	if c.Ordinal() {
		base = time.Date(c.Year, time.January, c.DOY, c.Hour, c.Min, c.Sec, 0, time.UTC)
	} else {
		base = time.Date(c.Year, time.Month(c.Month), c.Day, c.Hour, c.Min, c.Sec, 0, time.UTC)
	}
	micros := c.fraction.Mul(million).Round(0).IntPart()
	return base.Add(time.Duration(micros) * time.Microsecond)
}

func pattern(precision int) *regexp.Regexp {
	if precision < 1 {
		precision = DefaultPrecision
	}
	if re, ok := patterns.Load(precision); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(fmt.Sprintf(
		`(?i)^(?P<year>\d{4})-(?:(?P<month>\d{1,2})-(?P<day>\d{1,2})|(?P<doy>\d{1,3}))`+
			`(?:T(?P<time>(?P<hour>\d{1,2})(?::(?P<min>\d{1,2}))?(?::(?P<sec>\d{1,2})(?P<dec>\.\d{1,%d})?)?))?$`,
		precision,
	))
	actual, _ := patterns.LoadOrStore(precision, re)
	return actual.(*regexp.Regexp)
}

// Parse breaks a YYYY-MM-DDThh:mm:ss[.f] or YYYY-DDDThh:mm:ss[.f] timestamp
// into its components. The second result is false for anything that does not
// match either grammar, including out-of-range fields.
func Parse(text string, precision int) (Components, bool) {
	re := pattern(precision)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return Components{}, false
	}
	group := func(name string) string {
		return m[re.SubexpIndex(name)]
	}
	atoi := func(s string) int {
		if s == "" {
			return 0
		}
		n, _ := strconv.Atoi(s)
		return n
	}

	c := Components{
		Year: atoi(group("year")),
		Hour: atoi(group("hour")),
		Min:  atoi(group("min")),
		Sec:  atoi(group("sec")),
		Time: group("time"),
	}
	if c.Time == "" {
		c.Time = defaultTime
	}
	if c.Hour > 23 || c.Min > 59 || c.Sec > 59 {
		return Components{}, false
	}

	if doy := group("doy"); doy != "" {
		c.DOY = atoi(doy)
		if c.DOY < 1 || c.DOY > daysInYear(c.Year) {
			return Components{}, false
		}
	} else {
		c.Month = atoi(group("month"))
		c.Day = atoi(group("day"))
		if c.Month < 1 || c.Month > 12 || c.Day < 1 || c.Day > daysInMonth(c.Year, time.Month(c.Month)) {
			return Components{}, false
		}
	}

	c.fraction = decimal.Zero
	if dec := group("dec"); dec != "" {
		f, err := decimal.NewFromString("0" + dec)
		if err != nil {
			return Components{}, false
		}
		c.fraction = f
	}
	p := precision
	if p < 1 {
		p = DefaultPrecision
	}
	c.Millis = c.fraction.Mul(thousand).Round(int32(p))
	return c, true
}

// ToDOY converts a calendar timestamp into ordinal-day form. Ordinal input is
// returned unchanged. Date fields come out zero-padded; the time of day is
// kept as written.
func ToDOY(text string, precision int) (string, bool) {
	c, ok := Parse(text, precision)
	if !ok {
		return "", false
	}
	if c.Ordinal() {
		return text, true
	}
	yday := time.Date(c.Year, time.Month(c.Month), c.Day, 0, 0, 0, 0, time.UTC).YearDay()
	return fmt.Sprintf("%04d-%03dT%s", c.Year, yday, c.Time), true
}

// ToYMD converts an ordinal-day timestamp into calendar form with a trailing
// UTC marker. Calendar input only gains the marker. Date fields are
// zero-padded as in ToDOY.
func ToYMD(text string, precision int) (string, bool) {
	c, ok := Parse(text, precision)
	if !ok {
		return "", false
	}
	if !c.Ordinal() {
		return text + "Z", true
	}
	d := time.Date(c.Year, time.January, c.DOY, 0, 0, 0, 0, time.UTC)
	return fmt.Sprintf("%04d-%02d-%02dT%sZ", d.Year(), int(d.Month()), d.Day(), c.Time), true
}

// DurationMicros returns the absolute elapsed time between two timestamps of
// either grammar, in microseconds.
func DurationMicros(a, b string, precision int) (int64, bool) {
	ca, ok := Parse(a, precision)
	if !ok {
		return 0, false
	}
	cb, ok := Parse(b, precision)
	if !ok {
		return 0, false
	}
	d := ca.Instant().UnixMicro() - cb.Instant().UnixMicro()
	if d < 0 {
		d = -d
	}
	return d, true
}

func daysInYear(year int) int {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay()
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
