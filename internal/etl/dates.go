package etl

import (
	"fmt"
	"strings"
	"time"
)

// dmyLayout parses day/month/year with or without zero padding.
const dmyLayout = "2/1/2006"

// CalendarDate is the canonical representation of one calendar day plus
// the values derived for the date dimension.
type CalendarDate struct {
	Time      time.Time
	Key       int // YYYYMMDD, the dimension's surrogate id
	Year      int
	Month     int
	MonthName string
	Quarter   int
}

// ParseDMY parses a day/month/year date string. Dashes are accepted as
// an alternate separator and normalized to slashes before the strict
// parse; anything else fails.
func ParseDMY(s string) (CalendarDate, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "-", "/")

	t, err := time.Parse(dmyLayout, s)
	if err != nil {
		return CalendarDate{}, fmt.Errorf("invalid day/month/year date %q: %w", s, err)
	}

	y, m, d := t.Date()
	return CalendarDate{
		Time:      t,
		Key:       y*10000 + int(m)*100 + d,
		Year:      y,
		Month:     int(m),
		MonthName: m.String(),
		Quarter:   (int(m)-1)/3 + 1,
	}, nil
}

// DateKey encodes a time as the date dimension's YYYYMMDD integer id.
func DateKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
