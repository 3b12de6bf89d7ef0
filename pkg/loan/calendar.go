package loan

import (
	"fmt"
	"time"
)

// PaymentMonthLayout is how derived payment months are rendered.
const PaymentMonthLayout = "2006-01"

// DefaultDateLayouts are tried in order when parsing the loan open date.
var DefaultDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// ParseDate parses s against the given layouts, first match wins. An empty
// layout list falls back to DefaultDateLayouts.
func ParseDate(s string, layouts []string) (time.Time, error) {
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("loan: cannot parse date %q", s)
}

// AddMonths shifts t by n calendar months, clamping the day when the target
// month is shorter: Jan 31 + 1 month is Feb 28/29, not Mar 2.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	h, min, sec := t.Clock()
	return time.Date(first.Year(), first.Month(), d, h, min, sec, t.Nanosecond(), t.Location())
}

// PaymentMonth derives the calendar month a row's balance belongs to: the
// open date shifted by the months already elapsed on the loan (original term
// minus remaining term).
func PaymentMonth(open time.Time, originalTerm, remainingTerm int64) string {
	return AddMonths(open, int(originalTerm-remainingTerm)).Format(PaymentMonthLayout)
}

func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
