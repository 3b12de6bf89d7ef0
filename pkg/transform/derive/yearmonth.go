// Package derive holds transforms that append computed columns to a frame.
package derive

import (
	"context"
	"fmt"
	"time"

	"github.com/quantmill/loanpipe/pkg/frame"
	"github.com/quantmill/loanpipe/pkg/loan"
)

// YearMonth appends integer year and month columns computed from a date
// column. Null dates yield null year/month; a non-empty value that fails to
// parse is an error.
type YearMonth struct {
	DateColumn string
	YearAs     string
	MonthAs    string
	Layouts    []string
}

func (t *YearMonth) Name() string { return "derive_year_month" }

func (t *YearMonth) Apply(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
	year := frame.NewCol[int64](t.YearAs, frame.KindInt)
	month := frame.NewCol[int64](t.MonthAs, frame.KindInt)

	for r := 0; r < f.Rows(); r++ {
		d, ok, err := dateAt(f, t.DateColumn, r, t.Layouts)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", r, err)
		}
		if !ok {
			year.AppendNull()
			month.AppendNull()
			continue
		}
		year.Append(int64(d.Year()))
		month.Append(int64(d.Month()))
	}
	if err := f.AddColumn(year); err != nil {
		return nil, err
	}
	if err := f.AddColumn(month); err != nil {
		return nil, err
	}
	return f, nil
}

// dateAt reads a date cell from either a time column or a string column
// parsed under the given layouts. ok is false for null cells.
func dateAt(f *frame.Frame, name string, r int, layouts []string) (time.Time, bool, error) {
	col, found := f.Column(name)
	if !found {
		return time.Time{}, false, fmt.Errorf("column %q not in frame", name)
	}
	switch c := col.(type) {
	case *frame.Col[time.Time]:
		v, ok := c.Get(r)
		return v, ok, nil
	case *frame.Col[string]:
		v, ok := c.Get(r)
		if !ok {
			return time.Time{}, false, nil
		}
		d, err := loan.ParseDate(v, layouts)
		if err != nil {
			return time.Time{}, false, err
		}
		return d, true, nil
	default:
		return time.Time{}, false, fmt.Errorf("column %q is %s, want string or time", name, col.Kind())
	}
}
