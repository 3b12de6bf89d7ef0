package derive

import (
	"context"
	"fmt"

	"github.com/quantmill/loanpipe/pkg/frame"
	"github.com/quantmill/loanpipe/pkg/loan"
)

// PaymentMonth appends the calendar month each row's balance belongs to:
// open date shifted by (original term - remaining term) months, rendered as
// "2006-01". Rows with a null input cell get a null month.
type PaymentMonth struct {
	DateColumn          string
	OriginalTermColumn  string
	RemainingTermColumn string
	As                  string
	Layouts             []string
}

func (t *PaymentMonth) Name() string { return "derive_payment_month" }

func (t *PaymentMonth) Apply(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
	orig, found := f.Column(t.OriginalTermColumn)
	if !found {
		return nil, fmt.Errorf("column %q not in frame", t.OriginalTermColumn)
	}
	rem, found := f.Column(t.RemainingTermColumn)
	if !found {
		return nil, fmt.Errorf("column %q not in frame", t.RemainingTermColumn)
	}

	out := frame.NewCol[string](t.As, frame.KindString)
	for r := 0; r < f.Rows(); r++ {
		open, ok, err := dateAt(f, t.DateColumn, r, t.Layouts)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", r, err)
		}
		ot, otOK := intAt(orig, r)
		rt, rtOK := intAt(rem, r)
		if !ok || !otOK || !rtOK {
			out.AppendNull()
			continue
		}
		out.Append(loan.PaymentMonth(open, ot, rt))
	}
	if err := f.AddColumn(out); err != nil {
		return nil, err
	}
	return f, nil
}

func intAt(c frame.Column, r int) (int64, bool) {
	switch col := c.(type) {
	case *frame.Col[int64]:
		return col.Get(r)
	case *frame.Col[float64]:
		v, ok := col.Get(r)
		return int64(v), ok
	default:
		return 0, false
	}
}
