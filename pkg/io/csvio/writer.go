package csvio

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/quantmill/loanpipe/pkg/frame"
	"github.com/quantmill/loanpipe/pkg/io/ioutils"
)

type WriterOptions struct {
	Delimiter rune // 0 means ','
}

// Write renders the Frame as CSV with a header row.
func Write(w io.Writer, f *frame.Frame, opt WriterOptions) error {
	cw := csv.NewWriter(w)
	if opt.Delimiter != 0 {
		cw.Comma = opt.Delimiter
	}

	cols := f.Schema().Columns
	hdr := make([]string, len(cols))
	for i, cs := range cols {
		hdr[i] = cs.Name
	}
	if err := cw.Write(hdr); err != nil {
		return err
	}

	row := make([]string, len(cols))
	for r := 0; r < f.Rows(); r++ {
		for c, cs := range cols {
			row[c] = cellString(f, r, cs)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the Frame to path (gzip when the path ends in .gz).
func WriteFile(path string, f *frame.Frame, opt WriterOptions) error {
	out, err := ioutils.CreateMaybeCompressed(path)
	if err != nil {
		return err
	}
	if err := Write(out, f, opt); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func cellString(f *frame.Frame, r int, cs frame.ColumnSchema) string {
	col, _ := f.Column(cs.Name)
	if col.IsNull(r) {
		return ""
	}
	switch cs.Kind {
	case frame.KindFloat:
		c := col.(*frame.Col[float64])
		v, _ := c.Get(r)
		return strconv.FormatFloat(v, 'g', -1, 64)
	case frame.KindInt:
		c := col.(*frame.Col[int64])
		v, _ := c.Get(r)
		return strconv.FormatInt(v, 10)
	case frame.KindBool:
		c := col.(*frame.Col[bool])
		v, _ := c.Get(r)
		return strconv.FormatBool(v)
	case frame.KindTime:
		c := col.(*frame.Col[time.Time])
		v, _ := c.Get(r)
		return v.Format(time.RFC3339)
	default:
		c := col.(*frame.Col[string])
		v, _ := c.Get(r)
		return v
	}
}
