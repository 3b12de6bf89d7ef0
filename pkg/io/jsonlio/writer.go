// Package jsonlio renders frames as JSON lines, one object per row with null
// cells omitted.
package jsonlio

import (
	"bufio"
	"encoding/json"
	"io"
	"time"

	"github.com/quantmill/loanpipe/pkg/frame"
	"github.com/quantmill/loanpipe/pkg/io/ioutils"
)

func Write(w io.Writer, f *frame.Frame) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for r := 0; r < f.Rows(); r++ {
		m := make(map[string]any, len(f.Schema().Columns))
		for _, cs := range f.Schema().Columns {
			col, _ := f.Column(cs.Name)
			if col.IsNull(r) {
				continue
			}
			switch cs.Kind {
			case frame.KindFloat:
				v, _ := col.(*frame.Col[float64]).Get(r)
				m[cs.Name] = v
			case frame.KindInt:
				v, _ := col.(*frame.Col[int64]).Get(r)
				m[cs.Name] = v
			case frame.KindBool:
				v, _ := col.(*frame.Col[bool]).Get(r)
				m[cs.Name] = v
			case frame.KindTime:
				v, _ := col.(*frame.Col[time.Time]).Get(r)
				m[cs.Name] = v.Format(time.RFC3339)
			default:
				v, _ := col.(*frame.Col[string]).Get(r)
				m[cs.Name] = v
			}
		}
		if err := enc.Encode(m); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes the Frame to path (gzip when the path ends in .gz).
func WriteFile(path string, f *frame.Frame) error {
	out, err := ioutils.CreateMaybeCompressed(path)
	if err != nil {
		return err
	}
	if err := Write(out, f); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
