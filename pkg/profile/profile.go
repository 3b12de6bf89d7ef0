// Package profile collects per-column statistics over frames, used by the
// converter's --profile diagnostics.
package profile

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/quantmill/loanpipe/pkg/frame"
)

type NumStats struct {
	Count int
	Nulls int
	Min   float64
	Max   float64
	Sum   float64
}

func (n NumStats) Mean() float64 {
	if n.Count == 0 {
		return 0
	}
	return n.Sum / float64(n.Count)
}

type BoolStats struct {
	Count int
	Nulls int
	True  int
	False int
}

type StrStats struct {
	Count int
	Nulls int
	Freqs map[string]int
}

type ColumnProfile struct {
	Name string
	Kind frame.Kind
	Num  *NumStats
	Bool *BoolStats
	Str  *StrStats
}

// Collector accumulates column profiles across one or more frames sharing a
// schema.
type Collector struct {
	cols  []ColumnProfile
	index map[string]int
	topK  int
}

func NewCollector(schema frame.Schema, topK int) *Collector {
	c := &Collector{index: make(map[string]int), topK: topK}
	c.cols = make([]ColumnProfile, len(schema.Columns))
	for i, cs := range schema.Columns {
		cp := ColumnProfile{Name: cs.Name, Kind: cs.Kind}
		switch cs.Kind {
		case frame.KindInt, frame.KindFloat:
			cp.Num = &NumStats{Min: math.Inf(1), Max: math.Inf(-1)}
		case frame.KindBool:
			cp.Bool = &BoolStats{}
		default:
			cp.Str = &StrStats{Freqs: make(map[string]int)}
		}
		c.cols[i] = cp
		c.index[cs.Name] = i
	}
	return c
}

func (c *Collector) Consume(f *frame.Frame) {
	for _, cs := range f.Schema().Columns {
		i, ok := c.index[cs.Name]
		if !ok {
			continue
		}
		cp := &c.cols[i]
		col, _ := f.Column(cs.Name)
		for r := 0; r < col.Len(); r++ {
			if col.IsNull(r) {
				c.countNull(cp)
				continue
			}
			switch cc := col.(type) {
			case *frame.Col[float64]:
				v, _ := cc.Get(r)
				c.countNum(cp, v)
			case *frame.Col[int64]:
				v, _ := cc.Get(r)
				c.countNum(cp, float64(v))
			case *frame.Col[bool]:
				v, _ := cc.Get(r)
				cp.Bool.Count++
				if v {
					cp.Bool.True++
				} else {
					cp.Bool.False++
				}
			case *frame.Col[string]:
				v, _ := cc.Get(r)
				c.countStr(cp, v)
			case *frame.Col[time.Time]:
				v, _ := cc.Get(r)
				c.countStr(cp, v.Format(time.RFC3339))
			}
		}
	}
}

func (c *Collector) countNull(cp *ColumnProfile) {
	switch {
	case cp.Num != nil:
		cp.Num.Nulls++
	case cp.Bool != nil:
		cp.Bool.Nulls++
	default:
		cp.Str.Nulls++
	}
}

func (c *Collector) countNum(cp *ColumnProfile, v float64) {
	cp.Num.Count++
	if v < cp.Num.Min {
		cp.Num.Min = v
	}
	if v > cp.Num.Max {
		cp.Num.Max = v
	}
	cp.Num.Sum += v
}

func (c *Collector) countStr(cp *ColumnProfile, v string) {
	cp.Str.Count++
	if c.topK > 0 {
		cp.Str.Freqs[v]++
	}
}

// ReportText renders a one-line-per-column summary.
func (c *Collector) ReportText() string {
	var b strings.Builder
	b.WriteString("Profile Summary\n")
	for _, cp := range c.cols {
		fmt.Fprintf(&b, "- %s (%s): ", cp.Name, cp.Kind)
		switch {
		case cp.Num != nil:
			fmt.Fprintf(&b, "count=%d nulls=%d min=%.6g max=%.6g mean=%.6g\n",
				cp.Num.Count, cp.Num.Nulls, cp.Num.Min, cp.Num.Max, cp.Num.Mean())
		case cp.Bool != nil:
			fmt.Fprintf(&b, "count=%d nulls=%d true=%d false=%d\n",
				cp.Bool.Count, cp.Bool.Nulls, cp.Bool.True, cp.Bool.False)
		default:
			fmt.Fprintf(&b, "count=%d nulls=%d\n", cp.Str.Count, cp.Str.Nulls)
			for _, kv := range topFreqs(cp.Str.Freqs, c.topK) {
				fmt.Fprintf(&b, "    %q: %d\n", kv.k, kv.v)
			}
		}
	}
	return b.String()
}

type freq struct {
	k string
	v int
}

func topFreqs(m map[string]int, n int) []freq {
	if n <= 0 || len(m) == 0 {
		return nil
	}
	arr := make([]freq, 0, len(m))
	for k, v := range m {
		arr = append(arr, freq{k, v})
	}
	sort.Slice(arr, func(i, j int) bool {
		if arr[i].v != arr[j].v {
			return arr[i].v > arr[j].v
		}
		return arr[i].k < arr[j].k
	})
	if n > len(arr) {
		n = len(arr)
	}
	return arr[:n]
}
