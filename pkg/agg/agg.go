// Package agg implements a mergeable group-by aggregation over frames.
// Partial tables built from disjoint row ranges merge into the same result a
// single pass would produce, which is what lets the pool backend fan work out.
package agg

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/quantmill/loanpipe/pkg/frame"
)

// Op is an aggregation operator.
type Op int

const (
	Mean Op = iota + 1
	Sum
	Count
	CountDistinct
)

func (o Op) String() string {
	switch o {
	case Mean:
		return "mean"
	case Sum:
		return "sum"
	case Count:
		return "count"
	case CountDistinct:
		return "count_distinct"
	default:
		return "invalid"
	}
}

// Column describes one output column: Op applied to Source, emitted as As.
type Column struct {
	Source string
	As     string
	Op     Op
}

// Spec is a group-by aggregation: one output row per distinct combination of
// the GroupBy column values.
type Spec struct {
	GroupBy []string
	Columns []Column
}

func (s Spec) equal(o Spec) bool {
	if len(s.GroupBy) != len(o.GroupBy) || len(s.Columns) != len(o.Columns) {
		return false
	}
	for i := range s.GroupBy {
		if s.GroupBy[i] != o.GroupBy[i] {
			return false
		}
	}
	for i := range s.Columns {
		if s.Columns[i] != o.Columns[i] {
			return false
		}
	}
	return true
}

// keySep never occurs in the data columns we group on.
const keySep = "\x1f"

type group struct {
	keys []any // typed group-by cell values, nil for null
	sum  []float64
	n    []int64
	set  []map[string]struct{}
}

// Table accumulates aggregation state. Consume folds rows in, Merge combines
// partial tables, Frame materializes the result.
type Table struct {
	spec     Spec
	keyKinds []frame.Kind
	srcKinds []frame.Kind
	groups   map[string]*group
}

func New(spec Spec) (*Table, error) {
	if len(spec.GroupBy) == 0 {
		return nil, fmt.Errorf("agg: spec needs at least one group-by column")
	}
	if len(spec.Columns) == 0 {
		return nil, fmt.Errorf("agg: spec needs at least one output column")
	}
	seen := map[string]bool{}
	for _, c := range spec.Columns {
		if c.As == "" {
			return nil, fmt.Errorf("agg: output column for %s(%s) has no name", c.Op, c.Source)
		}
		if seen[c.As] {
			return nil, fmt.Errorf("agg: duplicate output column %q", c.As)
		}
		seen[c.As] = true
	}
	return &Table{spec: spec, groups: map[string]*group{}}, nil
}

// Consume folds every row of f into the table.
func (t *Table) Consume(f *frame.Frame) error {
	return t.ConsumeRange(f, 0, f.Rows())
}

// ConsumeRange folds rows [lo, hi) of f into the table.
func (t *Table) ConsumeRange(f *frame.Frame, lo, hi int) error {
	keyCols := make([]frame.Column, len(t.spec.GroupBy))
	for i, name := range t.spec.GroupBy {
		c, ok := f.Column(name)
		if !ok {
			return fmt.Errorf("agg: group-by column %q not in frame", name)
		}
		keyCols[i] = c
	}
	srcCols := make([]frame.Column, len(t.spec.Columns))
	for i, ac := range t.spec.Columns {
		c, ok := f.Column(ac.Source)
		if !ok {
			return fmt.Errorf("agg: column %q not in frame", ac.Source)
		}
		if (ac.Op == Mean || ac.Op == Sum) && c.Kind() != frame.KindInt && c.Kind() != frame.KindFloat {
			return fmt.Errorf("agg: %s needs a numeric column, %q is %s", ac.Op, ac.Source, c.Kind())
		}
		srcCols[i] = c
	}
	if err := t.recordKinds(keyCols, srcCols); err != nil {
		return err
	}

	var sb strings.Builder
	for r := lo; r < hi; r++ {
		sb.Reset()
		for i := range t.spec.GroupBy {
			if i > 0 {
				sb.WriteString(keySep)
			}
			sb.WriteString(f.CellString(r, keyCols[i].Name()))
		}
		key := sb.String()

		g, ok := t.groups[key]
		if !ok {
			g = &group{
				keys: make([]any, len(keyCols)),
				sum:  make([]float64, len(srcCols)),
				n:    make([]int64, len(srcCols)),
				set:  make([]map[string]struct{}, len(srcCols)),
			}
			for i, c := range keyCols {
				g.keys[i] = cellValue(c, r)
			}
			t.groups[key] = g
		}

		for i, ac := range t.spec.Columns {
			c := srcCols[i]
			if c.IsNull(r) {
				continue
			}
			switch ac.Op {
			case Mean, Sum:
				v, _ := numericValue(c, r)
				g.sum[i] += v
				g.n[i]++
			case Count:
				g.n[i]++
			case CountDistinct:
				if g.set[i] == nil {
					g.set[i] = map[string]struct{}{}
				}
				g.set[i][f.CellString(r, c.Name())] = struct{}{}
			}
		}
	}
	return nil
}

// Merge folds other into t. Both tables must share the same spec. Merge order
// does not affect the materialized result.
func (t *Table) Merge(other *Table) error {
	if !t.spec.equal(other.spec) {
		return fmt.Errorf("agg: cannot merge tables with different specs")
	}
	if t.keyKinds == nil {
		t.keyKinds = other.keyKinds
		t.srcKinds = other.srcKinds
	}
	for key, og := range other.groups {
		g, ok := t.groups[key]
		if !ok {
			t.groups[key] = og
			continue
		}
		for i := range t.spec.Columns {
			g.sum[i] += og.sum[i]
			g.n[i] += og.n[i]
			if og.set[i] != nil {
				if g.set[i] == nil {
					g.set[i] = map[string]struct{}{}
				}
				for v := range og.set[i] {
					g.set[i][v] = struct{}{}
				}
			}
		}
	}
	return nil
}

// Groups returns the number of distinct key combinations seen so far.
func (t *Table) Groups() int { return len(t.groups) }

// Frame materializes the aggregation, one row per group, ordered by key.
func (t *Table) Frame() *frame.Frame {
	cols := make([]frame.ColumnSchema, 0, len(t.spec.GroupBy)+len(t.spec.Columns))
	for i, name := range t.spec.GroupBy {
		k := frame.KindString
		if t.keyKinds != nil {
			k = t.keyKinds[i]
		}
		cols = append(cols, frame.ColumnSchema{Name: name, Kind: k})
	}
	for i, ac := range t.spec.Columns {
		cols = append(cols, frame.ColumnSchema{Name: ac.As, Kind: t.outputKind(i)})
	}
	out := frame.New(frame.Schema{Columns: cols})

	keys := make([]string, 0, len(t.groups))
	for k := range t.groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		g := t.groups[key]
		out.AppendNullRow()
		row := out.Rows() - 1
		for i, name := range t.spec.GroupBy {
			if g.keys[i] != nil {
				_ = out.SetCell(row, name, g.keys[i])
			}
		}
		for i, ac := range t.spec.Columns {
			switch ac.Op {
			case Mean:
				if g.n[i] > 0 {
					_ = out.SetCell(row, ac.As, g.sum[i]/float64(g.n[i]))
				}
			case Sum:
				if g.n[i] > 0 {
					if t.outputKind(i) == frame.KindInt {
						_ = out.SetCell(row, ac.As, int64(g.sum[i]))
					} else {
						_ = out.SetCell(row, ac.As, g.sum[i])
					}
				}
			case Count:
				_ = out.SetCell(row, ac.As, g.n[i])
			case CountDistinct:
				_ = out.SetCell(row, ac.As, int64(len(g.set[i])))
			}
		}
	}
	return out
}

func (t *Table) outputKind(i int) frame.Kind {
	switch t.spec.Columns[i].Op {
	case Mean:
		return frame.KindFloat
	case Sum:
		if t.srcKinds != nil && t.srcKinds[i] == frame.KindInt {
			return frame.KindInt
		}
		return frame.KindFloat
	default:
		return frame.KindInt
	}
}

func (t *Table) recordKinds(keyCols, srcCols []frame.Column) error {
	if t.keyKinds == nil {
		t.keyKinds = make([]frame.Kind, len(keyCols))
		for i, c := range keyCols {
			t.keyKinds[i] = c.Kind()
		}
		t.srcKinds = make([]frame.Kind, len(srcCols))
		for i, c := range srcCols {
			t.srcKinds[i] = c.Kind()
		}
		return nil
	}
	for i, c := range keyCols {
		if t.keyKinds[i] != c.Kind() {
			return fmt.Errorf("agg: group-by column %q changed kind between consumes", c.Name())
		}
	}
	for i, c := range srcCols {
		if t.srcKinds[i] != c.Kind() {
			return fmt.Errorf("agg: column %q changed kind between consumes", c.Name())
		}
	}
	return nil
}

func cellValue(c frame.Column, r int) any {
	if c.IsNull(r) {
		return nil
	}
	switch col := c.(type) {
	case *frame.Col[bool]:
		v, _ := col.Get(r)
		return v
	case *frame.Col[int64]:
		v, _ := col.Get(r)
		return v
	case *frame.Col[float64]:
		v, _ := col.Get(r)
		return v
	case *frame.Col[string]:
		v, _ := col.Get(r)
		return v
	case *frame.Col[time.Time]:
		v, _ := col.Get(r)
		return v
	default:
		return nil
	}
}

func numericValue(c frame.Column, r int) (float64, bool) {
	switch col := c.(type) {
	case *frame.Col[float64]:
		return col.Get(r)
	case *frame.Col[int64]:
		v, ok := col.Get(r)
		return float64(v), ok
	default:
		return 0, false
	}
}
