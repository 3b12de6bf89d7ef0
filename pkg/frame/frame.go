// Package frame holds the columnar in-memory representation shared by the
// pipeline tools: a typed, nullable Frame plus the Transform/Pipeline and
// chunk-streaming contracts built on top of it.
package frame

import (
	"fmt"
	"time"
)

// Kind enumerates the logical column types.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	default:
		return "invalid"
	}
}

type ColumnSchema struct {
	Name string
	Kind Kind
}

// Schema describes the logical shape of a dataset.
type Schema struct {
	Columns []ColumnSchema
}

func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Equal reports whether two schemas have the same columns in the same order.
func (s Schema) Equal(o Schema) bool {
	if len(s.Columns) != len(o.Columns) {
		return false
	}
	for i := range s.Columns {
		if s.Columns[i] != o.Columns[i] {
			return false
		}
	}
	return true
}

// Column is the untyped view of a column.
type Column interface {
	Name() string
	Kind() Kind
	Len() int
	IsNull(i int) bool
	SetNull(i int)
	AppendNull()
}

// Col is a typed, nullable column. The zero value is not usable; columns are
// created through New or the NewCol constructor.
type Col[T any] struct {
	name  string
	kind  Kind
	data  []T
	nulls []bool
}

func NewCol[T any](name string, kind Kind) *Col[T] {
	return &Col[T]{name: name, kind: kind}
}

func (c *Col[T]) Name() string      { return c.name }
func (c *Col[T]) Kind() Kind        { return c.kind }
func (c *Col[T]) Len() int          { return len(c.data) }
func (c *Col[T]) IsNull(i int) bool { return c.nulls[i] }
func (c *Col[T]) SetNull(i int) {
	var zero T
	c.data[i] = zero
	c.nulls[i] = true
}

// Get returns the value at i and whether it is non-null.
func (c *Col[T]) Get(i int) (T, bool) { return c.data[i], !c.nulls[i] }

func (c *Col[T]) Set(i int, v T) {
	c.data[i] = v
	c.nulls[i] = false
}

func (c *Col[T]) Append(v T) {
	c.data = append(c.data, v)
	c.nulls = append(c.nulls, false)
}

func (c *Col[T]) AppendNull() {
	var zero T
	c.data = append(c.data, zero)
	c.nulls = append(c.nulls, true)
}

// Frame is a columnar container for tabular data.
type Frame struct {
	schema Schema
	cols   []Column
	index  map[string]int
	nrows  int
}

func New(s Schema) *Frame {
	f := &Frame{schema: s, cols: make([]Column, len(s.Columns)), index: make(map[string]int, len(s.Columns))}
	for i, cs := range s.Columns {
		switch cs.Kind {
		case KindBool:
			f.cols[i] = NewCol[bool](cs.Name, KindBool)
		case KindInt:
			f.cols[i] = NewCol[int64](cs.Name, KindInt)
		case KindFloat:
			f.cols[i] = NewCol[float64](cs.Name, KindFloat)
		case KindString:
			f.cols[i] = NewCol[string](cs.Name, KindString)
		case KindTime:
			f.cols[i] = NewCol[time.Time](cs.Name, KindTime)
		default:
			panic(fmt.Sprintf("frame: invalid kind for column %q", cs.Name))
		}
		f.index[cs.Name] = i
	}
	return f
}

func (f *Frame) Schema() Schema { return f.schema }
func (f *Frame) Rows() int      { return f.nrows }

func (f *Frame) Column(name string) (Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

func (f *Frame) HasColumn(name string) bool {
	_, ok := f.index[name]
	return ok
}

// AppendNullRow appends a row with every cell null.
func (f *Frame) AppendNullRow() {
	for _, c := range f.cols {
		c.AppendNull()
	}
	f.nrows++
}

// AddColumn attaches a column with Rows() entries to the frame. The column
// must already be the right length.
func (f *Frame) AddColumn(c Column) error {
	if _, dup := f.index[c.Name()]; dup {
		return fmt.Errorf("frame: duplicate column %q", c.Name())
	}
	if c.Len() != f.nrows {
		return fmt.Errorf("frame: column %q has %d rows, frame has %d", c.Name(), c.Len(), f.nrows)
	}
	f.index[c.Name()] = len(f.cols)
	f.cols = append(f.cols, c)
	f.schema.Columns = append(f.schema.Columns, ColumnSchema{Name: c.Name(), Kind: c.Kind()})
	return nil
}

// SetCell sets one cell by column name; a nil value stores a null.
func (f *Frame) SetCell(row int, name string, v any) error {
	i, ok := f.index[name]
	if !ok {
		return fmt.Errorf("frame: unknown column %q", name)
	}
	c := f.cols[i]
	if v == nil {
		c.SetNull(row)
		return nil
	}
	switch col := c.(type) {
	case *Col[bool]:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("frame: column %q expects bool, got %T", name, v)
		}
		col.Set(row, b)
	case *Col[int64]:
		switch t := v.(type) {
		case int:
			col.Set(row, int64(t))
		case int64:
			col.Set(row, t)
		case float64:
			col.Set(row, int64(t))
		default:
			return fmt.Errorf("frame: column %q expects int, got %T", name, v)
		}
	case *Col[float64]:
		switch t := v.(type) {
		case float64:
			col.Set(row, t)
		case float32:
			col.Set(row, float64(t))
		case int:
			col.Set(row, float64(t))
		case int64:
			col.Set(row, float64(t))
		default:
			return fmt.Errorf("frame: column %q expects float, got %T", name, v)
		}
	case *Col[string]:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("frame: column %q expects string, got %T", name, v)
		}
		col.Set(row, s)
	case *Col[time.Time]:
		t, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("frame: column %q expects time.Time, got %T", name, v)
		}
		col.Set(row, t)
	default:
		return fmt.Errorf("frame: column %q has unsupported type", name)
	}
	return nil
}

// Append appends every row of other. Schemas must match exactly.
func (f *Frame) Append(other *Frame) error {
	if !f.schema.Equal(other.schema) {
		return fmt.Errorf("frame: schema mismatch: %v vs %v", f.schema.Names(), other.schema.Names())
	}
	for r := 0; r < other.nrows; r++ {
		f.AppendNullRow()
		row := f.nrows - 1
		for _, cs := range other.schema.Columns {
			src, _ := other.Column(cs.Name)
			if src.IsNull(r) {
				continue
			}
			switch col := src.(type) {
			case *Col[bool]:
				v, _ := col.Get(r)
				_ = f.SetCell(row, cs.Name, v)
			case *Col[int64]:
				v, _ := col.Get(r)
				_ = f.SetCell(row, cs.Name, v)
			case *Col[float64]:
				v, _ := col.Get(r)
				_ = f.SetCell(row, cs.Name, v)
			case *Col[string]:
				v, _ := col.Get(r)
				_ = f.SetCell(row, cs.Name, v)
			case *Col[time.Time]:
				v, _ := col.Get(r)
				_ = f.SetCell(row, cs.Name, v)
			}
		}
	}
	return nil
}

// Typed accessors. They fail when the column is missing or of another kind.

func Bools(f *Frame, name string) (*Col[bool], error)      { return colAs[bool](f, name, KindBool) }
func Ints(f *Frame, name string) (*Col[int64], error)      { return colAs[int64](f, name, KindInt) }
func Floats(f *Frame, name string) (*Col[float64], error)  { return colAs[float64](f, name, KindFloat) }
func Strings(f *Frame, name string) (*Col[string], error)  { return colAs[string](f, name, KindString) }
func Times(f *Frame, name string) (*Col[time.Time], error) { return colAs[time.Time](f, name, KindTime) }

func colAs[T any](f *Frame, name string, want Kind) (*Col[T], error) {
	c, ok := f.Column(name)
	if !ok {
		return nil, fmt.Errorf("frame: unknown column %q", name)
	}
	tc, ok := c.(*Col[T])
	if !ok {
		return nil, fmt.Errorf("frame: column %q is %s, not %s", name, c.Kind(), want)
	}
	return tc, nil
}

// CellString renders one cell as a string; numeric formatting matches the CSV
// writer. Null cells render as "".
func (f *Frame) CellString(row int, name string) string {
	c, ok := f.Column(name)
	if !ok || c.IsNull(row) {
		return ""
	}
	switch col := c.(type) {
	case *Col[bool]:
		v, _ := col.Get(row)
		if v {
			return "true"
		}
		return "false"
	case *Col[int64]:
		v, _ := col.Get(row)
		return fmt.Sprintf("%d", v)
	case *Col[float64]:
		v, _ := col.Get(row)
		return fmt.Sprintf("%g", v)
	case *Col[string]:
		v, _ := col.Get(row)
		return v
	case *Col[time.Time]:
		v, _ := col.Get(row)
		return v.Format(time.RFC3339)
	}
	return ""
}
