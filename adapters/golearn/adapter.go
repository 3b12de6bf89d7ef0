// Package golearn converts aggregation result frames into golearn
// DenseInstances so downstream arrears-risk models can train on them
// directly.
package golearn

import (
	"github.com/sjwhitworth/golearn/base"

	"github.com/quantmill/loanpipe/pkg/frame"
)

// ToDenseInstances maps numeric columns to float attributes and everything
// else to categorical attributes. When class is non-empty that column becomes
// the class attribute.
func ToDenseInstances(f *frame.Frame, class string) (*base.DenseInstances, error) {
	cols := f.Schema().Columns
	attrs := make([]base.Attribute, len(cols))
	for i, cs := range cols {
		switch cs.Kind {
		case frame.KindInt, frame.KindFloat:
			attrs[i] = base.NewFloatAttribute(cs.Name)
		default:
			ca := new(base.CategoricalAttribute)
			ca.SetName(cs.Name)
			attrs[i] = ca
		}
	}

	inst := base.NewDenseInstances()
	specs := make([]base.AttributeSpec, len(attrs))
	for i, a := range attrs {
		specs[i] = inst.AddAttribute(a)
	}
	if err := inst.Extend(f.Rows()); err != nil {
		return nil, err
	}

	for r := 0; r < f.Rows(); r++ {
		for c, cs := range cols {
			col, _ := f.Column(cs.Name)
			if col.IsNull(r) {
				continue
			}
			switch cs.Kind {
			case frame.KindFloat:
				v, _ := col.(*frame.Col[float64]).Get(r)
				inst.Set(specs[c], r, base.PackFloatToBytes(v))
			case frame.KindInt:
				v, _ := col.(*frame.Col[int64]).Get(r)
				inst.Set(specs[c], r, base.PackFloatToBytes(float64(v)))
			default:
				inst.Set(specs[c], r, base.Attribute.GetSysValFromString(attrs[c], f.CellString(r, cs.Name)))
			}
		}
	}

	if class != "" {
		for i, cs := range cols {
			if cs.Name == class {
				if err := inst.AddClassAttribute(attrs[i]); err != nil {
					return nil, err
				}
				break
			}
		}
	}
	return inst, nil
}
