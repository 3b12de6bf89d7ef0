package profile_test

import (
	"strings"
	"testing"

	"github.com/quantmill/loanpipe/pkg/frame"
	"github.com/quantmill/loanpipe/pkg/profile"
)

func TestCollector(t *testing.T) {
	s := frame.Schema{Columns: []frame.ColumnSchema{
		{Name: "balance", Kind: frame.KindFloat},
		{Name: "customer", Kind: frame.KindString},
	}}
	f := frame.New(s)
	for i := 0; i < 4; i++ {
		f.AppendNullRow()
	}
	_ = f.SetCell(0, "balance", 100.0)
	_ = f.SetCell(1, "balance", 300.0)
	_ = f.SetCell(0, "customer", "CU1")
	_ = f.SetCell(1, "customer", "CU1")
	_ = f.SetCell(2, "customer", "CU2")

	c := profile.NewCollector(s, 2)
	c.Consume(f)

	report := c.ReportText()
	if !strings.Contains(report, "count=2 nulls=2 min=100 max=300 mean=200") {
		t.Fatalf("unexpected balance stats in report:\n%s", report)
	}
	if !strings.Contains(report, `"CU1": 2`) {
		t.Fatalf("expected CU1 frequency in report:\n%s", report)
	}
}

func TestCollectorAcrossFrames(t *testing.T) {
	s := frame.Schema{Columns: []frame.ColumnSchema{{Name: "term", Kind: frame.KindInt}}}
	c := profile.NewCollector(s, 0)

	for _, v := range []int64{12, 36} {
		f := frame.New(s)
		f.AppendNullRow()
		_ = f.SetCell(0, "term", v)
		c.Consume(f)
	}

	if !strings.Contains(c.ReportText(), "count=2 nulls=0 min=12 max=36 mean=24") {
		t.Fatalf("unexpected report:\n%s", c.ReportText())
	}
}
