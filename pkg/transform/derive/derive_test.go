package derive_test

import (
	"context"
	"testing"

	"github.com/quantmill/loanpipe/pkg/frame"
	"github.com/quantmill/loanpipe/pkg/loan"
	"github.com/quantmill/loanpipe/pkg/transform/derive"
)

func TestYearMonth(t *testing.T) {
	f := frame.New(frame.Schema{Columns: []frame.ColumnSchema{
		{Name: loan.ColDateOpen, Kind: frame.KindString},
	}})
	f.AppendNullRow()
	_ = f.SetCell(0, loan.ColDateOpen, "2020-07-15")
	f.AppendNullRow() // null date

	tr := &derive.YearMonth{
		DateColumn: loan.ColDateOpen,
		YearAs:     loan.ColDateOpenYear,
		MonthAs:    loan.ColDateOpenMonth,
	}
	out, err := tr.Apply(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	year, err := frame.Ints(out, loan.ColDateOpenYear)
	if err != nil {
		t.Fatal(err)
	}
	month, err := frame.Ints(out, loan.ColDateOpenMonth)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := year.Get(0); v != 2020 {
		t.Fatalf("expected year 2020, got %d", v)
	}
	if v, _ := month.Get(0); v != 7 {
		t.Fatalf("expected month 7, got %d", v)
	}
	if !year.IsNull(1) || !month.IsNull(1) {
		t.Fatal("null date should derive null year/month")
	}
}

func TestYearMonthBadDate(t *testing.T) {
	f := frame.New(frame.Schema{Columns: []frame.ColumnSchema{
		{Name: loan.ColDateOpen, Kind: frame.KindString},
	}})
	f.AppendNullRow()
	_ = f.SetCell(0, loan.ColDateOpen, "garbage")

	tr := &derive.YearMonth{DateColumn: loan.ColDateOpen, YearAs: "y", MonthAs: "m"}
	if _, err := tr.Apply(context.Background(), f); err == nil {
		t.Fatal("expected error for unparsable date")
	}
}

func TestYearMonthMissingColumn(t *testing.T) {
	f := frame.New(frame.Schema{Columns: []frame.ColumnSchema{{Name: "x", Kind: frame.KindString}}})
	f.AppendNullRow()
	_ = f.SetCell(0, "x", "v")
	tr := &derive.YearMonth{DateColumn: loan.ColDateOpen, YearAs: "y", MonthAs: "m"}
	if _, err := tr.Apply(context.Background(), f); err == nil {
		t.Fatal("expected error for missing date column")
	}
}

func TestPaymentMonth(t *testing.T) {
	f := frame.New(frame.Schema{Columns: []frame.ColumnSchema{
		{Name: loan.ColDateOpen, Kind: frame.KindString},
		{Name: loan.ColOriginalTerm, Kind: frame.KindInt},
		{Name: loan.ColRemainingTerm, Kind: frame.KindInt},
	}})
	f.AppendNullRow()
	_ = f.SetCell(0, loan.ColDateOpen, "2020-01-15")
	_ = f.SetCell(0, loan.ColOriginalTerm, int64(24))
	_ = f.SetCell(0, loan.ColRemainingTerm, int64(20))
	f.AppendNullRow()
	_ = f.SetCell(1, loan.ColDateOpen, "2020-01-15")
	// terms left null

	tr := &derive.PaymentMonth{
		DateColumn:          loan.ColDateOpen,
		OriginalTermColumn:  loan.ColOriginalTerm,
		RemainingTermColumn: loan.ColRemainingTerm,
		As:                  loan.ColPaymentMonth,
	}
	out, err := tr.Apply(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	pm, err := frame.Strings(out, loan.ColPaymentMonth)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := pm.Get(0); v != "2020-05" {
		t.Fatalf("expected 2020-05, got %q", v)
	}
	if !pm.IsNull(1) {
		t.Fatal("null terms should derive a null payment month")
	}
}
