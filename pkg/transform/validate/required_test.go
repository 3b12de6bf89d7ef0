package validate_test

import (
	"context"
	"strings"
	"testing"

	"github.com/quantmill/loanpipe/pkg/frame"
	"github.com/quantmill/loanpipe/pkg/transform/validate"
)

func TestRequired(t *testing.T) {
	f := frame.New(frame.Schema{Columns: []frame.ColumnSchema{
		{Name: "a", Kind: frame.KindString},
	}})

	tr := &validate.Required{Columns: []string{"a"}}
	if _, err := tr.Apply(context.Background(), f); err != nil {
		t.Fatal(err)
	}

	tr = &validate.Required{Columns: []string{"a", "b", "c"}}
	_, err := tr.Apply(context.Background(), f)
	if err == nil {
		t.Fatal("expected error for missing columns")
	}
	if !strings.Contains(err.Error(), "b, c") {
		t.Fatalf("error should name the missing columns, got %q", err)
	}
}
