// Package validate holds transforms that check a frame without changing it.
package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/quantmill/loanpipe/pkg/frame"
)

// Required fails the pipeline when any of the named columns is absent.
type Required struct {
	Columns []string
}

func (t *Required) Name() string { return "validate_required" }

func (t *Required) Apply(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
	var missing []string
	for _, name := range t.Columns {
		if !f.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return f, nil
}
