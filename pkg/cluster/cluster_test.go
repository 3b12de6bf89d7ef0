package cluster_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmill/loanpipe/pkg/agg"
	"github.com/quantmill/loanpipe/pkg/cluster"
	"github.com/quantmill/loanpipe/pkg/frame"
	"github.com/quantmill/loanpipe/pkg/loan"
)

func bigFrame(t *testing.T, rows int) *frame.Frame {
	t.Helper()
	f := frame.New(frame.Schema{Columns: []frame.ColumnSchema{
		{Name: loan.ColCustomerID, Kind: frame.KindString},
		{Name: loan.ColAccountID, Kind: frame.KindString},
		{Name: loan.ColBalance, Kind: frame.KindFloat},
		{Name: loan.ColPayments, Kind: frame.KindFloat},
		{Name: loan.ColArrears, Kind: frame.KindInt},
	}})
	for i := 0; i < rows; i++ {
		f.AppendNullRow()
		_ = f.SetCell(i, loan.ColCustomerID, fmt.Sprintf("CU%d", i%17))
		_ = f.SetCell(i, loan.ColAccountID, fmt.Sprintf("A%d", i%53))
		_ = f.SetCell(i, loan.ColBalance, float64(i%211)*1.5)
		_ = f.SetCell(i, loan.ColPayments, float64(i%37))
		_ = f.SetCell(i, loan.ColArrears, int64(i%5))
	}
	return f
}

func framesEqual(t *testing.T, a, b *frame.Frame) {
	t.Helper()
	require.Equal(t, a.Rows(), b.Rows())
	require.True(t, a.Schema().Equal(b.Schema()))
	for r := 0; r < a.Rows(); r++ {
		for _, cs := range a.Schema().Columns {
			require.Equalf(t, a.CellString(r, cs.Name), b.CellString(r, cs.Name),
				"row %d column %s", r, cs.Name)
		}
	}
}

func TestPoolMatchesSerial(t *testing.T) {
	f := bigFrame(t, 10000)
	spec := loan.AccountSpec(loan.DefaultColumns())
	ctx := context.Background()

	serial := cluster.Serial{}
	require.NoError(t, serial.Start())
	want, err := serial.Aggregate(ctx, f, spec)
	require.NoError(t, err)
	serial.Shutdown()

	pool := cluster.NewPool(4)
	pool.SetChunkRows(512)
	require.NoError(t, pool.Start())
	defer pool.Shutdown()
	got, err := pool.Aggregate(ctx, f, spec)
	require.NoError(t, err)

	framesEqual(t, want, got)
}

func TestPoolEmptyFrame(t *testing.T) {
	f := bigFrame(t, 0)
	pool := cluster.NewPool(2)
	require.NoError(t, pool.Start())
	defer pool.Shutdown()

	out, err := pool.Aggregate(context.Background(), f, loan.AccountSpec(loan.DefaultColumns()))
	require.NoError(t, err)
	assert.Equal(t, 0, out.Rows())
}

func TestPoolLifecycle(t *testing.T) {
	pool := cluster.NewPool(2)
	_, err := pool.Aggregate(context.Background(), bigFrame(t, 10), loan.AccountSpec(loan.DefaultColumns()))
	assert.Error(t, err, "aggregate before start must fail")

	require.NoError(t, pool.Start())
	assert.Error(t, pool.Start(), "double start must fail")
	pool.Shutdown()

	// shutdown of a never-started pool is a no-op
	cluster.NewPool(1).Shutdown()
}

func TestPoolPropagatesErrors(t *testing.T) {
	f := bigFrame(t, 100)
	pool := cluster.NewPool(2)
	pool.SetChunkRows(10)
	require.NoError(t, pool.Start())
	defer pool.Shutdown()

	_, err := pool.Aggregate(context.Background(), f, agg.Spec{
		GroupBy: []string{"MISSING"},
		Columns: []agg.Column{{Source: loan.ColBalance, As: "x", Op: agg.Sum}},
	})
	assert.Error(t, err)
}

func TestFromEnv(t *testing.T) {
	t.Setenv(cluster.EnvDistributed, "True")
	b, distributed := cluster.FromEnv()
	assert.True(t, distributed)
	assert.IsType(t, &cluster.Pool{}, b)

	t.Setenv(cluster.EnvDistributed, "False")
	b, distributed = cluster.FromEnv()
	assert.False(t, distributed)
	assert.IsType(t, cluster.Serial{}, b)
}
