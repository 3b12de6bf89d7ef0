// aggregate reads a loan CSV dataset from an object store (S3 or local
// path), computes the account-level and monthly customer-level aggregations,
// and writes both back as CSV. Setting USE_RAY=True runs the aggregations on
// a worker-pool backend; a started backend is always shut down before exit.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quantmill/loanpipe/pkg/cluster"
	"github.com/quantmill/loanpipe/pkg/config"
	"github.com/quantmill/loanpipe/pkg/frame"
	"github.com/quantmill/loanpipe/pkg/io/csvio"
	"github.com/quantmill/loanpipe/pkg/io/jsonlio"
	"github.com/quantmill/loanpipe/pkg/loan"
	"github.com/quantmill/loanpipe/pkg/store"
	"github.com/quantmill/loanpipe/pkg/transform/derive"
	"github.com/quantmill/loanpipe/pkg/transform/validate"
)

type options struct {
	input      string
	output     string
	configPath string
	format     string
}

func main() {
	var opts options
	flag.StringVar(&opts.input, "input_data_location", "", "Input dataset location (s3://bucket/key or local path)")
	flag.StringVar(&opts.output, "output_data_location", "", "Output location (s3://bucket/prefix or local directory)")
	flag.StringVar(&opts.configPath, "config", "", "Optional job config (.toml/.yaml/.json)")
	flag.StringVar(&opts.format, "format", "csv", "Output format: csv or jsonl")
	flag.Parse()

	log := logrus.New()
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	}

	if opts.input == "" || opts.output == "" {
		fmt.Fprintln(os.Stderr, "usage: aggregate --input_data_location <uri> --output_data_location <uri>")
		os.Exit(2)
	}
	if opts.format != "csv" && opts.format != "jsonl" {
		fmt.Fprintf(os.Stderr, "unsupported output format %q\n", opts.format)
		os.Exit(2)
	}

	backend, distributed := cluster.FromEnv()
	if err := backend.Start(); err != nil {
		log.Fatalf("start compute backend: %v", err)
	}
	log.WithField("distributed", distributed).Info("compute backend started")

	// The backend must come down before exit regardless of how the run went,
	// and log.Fatal skips defers, so shut down explicitly first.
	err := run(log, backend, opts)
	backend.Shutdown()
	if err != nil {
		log.Fatal(err)
	}
}

func run(log *logrus.Logger, backend cluster.Backend, opts options) error {
	ctx := context.Background()

	job, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cols := job.ResolveColumns()

	inStore, inKey, err := store.Resolve(opts.input)
	if err != nil {
		return err
	}
	outStore, outPrefix, err := store.Resolve(opts.output)
	if err != nil {
		return err
	}

	t0 := time.Now()
	data, err := inStore.Get(inKey)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	r := csvio.FromReader(bytes.NewReader(data), csvio.ReaderOptions{HasHeader: true, SampleRows: job.SampleRows})
	schema, err := r.InferSchema()
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	f, err := r.ReadAll(schema)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	log.WithFields(logrus.Fields{
		"rows":     f.Rows(),
		"duration": time.Since(t0).String(),
	}).Info("input read")

	required := &validate.Required{Columns: []string{
		cols.CustomerID, cols.AccountID, cols.Balance, cols.Payments,
		cols.Arrears, cols.DateOpen, cols.OriginalTerm, cols.RemainingTerm,
	}}
	if _, err := required.Apply(ctx, f); err != nil {
		return fmt.Errorf("validate input: %w", err)
	}

	t0 = time.Now()
	account, err := backend.Aggregate(ctx, f, loan.AccountSpec(cols))
	if err != nil {
		return fmt.Errorf("account aggregation: %w", err)
	}
	log.WithFields(logrus.Fields{
		"groups":   account.Rows(),
		"duration": time.Since(t0).String(),
	}).Info("account aggregation completed")

	t0 = time.Now()
	pm := &derive.PaymentMonth{
		DateColumn:          cols.DateOpen,
		OriginalTermColumn:  cols.OriginalTerm,
		RemainingTermColumn: cols.RemainingTerm,
		As:                  loan.ColPaymentMonth,
		Layouts:             job.DateLayouts,
	}
	f, err = pm.Apply(ctx, f)
	if err != nil {
		return fmt.Errorf("derive payment month: %w", err)
	}
	monthly, err := backend.Aggregate(ctx, f, loan.MonthlySpec(cols))
	if err != nil {
		return fmt.Errorf("monthly aggregation: %w", err)
	}
	log.WithFields(logrus.Fields{
		"groups":   monthly.Rows(),
		"duration": time.Since(t0).String(),
	}).Info("monthly balance aggregation completed")

	if err := put(outStore, outPrefix, "account_aggregation", opts.format, account); err != nil {
		return err
	}
	if err := put(outStore, outPrefix, "monthly_balances", opts.format, monthly); err != nil {
		return err
	}
	log.WithField("output", opts.output).Info("results written")
	return nil
}

func put(st store.Store, prefix, name, format string, f *frame.Frame) error {
	var buf bytes.Buffer
	var err error
	switch format {
	case "jsonl":
		name += ".jsonl"
		err = jsonlio.Write(&buf, f)
	default:
		name += ".csv"
		err = csvio.Write(&buf, f, csvio.WriterOptions{})
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	if err := st.Put(store.Join(prefix, name), buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
