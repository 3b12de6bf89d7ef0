// Package parquetio writes frames to Parquet, including hive-style
// partitioned layouts, and reads them back for verification.
package parquetio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	local "github.com/xitongsys/parquet-go-source/local"
	pw "github.com/xitongsys/parquet-go/writer"

	"github.com/quantmill/loanpipe/pkg/frame"
)

// DataFileName is the fixed name of the data file inside each partition
// directory. Rewriting a partition replaces this file in place, so re-running
// a conversion neither duplicates nor corrupts existing partitions.
const DataFileName = "data_0.parquet"

// WriteFile writes the whole Frame to a single Parquet file.
func WriteFile(path string, f *frame.Frame) error {
	rows := make([]int, f.Rows())
	for i := range rows {
		rows[i] = i
	}
	return writeRows(path, f, rows, f.Schema().Columns)
}

// WritePartitioned writes the Frame under dir using one COL=value directory
// level per partition column. Partition columns are encoded in the directory
// names and dropped from the data files. Rows with a null partition value are
// rejected.
func WritePartitioned(dir string, f *frame.Frame, partitionCols []string) error {
	dataCols := make([]frame.ColumnSchema, 0, len(f.Schema().Columns))
	part := make(map[string]bool, len(partitionCols))
	for _, name := range partitionCols {
		if !f.HasColumn(name) {
			return fmt.Errorf("parquet: partition column %q not in frame", name)
		}
		part[name] = true
	}
	for _, cs := range f.Schema().Columns {
		if !part[cs.Name] {
			dataCols = append(dataCols, cs)
		}
	}

	groups := make(map[string][]int)
	order := make([]string, 0)
	for r := 0; r < f.Rows(); r++ {
		rel := ""
		for _, name := range partitionCols {
			col, _ := f.Column(name)
			if col.IsNull(r) {
				return fmt.Errorf("parquet: null partition value in column %q at row %d", name, r)
			}
			rel = filepath.Join(rel, name+"="+f.CellString(r, name))
		}
		if _, seen := groups[rel]; !seen {
			order = append(order, rel)
		}
		groups[rel] = append(groups[rel], r)
	}

	for _, rel := range order {
		pdir := filepath.Join(dir, rel)
		if err := os.MkdirAll(pdir, 0o755); err != nil {
			return err
		}
		if err := writeRows(filepath.Join(pdir, DataFileName), f, groups[rel], dataCols); err != nil {
			return fmt.Errorf("parquet: partition %s: %w", rel, err)
		}
	}
	return nil
}

func writeRows(path string, f *frame.Frame, rows []int, cols []frame.ColumnSchema) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	w, err := pw.NewJSONWriter(schemaJSON(cols), fw, 4)
	if err != nil {
		_ = fw.Close()
		return fmt.Errorf("parquet writer init: %w", err)
	}

	for _, r := range rows {
		rec := make(map[string]any, len(cols))
		for _, cs := range cols {
			col, _ := f.Column(cs.Name)
			if col.IsNull(r) {
				continue
			}
			switch cs.Kind {
			case frame.KindFloat:
				v, _ := col.(*frame.Col[float64]).Get(r)
				rec[cs.Name] = v
			case frame.KindInt:
				v, _ := col.(*frame.Col[int64]).Get(r)
				rec[cs.Name] = v
			case frame.KindBool:
				v, _ := col.(*frame.Col[bool]).Get(r)
				rec[cs.Name] = v
			case frame.KindTime:
				v, _ := col.(*frame.Col[time.Time]).Get(r)
				rec[cs.Name] = v.Format(time.RFC3339)
			default:
				v, _ := col.(*frame.Col[string]).Get(r)
				rec[cs.Name] = v
			}
		}
		b, err := json.Marshal(rec)
		if err != nil {
			_ = w.WriteStop()
			_ = fw.Close()
			return err
		}
		if err := w.Write(string(b)); err != nil {
			_ = w.WriteStop()
			_ = fw.Close()
			return fmt.Errorf("parquet write row: %w", err)
		}
	}
	if err := w.WriteStop(); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

func schemaJSON(cols []frame.ColumnSchema) string {
	type field struct {
		Tag string `json:"Tag"`
	}
	type schema struct {
		Tag    string  `json:"Tag"`
		Fields []field `json:"Fields"`
	}
	sc := schema{Tag: "name=schema, repetitiontype=REQUIRED"}
	for _, cs := range cols {
		tag := "name=" + cs.Name + ", repetitiontype=OPTIONAL, type="
		switch cs.Kind {
		case frame.KindFloat:
			tag += "DOUBLE"
		case frame.KindInt:
			tag += "INT64"
		case frame.KindBool:
			tag += "BOOLEAN"
		default:
			tag += "UTF8"
		}
		sc.Fields = append(sc.Fields, field{Tag: tag})
	}
	b, _ := json.Marshal(sc)
	return string(b)
}
