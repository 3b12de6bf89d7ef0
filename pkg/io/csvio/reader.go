// Package csvio reads and writes CSV datasets as frames. Schema is inferred
// by sampling rows; unparsable cells become nulls rather than errors.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/quantmill/loanpipe/pkg/frame"
	"github.com/quantmill/loanpipe/pkg/io/ioutils"
)

type ReaderOptions struct {
	HasHeader  bool
	Delimiter  rune // 0 means ','
	SampleRows int  // rows sampled for kind inference; default 100
	Strict     bool // error on short/long records instead of counting them
}

type Reader struct {
	r      *csv.Reader
	opt    ReaderOptions
	closer io.Closer
	buf    [][]string // rows consumed during inference, replayed by ReadAll

	shortRecords int
	longRecords  int
}

// Open opens a CSV file (gzip transparent) and returns a Reader. The caller
// must Close it.
func Open(path string, opt ReaderOptions) (*Reader, error) {
	rc, err := ioutils.OpenMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	r := FromReader(rc, opt)
	r.closer = rc
	return r, nil
}

// FromReader constructs a Reader over any io.Reader (object-store payloads,
// pipes).
func FromReader(rd io.Reader, opt ReaderOptions) *Reader {
	cr := csv.NewReader(rd)
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false
	return &Reader{r: cr, opt: opt}
}

func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// InferSchema reads the header (when present) and samples rows to decide
// column kinds. Sampled rows are replayed by ReadAll.
func (r *Reader) InferSchema() (frame.Schema, error) {
	rec, err := r.r.Read()
	if err != nil {
		return frame.Schema{}, fmt.Errorf("csv: read header: %w", err)
	}

	var names []string
	if r.opt.HasHeader {
		names = make([]string, len(rec))
		for i, v := range rec {
			names[i] = strings.ToValidUTF8(strings.TrimSpace(v), "?")
		}
		if len(names) > 0 {
			names[0] = strings.TrimPrefix(names[0], "\ufeff")
		}
	} else {
		names = make([]string, len(rec))
		for i := range names {
			names[i] = "col_" + strconv.Itoa(i)
		}
		r.buf = append(r.buf, rec)
	}

	max := r.opt.SampleRows
	if max <= 0 {
		max = 100
	}
	for len(r.buf) < max {
		row, err := r.r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return frame.Schema{}, err
		}
		r.buf = append(r.buf, row)
	}

	kinds := inferKinds(len(names), r.buf)
	s := frame.Schema{Columns: make([]frame.ColumnSchema, len(names))}
	for i := range names {
		s.Columns[i] = frame.ColumnSchema{Name: names[i], Kind: kinds[i]}
	}
	return s, nil
}

// ReadAll loads the remainder of the input into a Frame under the given
// schema. Cells that do not parse under the schema kind are left null.
func (r *Reader) ReadAll(schema frame.Schema) (*frame.Frame, error) {
	f := frame.New(schema)
	for _, rec := range r.buf {
		if err := r.appendRecord(f, schema, rec); err != nil {
			return nil, err
		}
	}
	r.buf = nil
	for {
		rec, err := r.r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := r.appendRecord(f, schema, rec); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// readChunk loads up to n rows into a fresh Frame, replaying sampled rows
// first. A frame with fewer than n rows means the input is exhausted.
func (r *Reader) readChunk(schema frame.Schema, n int) (*frame.Frame, error) {
	f := frame.New(schema)
	for f.Rows() < n && len(r.buf) > 0 {
		rec := r.buf[0]
		r.buf = r.buf[1:]
		if err := r.appendRecord(f, schema, rec); err != nil {
			return nil, err
		}
	}
	for f.Rows() < n {
		rec, err := r.r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := r.appendRecord(f, schema, rec); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (r *Reader) appendRecord(f *frame.Frame, schema frame.Schema, rec []string) error {
	if len(rec) > len(schema.Columns) {
		r.longRecords++
		if r.opt.Strict {
			return fmt.Errorf("csv: long record: want %d fields, got %d", len(schema.Columns), len(rec))
		}
	}
	f.AppendNullRow()
	row := f.Rows() - 1
	for i, cs := range schema.Columns {
		if i >= len(rec) {
			r.shortRecords++
			if r.opt.Strict {
				return fmt.Errorf("csv: short record: want %d fields, got %d", len(schema.Columns), len(rec))
			}
			break
		}
		val := strings.ToValidUTF8(strings.TrimSpace(rec[i]), "?")
		if val == "" {
			continue
		}
		switch cs.Kind {
		case frame.KindFloat:
			if x, err := strconv.ParseFloat(val, 64); err == nil {
				_ = f.SetCell(row, cs.Name, x)
			}
		case frame.KindInt:
			if x, err := strconv.ParseInt(val, 10, 64); err == nil {
				_ = f.SetCell(row, cs.Name, x)
			}
		case frame.KindBool:
			if x, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
				_ = f.SetCell(row, cs.Name, x)
			}
		default:
			_ = f.SetCell(row, cs.Name, val)
		}
	}
	return nil
}

// Warnings summarizes record-shape repairs seen while reading.
func (r *Reader) Warnings() string {
	var parts []string
	if r.shortRecords > 0 {
		parts = append(parts, fmt.Sprintf("short_records=%d", r.shortRecords))
	}
	if r.longRecords > 0 {
		parts = append(parts, fmt.Sprintf("long_records=%d", r.longRecords))
	}
	return strings.Join(parts, ", ")
}

var numRe = regexp.MustCompile(`^[-+]?[0-9]*\.?[0-9]+([eE][-+]?[0-9]+)?$`)

func inferKinds(ncol int, rows [][]string) []frame.Kind {
	kinds := make([]frame.Kind, ncol)
	for c := 0; c < ncol; c++ {
		num, integer, boolean, str := 0, 0, 0, 0
		for _, row := range rows {
			if c >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[c])
			if v == "" {
				continue
			}
			switch {
			case numRe.MatchString(v):
				num++
				if !strings.ContainsAny(v, ".eE") {
					integer++
				}
			case strings.EqualFold(v, "true") || strings.EqualFold(v, "false"):
				boolean++
			default:
				str++
			}
		}
		switch {
		case str > 0 || (num == 0 && boolean == 0):
			kinds[c] = frame.KindString
		case boolean > num:
			kinds[c] = frame.KindBool
		case integer == num:
			kinds[c] = frame.KindInt
		default:
			kinds[c] = frame.KindFloat
		}
	}
	return kinds
}

func listFiles(dir string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}
	var paths []string
	for _, pat := range []string{"*.csv", "*.csv.gz"} {
		m, err := filepath.Glob(filepath.Join(dir, pat))
		if err != nil {
			return nil, err
		}
		paths = append(paths, m...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("csv: no csv files in %s", dir)
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadDir reads every *.csv and *.csv.gz directly under dir, in name order,
// as one unified Frame. All files must carry the same header; column kinds
// come from the first file.
func ReadDir(dir string, opt ReaderOptions) (*frame.Frame, error) {
	paths, err := listFiles(dir)
	if err != nil {
		return nil, err
	}

	var out *frame.Frame
	for _, p := range paths {
		r, err := Open(p, opt)
		if err != nil {
			return nil, err
		}
		schema, err := r.InferSchema()
		if err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		if out != nil {
			if !sameNames(out.Schema(), schema) {
				_ = r.Close()
				return nil, fmt.Errorf("csv: %s: header %v does not match %v", p, schema.Names(), out.Schema().Names())
			}
			schema = out.Schema()
		}
		f, err := r.ReadAll(schema)
		if err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		if err := r.Close(); err != nil {
			return nil, err
		}
		if out == nil {
			out = f
			continue
		}
		if err := out.Append(f); err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	return out, nil
}

// DirSource streams the CSV files under a directory as frames of at most
// chunkRows rows, under the same header rules as ReadDir. It implements
// frame.ChunkSource.
type DirSource struct {
	opt    ReaderOptions
	chunk  int
	paths  []string
	next   int
	r      *Reader
	schema frame.Schema
}

const defaultChunkRows = 8192

// StreamDir opens dir for chunked reading. chunkRows <= 0 picks a default.
func StreamDir(dir string, opt ReaderOptions, chunkRows int) (*DirSource, error) {
	paths, err := listFiles(dir)
	if err != nil {
		return nil, err
	}
	if chunkRows <= 0 {
		chunkRows = defaultChunkRows
	}
	return &DirSource{opt: opt, chunk: chunkRows, paths: paths}, nil
}

// Next returns the next chunk, or io.EOF after the last file. The first
// file's inferred kinds apply to every file; a header mismatch is an error.
func (s *DirSource) Next() (*frame.Frame, error) {
	if s.r == nil {
		if s.next >= len(s.paths) {
			return nil, io.EOF
		}
		p := s.paths[s.next]
		s.next++
		r, err := Open(p, s.opt)
		if err != nil {
			return nil, err
		}
		schema, err := r.InferSchema()
		if err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		if s.schema.Columns == nil {
			s.schema = schema
		} else if !sameNames(s.schema, schema) {
			_ = r.Close()
			return nil, fmt.Errorf("csv: %s: header %v does not match %v", p, schema.Names(), s.schema.Names())
		}
		s.r = r
	}

	f, err := s.r.readChunk(s.schema, s.chunk)
	if err != nil {
		_ = s.r.Close()
		s.r = nil
		return nil, err
	}
	if f.Rows() < s.chunk {
		err := s.r.Close()
		s.r = nil
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

func sameNames(a, b frame.Schema) bool {
	if len(a.Columns) != len(b.Columns) {
		return false
	}
	for i := range a.Columns {
		if a.Columns[i].Name != b.Columns[i].Name {
			return false
		}
	}
	return true
}
