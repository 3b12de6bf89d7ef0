package csvio

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quantmill/loanpipe/pkg/frame"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestInferSchemaKinds(t *testing.T) {
	in := "id,balance,term,active\nCU1,100.5,24,true\nCU2,250.0,36,false\n"
	r := FromReader(strings.NewReader(in), ReaderOptions{HasHeader: true})
	schema, err := r.InferSchema()
	if err != nil {
		t.Fatal(err)
	}
	want := []frame.Kind{frame.KindString, frame.KindFloat, frame.KindInt, frame.KindBool}
	for i, k := range want {
		if schema.Columns[i].Kind != k {
			t.Fatalf("column %d: expected kind %s, got %s", i, k, schema.Columns[i].Kind)
		}
	}
	f, err := r.ReadAll(schema)
	if err != nil {
		t.Fatal(err)
	}
	if f.Rows() != 2 {
		t.Fatalf("expected 2 rows, got %d", f.Rows())
	}
	if got := f.CellString(1, "id"); got != "CU2" {
		t.Fatalf("expected CU2, got %q", got)
	}
}

func TestReadDirUnifiesFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.csv", "id,balance\nCU3,30\n")
	writeFile(t, dir, "a.csv", "id,balance\nCU1,10\nCU2,20\n")
	writeFile(t, dir, "notes.txt", "ignored")

	f, err := ReadDir(dir, ReaderOptions{HasHeader: true})
	if err != nil {
		t.Fatal(err)
	}
	if f.Rows() != 3 {
		t.Fatalf("expected 3 rows, got %d", f.Rows())
	}
	// files are read in name order
	if got := f.CellString(0, "id"); got != "CU1" {
		t.Fatalf("expected CU1 first, got %q", got)
	}
	if got := f.CellString(2, "id"); got != "CU3" {
		t.Fatalf("expected CU3 last, got %q", got)
	}
}

func TestReadDirHeaderMismatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "id,balance\nCU1,10\n")
	writeFile(t, dir, "b.csv", "id,amount\nCU2,20\n")
	if _, err := ReadDir(dir, ReaderOptions{HasHeader: true}); err == nil {
		t.Fatal("expected header mismatch error")
	}
}

func TestReadDirEmpty(t *testing.T) {
	if _, err := ReadDir(t.TempDir(), ReaderOptions{HasHeader: true}); err == nil {
		t.Fatal("expected error for directory with no csv files")
	}
}

func TestWriteRoundTrip(t *testing.T) {
	s := frame.Schema{Columns: []frame.ColumnSchema{
		{Name: "id", Kind: frame.KindString},
		{Name: "balance", Kind: frame.KindFloat},
	}}
	f := frame.New(s)
	f.AppendNullRow()
	_ = f.SetCell(0, "id", "CU1")
	_ = f.SetCell(0, "balance", 12.25)
	f.AppendNullRow()
	_ = f.SetCell(1, "id", "CU2")
	// balance left null

	var buf bytes.Buffer
	if err := Write(&buf, f, WriterOptions{}); err != nil {
		t.Fatal(err)
	}

	r := FromReader(&buf, ReaderOptions{HasHeader: true})
	schema, err := r.InferSchema()
	if err != nil {
		t.Fatal(err)
	}
	back, err := r.ReadAll(schema)
	if err != nil {
		t.Fatal(err)
	}
	if back.Rows() != 2 {
		t.Fatalf("expected 2 rows, got %d", back.Rows())
	}
	bal, err := frame.Floats(back, "balance")
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := bal.Get(0); !ok || v != 12.25 {
		t.Fatalf("expected 12.25, got %v (ok=%v)", v, ok)
	}
	if _, ok := bal.Get(1); ok {
		t.Fatal("null balance should survive the round trip")
	}
}

func TestWarnings(t *testing.T) {
	in := "a,b\n1,2\n3\n"
	r := FromReader(strings.NewReader(in), ReaderOptions{HasHeader: true})
	schema, err := r.InferSchema()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.ReadAll(schema); err != nil {
		t.Fatal(err)
	}
	if w := r.Warnings(); !strings.Contains(w, "short_records=1") {
		t.Fatalf("expected short record warning, got %q", w)
	}
}

func TestStrictShortRecord(t *testing.T) {
	in := "a,b\n1,2\n3\n"
	r := FromReader(strings.NewReader(in), ReaderOptions{HasHeader: true, Strict: true})
	schema, err := r.InferSchema()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.ReadAll(schema); err == nil {
		t.Fatal("expected strict mode to reject the short record")
	}
}

func TestInferSchemaStripsBOM(t *testing.T) {
	in := "\xef\xbb\xbfid,balance\nCU1,10\n"
	r := FromReader(strings.NewReader(in), ReaderOptions{HasHeader: true})
	schema, err := r.InferSchema()
	if err != nil {
		t.Fatal(err)
	}
	if got := schema.Columns[0].Name; got != "id" {
		t.Fatalf("expected leading BOM stripped from header, got %q", got)
	}
}

func TestStreamDirChunks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "id,balance\nCU1,10\nCU2,20\nCU3,30\n")
	writeFile(t, dir, "b.csv", "id,balance\nCU4,40\n")

	src, err := StreamDir(dir, ReaderOptions{HasHeader: true}, 2)
	if err != nil {
		t.Fatal(err)
	}
	sink := &frame.AppendSink{}
	chunks := 0
	for {
		f, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if f.Rows() > 2 {
			t.Fatalf("chunk exceeds limit: %d rows", f.Rows())
		}
		chunks++
		if err := sink.Write(f); err != nil {
			t.Fatal(err)
		}
	}
	if chunks < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", chunks)
	}

	whole, err := ReadDir(dir, ReaderOptions{HasHeader: true})
	if err != nil {
		t.Fatal(err)
	}
	got := sink.Frame
	if got.Rows() != whole.Rows() {
		t.Fatalf("streamed %d rows, whole read %d", got.Rows(), whole.Rows())
	}
	for r := 0; r < whole.Rows(); r++ {
		for _, cs := range whole.Schema().Columns {
			if got.CellString(r, cs.Name) != whole.CellString(r, cs.Name) {
				t.Fatalf("row %d column %s differs: %q vs %q",
					r, cs.Name, got.CellString(r, cs.Name), whole.CellString(r, cs.Name))
			}
		}
	}
}

func TestStreamDirHeaderMismatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "id,balance\nCU1,10\n")
	writeFile(t, dir, "b.csv", "id,amount\nCU2,20\n")

	src, err := StreamDir(dir, ReaderOptions{HasHeader: true}, 2)
	if err != nil {
		t.Fatal(err)
	}
	for {
		_, err := src.Next()
		if err == io.EOF {
			t.Fatal("expected header mismatch error")
		}
		if err != nil {
			break
		}
	}
}
