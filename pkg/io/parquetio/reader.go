package parquetio

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	parquet "github.com/segmentio/parquet-go"
)

// ReadFile reads one Parquet file into generic row maps.
func ReadFile(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	// Generic readers cannot derive a schema from map rows, so read it from
	// the file footer first.
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		return nil, err
	}
	r := parquet.NewGenericReader[map[string]any](f, pf.Schema())
	defer func() { _ = r.Close() }()

	var rows []map[string]any
	buf := make([]map[string]any, 256)
	for i := range buf {
		buf[i] = map[string]any{}
	}
	for {
		n, err := r.Read(buf)
		for i := 0; i < n; i++ {
			rec := make(map[string]any, len(buf[i]))
			for k, v := range buf[i] {
				rec[k] = normalize(v)
			}
			rows = append(rows, rec)
			buf[i] = map[string]any{}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || strings.Contains(err.Error(), "EOF") {
				break
			}
			return nil, err
		}
		if n == 0 {
			break
		}
	}
	return rows, nil
}

// ReadPartitioned walks a hive-style partition tree, reads every data file,
// and re-materializes the partition columns from the COL=value directory
// names. Integer-looking partition values come back as int64.
func ReadPartitioned(dir string) ([]map[string]any, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".parquet") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("parquet: no data files under %s", dir)
	}
	sort.Strings(paths)

	var out []map[string]any
	for _, p := range paths {
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return nil, err
		}
		partCols, err := partitionValues(rel)
		if err != nil {
			return nil, fmt.Errorf("parquet: %s: %w", p, err)
		}
		rows, err := ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("parquet: %s: %w", p, err)
		}
		for _, rec := range rows {
			for k, v := range partCols {
				rec[k] = v
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

func partitionValues(rel string) (map[string]any, error) {
	vals := map[string]any{}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for _, seg := range parts[:len(parts)-1] {
		name, raw, ok := strings.Cut(seg, "=")
		if !ok {
			return nil, fmt.Errorf("path segment %q is not COL=value", seg)
		}
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			vals[name] = n
		} else {
			vals[name] = raw
		}
	}
	return vals, nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case int32:
		return int64(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}
