package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/env-risk-correlator/internal/common"
)

// SchemaError reports columns a tabular dataset is expected to have.
type SchemaError struct {
	Dataset string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing columns: %s", e.Dataset, strings.Join(e.Missing, ", "))
}

// csvRow is a parsed CSV row with field values keyed by normalized header name.
type csvRow struct {
	lineNum int
	fields  map[string]string
}

// get returns the first non-missing field among aliases.
func (r csvRow) get(aliases ...string) string {
	for _, a := range aliases {
		if v, ok := r.fields[a]; ok {
			return v
		}
	}
	return ""
}

type csvTable struct {
	header map[string]bool
	rows   []csvRow
}

// has reports whether any alias is a column.
func (t csvTable) has(aliases ...string) bool {
	for _, a := range aliases {
		if t.header[a] {
			return true
		}
	}
	return false
}

// require returns a SchemaError naming the first alias of every column
// group that has no match in the header.
func (t csvTable) require(dataset string, columns ...[]string) error {
	var missing []string
	for _, aliases := range columns {
		if !t.has(aliases...) {
			missing = append(missing, aliases[0])
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Dataset: dataset, Missing: missing}
	}
	return nil
}

// loadCSV reads a headed CSV file. A missing or empty file yields an empty
// table with no header.
func loadCSV(path string) (csvTable, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return csvTable{}, nil
	}
	if err != nil {
		return csvTable{}, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return csvTable{}, fmt.Errorf("read %s: %w", path, err)
	}
	if len(all) == 0 {
		return csvTable{}, nil
	}

	header := make([]string, len(all[0]))
	t := csvTable{header: make(map[string]bool, len(header))}
	for i, h := range all[0] {
		header[i] = common.NormalizeKey(strings.TrimPrefix(h, "\ufeff"))
		t.header[header[i]] = true
	}
	for i, row := range all[1:] {
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(row) {
				fields[h] = strings.TrimSpace(row[j])
			}
		}
		t.rows = append(t.rows, csvRow{lineNum: i + 2, fields: fields})
	}
	return t, nil
}

// appendCSV appends one record, writing header first when the file is new
// or empty and terminating an unterminated last line. Parent directories
// are created.
func appendCSV(path string, header, record []string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o644)
	if err != nil {
		return err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}

	// A hand-edited file may lack the final newline.
	if size := info.Size(); size > 0 {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, size-1); err != nil {
			f.Close()
			return err
		}
		if last[0] != '\n' {
			if _, err := f.Write([]byte("\n")); err != nil {
				f.Close()
				return err
			}
		}
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Write(record); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// errNotFinite rejects NaN and infinities, which strconv accepts.
var errNotFinite = errors.New("value is not a finite number")

func parseFloat(dataset string, row csvRow, column string, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
		err = fmt.Errorf("%w: %q", errNotFinite, raw)
	}
	if err != nil {
		return 0, fmt.Errorf("%s line %d: column %s: %w", dataset, row.lineNum, column, err)
	}
	return v, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// snapshot caches a parsed read-only file and reloads it when the file's
// modification time or size changes.
type snapshot[T any] struct {
	path  string
	parse func(csvTable) (T, error)

	mu      sync.Mutex
	modTime time.Time
	size    int64
	loaded  bool
	value   T
}

func (s *snapshot[T]) get() (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	info, err := os.Stat(s.path)
	if err != nil {
		return zero, fmt.Errorf("stat %s: %w", s.path, err)
	}
	if s.loaded && info.ModTime().Equal(s.modTime) && info.Size() == s.size {
		return s.value, nil
	}

	t, err := loadCSV(s.path)
	if err != nil {
		return zero, err
	}
	v, err := s.parse(t)
	if err != nil {
		return zero, err
	}
	s.value, s.modTime, s.size, s.loaded = v, info.ModTime(), info.Size(), true
	return v, nil
}
