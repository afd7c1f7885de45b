// Package fs persists batch output as files: normalized page text for
// diagnosis and extracted records as JSON and CSV.
package fs

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/schemex"
)

// maxLabelLen bounds the URL-derived part of a file name.
const maxLabelLen = 100

// Ensure OutputStore implements schemex.OutputStore at compile time.
var _ schemex.OutputStore = (*OutputStore)(nil)

// OutputStore writes batch files into a single directory, creating it on
// demand. Files are written to a temporary name and renamed into place so a
// reader never sees a partial file.
type OutputStore struct {
	dir string
}

// NewOutputStore creates an OutputStore writing into dir.
func NewOutputStore(dir string) *OutputStore {
	return &OutputStore{dir: dir}
}

// Dir returns the output directory.
func (s *OutputStore) Dir() string {
	return s.dir
}

// RawPath returns the path of the raw text file for a target.
func (s *OutputStore) RawPath(batch string, index int) string {
	return filepath.Join(s.dir, "raw_"+batch+"_"+strconv.Itoa(index)+".md")
}

// ResultPath returns the path of a result file without extension.
func (s *OutputStore) ResultPath(batch, source string) string {
	return filepath.Join(s.dir, "data_"+batch+"_"+Label(source))
}

// SaveRaw writes the normalized text of the target at index.
// Saving is not bounded by ctx so that partial runs still leave their files.
func (s *OutputStore) SaveRaw(_ context.Context, batch string, index int, text string) error {
	return s.writeFile(s.RawPath(batch, index), func(w io.Writer) error {
		_, err := io.WriteString(w, text)
		return err
	})
}

// SaveResult writes records as <path>.json and, when there is at least one
// record, <path>.csv.
func (s *OutputStore) SaveResult(_ context.Context, batch, source string, schema schemex.Schema, records []*schemex.Record) error {
	if records == nil {
		records = []*schemex.Record{}
	}
	base := s.ResultPath(batch, source)

	if err := s.writeFile(base+".json", func(w io.Writer) error {
		return EncodeJSON(w, records)
	}); err != nil {
		return err
	}

	if len(records) == 0 {
		return nil
	}
	return s.writeFile(base+".csv", func(w io.Writer) error {
		return EncodeCSV(w, schema, records)
	})
}

// EncodeJSON writes {"listings": records} indented by four spaces.
func EncodeJSON(w io.Writer, records []*schemex.Record) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(map[string][]*schemex.Record{schemex.RecordsKey: records})
}

// EncodeCSV writes a header of the schema fields followed by URL, then one
// row per record. Null values become empty cells.
func EncodeCSV(w io.Writer, schema schemex.Schema, records []*schemex.Record) error {
	cw := csv.NewWriter(w)
	cols := schema.Columns()
	if err := cw.Write(cols); err != nil {
		return err
	}
	row := make([]string, len(cols))
	for _, rec := range records {
		for i, col := range cols {
			row[i] = rec.Text(col)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *OutputStore) writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Label turns a source into a file-name-safe label: the host and path
// segments with every other character replaced by an underscore, followed
// by a hash of the full source.
// https://www.example.gov.in/schemes/abc becomes
// www_example_gov_in_schemes_abc_<16 hex digits>. Sanitizing folds
// pm-kisan, pm_kisan and a trailing slash onto the same text, so the hash
// is what keeps labels of distinct sources apart. CombinedSource is
// returned unchanged.
func Label(source string) string {
	if source == schemex.CombinedSource {
		return source
	}

	label := sanitize(source)
	if u, err := url.Parse(source); err == nil && u.Host != "" {
		parts := []string{sanitize(u.Host)}
		if p := strings.Trim(u.Path, "/"); p != "" {
			for _, seg := range strings.Split(p, "/") {
				parts = append(parts, sanitize(seg))
			}
		}
		label = strings.Join(parts, "_")
	}
	if len(label) > maxLabelLen {
		label = label[:maxLabelLen]
	}
	return fmt.Sprintf("%s_%016x", label, xxhash.Sum64String(source))
}

// sanitize replaces every character outside [A-Za-z0-9] with an underscore.
func sanitize(s string) string {
	var b strings.Builder
	for _, ch := range s {
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
