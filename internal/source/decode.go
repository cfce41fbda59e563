// Package source decodes upload files into raw rows, discovers files waiting
// in an inbox directory, loads the seed model, and writes monthly exports.
package source

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/theirongolddev/budgetdash/internal/reconcile"

	"github.com/xuri/excelize/v2"
)

// MaxUploadBytes caps how much of a single upload is read.
const MaxUploadBytes = 32 << 20

var (
	// ErrUnsupportedFormat is returned for files that are not CSV, XLSX or JSON.
	ErrUnsupportedFormat = errors.New("unsupported upload format")
	// ErrTooLarge is returned when an upload exceeds MaxUploadBytes.
	ErrTooLarge = errors.New("upload too large")
)

// DecodeResult holds the output of decoding a single discovered file.
type DecodeResult struct {
	File   DiscoveredFile
	Upload Upload
	Err    error
}

// DecodeFile reads and decodes a discovered file.
func DecodeFile(df DiscoveredFile) DecodeResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return DecodeResult{File: df, Err: err}
	}
	defer func() { _ = f.Close() }()

	name := df.Name
	if name == "" {
		name = filepath.Base(df.Path)
	}
	up, err := Decode(name, f)
	return DecodeResult{File: df, Upload: up, Err: err}
}

// Decode reads an upload whose format is inferred from name.
func Decode(name string, r io.Reader) (Upload, error) {
	format, ok := FormatOf(name)
	if !ok {
		return Upload{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return Upload{}, fmt.Errorf("reading %s: %w", name, err)
	}
	if len(data) > MaxUploadBytes {
		return Upload{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, name, MaxUploadBytes)
	}

	sum := sha256.Sum256(data)
	up := Upload{
		Name:   filepath.Base(name),
		Format: format,
		Hash:   hex.EncodeToString(sum[:]),
		Size:   int64(len(data)),
	}

	switch format {
	case FormatCSV:
		err = decodeCSV(data, &up)
	case FormatXLSX:
		err = decodeXLSX(data, &up)
	case FormatJSON:
		err = decodeJSON(data, &up)
	}
	if err != nil {
		return Upload{}, fmt.Errorf("decoding %s: %w", name, err)
	}
	return up, nil
}

func decodeCSV(data []byte, up *Upload) error {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return err
	}
	return tabulate(records, up)
}

func decodeXLSX(data []byte, up *Upload) error {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return errors.New("workbook has no sheets")
	}
	// Raw values keep dates as serial numbers and amounts unformatted.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return err
	}
	return tabulate(rows, up)
}

// tabulate turns a header row plus data rows into RawRows. Empty cells are
// left out of the row; rows with no cells at all are counted as blank.
func tabulate(records [][]string, up *Upload) error {
	if len(records) == 0 {
		return nil
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
		if header[i] != "" {
			up.Columns = append(up.Columns, header[i])
		}
	}

	for _, rec := range records[1:] {
		row := make(reconcile.RawRow, len(header))
		for i, cell := range rec {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if cell = strings.TrimSpace(cell); cell != "" {
				row[header[i]] = cell
			}
		}
		if len(row) == 0 {
			up.Blank++
			continue
		}
		up.Rows = append(up.Rows, row)
	}
	return nil
}

func decodeJSON(data []byte, up *Upload) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var objs []map[string]any
	if err := dec.Decode(&objs); err != nil {
		return err
	}

	seen := make(map[string]struct{})
	for _, obj := range objs {
		if len(obj) == 0 {
			up.Blank++
			continue
		}
		row := make(reconcile.RawRow, len(obj))
		for k, v := range obj {
			row[k] = v
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				up.Columns = append(up.Columns, k)
			}
		}
		up.Rows = append(up.Rows, row)
	}
	sort.Strings(up.Columns)
	return nil
}

// DecodeRows wraps rows that arrived already structured (e.g. a JSON API
// body) so they flow through the same history and dedupe path as files.
func DecodeRows(name string, rows []reconcile.RawRow) (Upload, error) {
	data, err := json.Marshal(rows)
	if err != nil {
		return Upload{}, err
	}
	sum := sha256.Sum256(data)
	return Upload{
		Name:   name,
		Format: FormatJSON,
		Hash:   hex.EncodeToString(sum[:]),
		Size:   int64(len(data)),
		Rows:   rows,
	}, nil
}
