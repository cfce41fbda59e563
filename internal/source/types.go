package source

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/budgetdash/internal/reconcile"
)

// Format is the container format of an upload file.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// FormatOf infers the format from a file name's extension.
func FormatOf(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, true
	case ".xlsx", ".xlsm":
		return FormatXLSX, true
	case ".json":
		return FormatJSON, true
	}
	return "", false
}

// Upload is one decoded file.
type Upload struct {
	Name    string
	Format  Format
	Hash    string // hex SHA-256 of the raw bytes
	Size    int64
	Columns []string
	Rows    []reconcile.RawRow
	Blank   int // rows skipped because every cell was empty
}

// DiscoveredFile is an upload candidate found in an inbox directory.
type DiscoveredFile struct {
	Path    string
	Name    string // path relative to the inbox
	Format  Format
	Size    int64
	ModTime time.Time
}
