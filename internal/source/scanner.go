package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanInbox walks dir and discovers every file an upload can be decoded
// from. A missing directory yields no files and no error. Hidden files and
// spreadsheet lock files ("~$name.xlsx") are skipped. Results are ordered
// oldest first so uploads apply in the order they arrived.
func ScanInbox(dir string) ([]DiscoveredFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	var files []DiscoveredFile

	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // skip unreadable entries
		}
		name := d.Name()
		if d.IsDir() {
			if path != dir && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
			return nil
		}
		format, ok := FormatOf(name)
		if !ok {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // file vanished mid-walk
		}
		rel, _ := filepath.Rel(dir, path)
		files = append(files, DiscoveredFile{
			Path:    path,
			Name:    filepath.ToSlash(rel),
			Format:  format,
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
		return nil
	})

	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].ModTime.Before(files[j].ModTime)
		}
		return files[i].Name < files[j].Name
	})
	return files, err
}

// CountFormats returns how many discovered files there are of each format.
func CountFormats(files []DiscoveredFile) map[Format]int {
	counts := make(map[Format]int)
	for _, f := range files {
		counts[f.Format]++
	}
	return counts
}

// DiscoverPaths resolves command-line arguments into upload files.
// Directories are scanned like an inbox; plain files must have a supported
// extension. Files keep argument order, with each directory's contents in
// scan order.
func DiscoverPaths(paths []string) ([]DiscoveredFile, error) {
	var out []DiscoveredFile
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if fi.IsDir() {
			files, err := ScanInbox(p)
			if err != nil {
				return nil, err
			}
			out = append(out, files...)
			continue
		}
		format, ok := FormatOf(p)
		if !ok {
			return nil, fmt.Errorf("%s: %w", p, ErrUnsupportedFormat)
		}
		out = append(out, DiscoveredFile{
			Path:    p,
			Name:    filepath.Base(p),
			Format:  format,
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
	}
	return out, nil
}
