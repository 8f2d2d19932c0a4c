package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"vaxpulse/internal/validation"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery finds dataset files in one directory.
type Discovery struct {
	dir string
}

// NewDiscovery creates a discovery rooted at dir.
func NewDiscovery(dir string) *Discovery {
	return &Discovery{dir: dir}
}

// IsDataset reports whether name has a dataset extension.
func IsDataset(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, ok := range validation.DatasetExtensions {
		if ext == ok {
			return true
		}
	}
	return false
}

// FindDatasets lists the CSV and XLSX files in the directory, oldest first.
// Hidden files and subdirectories are skipped.
func (d *Discovery) FindDatasets() ([]FileInfo, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", d.dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !IsDataset(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(d.dir, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name < files[j].Name
		}
		return files[i].ModTime.Before(files[j].ModTime)
	})
	return files, nil
}

// Latest returns the most recently modified dataset in the directory.
func (d *Discovery) Latest() (FileInfo, error) {
	files, err := d.FindDatasets()
	if err != nil {
		return FileInfo{}, err
	}
	if len(files) == 0 {
		return FileInfo{}, fmt.Errorf("no .csv or .xlsx dataset in %s", d.dir)
	}
	return files[len(files)-1], nil
}

// Prune removes the oldest datasets so that at most keep remain. keep <= 0
// keeps everything. It returns the removed paths.
func (d *Discovery) Prune(keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}
	files, err := d.FindDatasets()
	if err != nil {
		return nil, err
	}
	if len(files) <= keep {
		return nil, nil
	}

	var removed []string
	for _, f := range files[:len(files)-keep] {
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("failed to remove %s: %w", f.Path, err)
		}
		removed = append(removed, f.Path)
	}
	return removed, nil
}
