// Package files discovers dataset files on disk.
//
// A file source pointed at a directory loads the most recently modified
// CSV or XLSX file in it, and the uploads directory is pruned to a fixed
// number of kept datasets:
//
//	latest, err := files.NewDiscovery("data/incoming").Latest()
//
//	removed, err := files.NewDiscovery(uploadsDir).Prune(10)
package files
