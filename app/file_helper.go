package app

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/maruel/natural"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/ludo-technologies/seqgate/internal/constants"
)

// FileHelper finds runfolders, i.e. directories holding a QC data bundle
type FileHelper struct {
	dataFileNames []string
	ignore        *ignore.GitIgnore
}

// NewFileHelper creates a helper looking for the given bundle names. Paths
// matching one of the gitignore style patterns are skipped.
func NewFileHelper(dataFileNames, ignorePatterns []string) *FileHelper {
	if len(dataFileNames) == 0 {
		dataFileNames = constants.DefaultDataFileNames()
	}
	h := &FileHelper{dataFileNames: dataFileNames}
	if len(ignorePatterns) > 0 {
		h.ignore = ignore.CompileIgnoreLines(ignorePatterns...)
	}
	return h
}

// IsRunfolder reports whether dir holds a QC data bundle
func (h *FileHelper) IsRunfolder(dir string) bool {
	for _, name := range h.dataFileNames {
		if exists, _ := h.FileExists(filepath.Join(dir, name)); exists {
			return true
		}
	}
	return false
}

// FileExists checks if a regular file exists
func (h *FileHelper) FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// isIgnored matches a path relative to the search root
func (h *FileHelper) isIgnored(rel string, isDir bool) bool {
	if h.ignore == nil || rel == "." {
		return false
	}
	rel = filepath.ToSlash(rel)
	if h.ignore.MatchesPath(rel) {
		return true
	}
	return isDir && h.ignore.MatchesPath(rel+"/")
}

// CollectRunfolders returns the runfolders below paths in natural order.
// A path that is a bundle file or a runfolder itself is returned as given;
// the walk does not descend into runfolders.
func (h *FileHelper) CollectRunfolders(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var found []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			found = append(found, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() || h.IsRunfolder(root) {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if h.isIgnored(rel, true) {
				return filepath.SkipDir
			}
			if h.IsRunfolder(path) {
				add(path)
				return filepath.SkipDir
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		return natural.Less(found[i], found[j])
	})
	return found, nil
}
