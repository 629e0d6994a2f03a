package system

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileTreeSize sums the sizes of regular files below path. Symlinks are not
// followed, so link cycles cannot recurse. Entries that cannot be read are
// skipped; the total of everything readable is returned along with a joined
// error naming what was skipped. A regular file path returns its own size.
func FileTreeSize(path string) (uint64, error) {
	root, err := os.Lstat(path)
	if err != nil {
		return 0, err
	}
	if root.Mode().IsRegular() {
		return uint64(root.Size()), nil
	}
	if !root.IsDir() {
		return 0, nil
	}

	var total uint64
	var skipped []error
	walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == path {
				return err
			}
			skipped = append(skipped, fmt.Errorf("skip %s: %w", p, err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			skipped = append(skipped, fmt.Errorf("skip %s: %w", p, infoErr))
			return nil
		}
		total += uint64(info.Size())
		return nil
	})
	if walkErr != nil {
		return total, walkErr
	}
	return total, errors.Join(skipped...)
}
