package ioutils

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
)

// tempFileRe matches the hidden staging files the transfer layer
// writes before publishing (".01.tmp", ".12.tmp", ...).
var tempFileRe = regexp.MustCompile(`^\.\d+\.tmp$`)

// EnsureDir creates a directory and any missing parents.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// IsTempFile reports whether name looks like a transfer staging file.
func IsTempFile(name string) bool {
	return tempFileRe.MatchString(name)
}

// SweepTempFiles removes stray transfer staging files under root,
// typically left behind by an interrupted run. Returns how many files
// were removed. Individual removal failures are skipped; the sweep is
// best-effort.
func SweepTempFiles(root string) (int, error) {
	removed := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || !IsTempFile(d.Name()) {
			return nil
		}
		if os.Remove(path) == nil {
			removed++
		}
		return nil
	})
	return removed, err
}
