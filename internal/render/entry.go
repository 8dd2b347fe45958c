package render

import (
	"fmt"
	"io/fs"
	"os"
)

// FileEntry is one repository file as seen by the renderer. The link
// target and content hash are resolved on first use and then kept.
type FileEntry struct {
	Path string

	info   fs.FileInfo
	target string
	hash   string
}

// Stat looks at path without following a final symbolic link.
func Stat(path string) (*FileEntry, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return &FileEntry{Path: path, info: info}, nil
}

// IsSymlink reports whether the entry is a symbolic link.
func (e *FileEntry) IsSymlink() bool {
	return e.info.Mode()&fs.ModeSymlink != 0
}

// LinkTarget returns the link's target as stored, without resolving it.
func (e *FileEntry) LinkTarget() (string, error) {
	if e.target != "" {
		return e.target, nil
	}
	target, err := os.Readlink(e.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read link %s: %w", e.Path, err)
	}
	e.target = target
	return target, nil
}

// Size returns the size in bytes.
func (e *FileEntry) Size() int64 {
	return e.info.Size()
}

// Hash streams the file through algo.
func (e *FileEntry) Hash(algo HashAlgorithm) (string, error) {
	if e.hash != "" {
		return e.hash, nil
	}
	f, err := os.Open(e.Path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", e.Path, err)
	}
	defer f.Close()

	sum, err := algo.Sum(f)
	if err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", e.Path, err)
	}
	e.hash = sum
	return sum, nil
}
