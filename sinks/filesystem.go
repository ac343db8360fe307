package sinks

import (
	"fmt"
	"os"
	"path/filepath"
)

// Filesystem provides file reads rooted at a document root
type Filesystem struct {
	basePath string
}

// NewFilesystem creates a filesystem sink rooted at the current working directory
func NewFilesystem() (*Filesystem, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to determine working directory: %w", err)
	}
	return &Filesystem{basePath: wd}, nil
}

// NewFilesystemWithPath creates a filesystem sink rooted at basePath
func NewFilesystemWithPath(basePath string) (*Filesystem, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve document root: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat document root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("document root %s is not a directory", abs)
	}

	return &Filesystem{basePath: abs}, nil
}

// Close is a no-op; the document root is never owned by the sink
func (fs *Filesystem) Close() error {
	return nil
}

// BasePath returns the document root
func (fs *Filesystem) BasePath() string {
	return fs.basePath
}

// Resolve turns path into an absolute path. Relative paths are joined to
// the document root; nothing stops them from walking out of it.
func (fs *Filesystem) Resolve(path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(fs.basePath, path)
	}
	return filepath.Clean(path)
}

// Read reads a file - intentionally vulnerable to path traversal
func (fs *Filesystem) Read(path string) ([]byte, error) {
	fullPath := fs.Resolve(path)

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fullPath, err)
	}

	return content, nil
}
