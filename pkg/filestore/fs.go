package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FS stores the files in a local directory (usually a volume shared with
// the analysis runners).
type FS struct {
	RootDir string
}

var _ FileStore = (*FS)(nil)

func newFS(rootDir string) (*FS, error) {
	err := os.MkdirAll(rootDir, 0750)
	if err != nil {
		return nil, fmt.Errorf("unable to create the rootdir '%s': %w", rootDir, err)
	}
	return &FS{
		RootDir: rootDir,
	}, nil
}

func (fs *FS) Get(ctx context.Context, path string) ([]byte, error) {
	filePath, err := fs.Abs(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(filePath)
}

func (fs *FS) Put(ctx context.Context, path string, blob []byte) error {
	filePath, err := fs.Abs(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0750); err != nil {
		return fmt.Errorf("unable to create the directory for '%s': %w", path, err)
	}
	return os.WriteFile(filePath, blob, 0640)
}

func (fs *FS) Delete(ctx context.Context, path string) error {
	filePath, err := fs.Abs(path)
	if err != nil {
		return err
	}
	return os.Remove(filePath)
}

func (fs *FS) Exists(ctx context.Context, path string) (bool, error) {
	filePath, err := fs.Abs(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(filePath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (fs *FS) List(ctx context.Context, dir string) ([]string, error) {
	dirPath, err := fs.Abs(dir)
	if err != nil {
		return nil, err
	}
	dirEntries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			continue
		}
		names = append(names, dirEntry.Name())
	}
	return names, nil
}

func (fs *FS) Abs(path string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", ErrPathOutsideRoot{Path: path}
	}
	return filepath.Join(fs.RootDir, cleaned), nil
}

func (fs *FS) Close() error {
	return nil
}
