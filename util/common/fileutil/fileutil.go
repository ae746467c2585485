package fileutil

import (
	"io"
	"os"
	"path/filepath"

	"github.com/cookware/cargo-cook/util/common/errors"
)

// validatePath checks that a path is usable.
func validatePath(path string) error {
	if path == "" {
		return errors.NewValidationError("path", "path cannot be empty")
	}
	return nil
}

// EnsureDir creates path and any missing parents.
func EnsureDir(path string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return errors.NewFileError(path, "create_dir", err)
	}
	return nil
}

// ReadFile reads the entire file and returns its contents.
// It validates the path and checks that it is not a directory.
func ReadFile(path string) ([]byte, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.NewFileError(path, "stat", err)
	}
	if info.IsDir() {
		return nil, errors.NewValidationError("path", "path is a directory, expected a file")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewFileError(path, "read", err)
	}
	return data, nil
}

// WriteFile writes data to a file with create/truncate semantics,
// creating parent directories if needed.
func WriteFile(path string, data []byte) error {
	if err := validatePath(path); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewFileError(path, "create_dir", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewFileError(path, "write", err)
	}
	return nil
}

// CopyFile copies a regular file from src to dst, keeping its permission
// bits, and returns the number of bytes copied. The destination directory
// must already exist.
func CopyFile(src, dst string) (int64, error) {
	if err := validatePath(src); err != nil {
		return 0, err
	}
	if err := validatePath(dst); err != nil {
		return 0, err
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, errors.NewFileError(src, "stat", err)
	}
	if srcInfo.IsDir() {
		return 0, errors.NewValidationError("src", "source path is a directory, expected a file")
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return 0, errors.NewFileError(src, "open", err)
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return 0, errors.NewFileError(dst, "create", err)
	}

	n, err := io.Copy(dstFile, srcFile)
	if cerr := dstFile.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, errors.NewFileError(dst, "copy", err)
	}

	if err := os.Chmod(dst, srcInfo.Mode().Perm()); err != nil {
		return n, errors.NewFileError(dst, "chmod", err)
	}
	return n, nil
}

// Exists checks if a file or directory exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir checks if the path is a directory
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
