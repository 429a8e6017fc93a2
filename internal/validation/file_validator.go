// Package validation guards the ingestion boundary: only well-formed
// workbook files reach the parser.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "evalpulse/internal/errors"
)

const workbookExtension = ".xlsx"

// lockFilePrefix marks Excel owner lock files that appear next to an open
// workbook and must never be ingested.
const lockFilePrefix = "~$"

// FileValidator checks workbook files before parsing.
type FileValidator struct {
	maxSizeBytes int64
}

// NewFileValidator creates a validator with the given size limit in MB.
func NewFileValidator(maxSizeMB int64) *FileValidator {
	return &FileValidator{maxSizeBytes: maxSizeMB * 1024 * 1024}
}

// ValidateWorkbook checks that path names an ingestible workbook file.
func (v *FileValidator) ValidateWorkbook(path string) error {
	name := filepath.Base(path)

	if strings.HasPrefix(name, lockFilePrefix) {
		return apperrors.NewAppValidationError("workbook is an Excel lock file").
			WithContext("file", name)
	}
	if !strings.EqualFold(filepath.Ext(name), workbookExtension) {
		return apperrors.NewAppValidationError(
			fmt.Sprintf("unsupported file type %q, expected %s", filepath.Ext(name), workbookExtension)).
			WithContext("file", name)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return apperrors.NewNotFoundError("workbook file").WithContext("file", name)
		}
		return apperrors.NewStorageError("failed to stat workbook", err).WithContext("file", name)
	}
	if info.IsDir() {
		return apperrors.NewAppValidationError("path is a directory").WithContext("file", name)
	}
	if info.Size() == 0 {
		return apperrors.NewAppValidationError("workbook is empty").WithContext("file", name)
	}
	if v.maxSizeBytes > 0 && info.Size() > v.maxSizeBytes {
		return apperrors.NewAppValidationError(
			fmt.Sprintf("workbook exceeds size limit of %d bytes", v.maxSizeBytes)).
			WithContext("file", name).
			WithContext("size", info.Size())
	}

	return nil
}

// CollectWorkbooks lists the ingestible workbook files of a directory in
// stable name order. Lock files and non-workbook entries are skipped.
func (v *FileValidator) CollectWorkbooks(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read input directory", err).
			WithContext("dir", dir)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, lockFilePrefix) {
			continue
		}
		if !strings.EqualFold(filepath.Ext(name), workbookExtension) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}

	sort.Strings(paths)
	return paths, nil
}
