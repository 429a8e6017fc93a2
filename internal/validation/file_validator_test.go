package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "evalpulse/internal/errors"
)

func touch(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func TestValidateWorkbook(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "BM_2024.11.xlsx")
	touch(t, valid, 128)
	empty := filepath.Join(dir, "empty.xlsx")
	touch(t, empty, 0)
	wrongExt := filepath.Join(dir, "report.csv")
	touch(t, wrongExt, 128)
	lockFile := filepath.Join(dir, "~$BM_2024.11.xlsx")
	touch(t, lockFile, 128)
	tooBig := filepath.Join(dir, "big.xlsx")
	touch(t, tooBig, 2*1024*1024)
	upper := filepath.Join(dir, "VK_2025.02.XLSX")
	touch(t, upper, 128)

	v := NewFileValidator(1)

	tests := []struct {
		name    string
		path    string
		wantErr apperrors.ErrorType
	}{
		{"valid workbook", valid, ""},
		{"uppercase extension ok", upper, ""},
		{"missing file", filepath.Join(dir, "missing.xlsx"), apperrors.ErrTypeNotFound},
		{"empty file", empty, apperrors.ErrTypeValidation},
		{"wrong extension", wrongExt, apperrors.ErrTypeValidation},
		{"excel lock file", lockFile, apperrors.ErrTypeValidation},
		{"oversized file", tooBig, apperrors.ErrTypeValidation},
		{"directory", dir, apperrors.ErrTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateWorkbook(tt.path)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantErr, appErr.Type)
		})
	}
}

func TestCollectWorkbooks(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.xlsx"), 1)
	touch(t, filepath.Join(dir, "a.xlsx"), 1)
	touch(t, filepath.Join(dir, "notes.txt"), 1)
	touch(t, filepath.Join(dir, "~$a.xlsx"), 1)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.xlsx"), 0o755))

	v := NewFileValidator(32)
	paths, err := v.CollectWorkbooks(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "a.xlsx"),
		filepath.Join(dir, "b.xlsx"),
	}, paths)
}

func TestCollectWorkbooksMissingDir(t *testing.T) {
	v := NewFileValidator(32)
	_, err := v.CollectWorkbooks(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
