package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// MaxUploadSize bounds admin sheet uploads.
const MaxUploadSize = 5 << 20

// OpenUploadedCSV checks that the upload is a non-empty .csv within
// MaxUploadSize and opens it. The caller closes the file.
func OpenUploadedCSV(file *multipart.FileHeader) (multipart.File, error) {
	if file == nil {
		return nil, fmt.Errorf("no file uploaded")
	}
	if ext := strings.ToLower(filepath.Ext(file.Filename)); ext != ".csv" {
		return nil, fmt.Errorf("expected a .csv file, got %q", ext)
	}
	if file.Size <= 0 {
		return nil, fmt.Errorf("file is empty")
	}
	if file.Size > MaxUploadSize {
		return nil, fmt.Errorf("file is larger than %d MB", MaxUploadSize>>20)
	}
	return file.Open()
}
