package constants

import (
	"path/filepath"
	"strings"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsPDFFilename matches on the ".pdf" suffix, case-insensitively.
func IsPDFFilename(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}

// IsPDFPath is IsPDFFilename applied to the extension of a path.
func IsPDFPath(path string) bool {
	return NormalizeExt(filepath.Ext(path)) == "pdf"
}

// StoredFilename is the on-disk name for a contract's source PDF.
func StoredFilename(contractID string) string {
	return contractID + ".pdf"
}
