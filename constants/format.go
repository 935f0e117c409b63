package constants

import (
	"path/filepath"
	"strings"
)

// Format is the extraction strategy selected for an uploaded file.
type Format string

const (
	FormatCSV         Format = "csv"
	FormatExcel       Format = "excel"
	FormatPDF         Format = "pdf"
	FormatDOCX        Format = "docx"
	FormatImage       Format = "image"
	FormatUnsupported Format = "unsupported"
)

var mimeFormats = map[string]Format{
	"text/csv":                    FormatCSV,
	"application/csv":             FormatCSV,
	"text/comma-separated-values": FormatCSV,
	"application/vnd.ms-excel":    FormatExcel,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": FormatExcel,
	"application/pdf": FormatPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": FormatDOCX,
}

// extFormats is the filename fallback when the MIME type is missing or generic.
var extFormats = map[string]Format{
	"csv":  FormatCSV,
	"xlsx": FormatExcel,
	"xls":  FormatExcel,
	"pdf":  FormatPDF,
	"docx": FormatDOCX,
	"png":  FormatImage,
	"jpg":  FormatImage,
	"jpeg": FormatImage,
	"webp": FormatImage,
	"gif":  FormatImage,
	"bmp":  FormatImage,
	"tif":  FormatImage,
	"tiff": FormatImage,
}

// DetectFormat routes a file to an extraction strategy. MIME type wins over
// the extension; anything unrecognised is FormatUnsupported.
func DetectFormat(fileName, mimeType string) Format {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	ext := NormalizeExt(filepath.Ext(fileName))

	if f, ok := mimeFormats[mt]; ok {
		// browsers on Windows report CSV uploads as vnd.ms-excel
		if f == FormatExcel && ext == "csv" {
			return FormatCSV
		}
		return f
	}
	if strings.HasPrefix(mt, "image/") {
		return FormatImage
	}
	if f, ok := extFormats[ext]; ok {
		return f
	}
	return FormatUnsupported
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsLegacyExcel reports whether the file is a BIFF .xls workbook rather than OOXML.
func IsLegacyExcel(fileName string) bool {
	return NormalizeExt(filepath.Ext(fileName)) == "xls"
}
