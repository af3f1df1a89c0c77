package constants

import "strings"

// Document formats accepted by acquisition.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
	TEXT  = "TXT"
)

var imageExts = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"tif":  {},
	"tiff": {},
	"bmp":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a file extension to a document format, or "" if unsupported.
func MapExtToFormat(ext string) string {
	ext = NormalizeExt(ext)
	if ext == "pdf" {
		return PDF
	}
	if _, ok := imageExts[ext]; ok {
		return IMAGE
	}
	if ext == "txt" {
		return TEXT
	}
	return ""
}

// MapMediaTypeToFormat maps an HTTP media type to a document format, or "" if unsupported.
func MapMediaTypeToFormat(mediaType string) string {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	switch {
	case mt == "application/pdf":
		return PDF
	case strings.HasPrefix(mt, "image/"):
		return IMAGE
	case mt == "text/plain":
		return TEXT
	}
	return ""
}

// ExtForFormat returns a representative file extension for a format.
// Acquisition uses it to name temp files for the OCR toolchain.
func ExtForFormat(format string) string {
	switch format {
	case PDF:
		return "pdf"
	case IMAGE:
		return "png"
	case TEXT:
		return "txt"
	}
	return "bin"
}
