package http

import (
	"path/filepath"
	"regexp"
	"strings"
)

// allowedUploadExts are the file classes clients may share: images,
// documents and archives.
var allowedUploadExts = map[string]bool{
	"jpeg": true, "jpg": true, "png": true, "gif": true,
	"pdf": true, "doc": true, "docx": true, "txt": true,
	"zip": true, "rar": true,
}

// allowedMimeTypes pairs with allowedUploadExts; octet-stream covers
// browsers that do not sniff archive types.
var allowedMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"application/pdf": true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain":                   true,
	"application/zip":              true,
	"application/x-zip-compressed": true,
	"application/x-rar-compressed": true,
	"application/vnd.rar":          true,
	"application/octet-stream":     true,
}

// controlCharRegex strips characters that have no business in a
// filename shown to other users.
var controlCharRegex = regexp.MustCompile(`[\x00-\x1F\x7F]`)

// sanitizeFilename reduces an uploaded filename to its base name with
// control characters removed.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = controlCharRegex.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

// isAllowedUpload checks both the file extension and the declared MIME
// type against the upload allowlist.
func isAllowedUpload(filename, mimeType string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if !allowedUploadExts[ext] {
		return false
	}
	if mimeType == "" {
		return true
	}
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = mimeType[:idx]
	}
	return allowedMimeTypes[strings.ToLower(strings.TrimSpace(mimeType))]
}
