package upload

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// Validator decides which files may enter the pipeline.
// A file is accepted when its MIME type is allowed, or when its extension
// maps to an allowed MIME type. Browsers often send an empty or generic type.
type Validator struct {
	extensions map[string]string // extension -> MIME type
	allowed    map[string]struct{}
	maxBytes   int64
}

// NewValidator creates a validator from an extension map and a size limit.
// maxBytes <= 0 disables the size check.
func NewValidator(fileTypes map[string]string, maxBytes int64) *Validator {
	v := &Validator{
		extensions: make(map[string]string, len(fileTypes)),
		allowed:    make(map[string]struct{}, len(fileTypes)),
		maxBytes:   maxBytes,
	}
	for ext, mimeType := range fileTypes {
		ext = strings.TrimPrefix(strings.ToLower(ext), ".")
		mimeType = strings.ToLower(mimeType)
		v.extensions[ext] = mimeType
		v.allowed[mimeType] = struct{}{}
	}
	return v
}

// IsValidFileType reports whether a file passes the type check
func (v *Validator) IsValidFileType(filename, contentType string) bool {
	if _, ok := v.allowed[normalizeMIME(contentType)]; ok {
		return true
	}

	mimeType, ok := v.extensions[extension(filename)]
	if !ok {
		return false
	}
	_, ok = v.allowed[mimeType]
	return ok
}

// Check returns a user-facing reason when the file is rejected, or "" if accepted
func (v *Validator) Check(filename, contentType string, size int64) string {
	if strings.TrimSpace(filename) == "" {
		return "File name is missing."
	}
	if !v.IsValidFileType(filename, contentType) {
		return fmt.Sprintf("%s is not a supported file type.", filename)
	}
	if size <= 0 {
		return fmt.Sprintf("%s is empty.", filename)
	}
	if v.maxBytes > 0 && size > v.maxBytes {
		return fmt.Sprintf("%s exceeds the %d MB upload limit.", filename, v.maxBytes>>20)
	}
	return ""
}

// ResolveContentType returns the declared type when allowed, else the type
// implied by the extension, else the declared type unchanged.
func (v *Validator) ResolveContentType(filename, contentType string) string {
	normalized := normalizeMIME(contentType)
	if _, ok := v.allowed[normalized]; ok {
		return normalized
	}
	if mimeType, ok := v.extensions[extension(filename)]; ok {
		return mimeType
	}
	return contentType
}

// extension returns the lowercase text after the last dot
func extension(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}

// normalizeMIME strips parameters such as "; charset=utf-8"
func normalizeMIME(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}
