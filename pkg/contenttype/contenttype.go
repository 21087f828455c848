// Package contenttype decides whether an uploaded file is a JSON document
// from its declared content type, its file name and its first bytes.
package contenttype

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Category represents a broad content classification.
type Category string

const (
	JSON   Category = "json"
	Media  Category = "media"
	Text   Category = "text"
	Binary Category = "binary"
	// Unknown means the hint carries no information and the bytes decide.
	Unknown Category = "unknown"
)

// ErrNotJSON is returned by Accept for uploads that are not JSON documents.
var ErrNotJSON = errors.New("upload is not a JSON document")

// Classify returns the category of a content-type header value.
// Uses mime.ParseMediaType to strip parameters (charset, boundary, etc.)
// before matching. Falls back to strings.ToLower for malformed values.
// Empty, text/plain and octet-stream values are Unknown since browsers and
// curl send them for any file.
func Classify(contentType string) Category {
	if strings.TrimSpace(contentType) == "" {
		return Unknown
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch {
	// application/json, application/vnd.*+json, text/json
	case strings.Contains(mediaType, "json"):
		return JSON
	case mediaType == "text/plain", strings.Contains(mediaType, "octet-stream"):
		return Unknown
	case strings.HasPrefix(mediaType, "image/"),
		strings.HasPrefix(mediaType, "audio/"),
		strings.HasPrefix(mediaType, "video/"):
		return Media
	case strings.HasPrefix(mediaType, "text/"):
		return Text
	default:
		return Binary
	}
}

// FromFilename classifies by extension. Names without a known extension are
// Unknown.
func FromFilename(name string) Category {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case "":
		return Unknown
	case ".json":
		return JSON
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return Classify(ct)
	}
	return Unknown
}

// Sniff classifies data by its first non-space byte: an object or array
// opener in valid UTF-8 is JSON, other UTF-8 is Text.
func Sniff(data []byte) Category {
	if !utf8.Valid(data) {
		return Binary
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n\uFEFF")
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return JSON
	}
	return Text
}

// Detect combines the hints: the content type wins when it is informative,
// then the file name, then the bytes.
func Detect(contentType, filename string, data []byte) Category {
	if c := Classify(contentType); c != Unknown {
		return c
	}
	if c := FromFilename(filename); c != Unknown {
		return c
	}
	return Sniff(data)
}

// Accept rejects media and binary uploads. JSON and text go on to the
// decoder, which reports malformed bodies with an offset.
func Accept(contentType, filename string, data []byte) error {
	switch c := Detect(contentType, filename, data); c {
	case Media, Binary:
		return fmt.Errorf("%w: %s detected as %s", ErrNotJSON, displayName(filename), c)
	}
	return nil
}

// IsJSON returns true if the content type indicates JSON (case-insensitive).
func IsJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "json")
}

func displayName(filename string) string {
	if filename == "" {
		return "upload"
	}
	return filepath.Base(filename)
}
