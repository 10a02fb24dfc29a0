package mediatypes

import (
	"path/filepath"
	"strings"
)

// VideoExtensions maps file extensions to whether they are indexed video containers.
var VideoExtensions = map[string]bool{
	".mp4": true,
	".mkv": true,
	".avi": true,
	".mov": true,
	".m4v": true,
	".wmv": true,
}

// PrunedDirNames lists directory names (lowercase) that are never descended into.
var PrunedDirNames = map[string]bool{
	"extras":  true,
	"sample":  true,
	"samples": true,
}

// SystemArtifactMarkers are substrings of lowercase filenames produced by
// operating systems rather than users.
var SystemArtifactMarkers = []string{
	"thumbs.db",
	"desktop.ini",
}

// MimeTypes maps the video and artifact extensions this project touches to MIME types.
var MimeTypes = map[string]string{
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".m4v":  "video/x-m4v",
	".wmv":  "video/x-ms-wmv",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// IsVideo reports whether the extension (with leading dot, any case) is an indexed container.
func IsVideo(ext string) bool {
	return VideoExtensions[strings.ToLower(ext)]
}

// IsHidden reports whether a file or directory name is hidden.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// IsPrunedDir reports whether the scanner must not descend into a directory with this name.
func IsPrunedDir(name string) bool {
	return IsHidden(name) || PrunedDirNames[strings.ToLower(name)]
}

// IsSkippedFile reports whether a file name is excluded regardless of its extension:
// hidden files, system artifacts, and "sample.*" files.
func IsSkippedFile(name string) bool {
	if IsHidden(name) {
		return true
	}
	lower := strings.ToLower(name)
	for _, marker := range SystemArtifactMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	if matched, _ := filepath.Match("sample.*", lower); matched {
		return true
	}
	return false
}

// GetMimeType returns the MIME type for a file extension.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[strings.ToLower(ext)]; ok {
		return mime
	}
	return "application/octet-stream"
}
