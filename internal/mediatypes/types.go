package mediatypes

import (
	"path/filepath"
	"strings"
)

// Classification is the media type of a file, derived from its extension.
type Classification string

const (
	// ClassImage is a still image file (jpg, png, etc.).
	ClassImage Classification = "image"
	// ClassVideo is a video container file (mp4, mkv, etc.).
	ClassVideo Classification = "video"
	// ClassUnsupported is any file the pipeline does not handle.
	ClassUnsupported Classification = "unsupported"
)

// ImageExtensions maps file extensions to whether they are supported image formats.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".heic": true,
	".heif": true,
	".tiff": true,
	".tif":  true,
	".svg":  true,
}

// VideoExtensions maps file extensions to whether they are supported video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
	".flv":  true,
	".wmv":  true,
	".m4v":  true,
	".mpg":  true,
	".mpeg": true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".svg":  "image/svg+xml",
	".heic": "image/heic",
	".heif": "image/heic",
	".tiff": "image/tiff",
	".tif":  "image/tiff",

	// Videos
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".flv":  "video/x-flv",
	".wmv":  "video/x-ms-wmv",
	".m4v":  "video/x-m4v",
	".mpg":  "video/mpeg",
	".mpeg": "video/mpeg",
}

// Classify returns the Classification for a given file extension.
// The extension should be lowercase and include the leading dot (e.g. ".jpg").
// Returns ClassUnsupported if the extension is not recognized.
func Classify(ext string) Classification {
	if ImageExtensions[ext] {
		return ClassImage
	}
	if VideoExtensions[ext] {
		return ClassVideo
	}
	return ClassUnsupported
}

// ClassifyPath returns the Classification for a file path.
func ClassifyPath(path string) Classification {
	return Classify(strings.ToLower(filepath.Ext(path)))
}

// IsImagePath returns true if the path has a supported image extension.
func IsImagePath(path string) bool {
	return ClassifyPath(path) == ClassImage
}

// GetMimeType returns the MIME type for a given file extension.
// The extension should be lowercase and include the leading dot (e.g. ".jpg").
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsMediaFile returns true if the extension represents a supported media file.
func IsMediaFile(ext string) bool {
	return Classify(ext) != ClassUnsupported
}
