// Package mediatypes classifies files as image, video, or unsupported
// based on fixed extension allow-lists, and resolves MIME types.
// Unsupported files are excluded from all downstream processing.
package mediatypes
