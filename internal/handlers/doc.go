// Package handlers implements the HTTP API for the media library.
//
// Endpoints cover metadata extraction with persistent caching, cached
// thumbnail generation (single and batch), folder scanning and
// registration, thumbnail cache management, user preferences, and
// health and version reporting.
package handlers
