// Package scanner discovers media files on disk for library scans.
//
// A scan walks a root folder, recursively or single-level, and returns
// every file whose extension is on the supported image or video
// allow-lists, together with its size, modification time and
// classification. Results are sorted newest-first so clients can render
// the most recent media without a second pass.
//
// The walk is serial but the per-file stat work runs on a small worker
// pool sized for I/O. Hidden files and directories (prefixed with '.')
// are skipped, and unreadable entries are logged and dropped rather
// than failing the whole scan.
package scanner
