// Package database implements the persistent metadata cache on SQLite:
// tracked folders, per-file media metadata keyed by path, and user
// preferences. Metadata writes are all-or-nothing upserts; files outside
// any tracked folder are stored as detached rows with a NULL folder
// reference.
package database
