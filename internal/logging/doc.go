// Package logging provides leveled logging configured from the
// environment (DEBUG, LOG_LEVEL).
package logging
