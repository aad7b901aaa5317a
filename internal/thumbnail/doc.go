// Package thumbnail generates and caches 256x256 JPEG previews for
// images and videos.
//
// Cache entries are keyed by the SHA-256 of the source path and stored
// as files in a flat cache directory, so repeat requests are a single
// stat away. Image decoding prefers libvips for its decode-time
// shrinking, falling back to pure-Go decoders and finally to ffmpeg
// for formats nothing in-process understands. Video previews are a
// single frame extracted by ffmpeg from 10% into the file.
//
// All decode work is gated by a caller-supplied weighted semaphore so
// concurrent generation, including batch runs, stays within a fixed
// memory budget.
package thumbnail
