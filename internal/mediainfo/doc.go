// Package mediainfo extracts structured technical metadata from media
// files: still images through Go image decoding, audio/video containers
// through ffprobe introspection. The Cache type layers staleness-aware
// persistent caching on top of extraction.
package mediainfo
