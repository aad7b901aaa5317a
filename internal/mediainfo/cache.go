package mediainfo

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"medialib/internal/database"
	"medialib/internal/logging"
	"medialib/internal/mediatypes"
	"medialib/internal/metrics"
)

// Store is the subset of the metadata database the cache needs.
type Store interface {
	GetMediaByPath(ctx context.Context, filePath string) (*database.MediaMetadata, error)
	UpsertMedia(ctx context.Context, m *database.MediaMetadata) (int64, error)
	ListFolders(ctx context.Context) ([]database.ScannedFolder, error)
}

// Cache is the staleness-aware metadata lookup: it serves records from
// the persistent store when they are fresh and complete, and extracts
// (then writes back) otherwise. Cache-write failures are never fatal to
// the read path.
type Cache struct {
	store Store
}

// NewCache returns a Cache backed by the given store.
func NewCache(store Store) *Cache {
	return &Cache{store: store}
}

// GetOrExtract returns the metadata record for path, from cache when
// the stored record's modification timestamp is at least the file's
// current one and the record is complete, otherwise by extracting fresh
// metadata and upserting it.
func (c *Cache) GetOrExtract(ctx context.Context, path string) (*database.MediaMetadata, error) {
	modTime := time.Now()
	if info, err := os.Stat(path); err == nil {
		modTime = info.ModTime()
	}

	cached, err := c.store.GetMediaByPath(ctx, path)
	if err != nil {
		logging.Warn("Metadata cache lookup failed for %s: %v", path, err)
	}
	if cached != nil {
		if cached.ModifiedDate.Unix() >= modTime.Unix() && cached.Complete() {
			logging.Debug("Metadata cache hit: %s", path)
			metrics.MetadataCacheHits.Inc()
			return cached, nil
		}
		logging.Debug("Metadata cache stale for %s (cached %v, file %v)",
			path, cached.ModifiedDate, modTime)
		metrics.MetadataCacheStale.Inc()
	}
	metrics.MetadataCacheMisses.Inc()

	info, err := Extract(ctx, path)
	if err != nil {
		return nil, err
	}

	record := c.toRecord(ctx, path, modTime, info)

	if id, err := c.store.UpsertMedia(ctx, record); err != nil {
		// A transient cache outage must not block the read path; the
		// freshly computed record is still returned.
		logging.Warn("Metadata cache write failed for %s: %v", path, err)
	} else {
		record.ID = id
	}

	return record, nil
}

// toRecord converts an extraction result into a persistable record,
// resolving the file's owning folder when one is tracked. Files outside
// every tracked folder become detached entries.
func (c *Cache) toRecord(ctx context.Context, path string, modTime time.Time, info *MediaInfo) *database.MediaMetadata {
	record := &database.MediaMetadata{
		FolderID:     c.resolveFolder(ctx, path),
		FilePath:     path,
		FileName:     filepath.Base(path),
		FileType:     string(mediatypes.ClassifyPath(path)),
		FileSize:     info.General.Size,
		Duration:     info.General.Duration,
		ModifiedDate: modTime,
		Format:       strPtr(info.General.Format),
		FormatLong:   strPtr(info.General.FormatLong),
		Bitrate:      info.General.Bitrate,
	}

	if v := info.Video; v != nil {
		record.Width = &v.Width
		record.Height = &v.Height
		record.VideoCodec = strPtr(v.Codec)
		record.VideoCodecLong = strPtr(v.CodecLong)
		record.VideoBitrate = v.Bitrate
		record.FrameRate = &v.FPS
		record.PixelFormat = strPtr(v.PixelFormat)
		record.AspectRatio = strPtr(v.AspectRatio)
	}

	if a := info.Audio; a != nil {
		record.AudioCodec = strPtr(a.Codec)
		record.AudioCodecLong = strPtr(a.CodecLong)
		record.AudioBitrate = a.Bitrate
		record.SampleRate = &a.SampleRate
		record.AudioChannels = &a.Channels
		record.SampleFormat = strPtr(a.SampleFormat)
	}

	if len(info.Metadata) > 0 {
		if tags, err := json.Marshal(info.Metadata); err == nil {
			s := string(tags)
			record.MetadataJSON = &s
		}
	}

	return record
}

// resolveFolder finds the tracked folder containing path, preferring
// the longest matching prefix. Returns nil when no folder matches or
// the folder list cannot be read; either way the record is stored
// detached rather than blocking the cache write.
func (c *Cache) resolveFolder(ctx context.Context, path string) *int64 {
	folders, err := c.store.ListFolders(ctx)
	if err != nil {
		logging.Debug("Could not list folders for %s: %v", path, err)
		return nil
	}

	var best *int64
	bestLen := -1
	for i := range folders {
		prefix := strings.TrimSuffix(folders[i].Path, string(os.PathSeparator))
		if prefix == "" {
			continue
		}
		if path == prefix || strings.HasPrefix(path, prefix+string(os.PathSeparator)) {
			if len(prefix) > bestLen {
				best = &folders[i].ID
				bestLen = len(prefix)
			}
		}
	}
	return best
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
