package database

import "time"

// ScannedFolder is a tracked top-level media folder.
type ScannedFolder struct {
	ID          int64     `json:"id"`
	Path        string    `json:"path"`
	Name        string    `json:"name"`
	LastScanned time.Time `json:"lastScanned"`
	FileCount   int64     `json:"fileCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MediaMetadata is the persisted metadata record for one media file,
// keyed uniquely by file path. FolderID is nil for detached entries
// whose file does not belong to any tracked folder.
type MediaMetadata struct {
	ID           int64     `json:"id"`
	FolderID     *int64    `json:"folderId,omitempty"`
	FilePath     string    `json:"filePath"`
	FileName     string    `json:"fileName"`
	FileType     string    `json:"fileType"`
	FileSize     int64     `json:"fileSize"`
	Width        *int64    `json:"width,omitempty"`
	Height       *int64    `json:"height,omitempty"`
	Duration     *float64  `json:"duration,omitempty"`
	ModifiedDate time.Time `json:"modifiedDate"`
	IndexedAt    time.Time `json:"indexedAt"`

	// Container-level fields
	Format     *string `json:"format,omitempty"`
	FormatLong *string `json:"formatLong,omitempty"`
	Bitrate    *int64  `json:"bitrate,omitempty"`

	// Video stream fields
	VideoCodec     *string  `json:"videoCodec,omitempty"`
	VideoCodecLong *string  `json:"videoCodecLong,omitempty"`
	VideoBitrate   *int64   `json:"videoBitrate,omitempty"`
	FrameRate      *float64 `json:"frameRate,omitempty"`
	PixelFormat    *string  `json:"pixelFormat,omitempty"`
	AspectRatio    *string  `json:"aspectRatio,omitempty"`

	// Audio stream fields
	AudioCodec     *string `json:"audioCodec,omitempty"`
	AudioCodecLong *string `json:"audioCodecLong,omitempty"`
	AudioBitrate   *int64  `json:"audioBitrate,omitempty"`
	SampleRate     *int64  `json:"sampleRate,omitempty"`
	AudioChannels  *int64  `json:"audioChannels,omitempty"`
	SampleFormat   *string `json:"sampleFormat,omitempty"`

	// Free-form container tags, serialized as JSON.
	MetadataJSON *string `json:"metadataJson,omitempty"`
}

// Complete reports whether the record satisfies the cache completeness
// invariant: it must carry either complete video-stream fields or a
// non-empty container format. Partial records are treated as cache
// misses and re-extracted.
func (m *MediaMetadata) Complete() bool {
	if m.VideoCodec != nil && *m.VideoCodec != "" && m.Width != nil && m.Height != nil {
		return true
	}
	return m.Format != nil && *m.Format != ""
}

// UserPreference is a persisted key/value preference.
type UserPreference struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}
