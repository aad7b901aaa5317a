package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const mediaColumns = `
	id, folder_id, file_path, file_name, file_type, file_size,
	width, height, duration, modified_date, indexed_at,
	format, format_long, bitrate,
	video_codec, video_codec_long, video_bitrate, frame_rate, pix_fmt, aspect_ratio,
	audio_codec, audio_codec_long, audio_bitrate, sample_rate, audio_channels, sample_fmt,
	metadata_json`

// UpsertMedia inserts or replaces the metadata record for m.FilePath and
// returns the row id. The write is all-or-nothing: either every field of
// the record lands, or the row is left unchanged.
func (d *Database) UpsertMedia(ctx context.Context, m *MediaMetadata) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_media", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id int64
	err = d.db.QueryRowContext(ctx, `
		INSERT INTO media_metadata (
			folder_id, file_path, file_name, file_type, file_size,
			width, height, duration, modified_date, indexed_at,
			format, format_long, bitrate,
			video_codec, video_codec_long, video_bitrate, frame_rate, pix_fmt, aspect_ratio,
			audio_codec, audio_codec_long, audio_bitrate, sample_rate, audio_channels, sample_fmt,
			metadata_json
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			folder_id = excluded.folder_id,
			file_name = excluded.file_name,
			file_type = excluded.file_type,
			file_size = excluded.file_size,
			width = excluded.width,
			height = excluded.height,
			duration = excluded.duration,
			modified_date = excluded.modified_date,
			indexed_at = excluded.indexed_at,
			format = excluded.format,
			format_long = excluded.format_long,
			bitrate = excluded.bitrate,
			video_codec = excluded.video_codec,
			video_codec_long = excluded.video_codec_long,
			video_bitrate = excluded.video_bitrate,
			frame_rate = excluded.frame_rate,
			pix_fmt = excluded.pix_fmt,
			aspect_ratio = excluded.aspect_ratio,
			audio_codec = excluded.audio_codec,
			audio_codec_long = excluded.audio_codec_long,
			audio_bitrate = excluded.audio_bitrate,
			sample_rate = excluded.sample_rate,
			audio_channels = excluded.audio_channels,
			sample_fmt = excluded.sample_fmt,
			metadata_json = excluded.metadata_json
		RETURNING id
	`,
		m.FolderID, m.FilePath, m.FileName, m.FileType, m.FileSize,
		m.Width, m.Height, m.Duration, m.ModifiedDate.Unix(), time.Now().Unix(),
		m.Format, m.FormatLong, m.Bitrate,
		m.VideoCodec, m.VideoCodecLong, m.VideoBitrate, m.FrameRate, m.PixelFormat, m.AspectRatio,
		m.AudioCodec, m.AudioCodecLong, m.AudioBitrate, m.SampleRate, m.AudioChannels, m.SampleFormat,
		m.MetadataJSON,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetMediaByPath returns the metadata record for a file path, or nil
// when no record exists.
func (d *Database) GetMediaByPath(ctx context.Context, filePath string) (*MediaMetadata, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_media_by_path", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx,
		"SELECT"+mediaColumns+" FROM media_metadata WHERE file_path = ?", filePath)

	m, err := scanMedia(row)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListMediaByFolder returns all metadata records for a tracked folder,
// sorted by file name.
func (d *Database) ListMediaByFolder(ctx context.Context, folderID int64) ([]MediaMetadata, error) {
	return d.listMedia(ctx, "list_media_by_folder",
		"SELECT"+mediaColumns+" FROM media_metadata WHERE folder_id = ? ORDER BY file_name ASC", folderID)
}

// ListAllMedia returns every metadata record, most recently indexed first.
func (d *Database) ListAllMedia(ctx context.Context) ([]MediaMetadata, error) {
	return d.listMedia(ctx, "list_all_media",
		"SELECT"+mediaColumns+" FROM media_metadata ORDER BY indexed_at DESC")
}

func (d *Database) listMedia(ctx context.Context, op, query string, args ...interface{}) ([]MediaMetadata, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery(op, start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []MediaMetadata
	for rows.Next() {
		var m *MediaMetadata
		if m, err = scanMedia(rows); err != nil {
			return nil, err
		}
		records = append(records, *m)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteMediaByPath removes the metadata record for a file path, used
// when the file no longer exists on disk.
func (d *Database) DeleteMediaByPath(ctx context.Context, filePath string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_media", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, "DELETE FROM media_metadata WHERE file_path = ?", filePath)
	return err
}

// scanner abstracts *sql.Row and *sql.Rows for scanMedia.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMedia(s scanner) (*MediaMetadata, error) {
	var m MediaMetadata
	var modifiedDate, indexedAt int64

	err := s.Scan(
		&m.ID, &m.FolderID, &m.FilePath, &m.FileName, &m.FileType, &m.FileSize,
		&m.Width, &m.Height, &m.Duration, &modifiedDate, &indexedAt,
		&m.Format, &m.FormatLong, &m.Bitrate,
		&m.VideoCodec, &m.VideoCodecLong, &m.VideoBitrate, &m.FrameRate, &m.PixelFormat, &m.AspectRatio,
		&m.AudioCodec, &m.AudioCodecLong, &m.AudioBitrate, &m.SampleRate, &m.AudioChannels, &m.SampleFormat,
		&m.MetadataJSON,
	)
	if err != nil {
		return nil, err
	}

	m.ModifiedDate = time.Unix(modifiedDate, 0)
	m.IndexedAt = time.Unix(indexedAt, 0)
	return &m, nil
}
