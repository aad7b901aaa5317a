package database

import (
	"context"
	"time"
)

// UpsertFolder inserts or updates a tracked folder, returning its id.
func (d *Database) UpsertFolder(ctx context.Context, path, name string, fileCount int64) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_folder", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id int64
	err = d.db.QueryRowContext(ctx, `
		INSERT INTO scanned_folders (path, name, last_scanned, file_count)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			last_scanned = excluded.last_scanned,
			file_count = excluded.file_count
		RETURNING id
	`, path, name, time.Now().Unix(), fileCount).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListFolders returns all tracked folders, most recently scanned first.
func (d *Database) ListFolders(ctx context.Context) ([]ScannedFolder, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_folders", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, path, name, last_scanned, file_count, created_at
		FROM scanned_folders
		ORDER BY last_scanned DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []ScannedFolder
	for rows.Next() {
		var f ScannedFolder
		var lastScanned, createdAt int64
		if err = rows.Scan(&f.ID, &f.Path, &f.Name, &lastScanned, &f.FileCount, &createdAt); err != nil {
			return nil, err
		}
		f.LastScanned = time.Unix(lastScanned, 0)
		f.CreatedAt = time.Unix(createdAt, 0)
		folders = append(folders, f)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return folders, nil
}

// DeleteFolder removes a tracked folder. Metadata rows linked to it are
// removed by the cascading foreign key; detached rows are untouched.
func (d *Database) DeleteFolder(ctx context.Context, folderID int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_folder", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, "DELETE FROM scanned_folders WHERE id = ?", folderID)
	return err
}
