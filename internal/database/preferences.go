package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SetPreference sets a user preference key/value pair.
func (d *Database) SetPreference(ctx context.Context, key, value string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_preference", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO user_preferences (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().Unix())
	return err
}

// GetPreference returns the value of a preference, or ("", false) when
// the key is not set.
func (d *Database) GetPreference(ctx context.Context, key string) (string, bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_preference", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var value string
	err = d.db.QueryRowContext(ctx,
		"SELECT value FROM user_preferences WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// ListPreferences returns all preferences sorted by key.
func (d *Database) ListPreferences(ctx context.Context) ([]UserPreference, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_preferences", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		"SELECT key, value, updated_at FROM user_preferences ORDER BY key ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prefs []UserPreference
	for rows.Next() {
		var p UserPreference
		var updatedAt int64
		if err = rows.Scan(&p.Key, &p.Value, &updatedAt); err != nil {
			return nil, err
		}
		p.UpdatedAt = time.Unix(updatedAt, 0)
		prefs = append(prefs, p)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return prefs, nil
}

// DeletePreference removes a preference key.
func (d *Database) DeletePreference(ctx context.Context, key string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_preference", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, "DELETE FROM user_preferences WHERE key = ?", key)
	return err
}
