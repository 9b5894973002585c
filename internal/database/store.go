package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"mediadex/internal/logging"
	"mediadex/internal/metrics"
)

// Maximum rows per IN(...) clause, comfortably under SQLite's variable limit.
const idChunkSize = 500

const itemColumns = `id, name, ext, size, mtime, type, width, height, duration, fps,
	codec, audio_codec, bitrate, sample_rate, channels, exif,
	latitude, longitude, altitude, camera, taken_at, created_at, updated_at,
	note, url, content_hash`

const upsertItemSQL = `
INSERT INTO items (` + itemColumns + `, indexed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, strftime('%s', 'now'))
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	ext = excluded.ext,
	size = excluded.size,
	mtime = excluded.mtime,
	type = excluded.type,
	width = excluded.width,
	height = excluded.height,
	duration = excluded.duration,
	fps = excluded.fps,
	codec = excluded.codec,
	audio_codec = excluded.audio_codec,
	bitrate = excluded.bitrate,
	sample_rate = excluded.sample_rate,
	channels = excluded.channels,
	exif = excluded.exif,
	latitude = excluded.latitude,
	longitude = excluded.longitude,
	altitude = excluded.altitude,
	camera = excluded.camera,
	taken_at = excluded.taken_at,
	created_at = excluded.created_at,
	updated_at = excluded.updated_at,
	note = excluded.note,
	url = excluded.url,
	content_hash = excluded.content_hash,
	indexed_at = CASE
		WHEN items.content_hash != excluded.content_hash THEN strftime('%s', 'now')
		ELSE items.indexed_at
	END
`

func upsertArgs(item *Item) []interface{} {
	return []interface{}{
		item.ID, item.Name, item.Ext, item.Size, item.Mtime, item.Type,
		item.Width, item.Height, item.Duration, item.FPS,
		item.Codec, item.AudioCodec, item.Bitrate, item.SampleRate, item.Channels,
		item.Exif, item.Latitude, item.Longitude, item.Altitude, item.Camera,
		item.TakenAt, item.CreatedAt, item.UpdatedAt, item.Note, item.URL,
		item.ContentHash,
	}
}

// UpsertItem inserts or updates one item row within a transaction.
// A row whose content hash is unchanged keeps its indexed_at marker, so
// re-writing an identical record is a no-op for staleness purposes.
func (d *Database) UpsertItem(tx *sql.Tx, item *Item) error {
	result, err := tx.ExecContext(context.Background(), upsertItemSQL, upsertArgs(item)...)
	if err == nil {
		if rows, _ := result.RowsAffected(); rows > 0 {
			metrics.DBRowsAffected.WithLabelValues("upsert_item").Observe(float64(rows))
		}
	}
	return err
}

// UpsertBatch writes a batch of items in a single transaction, all or
// nothing. On error the transaction is rolled back and the error returned;
// the caller may fall back to per-row UpsertOne calls.
func (d *Database) UpsertBatch(items []*Item) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_batch", start, err) }()

	if len(items) == 0 {
		return nil
	}

	tx, err := d.BeginBatch()
	if err != nil {
		return fmt.Errorf("failed to begin batch transaction: %w", err)
	}

	for _, item := range items {
		if err = d.UpsertItem(tx, item); err != nil {
			err = fmt.Errorf("upsert %s: %w", item.ID, err)
			if endErr := d.EndBatch(tx, err); endErr != nil && !errors.Is(endErr, err) {
				logging.Error("failed to roll back batch: %v", endErr)
			}
			return err
		}
	}

	if err = d.EndBatch(tx, nil); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// UpsertOne writes a single item and replaces its tag and folder membership
// rows, all in one transaction. Used by the sync pipeline's per-row fallback
// path and for targeted re-index of one item.
func (d *Database) UpsertOne(ctx context.Context, item *Item, tags, folders []string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_one", start, err) }()

	tx, err := d.BeginBatch()
	if err != nil {
		return err
	}

	err = func() error {
		if err := d.UpsertItem(tx, item); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM item_tags WHERE item_id = ?", item.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM item_folders WHERE item_id = ?", item.ID); err != nil {
			return err
		}
		for _, tag := range tags {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO item_tags (item_id, tag) VALUES (?, ?)", item.ID, tag); err != nil {
				return err
			}
		}
		for _, folderID := range folders {
			if folderID == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO item_folders (item_id, folder_id) VALUES (?, ?)", item.ID, folderID); err != nil {
				return err
			}
		}
		return nil
	}()

	return d.EndBatch(tx, err)
}

// InsertTagPairs writes tag membership rows. Duplicate pairs are silently
// ignored, so replaying the same relationships is idempotent.
func (d *Database) InsertTagPairs(ctx context.Context, pairs []TagPair) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("insert_tag_pairs", start, err) }()

	if len(pairs) == 0 {
		return nil
	}

	tx, err := d.BeginBatch()
	if err != nil {
		return err
	}

	err = func() error {
		for _, p := range pairs {
			if p.ItemID == "" || strings.TrimSpace(p.Tag) == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO item_tags (item_id, tag) VALUES (?, ?)",
				p.ItemID, strings.TrimSpace(p.Tag)); err != nil {
				return err
			}
		}
		return nil
	}()

	return d.EndBatch(tx, err)
}

// InsertFolderPairs writes folder membership rows, ignoring duplicates.
func (d *Database) InsertFolderPairs(ctx context.Context, pairs []FolderPair) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("insert_folder_pairs", start, err) }()

	if len(pairs) == 0 {
		return nil
	}

	tx, err := d.BeginBatch()
	if err != nil {
		return err
	}

	err = func() error {
		for _, p := range pairs {
			if p.ItemID == "" || p.FolderID == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO item_folders (item_id, folder_id) VALUES (?, ?)",
				p.ItemID, p.FolderID); err != nil {
				return err
			}
		}
		return nil
	}()

	return d.EndBatch(tx, err)
}

// ClearRelationsFor removes all tag and folder membership rows for the given
// item ids, so a modified item's relationships can be rewritten from its
// current sidecar record.
func (d *Database) ClearRelationsFor(ctx context.Context, ids []string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("clear_relations", start, err) }()

	if len(ids) == 0 {
		return nil
	}

	tx, err := d.BeginBatch()
	if err != nil {
		return err
	}

	err = func() error {
		for _, chunk := range chunkIDs(ids) {
			placeholders, args := inArgs(chunk)
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM item_tags WHERE item_id IN ("+placeholders+")", args...); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM item_folders WHERE item_id IN ("+placeholders+")", args...); err != nil {
				return err
			}
		}
		return nil
	}()

	return d.EndBatch(tx, err)
}

// RemoveByIDs deletes items and cascades to their tag and folder membership
// rows in a single transaction. Returns the number of item rows removed.
func (d *Database) RemoveByIDs(ctx context.Context, ids []string) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("remove_by_ids", start, err) }()

	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := d.BeginBatch()
	if err != nil {
		return 0, err
	}

	var removed int64
	err = func() error {
		for _, chunk := range chunkIDs(ids) {
			placeholders, args := inArgs(chunk)
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM item_tags WHERE item_id IN ("+placeholders+")", args...); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM item_folders WHERE item_id IN ("+placeholders+")", args...); err != nil {
				return err
			}
			result, err := tx.ExecContext(ctx,
				"DELETE FROM items WHERE id IN ("+placeholders+")", args...)
			if err != nil {
				return err
			}
			if rows, err := result.RowsAffected(); err == nil {
				removed += rows
			}
		}
		return nil
	}()

	if endErr := d.EndBatch(tx, err); endErr != nil {
		return 0, endErr
	}

	if removed > 0 {
		metrics.DBRowsAffected.WithLabelValues("remove_items").Observe(float64(removed))
	}
	return removed, nil
}

// Truncate deletes every item and relationship row in one transaction,
// leaving cache info intact. Used by full rebuilds.
func (d *Database) Truncate(ctx context.Context) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("truncate", start, err) }()

	tx, err := d.BeginBatch()
	if err != nil {
		return err
	}

	err = func() error {
		for _, table := range []string{"item_tags", "item_folders", "items"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return err
			}
		}
		return nil
	}()

	return d.EndBatch(tx, err)
}

// GetByID retrieves a single item with its tags and folders.
// Returns sql.ErrNoRows when the id is not indexed.
func (d *Database) GetByID(ctx context.Context, id string) (*Item, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_by_id", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM items WHERE id = ?", id)

	item, err := scanItemRow(row)
	if err != nil {
		return nil, err
	}

	if item.Tags, err = d.tagsForItem(ctx, id); err != nil {
		return nil, err
	}
	if item.Folders, err = d.foldersForItem(ctx, id); err != nil {
		return nil, err
	}
	return item, nil
}

// AllItemIDs returns every indexed item id. The sync pipeline diffs this set
// against the on-disk id set.
func (d *Database) AllItemIDs(ctx context.Context) ([]string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("all_item_ids", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.QueryContext(ctx, "SELECT id FROM items")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	err = rows.Err()
	return ids, err
}

// GetCacheInfo retrieves a cache-info value by key.
// Returns sql.ErrNoRows if the key doesn't exist.
func (d *Database) GetCacheInfo(ctx context.Context, key string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var value string
	err := d.db.QueryRowContext(ctx, "SELECT value FROM cache_info WHERE key = ?", key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetCacheInfo sets a cache-info key-value pair.
func (d *Database) SetCacheInfo(ctx context.Context, key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO cache_info (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// GetLastRefresh returns the timestamp of the last successful sync.
// Returns zero time if never synced.
func (d *Database) GetLastRefresh(ctx context.Context) (time.Time, error) {
	value, err := d.GetCacheInfo(ctx, CacheKeyLastRefresh)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	if value == "" {
		return time.Time{}, nil
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return timestamp, nil
}

// SetLastRefresh stores the timestamp of the last successful sync.
func (d *Database) SetLastRefresh(ctx context.Context, t time.Time) error {
	return d.SetCacheInfo(ctx, CacheKeyLastRefresh, t.UTC().Format(time.RFC3339))
}

func (d *Database) tagsForItem(ctx context.Context, id string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT tag FROM item_tags WHERE item_id = ? ORDER BY tag COLLATE NOCASE
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (d *Database) foldersForItem(ctx context.Context, id string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT folder_id FROM item_folders WHERE item_id = ? ORDER BY folder_id
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var folders []string
	for rows.Next() {
		var folderID string
		if err := rows.Scan(&folderID); err != nil {
			return nil, err
		}
		folders = append(folders, folderID)
	}
	return folders, rows.Err()
}

func chunkIDs(ids []string) [][]string {
	var chunks [][]string
	for len(ids) > idChunkSize {
		chunks = append(chunks, ids[:idChunkSize])
		ids = ids[idChunkSize:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}

func inArgs(ids []string) (string, []interface{}) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return placeholders, args
}
