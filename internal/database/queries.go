package database

import (
	"context"
	"time"

	"mediadex/internal/logging"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanItemRow(s scanner) (*Item, error) {
	var item Item
	err := s.Scan(
		&item.ID, &item.Name, &item.Ext, &item.Size, &item.Mtime, &item.Type,
		&item.Width, &item.Height, &item.Duration, &item.FPS,
		&item.Codec, &item.AudioCodec, &item.Bitrate, &item.SampleRate, &item.Channels,
		&item.Exif, &item.Latitude, &item.Longitude, &item.Altitude, &item.Camera,
		&item.TakenAt, &item.CreatedAt, &item.UpdatedAt, &item.Note, &item.URL,
		&item.ContentHash,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Search returns items matching the filter, sorted and paginated. A zero
// Filter degrades to the plain scoped listing; the WHERE clause is shared
// with Count and TotalSize so the three are always consistent.
func (d *Database) Search(ctx context.Context, opts ListOptions) ([]Item, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("search", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	where, args := renderWhere(opts.Filter)
	orderBy := resolveOrderBy(opts.SortField, opts.SortOrder, opts.RandomSeed)

	query := "SELECT " + itemColumns + " FROM items WHERE " + where + " " + orderBy
	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Offset)
	} else if opts.Offset > 0 {
		// SQLite requires a LIMIT before OFFSET; -1 means unbounded
		query += " LIMIT -1 OFFSET ?"
		args = append(args, opts.Offset)
	}

	d.mu.RLock()
	rows, err := d.db.QueryContext(ctx, query, args...)
	d.mu.RUnlock()
	if err != nil {
		logging.Error("search query failed: %v", err)
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Item
	for rows.Next() {
		item, scanErr := scanItemRow(rows)
		if scanErr != nil {
			err = scanErr
			return nil, err
		}
		items = append(items, *item)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return items, nil
}

// List is the plain scoped listing: no search terms, optional folder scope.
func (d *Database) List(ctx context.Context, opts ListOptions) ([]Item, error) {
	opts.Filter.ContentQuery = ""
	opts.Filter.TagTerms = nil
	return d.Search(ctx, opts)
}

// Count returns the number of items matching the filter.
func (d *Database) Count(ctx context.Context, f Filter) (int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("count", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	where, args := renderWhere(f)

	d.mu.RLock()
	defer d.mu.RUnlock()

	var count int
	err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items WHERE "+where, args...).Scan(&count)
	return count, err
}

// TotalSize returns the summed byte size of items matching the filter.
func (d *Database) TotalSize(ctx context.Context, f Filter) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("total_size", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	where, args := renderWhere(f)

	d.mu.RLock()
	defer d.mu.RUnlock()

	var total int64
	err = d.db.QueryRowContext(ctx, "SELECT COALESCE(SUM(size), 0) FROM items WHERE "+where, args...).Scan(&total)
	return total, err
}

// AllTags returns the full tag vocabulary, case-insensitively deduplicated
// and sorted. The query parser uses this set to disambiguate search terms.
func (d *Database) AllTags(ctx context.Context) ([]string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("all_tags", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT DISTINCT tag FROM item_tags ORDER BY tag COLLATE NOCASE
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tags []string
	for rows.Next() {
		var tag string
		if err = rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	err = rows.Err()
	return tags, err
}

// TagCounts returns every tag with its item count, most used first.
func (d *Database) TagCounts(ctx context.Context) ([]TagCount, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("tag_counts", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT tag, COUNT(*) AS item_count
		FROM item_tags
		GROUP BY tag
		ORDER BY item_count DESC, tag COLLATE NOCASE
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var counts []TagCount
	for rows.Next() {
		var tc TagCount
		if err = rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, tc)
	}
	err = rows.Err()
	return counts, err
}

// ItemCountsByFolder returns direct (non-recursive) per-folder item counts.
// Recursive aggregation over the externally owned hierarchy is the folder
// aggregator's job.
func (d *Database) ItemCountsByFolder(ctx context.Context) (map[string]int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("folder_counts", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT folder_id, COUNT(*) FROM item_folders GROUP BY folder_id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var folderID string
		var count int
		if err = rows.Scan(&folderID, &count); err != nil {
			return nil, err
		}
		counts[folderID] = count
	}
	err = rows.Err()
	return counts, err
}

// AllFolderIDs returns every folder id present in any membership row.
func (d *Database) AllFolderIDs(ctx context.Context) ([]string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("all_folder_ids", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT DISTINCT folder_id FROM item_folders ORDER BY folder_id
	`)
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

// CalculateStats summarizes the index for health reporting.
func (d *Database) CalculateStats(ctx context.Context) (IndexStats, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var stats IndexStats

	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM items", &stats.TotalItems},
		{"SELECT COUNT(*) FROM items WHERE type = 'image'", &stats.TotalImages},
		{"SELECT COUNT(*) FROM items WHERE type = 'video'", &stats.TotalVideos},
		{"SELECT COUNT(*) FROM items WHERE type = 'audio'", &stats.TotalAudio},
		{"SELECT COUNT(DISTINCT tag) FROM item_tags", &stats.TotalTags},
	}

	for _, q := range queries {
		if err := d.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return stats, err
		}
	}

	return stats, nil
}
