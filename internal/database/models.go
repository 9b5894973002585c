package database

import "mediadex/internal/mediatypes"

// Item is the canonical row shape the index stores for one sidecar record.
// The item id is derived from the sidecar directory name and is immutable
// once assigned.
type Item struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Ext         string              `json:"ext"`
	Size        int64               `json:"size"`
	Mtime       string              `json:"mtime,omitempty"`
	Type        mediatypes.ItemType `json:"type"`
	Width       *int64              `json:"width,omitempty"`
	Height      *int64              `json:"height,omitempty"`
	Duration    *float64            `json:"duration,omitempty"`
	FPS         *float64            `json:"fps,omitempty"`
	Codec       *string             `json:"codec,omitempty"`
	AudioCodec  *string             `json:"audioCodec,omitempty"`
	Bitrate     *int64              `json:"bitrate,omitempty"`
	SampleRate  *int64              `json:"sampleRate,omitempty"`
	Channels    *int64              `json:"channels,omitempty"`
	Exif        *string             `json:"exif,omitempty"`
	Latitude    *float64            `json:"latitude,omitempty"`
	Longitude   *float64            `json:"longitude,omitempty"`
	Altitude    *float64            `json:"altitude,omitempty"`
	Camera      *string             `json:"camera,omitempty"`
	TakenAt     *string             `json:"takenAt,omitempty"`
	CreatedAt   *string             `json:"createdAt,omitempty"`
	UpdatedAt   *string             `json:"updatedAt,omitempty"`
	Note        *string             `json:"note,omitempty"`
	URL         *string             `json:"url,omitempty"`
	ContentHash string              `json:"-"`

	// Populated on point lookups, not on bulk listings.
	Tags    []string `json:"tags,omitempty"`
	Folders []string `json:"folders,omitempty"`
}

// TagPair is one (item id, tag) membership row.
type TagPair struct {
	ItemID string
	Tag    string
}

// FolderPair is one (item id, folder id) membership row.
type FolderPair struct {
	ItemID   string
	FolderID string
}

// TagCount is a tag with the number of items carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Cache-info keys written by the sync pipeline.
const (
	CacheKeyLastRefresh = "last_refresh"
	CacheKeyLastRebuild = "last_rebuild"
	CacheKeyTotalItems  = "total_items"
	CacheKeySourceMode  = "source_mode"
)

// Filter describes the shared WHERE construction for listing, counting and
// sizing so the three shapes can never drift apart.
type Filter struct {
	// ContentQuery is the joined free-text portion of the search, matched as
	// a substring against name, camera and associated tags.
	ContentQuery string
	// TagTerms must all be present on a matching item.
	TagTerms []string
	// Type restricts to one semantic type when non-empty.
	Type string
	// FolderID scopes to direct members of one folder when non-empty.
	FolderID string
	// TagContext scopes to items carrying one extra tag when non-empty.
	TagContext string
}

// ListOptions controls the paginated listing and search surface.
type ListOptions struct {
	Filter     Filter
	SortField  mediatypes.SortField
	SortOrder  mediatypes.SortOrder
	RandomSeed int64
	// Limit <= 0 means no limit.
	Limit  int
	Offset int
}

// IndexStats summarizes the index for health reporting.
type IndexStats struct {
	TotalItems  int    `json:"totalItems"`
	TotalImages int    `json:"totalImages"`
	TotalVideos int    `json:"totalVideos"`
	TotalAudio  int    `json:"totalAudio"`
	TotalTags   int    `json:"totalTags"`
	LastRefresh string `json:"lastRefresh,omitempty"`
}
