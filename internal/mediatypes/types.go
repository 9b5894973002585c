package mediatypes

import "strings"

// ItemType represents the semantic type of an indexed item.
type ItemType string

const (
	// ItemTypeImage represents an image item.
	ItemTypeImage ItemType = "image"
	// ItemTypeVideo represents a video item.
	ItemTypeVideo ItemType = "video"
	// ItemTypeAudio represents an audio item.
	ItemTypeAudio ItemType = "audio"
	// ItemTypeUnknown represents an item whose type could not be classified.
	ItemTypeUnknown ItemType = "unknown"
)

// SortField specifies which field to sort by.
type SortField string

// SortOrder specifies the direction of sorting.
type SortOrder string

const (
	// SortByName sorts by display name with natural numeric-prefix ordering.
	SortByName SortField = "name"
	// SortByDate sorts by the library-supplied modification marker.
	SortByDate SortField = "date"
	// SortByCreated sorts by creation time (btime-derived).
	SortByCreated SortField = "created"
	// SortByUpdated sorts by last-updated time.
	SortByUpdated SortField = "updated"
	// SortByTaken sorts by capture timestamp.
	SortByTaken SortField = "taken"
	// SortBySize sorts by byte size.
	SortBySize SortField = "size"
	// SortByType sorts by file extension.
	SortByType SortField = "type"
	// SortByDimensions sorts by pixel area (width times height).
	SortByDimensions SortField = "dimensions"
	// SortByTags sorts by per-item tag count.
	SortByTags SortField = "tags"
	// SortByRandom orders items pseudo-randomly, reproducible for a fixed seed.
	SortByRandom SortField = "random"

	// SortAsc sorts in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts in descending order.
	SortDesc SortOrder = "desc"
)

// ImageExtensions maps file extensions (without the dot) to whether they are
// supported image formats.
var ImageExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"bmp":  true,
	"webp": true,
	"svg":  true,
	"ico":  true,
	"tiff": true,
	"tif":  true,
	"heic": true,
	"heif": true,
}

// VideoExtensions maps file extensions (without the dot) to whether they are
// supported video formats.
var VideoExtensions = map[string]bool{
	"mp4":  true,
	"mkv":  true,
	"avi":  true,
	"mov":  true,
	"wmv":  true,
	"flv":  true,
	"webm": true,
	"m4v":  true,
	"mpeg": true,
	"mpg":  true,
	"3gp":  true,
	"ts":   true,
}

// AudioExtensions maps file extensions (without the dot) to whether they are
// supported audio formats.
var AudioExtensions = map[string]bool{
	"mp3":  true,
	"m4a":  true,
	"aac":  true,
	"flac": true,
	"ogg":  true,
	"opus": true,
	"wav":  true,
	"wma":  true,
	"aiff": true,
	"alac": true,
}

// GetItemType returns the ItemType for a given file extension. The leading
// dot is optional and case is ignored, so ".jpg", "jpg" and "JPG" classify
// alike. Returns ItemTypeUnknown if the extension is not recognized.
func GetItemType(ext string) ItemType {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ImageExtensions[ext] {
		return ItemTypeImage
	}
	if VideoExtensions[ext] {
		return ItemTypeVideo
	}
	if AudioExtensions[ext] {
		return ItemTypeAudio
	}
	return ItemTypeUnknown
}
