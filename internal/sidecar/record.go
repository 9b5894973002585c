package sidecar

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"mediadex/internal/database"
	"mediadex/internal/mediatypes"
)

// ErrInvalidRecord marks a sidecar record failing mandatory-field validation.
// The sync pipeline drops such records with a logged reason; they never abort
// a run.
var ErrInvalidRecord = errors.New("invalid sidecar record")

// Record is the raw sidecar shape. Fields the library writes inconsistently
// (timestamps as epoch numbers or strings, mtime as string or number) use
// tolerant types; everything is optional until Normalize validates it.
type Record struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Ext         string          `json:"ext"`
	Size        *int64          `json:"size"`
	Mtime       flexString      `json:"mtime"`
	Type        string          `json:"type"`
	Width       *int64          `json:"width"`
	Height      *int64          `json:"height"`
	Duration    *float64        `json:"duration"`
	FPS         *float64        `json:"fps"`
	Codec       *string         `json:"codec"`
	AudioCodec  *string         `json:"audioCodec"`
	Bitrate     *int64          `json:"bitrate"`
	SampleRate  *int64          `json:"sampleRate"`
	Channels    *int64          `json:"channels"`
	Exif        json.RawMessage `json:"exif"`
	Latitude    *float64        `json:"latitude"`
	Longitude   *float64        `json:"longitude"`
	Altitude    *float64        `json:"altitude"`
	Camera      *string         `json:"camera"`
	TakenAt     *string         `json:"takenAt"`
	Btime       epochField      `json:"btime"`
	LastUpdated epochField      `json:"lastUpdated"`
	Note        *string         `json:"note"`
	URL         *string         `json:"url"`
	Tags        []string        `json:"tags"`
	Folders     []string        `json:"folders"`
}

// flexString decodes a JSON string or number to its textual form. The mtime
// marker is opaque to the index but must survive round-trips unchanged.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	// Tolerate other shapes; validation happens once, in Normalize
	*f = ""
	return nil
}

// epochField decodes a library-native timestamp: epoch seconds or
// milliseconds as a number, or an RFC 3339 / epoch string.
type epochField struct {
	t  time.Time
	ok bool
}

func (e *epochField) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		e.t = epochToTime(n)
		e.ok = true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		e.t, e.ok = ParseTimestamp(s)
	}
	return nil
}

// Time returns the parsed timestamp and whether one was present.
func (e epochField) Time() (time.Time, bool) {
	return e.t, e.ok
}

// Normalize converts the raw record into the canonical index row plus its tag
// and folder associations. id is the directory-derived id, used to backfill a
// missing record id. mtimeOverride, when non-empty, replaces the record's own
// modification marker (the bulk mtime map takes precedence over the sidecar).
//
// Validation failures return ErrInvalidRecord-wrapped errors naming the
// missing field.
func (r *Record) Normalize(id string, mtimeOverride string) (*database.Item, []string, []string, error) {
	itemID := strings.TrimSpace(r.ID)
	if itemID == "" {
		itemID = id
	}
	if itemID == "" {
		return nil, nil, nil, fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}

	name := strings.TrimSpace(r.Name)
	if name == "" {
		return nil, nil, nil, fmt.Errorf("%w %s: missing name", ErrInvalidRecord, itemID)
	}

	ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(r.Ext), "."))
	if ext == "" {
		return nil, nil, nil, fmt.Errorf("%w %s: missing extension", ErrInvalidRecord, itemID)
	}

	if r.Size == nil {
		return nil, nil, nil, fmt.Errorf("%w %s: missing size", ErrInvalidRecord, itemID)
	}

	itemType := normalizeType(r.Type, ext)

	mtime := string(r.Mtime)
	if mtimeOverride != "" {
		mtime = mtimeOverride
	}

	item := &database.Item{
		ID:         itemID,
		Name:       name,
		Ext:        ext,
		Size:       *r.Size,
		Mtime:      mtime,
		Type:       itemType,
		Width:      r.Width,
		Height:     r.Height,
		Duration:   r.Duration,
		FPS:        r.FPS,
		Codec:      trimPtr(r.Codec),
		AudioCodec: trimPtr(r.AudioCodec),
		Bitrate:    r.Bitrate,
		SampleRate: r.SampleRate,
		Channels:   r.Channels,
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		Altitude:   r.Altitude,
		Camera:     trimPtr(r.Camera),
		TakenAt:    trimPtr(r.TakenAt),
		Note:       r.Note,
		URL:        trimPtr(r.URL),
	}

	if len(r.Exif) > 0 && string(r.Exif) != "null" {
		exif := string(r.Exif)
		item.Exif = &exif
	}
	if t, ok := r.Btime.Time(); ok {
		created := t.UTC().Format(time.RFC3339)
		item.CreatedAt = &created
	}
	if t, ok := r.LastUpdated.Time(); ok {
		updated := t.UTC().Format(time.RFC3339)
		item.UpdatedAt = &updated
	}

	tags := cleanStrings(r.Tags)
	folders := cleanStrings(r.Folders)
	item.ContentHash = contentHash(item, tags, folders)

	return item, tags, folders, nil
}

// normalizeType accepts a declared semantic type when it is one of the known
// values, otherwise classifies by extension.
func normalizeType(declared, ext string) mediatypes.ItemType {
	switch t := mediatypes.ItemType(strings.ToLower(strings.TrimSpace(declared))); t {
	case mediatypes.ItemTypeImage, mediatypes.ItemTypeVideo, mediatypes.ItemTypeAudio:
		return t
	}
	return mediatypes.GetItemType(ext)
}

// cleanStrings trims entries, drops empties and deduplicates, preserving
// first-seen order.
func cleanStrings(values []string) []string {
	var out []string
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// contentHash digests the normalized row in a fixed field order, with tag and
// folder sets sorted, so semantically-equal records hash equal regardless of
// field or association ordering in the source file.
func contentHash(item *database.Item, tags, folders []string) string {
	h := xxhash.New()

	field := func(key, value string) {
		_, _ = h.WriteString(key)
		_, _ = h.WriteString("=")
		_, _ = h.WriteString(value)
		_, _ = h.WriteString("\n")
	}
	optStr := func(key string, v *string) {
		if v != nil {
			field(key, *v)
		}
	}
	optInt := func(key string, v *int64) {
		if v != nil {
			field(key, strconv.FormatInt(*v, 10))
		}
	}
	optFloat := func(key string, v *float64) {
		if v != nil {
			field(key, strconv.FormatFloat(*v, 'g', -1, 64))
		}
	}

	field("id", item.ID)
	field("name", item.Name)
	field("ext", item.Ext)
	field("size", strconv.FormatInt(item.Size, 10))
	field("mtime", item.Mtime)
	field("type", string(item.Type))
	optInt("width", item.Width)
	optInt("height", item.Height)
	optFloat("duration", item.Duration)
	optFloat("fps", item.FPS)
	optStr("codec", item.Codec)
	optStr("audio_codec", item.AudioCodec)
	optInt("bitrate", item.Bitrate)
	optInt("sample_rate", item.SampleRate)
	optInt("channels", item.Channels)
	optStr("exif", item.Exif)
	optFloat("latitude", item.Latitude)
	optFloat("longitude", item.Longitude)
	optFloat("altitude", item.Altitude)
	optStr("camera", item.Camera)
	optStr("taken_at", item.TakenAt)
	optStr("created_at", item.CreatedAt)
	optStr("updated_at", item.UpdatedAt)
	optStr("note", item.Note)
	optStr("url", item.URL)

	sortedField := func(key string, values []string) {
		sorted := append([]string(nil), values...)
		sort.Strings(sorted)
		field(key, strings.Join(sorted, "\x1f"))
	}
	sortedField("tags", tags)
	sortedField("folders", folders)

	return fmt.Sprintf("%016x", h.Sum64())
}
