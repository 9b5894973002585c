package database

import (
	"fmt"
	"strings"

	"mediadex/internal/mediatypes"
)

// resolveDirection validates a sort order to exactly ASC or DESC,
// defaulting to DESC on anything else.
func resolveDirection(order mediatypes.SortOrder) string {
	if strings.EqualFold(string(order), "asc") {
		return "ASC"
	}
	return "DESC"
}

// resolveOrderBy maps a logical sort key to a concrete ORDER BY clause.
//
// Name sorting is natural: names beginning with digits sort by the leading
// integer before falling back to case-insensitive lexical order, so "2.jpg"
// precedes "10.jpg". Random sorting with a seed is deterministic and
// reproducible for the same seed, so paginated random browsing neither
// repeats nor skips items across pages.
func resolveOrderBy(field mediatypes.SortField, order mediatypes.SortOrder, seed int64) string {
	dir := resolveDirection(order)

	var keys []string
	switch field {
	case mediatypes.SortByDate:
		keys = []string{"items.mtime"}
	case mediatypes.SortByCreated:
		keys = []string{"items.created_at"}
	case mediatypes.SortByUpdated:
		keys = []string{"items.updated_at"}
	case mediatypes.SortByTaken:
		keys = []string{"items.taken_at"}
	case mediatypes.SortBySize:
		keys = []string{"items.size"}
	case mediatypes.SortByType:
		keys = []string{"items.ext COLLATE NOCASE"}
	case mediatypes.SortByDimensions:
		keys = []string{"(COALESCE(items.width, 0) * COALESCE(items.height, 0))"}
	case mediatypes.SortByTags:
		keys = []string{"(SELECT COUNT(*) FROM item_tags it WHERE it.item_id = items.id)"}
	case mediatypes.SortByRandom:
		// A fixed linear congruence over the rowid, not RANDOM(): the whole
		// ordering is a pure function of the seed, so disjoint pages of one
		// seeded browse session partition the result set.
		keys = []string{fmt.Sprintf("((items.rowid * 1103515245 + %d) %% 2147483647)", normalizeSeed(seed))}
	case mediatypes.SortByName:
		fallthrough
	default:
		keys = []string{
			"(CASE WHEN items.name GLOB '[0-9]*' THEN 0 ELSE 1 END)",
			"CAST(items.name AS INTEGER)",
			"items.name COLLATE NOCASE",
		}
	}

	parts := make([]string, 0, len(keys)+1)
	for _, key := range keys {
		parts = append(parts, key+" "+dir)
	}
	// Stable tiebreak so equal keys paginate consistently
	parts = append(parts, "items.id ASC")

	return "ORDER BY " + strings.Join(parts, ", ")
}

func normalizeSeed(seed int64) int64 {
	seed %= 2147483647
	if seed < 0 {
		seed = -seed
	}
	if seed == 0 {
		seed = 1
	}
	return seed
}
