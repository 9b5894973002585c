// Package query parses hybrid search strings into content terms and tag
// terms, using the index's current tag vocabulary to decide whether a word
// sequence is a tag or free text.
package query

import "strings"

// Parsed is the outcome of parsing one search string. Both lists preserve the
// order terms appeared in the input.
type Parsed struct {
	ContentTerms []string
	TagTerms     []string
}

// ContentQuery joins the content terms back into one substring query.
func (p Parsed) ContentQuery() string {
	return strings.Join(p.ContentTerms, " ")
}

// IsEmpty reports whether parsing produced no terms at all.
func (p Parsed) IsEmpty() bool {
	return len(p.ContentTerms) == 0 && len(p.TagTerms) == 0
}

const tagMarker = "tag:"

// Parse splits a raw search string into content and tag terms.
//
// The string is first cut on explicit "tag:" markers: everything after a
// marker up to the next marker (or end of string) is a forced tag term.
// Text before the first marker is tokenized on whitespace and each position
// is tested greedily against the vocabulary, longest contiguous word sequence
// first, so that with known tags {"red car", "red"} the input "red car
// parked" yields tag "red car" plus content "parked" rather than tag "red".
// Matching is case-insensitive and exact; unmatched words fall through to
// content terms.
func Parse(raw string, vocabulary []string) Parsed {
	vocab, maxWords := foldVocabulary(vocabulary)

	content, forced := splitMarkers(raw)

	var parsed Parsed
	for _, tag := range forced {
		if tag != "" {
			parsed.TagTerms = append(parsed.TagTerms, tag)
		}
	}

	words := strings.Fields(content)
	for i := 0; i < len(words); {
		matched := 0
		limit := len(words) - i
		if limit > maxWords {
			limit = maxWords
		}
		for length := limit; length >= 1; length-- {
			candidate := strings.ToLower(strings.Join(words[i:i+length], " "))
			if vocab[candidate] {
				parsed.TagTerms = append(parsed.TagTerms, strings.Join(words[i:i+length], " "))
				matched = length
				break
			}
		}
		if matched > 0 {
			i += matched
		} else {
			parsed.ContentTerms = append(parsed.ContentTerms, words[i])
			i++
		}
	}

	return parsed
}

// foldVocabulary builds the case-folded lookup set and the longest tag's word
// count, which bounds the greedy match window.
func foldVocabulary(vocabulary []string) (map[string]bool, int) {
	vocab := make(map[string]bool, len(vocabulary))
	maxWords := 1
	for _, tag := range vocabulary {
		folded := strings.ToLower(strings.TrimSpace(tag))
		if folded == "" {
			continue
		}
		vocab[folded] = true
		if n := len(strings.Fields(folded)); n > maxWords {
			maxWords = n
		}
	}
	return vocab, maxWords
}

// splitMarkers cuts the raw string on "tag:" markers, returning the leading
// content portion and the trimmed forced tag terms. A marker counts only at a
// token boundary, so a word merely containing "tag:" ("montag:alpe") is left
// intact as content.
func splitMarkers(raw string) (string, []string) {
	lower := strings.ToLower(raw)

	first := markerIndex(lower, 0)
	if first == -1 {
		return strings.TrimSpace(raw), nil
	}

	content := strings.TrimSpace(raw[:first])

	var forced []string
	pos := first + len(tagMarker)
	for {
		next := markerIndex(lower, pos)
		if next == -1 {
			forced = append(forced, strings.TrimSpace(raw[pos:]))
			break
		}
		forced = append(forced, strings.TrimSpace(raw[pos:next]))
		pos = next + len(tagMarker)
	}
	return content, forced
}

// markerIndex finds the next "tag:" occurrence at or after from that starts
// the string or follows whitespace. Returns -1 when none remains.
func markerIndex(lower string, from int) int {
	for i := from; ; {
		j := strings.Index(lower[i:], tagMarker)
		if j == -1 {
			return -1
		}
		j += i
		if j == 0 || lower[j-1] == ' ' || lower[j-1] == '\t' {
			return j
		}
		i = j + 1
	}
}
