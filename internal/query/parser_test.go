package query

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	t.Parallel()

	vocab := []string{"red car", "red", "sunset beach", "sky"}

	tests := []struct {
		name        string
		input       string
		wantContent []string
		wantTags    []string
	}{
		{
			name:  "empty string",
			input: "",
		},
		{
			name:        "plain content",
			input:       "mountain lake",
			wantContent: []string{"mountain", "lake"},
		},
		{
			name:     "single word tag",
			input:    "sky",
			wantTags: []string{"sky"},
		},
		{
			name:        "longest match wins",
			input:       "red car parked",
			wantContent: []string{"parked"},
			wantTags:    []string{"red car"},
		},
		{
			name:        "shorter tag when longer impossible",
			input:       "red balloon",
			wantContent: []string{"balloon"},
			wantTags:    []string{"red"},
		},
		{
			name:     "multi word tag consumes both words",
			input:    "sunset beach",
			wantTags: []string{"sunset beach"},
		},
		{
			name:     "case insensitive match",
			input:    "RED CAR",
			wantTags: []string{"RED CAR"},
		},
		{
			name:     "explicit marker forces tag",
			input:    "tag:festival",
			wantTags: []string{"festival"},
		},
		{
			name:     "marker tag may be multi word",
			input:    "tag:summer holiday",
			wantTags: []string{"summer holiday"},
		},
		{
			name:        "content before marker",
			input:       "boats tag:harbor",
			wantContent: []string{"boats"},
			wantTags:    []string{"harbor"},
		},
		{
			name:     "several markers",
			input:    "tag:one two tag:three",
			wantTags: []string{"one two", "three"},
		},
		{
			name:        "vocabulary applies before marker",
			input:       "red car driving tag:night",
			wantContent: []string{"driving"},
			wantTags:    []string{"night", "red car"},
		},
		{
			name:        "uppercase marker",
			input:       "boats TAG:harbor",
			wantContent: []string{"boats"},
			wantTags:    []string{"harbor"},
		},
		{
			name:        "empty marker ignored",
			input:       "boats tag:",
			wantContent: []string{"boats"},
		},
		{
			name:        "embedded marker is not a marker",
			input:       "montag:alpe",
			wantContent: []string{"montag:alpe"},
		},
		{
			name:        "embedded marker beside a real one",
			input:       "montag:alpe tag:winter",
			wantContent: []string{"montag:alpe"},
			wantTags:    []string{"winter"},
		},
		{
			name:     "embedded marker inside forced tag kept whole",
			input:    "tag:montag:alpe",
			wantTags: []string{"montag:alpe"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Parse(tt.input, vocab)
			if !reflect.DeepEqual(got.ContentTerms, tt.wantContent) {
				t.Errorf("ContentTerms = %v, want %v", got.ContentTerms, tt.wantContent)
			}
			if !reflect.DeepEqual(got.TagTerms, tt.wantTags) {
				t.Errorf("TagTerms = %v, want %v", got.TagTerms, tt.wantTags)
			}
		})
	}
}

func TestParseEmptyVocabulary(t *testing.T) {
	t.Parallel()

	got := Parse("red car parked", nil)
	if len(got.TagTerms) != 0 {
		t.Errorf("TagTerms = %v with empty vocabulary", got.TagTerms)
	}
	if got.ContentQuery() != "red car parked" {
		t.Errorf("ContentQuery = %q", got.ContentQuery())
	}
}

func TestParsedHelpers(t *testing.T) {
	t.Parallel()

	if !(Parsed{}).IsEmpty() {
		t.Error("zero Parsed should be empty")
	}
	p := Parse("tag:x", nil)
	if p.IsEmpty() {
		t.Error("parsed tag should not be empty")
	}
}
