package mediatypes

import "testing"

// TestGetItemType tests extension-based classification.
func TestGetItemType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		ext      string
		expected ItemType
	}{
		{name: "jpeg image with dot", ext: ".jpg", expected: ItemTypeImage},
		{name: "jpeg image without dot", ext: "jpg", expected: ItemTypeImage},
		{name: "png image", ext: ".png", expected: ItemTypeImage},
		{name: "heic image", ext: "heic", expected: ItemTypeImage},
		{name: "mp4 video with dot", ext: ".mp4", expected: ItemTypeVideo},
		{name: "mkv video without dot", ext: "mkv", expected: ItemTypeVideo},
		{name: "mp3 audio with dot", ext: ".mp3", expected: ItemTypeAudio},
		{name: "flac audio without dot", ext: "flac", expected: ItemTypeAudio},
		{name: "opus audio", ext: ".opus", expected: ItemTypeAudio},
		{name: "unknown extension", ext: ".xyz", expected: ItemTypeUnknown},
		{name: "empty extension", ext: "", expected: ItemTypeUnknown},
		{name: "bare dot", ext: ".", expected: ItemTypeUnknown},
		{name: "uppercase matched", ext: ".JPG", expected: ItemTypeImage},
		{name: "uppercase without dot matched", ext: "MP4", expected: ItemTypeVideo},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := GetItemType(tt.ext); got != tt.expected {
				t.Errorf("GetItemType(%q) = %q, want %q", tt.ext, got, tt.expected)
			}
		})
	}
}

// TestExtensionTablesDisjoint verifies no extension is claimed by two type tables.
func TestExtensionTablesDisjoint(t *testing.T) {
	t.Parallel()

	for ext := range ImageExtensions {
		if VideoExtensions[ext] || AudioExtensions[ext] {
			t.Errorf("extension %q appears in multiple tables", ext)
		}
	}
	for ext := range VideoExtensions {
		if AudioExtensions[ext] {
			t.Errorf("extension %q appears in multiple tables", ext)
		}
	}
}
