package contenttype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		want        Category
	}{
		// JSON
		{"application/json", "application/json", JSON},
		{"vendor json", "application/vnd.api+json", JSON},
		{"json with charset", "application/json; charset=utf-8", JSON},
		{"text/json", "text/json", JSON},

		// Uninformative
		{"empty", "", Unknown},
		{"text/plain", "text/plain; charset=utf-8", Unknown},
		{"octet-stream", "application/octet-stream", Unknown},

		// Media
		{"image/png", "image/png", Media},
		{"audio/mp3", "audio/mp3", Media},
		{"video/mp4", "video/mp4", Media},

		// Text
		{"text/csv", "text/csv", Text},
		{"text/html", "text/html", Text},

		// Binary
		{"pdf", "application/pdf", Binary},
		{"zip", "application/zip", Binary},

		// Edge cases
		{"uppercase", "Application/JSON", JSON},
		{"malformed", "application/json;;;", JSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.contentType))
		})
	}
}

func TestFromFilename(t *testing.T) {
	tests := []struct {
		name string
		want Category
	}{
		{"data.json", JSON},
		{"DATA.JSON", JSON},
		{"dir/people.json", JSON},
		{"photo.png", Media},
		{"README", Unknown},
		{"blob.weird-ext", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromFilename(tt.name))
		})
	}
}

func TestSniff(t *testing.T) {
	assert.Equal(t, JSON, Sniff([]byte(`  [1, 2]`)))
	assert.Equal(t, JSON, Sniff([]byte("\n{\"a\": 1}")))
	assert.Equal(t, Text, Sniff([]byte(`hello`)))
	assert.Equal(t, Text, Sniff(nil))
	assert.Equal(t, Binary, Sniff([]byte{0xff, 0xfe, 0x00}))
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		filename    string
		data        string
		want        Category
	}{
		{"declared json wins", "application/json", "x.png", "hello", JSON},
		{"filename when type is generic", "application/octet-stream", "x.json", "hello", JSON},
		{"media filename", "", "cat.jpg", "{}", Media},
		{"sniffed", "text/plain", "upload", `[{"a": 1}]`, JSON},
		{"plain text", "", "notes", "just words", Text},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.contentType, tt.filename, []byte(tt.data)))
		})
	}
}

func TestAccept(t *testing.T) {
	require.NoError(t, Accept("", "people.json", []byte(`[]`)))
	require.NoError(t, Accept("", "", []byte(`{"a": 1}`)))

	err := Accept("image/png", "cat.png", []byte{0x89, 'P', 'N', 'G'})
	require.ErrorIs(t, err, ErrNotJSON)
	assert.Contains(t, err.Error(), "cat.png detected as media")

	require.NoError(t, Accept("", "", []byte("plain")))

	err = Accept("", "", []byte{0xff, 0xfe, 0x00})
	require.ErrorIs(t, err, ErrNotJSON)
	assert.Contains(t, err.Error(), "upload detected as binary")
}

func TestIsJSON(t *testing.T) {
	assert.True(t, IsJSON("application/json"))
	assert.True(t, IsJSON("Application/JSON"))
	assert.True(t, IsJSON("application/vnd.api+json"))
	assert.False(t, IsJSON("text/html"))
	assert.False(t, IsJSON(""))
}
