package mcp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/storeadvisor/internal/ingest"
)

func TestParseResourceURI(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		want    map[string]string
		wantErr bool
	}{
		{"event", "storeadvisor://event/abc123", map[string]string{"id": "abc123"}, false},
		{"history", "storeadvisor://history", map[string]string{}, false},
		{"analytics", "storeadvisor://analytics", map[string]string{}, false},
		{"event without id", "storeadvisor://event/", nil, true},
		{"wrong scheme", "http://event/abc", nil, true},
		{"empty path", "storeadvisor://", nil, true},
		{"unknown type", "storeadvisor://tables/users", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseResourceURI(tt.uri)
			if tt.wantErr {
				require.Error(t, err)
				var coded *ingest.CodedError
				require.True(t, errors.As(err, &coded))
				assert.Equal(t, ingest.ErrCodeInvalidInput, coded.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToResourceResult(t *testing.T) {
	res, err := toResourceResult("storeadvisor://analytics", map[string]int{"total": 3})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, "storeadvisor://analytics", res.Contents[0].URI)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)
	assert.JSONEq(t, `{"total": 3}`, res.Contents[0].Text)
}
