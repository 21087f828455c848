package prompts

import (
	"context"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func promptText(t *testing.T, res *sdkmcp.GetPromptResult) string {
	t.Helper()
	require.Len(t, res.Messages, 1)
	text, ok := res.Messages[0].Content.(*sdkmcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func request(args map[string]string) *sdkmcp.GetPromptRequest {
	return &sdkmcp.GetPromptRequest{Params: &sdkmcp.GetPromptParams{Arguments: args}}
}

func TestHandleBasePrompt_StoreToggle(t *testing.T) {
	res, err := HandleBasePrompt(&Config{MaxSample: 100})(context.Background(), request(nil))
	require.NoError(t, err)
	text := promptText(t, res)
	assert.Contains(t, text, "first 100 records")
	assert.Contains(t, text, "Storage is disabled")
	assert.NotContains(t, text, "storeadvisor_ingest_file")

	res, err = HandleBasePrompt(&Config{StoreEnabled: true, RelationalBackend: "sqlite", MaxSample: 50})(context.Background(), request(nil))
	require.NoError(t, err)
	text = promptText(t, res)
	assert.Contains(t, text, "storeadvisor_ingest_file")
	assert.Contains(t, text, "`sqlite` backend")
}

func TestHandleRecommendStorage_Arguments(t *testing.T) {
	cfg := &Config{StoreEnabled: true, RelationalBackend: "postgres", MaxSample: 100}

	res, err := HandleRecommendStorage(cfg)(context.Background(), request(map[string]string{
		"path":         "/data/users.json",
		"records_path": ".data.items",
	}))
	require.NoError(t, err)
	text := promptText(t, res)
	assert.Contains(t, text, `storeadvisor_analyze(path: "/data/users.json", records_path: ".data.items")`)
	assert.NotContains(t, text, "retry with `records_path`")
	assert.Contains(t, text, "`postgres` backend")

	res, err = HandleRecommendStorage(&Config{MaxSample: 10})(context.Background(), request(nil))
	require.NoError(t, err)
	text = promptText(t, res)
	assert.Contains(t, text, `path: "<file>"`)
	assert.Contains(t, text, "retry with `records_path`")
	assert.Contains(t, text, "Storage is disabled")
}

func TestHandleInvestigateFailures_Limit(t *testing.T) {
	tests := []struct {
		name string
		args map[string]string
		want string
	}{
		{"default", nil, "storeadvisor_history(limit: 20)"},
		{"explicit", map[string]string{"limit": "5"}, "storeadvisor_history(limit: 5)"},
		{"invalid", map[string]string{"limit": "many"}, "storeadvisor_history(limit: 20)"},
		{"negative", map[string]string{"limit": "-3"}, "storeadvisor_history(limit: 20)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := HandleInvestigateFailures(&Config{})(context.Background(), request(tt.args))
			require.NoError(t, err)
			text := promptText(t, res)
			assert.Contains(t, text, tt.want)
			assert.NotContains(t, text, "SCHEMA_DRIFT")
		})
	}
}
