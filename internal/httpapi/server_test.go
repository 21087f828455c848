package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/storeadvisor/internal/config"
	"github.com/usestring/storeadvisor/internal/eventlog"
	"github.com/usestring/storeadvisor/internal/ingest"
	"github.com/usestring/storeadvisor/internal/store"
)

const flatUpload = `[{"id": 1, "name": "Ana"}, {"id": 2, "name": "Bo"}]`

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	Meta struct {
		Total     int    `json:"total"`
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

type testServer struct {
	handler http.Handler
	rel     *store.MemoryRelational
	events  *eventlog.Log
}

func newTestServer(t *testing.T, maxUpload int64) *testServer {
	t.Helper()
	events, err := eventlog.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = events.Close() })

	cfg := &config.Config{
		MaxSample:          100,
		FlattenDepth:       2,
		MaxUploadBytes:     maxUpload,
		ValidateAllRecords: true,
		RelationalBackend:  "memory",
		RelationalTable:    "uploads",
		MongoCollection:    "documents",
		IngestWorkers:      2,
	}
	rel := store.NewMemoryRelational(cfg.RelationalTable)
	svc := ingest.New(cfg, ingest.Deps{
		Events:     events,
		Relational: rel,
		Document:   store.NewMemoryDocument(),
	})
	return &testServer{handler: New(svc).Handler(), rel: rel, events: events}
}

func (ts *testServer) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func multipartRequest(t *testing.T, target string, files map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadJSON(t *testing.T) {
	ts := newTestServer(t, 1<<20)

	rec, env := ts.do(t, multipartRequest(t, "/upload/json", map[string]string{"people.json": flatUpload}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, env.Success)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, rec.Header().Get("X-Request-ID"), env.Meta.RequestID)

	var rep struct {
		Filename string `json:"filename"`
		Status   string `json:"status"`
		Stored   int64  `json:"stored"`
		Analysis struct {
			Database       string `json:"database"`
			CreateTableSQL string `json:"createTableSQL"`
		} `json:"analysis"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rep))
	assert.Equal(t, "people.json", rep.Filename)
	assert.Equal(t, eventlog.StatusStored, rep.Status)
	assert.Equal(t, int64(2), rep.Stored)
	assert.Equal(t, "relational", rep.Analysis.Database)
	assert.Contains(t, rep.Analysis.CreateTableSQL, "CREATE TABLE")
	assert.Len(t, ts.rel.Rows, 2)
}

func TestUploadJSON_Batch(t *testing.T) {
	ts := newTestServer(t, 1<<20)

	rec, env := ts.do(t, multipartRequest(t, "/upload/json", map[string]string{
		"a.json": flatUpload,
		"b.json": `{"broken"`,
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, env.Meta.Total)

	var outcomes []struct {
		Filename string          `json:"filename"`
		Report   json.RawMessage `json:"report"`
		Error    string          `json:"error"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &outcomes))
	require.Len(t, outcomes, 2)

	failed := 0
	for _, o := range outcomes {
		if o.Error != "" {
			failed++
			assert.Equal(t, "b.json", o.Filename)
		}
	}
	assert.Equal(t, 1, failed)
}

func TestUploadJSON_Errors(t *testing.T) {
	tests := []struct {
		name   string
		files  map[string]string
		status int
		code   string
	}{
		{"no file", map[string]string{}, http.StatusBadRequest, ingest.ErrCodeInvalidInput},
		{"malformed", map[string]string{"bad.json": `[{"a": 1}`}, http.StatusBadRequest, ingest.ErrCodeParseError},
		{"scalar", map[string]string{"n.json": `42`}, http.StatusUnprocessableEntity, ingest.ErrCodeUnsupportedStructure},
		{"media", map[string]string{"cat.png": "not json"}, http.StatusUnsupportedMediaType, ingest.ErrCodeUnsupportedMedia},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, 1<<20)
			rec, env := ts.do(t, multipartRequest(t, "/upload/json", tt.files))
			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestUploadJSON_StoreFailure(t *testing.T) {
	ts := newTestServer(t, 1<<20)
	ts.rel.Err = errors.New("connection refused")

	rec, env := ts.do(t, multipartRequest(t, "/upload/json", map[string]string{"people.json": flatUpload}))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, ingest.ErrCodeStoreError, env.Error.Code)
}

func TestUploadJSON_SchemaDrift(t *testing.T) {
	ts := newTestServer(t, 1<<20)

	var records []string
	for i := 0; i < 100; i++ {
		records = append(records, `{"id": 1}`)
	}
	records = append(records, `{"id": "late"}`)
	data := "[" + strings.Join(records, ",") + "]"

	rec, env := ts.do(t, multipartRequest(t, "/upload/json", map[string]string{"drift.json": data}))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, ingest.ErrCodeSchemaDrift, env.Error.Code)

	var details struct {
		Checked int `json:"checked"`
		Invalid int `json:"invalid"`
	}
	require.NoError(t, json.Unmarshal(env.Error.Details, &details))
	assert.Equal(t, 101, details.Checked)
	assert.Equal(t, 1, details.Invalid)
}

func TestUploadJSON_TooLarge(t *testing.T) {
	ts := newTestServer(t, 16)

	big := "[" + strings.Repeat(`{"a": 1},`, 20_000) + `{"a": 1}]`
	rec, env := ts.do(t, multipartRequest(t, "/upload/json", map[string]string{"big.json": big}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, ingest.ErrCodeTooLarge, env.Error.Code)
}

func TestAnalyze(t *testing.T) {
	ts := newTestServer(t, 1<<20)

	body := `{"data": {"items": ` + flatUpload + `}}`
	req := httptest.NewRequest(http.MethodPost, "/analyze?records_path=.data.items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec, env := ts.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var rep struct {
		Filename string `json:"filename"`
		Status   string `json:"status"`
		Analysis struct {
			Database string `json:"database"`
		} `json:"analysis"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rep))
	assert.Equal(t, "request-body", rep.Filename)
	assert.Equal(t, eventlog.StatusAnalyzed, rep.Status)
	assert.Equal(t, "relational", rep.Analysis.Database)
	assert.Empty(t, ts.rel.Rows)
}

func TestAnalyze_BadRecordsPath(t *testing.T) {
	ts := newTestServer(t, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/analyze?records_path=.nope", strings.NewReader(`{"a": 1}`))
	rec, env := ts.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ingest.ErrCodeInvalidInput, env.Error.Code)
}

func TestHistoryAndAnalytics(t *testing.T) {
	ts := newTestServer(t, 1<<20)
	ctx := context.Background()

	first, err := ts.events.LogUpload(ctx, eventlog.Upload{Filename: "a.json", Database: "relational"})
	require.NoError(t, err)
	_, err = ts.events.LogError(ctx, "b.json", errors.New("bad"))
	require.NoError(t, err)

	rec, env := ts.do(t, httptest.NewRequest(http.MethodGet, "/history?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.Meta.Total)
	var events []eventlog.Event
	require.NoError(t, json.Unmarshal(env.Data, &events))
	require.Len(t, events, 1)
	assert.Equal(t, "b.json", events[0].Filename)

	rec, env = ts.do(t, httptest.NewRequest(http.MethodGet, "/history/"+first.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var ev eventlog.Event
	require.NoError(t, json.Unmarshal(env.Data, &ev))
	assert.Equal(t, "a.json", ev.Filename)

	rec, env = ts.do(t, httptest.NewRequest(http.MethodGet, "/history/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ingest.ErrCodeNotFound, env.Error.Code)

	rec, _ = ts.do(t, httptest.NewRequest(http.MethodGet, "/history?limit=zero", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = ts.do(t, httptest.NewRequest(http.MethodGet, "/analytics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var a eventlog.Analytics
	require.NoError(t, json.Unmarshal(env.Data, &a))
	assert.Equal(t, 2, a.Total)
	assert.Equal(t, 1, a.Errors)
	assert.Equal(t, map[string]int{"relational": 1}, a.ByDatabase)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, 1<<20)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec, env := ts.do(t, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-1", env.Meta.RequestID)
	assert.JSONEq(t, `{"status": "ok"}`, string(env.Data))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(ingest.ErrCodeParseError))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(ingest.ErrCodeUnsupportedStructure))
	assert.Equal(t, http.StatusBadGateway, StatusFor(ingest.ErrCodeStoreError))
	assert.Equal(t, http.StatusInternalServerError, StatusFor("SOMETHING_ELSE"))
}
