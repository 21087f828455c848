package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/usestring/storeadvisor/internal/config"
	"github.com/usestring/storeadvisor/internal/ingest"
)

// maxMemory is how much of a multipart form is kept in memory before parts
// spill to temporary files.
const maxMemory = 32 << 20

// APIResponse is the standard response envelope.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *APIMeta  `json:"meta,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if limit := s.svc.Config().MaxUploadBytes; limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		respondErr(w, r, bodyError(err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		respondErr(w, r, ingest.ErrInvalidInput("no JSON file uploaded: expected multipart field \"file\""))
		return
	}

	recordsPath := r.URL.Query().Get("records_path")
	uploads := make([]ingest.Upload, 0, len(files))
	for _, fh := range files {
		data, err := readPart(fh)
		if err != nil {
			respondErr(w, r, bodyError(err))
			return
		}
		uploads = append(uploads, ingest.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
			RecordsPath: recordsPath,
		})
	}

	if len(uploads) == 1 {
		rep, err := s.svc.Process(r.Context(), uploads[0])
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respond(w, r, http.StatusOK, rep, 0)
		return
	}

	outcomes := s.svc.ProcessBatch(r.Context(), uploads)
	respond(w, r, http.StatusOK, outcomes, len(outcomes))
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if limit := s.svc.Config().MaxUploadBytes; limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		respondErr(w, r, bodyError(err))
		return
	}

	q := r.URL.Query()
	filename := q.Get("filename")
	if filename == "" {
		filename = "request-body"
	}

	rep, err := s.svc.Process(r.Context(), ingest.Upload{
		Filename:    filename,
		ContentType: r.Header.Get("Content-Type"),
		Data:        data,
		RecordsPath: q.Get("records_path"),
		AnalyzeOnly: true,
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, rep, 0)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	events := s.svc.Events()
	if events == nil {
		respondError(w, r, http.StatusServiceUnavailable, ingest.ErrCodeInternal, "event log disabled", nil)
		return
	}

	limit := config.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondErr(w, r, ingest.ErrInvalidInput("limit must be a positive integer"))
			return
		}
		limit = min(n, config.MaxHistoryLimit)
	}

	list, err := events.History(r.Context(), limit)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, list, len(list))
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	events := s.svc.Events()
	if events == nil {
		respondError(w, r, http.StatusServiceUnavailable, ingest.ErrCodeInternal, "event log disabled", nil)
		return
	}

	ev, err := events.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, ev, 0)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	events := s.svc.Events()
	if events == nil {
		respondError(w, r, http.StatusServiceUnavailable, ingest.ErrCodeInternal, "event log disabled", nil)
		return
	}

	a, err := events.Analytics(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, a, 0)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, map[string]string{"status": "ok"}, 0)
}

// bodyError turns request body failures into coded errors.
func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &ingest.CodedError{
			Code:    ingest.ErrCodeTooLarge,
			Message: "request body exceeds " + strconv.FormatInt(tooLarge.Limit, 10) + " bytes",
			Cause:   err,
		}
	}
	// multipart parsing does not always wrap the limit error
	if strings.Contains(err.Error(), "request body too large") {
		return &ingest.CodedError{Code: ingest.ErrCodeTooLarge, Message: "request body too large", Cause: err}
	}
	return &ingest.CodedError{Code: ingest.ErrCodeInvalidInput, Message: err.Error(), Cause: err}
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code string) int {
	switch code {
	case ingest.ErrCodeInvalidInput, ingest.ErrCodeParseError:
		return http.StatusBadRequest
	case ingest.ErrCodeNotFound:
		return http.StatusNotFound
	case ingest.ErrCodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case ingest.ErrCodeUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	case ingest.ErrCodeUnsupportedStructure, ingest.ErrCodeSchemaDrift:
		return http.StatusUnprocessableEntity
	case ingest.ErrCodeStoreError:
		return http.StatusBadGateway
	case ingest.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	coded := ingest.Wrap(err)

	var details any
	var drift *ingest.ValidationError
	if errors.As(err, &drift) {
		details = drift.Report
	}

	status := StatusFor(coded.Code)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			slog.String("request_id", RequestID(r.Context())),
			slog.String("code", coded.Code),
			slog.String("error", err.Error()),
		)
	}
	respondError(w, r, status, coded.Code, coded.Message, details)
}

func respond(w http.ResponseWriter, r *http.Request, status int, data any, total int) {
	writeJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta(r, total),
	})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message, Details: details},
		Meta:    meta(r, 0),
	})
}

func meta(r *http.Request, total int) *APIMeta {
	return &APIMeta{
		Total:     total,
		RequestID: RequestID(r.Context()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("failed to write response", slog.String("error", err.Error()))
	}
}
