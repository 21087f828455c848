// Package ingest runs uploads through the full pipeline: decode, select the
// records, analyze (cached), validate, persist and log.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/usestring/storeadvisor/internal/cache"
	"github.com/usestring/storeadvisor/internal/config"
	"github.com/usestring/storeadvisor/internal/eventlog"
	"github.com/usestring/storeadvisor/internal/selector"
	"github.com/usestring/storeadvisor/internal/store"
	"github.com/usestring/storeadvisor/internal/validate"
	"github.com/usestring/storeadvisor/pkg/analyzer"
	"github.com/usestring/storeadvisor/pkg/contenttype"
	"github.com/usestring/storeadvisor/pkg/docprofile"
)

// Upload is one JSON document to process.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
	// RecordsPath overrides the configured records path when non-empty.
	RecordsPath string
	// AnalyzeOnly skips persistence even when stores are configured.
	AnalyzeOnly bool
}

// Report is the outcome of processing one upload.
type Report struct {
	EventID     string              `json:"event_id,omitempty" yaml:"event_id,omitempty"`
	Filename    string              `json:"filename" yaml:"filename"`
	Status      string              `json:"status" yaml:"status"`
	Result      *analyzer.Result    `json:"analysis" yaml:"analysis"`
	Records     int                 `json:"records" yaml:"records"`
	Validation  *validate.Report    `json:"validation,omitempty" yaml:"validation,omitempty"`
	Profile     *docprofile.Profile `json:"profile,omitempty" yaml:"profile,omitempty"`
	Stored      int64               `json:"stored" yaml:"stored"`
	StoreResult string              `json:"store_result,omitempty" yaml:"store_result,omitempty"`
	Cached      bool                `json:"cached" yaml:"cached"`
	Duration    time.Duration       `json:"duration_ns" yaml:"duration"`
}

// Outcome pairs an upload of a batch with its report or error.
type Outcome struct {
	Filename string  `json:"filename"`
	Report   *Report `json:"report,omitempty"`
	Err      error   `json:"-"`
	Error    string  `json:"error,omitempty"`
}

// Deps are the collaborators of a Service. Every field is optional: without
// a cache results are recomputed, without writers nothing is persisted and
// without an event log nothing is recorded.
type Deps struct {
	Cache      *cache.AnalysisCache
	Events     *eventlog.Log
	Relational store.RelationalWriter
	Document   store.DocumentWriter
}

// Service processes uploads.
type Service struct {
	cfg   *config.Config
	deps  Deps
	group singleflight.Group
}

// New returns a Service over deps.
func New(cfg *config.Config, deps Deps) *Service {
	return &Service{cfg: cfg, deps: deps}
}

// Open builds a Service and its collaborators from cfg. The returned cleanup
// closes whatever was opened.
func Open(ctx context.Context, cfg *config.Config) (*Service, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var deps Deps

	if cfg.AnalysisCacheMaxItems > 0 {
		c, err := cache.NewAnalysisCache(cfg.AnalysisCacheMaxItems)
		if err != nil {
			return nil, func() {}, fmt.Errorf("create analysis cache: %w", err)
		}
		deps.Cache = c
	}

	events, err := eventlog.Open(cfg.EventDBPath)
	if err != nil {
		return nil, func() {}, err
	}
	closers = append(closers, func() { _ = events.Close() })
	deps.Events = events

	if cfg.StoreEnabled {
		rel, err := store.OpenRelational(ctx, store.RelationalConfig{
			Kind:  cfg.RelationalBackend,
			DSN:   cfg.RelationalDSN,
			Table: cfg.RelationalTable,
		})
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("open relational store: %w", err)
		}
		closers = append(closers, rel.Close)
		deps.Relational = rel

		doc, err := store.OpenDocument(ctx, store.DocumentConfig{
			Kind:       "mongo",
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDBName,
			Collection: cfg.MongoCollection,
		})
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("open document store: %w", err)
		}
		closers = append(closers, doc.Close)
		deps.Document = doc
	}

	slog.Info("ingest service ready",
		slog.Bool("store_enabled", cfg.StoreEnabled),
		slog.String("relational_backend", cfg.RelationalBackend),
		slog.String("event_db", cfg.EventDBPath),
	)
	return New(cfg, deps), cleanup, nil
}

// Events returns the event log, or nil.
func (s *Service) Events() *eventlog.Log {
	return s.deps.Events
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// Process runs one upload through the pipeline. Failures are recorded in the
// event log and returned.
func (s *Service) Process(ctx context.Context, u Upload) (*Report, error) {
	start := time.Now()
	rep, err := s.process(ctx, u)
	if err != nil {
		s.logError(ctx, u.Filename, err)
		return nil, err
	}
	rep.Duration = time.Since(start)

	slog.Info("upload processed",
		slog.String("filename", u.Filename),
		slog.String("database", string(rep.Result.Database)),
		slog.Int("records", rep.Records),
		slog.Int64("stored", rep.Stored),
		slog.Bool("cached", rep.Cached),
		slog.Duration("duration", rep.Duration),
	)
	return rep, nil
}

func (s *Service) process(ctx context.Context, u Upload) (*Report, error) {
	if len(u.Data) == 0 {
		return nil, ErrEmptyUpload
	}
	if limit := s.cfg.MaxUploadBytes; limit > 0 && int64(len(u.Data)) > limit {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(u.Data), limit)
	}
	if err := contenttype.Accept(u.ContentType, u.Filename, u.Data); err != nil {
		return nil, err
	}

	path := u.RecordsPath
	if path == "" {
		path = s.cfg.RecordsPath
	}

	doc, err := analyzer.Decode(u.Data)
	if err != nil {
		return nil, err
	}
	selected, err := selector.Select(doc, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecordsPath, err)
	}

	res, cached, err := s.analyze(ctx, u.Data, path, selected)
	if err != nil {
		return nil, err
	}

	records, _, err := analyzer.AllRecords(selected)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Filename: u.Filename,
		Status:   eventlog.StatusAnalyzed,
		Result:   res,
		Records:  len(records),
		Cached:   cached,
	}

	persist := !u.AnalyzeOnly && (s.deps.Relational != nil || s.deps.Document != nil)

	if res.Relational() && s.cfg.ValidateAllRecords {
		v, err := validate.ForResult(res)
		if err != nil {
			return nil, fmt.Errorf("build validator: %w", err)
		}
		rep.Validation = v.Check(records)
		if persist && !rep.Validation.OK() {
			return nil, &ValidationError{Report: rep.Validation}
		}
	}

	if !res.Relational() && s.cfg.ProfileMaxDocuments > 0 {
		rep.Profile = docprofile.BuildWithOptions(records, docprofile.Options{
			MaxDocuments:     s.cfg.ProfileMaxDocuments,
			NullableOptional: true,
		})
	}

	if persist {
		if err := s.store(ctx, res, records, rep); err != nil {
			return nil, err
		}
	}

	if s.deps.Events != nil {
		ev, err := s.deps.Events.LogUpload(ctx, eventlog.Upload{
			Filename:   u.Filename,
			Database:   string(res.Database),
			Fields:     res.FieldNames(),
			SampleSize: res.SampleSize,
			Stored:     rep.Stored,
			Persisted:  rep.Status == eventlog.StatusStored,
		})
		if err != nil {
			slog.Warn("failed to log upload event",
				slog.String("filename", u.Filename),
				slog.String("error", err.Error()),
			)
		} else {
			rep.EventID = ev.ID
		}
	}
	return rep, nil
}

// analyze returns the cached result for the content and path, or computes
// it once across concurrent callers.
func (s *Service) analyze(ctx context.Context, data []byte, path string, selected any) (*analyzer.Result, bool, error) {
	key := cache.Key(data, cache.Params{
		RecordsPath:  path,
		MaxSample:    s.cfg.MaxSample,
		FlattenDepth: s.cfg.FlattenDepth,
	})

	if s.deps.Cache != nil {
		if res, ok := s.deps.Cache.Get(key); ok {
			return res, true, nil
		}
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		res, err := analyzer.AnalyzeValue(ctx, selected, s.cfg.AnalyzerOptions()...)
		if err != nil {
			return nil, err
		}
		if s.deps.Cache != nil {
			s.deps.Cache.Put(key, res)
		}
		return res, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*analyzer.Result), false, nil
}

func (s *Service) store(ctx context.Context, res *analyzer.Result, records []any, rep *Report) error {
	if res.Relational() {
		if s.deps.Relational == nil {
			return nil
		}
		n, err := s.deps.Relational.Write(ctx, res, records)
		if err != nil {
			return &StoreError{Backend: s.cfg.RelationalBackend, Err: err}
		}
		rep.Stored = n
		rep.Status = eventlog.StatusStored
		rep.StoreResult = fmt.Sprintf("Stored %d rows in %s table %s", n, s.cfg.RelationalBackend, tableOrDefault(s.cfg.RelationalTable))
		return nil
	}

	if s.deps.Document == nil {
		return nil
	}
	n, err := s.deps.Document.InsertDocuments(ctx, records)
	if err != nil {
		return &StoreError{Backend: "mongo", Err: err}
	}
	rep.Stored = n
	rep.Status = eventlog.StatusStored
	rep.StoreResult = fmt.Sprintf("Stored %d documents in collection %s", n, s.cfg.MongoCollection)
	return nil
}

func (s *Service) logError(ctx context.Context, filename string, cause error) {
	slog.Warn("upload failed",
		slog.String("filename", filename),
		slog.String("error", cause.Error()),
	)
	if s.deps.Events == nil {
		return
	}
	if _, err := s.deps.Events.LogError(context.WithoutCancel(ctx), filename, cause); err != nil {
		slog.Warn("failed to log error event",
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
	}
}

// ProcessBatch processes uploads concurrently, at most INGEST_WORKERS at a
// time. One failing upload does not stop the others; outcomes are returned
// in input order.
func (s *Service) ProcessBatch(ctx context.Context, uploads []Upload) []Outcome {
	outcomes := make([]Outcome, len(uploads))

	workers := s.cfg.IngestWorkers
	if workers <= 0 {
		workers = config.DefaultIngestWorkers
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, u := range uploads {
		g.Go(func() error {
			outcomes[i].Filename = u.Filename
			if err := ctx.Err(); err != nil {
				outcomes[i].Err = err
				outcomes[i].Error = err.Error()
				return nil
			}
			rep, err := s.Process(ctx, u)
			if err != nil {
				outcomes[i].Err = err
				outcomes[i].Error = err.Error()
				return nil
			}
			outcomes[i].Report = rep
			return nil
		})
	}

	_ = g.Wait()
	return outcomes
}

// ProcessFile reads path, bounded by MAX_UPLOAD_BYTES, and processes it.
func (s *Service) ProcessFile(ctx context.Context, path string) (*Report, error) {
	data, err := ReadFile(path, s.cfg.MaxUploadBytes)
	if err != nil {
		s.logError(ctx, filepath.Base(path), err)
		return nil, err
	}
	return s.Process(ctx, Upload{Filename: filepath.Base(path), Data: data})
}

// ReadFile reads at most limit bytes of path and fails with ErrTooLarge when
// the file is bigger. limit <= 0 disables the bound.
func ReadFile(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if limit <= 0 {
		return io.ReadAll(f)
	}
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s is over %d bytes", ErrTooLarge, filepath.Base(path), limit)
	}
	return data, nil
}

func tableOrDefault(t string) string {
	if t == "" {
		return analyzer.DefaultTable
	}
	return t
}
