// Package daemon provides the long-running budget service: it holds the
// current model in memory, serializes reconciliations, watches an inbox
// directory and serves the model over HTTP with an SSE event stream.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/theirongolddev/budgetdash/internal/model"
	"github.com/theirongolddev/budgetdash/internal/pipeline"
	"github.com/theirongolddev/budgetdash/internal/reconcile"
	"github.com/theirongolddev/budgetdash/internal/source"
	"github.com/theirongolddev/budgetdash/internal/store"
)

// Config controls the daemon runtime behavior.
type Config struct {
	DataDir      string
	SeedPath     string
	InboxDir     string // empty disables inbox polling
	DefaultUnit  string
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	Reconciler   *reconcile.Reconciler
	Observer     Observer
}

// Summary is a compact model state for status and event payloads.
type Summary struct {
	At            time.Time `json:"at"`
	FinancialYear string    `json:"financial_year"`
	Units         int       `json:"units"`
	Records       int       `json:"records"`
	Spend         float64   `json:"spend"`
	Actual        float64   `json:"actual"`
	Anticipated   float64   `json:"anticipated"`
	Variance      float64   `json:"variance"`
	Origin        string    `json:"origin"`
	SnapshotID    string    `json:"snapshot_id,omitempty"`
}

// Event is emitted whenever the model changes.
type Event struct {
	ID        int64             `json:"id"`
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Source    string            `json:"source,omitempty"` // inbox, api, upload
	Files     []string          `json:"files,omitempty"`
	Report    *reconcile.Report `json:"report,omitempty"`
	Summary   Summary           `json:"summary"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastScanAt      time.Time `json:"last_scan_at"`
	ScanIntervalSec int       `json:"scan_interval_sec"`
	ScanCount       int64     `json:"scan_count"`
	DataDir         string    `json:"data_dir"`
	InboxDir        string    `json:"inbox_dir,omitempty"`
	Ingested        int64     `json:"ingested"`
	Summary         Summary   `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

type fileStamp struct {
	size    int64
	modTime time.Time
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg   Config
	store *store.Store
	obs   Observer

	// applyMu serializes reconciliations; mu guards the fields below.
	applyMu sync.Mutex

	mu          sync.RWMutex
	startedAt   time.Time
	lastScanAt  time.Time
	scanCount   int64
	lastError   string
	ingested    int64
	budget      model.Budget
	origin      pipeline.Origin
	snapshotID  string
	summary     Summary
	inboxSeen   map[string]fileStamp
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon service starting from the newest stored snapshot,
// or from the seed when the store is empty. st may be nil to keep the model
// in memory only.
func New(cfg Config, st *store.Store) (*Service, error) {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8731"
	}
	if cfg.Reconciler == nil {
		cfg.Reconciler = reconcile.New()
	}
	obs := cfg.Observer
	if obs == nil {
		obs = NoopObserver{}
	}

	loaded, err := pipeline.LoadBudget(st, cfg.SeedPath)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Service{
		cfg:        cfg,
		store:      st,
		obs:        obs,
		startedAt:  now,
		budget:     loaded.Budget,
		origin:     loaded.Origin,
		snapshotID: loaded.Snapshot.ID,
		summary:    summarize(loaded.Budget, loaded.Origin, loaded.Snapshot.ID, now),
		inboxSeen:  make(map[string]fileStamp),
		subs:       make(map[int]chan Event),
	}, nil
}

// Run starts HTTP endpoints and inbox polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Pick up files that arrived while the daemon was down.
	s.scanOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.scanOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// Budget returns the current model.
func (s *Service) Budget() model.Budget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.budget
}

func (s *Service) scanOnce(ctx context.Context) {
	if s.cfg.InboxDir == "" {
		return
	}
	start := time.Now()

	files, err := source.ScanInbox(s.cfg.InboxDir)
	fresh := s.freshFiles(files)

	var res *pipeline.IngestResult
	if err == nil && len(fresh) > 0 {
		res, err = s.ingest(ctx, "inbox", pipeline.DecodeAll(fresh, nil), pipeline.IngestOptions{
			DefaultUnit: s.cfg.DefaultUnit,
			Origin:      "inbox",
		})
	}

	s.mu.Lock()
	s.lastScanAt = time.Now()
	s.scanCount++
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
		for _, f := range fresh {
			s.inboxSeen[f.Path] = fileStamp{size: f.Size, modTime: f.ModTime}
		}
	}
	s.mu.Unlock()

	fields := map[string]any{"inbox": s.cfg.InboxDir, "files": len(fresh)}
	if res != nil {
		fields["file_errors"] = res.FileErrors
		fields["duplicates"] = res.Duplicates
	}
	s.obs.ObserveOp(ctx, OpEvent{
		Name:      "inbox_scan",
		Duration:  time.Since(start),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
		StartedAt: start,
	})
}

// freshFiles drops inbox files already handled with the same size and
// modification time.
func (s *Service) freshFiles(files []source.DiscoveredFile) []source.DiscoveredFile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []source.DiscoveredFile
	for _, f := range files {
		if seen, ok := s.inboxSeen[f.Path]; ok && seen.size == f.Size && seen.modTime.Equal(f.ModTime) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// ingest applies decoded uploads to the current model. Only one ingest runs
// at a time; readers keep seeing the previous model until it completes.
func (s *Service) ingest(ctx context.Context, origin string, decoded []source.DecodeResult, opts pipeline.IngestOptions) (*pipeline.IngestResult, error) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	start := time.Now()
	if opts.Reconciler == nil {
		opts.Reconciler = s.cfg.Reconciler
	}
	prior := s.Budget()

	res, err := pipeline.Apply(prior, decoded, s.store, opts)
	if err != nil {
		s.obs.ObserveOp(ctx, OpEvent{Name: "reconcile", Duration: time.Since(start), Err: err, StartedAt: start,
			Fields: map[string]any{"source": origin, "files": len(decoded)}})
		return nil, err
	}

	if res.Changed() && !opts.DryRun {
		now := time.Now()
		var names []string
		for _, f := range res.Files {
			if f.Err == nil && !f.Duplicate {
				names = append(names, f.Name)
			}
		}
		report := res.Report

		s.mu.Lock()
		s.budget = res.Budget
		if res.Snapshot != nil {
			s.origin = pipeline.OriginStore
			s.snapshotID = res.Snapshot.ID
		}
		s.summary = summarize(s.budget, s.origin, s.snapshotID, now)
		s.ingested += int64(res.Ingested)
		s.nextEventID++
		ev := Event{
			ID:        s.nextEventID,
			Type:      "reconciled",
			Timestamp: now,
			Source:    origin,
			Files:     names,
			Report:    &report,
			Summary:   s.summary,
		}
		s.mu.Unlock()

		s.publishEvent(ev)
	}

	s.obs.ObserveOp(ctx, OpEvent{
		Name:      "reconcile",
		Duration:  time.Since(start),
		Success:   true,
		StartedAt: start,
		Fields: map[string]any{
			"source":     origin,
			"files":      res.Ingested,
			"rows":       res.Report.Rows,
			"applied":    res.Report.Applied,
			"dropped":    res.Report.Dropped(),
			"duplicates": res.Duplicates,
			"dry_run":    opts.DryRun,
		},
	})
	return res, nil
}

func summarize(b model.Budget, origin pipeline.Origin, snapshotID string, at time.Time) Summary {
	ov := pipeline.BuildOverview(b, pipeline.Filter{})
	sum := Summary{
		At:            at,
		FinancialYear: b.FinancialYear,
		Units:         len(ov.Units),
		Spend:         ov.Spend,
		Actual:        ov.Actual,
		Anticipated:   ov.Anticipated,
		Variance:      ov.Variance,
		Origin:        string(origin),
		SnapshotID:    snapshotID,
	}
	for _, u := range ov.Units {
		sum.Records += u.Records
	}
	return sum
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastScanAt:      s.lastScanAt,
		ScanIntervalSec: int(s.cfg.Interval.Seconds()),
		ScanCount:       s.scanCount,
		DataDir:         s.cfg.DataDir,
		InboxDir:        s.cfg.InboxDir,
		Ingested:        s.ingested,
		Summary:         s.summary,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
