package daemon

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/budgetdash/internal/model"
	"github.com/theirongolddev/budgetdash/internal/pipeline"
	"github.com/theirongolddev/budgetdash/internal/reconcile"
	"github.com/theirongolddev/budgetdash/internal/source"
)

// UnitDetail is served at /v1/units/{id}.
type UnitDetail struct {
	Summary pipeline.UnitSummary  `json:"summary"`
	Unit    model.UnitBudget      `json:"unit"`
	ByMonth []pipeline.MonthTotal `json:"by_month"`
	Ledger  []pipeline.LedgerRow  `json:"ledger"`
	Spend   []pipeline.SpendLine  `json:"spend"`
}

// ReconcileRequest is the body of POST /v1/reconcile.
type ReconcileRequest struct {
	Name        string             `json:"name,omitempty"`
	Rows        []reconcile.RawRow `json:"rows"`
	DefaultUnit string             `json:"default_unit,omitempty"`
	Force       bool               `json:"force,omitempty"`
	DryRun      bool               `json:"dry_run,omitempty"`
}

// ReconcileResponse reports what a reconcile or upload did.
type ReconcileResponse struct {
	Name       string           `json:"name"`
	Hash       string           `json:"hash"`
	Duplicate  bool             `json:"duplicate"`
	Report     reconcile.Report `json:"report"`
	SnapshotID string           `json:"snapshot_id,omitempty"`
	Summary    Summary          `json:"summary"`
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/model", s.handleModel)
	mux.HandleFunc("GET /v1/units", s.handleUnits)
	mux.HandleFunc("GET /v1/units/{id}", s.handleUnit)
	mux.HandleFunc("GET /v1/units/{id}/export", s.handleExport)
	mux.HandleFunc("GET /v1/overview", s.handleOverview)
	mux.HandleFunc("POST /v1/reconcile", s.handleReconcile)
	mux.HandleFunc("POST /v1/uploads", s.handleUpload)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/stream", s.handleStream)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleModel(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Budget())
}

func (s *Service) handleUnits(w http.ResponseWriter, _ *http.Request) {
	b := s.Budget()
	out := make([]pipeline.UnitSummary, 0, len(b.Units))
	for _, id := range b.UnitIDs() {
		out = append(out, pipeline.SummarizeUnit(id, b.Units[id], pipeline.Filter{}))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) handleUnit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	u, ok := s.Budget().Unit(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown unit %q", id))
		return
	}
	writeJSON(w, http.StatusOK, UnitDetail{
		Summary: pipeline.SummarizeUnit(id, u, pipeline.Filter{}),
		Unit:    u,
		ByMonth: pipeline.ByMonth(u),
		Ledger:  pipeline.Ledger(u),
		Spend:   pipeline.SpendBreakdown(u),
	})
}

func (s *Service) handleExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	u, ok := s.Budget().Unit(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown unit %q", id))
		return
	}

	format := source.Format(strings.ToLower(r.URL.Query().Get("format")))
	if format == "" {
		format = source.FormatXLSX
	}
	var contentType string
	switch format {
	case source.FormatXLSX:
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case source.FormatCSV:
		contentType = "text/csv; charset=utf-8"
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported export format %q", format))
		return
	}

	var buf bytes.Buffer
	if err := source.WriteMonthly(&buf, u, format); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", source.MonthlyExportName(u.TeamName, format)))
	_, _ = w.Write(buf.Bytes())
}

func (s *Service) handleOverview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := pipeline.ParseFilter(q.Get("group"), q["spend_type"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pipeline.BuildOverview(s.Budget(), f))
}

func (s *Service) handleReconcile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, source.MaxUploadBytes)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var req ReconcileRequest
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if len(req.Rows) == 0 {
		writeError(w, http.StatusBadRequest, "rows must not be empty")
		return
	}
	name := req.Name
	if name == "" {
		name = "api"
	}

	up, err := source.DecodeRows(name, req.Rows)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	unit := req.DefaultUnit
	if unit == "" {
		unit = s.cfg.DefaultUnit
	}
	s.apply(w, r, "api", up, pipeline.IngestOptions{
		DefaultUnit: unit,
		Force:       req.Force,
		DryRun:      req.DryRun,
		Origin:      "api",
	})
}

func (s *Service) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, source.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	unit := r.FormValue("unit")
	if unit != "" && !s.Budget().HasUnit(unit) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown unit %q", unit))
		return
	}
	if unit == "" {
		unit = s.cfg.DefaultUnit
	}
	force, _ := strconv.ParseBool(r.FormValue("force"))

	up, err := source.Decode(hdr.Filename, file)
	switch {
	case errors.Is(err, source.ErrUnsupportedFormat):
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	case errors.Is(err, source.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.apply(w, r, "upload", up, pipeline.IngestOptions{
		DefaultUnit: unit,
		Force:       force,
		Origin:      "api",
	})
}

func (s *Service) apply(w http.ResponseWriter, r *http.Request, origin string, up source.Upload, opts pipeline.IngestOptions) {
	res, err := s.ingest(r.Context(), origin, []source.DecodeResult{{Upload: up}}, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := ReconcileResponse{
		Name:      up.Name,
		Hash:      up.Hash,
		Duplicate: res.Duplicates > 0,
		Report:    res.Report,
	}
	if res.Snapshot != nil {
		resp.SnapshotID = res.Snapshot.ID
	}
	if opts.DryRun {
		resp.Summary = summarize(res.Budget, "dry-run", "", time.Now())
	} else {
		resp.Summary = s.snapshotStatus().Summary
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current state immediately.
	current := Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Summary:   s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}
