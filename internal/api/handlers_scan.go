package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/lsearchy/internal/config"
	"github.com/dgallion1/lsearchy/internal/pipeline"
	"github.com/dgallion1/lsearchy/internal/report"
)

const maxRequestBytes = 1 << 20

var errOutsideRoot = errors.New("root escapes the serve root")

type scanRequest struct {
	Root    string `json:"root"`
	Query   string `json:"query"`
	Mode    string `json:"mode"`
	Workers int    `json:"workers"`
}

var reportContentTypes = map[string]string{
	".csv":    "text/csv; charset=utf-8",
	".json":   "application/json",
	".xlsx":   "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".docx":   "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".html":   "text/html; charset=utf-8",
	".sqlite": "application/vnd.sqlite3",
	".db":     "application/vnd.sqlite3",
}

func (s *Server) handleCreateScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}

	job, err := s.newJob(req)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(acceptedBody(job))
}

func (s *Server) handleBatchScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req struct {
		Scans []scanRequest `json:"scans"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Scans) == 0 {
		jsonError(w, "at least one scan is required", http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, 0, len(req.Scans))
	for _, sr := range req.Scans {
		job, err := s.newJob(sr)
		if err != nil {
			results = append(results, map[string]any{"root": sr.Root, "error": err.Error()})
			continue
		}
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{"root": sr.Root, "error": err.Error()})
			continue
		}
		results = append(results, acceptedBody(job))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"scans": results})
}

func (s *Server) handleScanStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "scanID"))
	if job == nil {
		jsonError(w, "scan not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

// handleScanReport renders a completed scan with the report writer chosen by
// the format query parameter (default csv).
func (s *Server) handleScanReport(w http.ResponseWriter, r *http.Request) {
	scanID := chi.URLParam(r, "scanID")
	job := s.orchestrator.GetJob(scanID)
	if job == nil {
		jsonError(w, "scan not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	if snap.Status != pipeline.StatusCompleted || snap.Result == nil {
		jsonError(w, fmt.Sprintf("scan is %s", snap.Status), http.StatusConflict)
		return
	}

	format := strings.TrimPrefix(strings.ToLower(r.URL.Query().Get("format")), ".")
	if format == "" {
		format = "csv"
	}
	filename := "scan-" + scanID + "." + format
	if !report.Supported(filename) {
		jsonError(w, fmt.Sprintf("unsupported report format: %s", format), http.StatusBadRequest)
		return
	}

	tmpDir, err := os.MkdirTemp("", "lsearchy-report-")
	if err != nil {
		jsonError(w, "failed to create report", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, filename)
	if err := report.Save(path, snap.Result.Records); err != nil {
		s.log.Error("report failed", "scan_id", scanID, "format", format, "error", err)
		jsonError(w, "failed to create report", http.StatusInternalServerError)
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		jsonError(w, "failed to read report", http.StatusInternalServerError)
		return
	}

	ct, ok := reportContentTypes[filepath.Ext(filename)]
	if !ok {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Write(data)
}

func (s *Server) newJob(req scanRequest) (*pipeline.Job, error) {
	switch req.Mode {
	case "", config.ModeSequential, config.ModeConcurrent:
	default:
		return nil, fmt.Errorf("unknown mode %q", req.Mode)
	}
	if req.Workers < 0 {
		return nil, fmt.Errorf("workers must not be negative")
	}
	root, err := resolveRoot(s.serveRoot, req.Root)
	if err != nil {
		return nil, err
	}
	return pipeline.NewJob(root, req.Query, req.Mode, req.Workers), nil
}

func acceptedBody(job *pipeline.Job) map[string]any {
	snap := job.Snapshot()
	return map[string]any{
		"scan_id":  snap.ID,
		"status":   snap.Status,
		"poll_url": fmt.Sprintf("/api/scans/%s", snap.ID),
	}
}

// resolveRoot maps a client-supplied root onto the serve root. Absolute and
// relative paths are both taken relative to serveRoot, and ".." cannot climb
// above it.
func resolveRoot(serveRoot, requested string) (string, error) {
	cleaned := filepath.Clean(string(filepath.Separator) + filepath.FromSlash(requested))
	root := filepath.Join(serveRoot, cleaned)
	rel, err := filepath.Rel(serveRoot, root)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errOutsideRoot
	}
	return root, nil
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
