package handlers

import (
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/logger"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/service"
)

// readUpload accepts either a multipart "file" field or a JSON body of
// {"fileName": ..., "text": ...}.
func readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		file, header, err := r.FormFile("file")
		if err != nil {
			badRequest(w, "Missing file upload")
			return "", nil, false
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			badRequest(w, err.Error())
			return "", nil, false
		}
		return header.Filename, data, true
	}

	var req struct {
		FileName string `json:"fileName"`
		Text     string `json:"text"`
	}
	if !decode(w, r, &req) {
		return "", nil, false
	}
	return req.FileName, []byte(req.Text), true
}

// PreviewImport parses an upload and reports every row without saving
func (h *APIHandlers) PreviewImport(w http.ResponseWriter, r *http.Request) {
	name, data, ok := readUpload(w, r)
	if !ok {
		return
	}
	preview, err := h.svc.PreviewCSV(r.Context(), name, data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// CommitImport saves the valid rows of an upload
func (h *APIHandlers) CommitImport(w http.ResponseWriter, r *http.Request) {
	name, data, ok := readUpload(w, r)
	if !ok {
		return
	}
	preview, err := h.svc.CommitCSV(r.Context(), name, data)
	if err != nil {
		writeError(w, err)
		return
	}
	logger.Info("CSV import committed", "file", name, "valid", preview.Counts.Valid, "duplicate", preview.Counts.Duplicate)
	writeJSON(w, http.StatusCreated, preview)
}

// ListPending returns the review queue
func (h *APIHandlers) ListPending(w http.ResponseWriter, r *http.Request) {
	ms, err := h.svc.ListPending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

// ApproveMatch publishes one pending match
func (h *APIHandlers) ApproveMatch(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Approve(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ApproveMatches publishes a batch of pending matches, all or nothing
func (h *APIHandlers) ApproveMatches(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if !decode(w, r, &req) {
		return
	}
	ms, err := h.svc.ApproveMany(r.Context(), req.IDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"approved": len(ms), "matches": ms})
}

// RejectMatch discards a pending match
func (h *APIHandlers) RejectMatch(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reject(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ListTournaments returns the managed tournament records
func (h *APIHandlers) ListTournaments(w http.ResponseWriter, r *http.Request) {
	ts, err := h.svc.Tournaments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

// ListHybridTournaments merges managed and inferred tournaments
func (h *APIHandlers) ListHybridTournaments(w http.ResponseWriter, r *http.Request) {
	ts, err := h.svc.HybridTournaments(r.Context(), r.URL.Query().Get("league"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

// GetBracket returns one tournament's public matches in bracket order
func (h *APIHandlers) GetBracket(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Bracket(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *APIHandlers) AddTournament(w http.ResponseWriter, r *http.Request) {
	var t models.Tournament
	if !decode(w, r, &t) {
		return
	}
	created, err := h.svc.AddTournament(r.Context(), t)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *APIHandlers) UpdateTournament(w http.ResponseWriter, r *http.Request) {
	var patch models.Tournament
	if !decode(w, r, &patch) {
		return
	}
	t, err := h.svc.UpdateTournament(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DeleteTournament removes a tournament and every match under its name
func (h *APIHandlers) DeleteTournament(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.DeleteTournament(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *APIHandlers) DeleteTournamentByName(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		badRequest(w, "Missing name parameter")
		return
	}
	res, err := h.svc.DeleteTournamentByName(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// UpgradeTournament turns an inferred tournament into a managed record
func (h *APIHandlers) UpgradeTournament(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.UpgradeTournament(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func parseBool(v string) *bool {
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

// ListTargets supports ?league=&tournamentMode=&isActive=&limit=
func (h *APIHandlers) ListTargets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	list, err := h.svc.ListTargets(r.Context(), service.TargetFilter{
		League:         q.Get("league"),
		TournamentMode: parseBool(q.Get("tournamentMode")),
		IsActive:       parseBool(q.Get("isActive")),
		Limit:          limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *APIHandlers) CreateTarget(w http.ResponseWriter, r *http.Request) {
	var req service.NewTarget
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.CreateTarget(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *APIHandlers) UpdateTarget(w http.ResponseWriter, r *http.Request) {
	var patch service.TargetPatch
	if !decode(w, r, &patch) {
		return
	}
	t, err := h.svc.UpdateTarget(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *APIHandlers) DeleteTarget(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.DeleteTarget(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "target": t})
}

// GetScraperHealth returns the health log with ?limit=&workflow=
func (h *APIHandlers) GetScraperHealth(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	report, err := h.svc.HealthLog(r.Context(), limit, r.URL.Query().Get("workflow"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// RecordScraperHealth stores one workflow report and returns the running metrics
func (h *APIHandlers) RecordScraperHealth(w http.ResponseWriter, r *http.Request) {
	var rec models.HealthRecord
	if !decode(w, r, &rec) {
		return
	}
	m, err := h.svc.RecordHealth(r.Context(), rec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "metrics": m})
}

// GetIngestCounts returns audited ingests per target over the last ?hours=
// (default 24).
func (h *APIHandlers) GetIngestCounts(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Ingest audit is not configured"})
		return
	}
	hours, err := strconv.Atoi(r.URL.Query().Get("hours"))
	if err != nil || hours <= 0 {
		hours = 24
	}
	counts, err := h.stats.IngestCounts(r.Context(), time.Now().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hours": hours, "counts": counts})
}
