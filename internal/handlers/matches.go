package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/logger"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/service"
)

// GetSchedule returns the public schedule. The page never fails: a store
// error degrades to an empty schedule.
func (h *APIHandlers) GetSchedule(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	view, err := h.svc.Schedule(r.Context(), date)
	if err != nil {
		logger.Error("Failed to build schedule", "error", err, "date", date)
		view = h.svc.EmptySchedule(date)
	}
	writeJSON(w, http.StatusOK, view)
}

// ListDates returns the dates that have public matches. Like the schedule
// it degrades to an empty list when the store is down.
func (h *APIHandlers) ListDates(w http.ResponseWriter, r *http.Request) {
	dates, err := h.svc.Dates(r.Context())
	if err != nil {
		logger.Error("Failed to list schedule dates", "error", err)
		dates = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"dates": dates})
}

// ListMatchesByDate returns one day's matches, live first
func (h *APIHandlers) ListMatchesByDate(w http.ResponseWriter, r *http.Request) {
	ms, err := h.svc.ByDate(r.Context(), r.PathValue("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

// ListTournamentNames returns every tournament name on a match with its
// match count
func (h *APIHandlers) ListTournamentNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.svc.UniqueTournaments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	counts, err := h.svc.MatchCountByTournament(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"names": names, "counts": counts})
}

// ListMatches returns the admin match table
func (h *APIHandlers) ListMatches(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ms, err := h.svc.ListMatches(r.Context(), service.MatchQuery{
		Sort:       q.Get("sort"),
		Dir:        q.Get("dir"),
		Query:      q.Get("q"),
		Status:     q.Get("status"),
		Tournament: q.Get("tournament"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

// GetMatch returns one match from either collection
func (h *APIHandlers) GetMatch(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.GetMatch(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// CreateMatch accepts a single match object or an array for bulk entry.
func (h *APIHandlers) CreateMatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	if isJSONArray(body) {
		var ms []models.Match
		if err := json.Unmarshal(body, &ms); err != nil {
			badRequest(w, "Invalid JSON body: "+err.Error())
			return
		}
		created, err := h.svc.CreateBulk(r.Context(), ms)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
		return
	}

	var m models.Match
	if err := json.Unmarshal(body, &m); err != nil {
		badRequest(w, "Invalid JSON body: "+err.Error())
		return
	}
	created, err := h.svc.Create(r.Context(), m)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateMatch applies a partial JSON patch
func (h *APIHandlers) UpdateMatch(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if !decode(w, r, &patch) {
		return
	}
	m, err := h.svc.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// DeleteMatch removes one match
func (h *APIHandlers) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// DeleteMatches removes every listed id
func (h *APIHandlers) DeleteMatches(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if !decode(w, r, &req) {
		return
	}
	n, err := h.svc.DeleteMany(r.Context(), req.IDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

// DuplicateMatch copies a match under a new id
func (h *APIHandlers) DuplicateMatch(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Duplicate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func isJSONArray(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '['
}
