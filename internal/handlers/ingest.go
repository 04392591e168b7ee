package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/ingest"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
)

type ingestResponse struct {
	ingest.Result
	DryRun bool `json:"dryRun,omitempty"`
}

// IngestScraped takes one scraper payload, or an array of matches that
// replaces the whole scraped collection when the caller is an admin.
// ?dry=1 reconciles without saving.
func (h *APIHandlers) IngestScraped(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	if isJSONArray(body) {
		if h.bulkReplace == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		h.bulkReplace(w, r)
		return
	}

	var p ingest.ScrapePayload
	if err := json.Unmarshal(body, &p); err != nil {
		badRequest(w, "Invalid JSON body: "+err.Error())
		return
	}
	dry, _ := strconv.ParseBool(r.URL.Query().Get("dry"))

	res, err := h.svc.IngestScrape(r.Context(), p, dry)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if res.Operation == ingest.OperationCreated && !dry {
		status = http.StatusCreated
	}
	writeJSON(w, status, ingestResponse{Result: res, DryRun: dry})
}

// ReplaceScraped overwrites the scraped collection with a JSON array
func (h *APIHandlers) ReplaceScraped(w http.ResponseWriter, r *http.Request) {
	var ms []models.Match
	if !decode(w, r, &ms) {
		return
	}
	n, err := h.svc.ReplaceScraped(r.Context(), ms)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": n})
}

// ListScraped returns the scraped collection as stored
func (h *APIHandlers) ListScraped(w http.ResponseWriter, r *http.Request) {
	ms, err := h.svc.ScrapedMatches(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

// TriggerScraping is called by the external cron with the shared secret
func (h *APIHandlers) TriggerScraping(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.TriggerScraping(r.Context(), "cron")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
