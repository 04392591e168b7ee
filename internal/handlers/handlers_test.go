package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/auth"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/dal"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/logger"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/mocks"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/pubsub"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/service"
)

func init() {
	logger.Init()
}

const cronSecret = "s3cret"

type testAPI struct {
	mux     *http.ServeMux
	svc     *service.Service
	ps      *pubsub.PubSub
	session string
}

func newTestAPI(t *testing.T, store dal.Store, opts service.Options) *testAPI {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC) }
	}
	ps := pubsub.New()
	svc := service.New(store, ps, opts)
	provider := auth.NewMockAuth()

	mux := http.NewServeMux()
	NewAPIHandlers(svc, ps).Register(mux, RouteOptions{
		Auth:           provider,
		CronSecret:     cronSecret,
		Limiter:        NewIPRateLimiter(100, 100),
		AllowedOrigins: []string{"https://scraper.example"},
	})
	return &testAPI{mux: mux, svc: svc, ps: ps, session: provider.Login()}
}

func newEnabledAPI(t *testing.T) *testAPI {
	return newTestAPI(t, dal.NewMemoryStore(), service.Options{IngestionEnabled: true})
}

func (a *testAPI) do(method, path, body string, signedIn bool) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if signedIn {
		req.AddCookie(&http.Cookie{Name: "session_id", Value: a.session})
	}
	w := httptest.NewRecorder()
	a.mux.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

const matchJSON = `{
	"date": "2026-03-14",
	"time": "10:00",
	"status": "Upcoming",
	"tournamentName": "PPA Atlanta Open",
	"drawName": "Men's Doubles",
	"round": "Finals",
	"team1": {"players": [{"name": "Ben Johns"}, {"name": "Collin Johns"}]},
	"team2": {"players": [{"name": "Andrei Daescu"}, {"name": "JW Johnson"}]},
	"setScoresTeam1": [],
	"setScoresTeam2": []
}`

func TestAdminRoutesRequireSession(t *testing.T) {
	a := newEnabledAPI(t)

	w := a.do(http.MethodGet, "/api/matches", "", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodGet, "/api/matches", "", true)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMatchLifecycle(t *testing.T) {
	a := newEnabledAPI(t)

	w := a.do(http.MethodPost, "/api/matches", matchJSON, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody[models.Match](t, w)
	require.NotEmpty(t, created.ID)

	w = a.do(http.MethodGet, "/api/matches/"+created.ID, "", true)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodPatch, "/api/matches/"+created.ID, `{"court": "Stadium"}`, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Stadium", decodeBody[models.Match](t, w).Court)

	w = a.do(http.MethodPost, "/api/matches/"+created.ID+"/duplicate", "", true)
	require.Equal(t, http.StatusCreated, w.Code)
	dup := decodeBody[models.Match](t, w)
	assert.NotEqual(t, created.ID, dup.ID)

	w = a.do(http.MethodPost, "/api/matches/delete", `{"ids": ["`+created.ID+`", "`+dup.ID+`"]}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]int{"deleted": 2}, decodeBody[map[string]int](t, w))

	w = a.do(http.MethodGet, "/api/matches/"+created.ID, "", true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateMatchBulkArray(t *testing.T) {
	a := newEnabledAPI(t)

	w := a.do(http.MethodPost, "/api/matches", "["+matchJSON+","+matchJSON+"]", true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Len(t, decodeBody[[]models.Match](t, w), 2)
}

func TestCreateMatchValidationReasons(t *testing.T) {
	a := newEnabledAPI(t)

	w := a.do(http.MethodPost, "/api/matches", `{"date": "03/14/2026", "status": "Upcoming"}`, true)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody[map[string]any](t, w)
	assert.Contains(t, body["reasons"], "Missing tournament name")

	w = a.do(http.MethodPost, "/api/matches", `{not json`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestKillSwitchReturns503(t *testing.T) {
	a := newTestAPI(t, dal.NewMemoryStore(), service.Options{IngestionEnabled: false})

	w := a.do(http.MethodPost, "/api/matches", matchJSON, true)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// Reads keep working.
	w = a.do(http.MethodGet, "/api/matches", "", true)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestScheduleIsPublicAndHidesPending(t *testing.T) {
	a := newEnabledAPI(t)
	ctx := context.Background()

	w := a.do(http.MethodPost, "/api/matches", matchJSON, true)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeBody[models.Match](t, w).ID

	target, err := a.svc.CreateTarget(ctx, service.NewTarget{League: "PPA", TournamentName: "PPA Atlanta Open", URL: "https://ppa.example/atl", TournamentMode: true})
	require.NoError(t, err)
	w = a.do(http.MethodPost, "/api/matches/scraped", scrapeJSON(target.ID), false)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	pending := decodeBody[ingestResponse](t, w).Match.ID

	w = a.do(http.MethodGet, "/api/schedule?date=2026-03-14", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeBody[service.ScheduleView](t, w)
	assert.Equal(t, "2026-03-14", view.Date)
	assert.Equal(t, []string{"2026-03-14"}, view.Dates)
	assert.Contains(t, w.Body.String(), id)
	assert.NotContains(t, w.Body.String(), pending)
}

func TestScheduleDegradesToEmpty(t *testing.T) {
	a := newTestAPI(t, mocks.FailingStore{}, service.Options{IngestionEnabled: true})

	w := a.do(http.MethodGet, "/api/schedule?date=2026-03-14", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeBody[service.ScheduleView](t, w)
	assert.Equal(t, "2026-03-14", view.Date)
	assert.Empty(t, view.Dates)

	w = a.do(http.MethodGet, "/api/dates", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"dates": []}`, w.Body.String())
}

func createTarget(t *testing.T, a *testAPI, autoApproval bool) models.ScrapeTarget {
	t.Helper()
	body := `{"league": "PPA", "tournamentName": "PPA Atlanta Open", "url": "https://ppa.example/atl", "tournamentMode": true, "autoApproval": ` +
		strconv.FormatBool(autoApproval) + `}`
	w := a.do(http.MethodPost, "/api/scrape-targets", body, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody[models.ScrapeTarget](t, w)
}

func scrapeJSON(targetID string) string {
	return `{
		"scrapeTargetId": "` + targetID + `",
		"tournamentName": "PPA Atlanta Open",
		"date": "2026-03-14",
		"status": "Completed",
		"team1": {"players": [{"name": "Ben Johns"}]},
		"team2": {"players": [{"name": "JW Johnson"}]},
		"setScoresTeam1": [11, 11],
		"setScoresTeam2": [5, 7],
		"externalRefId": "ppa-1"
	}`
}

func TestScrapeIngestThenReview(t *testing.T) {
	a := newEnabledAPI(t)
	target := createTarget(t, a, false)

	w := a.do(http.MethodPost, "/api/matches/scraped", scrapeJSON(target.ID), false)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	res := decodeBody[ingestResponse](t, w)
	assert.Equal(t, models.StatusPendingApproval, res.Match.Status)
	assert.False(t, res.AutoApproved)

	// Same externalRefId updates in place.
	w = a.do(http.MethodPost, "/api/matches/scraped", scrapeJSON(target.ID), false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, res.Match.ID, decodeBody[ingestResponse](t, w).Match.ID)

	w = a.do(http.MethodGet, "/api/review", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decodeBody[[]models.Match](t, w), 1)

	w = a.do(http.MethodPost, "/api/review/"+res.Match.ID+"/approve", "", true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusCompleted, decodeBody[models.Match](t, w).Status)

	w = a.do(http.MethodPost, "/api/review/"+res.Match.ID+"/reject", "", true)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestScrapeDryRunSavesNothing(t *testing.T) {
	a := newEnabledAPI(t)
	target := createTarget(t, a, true)

	w := a.do(http.MethodPost, "/api/matches/scraped?dry=1", scrapeJSON(target.ID), false)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decodeBody[ingestResponse](t, w)
	assert.True(t, res.DryRun)
	assert.True(t, res.AutoApproved)

	w = a.do(http.MethodGet, "/api/matches/scraped", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody[[]models.Match](t, w))
}

func TestScrapeUnknownTargetAndBulkReplace(t *testing.T) {
	a := newEnabledAPI(t)

	w := a.do(http.MethodPost, "/api/matches/scraped", scrapeJSON("target_missing"), false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodPost, "/api/matches/scraped", "["+matchJSON+"]", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = a.do(http.MethodGet, "/api/matches/scraped", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody[[]models.Match](t, w))

	w = a.do(http.MethodPost, "/api/matches/scraped", "["+matchJSON+"]", true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, decodeBody[map[string]any](t, w)["count"])

	w = a.do(http.MethodPut, "/api/matches/scraped", "[]", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = a.do(http.MethodPut, "/api/matches/scraped", "[]", true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 0, decodeBody[map[string]any](t, w)["count"])
}

const completedJSON = `{
	"date": "2026-03-14",
	"time": "09:00",
	"status": "Completed",
	"tournamentName": "PPA Atlanta Open",
	"drawName": "Mixed Doubles",
	"round": "Quarterfinals",
	"team1": {"players": [{"name": "Anna Leigh Waters"}, {"name": "Ben Johns"}]},
	"team2": {"players": [{"name": "Anna Bright"}, {"name": "Hayden Patriquin"}]},
	"setScoresTeam1": [11, 11],
	"setScoresTeam2": [5, 7]
}`

func TestViewsDeriveWinnerFromScores(t *testing.T) {
	a := newEnabledAPI(t)
	w := a.do(http.MethodPost, "/api/matches", completedJSON, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody[models.Match](t, w)
	require.False(t, created.Team1.IsWinner)

	w = a.do(http.MethodGet, "/api/matches", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeBody[[]models.Match](t, w)
	require.Len(t, list, 1)
	assert.True(t, list[0].Team1.IsWinner)
	assert.False(t, list[0].Team2.IsWinner)

	w = a.do(http.MethodGet, "/api/schedule?date=2026-03-14", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"isWinner":true`)

	w = a.do(http.MethodGet, "/api/matches/by-date/2026-03-14", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	day := decodeBody[[]models.Match](t, w)
	require.Len(t, day, 1)
	assert.True(t, day[0].Team1.IsWinner)

	// The stored record keeps its flags.
	stored, err := a.svc.GetMatch(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, stored.Team1.IsWinner)
}

func TestTournamentNames(t *testing.T) {
	a := newEnabledAPI(t)
	for _, body := range []string{matchJSON, completedJSON} {
		w := a.do(http.MethodPost, "/api/matches", body, true)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := a.do(http.MethodGet, "/api/tournaments/names", "", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodGet, "/api/tournaments/names", "", true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"names": ["PPA Atlanta Open"], "counts": {"PPA Atlanta Open": 2}}`, w.Body.String())
}

func TestIngestRateLimitAndCORS(t *testing.T) {
	ps := pubsub.New()
	svc := service.New(dal.NewMemoryStore(), ps, service.Options{IngestionEnabled: true})
	mux := http.NewServeMux()
	NewAPIHandlers(svc, ps).Register(mux, RouteOptions{
		Auth:           auth.NewMockAuth(),
		Limiter:        NewIPRateLimiter(0.001, 2),
		AllowedOrigins: []string{"https://scraper.example"},
	})

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/matches/scraped", strings.NewReader(`{}`))
		req.Header.Set("Origin", "https://scraper.example")
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		codes = append(codes, w.Code)
		assert.Equal(t, "https://scraper.example", w.Header().Get("Access-Control-Allow-Origin"))
	}
	assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, codes)
}

func TestCronTriggerNeedsSecret(t *testing.T) {
	a := newEnabledAPI(t)

	w := a.do(http.MethodPost, "/api/cron/trigger-scraping", "", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/cron/trigger-scraping", nil)
	req.Header.Set("Authorization", "Bearer "+cronSecret)
	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decodeBody[service.TriggerResult](t, rec)
	assert.False(t, res.Triggered)
	assert.Equal(t, 0, res.Targets)
}

func TestImportPreviewAndCommit(t *testing.T) {
	a := newEnabledAPI(t)
	csv := "date,time,tournamentName,drawName,round,team1player1,team1player2,team2player1,team2player2,status,scores,winner,court\n" +
		"2026-03-14,09:00,PPA Atlanta Open,Mixed Doubles,Quarterfinals,Anna Leigh Waters,Ben Johns,Anna Bright,Hayden Patriquin,Completed,\"11-7, 11-9\",team1,1\n"
	body, err := json.Marshal(map[string]string{"fileName": "atl.csv", "text": csv})
	require.NoError(t, err)

	w := a.do(http.MethodPost, "/api/import/preview", string(body), true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	preview := decodeBody[service.ImportPreview](t, w)
	assert.Equal(t, 1, preview.Counts.Valid)

	w = a.do(http.MethodPost, "/api/import/commit", string(body), true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/api/import/preview", string(body), true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeBody[service.ImportPreview](t, w).Counts.Duplicate)
}

func TestTournamentRoutes(t *testing.T) {
	a := newEnabledAPI(t)

	w := a.do(http.MethodPost, "/api/tournaments", `{"name": "MLP Columbus", "startDate": "2026-03-14", "endDate": "2026-03-16"}`, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	tour := decodeBody[models.Tournament](t, w)
	assert.Equal(t, "MLP", tour.League)

	w = a.do(http.MethodPost, "/api/tournaments", `{"name": "MLP Columbus", "startDate": "2026-03-16", "endDate": "2026-03-14"}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodGet, "/api/tournaments/hybrid?league=MLP", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]models.HybridTournament](t, w), 1)

	w = a.do(http.MethodDelete, "/api/tournaments/by-name", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodDelete, "/api/tournaments/"+tour.ID, "", true)
	require.Equal(t, http.StatusOK, w.Code)
	res := decodeBody[service.DeleteResult](t, w)
	assert.Equal(t, 0, res.MatchesDeleted)
}

func TestTargetRoutes(t *testing.T) {
	a := newEnabledAPI(t)
	target := createTarget(t, a, false)

	w := a.do(http.MethodPost, "/api/scrape-targets", `{"league": "PPA", "tournamentName": "Dup", "url": "https://ppa.example/atl"}`, true)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(http.MethodPatch, "/api/scrape-targets/"+target.ID, `{"isActive": false}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeBody[models.ScrapeTarget](t, w).IsActive)

	w = a.do(http.MethodGet, "/api/scrape-targets?isActive=true", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeBody[service.TargetList](t, w)
	assert.Equal(t, 0, list.Count)
	assert.Equal(t, 1, list.Summary.Total)

	w = a.do(http.MethodDelete, "/api/scrape-targets/"+target.ID, "", true)
	assert.Equal(t, http.StatusOK, w.Code)
	w = a.do(http.MethodDelete, "/api/scrape-targets/"+target.ID, "", true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScraperHealthRoutes(t *testing.T) {
	a := newEnabledAPI(t)

	w := a.do(http.MethodPost, "/api/scraper/health", `{"status": "completed", "workflow": "ppa-live"}`, false)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/api/scraper/health", `{"status": "completed"}`, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodGet, "/api/scraper/health?workflow=ppa-live", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	report := decodeBody[service.HealthReport](t, w)
	assert.Len(t, report.Logs, 1)
}

func TestHealthProbes(t *testing.T) {
	a := newEnabledAPI(t)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/health", "", false).Code)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/healthz", "", false).Code)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/readyz", "", false).Code)

	down := newTestAPI(t, mocks.FailingStore{}, service.Options{})
	assert.Equal(t, http.StatusServiceUnavailable, down.do(http.MethodGet, "/api/health", "", false).Code)
	assert.Equal(t, http.StatusOK, down.do(http.MethodGet, "/healthz", "", false).Code)
	assert.Equal(t, http.StatusServiceUnavailable, down.do(http.MethodGet, "/readyz", "", false).Code)
}

func readData(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			return strings.TrimSpace(data)
		}
	}
}

func TestEventsSSEStreamsMutations(t *testing.T) {
	a := newEnabledAPI(t)
	srv := httptest.NewServer(a.mux)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	assert.Equal(t, `{"type":"connected"}`, readData(t, r))

	var m models.Match
	require.NoError(t, json.Unmarshal([]byte(matchJSON), &m))
	created, err := a.svc.Create(context.Background(), m)
	require.NoError(t, err)

	var event pubsub.Event
	require.NoError(t, json.Unmarshal([]byte(readData(t, r)), &event))
	assert.Equal(t, pubsub.MatchCreated, event.Type)
	assert.Equal(t, created.ID, event.Payload["id"])
}

func TestEventsSSEReplaysSince(t *testing.T) {
	ps := pubsub.New()
	history := pubsub.NewMemoryBus(10)
	history.Publish(pubsub.Event{Type: pubsub.MatchDeleted, Timestamp: 100})
	history.Publish(pubsub.Event{Type: pubsub.MatchCreated, Timestamp: 200})

	svc := service.New(dal.NewMemoryStore(), ps, service.Options{})
	mux := http.NewServeMux()
	NewAPIHandlers(svc, ps).WithReplay(history).Register(mux, RouteOptions{Auth: auth.NewMockAuth()})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events?since=150", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	r := bufio.NewReader(resp.Body)
	readData(t, r) // connected
	var event pubsub.Event
	require.NoError(t, json.Unmarshal([]byte(readData(t, r)), &event))
	assert.Equal(t, pubsub.MatchCreated, event.Type)
	assert.EqualValues(t, 200, event.Timestamp)
}

func TestIngestCountsFromAuditSink(t *testing.T) {
	a := newEnabledAPI(t)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/scraper/ingest-counts", "", true).Code)

	sink := mocks.NewMockAuditSink()
	require.NoError(t, sink.RecordIngest(context.Background(), models.IngestEvent{TargetID: "target_1", At: time.Now()}))
	require.NoError(t, sink.RecordIngest(context.Background(), models.IngestEvent{TargetID: "target_1", At: time.Now().Add(-48 * time.Hour)}))

	ps := pubsub.New()
	svc := service.New(dal.NewMemoryStore(), ps, service.Options{})
	provider := auth.NewMockAuth()
	mux := http.NewServeMux()
	NewAPIHandlers(svc, ps).WithIngestStats(sink).Register(mux, RouteOptions{Auth: provider})

	req := httptest.NewRequest(http.MethodGet, "/api/scraper/ingest-counts?hours=24", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: provider.Login()})
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Hours  int               `json:"hours"`
		Counts map[string]uint64 `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]uint64{"target_1": 1}, body.Counts)
}
