package ingest

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/errs"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
)

var fixedNow = time.Date(2025, 3, 1, 15, 4, 5, 0, time.UTC)

func testReconciler() *Reconciler {
	n := 0
	return &Reconciler{
		Now: func() time.Time { return fixedNow },
		NewID: func() string {
			n++
			return "scraped_" + string(rune('0'+n))
		},
	}
}

func targets(autoApproval bool) []models.ScrapeTarget {
	return []models.ScrapeTarget{
		{ID: "other", TournamentMode: true},
		{ID: "t1", League: "PPA", TournamentName: "PPA Atlanta Open", TournamentMode: true, AutoApproval: autoApproval},
		{ID: "off", TournamentMode: false, AutoApproval: true},
	}
}

func payload() ScrapePayload {
	return ScrapePayload{
		ScrapeTargetID: "t1",
		TournamentName: "PPA Atlanta Open",
		Date:           "2025-03-01",
		Status:         models.StatusLive,
		Team1:          &ScrapeTeam{Players: []models.Player{{Name: "Ben Johns"}}},
		Team2:          &ScrapeTeam{Players: []models.Player{{Name: "Hayden Patriquin"}}},
		SetScoresTeam1: []int{11, 4},
		SetScoresTeam2: []int{9, 6},
		ExternalRefID:  "ppa-123",
	}
}

func TestReconcileDefaultsAndGate(t *testing.T) {
	r := testReconciler()
	p := payload()
	p.Team2 = nil
	p.SetScoresTeam1, p.SetScoresTeam2 = nil, nil

	out, err := r.Reconcile(p, targets(false), nil)
	require.NoError(t, err)

	m := out.Result.Match
	assert.Equal(t, OperationCreated, out.Result.Operation)
	assert.Equal(t, models.StatusPendingApproval, m.Status)
	assert.False(t, out.Result.AutoApproved)
	assert.Equal(t, "12:00", m.Time)
	assert.Equal(t, "Main Draw", m.DrawName)
	assert.Equal(t, "Round 1", m.Round)
	assert.Equal(t, []string{"TBD"}, m.Team2.Names())
	assert.Equal(t, []int{}, m.SetScoresTeam1)
	assert.Equal(t, []int{}, m.SetScoresTeam2)
	assert.Equal(t, "medium", out.Result.Confidence)
	assert.Equal(t, "2025-03-01T15:04:05.000Z", m.ScrapedAt)
	assert.Equal(t, "scraped_1", m.ID)

	require.Len(t, out.Matches, 1)
	assert.Equal(t, "2025-03-01T15:04:05.000Z", out.Targets[1].LastScraped)
	assert.Empty(t, out.Targets[0].LastScraped)
}

func TestReconcileGateFollowsAutoApproval(t *testing.T) {
	for _, status := range models.PublicStatuses {
		p := payload()
		p.Status = status
		// Every public status is gated while auto approval is off
		gated, err := testReconciler().Reconcile(p, targets(false), nil)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPendingApproval, gated.Result.Match.Status, "status %s", status)

		approved, err := testReconciler().Reconcile(p, targets(true), nil)
		require.NoError(t, err)
		assert.Equal(t, status, approved.Result.Match.Status)
		assert.True(t, approved.Result.AutoApproved)
	}
}

func TestReconcileUpdatesByExternalRef(t *testing.T) {
	existing := []models.Match{
		{ID: "keep", ExternalRefID: "other-ref", TournamentName: "X"},
		{ID: "scraped_old", ExternalRefID: "ppa-123", TournamentName: "PPA Atlanta Open", Round: "R1"},
	}

	p := payload()
	p.Round = "Semifinals"
	out, err := testReconciler().Reconcile(p, targets(true), existing)
	require.NoError(t, err)

	assert.Equal(t, OperationUpdated, out.Result.Operation)
	assert.Equal(t, "scraped_old", out.Result.Match.ID)
	require.Len(t, out.Matches, 2)
	assert.Equal(t, "keep", out.Matches[0].ID)
	assert.Equal(t, "Semifinals", out.Matches[1].Round)
	// Input collection untouched
	assert.Equal(t, "R1", existing[1].Round)
}

func TestReconcileWithoutExternalRefAlwaysCreates(t *testing.T) {
	p := payload()
	p.ExternalRefID = ""
	existing := []models.Match{{ID: "a"}}

	r := testReconciler()
	first, err := r.Reconcile(p, targets(true), existing)
	require.NoError(t, err)
	second, err := r.Reconcile(p, targets(true), first.Matches)
	require.NoError(t, err)

	assert.Equal(t, OperationCreated, second.Result.Operation)
	assert.Len(t, second.Matches, 3)
}

func TestReconcileErrors(t *testing.T) {
	r := testReconciler()

	missing := payload()
	missing.Date = ""
	_, err := r.Reconcile(missing, targets(true), nil)
	require.True(t, errs.IsValidation(err))
	assert.Equal(t, "Missing required fields: scrapeTargetId, tournamentName, date", err.Error())

	unknown := payload()
	unknown.ScrapeTargetID = "nope"
	_, err = r.Reconcile(unknown, targets(true), nil)
	assert.True(t, errs.IsNotFound(err))

	off := payload()
	off.ScrapeTargetID = "off"
	_, err = r.Reconcile(off, targets(true), nil)
	require.True(t, errs.IsPolicy(err))
	assert.Equal(t, "Tournament mode not enabled for this target", err.Error())

	uneven := payload()
	uneven.SetScoresTeam2 = []int{9}
	_, err = r.Reconcile(uneven, targets(false), nil)
	assert.True(t, errs.IsValidation(err))

	noStatus := payload()
	noStatus.Status = ""
	_, err = r.Reconcile(noStatus, targets(true), nil)
	assert.True(t, errs.IsValidation(err))
	_, err = r.Reconcile(noStatus, targets(false), nil)
	assert.NoError(t, err)
}

func TestScrapePayloadDecodesScraperJSON(t *testing.T) {
	raw := `{"scrapeTargetId":"t1","tournamentName":"T","date":"2025-03-01",
		"team1":{"players":[{"name":"A"},{"name":" "}],"seed":3},
		"externalRefId":"x","confidence":"high"}`
	var p ScrapePayload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	m, err := p.Normalize()
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, m.Team1.Names())
	require.NotNil(t, m.Team1.Seed)
	assert.Equal(t, 3, *m.Team1.Seed)
	assert.Equal(t, "high", m.Confidence)
	assert.Equal(t, KindScrape, p.Kind())
}

func TestCSVRowNormalize(t *testing.T) {
	row := CSVRow{
		"date": "2025-03-01", "time": "14:30", "tournamentname": "PPA Atlanta Open",
		"drawname": "Men's Doubles", "round": "Finals",
		"team1player1": "Ben Johns", "team1player2": "Collin Johns",
		"team2player1": "Andrei Daescu", "team2player2": "",
		"status": "Completed", "winner": "TEAM1", "scores": "11-5, 11-7", "team1seed": "1", "team2seed": "x",
	}

	m, err := row.Normalize()
	require.NoError(t, err)
	assert.True(t, m.Team1.IsWinner)
	assert.False(t, m.Team2.IsWinner)
	assert.Equal(t, []int{11, 11}, m.SetScoresTeam1)
	assert.Equal(t, []int{5, 7}, m.SetScoresTeam2)
	assert.Equal(t, []string{"Ben Johns", "Collin Johns"}, m.Team1.Names())
	assert.Equal(t, []string{"Andrei Daescu"}, m.Team2.Names())
	require.NotNil(t, m.Team1.Seed)
	assert.Nil(t, m.Team2.Seed)
}

func TestCSVRowWinnerIgnoredUnlessCompleted(t *testing.T) {
	row := CSVRow{
		"date": "2025-03-01", "time": "14:30", "tournamentname": "T", "drawname": "D", "round": "R",
		"team1player1": "A", "team2player1": "B", "status": "Forfeit", "winner": "team2",
	}
	m, err := row.Normalize()
	require.NoError(t, err)
	assert.False(t, m.Team2.IsWinner)
}

func TestCSVRowErrors(t *testing.T) {
	_, err := CSVRow{"date": "2025-03-01"}.Normalize()
	require.True(t, errs.IsValidation(err))
	assert.Equal(t, "Missing time, Missing tournament name, Missing draw name, Missing round, Missing team 1 player 1, Missing team 2 player 1, Missing status", err.Error())

	base := CSVRow{
		"date": "2025-03-01", "time": "14:30", "tournamentname": "T", "drawname": "D", "round": "R",
		"team1player1": "A", "team2player1": "B", "status": "Live",
	}

	bad := clone(base)
	bad["date"] = "3/1/2025"
	_, err = bad.Normalize()
	assert.EqualError(t, err, "Date must be in YYYY-MM-DD format")

	bad = clone(base)
	bad["time"] = "2:30"
	_, err = bad.Normalize()
	assert.EqualError(t, err, "Time must be in HH:MM format")

	bad = clone(base)
	bad["status"] = "live"
	_, err = bad.Normalize()
	assert.EqualError(t, err, `Invalid status "live". Must be one of: Live, Upcoming, Completed, Forfeit, Walkover`)
}

func clone(r CSVRow) CSVRow {
	out := CSVRow{}
	for k, v := range r {
		out[k] = v
	}
	return out
}

func TestParseScoresDropsMalformedSets(t *testing.T) {
	s1, s2 := ParseScores("11-5, x-3, 11-, 9-11-2, 12 - 10,")
	assert.Equal(t, []int{11, 12}, s1)
	assert.Equal(t, []int{5, 10}, s2)

	s1, s2 = ParseScores("")
	assert.Equal(t, []int{}, s1)
	assert.Equal(t, []int{}, s2)
}

func TestManualPayloadNormalize(t *testing.T) {
	var p ManualPayload
	raw := `{"id":"ignored","date":"2025-03-01","time":"09:00","status":"Upcoming","tournamentName":"T",
		"playersTeam1":["A",""],"playersTeam2":["B"],"courtNumber":3}`
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	m, err := p.Normalize()
	require.NoError(t, err)
	assert.Empty(t, m.ID)
	assert.Equal(t, []string{"A"}, m.Team1.Names())
	assert.Equal(t, "3", m.Court)
	assert.Equal(t, "Main Draw", m.DrawName)
	assert.Equal(t, "R1", m.Round)
	assert.Equal(t, KindManual, p.Kind())

	p.Status = models.StatusPendingApproval
	_, err = p.Normalize()
	assert.True(t, errs.IsValidation(err))

	p.Status = models.StatusCompleted
	p.Team1.IsWinner, p.Team2.IsWinner = true, true
	_, err = p.Normalize()
	assert.True(t, errs.IsValidation(err))
}
