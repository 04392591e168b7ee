// Package ingest turns the three inbound shapes (admin form, CSV row and
// scraper payload) into canonical matches, and reconciles scraper output
// against the stored scraped collection.
package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/errs"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/matches"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
)

// Kind tags the origin of a payload
type Kind string

const (
	KindManual Kind = "manual"
	KindCSV    Kind = "csv"
	KindScrape Kind = "scrape"
)

// Payload is any inbound match shape. Normalize validates it and returns the
// canonical match without an id.
type Payload interface {
	Kind() Kind
	Normalize() (models.Match, error)
}

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// ManualPayload is a match submitted from the admin form.
type ManualPayload struct {
	models.Match
}

func (ManualPayload) Kind() Kind { return KindManual }

func (p ManualPayload) Normalize() (models.Match, error) {
	m := matches.CleanMatchData(p.Match)
	m.ID = ""
	m.ScrapeTargetID, m.ScrapedAt, m.Confidence, m.ExternalRefID = "", "", "", ""

	var reasons []string
	if strings.TrimSpace(m.TournamentName) == "" {
		reasons = append(reasons, "Missing tournament name")
	}
	if !datePattern.MatchString(m.Date) {
		reasons = append(reasons, "Date must be in YYYY-MM-DD format")
	}
	if m.Time != "" && !timePattern.MatchString(m.Time) {
		reasons = append(reasons, "Time must be in HH:MM format")
	}
	if m.Status == models.StatusPendingApproval {
		reasons = append(reasons, "pending_approval is reserved for scraped matches")
	}
	if len(reasons) > 0 {
		return m, errs.Validation(reasons...)
	}
	return m, matches.Validate(m)
}

// CSVRow is one data row of an import file, keyed by lower-cased header.
type CSVRow map[string]string

func (CSVRow) Kind() Kind { return KindCSV }

// Normalize applies the import rules. Missing required fields are reported
// together; after that the first format failure wins.
func (r CSVRow) Normalize() (models.Match, error) {
	var missing []string
	for _, f := range []struct{ key, reason string }{
		{"date", "Missing date"},
		{"time", "Missing time"},
		{"tournamentname", "Missing tournament name"},
		{"drawname", "Missing draw name"},
		{"round", "Missing round"},
		{"team1player1", "Missing team 1 player 1"},
		{"team2player1", "Missing team 2 player 1"},
		{"status", "Missing status"},
	} {
		if r[f.key] == "" {
			missing = append(missing, f.reason)
		}
	}
	if len(missing) > 0 {
		return models.Match{}, errs.Validation(missing...)
	}

	if !datePattern.MatchString(r["date"]) {
		return models.Match{}, errs.Validation("Date must be in YYYY-MM-DD format")
	}
	if !timePattern.MatchString(r["time"]) {
		return models.Match{}, errs.Validation("Time must be in HH:MM format")
	}
	status := models.Status(r["status"])
	if !status.IsPublic() {
		return models.Match{}, errs.Validation(fmt.Sprintf("Invalid status %q. Must be one of: %s", r["status"], statusList()))
	}

	s1, s2 := ParseScores(r["scores"])
	m := models.Match{
		Date:           r["date"],
		Time:           r["time"],
		Status:         status,
		TournamentName: r["tournamentname"],
		DrawName:       r["drawname"],
		Round:          r["round"],
		Court:          r["court"],
		Team1:          models.Team{Players: csvPlayers(r["team1player1"], r["team1player2"]), Seed: parseSeed(r["team1seed"])},
		Team2:          models.Team{Players: csvPlayers(r["team2player1"], r["team2player2"]), Seed: parseSeed(r["team2seed"])},
		SetScoresTeam1: s1,
		SetScoresTeam2: s2,
	}
	if status == models.StatusCompleted {
		switch strings.ToLower(r["winner"]) {
		case "team1":
			m.Team1.IsWinner = true
		case "team2":
			m.Team2.IsWinner = true
		}
	}

	m = matches.CleanMatchData(m)
	return m, matches.Validate(m)
}

func statusList() string {
	names := make([]string, 0, len(models.PublicStatuses))
	for _, s := range models.PublicStatuses {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

func csvPlayers(first, second string) []models.Player {
	players := []models.Player{{Name: strings.TrimSpace(first)}}
	if strings.TrimSpace(second) != "" {
		players = append(players, models.Player{Name: strings.TrimSpace(second)})
	}
	return players
}

func parseSeed(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}

// ParseScores reads "11-5, 11-7" into parallel arrays. Malformed sets are
// dropped, so the arrays always pair up.
func ParseScores(s string) ([]int, []int) {
	team1, team2 := []int{}, []int{}
	for _, set := range strings.Split(s, ",") {
		set = strings.TrimSpace(set)
		if set == "" {
			continue
		}
		parts := strings.Split(set, "-")
		if len(parts) != 2 {
			continue
		}
		a, errA := strconv.Atoi(strings.TrimSpace(parts[0]))
		b, errB := strconv.Atoi(strings.TrimSpace(parts[1]))
		if errA != nil || errB != nil {
			continue
		}
		team1 = append(team1, a)
		team2 = append(team2, b)
	}
	return team1, team2
}

// ScrapeTeam is a team as reported by the scraper. Every field is optional.
type ScrapeTeam struct {
	Players  []models.Player `json:"players"`
	Seed     *int            `json:"seed,omitempty"`
	IsWinner bool            `json:"isWinner"`
}

// ScrapePayload is a single match posted by the scraping pipeline.
type ScrapePayload struct {
	ScrapeTargetID string        `json:"scrapeTargetId"`
	TournamentName string        `json:"tournamentName"`
	Date           string        `json:"date"`
	Time           string        `json:"time"`
	Status         models.Status `json:"status"`
	DrawName       string        `json:"drawName"`
	Round          string        `json:"round"`
	Court          string        `json:"court"`
	Team1          *ScrapeTeam   `json:"team1"`
	Team2          *ScrapeTeam   `json:"team2"`
	SetScoresTeam1 []int         `json:"setScoresTeam1"`
	SetScoresTeam2 []int         `json:"setScoresTeam2"`
	Confidence     string        `json:"confidence"`
	ExternalRefID  string        `json:"externalRefId"`
}

const (
	DefaultScrapeTime       = "12:00"
	DefaultScrapeRound      = "Round 1"
	DefaultScrapeConfidence = "medium"
	placeholderPlayer       = "TBD"
)

func (ScrapePayload) Kind() Kind { return KindScrape }

// Normalize fills scraper defaults. The reported status is carried through
// untouched; gating it is the reconciler's job.
func (p ScrapePayload) Normalize() (models.Match, error) {
	if p.ScrapeTargetID == "" || p.TournamentName == "" || p.Date == "" {
		return models.Match{}, &errs.ValidationError{
			Field:   "payload",
			Reasons: []string{"Missing required fields: scrapeTargetId, tournamentName, date"},
		}
	}

	m := models.Match{
		Date:           p.Date,
		Time:           orDefault(p.Time, DefaultScrapeTime),
		Status:         p.Status,
		TournamentName: p.TournamentName,
		DrawName:       orDefault(p.DrawName, matches.DefaultDrawName),
		Round:          orDefault(p.Round, DefaultScrapeRound),
		Court:          p.Court,
		Team1:          scrapeTeam(p.Team1),
		Team2:          scrapeTeam(p.Team2),
		SetScoresTeam1: orEmpty(p.SetScoresTeam1),
		SetScoresTeam2: orEmpty(p.SetScoresTeam2),
		ScrapeTargetID: p.ScrapeTargetID,
		Confidence:     orDefault(p.Confidence, DefaultScrapeConfidence),
		ExternalRefID:  p.ExternalRefID,
	}
	m = matches.CleanMatchData(m)
	if len(m.Team1.Players) == 0 {
		m.Team1.Players = []models.Player{{Name: placeholderPlayer}}
	}
	if len(m.Team2.Players) == 0 {
		m.Team2.Players = []models.Player{{Name: placeholderPlayer}}
	}
	return m, nil
}

func scrapeTeam(t *ScrapeTeam) models.Team {
	if t == nil {
		return models.Team{}
	}
	team := models.Team{Players: append([]models.Player{}, t.Players...), IsWinner: t.IsWinner}
	if t.Seed != nil {
		seed := *t.Seed
		team.Seed = &seed
	}
	return team
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func orEmpty(s []int) []int {
	if s == nil {
		return []int{}
	}
	return append([]int{}, s...)
}
