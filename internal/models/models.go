package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Status is the lifecycle state of a match
type Status string

const (
	StatusLive            Status = "Live"
	StatusUpcoming        Status = "Upcoming"
	StatusCompleted       Status = "Completed"
	StatusForfeit         Status = "Forfeit"
	StatusWalkover        Status = "Walkover"
	StatusPendingApproval Status = "pending_approval"
)

// PublicStatuses are the statuses an admin or CSV file may set directly.
var PublicStatuses = []Status{StatusLive, StatusUpcoming, StatusCompleted, StatusForfeit, StatusWalkover}

// IsPublic reports whether the status is visible on public views.
func (s Status) IsPublic() bool {
	for _, p := range PublicStatuses {
		if s == p {
			return true
		}
	}
	return false
}

// IsFinal reports whether the match has ended.
func (s Status) IsFinal() bool {
	return s == StatusCompleted || s == StatusForfeit || s == StatusWalkover
}

// Player is identified only by its name string
type Player struct {
	Name string `json:"name"`
}

// Team is one side of a match
type Team struct {
	Players  []Player `json:"players"`
	Seed     *int     `json:"seed,omitempty"`
	IsWinner bool     `json:"isWinner"`
}

// Names returns the player names in order.
func (t Team) Names() []string {
	names := make([]string, 0, len(t.Players))
	for _, p := range t.Players {
		names = append(names, p.Name)
	}
	return names
}

// Match is the canonical match record shared by every ingestion path
type Match struct {
	ID             string `json:"id"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Status         Status `json:"status"`
	TournamentName string `json:"tournamentName"`
	DrawName       string `json:"drawName"`
	Round          string `json:"round"`
	Court          string `json:"court"`
	Team1          Team   `json:"team1"`
	Team2          Team   `json:"team2"`
	SetScoresTeam1 []int  `json:"setScoresTeam1"`
	SetScoresTeam2 []int  `json:"setScoresTeam2"`

	// Scrape provenance, set only by the reconciler.
	ScrapeTargetID string `json:"scrapeTargetId,omitempty"`
	ScrapedAt      string `json:"scrapedAt,omitempty"`
	Confidence     string `json:"confidence,omitempty"`
	ExternalRefID  string `json:"externalRefId,omitempty"`
}

// legacyMatch carries the pre-v1 flat player arrays and court field.
// Entries are decoded loosely because old records mixed strings and objects.
type legacyMatch struct {
	PlayersTeam1 []json.RawMessage `json:"playersTeam1"`
	PlayersTeam2 []json.RawMessage `json:"playersTeam2"`
	CourtNumber  json.RawMessage   `json:"courtNumber"`
}

// UnmarshalJSON decodes a match and migrates records stored in the legacy
// shape, so nothing past this point sees playersTeam1/playersTeam2.
func (m *Match) UnmarshalJSON(data []byte) error {
	type plain Match
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var legacy legacyMatch
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}

	if len(p.Team1.Players) == 0 && len(legacy.PlayersTeam1) > 0 {
		p.Team1.Players = legacyPlayers(legacy.PlayersTeam1)
	}
	if len(p.Team2.Players) == 0 && len(legacy.PlayersTeam2) > 0 {
		p.Team2.Players = legacyPlayers(legacy.PlayersTeam2)
	}
	if p.Court == "" && len(legacy.CourtNumber) > 0 {
		p.Court = legacyScalar(legacy.CourtNumber)
	}
	if p.SetScoresTeam1 == nil {
		p.SetScoresTeam1 = []int{}
	}
	if p.SetScoresTeam2 == nil {
		p.SetScoresTeam2 = []int{}
	}

	*m = Match(p)
	return nil
}

// legacyPlayers accepts bare names or player objects. Blank names are
// placeholders for an unfilled slot and are dropped.
func legacyPlayers(raw []json.RawMessage) []Player {
	players := make([]Player, 0, len(raw))
	for _, r := range raw {
		var p Player
		var name string
		if err := json.Unmarshal(r, &name); err == nil {
			p.Name = name
		} else if err := json.Unmarshal(r, &p); err != nil {
			continue
		}
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			continue
		}
		players = append(players, p)
	}
	return players
}

func legacyScalar(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// AllPlayerNames returns the names of both teams, team1 first.
func (m Match) AllPlayerNames() []string {
	return append(m.Team1.Names(), m.Team2.Names()...)
}

// Clone returns a deep copy of the match.
func (m Match) Clone() Match {
	c := m
	c.Team1 = cloneTeam(m.Team1)
	c.Team2 = cloneTeam(m.Team2)
	c.SetScoresTeam1 = append([]int{}, m.SetScoresTeam1...)
	c.SetScoresTeam2 = append([]int{}, m.SetScoresTeam2...)
	return c
}

func cloneTeam(t Team) Team {
	c := t
	c.Players = append([]Player{}, t.Players...)
	if t.Seed != nil {
		seed := *t.Seed
		c.Seed = &seed
	}
	return c
}

// TimestampLayout is the millisecond UTC layout used for every stored timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp formats t with TimestampLayout.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Tournament is a managed tournament record
type Tournament struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	League    string `json:"league"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// HybridTournament is a tournament reconciled from managed data, match data or both
type HybridTournament struct {
	Tournament
	IsManaged  bool `json:"isManaged"`
	MatchCount int  `json:"matchCount"`
}

// ScrapeTarget governs whether and how a scrape source's output is accepted
type ScrapeTarget struct {
	ID             string `json:"id"`
	League         string `json:"league"`
	TournamentName string `json:"tournamentName"`
	URL            string `json:"url"`
	IsActive       bool   `json:"isActive"`
	TournamentMode bool   `json:"tournamentMode"`
	AutoApproval   bool   `json:"autoApproval"`
	LastScraped    string `json:"lastScraped,omitempty"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

// HealthStatus values reported by scraper workflows.
const (
	HealthStarted   = "started"
	HealthCompleted = "completed"
	HealthFailed    = "failed"
	HealthHeartbeat = "heartbeat"
)

// HealthMetrics are the optional counters attached to a health record
type HealthMetrics struct {
	MatchesProcessed *int   `json:"matchesProcessed,omitempty"`
	Errors           *int   `json:"errors,omitempty"`
	Duration         *int64 `json:"duration,omitempty"`
	TargetsScraped   *int   `json:"targetsScraped,omitempty"`
	Confidence       string `json:"confidence,omitempty"`
}

// HealthRecord is one scraper workflow run report
type HealthRecord struct {
	ID          string         `json:"id"`
	Status      string         `json:"status"`
	Workflow    string         `json:"workflow"`
	ExecutionID string         `json:"executionId,omitempty"`
	Timestamp   string         `json:"timestamp"`
	Metrics     *HealthMetrics `json:"metrics,omitempty"`
	Error       string         `json:"error,omitempty"`
	Message     string         `json:"message,omitempty"`
}

// IngestEvent is one reconciled scrape payload, kept for audit
type IngestEvent struct {
	TargetID       string    `json:"targetId"`
	MatchID        string    `json:"matchId"`
	TournamentName string    `json:"tournamentName"`
	Operation      string    `json:"operation"`
	AutoApproved   bool      `json:"autoApproved"`
	Confidence     string    `json:"confidence"`
	At             time.Time `json:"at"`
}
