package models

import (
	"encoding/json"
	"testing"
)

func TestMatchUnmarshalCanonical(t *testing.T) {
	data := `{"id":"m1","date":"2025-03-01","time":"14:00","status":"Live",
		"tournamentName":"PPA Atlanta Open","drawName":"Men's Doubles","round":"Finals","court":"1",
		"team1":{"players":[{"name":"Ben Johns"},{"name":"Collin Johns"}],"seed":1,"isWinner":false},
		"team2":{"players":[{"name":"Hayden Patriquin"}],"isWinner":false},
		"setScoresTeam1":[11],"setScoresTeam2":[9]}`

	var m Match
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if m.Status != StatusLive {
		t.Errorf("expected status Live, got %q", m.Status)
	}
	if len(m.Team1.Players) != 2 || m.Team1.Players[1].Name != "Collin Johns" {
		t.Errorf("unexpected team1 players: %+v", m.Team1.Players)
	}
	if m.Team1.Seed == nil || *m.Team1.Seed != 1 {
		t.Errorf("expected team1 seed 1, got %v", m.Team1.Seed)
	}
	if m.Team2.Seed != nil {
		t.Errorf("expected no team2 seed, got %v", *m.Team2.Seed)
	}
}

func TestMatchUnmarshalMigratesLegacyShape(t *testing.T) {
	data := `{"id":"old","date":"2024-11-02","time":"09:30","status":"Completed",
		"tournamentName":"APP Newport","round":"Semifinals","courtNumber":7,
		"playersTeam1":["Anna Bright",{"name":"Tyson McGuffin"}],
		"playersTeam2":["Riley Newman"]}`

	var m Match
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if got := m.Team1.Names(); len(got) != 2 || got[0] != "Anna Bright" || got[1] != "Tyson McGuffin" {
		t.Errorf("team1 not migrated: %v", got)
	}
	if got := m.Team2.Names(); len(got) != 1 || got[0] != "Riley Newman" {
		t.Errorf("team2 not migrated: %v", got)
	}
	if m.Court != "7" {
		t.Errorf("expected court migrated from courtNumber, got %q", m.Court)
	}
	if m.SetScoresTeam1 == nil || m.SetScoresTeam2 == nil {
		t.Error("score arrays should default to empty, not nil")
	}

	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(out, &raw); err != nil {
		t.Fatalf("Unmarshal raw failed: %v", err)
	}
	if _, ok := raw["playersTeam1"]; ok {
		t.Error("legacy field should not survive a round trip")
	}
}

func TestMatchUnmarshalPrefersCanonicalPlayers(t *testing.T) {
	data := `{"id":"x","team1":{"players":[{"name":"New"}]},"playersTeam1":["Old"]}`

	var m Match
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if m.Team1.Players[0].Name != "New" {
		t.Errorf("canonical players should win, got %q", m.Team1.Players[0].Name)
	}
}

func TestMatchCloneIsDeep(t *testing.T) {
	seed := 3
	m := Match{
		ID:             "a",
		Team1:          Team{Players: []Player{{Name: "A"}}, Seed: &seed},
		SetScoresTeam1: []int{11},
		SetScoresTeam2: []int{4},
	}

	c := m.Clone()
	c.Team1.Players[0].Name = "B"
	*c.Team1.Seed = 9
	c.SetScoresTeam1[0] = 0

	if m.Team1.Players[0].Name != "A" || *m.Team1.Seed != 3 || m.SetScoresTeam1[0] != 11 {
		t.Errorf("clone shares state with original: %+v", m)
	}
}

func TestStatusHelpers(t *testing.T) {
	if StatusPendingApproval.IsPublic() {
		t.Error("pending_approval must not be public")
	}
	for _, s := range PublicStatuses {
		if !s.IsPublic() {
			t.Errorf("%s should be public", s)
		}
	}
	if !StatusWalkover.IsFinal() || StatusLive.IsFinal() {
		t.Error("IsFinal misclassifies statuses")
	}
}

func TestMatchUnmarshalDropsBlankLegacyPlayers(t *testing.T) {
	data := `{"id":"x","playersTeam1":["Ben Johns",""],"playersTeam2":[{"name":"  "},"JW Johnson",null]}`

	var m Match
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if got := m.Team1.Names(); len(got) != 1 || got[0] != "Ben Johns" {
		t.Errorf("team1 should keep only named players: %v", got)
	}
	if got := m.Team2.Names(); len(got) != 1 || got[0] != "JW Johnson" {
		t.Errorf("team2 should keep only named players: %v", got)
	}
}
