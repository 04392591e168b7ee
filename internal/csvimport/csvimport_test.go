package csvimport

import (
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
)

const header = "date,time,tournamentName,drawName,round,team1player1,team1player2,team2player1,team2player2,status,scores,winner,court"

func TestParseRoundTripCompletedRow(t *testing.T) {
	text := header + "\n" +
		`2025-03-01,14:30,PPA Atlanta Open,Men's Doubles,Finals,Ben Johns,Collin Johns,Andrei Daescu,JW Johnson,Completed,"11-5,11-7",team1,Stadium`

	res := ParseMatchesCSV(text, nil)

	require.Empty(t, res.Errors)
	require.Len(t, res.ValidMatches, 1)
	m := res.ValidMatches[0]
	assert.True(t, m.Team1.IsWinner)
	assert.False(t, m.Team2.IsWinner)
	assert.Equal(t, []int{11, 11}, m.SetScoresTeam1)
	assert.Equal(t, []int{5, 7}, m.SetScoresTeam2)
	assert.Equal(t, "Stadium", m.Court)
	assert.Empty(t, m.ID)
}

func TestParseIsIdempotentAgainstStore(t *testing.T) {
	faker := gofakeit.New(7)

	lines := []string{header}
	for i := 0; i < 20; i++ {
		lines = append(lines, strings.Join([]string{
			"2025-03-01", "09:00", "APP Newport", "Mixed Doubles", "Round of 16",
			faker.Name(), faker.Name(), faker.Name(), faker.Name(),
			"Upcoming", "", "", "",
		}, ","))
	}
	text := strings.Join(lines, "\n")

	first := ParseMatchesCSV(text, nil)
	require.Empty(t, first.Errors)
	require.Len(t, first.ValidMatches, 20)

	second := ParseMatchesCSV(text, first.ValidMatches)
	assert.Empty(t, second.ValidMatches)
	assert.Equal(t, 20, second.DuplicateCount)
	assert.Empty(t, second.Errors)
}

func TestParseDropsDuplicatesWithinBatch(t *testing.T) {
	text := header + "\n" +
		"2025-03-01,09:00,T,D,R1,A,,B,,Upcoming,,,\n" +
		"2025-03-02,18:00,t,D,r1,b,,a,,Completed,11-2,team1,4\n"

	res := ParseMatchesCSV(text, nil)
	assert.Len(t, res.ValidMatches, 1)
	assert.Equal(t, 1, res.DuplicateCount)
}

func TestParseRowErrorsDoNotStopBatch(t *testing.T) {
	text := strings.Join([]string{
		header,
		"2025-03-01,09:00,T,D,R1,A,,B,,Upcoming,,,",
		"03/01/2025,09:00,T,D,R2,A,,B,,Upcoming,,,",
		"2025-03-01,9am,T,D,R3,A,,B,,Upcoming,,,",
		"2025-03-01,09:00,T,D,R4,A,,B,,Paused,,,",
		",09:00,,D,R5,A,,B,,Upcoming,,,",
		"2025-03-01,09:00,T,D,R6",
		"",
		"2025-03-01,09:00,T,D,R7,C,,D,,Live,\"11-9, 4-\",,",
	}, "\n")

	res := ParseMatchesCSV(text, nil)

	assert.Equal(t, []string{
		"Row 3: Date must be in YYYY-MM-DD format",
		"Row 4: Time must be in HH:MM format",
		`Row 5: Invalid status "Paused". Must be one of: Live, Upcoming, Completed, Forfeit, Walkover`,
		"Row 6: Missing date, Missing tournament name",
		"Row 7: Column count mismatch (expected 13, got 5)",
	}, res.Errors)

	require.Len(t, res.ValidMatches, 2)
	assert.Equal(t, "R7", res.ValidMatches[1].Round)
	assert.Equal(t, []int{11}, res.ValidMatches[1].SetScoresTeam1)
	assert.Equal(t, []int{9}, res.ValidMatches[1].SetScoresTeam2)
}

func TestParseMissingHeaders(t *testing.T) {
	res := ParseMatchesCSV("Date,Time,Round,Status\n2025-03-01,09:00,R1,Live", nil)
	assert.Equal(t, []string{"Missing required headers: tournamentname, drawname, team1player1, team2player1"}, res.Errors)
	assert.Empty(t, res.ValidMatches)
}

func TestParseEmpty(t *testing.T) {
	res := ParseMatchesCSV("  \n\n", nil)
	assert.Equal(t, []string{"CSV is empty"}, res.Errors)
}

func TestParseLineQuotes(t *testing.T) {
	got := parseLine(`2025-03-01, "Smith, Jr." ,"11-5,11-7",""`)
	assert.Equal(t, []string{"2025-03-01", "Smith, Jr.", "11-5,11-7", ""}, got)
}

func TestFactory(t *testing.T) {
	f := NewFactory()

	p, err := f.GetParser("Results.CSV")
	require.NoError(t, err)
	assert.IsType(t, CSVParser{}, p)

	p, err = f.GetParser("results.xlsx")
	require.NoError(t, err)
	assert.IsType(t, XLSXParser{}, p)

	_, err = f.GetParser("results.pdf")
	assert.Error(t, err)
}

func TestCSVParserHandlesCRLFAndBOM(t *testing.T) {
	data := []byte("\ufeff" + header + "\r\n2025-03-01,09:00,T,D,R1,A,,B,,Upcoming,,,\r\n")
	res, err := CSVParser{}.Parse(data, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	assert.Len(t, res.ValidMatches, 1)
}

func TestXLSXParser(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]interface{}{
		{"date", "time", "tournamentname", "drawname", "round", "team1player1", "team2player1", "status", "scores", "winner"},
		{"2025-03-01", "10:00", "MLP Columbus", "Premier", "Finals", "Anna Bright", "Jorja Johnson", "Completed", "11-3, 11-8", "team2"},
		{},
		{"2025-03-01", "11:00", "MLP Columbus", "Premier", "Semifinals", "Anna Bright", "Catherine Parenteau", "Upcoming"},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := r
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	res, err := XLSXParser{}.Parse(buf.Bytes(), []models.Match{})
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	require.Len(t, res.ValidMatches, 2)
	assert.True(t, res.ValidMatches[0].Team2.IsWinner)
	assert.Equal(t, []int{3, 8}, res.ValidMatches[0].SetScoresTeam2)
	assert.Equal(t, models.StatusUpcoming, res.ValidMatches[1].Status)
}

func TestXLSXParserRejectsNonWorkbook(t *testing.T) {
	_, err := XLSXParser{}.Parse([]byte("date,time\n"), nil)
	assert.Error(t, err)
}
