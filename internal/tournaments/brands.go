package tournaments

import "strings"

// Brand is the abbreviation and color a tournament is displayed with
type Brand struct {
	Abbreviation string `json:"abbreviation"`
	Color        string `json:"color"`
}

// brandOrder is the prefix match order. PPA must be tried before PTAP.
var brandOrder = []string{"PPA", "APP", "MLP", "NPL", "BRK", "CHL", "LAB", "PTAP", "OAP", "FGT"}

// BrandColors maps league abbreviations to their display color.
var BrandColors = map[string]string{
	"PPA":  "#2563EB",
	"APP":  "#00c2c7",
	"MLP":  "#FB9062",
	"NPL":  "#A3E635",
	"BRK":  "#DC2626",
	"CHL":  "#BE123C",
	"LAB":  "#e88ca1",
	"PTAP": "#25A6E5",
	"OAP":  "#16A34A",
	"FGT":  "#CA8A04",
}

// Independent is the brand for names without a known league prefix.
var Independent = Brand{Abbreviation: "IND", Color: "#6b7280"}

// LeagueOther is the inferred league for unbranded tournaments.
const LeagueOther = "Other"

// Leagues lists the filterable leagues.
func Leagues() []string {
	return append(append([]string{}, brandOrder...), LeagueOther)
}

func isBrickwall(upper string) bool {
	return strings.HasPrefix(upper, "BRK") ||
		strings.Contains(upper, "BRICKWALL") ||
		strings.Contains(upper, "BRICK WALL") ||
		strings.Contains(upper, "MONEYBALL")
}

func brandPrefix(name string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if upper == "" {
		return "", false
	}
	if isBrickwall(upper) {
		return "BRK", true
	}
	for _, b := range brandOrder {
		if strings.HasPrefix(upper, b) {
			return b, true
		}
	}
	return "", false
}

// BrandFor returns the display brand for a tournament name.
func BrandFor(name string) Brand {
	if b, ok := brandPrefix(name); ok {
		return Brand{Abbreviation: b, Color: BrandColors[b]}
	}
	return Independent
}

// InferLeague derives a league from the tournament name prefix.
func InferLeague(name string) string {
	if b, ok := brandPrefix(name); ok {
		return b
	}
	return LeagueOther
}
