package nba

type Franchise struct {
	Code string `json:"id"`
	Name string `json:"name"`
}

// Franchises is the fixed set of team codes a seat can draw from.
var Franchises = []Franchise{
	{"ATL", "Atlanta Hawks"},
	{"BOS", "Boston Celtics"},
	{"BKN", "Brooklyn Nets"},
	{"CHA", "Charlotte Hornets"},
	{"CHI", "Chicago Bulls"},
	{"CLE", "Cleveland Cavaliers"},
	{"DAL", "Dallas Mavericks"},
	{"DEN", "Denver Nuggets"},
	{"DET", "Detroit Pistons"},
	{"GSW", "Golden State Warriors"},
	{"HOU", "Houston Rockets"},
	{"IND", "Indiana Pacers"},
	{"LAC", "Los Angeles Clippers"},
	{"LAL", "Los Angeles Lakers"},
	{"MEM", "Memphis Grizzlies"},
	{"MIA", "Miami Heat"},
	{"MIL", "Milwaukee Bucks"},
	{"MIN", "Minnesota Timberwolves"},
	{"NOP", "New Orleans Pelicans"},
	{"NYK", "New York Knicks"},
	{"OKC", "Oklahoma City Thunder"},
	{"ORL", "Orlando Magic"},
	{"PHI", "Philadelphia 76ers"},
	{"PHX", "Phoenix Suns"},
	{"POR", "Portland Trail Blazers"},
	{"SAC", "Sacramento Kings"},
	{"SAS", "San Antonio Spurs"},
	{"TOR", "Toronto Raptors"},
	{"UTA", "Utah Jazz"},
	{"WAS", "Washington Wizards"},
}

func KnownFranchise(code string) bool {
	for _, f := range Franchises {
		if f.Code == code {
			return true
		}
	}
	return false
}
