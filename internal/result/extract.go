// Package result recovers the structured series result from free-form model text.
package result

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Result is the decoded JSON object the model was asked to produce. Its schema
// is not enforced here.
type Result map[string]any

type Outcome int

const (
	Parsed Outcome = iota
	Defaulted
)

func (o Outcome) String() string {
	if o == Parsed {
		return "parsed"
	}
	return "defaulted"
}

var (
	jsonFence  = regexp.MustCompile("```json\\s*([\\s\\S]*?)\\s*```")
	anyFence   = regexp.MustCompile("```\\s*([\\s\\S]*?)\\s*```")
	braceGreed = regexp.MustCompile(`\{[\s\S]*\}`)
)

// Extract tries, in order: the whole text, ```json fences, any fence, and the
// span from the first '{' to the last '}'. Only JSON objects are accepted. When
// nothing parses it returns Default() and logs a warning.
func Extract(text string) (Result, Outcome) {
	if r, ok := decode(text); ok {
		return r, Parsed
	}
	for _, re := range []*regexp.Regexp{jsonFence, anyFence} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if r, ok := decode(m[1]); ok {
				return r, Parsed
			}
		}
	}
	if m := braceGreed.FindString(text); m != "" {
		if r, ok := decode(m); ok {
			return r, Parsed
		}
	}
	log.Warn().Str("outcome", Defaulted.String()).Int("len", len(text)).Msg("model output had no parsable result, using default")
	return Default(), Defaulted
}

func decode(s string) (Result, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] != '{' {
		return nil, false
	}
	var r Result
	if err := json.Unmarshal([]byte(s), &r); err != nil || r == nil {
		return nil, false
	}
	return r, true
}

const defaultJSON = `{
	"teamAnalysis": {
		"team1": {"spacing": "unknown", "playmaking": "unknown", "offense": "unknown", "defense": "unknown", "chemistry": "unknown", "starPower": "unknown", "strengths": "unknown", "weaknesses": "unknown"},
		"team2": {"spacing": "unknown", "playmaking": "unknown", "offense": "unknown", "defense": "unknown", "chemistry": "unknown", "starPower": "unknown", "strengths": "unknown", "weaknesses": "unknown"},
		"keyMatchups": "unknown",
		"prediction": "unknown"
	},
	"champion": 1,
	"finalScore": {"team1Wins": 4, "team2Wins": 0},
	"games": [],
	"fmvp": {"name": "Unknown MVP", "team": 1, "avgStats": {"points": 0, "rebounds": 0, "assists": 0}, "reason": "The model did not produce a detailed result"},
	"summary": "The model did not produce a detailed result; default data is shown"
}`

// Default returns a fresh copy of the fallback result: seat 1 sweeps 4-0.
func Default() Result {
	var r Result
	if err := json.Unmarshal([]byte(defaultJSON), &r); err != nil {
		panic("result: invalid default: " + err.Error())
	}
	return r
}

// Champion reads the champion seat (1 or 2); 0 if absent or malformed.
func (r Result) Champion() int {
	return toInt(r["champion"])
}

// SeriesScore reads finalScore as (team1Wins, team2Wins).
func (r Result) SeriesScore() (int, int) {
	fs, ok := r["finalScore"].(map[string]any)
	if !ok {
		return 0, 0
	}
	return toInt(fs["team1Wins"]), toInt(fs["team2Wins"])
}

// FMVP reads the Finals MVP name.
func (r Result) FMVP() string {
	m, ok := r["fmvp"].(map[string]any)
	if !ok {
		return ""
	}
	s, _ := m["name"].(string)
	return s
}

func (r Result) Summary() string {
	s, _ := r["summary"].(string)
	return s
}

func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(n))
		return i
	}
	return 0
}
