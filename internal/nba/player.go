// Package nba holds the value types shared by the catalog, the prompt builder
// and the draft: players, positions, rosters and franchise codes.
package nba

import (
	"bytes"
	"encoding/json"
	"strconv"
)

type Position string

const (
	PG Position = "PG"
	SG Position = "SG"
	SF Position = "SF"
	PF Position = "PF"
	C  Position = "C"
)

// Positions lists the five roster slots in lineup order.
var Positions = []Position{PG, SG, SF, PF, C}

func (p Position) Valid() bool {
	switch p {
	case PG, SG, SF, PF, C:
		return true
	}
	return false
}

// Label is the long English name of the slot.
func (p Position) Label() string {
	switch p {
	case PG:
		return "Point Guard"
	case SG:
		return "Shooting Guard"
	case SF:
		return "Small Forward"
	case PF:
		return "Power Forward"
	case C:
		return "Center"
	}
	return string(p)
}

// PlayerID accepts both the numeric catalog ids and the string ids the front
// end assigns to custom players ("custom_1700000000").
type PlayerID string

func (id PlayerID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *PlayerID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = PlayerID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = PlayerID(n.String())
	return nil
}

type Player struct {
	ID            PlayerID   `json:"id"`
	Name          string     `json:"name"`
	NameEn        string     `json:"nameEn"`
	Cost          int        `json:"cost"`
	Positions     []Position `json:"positions"`
	Team          string     `json:"team"`
	PeakSeason    string     `json:"peakSeason"`
	Championships int        `json:"championships"`
	AllStar       int        `json:"allStar"`
	MVP           int        `json:"mvp"`
	FMVP          int        `json:"fmvp"`
	IsCustom      bool       `json:"isCustom,omitempty"`
}

// Roster maps a slot to the player drafted into it. Empty slots are absent.
type Roster map[Position]Player

func (r Roster) Full() bool {
	for _, p := range Positions {
		if _, ok := r[p]; !ok {
			return false
		}
	}
	return true
}

func (r Roster) Cost() int {
	total := 0
	for _, p := range r {
		total += p.Cost
	}
	return total
}

func (r Roster) Has(id PlayerID) bool {
	for _, p := range r {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (r Roster) Clone() Roster {
	out := make(Roster, len(r))
	for k, v := range r {
		v.Positions = append([]Position(nil), v.Positions...)
		out[k] = v
	}
	return out
}
