// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Player names one of the two competitors on a court.
type Player string

// Canonical competitor names used on the wire.
const (
	CompetitorA Player = "competitorA"
	CompetitorB Player = "competitorB"
)

// Players lists both competitors in a stable order.
var Players = [2]Player{CompetitorA, CompetitorB}

// ParsePlayer maps a wire value to a Player. The legacy scoreboard names
// "chong" and "hong" are accepted as aliases for A and B.
func ParsePlayer(s string) (Player, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "competitora", "a", "chong":
		return CompetitorA, nil
	case "competitorb", "b", "hong":
		return CompetitorB, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPlayer, s)
}

// Valid reports whether p is one of the two competitors.
func (p Player) Valid() bool {
	return p == CompetitorA || p == CompetitorB
}

// Opponent returns the other competitor.
func (p Player) Opponent() Player {
	if p == CompetitorA {
		return CompetitorB
	}
	return CompetitorA
}

// UnmarshalJSON accepts any spelling ParsePlayer accepts.
func (p *Player) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPlayer, string(b))
	}
	parsed, err := ParsePlayer(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Tally holds one counter per competitor.
type Tally struct {
	CompetitorA int `json:"competitorA"`
	CompetitorB int `json:"competitorB"`
}

// Get returns the counter for p.
func (t Tally) Get(p Player) int {
	switch p {
	case CompetitorA:
		return t.CompetitorA
	case CompetitorB:
		return t.CompetitorB
	}
	return 0
}

// Inc increments the counter for p by one.
func (t *Tally) Inc(p Player) {
	switch p {
	case CompetitorA:
		t.CompetitorA++
	case CompetitorB:
		t.CompetitorB++
	}
}
