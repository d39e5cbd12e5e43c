package services

import (
	"strconv"
	"strings"
)

// FormatFFA is the free-for-all bracket: every player is a team of one.
const FormatFFA = "ffa"

// DefaultBracketFormat is used when a caller leaves the format empty.
const DefaultBracketFormat = "2v2"

// Bracket is the team shape parsed from a bracket format string.
type Bracket struct {
	Format   string
	TeamSize int
	NumTeams int
}

// PlayersNeeded is the exact roster size the bracket requires.
func (b Bracket) PlayersNeeded() int {
	return b.TeamSize * b.NumTeams
}

// Validate checks that a roster of rosterSize players fills the bracket exactly.
func (b Bracket) Validate(rosterSize int) error {
	if rosterSize != b.PlayersNeeded() {
		return validationErrorf("player_ids", "bracket %s needs %d players (%d teams of %d), got %d",
			b.Format, b.PlayersNeeded(), b.NumTeams, b.TeamSize, rosterSize)
	}
	return nil
}

// ParseBracketFormat parses "ffa" or "<team_size>v<number_of_teams>".
// For "ffa" the number of teams is the roster size.
func ParseBracketFormat(format string, rosterSize int) (Bracket, error) {
	if format == FormatFFA {
		return Bracket{Format: format, TeamSize: 1, NumTeams: rosterSize}, nil
	}

	left, right, ok := strings.Cut(format, "v")
	if !ok {
		return Bracket{}, &FormatError{Format: format}
	}
	teamSize, err := parsePositive(left)
	if err != nil {
		return Bracket{}, &FormatError{Format: format}
	}
	numTeams, err := parsePositive(right)
	if err != nil {
		return Bracket{}, &FormatError{Format: format}
	}
	return Bracket{Format: format, TeamSize: teamSize, NumTeams: numTeams}, nil
}

func parsePositive(s string) (int, error) {
	// Atoi accepts a leading sign; formats like "+2v2" are not valid here.
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, strconv.ErrSyntax
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
