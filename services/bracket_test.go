package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBracketFormat(t *testing.T) {
	tests := []struct {
		format   string
		roster   int
		teamSize int
		numTeams int
	}{
		{"2v2", 4, 2, 2},
		{"1v2", 2, 1, 2},
		{"1v1", 1, 1, 1},
		{"5v1", 6, 5, 1},
		{"3v3", 6, 3, 3},
		{"5v2", 10, 5, 2},
		{"4v1", 4, 4, 1},
		{"ffa", 6, 1, 6},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			b, err := ParseBracketFormat(tt.format, tt.roster)
			require.NoError(t, err)
			assert.Equal(t, tt.teamSize, b.TeamSize)
			assert.Equal(t, tt.numTeams, b.NumTeams)
			assert.Equal(t, tt.format, b.Format)
		})
	}
}

func TestParseBracketFormatRejectsMalformed(t *testing.T) {
	for _, format := range []string{"", "2", "v2", "2v", "0v2", "2v0", "-1v2", "+2v2", "axb", "2x2", "2v2v2", "FFA", " 2v2"} {
		t.Run(format, func(t *testing.T) {
			_, err := ParseBracketFormat(format, 4)
			var ferr *FormatError
			require.ErrorAs(t, err, &ferr)
			assert.Equal(t, format, ferr.Format)
		})
	}
}

func TestBracketValidate(t *testing.T) {
	b, err := ParseBracketFormat("3v2", 5)
	require.NoError(t, err)
	assert.Equal(t, 6, b.PlayersNeeded())

	var verr *ValidationError
	require.ErrorAs(t, b.Validate(5), &verr)
	assert.Equal(t, "player_ids", verr.Field)
	assert.NoError(t, b.Validate(6))
}
