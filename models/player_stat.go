package models

// DefaultSkillRating is the rating every player starts a game with.
const DefaultSkillRating = 1000.0

// PlayerGameStat holds a player's running statistics for one game.
// TotalMatches always equals TotalWins + TotalLosses.
type PlayerGameStat struct {
	UserID int64  `json:"user_id" gorm:"primaryKey;autoIncrement:false"`
	GameID string `json:"game_id" gorm:"primaryKey;type:varchar(36)"`

	SkillRating  float64 `json:"skill_rating" gorm:"index"`
	WinRate      float64 `json:"win_rate" gorm:"default:0"`
	AvgScore     float64 `json:"avg_score" gorm:"default:0"`
	TotalMatches int     `json:"total_matches" gorm:"default:0"`
	TotalWins    int     `json:"total_wins" gorm:"default:0"`
	TotalLosses  int     `json:"total_losses" gorm:"default:0"`

	Timestamps
}

// PlayerSynergy tracks how two players do with and against each other.
// Player1ID is always the smaller id; RivalryFactor is relative to Player1ID.
type PlayerSynergy struct {
	Player1ID int64  `json:"player1_id" gorm:"primaryKey;autoIncrement:false"`
	Player2ID int64  `json:"player2_id" gorm:"primaryKey;autoIncrement:false"`
	GameID    string `json:"game_id" gorm:"primaryKey;type:varchar(36)"`

	// As teammates
	MatchesAsTeammates int     `json:"matches_as_teammates" gorm:"default:0"`
	WinsAsTeammates    int     `json:"wins_as_teammates" gorm:"default:0"`
	TeammateSynergy    float64 `json:"teammate_synergy" gorm:"default:0"`

	// As opponents
	MatchesAsOpponents   int     `json:"matches_as_opponents" gorm:"default:0"`
	Player1WinsVsPlayer2 int     `json:"player1_wins_vs_player2" gorm:"default:0"`
	RivalryFactor        float64 `json:"rivalry_factor" gorm:"default:0"`

	Timestamps
}

// TableName keeps the plural form stable across dialects.
func (PlayerSynergy) TableName() string {
	return "player_synergies"
}
