package models

// TeamComposition aggregates results of an exact, recurring set of teammates.
// PlayerKey is the comma-joined ascending list of member ids.
type TeamComposition struct {
	ID        string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	GameID    string `json:"game_id" gorm:"uniqueIndex:idx_composition_players;not null;type:varchar(36)"`
	PlayerKey string `json:"player_key" gorm:"uniqueIndex:idx_composition_players;not null"`

	TimesPlayed  int     `json:"times_played" gorm:"default:0"`
	Wins         int     `json:"wins" gorm:"default:0"`
	Losses       int     `json:"losses" gorm:"default:0"`
	WinRate      float64 `json:"win_rate" gorm:"default:0"`
	AvgTeamScore float64 `json:"avg_team_score" gorm:"default:0"`

	Players []TeamCompositionPlayer `json:"players,omitempty" gorm:"foreignKey:CompositionID"`

	Timestamps
}

// TeamCompositionPlayer links a composition to one of its members.
type TeamCompositionPlayer struct {
	CompositionID string `json:"composition_id" gorm:"primaryKey;type:varchar(36)"`
	UserID        int64  `json:"user_id" gorm:"primaryKey;autoIncrement:false;index"`
}

// All returns every model the engine migrates.
func All() []interface{} {
	return []interface{}{
		&Game{},
		&PlayerGameStat{},
		&PlayerSynergy{},
		&GameMatch{},
		&MatchTeam{},
		&MatchPlayer{},
		&TeamComposition{},
		&TeamCompositionPlayer{},
	}
}
