package models

import "time"

// GameMatch is one recorded match. Rows are written once and never updated.
type GameMatch struct {
	ID                string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	GameID            string    `json:"game_id" gorm:"index;not null;type:varchar(36)"`
	MatchDate         time.Time `json:"match_date" gorm:"index;not null"`
	DurationSeconds   *int      `json:"duration_seconds,omitempty"`
	WinningTeamNumber int       `json:"winning_team_number" gorm:"not null"` // 1-based
	BracketFormat     string    `json:"bracket_format" gorm:"type:varchar(16);not null"`

	Game    Game          `json:"game,omitempty" gorm:"foreignKey:GameID"`
	Teams   []MatchTeam   `json:"teams,omitempty" gorm:"foreignKey:MatchID"`
	Players []MatchPlayer `json:"players,omitempty" gorm:"foreignKey:MatchID"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// MatchTeam is one side of a GameMatch.
type MatchTeam struct {
	MatchID    string `json:"match_id" gorm:"primaryKey;type:varchar(36)"`
	TeamNumber int    `json:"team_number" gorm:"primaryKey;autoIncrement:false"`
	TeamScore  *int   `json:"team_score,omitempty"`
	Won        bool   `json:"won" gorm:"default:false"`
}

// MatchPlayer is a single participant of a GameMatch.
type MatchPlayer struct {
	MatchID         string `json:"match_id" gorm:"primaryKey;type:varchar(36)"`
	UserID          int64  `json:"user_id" gorm:"primaryKey;autoIncrement:false;index"`
	TeamNumber      int    `json:"team_number" gorm:"not null"`
	IndividualScore *int   `json:"individual_score,omitempty"`
	Won             bool   `json:"won" gorm:"default:false"`
}
