// models/game.go
package models

// Game is the identity every rating, synergy and match row hangs off.
// Games are created lazily the first time a command mentions them.
type Game struct {
	ID   string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name string `json:"name" gorm:"uniqueIndex;not null"`
	Slug string `json:"slug" gorm:"index;not null"` // url-safe form of Name, used by the HTTP routes

	Timestamps
}
