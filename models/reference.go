package models

// Reference data consumed by the score engine. These tables are managed by
// the reference service and are read-only to the approval flow.

type Platform struct {
	ID        string `json:"id" gorm:"primaryKey"`
	Name      string `json:"name" gorm:"not null"`
	ShortName string `json:"short_name" gorm:"uniqueIndex"`

	Timestamps
}

type Game struct {
	ID        string `json:"id" gorm:"primaryKey"`
	Name      string `json:"name" gorm:"not null"`
	ShortName string `json:"short_name" gorm:"uniqueIndex"`

	Timestamps
}

type MiniGame struct {
	ID   string `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null"`

	Timestamps
}

// Mode defines how many participants a score for it must carry.
type Mode struct {
	ID             string `json:"id" gorm:"primaryKey"`
	Name           string `json:"name" gorm:"not null"`
	PlayerQuantity int    `json:"player_quantity" gorm:"not null;default:1"`

	Timestamps
}

type Stage struct {
	ID        string `json:"id" gorm:"primaryKey"`
	Name      string `json:"name" gorm:"not null"`
	ShortName string `json:"short_name"`
	SortOrder int    `json:"sort_order" gorm:"column:sort_order;default:0"`

	Timestamps
}

// StageContext is the resolved platform/game/mini-game/mode/stage combination
// a score is achieved in. The five-column combination is unique.
type StageContext struct {
	ID         string `json:"id" gorm:"primaryKey"`
	PlatformID string `json:"platform_id" gorm:"not null;uniqueIndex:idx_stage_context_dims"`
	GameID     string `json:"game_id" gorm:"not null;uniqueIndex:idx_stage_context_dims"`
	MiniGameID string `json:"mini_game_id" gorm:"not null;uniqueIndex:idx_stage_context_dims"`
	ModeID     string `json:"mode_id" gorm:"not null;uniqueIndex:idx_stage_context_dims"`
	StageID    string `json:"stage_id" gorm:"not null;uniqueIndex:idx_stage_context_dims"`

	Platform Platform `json:"platform,omitempty" gorm:"foreignKey:PlatformID"`
	Game     Game     `json:"game,omitempty" gorm:"foreignKey:GameID"`
	MiniGame MiniGame `json:"mini_game,omitempty" gorm:"foreignKey:MiniGameID"`
	Mode     Mode     `json:"mode,omitempty" gorm:"foreignKey:ModeID"`
	Stage    Stage    `json:"stage,omitempty" gorm:"foreignKey:StageID"`

	Timestamps
}

// CharacterCostume is a playable character/costume variant scoped to a
// platform/game/mini-game/mode combination. ScorePlayer rows must reference
// a costume whose dims match the score's stage context.
type CharacterCostume struct {
	ID            string `json:"id" gorm:"primaryKey"`
	PlatformID    string `json:"platform_id" gorm:"not null;index"`
	GameID        string `json:"game_id" gorm:"not null"`
	MiniGameID    string `json:"mini_game_id" gorm:"not null"`
	ModeID        string `json:"mode_id" gorm:"not null"`
	CharacterName string `json:"character_name" gorm:"not null"`
	CostumeName   string `json:"costume_name" gorm:"not null"`
	ShortName     string `json:"short_name"`

	Timestamps
}

// Player is the game identity of a platform user.
type Player struct {
	ID          string `json:"id" gorm:"primaryKey"`
	UserID      string `json:"user_id" gorm:"uniqueIndex;not null"` // identity service user
	PersonaName string `json:"persona_name" gorm:"not null"`

	Timestamps
}
