package models

import (
	"time"
)

// Score lifecycle statuses. Transitions are driven exclusively by the
// approval engine; a rejected score keeps its row forever.
const (
	StatusAwaitingApprovalPlayer = "awaiting_approval_player"
	StatusAwaitingApprovalAdmin  = "awaiting_approval_admin"
	StatusRejectedByPlayer       = "rejected_by_player"
	StatusRejectedByAdmin        = "rejected_by_admin"
	StatusApproved               = "approved"
)

const (
	ApprovalActionApprove = "approve"
	ApprovalActionReject  = "reject"
)

// Score is one submitted performance record for a stage context.
type Score struct {
	ID                string `json:"id" gorm:"primaryKey"`
	StageContextID    string `json:"stage_context_id" gorm:"not null;index"`
	CreatedByPlayerID string `json:"created_by_player_id" gorm:"not null;index"`

	Value       int64  `json:"value" gorm:"not null"`
	Time        string `json:"time"` // formatted duration, e.g. 08'31"45 — stored verbatim
	MaxCombo    int    `json:"max_combo"`
	Description string `json:"description"`
	Evidence    string `json:"evidence"` // video URL

	Status       string     `json:"status" gorm:"not null;index;default:'awaiting_approval_admin'"`
	ApprovalDate *time.Time `json:"approval_date,omitempty"`

	// Relationships
	StageContext StageContext    `json:"stage_context,omitempty" gorm:"foreignKey:StageContextID"`
	ScorePlayers []ScorePlayer   `json:"score_players,omitempty" gorm:"foreignKey:ScoreID"`
	Approvals    []ScoreApproval `json:"approvals,omitempty" gorm:"foreignKey:ScoreID"`

	Timestamps
}

// HostPlayer returns the participant flagged as host. Every persisted score
// has exactly one.
func (s *Score) HostPlayer() *ScorePlayer {
	for i := range s.ScorePlayers {
		if s.ScorePlayers[i].Host {
			return &s.ScorePlayers[i]
		}
	}
	return nil
}

// ScorePlayer is one participant's contribution within a (possibly
// multi-player) Score. Owned by its Score, created in the same transaction.
type ScorePlayer struct {
	ID                 string `json:"id" gorm:"primaryKey"`
	ScoreID            string `json:"score_id" gorm:"not null;index"`
	PlayerID           string `json:"player_id" gorm:"not null;index"`
	CharacterCostumeID string `json:"character_costume_id" gorm:"not null"`

	Host        bool   `json:"host" gorm:"not null;default:false"`
	BulletKills int    `json:"bullet_kills"`
	Description string `json:"description"`
	Evidence    string `json:"evidence"`

	Player           Player           `json:"player,omitempty" gorm:"foreignKey:PlayerID"`
	CharacterCostume CharacterCostume `json:"character_costume,omitempty" gorm:"foreignKey:CharacterCostumeID"`

	Timestamps
}

// ScoreApproval is one approval/rejection decision. Append-only audit log:
// rows are never updated or deleted, counts are recomputed from them.
type ScoreApproval struct {
	ID      string `json:"id" gorm:"primaryKey"`
	ScoreID string `json:"score_id" gorm:"not null;index"`

	// Exactly one of PlayerID (peer approval) or UserID (admin approval) is set.
	PlayerID *string `json:"player_id,omitempty" gorm:"index"`
	UserID   *string `json:"user_id,omitempty" gorm:"index"`

	Action      string    `json:"action" gorm:"not null;type:varchar(16)"`
	ActionDate  time.Time `json:"action_date" gorm:"not null"`
	Description string    `json:"description"`

	Timestamps
}
