package services

import (
	"time"

	"score-tracking-system/models"
)

// Explicit view projections. Field lists are enumerated statically; the
// transport layer shapes nothing on its own.

type ScorePlayerView struct {
	ID                 string `json:"id"`
	PlayerID           string `json:"player_id"`
	PersonaName        string `json:"persona_name,omitempty"`
	CharacterCostumeID string `json:"character_costume_id"`
	Host               bool   `json:"host"`
	BulletKills        int    `json:"bullet_kills"`
	Description        string `json:"description,omitempty"`
	Evidence           string `json:"evidence,omitempty"`
}

type ScoreView struct {
	ID             string            `json:"id"`
	StageContextID string            `json:"stage_context_id"`
	Value          int64             `json:"value"`
	Time           string            `json:"time"`
	MaxCombo       int               `json:"max_combo"`
	Description    string            `json:"description,omitempty"`
	Evidence       string            `json:"evidence,omitempty"`
	Status         string            `json:"status"`
	ApprovalDate   *time.Time        `json:"approval_date,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	ScorePlayers   []ScorePlayerView `json:"score_players,omitempty"`
}

func NewScoreView(score *models.Score) ScoreView {
	view := ScoreView{
		ID:             score.ID,
		StageContextID: score.StageContextID,
		Value:          score.Value,
		Time:           score.Time,
		MaxCombo:       score.MaxCombo,
		Description:    score.Description,
		Evidence:       score.Evidence,
		Status:         score.Status,
		ApprovalDate:   score.ApprovalDate,
		CreatedAt:      score.CreatedAt,
	}
	for _, sp := range score.ScorePlayers {
		view.ScorePlayers = append(view.ScorePlayers, ScorePlayerView{
			ID:                 sp.ID,
			PlayerID:           sp.PlayerID,
			PersonaName:        sp.Player.PersonaName,
			CharacterCostumeID: sp.CharacterCostumeID,
			Host:               sp.Host,
			BulletKills:        sp.BulletKills,
			Description:        sp.Description,
			Evidence:           sp.Evidence,
		})
	}
	return view
}

// ApprovalListView is one page of an approval queue.
type ApprovalListView struct {
	Scores []ScoreView       `json:"scores"`
	Meta   models.Pagination `json:"meta"`
}

func NewApprovalListView(scores []models.Score, meta models.Pagination) ApprovalListView {
	view := ApprovalListView{Meta: meta, Scores: make([]ScoreView, 0, len(scores))}
	for i := range scores {
		view.Scores = append(view.Scores, NewScoreView(&scores[i]))
	}
	return view
}
