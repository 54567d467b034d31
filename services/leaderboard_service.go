package services

import (
	"score-tracking-system/models"
	"score-tracking-system/stores"

	"gorm.io/gorm"
)

// ScoreTableRow is one player's line in the leaderboard: a score slot per
// stage (nil when the player has no approved score there) and the summed
// total. Position is an enumeration rank within the page, not a value rank;
// the rows are already ordered by total descending.
type ScoreTableRow struct {
	PlayerID    string       `json:"player_id"`
	PersonaName string       `json:"persona_name"`
	Scores      []*ScoreView `json:"scores"`
	Total       int64        `json:"total"`
	Position    int          `json:"position"`
}

// ScoreTable is a full leaderboard page plus the stage list its columns
// follow.
type ScoreTable struct {
	Rows   []ScoreTableRow   `json:"score_tables"`
	Stages []models.Stage    `json:"stages"`
	Meta   models.Pagination `json:"meta"`
}

// LeaderboardService builds ranked score tables from approved scores only.
type LeaderboardService struct {
	DB     *gorm.DB
	Scores *stores.ScoreStore
	Refs   *stores.ReferenceStore
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{
		DB:     db,
		Scores: stores.NewScoreStore(db),
		Refs:   stores.NewReferenceStore(db),
	}
}

// FindScoreTable merges each host player's approved scores across the mode's
// stages into one ranking row per player.
func (s *LeaderboardService) FindScoreTable(platformID, gameID, miniGameID, modeID string, page, limit int) (*ScoreTable, error) {
	if platformID == "" || gameID == "" || miniGameID == "" || modeID == "" {
		return nil, validationf("platform_id, game_id, mini_game_id and mode_id are required")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	stages, err := s.Refs.FindStagesByDims(platformID, gameID, miniGameID, modeID)
	if err != nil {
		return nil, err
	}
	contextByStage, err := s.stageContextIndex(platformID, gameID, miniGameID, modeID)
	if err != nil {
		return nil, err
	}

	grouped, meta, err := s.Scores.FindScoreTable(stores.ScoreTableFilter{
		PlatformID: platformID,
		GameID:     gameID,
		MiniGameID: miniGameID,
		ModeID:     modeID,
	}, page, limit)
	if err != nil {
		return nil, err
	}

	table := &ScoreTable{Stages: stages, Meta: meta}
	position := (page-1)*limit + 1
	for _, group := range grouped {
		row := ScoreTableRow{
			PlayerID:    group.Player.ID,
			PersonaName: group.Player.PersonaName,
			Position:    position,
		}
		position++

		byContext := map[string]models.Score{}
		for _, score := range group.Scores {
			byContext[score.StageContextID] = score
		}
		// One slot per stage, in stage order; absent stages stay nil and
		// contribute 0 to the total.
		for _, stage := range stages {
			contextID := contextByStage[stage.ID]
			if score, ok := byContext[contextID]; ok {
				view := NewScoreView(&score)
				row.Scores = append(row.Scores, &view)
				row.Total += score.Value
			} else {
				row.Scores = append(row.Scores, nil)
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func (s *LeaderboardService) stageContextIndex(platformID, gameID, miniGameID, modeID string) (map[string]string, error) {
	var contexts []models.StageContext
	err := s.DB.
		Where("platform_id = ? AND game_id = ? AND mini_game_id = ? AND mode_id = ?",
			platformID, gameID, miniGameID, modeID).
		Find(&contexts).Error
	if err != nil {
		return nil, err
	}
	index := make(map[string]string, len(contexts))
	for _, ctx := range contexts {
		index[ctx.StageID] = ctx.ID
	}
	return index, nil
}
