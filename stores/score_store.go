package stores

import (
	"errors"
	"sort"
	"time"

	"score-tracking-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrScoreNotFound = errors.New("score not found")
)

// ScoreTableFilter selects the dimensional slice a leaderboard is built over.
type ScoreTableFilter struct {
	PlatformID string
	GameID     string
	MiniGameID string
	ModeID     string
}

// ApprovalListParams filters the approval queues. PlatformID and Page are
// required; the remaining dimensions narrow the result.
type ApprovalListParams struct {
	PlatformID string
	GameID     string
	MiniGameID string
	ModeID     string
	Page       int
	Limit      int
}

// PlayerScores groups one host player's approved scores for the score table.
type PlayerScores struct {
	Player models.Player
	Scores []models.Score
	Total  int64
}

type ScoreStore struct {
	DB *gorm.DB
}

func NewScoreStore(db *gorm.DB) *ScoreStore {
	return &ScoreStore{DB: db}
}

// Save inserts a score and its participant rows atomically. Callers inside a
// larger transaction pass their tx; partial writes are never observable.
func (s *ScoreStore) Save(tx *gorm.DB, score *models.Score, players []models.ScorePlayer) error {
	return tx.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("ScorePlayers", "Approvals", "StageContext").Create(score).Error; err != nil {
			return err
		}
		for i := range players {
			players[i].ScoreID = score.ID
			if err := tx.Omit("Player", "CharacterCostume").Create(&players[i]).Error; err != nil {
				return err
			}
		}
		score.ScorePlayers = players
		return nil
	})
}

// Update applies a partial field update to one score.
func (s *ScoreStore) Update(tx *gorm.DB, id string, fields map[string]interface{}) error {
	result := tx.Model(&models.Score{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrScoreNotFound
	}
	return nil
}

// FindByIDOrFail fetches one score, optionally with its participant and
// audit relations preloaded.
func (s *ScoreStore) FindByIDOrFail(db *gorm.DB, id string, withRelations bool) (*models.Score, error) {
	var score models.Score
	q := db
	if withRelations {
		q = q.
			Preload("ScorePlayers").
			Preload("ScorePlayers.Player").
			Preload("ScorePlayers.CharacterCostume").
			Preload("Approvals").
			Preload("StageContext").
			Preload("StageContext.Stage")
	}
	if err := q.First(&score, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScoreNotFound
		}
		return nil, err
	}
	return &score, nil
}

// LockByID reads a score with its participants under a row lock, so that
// concurrent approval actions on the same score serialize instead of both
// acting on a stale approval count. The FOR UPDATE clause is only valid on
// postgres; the sqlite test dialect runs unlocked.
func (s *ScoreStore) LockByID(tx *gorm.DB, id string) (*models.Score, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var score models.Score
	if err := q.First(&score, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScoreNotFound
		}
		return nil, err
	}
	if err := tx.Where("score_id = ?", id).Find(&score.ScorePlayers).Error; err != nil {
		return nil, err
	}
	return &score, nil
}

// AddApproval appends one audit row. Approvals are never updated or deleted.
func (s *ScoreStore) AddApproval(tx *gorm.DB, approval *models.ScoreApproval) error {
	return tx.Create(approval).Error
}

// CountNonHostPlayers returns how many participants of a score are expected
// to peer-approve it. The host implicitly approved by submitting.
func (s *ScoreStore) CountNonHostPlayers(tx *gorm.DB, scoreID string) (int64, error) {
	var count int64
	err := tx.Model(&models.ScorePlayer{}).
		Where("score_id = ? AND host = ?", scoreID, false).
		Count(&count).Error
	return count, err
}

// CountDistinctPeerApprovals counts the distinct non-host participants that
// have an Approve row for a score. Counts are recomputed fresh on every
// action; rejections and re-approvals stay in the audit trail but a player
// is only counted once.
func (s *ScoreStore) CountDistinctPeerApprovals(tx *gorm.DB, scoreID, hostPlayerID string) (int64, error) {
	var count int64
	err := tx.Model(&models.ScoreApproval{}).
		Distinct("player_id").
		Where("score_id = ? AND action = ? AND player_id IS NOT NULL AND player_id <> ?",
			scoreID, models.ApprovalActionApprove, hostPlayerID).
		Count(&count).Error
	return count, err
}

// stageContextIDs resolves the stage contexts matching a dimensional filter,
// ordered by stage sort order.
func (s *ScoreStore) stageContextIDs(filter ScoreTableFilter) ([]string, error) {
	var ids []string
	err := s.DB.Model(&models.StageContext{}).
		Joins("JOIN stages ON stages.id = stage_contexts.stage_id").
		Where("stage_contexts.platform_id = ? AND stage_contexts.game_id = ? AND stage_contexts.mini_game_id = ? AND stage_contexts.mode_id = ?",
			filter.PlatformID, filter.GameID, filter.MiniGameID, filter.ModeID).
		Order("stages.sort_order ASC").
		Pluck("stage_contexts.id", &ids).Error
	return ids, err
}

// FindScoreTable pages the approved scores for a dimensional filter grouped
// by host player, ordered by summed value descending. A player with several
// approved scores on the same stage contributes only the highest one. The
// grouping, totals and ordering run in SQL; only the requested page of
// players is hydrated.
func (s *ScoreStore) FindScoreTable(filter ScoreTableFilter, page, limit int) ([]PlayerScores, models.Pagination, error) {
	contextIDs, err := s.stageContextIDs(filter)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	if len(contextIDs) == 0 {
		return nil, models.NewPagination(0, page, limit), nil
	}

	approved := func() *gorm.DB {
		return s.DB.Table("scores").
			Joins("JOIN score_players hosts ON hosts.score_id = scores.id AND hosts.host = ?", true).
			Where("scores.stage_context_id IN ? AND scores.status = ?", contextIDs, models.StatusApproved).
			Where("scores.deleted_at IS NULL AND hosts.deleted_at IS NULL")
	}

	var total int64
	if err := approved().Distinct("hosts.player_id").Count(&total).Error; err != nil {
		return nil, models.Pagination{}, err
	}
	meta := models.NewPagination(total, page, limit)

	// Best value per host player and stage, summed per player. Ties break on
	// player id so pages are stable.
	type hostTotal struct {
		PlayerID string
		Total    int64
	}
	bestPerStage := approved().
		Select("hosts.player_id AS player_id, scores.stage_context_id AS stage_context_id, MAX(scores.value) AS best_value").
		Group("hosts.player_id, scores.stage_context_id")
	var totals []hostTotal
	err = s.DB.Table("(?) AS best", bestPerStage).
		Select("best.player_id AS player_id, SUM(best.best_value) AS total").
		Group("best.player_id").
		Order("total DESC, player_id ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Scan(&totals).Error
	if err != nil {
		return nil, models.Pagination{}, err
	}
	if len(totals) == 0 {
		return nil, meta, nil
	}

	playerIDs := make([]string, 0, len(totals))
	for _, t := range totals {
		playerIDs = append(playerIDs, t.PlayerID)
	}

	var scores []models.Score
	err = s.DB.
		Preload("ScorePlayers").
		Preload("ScorePlayers.Player").
		Joins("JOIN score_players hosts ON hosts.score_id = scores.id AND hosts.host = ? AND hosts.deleted_at IS NULL", true).
		Where("hosts.player_id IN ? AND scores.stage_context_id IN ? AND scores.status = ?",
			playerIDs, contextIDs, models.StatusApproved).
		Find(&scores).Error
	if err != nil {
		return nil, models.Pagination{}, err
	}

	// Best score per stage context within each hydrated player.
	best := map[string]map[string]models.Score{}
	for _, score := range scores {
		host := score.HostPlayer()
		if host == nil {
			continue
		}
		byContext, ok := best[host.PlayerID]
		if !ok {
			byContext = map[string]models.Score{}
			best[host.PlayerID] = byContext
		}
		if current, ok := byContext[score.StageContextID]; !ok || score.Value > current.Value {
			byContext[score.StageContextID] = score
		}
	}

	grouped := make([]PlayerScores, 0, len(totals))
	for _, t := range totals {
		row := PlayerScores{Total: t.Total}
		for _, score := range best[t.PlayerID] {
			if row.Player.ID == "" {
				row.Player = score.HostPlayer().Player
			}
			row.Scores = append(row.Scores, score)
		}
		grouped = append(grouped, row)
	}
	return grouped, meta, nil
}

// approvalListQuery is the shared dimensional filter of both approval queues.
func (s *ScoreStore) approvalListQuery(params ApprovalListParams, status string) *gorm.DB {
	q := s.DB.Model(&models.Score{}).
		Joins("JOIN stage_contexts ON stage_contexts.id = scores.stage_context_id").
		Where("scores.status = ?", status).
		Where("stage_contexts.platform_id = ?", params.PlatformID)
	if params.GameID != "" {
		q = q.Where("stage_contexts.game_id = ?", params.GameID)
	}
	if params.MiniGameID != "" {
		q = q.Where("stage_contexts.mini_game_id = ?", params.MiniGameID)
	}
	if params.ModeID != "" {
		q = q.Where("stage_contexts.mode_id = ?", params.ModeID)
	}
	return q
}

// FindApprovalListAdmin pages through scores waiting on admin action.
func (s *ScoreStore) FindApprovalListAdmin(params ApprovalListParams) ([]models.Score, models.Pagination, error) {
	var total int64
	if err := s.approvalListQuery(params, models.StatusAwaitingApprovalAdmin).Count(&total).Error; err != nil {
		return nil, models.Pagination{}, err
	}

	var scores []models.Score
	err := s.approvalListQuery(params, models.StatusAwaitingApprovalAdmin).
		Preload("ScorePlayers").
		Preload("ScorePlayers.Player").
		Preload("StageContext").
		Preload("StageContext.Stage").
		Order("scores.created_at ASC").
		Offset((params.Page - 1) * params.Limit).
		Limit(params.Limit).
		Find(&scores).Error
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return scores, models.NewPagination(total, params.Page, params.Limit), nil
}

// FindApprovalListPlayer pages through scores waiting on a given player's
// peer approval: the player participates as non-host and has not approved yet.
func (s *ScoreStore) FindApprovalListPlayer(playerID string, params ApprovalListParams) ([]models.Score, models.Pagination, error) {
	pending := func() *gorm.DB {
		return s.approvalListQuery(params, models.StatusAwaitingApprovalPlayer).
			Joins("JOIN score_players ON score_players.score_id = scores.id").
			Where("score_players.player_id = ? AND score_players.host = ?", playerID, false).
			Where("NOT EXISTS (SELECT 1 FROM score_approvals sa WHERE sa.score_id = scores.id AND sa.player_id = ? AND sa.action = ?)",
				playerID, models.ApprovalActionApprove)
	}

	var total int64
	if err := pending().Count(&total).Error; err != nil {
		return nil, models.Pagination{}, err
	}

	var scores []models.Score
	err := pending().
		Preload("ScorePlayers").
		Preload("ScorePlayers.Player").
		Preload("StageContext").
		Preload("StageContext.Stage").
		Order("scores.created_at ASC").
		Offset((params.Page - 1) * params.Limit).
		Limit(params.Limit).
		Find(&scores).Error
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return scores, models.NewPagination(total, params.Page, params.Limit), nil
}

// FindTopScore returns the highest approved score on a stage context created
// at or after fromDate, or nil when none exists.
func (s *ScoreStore) FindTopScore(stageContextID string, fromDate time.Time) (*models.Score, error) {
	var score models.Score
	err := s.DB.
		Preload("ScorePlayers").
		Where("stage_context_id = ? AND status = ? AND created_at >= ?",
			stageContextID, models.StatusApproved, fromDate).
		Order("value DESC").
		First(&score).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &score, nil
}

// FindTopScoreByCostume returns the highest approved score on a stage where
// any participant used the given costume.
func (s *ScoreStore) FindTopScoreByCostume(stageContextID, costumeID string, fromDate time.Time) (*models.Score, error) {
	var score models.Score
	err := s.DB.
		Preload("ScorePlayers").
		Joins("JOIN score_players ON score_players.score_id = scores.id").
		Where("scores.stage_context_id = ? AND scores.status = ? AND scores.created_at >= ?",
			stageContextID, models.StatusApproved, fromDate).
		Where("score_players.character_costume_id = ?", costumeID).
		Order("scores.value DESC").
		First(&score).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &score, nil
}

// FindTopCombinationScore returns the highest approved score on a stage
// whose participants used exactly the given costume line-up. costumeIDs must
// already be sorted ascending, the canonical order scans store.
func (s *ScoreStore) FindTopCombinationScore(stageContextID string, costumeIDs []string, fromDate time.Time) (*models.Score, error) {
	var candidates []models.Score
	err := s.DB.
		Preload("ScorePlayers").
		Where("stage_context_id = ? AND status = ? AND created_at >= ?",
			stageContextID, models.StatusApproved, fromDate).
		Order("value DESC").
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		if costumeCombination(candidates[i].ScorePlayers, costumeIDs) {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

func costumeCombination(players []models.ScorePlayer, want []string) bool {
	if len(players) != len(want) {
		return false
	}
	got := make([]string, 0, len(players))
	for _, p := range players {
		got = append(got, p.CharacterCostumeID)
	}
	sort.Strings(got)
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
